// Package config provides environment configuration for the API server.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

// Config holds all configuration for the application.
type Config struct {
	// Server settings
	ServerPort         string
	ServerReadTimeout  time.Duration
	ServerWriteTimeout time.Duration
	CORSOrigins        []string

	// NATS settings; an empty URL keeps history in memory
	NATSURL      string
	NATSCAFile   string
	NATSCertFile string
	NATSKeyFile  string
	NATSToken    string

	// Storage
	DataPath        string
	CatalogSeedFile string
	HistoryLimit    int

	// JWT settings
	JWTSecret string

	// Provider credentials
	LLMProvider     string
	GroqAPIKey      string
	OpenAIAPIKey    string
	AnthropicAPIKey string
	SerpAPIKey      string
	ParamPrefix     string

	// Pipeline
	DefaultListingPrice             decimal.Decimal
	DefaultSearchShape              string
	HistoryWindow                   int
	MarketplaceResultLimit          int
	WebEvidenceLimit                int
	LLMModel                        string
	LLMTemperature                  float64
	LLMMaxTokens                    int
	LLMTimeout                      time.Duration
	SearchTimeout                   time.Duration
	ProviderRetryBackoff            time.Duration
	NegationRequiresMarketplaceTurn bool

	// Rate limiting
	RateLimitRequests int
	RateLimitWindow   time.Duration

	// Logging
	LogLevel string

	// Tracing
	TracingEndpoint string
	TracingEnabled  bool
}

// Load reads configuration from environment variables, after loading a
// local .env file when one exists.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		// Server
		ServerPort:         getEnv("PORT", "8080"),
		ServerReadTimeout:  getDurationEnv("SERVER_READ_TIMEOUT", 30*time.Second),
		ServerWriteTimeout: getDurationEnv("SERVER_WRITE_TIMEOUT", 120*time.Second),
		CORSOrigins:        getListEnv("CORS_ORIGINS"),

		// NATS
		NATSURL:      getEnv("NATS_URL", ""),
		NATSCAFile:   getEnv("NATS_CA_FILE", ""),
		NATSCertFile: getEnv("NATS_CERT_FILE", ""),
		NATSKeyFile:  getEnv("NATS_KEY_FILE", ""),
		NATSToken:    getEnv("NATS_TOKEN", ""),

		// Storage
		DataPath:        getEnv("DATA_PATH", "data/companion-chat.db"),
		CatalogSeedFile: getEnv("CATALOG_SEED_FILE", ""),
		HistoryLimit:    getIntEnv("HISTORY_LIMIT", 500),

		// JWT
		JWTSecret: getEnv("JWT_SECRET", "development-secret-change-in-production"),

		// Providers
		LLMProvider:     getEnv("LLM_PROVIDER", "groq"),
		GroqAPIKey:      getEnv("GROQ_API_KEY", ""),
		OpenAIAPIKey:    getEnv("OPENAI_API_KEY", ""),
		AnthropicAPIKey: getEnv("ANTHROPIC_API_KEY", ""),
		SerpAPIKey:      getEnv("SERP_API_KEY", ""),
		ParamPrefix:     strings.TrimSuffix(getEnv("PARAM_PREFIX", ""), "/"),

		// Pipeline
		DefaultListingPrice:             getDecimalEnv("DEFAULT_LISTING_PRICE", decimal.NewFromInt(50)),
		DefaultSearchShape:              getEnv("DEFAULT_SEARCH_SHAPE", "general"),
		HistoryWindow:                   getIntEnv("HISTORY_WINDOW", 10),
		MarketplaceResultLimit:          getIntEnv("MARKETPLACE_RESULT_LIMIT", 5),
		WebEvidenceLimit:                getIntEnv("WEB_EVIDENCE_LIMIT", 3),
		LLMModel:                        getEnv("LLM_MODEL", "llama3-8b-8192"),
		LLMTemperature:                  getFloatEnv("LLM_TEMPERATURE", 0.7),
		LLMMaxTokens:                    getIntEnv("LLM_MAX_TOKENS", 1000),
		LLMTimeout:                      getDurationEnv("LLM_TIMEOUT", 30*time.Second),
		SearchTimeout:                   getDurationEnv("SEARCH_TIMEOUT", 10*time.Second),
		ProviderRetryBackoff:            getDurationEnv("PROVIDER_RETRY_BACKOFF", 500*time.Millisecond),
		NegationRequiresMarketplaceTurn: getBoolEnv("NEGATION_REQUIRES_MARKETPLACE_TURN", false),

		// Rate limiting
		RateLimitRequests: getIntEnv("RATE_LIMIT_REQUESTS", 60),
		RateLimitWindow:   getDurationEnv("RATE_LIMIT_WINDOW", time.Minute),

		// Logging
		LogLevel: getEnv("LOG_LEVEL", "info"),

		// Tracing
		TracingEndpoint: getEnv("TRACING_ENDPOINT", "localhost:4318"),
		TracingEnabled:  getBoolEnv("TRACING_ENABLED", false),
	}
}

// LLMAPIKey returns the credential for the configured provider.
func (c *Config) LLMAPIKey() string {
	switch c.LLMProvider {
	case "openai":
		return c.OpenAIAPIKey
	case "anthropic":
		return c.AnthropicAPIKey
	default:
		return c.GroqAPIKey
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getFloatEnv(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getDecimalEnv(key string, defaultValue decimal.Decimal) decimal.Decimal {
	if value := os.Getenv(key); value != "" {
		if d, err := decimal.NewFromString(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func getListEnv(key string) []string {
	var out []string
	for _, part := range strings.Split(os.Getenv(key), ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
