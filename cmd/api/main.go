// Package main is the entry point for the API server.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/capitalize-ai/companion-chat/internal/config"
	"github.com/capitalize-ai/companion-chat/internal/handler"
	"github.com/capitalize-ai/companion-chat/internal/llm"
	"github.com/capitalize-ai/companion-chat/internal/middleware"
	"github.com/capitalize-ai/companion-chat/internal/model"
	natsclient "github.com/capitalize-ai/companion-chat/internal/nats"
	"github.com/capitalize-ai/companion-chat/internal/pipeline"
	"github.com/capitalize-ai/companion-chat/internal/prompt"
	"github.com/capitalize-ai/companion-chat/internal/search"
	"github.com/capitalize-ai/companion-chat/internal/secrets"
	"github.com/capitalize-ai/companion-chat/internal/service"
	"github.com/capitalize-ai/companion-chat/internal/store"
	"github.com/capitalize-ai/companion-chat/pkg/logger"
	"github.com/capitalize-ai/companion-chat/pkg/tracing"
)

func main() {
	// Load configuration
	cfg := config.Load()

	// Initialize logger
	log, err := logger.New(cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()
	logger.SetGlobal(log)

	log.Info("starting API server")

	ctx := context.Background()
	if cfg.TracingEnabled {
		tp, err := tracing.InitTracer(ctx, "companion-chat", cfg.TracingEndpoint)
		if err != nil {
			log.Warn("failed to initialize tracing", zap.Error(err))
		} else {
			defer tracing.Shutdown(ctx, tp)
		}
	}

	// Credentials not set in the environment come from Parameter Store
	if cfg.ParamPrefix != "" {
		params, err := secrets.NewFromEnvironment(ctx, cfg.ParamPrefix)
		if err != nil {
			log.Warn("parameter store unavailable", zap.Error(err))
		} else {
			params.Fill(ctx, log, map[string]*string{
				"serp_api_key":      &cfg.SerpAPIKey,
				"groq_api_key":      &cfg.GroqAPIKey,
				"openai_api_key":    &cfg.OpenAIAPIKey,
				"anthropic_api_key": &cfg.AnthropicAPIKey,
				"jwt_secret":        &cfg.JWTSecret,
			})
		}
	}

	// Catalog and preferences
	db, err := store.Open(cfg.DataPath)
	if err != nil {
		log.Fatal("failed to open data store", zap.String("path", cfg.DataPath), zap.Error(err))
	}
	defer db.Close()

	catalog := store.NewCatalog(db)
	if cfg.CatalogSeedFile != "" {
		n, err := catalog.LoadSeed(ctx, cfg.CatalogSeedFile)
		if err != nil {
			log.Fatal("failed to seed catalog", zap.String("file", cfg.CatalogSeedFile), zap.Error(err))
		}
		if n > 0 {
			log.Info("catalog seeded", zap.Int("items", n))
		}
	}
	preferences := store.NewPreferences(db)

	// History and events
	var (
		history    service.History = store.NewMemoryHistory(cfg.HistoryLimit)
		events     pipeline.EventPublisher
		natsClient *natsclient.Client
	)
	if cfg.NATSURL != "" {
		natsClient, err = natsclient.Connect(ctx, natsclient.Config{
			URL:      cfg.NATSURL,
			CAFile:   cfg.NATSCAFile,
			CertFile: cfg.NATSCertFile,
			KeyFile:  cfg.NATSKeyFile,
			Token:    cfg.NATSToken,
		}, log)
		if err != nil {
			log.Fatal("failed to connect to NATS", zap.Error(err))
		}
		defer natsClient.Close()

		streamManager := natsclient.NewStreamManager(natsClient, log)
		if err := streamManager.EnsureStream(ctx); err != nil {
			log.Fatal("failed to ensure stream", zap.Error(err))
		}
		go recordStreamStats(ctx, streamManager, log)

		history = natsclient.NewHistoryStore(streamManager)
		events = natsclient.NewEventPublisher(streamManager)
	} else {
		log.Info("NATS_URL not set, keeping chat history in memory")
	}

	// Providers
	var llmClient llm.Client
	llmClient, err = llm.NewClient(llm.Provider(cfg.LLMProvider), cfg.LLMAPIKey())
	if err != nil {
		log.Warn("LLM client unavailable, conversation replies will apologize",
			zap.String("provider", cfg.LLMProvider), zap.Error(err))
		llmClient = llm.NewUnavailableClient(cfg.LLMProvider, err)
	}

	searchClient := search.NewClient(search.Config{
		APIKey:       cfg.SerpAPIKey,
		Timeout:      cfg.SearchTimeout,
		RetryBackoff: cfg.ProviderRetryBackoff,
	}, log)
	if !searchClient.Configured() {
		log.Warn("SERP_API_KEY not set, web search disabled")
	}

	personas, err := prompt.LoadPersonas()
	if err != nil {
		log.Fatal("failed to load persona templates", zap.Error(err))
	}

	deps := pipeline.Deps{
		Catalog:     catalog,
		Search:      searchClient,
		LLM:         llmClient,
		Preferences: preferences,
		Assembler:   prompt.NewAssembler(personas, cfg.HistoryWindow),
		Events:      events,
	}
	if tokenizer, err := prompt.NewTokenizer(); err != nil {
		log.Warn("tokenizer unavailable, prompt token metrics disabled", zap.Error(err))
	} else {
		deps.Tokens = tokenizer
	}

	defaultShape := model.ParseShape(cfg.DefaultSearchShape, model.ShapeGeneral)
	orchestrator := pipeline.New(pipeline.Config{
		DefaultListingPrice:    cfg.DefaultListingPrice,
		DefaultSearchShape:     defaultShape,
		MarketplaceResultLimit: cfg.MarketplaceResultLimit,
		WebEvidenceLimit:       cfg.WebEvidenceLimit,
		Model:                  cfg.LLMModel,
		Temperature:            cfg.LLMTemperature,
		MaxTokens:              cfg.LLMMaxTokens,
		LLMTimeout:             cfg.LLMTimeout,
		RetryBackoff:           cfg.ProviderRetryBackoff,
		Routing: pipeline.RouteOptions{
			NegationRequiresMarketplaceTurn: cfg.NegationRequiresMarketplaceTurn,
		},
	}, deps, log)

	// Initialize services
	sessionSvc := service.NewSessionService(store.NewSessions(db), history, log)
	chatSvc := service.NewChatService(sessionSvc, history, orchestrator, cfg.HistoryWindow, log)

	// Initialize handlers
	healthHandler := handler.NewHealthHandler(natsClient, db)
	sessionHandler := handler.NewSessionHandler(sessionSvc, log)
	messageHandler := handler.NewMessageHandler(chatSvc, log)
	searchHandler := handler.NewSearchHandler(searchClient, defaultShape, log)
	marketplaceHandler := handler.NewMarketplaceHandler(catalog, log)

	// Create router
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Logging(log))
	r.Use(middleware.SecurityHeaders)
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.CORS(cfg.CORSOrigins))
	r.Use(middleware.RateLimit(cfg.RateLimitRequests*5, cfg.RateLimitWindow))

	// Health endpoints (no auth required)
	r.Get("/health", healthHandler.Health)
	r.Get("/ready", healthHandler.Ready)

	// Metrics endpoint
	r.Handle("/metrics", promhttp.Handler())

	// API routes with authentication
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWTSecret))
		r.Use(middleware.UserRateLimit(cfg.RateLimitRequests, cfg.RateLimitWindow))

		r.Route("/sessions", func(r chi.Router) {
			r.Post("/", sessionHandler.Start)
			r.Get("/", sessionHandler.List)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", sessionHandler.Get)
				r.Delete("/", sessionHandler.Delete)

				r.Get("/messages", messageHandler.List)
				r.Post("/messages", messageHandler.Send)
			})
		})

		r.Post("/search", searchHandler.Search)

		r.Route("/marketplace/products", func(r chi.Router) {
			r.Get("/", marketplaceHandler.List)
			r.Get("/{id}", marketplaceHandler.Get)
		})
	})

	// Create HTTP server
	server := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      r,
		ReadTimeout:  cfg.ServerReadTimeout,
		WriteTimeout: cfg.ServerWriteTimeout,
		IdleTimeout:  120 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Info("server listening", zap.String("port", cfg.ServerPort))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("server error", zap.Error(err))
		}
	}()

	// Wait for shutdown signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server")

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("server forced to shutdown", zap.Error(err))
	}

	log.Info("server stopped")
}

func recordStreamStats(ctx context.Context, m *natsclient.StreamManager, log *logger.Logger) {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := m.RecordStreamStats(ctx); err != nil {
				log.Debug("stream stats unavailable", zap.Error(err))
			}
		}
	}
}
