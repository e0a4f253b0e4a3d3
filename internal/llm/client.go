// Package llm provides LLM client interfaces and implementations.
package llm

import (
	"context"
	"errors"
	"fmt"

	"github.com/capitalize-ai/companion-chat/internal/model"
)

// Chat roles.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// CompletionRequest represents a completion request.
type CompletionRequest struct {
	Model       string
	Messages    []ChatMessage
	MaxTokens   int
	Temperature float64
}

// ChatMessage represents a chat message for LLM.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// CompletionResponse represents a completion response.
type CompletionResponse struct {
	Content    string
	Model      string
	TokensIn   int
	TokensOut  int
	StopReason string
	LatencyMs  int64
}

// Client is the interface for LLM providers.
type Client interface {
	// Complete sends a completion request and returns the response.
	Complete(ctx context.Context, req *CompletionRequest) (*CompletionResponse, error)

	// Name returns the provider name.
	Name() string
}

// Provider is the type of LLM provider.
type Provider string

const (
	ProviderGroq      Provider = "groq"
	ProviderOpenAI    Provider = "openai"
	ProviderAnthropic Provider = "anthropic"
)

// NewClient creates a new LLM client based on provider.
func NewClient(provider Provider, apiKey string) (Client, error) {
	switch provider {
	case ProviderAnthropic:
		return NewAnthropicClient(apiKey)
	case ProviderOpenAI:
		return NewOpenAIClient(apiKey)
	default:
		return NewGroqClient(apiKey)
	}
}

func unavailable(provider string) error {
	return model.NewError(model.CodeProviderUnavailable, provider+"_api_key_missing",
		fmt.Errorf("%w: %s API key is required", model.ErrProviderUnavailable, provider))
}

var errEmptyCompletion = errors.New("empty completion")

func providerError(provider string, err error) error {
	return model.NewError(model.CodeProviderError, provider+"_error",
		fmt.Errorf("%w: %s: %v", model.ErrProviderError, provider, err))
}

// unavailableClient answers every request with the error that prevented the
// real provider from being constructed.
type unavailableClient struct {
	name string
	err  error
}

// NewUnavailableClient returns a Client whose Complete always fails with err.
func NewUnavailableClient(name string, err error) Client {
	return &unavailableClient{name: name, err: err}
}

func (c *unavailableClient) Complete(context.Context, *CompletionRequest) (*CompletionResponse, error) {
	return nil, c.err
}

func (c *unavailableClient) Name() string {
	return c.name
}
