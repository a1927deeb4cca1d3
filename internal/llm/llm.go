// Package llm provides chat completion clients for the assistant features.
package llm

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ukydev/mecsentinel/internal/config"
)

// ErrNotConfigured is returned when no provider credentials are available.
var ErrNotConfigured = errors.New("llm provider not configured")

// Role is the author of a message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one turn of a conversation.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// Request is a provider independent completion request.
type Request struct {
	System      string
	Messages    []Message
	Temperature float32
	MaxTokens   int
}

// Default generation settings.
const (
	DefaultTemperature float32 = 0.7
	DefaultMaxTokens           = 1000
	DefaultTimeout             = 60 * time.Second
)

// Completer returns the assistant reply for a request.
type Completer interface {
	Complete(ctx context.Context, req Request) (string, error)
}

// Disabled is the Completer used when no provider is configured.
type Disabled struct{}

// Complete always fails with ErrNotConfigured.
func (Disabled) Complete(context.Context, Request) (string, error) {
	return "", ErrNotConfigured
}

// New builds the Completer selected by cfg.
func New(ctx context.Context, cfg config.LLMConfig) (Completer, error) {
	switch cfg.Provider {
	case "":
		return Disabled{}, nil
	case "openai":
		if cfg.OpenAIKey == "" {
			return nil, fmt.Errorf("openai: %w", ErrNotConfigured)
		}
		return NewOpenAIClient(OpenAIConfig{
			APIKey:  cfg.OpenAIKey,
			BaseURL: cfg.OpenAIBaseURL,
			Model:   cfg.OpenAIModel,
		}), nil
	case "gemini":
		if cfg.GeminiKey == "" {
			return nil, fmt.Errorf("gemini: %w", ErrNotConfigured)
		}
		return NewGeminiClient(ctx, GeminiConfig{
			APIKey: cfg.GeminiKey,
			Model:  cfg.GeminiModel,
		})
	default:
		return nil, fmt.Errorf("unknown llm provider %q", cfg.Provider)
	}
}

func withDefaults(req Request) Request {
	if req.Temperature <= 0 {
		req.Temperature = DefaultTemperature
	}
	if req.MaxTokens <= 0 {
		req.MaxTokens = DefaultMaxTokens
	}
	return req
}
