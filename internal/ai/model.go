package ai

import (
	"context"
	"errors"
	"etape/training-hub/internal/config"
	"fmt"
	"log"
	"strings"
)

// ErrNotConfigured is returned by every call when no provider is set up.
var ErrNotConfigured = errors.New("AI service is not configured")

// Turn is one prior exchange in a conversation.
type Turn struct {
	Role    string // "user" or "assistant"
	Content string
}

// Prompt is a provider-neutral completion request. The last turn is the question.
type Prompt struct {
	System    string
	Turns     []Turn
	JSON      bool // ask the provider for a JSON-only answer
	MaxTokens int
}

// Model is a text completion backend.
type Model interface {
	Complete(ctx context.Context, p Prompt) (string, error)
	Name() string
}

// NewModel builds the configured provider's model. An empty provider yields a
// model that always fails with ErrNotConfigured.
func NewModel(ctx context.Context, cfg config.AIConfig) (Model, error) {
	provider := strings.ToLower(cfg.Provider)
	if provider == "" {
		log.Println("INFO: AI provider not configured; plan parsing and chat are disabled")
		return disabledModel{}, nil
	}
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("ai.api_key is required when using the %s provider", provider)
	}

	log.Printf("Initializing %s model client", provider)
	switch provider {
	case "openai":
		return NewOpenAIModel(cfg.APIKey, cfg.Model), nil
	case "gemini":
		m, err := NewGeminiModel(ctx, cfg.APIKey, cfg.Model)
		if err != nil {
			return nil, fmt.Errorf("failed to create Gemini client: %w", err)
		}
		return m, nil
	default:
		return nil, fmt.Errorf("unsupported AI provider: %s. Use 'openai' or 'gemini'", cfg.Provider)
	}
}

type disabledModel struct{}

func (disabledModel) Complete(context.Context, Prompt) (string, error) { return "", ErrNotConfigured }
func (disabledModel) Name() string { return "disabled" }

// Enabled reports whether m can answer prompts.
func Enabled(m Model) bool {
	if m == nil {
		return false
	}
	_, off := m.(disabledModel)
	return !off
}
