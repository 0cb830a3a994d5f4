// Package llm provides language-model backends for the reasoning loop.
// Two backends are supported: a local Ollama server and any
// OpenAI-compatible chat completion endpoint.
package llm

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/mnordvik/statbot/internal/config"
)

// Client generates one free-text completion per call. Implementations must
// be safe for concurrent use; sessions running in parallel share one client.
type Client interface {
	Generate(ctx context.Context, prompt string) (string, error)
	// Label identifies the backend and model, e.g. "ollama (llama3.2)".
	Label() string
}

// Backend identifiers accepted in configuration.
const (
	BackendOllama = "ollama"
	BackendOpenAI = "openai"
)

// New constructs the client selected by cfg.LLM.Backend.
func New(cfg *config.Config, logger *zap.Logger) (Client, error) {
	switch cfg.LLM.Backend {
	case BackendOllama, "":
		return NewOllamaClient(cfg.LLM.BaseURL, cfg.LLM.Model, cfg.LLM.Timeout(), logger), nil
	case BackendOpenAI:
		return NewOpenAIClient(cfg.LLM.BaseURL, cfg.LLM.APIKey, cfg.LLM.Model, logger)
	default:
		return nil, fmt.Errorf("unknown llm backend %q (want %q or %q)",
			cfg.LLM.Backend, BackendOllama, BackendOpenAI)
	}
}
