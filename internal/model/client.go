// Package model implements the language-model completion capability in two
// calling conventions: plain-text completion (callers parse JSON, tolerating
// markdown code fences) and a structured tool-call convention. Providers
// classify their failures so the generator can retry transient ones and fall
// back to the heuristic planner when retries are exhausted.
package model

import (
	"time"

	"smartcommit/internal/config"
	scerrors "smartcommit/internal/errors"
	"smartcommit/internal/types"
)

// Client is the provider interface consumed by the generator.
type Client = types.ModelClient

// New builds the configured provider, or nil when no model capability is
// configured (the generator then goes straight to the heuristic planner).
func New(cfg *config.Config) (Client, error) {
	if !cfg.HasModel() {
		return nil, nil
	}
	switch cfg.Model.Provider {
	case "anthropic":
		return NewAnthropicClient(AnthropicConfig{
			APIKey:  cfg.Model.APIKey,
			BaseURL: cfg.Model.BaseURL,
			Model:   cfg.Model.ModelName,
			Timeout: cfg.ModelTimeout(),
		}), nil
	case "gemini":
		return NewGeminiClient(GeminiConfig{
			APIKey: cfg.Model.APIKey,
			Model:  cfg.Model.ModelName,
		})
	default:
		return nil, scerrors.Errorf("unknown model provider %q", cfg.Model.Provider)
	}
}

// backoffBase is the first retry delay; attempt n waits base << (n-1).
const backoffBase = time.Second

// Backoff returns the exponential delay before retry attempt n (1-based):
// 1s, 2s, 4s, ...
func Backoff(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	return backoffBase << uint(attempt-1)
}
