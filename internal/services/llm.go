package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"alfredoptarigan/resume-analyzer/internal/config"
)

// ErrMissingCredential is returned before any network call when the provider
// has no API key configured.
var ErrMissingCredential = errors.New("llm credential is not configured")

// UpstreamError is a non-2xx answer from the LLM provider. Body is kept for
// logging and must not be shown to end users.
type UpstreamError struct {
	StatusCode int
	Body       string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("llm returned HTTP %d: %s", e.StatusCode, e.Body)
}

// LLMClient issues a single completion call. Implementations never retry.
type LLMClient interface {
	Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// NewLLMClient picks the provider configured in cfg.LLM.Provider.
func NewLLMClient(cfg *config.Config, httpClient *http.Client) LLMClient {
	switch cfg.LLM.Provider {
	case config.ProviderGemini:
		return NewGeminiClient(cfg.LLM.GeminiAPIKey, cfg.LLM.GeminiModel, cfg.LLM.Temperature, cfg.LLM.MaxTokens)
	default:
		return NewChatCompletionClient(ChatCompletionOptions{
			BaseURL:     cfg.LLM.BaseURL,
			APIKey:      cfg.LLM.APIKey,
			Model:       cfg.LLM.Model,
			Temperature: cfg.LLM.Temperature,
			MaxTokens:   cfg.LLM.MaxTokens,
		}, httpClient)
	}
}
