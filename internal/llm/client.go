package llm

import (
	"context"
	"time"

	"github.com/Armandogl14/Proyecto-grado-ICC/internal/config"
)

// Client wraps a Provider with the configured model parameters and a
// per-call timeout. All LLM consumers (segmenter, validator, summarizer)
// share one Client.
type Client struct {
	provider    Provider
	maxTokens   int
	temperature float64
	timeout     time.Duration
}

// NewClient creates a Client from config. Returns an error when the provider
// cannot be constructed (unknown name, missing API key).
func NewClient(cfg *config.LLMConfig) (*Client, error) {
	provider, err := NewProvider(cfg.Provider, cfg.Model)
	if err != nil {
		return nil, err
	}
	return &Client{
		provider:    provider,
		maxTokens:   cfg.MaxTokens,
		temperature: cfg.Temperature,
		timeout:     time.Duration(cfg.TimeoutSeconds) * time.Second,
	}, nil
}

// NewClientWithProvider wraps an existing provider; used by tests.
func NewClientWithProvider(provider Provider, maxTokens int, temperature float64, timeout time.Duration) *Client {
	return &Client{
		provider:    provider,
		maxTokens:   maxTokens,
		temperature: temperature,
		timeout:     timeout,
	}
}

// Complete sends a prompt to the provider under the configured timeout.
func (c *Client) Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}
	return c.provider.Complete(ctx, systemPrompt, userPrompt, c.maxTokens, c.temperature)
}
