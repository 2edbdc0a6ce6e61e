package llm

import (
	"context"
	"time"

	"blogpipe/internal/logger"
)

// TextGenerator is the narrow generation interface the pipeline depends on.
type TextGenerator interface {
	GenerateText(ctx context.Context, prompt string, options TextGenerationOptions) (string, error)
}

// Embedder turns texts into vectors, one per input.
type Embedder interface {
	EmbedTexts(ctx context.Context, texts []string) ([][]float64, error)
}

// TracedClient wraps a generator and embedder with structured call logging.
type TracedClient struct {
	generator TextGenerator
	embedder  Embedder
	model     string
}

// NewTracedClient wraps client so every call is logged with latency and a
// rough token estimate.
func NewTracedClient(client *Client) *TracedClient {
	return &TracedClient{generator: client, embedder: client, model: client.ModelName()}
}

// GenerateText generates text with call logging
func (tc *TracedClient) GenerateText(ctx context.Context, prompt string, options TextGenerationOptions) (string, error) {
	start := time.Now()
	result, err := tc.generator.GenerateText(ctx, prompt, options)

	model := options.Model
	if model == "" {
		model = tc.model
	}

	args := []any{
		"model", model,
		"latency_ms", time.Since(start).Milliseconds(),
		"tokens_estimate", estimateTokens(prompt, result),
		"structured", options.ResponseSchema != nil,
	}
	if err != nil {
		logger.Debug("LLM generation failed", append(args, "error", err.Error())...)
		return "", err
	}
	logger.Debug("LLM generation", args...)
	return result, nil
}

// EmbedTexts embeds texts with call logging
func (tc *TracedClient) EmbedTexts(ctx context.Context, texts []string) ([][]float64, error) {
	start := time.Now()
	vectors, err := tc.embedder.EmbedTexts(ctx, texts)

	args := []any{
		"inputs", len(texts),
		"latency_ms", time.Since(start).Milliseconds(),
	}
	if err != nil {
		logger.Debug("LLM embedding failed", append(args, "error", err.Error())...)
		return nil, err
	}
	logger.Debug("LLM embedding", args...)
	return vectors, nil
}

// estimateTokens provides a rough token count estimate
// Rule of thumb: ~4 characters per token
func estimateTokens(prompt, completion string) int {
	return (len(prompt) + len(completion)) / 4
}
