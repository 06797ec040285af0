package llm

import "context"

// Client abstracts the language-model provider behind narrative generation.
// Implementations must be safe for concurrent use across batch workers.
type Client interface {
	// Complete sends one prompt and returns the raw completion text.
	Complete(ctx context.Context, prompt string, maxTokens int, temperature float64) (string, error)
	// SourceName returns a short provider label to persist alongside the
	// generated narrative (e.g. "OpenRouter").
	SourceName() string
}
