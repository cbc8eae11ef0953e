package generator

import "context"

// LLMClient is the model backend plans are written by. MockLLM and
// OpenAILLM implement it.
type LLMClient interface {
	Complete(ctx context.Context, prompt Prompt) (string, error)
}

// LLMSettings configures an OpenAI-compatible client. Zero Temperature and
// MaxTokens leave the provider defaults in place.
type LLMSettings struct {
	Provider    string
	Model       string
	APIKey      string
	BaseURL     string
	Temperature float64
	MaxTokens   int64
}
