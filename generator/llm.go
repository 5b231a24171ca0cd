package generator

import "context"

// LLMClient abstracts the language model so implementations can be swapped or
// mocked.
type LLMClient interface {
	Complete(ctx context.Context, prompt Prompt) (string, error)
}

// LLMSettings is the base configuration handed to concrete implementations.
type LLMSettings struct {
	Provider    string
	Model       string
	APIKey      string
	BaseURL     string
	Temperature float64
}
