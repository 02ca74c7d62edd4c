package driven

import "context"

// LLMService generates answers from prompts.
//
// Implementations may include:
//   - OpenAI-compatible APIs (DashScope qwen-plus, OpenAI gpt-4o-mini)
//   - Ollama (local models)
type LLMService interface {
	// Generate produces a single completion for the prompt.
	// Implementations must not retry; one call is one request.
	Generate(ctx context.Context, prompt string, opts GenerateOptions) (string, error)

	// ModelName returns the name of the LLM model being used.
	ModelName() string

	// Ping validates the service is reachable by making a lightweight test request.
	Ping(ctx context.Context) error

	// Close releases resources.
	Close() error
}

// GenerateOptions configures text generation behaviour.
type GenerateOptions struct {
	// MaxTokens is the maximum number of tokens to generate.
	MaxTokens int

	// Temperature controls randomness (0.0 = deterministic, 1.0 = creative).
	Temperature float64

	// System is an optional system message sent before the prompt.
	System string
}
