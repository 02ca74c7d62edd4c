package domain

import "time"

const unknownDescription = "Unknown"

// AIProvider identifies an AI service provider for embeddings or completions.
type AIProvider string

// Available AI providers.
const (
	// AIProviderOpenAI is any OpenAI-compatible cloud API, DashScope included.
	AIProviderOpenAI AIProvider = "openai"

	// AIProviderOllama is a local Ollama instance.
	AIProviderOllama AIProvider = "ollama"
)

// IsValid returns true if the AI provider is recognised.
func (p AIProvider) IsValid() bool {
	switch p {
	case AIProviderOpenAI, AIProviderOllama:
		return true
	default:
		return false
	}
}

// RequiresAPIKey returns true if this provider needs an API key.
func (p AIProvider) RequiresAPIKey() bool {
	return p == AIProviderOpenAI
}

// IsLocal returns true if this provider runs locally.
func (p AIProvider) IsLocal() bool {
	return p == AIProviderOllama
}

// String returns the string representation.
func (p AIProvider) String() string {
	return string(p)
}

// Description returns a human-readable description of the provider.
func (p AIProvider) Description() string {
	switch p {
	case AIProviderOpenAI:
		return "OpenAI-compatible (cloud)"
	case AIProviderOllama:
		return "Ollama (local)"
	default:
		return unknownDescription
	}
}

// Defaults for the hosted DashScope compatible-mode endpoint.
const (
	DefaultBaseURL           = "https://dashscope.aliyuncs.com/compatible-mode/v1"
	DefaultEmbeddingModel    = "text-embedding-v4"
	DefaultEmbeddingDims     = 1024
	DefaultLLMModel          = "qwen-plus"
	DefaultLLMTemperature    = 0.1
	DefaultBatchSize         = 4
	DefaultMaxRetries        = 3
	DefaultRetryBackoff      = time.Second
	DefaultChunkSize         = 1000
	DefaultChunkOverlap      = 200
	DefaultTopK              = 5
	DefaultMaxContextChars   = 6000
	DefaultEmbeddingWorkers  = 1
	DefaultQueryCacheTTL     = 10 * time.Minute
	DefaultCompletionTimeout = 120 * time.Second
	DefaultEmbeddingTimeout  = 60 * time.Second
)

// EmbeddingSettings holds embedding provider configuration.
type EmbeddingSettings struct {
	// Provider is the embedding service provider.
	Provider AIProvider

	// Model is the embedding model name.
	Model string

	// BaseURL is the API endpoint.
	BaseURL string

	// APIKey is the API key (for OpenAI-compatible providers).
	APIKey string

	// Dimensions is the output vector size requested from the model.
	Dimensions int

	// BatchSize bounds the number of texts per request.
	BatchSize int

	// MaxRetries is the number of attempts per batch.
	MaxRetries int

	// RetryBackoff is the base of the exponential backoff between attempts.
	RetryBackoff time.Duration

	// Workers is the number of batches dispatched in parallel.
	Workers int

	// RequestsPerSecond paces requests, 0 disables pacing.
	RequestsPerSecond float64

	// Timeout is the per-request budget.
	Timeout time.Duration
}

// IsConfigured returns true if the embedding provider is set up.
func (e EmbeddingSettings) IsConfigured() bool {
	if !e.Provider.IsValid() {
		return false
	}
	if e.Provider.RequiresAPIKey() && e.APIKey == "" {
		return false
	}
	return true
}

// LLMSettings holds completion provider configuration.
type LLMSettings struct {
	// Provider is the LLM service provider.
	Provider AIProvider

	// Model is the LLM model name.
	Model string

	// BaseURL is the API endpoint.
	BaseURL string

	// APIKey is the API key (for OpenAI-compatible providers).
	APIKey string

	// Temperature controls randomness of answers.
	Temperature float64

	// MaxTokens bounds the answer length, 0 leaves it to the provider.
	MaxTokens int

	// Timeout is the per-request budget.
	Timeout time.Duration
}

// IsConfigured returns true if the LLM provider is set up.
func (l LLMSettings) IsConfigured() bool {
	if !l.Provider.IsValid() {
		return false
	}
	if l.Provider.RequiresAPIKey() && l.APIKey == "" {
		return false
	}
	return true
}

// ChunkingSettings holds text splitting configuration.
type ChunkingSettings struct {
	// Size is the maximum chunk length in characters.
	Size int

	// Overlap is the number of characters carried into the next chunk.
	Overlap int
}

// RetrievalSettings holds query configuration.
type RetrievalSettings struct {
	// TopK is the number of chunks retrieved per question.
	TopK int

	// MaxContextChars bounds the context block sent to the completion service.
	MaxContextChars int

	// QueryCacheTTL is how long question embeddings are memoised.
	QueryCacheTTL time.Duration
}

// StoreSettings holds vector store configuration.
type StoreSettings struct {
	// Backend selects the vector store variant.
	Backend BackendKind

	// CacheRoot is the directory holding one sub-directory per fingerprint.
	CacheRoot string
}

// Settings holds all application settings.
// It is passed explicitly to constructors; nothing reads it globally.
type Settings struct {
	Embedding EmbeddingSettings
	LLM       LLMSettings
	Chunking  ChunkingSettings
	Retrieval RetrievalSettings
	Store     StoreSettings
}

// DefaultSettings returns settings with the hosted defaults.
// API keys are left empty and must come from config or the environment.
func DefaultSettings() Settings {
	return Settings{
		Embedding: EmbeddingSettings{
			Provider:     AIProviderOpenAI,
			Model:        DefaultEmbeddingModel,
			BaseURL:      DefaultBaseURL,
			Dimensions:   DefaultEmbeddingDims,
			BatchSize:    DefaultBatchSize,
			MaxRetries:   DefaultMaxRetries,
			RetryBackoff: DefaultRetryBackoff,
			Workers:      DefaultEmbeddingWorkers,
			Timeout:      DefaultEmbeddingTimeout,
		},
		LLM: LLMSettings{
			Provider:    AIProviderOpenAI,
			Model:       DefaultLLMModel,
			BaseURL:     DefaultBaseURL,
			Temperature: DefaultLLMTemperature,
			Timeout:     DefaultCompletionTimeout,
		},
		Chunking: ChunkingSettings{
			Size:    DefaultChunkSize,
			Overlap: DefaultChunkOverlap,
		},
		Retrieval: RetrievalSettings{
			TopK:            DefaultTopK,
			MaxContextChars: DefaultMaxContextChars,
			QueryCacheTTL:   DefaultQueryCacheTTL,
		},
		Store: StoreSettings{
			Backend: BackendIncremental,
		},
	}
}

// AllBackends returns all vector store variants.
func AllBackends() []BackendKind {
	return []BackendKind{
		BackendIncremental,
		BackendBatchOnly,
	}
}

// AllProviders returns all AI providers.
func AllProviders() []AIProvider {
	return []AIProvider{
		AIProviderOpenAI,
		AIProviderOllama,
	}
}
