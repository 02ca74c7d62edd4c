package services

import (
	"fmt"
	"os"
	"time"

	"github.com/custodia-labs/paperqa/internal/core/domain"
	"github.com/custodia-labs/paperqa/internal/core/ports/driven"
	"github.com/custodia-labs/paperqa/internal/core/ports/driving"
)

// Ensure SettingsService implements the interface.
var _ driving.SettingsService = (*SettingsService)(nil)

// Config keys for settings storage.
//
//nolint:gosec // G101: These are config key names, not actual credentials.
const (
	keyEmbedProvider   = "embedding.provider"
	keyEmbedModel      = "embedding.model"
	keyEmbedBaseURL    = "embedding.base_url"
	keyEmbedAPIKey     = "embedding.api_key"
	keyEmbedDims       = "embedding.dimensions"
	keyEmbedBatchSize  = "embedding.batch_size"
	keyEmbedRetries    = "embedding.max_retries"
	keyEmbedBackoff    = "embedding.retry_backoff"
	keyEmbedWorkers    = "embedding.workers"
	keyEmbedRPS        = "embedding.requests_per_second"
	keyEmbedTimeout    = "embedding.timeout"
	keyLLMProvider     = "llm.provider"
	keyLLMModel        = "llm.model"
	keyLLMBaseURL      = "llm.base_url"
	keyLLMAPIKey       = "llm.api_key"
	keyLLMTemperature  = "llm.temperature"
	keyLLMMaxTokens    = "llm.max_tokens"
	keyLLMTimeout      = "llm.timeout"
	keyChunkSize       = "chunking.size"
	keyChunkOverlap    = "chunking.overlap"
	keyTopK            = "retrieval.top_k"
	keyMaxContextChars = "retrieval.max_context_chars"
	keyQueryCacheTTL   = "retrieval.query_cache_ttl"
	keyStoreBackend    = "store.backend"
	keyStoreCacheRoot  = "store.cache_root"
)

// apiKeyEnvVars are consulted in order when no key is configured.
var apiKeyEnvVars = []string{"DASHSCOPE_API_KEY", "OPENAI_API_KEY"}

// defaultOllamaURL is used when switching a provider to Ollama.
const defaultOllamaURL = "http://localhost:11434"

// SettingsService manages application settings.
type SettingsService struct {
	configStore driven.ConfigStore
	aiValidator driven.AIConfigValidator
	getenv      func(string) string
}

// NewSettingsService creates a new settings service.
// The aiValidator parameter is optional (can be nil).
func NewSettingsService(configStore driven.ConfigStore, aiValidator driven.AIConfigValidator) *SettingsService {
	return &SettingsService{
		configStore: configStore,
		aiValidator: aiValidator,
		getenv:      os.Getenv,
	}
}

// Get retrieves current application settings with defaults applied.
// API keys fall back to the environment when the config has none.
func (s *SettingsService) Get() (*domain.Settings, error) {
	d := domain.DefaultSettings()

	settings := &domain.Settings{
		Embedding: domain.EmbeddingSettings{
			Provider:          s.getProvider(keyEmbedProvider, d.Embedding.Provider),
			Model:             s.getString(keyEmbedModel, d.Embedding.Model),
			BaseURL:           s.getString(keyEmbedBaseURL, d.Embedding.BaseURL),
			APIKey:            s.apiKey(keyEmbedAPIKey),
			Dimensions:        s.getInt(keyEmbedDims, d.Embedding.Dimensions),
			BatchSize:         s.getInt(keyEmbedBatchSize, d.Embedding.BatchSize),
			MaxRetries:        s.getInt(keyEmbedRetries, d.Embedding.MaxRetries),
			RetryBackoff:      s.getDuration(keyEmbedBackoff, d.Embedding.RetryBackoff),
			Workers:           s.getInt(keyEmbedWorkers, d.Embedding.Workers),
			RequestsPerSecond: s.configStore.GetFloat(keyEmbedRPS),
			Timeout:           s.getDuration(keyEmbedTimeout, d.Embedding.Timeout),
		},
		LLM: domain.LLMSettings{
			Provider:    s.getProvider(keyLLMProvider, d.LLM.Provider),
			Model:       s.getString(keyLLMModel, d.LLM.Model),
			BaseURL:     s.getString(keyLLMBaseURL, d.LLM.BaseURL),
			APIKey:      s.apiKey(keyLLMAPIKey),
			Temperature: s.getFloat(keyLLMTemperature, d.LLM.Temperature),
			MaxTokens:   s.configStore.GetInt(keyLLMMaxTokens),
			Timeout:     s.getDuration(keyLLMTimeout, d.LLM.Timeout),
		},
		Chunking: domain.ChunkingSettings{
			Size:    s.getInt(keyChunkSize, d.Chunking.Size),
			Overlap: s.getInt(keyChunkOverlap, d.Chunking.Overlap),
		},
		Retrieval: domain.RetrievalSettings{
			TopK:            s.getInt(keyTopK, d.Retrieval.TopK),
			MaxContextChars: s.getInt(keyMaxContextChars, d.Retrieval.MaxContextChars),
			QueryCacheTTL:   s.getDuration(keyQueryCacheTTL, d.Retrieval.QueryCacheTTL),
		},
		Store: domain.StoreSettings{
			Backend:   s.getBackend(d.Store.Backend),
			CacheRoot: s.configStore.GetString(keyStoreCacheRoot),
		},
	}

	// Overlap must stay below the window.
	if settings.Chunking.Overlap >= settings.Chunking.Size {
		settings.Chunking.Overlap = settings.Chunking.Size / 4
	}

	return settings, nil
}

// Save persists application settings.
// API keys are only written when set, so environment keys never land on disk.
func (s *SettingsService) Save(settings *domain.Settings) error {
	values := []struct {
		key   string
		value any
	}{
		{keyEmbedProvider, settings.Embedding.Provider.String()},
		{keyEmbedModel, settings.Embedding.Model},
		{keyEmbedBaseURL, settings.Embedding.BaseURL},
		{keyEmbedDims, settings.Embedding.Dimensions},
		{keyEmbedBatchSize, settings.Embedding.BatchSize},
		{keyEmbedRetries, settings.Embedding.MaxRetries},
		{keyEmbedWorkers, settings.Embedding.Workers},
		{keyLLMProvider, settings.LLM.Provider.String()},
		{keyLLMModel, settings.LLM.Model},
		{keyLLMBaseURL, settings.LLM.BaseURL},
		{keyLLMTemperature, settings.LLM.Temperature},
		{keyChunkSize, settings.Chunking.Size},
		{keyChunkOverlap, settings.Chunking.Overlap},
		{keyTopK, settings.Retrieval.TopK},
		{keyMaxContextChars, settings.Retrieval.MaxContextChars},
		{keyStoreBackend, settings.Store.Backend.String()},
	}

	for _, v := range values {
		if err := s.configStore.Set(v.key, v.value); err != nil {
			return fmt.Errorf("save %s: %w", v.key, err)
		}
	}

	if settings.Store.CacheRoot != "" {
		if err := s.configStore.Set(keyStoreCacheRoot, settings.Store.CacheRoot); err != nil {
			return fmt.Errorf("save %s: %w", keyStoreCacheRoot, err)
		}
	}
	if settings.Embedding.APIKey != "" && settings.Embedding.APIKey != s.envAPIKey() {
		if err := s.configStore.Set(keyEmbedAPIKey, settings.Embedding.APIKey); err != nil {
			return fmt.Errorf("save embedding api_key: %w", err)
		}
	}
	if settings.LLM.APIKey != "" && settings.LLM.APIKey != s.envAPIKey() {
		if err := s.configStore.Set(keyLLMAPIKey, settings.LLM.APIKey); err != nil {
			return fmt.Errorf("save llm api_key: %w", err)
		}
	}

	return nil
}

// SetBackend selects the vector store variant used for new collections.
func (s *SettingsService) SetBackend(kind domain.BackendKind) error {
	if !kind.IsValid() {
		return fmt.Errorf("%w: unknown backend %q", domain.ErrInvalidInput, kind)
	}
	return s.configStore.Set(keyStoreBackend, kind.String())
}

// SetEmbeddingProvider configures the embedding provider.
func (s *SettingsService) SetEmbeddingProvider(provider domain.AIProvider, model, apiKey string) error {
	if !provider.IsValid() {
		return fmt.Errorf("%w: invalid embedding provider: %s", domain.ErrInvalidInput, provider)
	}
	if provider.RequiresAPIKey() && apiKey == "" && s.envAPIKey() == "" {
		return fmt.Errorf("%w: API key required for %s", domain.ErrInvalidInput, provider)
	}

	settings, err := s.Get()
	if err != nil {
		return err
	}

	settings.Embedding.Provider = provider
	if model != "" {
		settings.Embedding.Model = model
	}
	if provider.IsLocal() {
		settings.Embedding.BaseURL = defaultOllamaURL
	} else if settings.Embedding.BaseURL == defaultOllamaURL {
		settings.Embedding.BaseURL = domain.DefaultBaseURL
	}
	settings.Embedding.APIKey = apiKey

	return s.Save(settings)
}

// SetLLMProvider configures the completion provider.
func (s *SettingsService) SetLLMProvider(provider domain.AIProvider, model, apiKey string) error {
	if !provider.IsValid() {
		return fmt.Errorf("%w: invalid LLM provider: %s", domain.ErrInvalidInput, provider)
	}
	if provider.RequiresAPIKey() && apiKey == "" && s.envAPIKey() == "" {
		return fmt.Errorf("%w: API key required for %s", domain.ErrInvalidInput, provider)
	}

	settings, err := s.Get()
	if err != nil {
		return err
	}

	settings.LLM.Provider = provider
	if model != "" {
		settings.LLM.Model = model
	}
	if provider.IsLocal() {
		settings.LLM.BaseURL = defaultOllamaURL
	} else if settings.LLM.BaseURL == defaultOllamaURL {
		settings.LLM.BaseURL = domain.DefaultBaseURL
	}
	settings.LLM.APIKey = apiKey

	return s.Save(settings)
}

// Validate checks that both providers are configured.
func (s *SettingsService) Validate() error {
	settings, err := s.Get()
	if err != nil {
		return err
	}

	if !settings.Store.Backend.IsValid() {
		return fmt.Errorf("%w: invalid backend: %s", domain.ErrInvalidInput, settings.Store.Backend)
	}
	if !settings.Embedding.IsConfigured() {
		return fmt.Errorf("%w: set %s or DASHSCOPE_API_KEY", domain.ErrEmbeddingUnavailable, keyEmbedAPIKey)
	}
	if !settings.LLM.IsConfigured() {
		return fmt.Errorf("%w: set %s or DASHSCOPE_API_KEY", domain.ErrLLMUnavailable, keyLLMAPIKey)
	}

	return nil
}

// GetDefaults returns default settings.
func (s *SettingsService) GetDefaults() domain.Settings {
	return domain.DefaultSettings()
}

// ValidateEmbeddingConfig validates the current embedding configuration by pinging the provider.
func (s *SettingsService) ValidateEmbeddingConfig() error {
	if s.aiValidator == nil {
		return nil
	}
	settings, err := s.Get()
	if err != nil {
		return err
	}
	return s.aiValidator.ValidateEmbedding(&settings.Embedding)
}

// ValidateLLMConfig validates the current completion configuration by pinging the provider.
func (s *SettingsService) ValidateLLMConfig() error {
	if s.aiValidator == nil {
		return nil
	}
	settings, err := s.Get()
	if err != nil {
		return err
	}
	return s.aiValidator.ValidateLLM(&settings.LLM)
}

// Helper methods for reading config with defaults.

func (s *SettingsService) getString(key, defaultVal string) string {
	val := s.configStore.GetString(key)
	if val == "" {
		return defaultVal
	}
	return val
}

func (s *SettingsService) getInt(key string, defaultVal int) int {
	val := s.configStore.GetInt(key)
	if val <= 0 {
		return defaultVal
	}
	return val
}

func (s *SettingsService) getFloat(key string, defaultVal float64) float64 {
	if _, exists := s.configStore.Get(key); !exists {
		return defaultVal
	}
	return s.configStore.GetFloat(key)
}

func (s *SettingsService) getDuration(key string, defaultVal time.Duration) time.Duration {
	val := s.configStore.GetDuration(key)
	if val <= 0 {
		return defaultVal
	}
	return val
}

func (s *SettingsService) getProvider(key string, defaultVal domain.AIProvider) domain.AIProvider {
	provider := domain.AIProvider(s.configStore.GetString(key))
	if !provider.IsValid() {
		return defaultVal
	}
	return provider
}

func (s *SettingsService) getBackend(defaultVal domain.BackendKind) domain.BackendKind {
	kind := domain.BackendKind(s.configStore.GetString(keyStoreBackend))
	if !kind.IsValid() {
		return defaultVal
	}
	return kind
}

func (s *SettingsService) apiKey(key string) string {
	if val := s.configStore.GetString(key); val != "" {
		return val
	}
	return s.envAPIKey()
}

func (s *SettingsService) envAPIKey() string {
	for _, name := range apiKeyEnvVars {
		if val := s.getenv(name); val != "" {
			return val
		}
	}
	return ""
}
