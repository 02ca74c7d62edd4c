package services

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/paperqa/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/paperqa/internal/core/domain"
)

func newTestSettingsService(env map[string]string) (*SettingsService, *memory.ConfigStore) {
	store := memory.NewConfigStore()
	service := NewSettingsService(store, nil)
	service.getenv = func(k string) string { return env[k] }
	return service, store
}

func TestSettingsService_Get_ReturnsDefaults(t *testing.T) {
	service, _ := newTestSettingsService(nil)

	settings, err := service.Get()

	require.NoError(t, err)
	defaults := domain.DefaultSettings()
	assert.Equal(t, defaults, *settings)
}

func TestSettingsService_Get_ReturnsStoredValues(t *testing.T) {
	service, store := newTestSettingsService(nil)
	_ = store.Set("embedding.model", "text-embedding-v3")
	_ = store.Set("embedding.dimensions", int64(768))
	_ = store.Set("embedding.retry_backoff", "250ms")
	_ = store.Set("llm.temperature", 0.0)
	_ = store.Set("chunking.size", 500)
	_ = store.Set("chunking.overlap", 50)
	_ = store.Set("retrieval.top_k", 8)
	_ = store.Set("store.backend", "batch-only")
	_ = store.Set("store.cache_root", "/tmp/cache")

	settings, err := service.Get()

	require.NoError(t, err)
	assert.Equal(t, "text-embedding-v3", settings.Embedding.Model)
	assert.Equal(t, 768, settings.Embedding.Dimensions)
	assert.Equal(t, 250*time.Millisecond, settings.Embedding.RetryBackoff)
	assert.Zero(t, settings.LLM.Temperature, "explicit zero temperature is kept")
	assert.Equal(t, 500, settings.Chunking.Size)
	assert.Equal(t, 50, settings.Chunking.Overlap)
	assert.Equal(t, 8, settings.Retrieval.TopK)
	assert.Equal(t, domain.BackendBatchOnly, settings.Store.Backend)
	assert.Equal(t, "/tmp/cache", settings.Store.CacheRoot)
}

func TestSettingsService_Get_InvalidValuesReturnDefaults(t *testing.T) {
	service, store := newTestSettingsService(nil)
	_ = store.Set("embedding.provider", "anthropic")
	_ = store.Set("store.backend", "faiss")
	_ = store.Set("chunking.size", 100)
	_ = store.Set("chunking.overlap", 400)

	settings, err := service.Get()

	require.NoError(t, err)
	assert.Equal(t, domain.AIProviderOpenAI, settings.Embedding.Provider)
	assert.Equal(t, domain.BackendIncremental, settings.Store.Backend)
	assert.Less(t, settings.Chunking.Overlap, settings.Chunking.Size)
}

func TestSettingsService_Get_APIKeyFromEnvironment(t *testing.T) {
	service, store := newTestSettingsService(map[string]string{"DASHSCOPE_API_KEY": "sk-env"})

	settings, err := service.Get()
	require.NoError(t, err)
	assert.Equal(t, "sk-env", settings.Embedding.APIKey)
	assert.Equal(t, "sk-env", settings.LLM.APIKey)

	_ = store.Set("llm.api_key", "sk-config")
	settings, err = service.Get()
	require.NoError(t, err)
	assert.Equal(t, "sk-config", settings.LLM.APIKey, "config wins over environment")
}

func TestSettingsService_Save_DoesNotPersistEnvironmentKey(t *testing.T) {
	service, store := newTestSettingsService(map[string]string{"OPENAI_API_KEY": "sk-env"})

	settings, err := service.Get()
	require.NoError(t, err)
	require.NoError(t, service.Save(settings))

	_, exists := store.Get("embedding.api_key")
	assert.False(t, exists)
	assert.Equal(t, "incremental", store.GetString("store.backend"))
}

func TestSettingsService_SetBackend(t *testing.T) {
	service, store := newTestSettingsService(nil)

	require.NoError(t, service.SetBackend(domain.BackendBatchOnly))
	assert.Equal(t, "batch-only", store.GetString("store.backend"))

	err := service.SetBackend(domain.BackendKind("faiss"))
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestSettingsService_SetEmbeddingProvider(t *testing.T) {
	t.Run("openai requires key", func(t *testing.T) {
		service, _ := newTestSettingsService(nil)
		err := service.SetEmbeddingProvider(domain.AIProviderOpenAI, "", "")
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	})

	t.Run("ollama sets local url", func(t *testing.T) {
		service, _ := newTestSettingsService(nil)
		require.NoError(t, service.SetEmbeddingProvider(domain.AIProviderOllama, "nomic-embed-text", ""))

		settings, err := service.Get()
		require.NoError(t, err)
		assert.Equal(t, domain.AIProviderOllama, settings.Embedding.Provider)
		assert.Equal(t, "nomic-embed-text", settings.Embedding.Model)
		assert.Equal(t, "http://localhost:11434", settings.Embedding.BaseURL)
	})

	t.Run("switching back restores hosted url", func(t *testing.T) {
		service, _ := newTestSettingsService(nil)
		require.NoError(t, service.SetEmbeddingProvider(domain.AIProviderOllama, "", ""))
		require.NoError(t, service.SetEmbeddingProvider(domain.AIProviderOpenAI, "", "sk-test"))

		settings, err := service.Get()
		require.NoError(t, err)
		assert.Equal(t, domain.DefaultBaseURL, settings.Embedding.BaseURL)
		assert.Equal(t, "sk-test", settings.Embedding.APIKey)
	})

	t.Run("invalid provider", func(t *testing.T) {
		service, _ := newTestSettingsService(nil)
		err := service.SetEmbeddingProvider(domain.AIProvider("bogus"), "", "")
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	})
}

func TestSettingsService_SetLLMProvider(t *testing.T) {
	service, _ := newTestSettingsService(nil)
	require.NoError(t, service.SetLLMProvider(domain.AIProviderOpenAI, "qwen-max", "sk-test"))

	settings, err := service.Get()
	require.NoError(t, err)
	assert.Equal(t, "qwen-max", settings.LLM.Model)
	assert.Equal(t, "sk-test", settings.LLM.APIKey)
}

func TestSettingsService_Validate(t *testing.T) {
	service, _ := newTestSettingsService(nil)
	assert.ErrorIs(t, service.Validate(), domain.ErrEmbeddingUnavailable)

	service, _ = newTestSettingsService(map[string]string{"DASHSCOPE_API_KEY": "sk-env"})
	assert.NoError(t, service.Validate())
}

type stubValidator struct {
	embedErr error
	llmErr   error
	model    string
}

func (v *stubValidator) ValidateEmbedding(cfg *domain.EmbeddingSettings) error {
	v.model = cfg.Model
	return v.embedErr
}

func (v *stubValidator) ValidateLLM(*domain.LLMSettings) error {
	return v.llmErr
}

func TestSettingsService_ValidateConfigs(t *testing.T) {
	service, _ := newTestSettingsService(nil)
	assert.NoError(t, service.ValidateEmbeddingConfig(), "nil validator is a no-op")

	validator := &stubValidator{llmErr: errors.New("unreachable")}
	service.aiValidator = validator

	assert.NoError(t, service.ValidateEmbeddingConfig())
	assert.Equal(t, domain.DefaultEmbeddingModel, validator.model)
	assert.EqualError(t, service.ValidateLLMConfig(), "unreachable")
}
