package domain

import "errors"

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a missing file, source or collection.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input such as an
	// empty question or a file of the wrong format.
	ErrInvalidInput = errors.New("invalid input")

	// ErrEmptyDocument indicates a document produced zero chunks.
	ErrEmptyDocument = errors.New("empty document")

	// ErrEmbeddingService indicates the embedding service failed after
	// exhausting retries.
	ErrEmbeddingService = errors.New("embedding service error")

	// ErrCompletionService indicates the completion service call failed.
	// Completion calls are never retried.
	ErrCompletionService = errors.New("completion service error")

	// ErrRetrieval indicates the vector store could not serve a query.
	ErrRetrieval = errors.New("retrieval error")

	// ErrUnsupportedOperation indicates the active backend lacks the
	// capability required by the requested operation.
	ErrUnsupportedOperation = errors.New("unsupported operation")

	// ErrCacheCorruption indicates a cache metadata record is unreadable.
	// It is always recovered by rebuilding.
	ErrCacheCorruption = errors.New("cache corruption")

	// ErrNoDocument indicates no ready collection is loaded.
	ErrNoDocument = errors.New("no document loaded")

	// Provider Errors.

	// ErrLLMUnavailable indicates the completion provider is not configured.
	ErrLLMUnavailable = errors.New("LLM service unavailable")

	// ErrEmbeddingUnavailable indicates the embedding provider is not configured.
	ErrEmbeddingUnavailable = errors.New("embedding service unavailable")

	// Sign-in Errors.

	// ErrAuthNotConfigured indicates no GitHub OAuth app is configured.
	ErrAuthNotConfigured = errors.New("github sign-in not configured")

	// ErrAuthFailed indicates the OAuth exchange or profile lookup failed.
	ErrAuthFailed = errors.New("github sign-in failed")
)
