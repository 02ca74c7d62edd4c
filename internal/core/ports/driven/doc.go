// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
// These must be provided for the application to function:
//
//   - EmbeddingService: Generates vector embeddings for chunks and questions
//   - LLMService: Generates answers from a prompt
//   - VectorStore: Stores and searches vectors (incremental or batch-only)
//   - NormaliserRegistry: Turns files into pages of text
//   - Chunker: Splits pages into bounded, overlapping chunks
//   - CacheStore: Persists cache metadata records and the active pointer
//   - ConfigStore: Application configuration
//
// # Optional Interfaces
//
// These can be nil - the application degrades gracefully:
//
//   - HistoryRecorder: Receives question/answer records after each ask
//   - PromptStore: User-editable prompt templates; built-in defaults otherwise
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter or normaliser package
package driven
