// Package domain defines the core business entities for paperqa.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - DocumentInfo: An ingested document identified by its fingerprint
//   - Chunk: A bounded text window used as the retrieval unit
//   - Collection: A vector index holding the chunks of a document set
//   - CacheEntry: The on-disk record describing a built collection
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import
// the Go standard library. All other packages depend on domain,
// never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain
