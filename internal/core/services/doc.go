// Package services implements the driving port interfaces.
// Services contain the core business logic and orchestrate
// calls to driven ports (adapters).
//
// The index manager owns the document-store lifecycle: fingerprinting,
// cache lookup, chunking, embedding and vector store builds. The query
// engine answers questions against the collection the manager marks
// active.
package services
