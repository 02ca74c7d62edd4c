// Package mcp provides an MCP (Model Context Protocol) server adapter for paperqa.
// It lets AI assistants ingest documents and ask questions over them.
package mcp

import "errors"

var (
	// ErrMissingIndexManager is returned when the index manager is not provided.
	ErrMissingIndexManager = errors.New("mcp: index manager is required")

	// ErrMissingQueryEngine is returned when the query engine is not provided.
	ErrMissingQueryEngine = errors.New("mcp: query engine is required")
)
