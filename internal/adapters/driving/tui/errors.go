package tui

import "errors"

// ErrMissingIndexManager is returned when the index manager is not provided.
var ErrMissingIndexManager = errors.New("tui: index manager is required")

// ErrMissingQueryEngine is returned when the query engine is not provided.
var ErrMissingQueryEngine = errors.New("tui: query engine is required")
