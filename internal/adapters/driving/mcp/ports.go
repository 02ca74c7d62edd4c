package mcp

import (
	"github.com/custodia-labs/paperqa/internal/core/ports/driving"
)

// Ports aggregates the driving ports the MCP server calls.
type Ports struct {
	// Index owns the active document set.
	Index driving.IndexManager

	// Query answers questions.
	Query driving.QueryEngine

	// History lists past questions, optional.
	History driving.HistoryService

	// UserID is recorded with every question, optional.
	UserID string
}

// Validate ensures all required ports are set.
func (p *Ports) Validate() error {
	if p.Index == nil {
		return ErrMissingIndexManager
	}
	if p.Query == nil {
		return ErrMissingQueryEngine
	}
	return nil
}
