// Package tui provides an interactive terminal chat over the active document.
// It implements a driving adapter following hexagonal architecture principles.
package tui

import (
	"github.com/custodia-labs/paperqa/internal/core/ports/driving"
)

// Ports aggregates the driving ports required by the TUI.
type Ports struct {
	// Index lists and deletes documents of the active set.
	Index driving.IndexManager

	// Query answers questions.
	Query driving.QueryEngine

	// SessionID tags every question asked in this session, optional.
	SessionID string

	// UserID is the signed-in GitHub login, optional.
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
