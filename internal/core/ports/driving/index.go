package driving

import (
	"context"

	"github.com/custodia-labs/paperqa/internal/core/domain"
)

// IndexManager owns the document set lifecycle: ingestion, incremental
// add and delete, listing, and the active collection.
//
// Every operation returns a structured result instead of an error; the
// result's Err field carries the domain error for errors.Is checks.
type IndexManager interface {
	// Ingest makes the file the active document set, reusing the cache when
	// the same bytes were ingested before.
	Ingest(ctx context.Context, path, name string) domain.IngestResult

	// Add appends a file to the active document set.
	Add(ctx context.Context, path, name string, opts domain.AddOptions) domain.IngestResult

	// Delete removes every chunk of a source from the active document set.
	Delete(ctx context.Context, source string) domain.DeleteResult

	// List returns the sources of the active document set.
	List(ctx context.Context) domain.ListResult

	// Info describes the active document set.
	Info(ctx context.Context) domain.InfoResult

	// Reset forgets the active document set. Cache entries are kept.
	Reset(ctx context.Context) error

	// Capabilities returns the capability set of the configured backend.
	Capabilities() domain.Capabilities
}

// QueryEngine answers questions over the active document set.
type QueryEngine interface {
	// Ask answers a question from the top-k retrieved chunks.
	Ask(ctx context.Context, req domain.AskRequest) domain.AskResult

	// Summarize asks the canned summary question.
	Summarize(ctx context.Context, req domain.AskRequest) domain.AskResult
}

// HistoryService lists recorded questions and answers.
type HistoryService interface {
	// Recent returns up to limit records, newest first.
	Recent(ctx context.Context, sessionID string, limit int) ([]domain.QARecord, error)
}
