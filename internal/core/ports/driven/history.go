package driven

import (
	"context"

	"github.com/custodia-labs/paperqa/internal/core/domain"
)

// HistoryRecorder receives question/answer records after every ask.
// It is the persistence collaborator of the query engine; the engine never
// reads from it.
type HistoryRecorder interface {
	// Record stores a record.
	Record(ctx context.Context, record domain.QARecord) error
}

// HistoryReader lists stored records for display.
type HistoryReader interface {
	// Recent returns up to limit records, newest first.
	// An empty sessionID returns records of every session.
	Recent(ctx context.Context, sessionID string, limit int) ([]domain.QARecord, error)
}

// HistoryStore records and lists Q&A records.
type HistoryStore interface {
	HistoryRecorder
	HistoryReader
}
