package services

import (
	"context"
	"fmt"

	"github.com/custodia-labs/paperqa/internal/core/domain"
	"github.com/custodia-labs/paperqa/internal/core/ports/driven"
	"github.com/custodia-labs/paperqa/internal/core/ports/driving"
)

// Ensure HistoryService implements the interface.
var _ driving.HistoryService = (*HistoryService)(nil)

// defaultHistoryLimit is used when no positive limit is given.
const defaultHistoryLimit = 20

// HistoryService lists recorded questions and answers.
type HistoryService struct {
	reader driven.HistoryReader
}

// NewHistoryService creates a history service over a reader.
func NewHistoryService(reader driven.HistoryReader) *HistoryService {
	return &HistoryService{reader: reader}
}

// Recent returns up to limit records, newest first.
func (s *HistoryService) Recent(ctx context.Context, sessionID string, limit int) ([]domain.QARecord, error) {
	if s.reader == nil {
		return []domain.QARecord{}, nil
	}
	if limit <= 0 {
		limit = defaultHistoryLimit
	}
	records, err := s.reader.Recent(ctx, sessionID, limit)
	if err != nil {
		return nil, fmt.Errorf("read history: %w", err)
	}
	return records, nil
}
