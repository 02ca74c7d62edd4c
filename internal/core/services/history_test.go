package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/paperqa/internal/core/domain"
)

type failingHistoryReader struct{}

func (failingHistoryReader) Recent(context.Context, string, int) ([]domain.QARecord, error) {
	return nil, errors.New("disk gone")
}

func TestHistoryService_Recent(t *testing.T) {
	h := &mockHistory{}
	for i, q := range []string{"q1", "q2", "q3"} {
		session := "a"
		if i == 1 {
			session = "b"
		}
		require.NoError(t, h.Record(context.Background(), domain.QARecord{SessionID: session, Question: q}))
	}
	svc := NewHistoryService(h)

	records, err := svc.Recent(context.Background(), "a", 0)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "q3", records[0].Question)
	assert.Equal(t, "q1", records[1].Question)

	records, err = svc.Recent(context.Background(), "", 1)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "q3", records[0].Question)
}

func TestHistoryService_NilReader(t *testing.T) {
	records, err := NewHistoryService(nil).Recent(context.Background(), "", 5)
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestHistoryService_ReaderError(t *testing.T) {
	_, err := NewHistoryService(failingHistoryReader{}).Recent(context.Background(), "", 5)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "read history")
}
