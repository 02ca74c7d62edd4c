package mcp

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewServer(t *testing.T) {
	t.Run("missing index manager returns error", func(t *testing.T) {
		server, err := NewServer(&Ports{Query: &mockQueryEngine{}})
		require.Error(t, err)
		assert.Nil(t, server)
		assert.ErrorIs(t, err, ErrMissingIndexManager)
	})

	t.Run("missing query engine returns error", func(t *testing.T) {
		_, err := NewServer(&Ports{Index: &mockIndexManager{}})
		assert.ErrorIs(t, err, ErrMissingQueryEngine)
	})

	t.Run("valid ports creates server", func(t *testing.T) {
		server, err := NewServer(&Ports{Index: &mockIndexManager{}, Query: &mockQueryEngine{}})
		require.NoError(t, err)
		assert.NotNil(t, server)
	})

	t.Run("history is optional", func(t *testing.T) {
		ports := &Ports{Index: &mockIndexManager{}, Query: &mockQueryEngine{}, History: &mockHistoryService{}}
		assert.NoError(t, ports.Validate())
		_, err := NewServer(ports)
		assert.NoError(t, err)
	})
}
