package cli

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/paperqa/internal/core/domain"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs(args)
	defer func() {
		rootCmd.SetArgs(nil)
	}()

	err := rootCmd.Execute()
	return buf.String(), err
}

func TestIngestCmd_Use(t *testing.T) {
	assert.Equal(t, "ingest [file]", ingestCmd.Use)
	assert.Equal(t, "Make a PDF the active document", ingestCmd.Short)
}

func TestIngestCmd_RequiresExactlyOneArg(t *testing.T) {
	_, cleanup := setupTestServices()
	defer cleanup()

	_, err := execute(t, "ingest")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "accepts 1 arg(s)")
}

func TestIngestCmd_Success(t *testing.T) {
	_, cleanup := setupTestServices()
	defer cleanup()

	out, err := execute(t, "ingest", "paper.pdf", "--name", "Paper")

	require.NoError(t, err)
	assert.Contains(t, out, "Ingested Paper")
	assert.Contains(t, out, "2 pages, 3 chunks")
}

func TestIngestCmd_Failure(t *testing.T) {
	_, cleanup := setupTestServices()
	defer cleanup()

	_, err := execute(t, "ingest", "broken.bad")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "could not read broken.bad")
}

func TestIngestCmd_ServicesNotConfigured(t *testing.T) {
	_, cleanup := setupTestServices()
	defer cleanup()
	services = nil

	_, err := execute(t, "ingest", "paper.pdf")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "services not configured")
}

func TestAddCmd_HasReplaceFlag(t *testing.T) {
	flag := addCmd.Flags().Lookup("replace")
	require.NotNil(t, flag)
	assert.Equal(t, "false", flag.DefValue)
}

func TestAddCmd_Incremental(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()
	ts.index.active = true

	out, err := execute(t, "add", "b.pdf", "--name", "b.pdf")

	require.NoError(t, err)
	assert.Contains(t, out, "Added b.pdf")
	require.Len(t, ts.index.addCalls, 1)
	assert.False(t, ts.index.addCalls[0].AllowRebuild)
}

func TestAddCmd_BatchOnlyWithoutConsent(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()
	ts.index.backend = domain.BackendBatchOnly

	_, err := execute(t, "add", "b.pdf")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "--replace")
	assert.Len(t, ts.index.addCalls, 1)
}

func TestAddCmd_BatchOnlyWithReplaceFlag(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()
	ts.index.backend = domain.BackendBatchOnly

	out, err := execute(t, "add", "b.pdf", "--replace")

	require.NoError(t, err)
	assert.Contains(t, out, "Ingested b.pdf")
	require.Len(t, ts.index.addCalls, 1)
	assert.True(t, ts.index.addCalls[0].AllowRebuild)
}

func TestAddCmd_BatchOnlyConfirmed(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()
	ts.index.backend = domain.BackendBatchOnly
	stdinIsTerminal = func() bool { return true }
	stdin = strings.NewReader("y\n")

	out, err := execute(t, "add", "b.pdf")

	require.NoError(t, err)
	assert.Contains(t, out, "backend cannot append documents")
	assert.Contains(t, out, "[y/N]")
	require.Len(t, ts.index.addCalls, 2)
	assert.False(t, ts.index.addCalls[0].AllowRebuild)
	assert.True(t, ts.index.addCalls[1].AllowRebuild)
}

func TestAddCmd_BatchOnlyDeclined(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()
	ts.index.backend = domain.BackendBatchOnly
	stdinIsTerminal = func() bool { return true }
	stdin = strings.NewReader("\n")

	out, err := execute(t, "add", "b.pdf")

	require.NoError(t, err)
	assert.Contains(t, out, "Cancelled.")
	assert.Len(t, ts.index.addCalls, 1)
}

func TestDeleteCmd(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()
	ts.index.active = true
	ts.index.docs = []domain.SourceSummary{{Source: "a.pdf", ChunkCount: 2}}

	out, err := execute(t, "delete", "a.pdf")
	require.NoError(t, err)
	assert.Contains(t, out, "Deleted a.pdf")

	_, err = execute(t, "delete", "a.pdf")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no chunks for a.pdf")
}

func TestListCmd(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()
	ts.index.active = true
	ts.index.docs = []domain.SourceSummary{
		{Source: "a.pdf", ChunkCount: 2},
		{Source: "b.pdf", ChunkCount: 1, AddedAt: "2026-01-02T03:04:05Z"},
	}

	out, err := execute(t, "list")

	require.NoError(t, err)
	assert.Contains(t, out, "[1] a.pdf  2 chunks")
	assert.Contains(t, out, "[2] b.pdf  1 chunks")
	assert.Contains(t, out, "added 2026-01-02T03:04:05Z")
}

func TestListCmd_JSON(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()
	ts.index.active = true
	ts.index.docs = []domain.SourceSummary{{Source: "a.pdf", ChunkCount: 2}}

	out, err := execute(t, "list", "--json")
	require.NoError(t, err)

	var res domain.ListResult
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.True(t, res.Success)
	require.Len(t, res.Documents, 1)
	assert.Equal(t, "a.pdf", res.Documents[0].Source)
}

func TestListCmd_NoDocument(t *testing.T) {
	_, cleanup := setupTestServices()
	defer cleanup()

	_, err := execute(t, "list")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "no active document")
}

func TestInfoCmd(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()

	out, err := execute(t, "info")
	require.NoError(t, err)
	assert.Contains(t, out, "No active document")

	ts.index.active = true
	ts.index.docs = []domain.SourceSummary{{Source: "a.pdf", ChunkCount: 3}}

	out, err = execute(t, "info")
	require.NoError(t, err)
	assert.Contains(t, out, "a.pdf")
	assert.Contains(t, out, "doc_01234567")
	assert.Contains(t, out, "3 x 4")
}

func TestResetCmd(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()
	ts.index.active = true

	out, err := execute(t, "reset")

	require.NoError(t, err)
	assert.Contains(t, out, "Active document cleared")
	assert.Equal(t, 1, ts.index.resets)
	assert.False(t, ts.index.active)
}

func TestConfirm(t *testing.T) {
	tests := []struct {
		input    string
		expected bool
	}{
		{"y\n", true},
		{"YES\n", true},
		{"n\n", false},
		{"\n", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(strings.TrimSpace(tt.input), func(t *testing.T) {
			buf := new(bytes.Buffer)
			rootCmd.SetOut(buf)
			assert.Equal(t, tt.expected, confirm(rootCmd, strings.NewReader(tt.input), "Continue?"))
			assert.Contains(t, buf.String(), "Continue? [y/N]: ")
		})
	}
}

func TestResultErr(t *testing.T) {
	assert.EqualError(t, resultErr("boom", domain.ErrNotFound), "boom")
	assert.ErrorIs(t, resultErr("", domain.ErrNotFound), domain.ErrNotFound)
	assert.EqualError(t, resultErr("", nil), "operation failed")
}
