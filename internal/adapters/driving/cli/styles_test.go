package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/custodia-labs/paperqa/internal/core/domain"
)

func TestSourceLabel(t *testing.T) {
	assert.Equal(t, "a.pdf p.3", sourceLabel(domain.Chunk{Metadata: map[string]any{domain.MetaSourceFile: "a.pdf", domain.MetaPage: 3}}))
	assert.Equal(t, "a.pdf", sourceLabel(domain.Chunk{Metadata: map[string]any{domain.MetaSourceFile: "a.pdf"}}))
	assert.Equal(t, "unknown", sourceLabel(domain.Chunk{}))
}

func TestExcerpt(t *testing.T) {
	assert.Equal(t, "a b c", excerpt("a\n  b\tc", 10))
	assert.Equal(t, "abc…", excerpt("abcdef", 3))
	assert.Equal(t, "héllo", excerpt("héllo", 5))
}

func TestRenderMessages(t *testing.T) {
	assert.Contains(t, renderSuccess("done"), "✓ done")
	assert.Contains(t, renderWarning("careful"), "! careful")
	assert.Contains(t, renderError("failed"), "✗ failed")
}
