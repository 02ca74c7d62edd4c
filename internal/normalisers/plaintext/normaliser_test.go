package plaintext

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/paperqa/internal/core/domain"
	"github.com/custodia-labs/paperqa/internal/core/ports/driven"
)

func TestInterfaceCompliance(t *testing.T) {
	var _ driven.Normaliser = (*Normaliser)(nil)
}

func TestSupportedMIMETypes(t *testing.T) {
	mimeTypes := New().SupportedMIMETypes()
	assert.Contains(t, mimeTypes, "text/plain")
	assert.Contains(t, mimeTypes, "text/markdown")
}

func TestPriority(t *testing.T) {
	assert.Equal(t, 5, New().Priority())
}

func TestNormalise_Success(t *testing.T) {
	raw := &domain.RawDocument{
		Path:     "/path/to/my_notes.txt",
		Name:     "my_notes.txt",
		MIMEType: "text/plain",
		Content:  []byte("This is plain text content."),
	}

	doc, err := New().Normalise(context.Background(), raw)
	require.NoError(t, err)

	assert.Equal(t, "my_notes.txt", doc.Name)
	assert.Equal(t, "/path/to/my_notes.txt", doc.Path)
	assert.Equal(t, "my notes", doc.Title)
	require.Len(t, doc.Pages, 1)
	assert.Equal(t, domain.Page{Number: 1, Text: "This is plain text content."}, doc.Pages[0])
	assert.Equal(t, "text/plain", doc.Metadata["mime_type"])
}

func TestNormalise_FormFeedPages(t *testing.T) {
	raw := &domain.RawDocument{Name: "paper.txt", Content: []byte("one\ftwo\fthree")}

	doc, err := New().Normalise(context.Background(), raw)
	require.NoError(t, err)
	require.Len(t, doc.Pages, 3)
	assert.Equal(t, 3, doc.Pages[2].Number)
	assert.Equal(t, "three", doc.Pages[2].Text)
}

func TestNormalise_NilDocument(t *testing.T) {
	doc, err := New().Normalise(context.Background(), nil)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	assert.Nil(t, doc)
}

func TestNormalise_EmptyContent(t *testing.T) {
	doc, err := New().Normalise(context.Background(), &domain.RawDocument{Name: "empty.txt"})
	require.NoError(t, err)
	assert.Empty(t, doc.Pages)
	assert.True(t, doc.IsEmpty())
}

func TestNormalise_UnicodeContent(t *testing.T) {
	content := "日本語テキスト 🎉 Ñoño"
	doc, err := New().Normalise(context.Background(), &domain.RawDocument{Name: "u.txt", Content: []byte(content)})
	require.NoError(t, err)
	assert.Equal(t, content, doc.Pages[0].Text)
}

func TestNormalise_InvalidUTF8(t *testing.T) {
	doc, err := New().Normalise(context.Background(), &domain.RawDocument{Name: "b.txt", Content: []byte{'a', 0xff, 'b'}})
	require.NoError(t, err)
	assert.Equal(t, "a�b", doc.Pages[0].Text)
}

func TestTitleFromName(t *testing.T) {
	tests := []struct {
		name     string
		expected string
	}{
		{name: "document.txt", expected: "document"},
		{name: "/a/b/my-file_name.md", expected: "my file name"},
		{name: "noext", expected: "noext"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, TitleFromName(tt.name))
		})
	}
}

func BenchmarkNormalise(b *testing.B) {
	n := New()
	raw := &domain.RawDocument{Name: "bench.txt", Content: []byte(strings.Repeat("Lorem ipsum dolor sit amet. ", 4000))}
	ctx := context.Background()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = n.Normalise(ctx, raw)
	}
}
