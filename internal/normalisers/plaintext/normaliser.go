// Package plaintext loads text files as-is.
package plaintext

import (
	"context"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/custodia-labs/paperqa/internal/core/domain"
	"github.com/custodia-labs/paperqa/internal/core/ports/driven"
)

// Ensure Normaliser implements the interface.
var _ driven.Normaliser = (*Normaliser)(nil)

// Normaliser handles plain text documents.
type Normaliser struct{}

// New creates a new plain text normaliser.
func New() *Normaliser {
	return &Normaliser{}
}

// SupportedMIMETypes returns the MIME types this normaliser handles.
func (n *Normaliser) SupportedMIMETypes() []string {
	return []string{"text/plain", "text/markdown", "text/csv"}
}

// Priority returns the selection priority.
func (n *Normaliser) Priority() int {
	return 5 // Fallback normaliser
}

// Normalise returns the file text. Form feeds start a new page, so text
// saved from a PDF viewer keeps its page numbers.
func (n *Normaliser) Normalise(_ context.Context, raw *domain.RawDocument) (*domain.LoadedDocument, error) {
	if raw == nil {
		return nil, domain.ErrInvalidInput
	}

	content := string(raw.Content)
	if !utf8.ValidString(content) {
		content = strings.ToValidUTF8(content, "�")
	}

	var pages []domain.Page
	if content != "" {
		for i, text := range strings.Split(content, "\f") {
			pages = append(pages, domain.Page{Number: i + 1, Text: text})
		}
	}

	return &domain.LoadedDocument{
		Name:  raw.Name,
		Path:  raw.Path,
		Title: TitleFromName(raw.Name),
		Pages: pages,
		Metadata: map[string]any{
			"mime_type": raw.MIMEType,
		},
	}, nil
}

// TitleFromName turns a file name into a human-readable title.
func TitleFromName(name string) string {
	filename := filepath.Base(name)
	filename = strings.TrimSuffix(filename, filepath.Ext(filename))
	filename = strings.ReplaceAll(filename, "_", " ")
	return strings.ReplaceAll(filename, "-", " ")
}
