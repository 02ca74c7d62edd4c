// Package chunker splits document pages into bounded, overlapping chunks.
//
// Splitting is recursive: text is first cut on paragraph breaks, pieces
// that are still too long are cut on line breaks, then sentence ends, then
// spaces, and finally at arbitrary rune boundaries. The pieces are merged
// back greedily up to the chunk size, and each new chunk starts with up to
// overlap characters taken from the tail of the previous one.
//
// No characters are dropped or trimmed, so a page can be rebuilt from its
// chunks using the start_index metadata.
package chunker

import (
	"context"
	"fmt"
	"iter"
	"slices"
	"strings"
	"unicode/utf8"

	"github.com/custodia-labs/paperqa/internal/core/domain"
)

// DefaultChunkSize is the default number of characters per chunk.
const DefaultChunkSize = domain.DefaultChunkSize

// DefaultChunkOverlap is the default number of overlapping characters.
const DefaultChunkOverlap = domain.DefaultChunkOverlap

// MetaStartIndex is the chunk metadata key holding the rune offset of the
// chunk within its page.
const MetaStartIndex = "start_index"

// separatorLevels lists the boundaries tried in order, coarsest first.
var separatorLevels = [][]string{
	{"\n\n"},
	{"\n"},
	{". ", "。", "! ", "? ", "！", "？", "; ", "；"},
	{" "},
}

// Processor splits loaded documents into chunks.
type Processor struct {
	chunkSize int
	overlap   int
}

// Option configures the chunker processor.
type Option func(*Processor)

// WithChunkSize sets the chunk size in characters.
func WithChunkSize(size int) Option {
	return func(p *Processor) {
		if size > 0 {
			p.chunkSize = size
		}
	}
}

// WithOverlap sets the overlap between chunks in characters.
func WithOverlap(overlap int) Option {
	return func(p *Processor) {
		if overlap >= 0 {
			p.overlap = overlap
		}
	}
}

// New creates a new chunker processor with the given options.
func New(opts ...Option) *Processor {
	p := &Processor{
		chunkSize: DefaultChunkSize,
		overlap:   DefaultChunkOverlap,
	}

	for _, opt := range opts {
		opt(p)
	}

	// Ensure overlap doesn't exceed chunk size
	if p.overlap >= p.chunkSize {
		p.overlap = p.chunkSize / 4
	}

	return p
}

// Name returns the processor name.
func (p *Processor) Name() string {
	return "chunker"
}

// ChunkSize returns the configured window size.
func (p *Processor) ChunkSize() int {
	return p.chunkSize
}

// Overlap returns the configured overlap.
func (p *Processor) Overlap() int {
	return p.overlap
}

// Split returns a lazy sequence of chunks for the document. The sequence is
// finite and can be ranged over any number of times; each pass recomputes
// the same chunks. Chunk ids are "<fingerprint>_<position>".
func (p *Processor) Split(doc *domain.LoadedDocument, fingerprint string) iter.Seq[domain.Chunk] {
	return func(yield func(domain.Chunk) bool) {
		if doc == nil {
			return
		}
		position := 0
		for _, page := range doc.Pages {
			for _, s := range p.merge(p.atoms(page.Text, separatorLevels)) {
				if strings.TrimSpace(s.text) == "" {
					continue
				}
				chunk := domain.Chunk{
					ID:         fmt.Sprintf("%s_%d", fingerprint, position),
					DocumentID: fingerprint,
					Content:    s.text,
					Position:   position,
					Metadata: map[string]any{
						domain.MetaSourceFile: doc.Name,
						domain.MetaPage:       page.Number,
						MetaStartIndex:        s.start,
					},
				}
				if !yield(chunk) {
					return
				}
				position++
			}
		}
	}
}

// Chunk collects the chunks of a document.
// Returns domain.ErrEmptyDocument when no chunk is produced.
func (p *Processor) Chunk(ctx context.Context, doc *domain.LoadedDocument, fingerprint string) ([]domain.Chunk, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	chunks := slices.Collect(p.Split(doc, fingerprint))
	if len(chunks) == 0 {
		return nil, domain.ErrEmptyDocument
	}
	return chunks, nil
}

// span is a contiguous run of a page's text.
type span struct {
	text  string
	start int // rune offset within the page
	n     int // rune length
}

// atoms cuts text into pieces no longer than the chunk size whose
// concatenation is exactly text.
func (p *Processor) atoms(text string, levels [][]string) []string {
	if utf8.RuneCountInString(text) <= p.chunkSize {
		return []string{text}
	}

	for i, seps := range levels {
		pieces := splitKeep(text, seps)
		if len(pieces) < 2 {
			continue
		}
		out := make([]string, 0, len(pieces))
		for _, piece := range pieces {
			if utf8.RuneCountInString(piece) <= p.chunkSize {
				out = append(out, piece)
				continue
			}
			out = append(out, p.atoms(piece, levels[i+1:])...)
		}
		return out
	}

	return splitRunes(text, p.chunkSize)
}

// merge packs consecutive atoms into chunks of at most chunkSize runes,
// carrying up to overlap runes of whole atoms into the next chunk.
func (p *Processor) merge(atoms []string) []span {
	var (
		out    []span
		cur    []span
		total  int
		offset int
	)

	for _, a := range atoms {
		n := utf8.RuneCountInString(a)
		at := span{text: a, start: offset, n: n}
		offset += n

		if total+n > p.chunkSize && len(cur) > 0 {
			out = append(out, join(cur, total))
			for total > p.overlap || (total+n > p.chunkSize && total > 0) {
				total -= cur[0].n
				cur = cur[1:]
			}
		}

		cur = append(cur, at)
		total += n
	}

	if len(cur) > 0 {
		out = append(out, join(cur, total))
	}
	return out
}

func join(spans []span, total int) span {
	var b strings.Builder
	for _, s := range spans {
		b.WriteString(s.text)
	}
	return span{text: b.String(), start: spans[0].start, n: total}
}

// splitKeep splits text after every occurrence of any separator, keeping
// the separator at the end of the preceding piece.
func splitKeep(text string, seps []string) []string {
	var pieces []string
	last := 0
	for i := 0; i < len(text); {
		matched := 0
		for _, sep := range seps {
			if strings.HasPrefix(text[i:], sep) {
				matched = len(sep)
				break
			}
		}
		if matched == 0 {
			_, size := utf8.DecodeRuneInString(text[i:])
			i += size
			continue
		}
		i += matched
		pieces = append(pieces, text[last:i])
		last = i
	}
	if last < len(text) {
		pieces = append(pieces, text[last:])
	}
	return pieces
}

// splitRunes cuts text into pieces of at most size runes.
func splitRunes(text string, size int) []string {
	runes := []rune(text)
	pieces := make([]string, 0, len(runes)/size+1)
	for start := 0; start < len(runes); start += size {
		end := min(start+size, len(runes))
		pieces = append(pieces, string(runes[start:end]))
	}
	return pieces
}
