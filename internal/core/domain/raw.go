package domain

// RawDocument represents the bytes of a file handed to a normaliser.
type RawDocument struct {
	// Path is the file location on disk.
	Path string

	// Name is the display name chosen by the caller.
	Name string

	// MIMEType is the content type (e.g., "application/pdf").
	MIMEType string

	// Content is the raw bytes.
	Content []byte
}

// Page is the extracted text of one page.
type Page struct {
	// Number is the 1-based page number.
	Number int

	// Text is the page text.
	Text string
}

// LoadedDocument is the text form of a file, split into pages.
type LoadedDocument struct {
	// Name is the display name, used as the chunk source.
	Name string

	// Path is the file location on disk.
	Path string

	// Title is a best-effort human-readable title.
	Title string

	// Pages holds the extracted text per page.
	Pages []Page

	// Metadata contains normaliser-specific key-value pairs.
	Metadata map[string]any
}

// IsEmpty reports whether no page carries any non-space text.
func (d *LoadedDocument) IsEmpty() bool {
	for _, p := range d.Pages {
		for _, r := range p.Text {
			if r != ' ' && r != '\n' && r != '\t' && r != '\r' && r != '\f' {
				return false
			}
		}
	}
	return true
}
