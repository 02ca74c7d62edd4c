// Package normalisers turns files into pages of text.
//
// Each sub-package handles one family of MIME types. The Registry picks
// the highest-priority normaliser for a document's MIME type and is the
// loader handed to the index manager.
package normalisers
