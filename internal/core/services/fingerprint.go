package services

import (
	"crypto/md5" //nolint:gosec // G501: content addressing, not a security boundary.
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"

	"github.com/custodia-labs/paperqa/internal/core/domain"
)

// fingerprintBufferSize is the read size used while hashing.
const fingerprintBufferSize = 8192

// Fingerprint returns the lowercase hex MD5 digest of everything read from r.
// Identical bytes always yield the identical digest.
func Fingerprint(r io.Reader) (string, error) {
	h := md5.New() //nolint:gosec // see import
	buf := make([]byte, fingerprintBufferSize)
	if _, err := io.CopyBuffer(h, r, buf); err != nil {
		return "", fmt.Errorf("fingerprint: %w", err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// FingerprintFile digests the file at path. The filename plays no part.
// Returns domain.ErrNotFound if the file does not exist.
func FingerprintFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", fmt.Errorf("%w: %s", domain.ErrNotFound, path)
		}
		return "", fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	return Fingerprint(f)
}
