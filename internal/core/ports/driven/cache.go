package driven

import "github.com/custodia-labs/paperqa/internal/core/domain"

// CacheStore persists cache metadata records under the cache root.
// Each fingerprint owns the directory <root>/<fingerprint>/.
type CacheStore interface {
	// Dir returns the cache directory for a fingerprint.
	Dir(fingerprint string) string

	// Lookup reads the metadata record for a fingerprint.
	// It never fails: unreadable or missing records are reported as a miss.
	Lookup(fingerprint string) domain.CacheLookup

	// Write stores the metadata record for a fingerprint atomically.
	Write(fingerprint string, entry *domain.CacheEntry) error

	// Remove deletes the whole cache directory of a fingerprint.
	Remove(fingerprint string) error

	// LoadActive returns the active pointer, or nil when none is set.
	LoadActive() (*domain.ActivePointer, error)

	// SaveActive records the active collection.
	SaveActive(ptr domain.ActivePointer) error

	// ClearActive removes the active pointer.
	ClearActive() error
}
