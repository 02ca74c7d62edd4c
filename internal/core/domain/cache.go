package domain

import "time"

// CacheFormatVersion is the version written to every metadata record.
// Records with any other version are treated as a miss.
const CacheFormatVersion = "1.0"

// CacheEntry is the metadata record stored at <cache_root>/<fingerprint>/.
type CacheEntry struct {
	// FormatVersion is the record layout version.
	FormatVersion string `json:"format_version"`

	// Backend is the vector store variant that wrote the collection.
	Backend BackendKind `json:"backend"`

	// CollectionID is the id of the persisted collection.
	CollectionID string `json:"collection_id"`

	// CreatedAt is when the entry was first written.
	CreatedAt time.Time `json:"created_at"`

	// UpdatedAt is when the entry was last rewritten by add or delete.
	UpdatedAt time.Time `json:"updated_at"`

	// Document describes the initial document of the collection.
	Document DocumentInfo `json:"document"`

	// Chunks holds the metadata of every chunk, in insertion order.
	Chunks []map[string]any `json:"chunks"`
}

// CacheMissReason explains why a lookup did not produce a usable entry.
type CacheMissReason string

// Cache miss reasons.
const (
	MissNone           CacheMissReason = ""
	MissAbsent         CacheMissReason = "absent"
	MissCorrupt        CacheMissReason = "corrupt"
	MissVersion        CacheMissReason = "version mismatch"
	MissBackend        CacheMissReason = "backend mismatch"
	MissDangling       CacheMissReason = "dangling"
	MissEmptyChunkList CacheMissReason = "empty chunk list"
	MissBaseDeleted    CacheMissReason = "base document deleted"
)

// CacheLookup is the typed result of reading a cache entry.
type CacheLookup struct {
	// Entry is set on a hit.
	Entry *CacheEntry

	// Reason is set on a miss.
	Reason CacheMissReason

	// Err carries the underlying failure for corrupt entries.
	Err error
}

// Hit reports whether the lookup found a usable entry.
func (l CacheLookup) Hit() bool {
	return l.Entry != nil && l.Reason == MissNone
}

// CacheHit builds a hit lookup.
func CacheHit(entry *CacheEntry) CacheLookup {
	return CacheLookup{Entry: entry}
}

// CacheMiss builds a miss lookup.
func CacheMiss(reason CacheMissReason, err error) CacheLookup {
	return CacheLookup{Reason: reason, Err: err}
}

// ActivePointer records which collection is current, so a new process
// can resume where the last one left off.
type ActivePointer struct {
	Fingerprint  string      `json:"fingerprint"`
	CollectionID string      `json:"collection_id"`
	Backend      BackendKind `json:"backend"`
}
