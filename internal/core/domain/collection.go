package domain

import "fmt"

// BackendKind tags a vector store variant.
type BackendKind string

// Available backend kinds.
const (
	// BackendIncremental supports per-item add and delete and persists on
	// every mutation.
	BackendIncremental BackendKind = "incremental"

	// BackendBatchOnly supports only full rebuilds and must be saved
	// explicitly.
	BackendBatchOnly BackendKind = "batch-only"
)

// IsValid returns true if the backend kind is recognised.
func (k BackendKind) IsValid() bool {
	switch k {
	case BackendIncremental, BackendBatchOnly:
		return true
	default:
		return false
	}
}

// String returns the string representation.
func (k BackendKind) String() string {
	return string(k)
}

// Description returns a human-readable description of the backend.
func (k BackendKind) Description() string {
	switch k {
	case BackendIncremental:
		return "Incremental (supports add and delete)"
	case BackendBatchOnly:
		return "Batch-only (single document, full rebuild)"
	default:
		return "Unknown"
	}
}

// CollectionPrefix returns the id prefix used for collections of this kind.
func (k BackendKind) CollectionPrefix() string {
	if k == BackendBatchOnly {
		return "batch_"
	}
	return "doc_"
}

// CollectionID derives the collection id for a fingerprint.
func CollectionID(kind BackendKind, fingerprint string) string {
	short := fingerprint
	if len(short) > 8 {
		short = short[:8]
	}
	return kind.CollectionPrefix() + short
}

// Capabilities describes what a vector store variant can do.
type Capabilities struct {
	// Incremental is true when add and delete-by-source are supported.
	Incremental bool

	// ExplicitPersistence is true when the store must be saved by the caller.
	ExplicitPersistence bool
}

// SupportsIncrementalUpdate reports whether chunks can be appended or
// removed after the initial build.
func (c Capabilities) SupportsIncrementalUpdate() bool {
	return c.Incremental
}

// CapabilitiesOf returns the fixed capability set of a backend kind.
func CapabilitiesOf(kind BackendKind) Capabilities {
	switch kind {
	case BackendIncremental:
		return Capabilities{Incremental: true}
	case BackendBatchOnly:
		return Capabilities{ExplicitPersistence: true}
	default:
		return Capabilities{}
	}
}

// CollectionState is the lifecycle state of a collection.
type CollectionState string

// Collection lifecycle states.
const (
	StateAbsent   CollectionState = "absent"
	StateBuilding CollectionState = "building"
	StateReady    CollectionState = "ready"
	StateDeleting CollectionState = "deleting"
)

// CanRead reports whether reads may be served in this state.
func (s CollectionState) CanRead() bool {
	return s == StateReady
}

// CollectionSpec identifies a collection and where it lives on disk.
type CollectionSpec struct {
	// ID is the collection id.
	ID string

	// Fingerprint is the fingerprint of the document that created it.
	Fingerprint string

	// Dir is the cache directory holding the persisted collection.
	Dir string

	// Source is the display name of the initial document.
	Source string
}

// Collection is the unit of vector storage for one document set.
type Collection struct {
	// ID is the collection id.
	ID string `json:"id"`

	// Fingerprint is the fingerprint of the document that created it.
	Fingerprint string `json:"fingerprint"`

	// Backend is fixed at creation.
	Backend BackendKind `json:"backend"`

	// Location is the directory holding the persisted collection.
	Location string `json:"location"`

	// VectorCount is the number of stored vectors.
	VectorCount int `json:"vector_count"`

	// Dimensions is the vector dimension, 0 when empty.
	Dimensions int `json:"dimensions"`

	// State is the lifecycle state.
	State CollectionState `json:"state"`
}

// String returns a short description for logs.
func (c *Collection) String() string {
	if c == nil {
		return "<nil collection>"
	}
	return fmt.Sprintf("%s[%s, %d vectors, %s]", c.ID, c.Backend, c.VectorCount, c.State)
}
