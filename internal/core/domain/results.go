package domain

import "time"

// Result types are returned by every public operation of the index
// manager and query engine. Failures are reported through Success and
// Message; Err keeps the underlying error for errors.Is checks and is
// never serialised.

// IngestResult is returned by ingest and add.
type IngestResult struct {
	Success  bool          `json:"success"`
	Message  string        `json:"message"`
	Document *DocumentInfo `json:"document_info"`
	CacheHit bool          `json:"cache_hit"`
	Err      error         `json:"-"`
}

// DeleteResult is returned by delete.
type DeleteResult struct {
	Success      bool   `json:"success"`
	Message      string `json:"message"`
	DeletedCount int    `json:"deleted_count"`
	Err          error  `json:"-"`
}

// ListResult is returned by list.
type ListResult struct {
	Success   bool            `json:"success"`
	Message   string          `json:"message"`
	Documents []SourceSummary `json:"documents"`
	Err       error           `json:"-"`
}

// InfoResult describes the active collection.
type InfoResult struct {
	Success     bool          `json:"success"`
	HasDocument bool          `json:"has_document"`
	Document    *DocumentInfo `json:"document_info"`
	Collection  *Collection   `json:"collection,omitempty"`
	Err         error         `json:"-"`
}

// AskRequest is a question against the active collection.
type AskRequest struct {
	// Question is the question text.
	Question string

	// SessionID groups records of one conversation, optional.
	SessionID string

	// UserID is an opaque caller identity, optional.
	UserID string

	// TopK overrides the configured number of chunks to retrieve.
	TopK int
}

// AskResult is returned by ask and summarize.
type AskResult struct {
	Success        bool          `json:"success"`
	Message        string        `json:"message"`
	Question       string        `json:"question"`
	Answer         string        `json:"answer,omitempty"`
	ProcessingTime time.Duration `json:"processing_time"`
	Sources        []ScoredChunk `json:"sources,omitempty"`
	Err            error         `json:"-"`
}

// AddOptions controls add behaviour.
type AddOptions struct {
	// AllowRebuild consents to replacing the active document set when the
	// backend cannot append. Without it such an add fails with
	// ErrUnsupportedOperation.
	AllowRebuild bool
}
