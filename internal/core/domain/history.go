package domain

import "time"

// QARecord is one question and answer emitted after an ask.
type QARecord struct {
	// ID is the unique identifier for the record.
	ID string `json:"id"`

	// SessionID groups records of one conversation.
	SessionID string `json:"session_id,omitempty"`

	// UserID is an opaque caller identity. It is never validated.
	UserID string `json:"user_id,omitempty"`

	// CollectionID is the collection the question was asked against.
	CollectionID string `json:"collection_id,omitempty"`

	// Question is the question text.
	Question string `json:"question"`

	// Answer is the generated answer, empty on failure.
	Answer string `json:"answer"`

	// Latency is the wall-clock time of retrieval and generation.
	Latency time.Duration `json:"processing_time"`

	// Success reports whether an answer was produced.
	Success bool `json:"success"`

	// CreatedAt is when the record was emitted.
	CreatedAt time.Time `json:"created_at"`
}
