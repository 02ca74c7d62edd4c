// Package sqlite provides the SQLite-backed stores.
//
// Store holds the Q&A history in <data>/history.db. VectorStore is the
// incremental vector backend: each collection is its own vectors.db inside
// the collection's cache directory, and every mutation is committed
// immediately.
//
// Both use the pure-Go modernc.org/sqlite driver and run embedded
// migrations on open.
package sqlite
