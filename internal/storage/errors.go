package storage

import "errors"

// Sentinel errors shared by every backend. Score records are append-only:
// a new score supersedes the previous one, it never overwrites it.
var (
	// ErrNotFound is returned when a borrower has no score, profile or
	// other requested record.
	ErrNotFound = errors.New("not found")

	// ErrDuplicateKey is returned when a record with the same key already
	// exists, e.g. a second score for (borrower_id, issued_at).
	ErrDuplicateKey = errors.New("duplicate key: record already exists")

	// ErrInvalidInput is returned when a record is missing its key fields.
	ErrInvalidInput = errors.New("invalid input")
)
