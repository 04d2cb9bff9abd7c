package store

import "errors"

var (
	// ErrStoreUnavailable wraps connectivity failures to the backing
	// storage. Fatal at startup when no snapshot can be loaded at all.
	ErrStoreUnavailable = errors.New("backing store unavailable")

	// Invariant violations at the storage boundary. These should never
	// trigger when callers run decide and commit inside Transition, but
	// the storage layer enforces them anyway.
	ErrDuplicateOpenRecord = errors.New("open attendance record already exists")
	ErrRecordNotFound      = errors.New("attendance record not found")
	ErrAlreadyClosed       = errors.New("attendance record already closed")
)
