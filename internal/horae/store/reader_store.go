package store

import (
	"context"
	"time"
)

// ReaderStatus is the last known state of a capture reader.
type ReaderStatus struct {
	ReaderID  string
	Connected bool
	LastSeen  time.Time
}

// ReaderStore tracks capture readers as they connect, disconnect and
// deliver samples. Purely observational; reader state never affects
// the ledger.
type ReaderStore interface {
	MarkSeen(ctx context.Context, readerID string, connected bool, t time.Time) error
	Status(ctx context.Context, readerID string) (*ReaderStatus, error)
}
