package store

import (
	"context"
	"time"

	"horae/internal/horae/types"
)

// LedgerTx is the view a transition closure operates on. Reads and
// writes through it are atomic relative to every other caller touching
// the same (identity, day) key.
type LedgerTx interface {
	// FindOpenRecord returns the record with no time-out for the key,
	// or nil when the identity is currently Out.
	FindOpenRecord(ctx context.Context, identityID string, day types.Day) (*types.AttendanceRecord, error)

	// OpenRecord inserts a new open record. Fails with
	// ErrDuplicateOpenRecord when an open record already exists for
	// (rec.IdentityID, rec.Day).
	OpenRecord(ctx context.Context, rec types.AttendanceRecord) error

	// CloseRecord sets the time-out on an open record. Fails with
	// ErrRecordNotFound or ErrAlreadyClosed.
	CloseRecord(ctx context.Context, recordID string, timeOut time.Time) error
}

// AttendanceLedger owns attendance record storage and is its sole
// writer.
type AttendanceLedger interface {
	// FindOpenRecord is a standalone atomic read of the open record for
	// the key (reporting; mutations must go through Transition).
	FindOpenRecord(ctx context.Context, identityID string, day types.Day) (*types.AttendanceRecord, error)

	// ListDay returns every record for a day in time-in order, for
	// reporting tools.
	ListDay(ctx context.Context, day types.Day) ([]types.AttendanceRecord, error)

	// Transition runs fn with exclusive ownership of the
	// (identityID, day) key. The find-then-write pair for one match
	// event lives entirely inside fn; two concurrent scans for the same
	// identity can never both observe "no open record". If fn returns
	// an error, or the context is cancelled mid-flight, nothing fn did
	// is observable by later readers.
	Transition(ctx context.Context, identityID string, day types.Day, fn func(ctx context.Context, tx LedgerTx) error) error
}
