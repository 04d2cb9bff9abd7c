package store

import (
	"context"

	"horae/internal/horae/types"
)

// EnrollmentStore loads the enrolled identities from the backing
// identity store.
type EnrollmentStore interface {
	// LoadAll reads every enrollment in one pass, ordered by identity
	// so snapshot order is stable across restarts. Rows without a
	// template are skipped. An empty result is a valid state, not an
	// error; unreachable storage is ErrStoreUnavailable.
	LoadAll(ctx context.Context) ([]types.Enrollment, error)
}
