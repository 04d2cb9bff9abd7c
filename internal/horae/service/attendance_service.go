package service

import (
	"context"
	"errors"
	"log"
	"time"

	"horae/internal/horae/metrics"
	"horae/internal/horae/store"
	"horae/internal/horae/types"
)

var ErrUnknownIdentity = errors.New("identity is not enrolled")

// AttendanceService turns a matched-identity event into a committed
// ledger mutation. It holds no state of its own: every decision is a
// fresh ledger read inside a Transition, so a double scan can never act
// on a stale view.
type AttendanceService struct {
	ledger     store.AttendanceLedger
	snapshot   *EnrollmentSnapshot
	loc        *time.Location
	logger     *log.Logger
	metrics    *metrics.Metrics
	onRecorded func(types.Action)
}

type AttendanceDeps struct {
	Ledger   store.AttendanceLedger
	Snapshot *EnrollmentSnapshot
	Location *time.Location
	Logger   *log.Logger
	Metrics  *metrics.Metrics

	// OnRecorded is invoked after every committed mutation. The hosting
	// process uses it to decide whether to exit, reset, or await the
	// next subject.
	OnRecorded func(types.Action)
}

func NewAttendanceService(d AttendanceDeps) *AttendanceService {
	loc := d.Location
	if loc == nil {
		loc = time.Local
	}
	return &AttendanceService{
		ledger:     d.Ledger,
		snapshot:   d.Snapshot,
		loc:        loc,
		logger:     d.Logger,
		metrics:    d.Metrics,
		onRecorded: d.OnRecorded,
	}
}

// RecordScan commits the attendance transition for one match event.
// The find-then-write pair runs inside ledger.Transition, so concurrent
// scans for the same identity serialize instead of double-opening.
//
// Invariant-violation errors from the storage boundary mean the event
// is dropped: they are logged as operational alerts, never treated as a
// recorded scan.
func (s *AttendanceService) RecordScan(ctx context.Context, identityID string, now time.Time) (types.Action, error) {
	enr, ok := s.snapshot.Lookup(identityID)
	if !ok {
		return types.Action{}, ErrUnknownIdentity
	}

	day := types.DayOf(now, s.loc)

	var act types.Action
	err := s.ledger.Transition(ctx, identityID, day, func(ctx context.Context, tx store.LedgerTx) error {
		open, err := tx.FindOpenRecord(ctx, identityID, day)
		if err != nil {
			return err
		}

		switch Decide(open) {
		case types.ActionClosed:
			if err := tx.CloseRecord(ctx, open.RecordID, now); err != nil {
				return err
			}
			act = types.Action{
				Kind:        types.ActionClosed,
				RecordID:    open.RecordID,
				IdentityID:  identityID,
				DisplayName: enr.DisplayName,
				Day:         day,
				At:          now,
			}
		case types.ActionOpened:
			rec := NewOpenRecord(enr, day, now)
			if err := tx.OpenRecord(ctx, rec); err != nil {
				return err
			}
			act = types.Action{
				Kind:        types.ActionOpened,
				RecordID:    rec.RecordID,
				IdentityID:  identityID,
				DisplayName: enr.DisplayName,
				Day:         day,
				At:          now,
			}
		}
		return nil
	})
	if err != nil {
		if isInvariantViolation(err) {
			// Storage boundary caught what the serialization should
			// have prevented. Alert, drop the event, keep running.
			s.logger.Printf("ALERT: ledger invariant violation for %s on %s: %v", identityID, day, err)
			s.metrics.InvariantViolation()
		}
		s.metrics.ScanRecorded(metrics.ResultError)
		return types.Action{}, err
	}

	s.metrics.ScanRecorded(string(act.Kind))
	if s.onRecorded != nil {
		s.onRecorded(act)
	}
	return act, nil
}

func isInvariantViolation(err error) bool {
	return errors.Is(err, store.ErrDuplicateOpenRecord) ||
		errors.Is(err, store.ErrRecordNotFound) ||
		errors.Is(err, store.ErrAlreadyClosed)
}
