package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"horae/internal/horae/store"
	"horae/internal/horae/types"
)

// AttendanceLedger is an in-memory ledger for tests and dev
// environments. Transition serializes callers per (identity, day) with
// a dedicated mutex per key, mirroring what the SQL ledgers get from
// their transaction discipline.
type AttendanceLedger struct {
	mu      sync.Mutex
	keys    map[string]*sync.Mutex
	records map[string]types.AttendanceRecord // by record id
}

func NewAttendanceLedger() *AttendanceLedger {
	return &AttendanceLedger{
		keys:    make(map[string]*sync.Mutex),
		records: make(map[string]types.AttendanceRecord),
	}
}

func transitionKey(identityID string, day types.Day) string {
	return identityID + "|" + string(day)
}

func (l *AttendanceLedger) keyLock(identityID string, day types.Day) *sync.Mutex {
	l.mu.Lock()
	defer l.mu.Unlock()

	k := transitionKey(identityID, day)
	m, ok := l.keys[k]
	if !ok {
		m = &sync.Mutex{}
		l.keys[k] = m
	}
	return m
}

func (l *AttendanceLedger) Transition(ctx context.Context, identityID string, day types.Day, fn func(ctx context.Context, tx store.LedgerTx) error) error {
	m := l.keyLock(identityID, day)
	m.Lock()
	defer m.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}
	return fn(ctx, l)
}

func (l *AttendanceLedger) FindOpenRecord(_ context.Context, identityID string, day types.Day) (*types.AttendanceRecord, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.findOpenLocked(identityID, day), nil
}

func (l *AttendanceLedger) findOpenLocked(identityID string, day types.Day) *types.AttendanceRecord {
	for _, rec := range l.records {
		if rec.IdentityID == identityID && rec.Day == day && rec.Open() {
			cp := rec
			return &cp
		}
	}
	return nil
}

func (l *AttendanceLedger) OpenRecord(_ context.Context, rec types.AttendanceRecord) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.findOpenLocked(rec.IdentityID, rec.Day) != nil {
		return store.ErrDuplicateOpenRecord
	}
	l.records[rec.RecordID] = rec
	return nil
}

func (l *AttendanceLedger) CloseRecord(_ context.Context, recordID string, timeOut time.Time) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	rec, ok := l.records[recordID]
	if !ok {
		return store.ErrRecordNotFound
	}
	if !rec.Open() {
		return store.ErrAlreadyClosed
	}
	t := timeOut
	rec.TimeOut = &t
	l.records[recordID] = rec
	return nil
}

func (l *AttendanceLedger) ListDay(_ context.Context, day types.Day) ([]types.AttendanceRecord, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	var out []types.AttendanceRecord
	for _, rec := range l.records {
		if rec.Day == day {
			out = append(out, rec)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].TimeIn.Before(out[j].TimeIn) })
	return out, nil
}

// Records returns a copy of every record. Test-only helper.
func (l *AttendanceLedger) Records() []types.AttendanceRecord {
	l.mu.Lock()
	defer l.mu.Unlock()

	out := make([]types.AttendanceRecord, 0, len(l.records))
	for _, rec := range l.records {
		out = append(out, rec)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].TimeIn.Before(out[j].TimeIn) })
	return out
}
