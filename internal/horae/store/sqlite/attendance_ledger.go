package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	sqlite3 "modernc.org/sqlite"
	sqlite3lib "modernc.org/sqlite/lib"

	dbpkg "horae/internal/db"
	"horae/internal/horae/store"
	"horae/internal/horae/types"
)

// AttendanceLedger stores attendance records in SQLite. All writes go
// through the db.Worker, so a Transition closure runs in one
// transaction on the only writer goroutine: the find and the open/close
// for a key cannot be interleaved by another caller.
type AttendanceLedger struct {
	db     *sql.DB
	writer *dbpkg.Worker
}

func NewAttendanceLedger(db *sql.DB, writer *dbpkg.Worker) *AttendanceLedger {
	return &AttendanceLedger{db: db, writer: writer}
}

func (l *AttendanceLedger) Transition(ctx context.Context, _ string, _ types.Day, fn func(ctx context.Context, tx store.LedgerTx) error) error {
	return l.writer.Do(ctx, func(ctx context.Context, tx *sql.Tx) error {
		return fn(ctx, &ledgerTx{q: tx})
	})
}

func (l *AttendanceLedger) FindOpenRecord(ctx context.Context, identityID string, day types.Day) (*types.AttendanceRecord, error) {
	tx := ledgerTx{q: l.db}
	return tx.FindOpenRecord(ctx, identityID, day)
}

func (l *AttendanceLedger) ListDay(ctx context.Context, day types.Day) ([]types.AttendanceRecord, error) {
	rows, err := l.db.QueryContext(ctx, `
SELECT record_id, identity_id, display_name, group_label, day, time_in_ms, time_out_ms
FROM attendance_records
WHERE day = ?
ORDER BY time_in_ms;
`, string(day))
	if err != nil {
		return nil, fmt.Errorf("ListDay query: %w", err)
	}
	defer rows.Close()

	var out []types.AttendanceRecord
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("ListDay scan: %w", err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ListDay rows: %w", err)
	}
	return out, nil
}

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

type ledgerTx struct {
	q querier
}

func (t *ledgerTx) FindOpenRecord(ctx context.Context, identityID string, day types.Day) (*types.AttendanceRecord, error) {
	row := t.q.QueryRowContext(ctx, `
SELECT record_id, identity_id, display_name, group_label, day, time_in_ms, time_out_ms
FROM attendance_records
WHERE identity_id = ? AND day = ? AND time_out_ms IS NULL
LIMIT 1;
`, identityID, string(day))

	rec, err := scanRecord(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("FindOpenRecord: %w", err)
	}
	return &rec, nil
}

func (t *ledgerTx) OpenRecord(ctx context.Context, rec types.AttendanceRecord) error {
	_, err := t.q.ExecContext(ctx, `
INSERT INTO attendance_records(
  record_id, identity_id, display_name, group_label, day, time_in_ms, time_out_ms
) VALUES (?, ?, ?, ?, ?, ?, NULL);
`,
		rec.RecordID, rec.IdentityID, rec.DisplayName, rec.GroupLabel,
		string(rec.Day), rec.TimeIn.UTC().UnixMilli(),
	)
	if isUniqueViolation(err) {
		// idx_attendance_one_open tripped: an open record already
		// exists for this (identity, day).
		return store.ErrDuplicateOpenRecord
	}
	if err != nil {
		return fmt.Errorf("OpenRecord insert: %w", err)
	}
	return nil
}

func (t *ledgerTx) CloseRecord(ctx context.Context, recordID string, timeOut time.Time) error {
	var timeOutMs sql.NullInt64
	err := t.q.QueryRowContext(ctx, `
SELECT time_out_ms FROM attendance_records WHERE record_id = ?;
`, recordID).Scan(&timeOutMs)
	if err == sql.ErrNoRows {
		return store.ErrRecordNotFound
	}
	if err != nil {
		return fmt.Errorf("CloseRecord lookup: %w", err)
	}
	if timeOutMs.Valid {
		return store.ErrAlreadyClosed
	}

	if _, err := t.q.ExecContext(ctx, `
UPDATE attendance_records SET time_out_ms = ? WHERE record_id = ?;
`, timeOut.UTC().UnixMilli(), recordID); err != nil {
		return fmt.Errorf("CloseRecord update: %w", err)
	}
	return nil
}

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (types.AttendanceRecord, error) {
	var (
		rec       types.AttendanceRecord
		day       string
		timeInMs  int64
		timeOutMs sql.NullInt64
	)
	err := row.Scan(&rec.RecordID, &rec.IdentityID, &rec.DisplayName,
		&rec.GroupLabel, &day, &timeInMs, &timeOutMs)
	if err != nil {
		return types.AttendanceRecord{}, err
	}

	rec.Day = types.Day(day)
	rec.TimeIn = time.UnixMilli(timeInMs).UTC()
	if timeOutMs.Valid {
		t := time.UnixMilli(timeOutMs.Int64).UTC()
		rec.TimeOut = &t
	}
	return rec, nil
}

func isUniqueViolation(err error) bool {
	var se *sqlite3.Error
	if !errors.As(err, &se) {
		return false
	}
	switch se.Code() {
	case sqlite3lib.SQLITE_CONSTRAINT_UNIQUE, sqlite3lib.SQLITE_CONSTRAINT_PRIMARYKEY:
		return true
	}
	return false
}
