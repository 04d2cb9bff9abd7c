package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"horae/internal/horae/store"
	"horae/internal/horae/types"
)

// AttendanceLedger stores attendance records in the shared PostgreSQL
// database. Transition takes a transaction-scoped advisory lock keyed
// on (identity, day), so two kiosks scanning the same person serialize
// against each other even before either has written a row.
type AttendanceLedger struct {
	db *DB
}

func NewAttendanceLedger(db *DB) *AttendanceLedger {
	return &AttendanceLedger{db: db}
}

func (l *AttendanceLedger) Transition(ctx context.Context, identityID string, day types.Day, fn func(ctx context.Context, tx store.LedgerTx) error) error {
	tx, err := l.db.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("%w: begin transition: %v", store.ErrStoreUnavailable, err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	// Held until commit/rollback. Covers the no-open-record case too,
	// which a row lock alone cannot.
	if _, err := tx.Exec(ctx,
		`SELECT pg_advisory_xact_lock(hashtextextended($1, 0));`,
		identityID+"|"+string(day),
	); err != nil {
		return fmt.Errorf("transition lock: %w", err)
	}

	if err := fn(ctx, &ledgerTx{tx: tx}); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transition: %w", err)
	}
	return nil
}

func (l *AttendanceLedger) FindOpenRecord(ctx context.Context, identityID string, day types.Day) (*types.AttendanceRecord, error) {
	return findOpenRecord(ctx, l.db.pool, identityID, day)
}

func (l *AttendanceLedger) ListDay(ctx context.Context, day types.Day) ([]types.AttendanceRecord, error) {
	rows, err := l.db.pool.Query(ctx, `
SELECT record_id, identity_id, display_name, group_label, day, time_in, time_out
FROM attendance_records
WHERE day = $1
ORDER BY time_in;
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

// pgQuerier is satisfied by both *pgxpool.Pool and pgx.Tx.
type pgQuerier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

type ledgerTx struct {
	tx pgx.Tx
}

func (t *ledgerTx) FindOpenRecord(ctx context.Context, identityID string, day types.Day) (*types.AttendanceRecord, error) {
	return findOpenRecord(ctx, t.tx, identityID, day)
}

func findOpenRecord(ctx context.Context, q pgQuerier, identityID string, day types.Day) (*types.AttendanceRecord, error) {
	row := q.QueryRow(ctx, `
SELECT record_id, identity_id, display_name, group_label, day, time_in, time_out
FROM attendance_records
WHERE identity_id = $1 AND day = $2 AND time_out IS NULL
LIMIT 1;
`, identityID, string(day))

	rec, err := scanRecord(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("FindOpenRecord: %w", err)
	}
	return &rec, nil
}

func (t *ledgerTx) OpenRecord(ctx context.Context, rec types.AttendanceRecord) error {
	_, err := t.tx.Exec(ctx, `
INSERT INTO attendance_records(
  record_id, identity_id, display_name, group_label, day, time_in, time_out
) VALUES ($1, $2, $3, $4, $5, $6, NULL);
`,
		rec.RecordID, rec.IdentityID, rec.DisplayName, rec.GroupLabel,
		string(rec.Day), rec.TimeIn.UTC(),
	)
	if isUniqueViolation(err) {
		return store.ErrDuplicateOpenRecord
	}
	if err != nil {
		return fmt.Errorf("OpenRecord insert: %w", err)
	}
	return nil
}

func (t *ledgerTx) CloseRecord(ctx context.Context, recordID string, timeOut time.Time) error {
	var existing *time.Time
	err := t.tx.QueryRow(ctx, `
SELECT time_out FROM attendance_records WHERE record_id = $1 FOR UPDATE;
`, recordID).Scan(&existing)
	if errors.Is(err, pgx.ErrNoRows) {
		return store.ErrRecordNotFound
	}
	if err != nil {
		return fmt.Errorf("CloseRecord lookup: %w", err)
	}
	if existing != nil {
		return store.ErrAlreadyClosed
	}

	if _, err := t.tx.Exec(ctx, `
UPDATE attendance_records SET time_out = $1 WHERE record_id = $2;
`, timeOut.UTC(), recordID); err != nil {
		return fmt.Errorf("CloseRecord update: %w", err)
	}
	return nil
}

func scanRecord(row pgx.Row) (types.AttendanceRecord, error) {
	var (
		rec     types.AttendanceRecord
		day     string
		timeOut *time.Time
	)
	err := row.Scan(&rec.RecordID, &rec.IdentityID, &rec.DisplayName,
		&rec.GroupLabel, &day, &rec.TimeIn, &timeOut)
	if err != nil {
		return types.AttendanceRecord{}, err
	}

	rec.Day = types.Day(day)
	rec.TimeIn = rec.TimeIn.UTC()
	if timeOut != nil {
		t := timeOut.UTC()
		rec.TimeOut = &t
	}
	return rec, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
