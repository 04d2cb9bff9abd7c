package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	dbpkg "horae/internal/db"
	"horae/internal/horae/store"
)

type ReaderStore struct {
	db     *sql.DB
	writer *dbpkg.Worker
}

func NewReaderStore(db *sql.DB, writer *dbpkg.Worker) *ReaderStore {
	return &ReaderStore{db: db, writer: writer}
}

// MarkSeen upserts the reader row and stamps its last-seen time.
// Readers start out unprovisioned; seeing one is not an error.
func (s *ReaderStore) MarkSeen(ctx context.Context, readerID string, connected bool, t time.Time) error {
	readerID = strings.TrimSpace(readerID)
	if readerID == "" {
		return nil
	}
	if t.IsZero() {
		t = time.Now().UTC()
	}
	ms := t.UTC().UnixMilli()

	conn := 0
	if connected {
		conn = 1
	}

	return s.writer.Do(ctx, func(ctx context.Context, tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `
INSERT INTO readers(reader_id, connected, last_seen_at_ms, created_at_ms, updated_at_ms)
VALUES (?, ?, ?, ?, ?)
ON CONFLICT(reader_id) DO UPDATE SET
  connected       = excluded.connected,
  last_seen_at_ms = excluded.last_seen_at_ms,
  updated_at_ms   = excluded.updated_at_ms;
`, readerID, conn, ms, ms, ms); err != nil {
			return fmt.Errorf("MarkSeen upsert reader: %w", err)
		}
		return nil
	})
}

func (s *ReaderStore) Status(ctx context.Context, readerID string) (*store.ReaderStatus, error) {
	var (
		st       store.ReaderStatus
		conn     int
		lastSeen sql.NullInt64
	)
	err := s.db.QueryRowContext(ctx, `
SELECT reader_id, connected, last_seen_at_ms FROM readers WHERE reader_id = ?;
`, readerID).Scan(&st.ReaderID, &conn, &lastSeen)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("Status query: %w", err)
	}

	st.Connected = conn == 1
	if lastSeen.Valid {
		st.LastSeen = time.UnixMilli(lastSeen.Int64).UTC()
	}
	return &st, nil
}
