package service

import (
	"context"
	"strings"
	"time"

	"horae/internal/horae/store"
)

// ReaderRegistry tracks capture readers as they connect, disconnect and
// deliver samples. Reader state never affects the ledger.
type ReaderRegistry struct {
	store store.ReaderStore
}

func NewReaderRegistry(st store.ReaderStore) *ReaderRegistry {
	return &ReaderRegistry{store: st}
}

func (r *ReaderRegistry) NoteConnected(ctx context.Context, readerID string) error {
	return r.mark(ctx, readerID, true)
}

func (r *ReaderRegistry) NoteDisconnected(ctx context.Context, readerID string) error {
	return r.mark(ctx, readerID, false)
}

// NoteSeen records sample activity from a reader that is necessarily
// connected.
func (r *ReaderRegistry) NoteSeen(ctx context.Context, readerID string) error {
	return r.mark(ctx, readerID, true)
}

func (r *ReaderRegistry) mark(ctx context.Context, readerID string, connected bool) error {
	readerID = strings.TrimSpace(readerID)
	if readerID == "" {
		return nil
	}
	return r.store.MarkSeen(ctx, readerID, connected, time.Now().UTC())
}

func (r *ReaderRegistry) Status(ctx context.Context, readerID string) (*store.ReaderStatus, error) {
	return r.store.Status(ctx, strings.TrimSpace(readerID))
}
