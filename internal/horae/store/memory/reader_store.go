package memory

import (
	"context"
	"strings"
	"sync"
	"time"

	"horae/internal/horae/store"
)

type ReaderStore struct {
	mu      sync.RWMutex
	readers map[string]store.ReaderStatus
}

func NewReaderStore() *ReaderStore {
	return &ReaderStore{readers: make(map[string]store.ReaderStatus)}
}

func (s *ReaderStore) MarkSeen(_ context.Context, readerID string, connected bool, t time.Time) error {
	readerID = strings.TrimSpace(readerID)
	if readerID == "" {
		return nil
	}
	if t.IsZero() {
		t = time.Now().UTC()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.readers[readerID] = store.ReaderStatus{
		ReaderID:  readerID,
		Connected: connected,
		LastSeen:  t,
	}
	return nil
}

func (s *ReaderStore) Status(_ context.Context, readerID string) (*store.ReaderStatus, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st, ok := s.readers[readerID]
	if !ok {
		return nil, nil
	}
	cp := st
	return &cp, nil
}
