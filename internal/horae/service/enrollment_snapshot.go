package service

import (
	"context"
	"log"
	"sync/atomic"
	"time"

	"horae/internal/horae/metrics"
	"horae/internal/horae/store"
	"horae/internal/horae/types"
)

// EnrollmentSnapshot holds the current enrollment set behind an atomic
// pointer. Refresh installs a whole new snapshot; in-flight matches
// keep reading the one they started with. An optional background loop
// reloads on an interval.
//
// A reload interval of 0 disables the loop entirely (single load per
// run).
type EnrollmentSnapshot struct {
	store    store.EnrollmentStore
	interval time.Duration
	logger   *log.Logger
	metrics  *metrics.Metrics
	cur      atomic.Pointer[snapshot]
	cancel   context.CancelFunc
	done     chan struct{}
}

type snapshot struct {
	list []types.Enrollment
	byID map[string]types.Enrollment
}

// SnapshotConfig holds the parameters for NewEnrollmentSnapshot.
type SnapshotConfig struct {
	// ReloadInterval is how often the background loop reloads.
	// 0 means load once and never reload (loop will not start).
	ReloadInterval time.Duration
}

// NewEnrollmentSnapshot creates the holder but performs no load.
// Call Refresh for the initial load, then Start for periodic reloads.
func NewEnrollmentSnapshot(st store.EnrollmentStore, cfg SnapshotConfig, logger *log.Logger, m *metrics.Metrics) *EnrollmentSnapshot {
	s := &EnrollmentSnapshot{
		store:    st,
		interval: cfg.ReloadInterval,
		logger:   logger,
		metrics:  m,
		done:     make(chan struct{}),
	}
	s.cur.Store(&snapshot{byID: map[string]types.Enrollment{}})
	return s
}

// Refresh loads the enrollment set and swaps it in atomically. Readers
// never observe a partially-updated snapshot. On error the previous
// snapshot stays installed.
func (s *EnrollmentSnapshot) Refresh(ctx context.Context) error {
	list, err := s.store.LoadAll(ctx)
	if err != nil {
		return err
	}

	byID := make(map[string]types.Enrollment, len(list))
	for _, e := range list {
		byID[e.IdentityID] = e
	}
	s.cur.Store(&snapshot{list: list, byID: byID})
	s.metrics.SetEnrollmentCount(len(list))
	return nil
}

// Current returns the installed enrollment set in snapshot order.
// Callers must not mutate it.
func (s *EnrollmentSnapshot) Current() []types.Enrollment {
	return s.cur.Load().list
}

// Lookup finds an enrollment by identity in the current snapshot.
func (s *EnrollmentSnapshot) Lookup(identityID string) (types.Enrollment, bool) {
	e, ok := s.cur.Load().byID[identityID]
	return e, ok
}

func (s *EnrollmentSnapshot) Len() int {
	return len(s.cur.Load().list)
}

// Start begins the background reload loop. The loop exits when ctx is
// cancelled or Stop is called.
func (s *EnrollmentSnapshot) Start(ctx context.Context) {
	if s.interval <= 0 {
		s.logger.Printf("enrollment reload disabled (interval=0)")
		close(s.done)
		return
	}

	ctx, s.cancel = context.WithCancel(ctx)

	go s.loop(ctx)

	s.logger.Printf("enrollment reload started (interval=%s)", s.interval)
}

// Stop signals the reload loop to exit and waits for it to finish.
func (s *EnrollmentSnapshot) Stop() {
	if s.cancel != nil {
		s.cancel()
	}
	<-s.done
}

func (s *EnrollmentSnapshot) loop(ctx context.Context) {
	defer close(s.done)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := s.Refresh(ctx); err != nil {
				// Transient store trouble keeps the old snapshot.
				s.logger.Printf("enrollment reload error: %v", err)
				continue
			}
			s.logger.Printf("enrollment snapshot reloaded (%d enrollments)", s.Len())
		}
	}
}
