package service_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"horae/internal/horae/service"
	"horae/internal/horae/store/memory"
	"horae/internal/horae/types"
)

// spyMatcher counts invocations and answers with a fixed result.
type spyMatcher struct {
	mu    sync.Mutex
	calls int
	id    string
	found bool
}

func (m *spyMatcher) Match(_ context.Context, _ []byte, _ []types.Enrollment) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	return m.id, m.found, nil
}

func (m *spyMatcher) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

type adapterFixture struct {
	adapter *service.CaptureAdapter
	ledger  *memory.AttendanceLedger
	readers *memory.ReaderStore
	matcher *spyMatcher
	runErr  chan error
}

func startAdapter(t *testing.T, enrollments []types.Enrollment, matcher *spyMatcher, exitAfterMatch bool) *adapterFixture {
	t.Helper()

	snap := newTestSnapshot(t, enrollments)
	ledger := memory.NewAttendanceLedger()
	readers := memory.NewReaderStore()

	attendance := service.NewAttendanceService(service.AttendanceDeps{
		Ledger:   ledger,
		Snapshot: snap,
		Location: time.UTC,
		Logger:   silentLogger(),
	})

	adapter := service.NewCaptureAdapter(service.CaptureAdapterDeps{
		Snapshot:       snap,
		Matcher:        matcher,
		Attendance:     attendance,
		Readers:        service.NewReaderRegistry(readers),
		Logger:         silentLogger(),
		ExitAfterMatch: exitAfterMatch,
	})

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	runErr := make(chan error, 1)
	go func() { runErr <- adapter.Run(ctx) }()

	return &adapterFixture{
		adapter: adapter,
		ledger:  ledger,
		readers: readers,
		matcher: matcher,
		runErr:  runErr,
	}
}

func TestCaptureAdapter_GoodSampleRecordsAttendance(t *testing.T) {
	matcher := &spyMatcher{id: "S001", found: true}
	f := startAdapter(t, testEnrollments, matcher, false)

	require.NoError(t, f.adapter.Submit(types.CaptureEvent{
		Kind:     types.SampleCaptured,
		ReaderID: "kiosk-001",
		Sample:   []byte("tpl-S001"),
		Quality:  types.QualityGood,
		At:       time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC),
	}))

	select {
	case act := <-f.adapter.Completed():
		assert.Equal(t, types.ActionOpened, act.Kind)
		assert.Equal(t, "S001", act.IdentityID)
		assert.Equal(t, types.Day("2024-05-01"), act.Day)
	case <-time.After(time.Second):
		t.Fatal("no completion signal within 1s")
	}

	records := f.ledger.Records()
	require.Len(t, records, 1)
	assert.True(t, records[0].Open())
}

func TestCaptureAdapter_LowQualitySampleNeverReachesMatcher(t *testing.T) {
	matcher := &spyMatcher{id: "S001", found: true}
	f := startAdapter(t, testEnrollments, matcher, false)

	require.NoError(t, f.adapter.Submit(types.CaptureEvent{
		Kind:    types.SampleCaptured,
		Sample:  []byte("tpl-S001"),
		Quality: types.QualityPoor,
	}))

	// A second, good sample proves the first was fully processed.
	require.NoError(t, f.adapter.Submit(types.CaptureEvent{
		Kind:    types.SampleCaptured,
		Sample:  []byte("tpl-S001"),
		Quality: types.QualityGood,
	}))

	select {
	case <-f.adapter.Completed():
	case <-time.After(time.Second):
		t.Fatal("no completion signal within 1s")
	}

	assert.Equal(t, 1, f.matcher.Calls(), "poor sample must not be matched")
}

func TestCaptureAdapter_EmptySnapshotNeverInvokesMatcher(t *testing.T) {
	matcher := &spyMatcher{id: "S001", found: true}
	f := startAdapter(t, nil, matcher, false)

	require.NoError(t, f.adapter.Submit(types.CaptureEvent{
		Kind:    types.SampleCaptured,
		Sample:  []byte("tpl-S001"),
		Quality: types.QualityGood,
	}))

	// A reader event afterwards proves the sample was fully processed.
	require.NoError(t, f.adapter.Submit(types.CaptureEvent{
		Kind:     types.ReaderConnected,
		ReaderID: "kiosk-001",
	}))
	require.Eventually(t, func() bool {
		st, err := f.readers.Status(context.Background(), "kiosk-001")
		return err == nil && st != nil
	}, time.Second, 10*time.Millisecond)

	assert.Equal(t, 0, f.matcher.Calls())
	assert.Empty(t, f.ledger.Records())
}

func TestCaptureAdapter_NoMatchHasNoLedgerEffect(t *testing.T) {
	matcher := &spyMatcher{found: false}
	f := startAdapter(t, testEnrollments, matcher, false)

	require.NoError(t, f.adapter.Submit(types.CaptureEvent{
		Kind:    types.SampleCaptured,
		Sample:  []byte("someone-else"),
		Quality: types.QualityGood,
	}))

	require.Eventually(t, func() bool { return f.matcher.Calls() == 1 },
		time.Second, 10*time.Millisecond)
	assert.Empty(t, f.ledger.Records())
}

func TestCaptureAdapter_ReaderEventsUpdateRegistry(t *testing.T) {
	matcher := &spyMatcher{}
	f := startAdapter(t, testEnrollments, matcher, false)

	require.NoError(t, f.adapter.Submit(types.CaptureEvent{
		Kind:     types.ReaderConnected,
		ReaderID: "kiosk-001",
	}))

	require.Eventually(t, func() bool {
		st, err := f.readers.Status(context.Background(), "kiosk-001")
		return err == nil && st != nil && st.Connected
	}, time.Second, 10*time.Millisecond)

	require.NoError(t, f.adapter.Submit(types.CaptureEvent{
		Kind:     types.ReaderDisconnected,
		ReaderID: "kiosk-001",
	}))

	require.Eventually(t, func() bool {
		st, err := f.readers.Status(context.Background(), "kiosk-001")
		return err == nil && st != nil && !st.Connected
	}, time.Second, 10*time.Millisecond)

	assert.Equal(t, 0, f.matcher.Calls())
	assert.Empty(t, f.ledger.Records())
}

func TestCaptureAdapter_ExitAfterMatchStopsRun(t *testing.T) {
	matcher := &spyMatcher{id: "S001", found: true}
	f := startAdapter(t, testEnrollments, matcher, true)

	require.NoError(t, f.adapter.Submit(types.CaptureEvent{
		Kind:    types.SampleCaptured,
		Sample:  []byte("tpl-S001"),
		Quality: types.QualityGood,
	}))

	select {
	case err := <-f.runErr:
		assert.NoError(t, err, "Run should return nil after the session completes")
	case <-time.After(time.Second):
		t.Fatal("Run did not return after a recorded attendance")
	}
}

func TestCaptureAdapter_SubmitBackpressure(t *testing.T) {
	// Adapter that is never run: the queue fills up.
	snap := newTestSnapshot(t, testEnrollments)
	adapter := service.NewCaptureAdapter(service.CaptureAdapterDeps{
		Snapshot:  snap,
		Matcher:   &spyMatcher{},
		Readers:   service.NewReaderRegistry(memory.NewReaderStore()),
		Logger:    silentLogger(),
		QueueSize: 2,
	})

	require.NoError(t, adapter.Submit(types.CaptureEvent{Kind: types.FingerTouch}))
	require.NoError(t, adapter.Submit(types.CaptureEvent{Kind: types.FingerTouch}))
	require.ErrorIs(t, adapter.Submit(types.CaptureEvent{Kind: types.FingerTouch}), service.ErrQueueFull)
}
