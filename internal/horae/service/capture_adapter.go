package service

import (
	"context"
	"errors"
	"log"
	"time"

	"horae/internal/horae/metrics"
	"horae/internal/horae/types"
)

// ErrQueueFull is returned by Submit when the event buffer is full.
// The transport reports backpressure to the device shim instead of
// blocking a request handler.
var ErrQueueFull = errors.New("capture event queue full")

// CaptureAdapter consumes normalized device events and drives the
// match-then-record pipeline. One dispatcher handles the whole event
// enumeration; non-biometric events are observational only.
//
// The loop blocks on the event channel rather than polling a flag.
// Session completion is delivered on the Completed channel.
type CaptureAdapter struct {
	events     chan types.CaptureEvent
	snapshot   *EnrollmentSnapshot
	matcher    Matcher
	attendance *AttendanceService
	readers    *ReaderRegistry
	logger     *log.Logger
	metrics    *metrics.Metrics

	exitAfterMatch bool
	completed      chan types.Action
}

type CaptureAdapterDeps struct {
	Snapshot   *EnrollmentSnapshot
	Matcher    Matcher
	Attendance *AttendanceService
	Readers    *ReaderRegistry
	Logger     *log.Logger
	Metrics    *metrics.Metrics

	// QueueSize bounds the event buffer. Defaults to 64.
	QueueSize int

	// ExitAfterMatch makes Run return after the first committed
	// mutation, matching a one-subject kiosk session.
	ExitAfterMatch bool
}

func NewCaptureAdapter(d CaptureAdapterDeps) *CaptureAdapter {
	size := d.QueueSize
	if size <= 0 {
		size = 64
	}
	return &CaptureAdapter{
		events:         make(chan types.CaptureEvent, size),
		snapshot:       d.Snapshot,
		matcher:        d.Matcher,
		attendance:     d.Attendance,
		readers:        d.Readers,
		logger:         d.Logger,
		metrics:        d.Metrics,
		exitAfterMatch: d.ExitAfterMatch,
		completed:      make(chan types.Action, 1),
	}
}

// Submit enqueues a device event without blocking.
func (a *CaptureAdapter) Submit(ev types.CaptureEvent) error {
	select {
	case a.events <- ev:
		return nil
	default:
		return ErrQueueFull
	}
}

// Completed delivers one Action per committed attendance mutation.
func (a *CaptureAdapter) Completed() <-chan types.Action {
	return a.completed
}

// Run processes events until ctx is cancelled, or until the first
// recorded attendance when ExitAfterMatch is set.
func (a *CaptureAdapter) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev := <-a.events:
			if recorded := a.dispatch(ctx, ev); recorded && a.exitAfterMatch {
				return nil
			}
		}
	}
}

// dispatch handles one event; returns true only when an attendance
// mutation was committed.
func (a *CaptureAdapter) dispatch(ctx context.Context, ev types.CaptureEvent) bool {
	switch ev.Kind {
	case types.SampleCaptured:
		return a.handleSample(ctx, ev)
	case types.FingerTouch:
		a.logger.Printf("finger touched reader %s", ev.ReaderID)
	case types.FingerGone:
		a.logger.Printf("finger removed from reader %s", ev.ReaderID)
	case types.ReaderConnected:
		a.logger.Printf("reader %s connected", ev.ReaderID)
		_ = a.readers.NoteConnected(ctx, ev.ReaderID)
	case types.ReaderDisconnected:
		a.logger.Printf("reader %s disconnected", ev.ReaderID)
		_ = a.readers.NoteDisconnected(ctx, ev.ReaderID)
	case types.QualityReport:
		a.logger.Printf("reader %s sample quality: %s", ev.ReaderID, ev.Quality)
	default:
		a.logger.Printf("ignoring unknown capture event kind %q", ev.Kind)
	}
	return false
}

func (a *CaptureAdapter) handleSample(ctx context.Context, ev types.CaptureEvent) bool {
	_ = a.readers.NoteSeen(ctx, ev.ReaderID)

	// Quality gate: a flagged sample never reaches the matcher.
	if ev.Quality != "" && ev.Quality != types.QualityGood {
		a.logger.Printf("poor quality sample from reader %s; ask subject to rescan", ev.ReaderID)
		a.metrics.ScanRecorded(metrics.ResultLowQuality)
		return false
	}

	enrollments := a.snapshot.Current()
	if len(enrollments) == 0 {
		// Nothing can ever match; do not invoke the matcher.
		a.logger.Printf("no enrollments loaded; cannot verify sample from reader %s", ev.ReaderID)
		return false
	}

	identityID, ok, err := a.matcher.Match(ctx, ev.Sample, enrollments)
	if err != nil {
		a.logger.Printf("matcher error: %v", err)
		a.metrics.ScanRecorded(metrics.ResultError)
		return false
	}
	if !ok {
		a.logger.Printf("sample from reader %s matches no enrollment", ev.ReaderID)
		a.metrics.ScanRecorded(metrics.ResultNoMatch)
		return false
	}

	now := ev.At
	if now.IsZero() {
		now = time.Now().UTC()
	}

	act, err := a.attendance.RecordScan(ctx, identityID, now)
	if err != nil {
		// The match event is un-applied; the session is not complete
		// and the subject should rescan.
		a.logger.Printf("attendance not recorded for %s (rescan required): %v", identityID, err)
		return false
	}

	a.logger.Printf("attendance %s for %s (%s) on %s", act.Kind, act.DisplayName, act.IdentityID, act.Day)

	select {
	case a.completed <- act:
	default:
		// Host is not draining completions; the log line above still
		// records the outcome.
	}
	return true
}
