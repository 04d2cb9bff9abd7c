package service_test

import (
	"context"
	"io"
	"log"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"horae/internal/horae/service"
	"horae/internal/horae/store/memory"
	"horae/internal/horae/types"
)

func silentLogger() *log.Logger {
	return log.New(io.Discard, "", 0)
}

var testEnrollments = []types.Enrollment{
	{IdentityID: "S001", DisplayName: "Alice Reyes", GroupLabel: "BSCS-3", Template: []byte("tpl-S001")},
	{IdentityID: "S002", DisplayName: "Ben Ocampo", GroupLabel: "BSIT-2", Template: []byte("tpl-S002")},
}

// newTestSnapshot builds a loaded snapshot over an in-memory enrollment
// store.
func newTestSnapshot(t *testing.T, enrollments []types.Enrollment) *service.EnrollmentSnapshot {
	t.Helper()

	snap := service.NewEnrollmentSnapshot(
		memory.NewEnrollmentStore(enrollments),
		service.SnapshotConfig{},
		silentLogger(),
		nil,
	)
	require.NoError(t, snap.Refresh(context.Background()))
	return snap
}

// newTestAttendanceService wires an AttendanceService over an in-memory
// ledger, returning both so tests can inspect committed records.
func newTestAttendanceService(t *testing.T, enrollments []types.Enrollment) (*service.AttendanceService, *memory.AttendanceLedger) {
	t.Helper()

	ledger := memory.NewAttendanceLedger()
	svc := service.NewAttendanceService(service.AttendanceDeps{
		Ledger:   ledger,
		Snapshot: newTestSnapshot(t, enrollments),
		Location: time.UTC,
		Logger:   silentLogger(),
	})
	return svc, ledger
}
