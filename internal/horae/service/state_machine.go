package service

import (
	"time"

	"github.com/google/uuid"

	"horae/internal/horae/types"
)

// Decide is the attendance state machine: a two-state cycle per
// identity per day. An open record means the identity is currently In,
// so the scan closes it; no open record means Out, so the scan opens a
// new cycle. The open-record query is scoped by day, which resets the
// cycle at midnight without any explicit state.
//
// Pure function over a ledger read. Callers must hold the
// (identity, day) transition for the read that produced open.
func Decide(open *types.AttendanceRecord) types.ActionKind {
	if open != nil {
		return types.ActionClosed
	}
	return types.ActionOpened
}

// NewOpenRecord builds the record for an Out -> In transition.
func NewOpenRecord(enr types.Enrollment, day types.Day, timeIn time.Time) types.AttendanceRecord {
	return types.AttendanceRecord{
		RecordID:    uuid.NewString(),
		IdentityID:  enr.IdentityID,
		DisplayName: enr.DisplayName,
		GroupLabel:  enr.GroupLabel,
		Day:         day,
		TimeIn:      timeIn,
	}
}
