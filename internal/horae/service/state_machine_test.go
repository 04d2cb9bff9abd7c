package service_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"horae/internal/horae/service"
	"horae/internal/horae/types"
)

func TestDecide_NoOpenRecord_Opens(t *testing.T) {
	assert.Equal(t, types.ActionOpened, service.Decide(nil))
}

func TestDecide_OpenRecord_Closes(t *testing.T) {
	rec := &types.AttendanceRecord{
		RecordID:   "rec-1",
		IdentityID: "S001",
		Day:        "2024-05-01",
		TimeIn:     time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC),
	}
	assert.Equal(t, types.ActionClosed, service.Decide(rec))
}

func TestNewOpenRecord_CopiesEnrollmentFields(t *testing.T) {
	enr := types.Enrollment{
		IdentityID:  "S001",
		DisplayName: "Alice Reyes",
		GroupLabel:  "BSCS-3",
		Template:    []byte("tpl"),
	}
	timeIn := time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)

	rec := service.NewOpenRecord(enr, "2024-05-01", timeIn)

	require.NotEmpty(t, rec.RecordID)
	assert.Equal(t, "S001", rec.IdentityID)
	assert.Equal(t, "Alice Reyes", rec.DisplayName)
	assert.Equal(t, "BSCS-3", rec.GroupLabel)
	assert.Equal(t, types.Day("2024-05-01"), rec.Day)
	assert.Equal(t, timeIn, rec.TimeIn)
	assert.True(t, rec.Open())
}

func TestNewOpenRecord_UniqueIDs(t *testing.T) {
	enr := types.Enrollment{IdentityID: "S001"}
	a := service.NewOpenRecord(enr, "2024-05-01", time.Now())
	b := service.NewOpenRecord(enr, "2024-05-01", time.Now())
	assert.NotEqual(t, a.RecordID, b.RecordID)
}
