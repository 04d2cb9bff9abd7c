package types

import "time"

// DayLayout is the wire and storage format for calendar days.
const DayLayout = "2006-01-02"

// Day is a calendar day in the kiosk's timezone. It is part of every
// ledger key, which is what resets the in/out cycle at midnight: a new
// day simply never finds the previous day's open record.
type Day string

// DayOf returns the calendar day of t in the given location.
func DayOf(t time.Time, loc *time.Location) Day {
	if loc == nil {
		loc = time.Local
	}
	return Day(t.In(loc).Format(DayLayout))
}

// ParseDay validates a day string.
func ParseDay(s string) (Day, error) {
	if _, err := time.Parse(DayLayout, s); err != nil {
		return "", err
	}
	return Day(s), nil
}

// AttendanceRecord is one in/out cycle for an identity on a day.
// Invariant: at most one record per (IdentityID, Day) has TimeOut unset.
type AttendanceRecord struct {
	RecordID    string
	IdentityID  string
	DisplayName string
	GroupLabel  string
	Day         Day
	TimeIn      time.Time
	TimeOut     *time.Time // nil while the record is open
}

// Open reports whether the record still has no time-out.
func (r AttendanceRecord) Open() bool { return r.TimeOut == nil }

type ActionKind string

const (
	ActionOpened ActionKind = "opened"
	ActionClosed ActionKind = "closed"
)

// Action describes the ledger mutation committed for one match event.
type Action struct {
	Kind        ActionKind
	RecordID    string
	IdentityID  string
	DisplayName string
	Day         Day
	At          time.Time
}
