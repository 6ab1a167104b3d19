// Package attendance defines punch events and the derivation of daily
// attendance records from them. Day records are pure derived data: they are
// recomputed from the event set on every read and never persisted.
package attendance

import "time"

// PunchType identifies whether an event opens or closes a duty period.
type PunchType string

const (
	PunchIn  PunchType = "IN"
	PunchOut PunchType = "OUT"
)

// DayStatus is the display classification of one officer-day.
type DayStatus string

const (
	StatusPresent DayStatus = "PRESENT"
	StatusLate    DayStatus = "LATE"
	StatusAbsent  DayStatus = "ABSENT"
)

// PunchEvent represents a single recorded punch. Immutable once persisted;
// created by the capture flow, never mutated, never deleted by the application.
type PunchEvent struct {
	ID        string    `json:"id"`
	OfficerID string    `json:"officerId"`
	PunchType PunchType `json:"punchType"`
	Timestamp time.Time `json:"timestamp"`
	Latitude  *float64  `json:"latitude,omitempty"`
	Longitude *float64  `json:"longitude,omitempty"`
	PhotoRef  string    `json:"photoRef,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// DayAttendanceRecord is the derived record for one officer on one calendar
// day. It has no independent lifecycle.
type DayAttendanceRecord struct {
	Date        string      `json:"date"` // local calendar date, "2006-01-02"
	PunchIn     *PunchEvent `json:"punchIn,omitempty"`
	PunchOut    *PunchEvent `json:"punchOut,omitempty"`
	HoursWorked *float64    `json:"hoursWorked,omitempty"`
	Status      DayStatus   `json:"status"`
}

// PunchState is the derived, cacheable answer to "is this officer on duty
// right now". The remote event list is the source of truth; a cached snapshot
// is only trusted while its date matches the current date.
type PunchState struct {
	IsPunchedIn   bool       `json:"isPunchedIn"`
	LastPunchTime *time.Time `json:"lastPunchTime,omitempty"`
	LastPunchType PunchType  `json:"lastPunchType,omitempty"`
}

// StateFromEvent derives a PunchState from the most recent event of the day.
// A nil event means no punches have been recorded yet today.
func StateFromEvent(event *PunchEvent) PunchState {
	if event == nil {
		return PunchState{}
	}
	ts := event.Timestamp
	return PunchState{
		IsPunchedIn:   event.PunchType == PunchIn,
		LastPunchTime: &ts,
		LastPunchType: event.PunchType,
	}
}

// NextPunchType returns the action that would follow the current state:
// OUT while punched in, otherwise IN.
func (s PunchState) NextPunchType() PunchType {
	if s.IsPunchedIn {
		return PunchOut
	}
	return PunchIn
}

// EventRepository defines the operations for persisting punch events.
type EventRepository interface {
	Store(event *PunchEvent) error
	FindByOfficer(officerID string, from, to time.Time) ([]PunchEvent, error)
	FindAllBetween(from, to time.Time) ([]PunchEvent, error)
	LatestForOfficerBetween(officerID string, from, to time.Time) (*PunchEvent, error)
}
