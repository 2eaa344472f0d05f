package attendance

import (
	"time"

	"timeclock/backend/internal/entity"
)

// State is the clock state of a person, derived from their open session.
type State string

const (
	StateNoOpenSession State = "NO_OPEN_SESSION"
	StateOpenActive    State = "OPEN_ACTIVE"
	StateOpenPaused    State = "OPEN_PAUSED"
	StateClosed        State = "CLOSED"
)

// StateOf derives the state of a single session. A nil session means the
// person has nothing open.
func StateOf(s *entity.AttendanceSession) State {
	switch {
	case s == nil:
		return StateNoOpenSession
	case s.ClockOut != nil:
		return StateClosed
	case s.PausedAt != nil && s.ResumedAt == nil:
		return StateOpenPaused
	default:
		return StateOpenActive
	}
}

// Ack acknowledges a successful transition.
type Ack struct {
	SessionID int       `json:"session_id"`
	State     State     `json:"state"`
	At        time.Time `json:"at"`
}

// Status is the current clock state of a person.
type Status struct {
	PersonID int                       `json:"person_id"`
	State    State                     `json:"state"`
	Session  *entity.AttendanceSession `json:"session,omitempty"`
}
