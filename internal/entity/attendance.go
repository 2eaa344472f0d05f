package entity

import (
	"time"

	"github.com/uptrace/bun"
)

// AttendanceSession is one clock-in to clock-out record of a person. A nil
// ClockOut means the session is still open.
type AttendanceSession struct {
	bun.BaseModel `bun:"table:attendance_session"`

	BasicEntity
	UserID            int        `json:"user_id"                       bun:"user_id,notnull"`
	ClockIn           time.Time  `json:"clock_in"                      bun:"clock_in,notnull"`
	ClockOut          *time.Time `json:"clock_out,omitempty"           bun:"clock_out"`
	PausedAt          *time.Time `json:"paused_at,omitempty"           bun:"paused_at"`
	ResumedAt         *time.Time `json:"resumed_at,omitempty"          bun:"resumed_at"`
	ClockInLatitude   *float64   `json:"clock_in_latitude,omitempty"   bun:"clock_in_latitude"`
	ClockInLongitude  *float64   `json:"clock_in_longitude,omitempty"  bun:"clock_in_longitude"`
	ClockOutLatitude  *float64   `json:"clock_out_latitude,omitempty"  bun:"clock_out_latitude"`
	ClockOutLongitude *float64   `json:"clock_out_longitude,omitempty" bun:"clock_out_longitude"`
}

// Open reports whether the session has no clock-out yet.
func (s AttendanceSession) Open() bool {
	return s.ClockOut == nil
}

// SessionUpdate lists the fields a transition sets on an open session. Nil
// fields are left untouched.
type SessionUpdate struct {
	PausedAt      *time.Time
	ResumedAt     *time.Time
	ClockOut      *time.Time
	ClockOutPoint *Point
}
