package attendance

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/pkg/errors"

	"timeclock/backend/internal/auth"
	"timeclock/backend/internal/entity"
	"timeclock/backend/internal/repository/postgres"
)

// PausePolicy decides how a session that was paused and never resumed is
// counted.
type PausePolicy int

const (
	// PauseIgnoreUnresumed counts the full clock-in to clock-out span; only
	// a completed pause interval is subtracted.
	PauseIgnoreUnresumed PausePolicy = iota
	// PauseDeductToClockOut treats an unresumed pause as lasting until
	// clock-out and subtracts it.
	PauseDeductToClockOut
)

// ParsePausePolicy accepts "ignore" or "deduct".
func ParsePausePolicy(s string) (PausePolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "ignore":
		return PauseIgnoreUnresumed, nil
	case "deduct":
		return PauseDeductToClockOut, nil
	default:
		return 0, errors.Errorf("unknown pause policy %q", s)
	}
}

func (p PausePolicy) String() string {
	if p == PauseDeductToClockOut {
		return "deduct"
	}
	return "ignore"
}

// Total is the worked time of a person over their closed sessions.
type Total struct {
	PersonID       int           `json:"person_id"`
	Worked         time.Duration `json:"-"`
	Hours          float64       `json:"total_hours"`
	Seconds        int64         `json:"total_seconds"`
	ClosedSessions int           `json:"closed_sessions"`
	OpenSessions   int           `json:"open_sessions"`
}

func (t *Total) add(d time.Duration) {
	t.Worked += d
	t.ClosedSessions++
	t.Hours = t.Worked.Hours()
	t.Seconds = int64(t.Worked / time.Second)
}

// WorkedDuration returns the worked time of a closed session. Open sessions
// yield zero. Timestamps out of order are reported as ErrInvariantViolation.
func WorkedDuration(s entity.AttendanceSession, policy PausePolicy) (time.Duration, error) {
	if s.ClockOut == nil {
		return 0, nil
	}

	clockIn, clockOut := s.ClockIn, *s.ClockOut
	if clockOut.Before(clockIn) {
		return 0, errors.Wrapf(ErrInvariantViolation, "session %d: clock-out before clock-in", s.ID)
	}
	worked := clockOut.Sub(clockIn)

	if s.ResumedAt != nil && s.PausedAt == nil {
		return 0, errors.Wrapf(ErrInvariantViolation, "session %d: resumed without a pause", s.ID)
	}
	if s.PausedAt == nil {
		return worked, nil
	}

	pausedAt := *s.PausedAt
	if pausedAt.Before(clockIn) || pausedAt.After(clockOut) {
		return 0, errors.Wrapf(ErrInvariantViolation, "session %d: pause outside the session", s.ID)
	}

	switch {
	case s.ResumedAt != nil:
		resumedAt := *s.ResumedAt
		if resumedAt.Before(pausedAt) {
			return 0, errors.Wrapf(ErrInvariantViolation, "session %d: resumed before paused", s.ID)
		}
		if resumedAt.After(clockOut) {
			return 0, errors.Wrapf(ErrInvariantViolation, "session %d: resumed after clock-out", s.ID)
		}
		worked -= resumedAt.Sub(pausedAt)
	case policy == PauseDeductToClockOut:
		worked -= clockOut.Sub(pausedAt)
	}

	return worked, nil
}

// Sum aggregates the worked time of the sessions of one person.
func Sum(personID int, sessions []entity.AttendanceSession, policy PausePolicy) (Total, error) {
	total := Total{PersonID: personID}
	for _, s := range sessions {
		if s.Open() {
			total.OpenSessions++
			continue
		}
		d, err := WorkedDuration(s, policy)
		if err != nil {
			return Total{}, err
		}
		total.add(d)
	}
	return total, nil
}

// TotalWorkedTime sums the worked time of every closed session of the
// person. Only admins may call it.
func (s *Service) TotalWorkedTime(ctx context.Context, personID int, callerRole string) (Total, error) {
	sessions, err := s.history(ctx, personID, callerRole)
	if err != nil {
		return Total{}, err
	}

	total, err := Sum(personID, sessions, s.policy)
	if err != nil {
		s.log.ErrorContext(ctx, "attendance invariant violated", slog.Int("person_id", personID), slog.String("error", err.Error()))
		return Total{}, err
	}

	return total, nil
}

// Period limits a report to sessions clocked in on or between the given
// days. Nil bounds are open.
type Period struct {
	From *time.Time
	To   *time.Time
}

func (p Period) contains(t time.Time) bool {
	if p.From != nil && t.Before(dayStart(*p.From)) {
		return false
	}
	if p.To != nil && !t.Before(dayStart(*p.To).AddDate(0, 0, 1)) {
		return false
	}
	return true
}

func dayStart(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// Line is one session of a report with its worked time.
type Line struct {
	Session entity.AttendanceSession `json:"session"`
	State   State                    `json:"state"`
	Worked  time.Duration            `json:"-"`
	Hours   float64                  `json:"worked_hours"`
}

// Report lists the sessions of a person within a period and their total.
type Report struct {
	Total Total  `json:"total"`
	Lines []Line `json:"sessions"`
}

// SessionReport returns the sessions of the person clocked in within the
// period, each with its worked time. Only admins may call it.
func (s *Service) SessionReport(ctx context.Context, personID int, callerRole string, period Period) (Report, error) {
	sessions, err := s.history(ctx, personID, callerRole)
	if err != nil {
		return Report{}, err
	}

	report := Report{Total: Total{PersonID: personID}, Lines: []Line{}}
	for i := range sessions {
		session := sessions[i]
		if !period.contains(session.ClockIn) {
			continue
		}

		line := Line{Session: session, State: StateOf(&session)}
		if session.Open() {
			report.Total.OpenSessions++
		} else {
			d, err := WorkedDuration(session, s.policy)
			if err != nil {
				s.log.ErrorContext(ctx, "attendance invariant violated", slog.Int("person_id", personID), slog.String("error", err.Error()))
				return Report{}, err
			}
			line.Worked = d
			line.Hours = d.Hours()
			report.Total.add(d)
		}
		report.Lines = append(report.Lines, line)
	}

	return report, nil
}

func (s *Service) history(ctx context.Context, personID int, callerRole string) ([]entity.AttendanceSession, error) {
	if callerRole != auth.RoleAdmin {
		return nil, ErrAccessDenied
	}

	if _, err := s.people.GetPerson(ctx, personID); err != nil {
		if errors.Is(err, postgres.ErrNotFound) {
			return nil, errors.Wrapf(ErrPersonNotFound, "person %d", personID)
		}
		return nil, errors.Wrap(err, "loading person")
	}

	sessions, err := s.store.ListSessions(ctx, personID)
	if err != nil {
		return nil, errors.Wrap(err, "listing sessions")
	}

	return sessions, nil
}
