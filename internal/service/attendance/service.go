// Package attendance implements the clock-in/pause/resume/clock-out state
// machine and the worked time aggregator.
package attendance

import (
	"context"
	"log/slog"
	"time"

	"github.com/pkg/errors"

	"timeclock/backend/internal/entity"
	"timeclock/backend/internal/repository/postgres"
	"timeclock/backend/internal/service/geofence"
)

// Store persists sessions. Implementations return postgres.ErrAlreadyExists
// when a second open session would be created and postgres.ErrNotUpdated
// when an update matched no open session.
type Store interface {
	FindOpenSessions(ctx context.Context, personID int) ([]entity.AttendanceSession, error)
	CreateSession(ctx context.Context, personID int, clockIn time.Time, at entity.Point) (entity.AttendanceSession, error)
	UpdateSession(ctx context.Context, sessionID int, update entity.SessionUpdate) (entity.AttendanceSession, error)
	ListSessions(ctx context.Context, personID int) ([]entity.AttendanceSession, error)
}

// People resolves a person and their reference location. It returns
// postgres.ErrNotFound for unknown ids.
type People interface {
	GetPerson(ctx context.Context, personID int) (entity.User, error)
}

// Gate decides whether a candidate point is close enough to a reference.
type Gate interface {
	CheckWithinRadius(ctx context.Context, reference, candidate entity.Point) (geofence.Decision, error)
}

// Locker serializes transitions of the same person.
type Locker interface {
	Lock(ctx context.Context, personID int) (unlock func(), err error)
}

type Service struct {
	store  Store
	people People
	gate   Gate
	locker Locker
	policy PausePolicy
	now    func() time.Time
	log    *slog.Logger
}

type Option func(*Service)

// WithClock replaces the wall clock.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func WithLogger(log *slog.Logger) Option {
	return func(s *Service) { s.log = log }
}

// WithPausePolicy selects how a pause without a resume is counted.
func WithPausePolicy(p PausePolicy) Option {
	return func(s *Service) { s.policy = p }
}

func NewService(store Store, people People, gate Gate, locker Locker, opts ...Option) *Service {
	s := &Service{
		store:  store,
		people: people,
		gate:   gate,
		locker: locker,
		policy: PauseIgnoreUnresumed,
		now:    time.Now,
		log:    slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ClockIn opens a new session for the person if they are within the
// geofence and have nothing open.
func (s *Service) ClockIn(ctx context.Context, personID int, at entity.Point) (Ack, error) {
	if err := s.checkLocation(ctx, personID, at); err != nil {
		return Ack{}, err
	}

	unlock, err := s.locker.Lock(ctx, personID)
	if err != nil {
		return Ack{}, errors.Wrap(err, "locking person")
	}
	defer unlock()

	open, err := s.openSession(ctx, personID)
	if err != nil {
		return Ack{}, err
	}
	if open != nil {
		return Ack{}, errors.Wrapf(ErrAlreadyOpen, "session %d", open.ID)
	}

	now := s.clock()
	session, err := s.store.CreateSession(ctx, personID, now, at)
	if errors.Is(err, postgres.ErrAlreadyExists) {
		return Ack{}, ErrAlreadyOpen
	}
	if err != nil {
		return Ack{}, errors.Wrap(err, "creating session")
	}

	s.log.InfoContext(ctx, "clocked in", slog.Int("person_id", personID), slog.Int("session_id", session.ID))

	return Ack{SessionID: session.ID, State: StateOpenActive, At: now}, nil
}

// Pause starts the pause interval of the open session. A session keeps a
// single pause interval, so pausing again after a resume is rejected.
func (s *Service) Pause(ctx context.Context, personID int) (Ack, error) {
	unlock, err := s.locker.Lock(ctx, personID)
	if err != nil {
		return Ack{}, errors.Wrap(err, "locking person")
	}
	defer unlock()

	open, err := s.openSession(ctx, personID)
	if err != nil {
		return Ack{}, err
	}
	switch {
	case open == nil:
		return Ack{}, ErrNoActiveSession
	case StateOf(open) == StateOpenPaused:
		return Ack{}, errors.Wrap(ErrNoActiveSession, "session is already paused")
	case open.PausedAt != nil:
		return Ack{}, errors.Wrap(ErrNoActiveSession, "session already used its pause")
	}

	now, err := s.stamp(ctx, open, open.ClockIn)
	if err != nil {
		return Ack{}, err
	}

	updated, err := s.store.UpdateSession(ctx, open.ID, entity.SessionUpdate{PausedAt: &now})
	if errors.Is(err, postgres.ErrNotUpdated) {
		return Ack{}, ErrNoActiveSession
	}
	if err != nil {
		return Ack{}, errors.Wrap(err, "pausing session")
	}

	s.log.InfoContext(ctx, "paused", slog.Int("person_id", personID), slog.Int("session_id", updated.ID))

	return Ack{SessionID: updated.ID, State: StateOpenPaused, At: now}, nil
}

// Resume closes the pause interval of the open session.
func (s *Service) Resume(ctx context.Context, personID int) (Ack, error) {
	unlock, err := s.locker.Lock(ctx, personID)
	if err != nil {
		return Ack{}, errors.Wrap(err, "locking person")
	}
	defer unlock()

	open, err := s.openSession(ctx, personID)
	if err != nil {
		return Ack{}, err
	}
	if StateOf(open) != StateOpenPaused {
		return Ack{}, ErrNoPausedSession
	}

	now, err := s.stamp(ctx, open, *open.PausedAt)
	if err != nil {
		return Ack{}, err
	}

	updated, err := s.store.UpdateSession(ctx, open.ID, entity.SessionUpdate{ResumedAt: &now})
	if errors.Is(err, postgres.ErrNotUpdated) {
		return Ack{}, ErrNoPausedSession
	}
	if err != nil {
		return Ack{}, errors.Wrap(err, "resuming session")
	}

	s.log.InfoContext(ctx, "resumed", slog.Int("person_id", personID), slog.Int("session_id", updated.ID))

	return Ack{SessionID: updated.ID, State: StateOpenActive, At: now}, nil
}

// ClockOut closes the open session, paused or not, if the person is within
// the geofence.
func (s *Service) ClockOut(ctx context.Context, personID int, at entity.Point) (Ack, error) {
	if err := s.checkLocation(ctx, personID, at); err != nil {
		return Ack{}, err
	}

	unlock, err := s.locker.Lock(ctx, personID)
	if err != nil {
		return Ack{}, errors.Wrap(err, "locking person")
	}
	defer unlock()

	open, err := s.openSession(ctx, personID)
	if err != nil {
		return Ack{}, err
	}
	if open == nil {
		return Ack{}, ErrNoActiveSession
	}

	last := open.ClockIn
	for _, t := range []*time.Time{open.PausedAt, open.ResumedAt} {
		if t != nil && t.After(last) {
			last = *t
		}
	}
	now, err := s.stamp(ctx, open, last)
	if err != nil {
		return Ack{}, err
	}

	updated, err := s.store.UpdateSession(ctx, open.ID, entity.SessionUpdate{ClockOut: &now, ClockOutPoint: &at})
	if errors.Is(err, postgres.ErrNotUpdated) {
		return Ack{}, ErrNoActiveSession
	}
	if err != nil {
		return Ack{}, errors.Wrap(err, "clocking out")
	}

	s.log.InfoContext(ctx, "clocked out", slog.Int("person_id", personID), slog.Int("session_id", updated.ID))

	return Ack{SessionID: updated.ID, State: StateClosed, At: now}, nil
}

// Status reports the derived clock state of the person.
func (s *Service) Status(ctx context.Context, personID int) (Status, error) {
	open, err := s.openSession(ctx, personID)
	if err != nil {
		return Status{}, err
	}

	return Status{PersonID: personID, State: StateOf(open), Session: open}, nil
}

// checkLocation runs the geofence against the person's reference location.
// It performs no writes.
func (s *Service) checkLocation(ctx context.Context, personID int, at entity.Point) error {
	person, err := s.people.GetPerson(ctx, personID)
	if errors.Is(err, postgres.ErrNotFound) {
		return errors.Wrapf(ErrPersonNotFound, "person %d", personID)
	}
	if err != nil {
		return errors.Wrap(err, "loading person")
	}

	reference, ok := person.Location()
	if !ok {
		return errors.Wrapf(ErrLocationUnavailable, "person %d has no registered location", personID)
	}
	if !reference.Valid() {
		s.log.ErrorContext(ctx, "stored location is corrupt",
			slog.Int("person_id", personID),
			slog.Float64("latitude", reference.Latitude),
			slog.Float64("longitude", reference.Longitude),
		)
		return errors.Wrapf(ErrLocationUnavailable, "person %d has an invalid registered location", personID)
	}

	decision, err := s.gate.CheckWithinRadius(ctx, reference, at)
	if err != nil {
		if errors.Is(err, ErrInvalidPoint) || errors.Is(err, ErrLocationUnavailable) {
			s.log.WarnContext(ctx, "geofence check failed", slog.Int("person_id", personID), slog.String("error", err.Error()))
			return err
		}
		return errors.Wrap(ErrLocationUnavailable, err.Error())
	}

	if !decision.Accepted {
		s.log.DebugContext(ctx, "outside geofence",
			slog.Int("person_id", personID),
			slog.Float64("distance", decision.Distance),
			slog.Float64("threshold", decision.Threshold),
		)
		return &OutOfAreaError{Distance: decision.Distance, Threshold: decision.Threshold}
	}

	return nil
}

// openSession returns the single open session of the person, or nil.
func (s *Service) openSession(ctx context.Context, personID int) (*entity.AttendanceSession, error) {
	open, err := s.store.FindOpenSessions(ctx, personID)
	if err != nil {
		return nil, errors.Wrap(err, "finding open session")
	}

	switch len(open) {
	case 0:
		return nil, nil
	case 1:
		return &open[0], nil
	default:
		return nil, s.invariant(ctx, personID, "person has %d open sessions", len(open))
	}
}

// stamp returns the current time, refusing to write a timestamp earlier than
// the previous one of the session.
func (s *Service) stamp(ctx context.Context, session *entity.AttendanceSession, after time.Time) (time.Time, error) {
	now := s.clock()
	if now.Before(after) {
		return time.Time{}, s.invariant(ctx, session.UserID, "session %d: clock at %s is before %s",
			session.ID, now.Format(time.RFC3339Nano), after.Format(time.RFC3339Nano))
	}
	return now, nil
}

func (s *Service) clock() time.Time {
	return s.now().UTC().Truncate(time.Microsecond)
}

func (s *Service) invariant(ctx context.Context, personID int, format string, args ...interface{}) error {
	err := errors.Wrapf(ErrInvariantViolation, format, args...)
	s.log.ErrorContext(ctx, "attendance invariant violated", slog.Int("person_id", personID), slog.String("error", err.Error()))
	return err
}
