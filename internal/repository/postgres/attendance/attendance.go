package attendance

import (
	"context"
	"database/sql"
	"time"

	"github.com/pkg/errors"
	"github.com/uptrace/bun"

	"timeclock/backend/internal/entity"
	"timeclock/backend/internal/pkg/repository/postgresql"
	"timeclock/backend/internal/repository/postgres"
)

type Repository struct {
	*postgresql.Database
}

func NewRepository(database *postgresql.Database) *Repository {
	return &Repository{Database: database}
}

// FindOpenSessions returns the open sessions of the person. More than one
// row means the one-open-session rule was broken; two rows are enough to
// tell.
func (r Repository) FindOpenSessions(ctx context.Context, personID int) ([]entity.AttendanceSession, error) {
	var list []entity.AttendanceSession

	err := r.NewSelect().
		Model(&list).
		Where("user_id = ? AND clock_out IS NULL", personID).
		OrderExpr("id ASC").
		Limit(2).
		Scan(ctx)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, errors.Wrap(err, "selecting open sessions")
	}

	return list, nil
}

func (r Repository) CreateSession(ctx context.Context, personID int, clockIn time.Time, at entity.Point) (entity.AttendanceSession, error) {
	lat, lng := at.Latitude, at.Longitude
	session := entity.AttendanceSession{
		UserID:           personID,
		ClockIn:          clockIn,
		ClockInLatitude:  &lat,
		ClockInLongitude: &lng,
	}

	_, err := r.NewInsert().Model(&session).Returning("*").Exec(ctx)
	if postgresql.IsUniqueViolation(err) {
		return entity.AttendanceSession{}, errors.Wrapf(postgres.ErrAlreadyExists, "open session of person %d", personID)
	}
	if err != nil {
		return entity.AttendanceSession{}, errors.Wrap(err, "creating session")
	}

	return session, nil
}

var errEmptyUpdate = errors.New("empty session update")

// UpdateSession applies a transition to an open session. The WHERE clause
// repeats the state the transition expects, so a concurrent writer that got
// there first leaves nothing to match and ErrNotUpdated is returned.
func (r Repository) UpdateSession(ctx context.Context, sessionID int, u entity.SessionUpdate) (entity.AttendanceSession, error) {
	var session entity.AttendanceSession

	q, err := updateQuery(r.DB, &session, sessionID, u, time.Now().UTC())
	if err != nil {
		return entity.AttendanceSession{}, err
	}

	res, err := q.Exec(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return entity.AttendanceSession{}, errors.Wrapf(postgres.ErrNotUpdated, "session %d", sessionID)
	}
	if err != nil {
		return entity.AttendanceSession{}, errors.Wrap(err, "updating session")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return entity.AttendanceSession{}, errors.Wrapf(postgres.ErrNotUpdated, "session %d", sessionID)
	}

	return session, nil
}

// updateQuery builds the guarded UPDATE for u, returning the row into session.
func updateQuery(db bun.IDB, session *entity.AttendanceSession, sessionID int, u entity.SessionUpdate, now time.Time) (*bun.UpdateQuery, error) {
	if u.PausedAt == nil && u.ResumedAt == nil && u.ClockOut == nil {
		return nil, errEmptyUpdate
	}

	q := db.NewUpdate().
		Model(session).
		Where("id = ? AND clock_out IS NULL", sessionID)

	switch {
	case u.PausedAt != nil:
		q.Set("paused_at = ?", *u.PausedAt).Where("paused_at IS NULL")
	case u.ResumedAt != nil:
		q.Set("resumed_at = ?", *u.ResumedAt).Where("paused_at IS NOT NULL AND resumed_at IS NULL")
	}

	if u.ClockOut != nil {
		q.Set("clock_out = ?", *u.ClockOut)
		if u.ClockOutPoint != nil {
			q.Set("clock_out_latitude = ?", u.ClockOutPoint.Latitude)
			q.Set("clock_out_longitude = ?", u.ClockOutPoint.Longitude)
		}
	}

	return q.Set("updated_at = ?", now).Returning("*"), nil
}

func (r Repository) ListSessions(ctx context.Context, personID int) ([]entity.AttendanceSession, error) {
	var list []entity.AttendanceSession

	err := r.NewSelect().
		Model(&list).
		Where("user_id = ?", personID).
		OrderExpr("clock_in ASC, id ASC").
		Scan(ctx)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, errors.Wrap(err, "selecting sessions")
	}

	return list, nil
}
