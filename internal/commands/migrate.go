package commands

import (
	"context"
	"database/sql"
	"log/slog"

	"github.com/pkg/errors"

	"timeclock/backend/internal/pkg/repository/postgresql"
)

type Scheme struct {
	Index       int
	Description string
	Query       string
}

var scheme = []Scheme{
	{
		Index:       1,
		Description: "CREATE TYPE \"user_role\" AS ENUM",
		Query: `
        DO $$ BEGIN
            CREATE TYPE "user_role" AS ENUM ('EMPLOYEE', 'ADMIN');
        EXCEPTION
            WHEN duplicate_object THEN NULL;
        END $$;`,
	},
	{
		Index:       2,
		Description: "Create table: users.",
		Query: `
        CREATE TABLE IF NOT EXISTS users (
            id serial primary key,
            employee_id text not null unique,
            password text not null,
            role user_role not null default 'EMPLOYEE',
            full_name text,
            latitude double precision,
            longitude double precision,
            created_at timestamptz not null default now(),
            updated_at timestamptz,
            CHECK ((latitude IS NULL) = (longitude IS NULL))
        );`,
	},
	{
		Index:       3,
		Description: "Create admin with employee_id: Admin01, password: 1",
		Query: `
        INSERT INTO users(employee_id, role, password, full_name)
        SELECT 'Admin01', 'ADMIN', '$2a$10$NKtnMwDPFSQLG6uOi4Zqheru5Ygbj9TWFHjpl478rRSaO5cJ9QuH2', 'Administrator'
        WHERE NOT EXISTS (SELECT employee_id FROM users WHERE employee_id = 'Admin01');
        `,
	},
	{
		Index:       4,
		Description: "Create table: attendance_session.",
		Query: `
        CREATE TABLE IF NOT EXISTS attendance_session (
            id serial primary key,
            user_id int not null references users(id),
            clock_in timestamptz not null,
            clock_out timestamptz,
            paused_at timestamptz,
            resumed_at timestamptz,
            clock_in_latitude double precision,
            clock_in_longitude double precision,
            clock_out_latitude double precision,
            clock_out_longitude double precision,
            created_at timestamptz not null default now(),
            updated_at timestamptz,
            CHECK (resumed_at IS NULL OR paused_at IS NOT NULL)
        );`,
	},
	{
		Index:       5,
		Description: "At most one open session per user.",
		Query: `
        CREATE UNIQUE INDEX IF NOT EXISTS attendance_session_one_open
            ON attendance_session (user_id) WHERE clock_out IS NULL;`,
	},
	{
		Index:       6,
		Description: "Index attendance_session by user.",
		Query: `
        CREATE INDEX IF NOT EXISTS attendance_session_user_clock_in
            ON attendance_session (user_id, clock_in);`,
	},
}

// MigrateUP applies every scheme step above the recorded version. A step that
// fails marks the version dirty; the next run retries it first.
func MigrateUP(ctx context.Context, db *postgresql.Database, log *slog.Logger) error {
	if _, err := db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS schema_migrations (version int not null, dirty bool not null, error text)`); err != nil {
		return errors.Wrap(err, "creating schema_migrations")
	}

	var (
		version int
		dirty   bool
		er      sql.NullString
	)
	err := db.QueryRowContext(ctx, "SELECT version, dirty, error FROM schema_migrations").Scan(&version, &dirty, &er)
	if errors.Is(err, sql.ErrNoRows) {
		if _, err = db.ExecContext(ctx, `INSERT INTO schema_migrations (version, dirty) VALUES (0, false)`); err != nil {
			return errors.Wrap(err, "initialising schema_migrations")
		}
		version, dirty = 0, false
	} else if err != nil {
		return errors.Wrap(err, "reading schema_migrations")
	}

	if dirty {
		log.Warn("retrying dirty migration", slog.Int("version", version), slog.String("error", er.String))
		for _, s := range scheme {
			if s.Index != version {
				continue
			}
			if err := apply(ctx, db, s); err != nil {
				return err
			}
		}
		if _, err := db.ExecContext(ctx, `UPDATE schema_migrations SET dirty = false, error = null`); err != nil {
			return errors.Wrap(err, "clearing dirty flag")
		}
	}

	for _, s := range scheme {
		if s.Index <= version {
			continue
		}
		if err := apply(ctx, db, s); err != nil {
			return err
		}
		if _, err := db.ExecContext(ctx, `UPDATE schema_migrations SET version = ?`, s.Index); err != nil {
			return errors.Wrapf(err, "recording version %d", s.Index)
		}
		log.Info("migrated", slog.Int("version", s.Index), slog.String("step", s.Description))
	}

	return nil
}

func apply(ctx context.Context, db *postgresql.Database, s Scheme) error {
	if _, err := db.ExecContext(ctx, s.Query); err != nil {
		if _, uerr := db.ExecContext(ctx, `UPDATE schema_migrations SET error = ?, version = ?, dirty = true`, err.Error(), s.Index); uerr != nil {
			return errors.Wrapf(uerr, "marking version %d dirty", s.Index)
		}
		return errors.Wrapf(err, "migrate version %d (%s)", s.Index, s.Description)
	}
	return nil
}
