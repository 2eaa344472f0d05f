package postgresql

import (
	"context"
	"database/sql"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/pkg/errors"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/uptrace/bun/extra/bundebug"

	"timeclock/backend/foundation/web"
	"timeclock/backend/internal/auth"
)

// Config is the connection configuration of the database.
type Config struct {
	User         string
	Password     string
	Host         string
	Port         string
	Name         string
	DisableTLS   bool
	Debug        bool
	DialTimeout  time.Duration
	MaxOpenConns int
}

// Database embeds *bun.DB and carries the helpers every repository uses.
type Database struct {
	*bun.DB
}

// NewDatabase opens a connection pool and verifies it with a ping.
func NewDatabase(ctx context.Context, cfg Config, log *slog.Logger) (*Database, error) {
	if cfg.DialTimeout <= 0 {
		cfg.DialTimeout = 5 * time.Second
	}

	connector := pgdriver.NewConnector(
		pgdriver.WithAddr(net.JoinHostPort(cfg.Host, cfg.Port)),
		pgdriver.WithUser(cfg.User),
		pgdriver.WithPassword(cfg.Password),
		pgdriver.WithDatabase(cfg.Name),
		pgdriver.WithInsecure(cfg.DisableTLS),
		pgdriver.WithDialTimeout(cfg.DialTimeout),
	)

	sqldb := sql.OpenDB(connector)
	if cfg.MaxOpenConns > 0 {
		sqldb.SetMaxOpenConns(cfg.MaxOpenConns)
	}

	db := bun.NewDB(sqldb, pgdialect.New())
	if cfg.Debug {
		db.AddQueryHook(bundebug.NewQueryHook(bundebug.WithVerbose(true)))
	}

	pingCtx, cancel := context.WithTimeout(ctx, cfg.DialTimeout)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, errors.Wrap(err, "pinging database")
	}

	if log != nil {
		log.Info("database connected", slog.String("host", cfg.Host), slog.String("db", cfg.Name))
	}

	return &Database{DB: db}, nil
}

// CheckClaims returns the caller's claims and, when roles are given, rejects
// callers holding none of them.
func (d Database) CheckClaims(ctx context.Context, roles ...string) (auth.Claims, error) {
	claims, ok := auth.FromContext(ctx)
	if !ok {
		return auth.Claims{}, web.NewCodedError(errors.New("claims missing from context"), http.StatusUnauthorized, "unauthorized")
	}

	if len(roles) > 0 && !claims.Authorized(roles...) {
		return auth.Claims{}, web.NewCodedError(errors.New("attempted action is not allowed"), http.StatusForbidden, "access_denied")
	}

	return claims, nil
}

// ValidateStruct checks that the named fields of the request are set.
func (d Database) ValidateStruct(s interface{}, fields ...string) error {
	return web.ValidateRequired(s, fields...)
}

// IsUniqueViolation reports whether err is a PostgreSQL unique_violation.
func IsUniqueViolation(err error) bool {
	var pgErr pgdriver.Error
	if errors.As(err, &pgErr) {
		return pgErr.Field('C') == "23505"
	}
	return false
}
