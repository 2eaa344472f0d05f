package router

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"

	"timeclock/backend/foundation/web"
	"timeclock/backend/internal/auth"
	"timeclock/backend/internal/middleware"
	"timeclock/backend/internal/pkg/keylock"
	"timeclock/backend/internal/pkg/repository/postgresql"
	"timeclock/backend/internal/pkg/repository/redislock"
	"timeclock/backend/internal/repository/postgres/attendance"
	"timeclock/backend/internal/repository/postgres/user"
	attendance_service "timeclock/backend/internal/service/attendance"
	"timeclock/backend/internal/service/geofence"

	attendance_controller "timeclock/backend/internal/controller/http/v1/attendance"
	auth_controller "timeclock/backend/internal/controller/http/v1/auth"
	user_controller "timeclock/backend/internal/controller/http/v1/user"
)

// Options configures the attendance service the router wires up.
type Options struct {
	Gate           *geofence.Gate
	PausePolicy    attendance_service.PausePolicy
	LockTTL        time.Duration
	AllowedOrigins []string
	Log            *slog.Logger
}

type Router struct {
	*web.App
	postgresDB *postgresql.Database
	redisDB    *redis.Client
	auth       *auth.Auth
	opts       Options
}

// NewRouter returns a router. redisDB may be nil, in which case transitions
// are serialized in process only.
func NewRouter(
	app *web.App,
	postgresDB *postgresql.Database,
	redisDB *redis.Client,
	auth *auth.Auth,
	opts Options,
) *Router {
	if opts.Log == nil {
		opts.Log = slog.Default()
	}
	return &Router{
		app,
		postgresDB,
		redisDB,
		auth,
		opts,
	}
}

// Init registers every route.
func (r Router) Init() error {
	if r.opts.Gate == nil {
		return errors.New("router: geofence gate is required")
	}

	r.HandleMethodNotAllowed = true
	r.Use(middleware.CorsMiddleware(r.opts.AllowedOrigins))
	r.Use(middleware.RequestLogger(r.opts.Log))

	// - postgresql
	userPostgres := user.NewRepository(r.postgresDB)
	attendancePostgres := attendance.NewRepository(r.postgresDB)

	// service
	var locker attendance_service.Locker = keylock.New()
	if r.redisDB != nil {
		locker = redislock.New(r.redisDB, "attendance:lock", r.opts.LockTTL, r.opts.Log)
	}
	attendanceService := attendance_service.NewService(
		attendancePostgres,
		userPostgres,
		r.opts.Gate,
		locker,
		attendance_service.WithLogger(r.opts.Log),
		attendance_service.WithPausePolicy(r.opts.PausePolicy),
	)

	// controller
	userController := user_controller.NewController(userPostgres)
	authController := auth_controller.NewController(userPostgres, r.auth)
	attendanceController := attendance_controller.NewController(attendanceService, userPostgres)

	r.Get("/health", func(c *web.Context) error {
		return c.Respond(map[string]interface{}{"status": true}, http.StatusOK)
	})

	// #auth
	r.Post("/api/v1/sign-in", authController.SignIn)

	// #user
	r.Post("/api/v1/user/create", userController.CreateUser, middleware.Authenticate(r.auth, auth.RoleAdmin))
	r.Put("/api/v1/user/set-location/:id", userController.SetLocation, middleware.Authenticate(r.auth, auth.RoleAdmin))

	// #attendance
	r.Post("/api/v1/attendance/clock-in", attendanceController.ClockIn, middleware.Authenticate(r.auth))
	r.Post("/api/v1/attendance/pause", attendanceController.Pause, middleware.Authenticate(r.auth))
	r.Post("/api/v1/attendance/resume", attendanceController.Resume, middleware.Authenticate(r.auth))
	r.Post("/api/v1/attendance/clock-out", attendanceController.ClockOut, middleware.Authenticate(r.auth))
	r.Get("/api/v1/attendance/status", attendanceController.Status, middleware.Authenticate(r.auth))
	r.Get("/api/v1/attendance/total-time/:id", attendanceController.TotalTime, middleware.Authenticate(r.auth, auth.RoleAdmin))
	r.Get("/api/v1/attendance/history/:id", attendanceController.History, middleware.Authenticate(r.auth, auth.RoleAdmin))
	r.Get("/api/v1/attendance/export/:id", attendanceController.Export, middleware.Authenticate(r.auth, auth.RoleAdmin))

	return nil
}
