package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ardanlabs/conf"
	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"

	"timeclock/backend/foundation/web"
	"timeclock/backend/internal/auth"
	"timeclock/backend/internal/commands"
	"timeclock/backend/internal/pkg/config"
	"timeclock/backend/internal/pkg/logging"
	"timeclock/backend/internal/pkg/repository/postgresql"
	"timeclock/backend/internal/router"
	"timeclock/backend/internal/service/attendance"
	"timeclock/backend/internal/service/geofence"
)

func main() {
	if err := run(); err != nil {
		if errors.Is(err, conf.ErrHelpWanted) {
			os.Exit(0)
		}
		slog.Error("startup", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func run() error {
	var cfg struct {
		Web struct {
			Host            string        `conf:"default:0.0.0.0:8080"`
			ReadTimeout     time.Duration `conf:"default:5s"`
			WriteTimeout    time.Duration `conf:"default:10s"`
			IdleTimeout     time.Duration `conf:"default:120s"`
			ShutdownTimeout time.Duration `conf:"default:10s"`
		}
		ConfigFile string `conf:"default:config.yaml"`
		LogLevel   string `conf:"default:info"`
		Migrate    bool   `conf:"default:true"`
		Geofence   struct {
			Radius        float64       `conf:"default:100"`
			OracleTimeout time.Duration `conf:"default:5s"`
		}
		Attendance struct {
			PausePolicy string        `conf:"default:ignore"`
			LockTTL     time.Duration `conf:"default:10s"`
		}
		Auth struct {
			TokenTTL time.Duration `conf:"default:24h"`
		}
	}

	if err := conf.Parse(os.Args[1:], "ATTENDANCE", &cfg); err != nil {
		if errors.Is(err, conf.ErrHelpWanted) {
			usage, err := conf.Usage("ATTENDANCE", &cfg)
			if err != nil {
				return errors.Wrap(err, "generating config usage")
			}
			fmt.Println(usage)
			return conf.ErrHelpWanted
		}
		return errors.Wrap(err, "parsing config")
	}

	log := logging.Setup(cfg.LogLevel)

	out, err := conf.String(&cfg)
	if err != nil {
		return errors.Wrap(err, "generating config for output")
	}
	log.Info("startup", slog.String("config", out))

	// =========================================================================
	// Settings file

	settings, err := config.NewConfig(cfg.ConfigFile)
	if err != nil {
		return errors.Wrap(err, "loading settings")
	}

	policy, err := attendance.ParsePausePolicy(cfg.Attendance.PausePolicy)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// =========================================================================
	// Database

	db, err := postgresql.NewDatabase(ctx, postgresql.Config{
		User:       settings.DBUsername,
		Password:   settings.DBPassword,
		Host:       settings.DBHost,
		Port:       settings.DBPort,
		Name:       settings.DBName,
		DisableTLS: settings.DisableTLS,
		Debug:      settings.DBDebug,
	}, log)
	if err != nil {
		return errors.Wrap(err, "connecting to db")
	}
	defer db.Close()

	if cfg.Migrate {
		if err := commands.MigrateUP(ctx, db, log); err != nil {
			return errors.Wrap(err, "migrating")
		}
	}

	var redisClient *redis.Client
	if settings.RedisAddr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     settings.RedisAddr,
			Password: settings.RedisPassword,
			DB:       settings.RedisDB,
		})
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		err := redisClient.Ping(pingCtx).Err()
		cancel()
		if err != nil {
			return errors.Wrap(err, "pinging redis")
		}
		defer redisClient.Close()
	}

	// =========================================================================
	// Geofence

	var oracle geofence.Oracle = geofence.Haversine{}
	if settings.DistanceOracle == config.OracleGoogle {
		oracle, err = geofence.NewDistanceMatrix(settings.GoogleAPIKey, "")
		if err != nil {
			return errors.Wrap(err, "constructing distance oracle")
		}
	}
	gate, err := geofence.NewGate(oracle, cfg.Geofence.Radius, cfg.Geofence.OracleTimeout)
	if err != nil {
		return err
	}
	log.Info("geofence", slog.String("oracle", settings.DistanceOracle), slog.Float64("radius", gate.Threshold()))

	// =========================================================================
	// API

	authenticator, err := auth.New(settings.JWTKey, cfg.Auth.TokenTTL)
	if err != nil {
		return errors.Wrap(err, "constructing auth")
	}

	app := web.NewApp(log)
	r := router.NewRouter(app, db, redisClient, authenticator, router.Options{
		Gate:           gate,
		PausePolicy:    policy,
		LockTTL:        cfg.Attendance.LockTTL,
		AllowedOrigins: settings.AllowedOrigins,
		Log:            log,
	})
	if err := r.Init(); err != nil {
		return err
	}

	api := http.Server{
		Addr:         cfg.Web.Host,
		Handler:      r,
		ReadTimeout:  cfg.Web.ReadTimeout,
		WriteTimeout: cfg.Web.WriteTimeout,
		IdleTimeout:  cfg.Web.IdleTimeout,
	}

	serverErrors := make(chan error, 1)
	go func() {
		log.Info("api listening", slog.String("addr", api.Addr))
		serverErrors <- api.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return errors.Wrap(err, "server error")

	case <-ctx.Done():
		log.Info("shutdown started")
		defer log.Info("shutdown complete")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Web.ShutdownTimeout)
		defer cancel()

		if err := api.Shutdown(shutdownCtx); err != nil {
			_ = api.Close()
			return errors.Wrap(err, "could not stop server gracefully")
		}
	}

	return nil
}
