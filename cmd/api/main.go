package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"geo-alert/internal/api"
	"geo-alert/internal/config"
	"geo-alert/internal/logger"
	"geo-alert/internal/metrics"
	"geo-alert/internal/modules/alerts"
	"geo-alert/internal/modules/monitor"
	"geo-alert/internal/modules/status"
	"geo-alert/pkg/email"
	"geo-alert/pkg/utils"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

func main() {
	// 1. --- Configuration ---
	cfg, err := config.LoadConfig(".")
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	logger := logger.New(logger.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 2. --- Check history ---
	// Without DATABASE_URL the history only lives in memory.
	var repo monitor.RepositoryInterface
	if cfg.DatabaseURL != "" {
		dbPool, err := connectDB(ctx, cfg.DatabaseURL)
		if err != nil {
			log.Fatalf("Unable to connect to database: %v", err)
		}
		defer dbPool.Close()
		repo = monitor.NewRepository(dbPool)
		logger.Info("storing zone checks in PostgreSQL")
	} else {
		repo = monitor.NewMemoryRepository(500)
		logger.Info("DATABASE_URL not set, keeping zone checks in memory")
	}

	// 3. --- Alert transport ---
	var sender email.ServiceInterface
	if cfg.AlertDryRun {
		sender = email.NewLogSender(logger)
	} else {
		sender, err = email.NewSESV2Sender(ctx, cfg.AWSRegion, cfg.AlertSender, logger)
		if err != nil {
			log.Fatalf("Unable to create SES sender: %v", err)
		}
	}
	templates, err := email.NewTemplateManager()
	if err != nil {
		log.Fatalf("Unable to parse email templates: %v", err)
	}

	// 4. --- Dependency Injection (Wiring everything up) ---
	rec := metrics.New()
	dispatcher := alerts.NewDispatcher(alerts.Config{
		Recipient:     cfg.AlertRecipient,
		RatePerSecond: cfg.AlertRatePerSecond,
		Burst:         len(cfg.WorkerIDs()),
	}, sender, templates, rec, logger)

	scheduler := monitor.NewScheduler(
		monitor.Config{
			WorkerIDs:    cfg.WorkerIDs(),
			PollInterval: cfg.PollInterval,
			Concurrency:  cfg.FetchConcurrency,
		},
		status.NewClient(cfg.StatusBaseURL, cfg.FetchTimeout),
		status.NewInterpreter(status.LocationPolicy(cfg.LocationPolicy)),
		dispatcher,
		repo,
		monitor.RealClock(),
		rec,
		logger,
	)

	// 5. --- HTTP server ---
	e := echo.New()
	e.HideBanner = true
	e.Validator = utils.GetValidator()
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	api.SetupRoutes(e, monitor.NewHandler(scheduler), rec.Handler(), cfg.JWTSecret, logger)

	go func() {
		if err := e.Start(":" + cfg.ServerPort); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server stopped", "error", err)
			stop()
		}
	}()

	// 6. --- Poll loop, runs until SIGINT/SIGTERM ---
	_ = scheduler.Run(ctx)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
	}
	logger.Info("monitor exiting")
}

func connectDB(ctx context.Context, url string) (*pgxpool.Pool, error) {
	dbConfig, err := pgxpool.ParseConfig(url)
	if err != nil {
		return nil, err
	}
	dbPool, err := pgxpool.NewWithConfig(ctx, dbConfig)
	if err != nil {
		return nil, err
	}
	if err := dbPool.Ping(ctx); err != nil {
		dbPool.Close()
		return nil, err
	}
	if err := monitor.EnsureSchema(ctx, dbPool); err != nil {
		dbPool.Close()
		return nil, err
	}
	slog.Info("successfully connected to the database")
	return dbPool, nil
}
