package main

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	migrate "github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/propstack/propstack_backend/internal/core/services"
	"github.com/propstack/propstack_backend/internal/handlers"
	"github.com/propstack/propstack_backend/internal/middleware"
	"github.com/propstack/propstack_backend/internal/platform/config"
	"github.com/propstack/propstack_backend/internal/repositories/database/pgsql"
	"github.com/propstack/propstack_backend/internal/scheduler"
	"github.com/propstack/propstack_backend/pkg/database"
)

func main() {
	// Initialize structured logger
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Error("Failed to load config", slog.String("error", err.Error()))
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Operational store: ledgers, queues, external entity views.
	operationalPool, err := database.NewPgxPool(ctx, cfg.DatabaseURL, "operational")
	if err != nil {
		logger.Error("Failed to initialize operational database pool", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer database.ClosePgxPool(operationalPool, "operational")

	// Accounting store: shadow mirrors and commission revenue.
	accountingPool, err := database.NewPgxPool(ctx, cfg.AccountingDatabaseURL, "accounting")
	if err != nil {
		logger.Error("Failed to initialize accounting database pool", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer database.ClosePgxPool(accountingPool, "accounting")

	if err := runMigrations(logger, cfg.DatabaseURL, "file://migrations/core"); err != nil {
		os.Exit(1)
	}
	if err := runMigrations(logger, cfg.AccountingDatabaseURL, "file://migrations/accounting"); err != nil {
		os.Exit(1)
	}

	repos := pgsql.NewRepositoryProvider(operationalPool, accountingPool)
	notifyFeed := pgsql.NewNotifyChangeFeed(operationalPool, logger.With(slog.String("component", "changefeed")))
	pollFeed := pgsql.NewPollChangeFeed(operationalPool, cfg.SyncPaymentPollInterval, cfg.SyncEntityPollInterval, logger.With(slog.String("component", "changefeed")))

	container := services.NewServiceContainer(cfg, repos, notifyFeed, pollFeed, logger)

	// Background machinery: change feed, event pump, job worker, schedules.
	if err := container.Sync.Start(ctx); err != nil {
		logger.Error("Failed to start change synchronizer", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer container.Sync.Stop()

	container.LedgerEvent.Start(ctx)
	defer container.LedgerEvent.Stop()

	container.Maintenance.Start(ctx)
	defer container.Maintenance.Stop()

	sched := scheduler.NewScheduler(cfg, container, logger.With(slog.String("component", "scheduler")))
	sched.Start(ctx)
	defer sched.Stop()

	if cfg.IsProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(middleware.StructuredLoggingMiddleware(logger), gin.Recovery())
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"X-Request-ID"},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}))

	if err := r.SetTrustedProxies(nil); err != nil {
		logger.Error("Failed to set trusted proxies", slog.String("error", err.Error()))
		os.Exit(1)
	}

	handlers.RegisterRoutes(r, cfg, container, sched)

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: r,
	}

	go func() {
		logger.Info("Server starting", slog.String("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Server failed to run", slog.String("error", err.Error()))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("Shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server shutdown failed", slog.String("error", err.Error()))
	}
	logger.Info("Server stopped")
}

// runMigrations applies all pending up migrations from the given source path
// against the database at databaseURL.
func runMigrations(logger *slog.Logger, databaseURL, sourcePath string) error {
	logger.Info("Running database migrations", slog.String("source", sourcePath))

	migrationDB, err := sql.Open("pgx", databaseURL)
	if err != nil {
		logger.Error("Failed to open database connection for migrations", slog.String("error", err.Error()))
		return err
	}
	defer func() {
		if cerr := migrationDB.Close(); cerr != nil {
			logger.Error("Error closing migration DB connection", slog.String("error", cerr.Error()))
		}
	}()

	driver, err := postgres.WithInstance(migrationDB, &postgres.Config{})
	if err != nil {
		logger.Error("Could not create postgres driver instance for migrations", slog.String("error", err.Error()))
		return err
	}

	m, err := migrate.NewWithDatabaseInstance(sourcePath, "postgres", driver)
	if err != nil {
		logger.Error("Could not create migrate instance", slog.String("error", err.Error()))
		return err
	}

	upErr := m.Up()
	if upErr != nil && upErr != migrate.ErrNoChange {
		logger.Error("Failed to apply migrations", slog.String("error", upErr.Error()))
		return upErr
	}

	sourceErr, dbErr := m.Close()
	if sourceErr != nil {
		logger.Error("Migration source error", slog.String("error", sourceErr.Error()))
		return sourceErr
	}
	if dbErr != nil {
		logger.Error("Migration database error", slog.String("error", dbErr.Error()))
		return dbErr
	}

	if upErr == migrate.ErrNoChange {
		logger.Info("No new migrations to apply", slog.String("source", sourcePath))
	} else {
		logger.Info("Database migrations applied successfully", slog.String("source", sourcePath))
	}
	return nil
}
