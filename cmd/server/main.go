package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"urldash/internal/config"
	"urldash/internal/handlers"
	"urldash/internal/repository"
	"urldash/internal/services"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

const shutdownTimeout = 5 * time.Second

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := Run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newLogger(cfg config.Config) *slog.Logger {
	if cfg.AppEnv == "production" {
		return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

// openDatabase connects and brings the schema up to date: SQL migrations on
// postgres, model-derived tables on sqlite.
func openDatabase(cfg config.Config, logger *slog.Logger) (*gorm.DB, error) {
	db, err := repository.InitDB(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	if strings.HasPrefix(cfg.DatabaseURL, "postgres") {
		logger.Info("Running database migrations")
		err = repository.RunMigrations(cfg.DatabaseURL, "")
	} else {
		err = repository.AutoMigrate(db)
	}
	if err != nil {
		return nil, fmt.Errorf("migration failed: %w", err)
	}
	return db, nil
}

func Run(ctx context.Context) error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logger := newLogger(cfg)
	slog.SetDefault(logger)

	db, err := openDatabase(cfg, logger)
	if err != nil {
		return err
	}

	// Login throttling is skipped without redis.
	rdb, err := repository.InitRedis(cfg.RedisURL, cfg.RedisPassword, 0)
	if err != nil {
		logger.Warn("Failed to connect to Redis, login throttling disabled", "error", err)
	} else {
		defer rdb.Close()
	}

	repos := repository.NewRepositories(repository.NewGormStore(db))

	geoIP := services.NewGeoIPService(cfg, logger)
	geoIP.Init()
	defer geoIP.Close()

	audit := services.NewAuditService(repos.AuditLogs, geoIP, logger)
	lockout := time.Duration(cfg.LoginLockoutMinutes) * time.Minute
	auth := services.NewAuthService(repos.Users, services.NewLoginThrottle(rdb, cfg.LoginMaxAttempts, lockout, logger), audit, logger)
	users := services.NewUserService(repos.Users, repos.Servers, audit, logger)
	limiter := services.NewIPRateLimiter(5, 10, logger)

	var oidc handlers.OIDCProvider
	if cfg.OIDCEnabled() {
		oidc = services.NewOIDCClient(cfg)
	}

	if cfg.AppEnv == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	h := handlers.NewHandler(cfg, logger, repos, auth, users, audit, services.NewQRService(), oidc)
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           h.SetupRouter(limiter),
		ReadHeaderTimeout: 10 * time.Second,
	}

	workerCtx, stopWorkers := context.WithCancel(context.Background())
	defer stopWorkers()

	auditDone := make(chan struct{})
	go func() {
		defer close(auditDone)
		audit.Start(workerCtx)
	}()
	go limiter.StartCleanup(workerCtx, 10*time.Minute, 30*time.Minute)

	serveErr := serve(ctx, srv, logger)

	// The audit worker flushes queued entries once its context is cancelled.
	stopWorkers()
	select {
	case <-auditDone:
	case <-time.After(shutdownTimeout):
		logger.Warn("Audit worker did not drain in time")
	}

	logger.Info("Server exiting")
	return serveErr
}

// serve runs srv until ctx is cancelled or the listener fails, then shuts it
// down gracefully.
func serve(ctx context.Context, srv *http.Server, logger *slog.Logger) error {
	listenErr := make(chan error, 1)
	go func() {
		logger.Info("Starting server", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			listenErr <- err
		}
	}()

	var result error
	select {
	case err := <-listenErr:
		result = fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
		logger.Info("Shutting down server")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", "error", err)
	}
	return result
}
