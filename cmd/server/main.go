package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/golang-migrate/migrate/v4"
	postgresdb "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	tele "gopkg.in/telebot.v3"

	"norgeskole/internal/bot"
	"norgeskole/internal/config"
	"norgeskole/internal/events"
	"norgeskole/internal/handler"
	"norgeskole/internal/identity"
	"norgeskole/internal/mailer"
	"norgeskole/internal/metrics"
	"norgeskole/internal/repository/postgres"
	"norgeskole/internal/service"
)

const shutdownTimeout = 15 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger, err := newLogger(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("Starting Norgeskole", zap.String("env", cfg.Env), zap.String("addr", cfg.HTTPAddr))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := connectDatabase(ctx, cfg.DSN(), logger)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	logger.Info("Database connection established")

	if err := runMigrations(db, cfg.MigrationsPath, logger); err != nil {
		logger.Fatal("Failed to run migrations", zap.Error(err))
	}

	identityRepo := postgres.NewIdentityRepo(db)
	sessionRepo := postgres.NewSessionRepo(db)
	profileRepo := postgres.NewProfileRepo(db)
	classroomRepo := postgres.NewClassroomRepo(db)
	inviteRepo := postgres.NewInviteRepo(db)
	wordRepo := postgres.NewDailyWordRepo(db)
	linkRepo := postgres.NewTelegramLinkRepo(db)

	bus, err := newBus(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("Failed to set up event bus", zap.Error(err))
	}

	m := metrics.New()

	mail, err := mailer.NewSESMailer(ctx, cfg.Email.Region, cfg.Email.FromEmail, cfg.Email.FromName, logger)
	if err != nil {
		logger.Fatal("Failed to set up mailer", zap.Error(err))
	}

	identitySvc := identity.NewService(identityRepo, sessionRepo, bus, cfg.JWTSecret, cfg.JWTIssuer, cfg.SessionTTL, logger)
	profileSvc := service.NewProfileService(profileRepo, logger)
	wordSvc := service.NewDailyWordService(wordRepo, logger)
	maintenanceSvc := service.NewMaintenanceService(identitySvc, cfg.OrphanGrace, logger)

	h := handler.NewHandler(handler.Services{
		Identity:    identitySvc,
		Access:      service.NewAccessService(identitySvc, profileRepo, bus, m, logger),
		Invitations: service.NewInvitationService(inviteRepo, identitySvc, m, logger),
		Profiles:    profileSvc,
		Classrooms:  service.NewClassroomService(classroomRepo, logger),
		Invites:     service.NewInviteAdminService(inviteRepo, classroomRepo, mail, cfg.AppBaseURL, logger),
		DailyWords:  wordSvc,
		Stats:       service.NewStatsService(wordRepo, profileRepo, classroomRepo, inviteRepo, logger),
	}, m, logger, !cfg.IsDev())

	go maintenanceSvc.Run(ctx, cfg.CleanupInterval)

	if cfg.TelegramBot != "" {
		b, err := tele.NewBot(tele.Settings{
			Token:  cfg.TelegramBot,
			Poller: &tele.LongPoller{Timeout: 10 * time.Second},
		})
		if err != nil {
			logger.Fatal("Failed to create bot", zap.Error(err))
		}
		bot.NewHandler(b, identitySvc, profileSvc, wordSvc, linkRepo, logger).RegisterHandlers()

		go func() {
			logger.Info("Telegram bot started")
			b.Start()
		}()
		defer b.Stop()
	} else {
		logger.Info("Telegram bot disabled: TELEGRAM_BOT_TOKEN not configured")
	}

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           h.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("HTTP server listening", zap.String("addr", cfg.HTTPAddr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		logger.Info("Shutdown signal received, stopping server...")
	case err := <-errCh:
		logger.Error("HTTP server failed", zap.Error(err))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Failed to shut down server", zap.Error(err))
	}

	logger.Info("Server stopped gracefully")
}

func newLogger(cfg *config.Config) (*zap.Logger, error) {
	if cfg.IsDev() {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

// newBus returns a Redis-backed bus when REDIS_URL is set so sign-outs reach every instance
func newBus(ctx context.Context, cfg *config.Config, logger *zap.Logger) (events.Bus, error) {
	local := events.NewMemoryBus(16, logger)
	if cfg.RedisURL == "" {
		logger.Info("Using in-process event bus")
		return local, nil
	}

	opts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("ping redis: %w", err)
	}

	bus := events.NewRedisBus(client, local, logger)
	go func() {
		if err := bus.Run(ctx); err != nil {
			logger.Error("Identity event listener failed", zap.Error(err))
		}
	}()
	return bus, nil
}

// connectDatabase connects to PostgreSQL with retries
func connectDatabase(ctx context.Context, dsn string, logger *zap.Logger) (*sql.DB, error) {
	var db *sql.DB
	var err error

	maxRetries := 30
	retryDelay := 2 * time.Second

	for i := 0; i < maxRetries; i++ {
		db, err = sql.Open("postgres", dsn)
		if err != nil {
			logger.Warn("Failed to open database connection", zap.Int("attempt", i+1), zap.Error(err))
		} else if err = db.PingContext(ctx); err != nil {
			logger.Warn("Failed to ping database", zap.Int("attempt", i+1), zap.Error(err))
			db.Close()
		} else {
			db.SetMaxOpenConns(25)
			db.SetMaxIdleConns(5)
			db.SetConnMaxLifetime(5 * time.Minute)
			return db, nil
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(retryDelay):
		}
	}

	return nil, fmt.Errorf("failed to connect to database after %d attempts: %w", maxRetries, err)
}

func runMigrations(db *sql.DB, source string, logger *zap.Logger) error {
	driver, err := postgresdb.WithInstance(db, &postgresdb.Config{})
	if err != nil {
		return fmt.Errorf("failed to create migration driver: %w", err)
	}

	m, err := migrate.NewWithDatabaseInstance(source, "postgres", driver)
	if err != nil {
		return fmt.Errorf("failed to create migration instance: %w", err)
	}

	err = m.Up()
	switch {
	case errors.Is(err, migrate.ErrNoChange):
		logger.Info("No new migrations to apply")
	case err != nil:
		return fmt.Errorf("failed to run migrations: %w", err)
	default:
		logger.Info("Migrations applied successfully")
	}
	return nil
}
