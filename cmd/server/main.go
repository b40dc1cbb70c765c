package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"geocms/internal/api"
	"geocms/internal/config"
	"geocms/internal/database"
	"geocms/internal/domain"
	"geocms/internal/events"
	"geocms/internal/export"
	"geocms/internal/google"
	"geocms/internal/logging"
	"geocms/internal/metrics"
	"geocms/internal/models"
	"geocms/internal/notify"
	"geocms/internal/repository"
	"geocms/internal/service"
	"geocms/internal/worker"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("Fatal error: %v", err)
	}
}

func run() error {
	cfg, logger, closer, err := loadConfigAndLogger()
	if err != nil {
		return err
	}
	if closer != nil {
		defer (func(c io.Closer) { _ = c.Close() })(closer)
	}

	if err := prepareDirectories(cfg, logger); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := initDatabase(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer db.Close()

	users := service.NewUserService(db, logger)
	if err := users.Bootstrap(ctx, cfg.Users); err != nil {
		logger.Error().Err(err).Msg("user bootstrap failed")
		return err
	}

	redisClient := initRedis(ctx, cfg, logger)
	sessionStore := sessionRepository(redisClient, cfg, logger)
	sessions := service.NewSessionService(sessionStore, logger)

	sheetsService := initGoogleSheets(ctx, cfg, logger)

	// Sheets sync stays off unless credentials are configured; the
	// services skip enqueueing when no worker is wired.
	var syncWorker domain.SyncWorker
	if sheetsService != nil {
		retryPolicy := worker.RetryPolicy{MaxRetries: 5, InitialDelay: 2 * time.Second, MaxDelay: time.Minute, BackoffFactor: 2}
		sheetsWorker := worker.NewSheetsWorker(db, sheetsService, redisClient, retryPolicy, nil)
		go sheetsWorker.Start(ctx)
		syncWorker = sheetsWorker
	}

	eventBus := events.NewEventBus()
	initTelegramNotifier(cfg, eventBus, logger)

	exporter := export.NewExporter(cfg.Exports.Path, logger)

	deps := api.Deps{
		Sessions:     sessions,
		Users:        users,
		Borrows:      service.NewBorrowService(db, eventBus, syncWorker, cfg.Portal.MaxBorrowDays, logger),
		Reservations: service.NewReservationService(db, eventBus, syncWorker, cfg.Portal.MaxReservationDays, logger),
		Issues:       service.NewIssueService(db, eventBus, logger),
		Repo:         db,
		SessionStore: sessionStore,
		Exporter:     exporter,
	}

	httpServer := api.NewHTTPServer(cfg.HTTP, deps, logger)

	if cfg.Backup.Enabled {
		backupService := database.NewBackupService(cfg.Database.Path, cfg.Backup, logger)
		go backupService.Start(ctx)
	}

	startMetrics(ctx, cfg, logger)

	go func() {
		if err := httpServer.Start(); err != nil {
			logger.Error().Err(err).Msg("http server stopped")
		}
	}()

	logger.Info().Int("http_port", cfg.HTTP.Port).Msg("portal started")

	<-ctx.Done()
	logger.Info().Msg("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = httpServer.Shutdown(shutdownCtx)

	logger.Info().Msg("portal stopped")
	return nil
}

func loadConfigAndLogger() (*config.Config, *zerolog.Logger, io.Closer, error) {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "configs/config.yaml"
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, nil, err
	}

	baseLogger, closer, err := logging.New(cfg.Logging, cfg.App)
	if err != nil {
		return nil, nil, nil, err
	}
	logger := baseLogger.With().Str("component", "server").Logger()

	return cfg, &logger, closer, nil
}

func prepareDirectories(cfg *config.Config, logger *zerolog.Logger) error {
	if err := os.MkdirAll(filepath.Dir(cfg.Database.Path), 0o755); err != nil {
		logger.Error().Err(err).Msg("unable to create database directory")
		return err
	}
	if err := os.MkdirAll(cfg.Exports.Path, 0o755); err != nil {
		logger.Error().Err(err).Msg("unable to create exports directory")
		return err
	}
	return nil
}

func initDatabase(ctx context.Context, cfg *config.Config, logger *zerolog.Logger) (*database.DB, error) {
	db, err := database.NewDB(cfg.Database.Path, logger)
	if err != nil {
		logger.Error().Err(err).Msg("database init failed")
		return nil, err
	}

	if err := db.SeedItems(ctx, cfg.Items); err != nil {
		logger.Error().Err(err).Msg("item seeding failed")
	}
	if err := db.SeedLabs(ctx, cfg.Labs); err != nil {
		logger.Error().Err(err).Msg("lab seeding failed")
	}
	return db, nil
}

func initRedis(ctx context.Context, cfg *config.Config, logger *zerolog.Logger) *redis.Client {
	if cfg.Redis.Address == "" {
		return nil
	}

	redisClient := repository.NewRedisClient(cfg.Redis)
	if err := repository.Ping(ctx, redisClient); err != nil {
		logger.Warn().Err(err).Msg("redis unavailable, falling back to memory sessions")
	} else {
		logger.Info().Str("addr", cfg.Redis.Address).Msg("redis connected")
	}
	return redisClient
}

func sessionRepository(redisClient *redis.Client, cfg *config.Config, logger *zerolog.Logger) domain.SessionRepository {
	ttl := time.Duration(cfg.Session.TTLSeconds) * time.Second
	if ttl <= 0 {
		ttl = time.Duration(models.DefaultSessionTTL) * time.Second
	}

	fallback := repository.NewMemorySessionRepository(ttl)
	if redisClient == nil {
		return fallback
	}
	primary := repository.NewRedisSessionRepository(redisClient, ttl)
	return repository.NewFailoverSessionRepository(primary, fallback, logger)
}

func initGoogleSheets(ctx context.Context, cfg *config.Config, logger *zerolog.Logger) *google.SheetsService {
	if cfg.Google.GoogleCredentialsFile == "" ||
		cfg.Google.TimetableSpreadsheetID == "" ||
		cfg.Google.LedgerSpreadsheetID == "" {
		return nil
	}

	sheetsService, err := google.NewSheetsService(
		cfg.Google.GoogleCredentialsFile,
		cfg.Google.TimetableSpreadsheetID,
		cfg.Google.LedgerSpreadsheetID,
	)
	if err != nil {
		logger.Warn().Err(err).Msg("google sheets init failed, continuing without sheets")
		return nil
	}

	if err := sheetsService.TestConnection(ctx); err != nil {
		logger.Warn().Err(err).Msg("google sheets connection test failed, continuing without sheets")
		return nil
	}

	logger.Info().Msg("google sheets connected")
	return sheetsService
}

func initTelegramNotifier(cfg *config.Config, bus *events.EventBus, logger *zerolog.Logger) {
	if !cfg.Telegram.Enabled || cfg.Telegram.BotToken == "" || len(cfg.Telegram.StaffChats) == 0 {
		return
	}

	botAPI, err := tgbotapi.NewBotAPI(cfg.Telegram.BotToken)
	if err != nil {
		logger.Warn().Err(err).Msg("telegram init failed, continuing without notifications")
		return
	}
	botAPI.Debug = cfg.Telegram.Debug

	notifier := notify.NewTelegramNotifier(botAPI, cfg.Telegram.StaffChats, logger)
	notifier.SubscribeAll(bus)
	logger.Info().Int("staff_chats", len(cfg.Telegram.StaffChats)).Msg("telegram notifications enabled")
}

func startMetrics(ctx context.Context, cfg *config.Config, logger *zerolog.Logger) {
	if !cfg.Monitoring.PrometheusEnabled {
		return
	}

	metrics.Register()
	port := cfg.Monitoring.PrometheusPort
	if port == 0 {
		port = 9090
	}
	go startMetricsServer(ctx, port, logger)
}

func startMetricsServer(ctx context.Context, port int, logger *zerolog.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{Addr: fmt.Sprintf(":%d", port), Handler: mux}
	go func() {
		<-ctx.Done()
		ctxShutdown, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctxShutdown)
	}()
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error().Err(err).Msg("metrics server error")
	}
}
