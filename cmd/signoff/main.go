package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/redis/go-redis/v9"

	app "github.com/signoff-io/signoff"
	"github.com/signoff-io/signoff/internal/archive"
	"github.com/signoff-io/signoff/internal/config"
	"github.com/signoff-io/signoff/internal/events"
	"github.com/signoff-io/signoff/internal/notify"
	"github.com/signoff-io/signoff/internal/payment"
	"github.com/signoff-io/signoff/internal/server"
	"github.com/signoff-io/signoff/internal/store"
	"github.com/signoff-io/signoff/internal/workflow"
	"github.com/signoff-io/signoff/pkg/log"
)

type signoff struct {
	cfg        *config.Config
	redis      *redis.Client
	checkps    *store.RedisStore
	hub        *events.RedisHub
	archiver   *archive.BlobArchiver
	workflows  *workflow.Service
	apiServer  *server.Server
	httpServer *http.Server
	quit       chan os.Signal
}

var ErrOpenArchive = errors.New("failed to open archive bucket")

var logLevels = map[string]slog.Level{
	"debug": slog.LevelDebug,
	"info":  slog.LevelInfo,
	"warn":  slog.LevelWarn,
	"error": slog.LevelError,
}

func main() {
	cfg := config.NewDefaultConfig()
	if err := cfg.LoadFromEnv(); err != nil {
		slog.Error("Invalid configuration", log.Error(err))
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		slog.Error("Invalid configuration", log.Error(err))
		os.Exit(1)
	}

	s := &signoff{
		cfg:  cfg,
		quit: make(chan os.Signal, 1),
	}
	s.setupLogging()

	if err := s.run(); err != nil {
		slog.Error("Failed to start application", log.Error(err))
		os.Exit(1)
	}
}

func (s *signoff) run() error {
	if err := s.initializeServices(); err != nil {
		return err
	}
	s.startServer()

	signal.Notify(s.quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(s.quit)
	<-s.quit

	s.shutdown()
	return nil
}

func (s *signoff) setupLogging() {
	level, ok := logLevels[s.cfg.LogLevel]
	if !ok {
		level = slog.LevelInfo
	}

	env := os.Getenv("ENV")
	logger := log.NewWithLevel(app.Name, env, app.Version, level)
	slog.SetDefault(logger)
	slog.SetLogLoggerLevel(level)

	slog.Info("Signoff starting",
		slog.String("log_level", s.cfg.LogLevel),
		slog.String("redis_addr", s.cfg.Redis.Addr),
		slog.Int("redis_db", s.cfg.Redis.DB),
		slog.String("api_host", s.cfg.APIHost),
		slog.Int("api_port", s.cfg.APIPort),
		slog.String("callback_base_url", s.cfg.CallbackBaseURL))
}

func (s *signoff) initializeServices() error {
	s.redis = redis.NewClient(&redis.Options{
		Addr:     s.cfg.Redis.Addr,
		Password: s.cfg.Redis.Password,
		DB:       s.cfg.Redis.DB,
	})

	s.checkps = store.NewRedisStore(s.redis, s.cfg.Redis.Prefix)
	s.hub = events.NewRedisHub(s.redis, s.cfg.Redis.Prefix)

	var notifier notify.Notifier
	if s.cfg.SMTP.Host != "" {
		notifier = notify.NewMailNotifier(
			s.cfg.SMTP.Host, s.cfg.SMTP.Port, s.cfg.SMTP.From,
			s.cfg.CallbackBaseURL,
		)
	} else {
		slog.Warn("No SMTP host configured, using log notifier")
		notifier = notify.NewLogNotifier(s.cfg.CallbackBaseURL)
	}

	var payments payment.Executor
	if s.cfg.PaymentEndpoint != "" {
		payments = payment.NewHTTPExecutor(
			s.cfg.PaymentEndpoint, s.cfg.PaymentTimeout,
		)
	} else {
		slog.Warn("No payment endpoint configured, using log executor")
		payments = payment.NewLogExecutor()
	}

	deps := workflow.Dependencies{
		Store:    s.checkps,
		Notifier: notifier,
		Payments: payments,
		Events:   s.hub,
	}

	if s.cfg.ArchiveBucketURL != "" {
		arch, err := archive.NewBlobArchiver(
			context.Background(),
			s.cfg.ArchiveBucketURL, s.cfg.ArchivePrefix,
		)
		if err != nil {
			return fmt.Errorf("%w: %w", ErrOpenArchive, err)
		}
		s.archiver = arch
		deps.Archiver = arch
	}

	s.workflows = workflow.NewService(deps)
	return nil
}

func (s *signoff) startServer() {
	s.apiServer = server.NewServer(s.workflows, s.checkps, s.hub)
	mux := s.apiServer.SetupRoutes()

	s.httpServer = &http.Server{
		Addr:    fmt.Sprintf("%s:%d", s.cfg.APIHost, s.cfg.APIPort),
		Handler: mux,
	}

	go func() {
		slog.Info("HTTP server starting",
			slog.String("addr", s.httpServer.Addr))
		err := s.httpServer.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("HTTP server error", log.Error(err))
		}
	}()
}

func (s *signoff) shutdown() {
	slog.Info("Shutting down")

	ctx, cancel := context.WithTimeout(
		context.Background(), s.cfg.ShutdownTimeout,
	)
	defer cancel()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		slog.Error("Shutdown failed", log.Error(err))
	}

	if s.archiver != nil {
		if err := s.archiver.Close(); err != nil {
			slog.Error("Archive close failed", log.Error(err))
		}
	}

	if err := s.redis.Close(); err != nil {
		slog.Error("Redis close failed", log.Error(err))
	}

	slog.Info("Server exited")
}
