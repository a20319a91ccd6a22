package main

import (
	"context"
	"crypto/tls"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/extra/redisotel/v9"
	"github.com/redis/go-redis/v9"

	"github.com/KasumiMercury/primind-wellness-reminder/internal/activity"
	"github.com/KasumiMercury/primind-wellness-reminder/internal/config"
	"github.com/KasumiMercury/primind-wellness-reminder/internal/domain"
	"github.com/KasumiMercury/primind-wellness-reminder/internal/errlog"
	"github.com/KasumiMercury/primind-wellness-reminder/internal/handler"
	"github.com/KasumiMercury/primind-wellness-reminder/internal/health"
	"github.com/KasumiMercury/primind-wellness-reminder/internal/infra/eventrecorder"
	"github.com/KasumiMercury/primind-wellness-reminder/internal/infra/notifier"
	"github.com/KasumiMercury/primind-wellness-reminder/internal/infra/repository"
	"github.com/KasumiMercury/primind-wellness-reminder/internal/observability/metrics"
	"github.com/KasumiMercury/primind-wellness-reminder/internal/observability/middleware"
	"github.com/KasumiMercury/primind-wellness-reminder/internal/reminder"
	"github.com/KasumiMercury/primind-wellness-reminder/internal/state"
)

// Version is set via ldflags at build time
var Version = "dev"

func main() {
	os.Exit(run())
}

func run() int {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	obs, err := initObservability(ctx)
	if err != nil {
		slog.Error("failed to initialize observability", slog.String("error", err.Error()))
		return 1
	}
	defer func() {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		if err := obs.Shutdown(shutdownCtx); err != nil {
			slog.Warn("observability shutdown error", slog.String("error", err.Error()))
		}
	}()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", slog.String("error", err.Error()))
		return 1
	}

	if err := config.ValidateForRun(cfg); err != nil {
		slog.Error("configuration validation error", slog.String("error", err.Error()))
		return 1
	}

	httpMetrics, err := metrics.NewHTTPMetrics()
	if err != nil {
		slog.Error("failed to initialize HTTP metrics", slog.String("error", err.Error()))
		return 1
	}

	engineMetrics, err := metrics.NewEngineMetrics()
	if err != nil {
		slog.Error("failed to initialize engine metrics", slog.String("error", err.Error()))
		return 1
	}

	errHandler := errlog.NewHandler(0)

	// Reminder event recorder (InfluxDB for local, BigQuery for gcloud)
	recorderCfg := eventrecorder.LoadConfig()
	recorder, err := eventrecorder.NewRecorder(ctx, recorderCfg)
	if err != nil {
		slog.Error("failed to initialize reminder event recorder", slog.String("error", err.Error()))
		return 1
	}
	defer func() {
		if err := recorder.Close(); err != nil {
			slog.Warn("failed to close reminder event recorder", slog.String("error", err.Error()))
		}
	}()

	// Notification collaborator (webhook for local, Cloud Tasks for gcloud)
	notify, notifyCleanup, err := notifier.NewFromConfig(ctx, cfg.Notifier)
	if err != nil {
		slog.Error("failed to initialize notifier", slog.String("error", err.Error()))
		return 1
	}
	defer func() {
		if err := notifyCleanup(); err != nil {
			slog.Warn("failed to close notifier", slog.String("error", err.Error()))
		}
	}()

	// State store: Redis when reachable, in-memory fallback otherwise. The
	// engine runs either way; only durability differs.
	stateRepo, redisClient := initStateRepository(ctx, cfg)
	if redisClient != nil {
		defer func() {
			if err := redisClient.Close(); err != nil {
				slog.Warn("failed to close redis client", slog.String("error", err.Error()))
			}
		}()
	}

	stateManager := state.NewManager(stateRepo, errHandler, engineMetrics,
		time.Duration(cfg.Reminder.DebounceWriteMs)*time.Millisecond)
	stateManager.Initialize(ctx)

	detector := activity.NewDetector(
		time.Duration(cfg.Activity.AwayThresholdMinutes*float64(time.Minute)),
		time.Duration(cfg.Activity.PollIntervalMs)*time.Millisecond,
		errHandler,
		engineMetrics,
	)

	engine := reminder.NewEngine(stateManager, detector, notify, recorder, errHandler, engineMetrics,
		time.Duration(cfg.Reminder.TickIntervalMs)*time.Millisecond)
	engine.Start(ctx)
	defer func() {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		if err := engine.Shutdown(shutdownCtx); err != nil {
			slog.Warn("engine shutdown flush failed", slog.String("error", err.Error()))
		}
	}()

	reminderHandler := handler.NewReminderHandler(engine, stateManager)
	stateHandler := handler.NewStateHandler(stateManager)
	activityHandler := handler.NewActivityHandler(engine, detector)
	errorsHandler := handler.NewErrorsHandler(errHandler)

	r := gin.New()
	r.Use(middleware.RequestLogging(httpMetrics, "/health", "/health/live", "/health/ready"))
	r.Use(middleware.PanicRecovery(errHandler))

	healthChecker := health.NewChecker(stateRepo, Version)
	r.GET("/health/live", healthChecker.LiveHandler())
	r.GET("/health/ready", healthChecker.ReadyHandler())
	r.GET("/health", healthChecker.ReadyHandler())

	v1 := r.Group("/api/v1")
	{
		reminders := v1.Group("/reminders")
		{
			reminders.GET("/status", reminderHandler.HandleStatus)
			reminders.POST("/:kind/start", reminderHandler.HandleStart)
			reminders.POST("/:kind/pause", reminderHandler.HandlePause)
			reminders.POST("/:kind/resume", reminderHandler.HandleResume)
			reminders.POST("/:kind/stop", reminderHandler.HandleStop)
			reminders.POST("/:kind/snooze", reminderHandler.HandleSnooze)
			reminders.POST("/:kind/acknowledge", reminderHandler.HandleAcknowledge)
			reminders.POST("/:kind/restart", reminderHandler.HandleRestart)
			reminders.PUT("/:kind/settings", reminderHandler.HandleSettings)
		}

		stateGroup := v1.Group("/state")
		{
			stateGroup.GET("/app", stateHandler.HandleGetAppState)
			stateGroup.PATCH("/app", stateHandler.HandleUpdateAppState)
			stateGroup.GET("/:kind", stateHandler.HandleGetReminderState)
			stateGroup.POST("/reset", stateHandler.HandleReset)
		}

		activityGroup := v1.Group("/activity")
		{
			activityGroup.GET("", activityHandler.HandleGet)
			activityGroup.POST("/ping", activityHandler.HandlePing)
			activityGroup.POST("/visibility", activityHandler.HandleVisibility)
		}

		v1.GET("/errors/stats", errorsHandler.HandleStats)
	}

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: r,
	}

	serverErr := make(chan error, 1)
	go func() {
		slog.Info("starting server",
			slog.String("port", cfg.Port),
			slog.Int("tick_interval_ms", cfg.Reminder.TickIntervalMs),
			slog.Int("debounce_write_ms", cfg.Reminder.DebounceWriteMs),
			slog.Float64("away_threshold_minutes", cfg.Activity.AwayThresholdMinutes),
		)
		serverErr <- srv.ListenAndServe()
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-quit:
		slog.Info("shutdown signal received", slog.String("signal", sig.String()))
		cancel()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Error("failed to shutdown server", slog.String("error", err.Error()))
			return 1
		}

		slog.Info("server exited properly")
		return 0

	case err := <-serverErr:
		if errors.Is(err, http.ErrServerClosed) {
			return 0
		}
		slog.Error("server exited with error", slog.String("error", err.Error()))
		return 1
	}
}

// initStateRepository connects to Redis with otel instrumentation and
// returns the Redis-backed repository, falling back to the in-memory one
// when the connection cannot be established.
func initStateRepository(ctx context.Context, cfg *config.Config) (domain.StateRepository, *redis.Client) {
	opts := &redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	}
	if cfg.Redis.TLS {
		opts.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	}
	redisClient := redis.NewClient(opts)

	if err := redisotel.InstrumentTracing(redisClient); err != nil {
		slog.Warn("failed to instrument redis tracing", slog.String("error", err.Error()))
	}
	if err := redisotel.InstrumentMetrics(redisClient); err != nil {
		slog.Warn("failed to instrument redis metrics", slog.String("error", err.Error()))
	}

	pingCtx, pingCancel := context.WithTimeout(ctx, 3*time.Second)
	defer pingCancel()
	if err := redisClient.Ping(pingCtx).Err(); err != nil {
		slog.Warn("redis unreachable, state persistence degraded to memory",
			slog.String("addr", cfg.Redis.Addr),
			slog.String("error", err.Error()),
		)
		_ = redisClient.Close()
		return repository.NewMemoryRepository(), nil
	}

	slog.Info("redis connected", slog.String("addr", cfg.Redis.Addr))
	return repository.NewStateRepository(redisClient), redisClient
}
