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
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/yourorg/greenthumb/internal/app"
	"github.com/yourorg/greenthumb/internal/featureflags"
	"github.com/yourorg/greenthumb/internal/handler"
	"github.com/yourorg/greenthumb/internal/infrastructure/logger"
	"github.com/yourorg/greenthumb/internal/infrastructure/mail"
	"github.com/yourorg/greenthumb/internal/observability/metrics"
	"github.com/yourorg/greenthumb/internal/observability/tracing"
	"github.com/yourorg/greenthumb/internal/security/audit"
	"github.com/yourorg/greenthumb/internal/security/middleware"
	"github.com/yourorg/greenthumb/internal/security/ratelimit"
	"github.com/yourorg/greenthumb/internal/worker"
	"github.com/yourorg/greenthumb/pkg/config"
)

func main() {
	// 1. Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	// 2. Initialize structured logger
	log := logger.NewLogger(cfg.LogLevel)
	log.Info("starting GreenThumb server",
		slog.String("environment", cfg.Environment),
		slog.String("storage", cfg.StorageBackend),
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 3. Tracing
	shutdownTracing, err := tracing.Init(ctx, log, "greenthumb", cfg.Environment)
	if err != nil {
		log.Error("failed to initialize tracing", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// 4. Storage: postgres or memory, with optional redis
	storage, err := app.OpenStorage(ctx, cfg, true, log)
	if err != nil {
		log.Error("failed to open storage", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer storage.Close()

	// 5. Services
	services, err := app.NewServices(cfg, storage, log)
	if err != nil {
		log.Error("failed to build services", slog.String("error", err.Error()))
		os.Exit(1)
	}

	rateLimiter := ratelimit.NewLimiter(cfg.RateLimitPerMinute, time.Minute)

	// 6. Handlers and routes
	var redisPinger handler.Pinger
	if storage.Redis != nil {
		redisPinger = storage.Redis
	}
	mux := http.NewServeMux()
	handler.RegisterRoutes(mux, handler.Handlers{
		Health:    handler.NewHealthHandler(handler.PingFunc(storage.Ping), redisPinger, log),
		Auth:      handler.NewAuthHandler(services.Auth, cfg.CookieSecure, log),
		Plants:    handler.NewPlantHandler(services.Plants, services.Schedules, log),
		Schedules: handler.NewScheduleHandler(services.Schedules, log),
		Tips:      handler.NewTipHandler(services.Tips, log),
		Forum:     handler.NewForumHandler(services.Forum, log),
		Layouts:   handler.NewLayoutHandler(services.Layouts, log),

		CredentialLimit: middleware.StrictRateLimit(rateLimiter, cfg.AuthRateLimitPerMinute, time.Minute, log),
	})
	mux.Handle("GET /metrics", promhttp.Handler())

	// 7. Middleware: recovery -> request ID -> metrics -> CORS -> sanitize ->
	// content type -> auth -> rate limit -> audit
	auditLogger := audit.NewLogger(log)

	var root http.Handler = mux
	root = middleware.Audit(auditLogger)(root)
	root = middleware.RateLimit(rateLimiter, log)(root)
	root = middleware.Authenticate(services.Tokens, log)(root)
	root = middleware.ValidateJSONContentType(log)(root)
	root = middleware.SanitizeInputs(log)(root)
	root = middleware.CORS(cfg.CORSAllowedOrigins)(root)
	root = metrics.HTTPMetricsMiddleware(mux)(root)
	root = middleware.RequestID(log)(root)
	root = middleware.Recovery(log)(root)
	root = otelhttp.NewHandler(root, "greenthumb.http")

	// 8. Due sweeper in background
	if featureflags.Enabled(featureflags.DueSweeper) {
		sweeper := worker.NewDueSweeper(
			storage.Schedules,
			storage.Ledger,
			mail.NewNotifier(cfg.SMTP, log),
			services.Recurrence,
			log,
			cfg.DueSweepInterval,
		)
		go sweeper.Start(ctx)
	}

	// 9. Start HTTP server
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.ServerPort),
		Handler:      root,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	log.Info("server starting",
		slog.Int("port", cfg.ServerPort),
		slog.Int("rate_limit", cfg.RateLimitPerMinute),
		slog.String("rate_limit_window", "1m"),
		slog.Int("auth_rate_limit", cfg.AuthRateLimitPerMinute),
		slog.Bool("due_sweeper", featureflags.Enabled(featureflags.DueSweeper)),
	)

	// Handle graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", slog.String("error", err.Error()))
			sigChan <- syscall.SIGTERM
		}
	}()

	// Wait for shutdown signal
	<-sigChan
	log.Info("shutdown signal received")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("shutdown error", slog.String("error", err.Error()))
	}

	cancel() // Stop due sweeper
	rateLimiter.Stop()
	if err := shutdownTracing(shutdownCtx); err != nil {
		log.Error("tracing shutdown error", slog.String("error", err.Error()))
	}
	log.Info("server stopped")
}
