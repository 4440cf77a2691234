package server

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

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"talent/internal/app/usecase"
	"talent/internal/domain/auth"
	"talent/internal/platform/config"
	"talent/internal/platform/db"
	"talent/internal/platform/email"
	"talent/internal/platform/events"
	"talent/internal/platform/jobs"
	"talent/internal/platform/logging"
	"talent/internal/platform/metrics"
	"talent/internal/platform/storage"
	"talent/internal/transport/http/api"
	certificatehandler "talent/internal/transport/http/handlers/certificate"
	learninghandler "talent/internal/transport/http/handlers/learning"
	notificationhandler "talent/internal/transport/http/handlers/notification"
	promotionhandler "talent/internal/transport/http/handlers/promotion"
	reviewhandler "talent/internal/transport/http/handlers/review"
	"talent/internal/transport/http/middleware"
	"talent/migrations"
)

type App struct {
	Config  config.Config
	DB      *pgxpool.Pool
	Router  http.Handler
	Jobs    *jobs.Service
	Service *usecase.Service
	Metrics *metrics.Collector

	closers []func()
}

// New connects every dependency and builds the router. Background jobs are
// registered but not started; Run starts them.
func New(ctx context.Context, cfg config.Config, zl zerolog.Logger) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	pool, err := db.Connect(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("db connect failed: %w", err)
	}
	app := &App{Config: cfg, DB: pool, Metrics: metrics.New()}
	app.closers = append(app.closers, pool.Close)

	if cfg.RunMigrations {
		if err := db.Migrate(ctx, pool, migrations.FS); err != nil {
			app.Close()
			return nil, fmt.Errorf("migrations failed: %w", err)
		}
	}
	if cfg.RunSeed {
		if err := db.Seed(ctx, pool, cfg); err != nil {
			app.Close()
			return nil, fmt.Errorf("seed failed: %w", err)
		}
	}

	publisher, closeEvents, err := events.Connect(cfg.NATSURL, zl, func() { app.Metrics.Inc(metrics.EventsPublishFailed) })
	if err != nil {
		app.Close()
		return nil, fmt.Errorf("nats connect failed: %w", err)
	}
	app.closers = append(app.closers, closeEvents)

	files, err := storage.New(ctx, cfg)
	if err != nil {
		app.Close()
		return nil, fmt.Errorf("storage init failed: %w", err)
	}

	app.Jobs = jobs.New(pool)
	app.Service = usecase.New(pool, publisher, app.Jobs, files, app.Metrics, cfg.SuperAdminRole, cfg.QuizTimeLimitGrace)
	app.Service.Mailer = email.New(cfg)
	app.Service.EmailFrom = cfg.EmailFrom
	app.Jobs.Every(jobs.JobReviewOverdue, cfg.OverdueSweepInterval, app.Service.SweepOverdueReviews)
	app.Jobs.Every(jobs.JobEnrollmentExpiry, cfg.EnrollmentExpiryInterval, app.Service.ExpireEnrollments)

	app.Router = app.routes(zl)
	return app, nil
}

func (a *App) routes(zl zerolog.Logger) http.Handler {
	cfg := a.Config
	perms := auth.StaticPermissions{}

	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	// Auth runs before Logger so access lines carry the actor.
	router.Use(middleware.Auth(cfg.JWTSecret))
	router.Use(middleware.Logger(zl, a.Metrics))
	router.Use(middleware.Recoverer)
	router.Use(middleware.SecureHeaders(cfg.Environment == "production"))
	router.Use(middleware.BodyLimit(cfg.MaxBodyBytes))

	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	router.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := a.DB.Ping(ctx); err != nil {
			http.Error(w, "db not ready", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
	})

	if cfg.MetricsEnabled {
		router.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
			api.Success(w, a.Metrics.Snapshot(), middleware.GetRequestID(r.Context()))
		})
	}

	router.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.RateLimit(cfg.RateLimitPerMinute, time.Minute))
		r.Use(middleware.SensitiveMutationRateLimit(cfg.RateLimitPerMinute, time.Minute))
		r.Use(middleware.Idempotency(middleware.NewIdempotencyStore(a.DB)))

		reviewhandler.NewHandler(a.Service, perms).RegisterRoutes(r)
		learninghandler.NewHandler(a.Service, perms).RegisterRoutes(r)
		promotionhandler.NewHandler(a.Service, perms).RegisterRoutes(r)
		certificatehandler.NewHandler(a.Service, perms).RegisterRoutes(r)
		notificationhandler.NewHandler(a.Service, perms).RegisterRoutes(r)
	})

	return router
}

// Close releases connections in reverse order of acquisition.
func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}

// Run serves until SIGINT or SIGTERM, then drains requests and jobs.
func Run() {
	cfg := config.Load()
	zl := logging.Setup(os.Stdout, cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app, err := New(ctx, cfg, zl)
	if err != nil {
		slog.Error("startup failed", "err", err)
		os.Exit(1)
	}
	defer app.Close()

	jobCtx, cancelJobs := context.WithCancel(context.Background())
	app.Jobs.Start(jobCtx)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           app.Router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		slog.Info("talent server listening", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server failed", "err", err)
			stop()
		}
	}()

	<-ctx.Done()
	slog.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Warn("http shutdown failed", "err", err)
	}
	cancelJobs()
	app.Jobs.Wait()
	slog.Info("server stopped")
}
