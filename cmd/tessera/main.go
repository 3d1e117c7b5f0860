package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tessera-hq/tessera/internal/access"
	"github.com/tessera-hq/tessera/internal/app"
	"github.com/tessera-hq/tessera/internal/assignment"
	"github.com/tessera-hq/tessera/internal/audit"
	"github.com/tessera-hq/tessera/internal/auth"
	"github.com/tessera-hq/tessera/internal/docstore"
	docmem "github.com/tessera-hq/tessera/internal/docstore/memory"
	docpg "github.com/tessera-hq/tessera/internal/docstore/postgres"
	"github.com/tessera-hq/tessera/internal/events"
	"github.com/tessera-hq/tessera/internal/notify"
	"github.com/tessera-hq/tessera/internal/observability"
	"github.com/tessera-hq/tessera/internal/platform/cache"
	"github.com/tessera-hq/tessera/internal/platform/db"
	"github.com/tessera-hq/tessera/internal/principals"
	"github.com/tessera-hq/tessera/internal/shared"
	"github.com/tessera-hq/tessera/internal/stakeholders"
	"github.com/tessera-hq/tessera/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	var pool *pgxpool.Pool
	if cfg.DocstoreDriver == "postgres" {
		pool, err = db.New(ctx, cfg.PGDSN)
		if err != nil {
			logger.Error("connect postgres", slog.Any("error", err))
			os.Exit(1)
		}
		defer pool.Close()
	}

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Error("connect redis", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	metrics := observability.NewMetrics()

	var store docstore.Store
	if pool != nil {
		store = docpg.New(pool)
	} else {
		store = docmem.New()
	}
	store = docstore.Instrument(store, metrics)

	sessionManager := shared.NewSessionManager(redisClient, "tessera_session", cfg.SessionSecret, cfg.SessionTTL, cfg.IsProduction())

	var auditLogger events.AuditPort
	var idempotencyStore *shared.IdempotencyStore
	var sessionRepo auth.SessionRepo
	if pool != nil {
		auditLogger = audit.NewLogger(pool)
		idempotencyStore = shared.NewIdempotencyStore(pool)
		sessionRepo = auth.NewPGRepository(pool)
	}

	bus := notify.NewBus()

	queueClient, err := jobs.NewClient(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	if err != nil {
		logger.Error("init queue client", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := queueClient.Close(); err != nil {
			logger.Warn("queue client close", slog.Any("error", err))
		}
	}()

	principalRepo := principals.NewRepository(store)
	principalCache := principals.NewCache(redisClient, cfg.PermissionCacheTTL)
	principalService := principals.NewService(principalRepo, principalCache, auditLogger, logger)
	principalsHandler := principals.NewHandler(logger, principalService)

	accessMiddleware := access.Middleware{Resolver: principalService, Logger: logger}

	authService := auth.NewService(principalRepo, sessionRepo)
	authHandler := auth.NewHandler(logger, authService, sessionManager)

	eventRepo := events.NewRepository(store)
	eventService := events.NewService(eventRepo, auditLogger, bus, idempotencyStore, logger).
		WithReminders(jobs.ReminderScheduler{Client: queueClient, Lead: jobs.DefaultReminderLead})
	eventsHandler := events.NewHandler(logger, eventService)

	stakeholderRepo := stakeholders.NewRepository(store)
	stakeholderService := stakeholders.NewService(stakeholderRepo, auditLogger, bus, queueClient, logger)
	stakeholdersHandler := stakeholders.NewHandler(logger, stakeholderService)

	assignmentService := assignment.NewService(store, auditLogger, bus, logger)
	assignmentHandler := assignment.NewHandler(logger, assignmentService)

	inspector := asynq.NewInspector(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()
	jobHandler := jobs.NewHandler(inspector, logger)

	router := app.NewRouter(app.RouterParams{
		Logger:              logger,
		Config:              cfg,
		SessionManager:      sessionManager,
		AccessMiddleware:    accessMiddleware,
		AuthHandler:         authHandler,
		EventsHandler:       eventsHandler,
		StakeholdersHandler: stakeholdersHandler,
		AssignmentHandler:   assignmentHandler,
		PrincipalsHandler:   principalsHandler,
		JobHandler:          jobHandler,
		Metrics:             metrics,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
	}
}
