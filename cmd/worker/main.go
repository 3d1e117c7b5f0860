package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tessera-hq/tessera/internal/app"
	"github.com/tessera-hq/tessera/internal/assignment"
	"github.com/tessera-hq/tessera/internal/audit"
	"github.com/tessera-hq/tessera/internal/docstore"
	docmem "github.com/tessera-hq/tessera/internal/docstore/memory"
	docpg "github.com/tessera-hq/tessera/internal/docstore/postgres"
	"github.com/tessera-hq/tessera/internal/platform/db"
	"github.com/tessera-hq/tessera/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping worker startup")
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
			logger.Error("connect database", slog.Any("error", err))
			os.Exit(1)
		}
		defer pool.Close()
	}

	var store docstore.Store
	if pool != nil {
		store = docpg.New(pool)
	} else {
		store = docmem.New()
	}

	var auditLogger assignment.AuditPort
	if pool != nil {
		auditLogger = audit.NewLogger(pool)
	}
	sweepService := assignment.NewService(store, auditLogger, nil, logger)

	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts: asynq.RedisClientOpt{Addr: cfg.RedisAddr},
		Logger:    logger,
		Handlers: []jobs.TaskHandler{
			{Type: jobs.TaskTypeLinksSweep, Handler: jobs.NewLinksSweepHandler(sweepService, logger, nil)},
		},
		Cron: []jobs.CronRegistration{
			{Spec: "45 2 * * *", Task: jobs.NewLinksSweepTask(), Options: []asynq.Option{asynq.MaxRetry(3)}},
		},
	})
	if err != nil {
		logger.Error("init worker", slog.Any("error", err))
		os.Exit(1)
	}

	if err := worker.Run(ctx); err != nil && err != context.Canceled {
		logger.Error("worker run", slog.Any("error", err))
		os.Exit(1)
	}
}
