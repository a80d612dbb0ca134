package bootstrap

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	accesspolicy "paideia/contexts/identity-access/access-policy-service"
	policypostgres "paideia/contexts/identity-access/access-policy-service/adapters/postgres"
	identity "paideia/contexts/identity-access/identity-service"
	identitypostgres "paideia/contexts/identity-access/identity-service/adapters/postgres"
	profilelifecycle "paideia/contexts/identity-access/profile-lifecycle-service"
	lifecycleworkers "paideia/contexts/identity-access/profile-lifecycle-service/application/workers"
	"paideia/internal/platform/config"
	"paideia/internal/platform/db"
	"paideia/internal/platform/httpserver"
	"paideia/internal/platform/messaging"
)

// Package bootstrap is the composition root.
// Keep construction/wiring here so module code stays framework-agnostic.

type APIApp struct {
	server   *httpserver.Server
	postgres *db.Postgres
	logger   *slog.Logger
}

type WorkerApp struct {
	postgres        *db.Postgres
	auditor         lifecycleworkers.ConsistencyAuditor
	outboxRelay     lifecycleworkers.OutboxRelay
	auditorInterval time.Duration
	outboxInterval  time.Duration
	logger          *slog.Logger
}

func BuildAPI() (*APIApp, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	logger := slog.Default().With("service", cfg.ServiceName, "process", "api")
	if strings.TrimSpace(cfg.PostgresDSN) == "" {
		return nil, errors.New("POSTGRES_DSN is required")
	}

	pg, err := db.Connect(cfg.PostgresDSN)
	if err != nil {
		return nil, err
	}

	identityModule := identity.NewModule(identity.Dependencies{
		Repository: identitypostgres.NewRepository(pg.DB, logger),
		Clock:      identitypostgres.SystemClock{},
		SessionTTL: cfg.SessionTTL,
		Logger:     logger,
	})

	policyModule := accesspolicy.NewModule(accesspolicy.Dependencies{
		Executor: policypostgres.NewExecutor(pg.DB, logger),
		Clock:    policypostgres.SystemClock{},
		Logger:   logger,
	})

	bus := messaging.NewBus(logger)
	lifecycleModule := profilelifecycle.NewPostgresModule(pg.DB, bus, cfg.OutboxBatchSize, logger)

	server := httpserver.New(identityModule, policyModule, lifecycleModule, logger, normalizeAddr(cfg.HTTPPort))
	return &APIApp{
		server:   server,
		postgres: pg,
		logger:   logger,
	}, nil
}

func BuildWorker() (*WorkerApp, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	logger := slog.Default().With("service", cfg.ServiceName, "process", "worker")
	if strings.TrimSpace(cfg.PostgresDSN) == "" {
		return nil, errors.New("POSTGRES_DSN is required")
	}

	pg, err := db.Connect(cfg.PostgresDSN)
	if err != nil {
		return nil, err
	}

	bus := messaging.NewBus(logger)
	lifecycleModule := profilelifecycle.NewPostgresModule(pg.DB, bus, cfg.OutboxBatchSize, logger)

	return &WorkerApp{
		postgres:        pg,
		auditor:         lifecycleModule.Auditor,
		outboxRelay:     lifecycleModule.OutboxRelay,
		auditorInterval: cfg.AuditorInterval,
		outboxInterval:  cfg.OutboxInterval,
		logger:          logger,
	}, nil
}

func (a *APIApp) Run(_ context.Context) error {
	if a.logger != nil {
		a.logger.Info("api app started",
			"event", "bootstrap_api_started",
			"module", "internal/app/bootstrap",
			"layer", "platform",
		)
	}
	return a.server.Start()
}

func (a *APIApp) Close() error {
	if a.postgres != nil {
		return a.postgres.Close()
	}
	return nil
}

// Run polls the outbox relay on its own cadence and triggers an audit pass
// on the slower auditor cadence. Audit failures are logged, not fatal; the
// next pass retries from scratch.
func (w *WorkerApp) Run(ctx context.Context) error {
	outboxTicker := time.NewTicker(w.outboxInterval)
	defer outboxTicker.Stop()
	auditTicker := time.NewTicker(w.auditorInterval)
	defer auditTicker.Stop()

	w.logger.Info("worker app started",
		"event", "bootstrap_worker_started",
		"module", "internal/app/bootstrap",
		"layer", "platform",
		"outbox_interval", w.outboxInterval.String(),
		"auditor_interval", w.auditorInterval.String(),
	)

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-outboxTicker.C:
			if err := w.outboxRelay.RunOnce(ctx); err != nil {
				return err
			}
		case <-auditTicker.C:
			if _, err := w.auditor.RunOnce(ctx); err != nil {
				w.logger.Error("audit pass failed",
					"event", "bootstrap_audit_failed",
					"module", "internal/app/bootstrap",
					"layer", "platform",
					"error", err.Error(),
				)
			}
		}
	}
}

func (w *WorkerApp) Close() error {
	if w.postgres != nil {
		return w.postgres.Close()
	}
	return nil
}

func normalizeAddr(port string) string {
	value := strings.TrimSpace(port)
	if value == "" {
		return ":8080"
	}
	if strings.HasPrefix(value, ":") {
		return value
	}
	return ":" + value
}
