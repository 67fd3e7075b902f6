// Package app assembles the registry and tax ID services from configuration.
// Both the API server and the batch runner build on it.
package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"

	"egrul/internal/audit"
	"egrul/internal/individual"
	"egrul/internal/pdftext"
	"egrul/internal/platform/config"
	"egrul/internal/platform/metrics"
	"egrul/internal/platform/postgres"
	"egrul/internal/platform/redis"
	"egrul/internal/polling"
	"egrul/internal/registry"
	"egrul/internal/registry/archive"
	"egrul/internal/transport/session"
)

const auditBuffer = 256

// App holds the wired services and the resources that must be released on
// shutdown.
type App struct {
	Registry    *registry.Service
	Individuals *individual.Client
	Auditor     *audit.Publisher
	// Checks are the dependency probes exposed on the health endpoint.
	Checks map[string]func(ctx context.Context) error

	closers []func()
}

// New connects to every configured backend. On error, whatever was opened is
// closed before returning.
func New(ctx context.Context, cfg config.Config, logger *slog.Logger, m *metrics.Metrics) (_ *App, err error) {
	a := &App{Checks: make(map[string]func(ctx context.Context) error)}
	defer func() {
		if err != nil {
			a.Close()
		}
	}()

	docs, err := a.openArchive(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	a.Auditor, err = a.openAuditor(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}

	sessions := session.NewFactory(session.Config{
		Timeout:     cfg.Session.Timeout,
		UserAgent:   cfg.Session.UserAgent,
		ProxyURL:    cfg.Session.ProxyURL,
		MinInterval: cfg.Session.MinInterval,
	})
	engine := polling.New(polling.WithLogger(logger), polling.WithMetrics(m))

	opts := []registry.Option{
		registry.WithConfig(registry.Config{
			BaseURL:          cfg.Registry.BaseURL,
			MaxAttempts:      cfg.Registry.MaxAttempts,
			BackoffUnit:      cfg.Registry.BackoffUnit,
			SearchDelay:      cfg.Registry.SearchDelay,
			DocumentDelay:    cfg.Registry.DocumentDelay,
			ReliabilityPages: cfg.Registry.ReliabilityPages,
		}),
		registry.WithEngine(engine),
		registry.WithExtractor(pdftext.New()),
		registry.WithAuditor(a.Auditor),
		registry.WithMetrics(m),
		registry.WithLogger(logger),
	}
	if docs != nil {
		opts = append(opts, registry.WithArchive(docs))
	}
	a.Registry = registry.NewService(sessions, opts...)

	a.Individuals = individual.New(sessions, individual.Config{
		BaseURL:      cfg.Individual.BaseURL,
		MaxAttempts:  cfg.Individual.MaxAttempts,
		PollInterval: cfg.Individual.PollInterval,
	},
		individual.WithEngine(engine),
		individual.WithAuditor(a.Auditor),
		individual.WithLogger(logger),
	)
	return a, nil
}

// Close releases resources in reverse order of acquisition.
func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}

func (a *App) onClose(fn func()) {
	a.closers = append(a.closers, fn)
}

func (a *App) openArchive(ctx context.Context, cfg config.Config, logger *slog.Logger) (archive.Archive, error) {
	switch cfg.Archive.Backend {
	case "none":
		return nil, nil
	case "redis":
		client, err := redis.New(ctx, cfg.Redis)
		if err != nil {
			return nil, fmt.Errorf("connect redis: %w", err)
		}
		a.onClose(func() { _ = client.Close() })
		a.Checks["redis"] = client.Health
		logger.Info("document archive ready", "backend", "redis")
		return archive.NewRedisArchive(client.Client, cfg.Archive.TTL), nil
	case "postgres":
		pool, err := postgres.NewPool(ctx, cfg.Postgres)
		if err != nil {
			return nil, fmt.Errorf("connect postgres: %w", err)
		}
		a.onClose(pool.Close)
		a.Checks["postgres"] = pingPool(pool)
		docs := archive.NewPostgresArchive(pool, cfg.Archive.TTL)
		if err := docs.Migrate(ctx); err != nil {
			return nil, err
		}
		logger.Info("document archive ready", "backend", "postgres")
		return docs, nil
	case "memory", "":
		return archive.NewInMemoryArchive(cfg.Archive.TTL), nil
	default:
		return nil, fmt.Errorf("unknown archive backend %q", cfg.Archive.Backend)
	}
}

func (a *App) openAuditor(ctx context.Context, cfg config.Config, logger *slog.Logger) (*audit.Publisher, error) {
	stores := []audit.Store{audit.NewLogStore(logger)}
	if len(cfg.Kafka.Brokers) > 0 {
		sink, err := audit.NewKafkaSink(cfg.Kafka.Brokers, cfg.Kafka.Topic)
		if err != nil {
			return nil, err
		}
		a.onClose(sink.Close)
		if err := sink.EnsureTopic(ctx, 1, 1); err != nil {
			logger.Warn("could not ensure audit topic, relying on auto-creation", "error", err)
		}
		stores = append(stores, sink)
	}
	pub := audit.NewFanoutPublisher(stores, audit.WithLogger(logger), audit.WithAsyncBuffer(auditBuffer))
	a.onClose(pub.Close)
	return pub, nil
}

func pingPool(pool *pgxpool.Pool) func(ctx context.Context) error {
	return func(ctx context.Context) error {
		return pool.Ping(ctx)
	}
}
