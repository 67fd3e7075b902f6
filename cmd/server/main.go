package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"

	"egrul/internal/app"
	"egrul/internal/platform/config"
	"egrul/internal/platform/httpserver"
	"egrul/internal/platform/logger"
	"egrul/internal/platform/metrics"
	httptransport "egrul/internal/transport/http"
)

// main wires high-level dependencies, exposes the HTTP router, and keeps the
// server lifecycle small. Business logic lives in internal services packages.
func main() {
	cfg, err := config.FromEnv()
	if err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}
	log := logger.New(logger.Config{Level: cfg.Log.Level, Format: cfg.Log.Format})
	slog.SetDefault(log)

	if err := run(cfg, log); err != nil {
		log.Error("server stopped with error", "error", err)
		os.Exit(1)
	}
}

func run(cfg config.Config, log *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	m := metrics.New()
	deps, err := app.New(ctx, cfg, log, m)
	if err != nil {
		return err
	}
	defer deps.Close()

	opts := []httptransport.Option{
		httptransport.WithMetrics(m),
		httptransport.WithLookupTimeout(cfg.Server.LookupTimeout),
	}
	for name, check := range deps.Checks {
		opts = append(opts, httptransport.WithHealthCheck(name, check))
	}
	handler := httptransport.NewHandler(deps.Registry, deps.Individuals, log, opts...)
	router := httptransport.NewRouter(handler, prometheus.DefaultGatherer)

	srv := httpserver.New(cfg.Server, router)

	errCh := make(chan error, 1)
	go func() {
		log.Info("starting egrul API", "addr", cfg.Server.Addr, "archive", cfg.Archive.Backend)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	log.Info("shutting down", "timeout", cfg.Server.ShutdownTimeout)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return nil
}
