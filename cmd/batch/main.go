// Command batch looks up a list of tax IDs or names in the registry and writes
// the results to an XLSX report.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"egrul/internal/app"
	"egrul/internal/batch"
	"egrul/internal/platform/config"
	"egrul/internal/platform/logger"
	"egrul/internal/platform/metrics"
)

func main() {
	var (
		in          = flag.String("in", "", "Path to queries: one per line, or an .xlsx with queries in the first column")
		out         = flag.String("out", "report.xlsx", "Path of the XLSX report to write")
		concurrency = flag.Int("concurrency", batch.DefaultConcurrency, "Lookups running at once")
		reliability = flag.Bool("reliability", false, "Download certificates and check legal entities for the unreliability marker")
	)
	flag.Parse()

	if *in == "" {
		fmt.Fprintln(os.Stderr, "Usage: batch -in <queries> [-out report.xlsx] [-concurrency N] [-reliability]")
		os.Exit(2)
	}

	cfg, err := config.FromEnv()
	if err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}
	log := logger.New(logger.Config{Level: cfg.Log.Level, Format: cfg.Log.Format})
	slog.SetDefault(log)

	opts := batch.Options{Concurrency: *concurrency, CheckReliability: *reliability}
	if err := run(cfg, log, *in, *out, opts); err != nil {
		log.Error("batch failed", "error", err)
		os.Exit(1)
	}
}

func run(cfg config.Config, log *slog.Logger, in, out string, opts batch.Options) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	queries, err := readQueries(in)
	if err != nil {
		return err
	}
	if len(queries) == 0 {
		return errors.New("no queries in " + in)
	}

	deps, err := app.New(ctx, cfg, log, metrics.New())
	if err != nil {
		return err
	}
	defer deps.Close()

	log.Info("batch started", "queries", len(queries), "concurrency", opts.Concurrency)
	runner := batch.NewRunner(deps.Registry, opts, log)
	runID, rows, err := runner.Run(ctx, queries)
	if err != nil {
		return fmt.Errorf("run %s: %w", runID, err)
	}

	if dir := filepath.Dir(out); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create report directory: %w", err)
		}
	}
	f, err := os.Create(out)
	if err != nil {
		return fmt.Errorf("create report: %w", err)
	}
	if err := batch.WriteReport(f, runID, rows, time.Now()); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close report: %w", err)
	}
	log.Info("report written", "run_id", runID, "path", out)
	return nil
}

func readQueries(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open queries: %w", err)
	}
	defer f.Close()
	return batch.ReadQueries(f, filepath.Base(path))
}
