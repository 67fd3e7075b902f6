// Package batch runs many registry lookups concurrently and collects the
// results into a spreadsheet report.
package batch

import (
	"context"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"egrul/internal/registry"
	"egrul/internal/registry/models"
	"egrul/pkg/requestcontext"
)

const DefaultConcurrency = 4

// Status classifies one query's outcome in the report.
type Status string

const (
	StatusFound    Status = "found"
	StatusNotFound Status = "not_found"
	StatusFailed   Status = "failed"
	StatusInvalid  Status = "invalid"
)

// Opener opens one registry lookup per query.
type Opener interface {
	Open() (*registry.Lookup, error)
}

// Row is one line of the report.
type Row struct {
	Query       string
	Status      Status
	Record      models.CanonicalRecord
	Ambiguous   bool
	AddressKey  string
	Reason      string
	LookupID    string
	CompletedAt time.Time
}

type Options struct {
	Concurrency int
	// CheckReliability downloads every found legal entity's certificate.
	CheckReliability bool
}

// Runner executes a batch. Each query gets its own lookup, so queries never
// share registry sessions.
type Runner struct {
	registry Opener
	opts     Options
	logger   *slog.Logger
	now      func() time.Time
}

func NewRunner(reg Opener, opts Options, logger *slog.Logger) *Runner {
	if opts.Concurrency <= 0 {
		opts.Concurrency = DefaultConcurrency
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Runner{registry: reg, opts: opts, logger: logger, now: time.Now}
}

// Run looks up every query and returns one row per query in input order. A
// failing query never aborts the batch; only cancellation of ctx does.
func (r *Runner) Run(ctx context.Context, queries []string) (string, []Row, error) {
	runID := uuid.NewString()
	rows := make([]Row, len(queries))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.opts.Concurrency)
	for i, q := range queries {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			qctx := requestcontext.WithRequestID(gctx, runID+"/"+strconv.Itoa(i+1))
			rows[i] = r.lookup(qctx, q)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return runID, rows, err
	}
	if err := ctx.Err(); err != nil {
		return runID, rows, err
	}

	found := 0
	for _, row := range rows {
		if row.Status == StatusFound {
			found++
		}
	}
	r.logger.InfoContext(ctx, "batch finished", "run_id", runID, "queries", len(queries), "found", found)
	return runID, rows, nil
}

func (r *Runner) lookup(ctx context.Context, query string) Row {
	row := Row{Query: strings.TrimSpace(query)}

	if row.Query == "" {
		row.Status = StatusInvalid
		row.Reason = "empty query"
		row.CompletedAt = r.now()
		return row
	}

	lookup, err := r.registry.Open()
	if err != nil {
		row.Status = StatusFailed
		row.Reason = err.Error()
		row.CompletedAt = r.now()
		return row
	}
	row.LookupID = lookup.ID()

	info := lookup.Info(ctx, row.Query)
	switch {
	case info.Result.Failed:
		row.Status = StatusFailed
		row.Reason = info.Result.Reason
	case !info.Found():
		row.Status = StatusNotFound
	default:
		row.Status = StatusFound
		row.Record = *info.Record
		row.Ambiguous = info.Selection.Ambiguous()
		row.AddressKey = registry.TokenizeAny(row.Record.Address)
		if r.opts.CheckReliability && row.Record.Kind == models.KindLegalEntity {
			row.Record = lookup.VerifyReliability(ctx, row.Record)
		}
	}
	if row.Status != StatusFound {
		r.logger.WarnContext(ctx, "batch query unresolved",
			"request_id", requestcontext.RequestID(ctx),
			"status", string(row.Status),
			"reason", row.Reason,
		)
	}
	row.CompletedAt = r.now()
	return row
}
