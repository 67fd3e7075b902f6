package registry

import (
	"context"
	"log/slog"
	"net/url"
	"strconv"

	"egrul/internal/polling"
	"egrul/internal/registry/models"
	"egrul/internal/transport/session"
)

const (
	opSearch = "registry.search"

	searchResultPath = "/search-result/"
)

// SearchClient submits free-text queries to the registry and collects the
// resulting rows.
type SearchClient struct {
	session session.Session
	engine  *polling.Engine
	cfg     Config
	logger  *slog.Logger
}

func NewSearchClient(sess session.Session, engine *polling.Engine, cfg Config, logger *slog.Logger) *SearchClient {
	if logger == nil {
		logger = slog.Default()
	}
	return &SearchClient{
		session: sess,
		engine:  engine,
		cfg:     cfg.withDefaults(),
		logger:  logger,
	}
}

// Search runs one query. Failures of any kind surface as an empty result with
// Failed set; an explicit zero total surfaces as an empty result with
// ZeroTotal set.
func (c *SearchClient) Search(ctx context.Context, query string) models.SearchResult {
	result := models.SearchResult{Query: query}

	if err := c.engine.Pause(ctx, c.cfg.SearchDelay); err != nil {
		result.Failed = true
		result.Reason = err.Error()
		return result
	}

	run := polling.Run(ctx, c.engine, polling.Spec[session.Reply]{
		Operation: opSearch,
		Submit: func(ctx context.Context) (session.Reply, error) {
			resp, err := c.session.Post(ctx, c.cfg.BaseURL+"/", url.Values{"query": {query}})
			reply, err := session.Call(opSearch, resp, err)
			if err != nil {
				return reply, err
			}
			if !searchCaptcha(reply) && reply.String("t") == "" {
				return reply, polling.NewError(polling.CategoryBadData, opSearch, "submit response carries no search token", nil)
			}
			return reply, nil
		},
		Poll: func(ctx context.Context, submitted session.Reply) (session.Reply, error) {
			resp, err := c.session.Get(ctx, c.cfg.BaseURL+searchResultPath+url.PathEscape(submitted.String("t")))
			reply, err := session.Call(opSearch, resp, err)
			if err != nil {
				return reply, err
			}
			if !reply.Valid() {
				return reply, polling.NewError(polling.CategoryBadData, opSearch, "search result is not a JSON object", nil)
			}
			if searchWaiting(reply) || searchCaptcha(reply) {
				return reply, nil
			}
			if _, ok := reply.Fields["rows"].([]any); !ok {
				return reply, polling.NewError(polling.CategoryBadData, opSearch, `search result has no "rows" list`, nil)
			}
			return reply, nil
		},
		IsReady:     func(r session.Reply) bool { return !searchWaiting(r) },
		IsCaptcha:   searchCaptcha,
		RequestID:   func(r session.Reply) string { return r.String("t") },
		MaxAttempts: c.cfg.MaxAttempts,
		Backoff:     c.cfg.backoff(),
	})

	switch run.Outcome {
	case polling.OutcomeReady:
	case polling.OutcomeFailed:
		c.logger.ErrorContext(ctx, "registry search failed",
			"category", string(polling.GetCategory(run.Err)),
			"error", run.Err,
		)
		result.Failed = true
		result.Reason = run.Err.Error()
		return result
	default:
		c.logger.WarnContext(ctx, "registry search gave up",
			"outcome", run.Outcome.String(),
			"polls", run.Polls,
			"submits", run.Submits,
		)
		result.Failed = true
		result.Reason = "attempts exhausted while " + run.Outcome.String()
		return result
	}

	items, _ := run.Response.Fields["rows"].([]any)
	rows := decodeRows(items)
	if isZeroTotal(rows) {
		c.logger.InfoContext(ctx, "registry reported no matches")
		result.ZeroTotal = true
		return result
	}
	result.Rows = rows
	result.Total = len(rows)
	if tot, err := strconv.Atoi(rows[0].Get(models.KeyTotal)); err == nil && tot > result.Total {
		result.Total = tot
	}
	return result
}

func searchCaptcha(r session.Reply) bool {
	if required, ok := r.Bool("captchaRequired"); ok && required {
		return true
	}
	return r.HasError("captchaSearch")
}

func searchWaiting(r session.Reply) bool {
	return r.String("status") == "wait"
}

func isZeroTotal(rows []models.RawRecord) bool {
	if len(rows) == 0 {
		return true
	}
	return len(rows) == 1 && rows[0].Get(models.KeyTotal) == "0"
}

// decodeRows flattens row objects into string maps. Non-object entries are
// skipped.
func decodeRows(items []any) []models.RawRecord {
	rows := make([]models.RawRecord, 0, len(items))
	for _, item := range items {
		obj, ok := item.(map[string]any)
		if !ok {
			continue
		}
		row := make(models.RawRecord, len(obj))
		for k, v := range obj {
			row[k] = session.Stringify(v)
		}
		rows = append(rows, row)
	}
	return rows
}
