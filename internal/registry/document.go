package registry

import (
	"context"
	"log/slog"
	"net/url"
	"time"

	"egrul/internal/polling"
	"egrul/internal/registry/models"
	"egrul/internal/transport/session"
)

const (
	opDocument = "registry.document"

	documentRequestPath  = "/vyp-request/"
	documentStatusPath   = "/vyp-status/"
	documentDownloadPath = "/vyp-download/"

	documentReady = "ready"
	documentWait  = "wait"
)

// DocumentClient obtains certificate extracts: request, poll status, then
// download once the registry reports the extract ready.
type DocumentClient struct {
	session session.Session
	engine  *polling.Engine
	cfg     Config
	logger  *slog.Logger
	now     func() time.Time
}

func NewDocumentClient(sess session.Session, engine *polling.Engine, cfg Config, logger *slog.Logger) *DocumentClient {
	if logger == nil {
		logger = slog.Default()
	}
	return &DocumentClient{
		session: sess,
		engine:  engine,
		cfg:     cfg.withDefaults(),
		logger:  logger,
		now:     time.Now,
	}
}

// Fetch retrieves the extract for token. The returned document is empty and
// not loaded when any phase fails or exhausts its attempts.
func (c *DocumentClient) Fetch(ctx context.Context, token string) *models.Document {
	doc := &models.Document{Token: token}
	if token == "" {
		return doc
	}
	escaped := url.PathEscape(token)

	if err := c.engine.Pause(ctx, c.cfg.DocumentDelay); err != nil {
		return doc
	}

	run := polling.Run(ctx, c.engine, polling.Spec[session.Reply]{
		Operation: opDocument,
		Submit: func(ctx context.Context) (session.Reply, error) {
			resp, err := c.session.Get(ctx, c.cfg.BaseURL+documentRequestPath+escaped)
			reply, err := session.Call(opDocument, resp, err)
			if err != nil {
				return reply, err
			}
			if !documentCaptcha(reply) && len(reply.Errors()) > 0 {
				return reply, polling.RemoteStatus(opDocument, reply.StatusCode, reply.ErrorMessage())
			}
			return reply, nil
		},
		Poll: func(ctx context.Context, _ session.Reply) (session.Reply, error) {
			resp, err := c.session.Get(ctx, c.cfg.BaseURL+documentStatusPath+escaped)
			reply, err := session.Call(opDocument, resp, err)
			if err != nil {
				return reply, err
			}
			if !reply.Valid() || !reply.Has("status") {
				return reply, polling.NewError(polling.CategoryBadData, opDocument, "status response carries no status", nil)
			}
			if status := reply.String("status"); status != documentReady && status != documentWait {
				c.logger.WarnContext(ctx, "unrecognized document status",
					"status", status,
					"body", string(reply.Body),
				)
			}
			return reply, nil
		},
		IsReady:     func(r session.Reply) bool { return r.String("status") == documentReady },
		IsCaptcha:   documentCaptcha,
		MaxAttempts: c.cfg.MaxAttempts,
		Backoff:     c.cfg.backoff(),
	})

	if !run.Ready() {
		attrs := []any{"outcome", run.Outcome.String(), "polls", run.Polls}
		if run.Err != nil {
			attrs = append(attrs, "error", run.Err)
		}
		c.logger.WarnContext(ctx, "document not ready, returning empty content", attrs...)
		return doc
	}

	resp, err := c.session.Get(ctx, c.cfg.BaseURL+documentDownloadPath+escaped)
	if _, err := session.Call(opDocument, resp, err); err != nil {
		c.logger.ErrorContext(ctx, "document download failed", "error", err)
		return doc
	}
	return models.NewDocument(token, resp.Body, c.now())
}

func documentCaptcha(r session.Reply) bool {
	if required, ok := r.Bool("captchaRequired"); ok && required {
		return true
	}
	return r.HasError("captchaVyp")
}
