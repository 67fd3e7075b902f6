// Package individual resolves a person's tax ID from identity document
// details through the tax service's public lookup form.
package individual

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"egrul/internal/audit"
	"egrul/internal/polling"
	"egrul/internal/transport/session"
	"egrul/pkg/requestcontext"
)

const (
	opFind   = "individual.find"
	opLegacy = "individual.legacy"

	findPath   = "/inn-new-proc.do"
	legacyPath = "/inn-proc.do"

	DefaultBaseURL      = "https://service.nalog.ru"
	DefaultMaxAttempts  = 3
	DefaultPollInterval = 100 * time.Millisecond
)

// Identity is the person and document the tax ID is looked up by. Dates are
// in the service's DD.MM.YYYY form.
type Identity struct {
	Surname        string `json:"surname"`
	GivenName      string `json:"given_name"`
	Patronymic     string `json:"patronymic"`
	BirthDate      string `json:"birth_date"`
	BirthPlace     string `json:"birth_place"`
	DocumentType   string `json:"document_type"`
	DocumentNumber string `json:"document_number"`
	DocumentDate   string `json:"document_date"`
}

// Result carries the outcome of one lookup. Response is the last reply from
// the service whatever happened; Err describes a failed lookup.
type Result struct {
	INN       string
	RequestID string
	Response  session.Reply
	Outcome   polling.Outcome
	Err       error
}

// Found reports whether a tax ID was returned.
func (r Result) Found() bool {
	return r.INN != ""
}

type Config struct {
	BaseURL      string
	MaxAttempts  int
	PollInterval time.Duration
}

func (c Config) withDefaults() Config {
	if c.BaseURL == "" {
		c.BaseURL = DefaultBaseURL
	}
	c.BaseURL = strings.TrimRight(c.BaseURL, "/")
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = DefaultMaxAttempts
	}
	if c.PollInterval <= 0 {
		c.PollInterval = DefaultPollInterval
	}
	return c
}

// Auditor records resolved lookups.
type Auditor interface {
	Emit(ctx context.Context, event audit.Event) error
}

// Client talks to the tax ID service. Every call opens its own session.
type Client struct {
	sessions session.Factory
	engine   *polling.Engine
	cfg      Config
	auditor  Auditor
	logger   *slog.Logger
}

type Option func(*Client)

func WithEngine(engine *polling.Engine) Option {
	return func(c *Client) {
		c.engine = engine
	}
}

func WithAuditor(a Auditor) Option {
	return func(c *Client) {
		c.auditor = a
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

func New(sessions session.Factory, cfg Config, opts ...Option) *Client {
	c := &Client{
		sessions: sessions,
		cfg:      cfg.withDefaults(),
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.engine == nil {
		c.engine = polling.New(polling.WithLogger(c.logger))
	}
	return c
}

// FindINN submits the identity and polls for the answer until the service
// returns a tax ID or the attempts run out. Only an unknown document type is
// returned as an error; everything else lands in Result.
func (c *Client) FindINN(ctx context.Context, id Identity) (Result, error) {
	form, err := identityForm(id, "find")
	if err != nil {
		return Result{}, err
	}
	sess, err := c.sessions()
	if err != nil {
		return Result{Outcome: polling.OutcomeFailed, Err: fmt.Errorf("open session: %w", err)}, nil
	}
	endpoint := c.cfg.BaseURL + findPath

	run := polling.Run(ctx, c.engine, polling.Spec[session.Reply]{
		Operation: opFind,
		Submit: func(ctx context.Context) (session.Reply, error) {
			resp, err := sess.Post(ctx, endpoint, form)
			reply, err := session.Call(opFind, resp, err)
			if err != nil {
				return reply, err
			}
			if reply.String("requestId") == "" {
				return reply, polling.NewError(polling.CategoryBadData, opFind, "submit response carries no requestId", nil)
			}
			return reply, c.engine.Pause(ctx, c.cfg.PollInterval)
		},
		Poll: func(ctx context.Context, submitted session.Reply) (session.Reply, error) {
			resp, err := sess.Post(ctx, endpoint, url.Values{
				"c":         {"get"},
				"requestId": {submitted.String("requestId")},
			})
			return session.Call(opFind, resp, err)
		},
		IsReady:     func(r session.Reply) bool { return r.String("inn") != "" },
		IsCaptcha:   captchaRequired,
		RequestID:   func(r session.Reply) string { return r.String("requestId") },
		MaxAttempts: c.cfg.MaxAttempts,
		Backoff:     polling.Constant(c.cfg.PollInterval),
	})

	res := Result{
		INN:       run.Response.String("inn"),
		RequestID: run.Job.RequestID,
		Response:  run.Response,
		Outcome:   run.Outcome,
		Err:       run.Err,
	}
	if res.RequestID == "" {
		res.RequestID = run.Response.String("requestId")
	}
	if !run.Ready() {
		res.INN = ""
		c.logger.WarnContext(ctx, "tax ID not resolved",
			"outcome", run.Outcome.String(),
			"polls", run.Polls,
			"error", run.Err,
		)
	}
	c.emit(ctx, id, res)
	return res, nil
}

// FindINNLegacy uses the older single-request form. There is no polling: the
// reply either carries the tax ID or it does not.
func (c *Client) FindINNLegacy(ctx context.Context, id Identity) (Result, error) {
	form, err := identityForm(id, "innMy")
	if err != nil {
		return Result{}, err
	}
	sess, err := c.sessions()
	if err != nil {
		return Result{Outcome: polling.OutcomeFailed, Err: fmt.Errorf("open session: %w", err)}, nil
	}

	resp, err := sess.Post(ctx, c.cfg.BaseURL+legacyPath, form)
	reply, err := session.Call(opLegacy, resp, err)
	res := Result{Response: reply, Outcome: polling.OutcomeReady, Err: err}
	if err != nil {
		res.Outcome = polling.OutcomeFailed
		c.logger.WarnContext(ctx, "legacy tax ID lookup failed",
			"category", string(polling.GetCategory(err)),
			"error", err,
		)
	} else {
		res.INN = reply.String("inn")
	}
	c.emit(ctx, id, res)
	return res, nil
}

func (c *Client) emit(ctx context.Context, id Identity, res Result) {
	if c.auditor == nil {
		return
	}
	outcome := "not_found"
	switch {
	case res.Found():
		outcome = "resolved"
	case res.Err != nil:
		outcome = "failed"
	}
	err := c.auditor.Emit(ctx, audit.Event{
		Action:      audit.ActionIndividualINNResolved,
		SubjectHash: audit.HashSubject(id.DocumentType + ":" + id.DocumentNumber),
		Outcome:     outcome,
		RequestID:   requestcontext.RequestID(ctx),
	})
	if err != nil {
		c.logger.WarnContext(ctx, "failed to emit audit event", "error", err)
	}
}

func identityForm(id Identity, command string) (url.Values, error) {
	code, err := DocumentTypeCode(id.DocumentType)
	if err != nil {
		return nil, err
	}
	return url.Values{
		"fam":          {id.Surname},
		"nam":          {id.GivenName},
		"otch":         {id.Patronymic},
		"bdate":        {id.BirthDate},
		"bplace":       {id.BirthPlace},
		"doctype":      {code},
		"docno":        {id.DocumentNumber},
		"docdt":        {id.DocumentDate},
		"c":            {command},
		"captcha":      {""},
		"captchaToken": {""},
	}, nil
}

func captchaRequired(r session.Reply) bool {
	required, ok := r.Bool("captchaRequired")
	return ok && required
}
