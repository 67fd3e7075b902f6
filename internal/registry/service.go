package registry

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"egrul/internal/audit"
	"egrul/internal/platform/metrics"
	"egrul/internal/polling"
	"egrul/internal/registry/archive"
	"egrul/internal/registry/models"
	"egrul/internal/transport/session"
	"egrul/pkg/requestcontext"
)

// AuditPublisher records lookup events.
type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

// Service opens lookups against the registry. It is safe for concurrent use;
// each Lookup it opens is not.
type Service struct {
	cfg       Config
	sessions  session.Factory
	engine    *polling.Engine
	archive   archive.Archive
	extractor TextExtractor
	auditor   AuditPublisher
	metrics   *metrics.Metrics
	logger    *slog.Logger
	tracer    trace.Tracer
}

type Option func(*Service)

func WithConfig(cfg Config) Option {
	return func(s *Service) {
		s.cfg = cfg
	}
}

func WithEngine(engine *polling.Engine) Option {
	return func(s *Service) {
		s.engine = engine
	}
}

func WithArchive(a archive.Archive) Option {
	return func(s *Service) {
		s.archive = a
	}
}

func WithExtractor(e TextExtractor) Option {
	return func(s *Service) {
		s.extractor = e
	}
}

func WithAuditor(a AuditPublisher) Option {
	return func(s *Service) {
		s.auditor = a
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

// NewService constructs a Service drawing one session per lookup from
// sessions.
func NewService(sessions session.Factory, opts ...Option) *Service {
	s := &Service{
		cfg:      DefaultConfig(),
		sessions: sessions,
		logger:   slog.Default(),
		tracer:   otel.Tracer("egrul/registry"),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.cfg = s.cfg.withDefaults()
	if s.engine == nil {
		s.engine = polling.New(polling.WithLogger(s.logger), polling.WithMetrics(s.metrics))
	}
	return s
}

// Open starts a lookup bound to a fresh session. Calls on one lookup share
// cookies; separate lookups never do.
func (s *Service) Open() (*Lookup, error) {
	sess, err := s.sessions()
	if err != nil {
		return nil, fmt.Errorf("open registry session: %w", err)
	}
	l := &Lookup{
		svc:       s,
		id:        uuid.NewString(),
		search:    NewSearchClient(sess, s.engine, s.cfg, s.logger),
		docs:      NewDocumentClient(sess, s.engine, s.cfg, s.logger),
		documents: make(map[string]*models.Document),
	}
	if s.extractor != nil {
		l.checker = NewReliabilityChecker(s.extractor, s.cfg.ReliabilityPages, s.logger)
	}
	return l, nil
}

// Info is the canonical-record view of one query.
type Info struct {
	Query     string
	Result    models.SearchResult
	Selection Selection
	// Record is nil when nothing was selected.
	Record *models.CanonicalRecord
}

func (i Info) Found() bool {
	return i.Record != nil
}

// Lookup is one logical registry conversation. It caches downloaded
// documents by token for its lifetime.
type Lookup struct {
	svc       *Service
	id        string
	search    *SearchClient
	docs      *DocumentClient
	checker   *ReliabilityChecker
	documents map[string]*models.Document
}

// ID identifies the lookup in logs and audit events.
func (l *Lookup) ID() string {
	return l.id
}

func (l *Lookup) context(ctx context.Context) context.Context {
	return requestcontext.WithLookupID(ctx, l.id)
}

// Search returns every row the registry holds for query.
func (l *Lookup) Search(ctx context.Context, query string) models.SearchResult {
	ctx = l.context(ctx)
	ctx, span := l.svc.tracer.Start(ctx, "registry.Search")
	defer span.End()

	result := l.search.Search(ctx, query)
	span.SetAttributes(attribute.Int("registry.rows", len(result.Rows)))
	l.emit(ctx, audit.ActionRegistrySearch, query, searchOutcome(result), result.Reason)
	return result
}

// Info searches for query and normalizes the selected row.
func (l *Lookup) Info(ctx context.Context, query string) Info {
	ctx = l.context(ctx)
	ctx, span := l.svc.tracer.Start(ctx, "registry.Info")
	defer span.End()

	info := Info{Query: query}
	info.Result = l.search.Search(ctx, query)
	info.Selection = Choose(info.Result)

	if info.Selection.Ambiguous() {
		l.svc.logger.WarnContext(ctx, "more than one active record, choosing the first",
			"active", info.Selection.ActiveCount,
			"total", info.Selection.Total,
		)
	}

	outcome := searchOutcome(info.Result)
	if info.Selection.Found {
		record, err := Normalize(info.Selection.Record)
		if err != nil {
			l.svc.logger.WarnContext(ctx, "record normalized with problems",
				"kind", string(record.Kind),
				"error", err,
			)
		}
		info.Record = &record
		outcome = "found"
	}
	span.SetAttributes(attribute.String("registry.outcome", outcome))
	l.svc.metrics.IncrementLookup(outcome)
	l.emit(ctx, audit.ActionRegistryInfo, query, outcome, info.Result.Reason)
	return info
}

// Document returns the certificate for record, downloading it at most once
// per lookup and consulting the archive first.
func (l *Lookup) Document(ctx context.Context, record models.CanonicalRecord) *models.Document {
	ctx = l.context(ctx)
	token := record.DocumentToken
	if token == "" {
		return &models.Document{}
	}
	if doc, ok := l.documents[token]; ok {
		return doc
	}

	ctx, span := l.svc.tracer.Start(ctx, "registry.Document")
	defer span.End()

	if doc := l.fromArchive(ctx, token); doc != nil {
		l.documents[token] = doc
		span.SetAttributes(attribute.Bool("registry.archived", true))
		return doc
	}

	doc := l.docs.Fetch(ctx, token)
	outcome := "empty"
	if doc.Loaded {
		outcome = "loaded"
		l.documents[token] = doc
		if l.svc.archive != nil {
			if err := l.svc.archive.Save(ctx, doc); err != nil {
				l.svc.logger.ErrorContext(ctx, "failed to archive document", "error", err)
			}
		}
	}
	l.emit(ctx, audit.ActionDocumentFetched, subjectOf(record), outcome, "")
	return doc
}

// VerifyReliability fetches the certificate if needed and returns a copy of
// record with IsReliable set.
func (l *Lookup) VerifyReliability(ctx context.Context, record models.CanonicalRecord) models.CanonicalRecord {
	ctx = l.context(ctx)
	if l.checker == nil {
		l.svc.logger.WarnContext(ctx, "no text extractor configured, reliability unknown")
		record.IsReliable = models.ReliabilityUnknown
		return record
	}
	doc := l.Document(ctx, record)
	record.IsReliable = l.checker.Check(ctx, record, doc)
	l.emit(ctx, audit.ActionReliabilityChecked, subjectOf(record), record.IsReliable.String(), "")
	return record
}

func (l *Lookup) fromArchive(ctx context.Context, token string) *models.Document {
	a := l.svc.archive
	if a == nil {
		return nil
	}
	doc, err := a.Find(ctx, token)
	switch {
	case err == nil:
		l.svc.metrics.IncrementArchiveRead(a.Name(), "hit")
		return doc
	case errors.Is(err, archive.ErrNotFound):
		l.svc.metrics.IncrementArchiveRead(a.Name(), "miss")
	default:
		l.svc.metrics.IncrementArchiveRead(a.Name(), "error")
		l.svc.logger.WarnContext(ctx, "document archive read failed", "backend", a.Name(), "error", err)
	}
	return nil
}

func (l *Lookup) emit(ctx context.Context, action audit.Action, subject, outcome, detail string) {
	if l.svc.auditor == nil {
		return
	}
	err := l.svc.auditor.Emit(ctx, audit.Event{
		Action:      action,
		SubjectHash: audit.HashSubject(subject),
		Outcome:     outcome,
		RequestID:   requestcontext.RequestID(ctx),
		LookupID:    l.id,
		Detail:      detail,
	})
	if err != nil {
		l.svc.logger.WarnContext(ctx, "failed to emit audit event", "action", action, "error", err)
	}
}

func searchOutcome(r models.SearchResult) string {
	switch {
	case r.Failed:
		return "failed"
	case r.ZeroTotal, r.Empty():
		return "not_found"
	default:
		return "found"
	}
}

func subjectOf(record models.CanonicalRecord) string {
	if record.TaxID != "" {
		return record.TaxID
	}
	return record.DocumentToken
}
