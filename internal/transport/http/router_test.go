package httptransport

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"egrul/internal/individual"
	"egrul/internal/platform/metrics"
	"egrul/internal/polling"
	"egrul/internal/registry"
	"egrul/internal/registry/archive"
	"egrul/internal/registry/registrytest"
	"egrul/internal/transport/http/mocks"
	"egrul/internal/transport/session"
)

type markerExtractor struct{}

func (markerExtractor) ExtractText(content []byte, _ int) (string, error) {
	return string(content), nil
}

// =============================================================================
// Router Test Suite
// =============================================================================

type RouterSuite struct {
	suite.Suite
	fake        *registrytest.Server
	ctrl        *gomock.Controller
	individuals *mocks.MockIndividuals
	registry    *prometheus.Registry
	router      http.Handler
}

func TestRouterSuite(t *testing.T) {
	suite.Run(t, new(RouterSuite))
}

func (s *RouterSuite) SetupTest() {
	s.fake = registrytest.New()
	s.fake.AddRows("7802182340", map[string]any{
		"k": "ul",
		"t": "DOC-1",
		"n": `ОБЩЕСТВО С ОГРАНИЧЕННОЙ ОТВЕТСТВЕННОСТЬЮ "СПЕЦСТРОЙ"`,
		"g": "Директор: Иванов Иван Иванович, Президент: Петров Петр Петрович",
		"i": "7802182340",
	})
	s.fake.AddRows("СПЕЦСТРОЙ",
		map[string]any{"k": "ul", "t": "A", "i": "1"},
		map[string]any{"k": "ul", "t": "B", "i": "2", "e": "01.01.2020"},
	)
	s.fake.AddDocument("DOC-1", []byte("%PDF-1.4 Сведения недостоверны"))

	s.ctrl = gomock.NewController(s.T())
	s.individuals = mocks.NewMockIndividuals(s.ctrl)
	s.registry = prometheus.NewRegistry()
	m := metrics.NewWithRegistry(s.registry)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	service := registry.NewService(
		session.NewFactory(session.Config{Timeout: 5 * time.Second}),
		registry.WithConfig(registry.Config{BaseURL: s.fake.URL, MaxAttempts: 2}),
		registry.WithEngine(polling.New(polling.WithSleeper(polling.SleeperFunc(func(context.Context, time.Duration) error { return nil })))),
		registry.WithArchive(archive.NewInMemoryArchive(time.Hour)),
		registry.WithExtractor(markerExtractor{}),
		registry.WithLogger(logger),
	)
	handler := NewHandler(service, s.individuals, logger,
		WithMetrics(m),
		WithLookupTimeout(time.Minute),
		WithHealthCheck("archive", func(context.Context) error { return nil }),
	)
	s.router = NewRouter(handler, s.registry)
}

func (s *RouterSuite) TearDownTest() {
	s.fake.Close()
	s.ctrl.Finish()
}

func (s *RouterSuite) do(method, target string, body io.Reader) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, body)
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func (s *RouterSuite) decode(w *httptest.ResponseRecorder) map[string]any {
	var out map[string]any
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

// =============================================================================
// Registry endpoints
// =============================================================================

func (s *RouterSuite) TestGetEntity() {
	w := s.do(http.MethodGet, "/v1/entities/7802182340", nil)

	s.Require().Equal(http.StatusOK, w.Code, w.Body.String())
	s.NotEmpty(w.Header().Get("X-Request-ID"))
	body := s.decode(w)
	record := body["record"].(map[string]any)
	s.Equal("legal_entity", record["kind"])
	s.Equal("Директор", record["position"])
	s.Equal(float64(2), record["director_count"])
	s.Equal("unknown", record["is_reliable"])
	s.NotContains(record, "DocumentToken")
	s.Len(record["directors"], 2)
}

func (s *RouterSuite) TestGetEntityWithReliability() {
	w := s.do(http.MethodGet, "/v1/entities/7802182340?reliability=true", nil)

	s.Require().Equal(http.StatusOK, w.Code)
	record := s.decode(w)["record"].(map[string]any)
	s.Equal("unreliable", record["is_reliable"])
}

func (s *RouterSuite) TestGetEntityNotFound() {
	w := s.do(http.MethodGet, "/v1/entities/0000000000", nil)

	s.Equal(http.StatusNotFound, w.Code)
	s.Equal("not_found", s.decode(w)["error"])
}

func (s *RouterSuite) TestGetEntityUpstreamFailure() {
	s.fake.Close()

	w := s.do(http.MethodGet, "/v1/entities/7802182340", nil)

	s.Equal(http.StatusBadGateway, w.Code)
	s.Equal("upstream_failed", s.decode(w)["error"])
}

func (s *RouterSuite) TestSearch() {
	s.Run("rows", func() {
		w := s.do(http.MethodGet, "/v1/search?q="+url.QueryEscape("СПЕЦСТРОЙ"), nil)
		s.Require().Equal(http.StatusOK, w.Code)
		body := s.decode(w)
		s.Len(body["rows"], 2)
		s.Equal(float64(2), body["total"])
	})

	s.Run("zero total", func() {
		w := s.do(http.MethodGet, "/v1/search?q=nothing", nil)
		s.Require().Equal(http.StatusOK, w.Code)
		body := s.decode(w)
		s.Equal(true, body["zero_total"])
		s.Empty(body["rows"])
	})

	s.Run("missing query", func() {
		w := s.do(http.MethodGet, "/v1/search?q=%20", nil)
		s.Equal(http.StatusBadRequest, w.Code)
	})
}

func (s *RouterSuite) TestDocument() {
	w := s.do(http.MethodGet, "/v1/entities/7802182340/document", nil)

	s.Require().Equal(http.StatusOK, w.Code)
	s.Equal("application/pdf", w.Header().Get("Content-Type"))
	s.Contains(w.Header().Get("Content-Disposition"), "7802182340.pdf")
	s.True(bytes.HasPrefix(w.Body.Bytes(), []byte("%PDF-1.4")))
}

func (s *RouterSuite) TestDocumentUnavailable() {
	s.fake.AddRows("1234567890", map[string]any{"k": "ul", "t": "MISSING", "g": "Директор: Кто-то", "i": "1234567890"})

	w := s.do(http.MethodGet, "/v1/entities/1234567890/document", nil)

	s.Equal(http.StatusBadGateway, w.Code)
	s.Equal("document_unavailable", s.decode(w)["error"])
}

func (s *RouterSuite) TestReliability() {
	w := s.do(http.MethodGet, "/v1/entities/7802182340/reliability", nil)

	s.Require().Equal(http.StatusOK, w.Code)
	body := s.decode(w)
	s.Equal("unreliable", body["is_reliable"])
	s.Equal(true, body["checked"])
	s.Equal("7802182340", body["tax_id"])
}

func (s *RouterSuite) TestOpenFailure() {
	reg := mocks.NewMockRegistry(s.ctrl)
	reg.EXPECT().Open().Return(nil, errors.New("jar"))
	router := NewRouter(NewHandler(reg, nil, slog.New(slog.NewTextHandler(io.Discard, nil))), prometheus.NewRegistry())

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/v1/entities/7802182340", nil))

	s.Equal(http.StatusInternalServerError, w.Code)
}

// =============================================================================
// Individual tax ID endpoint
// =============================================================================

func (s *RouterSuite) findINNBody(extra map[string]any) io.Reader {
	body := map[string]any{
		"surname":         "Иванов",
		"given_name":      "Иван",
		"patronymic":      "Иванович",
		"birth_date":      "01.01.1980",
		"document_type":   "passport_russia",
		"document_number": "4009950176",
		"document_date":   "15.02.2005",
	}
	for k, v := range extra {
		body[k] = v
	}
	raw, err := json.Marshal(body)
	s.Require().NoError(err)
	return bytes.NewReader(raw)
}

func (s *RouterSuite) TestFindINN() {
	s.individuals.EXPECT().
		FindINN(gomock.Any(), gomock.Cond(func(id individual.Identity) bool {
			return id.DocumentNumber == "40 09 950176" && id.Surname == "Иванов"
		})).
		Return(individual.Result{INN: "772012345678", RequestID: "R1", Outcome: polling.OutcomeReady}, nil)

	w := s.do(http.MethodPost, "/v1/individuals/inn", s.findINNBody(nil))

	s.Require().Equal(http.StatusOK, w.Code, w.Body.String())
	body := s.decode(w)
	s.Equal("772012345678", body["inn"])
	s.Equal(true, body["found"])
	s.Equal("ready", body["outcome"])
}

func (s *RouterSuite) TestFindINNLegacy() {
	s.individuals.EXPECT().
		FindINNLegacy(gomock.Any(), gomock.Any()).
		Return(individual.Result{Outcome: polling.OutcomeReady}, nil)

	w := s.do(http.MethodPost, "/v1/individuals/inn", s.findINNBody(map[string]any{"legacy": true}))

	s.Require().Equal(http.StatusOK, w.Code)
	s.Equal(false, s.decode(w)["found"])
}

func (s *RouterSuite) TestFindINNErrors() {
	s.Run("unknown document type", func() {
		s.individuals.EXPECT().FindINN(gomock.Any(), gomock.Any()).
			Return(individual.Result{}, individual.ErrUnknownDocumentType)
		w := s.do(http.MethodPost, "/v1/individuals/inn", s.findINNBody(map[string]any{"document_type": "visa"}))
		s.Equal(http.StatusBadRequest, w.Code)
	})

	s.Run("missing fields", func() {
		w := s.do(http.MethodPost, "/v1/individuals/inn", strings.NewReader(`{"surname":"Иванов"}`))
		s.Equal(http.StatusBadRequest, w.Code)
		s.Contains(s.decode(w)["error_description"], "birth_date")
	})

	s.Run("unknown field", func() {
		w := s.do(http.MethodPost, "/v1/individuals/inn", s.findINNBody(map[string]any{"ssn": "1"}))
		s.Equal(http.StatusBadRequest, w.Code)
	})

	s.Run("upstream failure", func() {
		s.individuals.EXPECT().FindINN(gomock.Any(), gomock.Any()).
			Return(individual.Result{
				Outcome: polling.OutcomeFailed,
				Err:     polling.RemoteStatus("individual.find", http.StatusBadGateway, ""),
			}, nil)
		w := s.do(http.MethodPost, "/v1/individuals/inn", s.findINNBody(nil))
		s.Equal(http.StatusBadGateway, w.Code)
		s.Equal("remote_status", s.decode(w)["category"])
	})
}

// =============================================================================
// Operational endpoints
// =============================================================================

func (s *RouterSuite) TestHealth() {
	w := s.do(http.MethodGet, "/healthz", nil)
	s.Require().Equal(http.StatusOK, w.Code)
	s.Equal("ok", s.decode(w)["status"])
}

func (s *RouterSuite) TestMetricsExposesLatency() {
	s.do(http.MethodGet, "/healthz", nil)

	w := s.do(http.MethodGet, "/metrics", nil)

	s.Require().Equal(http.StatusOK, w.Code)
	s.Contains(w.Body.String(), "egrul_http_request_duration_seconds")
}

func (s *RouterSuite) TestUnknownRouteAndMethod() {
	s.Equal(http.StatusNotFound, s.do(http.MethodGet, "/v2/nothing", nil).Code)
	s.Equal(http.StatusMethodNotAllowed, s.do(http.MethodDelete, "/v1/individuals/inn", nil).Code)
}
