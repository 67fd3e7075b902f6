package registry

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"egrul/internal/polling"
	"egrul/internal/transport/session"
	"egrul/internal/transport/session/mocks"
)

const testBase = "https://registry.test"

func jsonResponse(status int, body string) *session.Response {
	return &session.Response{StatusCode: status, Body: []byte(body)}
}

// =============================================================================
// Search Client Test Suite
// =============================================================================

type SearchClientSuite struct {
	suite.Suite
	ctrl    *gomock.Controller
	session *mocks.MockSession
	sleeps  []time.Duration
	client  *SearchClient
}

func TestSearchClientSuite(t *testing.T) {
	suite.Run(t, new(SearchClientSuite))
}

func (s *SearchClientSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.session = mocks.NewMockSession(s.ctrl)
	s.sleeps = nil
	engine := polling.New(polling.WithSleeper(polling.SleeperFunc(func(_ context.Context, d time.Duration) error {
		s.sleeps = append(s.sleeps, d)
		return nil
	})))
	s.client = NewSearchClient(s.session, engine, Config{
		BaseURL:     testBase + "/",
		MaxAttempts: 3,
		BackoffUnit: 10 * time.Second,
		SearchDelay: time.Second,
	}, nil)
}

func (s *SearchClientSuite) TearDownTest() {
	s.ctrl.Finish()
}

func (s *SearchClientSuite) expectSubmit(resp *session.Response, err error) *gomock.Call {
	return s.session.EXPECT().
		Post(gomock.Any(), testBase+"/", url.Values{"query": {"7802182340"}}).
		Return(resp, err)
}

func (s *SearchClientSuite) expectPoll(resp *session.Response, err error) *gomock.Call {
	return s.session.EXPECT().
		Get(gomock.Any(), testBase+"/search-result/tok").
		Return(resp, err)
}

func (s *SearchClientSuite) TestWaitThenRows() {
	gomock.InOrder(
		s.expectSubmit(jsonResponse(http.StatusOK, `{"t":"tok","captchaRequired":false}`), nil),
		s.expectPoll(jsonResponse(http.StatusOK, `{"status":"wait"}`), nil),
		s.expectPoll(jsonResponse(http.StatusOK, `{"rows":[{"k":"ul","i":"7802182340","t":"DOC","tot":"1"}]}`), nil),
	)

	result := s.client.Search(context.Background(), "7802182340")

	s.False(result.Failed)
	s.False(result.ZeroTotal)
	s.Require().Len(result.Rows, 1, "single record stays a one-element list")
	s.Equal("DOC", result.Rows[0].Get("t"))
	s.Equal(1, result.Total)
	s.Equal([]time.Duration{time.Second, 10 * time.Second}, s.sleeps, "pre-delay then one poll backoff")
}

func (s *SearchClientSuite) TestSubmitCaptchaRetried() {
	gomock.InOrder(
		s.expectSubmit(jsonResponse(http.StatusBadRequest, `{"ERRORS":{"captchaSearch":["Требуется ввести цифры"]}}`), nil),
		s.expectSubmit(jsonResponse(http.StatusOK, `{"t":"tok","captchaRequired":true}`), nil),
		s.expectSubmit(jsonResponse(http.StatusOK, `{"t":"tok","captchaRequired":false}`), nil),
		s.expectPoll(jsonResponse(http.StatusOK, `{"rows":[{"i":"1"},{"i":"2","e":"01.01.2020"}]}`), nil),
	)

	result := s.client.Search(context.Background(), "7802182340")

	s.False(result.Failed)
	s.Len(result.Rows, 2)
	s.Len(result.Active(), 1)
	s.Equal([]time.Duration{time.Second, 10 * time.Second, 20 * time.Second}, s.sleeps)
}

func (s *SearchClientSuite) TestCaptchaExhaustion() {
	s.expectSubmit(jsonResponse(http.StatusOK, `{"captchaRequired":true}`), nil).Times(3)

	result := s.client.Search(context.Background(), "7802182340")

	s.True(result.Failed)
	s.Empty(result.Rows)
	s.Contains(result.Reason, "challenged")
}

func (s *SearchClientSuite) TestZeroTotalSentinel() {
	s.Run("single row with tot 0", func() {
		gomock.InOrder(
			s.expectSubmit(jsonResponse(http.StatusOK, `{"t":"tok","captchaRequired":false}`), nil),
			s.expectPoll(jsonResponse(http.StatusOK, `{"rows":[{"tot":0}]}`), nil),
		)
		result := s.client.Search(context.Background(), "7802182340")
		s.True(result.ZeroTotal)
		s.False(result.Failed)
		s.Empty(result.Rows)
	})

	s.Run("empty rows", func() {
		gomock.InOrder(
			s.expectSubmit(jsonResponse(http.StatusOK, `{"t":"tok","captchaRequired":false}`), nil),
			s.expectPoll(jsonResponse(http.StatusOK, `{"rows":[]}`), nil),
		)
		result := s.client.Search(context.Background(), "7802182340")
		s.True(result.ZeroTotal)
	})
}

func (s *SearchClientSuite) TestMissingRowsIsStructuralFailure() {
	gomock.InOrder(
		s.expectSubmit(jsonResponse(http.StatusOK, `{"t":"tok","captchaRequired":false}`), nil),
		s.expectPoll(jsonResponse(http.StatusOK, `{"status":"done"}`), nil),
	)

	result := s.client.Search(context.Background(), "7802182340")

	s.True(result.Failed)
	s.False(result.ZeroTotal)
	s.Contains(result.Reason, "rows")
}

func (s *SearchClientSuite) TestGarbledBodyIsStructuralFailure() {
	gomock.InOrder(
		s.expectSubmit(jsonResponse(http.StatusOK, `{"t":"tok","captchaRequired":false}`), nil),
		s.expectPoll(jsonResponse(http.StatusOK, `<html>oops</html>`), nil),
	)

	result := s.client.Search(context.Background(), "7802182340")
	s.True(result.Failed)
}

func (s *SearchClientSuite) TestSubmitFailuresAreTerminal() {
	s.Run("service unavailable", func() {
		s.expectSubmit(jsonResponse(http.StatusMethodNotAllowed, ``), nil).Times(1)
		result := s.client.Search(context.Background(), "7802182340")
		s.True(result.Failed)
		s.Contains(result.Reason, "status code 405")
	})

	s.Run("transport", func() {
		s.expectSubmit(nil, errors.New("connection reset")).Times(1)
		result := s.client.Search(context.Background(), "7802182340")
		s.True(result.Failed)
		s.Contains(result.Reason, "connection reset")
	})

	s.Run("no token", func() {
		s.expectSubmit(jsonResponse(http.StatusOK, `{"captchaRequired":false}`), nil).Times(1)
		result := s.client.Search(context.Background(), "7802182340")
		s.True(result.Failed)
		s.Contains(result.Reason, "token")
	})
}

func (s *SearchClientSuite) TestPollTransportFailureContinues() {
	gomock.InOrder(
		s.expectSubmit(jsonResponse(http.StatusOK, `{"t":"tok","captchaRequired":false}`), nil),
		s.expectPoll(nil, errors.New("timeout")),
		s.expectPoll(jsonResponse(http.StatusOK, `{"rows":[{"i":"1"}]}`), nil),
	)

	result := s.client.Search(context.Background(), "7802182340")
	s.False(result.Failed)
	s.Len(result.Rows, 1)
}

func (s *SearchClientSuite) TestPollNonSuccessIsTerminal() {
	gomock.InOrder(
		s.expectSubmit(jsonResponse(http.StatusOK, `{"t":"tok","captchaRequired":false}`), nil),
		s.expectPoll(jsonResponse(http.StatusInternalServerError, `{"message":"internal"}`), nil),
	)

	result := s.client.Search(context.Background(), "7802182340")
	s.True(result.Failed)
	s.Contains(result.Reason, "internal")
}

func (s *SearchClientSuite) TestWaitExhaustion() {
	gomock.InOrder(
		s.expectSubmit(jsonResponse(http.StatusOK, `{"t":"tok","captchaRequired":false}`), nil),
		s.expectPoll(jsonResponse(http.StatusOK, `{"status":"wait"}`), nil).Times(3),
	)

	result := s.client.Search(context.Background(), "7802182340")
	s.True(result.Failed)
	s.Contains(result.Reason, "waiting")
	s.Equal([]time.Duration{time.Second, 10 * time.Second, 20 * time.Second}, s.sleeps)
}
