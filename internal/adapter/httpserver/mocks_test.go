package httpserver

import (
	"context"
	"net/http"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/pscheid92/sportz/internal/adapter/metrics"
	"github.com/pscheid92/sportz/internal/app"
	"github.com/pscheid92/sportz/internal/domain"
	"github.com/pscheid92/sportz/internal/platform/config"
)

type mockAppService struct {
	createMatchFn      func(ctx context.Context, in app.CreateMatchInput) (*domain.Match, error)
	listMatchesFn      func(ctx context.Context, limit int) ([]domain.Match, error)
	createCommentaryFn func(ctx context.Context, matchID int64, in app.CreateCommentaryInput) (*domain.Commentary, error)
	listCommentaryFn   func(ctx context.Context, matchID int64, limit int) ([]domain.Commentary, error)
}

func (m *mockAppService) CreateMatch(ctx context.Context, in app.CreateMatchInput) (*domain.Match, error) {
	if m.createMatchFn != nil {
		return m.createMatchFn(ctx, in)
	}
	return &domain.Match{ID: 1}, nil
}

func (m *mockAppService) ListMatches(ctx context.Context, limit int) ([]domain.Match, error) {
	if m.listMatchesFn != nil {
		return m.listMatchesFn(ctx, limit)
	}
	return []domain.Match{}, nil
}

func (m *mockAppService) CreateCommentary(ctx context.Context, matchID int64, in app.CreateCommentaryInput) (*domain.Commentary, error) {
	if m.createCommentaryFn != nil {
		return m.createCommentaryFn(ctx, matchID, in)
	}
	return &domain.Commentary{ID: 1, MatchID: matchID}, nil
}

func (m *mockAppService) ListCommentary(ctx context.Context, matchID int64, limit int) ([]domain.Commentary, error) {
	if m.listCommentaryFn != nil {
		return m.listCommentaryFn(ctx, matchID, limit)
	}
	return []domain.Commentary{}, nil
}

// recordingUpgrader stands in for the hub and answers 418, so routing can be
// asserted without a handshake.
type recordingUpgrader struct {
	calls    int
	clientIP string
}

func (u *recordingUpgrader) Serve(w http.ResponseWriter, _ *http.Request, clientIP string) {
	u.calls++
	u.clientIP = clientIP
	w.WriteHeader(http.StatusTeapot)
}

func newTestServer(t *testing.T, app appService, opts ...func(*Server)) *Server {
	t.Helper()

	srv := &Server{
		config:    &config.Config{Port: "0"},
		app:       app,
		websocket: &recordingUpgrader{},
	}

	for _, opt := range opts {
		opt(srv)
	}

	srv.echo = newEcho(srv.config)

	srv.registerRoutes()
	return srv
}

func withHealthChecks(checks ...HealthCheck) func(*Server) {
	return func(s *Server) {
		s.healthChecks = checks
	}
}

func withUpgrader(u wsUpgrader) func(*Server) {
	return func(s *Server) {
		s.websocket = u
	}
}

func withMetrics(reg *prometheus.Registry) func(*Server) {
	return func(s *Server) {
		s.registry = reg
		s.httpMetrics = metrics.NewHTTPMetrics(reg)
	}
}

func withTrustedProxy() func(*Server) {
	return func(s *Server) {
		s.config.TrustProxy = true
	}
}

func withAPIRateLimit(ratePerSecond float64, burst int) func(*Server) {
	return func(s *Server) {
		s.config.APIRateLimit = ratePerSecond
		s.config.APIRateBurst = burst
	}
}

// callHandler wraps a handler with error middleware, matching production behavior
func callHandler(handler echo.HandlerFunc, c echo.Context) error {
	return ErrorHandlingMiddleware()(handler)(c)
}

func jsonBody(s string) *strings.Reader {
	return strings.NewReader(s)
}
