package httpserver

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/pscheid92/sportz/internal/adapter/metrics"
	"github.com/pscheid92/sportz/internal/app"
	"github.com/pscheid92/sportz/internal/domain"
	"github.com/pscheid92/sportz/internal/platform/config"
)

type appService interface {
	CreateMatch(ctx context.Context, in app.CreateMatchInput) (*domain.Match, error)
	ListMatches(ctx context.Context, limit int) ([]domain.Match, error)
	CreateCommentary(ctx context.Context, matchID int64, in app.CreateCommentaryInput) (*domain.Commentary, error)
	ListCommentary(ctx context.Context, matchID int64, limit int) ([]domain.Commentary, error)
}

// wsUpgrader admits and upgrades a WebSocket request. clientIP is the
// proxy-aware address used for connection limits.
type wsUpgrader interface {
	Serve(w http.ResponseWriter, r *http.Request, clientIP string)
}

type Server struct {
	echo   *echo.Echo
	config *config.Config

	app       appService
	websocket wsUpgrader

	registry     *prometheus.Registry
	httpMetrics  *metrics.HTTPMetrics
	healthChecks []HealthCheck
	startTime    time.Time
}

func NewServer(cfg *config.Config, app appService, websocket wsUpgrader, registry *prometheus.Registry, httpMetrics *metrics.HTTPMetrics, healthChecks []HealthCheck) *Server {
	srv := &Server{
		echo:         newEcho(cfg),
		config:       cfg,
		app:          app,
		websocket:    websocket,
		registry:     registry,
		httpMetrics:  httpMetrics,
		healthChecks: healthChecks,
		startTime:    time.Now(),
	}

	srv.registerRoutes()

	return srv
}

// newEcho builds the echo instance. Client IPs come from the socket address
// unless TRUST_PROXY is set, in which case X-Forwarded-For is honored when the
// peer is a loopback or private-network proxy. Per-IP limits depend on this.
func newEcho(cfg *config.Config) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	if cfg.TrustProxy {
		e.IPExtractor = echo.ExtractIPFromXFFHeader()
	} else {
		e.IPExtractor = echo.ExtractIPDirect()
	}
	return e
}

func (s *Server) Start() error {
	slog.Info("Starting server", "port", s.config.Port)
	if err := s.echo.Start(":" + s.config.Port); err != nil {
		return fmt.Errorf("failed to start server: %w", err)
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	if err := s.echo.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shutdown server: %w", err)
	}
	return nil
}

// ServeHTTP lets tests drive the full middleware chain.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.echo.ServeHTTP(w, r)
}

func (s *Server) handleWebSocket(c echo.Context) error {
	s.websocket.Serve(c.Response(), c.Request(), c.RealIP())
	return nil
}
