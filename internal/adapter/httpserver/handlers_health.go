package httpserver

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
	"golang.org/x/sync/errgroup"

	"github.com/pscheid92/sportz/internal/platform/version"
)

const (
	startupProbeTimeout   = 2 * time.Second
	readinessProbeTimeout = 5 * time.Second

	checkPassed = "ok"
)

// HealthCheck is a named dependency check, e.g. "postgres" or "redis".
type HealthCheck struct {
	Name  string
	Check func(ctx context.Context) error
}

type readinessResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

func (s *Server) registerHealthRoutes() {
	s.echo.GET("/health/startup", s.handleStartup)
	s.echo.GET("/health/live", s.handleLiveness)
	s.echo.GET("/health/ready", s.handleReadiness)
	s.echo.GET("/version", s.handleVersion)
}

func (s *Server) handleStartup(c echo.Context) error {
	return s.respondReadiness(c, startupProbeTimeout)
}

func (s *Server) handleReadiness(c echo.Context) error {
	return s.respondReadiness(c, readinessProbeTimeout)
}

// handleLiveness never touches dependencies; a database outage must not get
// the process restarted.
func (s *Server) handleLiveness(c echo.Context) error {
	response := map[string]any{
		"status": "ok",
		"uptime": time.Since(s.startTime).Seconds(),
	}
	if err := c.JSON(http.StatusOK, response); err != nil {
		return fmt.Errorf("failed to write liveness response: %w", err)
	}
	return nil
}

func (s *Server) respondReadiness(c echo.Context, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), timeout)
	defer cancel()

	results, healthy := s.runHealthChecks(ctx)

	status, code := "ready", http.StatusOK
	if !healthy {
		status, code = "unhealthy", http.StatusServiceUnavailable
	}
	if err := c.JSON(code, readinessResponse{Status: status, Checks: results}); err != nil {
		return fmt.Errorf("failed to write readiness response: %w", err)
	}
	return nil
}

// runHealthChecks probes every dependency concurrently and reports each by
// name, so one slow backend does not hide the state of the others.
func (s *Server) runHealthChecks(ctx context.Context) (map[string]string, bool) {
	var mu sync.Mutex
	results := make(map[string]string, len(s.healthChecks))
	healthy := true

	var g errgroup.Group
	for _, hc := range s.healthChecks {
		g.Go(func() error {
			err := hc.Check(ctx)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				results[hc.Name] = err.Error()
				healthy = false
			} else {
				results[hc.Name] = checkPassed
			}
			return nil
		})
	}
	_ = g.Wait()

	return results, healthy
}

func (s *Server) handleVersion(c echo.Context) error {
	if err := c.JSON(http.StatusOK, version.Get()); err != nil {
		return fmt.Errorf("failed to write version response: %w", err)
	}
	return nil
}
