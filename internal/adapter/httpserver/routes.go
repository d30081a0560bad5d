package httpserver

import (
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/pscheid92/sportz/internal/adapter/metrics"
)

const welcomeText = "Welcome to the Sportz API"

func (s *Server) registerRoutes() {
	s.echo.Use(correlationMiddleware)
	s.echo.Use(s.setupRequestLoggerMiddleware())
	s.echo.Use(middleware.Recover())
	if s.httpMetrics != nil {
		s.echo.Use(s.httpMetrics.Middleware())
	}
	s.echo.Use(ErrorHandlingMiddleware())
	s.echo.Use(middleware.SecureWithConfig(middleware.SecureConfig{
		XSSProtection:         "",
		ContentTypeNosniff:    "nosniff",
		XFrameOptions:         "DENY",
		HSTSMaxAge:            63072000, // 2 years; only sent over HTTPS
		HSTSPreloadEnabled:    true,
		ContentSecurityPolicy: "default-src 'none'; frame-ancestors 'none'",
		ReferrerPolicy:        "strict-origin-when-cross-origin",
	}))

	s.echo.GET("/", s.handleWelcome)

	s.registerHealthRoutes()
	s.registerMatchRoutes()

	if s.registry != nil {
		s.echo.GET("/metrics", echo.WrapHandler(metrics.Handler(s.registry)))
	}

	s.echo.GET("/ws", s.handleWebSocket)
}

func (s *Server) registerMatchRoutes() {
	var mw []echo.MiddlewareFunc
	if s.config.APIRateLimit > 0 {
		mw = append(mw, newRateLimiter(s.config.APIRateLimit, s.config.APIRateBurst))
	}

	matches := s.echo.Group("/matches", mw...)
	matches.GET("", s.handleListMatches)
	matches.POST("", s.handleCreateMatch)
	matches.GET("/:id/commentary", s.handleListCommentary)
	matches.POST("/:id/commentary", s.handleCreateCommentary)
}

func (s *Server) handleWelcome(c echo.Context) error {
	return c.String(http.StatusOK, welcomeText)
}

func (s *Server) setupRequestLoggerMiddleware() echo.MiddlewareFunc {
	return middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogStatus:  true,
		LogURI:     true,
		LogMethod:  true,
		LogLatency: true,
		LogError:   true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			attrs := []any{
				"method", v.Method,
				"uri", v.URI,
				"status", v.Status,
				"latency", v.Latency,
			}
			if v.Error != nil {
				attrs = append(attrs, "error", v.Error)
			}
			slog.InfoContext(c.Request().Context(), "Request", attrs...)
			return nil
		},
	})
}
