package httpserver

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/pscheid92/sportz/internal/app"
	apperrors "github.com/pscheid92/sportz/internal/platform/errors"
)

type createMatchRequest struct {
	Sport     string `json:"sport"`
	HomeTeam  string `json:"homeTeam"`
	AwayTeam  string `json:"awayTeam"`
	StartTime string `json:"startTime"`
	EndTime   string `json:"endTime"`
	HomeScore *int   `json:"homeScore"`
	AwayScore *int   `json:"awayScore"`
}

func (r createMatchRequest) toInput() (app.CreateMatchInput, error) {
	start, err := parseTimestamp("startTime", r.StartTime)
	if err != nil {
		return app.CreateMatchInput{}, err
	}
	end, err := parseTimestamp("endTime", r.EndTime)
	if err != nil {
		return app.CreateMatchInput{}, err
	}

	in := app.CreateMatchInput{
		Sport:     r.Sport,
		HomeTeam:  r.HomeTeam,
		AwayTeam:  r.AwayTeam,
		StartTime: start,
		EndTime:   end,
	}
	if r.HomeScore != nil {
		in.HomeScore = *r.HomeScore
	}
	if r.AwayScore != nil {
		in.AwayScore = *r.AwayScore
	}
	return in, nil
}

type dataResponse struct {
	Data any `json:"data"`
}

func (s *Server) handleListMatches(c echo.Context) error {
	limit, err := parseLimit(c)
	if err != nil {
		return err
	}

	matches, err := s.app.ListMatches(c.Request().Context(), limit)
	if err != nil {
		return apperrors.InternalError("failed to list matches", err)
	}

	if err := c.JSON(http.StatusOK, dataResponse{Data: matches}); err != nil {
		return fmt.Errorf("failed to send JSON response: %w", err)
	}
	return nil
}

func (s *Server) handleCreateMatch(c echo.Context) error {
	var req createMatchRequest
	if err := bindBody(c, &req); err != nil {
		return err
	}

	in, err := req.toInput()
	if err != nil {
		return err
	}

	match, err := s.app.CreateMatch(c.Request().Context(), in)
	if err != nil {
		return err
	}

	if err := c.JSON(http.StatusCreated, dataResponse{Data: match}); err != nil {
		return fmt.Errorf("failed to send JSON response: %w", err)
	}
	return nil
}

// bindBody decodes the JSON request body. Echo's binder errors are turned into
// validation errors so every 400 shares one response shape.
func bindBody(c echo.Context, dst any) error {
	binder := &echo.DefaultBinder{}
	if err := binder.BindBody(c, dst); err != nil {
		return apperrors.ValidationError("invalid JSON body").WithField("cause", bindCause(err))
	}
	return nil
}

func bindCause(err error) string {
	var httpErr *echo.HTTPError
	if errors.As(err, &httpErr) {
		if msg, ok := httpErr.Message.(string); ok {
			return msg
		}
	}
	return err.Error()
}

// parseLimit reads the optional limit query parameter. Zero means "use the default".
func parseLimit(c echo.Context) (int, error) {
	raw := c.QueryParam("limit")
	if raw == "" {
		return 0, nil
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit <= 0 || limit > app.MaxListLimit {
		return 0, apperrors.FieldError("limit", fmt.Sprintf("limit must be a positive integer no greater than %d", app.MaxListLimit)).
			WithField("value", raw)
	}
	return limit, nil
}

func parseMatchID(c echo.Context) (int64, error) {
	raw := c.Param("id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, apperrors.FieldError("id", "match id must be a positive integer").WithField("value", raw)
	}
	return id, nil
}

func parseTimestamp(field, raw string) (time.Time, error) {
	if raw == "" {
		return time.Time{}, apperrors.FieldError(field, field+" is required")
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, apperrors.FieldError(field, field+" must be an RFC 3339 timestamp").WithField("value", raw)
	}
	return t, nil
}
