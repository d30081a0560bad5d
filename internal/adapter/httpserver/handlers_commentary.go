package httpserver

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/pscheid92/sportz/internal/app"
	apperrors "github.com/pscheid92/sportz/internal/platform/errors"
)

type createCommentaryRequest struct {
	Minute    *int           `json:"minute"`
	Sequence  *int           `json:"sequence"`
	Period    string         `json:"period"`
	EventType string         `json:"eventType"`
	Actor     string         `json:"actor"`
	Team      string         `json:"team"`
	Message   string         `json:"message"`
	Metadata  map[string]any `json:"metadata"`
	Tags      []string       `json:"tags"`
}

func (r createCommentaryRequest) toInput() (app.CreateCommentaryInput, error) {
	if r.Minute == nil {
		return app.CreateCommentaryInput{}, apperrors.FieldError("minute", "minute is required")
	}
	if r.Sequence == nil {
		return app.CreateCommentaryInput{}, apperrors.FieldError("sequence", "sequence is required")
	}
	return app.CreateCommentaryInput{
		Minute:    *r.Minute,
		Sequence:  *r.Sequence,
		Period:    r.Period,
		EventType: r.EventType,
		Actor:     r.Actor,
		Team:      r.Team,
		Message:   r.Message,
		Metadata:  r.Metadata,
		Tags:      r.Tags,
	}, nil
}

func (s *Server) handleListCommentary(c echo.Context) error {
	matchID, err := parseMatchID(c)
	if err != nil {
		return err
	}
	limit, err := parseLimit(c)
	if err != nil {
		return err
	}

	entries, err := s.app.ListCommentary(c.Request().Context(), matchID, limit)
	if err != nil {
		return fmt.Errorf("failed to list commentary for match %d: %w", matchID, err)
	}

	if err := c.JSON(http.StatusOK, dataResponse{Data: entries}); err != nil {
		return fmt.Errorf("failed to send JSON response: %w", err)
	}
	return nil
}

func (s *Server) handleCreateCommentary(c echo.Context) error {
	matchID, err := parseMatchID(c)
	if err != nil {
		return err
	}

	var req createCommentaryRequest
	if err := bindBody(c, &req); err != nil {
		return err
	}
	in, err := req.toInput()
	if err != nil {
		return err
	}

	entry, err := s.app.CreateCommentary(c.Request().Context(), matchID, in)
	if err != nil {
		return err
	}

	if err := c.JSON(http.StatusCreated, dataResponse{Data: entry}); err != nil {
		return fmt.Errorf("failed to send JSON response: %w", err)
	}
	return nil
}
