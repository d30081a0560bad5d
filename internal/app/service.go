package app

import (
	"context"
	"fmt"
	"time"

	"github.com/jonboulle/clockwork"
	"golang.org/x/sync/singleflight"

	"github.com/pscheid92/sportz/internal/domain"
	apperrors "github.com/pscheid92/sportz/internal/platform/errors"
)

const (
	DefaultListLimit = 50
	MaxListLimit     = 100
)

// Service is the application layer. Writes persist first and broadcast only
// after the row exists; reads go through the list cache when one is configured.
type Service struct {
	matches     domain.MatchRepository
	commentary  domain.CommentaryRepository
	cache       domain.ListCache
	broadcaster domain.Broadcaster
	clock       clockwork.Clock
	listGroup   singleflight.Group
}

// NewService creates the application service. cache may be nil.
func NewService(matches domain.MatchRepository, commentary domain.CommentaryRepository, cache domain.ListCache, broadcaster domain.Broadcaster, clock clockwork.Clock) *Service {
	return &Service{
		matches:     matches,
		commentary:  commentary,
		cache:       cache,
		broadcaster: broadcaster,
		clock:       clock,
	}
}

type CreateMatchInput struct {
	Sport     string
	HomeTeam  string
	AwayTeam  string
	StartTime time.Time
	EndTime   time.Time
	HomeScore int
	AwayScore int
}

func (in CreateMatchInput) validate() error {
	if err := requireText(
		textField{"sport", in.Sport},
		textField{"homeTeam", in.HomeTeam},
		textField{"awayTeam", in.AwayTeam},
	); err != nil {
		return err
	}
	if !in.EndTime.After(in.StartTime) {
		return apperrors.FieldError("endTime", "endTime must be after startTime")
	}
	if in.HomeScore < 0 {
		return apperrors.FieldError("homeScore", "homeScore must be a non-negative integer")
	}
	if in.AwayScore < 0 {
		return apperrors.FieldError("awayScore", "awayScore must be a non-negative integer")
	}
	return nil
}

// CreateMatch persists a match with its status derived from the current time,
// then announces it to every connected client.
func (s *Service) CreateMatch(ctx context.Context, in CreateMatchInput) (*domain.Match, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	match, err := s.matches.Create(ctx, domain.NewMatch{
		Sport:     in.Sport,
		HomeTeam:  in.HomeTeam,
		AwayTeam:  in.AwayTeam,
		Status:    domain.MatchStatusAt(in.StartTime, in.EndTime, s.clock.Now()),
		StartTime: in.StartTime,
		EndTime:   in.EndTime,
		HomeScore: in.HomeScore,
		AwayScore: in.AwayScore,
	})
	if err != nil {
		return nil, fmt.Errorf("create match: %w", err)
	}

	if s.cache != nil {
		s.cache.InvalidateMatches(ctx)
	}
	s.broadcaster.BroadcastMatchCreated(*match)
	return match, nil
}

// ListMatches returns the newest matches first.
func (s *Service) ListMatches(ctx context.Context, limit int) ([]domain.Match, error) {
	limit = clampLimit(limit)

	if s.cache == nil {
		return s.listMatches(ctx, limit)
	}

	cached, version, ok := s.cache.GetMatches(ctx, limit)
	if ok {
		return cached, nil
	}

	key := fmt.Sprintf("matches:%d:%d", limit, version)
	v, err, _ := s.listGroup.Do(key, func() (any, error) {
		matches, err := s.listMatches(ctx, limit)
		if err != nil {
			return nil, err
		}
		s.cache.SetMatches(ctx, limit, version, matches)
		return matches, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]domain.Match), nil
}

func (s *Service) listMatches(ctx context.Context, limit int) ([]domain.Match, error) {
	matches, err := s.matches.List(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("list matches: %w", err)
	}
	if matches == nil {
		matches = []domain.Match{}
	}
	return matches, nil
}

type CreateCommentaryInput struct {
	Minute    int
	Sequence  int
	Period    string
	EventType string
	Actor     string
	Team      string
	Message   string
	Metadata  map[string]any
	Tags      []string
}

func (in CreateCommentaryInput) validate() error {
	if in.Minute < 0 {
		return apperrors.FieldError("minute", "minute must be a non-negative integer")
	}
	return requireText(
		textField{"period", in.Period},
		textField{"eventType", in.EventType},
		textField{"actor", in.Actor},
		textField{"team", in.Team},
		textField{"message", in.Message},
	)
}

// CreateCommentary persists an entry for matchID and delivers it to that
// match's subscribers. An unknown match yields domain.ErrMatchNotFound.
func (s *Service) CreateCommentary(ctx context.Context, matchID int64, in CreateCommentaryInput) (*domain.Commentary, error) {
	if matchID <= 0 {
		return nil, apperrors.FieldError("id", "match id must be a positive integer")
	}
	if err := in.validate(); err != nil {
		return nil, err
	}

	entry, err := s.commentary.Create(ctx, domain.NewCommentary{
		MatchID:   matchID,
		Minute:    in.Minute,
		Sequence:  in.Sequence,
		Period:    in.Period,
		EventType: in.EventType,
		Actor:     in.Actor,
		Team:      in.Team,
		Message:   in.Message,
		Metadata:  in.Metadata,
		Tags:      in.Tags,
	})
	if err != nil {
		return nil, fmt.Errorf("create commentary: %w", err)
	}

	if s.cache != nil {
		s.cache.InvalidateCommentary(ctx, matchID)
	}
	s.broadcaster.BroadcastCommentary(domain.TopicID(entry.MatchID), *entry)
	return entry, nil
}

// ListCommentary returns a match's newest entries first.
func (s *Service) ListCommentary(ctx context.Context, matchID int64, limit int) ([]domain.Commentary, error) {
	if matchID <= 0 {
		return nil, apperrors.FieldError("id", "match id must be a positive integer")
	}
	limit = clampLimit(limit)

	if s.cache == nil {
		return s.listCommentary(ctx, matchID, limit)
	}

	cached, version, ok := s.cache.GetCommentary(ctx, matchID, limit)
	if ok {
		return cached, nil
	}

	key := fmt.Sprintf("commentary:%d:%d:%d", matchID, limit, version)
	v, err, _ := s.listGroup.Do(key, func() (any, error) {
		entries, err := s.listCommentary(ctx, matchID, limit)
		if err != nil {
			return nil, err
		}
		s.cache.SetCommentary(ctx, matchID, limit, version, entries)
		return entries, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]domain.Commentary), nil
}

func (s *Service) listCommentary(ctx context.Context, matchID int64, limit int) ([]domain.Commentary, error) {
	entries, err := s.commentary.ListByMatch(ctx, matchID, limit)
	if err != nil {
		return nil, fmt.Errorf("list commentary: %w", err)
	}
	if entries == nil {
		entries = []domain.Commentary{}
	}
	return entries, nil
}

func clampLimit(limit int) int {
	if limit <= 0 {
		return DefaultListLimit
	}
	return min(limit, MaxListLimit)
}

type textField struct {
	name  string
	value string
}

// requireText reports the first empty field. Values are stored as sent, so
// whitespace counts as content.
func requireText(fields ...textField) error {
	for _, f := range fields {
		if f.value == "" {
			return apperrors.FieldError(f.name, f.name+" is required")
		}
	}
	return nil
}
