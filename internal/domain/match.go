package domain

import (
	"context"
	"time"
)

type MatchStatus string

const (
	MatchStatusScheduled MatchStatus = "scheduled"
	MatchStatusLive      MatchStatus = "live"
	MatchStatusFinished  MatchStatus = "finished"
)

// MatchStatusAt derives the status of a match window relative to now.
func MatchStatusAt(startTime, endTime, now time.Time) MatchStatus {
	if now.Before(startTime) {
		return MatchStatusScheduled
	}
	if !now.Before(endTime) {
		return MatchStatusFinished
	}
	return MatchStatusLive
}

type Match struct {
	ID        int64       `json:"id"`
	Sport     string      `json:"sport"`
	HomeTeam  string      `json:"homeTeam"`
	AwayTeam  string      `json:"awayTeam"`
	Status    MatchStatus `json:"status"`
	StartTime time.Time   `json:"startTime"`
	EndTime   time.Time   `json:"endTime"`
	HomeScore int         `json:"homeScore"`
	AwayScore int         `json:"awayScore"`
	CreatedAt time.Time   `json:"createdAt"`
}

type NewMatch struct {
	Sport     string
	HomeTeam  string
	AwayTeam  string
	Status    MatchStatus
	StartTime time.Time
	EndTime   time.Time
	HomeScore int
	AwayScore int
}

type MatchRepository interface {
	Create(ctx context.Context, match NewMatch) (*Match, error)
	List(ctx context.Context, limit int) ([]Match, error)
}
