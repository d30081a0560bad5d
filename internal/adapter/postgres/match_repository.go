package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/pscheid92/sportz/internal/domain"
)

const matchColumns = `id, sport, home_team, away_team, status, start_time, end_time, home_score, away_score, created_at`

type MatchRepo struct {
	pool *pgxpool.Pool
}

var _ domain.MatchRepository = (*MatchRepo)(nil)

func NewMatchRepo(pool *pgxpool.Pool) *MatchRepo {
	return &MatchRepo{pool: pool}
}

func scanMatch(row pgx.Row) (domain.Match, error) {
	var m domain.Match
	var status string
	err := row.Scan(&m.ID, &m.Sport, &m.HomeTeam, &m.AwayTeam, &status,
		&m.StartTime, &m.EndTime, &m.HomeScore, &m.AwayScore, &m.CreatedAt)
	m.Status = domain.MatchStatus(status)
	return m, err
}

func (r *MatchRepo) Create(ctx context.Context, nm domain.NewMatch) (*domain.Match, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO matches (sport, home_team, away_team, status, start_time, end_time, home_score, away_score)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING `+matchColumns,
		nm.Sport, nm.HomeTeam, nm.AwayTeam, string(nm.Status), nm.StartTime, nm.EndTime, nm.HomeScore, nm.AwayScore)

	m, err := scanMatch(row)
	if err != nil {
		return nil, fmt.Errorf("failed to insert match: %w", err)
	}
	return &m, nil
}

// List returns the newest matches first.
func (r *MatchRepo) List(ctx context.Context, limit int) ([]domain.Match, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+matchColumns+`
		FROM matches
		ORDER BY created_at DESC, id DESC
		LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list matches: %w", err)
	}

	matches, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.Match, error) {
		return scanMatch(row)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan matches: %w", err)
	}
	return matches, nil
}
