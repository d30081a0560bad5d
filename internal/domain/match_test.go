package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestMatchStatusAt(t *testing.T) {
	start := time.Date(2026, 5, 1, 18, 0, 0, 0, time.UTC)
	end := start.Add(2 * time.Hour)

	tests := []struct {
		name string
		now  time.Time
		want MatchStatus
	}{
		{"before kickoff", start.Add(-time.Minute), MatchStatusScheduled},
		{"at kickoff", start, MatchStatusLive},
		{"mid match", start.Add(time.Hour), MatchStatusLive},
		{"at final whistle", end, MatchStatusFinished},
		{"after", end.Add(time.Hour), MatchStatusFinished},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, MatchStatusAt(start, end, tt.now))
		})
	}
}
