package app

import (
	"context"
	"fmt"
	"sync"

	"github.com/pscheid92/sportz/internal/domain"
)

// --- Mock implementations ---

type mockMatchRepo struct {
	createFn func(ctx context.Context, match domain.NewMatch) (*domain.Match, error)
	listFn   func(ctx context.Context, limit int) ([]domain.Match, error)
}

func (m *mockMatchRepo) Create(ctx context.Context, match domain.NewMatch) (*domain.Match, error) {
	if m.createFn != nil {
		return m.createFn(ctx, match)
	}
	return nil, fmt.Errorf("not implemented")
}

func (m *mockMatchRepo) List(ctx context.Context, limit int) ([]domain.Match, error) {
	if m.listFn != nil {
		return m.listFn(ctx, limit)
	}
	return nil, fmt.Errorf("not implemented")
}

type mockCommentaryRepo struct {
	createFn      func(ctx context.Context, entry domain.NewCommentary) (*domain.Commentary, error)
	listByMatchFn func(ctx context.Context, matchID int64, limit int) ([]domain.Commentary, error)
}

func (m *mockCommentaryRepo) Create(ctx context.Context, entry domain.NewCommentary) (*domain.Commentary, error) {
	if m.createFn != nil {
		return m.createFn(ctx, entry)
	}
	return nil, fmt.Errorf("not implemented")
}

func (m *mockCommentaryRepo) ListByMatch(ctx context.Context, matchID int64, limit int) ([]domain.Commentary, error) {
	if m.listByMatchFn != nil {
		return m.listByMatchFn(ctx, matchID, limit)
	}
	return nil, fmt.Errorf("not implemented")
}

type recordingBroadcaster struct {
	mu         sync.Mutex
	matches    []domain.Match
	commentary map[domain.TopicID][]domain.Commentary
}

func newRecordingBroadcaster() *recordingBroadcaster {
	return &recordingBroadcaster{commentary: make(map[domain.TopicID][]domain.Commentary)}
}

func (b *recordingBroadcaster) BroadcastMatchCreated(match domain.Match) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.matches = append(b.matches, match)
}

func (b *recordingBroadcaster) BroadcastCommentary(matchID domain.TopicID, comment domain.Commentary) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.commentary[matchID] = append(b.commentary[matchID], comment)
}

// memoryCache is an in-process ListCache with the same generation semantics
// as the Redis implementation.
type memoryCache struct {
	mu          sync.Mutex
	generations map[string]domain.CacheVersion
	entries     map[string]any
	gets        int
}

func newMemoryCache() *memoryCache {
	return &memoryCache{
		generations: make(map[string]domain.CacheVersion),
		entries:     make(map[string]any),
	}
}

func (c *memoryCache) get(scope string, limit int) (any, domain.CacheVersion, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gets++
	version := c.generations[scope]
	v, ok := c.entries[fmt.Sprintf("%s:%d:%d", scope, version, limit)]
	return v, version, ok
}

func (c *memoryCache) set(scope string, limit int, version domain.CacheVersion, v any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[fmt.Sprintf("%s:%d:%d", scope, version, limit)] = v
}

func (c *memoryCache) bump(scope string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.generations[scope]++
}

func (c *memoryCache) GetMatches(_ context.Context, limit int) ([]domain.Match, domain.CacheVersion, bool) {
	v, version, ok := c.get("matches", limit)
	if !ok {
		return nil, version, false
	}
	return v.([]domain.Match), version, true
}

func (c *memoryCache) SetMatches(_ context.Context, limit int, version domain.CacheVersion, matches []domain.Match) {
	c.set("matches", limit, version, matches)
}

func (c *memoryCache) InvalidateMatches(context.Context) {
	c.bump("matches")
}

func (c *memoryCache) GetCommentary(_ context.Context, matchID int64, limit int) ([]domain.Commentary, domain.CacheVersion, bool) {
	v, version, ok := c.get(fmt.Sprintf("commentary:%d", matchID), limit)
	if !ok {
		return nil, version, false
	}
	return v.([]domain.Commentary), version, true
}

func (c *memoryCache) SetCommentary(_ context.Context, matchID int64, limit int, version domain.CacheVersion, entries []domain.Commentary) {
	c.set(fmt.Sprintf("commentary:%d", matchID), limit, version, entries)
}

func (c *memoryCache) InvalidateCommentary(_ context.Context, matchID int64) {
	c.bump(fmt.Sprintf("commentary:%d", matchID))
}
