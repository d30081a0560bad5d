package domain

import "context"

// CacheVersion is the generation a cache lookup observed. Writing back under
// that version is a no-op if the scope has been invalidated since, so a slow
// reader can never resurrect a stale list.
type CacheVersion int64

// NoCacheVersion marks a lookup that could not read the generation; stores
// under it are skipped.
const NoCacheVersion CacheVersion = -1

// ListCache stores list responses. Implementations treat every failure as a
// miss; a broken cache never fails a request.
type ListCache interface {
	GetMatches(ctx context.Context, limit int) ([]Match, CacheVersion, bool)
	SetMatches(ctx context.Context, limit int, version CacheVersion, matches []Match)
	InvalidateMatches(ctx context.Context)

	GetCommentary(ctx context.Context, matchID int64, limit int) ([]Commentary, CacheVersion, bool)
	SetCommentary(ctx context.Context, matchID int64, limit int, version CacheVersion, entries []Commentary)
	InvalidateCommentary(ctx context.Context, matchID int64)
}
