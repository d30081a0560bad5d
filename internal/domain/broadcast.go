package domain

// TopicID identifies a broadcast topic. Topics are keyed by match ID; whether
// the match exists is never checked by the broadcaster.
type TopicID int64

// Broadcaster is the hand-off point for the write path. Callers invoke it only
// after a record has been persisted; delivery is best-effort.
type Broadcaster interface {
	BroadcastMatchCreated(match Match)
	BroadcastCommentary(matchID TopicID, comment Commentary)
}
