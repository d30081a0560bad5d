// Package broadcast implements the live match broadcaster behind /ws.
//
// A Hub owns the set of open connections, the topic Registry and the heartbeat
// Monitor. Each accepted connection gets a read loop (the handler goroutine)
// and a writer goroutine draining a bounded send queue. Broadcasts snapshot
// their targets under lock and enqueue outside it, so a slow client never
// blocks the write path; a client whose queue overflows is disconnected.
//
// Every exit path (peer close, read error, heartbeat eviction, overflow,
// shutdown) funnels through Hub.remove, which tears the connection's
// subscriptions out of the Registry exactly once before closing the transport.
package broadcast
