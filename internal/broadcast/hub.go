package broadcast

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/jonboulle/clockwork"

	"github.com/pscheid92/sportz/internal/adapter/metrics"
	"github.com/pscheid92/sportz/internal/domain"
)

// ErrHubClosed is returned when a connection arrives after Stop.
var ErrHubClosed = errors.New("broadcast hub closed")

var welcomeFrame = mustEncode(Welcome{})

type Options struct {
	HeartbeatInterval time.Duration
	MaxPayloadBytes   int64
	SendBufferSize    int
	WriteTimeout      time.Duration

	// CheckOrigin defaults to accepting every origin.
	CheckOrigin func(r *http.Request) bool
	// Limits is optional; nil admits every upgrade.
	Limits *ConnectionLimits
}

// Hub owns every open connection and fans broadcasts out to them.
type Hub struct {
	opts     Options
	clock    clockwork.Clock
	registry *Registry
	metrics  *metrics.WebSocketMetrics
	monitor  *Monitor
	upgrader websocket.Upgrader

	mu     sync.Mutex
	conns  map[*Conn]struct{}
	closed bool
}

var _ domain.Broadcaster = (*Hub)(nil)

func NewHub(opts Options, clock clockwork.Clock, m *metrics.WebSocketMetrics) *Hub {
	checkOrigin := opts.CheckOrigin
	if checkOrigin == nil {
		checkOrigin = func(*http.Request) bool { return true }
	}

	h := &Hub{
		opts:     opts,
		clock:    clock,
		registry: NewRegistry(),
		metrics:  m,
		conns:    make(map[*Conn]struct{}),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     checkOrigin,
		},
	}
	h.monitor = NewMonitor(clock, opts.HeartbeatInterval, h)
	return h
}

// Start launches the heartbeat monitor.
func (h *Hub) Start() {
	h.monitor.Start()
	slog.Info("Broadcast hub started", "heartbeat_interval", h.opts.HeartbeatInterval)
}

// Stop halts the heartbeat, refuses new connections and closes every open
// connection with a going-away close frame.
func (h *Hub) Stop() {
	h.monitor.Stop()

	h.mu.Lock()
	h.closed = true
	h.mu.Unlock()

	conns := h.snapshot()
	slog.Info("Broadcast hub shutting down", "connections", len(conns))

	var wg sync.WaitGroup
	for _, c := range conns {
		if !h.detach(c) {
			continue
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			c.closeGraceful(websocket.CloseGoingAway, "server shutting down")
		}()
	}
	wg.Wait()

	slog.Info("Broadcast hub shutdown complete", "disconnected_clients", len(conns))
}

// ConnectionCount returns the number of open connections.
func (h *Hub) ConnectionCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.conns)
}

// Registry exposes the topic index.
func (h *Hub) Registry() *Registry {
	return h.registry
}

// BroadcastMatchCreated sends a match_created frame to every open connection.
func (h *Hub) BroadcastMatchCreated(match domain.Match) {
	h.fanOut("match_created", MatchCreated{Match: match}, h.snapshot())
}

// BroadcastCommentary sends a commentary frame to the topic's subscribers only.
func (h *Hub) BroadcastCommentary(matchID domain.TopicID, comment domain.Commentary) {
	targets := h.registry.SubscribersOf(matchID)
	if len(targets) == 0 {
		return
	}
	h.fanOut("commentary", CommentaryPosted{MatchID: matchID, Comment: comment}, targets)
}

func (h *Hub) accept(ctx context.Context, ws transport, remoteAddr string) (*Conn, error) {
	c := newConn(ctx, ws, remoteAddr, h.opts.SendBufferSize, h.opts.WriteTimeout)

	// Queued before the connection is visible to broadcasts, so welcome is
	// always the first frame.
	c.enqueue(welcomeFrame)

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		c.close()
		return nil, ErrHubClosed
	}
	h.conns[c] = struct{}{}
	total := len(h.conns)
	h.mu.Unlock()

	h.metrics.ConnectionsTotal.Inc()
	h.metrics.ActiveConnections.Set(float64(total))
	h.metrics.MessagesSent.WithLabelValues(Welcome{}.messageType()).Inc()
	slog.DebugContext(c.ctx, "Client connected", "remote_addr", remoteAddr, "total_clients", total)
	return c, nil
}

// detach removes c from the open set and the registry. Only the first caller
// for a given connection gets true.
func (h *Hub) detach(c *Conn) bool {
	h.mu.Lock()
	_, ok := h.conns[c]
	delete(h.conns, c)
	total := len(h.conns)
	h.mu.Unlock()

	if !ok {
		return false
	}

	h.registry.Teardown(c)
	h.metrics.ActiveConnections.Set(float64(total))
	h.updateTopicGauges()
	return true
}

func (h *Hub) remove(c *Conn, reason string) {
	if !h.detach(c) {
		return
	}
	c.close()
	slog.DebugContext(c.ctx, "Client disconnected", "remote_addr", c.remoteAddr, "reason", reason)
}

func (h *Hub) snapshot() []*Conn {
	h.mu.Lock()
	defer h.mu.Unlock()

	out := make([]*Conn, 0, len(h.conns))
	for c := range h.conns {
		out = append(out, c)
	}
	return out
}

func (h *Hub) evictDead(c *Conn) {
	if !h.detach(c) {
		return
	}
	h.metrics.HeartbeatEvictions.Inc()
	c.close()
	slog.InfoContext(c.ctx, "Terminating unresponsive client", "remote_addr", c.remoteAddr)
}

func (h *Hub) evictSlow(c *Conn) {
	if !h.detach(c) {
		return
	}
	h.metrics.SlowClientsEvicted.Inc()
	c.close()
	slog.WarnContext(c.ctx, "Disconnecting slow client", "remote_addr", c.remoteAddr)
}

// send queues a direct reply to one connection.
func (h *Hub) send(c *Conn, msg Message) {
	h.fanOut("reply", msg, []*Conn{c})
}

// fanOut encodes once and enqueues the same bytes for every target. Targets
// whose queue is full are evicted after the loop.
func (h *Hub) fanOut(kind string, msg Message, targets []*Conn) {
	start := h.clock.Now()

	data, err := encode(msg)
	if err != nil {
		slog.Error("Failed to marshal broadcast message", "type", msg.messageType(), "error", err)
		return
	}

	var sent, closed int
	var slow []*Conn
	for _, c := range targets {
		switch c.enqueue(data) {
		case queued:
			sent++
		case notOpen:
			closed++
		case overflow:
			slow = append(slow, c)
		}
	}

	if sent > 0 {
		h.metrics.MessagesSent.WithLabelValues(msg.messageType()).Add(float64(sent))
	}
	if closed > 0 {
		h.metrics.MessagesDropped.WithLabelValues("closed").Add(float64(closed))
	}
	if len(slow) > 0 {
		h.metrics.MessagesDropped.WithLabelValues("overflow").Add(float64(len(slow)))
	}
	for _, c := range slow {
		h.evictSlow(c)
	}

	h.metrics.BroadcastDuration.WithLabelValues(kind).Observe(h.clock.Since(start).Seconds())
}

func (h *Hub) updateTopicGauges() {
	topics, pairs := h.registry.Stats()
	h.metrics.ActiveTopics.Set(float64(topics))
	h.metrics.Subscriptions.Set(float64(pairs))
}

func mustEncode(m Message) []byte {
	data, err := encode(m)
	if err != nil {
		panic(err)
	}
	return data
}
