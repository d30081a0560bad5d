package broadcast

import (
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"

	"github.com/pscheid92/sportz/internal/adapter/metrics"
	"github.com/pscheid92/sportz/internal/domain"
)

const (
	waitFor   = 2 * time.Second
	shortWait = 100 * time.Millisecond
	tick      = 5 * time.Millisecond
)

var errTransportClosed = errors.New("transport closed")

// fakeTransport records frames instead of writing them to a socket.
type fakeTransport struct {
	mu          sync.Mutex
	frames      [][]byte
	pings       int
	closeFrames [][]byte
	pingErr     error

	block     chan struct{}
	closed    chan struct{}
	closeOnce sync.Once
}

func newFakeTransport() *fakeTransport {
	return &fakeTransport{closed: make(chan struct{})}
}

// newBlockingTransport returns a transport whose writes hang until closed.
func newBlockingTransport() *fakeTransport {
	ft := newFakeTransport()
	ft.block = make(chan struct{})
	return ft
}

func (f *fakeTransport) WriteMessage(_ int, data []byte) error {
	if f.block != nil {
		select {
		case <-f.block:
		case <-f.closed:
			return errTransportClosed
		}
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.isClosed() {
		return errTransportClosed
	}
	f.frames = append(f.frames, data)
	return nil
}

func (f *fakeTransport) WriteControl(messageType int, data []byte, _ time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if messageType == websocket.PingMessage {
		if f.pingErr != nil {
			return f.pingErr
		}
		f.pings++
		return nil
	}
	f.closeFrames = append(f.closeFrames, data)
	return nil
}

func (f *fakeTransport) SetWriteDeadline(time.Time) error { return nil }

func (f *fakeTransport) Close() error {
	f.closeOnce.Do(func() { close(f.closed) })
	return nil
}

func (f *fakeTransport) isClosed() bool {
	select {
	case <-f.closed:
		return true
	default:
		return false
	}
}

func (f *fakeTransport) Frames() []map[string]any {
	f.mu.Lock()
	defer f.mu.Unlock()

	out := make([]map[string]any, 0, len(f.frames))
	for _, raw := range f.frames {
		var m map[string]any
		if err := json.Unmarshal(raw, &m); err == nil {
			out = append(out, m)
		}
	}
	return out
}

func (f *fakeTransport) Types() []string {
	var out []string
	for _, fr := range f.Frames() {
		out = append(out, fr["type"].(string))
	}
	return out
}

func (f *fakeTransport) Pings() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.pings
}

func (f *fakeTransport) CloseFrames() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.closeFrames)
}

func testOptions() Options {
	return Options{
		HeartbeatInterval: 3 * time.Second,
		MaxPayloadBytes:   1 << 20,
		SendBufferSize:    16,
		WriteTimeout:      time.Second,
	}
}

func newTestHub(t *testing.T, opts Options, clock clockwork.Clock) *Hub {
	t.Helper()
	h := NewHub(opts, clock, metrics.NewWebSocketMetrics(prometheus.NewRegistry()))
	t.Cleanup(h.Stop)
	return h
}

func acceptFake(t *testing.T, h *Hub) (*Conn, *fakeTransport) {
	t.Helper()
	ft := newFakeTransport()
	c, err := h.accept(t.Context(), ft, "192.0.2.1")
	require.NoError(t, err)
	return c, ft
}

// bareConn is a connection with no writer goroutine, for registry tests.
func bareConn() *Conn {
	return &Conn{subscriptions: make(map[domain.TopicID]struct{})}
}

// topicsOf snapshots the topics c is subscribed to.
func topicsOf(r *Registry, c *Conn) []domain.TopicID {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]domain.TopicID, 0, len(c.subscriptions))
	for topic := range c.subscriptions {
		out = append(out, topic)
	}
	return out
}
