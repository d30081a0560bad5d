package broadcast

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

// connSource is what the Monitor sweeps and evicts from.
type connSource interface {
	snapshot() []*Conn
	evictDead(c *Conn)
}

// Monitor probes every connection once per interval. A connection that has
// not answered the previous ping by the next tick is evicted.
type Monitor struct {
	clock    clockwork.Clock
	interval time.Duration
	source   connSource

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

func NewMonitor(clock clockwork.Clock, interval time.Duration, source connSource) *Monitor {
	return &Monitor{clock: clock, interval: interval, source: source}
}

// Start begins ticking. Calling Start on a running monitor is a no-op.
func (m *Monitor) Start() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.cancel != nil {
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	m.cancel = cancel
	m.done = make(chan struct{})

	ticker := m.clock.NewTicker(m.interval)
	go m.loop(ctx, ticker, m.done)
}

// Stop halts the ticker and waits for an in-flight sweep to finish.
func (m *Monitor) Stop() {
	m.mu.Lock()
	cancel, done := m.cancel, m.done
	m.cancel, m.done = nil, nil
	m.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
}

func (m *Monitor) loop(ctx context.Context, ticker clockwork.Ticker, done chan struct{}) {
	defer close(done)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.Chan():
			m.sweep()
		}
	}
}

func (m *Monitor) sweep() {
	for _, c := range m.source.snapshot() {
		if !c.alive.CompareAndSwap(true, false) {
			m.source.evictDead(c)
			continue
		}
		if err := c.ping(); err != nil {
			// Left for the next tick, where the missing reply evicts it.
			slog.DebugContext(c.ctx, "Heartbeat ping failed", "error", err)
		}
	}
}
