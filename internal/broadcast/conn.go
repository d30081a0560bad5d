package broadcast

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/pscheid92/sportz/internal/domain"
	"github.com/pscheid92/sportz/internal/platform/correlation"
)

// transport is the subset of *websocket.Conn the broadcaster writes through.
// WriteControl and Close may be called concurrently with WriteMessage.
type transport interface {
	WriteMessage(messageType int, data []byte) error
	WriteControl(messageType int, data []byte, deadline time.Time) error
	SetWriteDeadline(t time.Time) error
	Close() error
}

type enqueueResult int

const (
	queued enqueueResult = iota
	notOpen
	overflow
)

// Conn is one accepted client. Writes go through a bounded queue drained by a
// dedicated writer goroutine; the queue is never closed, so late enqueues
// after shutdown are harmless.
type Conn struct {
	ctx          context.Context
	remoteAddr   string
	ws           transport
	writeTimeout time.Duration

	alive atomic.Bool
	open  atomic.Bool

	// Guarded by Registry.mu.
	subscriptions map[domain.TopicID]struct{}
	detached      bool

	sendCh   chan []byte
	done     chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

func newConn(ctx context.Context, ws transport, remoteAddr string, bufferSize int, writeTimeout time.Duration) *Conn {
	c := &Conn{
		ctx:           correlation.WithConnID(ctx, uuid.NewString()),
		remoteAddr:    remoteAddr,
		ws:            ws,
		writeTimeout:  writeTimeout,
		subscriptions: make(map[domain.TopicID]struct{}),
		sendCh:        make(chan []byte, bufferSize),
		done:          make(chan struct{}),
	}
	c.alive.Store(true)
	c.open.Store(true)

	c.wg.Add(1)
	go c.run()
	return c
}

// markAlive records a heartbeat reply.
func (c *Conn) markAlive() {
	c.alive.Store(true)
}

func (c *Conn) run() {
	defer c.wg.Done()

	for {
		select {
		case data := <-c.sendCh:
			if err := c.write(data); err != nil {
				slog.DebugContext(c.ctx, "WebSocket write failed", "remote_addr", c.remoteAddr, "error", err)
				c.open.Store(false)
				// Unblocks the read loop, which performs the teardown.
				_ = c.ws.Close()
				return
			}
		case <-c.done:
			return
		}
	}
}

func (c *Conn) write(data []byte) error {
	if err := c.ws.SetWriteDeadline(time.Now().Add(c.writeTimeout)); err != nil {
		return err
	}
	return c.ws.WriteMessage(websocket.TextMessage, data)
}

func (c *Conn) enqueue(data []byte) enqueueResult {
	if !c.open.Load() {
		return notOpen
	}
	select {
	case c.sendCh <- data:
		return queued
	default:
		return overflow
	}
}

func (c *Conn) ping() error {
	return c.ws.WriteControl(websocket.PingMessage, nil, time.Now().Add(c.writeTimeout))
}

func (c *Conn) stopWriter() {
	c.stopOnce.Do(func() {
		c.open.Store(false)
		close(c.done)
		c.wg.Wait()
	})
}

// close tears the transport down first so a writer stuck on a slow peer
// returns immediately.
func (c *Conn) close() {
	c.open.Store(false)
	_ = c.ws.Close()
	c.stopWriter()
}

// closeGraceful stops the writer and sends a close frame before closing.
func (c *Conn) closeGraceful(code int, reason string) {
	c.stopWriter()
	msg := websocket.FormatCloseMessage(code, reason)
	_ = c.ws.WriteControl(websocket.CloseMessage, msg, time.Now().Add(c.writeTimeout))
	_ = c.ws.Close()
}
