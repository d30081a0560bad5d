package broadcast

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"

	"github.com/gorilla/websocket"
)

// ServeHTTP upgrades the request, keying admission limits on RemoteAddr.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		ip = r.RemoteAddr
	}
	h.Serve(w, r, ip)
}

// Serve upgrades the request and runs the connection's read loop until the
// peer goes away. clientIP keys the admission limits.
func (h *Hub) Serve(w http.ResponseWriter, r *http.Request, clientIP string) {
	if limits := h.opts.Limits; limits != nil {
		ok, reason := limits.Acquire(clientIP)
		if !ok {
			h.metrics.ConnectionsRejected.WithLabelValues(string(reason)).Inc()
			slog.Warn("Rejecting WebSocket connection", "reason", reason, "remote_addr", clientIP)
			status := http.StatusTooManyRequests
			if reason == LimitReasonGlobal {
				status = http.StatusServiceUnavailable
			}
			http.Error(w, http.StatusText(status), status)
			return
		}
		defer limits.Release(clientIP)
	}

	ws, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// The upgrader has already written the error response.
		h.metrics.ConnectionsRejected.WithLabelValues("upgrade_failed").Inc()
		slog.Debug("WebSocket upgrade failed", "remote_addr", clientIP, "error", err)
		return
	}
	ws.SetReadLimit(h.opts.MaxPayloadBytes)

	c, err := h.accept(context.WithoutCancel(r.Context()), ws, clientIP)
	if err != nil {
		return
	}
	ws.SetPongHandler(func(string) error {
		c.markAlive()
		return nil
	})

	h.readLoop(c, ws)
}

func (h *Hub) readLoop(c *Conn, ws *websocket.Conn) {
	reason := "closed by peer"
	defer func() { h.remove(c, reason) }()

	for {
		_, data, err := ws.ReadMessage()
		if err != nil {
			switch {
			case errors.Is(err, websocket.ErrReadLimit):
				reason = "frame exceeds read limit"
			case websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway, websocket.CloseNoStatusReceived):
				reason = "read error"
				slog.DebugContext(c.ctx, "WebSocket read error", "error", err)
			}
			return
		}
		h.dispatch(c, data)
	}
}
