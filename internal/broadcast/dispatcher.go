package broadcast

import "log/slog"

// dispatch handles one inbound frame. Invalid JSON gets an error reply;
// anything well-formed but unrecognized is dropped without a reply.
func (h *Hub) dispatch(c *Conn, data []byte) {
	req, err := parseRequest(data)
	if err != nil {
		h.metrics.InboundFrames.WithLabelValues("invalid_json").Inc()
		h.send(c, ErrorMessage{Detail: err.Error()})
		return
	}

	switch r := req.(type) {
	case subscribeRequest:
		h.registry.Subscribe(r.MatchID, c)
		h.updateTopicGauges()
		h.metrics.InboundFrames.WithLabelValues("subscribe").Inc()
		h.send(c, Subscribed(r))
	case unsubscribeRequest:
		h.registry.Unsubscribe(r.MatchID, c)
		h.updateTopicGauges()
		h.metrics.InboundFrames.WithLabelValues("unsubscribe").Inc()
		h.send(c, Unsubscribed(r))
	default:
		h.metrics.InboundFrames.WithLabelValues("ignored").Inc()
		slog.DebugContext(c.ctx, "Ignoring unrecognized client frame", "bytes", len(data))
	}
}
