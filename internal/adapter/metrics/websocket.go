package metrics

import "github.com/prometheus/client_golang/prometheus"

// WebSocketMetrics holds Prometheus metrics for the live broadcast hub.
type WebSocketMetrics struct {
	ActiveConnections   prometheus.Gauge
	ConnectionsTotal    prometheus.Counter
	ConnectionsRejected *prometheus.CounterVec
	ActiveTopics        prometheus.Gauge
	Subscriptions       prometheus.Gauge
	MessagesSent        *prometheus.CounterVec
	MessagesDropped     *prometheus.CounterVec
	InboundFrames       *prometheus.CounterVec
	HeartbeatEvictions  prometheus.Counter
	SlowClientsEvicted  prometheus.Counter
	BroadcastDuration   *prometheus.HistogramVec
}

// NewWebSocketMetrics creates and registers WebSocket metrics on the given registry.
func NewWebSocketMetrics(reg prometheus.Registerer) *WebSocketMetrics {
	m := &WebSocketMetrics{
		ActiveConnections: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "websocket",
			Name:      "active_connections",
			Help:      "Number of open WebSocket connections.",
		}),
		ConnectionsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "websocket",
			Name:      "connections_total",
			Help:      "Total number of accepted WebSocket connections.",
		}),
		ConnectionsRejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "websocket",
			Name:      "connections_rejected_total",
			Help:      "WebSocket upgrades rejected before accept, by reason.",
		}, []string{"reason"}),
		ActiveTopics: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "websocket",
			Name:      "active_topics",
			Help:      "Number of match topics with at least one subscriber.",
		}),
		Subscriptions: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "websocket",
			Name:      "subscriptions",
			Help:      "Number of (topic, connection) subscription pairs.",
		}),
		MessagesSent: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "websocket",
			Name:      "messages_sent_total",
			Help:      "Outbound frames queued for delivery, by message type.",
		}, []string{"type"}),
		MessagesDropped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "websocket",
			Name:      "messages_dropped_total",
			Help:      "Outbound frames not delivered, by reason.",
		}, []string{"reason"}),
		InboundFrames: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "websocket",
			Name:      "inbound_frames_total",
			Help:      "Inbound client frames, by outcome.",
		}, []string{"outcome"}),
		HeartbeatEvictions: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "websocket",
			Name:      "heartbeat_evictions_total",
			Help:      "Connections terminated for missing a heartbeat reply.",
		}),
		SlowClientsEvicted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "websocket",
			Name:      "slow_clients_evicted_total",
			Help:      "Connections terminated because their send queue overflowed.",
		}),
		BroadcastDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "websocket",
			Name:      "broadcast_duration_seconds",
			Help:      "Time spent fanning out one broadcast, by kind.",
			Buckets:   []float64{.00005, .0001, .0005, .001, .005, .01, .025, .05, .1},
		}, []string{"kind"}),
	}

	reg.MustRegister(
		m.ActiveConnections,
		m.ConnectionsTotal,
		m.ConnectionsRejected,
		m.ActiveTopics,
		m.Subscriptions,
		m.MessagesSent,
		m.MessagesDropped,
		m.InboundFrames,
		m.HeartbeatEvictions,
		m.SlowClientsEvicted,
		m.BroadcastDuration,
	)
	return m
}
