// Package metrics holds the Prometheus collectors of the hub.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// WebSocket Metrics
	ActiveConnections = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "scenyx_ws_connections_active",
		Help: "The current number of active WebSocket connections.",
	})
	TotalConnections = promauto.NewCounter(prometheus.CounterOpts{
		Name: "scenyx_ws_connections_total",
		Help: "The total number of WebSocket connections accepted.",
	})
	ActiveRooms = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "scenyx_rooms_active",
		Help: "The current number of rooms with at least one member on this instance.",
	})
	MessagesReceived = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "scenyx_ws_messages_received_total",
		Help: "The total number of messages received from clients, by type.",
	}, []string{"type"})
	MalformedFrames = promauto.NewCounter(prometheus.CounterOpts{
		Name: "scenyx_ws_malformed_frames_total",
		Help: "The total number of inbound messages dropped as malformed.",
	})
	EventsSent = promauto.NewCounter(prometheus.CounterOpts{
		Name: "scenyx_ws_events_sent_total",
		Help: "The total number of events written to clients.",
	})
	EventsDropped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "scenyx_ws_events_dropped_total",
		Help: "The total number of events dropped because a client's send buffer was full.",
	})

	// Auth Metrics
	AuthSuccess = promauto.NewCounter(prometheus.CounterOpts{
		Name: "scenyx_auth_success_total",
		Help: "The total number of successful authentications.",
	})
	AuthFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "scenyx_auth_failures_total",
		Help: "The total number of failed authentications.",
	}, []string{"reason"})

	// Cache Metrics
	CacheErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "scenyx_cache_errors_total",
		Help: "The total number of failed cache operations, by operation.",
	}, []string{"op"})
	PublishFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "scenyx_publish_failures_total",
		Help: "The total number of best-effort publishes that were dropped.",
	})
)

// Handler exposes the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
