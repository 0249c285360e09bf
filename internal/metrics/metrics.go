// Package metrics provides Prometheus instrumentation for the shelter
// backend: gauges for live connections and broadcast groups, counters for
// message throughput.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// ConnectionsTotal tracks the current number of live WebSocket connections.
	ConnectionsTotal = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "shelter_chat_connections",
		Help: "Current number of live WebSocket connections",
	})

	// RoomsTotal tracks the current number of non-empty broadcast groups.
	RoomsTotal = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "shelter_chat_rooms",
		Help: "Current number of chat broadcast groups with at least one member",
	})

	// MessagesTotal counts messages processed, labeled "received" (persisted
	// inbound), "delivered" (fanned out to a peer) or "dropped" (peer buffer
	// full).
	MessagesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "shelter_chat_messages_total",
		Help: "Total number of chat messages processed",
	}, []string{"type"})
)

func init() {
	prometheus.MustRegister(
		ConnectionsTotal,
		RoomsTotal,
		MessagesTotal,
	)
}

// Handler returns the Prometheus metrics HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}
