package hub

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics mirrors the relay counters for Prometheus scraping. The JSON
// status endpoint stays the source of truth; these exist for dashboards.
type Metrics struct {
	connectionsTotal  prometheus.Counter
	connectionsFailed prometheus.Counter
	messagesTotal     prometheus.Counter
	connectionsActive prometheus.Gauge
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		connectionsTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "relay_connections_total",
			Help: "Connections admitted since process start.",
		}),
		connectionsFailed: factory.NewCounter(prometheus.CounterOpts{
			Name: "relay_connections_failed_total",
			Help: "Transport-level connection errors observed.",
		}),
		messagesTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "relay_messages_total",
			Help: "Messages broadcast since process start.",
		}),
		connectionsActive: factory.NewGauge(prometheus.GaugeOpts{
			Name: "relay_connections_active",
			Help: "Currently connected clients.",
		}),
	}
}
