package server

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// metrics holds the server's Prometheus instruments, registered on a
// private registry so repeated construction in tests never collides.
type metrics struct {
	registry      *prometheus.Registry
	refreshes     prometheus.Counter
	linkageEvents prometheus.Counter
	clients       prometheus.Gauge
}

func newMetrics() *metrics {
	m := &metrics{
		registry: prometheus.NewRegistry(),
		refreshes: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "reposcope_refreshes_total",
			Help: "Dataset refreshes pushed to views.",
		}),
		linkageEvents: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "reposcope_linkage_events_total",
			Help: "Cross-view interaction events relayed.",
		}),
		clients: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "reposcope_connected_views",
			Help: "Currently connected websocket views.",
		}),
	}

	m.registry.MustRegister(m.refreshes, m.linkageEvents, m.clients)

	return m
}

func (m *metrics) handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
