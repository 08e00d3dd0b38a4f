package server

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// serverMetrics carries the prometheus collectors on their own registry so
// multiple servers (tests) never collide.
type serverMetrics struct {
	registry      *prometheus.Registry
	loginsStarted prometheus.Counter
	exchanges     *prometheus.CounterVec
	bookmarkOps   *prometheus.CounterVec
	activeEngines prometheus.Gauge
}

func newServerMetrics() *serverMetrics {
	registry := prometheus.NewRegistry()
	factory := promauto.With(registry)

	return &serverMetrics{
		registry: registry,
		loginsStarted: factory.NewCounter(prometheus.CounterOpts{
			Name: "linkstash_logins_started_total",
			Help: "OAuth handshakes initiated.",
		}),
		exchanges: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "linkstash_code_exchanges_total",
			Help: "OAuth callback code exchanges by result.",
		}, []string{"result"}),
		bookmarkOps: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "linkstash_bookmark_operations_total",
			Help: "Bookmark operations by kind and result.",
		}, []string{"op", "result"}),
		activeEngines: factory.NewGauge(prometheus.GaugeOpts{
			Name: "linkstash_active_sync_engines",
			Help: "Per-user sync engines currently running.",
		}),
	}
}

func (s *Server) MetricsHandler() http.Handler {
	return promhttp.HandlerFor(s.metrics.registry, promhttp.HandlerOpts{})
}
