package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector agrupa las métricas Prometheus del servicio en un registry
// propio, así los tests pueden crear instancias frescas sin colisiones.
type Collector struct {
	reg *prometheus.Registry

	UpstreamRequests *prometheus.CounterVec // label: endpoint
	UpstreamErrors   *prometheus.CounterVec // label: endpoint
	UpstreamDuration prometheus.Histogram

	CacheHits      prometheus.Counter
	CacheMisses    prometheus.Counter
	CacheWrites    prometheus.Counter
	CacheWriteErrs prometheus.Counter

	HTTPRequests *prometheus.CounterVec // labels: method, path, status
	HTTPDuration prometheus.Histogram

	SnapshotTTL prometheus.Gauge // segundos
}

// NewCollector crea y registra todas las métricas del servicio
func NewCollector(snapshotTTL time.Duration) *Collector {
	reg := prometheus.NewRegistry()

	c := &Collector{
		reg: reg,
		UpstreamRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "subwaymap_upstream_requests_total",
			Help: "Total requests sent to the MBTA API.",
		}, []string{"endpoint"}),
		UpstreamErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "subwaymap_upstream_errors_total",
			Help: "Total MBTA API requests that failed.",
		}, []string{"endpoint"}),
		UpstreamDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "subwaymap_upstream_duration_seconds",
			Help:    "Duration of MBTA API requests.",
			Buckets: prometheus.ExponentialBuckets(0.01, 2, 12),
		}),
		CacheHits: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "subwaymap_cache_hits_total",
			Help: "Snapshot cache hits.",
		}),
		CacheMisses: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "subwaymap_cache_misses_total",
			Help: "Snapshot cache misses (absent, expired or corrupt).",
		}),
		CacheWrites: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "subwaymap_cache_writes_total",
			Help: "Snapshot cache files written.",
		}),
		CacheWriteErrs: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "subwaymap_cache_write_errors_total",
			Help: "Snapshot cache writes that failed.",
		}),
		HTTPRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "subwaymap_http_requests_total",
			Help: "HTTP requests served.",
		}, []string{"method", "path", "status"}),
		HTTPDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "subwaymap_http_request_duration_seconds",
			Help:    "Duration of HTTP requests served.",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 15),
		}),
		SnapshotTTL: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "subwaymap_snapshot_ttl_seconds",
			Help: "Configured snapshot cache TTL in seconds.",
		}),
	}

	reg.MustRegister(
		c.UpstreamRequests, c.UpstreamErrors, c.UpstreamDuration,
		c.CacheHits, c.CacheMisses, c.CacheWrites, c.CacheWriteErrs,
		c.HTTPRequests, c.HTTPDuration,
		c.SnapshotTTL,
	)

	c.SnapshotTTL.Set(snapshotTTL.Seconds())

	return c
}

// Handler retorna el handler HTTP para exponer /metrics
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.reg, promhttp.HandlerOpts{})
}
