// Package metrics exposes ingestion and HTTP metrics in Prometheus format.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"heat_controller/internal/wire"
)

const namespace = "heatctl"

// Metrics is nil-safe: every method on a nil *Metrics is a no-op.
type Metrics struct {
	registry *prometheus.Registry

	httpRequestsTotal *prometheus.CounterVec
	httpDuration      *prometheus.HistogramVec
	deviceDuration    *prometheus.HistogramVec
	deviceErrors      *prometheus.CounterVec
	chunksTotal       *prometheus.CounterVec
	chunkLines        prometheus.Counter
	passesTotal       *prometheus.CounterVec
	passDuration      prometheus.Histogram
	cachedLines       prometheus.Gauge
	watermark         prometheus.Gauge
	connected         prometheus.Gauge
	relayOn           prometheus.Gauge
	published         *prometheus.CounterVec
}

// New registers all collectors on a private registry, plus Go and process collectors.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		httpRequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total count of HTTP requests processed by route and status.",
		}, []string{"route", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "Histogram of HTTP request durations by route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route"}),
		deviceDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "device_request_duration_seconds",
			Help:      "Histogram of device HTTP request durations by endpoint.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"endpoint"}),
		deviceErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "device_request_errors_total",
			Help:      "Total failed device requests by endpoint.",
		}, []string{"endpoint"}),
		chunksTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "chunks_parsed_total",
			Help:      "Device log chunks parsed, by repair outcome.",
		}, []string{"outcome"}),
		chunkLines: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "chunk_lines_total",
			Help:      "Log lines recovered from device chunks.",
		}),
		passesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ingest_passes_total",
			Help:      "Loading passes by result.",
		}, []string{"result"}),
		passDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "ingest_pass_duration_seconds",
			Help:      "Histogram of loading pass durations.",
			Buckets:   prometheus.DefBuckets,
		}),
		cachedLines: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "cache_lines",
			Help:      "Log lines held in the local cache.",
		}),
		watermark: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "cache_watermark_seconds",
			Help:      "Timestamp of the newest cached log line.",
		}),
		connected: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "device_connected",
			Help:      "1 when the last device request succeeded.",
		}),
		relayOn: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "relay_on",
			Help:      "1 when the device reports the relay on.",
		}),
		published: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "published_messages_total",
			Help:      "Messages published to Kafka by result.",
		}, []string{"result"}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.httpRequestsTotal,
		m.httpDuration,
		m.deviceDuration,
		m.deviceErrors,
		m.chunksTotal,
		m.chunkLines,
		m.passesTotal,
		m.passDuration,
		m.cachedLines,
		m.watermark,
		m.connected,
		m.relayOn,
		m.published,
	)
	return m
}

// Registry exposes the private registry, mostly for tests.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// GinMiddleware counts requests by matched route and status.
func (m *Metrics) GinMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		if m == nil {
			return
		}
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		m.httpRequestsTotal.WithLabelValues(route, strconv.Itoa(c.Writer.Status())).Inc()
		m.httpDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
	}
}

// ObserveDeviceRequest implements device.Observer.
func (m *Metrics) ObserveDeviceRequest(endpoint string, took time.Duration, err error) {
	if m == nil {
		return
	}
	m.deviceDuration.WithLabelValues(endpoint).Observe(took.Seconds())
	if err != nil {
		m.deviceErrors.WithLabelValues(endpoint).Inc()
	}
}

// ObserveChunk implements loader.Observer.
func (m *Metrics) ObserveChunk(_ string, outcome wire.Outcome, lines int) {
	if m == nil {
		return
	}
	m.chunksTotal.WithLabelValues(outcome.String()).Inc()
	m.chunkLines.Add(float64(lines))
}

// IngestPass records one loading pass.
func (m *Metrics) IngestPass(took time.Duration, err error) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.passesTotal.WithLabelValues(result).Inc()
	m.passDuration.Observe(took.Seconds())
}

// CacheState records cache size and watermark.
func (m *Metrics) CacheState(lines int, watermark int64) {
	if m == nil {
		return
	}
	m.cachedLines.Set(float64(lines))
	m.watermark.Set(float64(watermark))
}

// DeviceState records link and relay state.
func (m *Metrics) DeviceState(connected, relayOn bool) {
	if m == nil {
		return
	}
	m.connected.Set(boolToFloat(connected))
	m.relayOn.Set(boolToFloat(relayOn))
}

// Published records a Kafka publish attempt.
func (m *Metrics) Published(n int, err error) {
	if m == nil {
		return
	}
	if err != nil {
		m.published.WithLabelValues("error").Inc()
		return
	}
	m.published.WithLabelValues("ok").Add(float64(n))
}

func boolToFloat(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
