package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/takutakahashi/orderkuota-proxy/pkg/upstream"
)

const namespace = "orderkuota_proxy"

// Recorder collects upstream call metrics. It implements upstream.Observer.
type Recorder struct {
	registry *prometheus.Registry
	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

// NewRecorder creates a recorder backed by its own registry
func NewRecorder() *Recorder {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	r := &Recorder{
		registry: registry,
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "upstream_requests_total",
			Help:      "Upstream requests by method, path and result.",
		}, []string{"method", "path", "result"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "upstream_request_duration_seconds",
			Help:      "Upstream request latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "path"}),
	}
	registry.MustRegister(r.requests, r.duration)

	return r
}

// ObserveCall records one upstream call
func (r *Recorder) ObserveCall(method, path string, kind upstream.Kind, duration time.Duration) {
	r.requests.WithLabelValues(method, path, resultLabel(kind)).Inc()
	r.duration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// Registry exposes the underlying registry
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// Handler serves the Prometheus exposition format
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}

func resultLabel(kind upstream.Kind) string {
	if kind == "" {
		return "success"
	}
	return string(kind)
}
