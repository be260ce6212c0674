package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const metricsNamespace = "warehouse_cost"

// Metrics holds the collectors exported on the metrics path
type Metrics struct {
	requests  *prometheus.CounterVec
	duration  *prometheus.HistogramVec
	estimates *prometheus.CounterVec
}

// NewMetrics creates the API collectors and registers them with reg
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests served, by endpoint and status code.",
		}, []string{"endpoint", "code"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency, by endpoint.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"endpoint"}),
		estimates: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "estimates_total",
			Help:      "Estimates computed, by pricing catalog and outcome.",
		}, []string{"catalog", "outcome"}),
	}
	reg.MustRegister(m.requests, m.duration, m.estimates)
	return m
}

func (m *Metrics) observeRequest(endpoint string, code int, elapsed time.Duration) {
	m.requests.WithLabelValues(endpoint, strconv.Itoa(code)).Inc()
	m.duration.WithLabelValues(endpoint).Observe(elapsed.Seconds())
}

func (m *Metrics) observeEstimate(catalog string, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.estimates.WithLabelValues(catalog, outcome).Inc()
}

// statusRecorder captures the status code written by a handler
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}
