// Package metrics collects Prometheus metrics for the session store and the
// backend client.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Collector records session and API metrics on a single registry.
type Collector struct {
	transitions     *prometheus.CounterVec
	persistFailures *prometheus.CounterVec
	rehydrations    *prometheus.CounterVec
	requests        *prometheus.CounterVec
	latency         *prometheus.HistogramVec
}

// NewCollector creates a Collector and registers it with reg.
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "seteuk_session_transitions_total",
			Help: "Completed session store mutations by operation.",
		}, []string{"op"}),
		persistFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "seteuk_session_persist_failures_total",
			Help: "Snapshot writes that failed, by operation.",
		}, []string{"op"}),
		rehydrations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "seteuk_session_rehydrations_total",
			Help: "Startup rehydrations by outcome.",
		}, []string{"outcome"}),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "seteuk_api_requests_total",
			Help: "Backend requests by endpoint and status code.",
		}, []string{"endpoint", "status"}),
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "seteuk_api_request_duration_seconds",
			Help:    "Backend request latency in seconds.",
			Buckets: prometheus.DefBuckets,
		}, []string{"endpoint"}),
	}

	reg.MustRegister(
		c.transitions,
		c.persistFailures,
		c.rehydrations,
		c.requests,
		c.latency,
	)
	return c
}

// RecordTransition counts a completed mutation.
func (c *Collector) RecordTransition(op string) {
	c.transitions.WithLabelValues(op).Inc()
}

// RecordPersistFailure counts a failed snapshot write.
func (c *Collector) RecordPersistFailure(op string) {
	c.persistFailures.WithLabelValues(op).Inc()
}

// RecordRehydrate counts a startup rehydration outcome.
func (c *Collector) RecordRehydrate(outcome string) {
	c.rehydrations.WithLabelValues(outcome).Inc()
}

// RecordRequest records one backend round trip. A status of 0 means the
// request never got a response.
func (c *Collector) RecordRequest(endpoint string, status int, d time.Duration) {
	label := strconv.Itoa(status)
	if status == 0 {
		label = "error"
	}
	c.requests.WithLabelValues(endpoint, label).Inc()
	c.latency.WithLabelValues(endpoint).Observe(d.Seconds())
}

// WriteTextfile dumps everything gathered from g in the node_exporter
// textfile format. An empty path is a no-op.
func WriteTextfile(path string, g prometheus.Gatherer) error {
	if path == "" {
		return nil
	}
	return prometheus.WriteToTextfile(path, g)
}
