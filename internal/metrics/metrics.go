// Package metrics collects and exposes Prometheus metrics.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector registers and records application metrics.
type Collector struct {
	registry       *prometheus.Registry
	httpStatus     *prometheus.CounterVec
	httpLatency    prometheus.Histogram
	signups        prometheus.Counter
	logins         *prometheus.CounterVec
	resetRequests  prometheus.Counter
	resetCompleted prometheus.Counter
}

// NewCollector creates a Collector backed by its own registry.
func NewCollector() *Collector {
	registry := prometheus.NewRegistry()

	c := &Collector{
		registry: registry,
		httpStatus: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "cinescope_http_requests_total",
			Help: "HTTP responses by status code",
		}, []string{"status_code"}),
		httpLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "cinescope_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds",
			Buckets: prometheus.DefBuckets,
		}),
		signups: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "cinescope_signups_total",
			Help: "Accounts created",
		}),
		logins: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "cinescope_logins_total",
			Help: "Login attempts by result",
		}, []string{"result"}),
		resetRequests: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "cinescope_password_reset_requests_total",
			Help: "Forgot-password requests accepted",
		}),
		resetCompleted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "cinescope_password_resets_completed_total",
			Help: "Passwords changed via reset token",
		}),
	}

	registry.MustRegister(
		c.httpStatus,
		c.httpLatency,
		c.signups,
		c.logins,
		c.resetRequests,
		c.resetCompleted,
	)

	return c
}

func (c *Collector) RecordHTTPStatus(statusCode int) {
	c.httpStatus.WithLabelValues(strconv.Itoa(statusCode)).Inc()
}

func (c *Collector) RecordHTTPLatency(d time.Duration) {
	c.httpLatency.Observe(d.Seconds())
}

func (c *Collector) RecordSignup() {
	c.signups.Inc()
}

// RecordLogin records a login attempt; result is "success" or "failure".
func (c *Collector) RecordLogin(result string) {
	c.logins.WithLabelValues(result).Inc()
}

func (c *Collector) RecordResetRequest() {
	c.resetRequests.Inc()
}

func (c *Collector) RecordResetCompleted() {
	c.resetCompleted.Inc()
}

// Handler exposes the registry in Prometheus text format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}
