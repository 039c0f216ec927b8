package handler

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	hearthRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "hearth_domains_requests_total",
		Help: "Total HTTP requests by method, path, and response status.",
	}, []string{"method", "path", "status"})

	hearthRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "hearth_domains_request_duration_seconds",
		Help:    "Request duration in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path"})

	hearthDNSChecksTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "hearth_domains_dns_checks_total",
		Help: "Total DNS requirement checks by record kind and outcome.",
	}, []string{"kind", "result"})

	hearthDispatchesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "hearth_domains_provision_dispatches_total",
		Help: "Total provisioning queue hand-offs by outcome.",
	}, []string{"status"})

	hearthTLSProbesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "hearth_domains_tls_probes_total",
		Help: "Total TLS probes by outcome.",
	}, []string{"result"})

	hearthClaimsGauge = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "hearth_domains_claims",
		Help: "Current number of domain claims by verification state.",
	}, []string{"state"})
)

// PrometheusMiddleware returns a Gin middleware that records per-request metrics.
func PrometheusMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(c.Writer.Status())
		method := c.Request.Method
		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}

		hearthRequestsTotal.WithLabelValues(method, path, status).Inc()
		hearthRequestDuration.WithLabelValues(method, path).Observe(duration)
	}
}

// MetricsHandler returns a Gin handler that serves Prometheus metrics.
func MetricsHandler() gin.HandlerFunc {
	h := promhttp.Handler()
	return func(c *gin.Context) {
		h.ServeHTTP(c.Writer, c.Request)
	}
}

// RecordDNSCheck records one requirement check outcome.
func RecordDNSCheck(kind string, verified bool) {
	result := "miss"
	if verified {
		result = "verified"
	}
	hearthDNSChecksTotal.WithLabelValues(kind, result).Inc()
}

// RecordDispatch records a provisioning hand-off attempt.
func RecordDispatch(success bool) {
	if success {
		hearthDispatchesTotal.WithLabelValues("success").Inc()
	} else {
		hearthDispatchesTotal.WithLabelValues("failure").Inc()
	}
}

// RecordTLSProbe records a TLS probe outcome.
func RecordTLSProbe(secure bool) {
	if secure {
		hearthTLSProbesTotal.WithLabelValues("secure").Inc()
	} else {
		hearthTLSProbesTotal.WithLabelValues("insecure").Inc()
	}
}

// SetClaimsGauge sets the claim count gauge for a given state.
func SetClaimsGauge(state string, count float64) {
	hearthClaimsGauge.WithLabelValues(state).Set(count)
}
