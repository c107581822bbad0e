// Package telemetry exposes Prometheus metrics for the console: inbound HTTP
// requests, outbound backend calls, and session lifecycle events.
package telemetry

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "hospital_console"

var durationBuckets = []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10}

// Provider owns a registry and the console's collectors.
type Provider struct {
	registry *prometheus.Registry

	httpRequests   *prometheus.CounterVec
	httpDuration   *prometheus.HistogramVec
	activeRequests prometheus.Gauge

	backendRequests *prometheus.CounterVec
	backendDuration *prometheus.HistogramVec

	sessionEvents *prometheus.CounterVec
}

// NewProvider builds a Provider on a fresh registry. Go runtime and process
// collectors are included when withRuntime is true.
func NewProvider(withRuntime bool) *Provider {
	reg := prometheus.NewRegistry()
	p := &Provider{
		registry: reg,
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Console HTTP requests by method, route and status.",
		}, []string{"method", "route", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "Console HTTP request latency.",
			Buckets:   durationBuckets,
		}, []string{"method", "route"}),
		activeRequests: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "http_active_requests",
			Help:      "Console HTTP requests in flight.",
		}),
		backendRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "backend_requests_total",
			Help:      "Calls to the hospital backend by method, resource and status (0 = no response).",
		}, []string{"method", "resource", "status"}),
		backendDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "backend_request_duration_seconds",
			Help:      "Hospital backend call latency.",
			Buckets:   durationBuckets,
		}, []string{"method", "resource"}),
		sessionEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "session_events_total",
			Help:      "Session lifecycle events (login, logout, corrupt).",
		}, []string{"event"}),
	}

	reg.MustRegister(
		p.httpRequests,
		p.httpDuration,
		p.activeRequests,
		p.backendRequests,
		p.backendDuration,
		p.sessionEvents,
	)
	if withRuntime {
		reg.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
	}
	return p
}

func (p *Provider) Registry() *prometheus.Registry { return p.registry }

// ObserveBackendRequest records one outbound call. endpoint is reduced to its
// first path segment so ids do not explode label cardinality.
func (p *Provider) ObserveBackendRequest(method, endpoint string, status int, d time.Duration) {
	resource := ResourceOf(endpoint)
	p.backendRequests.WithLabelValues(method, resource, strconv.Itoa(status)).Inc()
	p.backendDuration.WithLabelValues(method, resource).Observe(d.Seconds())
}

func (p *Provider) ObserveSessionEvent(event string) {
	p.sessionEvents.WithLabelValues(event).Inc()
}

// MetricsMiddleware records inbound request counts and latency by route
// pattern.
func (p *Provider) MetricsMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			p.activeRequests.Inc()
			start := time.Now()

			err := next(c)

			p.activeRequests.Dec()
			status := c.Response().Status
			if he, ok := err.(*echo.HTTPError); ok {
				status = he.Code
			}
			route := c.Path()
			if route == "" {
				route = "unmatched"
			}
			method := c.Request().Method
			p.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
			p.httpDuration.WithLabelValues(method, route).Observe(time.Since(start).Seconds())
			return err
		}
	}
}

// Handler serves the registry in the Prometheus exposition format.
func (p *Provider) Handler() http.Handler {
	return promhttp.HandlerFor(p.registry, promhttp.HandlerOpts{})
}

// PrometheusHandler is Handler wrapped for echo.
func (p *Provider) PrometheusHandler() echo.HandlerFunc {
	return echo.WrapHandler(p.Handler())
}

// ResourceOf returns the first segment of a backend endpoint path:
// "/pacientes/7/inactivar?x=1" gives "pacientes".
func ResourceOf(endpoint string) string {
	if i := strings.IndexAny(endpoint, "?#"); i >= 0 {
		endpoint = endpoint[:i]
	}
	endpoint = strings.TrimPrefix(endpoint, "/")
	if i := strings.IndexByte(endpoint, '/'); i >= 0 {
		endpoint = endpoint[:i]
	}
	if endpoint == "" {
		return "root"
	}
	return endpoint
}
