package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "hms"

// Collector owns the service's Prometheus metrics and the registry they are
// exposed from.
type Collector struct {
	registry *prometheus.Registry

	httpRequests         *prometheus.CounterVec
	httpDuration         *prometheus.HistogramVec
	authAttempts         *prometheus.CounterVec
	compensationFailures *prometheus.CounterVec
}

// NewCollector creates a collector backed by a fresh registry that also
// carries the Go runtime and process collectors.
func NewCollector() *Collector {
	reg := prometheus.NewRegistry()

	c := &Collector{
		registry: reg,
		httpRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"method", "route", "status_code"},
		),
		httpDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "Duration of HTTP requests in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
		authAttempts: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "auth_attempts_total",
				Help:      "Total number of signup and login attempts",
			},
			[]string{"method", "status"},
		),
		compensationFailures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "compensation_failures_total",
				Help:      "Follow-up writes that failed after a primary write succeeded",
			},
			[]string{"operation"},
		),
	}

	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		c.httpRequests,
		c.httpDuration,
		c.authAttempts,
		c.compensationFailures,
	)
	return c
}

// Registry exposes the underlying registry for additional collectors.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// RecordAuthAttempt counts a signup or login by outcome ("success" or
// "failure").
func (c *Collector) RecordAuthAttempt(method, status string) {
	c.authAttempts.WithLabelValues(method, status).Inc()
}

// RecordCompensationFailure counts a roster or cascade step that failed.
func (c *Collector) RecordCompensationFailure(operation string) {
	c.compensationFailures.WithLabelValues(operation).Inc()
}

// RegisterPoolGauges exports connection pool sizes read from stats on every
// scrape.
func (c *Collector) RegisterPoolGauges(stats func() (total, idle, acquired int32)) {
	gauge := func(name, help string, pick func(total, idle, acquired int32) int32) prometheus.Collector {
		return prometheus.NewGaugeFunc(
			prometheus.GaugeOpts{Namespace: namespace, Subsystem: "db", Name: name, Help: help},
			func() float64 { return float64(pick(stats())) },
		)
	}
	c.registry.MustRegister(
		gauge("connections_total", "Open database connections", func(t, _, _ int32) int32 { return t }),
		gauge("connections_idle", "Idle database connections", func(_, i, _ int32) int32 { return i }),
		gauge("connections_acquired", "Database connections in use", func(_, _, a int32) int32 { return a }),
	)
}

// Handler serves the registry in the Prometheus text format.
func (c *Collector) Handler() echo.HandlerFunc {
	return echo.WrapHandler(promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{}))
}

// Middleware records request count and latency per route template. Errors
// are committed first so the recorded status is the one the client saw.
func (c *Collector) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			start := time.Now()

			err := next(ctx)
			if err != nil {
				ctx.Error(err)
			}

			route := ctx.Path()
			if route == "" {
				route = "unmatched"
			}
			method := ctx.Request().Method
			status := ctx.Response().Status
			if status == 0 {
				status = http.StatusOK
			}

			c.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
			c.httpDuration.WithLabelValues(method, route).Observe(time.Since(start).Seconds())
			return nil
		}
	}
}
