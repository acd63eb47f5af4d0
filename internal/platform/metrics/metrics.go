// Package metrics exposes the server's Prometheus collectors.
package metrics

import (
	"errors"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Reconciliation outcomes.
const (
	Created = "created"
	Updated = "updated"
	Voided  = "voided"
)

var (
	httpRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "openchs",
		Name:      "http_requests_total",
		Help:      "HTTP requests by route, method and status.",
	}, []string{"route", "method", "status"})

	httpDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "openchs",
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request latency by route and method.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"route", "method"})

	reconciledNodes = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "openchs",
		Name:      "reconciled_nodes_total",
		Help:      "Entities written by reconciliation, by entity and outcome.",
	}, []string{"entity", "outcome"})
)

// Reconciled counts n nodes of entity that ended with outcome.
func Reconciled(entity, outcome string, n int) {
	if n <= 0 {
		return
	}
	reconciledNodes.WithLabelValues(entity, outcome).Add(float64(n))
}

// Middleware records request counts and latency by route template.
func Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)

			status := c.Response().Status
			var httpErr *echo.HTTPError
			if err != nil && errors.As(err, &httpErr) {
				status = httpErr.Code
			}

			route := c.Path()
			if route == "" {
				route = "unmatched"
			}
			method := c.Request().Method
			httpRequests.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
			httpDuration.WithLabelValues(route, method).Observe(time.Since(start).Seconds())
			return err
		}
	}
}

// Handler serves the default registry.
func Handler() echo.HandlerFunc {
	return echo.WrapHandler(promhttp.Handler())
}
