// Package observability exposes Prometheus metrics for the HTTP layer and the item use cases.
package observability

import (
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	httpRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "stockroom",
		Name:      "http_requests_total",
		Help:      "HTTP requests processed, by method, route and status code.",
	}, []string{"method", "route", "status"})

	httpDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "stockroom",
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request latency, by method and route.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "route"})

	itemOperations = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "stockroom",
		Name:      "item_operations_total",
		Help:      "Item store operations, by operation and result.",
	}, []string{"operation", "result"})

	cacheLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "stockroom",
		Name:      "item_cache_lookups_total",
		Help:      "Item listing cache lookups, by result.",
	}, []string{"result"})
)

// Middleware records request counts and latencies keyed by the matched route
// template, so /api/items/1/ and /api/items/2/ share a series.
func Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)

			route := c.Path()
			if route == "" {
				route = "unmatched"
			}
			status := c.Response().Status
			if err != nil {
				if he, ok := err.(*echo.HTTPError); ok {
					status = he.Code
				}
			}

			method := c.Request().Method
			httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
			httpDuration.WithLabelValues(method, route).Observe(time.Since(start).Seconds())
			return err
		}
	}
}

// RecordItemOperation counts one item store operation.
func RecordItemOperation(operation string, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	itemOperations.WithLabelValues(operation, result).Inc()
}

// RecordCacheLookup counts one listing cache lookup.
func RecordCacheLookup(hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	cacheLookups.WithLabelValues(result).Inc()
}
