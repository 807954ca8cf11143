package middleware

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Requests served by the QR API, partitioned by method, route, and status
	apiRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "skanfy",
			Subsystem: "api",
			Name:      "requests_total",
			Help:      "Total number of requests served by the QR API",
		},
		[]string{"method", "route", "status"},
	)

	apiRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "skanfy",
			Subsystem: "api",
			Name:      "request_duration_seconds",
			Help:      "QR API request latencies in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "route", "status"},
	)

	apiInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "skanfy",
			Subsystem: "api",
			Name:      "inflight_requests",
			Help:      "Number of QR API requests currently being served",
		},
	)
)

// Metrics returns a Fiber v3 middleware that records Prometheus metrics for
// every request. The route template is used as the label where available so
// scan paths like /api/v1/qr/:id stay low-cardinality.
func Metrics() fiber.Handler {
	return func(c fiber.Ctx) error {
		start := time.Now()
		apiInFlight.Inc()
		defer apiInFlight.Dec()

		err := c.Next()

		route := c.Path()
		if r := c.Route(); r != nil && r.Path != "" {
			route = r.Path
		}

		labels := prometheus.Labels{
			"method": c.Method(),
			"route":  route,
			"status": strconv.Itoa(c.Response().StatusCode()),
		}
		apiRequestsTotal.With(labels).Inc()
		apiRequestDuration.With(labels).Observe(time.Since(start).Seconds())

		return err
	}
}
