package gateway

import (
	"errors"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
)

// Instrumentation records request counts, latency and sizes per route.
// Collectors are registered on reg, reusing ones already registered.
func Instrumentation(reg prometheus.Registerer) fiber.Handler {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	counterVec := RegisterCounterVec(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "warung",
		Subsystem: "request",
		Name:      "requests_count",
		Help:      "Number of requests per each endpoint",
	}, []string{"code", "method", "route"}))

	resTime := RegisterHistogramVec(reg, prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "warung",
		Subsystem: "response",
		Name:      "duration_seconds",
		Help:      "warung response duration",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "route"}))

	resSize := RegisterHistogram(reg, prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "warung",
		Subsystem: "response",
		Name:      "size_bytes",
		Help:      "warung response size",
		Buckets:   prometheus.ExponentialBuckets(64, 4, 8),
	}))

	reqSize := RegisterHistogram(reg, prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "warung",
		Subsystem: "request",
		Name:      "size_bytes",
		Help:      "Request size instrumenter",
		Buckets:   prometheus.ExponentialBuckets(64, 4, 8),
	}))

	return func(c *fiber.Ctx) error {
		if c.Path() == "/metrics" {
			return c.Next()
		}
		start := time.Now()
		err := c.Next()

		status := c.Response().StatusCode()
		if err != nil {
			// the error handler has not run yet
			status = errorStatus(err)
		}
		route := c.Path()
		if r := c.Route(); r != nil && r.Path != "" {
			route = r.Path
		}

		counterVec.WithLabelValues(strconv.Itoa(status), c.Method(), route).Inc()
		resTime.WithLabelValues(c.Method(), route).Observe(time.Since(start).Seconds())
		resSize.Observe(float64(len(c.Response().Body())))
		reqSize.Observe(float64(len(c.Body())))
		return err
	}
}

func errorStatus(err error) int {
	var fe *fiber.Error
	if errors.As(err, &fe) {
		return fe.Code
	}
	status, _ := renderError(err)
	return status
}

// RegisterCounterVec registers c on reg or returns the collector already
// registered under the same descriptor.
func RegisterCounterVec(reg prometheus.Registerer, c *prometheus.CounterVec) *prometheus.CounterVec {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(*prometheus.CounterVec); ok {
				return existing
			}
		}
		panic(err)
	}
	return c
}

func RegisterHistogramVec(reg prometheus.Registerer, h *prometheus.HistogramVec) *prometheus.HistogramVec {
	if err := reg.Register(h); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(*prometheus.HistogramVec); ok {
				return existing
			}
		}
		panic(err)
	}
	return h
}

func RegisterHistogram(reg prometheus.Registerer, h prometheus.Histogram) prometheus.Histogram {
	if err := reg.Register(h); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(prometheus.Histogram); ok {
				return existing
			}
		}
		panic(err)
	}
	return h
}
