package gateway

import (
	"sync/atomic"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

// LogSamplingConfig throttles request logs: at most one per Tick, except
// requests slower than After and server errors, which are always logged.
type LogSamplingConfig struct {
	Tick  time.Duration
	After time.Duration
}

// sampler lets one request through per tick. next holds unix nanos.
type sampler struct {
	cfg  LogSamplingConfig
	next atomic.Int64
}

func (s *sampler) allow(now time.Time, took time.Duration) bool {
	if s.cfg.After > 0 && took >= s.cfg.After {
		return true
	}
	if s.cfg.Tick <= 0 {
		return true
	}
	for {
		next := s.next.Load()
		if now.UnixNano() < next {
			return false
		}
		if s.next.CompareAndSwap(next, now.Add(s.cfg.Tick).UnixNano()) {
			return true
		}
	}
}

// RequestLogger writes one structured line per sampled request. Requests that
// end in a 5xx are never dropped.
func RequestLogger(logger *logrus.Logger, cfg LogSamplingConfig) fiber.Handler {
	s := &sampler{cfg: cfg}
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()
		took := time.Since(start)

		status := c.Response().StatusCode()
		if err != nil {
			status = errorStatus(err)
		}
		if status < fiber.StatusInternalServerError && !s.allow(time.Now(), took) {
			return err
		}

		entry := logger.WithFields(requestFields(c, status, took))
		if err != nil {
			entry = entry.WithError(err)
		}
		logAtLevel(entry, status)
		return err
	}
}

func requestFields(c *fiber.Ctx, status int, took time.Duration) logrus.Fields {
	path := c.Path()
	if r := c.Route(); r != nil && r.Path != "" {
		path = r.Path
	}
	f := logrus.Fields{
		"request_id":  RequestIDFromCtx(c),
		"method":      c.Method(),
		"path":        path,
		"status":      status,
		"duration_ms": took.Milliseconds(),
		"bytes_out":   len(c.Response().Body()),
		"ip":          c.IP(),
	}
	if userID := c.Locals(localsUserID); userID != nil {
		f["user_id"] = userID
	}
	if ua := c.Get(fiber.HeaderUserAgent); ua != "" {
		f["user_agent"] = ua
	}
	return f
}

func logAtLevel(entry *logrus.Entry, status int) {
	switch {
	case status >= fiber.StatusInternalServerError:
		entry.Error("http_request")
	case status >= fiber.StatusBadRequest:
		entry.Warn("http_request")
	default:
		entry.Info("http_request")
	}
}
