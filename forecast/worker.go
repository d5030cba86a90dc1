package forecast

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
)

// Worker refreshes restock inferences of all users on a fixed interval.
type Worker struct {
	Service  *Service
	Interval time.Duration
	Logger   *logrus.Logger
}

// Run refreshes once immediately, then every Interval until ctx is done.
// A non-positive Interval disables the worker.
func (w *Worker) Run(ctx context.Context) {
	if w.Interval <= 0 {
		w.Logger.Info("restock worker disabled")
		return
	}
	ticker := time.NewTicker(w.Interval)
	defer ticker.Stop()

	w.tick(ctx)
	for {
		select {
		case <-ctx.Done():
			w.Logger.Info("restock worker stopped")
			return
		case <-ticker.C:
			w.tick(ctx)
		}
	}
}

func (w *Worker) tick(ctx context.Context) {
	start := time.Now()
	n, err := w.Service.RefreshAll(ctx)
	entry := w.Logger.WithFields(logrus.Fields{
		"updated":     n,
		"duration_ms": time.Since(start).Milliseconds(),
	})
	if err != nil {
		entry.WithError(err).Warn("restock refresh interrupted")
		return
	}
	entry.Info("restock refresh done")
}
