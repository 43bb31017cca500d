// Package vehicles holds the background workers that keep live transit
// data warm: the active-route vehicle poller and the route prefetcher.
package vehicles

import (
	"context"
	"time"

	"github.com/transit-explorer/internal/worker"
	"go.uber.org/zap"
)

// VehicleRefresher is the slice of the route pipeline the poller needs.
type VehicleRefresher interface {
	RefreshActiveRouteVehicles(ctx context.Context)
}

// PollWorker refreshes the active route's vehicle positions on a fixed
// interval. When no route is active or the rate-limit window is spent,
// a tick is simply skipped.
type PollWorker struct {
	*worker.BaseWorker
	refresher VehicleRefresher
	interval  time.Duration
}

func NewPollWorker(refresher VehicleRefresher, interval time.Duration, logger *zap.Logger) *PollWorker {
	return &PollWorker{
		BaseWorker: worker.NewBaseWorker("vehicle-poll", logger),
		refresher:  refresher,
		interval:   interval,
	}
}

// Start runs the polling loop until Stop or context cancellation.
func (w *PollWorker) Start(ctx context.Context) error {
	logger := w.Logger()
	logger.Info("Starting vehicle poll worker",
		zap.Duration("interval", w.interval))

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-w.StopChan():
			logger.Info("Worker stopped")
			return nil

		case <-ctx.Done():
			logger.Info("Context cancelled")
			return ctx.Err()

		case <-ticker.C:
			w.refresher.RefreshActiveRouteVehicles(ctx)
		}
	}
}
