package vehicles

import (
	"context"
	"time"

	"github.com/transit-explorer/internal/domain"
	"github.com/transit-explorer/internal/worker"
	"go.uber.org/zap"
)

// VehicleFetcher fetches live vehicles for one route, writing through the
// shared cache.
type VehicleFetcher interface {
	GetVehiclesForRoute(ctx context.Context, routeID string) ([]domain.Vehicle, error)
}

// PrefetchWorker keeps vehicle positions warm for a fixed set of routes.
// It runs in the standalone worker process against the shared Redis
// cache, so API reads for those routes never spend rate-limit quota.
type PrefetchWorker struct {
	*worker.BaseWorker
	fetcher  VehicleFetcher
	routeIDs []string
	interval time.Duration
}

func NewPrefetchWorker(fetcher VehicleFetcher, routeIDs []string, interval time.Duration, logger *zap.Logger) *PrefetchWorker {
	return &PrefetchWorker{
		BaseWorker: worker.NewBaseWorker("vehicle-prefetch", logger),
		fetcher:    fetcher,
		routeIDs:   routeIDs,
		interval:   interval,
	}
}

// Start runs the prefetch loop until Stop or context cancellation.
func (w *PrefetchWorker) Start(ctx context.Context) error {
	logger := w.Logger()
	logger.Info("Starting vehicle prefetch worker",
		zap.Strings("route_ids", w.routeIDs),
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
			w.prefetch(ctx)
		}
	}
}

func (w *PrefetchWorker) prefetch(ctx context.Context) {
	logger := w.Logger()
	for _, routeID := range w.routeIDs {
		if w.IsStopped() {
			return
		}
		vehicles, err := w.fetcher.GetVehiclesForRoute(ctx, routeID)
		if err != nil {
			logger.Debug("Prefetch skipped",
				zap.String("route_id", routeID), zap.Error(err))
			continue
		}
		logger.Debug("Prefetched vehicles",
			zap.String("route_id", routeID),
			zap.Int("count", len(vehicles)))
	}
}
