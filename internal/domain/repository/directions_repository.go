package repository

import (
	"context"

	"github.com/transit-explorer/internal/domain"
)

// DirectionsRepository fetches turn-by-turn driving/walking routes from the
// map SDK's directions service.
type DirectionsRepository interface {
	GetRoute(ctx context.Context, profile string, fromLat, fromLon, toLat, toLon float64) (*domain.DirectionsRoute, error)
}
