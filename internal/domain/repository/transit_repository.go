package repository

import (
	"context"

	"github.com/transit-explorer/internal/domain"
)

// TransitRepository is the OneBusAway-shaped transit API boundary.
// Implementations validate the wrapped {code, data} envelope and convert
// payloads to typed domain values before they enter the core.
type TransitRepository interface {
	// StopsForLocation returns transit stops near a point as Places.
	StopsForLocation(ctx context.Context, lat, lon, radius float64) ([]*domain.Place, error)

	// ArrivalsForStop returns arrival/departure predictions for a stop.
	ArrivalsForStop(ctx context.Context, stopID string) ([]domain.Arrival, error)

	// StopsForRoute returns route metadata, direction groupings and the
	// stop reference table for geometry assembly.
	StopsForRoute(ctx context.Context, routeID string) (*domain.StopsForRouteData, error)

	// VehiclesForRoute returns live vehicle positions for a route.
	VehiclesForRoute(ctx context.Context, routeID string) ([]domain.Vehicle, error)
}
