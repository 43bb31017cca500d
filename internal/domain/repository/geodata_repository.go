package repository

import (
	"context"

	"github.com/transit-explorer/internal/domain"
)

// GeodataRepository is the OSM tag/geocoding boundary (Overpass + Nominatim).
type GeodataRepository interface {
	// FindNearbyPlace looks up an OSM element with a similar name within
	// radius meters of the coordinates. Returns (nil, nil) when nothing
	// matches; a miss is not an error.
	FindNearbyPlace(ctx context.Context, name string, lat, lon, radius float64) (*domain.OSMMatch, error)

	// ReverseGeocode resolves coordinates to a human-readable address.
	// Returns "" when no address is found.
	ReverseGeocode(ctx context.Context, lat, lon float64) (string, error)

	// SearchPlaces resolves a free-text query into up to limit candidate
	// places via forward geocoding. An empty result set is not an error.
	SearchPlaces(ctx context.Context, query string, limit int) ([]*domain.OSMMatch, error)
}
