package usecase

import (
	"context"
	"fmt"
	"strings"

	"github.com/transit-explorer/internal/domain"
	apperrors "github.com/transit-explorer/internal/pkg/errors"
	"github.com/transit-explorer/internal/pkg/utils"
	"github.com/transit-explorer/internal/usecase/dto"
	"go.uber.org/zap"
)

// transitModeValues are feature property values that mark a native map
// feature as a transit stop rather than an ordinary POI.
var transitModeValues = map[string]struct{}{
	"bus":        {},
	"rail":       {},
	"tram":       {},
	"subway":     {},
	"metro":      {},
	"ferry":      {},
	"light_rail": {},
	"monorail":   {},
	"station":    {},
	"bus_stop":   {},
	"tram_stop":  {},
}

// nearbyStopsRadius is the search radius for resolving a clicked native
// transit feature to an actual stop.
const nearbyStopsRadius = 200

// InteractionUseCase routes map click events to the right pipeline:
// selection for known places, stop resolution for native transit
// features, construction plus enrichment for everything else. Exactly one
// outcome per event.
type InteractionUseCase struct {
	store      *StoreUseCase
	enrichment *EnrichmentUseCase
	routes     *RouteUseCase
	logger     *zap.Logger
}

func NewInteractionUseCase(
	store *StoreUseCase,
	enrichment *EnrichmentUseCase,
	routes *RouteUseCase,
	logger *zap.Logger,
) *InteractionUseCase {
	return &InteractionUseCase{
		store:      store,
		enrichment: enrichment,
		routes:     routes,
		logger:     logger,
	}
}

// HandleFeatureClick classifies a click and returns the resulting
// selection. Known ids are selected in place; native transit features are
// resolved to a real stop; other native features become ephemeral places
// enriched with OSM data.
func (uc *InteractionUseCase) HandleFeatureClick(ctx context.Context, event dto.FeatureClickEvent) (*domain.Selection, error) {
	if len(event.Coordinates) != 2 {
		return nil, apperrors.ErrInvalidRequest
	}
	lon, lat := event.Coordinates[0], event.Coordinates[1]
	if !utils.ValidCoordinates(lat, lon) {
		return nil, apperrors.ErrInvalidCoordinates
	}

	if event.FeatureID != "" {
		if place := uc.store.GetPlace(event.FeatureID); place != nil {
			return uc.selectKnown(ctx, place), nil
		}
	}

	if isTransitFeature(event.Properties) {
		return uc.selectNearestStop(ctx, lat, lon)
	}

	return uc.selectNativeFeature(ctx, event, lat, lon), nil
}

// selectKnown selects an already-stored place; un-enriched search results
// are enriched on the way.
func (uc *InteractionUseCase) selectKnown(ctx context.Context, place *domain.Place) *domain.Selection {
	if place.Origin == domain.OriginSearch && !place.OSMEnriched {
		place = uc.enrichment.EnrichPOIWithOSM(ctx, place)
	}
	uc.store.SelectPOI(place, place.Origin)
	if place.IsObaStop {
		uc.routes.PrefetchArrivals(place.ID)
	}
	return uc.store.GetActiveSelection()
}

// selectNearestStop resolves a clicked transit feature to the closest
// real stop from the transit API.
func (uc *InteractionUseCase) selectNearestStop(ctx context.Context, lat, lon float64) (*domain.Selection, error) {
	stops, err := uc.routes.FindNearbyStops(ctx, lat, lon, nearbyStopsRadius)
	if err != nil {
		return nil, err
	}
	if len(stops) == 0 {
		return nil, apperrors.ErrPlaceNotFound.WithDetails(map[string]interface{}{
			"lat": lat,
			"lon": lon,
		})
	}

	nearest := stops[0]
	best := utils.HaversineDistance(lat, lon, nearest.Lat, nearest.Lon)
	for _, stop := range stops[1:] {
		if d := utils.HaversineDistance(lat, lon, stop.Lat, stop.Lon); d < best {
			nearest, best = stop, d
		}
	}

	uc.logger.Debug("Resolved click to transit stop",
		zap.String("stop_id", nearest.ID),
		zap.Float64("distance_m", best))

	uc.store.SelectPOI(nearest, domain.OriginNative)
	uc.routes.PrefetchArrivals(nearest.ID)
	return uc.store.GetActiveSelection(), nil
}

// selectNativeFeature builds an ephemeral place from the clicked feature
// and enriches it before selection.
func (uc *InteractionUseCase) selectNativeFeature(ctx context.Context, event dto.FeatureClickEvent, lat, lon float64) *domain.Selection {
	name := event.Properties["name"]
	if name == "" {
		name = fmt.Sprintf("%.5f, %.5f", lat, lon)
	}

	place := &domain.Place{
		ID:       event.FeatureID,
		Name:     name,
		Category: event.Properties["class"],
		Lat:      lat,
		Lon:      lon,
		Origin:   domain.OriginNative,
	}
	uc.store.AddPlace(place, domain.OriginNative)

	place = uc.enrichment.EnrichPOIWithOSM(ctx, place)
	uc.store.SelectPOI(place, domain.OriginNative)
	return uc.store.GetActiveSelection()
}

// isTransitFeature checks the conventional map-style property keys for a
// transit mode value.
func isTransitFeature(properties map[string]string) bool {
	for _, key := range []string{"mode", "class", "maki", "network"} {
		v := strings.ToLower(properties[key])
		if _, ok := transitModeValues[v]; ok {
			return true
		}
	}
	return false
}
