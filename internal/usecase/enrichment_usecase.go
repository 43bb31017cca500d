package usecase

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/transit-explorer/internal/domain"
	"github.com/transit-explorer/internal/domain/repository"
	"github.com/transit-explorer/internal/pkg/utils"
	"go.uber.org/zap"
)

// osmTagFields are the OSM tags merged onto a place during enrichment.
var osmTagFields = []string{
	"amenity", "shop", "tourism", "cuisine", "brand", "operator",
	"phone", "website", "opening_hours",
}

type enrichmentFlight struct {
	done   chan struct{}
	result *domain.Place
}

// EnrichmentUseCase augments native and search places with OSM tags and
// addresses. Concurrent requests for the same place, by id or by
// name+location, join the in-flight lookup instead of hitting Overpass
// twice.
type EnrichmentUseCase struct {
	geodataRepo repository.GeodataRepository
	store       *StoreUseCase
	matchRadius float64
	logger      *zap.Logger

	mu       sync.Mutex
	inflight map[string]*enrichmentFlight

	now func() time.Time
}

func NewEnrichmentUseCase(
	geodataRepo repository.GeodataRepository,
	store *StoreUseCase,
	matchRadius float64,
	logger *zap.Logger,
) *EnrichmentUseCase {
	return &EnrichmentUseCase{
		geodataRepo: geodataRepo,
		store:       store,
		matchRadius: matchRadius,
		logger:      logger,
		inflight:    make(map[string]*enrichmentFlight),
		now:         time.Now,
	}
}

// EnrichPOIWithOSM returns the place augmented with OSM data. Stored and
// created places, and search results already enriched, come back
// untouched. Enrichment failures degrade to the original place; only the
// lookup attempt is recorded so the next click does not retry forever.
func (uc *EnrichmentUseCase) EnrichPOIWithOSM(ctx context.Context, place *domain.Place) *domain.Place {
	if !eligibleForEnrichment(place) {
		return place
	}

	keys := flightKeys(place)

	uc.mu.Lock()
	for _, k := range keys {
		if f, ok := uc.inflight[k]; ok {
			uc.mu.Unlock()
			select {
			case <-f.done:
				if f.result != nil {
					return f.result
				}
				return place
			case <-ctx.Done():
				return place
			}
		}
	}
	flight := &enrichmentFlight{done: make(chan struct{})}
	for _, k := range keys {
		uc.inflight[k] = flight
	}
	uc.mu.Unlock()

	defer func() {
		uc.mu.Lock()
		for _, k := range keys {
			delete(uc.inflight, k)
		}
		uc.mu.Unlock()
		close(flight.done)
	}()

	enriched := uc.enrich(ctx, place)
	flight.result = enriched
	return enriched
}

func (uc *EnrichmentUseCase) enrich(ctx context.Context, place *domain.Place) *domain.Place {
	out := *place
	out.OSMLookupAttempted = true

	match, err := uc.geodataRepo.FindNearbyPlace(ctx, place.Name, place.Lat, place.Lon, uc.matchRadius)
	if err != nil {
		uc.logger.Warn("OSM lookup failed, continuing without enrichment",
			zap.String("name", place.Name), zap.Error(err))
		uc.store.UpdatePlace(&out)
		return &out
	}

	if match != nil {
		uc.applyMatch(&out, match)
	}

	// A name or address that is just coordinates, or a place with no
	// address yet, still deserves a human-readable address.
	if out.Address == nil || *out.Address == "" ||
		utils.LooksLikeCoordinates(*out.Address) || utils.LooksLikeCoordinates(out.Name) {
		addr, err := uc.geodataRepo.ReverseGeocode(ctx, place.Lat, place.Lon)
		if err != nil {
			uc.logger.Warn("Reverse geocoding failed",
				zap.Float64("lat", place.Lat), zap.Float64("lon", place.Lon), zap.Error(err))
		} else if addr != "" {
			out.Address = &addr
		}
	}

	uc.store.UpdatePlace(&out)
	return &out
}

func (uc *EnrichmentUseCase) applyMatch(place *domain.Place, match *domain.OSMMatch) {
	if place.Tags == nil {
		place.Tags = make(map[string]string)
	}
	for _, field := range osmTagFields {
		if v, ok := match.Tags[field]; ok && v != "" {
			place.Tags[field] = v
		}
	}

	// Structured contact tags double as top-level fields when absent.
	if place.Phone == nil {
		if v := match.Tags["phone"]; v != "" {
			place.Phone = &v
		}
	}
	if place.Website == nil {
		if v := match.Tags["website"]; v != "" {
			place.Website = &v
		}
	}
	if place.Hours == nil {
		if v := match.Tags["opening_hours"]; v != "" {
			place.Hours = &v
		}
	}
	if (place.Address == nil || *place.Address == "") && match.Address != "" {
		addr := match.Address
		place.Address = &addr
	}
	if place.Category == "" {
		if v := match.Tags["amenity"]; v != "" {
			place.Category = v
		} else if v := match.Tags["shop"]; v != "" {
			place.Category = v
		}
	}

	now := uc.now()
	place.OSMEnriched = true
	place.OSMEnrichedAt = &now
}

// eligibleForEnrichment: only native features and not-yet-enriched search
// results go to OSM. Stored and created places hold user data that must
// not be overwritten.
func eligibleForEnrichment(place *domain.Place) bool {
	switch place.Origin {
	case domain.OriginNative:
		return !place.OSMLookupAttempted
	case domain.OriginSearch:
		return !place.OSMEnriched && !place.OSMLookupAttempted
	default:
		return false
	}
}

// flightKeys returns the dedup keys for a place: its id plus its
// name+rounded-location, so the same physical place clicked under two
// transient ids still joins one lookup.
func flightKeys(place *domain.Place) []string {
	keys := make([]string, 0, 2)
	if place.ID != "" {
		keys = append(keys, "id:"+place.ID)
	}
	keys = append(keys, "geo:"+strings.ToLower(place.Name)+"|"+utils.RoundedCoordKey(place.Lat, place.Lon))
	return keys
}
