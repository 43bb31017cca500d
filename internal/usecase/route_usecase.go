package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/transit-explorer/internal/domain"
	"github.com/transit-explorer/internal/domain/repository"
	apperrors "github.com/transit-explorer/internal/pkg/errors"
	"github.com/transit-explorer/internal/pkg/ratelimit"
	"github.com/transit-explorer/internal/pkg/utils"
	"go.uber.org/zap"
)

// RouteUseCase drives transit route display: fetching route geometry,
// live vehicles, stop arrivals and nearby-stop lookups, and handing
// driving/walking directions off to the store.
type RouteUseCase struct {
	transitRepo    repository.TransitRepository
	directionsRepo repository.DirectionsRepository
	cacheRepo      repository.CacheRepository
	store          *StoreUseCase
	limiter        *ratelimit.Limiter
	debouncer      *ratelimit.Debouncer
	logger         *zap.Logger

	vehiclesTTL time.Duration
	nearbyTTL   time.Duration
}

func NewRouteUseCase(
	transitRepo repository.TransitRepository,
	directionsRepo repository.DirectionsRepository,
	cacheRepo repository.CacheRepository,
	store *StoreUseCase,
	limiter *ratelimit.Limiter,
	debouncer *ratelimit.Debouncer,
	vehiclesTTL, nearbyTTL time.Duration,
	logger *zap.Logger,
) *RouteUseCase {
	return &RouteUseCase{
		transitRepo:    transitRepo,
		directionsRepo: directionsRepo,
		cacheRepo:      cacheRepo,
		store:          store,
		limiter:        limiter,
		debouncer:      debouncer,
		vehiclesTTL:    vehiclesTTL,
		nearbyTTL:      nearbyTTL,
		logger:         logger,
	}
}

// GetRouteDetails fetches a route's stops and geometry, assembles its
// branches, stores the route and makes it the active map display.
func (uc *RouteUseCase) GetRouteDetails(ctx context.Context, routeID string) (*domain.Route, error) {
	routeID = strings.TrimSpace(routeID)
	if routeID == "" {
		return nil, apperrors.ErrInvalidRouteID
	}

	if err := uc.limiter.Allow("stops-for-route"); err != nil {
		return nil, err
	}

	data, err := uc.transitRepo.StopsForRoute(ctx, routeID)
	if err != nil {
		return nil, err
	}

	route := assembleRoute(routeID, data)
	if len(route.Branches) == 0 && route.ShortName == "" && route.LongName == "" {
		uc.logger.Warn("Route has no geometry or metadata", zap.String("route_id", routeID))
		return nil, apperrors.ErrRouteNotFound.WithDetails(map[string]interface{}{
			"route_id": routeID,
		})
	}

	logBranchSummary(uc.logger, route)

	id := uc.store.UpsertRoute(route)
	uc.store.SetActiveRoute(id)

	uc.logger.Info("Route activated",
		zap.String("route_id", routeID),
		zap.Int("branches", len(route.Branches)))
	return route, nil
}

// GetVehiclesForRoute returns live vehicle positions, serving a cached
// list within the vehicles TTL before spending rate-limit quota.
func (uc *RouteUseCase) GetVehiclesForRoute(ctx context.Context, routeID string) ([]domain.Vehicle, error) {
	routeID = strings.TrimSpace(routeID)
	if routeID == "" {
		return nil, apperrors.ErrInvalidRouteID
	}

	key := "vehicles:" + routeID
	if data, err := uc.cacheRepo.Get(ctx, key); err == nil && data != nil {
		var vehicles []domain.Vehicle
		if err := json.Unmarshal(data, &vehicles); err == nil {
			return vehicles, nil
		}
	}

	if err := uc.limiter.Allow("vehicles-for-route"); err != nil {
		return nil, err
	}

	vehicles, err := uc.transitRepo.VehiclesForRoute(ctx, routeID)
	if err != nil {
		return nil, err
	}

	if data, err := json.Marshal(vehicles); err == nil {
		if err := uc.cacheRepo.Set(ctx, key, data, uc.vehiclesTTL); err != nil {
			uc.logger.Warn("Failed to cache vehicles", zap.Error(err))
		}
	}

	return vehicles, nil
}

// RefreshActiveRouteVehicles updates the active route's vehicle list in
// the store. Rate-limit rejections are logged and swallowed so the
// background poller just skips a beat instead of erroring out.
func (uc *RouteUseCase) RefreshActiveRouteVehicles(ctx context.Context) {
	route := uc.store.GetActiveRoute()
	if route == nil {
		return
	}

	vehicles, err := uc.GetVehiclesForRoute(ctx, route.OBARouteID)
	if err != nil {
		uc.logger.Debug("Vehicle refresh skipped",
			zap.String("route_id", route.OBARouteID), zap.Error(err))
		return
	}

	uc.store.SetVehicles(route.ID, vehicles)
}

// GetArrivalsForStop returns arrival predictions for a stop, serving the
// cached list while it is fresh.
func (uc *RouteUseCase) GetArrivalsForStop(ctx context.Context, stopID string) ([]domain.Arrival, error) {
	stopID = strings.TrimSpace(stopID)
	if stopID == "" {
		return nil, apperrors.ErrInvalidRequest
	}

	if arrivals, ok, err := uc.store.GetCachedArrivals(ctx, stopID); err == nil && ok {
		return arrivals, nil
	}

	if err := uc.limiter.Allow("arrivals-for-stop"); err != nil {
		return nil, err
	}

	return uc.fetchArrivals(ctx, stopID)
}

// fetchArrivals hits the transit API and writes through the arrivals
// cache. Callers are responsible for rate-limit accounting.
func (uc *RouteUseCase) fetchArrivals(ctx context.Context, stopID string) ([]domain.Arrival, error) {
	arrivals, err := uc.transitRepo.ArrivalsForStop(ctx, stopID)
	if err != nil {
		return nil, err
	}

	if err := uc.store.SetCachedArrivals(ctx, stopID, arrivals); err != nil {
		uc.logger.Warn("Failed to cache arrivals", zap.String("stop_id", stopID), zap.Error(err))
	}

	return arrivals, nil
}

// PrefetchArrivals schedules a debounced arrivals fetch for a stop, so
// that rapid clicking across stops issues one upstream call for the last
// stop only. Already-fresh arrivals skip the schedule entirely.
func (uc *RouteUseCase) PrefetchArrivals(stopID string) {
	stopID = strings.TrimSpace(stopID)
	if stopID == "" {
		return
	}

	if _, ok, err := uc.store.GetCachedArrivals(context.Background(), stopID); err == nil && ok {
		return
	}

	uc.debouncer.Call(context.Background(), "arrivals-prefetch", func(ctx context.Context) error {
		_, err := uc.fetchArrivals(ctx, stopID)
		return err
	})
}

// FindNearbyStops returns transit stops around a point. Results for the
// same rounded point and radius are served from cache.
func (uc *RouteUseCase) FindNearbyStops(ctx context.Context, lat, lon, radius float64) ([]*domain.Place, error) {
	if !utils.ValidCoordinates(lat, lon) {
		return nil, apperrors.ErrInvalidCoordinates
	}

	key := fmt.Sprintf("nearby:%s:%.0f", utils.RoundedCoordKey(lat, lon), radius)
	if data, err := uc.cacheRepo.Get(ctx, key); err == nil && data != nil {
		var stops []*domain.Place
		if err := json.Unmarshal(data, &stops); err == nil {
			return stops, nil
		}
	}

	if err := uc.limiter.Allow("stops-for-location"); err != nil {
		return nil, err
	}

	stops, err := uc.transitRepo.StopsForLocation(ctx, lat, lon, radius)
	if err != nil {
		return nil, err
	}

	if data, err := json.Marshal(stops); err == nil {
		if err := uc.cacheRepo.Set(ctx, key, data, uc.nearbyTTL); err != nil {
			uc.logger.Warn("Failed to cache nearby stops", zap.Error(err))
		}
	}

	return stops, nil
}

// GetDirections fetches a driving or walking route between two points and
// makes it the active map display, superseding any transit route.
func (uc *RouteUseCase) GetDirections(ctx context.Context, profile string, fromLat, fromLon, toLat, toLon float64) (*domain.DirectionsRoute, error) {
	if profile != "driving" && profile != "walking" {
		return nil, apperrors.ErrInvalidRequest.WithDetails(map[string]interface{}{
			"profile": profile,
		})
	}
	if !utils.ValidCoordinates(fromLat, fromLon) || !utils.ValidCoordinates(toLat, toLon) {
		return nil, apperrors.ErrInvalidCoordinates
	}

	route, err := uc.directionsRepo.GetRoute(ctx, profile, fromLat, fromLon, toLat, toLon)
	if err != nil {
		return nil, err
	}

	uc.store.SetActiveDirectionsRoute(route)
	return route, nil
}
