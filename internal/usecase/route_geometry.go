package usecase

import (
	"github.com/transit-explorer/internal/domain"
	"github.com/transit-explorer/internal/pkg/polyline"
	"go.uber.org/zap"
)

// assembleRoute turns a validated stops-for-route payload into a Route
// with per-direction branches. Each upstream direction grouping becomes
// one branch; its polylines decode into segments indexed in upstream
// order, and its stop ids resolve against the reference table. Stops
// missing from the table are dropped rather than failing the route.
func assembleRoute(routeID string, data *domain.StopsForRouteData) *domain.Route {
	route := data.Route
	if route == nil {
		route = &domain.Route{OBARouteID: routeID}
	}

	for i, group := range data.Groups {
		branch := domain.RouteBranch{
			Index: i,
			Name:  group.Name,
		}

		for j, encoded := range group.EncodedPolylines {
			coords, err := polyline.Decode(encoded)
			if err != nil || len(coords) == 0 {
				continue
			}
			branch.Segments = append(branch.Segments, domain.RouteSegment{
				RouteID:     routeID,
				Index:       j,
				Coordinates: coords,
			})
		}

		for _, stopID := range group.StopIDs {
			if stop, ok := data.StopsByID[stopID]; ok {
				branch.Stops = append(branch.Stops, stop)
			}
		}

		route.Branches = append(route.Branches, branch)
	}

	// Some routes carry polylines without direction groupings; render them
	// as a single unnamed branch so the line still draws.
	if len(route.Branches) == 0 && len(data.EncodedPolylines) > 0 {
		branch := domain.RouteBranch{Index: 0}
		for j, encoded := range data.EncodedPolylines {
			coords, err := polyline.Decode(encoded)
			if err != nil || len(coords) == 0 {
				continue
			}
			branch.Segments = append(branch.Segments, domain.RouteSegment{
				RouteID:     routeID,
				Index:       j,
				Coordinates: coords,
			})
		}
		if len(branch.Segments) > 0 {
			route.Branches = append(route.Branches, branch)
		}
	}

	return route
}

// logBranchSummary is a debug aid for geometry assembly issues.
func logBranchSummary(logger *zap.Logger, route *domain.Route) {
	for _, b := range route.Branches {
		logger.Debug("Assembled branch",
			zap.Int("index", b.Index),
			zap.String("name", b.Name),
			zap.Int("segments", len(b.Segments)),
			zap.Int("stops", len(b.Stops)))
	}
}
