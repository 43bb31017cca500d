// Package oba implements the OneBusAway-shaped transit API client. Every
// payload is validated at this boundary and converted to the typed domain
// model before it enters the core.
package oba

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/transit-explorer/internal/config"
	"github.com/transit-explorer/internal/domain"
	"github.com/transit-explorer/internal/domain/repository"
	apperrors "github.com/transit-explorer/internal/pkg/errors"
	"go.uber.org/zap"
)

type client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	logger     *zap.Logger
}

// NewClient creates a client for a OneBusAway REST deployment. A missing
// API key is surfaced once here and again on first use; the client is
// still constructed so unrelated features keep working.
func NewClient(cfg *config.OBAConfig, logger *zap.Logger) repository.TransitRepository {
	if cfg.APIKey == "" {
		logger.Warn("OBA API key is not configured, transit lookups will fail")
	}
	return &client{
		httpClient: &http.Client{
			Timeout: cfg.RequestTimeout,
		},
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:  cfg.APIKey,
		logger:  logger,
	}
}

// get performs a GET against /api/where/<path>.json, unwraps the
// {code, data} envelope and returns the raw data payload.
func (c *client) get(ctx context.Context, path string, params url.Values) (json.RawMessage, error) {
	if c.apiKey == "" {
		return nil, apperrors.ErrMissingAPIKey
	}

	if params == nil {
		params = url.Values{}
	}
	params.Set("key", c.apiKey)

	reqURL := fmt.Sprintf("%s/api/where/%s.json?%s", c.baseURL, path, params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("OBA request failed", zap.String("path", path), zap.Error(err))
		return nil, fmt.Errorf("%w: %v", apperrors.ErrUpstreamError, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		c.logger.Error("OBA returned error status",
			zap.String("path", path),
			zap.Int("status_code", resp.StatusCode),
			zap.String("body", string(body)))
		return nil, apperrors.ErrUpstreamError.WithDetails(map[string]interface{}{
			"status_code": resp.StatusCode,
		})
	}

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		c.logger.Error("Failed to decode OBA envelope", zap.String("path", path), zap.Error(err))
		return nil, fmt.Errorf("%w: %v", apperrors.ErrMalformedResponse, err)
	}

	if env.Code != 200 {
		c.logger.Error("OBA envelope carries error code",
			zap.String("path", path),
			zap.Int("code", env.Code),
			zap.String("text", env.Text))
		return nil, apperrors.ErrUpstreamError.WithDetails(map[string]interface{}{
			"code": env.Code,
			"text": env.Text,
		})
	}

	if len(env.Data) == 0 {
		return nil, apperrors.ErrMalformedResponse
	}

	return env.Data, nil
}

func (c *client) StopsForLocation(ctx context.Context, lat, lon, radius float64) ([]*domain.Place, error) {
	params := url.Values{}
	params.Set("lat", fmt.Sprintf("%f", lat))
	params.Set("lon", fmt.Sprintf("%f", lon))
	params.Set("radius", fmt.Sprintf("%.0f", radius))

	raw, err := c.get(ctx, "stops-for-location", params)
	if err != nil {
		return nil, err
	}

	var data stopsForLocationData
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrMalformedResponse, err)
	}

	stops := make([]*domain.Place, 0, len(data.List))
	for i := range data.List {
		stops = append(stops, stopToPlace(&data.List[i]))
	}

	c.logger.Debug("stops-for-location fetched",
		zap.Float64("lat", lat),
		zap.Float64("lon", lon),
		zap.Int("count", len(stops)))

	return stops, nil
}

func (c *client) ArrivalsForStop(ctx context.Context, stopID string) ([]domain.Arrival, error) {
	raw, err := c.get(ctx, "arrivals-and-departures-for-stop/"+url.PathEscape(stopID), nil)
	if err != nil {
		return nil, err
	}

	var data arrivalsData
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrMalformedResponse, err)
	}

	arrivals := make([]domain.Arrival, 0, len(data.Entry.ArrivalsAndDepartures))
	for _, a := range data.Entry.ArrivalsAndDepartures {
		arrivals = append(arrivals, domain.Arrival{
			RouteID:              a.RouteID,
			RouteShortName:       a.RouteShortName,
			TripID:               a.TripID,
			StopID:               a.StopID,
			VehicleID:            a.VehicleID,
			Headsign:             a.TripHeadsign,
			ScheduledArrivalTime: a.ScheduledArrivalTime,
			PredictedArrivalTime: a.PredictedArrivalTime,
			Predicted:            a.Predicted,
		})
	}

	return arrivals, nil
}

func (c *client) StopsForRoute(ctx context.Context, routeID string) (*domain.StopsForRouteData, error) {
	params := url.Values{}
	params.Set("includePolylines", "true")
	params.Set("includeReferences", "true")

	raw, err := c.get(ctx, "stops-for-route/"+url.PathEscape(routeID), params)
	if err != nil {
		return nil, err
	}

	var data stopsForRouteData
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrMalformedResponse, err)
	}

	result := &domain.StopsForRouteData{
		StopsByID: make(map[string]*domain.Place, len(data.References.Stops)),
	}

	for i := range data.References.Stops {
		stop := stopToPlace(&data.References.Stops[i])
		result.StopsByID[stop.ID] = stop
	}

	for _, r := range data.References.Routes {
		if r.ID != routeID {
			continue
		}
		result.Route = &domain.Route{
			OBARouteID:  r.ID,
			ShortName:   r.ShortName,
			LongName:    r.LongName,
			Description: r.Description,
			AgencyID:    r.AgencyID,
			Color:       r.Color,
			TextColor:   r.TextColor,
		}
	}

	for _, p := range data.Entry.Polylines {
		if p.Points != "" {
			result.EncodedPolylines = append(result.EncodedPolylines, p.Points)
		}
	}

	for _, grouping := range data.Entry.StopGroupings {
		if grouping.Type != "direction" {
			continue
		}
		for _, group := range grouping.StopGroups {
			dg := domain.DirectionGroup{
				Name:    group.Name.Name,
				StopIDs: group.StopIDs,
			}
			for _, p := range group.Polylines {
				if p.Points != "" {
					dg.EncodedPolylines = append(dg.EncodedPolylines, p.Points)
				}
			}
			result.Groups = append(result.Groups, dg)
		}
	}

	return result, nil
}

func (c *client) VehiclesForRoute(ctx context.Context, routeID string) ([]domain.Vehicle, error) {
	raw, err := c.get(ctx, "vehicles-for-route/"+url.PathEscape(routeID), nil)
	if err == nil {
		var data vehiclesData
		if uerr := json.Unmarshal(raw, &data); uerr != nil {
			return nil, fmt.Errorf("%w: %v", apperrors.ErrMalformedResponse, uerr)
		}
		if len(data.List) > 0 {
			vehicles := make([]domain.Vehicle, 0, len(data.List))
			for _, v := range data.List {
				vehicles = append(vehicles, domain.Vehicle{
					VehicleID:  v.VehicleID,
					Lat:        v.Location.Lat,
					Lon:        v.Location.Lon,
					TripID:     v.TripID,
					Heading:    v.Heading,
					Status:     v.Status,
					LastUpdate: v.LastUpdateTime,
				})
			}
			return vehicles, nil
		}
	}

	// Some deployments expose only trips-for-route; fall back to trip
	// status positions when the vehicles endpoint yields nothing.
	return c.vehiclesFromTrips(ctx, routeID)
}

func (c *client) vehiclesFromTrips(ctx context.Context, routeID string) ([]domain.Vehicle, error) {
	params := url.Values{}
	params.Set("includeStatus", "true")

	raw, err := c.get(ctx, "trips-for-route/"+url.PathEscape(routeID), params)
	if err != nil {
		return nil, err
	}

	var data tripsForRouteData
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrMalformedResponse, err)
	}

	vehicles := make([]domain.Vehicle, 0, len(data.List))
	for _, t := range data.List {
		if t.Status == nil || t.Status.VehicleID == "" {
			continue
		}
		vehicles = append(vehicles, domain.Vehicle{
			VehicleID:  t.Status.VehicleID,
			Lat:        t.Status.Position.Lat,
			Lon:        t.Status.Position.Lon,
			TripID:     t.TripID,
			Heading:    t.Status.Orientation,
			Status:     t.Status.Status,
			LastUpdate: t.Status.LastUpdateTime,
		})
	}

	return vehicles, nil
}

// stopToPlace converts a stop reference into the unified Place model.
func stopToPlace(s *stopRef) *domain.Place {
	place := &domain.Place{
		ID:           s.ID,
		Name:         s.Name,
		Category:     "transit_stop",
		Lat:          s.Lat,
		Lon:          s.Lon,
		IsObaStop:    true,
		StopCode:     s.Code,
		Direction:    s.Direction,
		RouteIDs:     s.RouteIDs,
		LocationType: s.LocationType,
	}

	switch s.WheelchairBoarding {
	case "ACCESSIBLE":
		t := true
		place.WheelchairBoarding = &t
	case "NOT_ACCESSIBLE":
		f := false
		place.WheelchairBoarding = &f
	}

	return place
}
