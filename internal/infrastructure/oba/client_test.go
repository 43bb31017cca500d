package oba

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/transit-explorer/internal/config"
	apperrors "github.com/transit-explorer/internal/pkg/errors"
	"go.uber.org/zap"
)

func newTestClient(serverURL string) *client {
	cfg := &config.OBAConfig{
		BaseURL:        serverURL,
		APIKey:         "test_key",
		RequestTimeout: 5 * time.Second,
	}
	return NewClient(cfg, zap.NewNop()).(*client)
}

func serveJSON(t *testing.T, body string) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "test_key", r.URL.Query().Get("key"))
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, body)
	}))
	t.Cleanup(server.Close)
	return server
}

func TestClient_StopsForLocation(t *testing.T) {
	t.Run("parses stops", func(t *testing.T) {
		server := serveJSON(t, `{
			"code": 200,
			"currentTime": 1700000000000,
			"text": "OK",
			"data": {
				"list": [
					{
						"id": "1_600",
						"code": "600",
						"name": "3rd Ave & Pike St",
						"lat": 47.6101,
						"lon": -122.3301,
						"direction": "N",
						"wheelchairBoarding": "ACCESSIBLE",
						"routeIds": ["1_100", "1_101"]
					},
					{
						"id": "1_601",
						"name": "3rd Ave & Union St",
						"lat": 47.6090,
						"lon": -122.3350,
						"wheelchairBoarding": "UNKNOWN"
					}
				]
			}
		}`)

		c := newTestClient(server.URL)
		stops, err := c.StopsForLocation(context.Background(), 47.61, -122.33, 400)
		require.NoError(t, err)
		require.Len(t, stops, 2)

		first := stops[0]
		assert.Equal(t, "1_600", first.ID)
		assert.Equal(t, "3rd Ave & Pike St", first.Name)
		assert.Equal(t, "transit_stop", first.Category)
		assert.True(t, first.IsObaStop)
		assert.Equal(t, "600", first.StopCode)
		assert.Equal(t, []string{"1_100", "1_101"}, first.RouteIDs)
		require.NotNil(t, first.WheelchairBoarding)
		assert.True(t, *first.WheelchairBoarding)

		// UNKNOWN accessibility stays nil.
		assert.Nil(t, stops[1].WheelchairBoarding)
	})

	t.Run("envelope error code", func(t *testing.T) {
		server := serveJSON(t, `{"code": 404, "text": "resource not found", "data": null}`)

		c := newTestClient(server.URL)
		_, err := c.StopsForLocation(context.Background(), 47.61, -122.33, 400)
		assert.True(t, errors.Is(err, apperrors.ErrUpstreamError))
	})

	t.Run("http error status", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		}))
		defer server.Close()

		c := newTestClient(server.URL)
		_, err := c.StopsForLocation(context.Background(), 47.61, -122.33, 400)
		assert.True(t, errors.Is(err, apperrors.ErrUpstreamError))
	})

	t.Run("missing data payload", func(t *testing.T) {
		server := serveJSON(t, `{"code": 200, "text": "OK"}`)

		c := newTestClient(server.URL)
		_, err := c.StopsForLocation(context.Background(), 47.61, -122.33, 400)
		assert.True(t, errors.Is(err, apperrors.ErrMalformedResponse))
	})

	t.Run("missing api key fails without a request", func(t *testing.T) {
		cfg := &config.OBAConfig{BaseURL: "http://127.0.0.1:1", RequestTimeout: time.Second}
		c := NewClient(cfg, zap.NewNop())

		_, err := c.StopsForLocation(context.Background(), 47.61, -122.33, 400)
		assert.True(t, errors.Is(err, apperrors.ErrMissingAPIKey))
	})
}

func TestClient_ArrivalsForStop(t *testing.T) {
	server := serveJSON(t, `{
		"code": 200,
		"data": {
			"entry": {
				"stopId": "1_600",
				"arrivalsAndDepartures": [
					{
						"routeId": "1_100",
						"routeShortName": "40",
						"tripId": "1_t1",
						"stopId": "1_600",
						"vehicleId": "1_v1",
						"tripHeadsign": "Downtown Seattle",
						"scheduledArrivalTime": 1700000060000,
						"predictedArrivalTime": 1700000090000,
						"predicted": true
					}
				]
			}
		}
	}`)

	c := newTestClient(server.URL)
	arrivals, err := c.ArrivalsForStop(context.Background(), "1_600")
	require.NoError(t, err)
	require.Len(t, arrivals, 1)

	a := arrivals[0]
	assert.Equal(t, "1_100", a.RouteID)
	assert.Equal(t, "40", a.RouteShortName)
	assert.Equal(t, "Downtown Seattle", a.Headsign)
	assert.Equal(t, int64(1700000060000), a.ScheduledArrivalTime)
	assert.Equal(t, int64(1700000090000), a.PredictedArrivalTime)
	assert.True(t, a.Predicted)
}

func TestClient_StopsForRoute(t *testing.T) {
	server := serveJSON(t, `{
		"code": 200,
		"data": {
			"entry": {
				"routeId": "1_100",
				"polylines": [{"points": "entry_poly", "length": 3}],
				"stopGroupings": [
					{
						"type": "direction",
						"ordered": true,
						"stopGroups": [
							{
								"id": "0",
								"name": {"name": "Northbound", "type": "destination"},
								"stopIds": ["1_600"],
								"polylines": [{"points": "north_poly"}]
							},
							{
								"id": "1",
								"name": {"name": "Southbound", "type": "destination"},
								"stopIds": ["1_601"],
								"polylines": [{"points": "south_poly"}, {"points": ""}]
							}
						]
					},
					{
						"type": "other",
						"stopGroups": [
							{"id": "x", "name": {"name": "Ignored"}, "stopIds": ["1_602"]}
						]
					}
				]
			},
			"references": {
				"routes": [
					{"id": "1_100", "agencyId": "1", "shortName": "40", "longName": "Ballard - Downtown", "color": "005595"},
					{"id": "1_999", "shortName": "62"}
				],
				"stops": [
					{"id": "1_600", "name": "3rd & Pike", "lat": 47.61, "lon": -122.33},
					{"id": "1_601", "name": "3rd & Union", "lat": 47.60, "lon": -122.33}
				]
			}
		}
	}`)

	c := newTestClient(server.URL)
	data, err := c.StopsForRoute(context.Background(), "1_100")
	require.NoError(t, err)

	// Route metadata comes from the matching reference only.
	require.NotNil(t, data.Route)
	assert.Equal(t, "40", data.Route.ShortName)
	assert.Equal(t, "Ballard - Downtown", data.Route.LongName)
	assert.Equal(t, "005595", data.Route.Color)

	assert.Equal(t, []string{"entry_poly"}, data.EncodedPolylines)

	// Only direction groupings survive; empty polylines are dropped.
	require.Len(t, data.Groups, 2)
	assert.Equal(t, "Northbound", data.Groups[0].Name)
	assert.Equal(t, []string{"north_poly"}, data.Groups[0].EncodedPolylines)
	assert.Equal(t, []string{"south_poly"}, data.Groups[1].EncodedPolylines)

	assert.Len(t, data.StopsByID, 2)
	assert.Equal(t, "3rd & Pike", data.StopsByID["1_600"].Name)
}

func TestClient_VehiclesForRoute(t *testing.T) {
	t.Run("vehicles endpoint", func(t *testing.T) {
		server := serveJSON(t, `{
			"code": 200,
			"data": {
				"list": [
					{
						"vehicleId": "1_v1",
						"location": {"lat": 47.61, "lon": -122.33},
						"tripId": "1_t1",
						"heading": 180,
						"status": "SCHEDULED",
						"lastUpdateTime": 1700000000000
					}
				]
			}
		}`)

		c := newTestClient(server.URL)
		vehicles, err := c.VehiclesForRoute(context.Background(), "1_100")
		require.NoError(t, err)
		require.Len(t, vehicles, 1)
		assert.Equal(t, "1_v1", vehicles[0].VehicleID)
		assert.Equal(t, 47.61, vehicles[0].Lat)
		assert.Equal(t, 180.0, vehicles[0].Heading)
	})

	t.Run("falls back to trips-for-route", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			switch {
			case r.URL.Path == "/api/where/vehicles-for-route/1_100.json":
				fmt.Fprint(w, `{"code": 200, "data": {"list": []}}`)
			case r.URL.Path == "/api/where/trips-for-route/1_100.json":
				assert.Equal(t, "true", r.URL.Query().Get("includeStatus"))
				fmt.Fprint(w, `{
					"code": 200,
					"data": {
						"list": [
							{
								"tripId": "1_t1",
								"status": {
									"vehicleId": "1_v2",
									"position": {"lat": 47.62, "lon": -122.34},
									"orientation": 90,
									"status": "default",
									"lastUpdateTime": 1700000000000
								}
							},
							{"tripId": "1_t2", "status": null},
							{"tripId": "1_t3", "status": {"vehicleId": ""}}
						]
					}
				}`)
			default:
				w.WriteHeader(http.StatusNotFound)
			}
		}))
		defer server.Close()

		c := newTestClient(server.URL)
		vehicles, err := c.VehiclesForRoute(context.Background(), "1_100")
		require.NoError(t, err)

		// Trips without a live vehicle are skipped.
		require.Len(t, vehicles, 1)
		assert.Equal(t, "1_v2", vehicles[0].VehicleID)
		assert.Equal(t, "1_t1", vehicles[0].TripID)
		assert.Equal(t, 90.0, vehicles[0].Heading)
	})
}
