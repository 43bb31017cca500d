// Package mapbox implements the Directions API client used for
// driving/walking routes attached to the map.
package mapbox

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/transit-explorer/internal/config"
	"github.com/transit-explorer/internal/domain"
	"github.com/transit-explorer/internal/domain/repository"
	apperrors "github.com/transit-explorer/internal/pkg/errors"
	"github.com/transit-explorer/internal/pkg/polyline"
	"go.uber.org/zap"
)

type client struct {
	httpClient  *http.Client
	baseURL     string
	accessToken string
	logger      *zap.Logger
}

// NewClient creates a client for the Mapbox Directions API.
func NewClient(cfg *config.MapboxConfig, logger *zap.Logger) repository.DirectionsRepository {
	if cfg.AccessToken == "" {
		logger.Warn("Mapbox access token is not configured, directions will fail")
	}
	return &client{
		httpClient: &http.Client{
			Timeout: cfg.RequestTimeout,
		},
		baseURL:     cfg.BaseURL,
		accessToken: cfg.AccessToken,
		logger:      logger,
	}
}

type directionsResponse struct {
	Code   string `json:"code"`
	Routes []struct {
		Geometry string  `json:"geometry"`
		Distance float64 `json:"distance"`
		Duration float64 `json:"duration"`
	} `json:"routes"`
}

// GetRoute fetches a turn-by-turn route between two points for the given
// profile ("driving" or "walking"). Geometry comes back as an encoded
// polyline and is decoded to [lon, lat] pairs.
func (c *client) GetRoute(ctx context.Context, profile string, fromLat, fromLon, toLat, toLon float64) (*domain.DirectionsRoute, error) {
	if c.accessToken == "" {
		return nil, apperrors.ErrMissingAPIKey
	}

	params := url.Values{}
	params.Set("geometries", "polyline")
	params.Set("overview", "full")
	params.Set("access_token", c.accessToken)

	reqURL := fmt.Sprintf("%s/directions/v5/mapbox/%s/%f,%f;%f,%f?%s",
		c.baseURL,
		profile,
		fromLon, fromLat,
		toLon, toLat,
		params.Encode(),
	)

	c.logger.Debug("Calling Mapbox Directions API",
		zap.String("profile", profile))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("Failed to execute request", zap.Error(err))
		return nil, fmt.Errorf("%w: %v", apperrors.ErrUpstreamError, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		c.logger.Error("Mapbox API returned error",
			zap.Int("status_code", resp.StatusCode),
			zap.String("body", string(body)))
		return nil, apperrors.ErrUpstreamError.WithDetails(map[string]interface{}{
			"status_code": resp.StatusCode,
		})
	}

	var dirResp directionsResponse
	if err := json.NewDecoder(resp.Body).Decode(&dirResp); err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrMalformedResponse, err)
	}

	if dirResp.Code != "Ok" || len(dirResp.Routes) == 0 {
		c.logger.Error("Mapbox API returned non-OK code",
			zap.String("code", dirResp.Code))
		return nil, apperrors.ErrUpstreamError.WithDetails(map[string]interface{}{
			"code": dirResp.Code,
		})
	}

	best := dirResp.Routes[0]
	geometry, err := polyline.Decode(best.Geometry)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid route geometry: %v", apperrors.ErrMalformedResponse, err)
	}

	return &domain.DirectionsRoute{
		Profile:  profile,
		Distance: best.Distance,
		Duration: best.Duration,
		Geometry: geometry,
	}, nil
}
