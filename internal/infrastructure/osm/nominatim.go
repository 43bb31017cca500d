package osm

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/transit-explorer/internal/domain"
	apperrors "github.com/transit-explorer/internal/pkg/errors"
	"go.uber.org/zap"
)

// ReverseGeocode resolves coordinates to a human-readable address via
// Nominatim. Returns "" when no address is found; a miss is not an error.
func (c *geodataClient) ReverseGeocode(ctx context.Context, lat, lon float64) (string, error) {
	u := c.nominatimURL + "/reverse?" + url.Values{
		"lat":            {strconv.FormatFloat(lat, 'f', 6, 64)},
		"lon":            {strconv.FormatFloat(lon, 'f', 6, 64)},
		"format":         {"jsonv2"},
		"zoom":           {"18"}, // street-level
		"addressdetails": {"1"},
	}.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	// Required by Nominatim's usage policy.
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", apperrors.ErrUpstreamError, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		c.logger.Warn("Nominatim returned error status",
			zap.Int("status_code", resp.StatusCode))
		return "", apperrors.ErrUpstreamError.WithDetails(map[string]interface{}{
			"status_code": resp.StatusCode,
		})
	}

	var result struct {
		DisplayName string `json:"display_name"`
		Address     struct {
			HouseNumber string `json:"house_number"`
			Road        string `json:"road"`
			City        string `json:"city"`
		} `json:"address"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("%w: %v", apperrors.ErrMalformedResponse, err)
	}

	// Prefer a short "123 Main St, Springfield" over the full display name.
	if result.Address.Road != "" {
		addr := result.Address.Road
		if result.Address.HouseNumber != "" {
			addr = result.Address.HouseNumber + " " + result.Address.Road
		}
		if result.Address.City != "" {
			addr = addr + ", " + result.Address.City
		}
		return addr, nil
	}

	return result.DisplayName, nil
}

// SearchPlaces runs a forward Nominatim search for the query and returns
// up to limit candidates. Nominatim serializes coordinates as strings;
// entries that fail to parse are dropped, not fatal.
func (c *geodataClient) SearchPlaces(ctx context.Context, query string, limit int) ([]*domain.OSMMatch, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, nil
	}
	if limit <= 0 {
		limit = 5
	}

	u := c.nominatimURL + "/search?" + url.Values{
		"q":              {query},
		"format":         {"jsonv2"},
		"limit":          {strconv.Itoa(limit)},
		"addressdetails": {"1"},
	}.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	// Required by Nominatim's usage policy.
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrUpstreamError, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		c.logger.Warn("Nominatim search returned error status",
			zap.Int("status_code", resp.StatusCode))
		return nil, apperrors.ErrUpstreamError.WithDetails(map[string]interface{}{
			"status_code": resp.StatusCode,
		})
	}

	var results []struct {
		Lat         string `json:"lat"`
		Lon         string `json:"lon"`
		Name        string `json:"name"`
		DisplayName string `json:"display_name"`
		Category    string `json:"category"`
		Type        string `json:"type"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&results); err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrMalformedResponse, err)
	}

	matches := make([]*domain.OSMMatch, 0, len(results))
	for _, r := range results {
		lat, latErr := strconv.ParseFloat(r.Lat, 64)
		lon, lonErr := strconv.ParseFloat(r.Lon, 64)
		if latErr != nil || lonErr != nil {
			c.logger.Debug("Skipping search result with unparsable coordinates",
				zap.String("display_name", r.DisplayName))
			continue
		}

		name := r.Name
		if name == "" {
			// Unnamed results still carry a display name like
			// "Space Needle, Broad Street, Seattle, ...".
			name = r.DisplayName
			if i := strings.Index(name, ","); i > 0 {
				name = name[:i]
			}
		}
		if name == "" {
			continue
		}

		tags := make(map[string]string)
		if r.Category != "" && r.Type != "" {
			tags[r.Category] = r.Type
		}

		matches = append(matches, &domain.OSMMatch{
			Name:    name,
			Lat:     lat,
			Lon:     lon,
			Tags:    tags,
			Address: r.DisplayName,
		})
	}

	return matches, nil
}
