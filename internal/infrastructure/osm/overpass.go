// Package osm implements the OSM geodata boundary: Overpass for tag
// lookups and Nominatim for forward/reverse geocoding.
package osm

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"

	"github.com/transit-explorer/internal/config"
	"github.com/transit-explorer/internal/domain"
	"github.com/transit-explorer/internal/domain/repository"
	apperrors "github.com/transit-explorer/internal/pkg/errors"
	"github.com/transit-explorer/internal/pkg/utils"
	"go.uber.org/zap"
)

var overpassQuoted = regexp.MustCompile(`["\\]`)

type geodataClient struct {
	httpClient   *http.Client
	overpassURL  string
	nominatimURL string
	userAgent    string
	logger       *zap.Logger
}

// NewGeodataClient creates the combined Overpass + Nominatim client.
func NewGeodataClient(cfg *config.OSMConfig, logger *zap.Logger) repository.GeodataRepository {
	return &geodataClient{
		httpClient: &http.Client{
			Timeout: cfg.RequestTimeout,
		},
		overpassURL:  cfg.OverpassURL,
		nominatimURL: strings.TrimRight(cfg.NominatimURL, "/"),
		userAgent:    cfg.UserAgent,
		logger:       logger,
	}
}

type overpassElement struct {
	Type   string            `json:"type"`
	ID     int64             `json:"id"`
	Lat    float64           `json:"lat"`
	Lon    float64           `json:"lon"`
	Center *struct {
		Lat float64 `json:"lat"`
		Lon float64 `json:"lon"`
	} `json:"center,omitempty"`
	Tags map[string]string `json:"tags"`
}

type overpassResponse struct {
	Elements []overpassElement `json:"elements"`
}

// FindNearbyPlace queries Overpass for a named node/way within radius
// meters of the coordinates and returns the nearest candidate, or
// (nil, nil) when nothing matches.
func (c *geodataClient) FindNearbyPlace(ctx context.Context, name string, lat, lon, radius float64) (*domain.OSMMatch, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, nil
	}

	escaped := overpassQuoted.ReplaceAllString(name, `\$0`)
	query := fmt.Sprintf(`[out:json][timeout:10];
(
  node["name"~"%s",i](around:%.0f,%f,%f);
  way["name"~"%s",i](around:%.0f,%f,%f);
);
out center tags 10;`, escaped, radius, lat, lon, escaped, radius, lat, lon)

	form := url.Values{"data": {query}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.overpassURL,
		strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrUpstreamError, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		c.logger.Warn("Overpass returned error status",
			zap.Int("status_code", resp.StatusCode),
			zap.String("body", string(body)))
		return nil, apperrors.ErrUpstreamError.WithDetails(map[string]interface{}{
			"status_code": resp.StatusCode,
		})
	}

	var result overpassResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrMalformedResponse, err)
	}

	best := pickNearest(result.Elements, lat, lon)
	if best == nil {
		c.logger.Debug("No Overpass match", zap.String("name", name))
		return nil, nil
	}

	matchLat, matchLon := best.Lat, best.Lon
	if best.Center != nil {
		matchLat, matchLon = best.Center.Lat, best.Center.Lon
	}

	return &domain.OSMMatch{
		Name:    best.Tags["name"],
		Lat:     matchLat,
		Lon:     matchLon,
		Tags:    best.Tags,
		Address: addressFromTags(best.Tags),
	}, nil
}

// pickNearest selects the element closest to the query point. Ways carry
// their coordinates in "center".
func pickNearest(elements []overpassElement, lat, lon float64) *overpassElement {
	var best *overpassElement
	bestDist := 0.0

	for i := range elements {
		e := &elements[i]
		if len(e.Tags) == 0 {
			continue
		}
		eLat, eLon := e.Lat, e.Lon
		if e.Center != nil {
			eLat, eLon = e.Center.Lat, e.Center.Lon
		}
		if eLat == 0 && eLon == 0 {
			continue
		}
		dist := utils.HaversineDistance(lat, lon, eLat, eLon)
		if best == nil || dist < bestDist {
			best = e
			bestDist = dist
		}
	}

	return best
}

// addressFromTags composes "12 Main St, Springfield" from addr:* tags when
// present; returns "" otherwise.
func addressFromTags(tags map[string]string) string {
	street := tags["addr:street"]
	if street == "" {
		return ""
	}

	addr := street
	if num := tags["addr:housenumber"]; num != "" {
		addr = num + " " + street
	}
	if city := tags["addr:city"]; city != "" {
		addr = addr + ", " + city
	}
	return addr
}
