package utils

import (
	"fmt"
	"math"
	"regexp"
	"strings"
)

// coordinateAddress matches addresses that are really just raw coordinates,
// e.g. "47.61203, -122.33421".
var coordinateAddress = regexp.MustCompile(`^-?\d+\.\d+\s*,\s*-?\d+\.\d+$`)

// HaversineDistance returns the distance between two points in meters.
func HaversineDistance(lat1, lon1, lat2, lon2 float64) float64 {
	const earthRadius = 6371000.0 // meters

	dLat := (lat2 - lat1) * (math.Pi / 180.0)
	dLon := (lon2 - lon1) * (math.Pi / 180.0)

	lat1Rad := lat1 * (math.Pi / 180.0)
	lat2Rad := lat2 * (math.Pi / 180.0)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1Rad)*math.Cos(lat2Rad)*
			math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return earthRadius * c
}

// RoundedCoordKey formats coordinates at 5 decimal places (~1.1 m), the
// precision used for enrichment dedup keys and nearby-lookup cache keys.
func RoundedCoordKey(lat, lon float64) string {
	return fmt.Sprintf("%.5f|%.5f", lat, lon)
}

// LooksLikeCoordinates reports whether an address string is two decimal
// numbers separated by a comma instead of a human-readable address.
func LooksLikeCoordinates(address string) bool {
	return coordinateAddress.MatchString(strings.TrimSpace(address))
}

// ValidCoordinates reports whether a lat/lon pair is on the globe.
func ValidCoordinates(lat, lon float64) bool {
	return lat >= -90 && lat <= 90 && lon >= -180 && lon <= 180
}
