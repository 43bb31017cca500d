// Package polyline decodes and encodes Google encoded polylines at the
// standard 1e-5 precision, reordering coordinates to [lon, lat] to match
// GeoJSON convention.
package polyline

import (
	gpolyline "github.com/twpayne/go-polyline"
)

// Decode decodes an encoded polyline into [lon, lat] pairs. Decoding is
// pure: the same input always yields the same coordinate sequence.
func Decode(encoded string) ([][]float64, error) {
	if encoded == "" {
		return [][]float64{}, nil
	}

	coords, _, err := gpolyline.DecodeCoords([]byte(encoded))
	if err != nil {
		return nil, err
	}

	// Upstream polylines are lat,lng; GeoJSON consumers want lng,lat.
	out := make([][]float64, len(coords))
	for i, c := range coords {
		out[i] = []float64{c[1], c[0]}
	}
	return out, nil
}

// Encode encodes [lon, lat] pairs into a polyline string.
func Encode(coords [][]float64) string {
	latLng := make([][]float64, len(coords))
	for i, c := range coords {
		latLng[i] = []float64{c[1], c[0]}
	}
	return string(gpolyline.EncodeCoords(latLng))
}
