// Package docs Transit Explorer API.
//
// Backend for a map-based transit exploration client. Integrates
// OneBusAway transit data, OpenStreetMap enrichment (Overpass +
// Nominatim) and Mapbox directions into a single place/route API.
//
// Main capabilities:
// - Place collections: stored, created, search results, active selection
// - Transit route geometry with per-direction branches and live vehicles
// - Stop arrivals with TTL caching and outbound rate limiting
// - OSM enrichment of clicked map features
// - Driving/walking directions
//
//	Schemes: http, https
//	BasePath: /
//	Version: 1.0.0
//
//	Consumes:
//	- application/json
//
//	Produces:
//	- application/json
//
// swagger:meta
package docs
