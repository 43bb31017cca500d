package domain

import "time"

// PlaceOrigin identifies which of the four collections a Place came from.
type PlaceOrigin string

const (
	OriginNative  PlaceOrigin = "native"
	OriginStored  PlaceOrigin = "stored"
	OriginSearch  PlaceOrigin = "search"
	OriginCreated PlaceOrigin = "created"
)

// Place represents a point of interest from any origin: a native map
// feature, a user-stored place, a transient search result or a
// user-created place. Transit stops are Places with IsObaStop set.
type Place struct {
	ID          string      `json:"id"`
	Name        string      `json:"name"`
	Category    string      `json:"category,omitempty"`
	Lat         float64     `json:"lat"`
	Lon         float64     `json:"lon"`
	Description *string     `json:"description,omitempty"`
	ImageURL    *string     `json:"image_url,omitempty"`
	Address     *string     `json:"address,omitempty"`
	Phone       *string     `json:"phone,omitempty"`
	Website     *string     `json:"website,omitempty"`
	Hours       *string     `json:"opening_hours,omitempty"`
	Origin      PlaceOrigin `json:"origin"`

	// Transit extension
	IsObaStop          bool     `json:"is_oba_stop,omitempty"`
	StopCode           string   `json:"stop_code,omitempty"`
	Direction          string   `json:"direction,omitempty"`
	RouteIDs           []string `json:"route_ids,omitempty"`
	WheelchairBoarding *bool    `json:"wheelchair_boarding,omitempty"`
	LocationType       int      `json:"location_type,omitempty"`

	// Enrichment extension
	Tags               map[string]string `json:"tags,omitempty"`
	OSMEnriched        bool              `json:"osm_enriched,omitempty"`
	OSMLookupAttempted bool              `json:"osm_lookup_attempted,omitempty"`
	OSMEnrichedAt      *time.Time        `json:"osm_enriched_at,omitempty"`

	// RetrievedAt orders search results for eviction.
	RetrievedAt time.Time `json:"retrieved_at,omitempty"`
}

// Arrival is a single arrival/departure prediction for a stop.
type Arrival struct {
	RouteID              string `json:"route_id"`
	RouteShortName       string `json:"route_short_name,omitempty"`
	TripID               string `json:"trip_id,omitempty"`
	StopID               string `json:"stop_id"`
	VehicleID            string `json:"vehicle_id,omitempty"`
	ScheduledArrivalTime int64  `json:"scheduled_arrival_time"`
	PredictedArrivalTime int64  `json:"predicted_arrival_time,omitempty"`
	Predicted            bool   `json:"predicted"`
	Headsign             string `json:"headsign,omitempty"`
}

// OSMMatch is a candidate place returned by the Overpass matching service.
type OSMMatch struct {
	Name    string            `json:"name"`
	Lat     float64           `json:"lat"`
	Lon     float64           `json:"lon"`
	Tags    map[string]string `json:"tags"`
	Address string            `json:"address,omitempty"`
}

// Selection is the single active selection. Replacing it always fully
// supersedes the previous one; there is no selection stack.
type Selection struct {
	Place      *Place      `json:"place"`
	Origin     PlaceOrigin `json:"origin"`
	SelectedAt time.Time   `json:"selected_at"`
}
