package domain

import "time"

// RouteSegment is one contiguous decoded polyline within a branch.
// Coordinates are [lon, lat] pairs in GeoJSON order.
type RouteSegment struct {
	RouteID     string      `json:"route_id"`
	Index       int         `json:"index"`
	Coordinates [][]float64 `json:"coordinates"`
}

// RouteBranch is one directional variant of a transit route
// (e.g. northbound vs. southbound) with its own geometry and stops.
type RouteBranch struct {
	Index    int            `json:"index"`
	Name     string         `json:"name"`
	Segments []RouteSegment `json:"segments"`
	Stops    []*Place       `json:"stops"`
}

// Route is a transit line display session: upstream route metadata plus
// assembled branch geometry and an independently refreshed vehicle list.
type Route struct {
	ID          string        `json:"id"`
	OBARouteID  string        `json:"oba_route_id"`
	ShortName   string        `json:"short_name,omitempty"`
	LongName    string        `json:"long_name,omitempty"`
	Description string        `json:"description,omitempty"`
	AgencyID    string        `json:"agency_id,omitempty"`
	Color       string        `json:"color,omitempty"`
	TextColor   string        `json:"text_color,omitempty"`
	Branches    []RouteBranch `json:"branches"`
	Vehicles    []Vehicle     `json:"vehicles,omitempty"`
	VehiclesAt  *time.Time    `json:"vehicles_at,omitempty"`
}

// Vehicle is a live vehicle position on a route.
type Vehicle struct {
	VehicleID  string  `json:"vehicle_id"`
	Lat        float64 `json:"lat"`
	Lon        float64 `json:"lon"`
	TripID     string  `json:"trip_id,omitempty"`
	Heading    float64 `json:"heading,omitempty"`
	Status     string  `json:"status,omitempty"`
	LastUpdate int64   `json:"last_update,omitempty"`
}

// DirectionsRoute is a turn-by-turn driving/walking route attached to the
// map. It is mutually exclusive with an active transit Route.
type DirectionsRoute struct {
	Profile  string      `json:"profile"`
	Distance float64     `json:"distance"`
	Duration float64     `json:"duration"`
	Geometry [][]float64 `json:"geometry"`
}

// DirectionGroup is one upstream "direction" stop grouping before
// geometry assembly.
type DirectionGroup struct {
	Name             string
	StopIDs          []string
	EncodedPolylines []string
}

// StopsForRouteData is the validated stops-for-route payload handed to the
// geometry assembler: route metadata, direction groupings and the stop
// reference table.
type StopsForRouteData struct {
	Route            *Route
	EncodedPolylines []string
	Groups           []DirectionGroup
	StopsByID        map[string]*Place
}
