package oba

import "encoding/json"

// All OneBusAway responses come wrapped in this envelope; a non-2xx HTTP
// status or code != 200 is an error.
type envelope struct {
	Code        int             `json:"code"`
	CurrentTime int64           `json:"currentTime"`
	Text        string          `json:"text"`
	Data        json.RawMessage `json:"data"`
}

type references struct {
	Agencies []agencyRef `json:"agencies"`
	Routes   []routeRef  `json:"routes"`
	Stops    []stopRef   `json:"stops"`
}

type agencyRef struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	URL      string `json:"url"`
	Timezone string `json:"timezone"`
}

type routeRef struct {
	ID          string `json:"id"`
	AgencyID    string `json:"agencyId"`
	ShortName   string `json:"shortName"`
	LongName    string `json:"longName"`
	Description string `json:"description"`
	Type        int    `json:"type"`
	Color       string `json:"color"`
	TextColor   string `json:"textColor"`
}

type stopRef struct {
	ID                 string   `json:"id"`
	Code               string   `json:"code"`
	Name               string   `json:"name"`
	Lat                float64  `json:"lat"`
	Lon                float64  `json:"lon"`
	Direction          string   `json:"direction"`
	LocationType       int      `json:"locationType"`
	WheelchairBoarding string   `json:"wheelchairBoarding"`
	RouteIDs           []string `json:"routeIds"`
}

type polylineRef struct {
	Points string `json:"points"`
	Length int    `json:"length"`
	Levels string `json:"levels"`
}

type stopGroupName struct {
	Name  string   `json:"name"`
	Names []string `json:"names"`
	Type  string   `json:"type"`
}

type stopGroup struct {
	ID        string        `json:"id"`
	Name      stopGroupName `json:"name"`
	StopIDs   []string      `json:"stopIds"`
	Polylines []polylineRef `json:"polylines"`
}

type stopGrouping struct {
	Type       string      `json:"type"`
	Ordered    bool        `json:"ordered"`
	StopGroups []stopGroup `json:"stopGroups"`
}

type stopsForRouteEntry struct {
	RouteID       string         `json:"routeId"`
	StopIDs       []string       `json:"stopIds"`
	Polylines     []polylineRef  `json:"polylines"`
	StopGroupings []stopGrouping `json:"stopGroupings"`
}

type stopsForRouteData struct {
	Entry      stopsForRouteEntry `json:"entry"`
	References references         `json:"references"`
}

type stopsForLocationData struct {
	List       []stopRef  `json:"list"`
	References references `json:"references"`
}

type arrivalAndDeparture struct {
	RouteID              string `json:"routeId"`
	RouteShortName       string `json:"routeShortName"`
	TripID               string `json:"tripId"`
	StopID               string `json:"stopId"`
	VehicleID            string `json:"vehicleId"`
	TripHeadsign         string `json:"tripHeadsign"`
	ScheduledArrivalTime int64  `json:"scheduledArrivalTime"`
	PredictedArrivalTime int64  `json:"predictedArrivalTime"`
	Predicted            bool   `json:"predicted"`
}

type arrivalsData struct {
	Entry struct {
		StopID                string                `json:"stopId"`
		ArrivalsAndDepartures []arrivalAndDeparture `json:"arrivalsAndDepartures"`
	} `json:"entry"`
	References references `json:"references"`
}

type location struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

type vehicleStatus struct {
	VehicleID              string   `json:"vehicleId"`
	Location               location `json:"location"`
	TripID                 string   `json:"tripId"`
	Heading                float64  `json:"heading"`
	Status                 string   `json:"status"`
	LastUpdateTime         int64    `json:"lastUpdateTime"`
	LastLocationUpdateTime int64    `json:"lastLocationUpdateTime"`
}

type vehiclesData struct {
	List       []vehicleStatus `json:"list"`
	References references      `json:"references"`
}

type tripStatus struct {
	VehicleID      string   `json:"vehicleId"`
	Position       location `json:"position"`
	Orientation    float64  `json:"orientation"`
	Status         string   `json:"status"`
	LastUpdateTime int64    `json:"lastUpdateTime"`
}

type tripDetails struct {
	TripID string      `json:"tripId"`
	Status *tripStatus `json:"status"`
}

type tripsForRouteData struct {
	List       []tripDetails `json:"list"`
	References references    `json:"references"`
}
