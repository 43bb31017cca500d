package dto

// NearbyStopsRequest - query for transit stops around a point
type NearbyStopsRequest struct {
	Lat    float64 `json:"lat" validate:"required,min=-90,max=90"`
	Lon    float64 `json:"lon" validate:"required,min=-180,max=180"`
	Radius float64 `json:"radius,omitempty" validate:"omitempty,min=50,max=5000"` // meters
}

// DirectionsRequest - driving/walking route between two points
type DirectionsRequest struct {
	Profile string  `json:"profile" validate:"required,oneof=driving walking"`
	FromLat float64 `json:"from_lat" validate:"required,min=-90,max=90"`
	FromLon float64 `json:"from_lon" validate:"required,min=-180,max=180"`
	ToLat   float64 `json:"to_lat" validate:"required,min=-90,max=90"`
	ToLon   float64 `json:"to_lon" validate:"required,min=-180,max=180"`
}
