package dto

// CreatePlaceRequest - payload for creating a user place
type CreatePlaceRequest struct {
	Name        string  `json:"name" validate:"required,min=1,max=200"`
	Lat         float64 `json:"lat" validate:"required,min=-90,max=90"`
	Lon         float64 `json:"lon" validate:"required,min=-180,max=180"`
	Category    string  `json:"category,omitempty" validate:"omitempty,max=100"`
	Description string  `json:"description,omitempty" validate:"omitempty,max=2000"`
	Address     string  `json:"address,omitempty" validate:"omitempty,max=300"`
	ImageURL    string  `json:"image_url,omitempty" validate:"omitempty,url"`
}

// UpdatePlaceRequest - partial update of a stored or created place
type UpdatePlaceRequest struct {
	Name        *string `json:"name,omitempty" validate:"omitempty,min=1,max=200"`
	Category    *string `json:"category,omitempty" validate:"omitempty,max=100"`
	Description *string `json:"description,omitempty" validate:"omitempty,max=2000"`
	Address     *string `json:"address,omitempty" validate:"omitempty,max=300"`
	ImageURL    *string `json:"image_url,omitempty" validate:"omitempty,url"`
}

// LinkPlaceRequest - associates a place with a transit route
type LinkPlaceRequest struct {
	RouteID string `json:"route_id" validate:"required"`
}
