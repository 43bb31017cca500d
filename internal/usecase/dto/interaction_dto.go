package dto

// FeatureClickEvent - a click on a rendered map feature
type FeatureClickEvent struct {
	FeatureID   string            `json:"feature_id,omitempty"`
	Properties  map[string]string `json:"properties,omitempty"`
	Coordinates []float64         `json:"coordinates" validate:"required,len=2"` // [lon, lat]
}
