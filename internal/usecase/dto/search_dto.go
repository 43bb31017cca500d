package dto

// SearchRequest - free-text place search
type SearchRequest struct {
	Query string `json:"q" validate:"required,min=2,max=200"`
	Limit int    `json:"limit,omitempty" validate:"omitempty,min=1,max=5"`
}
