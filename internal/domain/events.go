package domain

// ChangeType enumerates store mutations observable by subscribers.
type ChangeType string

const (
	ChangePlaceAdded          ChangeType = "place_added"
	ChangePlaceUpdated        ChangeType = "place_updated"
	ChangePlaceDeleted        ChangeType = "place_deleted"
	ChangeSelection           ChangeType = "selection_changed"
	ChangeRouteUpdated        ChangeType = "route_updated"
	ChangeRouteActivated      ChangeType = "route_activated"
	ChangeDirectionsActivated ChangeType = "directions_activated"
	ChangeLink                ChangeType = "link_changed"
	ChangeVehiclesUpdated     ChangeType = "vehicles_updated"
)

// ChangeEvent is emitted synchronously after each store mutation,
// in mutation order.
type ChangeEvent struct {
	Type     ChangeType `json:"type"`
	EntityID string     `json:"entity_id,omitempty"`
}
