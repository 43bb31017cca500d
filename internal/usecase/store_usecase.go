package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/transit-explorer/internal/domain"
	"github.com/transit-explorer/internal/domain/repository"
	"go.uber.org/zap"
)

// searchResultLimit bounds the search-result collection: after every
// insertion the oldest entries are evicted until exactly this many remain.
const searchResultLimit = 5

type subscriber struct {
	id int
	fn func(domain.ChangeEvent)
}

// StoreUseCase is the single source of truth for all Place and Route
// entities and the current selection. Mutations are synchronous, applied
// in call order, and followed by change notifications delivered to
// subscribers in subscription order.
type StoreUseCase struct {
	mu sync.RWMutex

	stored        map[string]*domain.Place
	created       map[string]*domain.Place
	searchResults []*domain.Place // ordered by retrieval time, oldest first

	routes        map[string]*domain.Route
	routesByOBAID map[string]string

	// Many-to-many POI<->Route association, indexed both ways so that
	// lookups are O(k) over the association table, not O(n) scans.
	poiRoutes map[string]map[string]struct{}
	routePOIs map[string]map[string]struct{}

	selection        *domain.Selection
	activeRouteID    string
	activeDirections *domain.DirectionsRoute

	subscribers []subscriber
	nextSubID   int

	cacheRepo   repository.CacheRepository
	arrivalsTTL time.Duration
	logger      *zap.Logger
	now         func() time.Time
}

// NewStoreUseCase creates the entity store. The cache repository backs the
// arrivals cache; arrivalsTTL is the maximum age at which cached arrivals
// are still served.
func NewStoreUseCase(cacheRepo repository.CacheRepository, arrivalsTTL time.Duration, logger *zap.Logger) *StoreUseCase {
	return &StoreUseCase{
		stored:        make(map[string]*domain.Place),
		created:       make(map[string]*domain.Place),
		routes:        make(map[string]*domain.Route),
		routesByOBAID: make(map[string]string),
		poiRoutes:     make(map[string]map[string]struct{}),
		routePOIs:     make(map[string]map[string]struct{}),
		cacheRepo:     cacheRepo,
		arrivalsTTL:   arrivalsTTL,
		logger:        logger,
		now:           time.Now,
	}
}

// Subscribe registers a change listener and returns its id. Listeners are
// invoked synchronously after each mutation, in subscription order.
func (uc *StoreUseCase) Subscribe(fn func(domain.ChangeEvent)) int {
	uc.mu.Lock()
	defer uc.mu.Unlock()

	uc.nextSubID++
	uc.subscribers = append(uc.subscribers, subscriber{id: uc.nextSubID, fn: fn})
	return uc.nextSubID
}

// Unsubscribe removes a previously registered listener.
func (uc *StoreUseCase) Unsubscribe(id int) {
	uc.mu.Lock()
	defer uc.mu.Unlock()

	for i, s := range uc.subscribers {
		if s.id == id {
			uc.subscribers = append(uc.subscribers[:i], uc.subscribers[i+1:]...)
			return
		}
	}
}

// notify delivers events after the store lock has been released, so
// listeners may call back into the store.
func (uc *StoreUseCase) notify(events ...domain.ChangeEvent) {
	uc.mu.RLock()
	subs := make([]subscriber, len(uc.subscribers))
	copy(subs, uc.subscribers)
	uc.mu.RUnlock()

	for _, ev := range events {
		for _, s := range subs {
			s.fn(ev)
		}
	}
}

// AddPlace inserts a place into the collection for origin and returns its
// id, minting one if none was supplied. Inserting an id that already
// exists anywhere is a no-op returning the existing id. Native places are
// never persisted to a durable collection; AddPlace only stamps them.
func (uc *StoreUseCase) AddPlace(place *domain.Place, origin domain.PlaceOrigin) string {
	uc.mu.Lock()

	if place.ID == "" {
		place.ID = mintID(origin)
	}

	if existing := uc.findPlaceLocked(place.ID); existing != nil {
		uc.mu.Unlock()
		return existing.ID
	}

	place.Origin = origin
	place.RetrievedAt = uc.now()

	events := []domain.ChangeEvent{{Type: domain.ChangePlaceAdded, EntityID: place.ID}}

	switch origin {
	case domain.OriginStored:
		uc.stored[place.ID] = place
	case domain.OriginCreated:
		uc.created[place.ID] = place
	case domain.OriginSearch:
		uc.searchResults = append(uc.searchResults, place)
		events = append(events, uc.evictSearchResultsLocked()...)
	case domain.OriginNative:
		// Ephemeral: lives only for the duration of a popup.
	}

	uc.mu.Unlock()
	uc.notify(events...)
	return place.ID
}

// evictSearchResultsLocked enforces the keep-newest-N policy. The slice is
// kept ordered by retrieval time (insertion order breaks ties), so the
// oldest entries sit at the front.
func (uc *StoreUseCase) evictSearchResultsLocked() []domain.ChangeEvent {
	sort.SliceStable(uc.searchResults, func(i, j int) bool {
		return uc.searchResults[i].RetrievedAt.Before(uc.searchResults[j].RetrievedAt)
	})

	var events []domain.ChangeEvent
	for len(uc.searchResults) > searchResultLimit {
		evicted := uc.searchResults[0]
		uc.searchResults = uc.searchResults[1:]
		events = append(events, domain.ChangeEvent{
			Type:     domain.ChangePlaceDeleted,
			EntityID: evicted.ID,
		})
	}
	return events
}

// SelectPOI replaces the active selection unconditionally. Native and
// search places are selected without being persisted durably.
func (uc *StoreUseCase) SelectPOI(place *domain.Place, origin domain.PlaceOrigin) {
	uc.mu.Lock()
	uc.selection = &domain.Selection{
		Place:      place,
		Origin:     origin,
		SelectedAt: uc.now(),
	}
	uc.mu.Unlock()

	uc.notify(domain.ChangeEvent{Type: domain.ChangeSelection, EntityID: place.ID})
}

// GetActiveSelection returns the current selection, or nil.
func (uc *StoreUseCase) GetActiveSelection() *domain.Selection {
	uc.mu.RLock()
	defer uc.mu.RUnlock()
	return uc.selection
}

// GetPlace looks a place up across all collections.
func (uc *StoreUseCase) GetPlace(id string) *domain.Place {
	uc.mu.RLock()
	defer uc.mu.RUnlock()
	return uc.findPlaceLocked(id)
}

func (uc *StoreUseCase) findPlaceLocked(id string) *domain.Place {
	if p, ok := uc.stored[id]; ok {
		return p
	}
	if p, ok := uc.created[id]; ok {
		return p
	}
	for _, p := range uc.searchResults {
		if p.ID == id {
			return p
		}
	}
	return nil
}

// DeletePlace removes a place from whichever durable collection holds it.
// If it was the active selection, the selection is cleared. Unknown ids
// are a no-op, never an error.
func (uc *StoreUseCase) DeletePlace(id string) {
	uc.mu.Lock()

	found := false
	if _, ok := uc.stored[id]; ok {
		delete(uc.stored, id)
		found = true
	}
	if _, ok := uc.created[id]; ok {
		delete(uc.created, id)
		found = true
	}
	for i, p := range uc.searchResults {
		if p.ID == id {
			uc.searchResults = append(uc.searchResults[:i], uc.searchResults[i+1:]...)
			found = true
			break
		}
	}

	if !found {
		uc.mu.Unlock()
		return
	}

	events := []domain.ChangeEvent{{Type: domain.ChangePlaceDeleted, EntityID: id}}

	if uc.selection != nil && uc.selection.Place != nil && uc.selection.Place.ID == id {
		uc.selection = nil
		events = append(events, domain.ChangeEvent{Type: domain.ChangeSelection})
	}

	uc.unlinkAllLocked(id)

	uc.mu.Unlock()
	uc.notify(events...)
}

// UpdatePlace replaces a place in its durable collection and refreshes the
// selection if it held the same id. Used for user edits and enrichment
// merge-back; unknown ids only update the selection.
func (uc *StoreUseCase) UpdatePlace(place *domain.Place) {
	uc.mu.Lock()

	if _, ok := uc.stored[place.ID]; ok {
		uc.stored[place.ID] = place
	}
	if _, ok := uc.created[place.ID]; ok {
		uc.created[place.ID] = place
	}
	for i, p := range uc.searchResults {
		if p.ID == place.ID {
			place.RetrievedAt = p.RetrievedAt
			uc.searchResults[i] = place
			break
		}
	}

	events := []domain.ChangeEvent{{Type: domain.ChangePlaceUpdated, EntityID: place.ID}}
	if uc.selection != nil && uc.selection.Place != nil && uc.selection.Place.ID == place.ID {
		uc.selection.Place = place
		events = append(events, domain.ChangeEvent{Type: domain.ChangeSelection, EntityID: place.ID})
	}

	uc.mu.Unlock()
	uc.notify(events...)
}

// PromoteSearchResultToStored moves a search result into the stored
// collection, preserving its id. Fails silently if the id is not a
// current search result.
func (uc *StoreUseCase) PromoteSearchResultToStored(id string) {
	uc.mu.Lock()

	var promoted *domain.Place
	for i, p := range uc.searchResults {
		if p.ID == id {
			promoted = p
			uc.searchResults = append(uc.searchResults[:i], uc.searchResults[i+1:]...)
			break
		}
	}

	if promoted == nil {
		uc.mu.Unlock()
		return
	}

	promoted.Origin = domain.OriginStored
	uc.stored[promoted.ID] = promoted

	uc.mu.Unlock()
	uc.notify(domain.ChangeEvent{Type: domain.ChangePlaceUpdated, EntityID: id})
}

// GetSearchResults returns the current search results, newest last.
func (uc *StoreUseCase) GetSearchResults() []*domain.Place {
	uc.mu.RLock()
	defer uc.mu.RUnlock()

	out := make([]*domain.Place, len(uc.searchResults))
	copy(out, uc.searchResults)
	return out
}

// LinkPOIToRoute records a POI<->Route association.
func (uc *StoreUseCase) LinkPOIToRoute(poiID, routeID string) {
	uc.mu.Lock()

	if uc.poiRoutes[poiID] == nil {
		uc.poiRoutes[poiID] = make(map[string]struct{})
	}
	if uc.routePOIs[routeID] == nil {
		uc.routePOIs[routeID] = make(map[string]struct{})
	}
	uc.poiRoutes[poiID][routeID] = struct{}{}
	uc.routePOIs[routeID][poiID] = struct{}{}

	uc.mu.Unlock()
	uc.notify(domain.ChangeEvent{Type: domain.ChangeLink, EntityID: poiID})
}

// UnlinkPOIFromRoute removes a POI<->Route association; unknown pairs are
// a no-op.
func (uc *StoreUseCase) UnlinkPOIFromRoute(poiID, routeID string) {
	uc.mu.Lock()

	if m := uc.poiRoutes[poiID]; m != nil {
		delete(m, routeID)
		if len(m) == 0 {
			delete(uc.poiRoutes, poiID)
		}
	}
	if m := uc.routePOIs[routeID]; m != nil {
		delete(m, poiID)
		if len(m) == 0 {
			delete(uc.routePOIs, routeID)
		}
	}

	uc.mu.Unlock()
	uc.notify(domain.ChangeEvent{Type: domain.ChangeLink, EntityID: poiID})
}

func (uc *StoreUseCase) unlinkAllLocked(poiID string) {
	for routeID := range uc.poiRoutes[poiID] {
		delete(uc.routePOIs[routeID], poiID)
	}
	delete(uc.poiRoutes, poiID)
}

// GetPOIsForRoute returns the ids of places linked to a route, sorted for
// deterministic output.
func (uc *StoreUseCase) GetPOIsForRoute(routeID string) []string {
	uc.mu.RLock()
	defer uc.mu.RUnlock()
	return sortedKeys(uc.routePOIs[routeID])
}

// GetRoutesForPOI returns the ids of routes linked to a place.
func (uc *StoreUseCase) GetRoutesForPOI(poiID string) []string {
	uc.mu.RLock()
	defer uc.mu.RUnlock()
	return sortedKeys(uc.poiRoutes[poiID])
}

// UpsertRoute inserts or refreshes a route keyed by its upstream id,
// returning the internal store id.
func (uc *StoreUseCase) UpsertRoute(route *domain.Route) string {
	uc.mu.Lock()

	if id, ok := uc.routesByOBAID[route.OBARouteID]; ok {
		route.ID = id
		// Keep the vehicle list refreshed independently of geometry.
		if existing := uc.routes[id]; existing != nil && route.Vehicles == nil {
			route.Vehicles = existing.Vehicles
			route.VehiclesAt = existing.VehiclesAt
		}
	} else {
		route.ID = "route-" + uuid.NewString()
		uc.routesByOBAID[route.OBARouteID] = route.ID
	}
	uc.routes[route.ID] = route

	uc.mu.Unlock()
	uc.notify(domain.ChangeEvent{Type: domain.ChangeRouteUpdated, EntityID: route.ID})
	return route.ID
}

// GetRoute returns a route by internal id.
func (uc *StoreUseCase) GetRoute(id string) *domain.Route {
	uc.mu.RLock()
	defer uc.mu.RUnlock()
	return uc.routes[id]
}

// SetActiveRoute makes a transit route the active map display. Activating
// it deactivates any driving/walking route: the two kinds are mutually
// exclusive on the map.
func (uc *StoreUseCase) SetActiveRoute(id string) {
	uc.mu.Lock()
	uc.activeRouteID = id
	uc.activeDirections = nil
	uc.mu.Unlock()

	uc.notify(domain.ChangeEvent{Type: domain.ChangeRouteActivated, EntityID: id})
}

// SetActiveDirectionsRoute makes a driving/walking route active,
// deactivating any transit route.
func (uc *StoreUseCase) SetActiveDirectionsRoute(route *domain.DirectionsRoute) {
	uc.mu.Lock()
	uc.activeDirections = route
	uc.activeRouteID = ""
	uc.mu.Unlock()

	uc.notify(domain.ChangeEvent{Type: domain.ChangeDirectionsActivated})
}

// ClearActiveRoute clears both route kinds.
func (uc *StoreUseCase) ClearActiveRoute() {
	uc.mu.Lock()
	uc.activeRouteID = ""
	uc.activeDirections = nil
	uc.mu.Unlock()

	uc.notify(domain.ChangeEvent{Type: domain.ChangeRouteActivated})
}

// GetActiveRoute returns the active transit route, or nil.
func (uc *StoreUseCase) GetActiveRoute() *domain.Route {
	uc.mu.RLock()
	defer uc.mu.RUnlock()

	if uc.activeRouteID == "" {
		return nil
	}
	return uc.routes[uc.activeRouteID]
}

// GetActiveDirectionsRoute returns the active driving/walking route, or nil.
func (uc *StoreUseCase) GetActiveDirectionsRoute() *domain.DirectionsRoute {
	uc.mu.RLock()
	defer uc.mu.RUnlock()
	return uc.activeDirections
}

// SetVehicles updates a route's live vehicle list, independently of its
// geometry.
func (uc *StoreUseCase) SetVehicles(routeID string, vehicles []domain.Vehicle) {
	uc.mu.Lock()

	route, ok := uc.routes[routeID]
	if !ok {
		uc.mu.Unlock()
		return
	}
	now := uc.now()
	route.Vehicles = vehicles
	route.VehiclesAt = &now

	uc.mu.Unlock()
	uc.notify(domain.ChangeEvent{Type: domain.ChangeVehiclesUpdated, EntityID: routeID})
}

// SetCachedArrivals stamps a stop's arrivals list with the fetch time.
func (uc *StoreUseCase) SetCachedArrivals(ctx context.Context, poiID string, arrivals []domain.Arrival) error {
	data, err := json.Marshal(arrivals)
	if err != nil {
		return fmt.Errorf("marshal arrivals: %w", err)
	}
	return uc.cacheRepo.Set(ctx, arrivalsKey(poiID), data, uc.arrivalsTTL)
}

// GetCachedArrivals returns the cached arrivals list if it is within the
// TTL; otherwise a cache-miss signal, never the stale list.
func (uc *StoreUseCase) GetCachedArrivals(ctx context.Context, poiID string) ([]domain.Arrival, bool, error) {
	data, err := uc.cacheRepo.Get(ctx, arrivalsKey(poiID))
	if err != nil {
		return nil, false, err
	}
	if data == nil {
		return nil, false, nil
	}

	var arrivals []domain.Arrival
	if err := json.Unmarshal(data, &arrivals); err != nil {
		uc.logger.Warn("Discarding undecodable cached arrivals",
			zap.String("poi_id", poiID), zap.Error(err))
		return nil, false, nil
	}
	return arrivals, true, nil
}

func arrivalsKey(poiID string) string {
	return "arrivals:" + poiID
}

// mintID mints an id in the origin's namespace.
func mintID(origin domain.PlaceOrigin) string {
	switch origin {
	case domain.OriginSearch:
		return "search-result-" + uuid.NewString()
	case domain.OriginNative:
		return "native-" + uuid.NewString()
	default:
		return "custom-" + uuid.NewString()
	}
}

func sortedKeys(m map[string]struct{}) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
