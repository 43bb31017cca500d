package usecase

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/transit-explorer/internal/domain"
	"go.uber.org/zap"
)

// fakeCache is a map-backed CacheRepository without TTL enforcement; TTL
// behavior is covered by the cache package tests.
type fakeCache struct {
	data map[string][]byte
}

func newFakeCache() *fakeCache {
	return &fakeCache{data: make(map[string][]byte)}
}

func (f *fakeCache) Get(_ context.Context, key string) ([]byte, error) {
	return f.data[key], nil
}

func (f *fakeCache) Set(_ context.Context, key string, value []byte, _ time.Duration) error {
	f.data[key] = value
	return nil
}

func (f *fakeCache) Delete(_ context.Context, key string) error {
	delete(f.data, key)
	return nil
}

func newTestStore() *StoreUseCase {
	return NewStoreUseCase(newFakeCache(), 15*time.Minute, zap.NewNop())
}

func TestStoreUseCase_AddPlace(t *testing.T) {
	t.Run("mints ids per origin", func(t *testing.T) {
		store := newTestStore()

		created := store.AddPlace(&domain.Place{Name: "Cafe"}, domain.OriginCreated)
		search := store.AddPlace(&domain.Place{Name: "Museum"}, domain.OriginSearch)
		native := store.AddPlace(&domain.Place{Name: "Park"}, domain.OriginNative)

		assert.True(t, strings.HasPrefix(created, "custom-"))
		assert.True(t, strings.HasPrefix(search, "search-result-"))
		assert.True(t, strings.HasPrefix(native, "native-"))
	})

	t.Run("existing id is a no-op", func(t *testing.T) {
		store := newTestStore()

		id := store.AddPlace(&domain.Place{ID: "p1", Name: "First"}, domain.OriginCreated)
		again := store.AddPlace(&domain.Place{ID: "p1", Name: "Second"}, domain.OriginCreated)

		assert.Equal(t, id, again)
		assert.Equal(t, "First", store.GetPlace("p1").Name)
	})

	t.Run("native places are not stored durably", func(t *testing.T) {
		store := newTestStore()

		id := store.AddPlace(&domain.Place{Name: "Ephemeral"}, domain.OriginNative)
		assert.Nil(t, store.GetPlace(id))
	})

	t.Run("notifies subscribers", func(t *testing.T) {
		store := newTestStore()

		var events []domain.ChangeEvent
		store.Subscribe(func(ev domain.ChangeEvent) {
			events = append(events, ev)
		})

		id := store.AddPlace(&domain.Place{Name: "Cafe"}, domain.OriginCreated)
		require.Len(t, events, 1)
		assert.Equal(t, domain.ChangePlaceAdded, events[0].Type)
		assert.Equal(t, id, events[0].EntityID)
	})
}

func TestStoreUseCase_SearchResultEviction(t *testing.T) {
	store := newTestStore()

	var ids []string
	for i := 0; i < 7; i++ {
		ids = append(ids, store.AddPlace(&domain.Place{Name: "Result"}, domain.OriginSearch))
	}

	results := store.GetSearchResults()
	require.Len(t, results, 5)

	// The two oldest are gone, the five newest remain in order.
	assert.Nil(t, store.GetPlace(ids[0]))
	assert.Nil(t, store.GetPlace(ids[1]))
	for i, r := range results {
		assert.Equal(t, ids[i+2], r.ID)
	}
}

func TestStoreUseCase_SelectionLifecycle(t *testing.T) {
	t.Run("select replaces previous selection", func(t *testing.T) {
		store := newTestStore()

		a := &domain.Place{ID: "a", Name: "A"}
		b := &domain.Place{ID: "b", Name: "B"}
		store.AddPlace(a, domain.OriginCreated)
		store.AddPlace(b, domain.OriginCreated)

		store.SelectPOI(a, domain.OriginCreated)
		store.SelectPOI(b, domain.OriginCreated)

		sel := store.GetActiveSelection()
		require.NotNil(t, sel)
		assert.Equal(t, "b", sel.Place.ID)
	})

	t.Run("deleting the selected place clears the selection", func(t *testing.T) {
		store := newTestStore()

		p := &domain.Place{ID: "p", Name: "P"}
		store.AddPlace(p, domain.OriginCreated)
		store.SelectPOI(p, domain.OriginCreated)

		store.DeletePlace("p")
		assert.Nil(t, store.GetActiveSelection())
	})

	t.Run("deleting an unrelated place keeps the selection", func(t *testing.T) {
		store := newTestStore()

		p := &domain.Place{ID: "p", Name: "P"}
		q := &domain.Place{ID: "q", Name: "Q"}
		store.AddPlace(p, domain.OriginCreated)
		store.AddPlace(q, domain.OriginCreated)
		store.SelectPOI(p, domain.OriginCreated)

		store.DeletePlace("q")
		require.NotNil(t, store.GetActiveSelection())
		assert.Equal(t, "p", store.GetActiveSelection().Place.ID)
	})

	t.Run("deleting an unknown id is a no-op", func(t *testing.T) {
		store := newTestStore()

		fired := false
		store.Subscribe(func(domain.ChangeEvent) { fired = true })

		store.DeletePlace("ghost")
		assert.False(t, fired)
	})
}

func TestStoreUseCase_UpdatePlace(t *testing.T) {
	store := newTestStore()

	p := &domain.Place{ID: "p", Name: "Old"}
	store.AddPlace(p, domain.OriginCreated)
	store.SelectPOI(p, domain.OriginCreated)

	updated := *p
	updated.Name = "New"
	store.UpdatePlace(&updated)

	assert.Equal(t, "New", store.GetPlace("p").Name)
	assert.Equal(t, "New", store.GetActiveSelection().Place.Name)
}

func TestStoreUseCase_PromoteSearchResult(t *testing.T) {
	t.Run("promotes and keeps the id", func(t *testing.T) {
		store := newTestStore()

		id := store.AddPlace(&domain.Place{Name: "Museum"}, domain.OriginSearch)
		store.PromoteSearchResultToStored(id)

		p := store.GetPlace(id)
		require.NotNil(t, p)
		assert.Equal(t, domain.OriginStored, p.Origin)
		assert.Empty(t, store.GetSearchResults())
	})

	t.Run("promoted result survives later evictions", func(t *testing.T) {
		store := newTestStore()

		id := store.AddPlace(&domain.Place{Name: "Keeper"}, domain.OriginSearch)
		store.PromoteSearchResultToStored(id)

		for i := 0; i < 6; i++ {
			store.AddPlace(&domain.Place{Name: "Result"}, domain.OriginSearch)
		}

		assert.NotNil(t, store.GetPlace(id))
	})

	t.Run("unknown id fails silently", func(t *testing.T) {
		store := newTestStore()
		store.PromoteSearchResultToStored("ghost")
		assert.Nil(t, store.GetPlace("ghost"))
	})
}

func TestStoreUseCase_Links(t *testing.T) {
	t.Run("link is visible from both sides", func(t *testing.T) {
		store := newTestStore()

		store.LinkPOIToRoute("p1", "r1")
		store.LinkPOIToRoute("p2", "r1")
		store.LinkPOIToRoute("p1", "r2")

		assert.Equal(t, []string{"p1", "p2"}, store.GetPOIsForRoute("r1"))
		assert.Equal(t, []string{"r1", "r2"}, store.GetRoutesForPOI("p1"))
	})

	t.Run("unlink removes one pair only", func(t *testing.T) {
		store := newTestStore()

		store.LinkPOIToRoute("p1", "r1")
		store.LinkPOIToRoute("p1", "r2")
		store.UnlinkPOIFromRoute("p1", "r1")

		assert.Empty(t, store.GetPOIsForRoute("r1"))
		assert.Equal(t, []string{"r2"}, store.GetRoutesForPOI("p1"))
	})

	t.Run("deleting a place clears its links", func(t *testing.T) {
		store := newTestStore()

		store.AddPlace(&domain.Place{ID: "p1", Name: "P"}, domain.OriginCreated)
		store.LinkPOIToRoute("p1", "r1")

		store.DeletePlace("p1")
		assert.Empty(t, store.GetPOIsForRoute("r1"))
		assert.Empty(t, store.GetRoutesForPOI("p1"))
	})
}

func TestStoreUseCase_Routes(t *testing.T) {
	t.Run("upsert keyed by upstream id", func(t *testing.T) {
		store := newTestStore()

		first := store.UpsertRoute(&domain.Route{OBARouteID: "1_100", ShortName: "40"})
		second := store.UpsertRoute(&domain.Route{OBARouteID: "1_100", ShortName: "40X"})

		assert.Equal(t, first, second)
		assert.Equal(t, "40X", store.GetRoute(first).ShortName)
	})

	t.Run("refresh without vehicles keeps the old vehicle list", func(t *testing.T) {
		store := newTestStore()

		id := store.UpsertRoute(&domain.Route{OBARouteID: "1_100"})
		store.SetVehicles(id, []domain.Vehicle{{VehicleID: "v1"}})

		store.UpsertRoute(&domain.Route{OBARouteID: "1_100", ShortName: "40"})

		route := store.GetRoute(id)
		require.Len(t, route.Vehicles, 1)
		assert.Equal(t, "v1", route.Vehicles[0].VehicleID)
	})

	t.Run("transit and directions routes are mutually exclusive", func(t *testing.T) {
		store := newTestStore()

		id := store.UpsertRoute(&domain.Route{OBARouteID: "1_100"})
		store.SetActiveRoute(id)
		require.NotNil(t, store.GetActiveRoute())

		store.SetActiveDirectionsRoute(&domain.DirectionsRoute{Profile: "walking"})
		assert.Nil(t, store.GetActiveRoute())
		assert.NotNil(t, store.GetActiveDirectionsRoute())

		store.SetActiveRoute(id)
		assert.Nil(t, store.GetActiveDirectionsRoute())
		assert.NotNil(t, store.GetActiveRoute())

		store.ClearActiveRoute()
		assert.Nil(t, store.GetActiveRoute())
		assert.Nil(t, store.GetActiveDirectionsRoute())
	})

	t.Run("set vehicles on unknown route is a no-op", func(t *testing.T) {
		store := newTestStore()
		store.SetVehicles("ghost", []domain.Vehicle{{VehicleID: "v1"}})
		assert.Nil(t, store.GetRoute("ghost"))
	})
}

func TestStoreUseCase_Subscribers(t *testing.T) {
	t.Run("notified in subscription order", func(t *testing.T) {
		store := newTestStore()

		var order []string
		store.Subscribe(func(domain.ChangeEvent) { order = append(order, "first") })
		store.Subscribe(func(domain.ChangeEvent) { order = append(order, "second") })

		store.AddPlace(&domain.Place{Name: "Cafe"}, domain.OriginCreated)
		assert.Equal(t, []string{"first", "second"}, order)
	})

	t.Run("unsubscribed listener stops receiving", func(t *testing.T) {
		store := newTestStore()

		calls := 0
		id := store.Subscribe(func(domain.ChangeEvent) { calls++ })

		store.AddPlace(&domain.Place{Name: "One"}, domain.OriginCreated)
		store.Unsubscribe(id)
		store.AddPlace(&domain.Place{Name: "Two"}, domain.OriginCreated)

		assert.Equal(t, 1, calls)
	})

	t.Run("listener may call back into the store", func(t *testing.T) {
		store := newTestStore()

		var seen *domain.Place
		store.Subscribe(func(ev domain.ChangeEvent) {
			if ev.Type == domain.ChangePlaceAdded {
				seen = store.GetPlace(ev.EntityID)
			}
		})

		store.AddPlace(&domain.Place{ID: "p", Name: "Cafe"}, domain.OriginCreated)
		require.NotNil(t, seen)
		assert.Equal(t, "Cafe", seen.Name)
	})
}

func TestStoreUseCase_ArrivalsCache(t *testing.T) {
	ctx := context.Background()
	store := newTestStore()

	t.Run("miss before set", func(t *testing.T) {
		_, ok, err := store.GetCachedArrivals(ctx, "stop1")
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("roundtrip", func(t *testing.T) {
		arrivals := []domain.Arrival{
			{RouteID: "1_100", StopID: "stop1", ScheduledArrivalTime: 1700000000000, Predicted: true},
		}
		require.NoError(t, store.SetCachedArrivals(ctx, "stop1", arrivals))

		got, ok, err := store.GetCachedArrivals(ctx, "stop1")
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, arrivals, got)
	})
}
