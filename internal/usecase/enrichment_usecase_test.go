package usecase

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/transit-explorer/internal/domain"
	apperrors "github.com/transit-explorer/internal/pkg/errors"
	"go.uber.org/zap"
)

// MockGeodataRepository is a mock of GeodataRepository
type MockGeodataRepository struct {
	mock.Mock
}

func (m *MockGeodataRepository) FindNearbyPlace(ctx context.Context, name string, lat, lon, radius float64) (*domain.OSMMatch, error) {
	args := m.Called(ctx, name, lat, lon, radius)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.OSMMatch), args.Error(1)
}

func (m *MockGeodataRepository) ReverseGeocode(ctx context.Context, lat, lon float64) (string, error) {
	args := m.Called(ctx, lat, lon)
	return args.String(0), args.Error(1)
}

func (m *MockGeodataRepository) SearchPlaces(ctx context.Context, query string, limit int) ([]*domain.OSMMatch, error) {
	args := m.Called(ctx, query, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.OSMMatch), args.Error(1)
}

func newTestEnrichment(geodata *MockGeodataRepository) (*EnrichmentUseCase, *StoreUseCase) {
	store := newTestStore()
	return NewEnrichmentUseCase(geodata, store, 150, zap.NewNop()), store
}

func TestEnrichmentUseCase_EnrichPOIWithOSM(t *testing.T) {
	ctx := context.Background()

	t.Run("merges tags from a match", func(t *testing.T) {
		geodata := new(MockGeodataRepository)
		uc, store := newTestEnrichment(geodata)

		place := &domain.Place{ID: "n1", Name: "Blue Bottle", Lat: 47.61, Lon: -122.33, Origin: domain.OriginNative}
		store.AddPlace(place, domain.OriginNative)

		geodata.On("FindNearbyPlace", ctx, "Blue Bottle", 47.61, -122.33, 150.0).
			Return(&domain.OSMMatch{
				Name: "Blue Bottle Coffee",
				Lat:  47.6101,
				Lon:  -122.3301,
				Tags: map[string]string{
					"amenity":       "cafe",
					"cuisine":       "coffee_shop",
					"phone":         "+1-206-555-0100",
					"opening_hours": "Mo-Su 07:00-18:00",
					"building":      "yes", // not in the merge list
				},
				Address: "300 Pine St, Seattle",
			}, nil)

		enriched := uc.EnrichPOIWithOSM(ctx, place)

		assert.True(t, enriched.OSMEnriched)
		assert.True(t, enriched.OSMLookupAttempted)
		assert.NotNil(t, enriched.OSMEnrichedAt)
		assert.Equal(t, "cafe", enriched.Tags["amenity"])
		assert.Equal(t, "coffee_shop", enriched.Tags["cuisine"])
		assert.NotContains(t, enriched.Tags, "building")
		require.NotNil(t, enriched.Phone)
		assert.Equal(t, "+1-206-555-0100", *enriched.Phone)
		require.NotNil(t, enriched.Hours)
		require.NotNil(t, enriched.Address)
		assert.Equal(t, "300 Pine St, Seattle", *enriched.Address)
		assert.Equal(t, "cafe", enriched.Category)

		// Original coordinates win over the match's.
		assert.Equal(t, 47.61, enriched.Lat)
	})

	t.Run("no match falls back to reverse geocoding", func(t *testing.T) {
		geodata := new(MockGeodataRepository)
		uc, store := newTestEnrichment(geodata)

		place := &domain.Place{ID: "n2", Name: "Somewhere", Lat: 47.62, Lon: -122.34, Origin: domain.OriginNative}
		store.AddPlace(place, domain.OriginNative)

		geodata.On("FindNearbyPlace", ctx, "Somewhere", 47.62, -122.34, 150.0).
			Return(nil, nil)
		geodata.On("ReverseGeocode", ctx, 47.62, -122.34).
			Return("500 Olive Way, Seattle", nil)

		enriched := uc.EnrichPOIWithOSM(ctx, place)

		assert.False(t, enriched.OSMEnriched)
		assert.True(t, enriched.OSMLookupAttempted)
		require.NotNil(t, enriched.Address)
		assert.Equal(t, "500 Olive Way, Seattle", *enriched.Address)
	})

	t.Run("coordinate name always gets an address", func(t *testing.T) {
		geodata := new(MockGeodataRepository)
		uc, store := newTestEnrichment(geodata)

		addr := "corner of 4th"
		place := &domain.Place{
			ID: "n3", Name: "47.61000, -122.33000",
			Lat: 47.61, Lon: -122.33,
			Address: &addr,
			Origin:  domain.OriginNative,
		}
		store.AddPlace(place, domain.OriginNative)

		geodata.On("FindNearbyPlace", ctx, place.Name, 47.61, -122.33, 150.0).
			Return(nil, nil)
		geodata.On("ReverseGeocode", ctx, 47.61, -122.33).
			Return("400 Pike St, Seattle", nil)

		enriched := uc.EnrichPOIWithOSM(ctx, place)
		require.NotNil(t, enriched.Address)
		assert.Equal(t, "400 Pike St, Seattle", *enriched.Address)
	})

	t.Run("coordinate-shaped match address is replaced", func(t *testing.T) {
		geodata := new(MockGeodataRepository)
		uc, store := newTestEnrichment(geodata)

		place := &domain.Place{ID: "n5", Name: "Dropped Pin", Lat: 47.61, Lon: -122.33, Origin: domain.OriginNative}
		store.AddPlace(place, domain.OriginNative)

		// Some OSM elements carry raw coordinates in their addr tags.
		geodata.On("FindNearbyPlace", ctx, "Dropped Pin", 47.61, -122.33, 150.0).
			Return(&domain.OSMMatch{
				Name:    "Bench",
				Tags:    map[string]string{"amenity": "bench"},
				Address: "47.61000, -122.33000",
			}, nil)
		geodata.On("ReverseGeocode", ctx, 47.61, -122.33).
			Return("88 Spring St, Seattle", nil)

		enriched := uc.EnrichPOIWithOSM(ctx, place)
		require.NotNil(t, enriched.Address)
		assert.Equal(t, "88 Spring St, Seattle", *enriched.Address)
	})

	t.Run("lookup failure degrades to the original place", func(t *testing.T) {
		geodata := new(MockGeodataRepository)
		uc, store := newTestEnrichment(geodata)

		place := &domain.Place{ID: "n4", Name: "Flaky", Lat: 47.6, Lon: -122.3, Origin: domain.OriginNative}
		store.AddPlace(place, domain.OriginNative)

		geodata.On("FindNearbyPlace", ctx, "Flaky", 47.6, -122.3, 150.0).
			Return(nil, apperrors.ErrUpstreamError)

		enriched := uc.EnrichPOIWithOSM(ctx, place)
		assert.Equal(t, "Flaky", enriched.Name)
		assert.False(t, enriched.OSMEnriched)
		assert.True(t, enriched.OSMLookupAttempted)

		// A second click must not retry, the attempt is recorded.
		again := uc.EnrichPOIWithOSM(ctx, enriched)
		assert.Same(t, enriched, again)
		geodata.AssertNumberOfCalls(t, "FindNearbyPlace", 1)
	})

	t.Run("stored and created places are never enriched", func(t *testing.T) {
		geodata := new(MockGeodataRepository)
		uc, _ := newTestEnrichment(geodata)

		stored := &domain.Place{ID: "s1", Name: "Home", Origin: domain.OriginStored}
		created := &domain.Place{ID: "c1", Name: "Work", Origin: domain.OriginCreated}

		assert.Same(t, stored, uc.EnrichPOIWithOSM(ctx, stored))
		assert.Same(t, created, uc.EnrichPOIWithOSM(ctx, created))
		geodata.AssertNotCalled(t, "FindNearbyPlace")
	})

	t.Run("enrichment merges back into the store", func(t *testing.T) {
		geodata := new(MockGeodataRepository)
		uc, store := newTestEnrichment(geodata)

		place := &domain.Place{Name: "Museum", Lat: 47.6, Lon: -122.3}
		id := store.AddPlace(place, domain.OriginSearch)

		geodata.On("FindNearbyPlace", ctx, "Museum", 47.6, -122.3, 150.0).
			Return(&domain.OSMMatch{
				Name: "Art Museum",
				Tags: map[string]string{"tourism": "museum"},
			}, nil)
		geodata.On("ReverseGeocode", ctx, 47.6, -122.3).
			Return("1300 1st Ave, Seattle", nil)

		uc.EnrichPOIWithOSM(ctx, place)

		inStore := store.GetPlace(id)
		require.NotNil(t, inStore)
		assert.True(t, inStore.OSMEnriched)
		assert.Equal(t, "museum", inStore.Tags["tourism"])
	})
}

func TestEnrichmentUseCase_Dedup(t *testing.T) {
	ctx := context.Background()

	t.Run("concurrent callers share one lookup", func(t *testing.T) {
		geodata := new(MockGeodataRepository)
		uc, store := newTestEnrichment(geodata)

		place := &domain.Place{ID: "n1", Name: "Cafe", Lat: 47.61, Lon: -122.33, Origin: domain.OriginNative}
		store.AddPlace(place, domain.OriginNative)

		release := make(chan struct{})
		geodata.On("FindNearbyPlace", ctx, "Cafe", 47.61, -122.33, 150.0).
			Run(func(mock.Arguments) { <-release }).
			Return(&domain.OSMMatch{Name: "Cafe", Tags: map[string]string{"amenity": "cafe"}}, nil).
			Once()
		geodata.On("ReverseGeocode", ctx, 47.61, -122.33).
			Return("1 Main St", nil)

		var wg sync.WaitGroup
		results := make([]*domain.Place, 10)
		for i := 0; i < 10; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				results[i] = uc.EnrichPOIWithOSM(ctx, place)
			}(i)
		}

		time.Sleep(20 * time.Millisecond)
		close(release)
		wg.Wait()

		for _, r := range results {
			require.NotNil(t, r)
			assert.Equal(t, "cafe", r.Tags["amenity"])
		}
		geodata.AssertNumberOfCalls(t, "FindNearbyPlace", 1)
	})

	t.Run("same place under a different id joins by location key", func(t *testing.T) {
		geodata := new(MockGeodataRepository)
		uc, store := newTestEnrichment(geodata)

		a := &domain.Place{ID: "n1", Name: "Cafe", Lat: 47.610001, Lon: -122.330001, Origin: domain.OriginNative}
		b := &domain.Place{ID: "n2", Name: "Cafe", Lat: 47.610002, Lon: -122.330002, Origin: domain.OriginNative}
		store.AddPlace(a, domain.OriginNative)
		store.AddPlace(b, domain.OriginNative)

		release := make(chan struct{})
		geodata.On("FindNearbyPlace", ctx, "Cafe", a.Lat, a.Lon, 150.0).
			Run(func(mock.Arguments) { <-release }).
			Return(&domain.OSMMatch{Name: "Cafe", Tags: map[string]string{"amenity": "cafe"}}, nil).
			Once()
		geodata.On("ReverseGeocode", ctx, a.Lat, a.Lon).
			Return("1 Main St", nil)

		var wg sync.WaitGroup
		var fromA, fromB *domain.Place
		wg.Add(2)
		go func() {
			defer wg.Done()
			fromA = uc.EnrichPOIWithOSM(ctx, a)
		}()
		go func() {
			defer wg.Done()
			time.Sleep(10 * time.Millisecond)
			fromB = uc.EnrichPOIWithOSM(ctx, b)
		}()

		time.Sleep(30 * time.Millisecond)
		close(release)
		wg.Wait()

		assert.Equal(t, "cafe", fromA.Tags["amenity"])
		assert.Equal(t, "cafe", fromB.Tags["amenity"])
		geodata.AssertNumberOfCalls(t, "FindNearbyPlace", 1)
	})
}
