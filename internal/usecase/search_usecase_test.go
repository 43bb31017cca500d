package usecase

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/transit-explorer/internal/domain"
	apperrors "github.com/transit-explorer/internal/pkg/errors"
	"github.com/transit-explorer/internal/pkg/ratelimit"
	"github.com/transit-explorer/internal/usecase/dto"
	"go.uber.org/zap"
)

func newTestSearch(geodata *MockGeodataRepository, quota int) (*SearchUseCase, *StoreUseCase) {
	store := newTestStore()
	limiter := ratelimit.NewLimiter(quota, time.Minute, zap.NewNop())
	return NewSearchUseCase(geodata, store, limiter, zap.NewNop()), store
}

func TestSearchUseCase_Search(t *testing.T) {
	ctx := context.Background()

	t.Run("hits become search-result places", func(t *testing.T) {
		geodata := new(MockGeodataRepository)
		uc, store := newTestSearch(geodata, 10)

		geodata.On("SearchPlaces", ctx, "pike place", 5).
			Return([]*domain.OSMMatch{
				{
					Name:    "Pike Place Market",
					Lat:     47.6097,
					Lon:     -122.3331,
					Tags:    map[string]string{"tourism": "attraction"},
					Address: "Pike Place Market, 85, Pike Street, Seattle",
				},
				{
					Name: "Pike Street",
					Lat:  47.6101,
					Lon:  -122.3320,
					Tags: map[string]string{},
				},
			}, nil)

		results, err := uc.Search(ctx, dto.SearchRequest{Query: "pike place"})
		require.NoError(t, err)
		require.Len(t, results, 2)

		first := results[0]
		assert.True(t, strings.HasPrefix(first.ID, "search-result-"))
		assert.Equal(t, domain.OriginSearch, first.Origin)
		assert.Equal(t, "Pike Place Market", first.Name)
		assert.Equal(t, "attraction", first.Category)
		require.NotNil(t, first.Address)
		assert.Equal(t, "Pike Place Market, 85, Pike Street, Seattle", *first.Address)

		// Hits are addressable through the store immediately.
		assert.Len(t, store.GetSearchResults(), 2)
		assert.Same(t, first, store.GetPlace(first.ID))
	})

	t.Run("new hits evict the oldest past the cap", func(t *testing.T) {
		geodata := new(MockGeodataRepository)
		uc, store := newTestSearch(geodata, 10)

		for i := 0; i < 4; i++ {
			store.AddPlace(&domain.Place{Name: "Old"}, domain.OriginSearch)
		}

		geodata.On("SearchPlaces", ctx, "cafe", 5).
			Return([]*domain.OSMMatch{
				{Name: "Cafe A", Lat: 47.61, Lon: -122.33},
				{Name: "Cafe B", Lat: 47.62, Lon: -122.34},
				{Name: "Cafe C", Lat: 47.63, Lon: -122.35},
			}, nil)

		results, err := uc.Search(ctx, dto.SearchRequest{Query: "cafe"})
		require.NoError(t, err)
		require.Len(t, results, 3)

		kept := store.GetSearchResults()
		require.Len(t, kept, 5)
		// All of this query's hits survive the eviction.
		names := make([]string, 0, len(kept))
		for _, p := range kept {
			names = append(names, p.Name)
		}
		assert.Contains(t, names, "Cafe A")
		assert.Contains(t, names, "Cafe B")
		assert.Contains(t, names, "Cafe C")
	})

	t.Run("rate-limit rejection reaches the caller", func(t *testing.T) {
		geodata := new(MockGeodataRepository)
		uc, _ := newTestSearch(geodata, 0)

		_, err := uc.Search(ctx, dto.SearchRequest{Query: "pike place"})
		assert.ErrorIs(t, err, apperrors.ErrRateLimited)
		geodata.AssertNotCalled(t, "SearchPlaces")
	})

	t.Run("blank query spends no quota", func(t *testing.T) {
		geodata := new(MockGeodataRepository)
		uc, _ := newTestSearch(geodata, 1)

		_, err := uc.Search(ctx, dto.SearchRequest{Query: "   "})
		assert.ErrorIs(t, err, apperrors.ErrInvalidRequest)
		geodata.AssertNotCalled(t, "SearchPlaces")

		// The quota is still intact for a real query.
		geodata.On("SearchPlaces", ctx, "cafe", 5).Return([]*domain.OSMMatch{}, nil)
		_, err = uc.Search(ctx, dto.SearchRequest{Query: "cafe"})
		require.NoError(t, err)
	})

	t.Run("limit is clamped to the collection cap", func(t *testing.T) {
		geodata := new(MockGeodataRepository)
		uc, _ := newTestSearch(geodata, 10)

		geodata.On("SearchPlaces", ctx, "cafe", 5).Return([]*domain.OSMMatch{}, nil)

		_, err := uc.Search(ctx, dto.SearchRequest{Query: "cafe", Limit: 50})
		require.NoError(t, err)
		geodata.AssertExpectations(t)
	})

	t.Run("upstream failure propagates", func(t *testing.T) {
		geodata := new(MockGeodataRepository)
		uc, store := newTestSearch(geodata, 10)

		geodata.On("SearchPlaces", ctx, "cafe", 5).Return(nil, apperrors.ErrUpstreamError)

		_, err := uc.Search(ctx, dto.SearchRequest{Query: "cafe"})
		assert.ErrorIs(t, err, apperrors.ErrUpstreamError)
		assert.Empty(t, store.GetSearchResults())
	})
}
