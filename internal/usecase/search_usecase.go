package usecase

import (
	"context"
	"strings"

	"github.com/transit-explorer/internal/domain"
	"github.com/transit-explorer/internal/domain/repository"
	apperrors "github.com/transit-explorer/internal/pkg/errors"
	"github.com/transit-explorer/internal/pkg/ratelimit"
	"github.com/transit-explorer/internal/usecase/dto"
	"go.uber.org/zap"
)

// SearchUseCase resolves free-text queries into transient search-result
// places. Every hit lands in the store's search-result collection, so a
// query immediately refreshes what GetSearchResults serves and what can
// be promoted to a stored place.
type SearchUseCase struct {
	geodataRepo repository.GeodataRepository
	store       *StoreUseCase
	limiter     *ratelimit.Limiter
	logger      *zap.Logger
}

func NewSearchUseCase(
	geodataRepo repository.GeodataRepository,
	store *StoreUseCase,
	limiter *ratelimit.Limiter,
	logger *zap.Logger,
) *SearchUseCase {
	return &SearchUseCase{
		geodataRepo: geodataRepo,
		store:       store,
		limiter:     limiter,
		logger:      logger,
	}
}

// Search geocodes the query and inserts the hits as search-result places,
// newest first in the response. User-initiated, so a rate-limit rejection
// surfaces to the caller instead of being swallowed.
func (uc *SearchUseCase) Search(ctx context.Context, req dto.SearchRequest) ([]*domain.Place, error) {
	query := strings.TrimSpace(req.Query)
	if query == "" {
		return nil, apperrors.ErrInvalidRequest
	}

	// The collection keeps only the newest entries, so asking upstream
	// for more than fit would evict results from this very query.
	limit := req.Limit
	if limit <= 0 || limit > searchResultLimit {
		limit = searchResultLimit
	}

	if err := uc.limiter.Allow("search"); err != nil {
		return nil, err
	}

	matches, err := uc.geodataRepo.SearchPlaces(ctx, query, limit)
	if err != nil {
		uc.logger.Error("Place search failed", zap.String("query", query), zap.Error(err))
		return nil, err
	}

	places := make([]*domain.Place, 0, len(matches))
	for _, m := range matches {
		place := &domain.Place{
			Name: m.Name,
			Lat:  m.Lat,
			Lon:  m.Lon,
			Tags: m.Tags,
		}
		if m.Address != "" {
			addr := m.Address
			place.Address = &addr
		}
		for _, field := range []string{"amenity", "shop", "tourism"} {
			if v := m.Tags[field]; v != "" {
				place.Category = v
				break
			}
		}

		uc.store.AddPlace(place, domain.OriginSearch)
		places = append(places, place)
	}

	uc.logger.Info("Search completed",
		zap.String("query", query),
		zap.Int("results", len(places)))
	return places, nil
}
