package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/transit-explorer/internal/pkg/utils"
	"github.com/transit-explorer/internal/pkg/validator"
	"github.com/transit-explorer/internal/usecase"
	"github.com/transit-explorer/internal/usecase/dto"
	"go.uber.org/zap"
)

// SearchHandler serves free-text place search.
type SearchHandler struct {
	searchUC *usecase.SearchUseCase
	logger   *zap.Logger
}

func NewSearchHandler(searchUC *usecase.SearchUseCase, logger *zap.Logger) *SearchHandler {
	return &SearchHandler{
		searchUC: searchUC,
		logger:   logger,
	}
}

// Search resolves a query into search-result places
// @Summary Search for places
// @Description Geocodes a free-text query and stores the hits as search results, available for selection and promotion.
// @Tags search
// @Produce json
// @Param q query string true "Search text (minimum 2 characters)"
// @Param limit query int false "Maximum number of results" default(5)
// @Success 200 {object} utils.SuccessResponse{data=[]domain.Place}
// @Failure 400 {object} utils.ErrorResponse
// @Failure 429 {object} utils.ErrorResponse
// @Router /api/v1/search [get]
func (h *SearchHandler) Search(c *fiber.Ctx) error {
	var req dto.SearchRequest
	req.Query = c.Query("q")
	req.Limit = c.QueryInt("limit", 5)

	if err := validator.Validate(&req); err != nil {
		return utils.SendError(c, err)
	}

	results, err := h.searchUC.Search(c.Context(), req)
	if err != nil {
		return utils.SendError(c, err)
	}

	return utils.SendSuccess(c, results, &utils.Meta{Total: len(results)})
}
