package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/transit-explorer/internal/domain"
	apperrors "github.com/transit-explorer/internal/pkg/errors"
	"github.com/transit-explorer/internal/pkg/utils"
	"github.com/transit-explorer/internal/pkg/validator"
	"github.com/transit-explorer/internal/usecase"
	"github.com/transit-explorer/internal/usecase/dto"
	"go.uber.org/zap"
)

// PlaceHandler serves the place collections: user-created places, search
// results, the selection and POI-route links.
type PlaceHandler struct {
	storeUC *usecase.StoreUseCase
	logger  *zap.Logger
}

func NewPlaceHandler(storeUC *usecase.StoreUseCase, logger *zap.Logger) *PlaceHandler {
	return &PlaceHandler{
		storeUC: storeUC,
		logger:  logger,
	}
}

// CreatePlace creates a user place
// @Summary Create a user place
// @Tags places
// @Accept json
// @Produce json
// @Param request body dto.CreatePlaceRequest true "Place attributes"
// @Success 200 {object} utils.SuccessResponse{data=domain.Place}
// @Failure 400 {object} utils.ErrorResponse
// @Router /api/v1/places [post]
func (h *PlaceHandler) CreatePlace(c *fiber.Ctx) error {
	var req dto.CreatePlaceRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid request body"})
	}

	if err := validator.Validate(&req); err != nil {
		return utils.SendError(c, err)
	}

	place := &domain.Place{
		Name:     req.Name,
		Category: req.Category,
		Lat:      req.Lat,
		Lon:      req.Lon,
	}
	if req.Description != "" {
		place.Description = &req.Description
	}
	if req.Address != "" {
		place.Address = &req.Address
	}
	if req.ImageURL != "" {
		place.ImageURL = &req.ImageURL
	}

	id := h.storeUC.AddPlace(place, domain.OriginCreated)
	return utils.SendSuccess(c, h.storeUC.GetPlace(id), nil)
}

// GetPlace returns a place by id
// @Summary Get a place
// @Tags places
// @Produce json
// @Param id path string true "Place id"
// @Success 200 {object} utils.SuccessResponse{data=domain.Place}
// @Failure 404 {object} utils.ErrorResponse
// @Router /api/v1/places/{id} [get]
func (h *PlaceHandler) GetPlace(c *fiber.Ctx) error {
	place := h.storeUC.GetPlace(c.Params("id"))
	if place == nil {
		return utils.SendError(c, apperrors.ErrPlaceNotFound)
	}
	return utils.SendSuccess(c, place, nil)
}

// UpdatePlace applies a partial update to a place
// @Summary Update a place
// @Tags places
// @Accept json
// @Produce json
// @Param id path string true "Place id"
// @Param request body dto.UpdatePlaceRequest true "Fields to change"
// @Success 200 {object} utils.SuccessResponse{data=domain.Place}
// @Failure 404 {object} utils.ErrorResponse
// @Router /api/v1/places/{id} [put]
func (h *PlaceHandler) UpdatePlace(c *fiber.Ctx) error {
	var req dto.UpdatePlaceRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid request body"})
	}

	if err := validator.Validate(&req); err != nil {
		return utils.SendError(c, err)
	}

	place := h.storeUC.GetPlace(c.Params("id"))
	if place == nil {
		return utils.SendError(c, apperrors.ErrPlaceNotFound)
	}

	updated := *place
	if req.Name != nil {
		updated.Name = *req.Name
	}
	if req.Category != nil {
		updated.Category = *req.Category
	}
	if req.Description != nil {
		updated.Description = req.Description
	}
	if req.Address != nil {
		updated.Address = req.Address
	}
	if req.ImageURL != nil {
		updated.ImageURL = req.ImageURL
	}

	h.storeUC.UpdatePlace(&updated)
	return utils.SendSuccess(c, &updated, nil)
}

// DeletePlace removes a place
// @Summary Delete a place
// @Tags places
// @Produce json
// @Param id path string true "Place id"
// @Success 200 {object} utils.SuccessResponse
// @Router /api/v1/places/{id} [delete]
func (h *PlaceHandler) DeletePlace(c *fiber.Ctx) error {
	h.storeUC.DeletePlace(c.Params("id"))
	return utils.SendSuccess(c, fiber.Map{"deleted": true}, nil)
}

// PromoteSearchResult saves a search result as a stored place
// @Summary Promote a search result to stored
// @Tags places
// @Produce json
// @Param id path string true "Search result id"
// @Success 200 {object} utils.SuccessResponse{data=domain.Place}
// @Failure 404 {object} utils.ErrorResponse
// @Router /api/v1/places/{id}/promote [post]
func (h *PlaceHandler) PromoteSearchResult(c *fiber.Ctx) error {
	id := c.Params("id")
	h.storeUC.PromoteSearchResultToStored(id)

	place := h.storeUC.GetPlace(id)
	if place == nil {
		return utils.SendError(c, apperrors.ErrPlaceNotFound)
	}
	return utils.SendSuccess(c, place, nil)
}

// GetSearchResults lists the current search results
// @Summary List search results
// @Tags places
// @Produce json
// @Success 200 {object} utils.SuccessResponse{data=[]domain.Place}
// @Router /api/v1/search-results [get]
func (h *PlaceHandler) GetSearchResults(c *fiber.Ctx) error {
	results := h.storeUC.GetSearchResults()
	return utils.SendSuccess(c, results, &utils.Meta{Total: len(results)})
}

// GetSelection returns the active selection
// @Summary Get the active selection
// @Tags places
// @Produce json
// @Success 200 {object} utils.SuccessResponse{data=domain.Selection}
// @Router /api/v1/selection [get]
func (h *PlaceHandler) GetSelection(c *fiber.Ctx) error {
	return utils.SendSuccess(c, h.storeUC.GetActiveSelection(), nil)
}

// LinkRoute associates a place with a transit route
// @Summary Link a place to a route
// @Tags places
// @Accept json
// @Produce json
// @Param id path string true "Place id"
// @Param request body dto.LinkPlaceRequest true "Route to link"
// @Success 200 {object} utils.SuccessResponse
// @Router /api/v1/places/{id}/links [post]
func (h *PlaceHandler) LinkRoute(c *fiber.Ctx) error {
	var req dto.LinkPlaceRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid request body"})
	}

	if err := validator.Validate(&req); err != nil {
		return utils.SendError(c, err)
	}

	h.storeUC.LinkPOIToRoute(c.Params("id"), req.RouteID)
	return utils.SendSuccess(c, fiber.Map{"linked": true}, nil)
}

// UnlinkRoute removes a place-route association
// @Summary Unlink a place from a route
// @Tags places
// @Produce json
// @Param id path string true "Place id"
// @Param route_id path string true "Route id"
// @Success 200 {object} utils.SuccessResponse
// @Router /api/v1/places/{id}/links/{route_id} [delete]
func (h *PlaceHandler) UnlinkRoute(c *fiber.Ctx) error {
	h.storeUC.UnlinkPOIFromRoute(c.Params("id"), c.Params("route_id"))
	return utils.SendSuccess(c, fiber.Map{"linked": false}, nil)
}

// GetRoutesForPlace lists routes linked to a place
// @Summary List routes linked to a place
// @Tags places
// @Produce json
// @Param id path string true "Place id"
// @Success 200 {object} utils.SuccessResponse{data=[]string}
// @Router /api/v1/places/{id}/routes [get]
func (h *PlaceHandler) GetRoutesForPlace(c *fiber.Ctx) error {
	ids := h.storeUC.GetRoutesForPOI(c.Params("id"))
	return utils.SendSuccess(c, ids, &utils.Meta{Total: len(ids)})
}
