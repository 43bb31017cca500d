package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/transit-explorer/internal/pkg/utils"
	"github.com/transit-explorer/internal/pkg/validator"
	"github.com/transit-explorer/internal/usecase"
	"github.com/transit-explorer/internal/usecase/dto"
	"go.uber.org/zap"
)

// RouteHandler serves transit routes, live vehicles, stop arrivals,
// nearby-stop search and driving/walking directions.
type RouteHandler struct {
	routeUC *usecase.RouteUseCase
	storeUC *usecase.StoreUseCase
	logger  *zap.Logger
}

func NewRouteHandler(routeUC *usecase.RouteUseCase, storeUC *usecase.StoreUseCase, logger *zap.Logger) *RouteHandler {
	return &RouteHandler{
		routeUC: routeUC,
		storeUC: storeUC,
		logger:  logger,
	}
}

// GetRouteDetails fetches and activates a transit route
// @Summary Get route details
// @Tags routes
// @Produce json
// @Param id path string true "Upstream route id (e.g. 1_100224)"
// @Success 200 {object} utils.SuccessResponse{data=domain.Route}
// @Failure 404 {object} utils.ErrorResponse
// @Failure 429 {object} utils.ErrorResponse
// @Router /api/v1/routes/{id} [get]
func (h *RouteHandler) GetRouteDetails(c *fiber.Ctx) error {
	route, err := h.routeUC.GetRouteDetails(c.Context(), c.Params("id"))
	if err != nil {
		return utils.SendError(c, err)
	}
	return utils.SendSuccess(c, route, nil)
}

// GetVehicles returns live vehicle positions for a route
// @Summary Get live vehicles for a route
// @Tags routes
// @Produce json
// @Param id path string true "Upstream route id"
// @Success 200 {object} utils.SuccessResponse{data=[]domain.Vehicle}
// @Failure 429 {object} utils.ErrorResponse
// @Router /api/v1/routes/{id}/vehicles [get]
func (h *RouteHandler) GetVehicles(c *fiber.Ctx) error {
	vehicles, err := h.routeUC.GetVehiclesForRoute(c.Context(), c.Params("id"))
	if err != nil {
		return utils.SendError(c, err)
	}
	return utils.SendSuccess(c, vehicles, &utils.Meta{Total: len(vehicles)})
}

// GetPlacesForRoute lists places linked to a route
// @Summary List places linked to a route
// @Tags routes
// @Produce json
// @Param id path string true "Route id"
// @Success 200 {object} utils.SuccessResponse{data=[]string}
// @Router /api/v1/routes/{id}/places [get]
func (h *RouteHandler) GetPlacesForRoute(c *fiber.Ctx) error {
	ids := h.storeUC.GetPOIsForRoute(c.Params("id"))
	return utils.SendSuccess(c, ids, &utils.Meta{Total: len(ids)})
}

// ClearActiveRoute removes the active route from the map
// @Summary Clear the active route
// @Tags routes
// @Produce json
// @Success 200 {object} utils.SuccessResponse
// @Router /api/v1/routes/active [delete]
func (h *RouteHandler) ClearActiveRoute(c *fiber.Ctx) error {
	h.storeUC.ClearActiveRoute()
	return utils.SendSuccess(c, fiber.Map{"cleared": true}, nil)
}

// GetArrivals returns arrival predictions for a stop
// @Summary Get arrivals for a stop
// @Tags stops
// @Produce json
// @Param id path string true "Stop id"
// @Success 200 {object} utils.SuccessResponse{data=[]domain.Arrival}
// @Failure 429 {object} utils.ErrorResponse
// @Router /api/v1/stops/{id}/arrivals [get]
func (h *RouteHandler) GetArrivals(c *fiber.Ctx) error {
	arrivals, err := h.routeUC.GetArrivalsForStop(c.Context(), c.Params("id"))
	if err != nil {
		return utils.SendError(c, err)
	}
	return utils.SendSuccess(c, arrivals, &utils.Meta{Total: len(arrivals)})
}

// FindNearbyStops returns transit stops around a point
// @Summary Find nearby transit stops
// @Tags stops
// @Accept json
// @Produce json
// @Param request body dto.NearbyStopsRequest true "Search point"
// @Success 200 {object} utils.SuccessResponse{data=[]domain.Place}
// @Failure 429 {object} utils.ErrorResponse
// @Router /api/v1/stops/nearby [post]
func (h *RouteHandler) FindNearbyStops(c *fiber.Ctx) error {
	var req dto.NearbyStopsRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid request body"})
	}

	if err := validator.Validate(&req); err != nil {
		return utils.SendError(c, err)
	}

	radius := req.Radius
	if radius == 0 {
		radius = 400
	}

	stops, err := h.routeUC.FindNearbyStops(c.Context(), req.Lat, req.Lon, radius)
	if err != nil {
		return utils.SendError(c, err)
	}
	return utils.SendSuccess(c, stops, &utils.Meta{Total: len(stops)})
}

// GetDirections fetches a driving or walking route
// @Summary Get driving/walking directions
// @Tags routes
// @Accept json
// @Produce json
// @Param request body dto.DirectionsRequest true "Route endpoints and profile"
// @Success 200 {object} utils.SuccessResponse{data=domain.DirectionsRoute}
// @Failure 400 {object} utils.ErrorResponse
// @Router /api/v1/directions [post]
func (h *RouteHandler) GetDirections(c *fiber.Ctx) error {
	var req dto.DirectionsRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid request body"})
	}

	if err := validator.Validate(&req); err != nil {
		return utils.SendError(c, err)
	}

	route, err := h.routeUC.GetDirections(c.Context(), req.Profile, req.FromLat, req.FromLon, req.ToLat, req.ToLon)
	if err != nil {
		return utils.SendError(c, err)
	}
	return utils.SendSuccess(c, route, nil)
}
