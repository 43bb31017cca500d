package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/transit-explorer/internal/pkg/utils"
	"github.com/transit-explorer/internal/pkg/validator"
	"github.com/transit-explorer/internal/usecase"
	"github.com/transit-explorer/internal/usecase/dto"
	"go.uber.org/zap"
)

// InteractionHandler receives map interaction events from the frontend.
type InteractionHandler struct {
	interactionUC *usecase.InteractionUseCase
	logger        *zap.Logger
}

func NewInteractionHandler(interactionUC *usecase.InteractionUseCase, logger *zap.Logger) *InteractionHandler {
	return &InteractionHandler{
		interactionUC: interactionUC,
		logger:        logger,
	}
}

// FeatureClick handles a click on a rendered map feature
// @Summary Handle a map feature click
// @Tags interactions
// @Accept json
// @Produce json
// @Param request body dto.FeatureClickEvent true "Clicked feature"
// @Success 200 {object} utils.SuccessResponse{data=domain.Selection}
// @Failure 400 {object} utils.ErrorResponse
// @Failure 404 {object} utils.ErrorResponse
// @Router /api/v1/interactions/click [post]
func (h *InteractionHandler) FeatureClick(c *fiber.Ctx) error {
	var event dto.FeatureClickEvent
	if err := c.BodyParser(&event); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid request body"})
	}

	if err := validator.Validate(&event); err != nil {
		return utils.SendError(c, err)
	}

	selection, err := h.interactionUC.HandleFeatureClick(c.Context(), event)
	if err != nil {
		return utils.SendError(c, err)
	}
	return utils.SendSuccess(c, selection, nil)
}
