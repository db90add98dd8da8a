package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/laras-id/laras-api/internal/dto"
	"github.com/laras-id/laras-api/internal/service"
	"github.com/laras-id/laras-api/internal/utils"
)

// PromotionHandler wires role upgrade HTTP routes.
type PromotionHandler struct {
	service service.PromotionService
	logger  zerolog.Logger
}

// NewPromotionHandler constructs the handler.
func NewPromotionHandler(service service.PromotionService, logger zerolog.Logger) *PromotionHandler {
	return &PromotionHandler{
		service: service,
		logger:  logger.With().Str("component", "promotion_handler").Logger(),
	}
}

// RegisterMasterRoleRequests attaches master-role request endpoints.
func (h *PromotionHandler) RegisterMasterRoleRequests(router fiber.Router) {
	router.Post("", h.requestMasterRole)
	router.Post("/:id/review", h.reviewMasterRole)
}

// RegisterMentorApplications attaches mentor application endpoints.
func (h *PromotionHandler) RegisterMentorApplications(router fiber.Router) {
	router.Post("", h.applyAsMentor)
	router.Post("/:id/review", h.reviewMentorApplication)
}

func (h *PromotionHandler) requestMasterRole(c *fiber.Ctx) error {
	var payload dto.MasterRoleRequestCreate
	if err := c.BodyParser(&payload); err != nil && len(c.Body()) > 0 {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	request, err := h.service.RequestMasterRole(c.Context(), payload, actorFromContext(c))
	if err != nil {
		return h.handleError(c, err)
	}
	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "master role requested", request)
}

func (h *PromotionHandler) reviewMasterRole(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	var payload dto.ReviewDecisionRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	request, err := h.service.ReviewMasterRole(c.Context(), id, payload, actorFromContext(c))
	if err != nil {
		return h.handleError(c, err)
	}
	return utils.SendSuccess(c, "master role request reviewed", request)
}

func (h *PromotionHandler) applyAsMentor(c *fiber.Ctx) error {
	var payload dto.MentorApplicationCreate
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	application, err := h.service.ApplyAsMentor(c.Context(), payload, actorFromContext(c))
	if err != nil {
		return h.handleError(c, err)
	}
	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "mentor application filed", application)
}

func (h *PromotionHandler) reviewMentorApplication(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	var payload dto.ReviewDecisionRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	application, err := h.service.ReviewMentorApplication(c.Context(), id, payload, actorFromContext(c))
	if err != nil {
		return h.handleError(c, err)
	}
	return utils.SendSuccess(c, "mentor application reviewed", application)
}

func (h *PromotionHandler) handleError(c *fiber.Ctx, err error) error {
	if errors.Is(err, service.ErrPromotionRequestNotFound) {
		return utils.SendError(c, fiber.StatusNotFound, "promotion request not found")
	}
	if status := workflowStatus(err); status != 0 {
		return utils.SendError(c, status, err.Error())
	}
	h.logger.Error().Err(err).Msg("internal server error")
	return utils.SendError(c, fiber.StatusInternalServerError, "internal server error")
}
