package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/laras-id/laras-api/internal/dto"
	"github.com/laras-id/laras-api/internal/service"
	"github.com/laras-id/laras-api/internal/utils"
)

// MembershipHandler wires membership lifecycle HTTP routes: staff requests,
// resignations, and membership review.
type MembershipHandler struct {
	service service.MembershipService
	logger  zerolog.Logger
}

// NewMembershipHandler constructs the handler.
func NewMembershipHandler(service service.MembershipService, logger zerolog.Logger) *MembershipHandler {
	return &MembershipHandler{
		service: service,
		logger:  logger.With().Str("component", "membership_handler").Logger(),
	}
}

// RegisterStaffRequests attaches staff request endpoints to the router group.
func (h *MembershipHandler) RegisterStaffRequests(router fiber.Router) {
	router.Post("", h.requestStaff)
	router.Post("/:id/review", h.reviewStaffRequest)
}

// RegisterResignations attaches resignation review endpoints.
func (h *MembershipHandler) RegisterResignations(router fiber.Router) {
	router.Post("/:id/review", h.reviewResignation)
}

// RegisterMemberships attaches membership review endpoints.
func (h *MembershipHandler) RegisterMemberships(router fiber.Router) {
	router.Post("/:id/review", h.reviewMembership)
}

func (h *MembershipHandler) requestStaff(c *fiber.Ctx) error {
	var payload dto.StaffRequestCreate
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	request, err := h.service.RequestStaff(c.Context(), payload, actorFromContext(c))
	if err != nil {
		return h.handleError(c, err)
	}
	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "staff request submitted", request)
}

func (h *MembershipHandler) reviewStaffRequest(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	var payload dto.ReviewDecisionRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	request, err := h.service.ReviewStaffRequest(c.Context(), id, payload, actorFromContext(c))
	if err != nil {
		return h.handleError(c, err)
	}
	return utils.SendSuccess(c, "staff request reviewed", request)
}

func (h *MembershipHandler) reviewResignation(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	var payload dto.ReviewDecisionRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	resignation, err := h.service.ReviewResignation(c.Context(), id, payload, actorFromContext(c))
	if err != nil {
		return h.handleError(c, err)
	}
	return utils.SendSuccess(c, "resignation reviewed", resignation)
}

func (h *MembershipHandler) reviewMembership(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	var payload dto.MembershipDecisionRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	membership, err := h.service.ReviewMembership(c.Context(), id, payload, actorFromContext(c))
	if err != nil {
		return h.handleError(c, err)
	}
	return utils.SendSuccess(c, "membership reviewed", membership)
}

func (h *MembershipHandler) handleError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, service.ErrClassroomNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "classroom not found")
	case errors.Is(err, service.ErrStaffRequestNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "staff request not found")
	case errors.Is(err, service.ErrResignationNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "resignation not found")
	case errors.Is(err, service.ErrMembershipNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "membership not found")
	}
	if status := workflowStatus(err); status != 0 {
		return utils.SendError(c, status, err.Error())
	}
	h.logger.Error().Err(err).Msg("internal server error")
	return utils.SendError(c, fiber.StatusInternalServerError, "internal server error")
}
