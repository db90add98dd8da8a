package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/laras-id/laras-api/internal/dto"
	"github.com/laras-id/laras-api/internal/service"
	"github.com/laras-id/laras-api/internal/utils"
)

// ClassroomHandler wires classroom HTTP routes.
type ClassroomHandler struct {
	classrooms  service.ClassroomService
	memberships service.MembershipService
	logger      zerolog.Logger
}

// NewClassroomHandler constructs the handler.
func NewClassroomHandler(classrooms service.ClassroomService, memberships service.MembershipService, logger zerolog.Logger) *ClassroomHandler {
	return &ClassroomHandler{
		classrooms:  classrooms,
		memberships: memberships,
		logger:      logger.With().Str("component", "classroom_handler").Logger(),
	}
}

// Register attaches classroom endpoints to the router group.
func (h *ClassroomHandler) Register(router fiber.Router) {
	router.Get("", h.list)
	router.Post("", h.create)
	router.Get("/slug/:slug", h.getBySlug)
	router.Get("/:id", h.get)
	router.Delete("/:id", h.deactivate)
	router.Post("/:id/join", h.join)
	router.Post("/:id/resignations", h.requestResignation)
}

func (h *ClassroomHandler) list(c *fiber.Ctx) error {
	limit, err := parseQueryInt(c, "limit")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid limit")
	}
	offset, err := parseQueryInt(c, "offset")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid offset")
	}

	classrooms, err := h.classrooms.ListPublic(c.Context(), limit, offset)
	if err != nil {
		return h.internalError(c, err)
	}
	return utils.SendSuccess(c, "classrooms retrieved", classrooms)
}

func (h *ClassroomHandler) create(c *fiber.Ctx) error {
	var payload dto.ClassroomCreateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	classroom, err := h.classrooms.Create(c.Context(), payload, actorFromContext(c))
	if err != nil {
		return h.handleError(c, err)
	}
	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "classroom created", classroom)
}

func (h *ClassroomHandler) get(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	classroom, err := h.classrooms.Get(c.Context(), id)
	if err != nil {
		return h.handleError(c, err)
	}
	return utils.SendSuccess(c, "classroom retrieved", classroom)
}

func (h *ClassroomHandler) getBySlug(c *fiber.Ctx) error {
	classroom, err := h.classrooms.GetBySlug(c.Context(), c.Params("slug"))
	if err != nil {
		return h.handleError(c, err)
	}
	return utils.SendSuccess(c, "classroom retrieved", classroom)
}

func (h *ClassroomHandler) deactivate(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	if err := h.classrooms.Deactivate(c.Context(), id, actorFromContext(c)); err != nil {
		return h.handleError(c, err)
	}
	return utils.SendSuccess(c, "classroom deactivated", fiber.Map{"id": id})
}

func (h *ClassroomHandler) join(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	var payload dto.JoinRequest
	if err := c.BodyParser(&payload); err != nil && len(c.Body()) > 0 {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	membership, err := h.memberships.RequestJoin(c.Context(), id, payload, actorFromContext(c))
	if err != nil {
		return h.handleError(c, err)
	}
	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "join request submitted", membership)
}

func (h *ClassroomHandler) requestResignation(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	var payload dto.ResignationCreate
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	resignation, err := h.memberships.RequestResignation(c.Context(), id, payload, actorFromContext(c))
	if err != nil {
		return h.handleError(c, err)
	}
	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "resignation request submitted", resignation)
}

func (h *ClassroomHandler) handleError(c *fiber.Ctx, err error) error {
	if errors.Is(err, service.ErrClassroomNotFound) {
		return utils.SendError(c, fiber.StatusNotFound, "classroom not found")
	}
	if status := workflowStatus(err); status != 0 {
		return utils.SendError(c, status, err.Error())
	}
	return h.internalError(c, err)
}

func (h *ClassroomHandler) internalError(c *fiber.Ctx, err error) error {
	h.logger.Error().Err(err).Msg("internal server error")
	return utils.SendError(c, fiber.StatusInternalServerError, "internal server error")
}
