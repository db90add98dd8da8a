package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/laras-id/laras-api/internal/dto"
	"github.com/laras-id/laras-api/internal/service"
	"github.com/laras-id/laras-api/internal/utils"
)

// ScheduleHandler wires timetable HTTP routes.
type ScheduleHandler struct {
	service service.ScheduleService
	logger  zerolog.Logger
}

// NewScheduleHandler constructs the handler.
func NewScheduleHandler(service service.ScheduleService, logger zerolog.Logger) *ScheduleHandler {
	return &ScheduleHandler{
		service: service,
		logger:  logger.With().Str("component", "schedule_handler").Logger(),
	}
}

// Register attaches schedule endpoints to the router group.
func (h *ScheduleHandler) Register(router fiber.Router) {
	router.Get("", h.list)
	router.Post("", h.create)
	router.Post("/check-availability", h.checkAvailability)
	router.Delete("/:id", h.deactivate)
}

func (h *ScheduleHandler) list(c *fiber.Ctx) error {
	instructorID, err := parseQueryInt(c, "instructor_id")
	if err != nil || instructorID <= 0 {
		return utils.SendError(c, fiber.StatusBadRequest, "instructor_id required")
	}
	dayOfWeek, err := parseQueryInt(c, "day_of_week")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid day_of_week")
	}

	schedules, err := h.service.ListForInstructorDay(c.Context(), uint(instructorID), dayOfWeek)
	if err != nil {
		return h.handleError(c, err)
	}
	return utils.SendSuccess(c, "schedules retrieved", schedules)
}

func (h *ScheduleHandler) create(c *fiber.Ctx) error {
	var payload dto.ScheduleCreateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	schedule, err := h.service.CreateSchedule(c.Context(), payload, actorFromContext(c))
	if err != nil {
		return h.handleError(c, err)
	}
	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "schedule created", schedule)
}

func (h *ScheduleHandler) checkAvailability(c *fiber.Ctx) error {
	var payload dto.AvailabilityRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	availability, err := h.service.CheckAvailability(c.Context(), payload)
	if err != nil {
		return h.handleError(c, err)
	}
	return utils.SendSuccess(c, "availability checked", availability)
}

func (h *ScheduleHandler) deactivate(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	if err := h.service.DeactivateSchedule(c.Context(), id, actorFromContext(c)); err != nil {
		return h.handleError(c, err)
	}
	return utils.SendSuccess(c, "schedule deactivated", fiber.Map{"id": id})
}

func (h *ScheduleHandler) handleError(c *fiber.Ctx, err error) error {
	if errors.Is(err, service.ErrScheduleNotFound) {
		return utils.SendError(c, fiber.StatusNotFound, "schedule not found")
	}
	if status := workflowStatus(err); status != 0 {
		return utils.SendError(c, status, err.Error())
	}
	h.logger.Error().Err(err).Msg("internal server error")
	return utils.SendError(c, fiber.StatusInternalServerError, "internal server error")
}
