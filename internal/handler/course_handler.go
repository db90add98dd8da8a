package handler

import (
	"context"
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/laras-id/laras-api/internal/dto"
	"github.com/laras-id/laras-api/internal/service"
	"github.com/laras-id/laras-api/internal/utils"
)

// CourseHandler wires the course publication HTTP routes.
type CourseHandler struct {
	courses service.CourseService
	media   service.MediaService
	logger  zerolog.Logger
}

// NewCourseHandler constructs the handler.
func NewCourseHandler(courses service.CourseService, media service.MediaService, logger zerolog.Logger) *CourseHandler {
	return &CourseHandler{
		courses: courses,
		media:   media,
		logger:  logger.With().Str("component", "course_handler").Logger(),
	}
}

// Register attaches course endpoints to the router group.
func (h *CourseHandler) Register(router fiber.Router) {
	router.Get("", h.listMine)
	router.Post("", h.create)
	router.Get("/:id", h.get)
	router.Patch("/:id", h.update)
	router.Delete("/:id", h.delete)
	router.Post("/:id/submit", h.submit)
	router.Post("/:id/approve", h.approve)
	router.Post("/:id/reject", h.reject)
	router.Post("/:id/publish", h.publish)
	router.Post("/:id/archive", h.archive)
	router.Post("/:id/cover", h.uploadCover)
}

func (h *CourseHandler) listMine(c *fiber.Ctx) error {
	courses, err := h.courses.ListByMentor(c.Context(), userIDFromContext(c))
	if err != nil {
		return h.handleError(c, err)
	}
	return utils.SendSuccess(c, "courses retrieved", courses)
}

func (h *CourseHandler) create(c *fiber.Ctx) error {
	var payload dto.CourseCreateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	course, err := h.courses.Create(c.Context(), payload, actorFromContext(c))
	if err != nil {
		return h.handleError(c, err)
	}
	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "course drafted", course)
}

func (h *CourseHandler) get(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	course, err := h.courses.Get(c.Context(), id)
	if err != nil {
		return h.handleError(c, err)
	}
	return utils.SendSuccess(c, "course retrieved", course)
}

func (h *CourseHandler) update(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	var payload dto.CourseUpdateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	course, err := h.courses.Update(c.Context(), id, payload, actorFromContext(c))
	if err != nil {
		return h.handleError(c, err)
	}
	return utils.SendSuccess(c, "course updated", course)
}

func (h *CourseHandler) delete(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	if err := h.courses.Delete(c.Context(), id, actorFromContext(c)); err != nil {
		return h.handleError(c, err)
	}
	return utils.SendSuccess(c, "course deleted", fiber.Map{"id": id})
}

func (h *CourseHandler) submit(c *fiber.Ctx) error {
	return h.edge(c, "course submitted", h.courses.Submit)
}

func (h *CourseHandler) publish(c *fiber.Ctx) error {
	return h.review(c, "course published", h.courses.Publish)
}

func (h *CourseHandler) archive(c *fiber.Ctx) error {
	return h.edge(c, "course archived", h.courses.Archive)
}

func (h *CourseHandler) approve(c *fiber.Ctx) error {
	return h.review(c, "course approved", h.courses.Approve)
}

func (h *CourseHandler) reject(c *fiber.Ctx) error {
	return h.review(c, "course rejected", h.courses.Reject)
}

func (h *CourseHandler) uploadCover(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "file required")
	}
	file, err := fileHeader.Open()
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "unreadable file")
	}
	defer func() { _ = file.Close() }()

	upload, err := h.media.UploadCourseCover(c.Context(), id, fileHeader.Filename, file, actorFromContext(c))
	if err != nil {
		return h.handleError(c, err)
	}
	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "cover uploaded", upload)
}

func (h *CourseHandler) edge(c *fiber.Ctx, message string, fn func(ctx context.Context, id uint, actor service.ActivityActor) (dto.CourseResponse, error)) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	course, err := fn(c.Context(), id, actorFromContext(c))
	if err != nil {
		return h.handleError(c, err)
	}
	return utils.SendSuccess(c, message, course)
}

func (h *CourseHandler) review(c *fiber.Ctx, message string, fn func(ctx context.Context, id uint, payload dto.CourseReviewRequest, actor service.ActivityActor) (dto.CourseResponse, error)) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	var payload dto.CourseReviewRequest
	if err := c.BodyParser(&payload); err != nil && len(c.Body()) > 0 {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	course, err := fn(c.Context(), id, payload, actorFromContext(c))
	if err != nil {
		return h.handleError(c, err)
	}
	return utils.SendSuccess(c, message, course)
}

func (h *CourseHandler) handleError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, service.ErrCourseNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "course not found")
	case errors.Is(err, service.ErrFileTooLarge):
		return utils.SendError(c, fiber.StatusRequestEntityTooLarge, err.Error())
	case errors.Is(err, service.ErrUnsupportedMediaType):
		return utils.SendError(c, fiber.StatusUnsupportedMediaType, err.Error())
	}
	if status := workflowStatus(err); status != 0 {
		return utils.SendError(c, status, err.Error())
	}
	h.logger.Error().Err(err).Msg("internal server error")
	return utils.SendError(c, fiber.StatusInternalServerError, "internal server error")
}
