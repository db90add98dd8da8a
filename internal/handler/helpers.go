package handler

import (
	"errors"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/laras-id/laras-api/internal/service"
)

func parseUintParam(c *fiber.Ctx, name string) (uint, error) {
	value := c.Params(name)
	parsed, err := strconv.ParseUint(value, 10, 64)
	if err != nil {
		return 0, errors.New("invalid identifier")
	}
	return uint(parsed), nil
}

func parseQueryInt(c *fiber.Ctx, key string) (int, error) {
	value := strings.TrimSpace(c.Query(key))
	if value == "" {
		return 0, nil
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return 0, err
	}
	return parsed, nil
}

func userIDFromContext(c *fiber.Ctx) uint {
	if v := c.Locals("user_id"); v != nil {
		if id, ok := v.(uint); ok {
			return id
		}
		if id, ok := v.(int); ok {
			if id < 0 {
				return 0
			}
			return uint(id)
		}
	}
	return 0
}

func userRoleFromContext(c *fiber.Ctx) string {
	if v := c.Locals("user_role"); v != nil {
		if role, ok := v.(string); ok {
			return role
		}
	}
	return ""
}

func actorFromContext(c *fiber.Ctx) service.ActivityActor {
	return service.ActivityActor{
		ID:   userIDFromContext(c),
		Role: userRoleFromContext(c),
	}
}

func isValidationError(err error) bool {
	var validationErrors validator.ValidationErrors
	return errors.As(err, &validationErrors)
}

// workflowStatus maps the shared workflow error families to HTTP statuses.
// Handler-specific sentinels are matched in each handler before falling back
// here. A zero return means the error is unrecognised.
func workflowStatus(err error) int {
	switch {
	case isValidationError(err):
		return fiber.StatusBadRequest
	case errors.Is(err, service.ErrInvalidTransition),
		errors.Is(err, service.ErrInvalidTimeFormat),
		errors.Is(err, service.ErrInvalidTimeRange),
		errors.Is(err, service.ErrEmptyMessage),
		errors.Is(err, service.ErrWrongRole),
		errors.Is(err, service.ErrAlreadyReviewed),
		errors.Is(err, service.ErrSchedulingConflict),
		errors.Is(err, service.ErrAlreadyMember),
		errors.Is(err, service.ErrDuplicateStaffRequest),
		errors.Is(err, service.ErrDuplicateMentorshipRequest),
		errors.Is(err, service.ErrDuplicatePromotionRequest),
		errors.Is(err, service.ErrMentorshipNotAccepted):
		return fiber.StatusBadRequest
	case errors.Is(err, service.ErrForbidden),
		errors.Is(err, service.ErrNotMaster),
		errors.Is(err, service.ErrNotStaffMember):
		return fiber.StatusForbidden
	case errors.Is(err, service.ErrCapacityExceeded):
		return fiber.StatusConflict
	default:
		return 0
	}
}
