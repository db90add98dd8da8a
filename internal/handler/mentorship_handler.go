package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/rs/zerolog"

	"github.com/laras-id/laras-api/internal/dto"
	"github.com/laras-id/laras-api/internal/middleware"
	"github.com/laras-id/laras-api/internal/service"
	"github.com/laras-id/laras-api/internal/utils"
)

// MentorshipHandler wires mentorship request, conversation, and session routes,
// including the conversation websocket upgrade.
type MentorshipHandler struct {
	service service.MentorshipService
	logger  zerolog.Logger
}

// NewMentorshipHandler constructs the handler.
func NewMentorshipHandler(service service.MentorshipService, logger zerolog.Logger) *MentorshipHandler {
	return &MentorshipHandler{
		service: service,
		logger:  logger.With().Str("component", "mentorship_handler").Logger(),
	}
}

// RegisterRequests attaches mentorship request endpoints to the router group.
func (h *MentorshipHandler) RegisterRequests(router fiber.Router) {
	router.Post("", h.createRequest)
	router.Post("/:id/respond", h.respond)
	router.Post("/:id/cancel", h.cancel)
	router.Get("/:id/conversation", h.listConversation)
	router.Post("/:id/conversation", h.sendMessage)

	router.Use("/:id/conversation/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			ctx := c.UserContext()
			if ctx == nil {
				ctx = context.Background()
			}
			ctx = middleware.ContextWithCorrelation(ctx, middleware.GetCorrelationID(c))
			c.Locals("request_ctx", ctx)
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	router.Get("/:id/conversation/ws", websocket.New(h.streamConversation))
}

// RegisterSessions attaches session endpoints to the router group.
func (h *MentorshipHandler) RegisterSessions(router fiber.Router) {
	router.Post("", h.scheduleSession)
	router.Post("/:id/status", h.resolveSession)
}

func (h *MentorshipHandler) createRequest(c *fiber.Ctx) error {
	var payload dto.MentorshipRequestCreate
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	request, err := h.service.CreateRequest(c.Context(), payload, actorFromContext(c))
	if err != nil {
		return h.handleError(c, err)
	}
	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "mentorship request submitted", request)
}

func (h *MentorshipHandler) respond(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	var payload dto.MentorshipRespondRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	request, err := h.service.Respond(c.Context(), id, payload, actorFromContext(c))
	if err != nil {
		return h.handleError(c, err)
	}
	return utils.SendSuccess(c, "mentorship request answered", request)
}

func (h *MentorshipHandler) cancel(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	request, err := h.service.CancelRequest(c.Context(), id, actorFromContext(c))
	if err != nil {
		return h.handleError(c, err)
	}
	return utils.SendSuccess(c, "mentorship request cancelled", request)
}

func (h *MentorshipHandler) listConversation(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	messages, err := h.service.ListConversation(c.Context(), id, actorFromContext(c))
	if err != nil {
		return h.handleError(c, err)
	}
	return utils.SendSuccess(c, "conversation retrieved", messages)
}

func (h *MentorshipHandler) sendMessage(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	var payload dto.ConversationMessageCreate
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	message, err := h.service.SendMessage(c.Context(), id, payload, actorFromContext(c))
	if err != nil {
		return h.handleError(c, err)
	}
	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "message sent", message)
}

func (h *MentorshipHandler) streamConversation(conn *websocket.Conn) {
	defer func() { _ = conn.Close() }()

	requestID, err := strconv.ParseUint(conn.Params("id"), 10, 64)
	if err != nil {
		_ = conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "invalid request id"))
		return
	}

	actor := websocketActor(conn)
	if actor.ID == 0 {
		_ = conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "user id missing"))
		return
	}

	ctx, _ := conn.Locals("request_ctx").(context.Context)
	if ctx == nil {
		ctx = context.Background()
	}
	// Reuse the list authorization: non-participants are rejected before any
	// subscription exists.
	if _, err := h.service.ListConversation(ctx, uint(requestID), actor); err != nil {
		_ = conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "not a participant"))
		return
	}

	messages, cleanup := h.service.SubscribeConversation(uint(requestID))
	defer cleanup()

	h.logger.Info().Uint("request_id", uint(requestID)).Uint("user_id", actor.ID).Msg("conversation stream opened")

	// Reads only serve to detect the client going away.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case message, ok := <-messages:
			if !ok {
				return
			}
			payload, err := json.Marshal(message)
			if err != nil {
				continue
			}
			if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				return
			}
		case <-done:
			h.logger.Info().Uint("request_id", uint(requestID)).Uint("user_id", actor.ID).Msg("conversation stream closed")
			return
		}
	}
}

func (h *MentorshipHandler) scheduleSession(c *fiber.Ctx) error {
	var payload dto.SessionScheduleRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	session, err := h.service.ScheduleSession(c.Context(), payload, actorFromContext(c))
	if err != nil {
		return h.handleError(c, err)
	}
	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "session scheduled", session)
}

func (h *MentorshipHandler) resolveSession(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	var payload dto.SessionStatusRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	session, err := h.service.ResolveSession(c.Context(), id, payload, actorFromContext(c))
	if err != nil {
		return h.handleError(c, err)
	}
	return utils.SendSuccess(c, "session updated", session)
}

func (h *MentorshipHandler) handleError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, service.ErrMentorNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "mentor not found")
	case errors.Is(err, service.ErrMentorshipNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "mentorship request not found")
	case errors.Is(err, service.ErrSessionNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "session not found")
	}
	if status := workflowStatus(err); status != 0 {
		return utils.SendError(c, status, err.Error())
	}
	h.logger.Error().Err(err).Msg("internal server error")
	return utils.SendError(c, fiber.StatusInternalServerError, "internal server error")
}

func websocketActor(conn *websocket.Conn) service.ActivityActor {
	actor := service.ActivityActor{Role: fmt.Sprint(conn.Locals("user_role"))}
	if value := conn.Locals("user_id"); value != nil {
		switch v := value.(type) {
		case uint:
			actor.ID = v
		case int:
			if v > 0 {
				actor.ID = uint(v)
			}
		case float64:
			if v > 0 {
				actor.ID = uint(v)
			}
		case string:
			if parsed, err := strconv.ParseUint(v, 10, 64); err == nil {
				actor.ID = uint(parsed)
			}
		}
	}
	return actor
}
