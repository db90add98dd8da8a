package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/laras-id/laras-api/internal/dto"
	"github.com/laras-id/laras-api/internal/models"
	"github.com/laras-id/laras-api/internal/observability"
	"github.com/laras-id/laras-api/internal/repository"
)

const conversationBufferSize = 32

var (
	// ErrMentorNotFound indicates the target user is not a mentor.
	ErrMentorNotFound = errors.New("mentor not found")
	// ErrDuplicateMentorshipRequest indicates an open request already links the pair.
	ErrDuplicateMentorshipRequest = errors.New("an open mentorship request already exists with this mentor")
	// ErrMentorshipNotFound indicates the mentorship request is missing.
	ErrMentorshipNotFound = errors.New("mentorship request not found")
	// ErrMentorshipNotAccepted indicates the request is not in the accepted state.
	ErrMentorshipNotAccepted = errors.New("mentorship request is not accepted")
	// ErrSessionNotFound indicates the mentorship session is missing.
	ErrSessionNotFound = errors.New("session not found")
	// ErrEmptyMessage indicates the message is blank after sanitization.
	ErrEmptyMessage = errors.New("message is empty")
)

// MentorshipService manages the student/mentor pairing workflow: requests,
// conversations, and scheduled sessions.
type MentorshipService interface {
	CreateRequest(ctx context.Context, payload dto.MentorshipRequestCreate, actor ActivityActor) (dto.MentorshipRequestResponse, error)
	Respond(ctx context.Context, requestID uint, payload dto.MentorshipRespondRequest, actor ActivityActor) (dto.MentorshipRequestResponse, error)
	CancelRequest(ctx context.Context, requestID uint, actor ActivityActor) (dto.MentorshipRequestResponse, error)
	SendMessage(ctx context.Context, requestID uint, payload dto.ConversationMessageCreate, actor ActivityActor) (dto.ConversationMessageResponse, error)
	ListConversation(ctx context.Context, requestID uint, actor ActivityActor) ([]dto.ConversationMessageResponse, error)
	SubscribeConversation(requestID uint) (<-chan dto.ConversationMessageResponse, func())
	ScheduleSession(ctx context.Context, payload dto.SessionScheduleRequest, actor ActivityActor) (dto.SessionResponse, error)
	ResolveSession(ctx context.Context, sessionID uint, payload dto.SessionStatusRequest, actor ActivityActor) (dto.SessionResponse, error)
}

type mentorshipService struct {
	requests  repository.MentorshipRepository
	sessions  repository.SessionRepository
	users     repository.UserRepository
	validator *validator.Validate
	sanitizer *bluemonday.Policy
	notifier  Notifier
	activity  ActivityRecorder
	logger    zerolog.Logger
	tracer    trace.Tracer
	broker    *subscriberBroker[uint, dto.ConversationMessageResponse]
	now       func() time.Time
}

// NewMentorshipService constructs the mentorship workflow manager.
func NewMentorshipService(
	requests repository.MentorshipRepository,
	sessions repository.SessionRepository,
	users repository.UserRepository,
	validate *validator.Validate,
	notifier Notifier,
	activity ActivityRecorder,
	logger zerolog.Logger,
) MentorshipService {
	return &mentorshipService{
		requests:  requests,
		sessions:  sessions,
		users:     users,
		validator: validate,
		sanitizer: bluemonday.StrictPolicy(),
		notifier:  notifier,
		activity:  activity,
		logger:    logger.With().Str("component", "mentorship_service").Logger(),
		tracer:    otel.Tracer("github.com/laras-id/laras-api/internal/service/mentorship"),
		broker:    newSubscriberBroker[uint, dto.ConversationMessageResponse](),
		now:       time.Now,
	}
}

func (s *mentorshipService) CreateRequest(ctx context.Context, payload dto.MentorshipRequestCreate, actor ActivityActor) (dto.MentorshipRequestResponse, error) {
	ctx, span := s.tracer.Start(ctx, "mentorship.create_request", trace.WithAttributes(
		attribute.Int64("mentor.id", int64(payload.MentorID)),
		attribute.Int64("student.id", int64(actor.ID)),
	))
	defer span.End()

	if err := s.validator.Struct(payload); err != nil {
		span.RecordError(err)
		return dto.MentorshipRequestResponse{}, err
	}

	mentor, err := s.users.GetByID(ctx, payload.MentorID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.MentorshipRequestResponse{}, ErrMentorNotFound
		}
		return dto.MentorshipRequestResponse{}, err
	}
	if mentor.Role != models.RoleMentor {
		return dto.MentorshipRequestResponse{}, ErrMentorNotFound
	}

	request := models.MentorshipRequest{
		StudentID: actor.ID,
		MentorID:  payload.MentorID,
		Message:   s.sanitize(payload.Message),
	}
	if request.Message == "" {
		return dto.MentorshipRequestResponse{}, ErrEmptyMessage
	}

	if err := s.requests.CreateIfNoActive(ctx, &request); err != nil {
		if errors.Is(err, repository.ErrDuplicatePending) {
			span.SetStatus(codes.Error, "duplicate request")
			observability.WorkflowRejections().WithLabelValues("mentorship_request", "duplicate").Inc()
			return dto.MentorshipRequestResponse{}, ErrDuplicateMentorshipRequest
		}
		span.RecordError(err)
		return dto.MentorshipRequestResponse{}, err
	}

	if s.notifier != nil {
		s.notifier.Notify(ctx, payload.MentorID, "mentorship.requested", "A student requested your mentorship")
	}
	s.logger.Info().Uint("request_id", request.ID).Uint("mentor_id", payload.MentorID).Msg("mentorship request created")

	return dto.NewMentorshipRequestResponse(request), nil
}

func (s *mentorshipService) Respond(ctx context.Context, requestID uint, payload dto.MentorshipRespondRequest, actor ActivityActor) (dto.MentorshipRequestResponse, error) {
	ctx, span := s.tracer.Start(ctx, "mentorship.respond", trace.WithAttributes(
		attribute.Int64("request.id", int64(requestID)),
		attribute.String("decision", payload.Decision),
	))
	defer span.End()

	if err := s.validator.Struct(payload); err != nil {
		span.RecordError(err)
		return dto.MentorshipRequestResponse{}, err
	}

	request, err := s.requests.GetByID(ctx, requestID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.MentorshipRequestResponse{}, ErrMentorshipNotFound
		}
		return dto.MentorshipRequestResponse{}, err
	}
	if request.MentorID != actor.ID {
		observability.WorkflowRejections().WithLabelValues("mentorship_request", "forbidden").Inc()
		return dto.MentorshipRequestResponse{}, ErrForbidden
	}

	updated, err := s.requests.Respond(ctx, requestID, payload.Decision, s.sanitize(payload.MentorResponse), s.now().UTC())
	if err != nil {
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			return dto.MentorshipRequestResponse{}, ErrMentorshipNotFound
		case errors.Is(err, repository.ErrStateConflict):
			span.SetStatus(codes.Error, "already decided")
			observability.WorkflowRejections().WithLabelValues("mentorship_request", "already_reviewed").Inc()
			return dto.MentorshipRequestResponse{}, ErrAlreadyReviewed
		default:
			span.RecordError(err)
			return dto.MentorshipRequestResponse{}, err
		}
	}

	if s.notifier != nil {
		s.notifier.Notify(ctx, updated.StudentID, "mentorship."+updated.Status,
			fmt.Sprintf("Your mentorship request was %s", updated.Status))
	}
	s.record(ctx, actor, "mentorship_request."+updated.Status, "mentorship_request", updated.ID, map[string]interface{}{
		"student_id": updated.StudentID,
	})
	observability.WorkflowDecisions().WithLabelValues("mentorship_request", updated.Status).Inc()

	return dto.NewMentorshipRequestResponse(updated), nil
}

// CancelRequest lets the requesting student withdraw a request the mentor has
// not yet answered.
func (s *mentorshipService) CancelRequest(ctx context.Context, requestID uint, actor ActivityActor) (dto.MentorshipRequestResponse, error) {
	ctx, span := s.tracer.Start(ctx, "mentorship.cancel_request", trace.WithAttributes(
		attribute.Int64("request.id", int64(requestID)),
	))
	defer span.End()

	request, err := s.requests.GetByID(ctx, requestID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.MentorshipRequestResponse{}, ErrMentorshipNotFound
		}
		return dto.MentorshipRequestResponse{}, err
	}
	if request.StudentID != actor.ID {
		observability.WorkflowRejections().WithLabelValues("mentorship_request", "forbidden").Inc()
		return dto.MentorshipRequestResponse{}, ErrForbidden
	}

	cancelled, err := s.requests.CancelPending(ctx, requestID)
	if err != nil {
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			return dto.MentorshipRequestResponse{}, ErrMentorshipNotFound
		case errors.Is(err, repository.ErrStateConflict):
			span.SetStatus(codes.Error, "already decided")
			observability.WorkflowRejections().WithLabelValues("mentorship_request", "already_reviewed").Inc()
			return dto.MentorshipRequestResponse{}, ErrAlreadyReviewed
		default:
			span.RecordError(err)
			return dto.MentorshipRequestResponse{}, err
		}
	}

	if s.notifier != nil {
		s.notifier.Notify(ctx, cancelled.MentorID, "mentorship.cancelled", "A mentorship request was withdrawn")
	}
	s.record(ctx, actor, "mentorship_request.cancelled", "mentorship_request", cancelled.ID, map[string]interface{}{
		"mentor_id": cancelled.MentorID,
	})
	observability.WorkflowDecisions().WithLabelValues("mentorship_request", cancelled.Status).Inc()

	return dto.NewMentorshipRequestResponse(cancelled), nil
}

func (s *mentorshipService) SendMessage(ctx context.Context, requestID uint, payload dto.ConversationMessageCreate, actor ActivityActor) (dto.ConversationMessageResponse, error) {
	ctx, span := s.tracer.Start(ctx, "mentorship.send_message", trace.WithAttributes(
		attribute.Int64("request.id", int64(requestID)),
	))
	defer span.End()

	if err := s.validator.Struct(payload); err != nil {
		span.RecordError(err)
		return dto.ConversationMessageResponse{}, err
	}

	request, err := s.authorizeConversation(ctx, requestID, actor)
	if err != nil {
		return dto.ConversationMessageResponse{}, err
	}
	if request.Status != models.MentorshipStatusAccepted {
		observability.WorkflowRejections().WithLabelValues("conversation", "not_accepted").Inc()
		return dto.ConversationMessageResponse{}, ErrMentorshipNotAccepted
	}

	message := models.ConversationMessage{
		RequestID: requestID,
		SenderID:  actor.ID,
		Message:   s.sanitize(payload.Message),
	}
	if message.Message == "" {
		return dto.ConversationMessageResponse{}, ErrEmptyMessage
	}

	if err := s.requests.AppendMessage(ctx, &message); err != nil {
		span.RecordError(err)
		return dto.ConversationMessageResponse{}, err
	}

	response := dto.NewConversationMessageResponse(message)
	s.broker.broadcast(requestID, response)

	recipient := request.MentorID
	if actor.ID == request.MentorID {
		recipient = request.StudentID
	}
	if s.notifier != nil {
		s.notifier.Notify(ctx, recipient, "conversation.message", "New mentorship message")
	}

	return response, nil
}

func (s *mentorshipService) ListConversation(ctx context.Context, requestID uint, actor ActivityActor) ([]dto.ConversationMessageResponse, error) {
	ctx, span := s.tracer.Start(ctx, "mentorship.list_conversation")
	defer span.End()

	if _, err := s.authorizeConversation(ctx, requestID, actor); err != nil {
		return nil, err
	}

	messages, err := s.requests.ListConversation(ctx, requestID)
	if err != nil {
		return nil, err
	}
	// Reading the thread marks the counterpart's messages as read.
	if err := s.requests.MarkConversationRead(ctx, requestID, actor.ID); err != nil {
		s.logger.Warn().Err(err).Uint("request_id", requestID).Msg("failed to mark conversation read")
	}

	return dto.NewConversationMessageResponseSlice(messages), nil
}

func (s *mentorshipService) SubscribeConversation(requestID uint) (<-chan dto.ConversationMessageResponse, func()) {
	channel := make(chan dto.ConversationMessageResponse, conversationBufferSize)
	s.broker.subscribe(requestID, channel)
	observability.StreamClientsActive().Inc()

	cleanup := func() {
		s.broker.unsubscribe(requestID, channel)
		observability.StreamClientsActive().Dec()
	}
	return channel, cleanup
}

func (s *mentorshipService) ScheduleSession(ctx context.Context, payload dto.SessionScheduleRequest, actor ActivityActor) (dto.SessionResponse, error) {
	ctx, span := s.tracer.Start(ctx, "mentorship.schedule_session", trace.WithAttributes(
		attribute.Int64("request.id", int64(payload.RequestID)),
	))
	defer span.End()

	if err := s.validator.Struct(payload); err != nil {
		span.RecordError(err)
		return dto.SessionResponse{}, err
	}

	request, err := s.requests.GetByID(ctx, payload.RequestID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.SessionResponse{}, ErrMentorshipNotFound
		}
		return dto.SessionResponse{}, err
	}
	if !request.IsParticipant(actor.ID) {
		return dto.SessionResponse{}, ErrForbidden
	}
	if request.Status != models.MentorshipStatusAccepted {
		return dto.SessionResponse{}, ErrMentorshipNotAccepted
	}

	session := models.MentorshipSession{
		RequestID:       request.ID,
		MentorID:        request.MentorID,
		StudentID:       request.StudentID,
		Title:           strings.TrimSpace(payload.Title),
		ScheduledAt:     payload.ScheduledAt.UTC(),
		DurationMinutes: payload.DurationMinutes,
	}

	if err := s.sessions.ScheduleIfFree(ctx, &session); err != nil {
		if errors.Is(err, repository.ErrOverlap) {
			span.SetStatus(codes.Error, "scheduling conflict")
			observability.WorkflowRejections().WithLabelValues("session", "overlap").Inc()
			return dto.SessionResponse{}, ErrSchedulingConflict
		}
		span.RecordError(err)
		return dto.SessionResponse{}, err
	}

	counterpart := request.StudentID
	if actor.ID == request.StudentID {
		counterpart = request.MentorID
	}
	if s.notifier != nil {
		s.notifier.Notify(ctx, counterpart, "session.scheduled",
			fmt.Sprintf("Session %q scheduled for %s", session.Title, session.ScheduledAt.Format(time.RFC3339)))
	}
	s.record(ctx, actor, "session.scheduled", "session", session.ID, map[string]interface{}{
		"request_id":   session.RequestID,
		"scheduled_at": session.ScheduledAt,
	})

	return dto.NewSessionResponse(session), nil
}

func (s *mentorshipService) ResolveSession(ctx context.Context, sessionID uint, payload dto.SessionStatusRequest, actor ActivityActor) (dto.SessionResponse, error) {
	ctx, span := s.tracer.Start(ctx, "mentorship.resolve_session", trace.WithAttributes(
		attribute.Int64("session.id", int64(sessionID)),
		attribute.String("status", payload.Status),
	))
	defer span.End()

	if err := s.validator.Struct(payload); err != nil {
		span.RecordError(err)
		return dto.SessionResponse{}, err
	}

	session, err := s.sessions.GetByID(ctx, sessionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.SessionResponse{}, ErrSessionNotFound
		}
		return dto.SessionResponse{}, err
	}
	if session.MentorID != actor.ID && session.StudentID != actor.ID {
		return dto.SessionResponse{}, ErrForbidden
	}

	rating := payload.Rating
	feedback := s.sanitize(payload.Feedback)
	if payload.Status != models.SessionStatusCompleted {
		// Ratings only accompany completed sessions.
		rating = nil
	}

	updated, err := s.sessions.Transition(ctx, sessionID, payload.Status, rating, feedback)
	if err != nil {
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			return dto.SessionResponse{}, ErrSessionNotFound
		case errors.Is(err, repository.ErrStateConflict):
			observability.WorkflowRejections().WithLabelValues("session", "already_resolved").Inc()
			return dto.SessionResponse{}, fmt.Errorf("%w: session must be %s", ErrInvalidTransition, models.SessionStatusScheduled)
		default:
			span.RecordError(err)
			return dto.SessionResponse{}, err
		}
	}

	s.record(ctx, actor, "session."+updated.Status, "session", updated.ID, map[string]interface{}{
		"request_id": updated.RequestID,
	})
	observability.WorkflowDecisions().WithLabelValues("session", updated.Status).Inc()

	return dto.NewSessionResponse(updated), nil
}

func (s *mentorshipService) authorizeConversation(ctx context.Context, requestID uint, actor ActivityActor) (models.MentorshipRequest, error) {
	request, err := s.requests.GetByID(ctx, requestID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.MentorshipRequest{}, ErrMentorshipNotFound
		}
		return models.MentorshipRequest{}, err
	}
	if !request.IsParticipant(actor.ID) {
		observability.WorkflowRejections().WithLabelValues("conversation", "forbidden").Inc()
		return models.MentorshipRequest{}, ErrForbidden
	}
	return request, nil
}

func (s *mentorshipService) sanitize(input string) string {
	return strings.TrimSpace(s.sanitizer.Sanitize(input))
}

func (s *mentorshipService) record(ctx context.Context, actor ActivityActor, action, entityType string, entityID uint, metadata map[string]interface{}) {
	if s.activity == nil {
		return
	}
	id := entityID
	_, _ = s.activity.Record(ctx, ActivityEntry{
		ActorID:    actor.ID,
		ActorRole:  actor.Role,
		Action:     action,
		EntityType: entityType,
		EntityID:   &id,
		Metadata:   metadata,
	})
}
