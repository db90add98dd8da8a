package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
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

var (
	// ErrDuplicatePromotionRequest indicates an open upgrade request already exists.
	ErrDuplicatePromotionRequest = errors.New("an open promotion request already exists")
	// ErrPromotionRequestNotFound indicates the upgrade request is missing.
	ErrPromotionRequestNotFound = errors.New("promotion request not found")
	// ErrWrongRole indicates the actor's current role disallows the request.
	ErrWrongRole = errors.New("current role does not allow this request")
)

// PromotionService manages role upgrade workflows: students applying to
// become mentors, and mentors requesting the classroom master role. Both are
// admin-reviewed; approval changes the account's role in the same transaction
// as the verdict.
type PromotionService interface {
	RequestMasterRole(ctx context.Context, payload dto.MasterRoleRequestCreate, actor ActivityActor) (dto.MasterRoleRequestResponse, error)
	ReviewMasterRole(ctx context.Context, requestID uint, payload dto.ReviewDecisionRequest, actor ActivityActor) (dto.MasterRoleRequestResponse, error)
	ApplyAsMentor(ctx context.Context, payload dto.MentorApplicationCreate, actor ActivityActor) (dto.MentorApplicationResponse, error)
	ReviewMentorApplication(ctx context.Context, applicationID uint, payload dto.ReviewDecisionRequest, actor ActivityActor) (dto.MentorApplicationResponse, error)
}

type promotionService struct {
	promotions repository.PromotionRepository
	reviews    repository.ReviewRepository
	users      repository.UserRepository
	validator  *validator.Validate
	notifier   Notifier
	activity   ActivityRecorder
	logger     zerolog.Logger
	tracer     trace.Tracer
	now        func() time.Time
}

// NewPromotionService constructs the role upgrade manager.
func NewPromotionService(
	promotions repository.PromotionRepository,
	reviews repository.ReviewRepository,
	users repository.UserRepository,
	validate *validator.Validate,
	notifier Notifier,
	activity ActivityRecorder,
	logger zerolog.Logger,
) PromotionService {
	return &promotionService{
		promotions: promotions,
		reviews:    reviews,
		users:      users,
		validator:  validate,
		notifier:   notifier,
		activity:   activity,
		logger:     logger.With().Str("component", "promotion_service").Logger(),
		tracer:     otel.Tracer("github.com/laras-id/laras-api/internal/service/promotion"),
		now:        time.Now,
	}
}

func (s *promotionService) RequestMasterRole(ctx context.Context, payload dto.MasterRoleRequestCreate, actor ActivityActor) (dto.MasterRoleRequestResponse, error) {
	ctx, span := s.tracer.Start(ctx, "promotion.request_master_role", trace.WithAttributes(
		attribute.Int64("actor.id", int64(actor.ID)),
	))
	defer span.End()

	if err := s.validator.Struct(payload); err != nil {
		span.RecordError(err)
		return dto.MasterRoleRequestResponse{}, err
	}

	user, err := s.users.GetByID(ctx, actor.ID)
	if err != nil {
		return dto.MasterRoleRequestResponse{}, err
	}
	if user.Role != models.RoleMentor || user.IsMaster {
		observability.WorkflowRejections().WithLabelValues("master_role_request", "wrong_role").Inc()
		return dto.MasterRoleRequestResponse{}, ErrWrongRole
	}

	request := models.MasterRoleRequest{
		MentorID: actor.ID,
		Message:  payload.Message,
	}
	if err := s.promotions.CreateMasterRoleRequest(ctx, &request); err != nil {
		if errors.Is(err, repository.ErrDuplicatePending) {
			span.SetStatus(codes.Error, "duplicate request")
			return dto.MasterRoleRequestResponse{}, ErrDuplicatePromotionRequest
		}
		span.RecordError(err)
		return dto.MasterRoleRequestResponse{}, err
	}

	s.logger.Info().Uint("request_id", request.ID).Uint("mentor_id", actor.ID).Msg("master role requested")
	return dto.NewMasterRoleRequestResponse(request), nil
}

func (s *promotionService) ReviewMasterRole(ctx context.Context, requestID uint, payload dto.ReviewDecisionRequest, actor ActivityActor) (dto.MasterRoleRequestResponse, error) {
	ctx, span := s.tracer.Start(ctx, "promotion.review_master_role", trace.WithAttributes(
		attribute.Int64("request.id", int64(requestID)),
	))
	defer span.End()

	if err := s.validator.Struct(payload); err != nil {
		span.RecordError(err)
		return dto.MasterRoleRequestResponse{}, err
	}
	if !actor.IsAdmin() {
		return dto.MasterRoleRequestResponse{}, ErrForbidden
	}

	decision := repository.ReviewDecision{
		Approve:    payload.Decision == "approve",
		ReviewerID: actor.ID,
		ReviewedAt: s.now().UTC(),
		Notes:      payload.Notes,
	}

	reviewed, err := s.reviews.DecideMasterRoleRequest(ctx, requestID, decision,
		func(tx *gorm.DB, row models.MasterRoleRequest) error {
			return repository.GrantMasterFlag(tx, row.MentorID)
		})
	if err != nil {
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			return dto.MasterRoleRequestResponse{}, ErrPromotionRequestNotFound
		case errors.Is(err, repository.ErrStateConflict):
			span.SetStatus(codes.Error, "already reviewed")
			observability.WorkflowRejections().WithLabelValues("master_role_request", "already_reviewed").Inc()
			return dto.MasterRoleRequestResponse{}, ErrAlreadyReviewed
		default:
			span.RecordError(err)
			return dto.MasterRoleRequestResponse{}, err
		}
	}

	s.record(ctx, actor, "master_role_request."+reviewed.Status, "master_role_request", reviewed.ID, map[string]interface{}{
		"mentor_id": reviewed.MentorID,
	})
	if s.notifier != nil {
		s.notifier.Notify(ctx, reviewed.MentorID, "master_role."+reviewed.Status,
			fmt.Sprintf("Your master role request was %s", reviewed.Status))
	}
	observability.WorkflowDecisions().WithLabelValues("master_role_request", reviewed.Status).Inc()

	return dto.NewMasterRoleRequestResponse(reviewed), nil
}

func (s *promotionService) ApplyAsMentor(ctx context.Context, payload dto.MentorApplicationCreate, actor ActivityActor) (dto.MentorApplicationResponse, error) {
	ctx, span := s.tracer.Start(ctx, "promotion.apply_as_mentor", trace.WithAttributes(
		attribute.Int64("actor.id", int64(actor.ID)),
	))
	defer span.End()

	if err := s.validator.Struct(payload); err != nil {
		span.RecordError(err)
		return dto.MentorApplicationResponse{}, err
	}

	user, err := s.users.GetByID(ctx, actor.ID)
	if err != nil {
		return dto.MentorApplicationResponse{}, err
	}
	if user.Role != models.RoleStudent {
		observability.WorkflowRejections().WithLabelValues("mentor_application", "wrong_role").Inc()
		return dto.MentorApplicationResponse{}, ErrWrongRole
	}

	application := models.MentorApplication{
		UserID:     actor.ID,
		Bio:        payload.Bio,
		Experience: payload.Experience,
	}
	if err := s.promotions.CreateMentorApplication(ctx, &application); err != nil {
		if errors.Is(err, repository.ErrDuplicatePending) {
			span.SetStatus(codes.Error, "duplicate application")
			return dto.MentorApplicationResponse{}, ErrDuplicatePromotionRequest
		}
		span.RecordError(err)
		return dto.MentorApplicationResponse{}, err
	}

	s.logger.Info().Uint("application_id", application.ID).Uint("user_id", actor.ID).Msg("mentor application filed")
	return dto.NewMentorApplicationResponse(application), nil
}

func (s *promotionService) ReviewMentorApplication(ctx context.Context, applicationID uint, payload dto.ReviewDecisionRequest, actor ActivityActor) (dto.MentorApplicationResponse, error) {
	ctx, span := s.tracer.Start(ctx, "promotion.review_mentor_application", trace.WithAttributes(
		attribute.Int64("application.id", int64(applicationID)),
	))
	defer span.End()

	if err := s.validator.Struct(payload); err != nil {
		span.RecordError(err)
		return dto.MentorApplicationResponse{}, err
	}
	if !actor.IsAdmin() {
		return dto.MentorApplicationResponse{}, ErrForbidden
	}

	decision := repository.ReviewDecision{
		Approve:    payload.Decision == "approve",
		ReviewerID: actor.ID,
		ReviewedAt: s.now().UTC(),
		Notes:      payload.Notes,
	}

	reviewed, err := s.reviews.DecideMentorApplication(ctx, applicationID, decision,
		func(tx *gorm.DB, row models.MentorApplication) error {
			return repository.PromoteToMentor(tx, row.UserID)
		})
	if err != nil {
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			return dto.MentorApplicationResponse{}, ErrPromotionRequestNotFound
		case errors.Is(err, repository.ErrStateConflict):
			span.SetStatus(codes.Error, "already reviewed")
			observability.WorkflowRejections().WithLabelValues("mentor_application", "already_reviewed").Inc()
			return dto.MentorApplicationResponse{}, ErrAlreadyReviewed
		default:
			span.RecordError(err)
			return dto.MentorApplicationResponse{}, err
		}
	}

	s.record(ctx, actor, "mentor_application."+reviewed.Status, "mentor_application", reviewed.ID, map[string]interface{}{
		"user_id": reviewed.UserID,
	})
	if s.notifier != nil {
		s.notifier.Notify(ctx, reviewed.UserID, "mentor_application."+reviewed.Status,
			fmt.Sprintf("Your mentor application was %s", reviewed.Status))
	}
	observability.WorkflowDecisions().WithLabelValues("mentor_application", reviewed.Status).Inc()

	return dto.NewMentorApplicationResponse(reviewed), nil
}

func (s *promotionService) record(ctx context.Context, actor ActivityActor, action, entityType string, entityID uint, metadata map[string]interface{}) {
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
