package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
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

// ErrCourseNotFound indicates the course is missing or soft-deleted.
var ErrCourseNotFound = errors.New("course not found")

// courseEdges enumerates the legal publication transitions. Submit from a
// rejected course re-enters review, which is the resubmission path.
var courseEdges = map[string][]string{
	"submit":  {models.CourseStatusDraft, models.CourseStatusRejected},
	"approve": {models.CourseStatusPending},
	"reject":  {models.CourseStatusPending},
	"publish": {models.CourseStatusApproved},
	"archive": {models.CourseStatusPublished},
}

// CourseService manages the course publication workflow.
type CourseService interface {
	Create(ctx context.Context, payload dto.CourseCreateRequest, actor ActivityActor) (dto.CourseResponse, error)
	Get(ctx context.Context, id uint) (dto.CourseResponse, error)
	Update(ctx context.Context, id uint, payload dto.CourseUpdateRequest, actor ActivityActor) (dto.CourseResponse, error)
	Submit(ctx context.Context, id uint, actor ActivityActor) (dto.CourseResponse, error)
	Approve(ctx context.Context, id uint, payload dto.CourseReviewRequest, actor ActivityActor) (dto.CourseResponse, error)
	Reject(ctx context.Context, id uint, payload dto.CourseReviewRequest, actor ActivityActor) (dto.CourseResponse, error)
	Publish(ctx context.Context, id uint, payload dto.CourseReviewRequest, actor ActivityActor) (dto.CourseResponse, error)
	Archive(ctx context.Context, id uint, actor ActivityActor) (dto.CourseResponse, error)
	Delete(ctx context.Context, id uint, actor ActivityActor) error
	ListByMentor(ctx context.Context, mentorID uint) ([]dto.CourseResponse, error)
}

type courseService struct {
	courses   repository.CourseRepository
	validator *validator.Validate
	notifier  Notifier
	activity  ActivityRecorder
	logger    zerolog.Logger
	tracer    trace.Tracer
	now       func() time.Time
}

// NewCourseService constructs the course publication manager.
func NewCourseService(courses repository.CourseRepository, validate *validator.Validate, notifier Notifier, activity ActivityRecorder, logger zerolog.Logger) CourseService {
	return &courseService{
		courses:   courses,
		validator: validate,
		notifier:  notifier,
		activity:  activity,
		logger:    logger.With().Str("component", "course_service").Logger(),
		tracer:    otel.Tracer("github.com/laras-id/laras-api/internal/service/course"),
		now:       time.Now,
	}
}

func (s *courseService) Create(ctx context.Context, payload dto.CourseCreateRequest, actor ActivityActor) (dto.CourseResponse, error) {
	ctx, span := s.tracer.Start(ctx, "course.create")
	defer span.End()

	if err := s.validator.Struct(payload); err != nil {
		span.RecordError(err)
		return dto.CourseResponse{}, err
	}

	course := models.Course{
		MentorID:    actor.ID,
		Title:       strings.TrimSpace(payload.Title),
		Description: payload.Description,
		Status:      models.CourseStatusDraft,
		IsActive:    true,
	}
	if err := s.courses.Create(ctx, &course); err != nil {
		span.RecordError(err)
		return dto.CourseResponse{}, err
	}

	s.logger.Info().Uint("course_id", course.ID).Uint("mentor_id", actor.ID).Msg("course drafted")
	return dto.NewCourseResponse(course), nil
}

func (s *courseService) Get(ctx context.Context, id uint) (dto.CourseResponse, error) {
	course, err := s.courses.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.CourseResponse{}, ErrCourseNotFound
		}
		return dto.CourseResponse{}, err
	}
	if !course.IsActive {
		return dto.CourseResponse{}, ErrCourseNotFound
	}
	return dto.NewCourseResponse(course), nil
}

func (s *courseService) Update(ctx context.Context, id uint, payload dto.CourseUpdateRequest, actor ActivityActor) (dto.CourseResponse, error) {
	ctx, span := s.tracer.Start(ctx, "course.update", trace.WithAttributes(
		attribute.Int64("course.id", int64(id)),
	))
	defer span.End()

	if err := s.validator.Struct(payload); err != nil {
		span.RecordError(err)
		return dto.CourseResponse{}, err
	}
	if err := s.authorizeOwner(ctx, id, actor); err != nil {
		return dto.CourseResponse{}, err
	}

	updates := map[string]interface{}{}
	if payload.Title != nil {
		updates["title"] = strings.TrimSpace(*payload.Title)
	}
	if payload.Description != nil {
		updates["description"] = *payload.Description
	}
	if len(updates) == 0 {
		return s.Get(ctx, id)
	}

	course, err := s.courses.UpdateDraft(ctx, id, updates)
	if err != nil {
		if errors.Is(err, repository.ErrStateConflict) {
			span.SetStatus(codes.Error, "not a draft")
			return dto.CourseResponse{}, fmt.Errorf("%w: course must be %s to edit, is %s",
				ErrInvalidTransition, models.CourseStatusDraft, course.Status)
		}
		span.RecordError(err)
		return dto.CourseResponse{}, s.mapNotFound(err)
	}
	return dto.NewCourseResponse(course), nil
}

func (s *courseService) Submit(ctx context.Context, id uint, actor ActivityActor) (dto.CourseResponse, error) {
	if err := s.authorizeOwner(ctx, id, actor); err != nil {
		return dto.CourseResponse{}, err
	}

	now := s.now().UTC()
	return s.transition(ctx, id, "submit", actor, map[string]interface{}{
		"status":       models.CourseStatusPending,
		"submitted_at": now,
		"admin_notes":  "",
		"reviewed_by":  nil,
		"reviewed_at":  nil,
	})
}

func (s *courseService) Approve(ctx context.Context, id uint, payload dto.CourseReviewRequest, actor ActivityActor) (dto.CourseResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.CourseResponse{}, err
	}
	if !actor.IsAdmin() {
		return dto.CourseResponse{}, ErrForbidden
	}

	response, err := s.transition(ctx, id, "approve", actor, map[string]interface{}{
		"status":      models.CourseStatusApproved,
		"admin_notes": payload.AdminNotes,
		"reviewed_by": actor.ID,
		"reviewed_at": s.now().UTC(),
	})
	if err != nil {
		return dto.CourseResponse{}, err
	}
	if s.notifier != nil {
		s.notifier.Notify(ctx, response.MentorID, "course.approved",
			fmt.Sprintf("Your course %q was approved", response.Title))
	}
	return response, nil
}

func (s *courseService) Reject(ctx context.Context, id uint, payload dto.CourseReviewRequest, actor ActivityActor) (dto.CourseResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.CourseResponse{}, err
	}
	if !actor.IsAdmin() {
		return dto.CourseResponse{}, ErrForbidden
	}

	response, err := s.transition(ctx, id, "reject", actor, map[string]interface{}{
		"status":      models.CourseStatusRejected,
		"admin_notes": payload.AdminNotes,
		"reviewed_by": actor.ID,
		"reviewed_at": s.now().UTC(),
	})
	if err != nil {
		return dto.CourseResponse{}, err
	}
	if s.notifier != nil {
		s.notifier.Notify(ctx, response.MentorID, "course.rejected",
			fmt.Sprintf("Your course %q was rejected", response.Title))
	}
	return response, nil
}

func (s *courseService) Publish(ctx context.Context, id uint, payload dto.CourseReviewRequest, actor ActivityActor) (dto.CourseResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.CourseResponse{}, err
	}
	if !actor.IsAdmin() {
		return dto.CourseResponse{}, ErrForbidden
	}

	response, err := s.transition(ctx, id, "publish", actor, map[string]interface{}{
		"status":      models.CourseStatusPublished,
		"admin_notes": payload.AdminNotes,
		"reviewed_by": actor.ID,
		"reviewed_at": s.now().UTC(),
	})
	if err != nil {
		return dto.CourseResponse{}, err
	}
	if s.notifier != nil {
		s.notifier.Notify(ctx, response.MentorID, "course.published",
			fmt.Sprintf("Your course %q is now published", response.Title))
	}
	return response, nil
}

func (s *courseService) Archive(ctx context.Context, id uint, actor ActivityActor) (dto.CourseResponse, error) {
	if err := s.authorizeOwner(ctx, id, actor); err != nil {
		return dto.CourseResponse{}, err
	}
	return s.transition(ctx, id, "archive", actor, map[string]interface{}{
		"status": models.CourseStatusArchived,
	})
}

func (s *courseService) Delete(ctx context.Context, id uint, actor ActivityActor) error {
	ctx, span := s.tracer.Start(ctx, "course.delete")
	defer span.End()

	if err := s.authorizeOwner(ctx, id, actor); err != nil {
		return err
	}
	if err := s.courses.SoftDelete(ctx, id); err != nil {
		span.RecordError(err)
		return s.mapNotFound(err)
	}

	s.record(ctx, actor, "course.deleted", id, nil)
	return nil
}

func (s *courseService) ListByMentor(ctx context.Context, mentorID uint) ([]dto.CourseResponse, error) {
	courses, err := s.courses.ListByMentor(ctx, mentorID)
	if err != nil {
		return nil, err
	}
	responses := make([]dto.CourseResponse, 0, len(courses))
	for _, course := range courses {
		responses = append(responses, dto.NewCourseResponse(course))
	}
	return responses, nil
}

// transition applies one publication edge. A state conflict comes back with
// the required source states wrapped into ErrInvalidTransition so handlers
// can report what was expected.
func (s *courseService) transition(ctx context.Context, id uint, edge string, actor ActivityActor, updates map[string]interface{}) (dto.CourseResponse, error) {
	ctx, span := s.tracer.Start(ctx, "course."+edge, trace.WithAttributes(
		attribute.Int64("course.id", int64(id)),
	))
	defer span.End()

	fromStates := courseEdges[edge]
	course, err := s.courses.Transition(ctx, id, fromStates, updates)
	if err != nil {
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			return dto.CourseResponse{}, ErrCourseNotFound
		case errors.Is(err, repository.ErrStateConflict):
			span.SetStatus(codes.Error, "invalid transition")
			observability.WorkflowRejections().WithLabelValues("course", "invalid_transition").Inc()
			return dto.CourseResponse{}, fmt.Errorf("%w: %s requires status %s, course is %s",
				ErrInvalidTransition, edge, strings.Join(fromStates, " or "), course.Status)
		default:
			span.RecordError(err)
			return dto.CourseResponse{}, err
		}
	}

	s.record(ctx, actor, "course."+course.Status, id, map[string]interface{}{"edge": edge})
	observability.WorkflowDecisions().WithLabelValues("course", course.Status).Inc()

	return dto.NewCourseResponse(course), nil
}

// authorizeOwner admits the owning mentor or an admin.
func (s *courseService) authorizeOwner(ctx context.Context, id uint, actor ActivityActor) error {
	course, err := s.courses.GetByID(ctx, id)
	if err != nil {
		return s.mapNotFound(err)
	}
	if !course.IsActive {
		return ErrCourseNotFound
	}
	if course.MentorID != actor.ID && !actor.IsAdmin() {
		observability.WorkflowRejections().WithLabelValues("course", "forbidden").Inc()
		return ErrForbidden
	}
	return nil
}

func (s *courseService) mapNotFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrCourseNotFound
	}
	return err
}

func (s *courseService) record(ctx context.Context, actor ActivityActor, action string, courseID uint, metadata map[string]interface{}) {
	if s.activity == nil {
		return
	}
	id := courseID
	_, _ = s.activity.Record(ctx, ActivityEntry{
		ActorID:    actor.ID,
		ActorRole:  actor.Role,
		Action:     action,
		EntityType: "course",
		EntityID:   &id,
		Metadata:   metadata,
	})
}
