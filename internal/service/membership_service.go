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
	// ErrClassroomNotFound indicates the target classroom is missing or inactive.
	ErrClassroomNotFound = errors.New("classroom not found")
	// ErrCapacityExceeded indicates the classroom student limit has been reached.
	ErrCapacityExceeded = errors.New("classroom has reached its student capacity")
	// ErrAlreadyMember indicates an active or pending membership already exists.
	ErrAlreadyMember = errors.New("user already has a membership in this classroom")
	// ErrDuplicateStaffRequest indicates a pending staff request already exists.
	ErrDuplicateStaffRequest = errors.New("a pending staff request already exists for this classroom")
	// ErrStaffRequestNotFound indicates the staff request is missing.
	ErrStaffRequestNotFound = errors.New("staff request not found")
	// ErrNotStaffMember indicates the mentor holds no active staff membership.
	ErrNotStaffMember = errors.New("mentor is not an active staff member of this classroom")
	// ErrMembershipNotFound indicates the membership row is missing.
	ErrMembershipNotFound = errors.New("membership not found")
	// ErrResignationNotFound indicates the resignation request is missing.
	ErrResignationNotFound = errors.New("resignation request not found")
)

// MembershipService governs how users obtain and lose roles within a classroom:
// join requests, staff requests, resignations, and membership review.
type MembershipService interface {
	RequestJoin(ctx context.Context, classroomID uint, payload dto.JoinRequest, actor ActivityActor) (dto.MembershipResponse, error)
	RequestStaff(ctx context.Context, payload dto.StaffRequestCreate, actor ActivityActor) (dto.StaffRequestResponse, error)
	ReviewStaffRequest(ctx context.Context, requestID uint, payload dto.ReviewDecisionRequest, actor ActivityActor) (dto.StaffRequestResponse, error)
	RequestResignation(ctx context.Context, classroomID uint, payload dto.ResignationCreate, actor ActivityActor) (dto.ResignationResponse, error)
	ReviewResignation(ctx context.Context, resignationID uint, payload dto.ReviewDecisionRequest, actor ActivityActor) (dto.ResignationResponse, error)
	ReviewMembership(ctx context.Context, membershipID uint, payload dto.MembershipDecisionRequest, actor ActivityActor) (dto.MembershipResponse, error)
}

type membershipService struct {
	memberships repository.MembershipRepository
	staff       repository.StaffRequestRepository
	reviews     repository.ReviewRepository
	classrooms  repository.ClassroomRepository
	validator   *validator.Validate
	notifier    Notifier
	activity    ActivityRecorder
	logger      zerolog.Logger
	tracer      trace.Tracer
	now         func() time.Time
}

// NewMembershipService constructs the membership lifecycle manager.
func NewMembershipService(
	memberships repository.MembershipRepository,
	staff repository.StaffRequestRepository,
	reviews repository.ReviewRepository,
	classrooms repository.ClassroomRepository,
	validate *validator.Validate,
	notifier Notifier,
	activity ActivityRecorder,
	logger zerolog.Logger,
) MembershipService {
	return &membershipService{
		memberships: memberships,
		staff:       staff,
		reviews:     reviews,
		classrooms:  classrooms,
		validator:   validate,
		notifier:    notifier,
		activity:    activity,
		logger:      logger.With().Str("component", "membership_service").Logger(),
		tracer:      otel.Tracer("github.com/laras-id/laras-api/internal/service/membership"),
		now:         time.Now,
	}
}

func (s *membershipService) RequestJoin(ctx context.Context, classroomID uint, payload dto.JoinRequest, actor ActivityActor) (dto.MembershipResponse, error) {
	ctx, span := s.tracer.Start(ctx, "membership.request_join", trace.WithAttributes(
		attribute.Int64("classroom.id", int64(classroomID)),
		attribute.Int64("actor.id", int64(actor.ID)),
	))
	defer span.End()

	if err := s.validator.Struct(payload); err != nil {
		span.RecordError(err)
		return dto.MembershipResponse{}, err
	}

	classroom, err := s.classrooms.GetByID(ctx, classroomID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.MembershipResponse{}, ErrClassroomNotFound
		}
		return dto.MembershipResponse{}, err
	}
	if !classroom.IsActive {
		return dto.MembershipResponse{}, ErrClassroomNotFound
	}

	membership, err := s.memberships.CreateStudentJoin(ctx, classroomID, actor.ID, payload.Message)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrCapacityFull):
			span.SetStatus(codes.Error, "capacity exceeded")
			observability.WorkflowRejections().WithLabelValues("membership", "capacity").Inc()
			return dto.MembershipResponse{}, ErrCapacityExceeded
		case errors.Is(err, repository.ErrAlreadyMember):
			span.SetStatus(codes.Error, "already member")
			observability.WorkflowRejections().WithLabelValues("membership", "duplicate").Inc()
			return dto.MembershipResponse{}, ErrAlreadyMember
		default:
			span.RecordError(err)
			return dto.MembershipResponse{}, err
		}
	}

	if s.notifier != nil {
		s.notifier.Notify(ctx, classroom.MasterID, "classroom.join_requested",
			fmt.Sprintf("A student requested to join %s", classroom.Name))
	}

	s.logger.Info().Uint("classroom_id", classroomID).Uint("user_id", actor.ID).Msg("join request created")
	return dto.NewMembershipResponse(membership), nil
}

func (s *membershipService) RequestStaff(ctx context.Context, payload dto.StaffRequestCreate, actor ActivityActor) (dto.StaffRequestResponse, error) {
	ctx, span := s.tracer.Start(ctx, "membership.request_staff")
	defer span.End()

	if err := s.validator.Struct(payload); err != nil {
		span.RecordError(err)
		return dto.StaffRequestResponse{}, err
	}

	classroom, err := s.classrooms.GetByID(ctx, payload.ClassroomID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.StaffRequestResponse{}, ErrClassroomNotFound
		}
		return dto.StaffRequestResponse{}, err
	}

	request := models.StaffRequest{
		MentorID:    actor.ID,
		ClassroomID: payload.ClassroomID,
		Message:     payload.Message,
	}
	if err := s.staff.CreatePending(ctx, &request); err != nil {
		if errors.Is(err, repository.ErrDuplicatePending) {
			span.SetStatus(codes.Error, "duplicate request")
			observability.WorkflowRejections().WithLabelValues("staff_request", "duplicate").Inc()
			return dto.StaffRequestResponse{}, ErrDuplicateStaffRequest
		}
		span.RecordError(err)
		return dto.StaffRequestResponse{}, err
	}

	if s.notifier != nil {
		s.notifier.Notify(ctx, classroom.MasterID, "classroom.staff_requested",
			fmt.Sprintf("A mentor applied to join %s as staff", classroom.Name))
	}

	return dto.NewStaffRequestResponse(request), nil
}

func (s *membershipService) ReviewStaffRequest(ctx context.Context, requestID uint, payload dto.ReviewDecisionRequest, actor ActivityActor) (dto.StaffRequestResponse, error) {
	ctx, span := s.tracer.Start(ctx, "membership.review_staff_request", trace.WithAttributes(
		attribute.Int64("request.id", int64(requestID)),
	))
	defer span.End()

	if err := s.validator.Struct(payload); err != nil {
		span.RecordError(err)
		return dto.StaffRequestResponse{}, err
	}

	request, err := s.staff.GetByID(ctx, requestID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.StaffRequestResponse{}, ErrStaffRequestNotFound
		}
		return dto.StaffRequestResponse{}, err
	}
	if err := s.authorizeClassroomReview(ctx, request.ClassroomID, "staff_request", actor); err != nil {
		return dto.StaffRequestResponse{}, err
	}

	decision := repository.ReviewDecision{
		Approve:    payload.Decision == "approve",
		ReviewerID: actor.ID,
		ReviewedAt: s.now().UTC(),
		Notes:      payload.Notes,
	}

	reviewed, err := s.reviews.DecideStaffRequest(ctx, requestID, decision,
		func(tx *gorm.DB, row models.StaffRequest) error {
			return repository.ActivateStaffMembership(tx, row.MentorID, row.ClassroomID, decision.ReviewedAt)
		})
	if err != nil {
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			return dto.StaffRequestResponse{}, ErrStaffRequestNotFound
		case errors.Is(err, repository.ErrStateConflict):
			span.SetStatus(codes.Error, "already reviewed")
			observability.WorkflowRejections().WithLabelValues("staff_request", "already_reviewed").Inc()
			return dto.StaffRequestResponse{}, ErrAlreadyReviewed
		default:
			span.RecordError(err)
			return dto.StaffRequestResponse{}, err
		}
	}

	s.recordDecision(ctx, actor, "staff_request", reviewed.ID, reviewed.Status, map[string]interface{}{
		"classroom_id": reviewed.ClassroomID,
		"mentor_id":    reviewed.MentorID,
	})
	if s.notifier != nil {
		s.notifier.Notify(ctx, reviewed.MentorID, "staff_request."+reviewed.Status,
			fmt.Sprintf("Your staff request was %s", reviewed.Status))
	}
	observability.WorkflowDecisions().WithLabelValues("staff_request", reviewed.Status).Inc()

	return dto.NewStaffRequestResponse(reviewed), nil
}

func (s *membershipService) RequestResignation(ctx context.Context, classroomID uint, payload dto.ResignationCreate, actor ActivityActor) (dto.ResignationResponse, error) {
	ctx, span := s.tracer.Start(ctx, "membership.request_resignation")
	defer span.End()

	if err := s.validator.Struct(payload); err != nil {
		span.RecordError(err)
		return dto.ResignationResponse{}, err
	}

	isStaff, err := s.memberships.HasActiveStaff(ctx, actor.ID, classroomID)
	if err != nil {
		return dto.ResignationResponse{}, err
	}
	if !isStaff {
		observability.WorkflowRejections().WithLabelValues("resignation", "not_staff").Inc()
		return dto.ResignationResponse{}, ErrNotStaffMember
	}

	resignation := models.ResignationRequest{
		MentorID:    actor.ID,
		ClassroomID: classroomID,
		Reason:      payload.Reason,
	}
	if err := s.staff.CreateResignation(ctx, &resignation); err != nil {
		if errors.Is(err, repository.ErrDuplicatePending) {
			return dto.ResignationResponse{}, ErrDuplicateStaffRequest
		}
		span.RecordError(err)
		return dto.ResignationResponse{}, err
	}

	if classroom, err := s.classrooms.GetByID(ctx, classroomID); err == nil && s.notifier != nil {
		s.notifier.Notify(ctx, classroom.MasterID, "classroom.resignation_requested",
			fmt.Sprintf("A staff mentor asked to resign from %s", classroom.Name))
	}

	return dto.NewResignationResponse(resignation), nil
}

func (s *membershipService) ReviewResignation(ctx context.Context, resignationID uint, payload dto.ReviewDecisionRequest, actor ActivityActor) (dto.ResignationResponse, error) {
	ctx, span := s.tracer.Start(ctx, "membership.review_resignation")
	defer span.End()

	if err := s.validator.Struct(payload); err != nil {
		span.RecordError(err)
		return dto.ResignationResponse{}, err
	}

	resignation, err := s.staff.GetResignationByID(ctx, resignationID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.ResignationResponse{}, ErrResignationNotFound
		}
		return dto.ResignationResponse{}, err
	}
	if err := s.authorizeClassroomReview(ctx, resignation.ClassroomID, "resignation", actor); err != nil {
		return dto.ResignationResponse{}, err
	}

	decision := repository.ReviewDecision{
		Approve:    payload.Decision == "approve",
		ReviewerID: actor.ID,
		ReviewedAt: s.now().UTC(),
		Notes:      payload.Notes,
	}

	reviewed, err := s.reviews.DecideResignation(ctx, resignationID, decision,
		func(tx *gorm.DB, row models.ResignationRequest) error {
			return repository.RemoveActiveMembership(tx, row.MentorID, row.ClassroomID, models.MembershipRoleStaff)
		})
	if err != nil {
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			return dto.ResignationResponse{}, ErrResignationNotFound
		case errors.Is(err, repository.ErrStateConflict):
			return dto.ResignationResponse{}, ErrAlreadyReviewed
		default:
			span.RecordError(err)
			return dto.ResignationResponse{}, err
		}
	}

	s.recordDecision(ctx, actor, "resignation", reviewed.ID, reviewed.Status, map[string]interface{}{
		"classroom_id": reviewed.ClassroomID,
		"mentor_id":    reviewed.MentorID,
	})
	if s.notifier != nil {
		s.notifier.Notify(ctx, reviewed.MentorID, "resignation."+reviewed.Status,
			fmt.Sprintf("Your resignation request was %s", reviewed.Status))
	}
	observability.WorkflowDecisions().WithLabelValues("resignation", reviewed.Status).Inc()

	return dto.NewResignationResponse(reviewed), nil
}

func (s *membershipService) ReviewMembership(ctx context.Context, membershipID uint, payload dto.MembershipDecisionRequest, actor ActivityActor) (dto.MembershipResponse, error) {
	ctx, span := s.tracer.Start(ctx, "membership.review_membership", trace.WithAttributes(
		attribute.Int64("membership.id", int64(membershipID)),
	))
	defer span.End()

	if err := s.validator.Struct(payload); err != nil {
		span.RecordError(err)
		return dto.MembershipResponse{}, err
	}

	pending, err := s.memberships.GetByID(ctx, membershipID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.MembershipResponse{}, ErrMembershipNotFound
		}
		return dto.MembershipResponse{}, err
	}
	if err := s.authorizeClassroomReview(ctx, pending.ClassroomID, "membership", actor); err != nil {
		return dto.MembershipResponse{}, err
	}

	target := models.MembershipStatusRemoved
	var joinedAt *time.Time
	if payload.Decision == "approve" {
		target = models.MembershipStatusActive
		now := s.now().UTC()
		joinedAt = &now
	}

	membership, err := s.memberships.Transition(ctx, membershipID, models.MembershipStatusPending, target, joinedAt)
	if err != nil {
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			return dto.MembershipResponse{}, ErrMembershipNotFound
		case errors.Is(err, repository.ErrStateConflict):
			observability.WorkflowRejections().WithLabelValues("membership", "already_reviewed").Inc()
			return dto.MembershipResponse{}, ErrAlreadyReviewed
		default:
			span.RecordError(err)
			return dto.MembershipResponse{}, err
		}
	}

	s.recordDecision(ctx, actor, "membership", membership.ID, membership.Status, map[string]interface{}{
		"classroom_id": membership.ClassroomID,
		"user_id":      membership.UserID,
	})
	if s.notifier != nil {
		kind := "membership.approved"
		message := "Your classroom join request was approved"
		if target == models.MembershipStatusRemoved {
			kind = "membership.rejected"
			message = "Your classroom join request was rejected"
		}
		s.notifier.Notify(ctx, membership.UserID, kind, message)
	}
	observability.WorkflowDecisions().WithLabelValues("membership", membership.Status).Inc()

	return dto.NewMembershipResponse(membership), nil
}

// authorizeClassroomReview allows the classroom master or an admin to decide
// requests targeting the classroom.
func (s *membershipService) authorizeClassroomReview(ctx context.Context, classroomID uint, entity string, actor ActivityActor) error {
	if actor.IsAdmin() {
		return nil
	}

	classroom, err := s.classrooms.GetByID(ctx, classroomID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrClassroomNotFound
		}
		return err
	}
	if classroom.MasterID != actor.ID {
		observability.WorkflowRejections().WithLabelValues(entity, "forbidden").Inc()
		return ErrForbidden
	}
	return nil
}

func (s *membershipService) recordDecision(ctx context.Context, actor ActivityActor, entity string, entityID uint, status string, metadata map[string]interface{}) {
	if s.activity == nil {
		return
	}
	id := entityID
	_, _ = s.activity.Record(ctx, ActivityEntry{
		ActorID:    actor.ID,
		ActorRole:  actor.Role,
		Action:     entity + "." + status,
		EntityType: entity,
		EntityID:   &id,
		Metadata:   metadata,
	})
}
