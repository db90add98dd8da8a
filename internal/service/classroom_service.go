package service

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/laras-id/laras-api/internal/dto"
	"github.com/laras-id/laras-api/internal/models"
	"github.com/laras-id/laras-api/internal/observability"
	"github.com/laras-id/laras-api/internal/repository"
)

// ErrNotMaster indicates the actor may not open a classroom.
var ErrNotMaster = errors.New("only master mentors can open a classroom")

const defaultMaxStudents = 30

var nonSlugChars = regexp.MustCompile(`[^a-z0-9]+`)

// ClassroomService manages academy creation and discovery.
type ClassroomService interface {
	Create(ctx context.Context, payload dto.ClassroomCreateRequest, actor ActivityActor) (dto.ClassroomResponse, error)
	Get(ctx context.Context, id uint) (dto.ClassroomResponse, error)
	GetBySlug(ctx context.Context, slug string) (dto.ClassroomResponse, error)
	ListPublic(ctx context.Context, limit, offset int) ([]dto.ClassroomResponse, error)
	Deactivate(ctx context.Context, id uint, actor ActivityActor) error
}

type classroomService struct {
	classrooms repository.ClassroomRepository
	users      repository.UserRepository
	validator  *validator.Validate
	activity   ActivityRecorder
	logger     zerolog.Logger
	tracer     trace.Tracer
}

// NewClassroomService constructs the classroom manager.
func NewClassroomService(classrooms repository.ClassroomRepository, users repository.UserRepository, validate *validator.Validate, activity ActivityRecorder, logger zerolog.Logger) ClassroomService {
	return &classroomService{
		classrooms: classrooms,
		users:      users,
		validator:  validate,
		activity:   activity,
		logger:     logger.With().Str("component", "classroom_service").Logger(),
		tracer:     otel.Tracer("github.com/laras-id/laras-api/internal/service/classroom"),
	}
}

func (s *classroomService) Create(ctx context.Context, payload dto.ClassroomCreateRequest, actor ActivityActor) (dto.ClassroomResponse, error) {
	ctx, span := s.tracer.Start(ctx, "classroom.create", trace.WithAttributes(
		attribute.Int64("actor.id", int64(actor.ID)),
	))
	defer span.End()

	if err := s.validator.Struct(payload); err != nil {
		span.RecordError(err)
		return dto.ClassroomResponse{}, err
	}

	user, err := s.users.GetByID(ctx, actor.ID)
	if err != nil {
		return dto.ClassroomResponse{}, err
	}
	if !user.CanOwnClassroom() {
		observability.WorkflowRejections().WithLabelValues("classroom", "not_master").Inc()
		return dto.ClassroomResponse{}, ErrNotMaster
	}

	base := payload.CustomSlug
	if base == "" {
		base = payload.Name
	}
	slug, err := s.classrooms.UniqueSlug(ctx, slugify(base))
	if err != nil {
		span.RecordError(err)
		return dto.ClassroomResponse{}, err
	}

	maxStudents := payload.MaxStudents
	if maxStudents == 0 {
		maxStudents = defaultMaxStudents
	}
	isPublic := true
	if payload.IsPublic != nil {
		isPublic = *payload.IsPublic
	}

	classroom := models.Classroom{
		MasterID:    actor.ID,
		Name:        strings.TrimSpace(payload.Name),
		Description: payload.Description,
		CustomSlug:  slug,
		MaxStudents: maxStudents,
		IsPublic:    isPublic,
		IsActive:    true,
	}
	if err := s.classrooms.CreateWithMaster(ctx, &classroom); err != nil {
		span.RecordError(err)
		return dto.ClassroomResponse{}, err
	}

	s.logger.Info().
		Uint("classroom_id", classroom.ID).
		Str("slug", classroom.CustomSlug).
		Uint("master_id", actor.ID).
		Msg("classroom created")

	if s.activity != nil {
		id := classroom.ID
		_, _ = s.activity.Record(ctx, ActivityEntry{
			ActorID:    actor.ID,
			ActorRole:  actor.Role,
			Action:     "classroom.created",
			EntityType: "classroom",
			EntityID:   &id,
			Metadata:   map[string]interface{}{"slug": classroom.CustomSlug},
		})
	}

	return dto.NewClassroomResponse(classroom), nil
}

func (s *classroomService) Get(ctx context.Context, id uint) (dto.ClassroomResponse, error) {
	classroom, err := s.classrooms.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.ClassroomResponse{}, ErrClassroomNotFound
		}
		return dto.ClassroomResponse{}, err
	}
	return dto.NewClassroomResponse(classroom), nil
}

func (s *classroomService) GetBySlug(ctx context.Context, slug string) (dto.ClassroomResponse, error) {
	classroom, err := s.classrooms.GetBySlug(ctx, slug)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.ClassroomResponse{}, ErrClassroomNotFound
		}
		return dto.ClassroomResponse{}, err
	}
	return dto.NewClassroomResponse(classroom), nil
}

func (s *classroomService) ListPublic(ctx context.Context, limit, offset int) ([]dto.ClassroomResponse, error) {
	classrooms, err := s.classrooms.ListPublic(ctx, limit, offset)
	if err != nil {
		return nil, err
	}
	return dto.NewClassroomResponseSlice(classrooms), nil
}

func (s *classroomService) Deactivate(ctx context.Context, id uint, actor ActivityActor) error {
	ctx, span := s.tracer.Start(ctx, "classroom.deactivate")
	defer span.End()

	classroom, err := s.classrooms.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrClassroomNotFound
		}
		return err
	}
	if classroom.MasterID != actor.ID && !actor.IsAdmin() {
		return ErrForbidden
	}

	if err := s.classrooms.Deactivate(ctx, id); err != nil {
		span.RecordError(err)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrClassroomNotFound
		}
		return err
	}

	if s.activity != nil {
		classroomID := id
		_, _ = s.activity.Record(ctx, ActivityEntry{
			ActorID:    actor.ID,
			ActorRole:  actor.Role,
			Action:     "classroom.deactivated",
			EntityType: "classroom",
			EntityID:   &classroomID,
		})
	}
	return nil
}

func slugify(input string) string {
	slug := strings.ToLower(strings.TrimSpace(input))
	slug = nonSlugChars.ReplaceAllString(slug, "-")
	slug = strings.Trim(slug, "-")
	if slug == "" {
		slug = "classroom-" + time.Now().UTC().Format("20060102150405")
	}
	return slug
}
