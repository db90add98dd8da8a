package service

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/laras-id/laras-api/internal/dto"
	"github.com/laras-id/laras-api/internal/models"
	"github.com/laras-id/laras-api/internal/observability"
	"github.com/laras-id/laras-api/internal/repository"
)

var (
	// ErrInvalidTimeFormat indicates a time field is not zero-padded HH:MM.
	ErrInvalidTimeFormat = errors.New("time must use the 24-hour HH:MM format")
	// ErrInvalidTimeRange indicates the start does not precede the end.
	ErrInvalidTimeRange = errors.New("start time must be before end time")
	// ErrScheduleNotFound indicates the schedule entry is missing or inactive.
	ErrScheduleNotFound = errors.New("schedule not found")
)

// Zero-padded HH:MM in 00:00..23:59. The padding keeps lexicographic
// comparison equivalent to chronological comparison.
var clockPattern = regexp.MustCompile(`^([01][0-9]|2[0-3]):[0-5][0-9]$`)

// ScheduleService manages weekly class timetables and availability probes.
type ScheduleService interface {
	CheckAvailability(ctx context.Context, payload dto.AvailabilityRequest) (dto.AvailabilityResponse, error)
	CreateSchedule(ctx context.Context, payload dto.ScheduleCreateRequest, actor ActivityActor) (dto.ScheduleResponse, error)
	ListForInstructorDay(ctx context.Context, instructorID uint, dayOfWeek int) ([]dto.ScheduleResponse, error)
	DeactivateSchedule(ctx context.Context, id uint, actor ActivityActor) error
}

type scheduleService struct {
	schedules repository.ScheduleRepository
	validator *validator.Validate
	activity  ActivityRecorder
	logger    zerolog.Logger
	tracer    trace.Tracer
}

// NewScheduleService constructs the availability checker.
func NewScheduleService(schedules repository.ScheduleRepository, validate *validator.Validate, activity ActivityRecorder, logger zerolog.Logger) ScheduleService {
	return &scheduleService{
		schedules: schedules,
		validator: validate,
		activity:  activity,
		logger:    logger.With().Str("component", "schedule_service").Logger(),
		tracer:    otel.Tracer("github.com/laras-id/laras-api/internal/service/schedule"),
	}
}

func (s *scheduleService) CheckAvailability(ctx context.Context, payload dto.AvailabilityRequest) (dto.AvailabilityResponse, error) {
	ctx, span := s.tracer.Start(ctx, "schedule.check_availability", trace.WithAttributes(
		attribute.Int64("instructor.id", int64(payload.InstructorID)),
		attribute.Int("day_of_week", payload.DayOfWeek),
	))
	defer span.End()

	if err := s.validator.Struct(payload); err != nil {
		span.RecordError(err)
		return dto.AvailabilityResponse{}, err
	}
	if err := validateWindow(payload.StartTime, payload.EndTime); err != nil {
		span.RecordError(err)
		return dto.AvailabilityResponse{}, err
	}

	existing, err := s.schedules.ListActiveForInstructorDay(ctx, payload.InstructorID, payload.DayOfWeek)
	if err != nil {
		span.RecordError(err)
		return dto.AvailabilityResponse{}, err
	}

	for _, other := range existing {
		if other.Overlaps(payload.StartTime, payload.EndTime) {
			span.SetAttributes(attribute.Bool("available", false))
			return dto.AvailabilityResponse{Available: false}, nil
		}
	}

	span.SetAttributes(attribute.Bool("available", true))
	return dto.AvailabilityResponse{Available: true}, nil
}

func (s *scheduleService) CreateSchedule(ctx context.Context, payload dto.ScheduleCreateRequest, actor ActivityActor) (dto.ScheduleResponse, error) {
	ctx, span := s.tracer.Start(ctx, "schedule.create", trace.WithAttributes(
		attribute.Int64("instructor.id", int64(payload.InstructorID)),
	))
	defer span.End()

	if err := s.validator.Struct(payload); err != nil {
		span.RecordError(err)
		return dto.ScheduleResponse{}, err
	}
	if err := validateWindow(payload.StartTime, payload.EndTime); err != nil {
		span.RecordError(err)
		return dto.ScheduleResponse{}, err
	}

	schedule := models.Schedule{
		ClassroomID:  payload.ClassroomID,
		Title:        strings.TrimSpace(payload.Title),
		DayOfWeek:    payload.DayOfWeek,
		StartTime:    payload.StartTime,
		EndTime:      payload.EndTime,
		InstructorID: payload.InstructorID,
		MaxStudents:  payload.MaxStudents,
	}

	if err := s.schedules.CreateIfFree(ctx, &schedule); err != nil {
		if errors.Is(err, repository.ErrOverlap) {
			span.SetStatus(codes.Error, "slot taken")
			observability.WorkflowRejections().WithLabelValues("schedule", "overlap").Inc()
			return dto.ScheduleResponse{}, ErrSchedulingConflict
		}
		span.RecordError(err)
		return dto.ScheduleResponse{}, err
	}

	s.logger.Info().
		Uint("schedule_id", schedule.ID).
		Uint("instructor_id", schedule.InstructorID).
		Int("day_of_week", schedule.DayOfWeek).
		Msg("schedule created")

	if s.activity != nil {
		id := schedule.ID
		_, _ = s.activity.Record(ctx, ActivityEntry{
			ActorID:    actor.ID,
			ActorRole:  actor.Role,
			Action:     "schedule.created",
			EntityType: "schedule",
			EntityID:   &id,
			Metadata: map[string]interface{}{
				"classroom_id": schedule.ClassroomID,
				"day_of_week":  schedule.DayOfWeek,
				"window":       schedule.StartTime + "-" + schedule.EndTime,
			},
		})
	}

	return dto.NewScheduleResponse(schedule), nil
}

func (s *scheduleService) ListForInstructorDay(ctx context.Context, instructorID uint, dayOfWeek int) ([]dto.ScheduleResponse, error) {
	if dayOfWeek < 0 || dayOfWeek > 6 {
		return nil, fmt.Errorf("%w: day_of_week must be 0..6", ErrInvalidTimeRange)
	}

	schedules, err := s.schedules.ListActiveForInstructorDay(ctx, instructorID, dayOfWeek)
	if err != nil {
		return nil, err
	}

	responses := make([]dto.ScheduleResponse, 0, len(schedules))
	for _, schedule := range schedules {
		responses = append(responses, dto.NewScheduleResponse(schedule))
	}
	return responses, nil
}

func (s *scheduleService) DeactivateSchedule(ctx context.Context, id uint, actor ActivityActor) error {
	ctx, span := s.tracer.Start(ctx, "schedule.deactivate")
	defer span.End()

	if err := s.schedules.Deactivate(ctx, id); err != nil {
		span.RecordError(err)
		return ErrScheduleNotFound
	}

	if s.activity != nil {
		scheduleID := id
		_, _ = s.activity.Record(ctx, ActivityEntry{
			ActorID:    actor.ID,
			ActorRole:  actor.Role,
			Action:     "schedule.deactivated",
			EntityType: "schedule",
			EntityID:   &scheduleID,
		})
	}
	return nil
}

func validateWindow(start, end string) error {
	if !clockPattern.MatchString(start) || !clockPattern.MatchString(end) {
		return ErrInvalidTimeFormat
	}
	if start >= end {
		return ErrInvalidTimeRange
	}
	return nil
}
