package dto

import (
	"time"

	"github.com/laras-id/laras-api/internal/models"
)

// AvailabilityRequest probes an instructor's weekly timetable for a free slot.
type AvailabilityRequest struct {
	InstructorID uint   `json:"instructor_id" validate:"required,gt=0"`
	DayOfWeek    int    `json:"day_of_week" validate:"gte=0,lte=6"`
	StartTime    string `json:"start_time" validate:"required,len=5"`
	EndTime      string `json:"end_time" validate:"required,len=5"`
}

// ScheduleCreateRequest inserts a weekly class slot.
type ScheduleCreateRequest struct {
	ClassroomID  uint   `json:"classroom_id" validate:"required,gt=0"`
	Title        string `json:"title" validate:"required,min=3,max=255"`
	DayOfWeek    int    `json:"day_of_week" validate:"gte=0,lte=6"`
	StartTime    string `json:"start_time" validate:"required,len=5"`
	EndTime      string `json:"end_time" validate:"required,len=5"`
	InstructorID uint   `json:"instructor_id" validate:"required,gt=0"`
	MaxStudents  int    `json:"max_students" validate:"omitempty,gt=0,lte=500"`
}

// AvailabilityResponse reports whether the probed slot is free.
type AvailabilityResponse struct {
	Available bool `json:"available"`
}

// ScheduleResponse serializes a schedule row.
type ScheduleResponse struct {
	ID           uint      `json:"id"`
	ClassroomID  uint      `json:"classroom_id"`
	Title        string    `json:"title"`
	DayOfWeek    int       `json:"day_of_week"`
	StartTime    string    `json:"start_time"`
	EndTime      string    `json:"end_time"`
	InstructorID uint      `json:"instructor_id"`
	MaxStudents  int       `json:"max_students"`
	IsActive     bool      `json:"is_active"`
	CreatedAt    time.Time `json:"created_at"`
}

// NewScheduleResponse converts a schedule model into a DTO.
func NewScheduleResponse(model models.Schedule) ScheduleResponse {
	return ScheduleResponse{
		ID:           model.ID,
		ClassroomID:  model.ClassroomID,
		Title:        model.Title,
		DayOfWeek:    model.DayOfWeek,
		StartTime:    model.StartTime,
		EndTime:      model.EndTime,
		InstructorID: model.InstructorID,
		MaxStudents:  model.MaxStudents,
		IsActive:     model.IsActive,
		CreatedAt:    model.CreatedAt,
	}
}
