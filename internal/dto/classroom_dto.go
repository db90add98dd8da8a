package dto

import (
	"time"

	"github.com/laras-id/laras-api/internal/models"
)

// ClassroomCreateRequest describes the payload for opening a new academy.
type ClassroomCreateRequest struct {
	Name        string `json:"name" validate:"required,min=3,max=255"`
	Description string `json:"description" validate:"omitempty,max=2000"`
	CustomSlug  string `json:"custom_slug" validate:"omitempty,min=3,max=64"`
	MaxStudents int    `json:"max_students" validate:"omitempty,gt=0,lte=500"`
	IsPublic    *bool  `json:"is_public"`
}

// ClassroomResponse is returned to API clients when viewing classrooms.
type ClassroomResponse struct {
	ID          uint      `json:"id"`
	MasterID    uint      `json:"master_id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	CustomSlug  string    `json:"custom_slug"`
	MaxStudents int       `json:"max_students"`
	IsPublic    bool      `json:"is_public"`
	IsActive    bool      `json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
}

// NewClassroomResponse converts a Classroom model into a DTO.
func NewClassroomResponse(model models.Classroom) ClassroomResponse {
	return ClassroomResponse{
		ID:          model.ID,
		MasterID:    model.MasterID,
		Name:        model.Name,
		Description: model.Description,
		CustomSlug:  model.CustomSlug,
		MaxStudents: model.MaxStudents,
		IsPublic:    model.IsPublic,
		IsActive:    model.IsActive,
		CreatedAt:   model.CreatedAt,
	}
}

// NewClassroomResponseSlice converts classroom models for list endpoints.
func NewClassroomResponseSlice(items []models.Classroom) []ClassroomResponse {
	responses := make([]ClassroomResponse, 0, len(items))
	for _, item := range items {
		responses = append(responses, NewClassroomResponse(item))
	}
	return responses
}
