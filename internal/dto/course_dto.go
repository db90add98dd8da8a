package dto

import (
	"time"

	"github.com/laras-id/laras-api/internal/models"
)

// CourseCreateRequest drafts a new course owned by the calling mentor.
type CourseCreateRequest struct {
	Title       string `json:"title" validate:"required,min=3,max=255"`
	Description string `json:"description" validate:"omitempty,max=8000"`
}

// CourseUpdateRequest edits a draft. Only the owner may edit, and only drafts.
type CourseUpdateRequest struct {
	Title       *string `json:"title" validate:"omitempty,min=3,max=255"`
	Description *string `json:"description" validate:"omitempty,max=8000"`
}

// CourseReviewRequest carries optional admin notes on a transition.
type CourseReviewRequest struct {
	AdminNotes string `json:"admin_notes" validate:"omitempty,max=2000"`
}

// CourseResponse serializes a course with its review trail.
type CourseResponse struct {
	ID          uint       `json:"id"`
	MentorID    uint       `json:"mentor_id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	CoverURL    string     `json:"cover_url"`
	Status      string     `json:"status"`
	AdminNotes  string     `json:"admin_notes"`
	SubmittedAt *time.Time `json:"submitted_at"`
	ReviewedBy  *uint      `json:"reviewed_by"`
	ReviewedAt  *time.Time `json:"reviewed_at"`
	IsActive    bool       `json:"is_active"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// NewCourseResponse converts a course model into a DTO.
func NewCourseResponse(model models.Course) CourseResponse {
	return CourseResponse{
		ID:          model.ID,
		MentorID:    model.MentorID,
		Title:       model.Title,
		Description: model.Description,
		CoverURL:    model.CoverURL,
		Status:      model.Status,
		AdminNotes:  model.AdminNotes,
		SubmittedAt: model.SubmittedAt,
		ReviewedBy:  model.ReviewedBy,
		ReviewedAt:  model.ReviewedAt,
		IsActive:    model.IsActive,
		CreatedAt:   model.CreatedAt,
		UpdatedAt:   model.UpdatedAt,
	}
}
