package dto

import (
	"time"

	"github.com/laras-id/laras-api/internal/models"
)

// MasterRoleRequestCreate asks for promotion to classroom master.
type MasterRoleRequestCreate struct {
	Message string `json:"message" validate:"omitempty,max=2000"`
}

// MentorApplicationCreate asks for promotion from student to mentor.
type MentorApplicationCreate struct {
	Bio        string `json:"bio" validate:"required,min=10,max=4000"`
	Experience string `json:"experience" validate:"omitempty,max=4000"`
}

// MasterRoleRequestResponse serializes a master-role upgrade request.
type MasterRoleRequestResponse struct {
	ID         uint       `json:"id"`
	MentorID   uint       `json:"mentor_id"`
	Message    string     `json:"message"`
	Status     string     `json:"status"`
	ReviewedBy *uint      `json:"reviewed_by"`
	ReviewedAt *time.Time `json:"reviewed_at"`
	AdminNotes string     `json:"admin_notes"`
	CreatedAt  time.Time  `json:"created_at"`
}

// MentorApplicationResponse serializes a mentor application.
type MentorApplicationResponse struct {
	ID         uint       `json:"id"`
	UserID     uint       `json:"user_id"`
	Bio        string     `json:"bio"`
	Experience string     `json:"experience"`
	Status     string     `json:"status"`
	ReviewedBy *uint      `json:"reviewed_by"`
	ReviewedAt *time.Time `json:"reviewed_at"`
	AdminNotes string     `json:"admin_notes"`
	CreatedAt  time.Time  `json:"created_at"`
}

// NewMasterRoleRequestResponse converts a master-role request into a DTO.
func NewMasterRoleRequestResponse(model models.MasterRoleRequest) MasterRoleRequestResponse {
	return MasterRoleRequestResponse{
		ID:         model.ID,
		MentorID:   model.MentorID,
		Message:    model.Message,
		Status:     model.Status,
		ReviewedBy: model.ReviewedBy,
		ReviewedAt: model.ReviewedAt,
		AdminNotes: model.AdminNotes,
		CreatedAt:  model.CreatedAt,
	}
}

// NewMentorApplicationResponse converts a mentor application into a DTO.
func NewMentorApplicationResponse(model models.MentorApplication) MentorApplicationResponse {
	return MentorApplicationResponse{
		ID:         model.ID,
		UserID:     model.UserID,
		Bio:        model.Bio,
		Experience: model.Experience,
		Status:     model.Status,
		ReviewedBy: model.ReviewedBy,
		ReviewedAt: model.ReviewedAt,
		AdminNotes: model.AdminNotes,
		CreatedAt:  model.CreatedAt,
	}
}
