package dto

import (
	"time"

	"github.com/laras-id/laras-api/internal/models"
)

// JoinRequest is a student's application to join a classroom.
type JoinRequest struct {
	Message string `json:"message" validate:"omitempty,max=2000"`
}

// StaffRequestCreate is a mentor's application to co-teach a classroom.
type StaffRequestCreate struct {
	ClassroomID uint   `json:"classroom_id" validate:"required,gt=0"`
	Message     string `json:"message" validate:"omitempty,max=2000"`
}

// ResignationCreate asks to leave a staff position.
type ResignationCreate struct {
	Reason string `json:"reason" validate:"required,min=5,max=2000"`
}

// ReviewDecisionRequest carries an approve/reject decision for any reviewable
// request.
type ReviewDecisionRequest struct {
	Decision string `json:"decision" validate:"required,oneof=approve reject"`
	Notes    string `json:"notes" validate:"omitempty,max=2000"`
}

// MembershipDecisionRequest activates or removes a pending membership.
type MembershipDecisionRequest struct {
	Decision string `json:"decision" validate:"required,oneof=approve reject"`
}

// MembershipResponse serializes a classroom membership row.
type MembershipResponse struct {
	ID          uint       `json:"id"`
	UserID      uint       `json:"user_id"`
	ClassroomID uint       `json:"classroom_id"`
	Role        string     `json:"role"`
	Status      string     `json:"status"`
	JoinedAt    *time.Time `json:"joined_at"`
	CreatedAt   time.Time  `json:"created_at"`
}

// StaffRequestResponse serializes a staff request with its review trail.
type StaffRequestResponse struct {
	ID          uint       `json:"id"`
	MentorID    uint       `json:"mentor_id"`
	ClassroomID uint       `json:"classroom_id"`
	Message     string     `json:"message"`
	Status      string     `json:"status"`
	ReviewedBy  *uint      `json:"reviewed_by"`
	ReviewedAt  *time.Time `json:"reviewed_at"`
	AdminNotes  string     `json:"admin_notes"`
	CreatedAt   time.Time  `json:"created_at"`
}

// ResignationResponse serializes a resignation request.
type ResignationResponse struct {
	ID          uint       `json:"id"`
	MentorID    uint       `json:"mentor_id"`
	ClassroomID uint       `json:"classroom_id"`
	Reason      string     `json:"reason"`
	Status      string     `json:"status"`
	ReviewedBy  *uint      `json:"reviewed_by"`
	ReviewedAt  *time.Time `json:"reviewed_at"`
	CreatedAt   time.Time  `json:"created_at"`
}

// NewMembershipResponse converts a membership model into a DTO.
func NewMembershipResponse(model models.ClassroomMembership) MembershipResponse {
	return MembershipResponse{
		ID:          model.ID,
		UserID:      model.UserID,
		ClassroomID: model.ClassroomID,
		Role:        model.Role,
		Status:      model.Status,
		JoinedAt:    model.JoinedAt,
		CreatedAt:   model.CreatedAt,
	}
}

// NewStaffRequestResponse converts a staff request model into a DTO.
func NewStaffRequestResponse(model models.StaffRequest) StaffRequestResponse {
	return StaffRequestResponse{
		ID:          model.ID,
		MentorID:    model.MentorID,
		ClassroomID: model.ClassroomID,
		Message:     model.Message,
		Status:      model.Status,
		ReviewedBy:  model.ReviewedBy,
		ReviewedAt:  model.ReviewedAt,
		AdminNotes:  model.AdminNotes,
		CreatedAt:   model.CreatedAt,
	}
}

// NewResignationResponse converts a resignation model into a DTO.
func NewResignationResponse(model models.ResignationRequest) ResignationResponse {
	return ResignationResponse{
		ID:          model.ID,
		MentorID:    model.MentorID,
		ClassroomID: model.ClassroomID,
		Reason:      model.Reason,
		Status:      model.Status,
		ReviewedBy:  model.ReviewedBy,
		ReviewedAt:  model.ReviewedAt,
		CreatedAt:   model.CreatedAt,
	}
}
