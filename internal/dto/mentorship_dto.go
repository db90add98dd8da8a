package dto

import (
	"time"

	"github.com/laras-id/laras-api/internal/models"
)

// MentorshipRequestCreate is a student's solicitation payload. Messages shorter
// than ten characters are rejected before any lookup happens.
type MentorshipRequestCreate struct {
	MentorID uint   `json:"mentor_id" validate:"required,gt=0"`
	Message  string `json:"message" validate:"required,min=10,max=2000"`
}

// MentorshipRespondRequest carries a mentor's accept/reject decision.
type MentorshipRespondRequest struct {
	Decision       string `json:"decision" validate:"required,oneof=accepted rejected"`
	MentorResponse string `json:"mentor_response" validate:"omitempty,max=2000"`
}

// ConversationMessageCreate appends a message to an accepted mentorship.
type ConversationMessageCreate struct {
	Message string `json:"message" validate:"required,min=1,max=4000"`
}

// SessionScheduleRequest books a session against an accepted mentorship.
type SessionScheduleRequest struct {
	RequestID       uint      `json:"request_id" validate:"required,gt=0"`
	Title           string    `json:"title" validate:"required,min=3,max=255"`
	ScheduledAt     time.Time `json:"scheduled_at" validate:"required"`
	DurationMinutes int       `json:"duration_minutes" validate:"required,gt=0,lte=480"`
}

// SessionStatusRequest resolves a scheduled session. Rating is only honoured on
// completion.
type SessionStatusRequest struct {
	Status   string `json:"status" validate:"required,oneof=completed cancelled no_show"`
	Rating   *int   `json:"rating" validate:"omitempty,gte=1,lte=5"`
	Feedback string `json:"feedback" validate:"omitempty,max=4000"`
}

// MentorshipRequestResponse serializes a mentorship request.
type MentorshipRequestResponse struct {
	ID             uint       `json:"id"`
	StudentID      uint       `json:"student_id"`
	MentorID       uint       `json:"mentor_id"`
	Message        string     `json:"message"`
	Status         string     `json:"status"`
	MentorResponse string     `json:"mentor_response"`
	AcceptedAt     *time.Time `json:"accepted_at"`
	RejectedAt     *time.Time `json:"rejected_at"`
	CreatedAt      time.Time  `json:"created_at"`
}

// ConversationMessageResponse serializes a single conversation message.
type ConversationMessageResponse struct {
	ID        uint      `json:"id"`
	RequestID uint      `json:"request_id"`
	SenderID  uint      `json:"sender_id"`
	Message   string    `json:"message"`
	IsRead    bool      `json:"is_read"`
	CreatedAt time.Time `json:"created_at"`
}

// SessionResponse serializes a mentorship session.
type SessionResponse struct {
	ID              uint      `json:"id"`
	RequestID       uint      `json:"request_id"`
	MentorID        uint      `json:"mentor_id"`
	StudentID       uint      `json:"student_id"`
	Title           string    `json:"title"`
	ScheduledAt     time.Time `json:"scheduled_at"`
	DurationMinutes int       `json:"duration_minutes"`
	Status          string    `json:"status"`
	Rating          *int      `json:"rating"`
	Feedback        string    `json:"feedback"`
	CreatedAt       time.Time `json:"created_at"`
}

// NewMentorshipRequestResponse converts a mentorship request model into a DTO.
func NewMentorshipRequestResponse(model models.MentorshipRequest) MentorshipRequestResponse {
	return MentorshipRequestResponse{
		ID:             model.ID,
		StudentID:      model.StudentID,
		MentorID:       model.MentorID,
		Message:        model.Message,
		Status:         model.Status,
		MentorResponse: model.MentorResponse,
		AcceptedAt:     model.AcceptedAt,
		RejectedAt:     model.RejectedAt,
		CreatedAt:      model.CreatedAt,
	}
}

// NewConversationMessageResponse converts a conversation message into a DTO.
func NewConversationMessageResponse(model models.ConversationMessage) ConversationMessageResponse {
	return ConversationMessageResponse{
		ID:        model.ID,
		RequestID: model.RequestID,
		SenderID:  model.SenderID,
		Message:   model.Message,
		IsRead:    model.IsRead,
		CreatedAt: model.CreatedAt,
	}
}

// NewConversationMessageResponseSlice converts conversation messages for list endpoints.
func NewConversationMessageResponseSlice(items []models.ConversationMessage) []ConversationMessageResponse {
	responses := make([]ConversationMessageResponse, 0, len(items))
	for _, item := range items {
		responses = append(responses, NewConversationMessageResponse(item))
	}
	return responses
}

// NewSessionResponse converts a session model into a DTO.
func NewSessionResponse(model models.MentorshipSession) SessionResponse {
	return SessionResponse{
		ID:              model.ID,
		RequestID:       model.RequestID,
		MentorID:        model.MentorID,
		StudentID:       model.StudentID,
		Title:           model.Title,
		ScheduledAt:     model.ScheduledAt,
		DurationMinutes: model.DurationMinutes,
		Status:          model.Status,
		Rating:          model.Rating,
		Feedback:        model.Feedback,
		CreatedAt:       model.CreatedAt,
	}
}
