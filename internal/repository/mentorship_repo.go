package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/laras-id/laras-api/internal/models"
)

// MentorshipRepository persists mentorship requests and their conversations.
type MentorshipRepository interface {
	// CreateIfNoActive inserts a pending request unless the pair already has a
	// pending or accepted one.
	CreateIfNoActive(ctx context.Context, request *models.MentorshipRequest) error
	GetByID(ctx context.Context, id uint) (models.MentorshipRequest, error)
	// Respond flips a pending request to accepted or rejected conditionally.
	Respond(ctx context.Context, id uint, status, mentorResponse string, at time.Time) (models.MentorshipRequest, error)
	// CancelPending flips a pending request to cancelled conditionally.
	CancelPending(ctx context.Context, id uint) (models.MentorshipRequest, error)
	AppendMessage(ctx context.Context, message *models.ConversationMessage) error
	ListConversation(ctx context.Context, requestID uint) ([]models.ConversationMessage, error)
	// MarkConversationRead flips unread messages addressed to the reader. The
	// flag is monotonic; already-read rows are untouched.
	MarkConversationRead(ctx context.Context, requestID, readerID uint) error
	CountPendingForMentor(ctx context.Context, mentorID uint) (int64, error)
}

type mentorshipRepository struct {
	db *gorm.DB
}

// NewMentorshipRepository constructs a repository backed by GORM.
func NewMentorshipRepository(db *gorm.DB) MentorshipRepository {
	return &mentorshipRepository{db: db}
}

func (r *mentorshipRepository) CreateIfNoActive(ctx context.Context, request *models.MentorshipRequest) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var active int64
		err := lockForUpdate(tx).
			Model(&models.MentorshipRequest{}).
			Where("student_id = ? AND mentor_id = ? AND status IN ?",
				request.StudentID, request.MentorID,
				[]string{models.MentorshipStatusPending, models.MentorshipStatusAccepted}).
			Count(&active).Error
		if err != nil {
			return err
		}
		if active > 0 {
			return ErrDuplicatePending
		}
		request.Status = models.MentorshipStatusPending
		return tx.Create(request).Error
	})
}

func (r *mentorshipRepository) GetByID(ctx context.Context, id uint) (models.MentorshipRequest, error) {
	var request models.MentorshipRequest
	if err := r.db.WithContext(ctx).First(&request, id).Error; err != nil {
		return models.MentorshipRequest{}, err
	}
	return request, nil
}

func (r *mentorshipRepository) Respond(ctx context.Context, id uint, status, mentorResponse string, at time.Time) (models.MentorshipRequest, error) {
	updates := map[string]interface{}{
		"status":          status,
		"mentor_response": mentorResponse,
	}
	switch status {
	case models.MentorshipStatusAccepted:
		updates["accepted_at"] = at
	case models.MentorshipStatusRejected:
		updates["rejected_at"] = at
	}

	var request models.MentorshipRequest
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&models.MentorshipRequest{}).
			Where("id = ? AND status = ?", id, models.MentorshipStatusPending).
			Updates(updates)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			if err := tx.First(&request, id).Error; err != nil {
				return err
			}
			return ErrStateConflict
		}
		return tx.First(&request, id).Error
	})
	if err != nil {
		return models.MentorshipRequest{}, err
	}
	return request, nil
}

func (r *mentorshipRepository) CancelPending(ctx context.Context, id uint) (models.MentorshipRequest, error) {
	var request models.MentorshipRequest
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&models.MentorshipRequest{}).
			Where("id = ? AND status = ?", id, models.MentorshipStatusPending).
			Update("status", models.MentorshipStatusCancelled)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			if err := tx.First(&request, id).Error; err != nil {
				return err
			}
			return ErrStateConflict
		}
		return tx.First(&request, id).Error
	})
	if err != nil {
		return models.MentorshipRequest{}, err
	}
	return request, nil
}

func (r *mentorshipRepository) AppendMessage(ctx context.Context, message *models.ConversationMessage) error {
	return r.db.WithContext(ctx).Create(message).Error
}

func (r *mentorshipRepository) ListConversation(ctx context.Context, requestID uint) ([]models.ConversationMessage, error) {
	var messages []models.ConversationMessage
	err := r.db.WithContext(ctx).
		Where("request_id = ?", requestID).
		Order("created_at ASC").
		Find(&messages).Error
	return messages, err
}

func (r *mentorshipRepository) MarkConversationRead(ctx context.Context, requestID, readerID uint) error {
	return r.db.WithContext(ctx).
		Model(&models.ConversationMessage{}).
		Where("request_id = ? AND sender_id <> ? AND is_read = ?", requestID, readerID, false).
		Update("is_read", true).
		Error
}

func (r *mentorshipRepository) CountPendingForMentor(ctx context.Context, mentorID uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.MentorshipRequest{}).
		Where("mentor_id = ? AND status = ?", mentorID, models.MentorshipStatusPending).
		Count(&count).Error
	return count, err
}
