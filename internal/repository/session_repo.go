package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/laras-id/laras-api/internal/models"
)

// SessionRepository persists mentorship sessions.
type SessionRepository interface {
	// ScheduleIfFree inserts the session unless the mentor already has a
	// scheduled session overlapping its window. The mentor's scheduled rows
	// are locked for the duration of the check.
	ScheduleIfFree(ctx context.Context, session *models.MentorshipSession) error
	GetByID(ctx context.Context, id uint) (models.MentorshipSession, error)
	// Transition flips a scheduled session to a terminal status conditionally.
	Transition(ctx context.Context, id uint, to string, rating *int, feedback string) (models.MentorshipSession, error)
	ListUpcomingByMentor(ctx context.Context, mentorID uint, after time.Time, limit int) ([]models.MentorshipSession, error)
}

type sessionRepository struct {
	db *gorm.DB
}

// NewSessionRepository constructs a repository backed by GORM.
func NewSessionRepository(db *gorm.DB) SessionRepository {
	return &sessionRepository{db: db}
}

func (r *sessionRepository) ScheduleIfFree(ctx context.Context, session *models.MentorshipSession) error {
	start := session.ScheduledAt
	end := session.EndsAt()

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing []models.MentorshipSession
		err := lockForUpdate(tx).
			Where("mentor_id = ? AND status = ?", session.MentorID, models.SessionStatusScheduled).
			Find(&existing).Error
		if err != nil {
			return err
		}
		// Duration-based windows make pure-SQL overlap tests dialect-specific,
		// so compare in Go while holding the lock.
		for _, other := range existing {
			if start.Before(other.EndsAt()) && other.ScheduledAt.Before(end) {
				return ErrOverlap
			}
		}
		session.Status = models.SessionStatusScheduled
		return tx.Create(session).Error
	})
}

func (r *sessionRepository) GetByID(ctx context.Context, id uint) (models.MentorshipSession, error) {
	var session models.MentorshipSession
	if err := r.db.WithContext(ctx).First(&session, id).Error; err != nil {
		return models.MentorshipSession{}, err
	}
	return session, nil
}

func (r *sessionRepository) Transition(ctx context.Context, id uint, to string, rating *int, feedback string) (models.MentorshipSession, error) {
	updates := map[string]interface{}{"status": to}
	if rating != nil {
		updates["rating"] = *rating
	}
	if feedback != "" {
		updates["feedback"] = feedback
	}

	var session models.MentorshipSession
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&models.MentorshipSession{}).
			Where("id = ? AND status = ?", id, models.SessionStatusScheduled).
			Updates(updates)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			if err := tx.First(&session, id).Error; err != nil {
				return err
			}
			return ErrStateConflict
		}
		return tx.First(&session, id).Error
	})
	if err != nil {
		return models.MentorshipSession{}, err
	}
	return session, nil
}

func (r *sessionRepository) ListUpcomingByMentor(ctx context.Context, mentorID uint, after time.Time, limit int) ([]models.MentorshipSession, error) {
	if limit <= 0 || limit > 50 {
		limit = 10
	}
	var sessions []models.MentorshipSession
	err := r.db.WithContext(ctx).
		Where("mentor_id = ? AND status = ? AND scheduled_at >= ?", mentorID, models.SessionStatusScheduled, after).
		Order("scheduled_at ASC").
		Limit(limit).
		Find(&sessions).Error
	return sessions, err
}
