package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/laras-id/laras-api/internal/models"
)

// ReviewDecision carries the reviewer's verdict for any pending request.
type ReviewDecision struct {
	Approve    bool
	ReviewerID uint
	ReviewedAt time.Time
	Notes      string
}

func (d ReviewDecision) status() string {
	if d.Approve {
		return models.ReviewStatusApproved
	}
	return models.ReviewStatusRejected
}

// ReviewRepository decides pending requests across every reviewable entity.
// Each decision is a single conditional update: the status flip only lands if
// the row is still pending, so a second reviewer loses the race and gets
// ErrStateConflict instead of silently overwriting the first verdict. The
// approval side effect runs in the same transaction.
type ReviewRepository interface {
	DecideStaffRequest(ctx context.Context, id uint, d ReviewDecision, onApprove func(tx *gorm.DB, row models.StaffRequest) error) (models.StaffRequest, error)
	DecideResignation(ctx context.Context, id uint, d ReviewDecision, onApprove func(tx *gorm.DB, row models.ResignationRequest) error) (models.ResignationRequest, error)
	DecideMasterRoleRequest(ctx context.Context, id uint, d ReviewDecision, onApprove func(tx *gorm.DB, row models.MasterRoleRequest) error) (models.MasterRoleRequest, error)
	DecideMentorApplication(ctx context.Context, id uint, d ReviewDecision, onApprove func(tx *gorm.DB, row models.MentorApplication) error) (models.MentorApplication, error)
}

type reviewRepository struct {
	db *gorm.DB
}

// NewReviewRepository constructs the shared review decision repository.
func NewReviewRepository(db *gorm.DB) ReviewRepository {
	return &reviewRepository{db: db}
}

func decideReview[T any](ctx context.Context, db *gorm.DB, id uint, d ReviewDecision, onApprove func(tx *gorm.DB, row T) error) (T, error) {
	var row T
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(new(T)).
			Where("id = ? AND status = ?", id, models.ReviewStatusPending).
			Updates(map[string]interface{}{
				"status":      d.status(),
				"reviewed_by": d.ReviewerID,
				"reviewed_at": d.ReviewedAt,
				"admin_notes": d.Notes,
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			// Distinguish a missing row from one already decided.
			if err := tx.First(&row, id).Error; err != nil {
				return err
			}
			return ErrStateConflict
		}
		if err := tx.First(&row, id).Error; err != nil {
			return err
		}
		if d.Approve && onApprove != nil {
			return onApprove(tx, row)
		}
		return nil
	})
	return row, err
}

func (r *reviewRepository) DecideStaffRequest(ctx context.Context, id uint, d ReviewDecision, onApprove func(tx *gorm.DB, row models.StaffRequest) error) (models.StaffRequest, error) {
	return decideReview(ctx, r.db, id, d, onApprove)
}

func (r *reviewRepository) DecideResignation(ctx context.Context, id uint, d ReviewDecision, onApprove func(tx *gorm.DB, row models.ResignationRequest) error) (models.ResignationRequest, error) {
	return decideReview(ctx, r.db, id, d, onApprove)
}

func (r *reviewRepository) DecideMasterRoleRequest(ctx context.Context, id uint, d ReviewDecision, onApprove func(tx *gorm.DB, row models.MasterRoleRequest) error) (models.MasterRoleRequest, error) {
	return decideReview(ctx, r.db, id, d, onApprove)
}

func (r *reviewRepository) DecideMentorApplication(ctx context.Context, id uint, d ReviewDecision, onApprove func(tx *gorm.DB, row models.MentorApplication) error) (models.MentorApplication, error) {
	return decideReview(ctx, r.db, id, d, onApprove)
}
