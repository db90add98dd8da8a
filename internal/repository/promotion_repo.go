package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/laras-id/laras-api/internal/models"
)

// PromotionRepository persists role upgrade requests: mentor applications and
// master-role requests. Decisions go through ReviewRepository.
type PromotionRepository interface {
	// CreateMasterRoleRequest inserts a pending request unless the mentor
	// already has one open.
	CreateMasterRoleRequest(ctx context.Context, request *models.MasterRoleRequest) error
	// CreateMentorApplication inserts a pending application unless the user
	// already has one open.
	CreateMentorApplication(ctx context.Context, application *models.MentorApplication) error
}

type promotionRepository struct {
	db *gorm.DB
}

// NewPromotionRepository constructs a repository backed by GORM.
func NewPromotionRepository(db *gorm.DB) PromotionRepository {
	return &promotionRepository{db: db}
}

func (r *promotionRepository) CreateMasterRoleRequest(ctx context.Context, request *models.MasterRoleRequest) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var pending int64
		err := lockForUpdate(tx).
			Model(&models.MasterRoleRequest{}).
			Where("mentor_id = ? AND status = ?", request.MentorID, models.ReviewStatusPending).
			Count(&pending).Error
		if err != nil {
			return err
		}
		if pending > 0 {
			return ErrDuplicatePending
		}
		request.Status = models.ReviewStatusPending
		return tx.Create(request).Error
	})
}

func (r *promotionRepository) CreateMentorApplication(ctx context.Context, application *models.MentorApplication) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var pending int64
		err := lockForUpdate(tx).
			Model(&models.MentorApplication{}).
			Where("user_id = ? AND status = ?", application.UserID, models.ReviewStatusPending).
			Count(&pending).Error
		if err != nil {
			return err
		}
		if pending > 0 {
			return ErrDuplicatePending
		}
		application.Status = models.ReviewStatusPending
		return tx.Create(application).Error
	})
}
