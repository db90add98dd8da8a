package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/laras-id/laras-api/internal/models"
)

// StaffRequestRepository persists mentor staff applications and resignations.
// Decisions go through ReviewRepository.
type StaffRequestRepository interface {
	// CreatePending inserts a staff request unless one is already pending for
	// the pair. The existence check and insert share a transaction.
	CreatePending(ctx context.Context, request *models.StaffRequest) error
	GetByID(ctx context.Context, id uint) (models.StaffRequest, error)
	CountPendingForClassrooms(ctx context.Context, classroomIDs []uint) (int64, error)
	CreateResignation(ctx context.Context, resignation *models.ResignationRequest) error
	GetResignationByID(ctx context.Context, id uint) (models.ResignationRequest, error)
}

type staffRequestRepository struct {
	db *gorm.DB
}

// NewStaffRequestRepository constructs a repository backed by GORM.
func NewStaffRequestRepository(db *gorm.DB) StaffRequestRepository {
	return &staffRequestRepository{db: db}
}

func (r *staffRequestRepository) CreatePending(ctx context.Context, request *models.StaffRequest) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var pending int64
		err := lockForUpdate(tx).
			Model(&models.StaffRequest{}).
			Where("mentor_id = ? AND classroom_id = ? AND status = ?",
				request.MentorID, request.ClassroomID, models.ReviewStatusPending).
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

func (r *staffRequestRepository) GetByID(ctx context.Context, id uint) (models.StaffRequest, error) {
	var request models.StaffRequest
	if err := r.db.WithContext(ctx).First(&request, id).Error; err != nil {
		return models.StaffRequest{}, err
	}
	return request, nil
}

func (r *staffRequestRepository) CountPendingForClassrooms(ctx context.Context, classroomIDs []uint) (int64, error) {
	if len(classroomIDs) == 0 {
		return 0, nil
	}
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.StaffRequest{}).
		Where("classroom_id IN ? AND status = ?", classroomIDs, models.ReviewStatusPending).
		Count(&count).Error
	return count, err
}

func (r *staffRequestRepository) CreateResignation(ctx context.Context, resignation *models.ResignationRequest) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var pending int64
		err := tx.Model(&models.ResignationRequest{}).
			Where("mentor_id = ? AND classroom_id = ? AND status = ?",
				resignation.MentorID, resignation.ClassroomID, models.ReviewStatusPending).
			Count(&pending).Error
		if err != nil {
			return err
		}
		if pending > 0 {
			return ErrDuplicatePending
		}
		resignation.Status = models.ReviewStatusPending
		return tx.Create(resignation).Error
	})
}

func (r *staffRequestRepository) GetResignationByID(ctx context.Context, id uint) (models.ResignationRequest, error) {
	var resignation models.ResignationRequest
	if err := r.db.WithContext(ctx).First(&resignation, id).Error; err != nil {
		return models.ResignationRequest{}, err
	}
	return resignation, nil
}
