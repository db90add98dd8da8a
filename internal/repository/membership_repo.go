package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/laras-id/laras-api/internal/models"
)

// MembershipRepository persists classroom membership rows. Rows are only ever
// created or status-flipped; removal is a terminal status, not a delete.
type MembershipRepository interface {
	GetByID(ctx context.Context, id uint) (models.ClassroomMembership, error)
	GetByUserAndClassroom(ctx context.Context, userID, classroomID uint) (models.ClassroomMembership, error)
	// CreateStudentJoin inserts a pending student membership after verifying,
	// under a classroom row lock, that capacity remains and no membership for
	// the pair is active or pending.
	CreateStudentJoin(ctx context.Context, classroomID, userID uint, message string) (models.ClassroomMembership, error)
	// Transition flips status conditionally; a zero-row update means the row
	// left the expected state first.
	Transition(ctx context.Context, id uint, from, to string, joinedAt *time.Time) (models.ClassroomMembership, error)
	CountActiveByRole(ctx context.Context, classroomID uint, role string) (int64, error)
	HasActiveStaff(ctx context.Context, userID, classroomID uint) (bool, error)
	ListByClassroom(ctx context.Context, classroomID uint) ([]models.ClassroomMembership, error)
}

type membershipRepository struct {
	db *gorm.DB
}

// NewMembershipRepository constructs a repository backed by GORM.
func NewMembershipRepository(db *gorm.DB) MembershipRepository {
	return &membershipRepository{db: db}
}

func (r *membershipRepository) GetByID(ctx context.Context, id uint) (models.ClassroomMembership, error) {
	var membership models.ClassroomMembership
	if err := r.db.WithContext(ctx).First(&membership, id).Error; err != nil {
		return models.ClassroomMembership{}, err
	}
	return membership, nil
}

func (r *membershipRepository) GetByUserAndClassroom(ctx context.Context, userID, classroomID uint) (models.ClassroomMembership, error) {
	var membership models.ClassroomMembership
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND classroom_id = ?", userID, classroomID).
		First(&membership).Error
	if err != nil {
		return models.ClassroomMembership{}, err
	}
	return membership, nil
}

func (r *membershipRepository) CreateStudentJoin(ctx context.Context, classroomID, userID uint, message string) (models.ClassroomMembership, error) {
	var membership models.ClassroomMembership
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var classroom models.Classroom
		if err := lockForUpdate(tx).First(&classroom, classroomID).Error; err != nil {
			return err
		}

		var existing models.ClassroomMembership
		err := tx.Where("user_id = ? AND classroom_id = ?", userID, classroomID).First(&existing).Error
		switch {
		case err == nil:
			if existing.Status == models.MembershipStatusActive || existing.Status == models.MembershipStatusPending {
				return ErrAlreadyMember
			}
			// Removed members must re-apply through a fresh pending row; the
			// unique index forbids a second row, so reuse the existing one.
			membership = existing
			membership.Status = models.MembershipStatusPending
			membership.Role = models.MembershipRoleStudent
			membership.Message = message
			membership.JoinedAt = nil
			return r.guardCapacityAndSave(tx, classroom, &membership, true)
		case errors.Is(err, gorm.ErrRecordNotFound):
			membership = models.ClassroomMembership{
				UserID:      userID,
				ClassroomID: classroomID,
				Role:        models.MembershipRoleStudent,
				Status:      models.MembershipStatusPending,
				Message:     message,
			}
			return r.guardCapacityAndSave(tx, classroom, &membership, false)
		default:
			return err
		}
	})
	if err != nil {
		return models.ClassroomMembership{}, err
	}
	return membership, nil
}

func (r *membershipRepository) guardCapacityAndSave(tx *gorm.DB, classroom models.Classroom, membership *models.ClassroomMembership, reuse bool) error {
	var current int64
	if err := tx.Model(&models.ClassroomMembership{}).
		Where("classroom_id = ? AND role = ? AND status = ?", classroom.ID, models.MembershipRoleStudent, models.MembershipStatusActive).
		Count(&current).Error; err != nil {
		return err
	}
	if current >= int64(classroom.MaxStudents) {
		return ErrCapacityFull
	}
	if reuse {
		return tx.Save(membership).Error
	}
	return tx.Create(membership).Error
}

func (r *membershipRepository) Transition(ctx context.Context, id uint, from, to string, joinedAt *time.Time) (models.ClassroomMembership, error) {
	updates := map[string]interface{}{"status": to}
	if joinedAt != nil {
		updates["joined_at"] = *joinedAt
	}

	var membership models.ClassroomMembership
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&models.ClassroomMembership{}).
			Where("id = ? AND status = ?", id, from).
			Updates(updates)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			if err := tx.First(&membership, id).Error; err != nil {
				return err
			}
			return ErrStateConflict
		}
		return tx.First(&membership, id).Error
	})
	if err != nil {
		return models.ClassroomMembership{}, err
	}
	return membership, nil
}

func (r *membershipRepository) CountActiveByRole(ctx context.Context, classroomID uint, role string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.ClassroomMembership{}).
		Where("classroom_id = ? AND role = ? AND status = ?", classroomID, role, models.MembershipStatusActive).
		Count(&count).Error
	return count, err
}

func (r *membershipRepository) HasActiveStaff(ctx context.Context, userID, classroomID uint) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.ClassroomMembership{}).
		Where("user_id = ? AND classroom_id = ? AND role = ? AND status = ?",
			userID, classroomID, models.MembershipRoleStaff, models.MembershipStatusActive).
		Count(&count).Error
	return count > 0, err
}

func (r *membershipRepository) ListByClassroom(ctx context.Context, classroomID uint) ([]models.ClassroomMembership, error) {
	var memberships []models.ClassroomMembership
	err := r.db.WithContext(ctx).
		Where("classroom_id = ?", classroomID).
		Order("created_at ASC").
		Find(&memberships).Error
	return memberships, err
}

// ActivateStaffMembership creates or revives a staff membership inside an
// approval transaction.
func ActivateStaffMembership(tx *gorm.DB, userID, classroomID uint, at time.Time) error {
	var existing models.ClassroomMembership
	err := tx.Where("user_id = ? AND classroom_id = ?", userID, classroomID).First(&existing).Error
	switch {
	case err == nil:
		return tx.Model(&existing).Updates(map[string]interface{}{
			"role":      models.MembershipRoleStaff,
			"status":    models.MembershipStatusActive,
			"joined_at": at,
		}).Error
	case errors.Is(err, gorm.ErrRecordNotFound):
		membership := models.ClassroomMembership{
			UserID:      userID,
			ClassroomID: classroomID,
			Role:        models.MembershipRoleStaff,
			Status:      models.MembershipStatusActive,
			JoinedAt:    &at,
		}
		return tx.Create(&membership).Error
	default:
		return err
	}
}

// RemoveActiveMembership marks the pair's active membership removed inside an
// approval transaction. Removal of an already-removed row is a state conflict.
func RemoveActiveMembership(tx *gorm.DB, userID, classroomID uint, role string) error {
	result := tx.Model(&models.ClassroomMembership{}).
		Where("user_id = ? AND classroom_id = ? AND role = ? AND status = ?",
			userID, classroomID, role, models.MembershipStatusActive).
		Update("status", models.MembershipStatusRemoved)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrStateConflict
	}
	return nil
}
