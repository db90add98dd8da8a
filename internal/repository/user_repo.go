package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/laras-id/laras-api/internal/models"
)

// UserRepository reads user accounts for authorization checks.
type UserRepository interface {
	GetByID(ctx context.Context, id uint) (models.User, error)
}

type userRepository struct {
	db *gorm.DB
}

// NewUserRepository constructs a repository backed by GORM.
func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) GetByID(ctx context.Context, id uint) (models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).First(&user, id).Error; err != nil {
		return models.User{}, err
	}
	return user, nil
}

// GrantMasterFlag promotes a mentor to classroom master inside an approval
// transaction.
func GrantMasterFlag(tx *gorm.DB, userID uint) error {
	result := tx.Model(&models.User{}).
		Where("id = ? AND role = ?", userID, models.RoleMentor).
		Update("is_master", true)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrStateConflict
	}
	return nil
}

// PromoteToMentor upgrades a student account inside an approval transaction.
func PromoteToMentor(tx *gorm.DB, userID uint) error {
	result := tx.Model(&models.User{}).
		Where("id = ? AND role = ?", userID, models.RoleStudent).
		Update("role", models.RoleMentor)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrStateConflict
	}
	return nil
}
