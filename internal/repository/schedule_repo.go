package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/laras-id/laras-api/internal/models"
)

// ScheduleRepository persists weekly class timetable entries.
type ScheduleRepository interface {
	ListActiveForInstructorDay(ctx context.Context, instructorID uint, dayOfWeek int) ([]models.Schedule, error)
	// CreateIfFree inserts the slot unless it overlaps an active entry for the
	// same instructor and day. Check and insert share a transaction with the
	// instructor's rows locked, closing the check-then-insert race.
	CreateIfFree(ctx context.Context, schedule *models.Schedule) error
	Deactivate(ctx context.Context, id uint) error
}

type scheduleRepository struct {
	db *gorm.DB
}

// NewScheduleRepository constructs a repository backed by GORM.
func NewScheduleRepository(db *gorm.DB) ScheduleRepository {
	return &scheduleRepository{db: db}
}

func (r *scheduleRepository) ListActiveForInstructorDay(ctx context.Context, instructorID uint, dayOfWeek int) ([]models.Schedule, error) {
	var schedules []models.Schedule
	err := r.db.WithContext(ctx).
		Where("instructor_id = ? AND day_of_week = ? AND is_active = ?", instructorID, dayOfWeek, true).
		Order("start_time ASC").
		Find(&schedules).Error
	return schedules, err
}

func (r *scheduleRepository) CreateIfFree(ctx context.Context, schedule *models.Schedule) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing []models.Schedule
		err := lockForUpdate(tx).
			Where("instructor_id = ? AND day_of_week = ? AND is_active = ?",
				schedule.InstructorID, schedule.DayOfWeek, true).
			Find(&existing).Error
		if err != nil {
			return err
		}
		for _, other := range existing {
			if other.Overlaps(schedule.StartTime, schedule.EndTime) {
				return ErrOverlap
			}
		}
		schedule.IsActive = true
		return tx.Create(schedule).Error
	})
}

func (r *scheduleRepository) Deactivate(ctx context.Context, id uint) error {
	result := r.db.WithContext(ctx).
		Model(&models.Schedule{}).
		Where("id = ? AND is_active = ?", id, true).
		Update("is_active", false)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
