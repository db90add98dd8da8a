package models

import "time"

// Classroom is a mentor-owned academy. Classrooms are never hard-deleted;
// deactivation flips IsActive instead.
type Classroom struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	MasterID    uint      `gorm:"not null;index" json:"master_id"`
	Name        string    `gorm:"size:255;not null" json:"name"`
	Description string    `gorm:"type:text" json:"description"`
	CustomSlug  string    `gorm:"size:255;uniqueIndex;not null" json:"custom_slug"`
	MaxStudents int       `gorm:"not null;default:30" json:"max_students"`
	IsPublic    bool      `gorm:"not null;default:true" json:"is_public"`
	IsActive    bool      `gorm:"not null;default:true" json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
