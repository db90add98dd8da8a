package models

import "time"

// User roles. Role changes only happen through the review workflows.
const (
	RoleStudent = "student"
	RoleMentor  = "mentor"
	RoleAdmin   = "admin"
)

// User represents a platform account. Identity is immutable after creation.
type User struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"size:255;not null" json:"name"`
	Email     string    `gorm:"size:255;uniqueIndex;not null" json:"email"`
	Role      string    `gorm:"size:32;not null;default:student" json:"role"`
	IsMaster  bool      `gorm:"not null;default:false" json:"is_master"`
	IsActive  bool      `gorm:"not null;default:true" json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// CanOwnClassroom reports whether the user may create and run an academy.
func (u User) CanOwnClassroom() bool {
	return u.Role == RoleMentor && u.IsMaster
}
