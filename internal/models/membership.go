package models

import "time"

// Membership roles inside a classroom.
const (
	MembershipRoleMaster  = "master"
	MembershipRoleStaff   = "staff"
	MembershipRoleStudent = "student"
)

// Membership lifecycle. Removed is terminal; there is no way back.
const (
	MembershipStatusPending = "pending"
	MembershipStatusActive  = "active"
	MembershipStatusRemoved = "removed"
)

// ClassroomMembership links a user to a classroom with a role. At most one row
// exists per (user, classroom) pair; rows are marked removed, never deleted.
type ClassroomMembership struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	UserID      uint      `gorm:"not null;uniqueIndex:idx_membership_user_classroom" json:"user_id"`
	ClassroomID uint      `gorm:"not null;uniqueIndex:idx_membership_user_classroom" json:"classroom_id"`
	Role        string    `gorm:"size:32;not null" json:"role"`
	Status      string    `gorm:"size:32;not null;default:pending" json:"status"`
	Message     string    `gorm:"type:text" json:"message"`
	JoinedAt    *time.Time `json:"joined_at"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// IsActiveMember reports whether the membership currently grants access.
func (m ClassroomMembership) IsActiveMember() bool {
	return m.Status == MembershipStatusActive
}
