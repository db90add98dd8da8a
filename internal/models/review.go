package models

import "time"

// Review statuses shared by every admin/master reviewed request. Approved and
// rejected are terminal; a second decision on a decided request must fail.
const (
	ReviewStatusPending  = "pending"
	ReviewStatusApproved = "approved"
	ReviewStatusRejected = "rejected"
)

// StaffRequest is a mentor's application to co-teach in another master's classroom.
type StaffRequest struct {
	ID          uint       `gorm:"primaryKey" json:"id"`
	MentorID    uint       `gorm:"not null;index" json:"mentor_id"`
	ClassroomID uint       `gorm:"not null;index" json:"classroom_id"`
	Message     string     `gorm:"type:text" json:"message"`
	Status      string     `gorm:"size:32;not null;default:pending" json:"status"`
	ReviewedBy  *uint      `json:"reviewed_by"`
	ReviewedAt  *time.Time `json:"reviewed_at"`
	AdminNotes  string     `gorm:"type:text" json:"admin_notes"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// ResignationRequest is a staff mentor's request to leave a classroom.
type ResignationRequest struct {
	ID          uint       `gorm:"primaryKey" json:"id"`
	MentorID    uint       `gorm:"not null;index" json:"mentor_id"`
	ClassroomID uint       `gorm:"not null;index" json:"classroom_id"`
	Reason      string     `gorm:"type:text" json:"reason"`
	Status      string     `gorm:"size:32;not null;default:pending" json:"status"`
	ReviewedBy  *uint      `json:"reviewed_by"`
	ReviewedAt  *time.Time `json:"reviewed_at"`
	AdminNotes  string     `gorm:"type:text" json:"admin_notes"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// MasterRoleRequest asks an admin to promote a mentor to classroom master.
type MasterRoleRequest struct {
	ID         uint       `gorm:"primaryKey" json:"id"`
	MentorID   uint       `gorm:"not null;index" json:"mentor_id"`
	Message    string     `gorm:"type:text" json:"message"`
	Status     string     `gorm:"size:32;not null;default:pending" json:"status"`
	ReviewedBy *uint      `json:"reviewed_by"`
	ReviewedAt *time.Time `json:"reviewed_at"`
	AdminNotes string     `gorm:"type:text" json:"admin_notes"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

// MentorApplication asks an admin to promote a student account to mentor.
type MentorApplication struct {
	ID         uint       `gorm:"primaryKey" json:"id"`
	UserID     uint       `gorm:"not null;index" json:"user_id"`
	Bio        string     `gorm:"type:text" json:"bio"`
	Experience string     `gorm:"type:text" json:"experience"`
	Status     string     `gorm:"size:32;not null;default:pending" json:"status"`
	ReviewedBy *uint      `json:"reviewed_by"`
	ReviewedAt *time.Time `json:"reviewed_at"`
	AdminNotes string     `gorm:"type:text" json:"admin_notes"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}
