package models

import "time"

// Course publication states. Edges are listed in the transition table in the
// course service; anything else is an invalid transition.
const (
	CourseStatusDraft     = "draft"
	CourseStatusPending   = "pending"
	CourseStatusApproved  = "approved"
	CourseStatusPublished = "published"
	CourseStatusRejected  = "rejected"
	CourseStatusArchived  = "archived"
)

// Course is mentor-authored content gated by admin review before publication.
// Deletion is a soft flag so listings can be restored by support.
type Course struct {
	ID          uint       `gorm:"primaryKey" json:"id"`
	MentorID    uint       `gorm:"not null;index" json:"mentor_id"`
	Title       string     `gorm:"size:255;not null" json:"title"`
	Description string     `gorm:"type:text" json:"description"`
	CoverURL    string     `gorm:"size:512" json:"cover_url"`
	Status      string     `gorm:"size:32;not null;default:draft" json:"status"`
	AdminNotes  string     `gorm:"type:text" json:"admin_notes"`
	SubmittedAt *time.Time `json:"submitted_at"`
	ReviewedBy  *uint      `json:"reviewed_by"`
	ReviewedAt  *time.Time `json:"reviewed_at"`
	IsActive    bool       `gorm:"not null;default:true" json:"is_active"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}
