package models

import "time"

// MentorshipRequest statuses. All transitions leave pending; accepted keeps the
// conversation and session surface open without further status changes.
const (
	MentorshipStatusPending   = "pending"
	MentorshipStatusAccepted  = "accepted"
	MentorshipStatusRejected  = "rejected"
	MentorshipStatusCancelled = "cancelled"
)

// MentorshipSession statuses. Scheduled is the only non-terminal state.
const (
	SessionStatusScheduled = "scheduled"
	SessionStatusCompleted = "completed"
	SessionStatusCancelled = "cancelled"
	SessionStatusNoShow    = "no_show"
)

// MentorshipRequest is a student's solicitation for 1:1 guidance from a mentor.
type MentorshipRequest struct {
	ID             uint       `gorm:"primaryKey" json:"id"`
	StudentID      uint       `gorm:"not null;index" json:"student_id"`
	MentorID       uint       `gorm:"not null;index" json:"mentor_id"`
	Message        string     `gorm:"type:text;not null" json:"message"`
	Status         string     `gorm:"size:32;not null;default:pending" json:"status"`
	MentorResponse string     `gorm:"type:text" json:"mentor_response"`
	AcceptedAt     *time.Time `json:"accepted_at"`
	RejectedAt     *time.Time `json:"rejected_at"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

// IsParticipant reports whether the user is either side of the mentorship.
func (r MentorshipRequest) IsParticipant(userID uint) bool {
	return userID == r.StudentID || userID == r.MentorID
}

// ConversationMessage is an append-only message tied to an accepted mentorship
// request. IsRead only ever flips false to true.
type ConversationMessage struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	RequestID uint      `gorm:"not null;index" json:"request_id"`
	SenderID  uint      `gorm:"not null" json:"sender_id"`
	Message   string    `gorm:"type:text;not null" json:"message"`
	IsRead    bool      `gorm:"not null;default:false" json:"is_read"`
	CreatedAt time.Time `json:"created_at"`
}

// MentorshipSession is a scheduled meeting under an accepted request. Rating is
// only accepted at completion time.
type MentorshipSession struct {
	ID              uint      `gorm:"primaryKey" json:"id"`
	RequestID       uint      `gorm:"not null;index" json:"request_id"`
	MentorID        uint      `gorm:"not null;index" json:"mentor_id"`
	StudentID       uint      `gorm:"not null;index" json:"student_id"`
	Title           string    `gorm:"size:255;not null" json:"title"`
	ScheduledAt     time.Time `gorm:"not null" json:"scheduled_at"`
	DurationMinutes int       `gorm:"not null" json:"duration_minutes"`
	Status          string    `gorm:"size:32;not null;default:scheduled" json:"status"`
	Rating          *int      `json:"rating"`
	Feedback        string    `gorm:"type:text" json:"feedback"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// EndsAt returns the exclusive end of the session's time window.
func (s MentorshipSession) EndsAt() time.Time {
	return s.ScheduledAt.Add(time.Duration(s.DurationMinutes) * time.Minute)
}
