package models

import "time"

// Schedule is a recurring weekly class slot bound to an instructor and a
// classroom. Times are zero-padded 24-hour HH:MM strings, which makes
// lexicographic comparison equivalent to temporal comparison. DayOfWeek uses
// Sunday=0.
type Schedule struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	ClassroomID  uint      `gorm:"not null;index" json:"classroom_id"`
	Title        string    `gorm:"size:255;not null" json:"title"`
	DayOfWeek    int       `gorm:"not null;index:idx_schedule_instructor_day" json:"day_of_week"`
	StartTime    string    `gorm:"size:5;not null" json:"start_time"`
	EndTime      string    `gorm:"size:5;not null" json:"end_time"`
	InstructorID uint      `gorm:"not null;index:idx_schedule_instructor_day" json:"instructor_id"`
	MaxStudents  int       `gorm:"not null;default:20" json:"max_students"`
	IsActive     bool      `gorm:"not null;default:true" json:"is_active"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Overlaps reports whether the half-open [start, end) windows intersect.
// Adjacent slots sharing a boundary do not overlap.
func (s Schedule) Overlaps(startTime, endTime string) bool {
	return startTime < s.EndTime && s.StartTime < endTime
}
