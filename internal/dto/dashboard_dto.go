package dto

// MentorDashboardResponse aggregates a mentor's pending workload and upcoming
// sessions. Served from cache when fresh.
type MentorDashboardResponse struct {
	PendingMentorshipRequests int64             `json:"pending_mentorship_requests"`
	PendingStaffRequests      int64             `json:"pending_staff_requests"`
	UpcomingSessions          []SessionResponse `json:"upcoming_sessions"`
	CachedAt                  string            `json:"cached_at,omitempty"`
}
