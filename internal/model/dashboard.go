package model

import "time"

// Achievement is a gamification badge earned by a user. Read-only here; the
// gamification subsystem owns the rows.
type Achievement struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	EarnedAt    time.Time `json:"earned_at"`
}

// DashboardStats is the composed view returned by the dashboard endpoint.
// Each field comes from an independent read; a failed sub-read leaves its
// field at the zero value instead of failing the whole response.
type DashboardStats struct {
	Points          int64           `json:"points"`
	Rank            int64           `json:"rank"`
	EnrolledCourses int64           `json:"enrolled_courses"`
	CreatedProjects int64           `json:"created_projects"`
	Achievements    []Achievement   `json:"achievements"`
	RecentActivity  []ActivityEvent `json:"recent_activity"`
}
