package dto

import "time"

type CommunityStats struct {
	TotalUsers      int64     `json:"total_users"`
	ActivitiesToday int64     `json:"activities_today"`
	XPLoggedToday   int64     `json:"xp_logged_today"`
	ActiveToday     int64     `json:"active_students_today"`
	Since           time.Time `json:"since"`
}
