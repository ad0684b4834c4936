package streak

import (
	"time"
)

// State is the per-user streak record. LastUploadDate carries a calendar date:
// only its year, month and day are meaningful.
type State struct {
	UserID          string     `json:"user_id" db:"user_id"`
	CurrentStreak   int        `json:"current_streak" db:"current_streak"`
	LongestStreak   int        `json:"longest_streak" db:"longest_streak"`
	TotalUploads    int        `json:"total_uploads" db:"total_uploads"`
	LastUploadDate  *time.Time `json:"last_upload_date" db:"last_upload_date"`
	LastStreakReset time.Time  `json:"last_streak_reset" db:"last_streak_reset"`
	UpdatedAt       time.Time  `json:"updated_at" db:"updated_at"`
}

// Response is what the streak endpoint returns.
type Response struct {
	State
	ConsistencyScore int `json:"consistency_score"`
}
