package activity

import (
	"strings"
	"time"
)

type Category string

const (
	CategoryWorkout Category = "workout"
	CategoryMeal    Category = "meal"
)

// ParseCategory accepts "workout", "meal" and the legacy "diet" alias.
func ParseCategory(s string) (Category, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "workout":
		return CategoryWorkout, true
	case "meal", "diet":
		return CategoryMeal, true
	}
	return "", false
}

type Log struct {
	ID            string    `json:"id" db:"id"`
	UserID        string    `json:"user_id" db:"user_id"`
	Category      Category  `json:"type" db:"category"`
	Title         string    `json:"title" db:"title"`
	Description   string    `json:"description,omitempty" db:"description"`
	DetectedLabel string    `json:"detected_label" db:"detected_label"`
	Suggestions   []string  `json:"suggestions" db:"suggestions"`
	FileID        string    `json:"file_id" db:"file_id"`
	ViewURL       string    `json:"image_url" db:"view_url"`
	Timestamp     time.Time `json:"timestamp" db:"logged_at"`
}

type UploadRequest struct {
	Category    Category
	Title       string
	Description string
	FileName    string
	ContentType string
	Data        []byte
}

type UploadResponse struct {
	Message       string   `json:"message"`
	LogID         string   `json:"log_id"`
	ImageURL      string   `json:"image_url"`
	FileID        string   `json:"file_id"`
	DetectedLabel string   `json:"detected_label"`
	Suggestions   []string `json:"suggestions"`
	CurrentStreak int      `json:"current_streak"`
	LongestStreak int      `json:"longest_streak"`
}
