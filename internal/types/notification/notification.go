package notification

import (
	"time"
)

type NotificationType string

const (
	TypeMissedLog    NotificationType = "missed_log"
	TypeCycleSummary NotificationType = "cycle_summary"
)

// Settings are the user's email reminder toggles. Both default to true.
type Settings struct {
	MotivationalReminders bool `json:"motivational_reminders" db:"motivational_reminders"`
	ConsistencyAlerts     bool `json:"consistency_alerts" db:"consistency_alerts"`
}

func DefaultSettings() Settings {
	return Settings{MotivationalReminders: true, ConsistencyAlerts: true}
}

// Payload is the ledger record of a sent message.
type Payload struct {
	Subject       string `json:"subject"`
	CurrentStreak int    `json:"current_streak"`
	LongestStreak int    `json:"longest_streak"`
}

type SentRecord struct {
	UserID  string           `json:"user_id" db:"user_id"`
	Type    NotificationType `json:"type" db:"type"`
	Day     time.Time        `json:"day" db:"day"`
	Payload Payload          `json:"payload" db:"payload"`
	SentAt  time.Time        `json:"sent_at" db:"sent_at"`
}

type DeviceToken struct {
	Token    string `json:"token"`
	Platform string `json:"platform"`
}

type RegisterDeviceRequest struct {
	Token    string `json:"token" validate:"required"`
	Platform string `json:"platform" validate:"required,oneof=ios android web"`
}

type UpdateSettingsRequest struct {
	MotivationalReminders *bool `json:"motivational_reminders,omitempty"`
	ConsistencyAlerts     *bool `json:"consistency_alerts,omitempty"`
}
