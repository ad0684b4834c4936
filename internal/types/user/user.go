package user

import (
	"time"

	"fitLogAPI/internal/types/notification"
	"fitLogAPI/internal/types/streak"
)

type User struct {
	ID        string                `json:"id"`
	ClerkID   string                `json:"clerkId"`
	Email     string                `json:"email"`
	FirstName string                `json:"firstName"`
	LastName  string                `json:"lastName"`
	Settings  notification.Settings `json:"notificationSettings"`
	CreatedAt time.Time             `json:"createdAt"`
	UpdatedAt time.Time             `json:"updatedAt"`
}

// Recipient is a user selected by a notifier scan together with their streak.
type Recipient struct {
	User
	Streak streak.State
}
