// Package store persists users, activity logs, streak state, the notification
// ledger and device tokens.
package store

import (
	"context"
	"errors"
	"time"

	"fitLogAPI/internal/types/activity"
	"fitLogAPI/internal/types/notification"
	"fitLogAPI/internal/types/streak"
	"fitLogAPI/internal/types/user"
)

var ErrNotFound = errors.New("not found")

const dateLayout = "2006-01-02"

type LogStore interface {
	Append(ctx context.Context, l activity.Log) (string, error)
	FindByUser(ctx context.Context, userID string, from, to time.Time) ([]activity.Log, error)
	FindByID(ctx context.Context, userID, id string) (activity.Log, error)
	// ListRecent returns the newest logs first. An empty category means all.
	ListRecent(ctx context.Context, userID string, category activity.Category, limit int) ([]activity.Log, error)
	DeleteByID(ctx context.Context, userID, id string) error
}

type StreakStore interface {
	GetStreak(ctx context.Context, userID string) (streak.State, error)
	// UpdateStreak runs fn on the current state and persists the result as one
	// atomic step. Users without a row start from a zero state.
	UpdateStreak(ctx context.Context, userID string, fn func(streak.State) streak.State) (streak.State, error)
	// AdjustTotalUploads adds delta to total_uploads, never going below zero.
	AdjustTotalUploads(ctx context.Context, userID string, delta int) error
}

type UserStore interface {
	CreateUser(ctx context.Context, u user.User) (user.User, error)
	GetUser(ctx context.Context, id string) (user.User, error)
	GetUserByClerkID(ctx context.Context, clerkID string) (user.User, error)
	UpdateUserByClerkID(ctx context.Context, clerkID string, req user.UpdateProfileRequest) (user.User, error)
	DeleteUserByClerkID(ctx context.Context, clerkID string) error
	UpdateSettings(ctx context.Context, userID string, s notification.Settings) error
	// UsersMissingLog lists users with motivational reminders on whose last
	// upload date is before today, or who never uploaded.
	UsersMissingLog(ctx context.Context, today time.Time) ([]user.Recipient, error)
	// UsersDueForReset lists users whose last cycle reset is at or before cutoff.
	UsersDueForReset(ctx context.Context, cutoff time.Time) ([]user.Recipient, error)
}

type DeviceStore interface {
	RegisterDevice(ctx context.Context, userID string, d notification.DeviceToken) error
	DeviceTokens(ctx context.Context, userID string) ([]notification.DeviceToken, error)
}

// Ledger records which notifications went out on which calendar day.
type Ledger interface {
	HasSent(ctx context.Context, userID string, typ notification.NotificationType, day time.Time) (bool, error)
	RecordSent(ctx context.Context, rec notification.SentRecord) error
}

type Store interface {
	LogStore
	StreakStore
	UserStore
	DeviceStore
	Ledger
	Ping(ctx context.Context) error
}

// civil formats a date-only value by its own year, month and day.
func civil(d time.Time) string {
	return d.Format(dateLayout)
}
