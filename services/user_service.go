package services

import (
	"context"
	"fmt"
	"log"
	"strings"

	"fitLogAPI/internal/store"
	"fitLogAPI/internal/types/notification"
	"fitLogAPI/internal/types/user"
)

type UserService struct {
	store store.Store
}

func NewUserService(st store.Store) *UserService {
	return &UserService{store: st}
}

// CreateUser is idempotent on the Clerk id.
func (s *UserService) CreateUser(ctx context.Context, req *user.CreateUserRequest) (*user.User, error) {
	if req.ClerkID == "" {
		return nil, fmt.Errorf("clerk id is required")
	}

	u, err := s.store.CreateUser(ctx, user.User{
		ClerkID:   req.ClerkID,
		Email:     req.Email,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Settings:  notification.DefaultSettings(),
	})
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (s *UserService) GetUserByClerkID(ctx context.Context, clerkID string) (*user.User, error) {
	u, err := s.store.GetUserByClerkID(ctx, clerkID)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (s *UserService) UpdateProfileByClerkID(ctx context.Context, clerkID string, req *user.UpdateProfileRequest) (*user.User, error) {
	u, err := s.store.UpdateUserByClerkID(ctx, clerkID, *req)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (s *UserService) DeleteUserByClerkID(ctx context.Context, clerkID string) error {
	return s.store.DeleteUserByClerkID(ctx, clerkID)
}

func (s *UserService) GetSettings(ctx context.Context, clerkID string) (*notification.Settings, error) {
	u, err := s.store.GetUserByClerkID(ctx, clerkID)
	if err != nil {
		return nil, err
	}
	return &u.Settings, nil
}

// UpdateSettings applies only the toggles present in req.
func (s *UserService) UpdateSettings(ctx context.Context, clerkID string, req *notification.UpdateSettingsRequest) (*notification.Settings, error) {
	u, err := s.store.GetUserByClerkID(ctx, clerkID)
	if err != nil {
		return nil, err
	}

	settings := u.Settings
	if req.MotivationalReminders != nil {
		settings.MotivationalReminders = *req.MotivationalReminders
	}
	if req.ConsistencyAlerts != nil {
		settings.ConsistencyAlerts = *req.ConsistencyAlerts
	}

	if err := s.store.UpdateSettings(ctx, u.ID, settings); err != nil {
		return nil, fmt.Errorf("failed to update settings: %w", err)
	}

	log.Printf("Settings: user %s reminders=%t alerts=%t", u.ID, settings.MotivationalReminders, settings.ConsistencyAlerts)
	return &settings, nil
}

func (s *UserService) RegisterDevice(ctx context.Context, clerkID string, req *notification.RegisterDeviceRequest) error {
	token := strings.TrimSpace(req.Token)
	if token == "" {
		return fmt.Errorf("%w: token is required", ErrInvalidDevice)
	}
	switch req.Platform {
	case "ios", "android", "web":
	default:
		return fmt.Errorf("%w: platform must be ios, android or web", ErrInvalidDevice)
	}

	u, err := s.store.GetUserByClerkID(ctx, clerkID)
	if err != nil {
		return err
	}

	return s.store.RegisterDevice(ctx, u.ID, notification.DeviceToken{Token: token, Platform: req.Platform})
}
