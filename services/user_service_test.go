package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fitLogAPI/internal/store"
	"fitLogAPI/internal/types/notification"
	"fitLogAPI/internal/types/user"
)

func TestCreateUserIsIdempotent(t *testing.T) {
	ctx := context.Background()
	svc := NewUserService(store.NewMemStore())

	first, err := svc.CreateUser(ctx, &user.CreateUserRequest{ClerkID: "user_1", Email: "a@example.com"})
	require.NoError(t, err)
	second, err := svc.CreateUser(ctx, &user.CreateUserRequest{ClerkID: "user_1", Email: "a@example.com"})
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, notification.DefaultSettings(), first.Settings)

	_, err = svc.CreateUser(ctx, &user.CreateUserRequest{Email: "b@example.com"})
	assert.Error(t, err)
}

func TestUpdateSettingsOnlyTouchesGivenToggles(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemStore()
	svc := NewUserService(st)
	createUser(t, st, "user_1", "a@example.com", "A")

	off := false
	got, err := svc.UpdateSettings(ctx, "user_1", &notification.UpdateSettingsRequest{ConsistencyAlerts: &off})
	require.NoError(t, err)
	assert.True(t, got.MotivationalReminders)
	assert.False(t, got.ConsistencyAlerts)

	stored, err := svc.GetSettings(ctx, "user_1")
	require.NoError(t, err)
	assert.Equal(t, *got, *stored)

	_, err = svc.UpdateSettings(ctx, "ghost", &notification.UpdateSettingsRequest{})
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestRegisterDevice(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemStore()
	svc := NewUserService(st)
	u := createUser(t, st, "user_1", "a@example.com", "A")

	require.NoError(t, svc.RegisterDevice(ctx, "user_1", &notification.RegisterDeviceRequest{Token: " tok ", Platform: "android"}))
	require.NoError(t, svc.RegisterDevice(ctx, "user_1", &notification.RegisterDeviceRequest{Token: "tok", Platform: "android"}))

	tokens, err := st.DeviceTokens(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, []notification.DeviceToken{{Token: "tok", Platform: "android"}}, tokens)

	err = svc.RegisterDevice(ctx, "user_1", &notification.RegisterDeviceRequest{Token: "tok", Platform: "blackberry"})
	assert.ErrorIs(t, err, ErrInvalidDevice)
	err = svc.RegisterDevice(ctx, "user_1", &notification.RegisterDeviceRequest{Platform: "ios"})
	assert.ErrorIs(t, err, ErrInvalidDevice)
}

func TestDeleteUserRemovesEverything(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemStore()
	svc := NewUserService(st)
	u := createUser(t, st, "user_1", "a@example.com", "A")

	require.NoError(t, svc.DeleteUserByClerkID(ctx, "user_1"))

	_, err := svc.GetUserByClerkID(ctx, "user_1")
	assert.ErrorIs(t, err, store.ErrNotFound)
	_, err = st.GetStreak(ctx, u.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)
}
