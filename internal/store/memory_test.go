package store

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fitLogAPI/internal/types/activity"
	"fitLogAPI/internal/types/notification"
	"fitLogAPI/internal/types/streak"
	"fitLogAPI/internal/types/user"
)

func newUser(t *testing.T, s *MemStore, clerkID string) user.User {
	t.Helper()
	u, err := s.CreateUser(context.Background(), user.User{
		ClerkID:   clerkID,
		Email:     clerkID + "@example.com",
		FirstName: "Test",
		Settings:  notification.DefaultSettings(),
	})
	require.NoError(t, err)
	return u
}

func TestMemStoreCreateUserIsIdempotent(t *testing.T) {
	s := NewMemStore()
	a := newUser(t, s, "user_1")
	b := newUser(t, s, "user_1")

	assert.Equal(t, a.ID, b.ID)

	st, err := s.GetStreak(context.Background(), a.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, st.CurrentStreak)
	assert.False(t, st.LastStreakReset.IsZero())
}

func TestMemStoreLogsQueries(t *testing.T) {
	s := NewMemStore()
	ctx := context.Background()
	u := newUser(t, s, "user_1")
	other := newUser(t, s, "user_2")
	base := time.Date(2025, 4, 1, 12, 0, 0, 0, time.UTC)

	for i := 0; i < 5; i++ {
		cat := activity.CategoryWorkout
		if i%2 == 1 {
			cat = activity.CategoryMeal
		}
		_, err := s.Append(ctx, activity.Log{UserID: u.ID, Category: cat, Timestamp: base.AddDate(0, 0, i)})
		require.NoError(t, err)
	}
	_, err := s.Append(ctx, activity.Log{UserID: other.ID, Category: activity.CategoryMeal, Timestamp: base})
	require.NoError(t, err)

	logs, err := s.FindByUser(ctx, u.ID, base.AddDate(0, 0, 1), base.AddDate(0, 0, 3))
	require.NoError(t, err)
	require.Len(t, logs, 3)
	assert.True(t, logs[0].Timestamp.Before(logs[2].Timestamp))

	recent, err := s.ListRecent(ctx, u.ID, "", 2)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.Equal(t, base.AddDate(0, 0, 4), recent[0].Timestamp)

	meals, err := s.ListRecent(ctx, u.ID, activity.CategoryMeal, 10)
	require.NoError(t, err)
	assert.Len(t, meals, 2)
}

func TestMemStoreFindAndDeleteAreScopedToOwner(t *testing.T) {
	s := NewMemStore()
	ctx := context.Background()
	u := newUser(t, s, "user_1")
	other := newUser(t, s, "user_2")

	id, err := s.Append(ctx, activity.Log{UserID: u.ID, Category: activity.CategoryWorkout, Timestamp: time.Now()})
	require.NoError(t, err)

	_, err = s.FindByID(ctx, other.ID, id)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, s.DeleteByID(ctx, other.ID, id), ErrNotFound)

	got, err := s.FindByID(ctx, u.ID, id)
	require.NoError(t, err)
	assert.Equal(t, id, got.ID)

	require.NoError(t, s.DeleteByID(ctx, u.ID, id))
	assert.ErrorIs(t, s.DeleteByID(ctx, u.ID, id), ErrNotFound)
}

func TestMemStoreUpdateStreakIsAtomic(t *testing.T) {
	s := NewMemStore()
	ctx := context.Background()
	u := newUser(t, s, "user_1")

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.UpdateStreak(ctx, u.ID, func(st streak.State) streak.State {
				st.TotalUploads++
				return st
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	st, err := s.GetStreak(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, 50, st.TotalUploads)
}

func TestMemStoreAdjustTotalUploadsFloorsAtZero(t *testing.T) {
	s := NewMemStore()
	ctx := context.Background()
	u := newUser(t, s, "user_1")

	require.NoError(t, s.AdjustTotalUploads(ctx, u.ID, 2))
	require.NoError(t, s.AdjustTotalUploads(ctx, u.ID, -5))

	st, err := s.GetStreak(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, st.TotalUploads)

	assert.ErrorIs(t, s.AdjustTotalUploads(ctx, "missing", 1), ErrNotFound)
}

func TestMemStoreUsersMissingLog(t *testing.T) {
	s := NewMemStore()
	ctx := context.Background()
	today := time.Date(2025, 4, 10, 0, 0, 0, 0, time.UTC)

	never := newUser(t, s, "never")
	logged := newUser(t, s, "logged")
	stale := newUser(t, s, "stale")
	optedOut := newUser(t, s, "opted_out")
	require.NoError(t, s.UpdateSettings(ctx, optedOut.ID, notification.Settings{MotivationalReminders: false, ConsistencyAlerts: true}))

	setLast := func(id string, d time.Time) {
		_, err := s.UpdateStreak(ctx, id, func(st streak.State) streak.State {
			st.LastUploadDate = &d
			return st
		})
		require.NoError(t, err)
	}
	setLast(logged.ID, today)
	setLast(stale.ID, today.AddDate(0, 0, -1))
	setLast(optedOut.ID, today.AddDate(0, 0, -3))

	got, err := s.UsersMissingLog(ctx, today)
	require.NoError(t, err)

	ids := map[string]bool{}
	for _, r := range got {
		ids[r.ID] = true
	}
	assert.True(t, ids[never.ID])
	assert.True(t, ids[stale.ID])
	assert.False(t, ids[logged.ID])
	assert.False(t, ids[optedOut.ID])
}

func TestMemStoreUsersDueForReset(t *testing.T) {
	s := NewMemStore()
	ctx := context.Background()
	old := newUser(t, s, "old")
	fresh := newUser(t, s, "fresh")

	cutoff := time.Now().Add(-24 * time.Hour)
	_, err := s.UpdateStreak(ctx, old.ID, func(st streak.State) streak.State {
		st.LastStreakReset = cutoff.Add(-time.Hour)
		return st
	})
	require.NoError(t, err)

	got, err := s.UsersDueForReset(ctx, cutoff)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, old.ID, got[0].ID)
	assert.NotEqual(t, fresh.ID, got[0].ID)
}

func TestMemStoreLedger(t *testing.T) {
	s := NewMemStore()
	ctx := context.Background()
	u := newUser(t, s, "user_1")
	day := time.Date(2025, 4, 10, 21, 0, 0, 0, time.UTC)

	sent, err := s.HasSent(ctx, u.ID, notification.TypeMissedLog, day)
	require.NoError(t, err)
	assert.False(t, sent)

	require.NoError(t, s.RecordSent(ctx, notification.SentRecord{UserID: u.ID, Type: notification.TypeMissedLog, Day: day}))
	require.NoError(t, s.RecordSent(ctx, notification.SentRecord{UserID: u.ID, Type: notification.TypeMissedLog, Day: day}))

	sent, err = s.HasSent(ctx, u.ID, notification.TypeMissedLog, day.Add(-20*time.Hour))
	require.NoError(t, err)
	assert.True(t, sent)

	sent, err = s.HasSent(ctx, u.ID, notification.TypeCycleSummary, day)
	require.NoError(t, err)
	assert.False(t, sent)

	sent, err = s.HasSent(ctx, u.ID, notification.TypeMissedLog, day.AddDate(0, 0, 1))
	require.NoError(t, err)
	assert.False(t, sent)
}

func TestMemStoreDevicesAndDelete(t *testing.T) {
	s := NewMemStore()
	ctx := context.Background()
	u := newUser(t, s, "user_1")

	require.NoError(t, s.RegisterDevice(ctx, u.ID, notification.DeviceToken{Token: "tok", Platform: "ios"}))
	require.NoError(t, s.RegisterDevice(ctx, u.ID, notification.DeviceToken{Token: "tok", Platform: "android"}))

	tokens, err := s.DeviceTokens(ctx, u.ID)
	require.NoError(t, err)
	require.Len(t, tokens, 1)
	assert.Equal(t, "android", tokens[0].Platform)

	require.NoError(t, s.DeleteUserByClerkID(ctx, "user_1"))
	_, err = s.GetUserByClerkID(ctx, "user_1")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = s.GetStreak(ctx, u.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}
