package store

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fitLogAPI/internal/types/activity"
	"fitLogAPI/internal/types/notification"
	"fitLogAPI/internal/types/streak"
	"fitLogAPI/internal/types/user"
)

func setupTestDB(t *testing.T) *pgxpool.Pool {
	t.Helper()
	dbURL := os.Getenv("TEST_DATABASE_URL")
	if dbURL == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, dbURL)
	require.NoError(t, err)
	require.NoError(t, pool.Ping(ctx))
	require.NoError(t, Migrate(ctx, pool))

	t.Cleanup(func() {
		_, err := pool.Exec(context.Background(), "DELETE FROM users WHERE email LIKE 'test%@example.com'")
		if err != nil {
			t.Logf("Warning: failed to cleanup test data: %v", err)
		}
		pool.Close()
	})
	return pool
}

func TestPostgresStreakLifecycle(t *testing.T) {
	pool := setupTestDB(t)
	s := NewPostgresStore(pool)
	ctx := context.Background()

	clerkID := "test_" + uuid.NewString()
	u, err := s.CreateUser(ctx, user.User{
		ClerkID:  clerkID,
		Email:    "test_" + clerkID + "@example.com",
		Settings: notification.DefaultSettings(),
	})
	require.NoError(t, err)

	day := time.Date(2025, 4, 10, 0, 0, 0, 0, time.FixedZone("UTC+3", 3*3600))
	st, err := s.UpdateStreak(ctx, u.ID, func(st streak.State) streak.State {
		st.CurrentStreak, st.LongestStreak, st.TotalUploads = 1, 1, 1
		st.LastUploadDate = &day
		return st
	})
	require.NoError(t, err)
	require.NotNil(t, st.LastUploadDate)
	assert.Equal(t, "2025-04-10", civil(*st.LastUploadDate))

	missing, err := s.UsersMissingLog(ctx, day)
	require.NoError(t, err)
	for _, r := range missing {
		assert.NotEqual(t, u.ID, r.ID)
	}

	logID, err := s.Append(ctx, activity.Log{
		UserID:    u.ID,
		Category:  activity.CategoryWorkout,
		Title:     "Run",
		FileID:    "file",
		ViewURL:   "https://example.com/file",
		Timestamp: time.Now(),
	})
	require.NoError(t, err)

	got, err := s.FindByID(ctx, u.ID, logID)
	require.NoError(t, err)
	assert.Equal(t, activity.CategoryWorkout, got.Category)

	require.NoError(t, s.DeleteByID(ctx, u.ID, logID))
	require.NoError(t, s.AdjustTotalUploads(ctx, u.ID, -5))
	st, err = s.GetStreak(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, st.TotalUploads)

	rec := notification.SentRecord{UserID: u.ID, Type: notification.TypeMissedLog, Day: day}
	require.NoError(t, s.RecordSent(ctx, rec))
	require.NoError(t, s.RecordSent(ctx, rec))
	sent, err := s.HasSent(ctx, u.ID, notification.TypeMissedLog, day)
	require.NoError(t, err)
	assert.True(t, sent)

	require.NoError(t, s.DeleteUserByClerkID(ctx, clerkID))
	_, err = s.GetStreak(ctx, u.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}
