package filestore

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fitLogAPI/internal/types/activity"
)

type flakyStore struct {
	failures int
	calls    int
	deletes  int
}

func (f *flakyStore) Put(ctx context.Context, obj Object) (Ref, error) {
	f.calls++
	if f.calls <= f.failures {
		return Ref{}, errors.New("503 backend unavailable")
	}
	return Ref{FileID: "file-1", ViewURL: directLinkBase + "file-1"}, nil
}

func (f *flakyStore) Delete(ctx context.Context, fileID string) error {
	f.deletes++
	if f.deletes <= f.failures {
		return errors.New("503 backend unavailable")
	}
	return nil
}

func TestRetryingSucceedsAfterTransientFailures(t *testing.T) {
	inner := &flakyStore{failures: 2}
	r := WithRetry(inner, DefaultAttempts, time.Millisecond)

	ref, err := r.Put(context.Background(), Object{Name: "a.jpg"})

	require.NoError(t, err)
	assert.Equal(t, "file-1", ref.FileID)
	assert.Equal(t, 3, inner.calls)
}

func TestRetryingGivesUpAfterMaxAttempts(t *testing.T) {
	inner := &flakyStore{failures: 5}
	r := WithRetry(inner, DefaultAttempts, time.Millisecond)

	_, err := r.Put(context.Background(), Object{Name: "a.jpg"})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "after 3 attempts")
	assert.Equal(t, 3, inner.calls)
}

func TestRetryingStopsOnCancelledContext(t *testing.T) {
	inner := &flakyStore{failures: 5}
	r := WithRetry(inner, DefaultAttempts, time.Hour)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := r.Delete(ctx, "file-1")

	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, inner.deletes)
}

func TestUserFolder(t *testing.T) {
	assert.Equal(t, "jane.doe_logs", userFolder("jane.doe@example.com"))
	assert.Equal(t, "anonymous_logs", userFolder(""))
}

func TestCategoryFolder(t *testing.T) {
	assert.Equal(t, "Workouts", categoryFolder(activity.CategoryWorkout))
	assert.Equal(t, "Meals", categoryFolder(activity.CategoryMeal))
}

func TestObjectKey(t *testing.T) {
	now := time.Date(2025, 3, 1, 9, 30, 15, 250_000_000, time.UTC)
	key := objectKey(Object{OwnerEmail: "sam@example.com", Category: activity.CategoryMeal, Name: "../lunch.png"}, now)

	assert.Equal(t, "sam_logs/Meals/2025-03-01T09-30-15-250Z_lunch.png", key)
}

func TestDescribe(t *testing.T) {
	assert.Equal(t, "FitLog workout log: Leg day", describe(Object{Category: activity.CategoryWorkout, Title: "Leg day"}))
	assert.Equal(t, "FitLog meal log", describe(Object{Category: activity.CategoryMeal}))
}
