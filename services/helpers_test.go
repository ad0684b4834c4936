package services

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"fitLogAPI/internal/filestore"
	"fitLogAPI/internal/store"
	"fitLogAPI/internal/tracking"
	"fitLogAPI/internal/types/activity"
	"fitLogAPI/internal/types/streak"
	"fitLogAPI/internal/types/user"
)

type fakeFiles struct {
	mu      sync.Mutex
	put     []filestore.Object
	deleted []string
	putErr  error
}

func (f *fakeFiles) Put(ctx context.Context, obj filestore.Object) (filestore.Ref, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.putErr != nil {
		return filestore.Ref{}, f.putErr
	}
	f.put = append(f.put, obj)
	id := "file-" + strconv.Itoa(len(f.put))
	return filestore.Ref{FileID: id, ViewURL: "https://files.test/" + id}, nil
}

func (f *fakeFiles) Delete(ctx context.Context, fileID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, fileID)
	return nil
}

type sentMail struct {
	To      string
	Subject string
	HTML    string
}

type fakeMailer struct {
	mu   sync.Mutex
	sent []sentMail
	// failFor makes Send fail for these addresses
	failFor map[string]bool
	// started is closed on the first Send, which then waits on block
	started chan struct{}
	block   chan struct{}
	once    sync.Once
}

func (m *fakeMailer) Send(ctx context.Context, to, subject, html string) error {
	if m.started != nil {
		m.once.Do(func() { close(m.started) })
	}
	if m.block != nil {
		<-m.block
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failFor[to] {
		return errors.New("smtp unavailable")
	}
	m.sent = append(m.sent, sentMail{To: to, Subject: subject, HTML: html})
	return nil
}

func (m *fakeMailer) sentTo(to string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, s := range m.sent {
		if s.To == to {
			n++
		}
	}
	return n
}

// failingStreaks breaks streak updates to exercise upload compensation.
type failingStreaks struct {
	*store.MemStore
}

func (f failingStreaks) UpdateStreak(ctx context.Context, userID string, fn func(streak.State) streak.State) (streak.State, error) {
	return streak.State{}, errors.New("connection reset")
}

// brokenRecipients fails the daily check's recipient scan.
type brokenRecipients struct {
	*store.MemStore
}

func (b brokenRecipients) UsersMissingLog(ctx context.Context, today time.Time) ([]user.Recipient, error) {
	return nil, errors.New("connection reset")
}

func createUser(t *testing.T, st store.Store, clerkID, email, first string) user.User {
	t.Helper()
	svc := NewUserService(st)
	u, err := svc.CreateUser(context.Background(), &user.CreateUserRequest{
		ClerkID:   clerkID,
		Email:     email,
		FirstName: first,
	})
	require.NoError(t, err)
	return *u
}

func appendLog(t *testing.T, st store.Store, userID string, cat activity.Category, at time.Time) {
	t.Helper()
	_, err := st.Append(context.Background(), activity.Log{
		UserID:    userID,
		Category:  cat,
		Title:     "log",
		Timestamp: at,
	})
	require.NoError(t, err)
}

func setStreak(t *testing.T, st store.Store, userID string, fn func(streak.State) streak.State) {
	t.Helper()
	_, err := st.UpdateStreak(context.Background(), userID, fn)
	require.NoError(t, err)
}

func newEngine(st store.Store) *tracking.Engine {
	return tracking.NewEngine(st, st, time.UTC)
}

var pngBytes = []byte("\x89PNG\r\n\x1a\nfake image data")
