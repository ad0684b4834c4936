package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"fitLogAPI/internal/types/activity"
	"fitLogAPI/internal/types/notification"
	"fitLogAPI/internal/types/streak"
	"fitLogAPI/internal/types/user"
)

// MemStore is a thread-safe in-process Store used by tests and local runs.
type MemStore struct {
	mu      sync.RWMutex
	users   map[string]user.User
	clerk   map[string]string // clerk id -> user id
	logs    map[string]activity.Log
	streaks map[string]streak.State
	devices map[string][]notification.DeviceToken
	ledger  map[string]notification.SentRecord
	now     func() time.Time
}

func NewMemStore() *MemStore {
	return &MemStore{
		users:   make(map[string]user.User),
		clerk:   make(map[string]string),
		logs:    make(map[string]activity.Log),
		streaks: make(map[string]streak.State),
		devices: make(map[string][]notification.DeviceToken),
		ledger:  make(map[string]notification.SentRecord),
		now:     time.Now,
	}
}

func (m *MemStore) Ping(ctx context.Context) error {
	return ctx.Err()
}

// --- Logs ---

func (m *MemStore) Append(ctx context.Context, l activity.Log) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if l.ID == "" {
		l.ID = uuid.New().String()
	}
	l.Suggestions = append([]string(nil), l.Suggestions...)
	m.logs[l.ID] = l
	return l.ID, nil
}

func (m *MemStore) FindByUser(ctx context.Context, userID string, from, to time.Time) ([]activity.Log, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []activity.Log
	for _, l := range m.logs {
		if l.UserID != userID || l.Timestamp.Before(from) || l.Timestamp.After(to) {
			continue
		}
		out = append(out, l)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Timestamp.Before(out[j].Timestamp) })
	return out, nil
}

func (m *MemStore) FindByID(ctx context.Context, userID, id string) (activity.Log, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	l, ok := m.logs[id]
	if !ok || l.UserID != userID {
		return activity.Log{}, ErrNotFound
	}
	return l, nil
}

func (m *MemStore) ListRecent(ctx context.Context, userID string, category activity.Category, limit int) ([]activity.Log, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []activity.Log
	for _, l := range m.logs {
		if l.UserID != userID || (category != "" && l.Category != category) {
			continue
		}
		out = append(out, l)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Timestamp.After(out[j].Timestamp) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *MemStore) DeleteByID(ctx context.Context, userID, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	l, ok := m.logs[id]
	if !ok || l.UserID != userID {
		return ErrNotFound
	}
	delete(m.logs, id)
	return nil
}

// --- Streaks ---

func (m *MemStore) GetStreak(ctx context.Context, userID string) (streak.State, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	st, ok := m.streaks[userID]
	if !ok {
		return streak.State{}, ErrNotFound
	}
	return st, nil
}

func (m *MemStore) UpdateStreak(ctx context.Context, userID string, fn func(streak.State) streak.State) (streak.State, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	st, ok := m.streaks[userID]
	if !ok {
		st = streak.State{UserID: userID, LastStreakReset: m.now()}
	}
	next := fn(st)
	next.UserID = userID
	next.UpdatedAt = m.now()
	m.streaks[userID] = next
	return next, nil
}

func (m *MemStore) AdjustTotalUploads(ctx context.Context, userID string, delta int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	st, ok := m.streaks[userID]
	if !ok {
		return ErrNotFound
	}
	st.TotalUploads = max(0, st.TotalUploads+delta)
	st.UpdatedAt = m.now()
	m.streaks[userID] = st
	return nil
}

// --- Users ---

func (m *MemStore) CreateUser(ctx context.Context, u user.User) (user.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if id, ok := m.clerk[u.ClerkID]; ok {
		return m.users[id], nil
	}
	now := m.now()
	if u.ID == "" {
		u.ID = uuid.New().String()
	}
	u.CreatedAt, u.UpdatedAt = now, now
	m.users[u.ID] = u
	m.clerk[u.ClerkID] = u.ID
	if _, ok := m.streaks[u.ID]; !ok {
		m.streaks[u.ID] = streak.State{UserID: u.ID, LastStreakReset: now, UpdatedAt: now}
	}
	return u, nil
}

func (m *MemStore) GetUser(ctx context.Context, id string) (user.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	u, ok := m.users[id]
	if !ok {
		return user.User{}, ErrNotFound
	}
	return u, nil
}

func (m *MemStore) GetUserByClerkID(ctx context.Context, clerkID string) (user.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	id, ok := m.clerk[clerkID]
	if !ok {
		return user.User{}, ErrNotFound
	}
	return m.users[id], nil
}

func (m *MemStore) UpdateUserByClerkID(ctx context.Context, clerkID string, req user.UpdateProfileRequest) (user.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	id, ok := m.clerk[clerkID]
	if !ok {
		return user.User{}, ErrNotFound
	}
	u := m.users[id]
	if req.Email != "" {
		u.Email = req.Email
	}
	if req.FirstName != "" {
		u.FirstName = req.FirstName
	}
	if req.LastName != "" {
		u.LastName = req.LastName
	}
	u.UpdatedAt = m.now()
	m.users[id] = u
	return u, nil
}

func (m *MemStore) DeleteUserByClerkID(ctx context.Context, clerkID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	id, ok := m.clerk[clerkID]
	if !ok {
		return ErrNotFound
	}
	delete(m.clerk, clerkID)
	delete(m.users, id)
	delete(m.streaks, id)
	delete(m.devices, id)
	for logID, l := range m.logs {
		if l.UserID == id {
			delete(m.logs, logID)
		}
	}
	for key, rec := range m.ledger {
		if rec.UserID == id {
			delete(m.ledger, key)
		}
	}
	return nil
}

func (m *MemStore) UpdateSettings(ctx context.Context, userID string, s notification.Settings) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	u, ok := m.users[userID]
	if !ok {
		return ErrNotFound
	}
	u.Settings = s
	u.UpdatedAt = m.now()
	m.users[userID] = u
	return nil
}

func (m *MemStore) UsersMissingLog(ctx context.Context, today time.Time) ([]user.Recipient, error) {
	return m.recipients(func(u user.User, st streak.State) bool {
		if !u.Settings.MotivationalReminders {
			return false
		}
		return st.LastUploadDate == nil || civil(*st.LastUploadDate) < civil(today)
	}), nil
}

func (m *MemStore) UsersDueForReset(ctx context.Context, cutoff time.Time) ([]user.Recipient, error) {
	return m.recipients(func(u user.User, st streak.State) bool {
		return !st.LastStreakReset.After(cutoff)
	}), nil
}

func (m *MemStore) recipients(keep func(user.User, streak.State) bool) []user.Recipient {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []user.Recipient
	for id, u := range m.users {
		st, ok := m.streaks[id]
		if !ok {
			st = streak.State{UserID: id, LastStreakReset: u.CreatedAt}
		}
		if keep(u, st) {
			out = append(out, user.Recipient{User: u, Streak: st})
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}

// --- Devices ---

func (m *MemStore) RegisterDevice(ctx context.Context, userID string, d notification.DeviceToken) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.users[userID]; !ok {
		return ErrNotFound
	}
	for i, existing := range m.devices[userID] {
		if existing.Token == d.Token {
			m.devices[userID][i] = d
			return nil
		}
	}
	m.devices[userID] = append(m.devices[userID], d)
	return nil
}

func (m *MemStore) DeviceTokens(ctx context.Context, userID string) ([]notification.DeviceToken, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return append([]notification.DeviceToken(nil), m.devices[userID]...), nil
}

// --- Ledger ---

func ledgerKey(userID string, typ notification.NotificationType, day time.Time) string {
	return userID + "|" + string(typ) + "|" + civil(day)
}

func (m *MemStore) HasSent(ctx context.Context, userID string, typ notification.NotificationType, day time.Time) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	_, ok := m.ledger[ledgerKey(userID, typ, day)]
	return ok, nil
}

// RecordSent keeps the first record for a (user, type, day) key.
func (m *MemStore) RecordSent(ctx context.Context, rec notification.SentRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := ledgerKey(rec.UserID, rec.Type, rec.Day)
	if _, ok := m.ledger[key]; ok {
		return nil
	}
	if rec.SentAt.IsZero() {
		rec.SentAt = m.now()
	}
	m.ledger[key] = rec
	return nil
}

var _ Store = (*MemStore)(nil)
