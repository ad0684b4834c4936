package store

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"fitLogAPI/internal/types/activity"
	"fitLogAPI/internal/types/notification"
	"fitLogAPI/internal/types/streak"
	"fitLogAPI/internal/types/user"
)

//go:embed schema.sql
var schema string

// Migrate creates the tables when they do not exist yet.
func Migrate(ctx context.Context, db *pgxpool.Pool) error {
	if _, err := db.Exec(ctx, schema); err != nil {
		return fmt.Errorf("failed to apply schema: %w", err)
	}
	return nil
}

type PostgresStore struct {
	db *pgxpool.Pool
}

func NewPostgresStore(db *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.db.Ping(ctx)
}

// civilDate keeps the calendar fields of d so the DATE column stores that day.
func civilDate(d time.Time) time.Time {
	return time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, time.UTC)
}

func validID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

// --- Logs ---

const logColumns = `id, user_id, category, title, description, detected_label, suggestions, file_id, view_url, logged_at`

func scanLog(row pgx.Row) (activity.Log, error) {
	var l activity.Log
	err := row.Scan(
		&l.ID,
		&l.UserID,
		&l.Category,
		&l.Title,
		&l.Description,
		&l.DetectedLabel,
		&l.Suggestions,
		&l.FileID,
		&l.ViewURL,
		&l.Timestamp,
	)
	return l, err
}

func collectLogs(rows pgx.Rows) ([]activity.Log, error) {
	defer rows.Close()

	var logs []activity.Log
	for rows.Next() {
		l, err := scanLog(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan log: %w", err)
		}
		logs = append(logs, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating logs: %w", err)
	}
	return logs, nil
}

func (s *PostgresStore) Append(ctx context.Context, l activity.Log) (string, error) {
	if l.ID == "" {
		l.ID = uuid.New().String()
	}
	if l.Suggestions == nil {
		l.Suggestions = []string{}
	}

	query := `
	INSERT INTO activity_logs (` + logColumns + `)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	RETURNING id
	`

	var id string
	err := s.db.QueryRow(
		ctx,
		query,
		l.ID,
		l.UserID,
		string(l.Category),
		l.Title,
		l.Description,
		l.DetectedLabel,
		l.Suggestions,
		l.FileID,
		l.ViewURL,
		l.Timestamp,
	).Scan(&id)
	if err != nil {
		return "", fmt.Errorf("failed to insert log: %w", err)
	}
	return id, nil
}

func (s *PostgresStore) FindByUser(ctx context.Context, userID string, from, to time.Time) ([]activity.Log, error) {
	query := `
	SELECT ` + logColumns + `
	FROM activity_logs
	WHERE user_id = $1 AND logged_at >= $2 AND logged_at <= $3
	ORDER BY logged_at ASC
	`

	rows, err := s.db.Query(ctx, query, userID, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to query logs: %w", err)
	}
	return collectLogs(rows)
}

func (s *PostgresStore) FindByID(ctx context.Context, userID, id string) (activity.Log, error) {
	if !validID(id) {
		return activity.Log{}, ErrNotFound
	}

	query := `SELECT ` + logColumns + ` FROM activity_logs WHERE id = $1 AND user_id = $2`

	l, err := scanLog(s.db.QueryRow(ctx, query, id, userID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return activity.Log{}, ErrNotFound
		}
		return activity.Log{}, fmt.Errorf("failed to get log: %w", err)
	}
	return l, nil
}

func (s *PostgresStore) ListRecent(ctx context.Context, userID string, category activity.Category, limit int) ([]activity.Log, error) {
	query := `
	SELECT ` + logColumns + `
	FROM activity_logs
	WHERE user_id = $1 AND ($2 = '' OR category = $2)
	ORDER BY logged_at DESC
	LIMIT $3
	`

	rows, err := s.db.Query(ctx, query, userID, string(category), limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query recent logs: %w", err)
	}
	return collectLogs(rows)
}

func (s *PostgresStore) DeleteByID(ctx context.Context, userID, id string) error {
	if !validID(id) {
		return ErrNotFound
	}

	result, err := s.db.Exec(ctx, `DELETE FROM activity_logs WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return fmt.Errorf("failed to delete log: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// --- Streaks ---

const streakColumns = `user_id, current_streak, longest_streak, total_uploads, last_upload_date, last_streak_reset, updated_at`

func scanStreak(row pgx.Row) (streak.State, error) {
	var st streak.State
	err := row.Scan(
		&st.UserID,
		&st.CurrentStreak,
		&st.LongestStreak,
		&st.TotalUploads,
		&st.LastUploadDate,
		&st.LastStreakReset,
		&st.UpdatedAt,
	)
	return st, err
}

func (s *PostgresStore) GetStreak(ctx context.Context, userID string) (streak.State, error) {
	st, err := scanStreak(s.db.QueryRow(ctx, `SELECT `+streakColumns+` FROM user_streaks WHERE user_id = $1`, userID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return streak.State{}, ErrNotFound
		}
		return streak.State{}, fmt.Errorf("failed to get streak: %w", err)
	}
	return st, nil
}

func (s *PostgresStore) UpdateStreak(ctx context.Context, userID string, fn func(streak.State) streak.State) (streak.State, error) {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return streak.State{}, err
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `INSERT INTO user_streaks (user_id) VALUES ($1) ON CONFLICT (user_id) DO NOTHING`, userID)
	if err != nil {
		return streak.State{}, fmt.Errorf("failed to init streak: %w", err)
	}

	current, err := scanStreak(tx.QueryRow(ctx, `SELECT `+streakColumns+` FROM user_streaks WHERE user_id = $1 FOR UPDATE`, userID))
	if err != nil {
		return streak.State{}, fmt.Errorf("failed to lock streak: %w", err)
	}

	next := fn(current)

	var lastUpload *time.Time
	if next.LastUploadDate != nil {
		d := civilDate(*next.LastUploadDate)
		lastUpload = &d
	}

	query := `
	UPDATE user_streaks
	SET current_streak = $2,
		longest_streak = $3,
		total_uploads = $4,
		last_upload_date = $5,
		last_streak_reset = $6,
		updated_at = NOW()
	WHERE user_id = $1
	RETURNING ` + streakColumns

	saved, err := scanStreak(tx.QueryRow(
		ctx,
		query,
		userID,
		next.CurrentStreak,
		next.LongestStreak,
		next.TotalUploads,
		lastUpload,
		next.LastStreakReset,
	))
	if err != nil {
		return streak.State{}, fmt.Errorf("failed to save streak: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return streak.State{}, err
	}
	return saved, nil
}

func (s *PostgresStore) AdjustTotalUploads(ctx context.Context, userID string, delta int) error {
	result, err := s.db.Exec(ctx, `
		UPDATE user_streaks
		SET total_uploads = GREATEST(total_uploads + $2, 0), updated_at = NOW()
		WHERE user_id = $1
	`, userID, delta)
	if err != nil {
		return fmt.Errorf("failed to adjust uploads: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// --- Users ---

const userColumns = `id, clerk_id, email, first_name, last_name, motivational_reminders, consistency_alerts, created_at, updated_at`

func scanUser(row pgx.Row) (user.User, error) {
	var u user.User
	err := row.Scan(
		&u.ID,
		&u.ClerkID,
		&u.Email,
		&u.FirstName,
		&u.LastName,
		&u.Settings.MotivationalReminders,
		&u.Settings.ConsistencyAlerts,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	return u, err
}

func (s *PostgresStore) CreateUser(ctx context.Context, u user.User) (user.User, error) {
	if u.ID == "" {
		u.ID = uuid.New().String()
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return user.User{}, err
	}
	defer tx.Rollback(ctx)

	query := `
	INSERT INTO users (id, clerk_id, email, first_name, last_name, motivational_reminders, consistency_alerts)
	VALUES ($1, $2, $3, $4, $5, $6, $7)
	ON CONFLICT (clerk_id) DO UPDATE SET
		email = EXCLUDED.email,
		first_name = EXCLUDED.first_name,
		last_name = EXCLUDED.last_name,
		updated_at = NOW()
	RETURNING ` + userColumns

	created, err := scanUser(tx.QueryRow(
		ctx,
		query,
		u.ID,
		u.ClerkID,
		u.Email,
		u.FirstName,
		u.LastName,
		u.Settings.MotivationalReminders,
		u.Settings.ConsistencyAlerts,
	))
	if err != nil {
		return user.User{}, fmt.Errorf("failed to create user: %w", err)
	}

	_, err = tx.Exec(ctx, `INSERT INTO user_streaks (user_id) VALUES ($1) ON CONFLICT (user_id) DO NOTHING`, created.ID)
	if err != nil {
		return user.User{}, fmt.Errorf("failed to init streak: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return user.User{}, err
	}
	return created, nil
}

func (s *PostgresStore) getUserBy(ctx context.Context, column, value string) (user.User, error) {
	u, err := scanUser(s.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE `+column+` = $1`, value))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return user.User{}, ErrNotFound
		}
		return user.User{}, fmt.Errorf("failed to get user: %w", err)
	}
	return u, nil
}

func (s *PostgresStore) GetUser(ctx context.Context, id string) (user.User, error) {
	if !validID(id) {
		return user.User{}, ErrNotFound
	}
	return s.getUserBy(ctx, "id", id)
}

func (s *PostgresStore) GetUserByClerkID(ctx context.Context, clerkID string) (user.User, error) {
	return s.getUserBy(ctx, "clerk_id", clerkID)
}

func (s *PostgresStore) UpdateUserByClerkID(ctx context.Context, clerkID string, req user.UpdateProfileRequest) (user.User, error) {
	query := `
	UPDATE users
	SET email = COALESCE(NULLIF($2, ''), email),
		first_name = COALESCE(NULLIF($3, ''), first_name),
		last_name = COALESCE(NULLIF($4, ''), last_name),
		updated_at = NOW()
	WHERE clerk_id = $1
	RETURNING ` + userColumns

	u, err := scanUser(s.db.QueryRow(ctx, query, clerkID, req.Email, req.FirstName, req.LastName))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return user.User{}, ErrNotFound
		}
		return user.User{}, fmt.Errorf("failed to update user: %w", err)
	}
	return u, nil
}

func (s *PostgresStore) DeleteUserByClerkID(ctx context.Context, clerkID string) error {
	result, err := s.db.Exec(ctx, `DELETE FROM users WHERE clerk_id = $1`, clerkID)
	if err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStore) UpdateSettings(ctx context.Context, userID string, settings notification.Settings) error {
	result, err := s.db.Exec(ctx, `
		UPDATE users
		SET motivational_reminders = $2, consistency_alerts = $3, updated_at = NOW()
		WHERE id = $1
	`, userID, settings.MotivationalReminders, settings.ConsistencyAlerts)
	if err != nil {
		return fmt.Errorf("failed to update settings: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

const recipientQuery = `
	SELECT u.id, u.clerk_id, u.email, u.first_name, u.last_name,
		u.motivational_reminders, u.consistency_alerts, u.created_at, u.updated_at,
		s.user_id, s.current_streak, s.longest_streak, s.total_uploads,
		s.last_upload_date, s.last_streak_reset, s.updated_at
	FROM users u
	JOIN user_streaks s ON s.user_id = u.id
	`

func (s *PostgresStore) queryRecipients(ctx context.Context, where string, args ...any) ([]user.Recipient, error) {
	rows, err := s.db.Query(ctx, recipientQuery+where+` ORDER BY u.created_at, u.id`, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query recipients: %w", err)
	}
	defer rows.Close()

	var out []user.Recipient
	for rows.Next() {
		var r user.Recipient
		err := rows.Scan(
			&r.ID,
			&r.ClerkID,
			&r.Email,
			&r.FirstName,
			&r.LastName,
			&r.Settings.MotivationalReminders,
			&r.Settings.ConsistencyAlerts,
			&r.CreatedAt,
			&r.UpdatedAt,
			&r.Streak.UserID,
			&r.Streak.CurrentStreak,
			&r.Streak.LongestStreak,
			&r.Streak.TotalUploads,
			&r.Streak.LastUploadDate,
			&r.Streak.LastStreakReset,
			&r.Streak.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan recipient: %w", err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating recipients: %w", err)
	}
	return out, nil
}

func (s *PostgresStore) UsersMissingLog(ctx context.Context, today time.Time) ([]user.Recipient, error) {
	return s.queryRecipients(ctx,
		`WHERE u.motivational_reminders AND (s.last_upload_date IS NULL OR s.last_upload_date < $1)`,
		civilDate(today),
	)
}

func (s *PostgresStore) UsersDueForReset(ctx context.Context, cutoff time.Time) ([]user.Recipient, error) {
	return s.queryRecipients(ctx, `WHERE s.last_streak_reset <= $1`, cutoff)
}

// --- Devices ---

func (s *PostgresStore) RegisterDevice(ctx context.Context, userID string, d notification.DeviceToken) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO user_devices (user_id, token, platform)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id, token)
		DO UPDATE SET platform = EXCLUDED.platform, updated_at = NOW()
	`, userID, d.Token, d.Platform)
	if err != nil {
		return fmt.Errorf("failed to register device: %w", err)
	}
	return nil
}

func (s *PostgresStore) DeviceTokens(ctx context.Context, userID string) ([]notification.DeviceToken, error) {
	rows, err := s.db.Query(ctx, `SELECT token, platform FROM user_devices WHERE user_id = $1`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query devices: %w", err)
	}
	defer rows.Close()

	var tokens []notification.DeviceToken
	for rows.Next() {
		var d notification.DeviceToken
		if err := rows.Scan(&d.Token, &d.Platform); err != nil {
			return nil, fmt.Errorf("failed to scan device: %w", err)
		}
		tokens = append(tokens, d)
	}
	return tokens, rows.Err()
}

// --- Ledger ---

func (s *PostgresStore) HasSent(ctx context.Context, userID string, typ notification.NotificationType, day time.Time) (bool, error) {
	var exists bool
	err := s.db.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM notification_log WHERE user_id = $1 AND type = $2 AND day = $3
		)
	`, userID, string(typ), civilDate(day)).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check notification log: %w", err)
	}
	return exists, nil
}

func (s *PostgresStore) RecordSent(ctx context.Context, rec notification.SentRecord) error {
	sentAt := rec.SentAt
	if sentAt.IsZero() {
		sentAt = time.Now()
	}

	_, err := s.db.Exec(ctx, `
		INSERT INTO notification_log (user_id, type, day, payload, sent_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (user_id, type, day) DO NOTHING
	`, rec.UserID, string(rec.Type), civilDate(rec.Day), rec.Payload, sentAt)
	if err != nil {
		return fmt.Errorf("failed to record notification: %w", err)
	}
	return nil
}

var _ Store = (*PostgresStore)(nil)
