package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"fitLogAPI/internal/filestore"
	"fitLogAPI/internal/metrics"
	"fitLogAPI/internal/store"
	"fitLogAPI/internal/tracking"
	"fitLogAPI/internal/types/activity"
)

const (
	MaxImageBytes    = 10 << 20
	DefaultListLimit = 10
	MaxListLimit     = 100
)

type LogService struct {
	store  store.Store
	files  filestore.Store
	engine *tracking.Engine
	now    func() time.Time
}

func NewLogService(st store.Store, files filestore.Store, engine *tracking.Engine) *LogService {
	return &LogService{store: st, files: files, engine: engine, now: time.Now}
}

func validateUpload(req *activity.UploadRequest) error {
	if strings.TrimSpace(req.Title) == "" {
		return fmt.Errorf("%w: title is required", ErrInvalidUpload)
	}
	if req.Category != activity.CategoryWorkout && req.Category != activity.CategoryMeal {
		return fmt.Errorf("%w: type must be workout or meal", ErrInvalidUpload)
	}
	if len(req.Data) == 0 {
		return fmt.Errorf("%w: image is required", ErrInvalidUpload)
	}
	if len(req.Data) > MaxImageBytes {
		return fmt.Errorf("%w: image must be 10MB or smaller", ErrInvalidUpload)
	}
	if !strings.HasPrefix(req.ContentType, "image/") {
		return fmt.Errorf("%w: file must be an image", ErrInvalidUpload)
	}
	return nil
}

// Upload stores the image, appends the log and advances the streak. When the
// streak update fails the log and the file are removed again.
func (s *LogService) Upload(ctx context.Context, clerkID string, req *activity.UploadRequest) (*activity.UploadResponse, error) {
	if err := validateUpload(req); err != nil {
		return nil, err
	}

	u, err := s.store.GetUserByClerkID(ctx, clerkID)
	if err != nil {
		return nil, fmt.Errorf("failed to load user: %w", err)
	}

	analysis := tracking.DetectLabel(req.Category, req.Title, req.Description)

	ref, err := s.files.Put(ctx, filestore.Object{
		OwnerEmail:  u.Email,
		Category:    req.Category,
		Title:       req.Title,
		Name:        req.FileName,
		ContentType: req.ContentType,
		Data:        req.Data,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to store image: %w", err)
	}

	now := s.now()
	entry := activity.Log{
		ID:            uuid.New().String(),
		UserID:        u.ID,
		Category:      req.Category,
		Title:         strings.TrimSpace(req.Title),
		Description:   strings.TrimSpace(req.Description),
		DetectedLabel: analysis.DetectedLabel,
		Suggestions:   analysis.Suggestions,
		FileID:        ref.FileID,
		ViewURL:       ref.ViewURL,
		Timestamp:     now,
	}

	logID, err := s.store.Append(ctx, entry)
	if err != nil {
		s.discardFile(ref.FileID)
		return nil, fmt.Errorf("failed to save log: %w", err)
	}

	st, err := s.engine.RecordLog(ctx, u.ID, now)
	if err != nil {
		cleanupCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if delErr := s.store.DeleteByID(cleanupCtx, u.ID, logID); delErr != nil {
			log.Printf("Upload: failed to remove log %s after streak failure: %v", logID, delErr)
		}
		s.discardFile(ref.FileID)
		return nil, err
	}

	metrics.UploadsTotal.WithLabelValues(string(req.Category)).Inc()
	log.Printf("Upload: user %s logged %s (%s), streak %d", u.ID, req.Category, analysis.DetectedLabel, st.CurrentStreak)

	return &activity.UploadResponse{
		Message:       "Upload successful",
		LogID:         logID,
		ImageURL:      ref.ViewURL,
		FileID:        ref.FileID,
		DetectedLabel: analysis.DetectedLabel,
		Suggestions:   analysis.Suggestions,
		CurrentStreak: st.CurrentStreak,
		LongestStreak: st.LongestStreak,
	}, nil
}

// discardFile is best effort; a failure leaves an orphaned file behind.
func (s *LogService) discardFile(fileID string) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := s.files.Delete(ctx, fileID); err != nil {
		log.Printf("Upload: failed to delete file %s: %v", fileID, err)
	}
}

func (s *LogService) List(ctx context.Context, clerkID, category string, limit int) ([]activity.Log, error) {
	u, err := s.store.GetUserByClerkID(ctx, clerkID)
	if err != nil {
		return nil, fmt.Errorf("failed to load user: %w", err)
	}

	var cat activity.Category
	if category != "" {
		var ok bool
		if cat, ok = activity.ParseCategory(category); !ok {
			return nil, fmt.Errorf("%w: unknown type %q", ErrInvalidUpload, category)
		}
	}

	if limit <= 0 {
		limit = DefaultListLimit
	}
	if limit > MaxListLimit {
		limit = MaxListLimit
	}

	logs, err := s.store.ListRecent(ctx, u.ID, cat, limit)
	if err != nil {
		return nil, err
	}
	if logs == nil {
		logs = []activity.Log{}
	}
	return logs, nil
}

func (s *LogService) Get(ctx context.Context, clerkID, id string) (*activity.Log, error) {
	u, err := s.store.GetUserByClerkID(ctx, clerkID)
	if err != nil {
		return nil, fmt.Errorf("failed to load user: %w", err)
	}

	l, err := s.store.FindByID(ctx, u.ID, id)
	if err != nil {
		return nil, err
	}
	return &l, nil
}

// Delete removes the log, decrements the upload count and then the file.
// The streak itself is not recomputed.
func (s *LogService) Delete(ctx context.Context, clerkID, id string) error {
	u, err := s.store.GetUserByClerkID(ctx, clerkID)
	if err != nil {
		return fmt.Errorf("failed to load user: %w", err)
	}

	l, err := s.store.FindByID(ctx, u.ID, id)
	if err != nil {
		return err
	}

	if err := s.store.DeleteByID(ctx, u.ID, id); err != nil {
		return err
	}

	if err := s.store.AdjustTotalUploads(ctx, u.ID, -1); err != nil && !errors.Is(err, store.ErrNotFound) {
		log.Printf("DeleteLog: failed to decrement uploads for %s: %v", u.ID, err)
	}

	if err := s.files.Delete(ctx, l.FileID); err != nil {
		log.Printf("DeleteLog: failed to delete file %s: %v", l.FileID, err)
	}

	log.Printf("DeleteLog: user %s deleted log %s", u.ID, id)
	return nil
}
