package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"fitLogAPI/internal/store"
	"fitLogAPI/internal/tracking"
	"fitLogAPI/internal/types/streak"
)

type InsightService struct {
	store  store.Store
	engine *tracking.Engine
	now    func() time.Time
}

func NewInsightService(st store.Store, engine *tracking.Engine) *InsightService {
	return &InsightService{store: st, engine: engine, now: time.Now}
}

type InsightsResponse struct {
	Insights         []string             `json:"insights"`
	ConsistencyScore int                  `json:"consistency_score"`
	CurrentStreak    int                  `json:"current_streak"`
	Weekly           tracking.WeeklyStats `json:"weekly_stats"`
	GeneratedAt      time.Time            `json:"generated_at"`
}

// Insights returns up to three messages for the caller. A caller without a
// user record gets an empty list.
func (s *InsightService) Insights(ctx context.Context, clerkID string) (*InsightsResponse, error) {
	now := s.now()
	resp := &InsightsResponse{Insights: []string{}, GeneratedAt: now}

	u, err := s.store.GetUserByClerkID(ctx, clerkID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return resp, nil
		}
		return nil, fmt.Errorf("failed to load user: %w", err)
	}

	figures, err := s.figures(ctx, u.ID, now)
	if err != nil {
		return nil, err
	}

	resp.Insights = tracking.GenerateInsights(figures)
	resp.ConsistencyScore = figures.ConsistencyScore
	resp.CurrentStreak = figures.CurrentStreak
	resp.Weekly = figures.Weekly
	return resp, nil
}

func (s *InsightService) figures(ctx context.Context, userID string, now time.Time) (tracking.Figures, error) {
	score, err := s.engine.ConsistencyScore(ctx, userID, now)
	if err != nil {
		return tracking.Figures{}, err
	}

	st, err := s.store.GetStreak(ctx, userID)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return tracking.Figures{}, fmt.Errorf("failed to load streak: %w", err)
	}

	week, err := s.store.FindByUser(ctx, userID, now.Add(-tracking.WeekLength), now)
	if err != nil {
		return tracking.Figures{}, fmt.Errorf("failed to load weekly logs: %w", err)
	}

	return tracking.Figures{
		ConsistencyScore: score,
		CurrentStreak:    st.CurrentStreak,
		Weekly:           tracking.CountWeek(week),
	}, nil
}

func (s *InsightService) Streak(ctx context.Context, clerkID string) (*streak.Response, error) {
	u, err := s.store.GetUserByClerkID(ctx, clerkID)
	if err != nil {
		return nil, fmt.Errorf("failed to load user: %w", err)
	}

	st, err := s.store.GetStreak(ctx, u.ID)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			return nil, fmt.Errorf("failed to load streak: %w", err)
		}
		st = streak.State{UserID: u.ID}
	}

	score, err := s.engine.ConsistencyScore(ctx, u.ID, s.now())
	if err != nil {
		return nil, err
	}

	return &streak.Response{State: st, ConsistencyScore: score}, nil
}

// MaxAnalyticsSpan bounds an explicit from/to range. The longest named
// timeframe is 1y.
const MaxAnalyticsSpan = 366 * 24 * time.Hour

// Analytics summarizes [from, to]. When either bound is nil the window is the
// timeframe ending now.
func (s *InsightService) Analytics(ctx context.Context, clerkID, timeframe string, from, to *time.Time) (*tracking.Summary, error) {
	u, err := s.store.GetUserByClerkID(ctx, clerkID)
	if err != nil {
		return nil, fmt.Errorf("failed to load user: %w", err)
	}

	now := s.now()
	end, start := now, now.AddDate(0, 0, -tracking.TimeframeDays(timeframe))
	if from != nil && to != nil {
		if to.Before(*from) {
			return nil, fmt.Errorf("%w: from must be before to", ErrInvalidRange)
		}
		if to.Sub(*from) > MaxAnalyticsSpan {
			return nil, fmt.Errorf("%w: range longer than %d days", ErrInvalidRange, int(MaxAnalyticsSpan.Hours()/24))
		}
		start, end = *from, *to
	}

	logs, err := s.store.FindByUser(ctx, u.ID, start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to load logs: %w", err)
	}

	summary := tracking.Summarize(logs, start, end, s.engine.Location())
	summary.ConsistencyScore, err = s.engine.ConsistencyScore(ctx, u.ID, now)
	if err != nil {
		return nil, err
	}
	return &summary, nil
}
