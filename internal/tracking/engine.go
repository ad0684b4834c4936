// Package tracking holds the streak, consistency and insight rules.
package tracking

import (
	"context"
	"fmt"
	"math"
	"time"

	"fitLogAPI/internal/types/activity"
	"fitLogAPI/internal/types/streak"
)

const (
	// ConsistencyWindowDays is both the score denominator and the look-back window.
	ConsistencyWindowDays = 30
	CycleLength           = ConsistencyWindowDays * 24 * time.Hour
	// Cycles scoring below this zero the current streak.
	CycleResetThreshold = 50
)

type LogReader interface {
	FindByUser(ctx context.Context, userID string, from, to time.Time) ([]activity.Log, error)
}

// StreakStore must apply UpdateStreak as one atomic read-modify-write.
type StreakStore interface {
	GetStreak(ctx context.Context, userID string) (streak.State, error)
	UpdateStreak(ctx context.Context, userID string, fn func(streak.State) streak.State) (streak.State, error)
}

type Engine struct {
	logs    LogReader
	streaks StreakStore
	loc     *time.Location
}

func NewEngine(logs LogReader, streaks StreakStore, loc *time.Location) *Engine {
	if loc == nil {
		loc = time.UTC
	}
	return &Engine{logs: logs, streaks: streaks, loc: loc}
}

func (e *Engine) Location() *time.Location {
	return e.loc
}

// RecordLog applies a log made at logTime to the user's streak state.
func (e *Engine) RecordLog(ctx context.Context, userID string, logTime time.Time) (streak.State, error) {
	st, err := e.streaks.UpdateStreak(ctx, userID, func(s streak.State) streak.State {
		return Advance(s, logTime, e.loc)
	})
	if err != nil {
		return streak.State{}, fmt.Errorf("failed to update streak: %w", err)
	}
	return st, nil
}

// ConsistencyScore counts distinct active days in [asOf-30d, asOf].
func (e *Engine) ConsistencyScore(ctx context.Context, userID string, asOf time.Time) (int, error) {
	logs, err := e.logs.FindByUser(ctx, userID, asOf.Add(-CycleLength), asOf)
	if err != nil {
		return 0, fmt.Errorf("failed to load logs: %w", err)
	}
	stamps := make([]time.Time, len(logs))
	for i, l := range logs {
		stamps[i] = l.Timestamp
	}
	return Score(stamps, asOf, e.loc), nil
}

// ResetCycleIfDue closes the user's 30-day cycle when it has elapsed.
// The returned bool reports whether a reset was applied.
func (e *Engine) ResetCycleIfDue(ctx context.Context, userID string, now time.Time) (streak.State, bool, error) {
	current, err := e.streaks.GetStreak(ctx, userID)
	if err != nil {
		return streak.State{}, false, err
	}
	if !CycleDue(current, now) {
		return current, false, nil
	}

	score, err := e.ConsistencyScore(ctx, userID, now)
	if err != nil {
		return current, false, err
	}

	applied := false
	st, err := e.streaks.UpdateStreak(ctx, userID, func(s streak.State) streak.State {
		// another run may have reset it between the read and the lock
		if !CycleDue(s, now) {
			return s
		}
		applied = true
		return ResetCycle(s, score, now)
	})
	if err != nil {
		return current, false, fmt.Errorf("failed to reset cycle: %w", err)
	}
	return st, applied, nil
}

// Advance is the streak transition for one new log.
func Advance(s streak.State, logTime time.Time, loc *time.Location) streak.State {
	today := Day(logTime, loc)

	next := s
	next.TotalUploads++

	if s.LastUploadDate != nil {
		gap := DaysBetween(*s.LastUploadDate, today)
		switch {
		case gap <= 0:
			// same day, or a log older than the last one
			return next
		case gap == 1:
			next.CurrentStreak = s.CurrentStreak + 1
			if next.CurrentStreak > next.LongestStreak {
				next.LongestStreak = next.CurrentStreak
			}
			next.LastUploadDate = &today
			return next
		}
	}

	// first log ever, or a gap of two days or more
	next.CurrentStreak = 1
	if next.LongestStreak == 0 {
		next.LongestStreak = 1
	}
	next.LastUploadDate = &today
	return next
}

// Score is round(100 * activeDays / 30), clamped to [0, 100].
func Score(stamps []time.Time, asOf time.Time, loc *time.Location) int {
	from := asOf.Add(-CycleLength)
	days := make(map[string]struct{})
	for _, ts := range stamps {
		if ts.Before(from) || ts.After(asOf) {
			continue
		}
		days[DateKey(ts, loc)] = struct{}{}
	}

	score := int(math.Round(float64(len(days)) * 100 / ConsistencyWindowDays))
	if score > 100 {
		score = 100
	}
	if score < 0 {
		score = 0
	}
	return score
}

func CycleDue(s streak.State, now time.Time) bool {
	return !now.Before(s.LastStreakReset.Add(CycleLength))
}

// ResetCycle starts a new cycle at now. Users at or above the threshold keep
// their streak across the boundary.
func ResetCycle(s streak.State, score int, now time.Time) streak.State {
	next := s
	if score < CycleResetThreshold {
		next.CurrentStreak = 0
	}
	next.LastStreakReset = now
	return next
}
