package tracking

import (
	"time"

	"fitLogAPI/internal/types/activity"
)

const (
	MaxInsights = 3
	WeekLength  = 7 * 24 * time.Hour
)

type WeeklyStats struct {
	Workouts int `json:"workouts"`
	Meals    int `json:"meals"`
	Total    int `json:"total"`
}

// Figures are the only inputs to GenerateInsights.
type Figures struct {
	ConsistencyScore int
	CurrentStreak    int
	Weekly           WeeklyStats
}

func CountWeek(logs []activity.Log) WeeklyStats {
	var w WeeklyStats
	for _, l := range logs {
		switch l.Category {
		case activity.CategoryWorkout:
			w.Workouts++
		case activity.CategoryMeal:
			w.Meals++
		}
	}
	w.Total = len(logs)
	return w
}

// GenerateInsights evaluates the consistency, streak, balance and volume rules
// in that order and keeps the first MaxInsights messages.
func GenerateInsights(f Figures) []string {
	insights := make([]string, 0, 4)

	switch {
	case f.ConsistencyScore >= 80:
		insights = append(insights, "🔥 Excellent consistency! You're logging activities 4+ times per week.")
	case f.ConsistencyScore >= 60:
		insights = append(insights, "👍 Good consistency! Try to log activities more regularly for better results.")
	case f.ConsistencyScore >= 40:
		insights = append(insights, "📈 Your consistency is improving! Aim for at least 3 logs per week.")
	default:
		insights = append(insights, "💪 Let's work on consistency! Regular logging helps build lasting habits.")
	}

	switch {
	case f.CurrentStreak >= 14:
		insights = append(insights, "🏆 Amazing streak! You're building incredible momentum.")
	case f.CurrentStreak >= 7:
		insights = append(insights, "🎯 Great weekly streak! Keep the momentum going.")
	case f.CurrentStreak >= 3:
		insights = append(insights, "🌟 Nice streak building! Consistency is key to success.")
	}

	w := f.Weekly
	switch {
	case w.Workouts > w.Meals*2:
		insights = append(insights, "🍎 Consider logging more meals to balance your fitness tracking.")
	case w.Meals > w.Workouts*2:
		insights = append(insights, "🏋️ Great nutrition tracking! Don't forget to log your workouts too.")
	case w.Workouts > 0 && w.Meals > 0:
		insights = append(insights, "⚖️ Perfect balance between workout and nutrition tracking!")
	}

	switch {
	case w.Total == 0:
		insights = append(insights, "🚀 Ready to start? Your first log is just a photo away!")
	case w.Total >= 7:
		insights = append(insights, "🌟 Outstanding weekly activity! You're crushing your goals.")
	}

	if len(insights) > MaxInsights {
		insights = insights[:MaxInsights]
	}
	return insights
}
