package tracking

import (
	"math"
	"time"

	"fitLogAPI/internal/types/activity"
)

type DayActivity struct {
	Date     string `json:"date"`
	Workouts int    `json:"workouts"`
	Meals    int    `json:"meals"`
	Total    int    `json:"total"`
}

type DayStreak struct {
	Date   string `json:"date"`
	Streak int    `json:"streak"`
}

type Breakdown struct {
	Workouts map[string]int `json:"workouts"`
	Meals    map[string]int `json:"meals"`
}

type Summary struct {
	From              time.Time     `json:"from"`
	To                time.Time     `json:"to"`
	TotalWorkouts     int           `json:"total_workouts"`
	TotalMeals        int           `json:"total_meals"`
	WeeklyAverage     float64       `json:"weekly_average"`
	ConsistencyScore  int           `json:"consistency_score"`
	ActivityData      []DayActivity `json:"activity_data"`
	StreakData        []DayStreak   `json:"streak_data"`
	CategoryBreakdown Breakdown     `json:"category_breakdown"`
}

// TimeframeDays maps the analytics timeframe parameter to a day count.
func TimeframeDays(tf string) int {
	switch tf {
	case "7d":
		return 7
	case "30d", "":
		return 30
	case "90d":
		return 90
	}
	return 365
}

// Summarize builds per-day series over [from, to]. The consistency score is
// left for the caller since it is anchored on the request time.
func Summarize(logs []activity.Log, from, to time.Time, loc *time.Location) Summary {
	s := Summary{
		From: from,
		To:   to,
		CategoryBreakdown: Breakdown{
			Workouts: map[string]int{},
			Meals:    map[string]int{},
		},
	}

	perDay := make(map[string]*DayActivity)
	for _, l := range logs {
		key := DateKey(l.Timestamp, loc)
		d, ok := perDay[key]
		if !ok {
			d = &DayActivity{Date: key}
			perDay[key] = d
		}

		label := l.DetectedLabel
		if label == "" {
			label = "Other"
		}
		switch l.Category {
		case activity.CategoryWorkout:
			s.TotalWorkouts++
			d.Workouts++
			s.CategoryBreakdown.Workouts[label]++
		case activity.CategoryMeal:
			s.TotalMeals++
			d.Meals++
			s.CategoryBreakdown.Meals[label]++
		}
		d.Total++
	}

	run := 0
	last := Day(to, loc)
	for day := Day(from, loc); !day.After(last); day = day.AddDate(0, 0, 1) {
		key := CivilKey(day)
		entry := DayActivity{Date: key}
		if d, ok := perDay[key]; ok {
			entry = *d
		}
		s.ActivityData = append(s.ActivityData, entry)

		if entry.Total > 0 {
			run++
		} else {
			run = 0
		}
		s.StreakData = append(s.StreakData, DayStreak{Date: key, Streak: run})
	}

	days := math.Ceil(to.Sub(from).Hours() / 24)
	if days < 1 {
		days = 1
	}
	s.WeeklyAverage = float64(s.TotalWorkouts+s.TotalMeals) / days * 7

	return s
}
