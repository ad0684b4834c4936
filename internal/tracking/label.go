package tracking

import (
	"strings"

	"fitLogAPI/internal/types/activity"
)

// Analysis is the keyword-based "AI analysis" attached to each log.
type Analysis struct {
	DetectedLabel string   `json:"detected_label"`
	Suggestions   []string `json:"suggestions"`
}

var (
	workoutKeywords = []string{
		"strength training", "cardio", "yoga", "running",
		"cycling", "swimming", "weightlifting", "hiit",
	}
	mealKeywords = []string{
		"breakfast", "lunch", "dinner", "snack",
		"protein", "vegetables", "fruits", "healthy meal",
	}

	workoutSuggestions = []string{
		"Great job staying active! Consistency is key to reaching your fitness goals.",
		"Consider tracking your sets, reps, and weights for better progress monitoring.",
		"Don't forget to stay hydrated and get adequate rest for recovery.",
	}
	mealSuggestions = []string{
		"Excellent nutrition tracking! Consistent logging helps build healthy habits.",
		"Try to include a variety of colorful fruits and vegetables for optimal nutrition.",
		"Remember to stay hydrated throughout the day for better health.",
	}
)

const maxSuggestions = 2

// DetectLabel matches the title and description against a fixed word list.
// The first keyword in list order wins.
func DetectLabel(category activity.Category, title, description string) Analysis {
	keywords, suggestions, label := mealKeywords, mealSuggestions, "Meal"
	if category == activity.CategoryWorkout {
		keywords, suggestions, label = workoutKeywords, workoutSuggestions, "Exercise Session"
	}

	lowerTitle := strings.ToLower(title)
	lowerDesc := strings.ToLower(description)
	for _, kw := range keywords {
		if strings.Contains(lowerTitle, kw) || strings.Contains(lowerDesc, kw) {
			label = strings.ToUpper(kw[:1]) + kw[1:]
			break
		}
	}

	out := make([]string, maxSuggestions)
	copy(out, suggestions)
	return Analysis{DetectedLabel: label, Suggestions: out}
}
