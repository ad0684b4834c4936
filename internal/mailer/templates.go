package mailer

import (
	"bytes"
	"fmt"
	"html/template"
	"time"
)

var motivationalMessages = []string{
	"Your fitness journey is important, and every day counts!",
	"Consistency is the key to achieving your fitness goals.",
	"Don't let one missed day break your amazing progress!",
	"Your future self will thank you for staying committed today.",
	"Small daily actions lead to big results over time.",
}

// MotivationalMessage picks the line for a given day so retries on the same
// day render the same email.
func MotivationalMessage(day time.Time) string {
	return motivationalMessages[day.YearDay()%len(motivationalMessages)]
}

type MotivationalData struct {
	FirstName     string
	CurrentStreak int
	LongestStreak int
	Message       string
	AppURL        string
}

type WeeklyProgressData struct {
	FirstName        string
	Workouts         int
	Meals            int
	ConsistencyScore int
	CurrentStreak    int
	AppURL           string
}

const baseStyle = `
body { font-family: 'Segoe UI', Tahoma, Geneva, Verdana, sans-serif; margin: 0; padding: 0; background-color: #f8fafc; }
.container { max-width: 600px; margin: 0 auto; background-color: white; }
.header { padding: 40px 20px; text-align: center; }
.header h1 { color: white; margin: 0; font-size: 28px; font-weight: bold; }
.content { padding: 40px 20px; }
.footer { background-color: #f9fafb; padding: 20px; text-align: center; color: #6b7280; font-size: 14px; }
`

var motivationalTmpl = template.Must(template.New("motivational").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>Don't Break Your Streak!</title>
<style>` + baseStyle + `
.header { background: linear-gradient(135deg, #3b82f6, #8b5cf6); }
.streak-info { background: #fde68a; padding: 20px; border-radius: 12px; margin: 20px 0; text-align: center; }
.streak-number { font-size: 48px; font-weight: bold; color: #d97706; margin: 0; }
.cta-button { display: inline-block; background: #3b82f6; color: white; padding: 16px 32px; text-decoration: none; border-radius: 8px; font-weight: bold; }
</style>
</head>
<body>
<div class="container">
<div class="header"><h1>🏋️ FitLog</h1><p style="color: white;">Don't let your streak slip away!</p></div>
<div class="content">
<h2>Hi {{.FirstName}}!</h2>
<p>{{.Message}}</p>
<div class="streak-info">
<div class="streak-number">{{.CurrentStreak}}</div>
{{if gt .CurrentStreak 0}}<p>Day Streak - Don't break it now!</p>{{else}}<p>Start your streak today!</p>{{end}}
{{if gt .LongestStreak 0}}<p>Your best so far: {{.LongestStreak}} days</p>{{end}}
</div>
<p>We noticed you haven't logged your workout or meal today. It's not too late to keep your momentum going!</p>
<ul>
<li>📸 Quick photo uploads take less than 2 minutes</li>
<li>🔥 Consistency builds lasting habits</li>
<li>📈 Every log helps track your progress</li>
</ul>
<div style="text-align: center;"><a href="{{.AppURL}}/upload" class="cta-button">Log Your Activity Now</a></div>
<p>Keep pushing forward, {{.FirstName}}. Your fitness journey matters! 💪</p>
</div>
<div class="footer">
<p>You're receiving this because you have motivational reminders enabled.</p>
<p><a href="{{.AppURL}}/settings">Update notification preferences</a></p>
</div>
</div>
</body>
</html>`))

var weeklyProgressTmpl = template.Must(template.New("weekly").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>Your Progress</title>
<style>` + baseStyle + `
.header { background: linear-gradient(135deg, #10b981, #3b82f6); }
.stat-card { background: #f8fafc; padding: 20px; border-radius: 12px; text-align: center; margin: 10px 0; }
.stat-number { font-size: 32px; font-weight: bold; color: #059669; margin: 0; }
</style>
</head>
<body>
<div class="container">
<div class="header"><h1>📊 Progress Report</h1></div>
<div class="content">
<h2>Here's your week, {{.FirstName}}! 🎉</h2>
<div class="stat-card"><div class="stat-number">{{.Workouts}}</div><p>Workouts Logged</p></div>
<div class="stat-card"><div class="stat-number">{{.Meals}}</div><p>Meals Tracked</p></div>
<div class="stat-card"><div class="stat-number">{{.ConsistencyScore}}%</div><p>30-Day Consistency</p></div>
<p>Current streak: {{.CurrentStreak}} days. Consistency is key to reaching your fitness goals.</p>
<p><a href="{{.AppURL}}/analytics">See your full analytics</a></p>
</div>
<div class="footer">
<p>You're receiving this because you have consistency alerts enabled.</p>
</div>
</div>
</body>
</html>`))

func displayName(first string) string {
	if first == "" {
		return "there"
	}
	return first
}

func MotivationalEmail(d MotivationalData) (subject, html string, err error) {
	d.FirstName = displayName(d.FirstName)
	var buf bytes.Buffer
	if err := motivationalTmpl.Execute(&buf, d); err != nil {
		return "", "", fmt.Errorf("failed to render motivational email: %w", err)
	}
	subject = fmt.Sprintf("🔥 Don't break your %d-day streak, %s!", d.CurrentStreak, d.FirstName)
	return subject, buf.String(), nil
}

func WeeklyProgressEmail(d WeeklyProgressData) (subject, html string, err error) {
	d.FirstName = displayName(d.FirstName)
	var buf bytes.Buffer
	if err := weeklyProgressTmpl.Execute(&buf, d); err != nil {
		return "", "", fmt.Errorf("failed to render progress email: %w", err)
	}
	subject = fmt.Sprintf("📊 Your weekly progress summary, %s!", d.FirstName)
	return subject, buf.String(), nil
}
