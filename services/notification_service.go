package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strconv"
	"sync"
	"time"

	"fitLogAPI/internal/mailer"
	"fitLogAPI/internal/metrics"
	"fitLogAPI/internal/store"
	"fitLogAPI/internal/tracking"
	"fitLogAPI/internal/types/notification"
	"fitLogAPI/internal/types/user"
)

const DefaultCutoffHour = 20

// CycleNotifier sends missed-log reminders and closes 30-day cycles.
type CycleNotifier struct {
	store      store.Store
	engine     *tracking.Engine
	mail       mailer.Sender
	push       *PushDispatcher
	cutoffHour int
	appURL     string

	running sync.Mutex
}

type DailyReport struct {
	Skipped    bool `json:"skipped"`
	Candidates int  `json:"candidates"`
	Sent       int  `json:"sent"`
	Duplicates int  `json:"duplicates"`
	Failed     int  `json:"failed"`

	// Error is set when the check could not list its recipients.
	Error string `json:"error,omitempty"`
}

type CycleReport struct {
	Due     int `json:"due"`
	Reset   int `json:"reset"`
	Zeroed  int `json:"zeroed"`
	Alerted int `json:"alerted"`
	Failed  int `json:"failed"`
}

type RunReport struct {
	Daily DailyReport `json:"daily_check"`
	Cycle CycleReport `json:"cycle_reset"`
}

// NewCycleNotifier wires the notifier. push may be nil.
func NewCycleNotifier(st store.Store, engine *tracking.Engine, mail mailer.Sender, push *PushDispatcher, cutoffHour int, appURL string) *CycleNotifier {
	if cutoffHour < 0 || cutoffHour > 23 {
		cutoffHour = DefaultCutoffHour
	}
	return &CycleNotifier{
		store:      st,
		engine:     engine,
		mail:       mail,
		push:       push,
		cutoffHour: cutoffHour,
		appURL:     appURL,
	}
}

func (n *CycleNotifier) RunDailyCheck(ctx context.Context, now time.Time) (*DailyReport, error) {
	if !n.running.TryLock() {
		return nil, ErrJobRunning
	}
	defer n.running.Unlock()
	return n.dailyCheck(ctx, now)
}

func (n *CycleNotifier) RunCycleReset(ctx context.Context, now time.Time) (*CycleReport, error) {
	if !n.running.TryLock() {
		return nil, ErrJobRunning
	}
	defer n.running.Unlock()
	return n.cycleReset(ctx, now)
}

// RunAll runs the daily check and then the cycle reset under one lock. A
// failed daily check is logged and reported; the cycle reset still runs.
func (n *CycleNotifier) RunAll(ctx context.Context, now time.Time) (*RunReport, error) {
	if !n.running.TryLock() {
		return nil, ErrJobRunning
	}
	defer n.running.Unlock()

	daily, err := n.dailyCheck(ctx, now)
	if err != nil {
		log.Printf("Notifier: daily check failed: %v", err)
		if daily == nil {
			daily = &DailyReport{}
		}
		daily.Error = err.Error()
	}
	cycle, err := n.cycleReset(ctx, now)
	if err != nil {
		return nil, err
	}
	return &RunReport{Daily: *daily, Cycle: *cycle}, nil
}

func (n *CycleNotifier) dailyCheck(ctx context.Context, now time.Time) (*DailyReport, error) {
	loc := n.engine.Location()
	report := &DailyReport{}

	if now.In(loc).Hour() < n.cutoffHour {
		report.Skipped = true
		return report, nil
	}

	today := tracking.Day(now, loc)
	recipients, err := n.store.UsersMissingLog(ctx, today)
	if err != nil {
		return nil, fmt.Errorf("failed to list users missing a log: %w", err)
	}
	report.Candidates = len(recipients)

	for _, r := range recipients {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		if r.Email == "" {
			continue
		}

		sent, err := n.store.HasSent(ctx, r.ID, notification.TypeMissedLog, today)
		if err != nil {
			log.Printf("Notifier: ledger lookup failed for %s: %v", r.ID, err)
			report.Failed++
			continue
		}
		if sent {
			report.Duplicates++
			continue
		}

		if err := n.sendMissedLog(ctx, r, today, now); err != nil {
			log.Printf("Notifier: missed-log reminder failed for %s: %v", r.ID, err)
			metrics.NotificationsTotal.WithLabelValues(string(notification.TypeMissedLog), "failed").Inc()
			report.Failed++
			continue
		}
		metrics.NotificationsTotal.WithLabelValues(string(notification.TypeMissedLog), "sent").Inc()
		report.Sent++
	}

	log.Printf("Notifier: daily check %s: %d candidates, %d sent, %d already sent, %d failed",
		tracking.CivilKey(today), report.Candidates, report.Sent, report.Duplicates, report.Failed)
	return report, nil
}

func (n *CycleNotifier) sendMissedLog(ctx context.Context, r user.Recipient, today, now time.Time) error {
	subject, html, err := mailer.MotivationalEmail(mailer.MotivationalData{
		FirstName:     r.FirstName,
		CurrentStreak: r.Streak.CurrentStreak,
		LongestStreak: r.Streak.LongestStreak,
		Message:       mailer.MotivationalMessage(today),
		AppURL:        n.appURL,
	})
	if err != nil {
		return err
	}

	if err := n.mail.Send(ctx, r.Email, subject, html); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}

	rec := notification.SentRecord{
		UserID: r.ID,
		Type:   notification.TypeMissedLog,
		Day:    today,
		Payload: notification.Payload{
			Subject:       subject,
			CurrentStreak: r.Streak.CurrentStreak,
			LongestStreak: r.Streak.LongestStreak,
		},
		SentAt: now,
	}
	if err := n.store.RecordSent(ctx, rec); err != nil {
		// the email is out; a later run may send it again
		log.Printf("Notifier: failed to record reminder for %s: %v", r.ID, err)
	}

	n.enqueuePush(r.ID, "Don't break your streak!", fmt.Sprintf("You haven't logged today. Current streak: %d days", r.Streak.CurrentStreak), map[string]string{
		"type":           string(notification.TypeMissedLog),
		"current_streak": strconv.Itoa(r.Streak.CurrentStreak),
	})
	return nil
}

func (n *CycleNotifier) cycleReset(ctx context.Context, now time.Time) (*CycleReport, error) {
	report := &CycleReport{}

	due, err := n.store.UsersDueForReset(ctx, now.Add(-tracking.CycleLength))
	if err != nil {
		return nil, fmt.Errorf("failed to list users due for reset: %w", err)
	}
	report.Due = len(due)

	for _, r := range due {
		if err := ctx.Err(); err != nil {
			return report, err
		}

		before := r.Streak.CurrentStreak
		st, applied, err := n.engine.ResetCycleIfDue(ctx, r.ID, now)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				continue
			}
			log.Printf("Notifier: cycle reset failed for %s: %v", r.ID, err)
			metrics.CycleResetsTotal.WithLabelValues("failed").Inc()
			report.Failed++
			continue
		}
		if !applied {
			continue
		}

		report.Reset++
		if st.CurrentStreak == 0 && before > 0 {
			report.Zeroed++
			metrics.CycleResetsTotal.WithLabelValues("zeroed").Inc()
		} else {
			metrics.CycleResetsTotal.WithLabelValues("kept").Inc()
		}

		if !r.Settings.ConsistencyAlerts || r.Email == "" {
			continue
		}
		r.Streak = st
		if err := n.sendCycleSummary(ctx, r, now); err != nil {
			log.Printf("Notifier: cycle summary failed for %s: %v", r.ID, err)
			metrics.NotificationsTotal.WithLabelValues(string(notification.TypeCycleSummary), "failed").Inc()
			continue
		}
		metrics.NotificationsTotal.WithLabelValues(string(notification.TypeCycleSummary), "sent").Inc()
		report.Alerted++
	}

	if report.Due > 0 {
		log.Printf("Notifier: cycle reset: %d due, %d reset, %d zeroed, %d alerted, %d failed",
			report.Due, report.Reset, report.Zeroed, report.Alerted, report.Failed)
	}
	return report, nil
}

func (n *CycleNotifier) sendCycleSummary(ctx context.Context, r user.Recipient, now time.Time) error {
	day := tracking.Day(now, n.engine.Location())

	sent, err := n.store.HasSent(ctx, r.ID, notification.TypeCycleSummary, day)
	if err != nil {
		return fmt.Errorf("failed to check ledger: %w", err)
	}
	if sent {
		return nil
	}

	score, err := n.engine.ConsistencyScore(ctx, r.ID, now)
	if err != nil {
		return err
	}
	week, err := n.store.FindByUser(ctx, r.ID, now.Add(-tracking.WeekLength), now)
	if err != nil {
		return fmt.Errorf("failed to load weekly logs: %w", err)
	}
	stats := tracking.CountWeek(week)

	subject, html, err := mailer.WeeklyProgressEmail(mailer.WeeklyProgressData{
		FirstName:        r.FirstName,
		Workouts:         stats.Workouts,
		Meals:            stats.Meals,
		ConsistencyScore: score,
		CurrentStreak:    r.Streak.CurrentStreak,
		AppURL:           n.appURL,
	})
	if err != nil {
		return err
	}

	if err := n.mail.Send(ctx, r.Email, subject, html); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}

	rec := notification.SentRecord{
		UserID: r.ID,
		Type:   notification.TypeCycleSummary,
		Day:    day,
		Payload: notification.Payload{
			Subject:       subject,
			CurrentStreak: r.Streak.CurrentStreak,
			LongestStreak: r.Streak.LongestStreak,
		},
		SentAt: now,
	}
	if err := n.store.RecordSent(ctx, rec); err != nil {
		log.Printf("Notifier: failed to record cycle summary for %s: %v", r.ID, err)
	}

	n.enqueuePush(r.ID, "Your progress summary is ready", fmt.Sprintf("30-day consistency: %d%%", score), map[string]string{
		"type":              string(notification.TypeCycleSummary),
		"consistency_score": strconv.Itoa(score),
	})
	return nil
}

func (n *CycleNotifier) enqueuePush(userID, title, body string, data map[string]string) {
	if n.push == nil {
		return
	}
	n.push.Enqueue(&PushJob{UserID: userID, Title: title, Body: body, Data: data})
}
