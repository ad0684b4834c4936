package handlers

import (
	"context"
	"errors"
	"log"
	"net/http"
	"time"

	"fitLogAPI/services"
)

// jobTimeout bounds a triggered run. The write deadline is pushed past it so
// the report still reaches the caller when the run outlasts the server's
// WriteTimeout.
const jobTimeout = 5 * time.Minute

type JobHandler struct {
	notifier *services.CycleNotifier
	now      func() time.Time
}

func NewJobHandler(notifier *services.CycleNotifier) *JobHandler {
	return &JobHandler{notifier: notifier, now: time.Now}
}

// POST /api/v1/jobs/notifications/check - runs the daily check and cycle reset now.
// Returns 409 while a scheduled run is in progress.
func (h *JobHandler) RunNotifications(w http.ResponseWriter, r *http.Request) {
	rc := http.NewResponseController(w)
	if err := rc.SetWriteDeadline(time.Now().Add(jobTimeout + 30*time.Second)); err != nil && !errors.Is(err, http.ErrNotSupported) {
		log.Printf("Job trigger: failed to extend write deadline: %v", err)
	}

	ctx, cancel := context.WithTimeout(r.Context(), jobTimeout)
	defer cancel()

	report, err := h.notifier.RunAll(ctx, h.now())
	if err != nil {
		respondWithServiceError(w, "run notifications", err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"message": "Notification check completed",
		"report":  report,
	})
}
