package handlers

import (
	"context"
	"net/http"
	"time"

	"fitLogAPI/middleware"
	"fitLogAPI/services"
)

type InsightHandler struct {
	insightService *services.InsightService
}

func NewInsightHandler(insightService *services.InsightService) *InsightHandler {
	return &InsightHandler{
		insightService: insightService,
	}
}

// GET /api/v1/streak
func (h *InsightHandler) GetStreak(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	clerkID, ok := middleware.GetClerkID(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	resp, err := h.insightService.Streak(ctx, clerkID)
	if err != nil {
		respondWithServiceError(w, "load streak", err)
		return
	}

	respondWithJSON(w, http.StatusOK, resp)
}

// GET /api/v1/insights
func (h *InsightHandler) GetInsights(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	clerkID, ok := middleware.GetClerkID(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	resp, err := h.insightService.Insights(ctx, clerkID)
	if err != nil {
		respondWithServiceError(w, "generate insights", err)
		return
	}

	respondWithJSON(w, http.StatusOK, resp)
}

// GET /api/v1/analytics?timeframe=7d|30d|90d|1y or ?from=&to= (RFC 3339 or YYYY-MM-DD)
func (h *InsightHandler) GetAnalytics(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	clerkID, ok := middleware.GetClerkID(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	q := r.URL.Query()
	timeframe := q.Get("timeframe")
	switch timeframe {
	case "", "7d", "30d", "90d", "1y":
	default:
		respondWithError(w, http.StatusBadRequest, "timeframe must be one of 7d, 30d, 90d, 1y")
		return
	}

	var from, to *time.Time
	if q.Get("from") != "" || q.Get("to") != "" {
		f, _, errFrom := parseTime(q.Get("from"))
		t, dateOnly, errTo := parseTime(q.Get("to"))
		if errFrom != nil || errTo != nil {
			respondWithError(w, http.StatusBadRequest, "from and to must both be valid dates")
			return
		}
		if dateOnly {
			// a bare date includes the whole day
			t = t.AddDate(0, 0, 1).Add(-time.Nanosecond)
		}
		from, to = &f, &t
	}

	summary, err := h.insightService.Analytics(ctx, clerkID, timeframe, from, to)
	if err != nil {
		respondWithServiceError(w, "load analytics", err)
		return
	}

	respondWithJSON(w, http.StatusOK, summary)
}

func parseTime(s string) (t time.Time, dateOnly bool, err error) {
	if t, err = time.Parse(time.RFC3339, s); err == nil {
		return t, false, nil
	}
	t, err = time.Parse("2006-01-02", s)
	return t, true, err
}
