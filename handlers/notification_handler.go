package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"fitLogAPI/internal/types/notification"
	"fitLogAPI/middleware"
	"fitLogAPI/services"
)

type NotificationHandler struct {
	userService *services.UserService
}

func NewNotificationHandler(userService *services.UserService) *NotificationHandler {
	return &NotificationHandler{
		userService: userService,
	}
}

// GET /api/v1/settings/notifications
func (h *NotificationHandler) GetSettings(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	clerkID, ok := middleware.GetClerkID(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	settings, err := h.userService.GetSettings(ctx, clerkID)
	if err != nil {
		respondWithServiceError(w, "load settings", err)
		return
	}

	respondWithJSON(w, http.StatusOK, settings)
}

// PUT /api/v1/settings/notifications
func (h *NotificationHandler) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	clerkID, ok := middleware.GetClerkID(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	var req notification.UpdateSettingsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	settings, err := h.userService.UpdateSettings(ctx, clerkID, &req)
	if err != nil {
		respondWithServiceError(w, "update settings", err)
		return
	}

	respondWithJSON(w, http.StatusOK, settings)
}

// POST /api/v1/notifications/register-device
func (h *NotificationHandler) RegisterDevice(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	clerkID, ok := middleware.GetClerkID(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	var req notification.RegisterDeviceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := h.userService.RegisterDevice(ctx, clerkID, &req); err != nil {
		respondWithServiceError(w, "register device", err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]string{"message": "Device registered"})
}
