package handlers

import (
	"context"
	"errors"
	"io"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"fitLogAPI/internal/types/activity"
	"fitLogAPI/middleware"
	"fitLogAPI/services"
)

// multipart overhead allowed on top of the image itself
const formOverhead = 1 << 20

type LogHandler struct {
	logService *services.LogService
}

func NewLogHandler(logService *services.LogService) *LogHandler {
	return &LogHandler{
		logService: logService,
	}
}

// POST /api/v1/logs - multipart upload with image, type, title, description
func (h *LogHandler) Upload(w http.ResponseWriter, r *http.Request) {
	// file store retries can take a few seconds
	ctx, cancel := context.WithTimeout(r.Context(), 60*time.Second)
	defer cancel()

	clerkID, ok := middleware.GetClerkID(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, services.MaxImageBytes+formOverhead)
	if err := r.ParseMultipartForm(services.MaxImageBytes + formOverhead); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			respondWithError(w, http.StatusRequestEntityTooLarge, "Image must be 10MB or smaller")
			return
		}
		respondWithError(w, http.StatusBadRequest, "Invalid multipart form")
		return
	}
	defer r.MultipartForm.RemoveAll()

	category, ok := activity.ParseCategory(r.FormValue("type"))
	if !ok {
		respondWithError(w, http.StatusBadRequest, "type must be workout or meal")
		return
	}

	file, header, err := r.FormFile("image")
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "No image uploaded")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Failed to read image")
		return
	}

	req := &activity.UploadRequest{
		Category:    category,
		Title:       r.FormValue("title"),
		Description: r.FormValue("description"),
		FileName:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Data:        data,
	}

	log.Printf("Upload Handler: %s uploading %s (%d bytes)", clerkID, category, len(data))

	resp, err := h.logService.Upload(ctx, clerkID, req)
	if err != nil {
		respondWithServiceError(w, "upload log", err)
		return
	}

	respondWithJSON(w, http.StatusCreated, resp)
}

// GET /api/v1/logs?limit=&type=
func (h *LogHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	clerkID, ok := middleware.GetClerkID(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	limit := services.DefaultListLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			respondWithError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = n
	}

	logs, err := h.logService.List(ctx, clerkID, r.URL.Query().Get("type"), limit)
	if err != nil {
		respondWithServiceError(w, "list logs", err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"logs":  logs,
		"count": len(logs),
	})
}

// GET /api/v1/logs/{id}
func (h *LogHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	clerkID, ok := middleware.GetClerkID(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	entry, err := h.logService.Get(ctx, clerkID, mux.Vars(r)["id"])
	if err != nil {
		respondWithServiceError(w, "load log", err)
		return
	}

	respondWithJSON(w, http.StatusOK, entry)
}

// DELETE /api/v1/logs/{id}
func (h *LogHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
	defer cancel()

	clerkID, ok := middleware.GetClerkID(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	if err := h.logService.Delete(ctx, clerkID, mux.Vars(r)["id"]); err != nil {
		respondWithServiceError(w, "delete log", err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]string{"message": "Log deleted successfully"})
}
