package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"fitLogAPI/internal/store"
	"fitLogAPI/services"
)

func respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	response, err := json.Marshal(payload)
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"error": "Internal server error"}`))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write(response)
}

func respondWithError(w http.ResponseWriter, code int, message string) {
	respondWithJSON(w, code, map[string]string{"error": message})
}

// respondWithServiceError maps service sentinels to status codes. Anything
// unrecognized is logged and reported as a 500 with a generic message.
func respondWithServiceError(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		respondWithError(w, http.StatusNotFound, "Not found")
	case errors.Is(err, services.ErrInvalidUpload),
		errors.Is(err, services.ErrInvalidRange),
		errors.Is(err, services.ErrInvalidDevice):
		respondWithError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, services.ErrJobRunning):
		respondWithError(w, http.StatusConflict, err.Error())
	default:
		log.Printf("%s Handler: %v", op, err)
		respondWithError(w, http.StatusInternalServerError, "Failed to "+op)
	}
}
