package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/AchilleasB/mandioca-hostel/backoffice-service/internal/core/domain"
	"github.com/AchilleasB/mandioca-hostel/backoffice-service/internal/logging"
)

type ErrorResponse struct {
	Error string `json:"error"`
}

type SuccessResponse struct {
	Success bool `json:"success"`
}

func writeJSON(w http.ResponseWriter, r *http.Request, logger *slog.Logger, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		logging.FromContext(r.Context(), logger).Error("failed to encode response", "err", err)
	}
}

func writeError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, status int, msg string) {
	writeJSON(w, r, logger, status, ErrorResponse{Error: msg})
}

// decodeJSON reads the request body into dst and answers 400 on failure.
func decodeJSON(w http.ResponseWriter, r *http.Request, logger *slog.Logger, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeError(w, r, logger, http.StatusBadRequest, "Invalid request payload")
		return false
	}
	return true
}

// writeServiceError maps service errors onto the API's status codes.
// notFound is the 404 message; fallback is the generic 500 message.
func writeServiceError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error, notFound, fallback string) {
	var validation *domain.ValidationError
	var transition *domain.TransitionError

	switch {
	case errors.As(err, &validation):
		writeError(w, r, logger, http.StatusBadRequest, validation.Message)
	case errors.Is(err, domain.ErrInvalidStatus):
		writeError(w, r, logger, http.StatusBadRequest, "Invalid status")
	case errors.As(err, &transition):
		writeError(w, r, logger, http.StatusConflict, transition.Error())
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, r, logger, http.StatusNotFound, notFound)
	case errors.Is(err, domain.ErrNotConfigured):
		writeError(w, r, logger, http.StatusServiceUnavailable, "Database not configured")
	case errors.Is(err, domain.ErrEmailNotConfigured):
		writeError(w, r, logger, http.StatusInternalServerError, "Email service not configured")
	case errors.Is(err, domain.ErrNotificationFailed):
		writeError(w, r, logger, http.StatusInternalServerError, "Failed to send booking notification. Please try again.")
	default:
		logging.FromContext(r.Context(), logger).Error(fallback, "err", err, "path", r.URL.Path)
		writeError(w, r, logger, http.StatusInternalServerError, fallback)
	}
}
