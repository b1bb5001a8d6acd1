package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/mzevk/estate-api/internal/apperror"
)

// ErrorResponse is the uniform error body: a machine-readable code and a
// human-readable message. The client always gets this shape, whatever the
// status.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// writeJSON sends a JSON response with the given status code. Headers and
// status must go out before the body — Encode writes immediately.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			slog.Error("failed to encode JSON response", slog.String("error", err.Error()))
		}
	}
}

// writeError maps a domain error to its HTTP status. Anything outside the
// apperror taxonomy — including storage failures — collapses into an opaque
// 500 so internal detail (paths, SQL) never reaches the client.
func writeError(w http.ResponseWriter, err error) {
	var appErr *apperror.AppError
	if errors.As(err, &appErr) {
		status := http.StatusInternalServerError
		code := "internal_error"

		switch {
		case errors.Is(err, apperror.ErrValidation):
			status = http.StatusBadRequest
			code = "validation_error"
		case errors.Is(err, apperror.ErrUnauthorized):
			status = http.StatusUnauthorized
			code = "unauthorized"
		case errors.Is(err, apperror.ErrNotFound):
			status = http.StatusNotFound
			code = "not_found"
		case errors.Is(err, apperror.ErrConflict):
			status = http.StatusConflict
			code = "conflict"
		case errors.Is(err, apperror.ErrStorage):
			// keep the defaults: opaque 500
		}

		writeJSON(w, status, ErrorResponse{Error: code, Message: appErr.Message})
		return
	}

	writeJSON(w, http.StatusInternalServerError, ErrorResponse{
		Error:   "internal_error",
		Message: "an internal error occurred",
	})
}
