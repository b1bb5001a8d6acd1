package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/mzevk/estate-api/internal/apperror"
	"github.com/mzevk/estate-api/internal/service"
)

// AuthHandler exposes the login endpoint.
type AuthHandler struct {
	auth   *service.AuthService
	logger *slog.Logger
}

func NewAuthHandler(auth *service.AuthService, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{auth: auth, logger: logger}
}

// HandleLogin exchanges credentials for a session token.
//
// HTTP: POST /api/auth/login
// Body: {"username": "...", "password": "..."}  →  {"token": "..."} or 401
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, apperror.ValidationFailed("body", "request body must be a JSON object"))
		return
	}

	token, err := h.auth.Login(r.Context(), body.Username, body.Password)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"token": token})
}
