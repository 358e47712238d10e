package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/sakif/flashgig/internal/auth"
	"github.com/sakif/flashgig/internal/model"
	"github.com/sakif/flashgig/internal/service"
)

// AuthHandler serves registration, login and user lookup.
//
// HANDLER RESPONSIBILITIES:
//   - HandleRegister → POST /register
//   - HandleLogin    → POST /login
//   - HandleGetUser  → GET /users/{username}
//   - HandleMe       → GET /me (RequireAuth)
type AuthHandler struct {
	auth   *service.AuthService
	logger *slog.Logger
}

func NewAuthHandler(authService *service.AuthService, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{auth: authService, logger: logger}
}

type credentialsRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// UserResponse is a user as returned by the API: never the password hash,
// plus the session token after register and login when tokens are enabled.
type UserResponse struct {
	*model.User
	Token string `json:"token,omitempty"`
}

// HandleRegister creates an account.
//
// HTTP: POST /register
// REQUEST BODY: {"username": "alice", "password": "secret1"}
// RESPONSE: 201 {"id", "username", "created_at", "token"?}
func (h *AuthHandler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, h.logger, err)
		return
	}

	result, err := h.auth.Register(r.Context(), req.Username, req.Password)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusCreated, UserResponse{User: result.User, Token: result.Token})
}

// HandleLogin verifies credentials.
//
// HTTP: POST /login
// Errors: 400 missing fields, 404 unknown user, 401 wrong password.
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, h.logger, err)
		return
	}

	result, err := h.auth.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, UserResponse{User: result.User, Token: result.Token})
}

// HandleGetUser returns a public profile.
//
// HTTP: GET /users/{username}
func (h *AuthHandler) HandleGetUser(w http.ResponseWriter, r *http.Request) {
	user, err := h.auth.GetUser(r.Context(), chi.URLParam(r, "username"))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, user)
}

// HandleMe returns the user the bearer token belongs to.
//
// HTTP: GET /me
// Auth: Required
func (h *AuthHandler) HandleMe(w http.ResponseWriter, r *http.Request) {
	username, ok := auth.UsernameFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, ErrorResponse{
			Error:   "unauthorized",
			Message: "valid authentication required",
		})
		return
	}

	user, err := h.auth.GetUser(r.Context(), username)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, user)
}
