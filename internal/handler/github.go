package handler

import (
	"log/slog"
	"net/http"

	"github.com/rs/xid"

	"github.com/sakif/flashgig/internal/apperror"
	"github.com/sakif/flashgig/internal/auth"
	"github.com/sakif/flashgig/internal/service"
)

const stateCookie = "oauth_state"

// GitHubHandler runs "sign in with GitHub". It is only routed when both
// GitHub credentials and session tokens are configured.
type GitHubHandler struct {
	auth   *service.AuthService
	github *auth.GitHubProvider
	logger *slog.Logger
}

func NewGitHubHandler(authService *service.AuthService, github *auth.GitHubProvider, logger *slog.Logger) *GitHubHandler {
	return &GitHubHandler{auth: authService, github: github, logger: logger}
}

// HandleLogin redirects the browser to GitHub's authorization page.
//
// HTTP: GET /auth/github/login
//
// A random state is kept in a short-lived HttpOnly cookie and checked on
// the callback, so a callback this server did not start is rejected.
func (h *GitHubHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	state := xid.New().String()

	http.SetCookie(w, &http.Cookie{
		Name:     stateCookie,
		Value:    state,
		Path:     "/auth/github",
		MaxAge:   600,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	http.Redirect(w, r, h.github.AuthURL(state), http.StatusTemporaryRedirect)
}

// HandleCallback completes the flow and answers with the user and a
// session token, the same body as POST /login. The CLI picks the token up
// with `flashgig login --token`.
//
// HTTP: GET /auth/github/callback?code=...&state=...
func (h *GitHubHandler) HandleCallback(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	cookie, err := r.Cookie(stateCookie)
	if err != nil || cookie.Value == "" || q.Get("state") != cookie.Value {
		h.logger.Warn("github callback: state mismatch")
		writeError(w, h.logger, apperror.ValidationFailed("state", "Invalid OAuth state"))
		return
	}

	// Single use.
	http.SetCookie(w, &http.Cookie{
		Name:   stateCookie,
		Value:  "",
		Path:   "/auth/github",
		MaxAge: -1,
	})

	if denied := q.Get("error"); denied != "" {
		h.logger.Info("github callback: authorization denied", slog.String("error", denied))
		writeError(w, h.logger, apperror.Unauthorized("GitHub authorization was denied"))
		return
	}

	code := q.Get("code")
	if code == "" {
		writeError(w, h.logger, apperror.ValidationFailed("code", "Missing OAuth code"))
		return
	}

	ghUser, err := h.github.Exchange(r.Context(), code)
	if err != nil {
		h.logger.Error("github callback: exchange failed", slog.String("error", err.Error()))
		writeError(w, h.logger, apperror.Unauthorized("GitHub sign-in failed"))
		return
	}

	result, err := h.auth.LoginGitHub(r.Context(), ghUser)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, UserResponse{User: result.User, Token: result.Token})
}
