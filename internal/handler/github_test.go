package handler_test

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/flashgig/internal/auth"
	"github.com/sakif/flashgig/internal/handler"
	"github.com/sakif/flashgig/internal/repository/sqlstore"
	"github.com/sakif/flashgig/internal/service"
)

func newGitHubHandler(t *testing.T) *handler.GitHubHandler {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	db, err := sqlstore.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	authSvc := service.NewAuthService(db, nil, auth.NewPasswordServiceForTest(4), logger)
	provider := auth.NewGitHubProvider("client-id", "client-secret", "http://localhost:8000/auth/github/callback")
	return handler.NewGitHubHandler(authSvc, provider, logger)
}

func TestGitHubLogin_SetsStateCookie(t *testing.T) {
	h := newGitHubHandler(t)

	rr := httptest.NewRecorder()
	h.HandleLogin(rr, httptest.NewRequest(http.MethodGet, "/auth/github/login", nil))

	require.Equal(t, http.StatusTemporaryRedirect, rr.Code)
	cookies := rr.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, "oauth_state", cookies[0].Name)
	assert.True(t, cookies[0].HttpOnly)
	assert.Contains(t, rr.Header().Get("Location"), "state="+cookies[0].Value)
}

func TestGitHubCallback_Rejections(t *testing.T) {
	h := newGitHubHandler(t)

	tests := []struct {
		name       string
		query      string
		cookie     string
		wantStatus int
		wantMsg    string
	}{
		{"no cookie", "?state=abc&code=x", "", http.StatusBadRequest, "Invalid OAuth state"},
		{"state mismatch", "?state=abc&code=x", "other", http.StatusBadRequest, "Invalid OAuth state"},
		{"denied", "?state=abc&error=access_denied", "abc", http.StatusUnauthorized, "GitHub authorization was denied"},
		{"missing code", "?state=abc", "abc", http.StatusBadRequest, "Missing OAuth code"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/auth/github/callback"+tt.query, nil)
			if tt.cookie != "" {
				req.AddCookie(&http.Cookie{Name: "oauth_state", Value: tt.cookie})
			}
			rr := httptest.NewRecorder()
			h.HandleCallback(rr, req)

			assert.Equal(t, tt.wantStatus, rr.Code)
			body := decode[map[string]string](t, rr)
			assert.Equal(t, tt.wantMsg, body["message"])
		})
	}
}
