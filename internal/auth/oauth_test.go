package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
)

// fakeGitHub serves the token and user endpoints of the OAuth flow.
func fakeGitHub(t *testing.T, userStatus int, user any) *GitHubProvider {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("POST /login/oauth/access_token", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		if r.Form.Get("code") != "good-code" {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"error":"bad_verification_code"}`))
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"gho_test","token_type":"bearer"}`))
	})
	mux.HandleFunc("GET /user", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer gho_test", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(userStatus)
		_ = json.NewEncoder(w).Encode(user)
	})
	ts := httptest.NewServer(mux)
	t.Cleanup(ts.Close)

	p := NewGitHubProvider("client-id", "client-secret", "http://localhost:8000/auth/github/callback")
	p.config.Endpoint = oauth2.Endpoint{
		AuthURL:   ts.URL + "/login/oauth/authorize",
		TokenURL:  ts.URL + "/login/oauth/access_token",
		AuthStyle: oauth2.AuthStyleInParams,
	}
	p.userURL = ts.URL + "/user"
	return p
}

func TestGitHubProvider_AuthURL(t *testing.T) {
	p := NewGitHubProvider("client-id", "secret", "http://localhost:8000/auth/github/callback")

	u, err := url.Parse(p.AuthURL("state-123"))
	require.NoError(t, err)

	assert.Equal(t, "github.com", u.Host)
	q := u.Query()
	assert.Equal(t, "client-id", q.Get("client_id"))
	assert.Equal(t, "state-123", q.Get("state"))
	assert.Equal(t, "http://localhost:8000/auth/github/callback", q.Get("redirect_uri"))
	assert.Equal(t, "read:user", q.Get("scope"))
}

func TestGitHubProvider_Exchange(t *testing.T) {
	p := fakeGitHub(t, http.StatusOK, map[string]any{"id": 583231, "login": "octocat", "name": "The Octocat"})

	user, err := p.Exchange(context.Background(), "good-code")
	require.NoError(t, err)
	assert.Equal(t, int64(583231), user.ID)
	assert.Equal(t, "octocat", user.Login)
}

func TestGitHubProvider_ExchangeErrors(t *testing.T) {
	tests := []struct {
		name   string
		code   string
		status int
		user   any
	}{
		{"bad code", "bad-code", http.StatusOK, map[string]any{"id": 1, "login": "x"}},
		{"user API error", "good-code", http.StatusUnauthorized, map[string]any{"message": "Bad credentials"}},
		{"incomplete user", "good-code", http.StatusOK, map[string]any{"login": "ghost"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := fakeGitHub(t, tt.status, tt.user)
			_, err := p.Exchange(context.Background(), tt.code)
			assert.Error(t, err)
		})
	}
}
