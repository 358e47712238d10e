// Package session keeps the CLI's login state between invocations: which
// server to talk to, who is logged in, and the token the server issued.
package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/moby/sys/atomicwriter"

	"github.com/sakif/flashgig/internal/api"
)

const (
	DefaultServerURL = "http://127.0.0.1:8000"
	fileName         = "session.json"
)

// Session is passed explicitly to every command that needs to know who the
// user is; nothing reads it from globals.
type Session struct {
	ServerURL string `json:"server_url"`
	Username  string `json:"username,omitempty"`
	Token     string `json:"token,omitempty"`

	path string
}

// Dir returns the directory holding the session file: $FLASHGIG_HOME, or
// ~/.flashgig.
func Dir() (string, error) {
	if dir := os.Getenv("FLASHGIG_HOME"); dir != "" {
		return dir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("session: locating home directory: %w", err)
	}
	return filepath.Join(home, ".flashgig"), nil
}

// Load reads the session file. A missing file gives a logged-out session
// pointing at $FLASHGIG_SERVER or DefaultServerURL.
func Load() (*Session, error) {
	dir, err := Dir()
	if err != nil {
		return nil, err
	}
	return LoadFile(filepath.Join(dir, fileName))
}

// LoadFile is Load for an explicit path.
func LoadFile(path string) (*Session, error) {
	s := &Session{ServerURL: defaultServer(), path: path}

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("session: reading %s: %w", path, err)
	}
	if err := json.Unmarshal(data, s); err != nil {
		return nil, fmt.Errorf("session: parsing %s: %w", path, err)
	}
	if s.ServerURL == "" {
		s.ServerURL = defaultServer()
	}
	return s, nil
}

func defaultServer() string {
	if v := os.Getenv("FLASHGIG_SERVER"); v != "" {
		return strings.TrimRight(v, "/")
	}
	return DefaultServerURL
}

// Path is where Save writes.
func (s *Session) Path() string {
	return s.path
}

// Save writes the session. The file holds a bearer token, so it is
// readable by the owner only.
func (s *Session) Save() error {
	if s.path == "" {
		return errors.New("session: no path; use Load or LoadFile")
	}
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("session: encoding: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("session: creating %s: %w", filepath.Dir(s.path), err)
	}
	if err := atomicwriter.WriteFile(s.path, append(data, '\n'), 0o600); err != nil {
		return fmt.Errorf("session: writing %s: %w", s.path, err)
	}
	return nil
}

// Login records a successful login or registration and saves it.
func (s *Session) Login(username, token string) error {
	s.Username = username
	s.Token = token
	return s.Save()
}

// Clear logs out, keeping the server URL.
func (s *Session) Clear() error {
	s.Username = ""
	s.Token = ""
	return s.Save()
}

func (s *Session) LoggedIn() bool {
	return s.Username != ""
}

// Client returns an API client for the session's server, authenticated
// with the session token when there is one.
func (s *Session) Client(opts ...api.Option) *api.Client {
	if s.Token != "" {
		opts = append([]api.Option{api.WithToken(s.Token)}, opts...)
	}
	return api.NewClient(s.ServerURL, opts...)
}
