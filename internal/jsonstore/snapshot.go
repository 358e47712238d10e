package jsonstore

import (
	"bytes"
	"encoding/json"
	"math"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/sakif/flashgig/internal/model"
)

// Timestamp is a created_at value as found in the files. Older files hold
// naive UTC ISO-8601 strings ("2024-05-01T12:00:00.123456"); newer ones
// RFC 3339. Anything unparseable decodes to the zero time rather than
// failing the whole collection.
type Timestamp struct {
	time.Time
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
}

func (t *Timestamp) UnmarshalJSON(data []byte) error {
	t.Time = time.Time{}
	if bytes.Equal(data, []byte("null")) {
		return nil
	}

	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return nil
	}
	for _, layout := range timestampLayouts {
		if parsed, err := time.Parse(layout, s); err == nil {
			t.Time = parsed.UTC()
			return nil
		}
	}
	return nil
}

func (t Timestamp) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(t.UTC().Format(time.RFC3339Nano))
}

// Offset is a comment's optional timestamp in seconds. The legacy server
// stored whatever the client sent, so numeric strings are accepted and any
// other value decodes as absent instead of failing the collection.
type Offset struct {
	Seconds *float64
}

func (o *Offset) UnmarshalJSON(data []byte) error {
	o.Seconds = nil

	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return nil
	}

	var f float64
	switch x := v.(type) {
	case float64:
		f = x
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(x), 64)
		if err != nil {
			return nil
		}
		f = parsed
	default:
		return nil
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return nil
	}
	o.Seconds = &f
	return nil
}

func (o Offset) MarshalJSON() ([]byte, error) {
	if o.Seconds == nil {
		return []byte("null"), nil
	}
	return json.Marshal(*o.Seconds)
}

// UserRecord is a users.json entry. Unlike model.User it carries the
// password hash.
type UserRecord struct {
	ID             string    `json:"id"`
	Username       string    `json:"username"`
	HashedPassword string    `json:"hashed_password"`
	CreatedAt      Timestamp `json:"created_at"`
}

type RequestRecord struct {
	ID           string    `json:"id"`
	FromUsername string    `json:"from_username"`
	ToUsername   string    `json:"to_username"`
	ProjectName  string    `json:"project_name"`
	Status       string    `json:"status"`
	CreatedAt    Timestamp `json:"created_at"`
}

type ProjectRecord struct {
	ID          string    `json:"id"`
	RequestID   string    `json:"request_id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Status      string    `json:"status"`
	CreatedAt   Timestamp `json:"created_at"`
}

type CommentRecord struct {
	ID        string    `json:"id"`
	ProjectID string    `json:"project_id"`
	Username  string    `json:"username"`
	Text      string    `json:"text"`
	Timestamp Offset    `json:"timestamp"`
	CreatedAt Timestamp `json:"created_at"`
}

// Snapshot is the full content of a data directory.
type Snapshot struct {
	Users    []UserRecord
	Requests []RequestRecord
	Projects []ProjectRecord
	Comments []CommentRecord
}

// LoadDir reads the four collection files in dir. Missing or corrupt files
// load as empty collections.
func LoadDir(dir string) Snapshot {
	return Snapshot{
		Users:    Load(filepath.Join(dir, UsersFile), []UserRecord{}),
		Requests: Load(filepath.Join(dir, RequestsFile), []RequestRecord{}),
		Projects: Load(filepath.Join(dir, ProjectsFile), []ProjectRecord{}),
		Comments: Load(filepath.Join(dir, CommentsFile), []CommentRecord{}),
	}
}

// SaveDir writes all four collection files into dir, creating it if needed.
func SaveDir(dir string, snap Snapshot) error {
	files := []struct {
		name string
		data any
	}{
		{UsersFile, nonNil(snap.Users)},
		{RequestsFile, nonNil(snap.Requests)},
		{ProjectsFile, nonNil(snap.Projects)},
		{CommentsFile, nonNil(snap.Comments)},
	}
	for _, f := range files {
		if err := Save(filepath.Join(dir, f.name), f.data); err != nil {
			return err
		}
	}
	return nil
}

// nonNil keeps empty collections as [] rather than null on disk.
func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

func (r UserRecord) Model() model.User {
	return model.User{ID: r.ID, Username: r.Username, PasswordHash: r.HashedPassword, CreatedAt: r.CreatedAt.Time}
}

func (r RequestRecord) Model() model.ConnectionRequest {
	return model.ConnectionRequest{
		ID:           r.ID,
		FromUsername: r.FromUsername,
		ToUsername:   r.ToUsername,
		ProjectName:  r.ProjectName,
		Status:       model.RequestStatus(r.Status),
		CreatedAt:    r.CreatedAt.Time,
	}
}

func (r ProjectRecord) Model() model.Project {
	return model.Project{
		ID:          r.ID,
		RequestID:   r.RequestID,
		Title:       r.Title,
		Description: r.Description,
		Status:      r.Status,
		CreatedAt:   r.CreatedAt.Time,
	}
}

func (r CommentRecord) Model() model.Comment {
	return model.Comment{
		ID:        r.ID,
		ProjectID: r.ProjectID,
		Username:  r.Username,
		Text:      r.Text,
		Timestamp: r.Timestamp.Seconds,
		CreatedAt: r.CreatedAt.Time,
	}
}

func UserRecordOf(u model.User) UserRecord {
	return UserRecord{ID: u.ID, Username: u.Username, HashedPassword: u.PasswordHash, CreatedAt: Timestamp{u.CreatedAt}}
}

func RequestRecordOf(r model.ConnectionRequest) RequestRecord {
	return RequestRecord{
		ID:           r.ID,
		FromUsername: r.FromUsername,
		ToUsername:   r.ToUsername,
		ProjectName:  r.ProjectName,
		Status:       string(r.Status),
		CreatedAt:    Timestamp{r.CreatedAt},
	}
}

func ProjectRecordOf(p model.Project) ProjectRecord {
	return ProjectRecord{
		ID:          p.ID,
		RequestID:   p.RequestID,
		Title:       p.Title,
		Description: p.Description,
		Status:      p.Status,
		CreatedAt:   Timestamp{p.CreatedAt},
	}
}

func CommentRecordOf(c model.Comment) CommentRecord {
	return CommentRecord{
		ID:        c.ID,
		ProjectID: c.ProjectID,
		Username:  c.Username,
		Text:      c.Text,
		Timestamp: Offset{c.Timestamp},
		CreatedAt: Timestamp{c.CreatedAt},
	}
}
