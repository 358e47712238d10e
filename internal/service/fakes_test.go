package service

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/sakif/flashgig/internal/apperror"
	"github.com/sakif/flashgig/internal/auth"
	"github.com/sakif/flashgig/internal/model"
	"github.com/sakif/flashgig/internal/repository"
)

// =========================================================================
// FAKE STORE
// =========================================================================
//
// fakeStore is an in-memory repository.Store. Slices keep insertion order;
// the list methods walk them backwards to return newest first, as the SQL
// store does. Set the *Err fields to simulate database failures.

type fakeStore struct {
	mu       sync.Mutex
	nextID   int
	users    []model.User
	requests []model.ConnectionRequest
	projects []model.Project
	comments []model.Comment

	createUserErr    error
	updateHashErr    error
	createCommentErr error
}

var _ repository.Store = (*fakeStore)(nil)

func newFakeStore() *fakeStore {
	return &fakeStore{}
}

func (f *fakeStore) id(prefix string) string {
	f.nextID++
	return fmt.Sprintf("%s-%d", prefix, f.nextID)
}

func (f *fakeStore) CreateUser(_ context.Context, user *model.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createUserErr != nil {
		return f.createUserErr
	}
	for _, u := range f.users {
		if u.Username == user.Username {
			return apperror.ValidationFailed("username", "Username already registered")
		}
		if user.GitHubID != 0 && u.GitHubID == user.GitHubID {
			return apperror.ValidationFailed("github_id", "GitHub account already linked")
		}
	}
	user.ID = f.id("user")
	user.CreatedAt = time.Now().UTC()
	f.users = append(f.users, *user)
	return nil
}

func (f *fakeStore) GetUserByUsername(_ context.Context, username string) (*model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.Username == username {
			found := u
			return &found, nil
		}
	}
	return nil, apperror.NotFound("User not found")
}

func (f *fakeStore) GetUserByGitHubID(_ context.Context, githubID int64) (*model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if githubID != 0 && u.GitHubID == githubID {
			found := u
			return &found, nil
		}
	}
	return nil, apperror.NotFound("User not found")
}

func (f *fakeStore) UpdatePasswordHash(_ context.Context, username, hash string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.updateHashErr != nil {
		return f.updateHashErr
	}
	for i := range f.users {
		if f.users[i].Username == username {
			f.users[i].PasswordHash = hash
			return nil
		}
	}
	return apperror.NotFound("User not found")
}

func (f *fakeStore) ListUsers(_ context.Context) ([]model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]model.User{}, f.users...), nil
}

func (f *fakeStore) CreateRequest(_ context.Context, req *model.ConnectionRequest) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	req.ID = f.id("req")
	req.CreatedAt = time.Now().UTC()
	f.requests = append(f.requests, *req)
	return nil
}

func (f *fakeStore) GetRequest(_ context.Context, id string) (*model.ConnectionRequest, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, r := range f.requests {
		if r.ID == id {
			found := r
			return &found, nil
		}
	}
	return nil, apperror.NotFound("Request not found")
}

func (f *fakeStore) ListRequestsForUser(_ context.Context, username string) ([]model.ConnectionRequest, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []model.ConnectionRequest{}
	for i := len(f.requests) - 1; i >= 0; i-- {
		if f.requests[i].Involves(username) {
			out = append(out, f.requests[i])
		}
	}
	return out, nil
}

func (f *fakeStore) UpdateRequestStatus(_ context.Context, id string, status model.RequestStatus) (*model.ConnectionRequest, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.requests {
		if f.requests[i].ID == id {
			f.requests[i].Status = status
			updated := f.requests[i]
			return &updated, nil
		}
	}
	return nil, apperror.NotFound("Request not found")
}

func (f *fakeStore) ListRequests(_ context.Context) ([]model.ConnectionRequest, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]model.ConnectionRequest{}, f.requests...), nil
}

func (f *fakeStore) CreateProject(_ context.Context, project *model.Project) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	var req *model.ConnectionRequest
	for i := range f.requests {
		if f.requests[i].ID == project.RequestID {
			req = &f.requests[i]
		}
	}
	if req == nil {
		return apperror.NotFound("Connection request not found")
	}
	if req.Status != model.RequestStatusAccepted {
		return apperror.ValidationFailed("request_id", "Connection must be accepted first")
	}
	project.ID = f.id("proj")
	project.CreatedAt = time.Now().UTC()
	f.projects = append(f.projects, *project)
	return nil
}

func (f *fakeStore) GetProject(_ context.Context, id string) (*model.Project, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, p := range f.projects {
		if p.ID == id {
			found := p
			return &found, nil
		}
	}
	return nil, apperror.NotFound("Project not found")
}

func (f *fakeStore) ListProjectsForUser(_ context.Context, username string) ([]model.Project, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	accepted := map[string]bool{}
	for _, r := range f.requests {
		if r.Status == model.RequestStatusAccepted && r.Involves(username) {
			accepted[r.ID] = true
		}
	}
	out := []model.Project{}
	for i := len(f.projects) - 1; i >= 0; i-- {
		if accepted[f.projects[i].RequestID] {
			out = append(out, f.projects[i])
		}
	}
	return out, nil
}

func (f *fakeStore) UpdateProject(_ context.Context, id string, patch model.ProjectPatch) (*model.Project, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.projects {
		if f.projects[i].ID == id {
			patch.Apply(&f.projects[i])
			updated := f.projects[i]
			return &updated, nil
		}
	}
	return nil, apperror.NotFound("Project not found")
}

func (f *fakeStore) ListProjects(_ context.Context) ([]model.Project, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]model.Project{}, f.projects...), nil
}

func (f *fakeStore) CreateComment(_ context.Context, comment *model.Comment) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createCommentErr != nil {
		return f.createCommentErr
	}
	comment.ID = f.id("comment")
	comment.CreatedAt = time.Now().UTC()
	f.comments = append(f.comments, *comment)
	return nil
}

func (f *fakeStore) ListCommentsForProject(_ context.Context, projectID string) ([]model.Comment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []model.Comment{}
	for i := len(f.comments) - 1; i >= 0; i-- {
		if f.comments[i].ProjectID == projectID {
			out = append(out, f.comments[i])
		}
	}
	return out, nil
}

func (f *fakeStore) ListComments(_ context.Context) ([]model.Comment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]model.Comment{}, f.comments...), nil
}

func (f *fakeStore) ImportUsers(_ context.Context, users []model.User) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
outer:
	for _, u := range users {
		for _, existing := range f.users {
			if existing.ID == u.ID || existing.Username == u.Username {
				continue outer
			}
		}
		f.users = append(f.users, u)
		n++
	}
	return n, nil
}

func (f *fakeStore) ImportRequests(_ context.Context, reqs []model.ConnectionRequest) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
outer:
	for _, r := range reqs {
		for _, existing := range f.requests {
			if existing.ID == r.ID {
				continue outer
			}
		}
		f.requests = append(f.requests, r)
		n++
	}
	return n, nil
}

func (f *fakeStore) ImportProjects(_ context.Context, projects []model.Project) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
outer:
	for _, p := range projects {
		for _, existing := range f.projects {
			if existing.ID == p.ID {
				continue outer
			}
		}
		f.projects = append(f.projects, p)
		n++
	}
	return n, nil
}

func (f *fakeStore) ImportComments(_ context.Context, comments []model.Comment) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
outer:
	for _, c := range comments {
		for _, existing := range f.comments {
			if existing.ID == c.ID {
				continue outer
			}
		}
		f.comments = append(f.comments, c)
		n++
	}
	return n, nil
}

// =========================================================================
// RECORDING PUBLISHER
// =========================================================================

type published struct {
	topics []string
	event  model.Event
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []published
}

func (p *recordingPublisher) Publish(topics []string, ev model.Event) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, published{topics: topics, event: ev})
}

func (p *recordingPublisher) last() published {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.events) == 0 {
		return published{}
	}
	return p.events[len(p.events)-1]
}

// =========================================================================
// HELPERS
// =========================================================================

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

// services bundles every service over one fake store, the way server.New
// wires them over one database.
type services struct {
	store       *fakeStore
	events      *recordingPublisher
	auth        *AuthService
	connections *ConnectionService
	projects    *ProjectService
	comments    *CommentService
	transfer    *TransferService
}

func newTestServices(t *testing.T) *services {
	t.Helper()

	ts, err := auth.NewTokenService("test-secret-at-least-16-chars!!", time.Hour)
	if err != nil {
		t.Fatalf("NewTokenService: %v", err)
	}

	store := newFakeStore()
	events := &recordingPublisher{}
	logger := testLogger()

	return &services{
		store:       store,
		events:      events,
		auth:        NewAuthService(store, ts, auth.NewPasswordServiceForTest(4), logger),
		connections: NewConnectionService(store, store, events, logger),
		projects:    NewProjectService(store, store, store, events, logger),
		comments:    NewCommentService(store, store, events, logger),
		transfer:    NewTransferService(store, logger),
	}
}

func (s *services) register(t *testing.T, usernames ...string) {
	t.Helper()
	for _, name := range usernames {
		if _, err := s.auth.Register(context.Background(), name, "password123"); err != nil {
			t.Fatalf("setup: Register(%q) error = %v", name, err)
		}
	}
}

// acceptedRequest registers from and to, and returns an accepted request
// between them.
func (s *services) acceptedRequest(t *testing.T, from, to string) *model.ConnectionRequest {
	t.Helper()
	ctx := context.Background()
	s.register(t, from, to)

	req, err := s.connections.Create(ctx, from, to, "Logo")
	if err != nil {
		t.Fatalf("setup: Create request error = %v", err)
	}
	accepted := string(model.RequestStatusAccepted)
	req, err = s.connections.UpdateStatus(ctx, req.ID, &accepted)
	if err != nil {
		t.Fatalf("setup: accept request error = %v", err)
	}
	return req
}

func ptr[T any](v T) *T {
	return &v
}
