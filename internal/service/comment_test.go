package service

import (
	"context"
	"errors"
	"testing"

	"github.com/sakif/flashgig/internal/apperror"
	"github.com/sakif/flashgig/internal/auth"
	"github.com/sakif/flashgig/internal/model"
)

func TestCommentCreate(t *testing.T) {
	s := newTestServices(t)
	s.register(t, "alice")
	ctx := context.Background()

	comment, err := s.comments.Create(ctx, "p1", " alice ", "  Looks great ", ptr(12.5))
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if comment.Text != "Looks great" || comment.Username != "alice" {
		t.Errorf("fields not trimmed: %+v", comment)
	}
	if comment.Timestamp == nil || *comment.Timestamp != 12.5 {
		t.Errorf("Timestamp = %v, want 12.5", comment.Timestamp)
	}

	ev := s.events.last()
	if ev.event.Type != model.EventCommentCreated || len(ev.topics) != 1 || ev.topics[0] != "project:p1" {
		t.Errorf("event = %+v", ev)
	}
}

func TestCommentCreate_ProjectNotChecked(t *testing.T) {
	s := newTestServices(t)
	s.register(t, "alice")

	if _, err := s.comments.Create(context.Background(), "no-such-project", "alice", "hi", nil); err != nil {
		t.Fatalf("Create() on unknown project error = %v, want success", err)
	}
}

func TestCommentCreate_Errors(t *testing.T) {
	s := newTestServices(t)
	s.register(t, "alice", "bob")
	ctx := context.Background()

	tests := []struct {
		name     string
		ctx      context.Context
		project  string
		username string
		text     string
		wantKind error
	}{
		{"missing text", ctx, "p1", "alice", "   ", apperror.ErrValidation},
		{"missing project", ctx, "", "alice", "hi", apperror.ErrValidation},
		{"unknown user", ctx, "p1", "ghost", "hi", apperror.ErrNotFound},
		{"impersonation", auth.WithUsername(ctx, "bob"), "p1", "alice", "hi", apperror.ErrForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.comments.Create(tt.ctx, tt.project, tt.username, tt.text, nil)
			if !errors.Is(err, tt.wantKind) {
				t.Fatalf("Create() error = %v, want %v", err, tt.wantKind)
			}
		})
	}
}

func TestCommentCreate_RepositoryError(t *testing.T) {
	s := newTestServices(t)
	s.register(t, "alice")
	s.store.createCommentErr = errors.New("connection reset")

	_, err := s.comments.Create(context.Background(), "p1", "alice", "hi", nil)
	if err == nil {
		t.Fatal("Create() should propagate repository errors")
	}
}

func TestCommentListForProject(t *testing.T) {
	s := newTestServices(t)
	s.register(t, "alice")
	ctx := context.Background()

	first, _ := s.comments.Create(ctx, "p1", "alice", "one", nil)
	_, _ = s.comments.Create(ctx, "p2", "alice", "other", nil)
	second, _ := s.comments.Create(ctx, "p1", "alice", "two", nil)

	comments, err := s.comments.ListForProject(ctx, "p1")
	if err != nil {
		t.Fatalf("ListForProject() error = %v", err)
	}
	if len(comments) != 2 || comments[0].ID != second.ID || comments[1].ID != first.ID {
		t.Errorf("ListForProject() = %+v, want newest first", comments)
	}

	if _, err := s.comments.ListForProject(ctx, ""); !errors.Is(err, apperror.ErrValidation) {
		t.Errorf("ListForProject(\"\") error = %v, want ErrValidation", err)
	}
}
