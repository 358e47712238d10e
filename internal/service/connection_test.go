package service

import (
	"context"
	"errors"
	"testing"

	"github.com/sakif/flashgig/internal/apperror"
	"github.com/sakif/flashgig/internal/auth"
	"github.com/sakif/flashgig/internal/model"
)

func TestConnectionCreate_Success(t *testing.T) {
	s := newTestServices(t)
	s.register(t, "alice", "bob")

	req, err := s.connections.Create(context.Background(), " alice ", "bob", "  Logo ")
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if req.ID == "" {
		t.Error("expected request to have an ID")
	}
	if req.FromUsername != "alice" || req.ProjectName != "Logo" {
		t.Errorf("fields not trimmed: %+v", req)
	}
	if req.Status != model.RequestStatusRequested {
		t.Errorf("Status = %q, want %q", req.Status, model.RequestStatusRequested)
	}

	ev := s.events.last()
	if ev.event.Type != model.EventRequestCreated {
		t.Errorf("event type = %q, want %q", ev.event.Type, model.EventRequestCreated)
	}
	if len(ev.topics) != 2 || ev.topics[0] != "user:alice" || ev.topics[1] != "user:bob" {
		t.Errorf("event topics = %v", ev.topics)
	}
}

func TestConnectionCreate_Errors(t *testing.T) {
	tests := []struct {
		name        string
		from, to, p string
		wantKind    error
		wantMsg     string
	}{
		{"missing project", "alice", "bob", "  ", apperror.ErrValidation, "from_username, to_username and project_name are required"},
		{"missing from", "", "bob", "Logo", apperror.ErrValidation, "from_username, to_username and project_name are required"},
		{"unknown sender", "zed", "bob", "Logo", apperror.ErrNotFound, "User not found"},
		{"unknown receiver", "alice", "zed", "Logo", apperror.ErrNotFound, "User not found"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestServices(t)
			s.register(t, "alice", "bob")

			_, err := s.connections.Create(context.Background(), tt.from, tt.to, tt.p)
			if !errors.Is(err, tt.wantKind) {
				t.Fatalf("Create() error = %v, want %v", err, tt.wantKind)
			}
			if err.Error() != tt.wantMsg {
				t.Errorf("message = %q, want %q", err.Error(), tt.wantMsg)
			}
		})
	}
}

func TestConnectionCreate_AuthenticatedCallerMustBeSender(t *testing.T) {
	s := newTestServices(t)
	s.register(t, "alice", "bob")
	ctx := auth.WithUsername(context.Background(), "bob")

	_, err := s.connections.Create(ctx, "alice", "bob", "Logo")
	if !errors.Is(err, apperror.ErrForbidden) {
		t.Fatalf("Create() as someone else error = %v, want ErrForbidden", err)
	}

	if _, err := s.connections.Create(ctx, "bob", "alice", "Logo"); err != nil {
		t.Fatalf("Create() as self error = %v", err)
	}
}

func TestConnectionListForUser(t *testing.T) {
	s := newTestServices(t)
	s.register(t, "alice", "bob", "carol")
	ctx := context.Background()

	first, _ := s.connections.Create(ctx, "alice", "bob", "One")
	_, _ = s.connections.Create(ctx, "bob", "carol", "Two")
	third, _ := s.connections.Create(ctx, "carol", "alice", "Three")

	reqs, err := s.connections.ListForUser(ctx, "alice")
	if err != nil {
		t.Fatalf("ListForUser() error = %v", err)
	}
	if len(reqs) != 2 {
		t.Fatalf("len = %d, want 2", len(reqs))
	}
	if reqs[0].ID != third.ID || reqs[1].ID != first.ID {
		t.Errorf("requests not newest first: %v, %v", reqs[0].ID, reqs[1].ID)
	}

	if _, err := s.connections.ListForUser(ctx, ""); !errors.Is(err, apperror.ErrValidation) {
		t.Errorf("ListForUser(\"\") error = %v, want ErrValidation", err)
	}
	if _, err := s.connections.ListForUser(ctx, "nobody"); !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("ListForUser(unknown) error = %v, want ErrNotFound", err)
	}
}

func TestConnectionUpdateStatus(t *testing.T) {
	s := newTestServices(t)
	s.register(t, "alice", "bob")
	ctx := context.Background()
	req, _ := s.connections.Create(ctx, "alice", "bob", "Logo")

	t.Run("nil status leaves request unchanged", func(t *testing.T) {
		got, err := s.connections.UpdateStatus(ctx, req.ID, nil)
		if err != nil {
			t.Fatalf("UpdateStatus(nil) error = %v", err)
		}
		if got.Status != model.RequestStatusRequested {
			t.Errorf("Status = %q, want unchanged", got.Status)
		}
	})

	t.Run("invalid status", func(t *testing.T) {
		_, err := s.connections.UpdateStatus(ctx, req.ID, ptr("rejected"))
		if !errors.Is(err, apperror.ErrValidation) || err.Error() != "Invalid status" {
			t.Fatalf("UpdateStatus(rejected) error = %v, want Invalid status", err)
		}
	})

	t.Run("unknown id", func(t *testing.T) {
		_, err := s.connections.UpdateStatus(ctx, "missing", ptr("accepted"))
		if !errors.Is(err, apperror.ErrNotFound) || err.Error() != "Request not found" {
			t.Fatalf("UpdateStatus(missing) error = %v, want Request not found", err)
		}
	})

	t.Run("outsider with token", func(t *testing.T) {
		s.register(t, "mallory")
		_, err := s.connections.UpdateStatus(auth.WithUsername(ctx, "mallory"), req.ID, ptr("accepted"))
		if !errors.Is(err, apperror.ErrForbidden) {
			t.Fatalf("UpdateStatus by outsider error = %v, want ErrForbidden", err)
		}
	})

	t.Run("accept", func(t *testing.T) {
		got, err := s.connections.UpdateStatus(auth.WithUsername(ctx, "bob"), req.ID, ptr("accepted"))
		if err != nil {
			t.Fatalf("UpdateStatus(accepted) error = %v", err)
		}
		if got.Status != model.RequestStatusAccepted {
			t.Errorf("Status = %q, want accepted", got.Status)
		}
		if ev := s.events.last(); ev.event.Type != model.EventRequestUpdated {
			t.Errorf("event type = %q, want %q", ev.event.Type, model.EventRequestUpdated)
		}
	})
}
