package service

import (
	"context"
	"errors"
	"testing"

	"github.com/sakif/flashgig/internal/apperror"
	"github.com/sakif/flashgig/internal/model"
)

func TestProjectCreate_Success(t *testing.T) {
	s := newTestServices(t)
	req := s.acceptedRequest(t, "alice", "bob")

	project, err := s.projects.Create(context.Background(), req.ID, "  Logo Design ", " first pass ")
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if project.Title != "Logo Design" || project.Description != "first pass" {
		t.Errorf("fields not trimmed: %+v", project)
	}
	if project.Status != model.ProjectStatusInProgress {
		t.Errorf("Status = %q, want %q", project.Status, model.ProjectStatusInProgress)
	}

	ev := s.events.last()
	if ev.event.Type != model.EventProjectCreated {
		t.Fatalf("event type = %q", ev.event.Type)
	}
	want := map[string]bool{"project:" + project.ID: true, "user:alice": true, "user:bob": true}
	if len(ev.topics) != len(want) {
		t.Fatalf("topics = %v", ev.topics)
	}
	for _, topic := range ev.topics {
		if !want[topic] {
			t.Errorf("unexpected topic %q", topic)
		}
	}
}

func TestProjectCreate_Errors(t *testing.T) {
	s := newTestServices(t)
	s.register(t, "alice", "bob")
	ctx := context.Background()
	pending, _ := s.connections.Create(ctx, "alice", "bob", "Logo")

	tests := []struct {
		name      string
		requestID string
		title     string
		wantKind  error
		wantMsg   string
	}{
		{"missing title", pending.ID, " ", apperror.ErrValidation, "request_id and title are required"},
		{"missing request id", "", "Logo", apperror.ErrValidation, "request_id and title are required"},
		{"unknown request", "nope", "Logo", apperror.ErrNotFound, "Connection request not found"},
		{"not accepted", pending.ID, "Logo", apperror.ErrValidation, "Connection must be accepted first"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.projects.Create(ctx, tt.requestID, tt.title, "")
			if !errors.Is(err, tt.wantKind) {
				t.Fatalf("Create() error = %v, want %v", err, tt.wantKind)
			}
			if err.Error() != tt.wantMsg {
				t.Errorf("message = %q, want %q", err.Error(), tt.wantMsg)
			}
		})
	}
}

func TestProjectCreate_RequestFlippedBack(t *testing.T) {
	s := newTestServices(t)
	ctx := context.Background()
	req := s.acceptedRequest(t, "alice", "bob")

	if _, err := s.connections.UpdateStatus(ctx, req.ID, ptr("requested")); err != nil {
		t.Fatalf("setup: %v", err)
	}

	_, err := s.projects.Create(ctx, req.ID, "Logo", "")
	if !errors.Is(err, apperror.ErrValidation) {
		t.Fatalf("Create() on flipped request error = %v, want ErrValidation", err)
	}
}

func TestProjectListForUser(t *testing.T) {
	s := newTestServices(t)
	ctx := context.Background()
	req := s.acceptedRequest(t, "alice", "bob")
	s.register(t, "carol")

	older, _ := s.projects.Create(ctx, req.ID, "One", "")
	newer, _ := s.projects.Create(ctx, req.ID, "Two", "")

	projects, err := s.projects.ListForUser(ctx, "bob")
	if err != nil {
		t.Fatalf("ListForUser() error = %v", err)
	}
	if len(projects) != 2 || projects[0].ID != newer.ID || projects[1].ID != older.ID {
		t.Errorf("ListForUser(bob) = %+v, want newest first", projects)
	}

	projects, err = s.projects.ListForUser(ctx, "carol")
	if err != nil {
		t.Fatalf("ListForUser(carol) error = %v", err)
	}
	if len(projects) != 0 {
		t.Errorf("carol should see no projects, got %d", len(projects))
	}

	if _, err := s.projects.ListForUser(ctx, "ghost"); !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("ListForUser(unknown) error = %v, want ErrNotFound", err)
	}
}

func TestProjectUpdate(t *testing.T) {
	s := newTestServices(t)
	ctx := context.Background()
	req := s.acceptedRequest(t, "alice", "bob")
	project, _ := s.projects.Create(ctx, req.ID, "Logo Design", "draft")

	updated, err := s.projects.Update(ctx, project.ID, model.ProjectPatch{Status: ptr("review")})
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if updated.Status != "review" || updated.Title != "Logo Design" || updated.Description != "draft" {
		t.Errorf("Update() = %+v, want only status changed", updated)
	}
	if ev := s.events.last(); ev.event.Type != model.EventProjectUpdated {
		t.Errorf("event type = %q, want %q", ev.event.Type, model.EventProjectUpdated)
	}

	// Status is free text.
	updated, err = s.projects.Update(ctx, project.ID, model.ProjectPatch{Status: ptr("on hold"), Title: ptr("")})
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if updated.Status != "on hold" || updated.Title != "" {
		t.Errorf("Update() = %+v", updated)
	}

	got, err := s.projects.Update(ctx, project.ID, model.ProjectPatch{})
	if err != nil {
		t.Fatalf("Update(empty) error = %v", err)
	}
	if got.Status != "on hold" {
		t.Errorf("empty patch changed the project: %+v", got)
	}

	if _, err := s.projects.Update(ctx, "missing", model.ProjectPatch{Status: ptr("review")}); !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("Update(missing) error = %v, want ErrNotFound", err)
	}
	if _, err := s.projects.Get(ctx, "missing"); !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("Get(missing) error = %v, want ErrNotFound", err)
	}
}
