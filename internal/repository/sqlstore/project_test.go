package sqlstore

import (
	"context"
	"errors"
	"testing"

	"github.com/sakif/flashgig/internal/apperror"
	"github.com/sakif/flashgig/internal/model"
)

func acceptedRequest(t *testing.T, db *DB, from, to string) *model.ConnectionRequest {
	t.Helper()
	req := createTestRequest(t, db, from, to, "Logo")
	if _, err := db.UpdateRequestStatus(context.Background(), req.ID, model.RequestStatusAccepted); err != nil {
		t.Fatalf("accepting request: %v", err)
	}
	return req
}

func TestCreateProject_AcceptedRequest(t *testing.T) {
	db := newTestDB(t)
	req := acceptedRequest(t, db, "alice", "bob")

	p := &model.Project{RequestID: req.ID, Title: "Logo Design", Description: "vector logo"}
	if err := db.CreateProject(context.Background(), p); err != nil {
		t.Fatalf("CreateProject() error = %v", err)
	}
	if p.ID == "" {
		t.Error("CreateProject() did not set ID")
	}
	if p.Status != model.ProjectStatusInProgress {
		t.Errorf("Status = %q, want in_progress", p.Status)
	}

	found, err := db.GetProject(context.Background(), p.ID)
	if err != nil {
		t.Fatalf("GetProject() error = %v", err)
	}
	if found.Title != "Logo Design" || found.RequestID != req.ID {
		t.Errorf("GetProject() = %+v", found)
	}
}

func TestCreateProject_RequestNotAccepted(t *testing.T) {
	db := newTestDB(t)
	req := createTestRequest(t, db, "alice", "bob", "Logo")

	err := db.CreateProject(context.Background(), &model.Project{RequestID: req.ID, Title: "x"})
	if !errors.Is(err, apperror.ErrValidation) {
		t.Fatalf("expected ErrValidation, got: %v", err)
	}

	projects, _ := db.ListProjects(context.Background())
	if len(projects) != 0 {
		t.Errorf("no project should have been inserted, found %d", len(projects))
	}
}

func TestCreateProject_RequestRevertedToRequested(t *testing.T) {
	db := newTestDB(t)
	req := acceptedRequest(t, db, "alice", "bob")
	if _, err := db.UpdateRequestStatus(context.Background(), req.ID, model.RequestStatusRequested); err != nil {
		t.Fatalf("reverting: %v", err)
	}

	err := db.CreateProject(context.Background(), &model.Project{RequestID: req.ID, Title: "x"})
	if !errors.Is(err, apperror.ErrValidation) {
		t.Errorf("expected ErrValidation, got: %v", err)
	}
}

func TestCreateProject_RequestMissing(t *testing.T) {
	db := newTestDB(t)

	err := db.CreateProject(context.Background(), &model.Project{RequestID: "nope", Title: "x"})
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got: %v", err)
	}
}

func TestListProjectsForUser(t *testing.T) {
	db := newTestDB(t)
	ab := acceptedRequest(t, db, "alice", "bob")
	cd := acceptedRequest(t, db, "carol", "dave")

	mine := &model.Project{RequestID: ab.ID, Title: "Logo Design"}
	theirs := &model.Project{RequestID: cd.ID, Title: "Website"}
	for _, p := range []*model.Project{mine, theirs} {
		if err := db.CreateProject(context.Background(), p); err != nil {
			t.Fatalf("CreateProject() error = %v", err)
		}
	}

	for _, username := range []string{"alice", "bob"} {
		projects, err := db.ListProjectsForUser(context.Background(), username)
		if err != nil {
			t.Fatalf("ListProjectsForUser(%q) error = %v", username, err)
		}
		if len(projects) != 1 || projects[0].ID != mine.ID {
			t.Errorf("ListProjectsForUser(%q) = %+v, want only %s", username, projects, mine.ID)
		}
	}
}

func TestListProjectsForUser_HidesProjectsOfUnacceptedRequests(t *testing.T) {
	db := newTestDB(t)
	req := acceptedRequest(t, db, "alice", "bob")
	if err := db.CreateProject(context.Background(), &model.Project{RequestID: req.ID, Title: "Logo"}); err != nil {
		t.Fatalf("CreateProject() error = %v", err)
	}

	// The project stays, but the listing only follows accepted connections.
	if _, err := db.UpdateRequestStatus(context.Background(), req.ID, model.RequestStatusRequested); err != nil {
		t.Fatalf("reverting: %v", err)
	}

	projects, err := db.ListProjectsForUser(context.Background(), "alice")
	if err != nil {
		t.Fatalf("ListProjectsForUser() error = %v", err)
	}
	if len(projects) != 0 {
		t.Errorf("expected no projects, got %d", len(projects))
	}
}

func TestUpdateProject_Partial(t *testing.T) {
	db := newTestDB(t)
	req := acceptedRequest(t, db, "alice", "bob")
	p := &model.Project{RequestID: req.ID, Title: "Logo", Description: "orig"}
	if err := db.CreateProject(context.Background(), p); err != nil {
		t.Fatalf("CreateProject() error = %v", err)
	}

	status := "review"
	updated, err := db.UpdateProject(context.Background(), p.ID, model.ProjectPatch{Status: &status})
	if err != nil {
		t.Fatalf("UpdateProject() error = %v", err)
	}
	if updated.Status != "review" {
		t.Errorf("Status = %q, want review", updated.Status)
	}
	if updated.Title != "Logo" || updated.Description != "orig" {
		t.Errorf("untouched fields changed: %+v", updated)
	}

	found, _ := db.GetProject(context.Background(), p.ID)
	if found.Status != "review" {
		t.Errorf("persisted Status = %q, want review", found.Status)
	}
}

func TestUpdateProject_NotFound(t *testing.T) {
	db := newTestDB(t)

	title := "x"
	_, err := db.UpdateProject(context.Background(), "missing", model.ProjectPatch{Title: &title})
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got: %v", err)
	}
}
