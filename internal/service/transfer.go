package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/sakif/flashgig/internal/jsonstore"
	"github.com/sakif/flashgig/internal/model"
	"github.com/sakif/flashgig/internal/repository"
)

// TransferService moves data between the database and the flat JSON file
// format: importing legacy data directories and exporting snapshots.
type TransferService struct {
	store  repository.Store
	logger *slog.Logger
}

func NewTransferService(store repository.Store, logger *slog.Logger) *TransferService {
	return &TransferService{store: store, logger: logger}
}

// ImportCounts is the number of records actually inserted per collection.
type ImportCounts struct {
	Users    int `json:"users"`
	Requests int `json:"requests"`
	Projects int `json:"projects"`
	Comments int `json:"comments"`
}

func (c ImportCounts) Total() int {
	return c.Users + c.Requests + c.Projects + c.Comments
}

// Import inserts every record of snap, keeping IDs, password hashes and
// timestamps. Records already present are skipped, so importing the same
// directory twice is harmless.
func (s *TransferService) Import(ctx context.Context, snap jsonstore.Snapshot) (ImportCounts, error) {
	var counts ImportCounts
	var err error

	users := make([]model.User, 0, len(snap.Users))
	for _, r := range snap.Users {
		users = append(users, r.Model())
	}
	if counts.Users, err = s.store.ImportUsers(ctx, users); err != nil {
		return counts, fmt.Errorf("service/transfer: importing users: %w", err)
	}

	reqs := make([]model.ConnectionRequest, 0, len(snap.Requests))
	for _, r := range snap.Requests {
		reqs = append(reqs, r.Model())
	}
	if counts.Requests, err = s.store.ImportRequests(ctx, reqs); err != nil {
		return counts, fmt.Errorf("service/transfer: importing requests: %w", err)
	}

	projects := make([]model.Project, 0, len(snap.Projects))
	for _, r := range snap.Projects {
		projects = append(projects, r.Model())
	}
	if counts.Projects, err = s.store.ImportProjects(ctx, projects); err != nil {
		return counts, fmt.Errorf("service/transfer: importing projects: %w", err)
	}

	comments := make([]model.Comment, 0, len(snap.Comments))
	for _, r := range snap.Comments {
		comments = append(comments, r.Model())
	}
	if counts.Comments, err = s.store.ImportComments(ctx, comments); err != nil {
		return counts, fmt.Errorf("service/transfer: importing comments: %w", err)
	}

	s.logger.Info("data imported",
		slog.Int("users", counts.Users),
		slog.Int("requests", counts.Requests),
		slog.Int("projects", counts.Projects),
		slog.Int("comments", counts.Comments),
	)
	return counts, nil
}

// ImportDir loads the collection files in dir and imports them.
func (s *TransferService) ImportDir(ctx context.Context, dir string) (ImportCounts, error) {
	return s.Import(ctx, jsonstore.LoadDir(dir))
}

// Export reads every record into a snapshot.
func (s *TransferService) Export(ctx context.Context) (jsonstore.Snapshot, error) {
	var snap jsonstore.Snapshot

	users, err := s.store.ListUsers(ctx)
	if err != nil {
		return snap, fmt.Errorf("service/transfer: listing users: %w", err)
	}
	for _, u := range users {
		snap.Users = append(snap.Users, jsonstore.UserRecordOf(u))
	}

	reqs, err := s.store.ListRequests(ctx)
	if err != nil {
		return snap, fmt.Errorf("service/transfer: listing requests: %w", err)
	}
	for _, r := range reqs {
		snap.Requests = append(snap.Requests, jsonstore.RequestRecordOf(r))
	}

	projects, err := s.store.ListProjects(ctx)
	if err != nil {
		return snap, fmt.Errorf("service/transfer: listing projects: %w", err)
	}
	for _, p := range projects {
		snap.Projects = append(snap.Projects, jsonstore.ProjectRecordOf(p))
	}

	comments, err := s.store.ListComments(ctx)
	if err != nil {
		return snap, fmt.Errorf("service/transfer: listing comments: %w", err)
	}
	for _, c := range comments {
		snap.Comments = append(snap.Comments, jsonstore.CommentRecordOf(c))
	}

	return snap, nil
}

// ExportDir writes a snapshot of the database into dir.
func (s *TransferService) ExportDir(ctx context.Context, dir string) (jsonstore.Snapshot, error) {
	snap, err := s.Export(ctx)
	if err != nil {
		return snap, err
	}
	if err := jsonstore.SaveDir(dir, snap); err != nil {
		return snap, fmt.Errorf("service/transfer: %w", err)
	}

	s.logger.Info("data exported",
		slog.String("dir", dir),
		slog.Int("users", len(snap.Users)),
		slog.Int("requests", len(snap.Requests)),
		slog.Int("projects", len(snap.Projects)),
		slog.Int("comments", len(snap.Comments)),
	)
	return snap, nil
}
