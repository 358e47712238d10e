// Package repository declares the storage contracts the services depend on.
// The SQL implementation lives in repository/sqlstore; tests use in-memory
// fakes.
package repository

import (
	"context"

	"github.com/sakif/flashgig/internal/model"
)

type UserRepository interface {
	// CreateUser assigns ID and CreatedAt. A taken username yields an
	// apperror validation error.
	CreateUser(ctx context.Context, user *model.User) error
	GetUserByUsername(ctx context.Context, username string) (*model.User, error)
	GetUserByGitHubID(ctx context.Context, githubID int64) (*model.User, error)
	UpdatePasswordHash(ctx context.Context, username, hash string) error
	ListUsers(ctx context.Context) ([]model.User, error)
}

type RequestRepository interface {
	CreateRequest(ctx context.Context, req *model.ConnectionRequest) error
	GetRequest(ctx context.Context, id string) (*model.ConnectionRequest, error)
	// ListRequestsForUser returns requests sent or received by username,
	// newest first.
	ListRequestsForUser(ctx context.Context, username string) ([]model.ConnectionRequest, error)
	UpdateRequestStatus(ctx context.Context, id string, status model.RequestStatus) (*model.ConnectionRequest, error)
	ListRequests(ctx context.Context) ([]model.ConnectionRequest, error)
}

type ProjectRepository interface {
	// CreateProject inserts only if the referenced request is accepted at
	// the moment of the insert. A missing request yields a not-found error,
	// an unaccepted one a validation error.
	CreateProject(ctx context.Context, project *model.Project) error
	GetProject(ctx context.Context, id string) (*model.Project, error)
	// ListProjectsForUser returns projects backed by accepted requests that
	// involve username, newest first.
	ListProjectsForUser(ctx context.Context, username string) ([]model.Project, error)
	UpdateProject(ctx context.Context, id string, patch model.ProjectPatch) (*model.Project, error)
	ListProjects(ctx context.Context) ([]model.Project, error)
}

type CommentRepository interface {
	CreateComment(ctx context.Context, comment *model.Comment) error
	// ListCommentsForProject returns every comment on projectID, newest first.
	ListCommentsForProject(ctx context.Context, projectID string) ([]model.Comment, error)
	ListComments(ctx context.Context) ([]model.Comment, error)
}

// Importer writes records that already carry IDs and timestamps. Records
// whose ID (or username) already exists are skipped; the return value is the
// number actually inserted.
type Importer interface {
	ImportUsers(ctx context.Context, users []model.User) (int, error)
	ImportRequests(ctx context.Context, reqs []model.ConnectionRequest) (int, error)
	ImportProjects(ctx context.Context, projects []model.Project) (int, error)
	ImportComments(ctx context.Context, comments []model.Comment) (int, error)
}

// Store is everything the server needs from persistence.
type Store interface {
	UserRepository
	RequestRepository
	ProjectRepository
	CommentRepository
	Importer
}
