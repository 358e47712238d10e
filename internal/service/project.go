package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/sakif/flashgig/internal/apperror"
	"github.com/sakif/flashgig/internal/model"
	"github.com/sakif/flashgig/internal/repository"
)

// ProjectService manages projects built on accepted connections.
type ProjectService struct {
	users    repository.UserRepository
	requests repository.RequestRepository
	projects repository.ProjectRepository
	events   Publisher
	logger   *slog.Logger
}

func NewProjectService(
	users repository.UserRepository,
	requests repository.RequestRepository,
	projects repository.ProjectRepository,
	events Publisher,
	logger *slog.Logger,
) *ProjectService {
	return &ProjectService{
		users:    users,
		requests: requests,
		projects: projects,
		events:   events,
		logger:   logger,
	}
}

// Create starts a project on requestID. The request must exist and be
// accepted at the moment of the insert; the store checks both in the same
// transaction as the write.
func (s *ProjectService) Create(ctx context.Context, requestID, title, description string) (*model.Project, error) {
	requestID, title, description = trim(requestID), trim(title), trim(description)

	if err := requireRequired("request_id", "request_id and title are required", requestID, title); err != nil {
		return nil, err
	}

	project := &model.Project{
		RequestID:   requestID,
		Title:       title,
		Description: description,
		Status:      model.ProjectStatusInProgress,
	}
	if err := s.projects.CreateProject(ctx, project); err != nil {
		var appErr *apperror.AppError
		if errors.As(err, &appErr) {
			return nil, err
		}
		s.logger.Error("failed to create project", slog.String("request_id", requestID), errAttr(err))
		return nil, fmt.Errorf("service/project: creating project: %w", err)
	}

	s.logger.Info("project created",
		slog.String("id", project.ID),
		slog.String("request_id", requestID),
	)
	s.publish(ctx, model.EventProjectCreated, project)

	return project, nil
}

// ListForUser returns the projects of every accepted request username takes
// part in, newest first.
func (s *ProjectService) ListForUser(ctx context.Context, username string) ([]model.Project, error) {
	username = trim(username)
	if username == "" {
		return nil, apperror.ValidationFailed("user", "user query parameter is required")
	}
	if _, err := s.users.GetUserByUsername(ctx, username); err != nil {
		return nil, err
	}

	projects, err := s.projects.ListProjectsForUser(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("service/project: listing projects for %q: %w", username, err)
	}
	return projects, nil
}

func (s *ProjectService) Get(ctx context.Context, id string) (*model.Project, error) {
	return s.projects.GetProject(ctx, id)
}

// Update applies a partial update. Values are stored as given; status is
// free text.
func (s *ProjectService) Update(ctx context.Context, id string, patch model.ProjectPatch) (*model.Project, error) {
	if patch.Empty() {
		return s.projects.GetProject(ctx, id)
	}

	project, err := s.projects.UpdateProject(ctx, id, patch)
	if err != nil {
		return nil, err
	}

	s.logger.Info("project updated", slog.String("id", id), slog.String("status", project.Status))
	s.publish(ctx, model.EventProjectUpdated, project)

	return project, nil
}

// publish notifies the project topic and, when the backing request can be
// read, both participants.
func (s *ProjectService) publish(ctx context.Context, eventType string, project *model.Project) {
	if s.events == nil {
		return
	}

	topics := []string{model.ProjectTopic(project.ID)}
	if req, err := s.requests.GetRequest(ctx, project.RequestID); err == nil {
		topics = append(topics, model.UserTopic(req.FromUsername), model.UserTopic(req.ToUsername))
	} else {
		s.logger.Debug("project event without participants",
			slog.String("id", project.ID),
			errAttr(err),
		)
	}

	publish(s.events, model.Event{Type: eventType, Data: project}, topics...)
}
