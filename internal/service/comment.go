package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/sakif/flashgig/internal/apperror"
	"github.com/sakif/flashgig/internal/model"
	"github.com/sakif/flashgig/internal/repository"
)

type CommentService struct {
	users    repository.UserRepository
	comments repository.CommentRepository
	events   Publisher
	logger   *slog.Logger
}

func NewCommentService(
	users repository.UserRepository,
	comments repository.CommentRepository,
	events Publisher,
	logger *slog.Logger,
) *CommentService {
	return &CommentService{
		users:    users,
		comments: comments,
		events:   events,
		logger:   logger,
	}
}

// Create appends a comment. The author must exist; the project is not
// looked up, so comments can be attached to any project ID.
func (s *CommentService) Create(ctx context.Context, projectID, username, text string, timestamp *float64) (*model.Comment, error) {
	projectID, username, text = trim(projectID), trim(username), trim(text)

	if err := requireRequired("project_id",
		"project_id, username, and text are required",
		projectID, username, text,
	); err != nil {
		return nil, err
	}
	if err := requireSelf(ctx, username, "You can only comment as yourself"); err != nil {
		return nil, err
	}
	if _, err := s.users.GetUserByUsername(ctx, username); err != nil {
		return nil, err
	}

	comment := &model.Comment{
		ProjectID: projectID,
		Username:  username,
		Text:      text,
		Timestamp: timestamp,
	}
	if err := s.comments.CreateComment(ctx, comment); err != nil {
		s.logger.Error("failed to create comment", slog.String("project_id", projectID), errAttr(err))
		return nil, fmt.Errorf("service/comment: creating comment: %w", err)
	}

	s.logger.Info("comment added",
		slog.String("id", comment.ID),
		slog.String("project_id", projectID),
		slog.String("username", username),
	)
	publish(s.events,
		model.Event{Type: model.EventCommentCreated, Data: comment},
		model.ProjectTopic(projectID),
	)

	return comment, nil
}

// ListForProject returns every comment on projectID, newest first.
func (s *CommentService) ListForProject(ctx context.Context, projectID string) ([]model.Comment, error) {
	projectID = trim(projectID)
	if projectID == "" {
		return nil, apperror.ValidationFailed("project_id", "project_id query parameter is required")
	}

	comments, err := s.comments.ListCommentsForProject(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("service/comment: listing comments for %s: %w", projectID, err)
	}
	return comments, nil
}
