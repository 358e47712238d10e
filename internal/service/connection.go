package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/sakif/flashgig/internal/apperror"
	"github.com/sakif/flashgig/internal/auth"
	"github.com/sakif/flashgig/internal/model"
	"github.com/sakif/flashgig/internal/repository"
)

// ConnectionService manages connection requests between two users.
type ConnectionService struct {
	users    repository.UserRepository
	requests repository.RequestRepository
	events   Publisher
	logger   *slog.Logger
}

func NewConnectionService(
	users repository.UserRepository,
	requests repository.RequestRepository,
	events Publisher,
	logger *slog.Logger,
) *ConnectionService {
	return &ConnectionService{
		users:    users,
		requests: requests,
		events:   events,
		logger:   logger,
	}
}

// Create sends a request from one user to another. Both must exist. An
// authenticated caller may only send as themselves.
func (s *ConnectionService) Create(ctx context.Context, from, to, projectName string) (*model.ConnectionRequest, error) {
	from, to, projectName = trim(from), trim(to), trim(projectName)

	if err := requireRequired("from_username",
		"from_username, to_username and project_name are required",
		from, to, projectName,
	); err != nil {
		return nil, err
	}
	if err := requireSelf(ctx, from, "You can only send requests as yourself"); err != nil {
		return nil, err
	}

	for _, name := range []string{from, to} {
		if _, err := s.users.GetUserByUsername(ctx, name); err != nil {
			return nil, err
		}
	}

	req := &model.ConnectionRequest{
		FromUsername: from,
		ToUsername:   to,
		ProjectName:  projectName,
		Status:       model.RequestStatusRequested,
	}
	if err := s.requests.CreateRequest(ctx, req); err != nil {
		s.logger.Error("failed to create request",
			slog.String("from", from),
			slog.String("to", to),
			errAttr(err),
		)
		return nil, fmt.Errorf("service/connection: creating request: %w", err)
	}

	s.logger.Info("connection requested",
		slog.String("id", req.ID),
		slog.String("from", from),
		slog.String("to", to),
	)
	publish(s.events,
		model.Event{Type: model.EventRequestCreated, Data: req},
		model.UserTopic(from), model.UserTopic(to),
	)

	return req, nil
}

// ListForUser returns every request username sent or received, newest
// first.
func (s *ConnectionService) ListForUser(ctx context.Context, username string) ([]model.ConnectionRequest, error) {
	username = trim(username)
	if username == "" {
		return nil, apperror.ValidationFailed("user", "user query parameter is required")
	}
	if _, err := s.users.GetUserByUsername(ctx, username); err != nil {
		return nil, err
	}

	reqs, err := s.requests.ListRequestsForUser(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("service/connection: listing requests for %q: %w", username, err)
	}
	return reqs, nil
}

// UpdateStatus sets the status of a request. A nil status leaves the
// request untouched and returns it as stored.
func (s *ConnectionService) UpdateStatus(ctx context.Context, id string, status *string) (*model.ConnectionRequest, error) {
	req, err := s.requests.GetRequest(ctx, id)
	if err != nil {
		return nil, err
	}

	if caller, ok := auth.UsernameFromContext(ctx); ok && !req.Involves(caller) {
		return nil, apperror.Forbidden("Only the participants can update a request")
	}

	if status == nil {
		return req, nil
	}
	next := model.RequestStatus(*status)
	if !next.Valid() {
		return nil, apperror.ValidationFailed("status", "Invalid status")
	}

	updated, err := s.requests.UpdateRequestStatus(ctx, id, next)
	if err != nil {
		return nil, err
	}

	s.logger.Info("request status updated",
		slog.String("id", id),
		slog.String("status", string(next)),
	)
	publish(s.events,
		model.Event{Type: model.EventRequestUpdated, Data: updated},
		model.UserTopic(updated.FromUsername), model.UserTopic(updated.ToUsername),
	)

	return updated, nil
}
