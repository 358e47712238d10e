package api

import (
	"context"
	"net/http"
	"net/url"

	"github.com/sakif/flashgig/internal/model"
)

// UserWithToken is the body returned by register and login. Token is empty
// when the server runs without session tokens.
type UserWithToken struct {
	model.User
	Token string `json:"token,omitempty"`
}

type credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Health checks that the server is up.
func (c *Client) Health(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, "/health", nil, nil, nil)
}

func (c *Client) Register(ctx context.Context, username, password string) (*UserWithToken, error) {
	var out UserWithToken
	if err := c.do(ctx, http.MethodPost, "/register", nil, credentials{username, password}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Login(ctx context.Context, username, password string) (*UserWithToken, error) {
	var out UserWithToken
	if err := c.do(ctx, http.MethodPost, "/login", nil, credentials{username, password}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) GetUser(ctx context.Context, username string) (*model.User, error) {
	var out model.User
	if err := c.do(ctx, http.MethodGet, "/users/"+url.PathEscape(username), nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Me returns the user the client's token belongs to.
func (c *Client) Me(ctx context.Context) (*model.User, error) {
	var out model.User
	if err := c.do(ctx, http.MethodGet, "/me", nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// === Connection requests ===

func (c *Client) CreateRequest(ctx context.Context, from, to, projectName string) (*model.ConnectionRequest, error) {
	body := map[string]string{
		"from_username": from,
		"to_username":   to,
		"project_name":  projectName,
	}
	var out model.ConnectionRequest
	if err := c.do(ctx, http.MethodPost, "/requests", nil, body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) ListRequests(ctx context.Context, username string) ([]model.ConnectionRequest, error) {
	var out []model.ConnectionRequest
	if err := c.do(ctx, http.MethodGet, "/requests", url.Values{"user": {username}}, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) UpdateRequestStatus(ctx context.Context, id string, status model.RequestStatus) (*model.ConnectionRequest, error) {
	body := map[string]model.RequestStatus{"status": status}
	var out model.ConnectionRequest
	if err := c.do(ctx, http.MethodPatch, "/requests/"+url.PathEscape(id), nil, body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// === Projects ===

func (c *Client) CreateProject(ctx context.Context, requestID, title, description string) (*model.Project, error) {
	body := map[string]string{
		"request_id":  requestID,
		"title":       title,
		"description": description,
	}
	var out model.Project
	if err := c.do(ctx, http.MethodPost, "/projects", nil, body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) ListProjects(ctx context.Context, username string) ([]model.Project, error) {
	var out []model.Project
	if err := c.do(ctx, http.MethodGet, "/projects", url.Values{"user": {username}}, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) GetProject(ctx context.Context, id string) (*model.Project, error) {
	var out model.Project
	if err := c.do(ctx, http.MethodGet, "/projects/"+url.PathEscape(id), nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateProject applies the non-nil fields of patch.
func (c *Client) UpdateProject(ctx context.Context, id string, patch model.ProjectPatch) (*model.Project, error) {
	var out model.Project
	if err := c.do(ctx, http.MethodPatch, "/projects/"+url.PathEscape(id), nil, patch, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// === Comments ===

type createCommentBody struct {
	ProjectID string   `json:"project_id"`
	Username  string   `json:"username"`
	Text      string   `json:"text"`
	Timestamp *float64 `json:"timestamp,omitempty"`
}

func (c *Client) CreateComment(ctx context.Context, projectID, username, text string, timestamp *float64) (*model.Comment, error) {
	body := createCommentBody{ProjectID: projectID, Username: username, Text: text, Timestamp: timestamp}
	var out model.Comment
	if err := c.do(ctx, http.MethodPost, "/comments", nil, body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) ListComments(ctx context.Context, projectID string) ([]model.Comment, error) {
	var out []model.Comment
	if err := c.do(ctx, http.MethodGet, "/comments", url.Values{"project_id": {projectID}}, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// === Convenience lookups ===
//
// These never fail: any error yields an empty slice. Use the List methods
// when the caller needs to tell "none" from "could not ask".

func (c *Client) UserConnections(ctx context.Context, username string) []model.ConnectionRequest {
	reqs, err := c.ListRequests(ctx, username)
	if err != nil || reqs == nil {
		return []model.ConnectionRequest{}
	}
	return reqs
}

func (c *Client) UserProjects(ctx context.Context, username string) []model.Project {
	projects, err := c.ListProjects(ctx, username)
	if err != nil || projects == nil {
		return []model.Project{}
	}
	return projects
}

func (c *Client) ProjectComments(ctx context.Context, projectID string) []model.Comment {
	comments, err := c.ListComments(ctx, projectID)
	if err != nil || comments == nil {
		return []model.Comment{}
	}
	return comments
}
