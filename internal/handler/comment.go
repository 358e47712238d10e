package handler

import (
	"log/slog"
	"net/http"

	"github.com/sakif/flashgig/internal/service"
)

type CommentHandler struct {
	comments *service.CommentService
	logger   *slog.Logger
}

func NewCommentHandler(comments *service.CommentService, logger *slog.Logger) *CommentHandler {
	return &CommentHandler{comments: comments, logger: logger}
}

type createCommentBody struct {
	ProjectID string   `json:"project_id"`
	Username  string   `json:"username"`
	Text      string   `json:"text"`
	Timestamp *float64 `json:"timestamp"`
}

// HTTP: POST /comments
// REQUEST BODY: {"project_id", "username", "text", "timestamp"?}
func (h *CommentHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var body createCommentBody
	if err := decodeJSON(w, r, &body); err != nil {
		writeError(w, h.logger, err)
		return
	}

	comment, err := h.comments.Create(r.Context(), body.ProjectID, body.Username, body.Text, body.Timestamp)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusCreated, comment)
}

// HTTP: GET /comments?project_id=...
func (h *CommentHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	comments, err := h.comments.ListForProject(r.Context(), r.URL.Query().Get("project_id"))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, comments)
}
