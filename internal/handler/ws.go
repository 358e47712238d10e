package handler

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"nhooyr.io/websocket"

	"github.com/sakif/flashgig/internal/apperror"
	"github.com/sakif/flashgig/internal/auth"
	"github.com/sakif/flashgig/internal/model"
	"github.com/sakif/flashgig/internal/ws"
)

// WSHandler upgrades GET /ws to a push-only event stream.
type WSHandler struct {
	hub                *ws.Hub
	insecureSkipVerify bool
	logger             *slog.Logger
}

// NewWSHandler builds the websocket handler. insecureSkipVerify disables
// the Origin check, which browsers on a different dev port otherwise fail.
func NewWSHandler(hub *ws.Hub, insecureSkipVerify bool, logger *slog.Logger) *WSHandler {
	return &WSHandler{hub: hub, insecureSkipVerify: insecureSkipVerify, logger: logger}
}

// HandleWS subscribes the connection to user:<user> and/or
// project:<project_id>.
//
// HTTP: GET /ws?user=alice&project_id=...&token=...
//
// Browsers cannot set an Authorization header on a websocket, so the token
// may come as a query parameter. An authenticated caller may only follow
// their own user topic.
func (h *WSHandler) HandleWS(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	user := strings.TrimSpace(q.Get("user"))
	projectID := strings.TrimSpace(q.Get("project_id"))

	if user == "" && projectID == "" {
		writeError(w, h.logger, apperror.ValidationFailed("user", "user or project_id query parameter is required"))
		return
	}
	if caller, ok := auth.UsernameFromContext(r.Context()); ok && user != "" && user != caller {
		writeError(w, h.logger, apperror.Forbidden("You can only follow your own events"))
		return
	}

	var topics []string
	if user != "" {
		topics = append(topics, model.UserTopic(user))
	}
	if projectID != "" {
		topics = append(topics, model.ProjectTopic(projectID))
	}

	// The server's WriteTimeout would otherwise cut the stream after 15s.
	_ = http.NewResponseController(w).SetWriteDeadline(time.Time{})

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		InsecureSkipVerify: h.insecureSkipVerify,
	})
	if err != nil {
		// Accept has already written the error response.
		h.logger.Warn("websocket accept failed", slog.String("error", err.Error()))
		return
	}

	h.logger.Info("websocket connected", slog.Any("topics", topics))
	if err := h.hub.Serve(r.Context(), conn, topics); err != nil {
		h.logger.Debug("websocket closed", slog.Any("topics", topics), slog.String("error", err.Error()))
		return
	}
	h.logger.Info("websocket disconnected", slog.Any("topics", topics))
}
