package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/sakif/flashgig/internal/service"
)

// ConnectionHandler serves /requests.
type ConnectionHandler struct {
	connections *service.ConnectionService
	logger      *slog.Logger
}

func NewConnectionHandler(connections *service.ConnectionService, logger *slog.Logger) *ConnectionHandler {
	return &ConnectionHandler{connections: connections, logger: logger}
}

type createRequestBody struct {
	FromUsername string `json:"from_username"`
	ToUsername   string `json:"to_username"`
	ProjectName  string `json:"project_name"`
}

// HandleCreate sends a connection request.
//
// HTTP: POST /requests
// REQUEST BODY: {"from_username", "to_username", "project_name"}
func (h *ConnectionHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var body createRequestBody
	if err := decodeJSON(w, r, &body); err != nil {
		writeError(w, h.logger, err)
		return
	}

	req, err := h.connections.Create(r.Context(), body.FromUsername, body.ToUsername, body.ProjectName)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusCreated, req)
}

// HandleList returns every request the user sent or received.
//
// HTTP: GET /requests?user=alice
func (h *ConnectionHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	reqs, err := h.connections.ListForUser(r.Context(), r.URL.Query().Get("user"))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, reqs)
}

type updateRequestBody struct {
	Status *string `json:"status"`
}

// HandleUpdate changes a request's status. A body without status returns
// the request unchanged.
//
// HTTP: PATCH /requests/{id}
// REQUEST BODY: {"status": "accepted"}
func (h *ConnectionHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	var body updateRequestBody
	if err := decodeJSON(w, r, &body); err != nil {
		writeError(w, h.logger, err)
		return
	}

	req, err := h.connections.UpdateStatus(r.Context(), chi.URLParam(r, "id"), body.Status)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, req)
}
