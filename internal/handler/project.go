package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/sakif/flashgig/internal/model"
	"github.com/sakif/flashgig/internal/service"
)

// ProjectHandler serves /projects.
type ProjectHandler struct {
	projects *service.ProjectService
	logger   *slog.Logger
}

func NewProjectHandler(projects *service.ProjectService, logger *slog.Logger) *ProjectHandler {
	return &ProjectHandler{projects: projects, logger: logger}
}

type createProjectBody struct {
	RequestID   string `json:"request_id"`
	Title       string `json:"title"`
	Description string `json:"description"`
}

// HandleCreate starts a project on an accepted connection.
//
// HTTP: POST /projects
// REQUEST BODY: {"request_id", "title", "description"?}
func (h *ProjectHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var body createProjectBody
	if err := decodeJSON(w, r, &body); err != nil {
		writeError(w, h.logger, err)
		return
	}

	project, err := h.projects.Create(r.Context(), body.RequestID, body.Title, body.Description)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusCreated, project)
}

// HTTP: GET /projects?user=alice
func (h *ProjectHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	projects, err := h.projects.ListForUser(r.Context(), r.URL.Query().Get("user"))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, projects)
}

// HTTP: GET /projects/{id}
func (h *ProjectHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	project, err := h.projects.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, project)
}

// HandleUpdate applies a partial update; fields absent from the body are
// left as they are.
//
// HTTP: PATCH /projects/{id}
// REQUEST BODY: {"status"?, "title"?, "description"?}
func (h *ProjectHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	var patch model.ProjectPatch
	if err := decodeJSON(w, r, &patch); err != nil {
		writeError(w, h.logger, err)
		return
	}

	project, err := h.projects.Update(r.Context(), chi.URLParam(r, "id"), patch)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, project)
}
