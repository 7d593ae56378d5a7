package server

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/MadScientist85/Ai-Web-App/internal/auth"
	"github.com/MadScientist85/Ai-Web-App/internal/project"
	"github.com/MadScientist85/Ai-Web-App/internal/provider"
)

const maxImportSize = 10 << 20

type createProjectRequest struct {
	Name         string             `json:"name"`
	Description  string             `json:"description"`
	Files        []project.File     `json:"files"`
	ChatMessages []provider.Message `json:"chat_messages"`
}

// projectID reads the {id} URL param. Malformed ids are reported as missing
// projects.
func projectID(w http.ResponseWriter, r *http.Request) (string, bool) {
	id := chi.URLParam(r, "id")
	if _, err := uuid.Parse(id); err != nil {
		writeError(w, http.StatusNotFound, "Project not found")
		return "", false
	}
	return id, true
}

func (h *Handler) HandleListProjects(w http.ResponseWriter, r *http.Request) {
	userID := auth.GetUserID(r.Context())
	if userID == "" {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	projects, err := h.projects.ListByUser(r.Context(), userID)
	if err != nil {
		h.projectError(w, err, "Failed to fetch projects")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"projects": projects})
}

func (h *Handler) HandleCreateProject(w http.ResponseWriter, r *http.Request) {
	userID := auth.GetUserID(r.Context())
	if userID == "" {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req createProjectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}

	p := &project.Project{
		UserID:       userID,
		Name:         req.Name,
		Description:  req.Description,
		Files:        req.Files,
		ChatMessages: req.ChatMessages,
	}

	if err := h.projects.Create(r.Context(), p); err != nil {
		h.projectError(w, err, "Failed to create project")
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"project": p})
}

func (h *Handler) HandleGetProject(w http.ResponseWriter, r *http.Request) {
	userID := auth.GetUserID(r.Context())
	if userID == "" {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	id, ok := projectID(w, r)
	if !ok {
		return
	}

	p, err := h.projects.Get(r.Context(), userID, id)
	if err != nil {
		h.projectError(w, err, "Failed to fetch project")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"project": p})
}

func (h *Handler) HandleUpdateProject(w http.ResponseWriter, r *http.Request) {
	userID := auth.GetUserID(r.Context())
	if userID == "" {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	id, ok := projectID(w, r)
	if !ok {
		return
	}

	var u project.Update
	if err := json.NewDecoder(r.Body).Decode(&u); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if u.Name != nil && *u.Name == "" {
		writeError(w, http.StatusBadRequest, "name must not be empty")
		return
	}

	p, err := h.projects.Update(r.Context(), userID, id, u)
	if err != nil {
		h.projectError(w, err, "Failed to update project")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"project": p})
}

func (h *Handler) HandleDeleteProject(w http.ResponseWriter, r *http.Request) {
	userID := auth.GetUserID(r.Context())
	if userID == "" {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	id, ok := projectID(w, r)
	if !ok {
		return
	}

	if err := h.projects.Delete(r.Context(), userID, id); err != nil {
		h.projectError(w, err, "Failed to delete project")
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (h *Handler) HandleExportProject(w http.ResponseWriter, r *http.Request) {
	userID := auth.GetUserID(r.Context())
	if userID == "" {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	id, ok := projectID(w, r)
	if !ok {
		return
	}

	p, err := h.projects.Get(r.Context(), userID, id)
	if err != nil {
		h.projectError(w, err, "Failed to export project")
		return
	}
	attachment(w, project.ExportFilename(p.Name), project.NewExport(p, h.now()))
}

func (h *Handler) HandleImportProject(w http.ResponseWriter, r *http.Request) {
	userID := auth.GetUserID(r.Context())
	if userID == "" {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	p, err := project.ParseFile(io.LimitReader(r.Body, maxImportSize))
	if err != nil {
		writeError(w, http.StatusBadRequest, project.ErrInvalidProjectFile.Error())
		return
	}
	p.UserID = userID

	if err := h.projects.Create(r.Context(), p); err != nil {
		h.projectError(w, err, "Failed to import project")
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"project": p})
}
