// Package server exposes the lesson project pipeline over JSON HTTP.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/knishimura/lingotube/internal/lesson"
	"github.com/knishimura/lingotube/internal/project"
	"github.com/knishimura/lingotube/internal/transcript"
)

// LessonService is the part of the lesson pipeline the handlers drive.
// Satisfied by lesson.Service.
type LessonService interface {
	CreateFromURL(ctx context.Context, userID, rawURL string) (*project.Project, error)
	Regenerate(ctx context.Context, id string) (*project.Project, error)
	CorrectLanguage(ctx context.Context, id, language string) (*project.Project, error)
}

// ProjectHandler serves the /api/projects endpoints.
type ProjectHandler struct {
	service LessonService
	repo    project.Repository
}

// NewProjectHandler creates a ProjectHandler.
func NewProjectHandler(service LessonService, repo project.Repository) *ProjectHandler {
	return &ProjectHandler{service: service, repo: repo}
}

// RegisterRoutes attaches the project endpoints to mux.
func (h *ProjectHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/projects", h.create)
	mux.HandleFunc("GET /api/projects", h.list)
	mux.HandleFunc("GET /api/projects/{id}", h.get)
	mux.HandleFunc("PATCH /api/projects/{id}", h.patch)
	mux.HandleFunc("POST /api/projects/{id}/regenerate", h.regenerate)
	mux.HandleFunc("DELETE /api/projects/{id}", h.delete)
}

type createProjectRequest struct {
	URL    string `json:"url"`
	UserID string `json:"user_id"`
}

func (h *ProjectHandler) create(w http.ResponseWriter, r *http.Request) {
	var request createProjectRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("invalid request body: %w", err))
		return
	}
	if request.URL == "" || request.UserID == "" {
		writeError(w, http.StatusBadRequest, errors.New("url and user_id are required"))
		return
	}

	p, err := h.service.CreateFromURL(r.Context(), request.UserID, request.URL)
	if err != nil {
		if p == nil {
			// No project row was created: the URL itself was unusable.
			writeError(w, http.StatusBadRequest, err)
			return
		}
		// Acquisition failed after the row was created; return the failed
		// project so the client can show its error_message.
		slog.Default().Warn("project creation failed", "projectID", p.ID, "error", err)
		if errors.Is(err, transcript.ErrTooShort) {
			writeJSON(w, http.StatusUnprocessableEntity, p)
			return
		}
		writeJSON(w, http.StatusBadGateway, p)
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

func (h *ProjectHandler) list(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("user")
	if userID == "" {
		writeError(w, http.StatusBadRequest, errors.New("user query parameter is required"))
		return
	}

	projects, err := h.repo.FindByUser(r.Context(), userID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	if projects == nil {
		projects = []project.Project{}
	}
	writeJSON(w, http.StatusOK, projects)
}

func (h *ProjectHandler) get(w http.ResponseWriter, r *http.Request) {
	p, err := h.repo.FindByID(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	if p == nil {
		writeError(w, http.StatusNotFound, errors.New("project not found"))
		return
	}
	writeJSON(w, http.StatusOK, p)
}

type patchProjectRequest struct {
	Favorite *bool   `json:"favorite,omitempty"`
	Language *string `json:"language,omitempty"`
}

func (h *ProjectHandler) patch(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	var request patchProjectRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("invalid request body: %w", err))
		return
	}
	if request.Favorite == nil && request.Language == nil {
		writeError(w, http.StatusBadRequest, errors.New("nothing to update"))
		return
	}

	if request.Favorite != nil {
		if err := h.repo.SetFavorite(r.Context(), id, *request.Favorite); err != nil {
			writeRepoError(w, err)
			return
		}
	}

	if request.Language != nil {
		p, err := h.service.CorrectLanguage(r.Context(), id, *request.Language)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, p)
		return
	}

	p, err := h.repo.FindByID(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	if p == nil {
		writeError(w, http.StatusNotFound, errors.New("project not found"))
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (h *ProjectHandler) regenerate(w http.ResponseWriter, r *http.Request) {
	p, err := h.service.Regenerate(r.Context(), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (h *ProjectHandler) delete(w http.ResponseWriter, r *http.Request) {
	if err := h.repo.Delete(r.Context(), r.PathValue("id")); err != nil {
		writeRepoError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, lesson.ErrNotFound):
		writeError(w, http.StatusNotFound, err)
	case errors.Is(err, lesson.ErrNoScript):
		writeError(w, http.StatusConflict, err)
	default:
		writeError(w, http.StatusInternalServerError, err)
	}
}

func writeRepoError(w http.ResponseWriter, err error) {
	if errors.Is(err, project.ErrNotFound) {
		writeError(w, http.StatusNotFound, err)
		return
	}
	writeError(w, http.StatusInternalServerError, err)
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		slog.Default().Error("response encoding failed", "error", err)
	}
}

type errorResponse struct {
	Error string `json:"error"`
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, errorResponse{Error: err.Error()})
}
