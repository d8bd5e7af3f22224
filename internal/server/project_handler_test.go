package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/knishimura/lingotube/internal/lesson"
	"github.com/knishimura/lingotube/internal/project"
	"github.com/knishimura/lingotube/internal/transcript"
)

type stubService struct {
	createProject   *project.Project
	createErr       error
	regenerated     *project.Project
	regenerateErr   error
	corrected       *project.Project
	correctErr      error
	correctLanguage string
}

func (s *stubService) CreateFromURL(_ context.Context, userID, rawURL string) (*project.Project, error) {
	return s.createProject, s.createErr
}

func (s *stubService) Regenerate(_ context.Context, id string) (*project.Project, error) {
	return s.regenerated, s.regenerateErr
}

func (s *stubService) CorrectLanguage(_ context.Context, id, language string) (*project.Project, error) {
	s.correctLanguage = language
	return s.corrected, s.correctErr
}

type stubRepository struct {
	project.Repository

	byID        *project.Project
	byUser      []project.Project
	favoriteErr error
	deleteErr   error
	favorites   map[string]bool
}

func (r *stubRepository) FindByID(_ context.Context, id string) (*project.Project, error) {
	return r.byID, nil
}

func (r *stubRepository) FindByUser(_ context.Context, userID string) ([]project.Project, error) {
	return r.byUser, nil
}

func (r *stubRepository) SetFavorite(_ context.Context, id string, favorite bool) error {
	if r.favoriteErr != nil {
		return r.favoriteErr
	}
	if r.favorites == nil {
		r.favorites = map[string]bool{}
	}
	r.favorites[id] = favorite
	return nil
}

func (r *stubRepository) Delete(_ context.Context, id string) error {
	return r.deleteErr
}

func newTestServer(service LessonService, repo project.Repository) *httptest.Server {
	mux := http.NewServeMux()
	NewProjectHandler(service, repo).RegisterRoutes(mux)
	return httptest.NewServer(mux)
}

func decodeProject(t *testing.T, body *http.Response) project.Project {
	t.Helper()
	var p project.Project
	require.NoError(t, json.NewDecoder(body.Body).Decode(&p))
	return p
}

func TestProjectHandler_Create(t *testing.T) {
	completed := &project.Project{ID: "p-1", UserID: "user-1", Status: project.StatusCompleted}
	failed := &project.Project{ID: "p-2", UserID: "user-1", Status: project.StatusFailed}

	tests := []struct {
		name       string
		body       string
		service    *stubService
		wantStatus int
		wantID     string
	}{
		{
			name:       "creates a project",
			body:       `{"url": "https://youtu.be/dQw4w9WgXcQ", "user_id": "user-1"}`,
			service:    &stubService{createProject: completed},
			wantStatus: http.StatusCreated,
			wantID:     "p-1",
		},
		{
			name:       "missing fields",
			body:       `{"url": ""}`,
			service:    &stubService{},
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "malformed body",
			body:       `{`,
			service:    &stubService{},
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "unusable URL",
			body:       `{"url": "https://example.com/x", "user_id": "user-1"}`,
			service:    &stubService{createErr: errors.New("no video id found")},
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "transcript too short",
			body:       `{"url": "https://youtu.be/dQw4w9WgXcQ", "user_id": "user-1"}`,
			service:    &stubService{createProject: failed, createErr: transcript.ErrTooShort},
			wantStatus: http.StatusUnprocessableEntity,
			wantID:     "p-2",
		},
		{
			name:       "acquisition exhausted",
			body:       `{"url": "https://youtu.be/dQw4w9WgXcQ", "user_id": "user-1"}`,
			service:    &stubService{createProject: failed, createErr: transcript.ErrExhausted},
			wantStatus: http.StatusBadGateway,
			wantID:     "p-2",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := newTestServer(tt.service, &stubRepository{})
			defer server.Close()

			response, err := http.Post(server.URL+"/api/projects", "application/json", strings.NewReader(tt.body))
			require.NoError(t, err)
			defer response.Body.Close()

			assert.Equal(t, tt.wantStatus, response.StatusCode)
			if tt.wantID != "" {
				assert.Equal(t, tt.wantID, decodeProject(t, response).ID)
			}
		})
	}
}

func TestProjectHandler_List(t *testing.T) {
	repo := &stubRepository{byUser: []project.Project{
		{ID: "p-1", UserID: "user-1"},
		{ID: "p-2", UserID: "user-1"},
	}}
	server := newTestServer(&stubService{}, repo)
	defer server.Close()

	response, err := http.Get(server.URL + "/api/projects?user=user-1")
	require.NoError(t, err)
	defer response.Body.Close()
	require.Equal(t, http.StatusOK, response.StatusCode)

	var projects []project.Project
	require.NoError(t, json.NewDecoder(response.Body).Decode(&projects))
	assert.Len(t, projects, 2)
}

func TestProjectHandler_List_RequiresUser(t *testing.T) {
	server := newTestServer(&stubService{}, &stubRepository{})
	defer server.Close()

	response, err := http.Get(server.URL + "/api/projects")
	require.NoError(t, err)
	defer response.Body.Close()
	assert.Equal(t, http.StatusBadRequest, response.StatusCode)
}

func TestProjectHandler_Get(t *testing.T) {
	tests := []struct {
		name       string
		repo       *stubRepository
		wantStatus int
	}{
		{
			name:       "found",
			repo:       &stubRepository{byID: &project.Project{ID: "p-1"}},
			wantStatus: http.StatusOK,
		},
		{
			name:       "not found",
			repo:       &stubRepository{},
			wantStatus: http.StatusNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := newTestServer(&stubService{}, tt.repo)
			defer server.Close()

			response, err := http.Get(server.URL + "/api/projects/p-1")
			require.NoError(t, err)
			defer response.Body.Close()
			assert.Equal(t, tt.wantStatus, response.StatusCode)
		})
	}
}

func TestProjectHandler_Patch(t *testing.T) {
	t.Run("favorite", func(t *testing.T) {
		repo := &stubRepository{byID: &project.Project{ID: "p-1", Favorite: true}}
		server := newTestServer(&stubService{}, repo)
		defer server.Close()

		request, _ := http.NewRequest(http.MethodPatch, server.URL+"/api/projects/p-1", strings.NewReader(`{"favorite": true}`))
		response, err := http.DefaultClient.Do(request)
		require.NoError(t, err)
		defer response.Body.Close()

		require.Equal(t, http.StatusOK, response.StatusCode)
		assert.True(t, repo.favorites["p-1"])
	})

	t.Run("language correction", func(t *testing.T) {
		service := &stubService{corrected: &project.Project{ID: "p-1", DetectedLanguage: "pt"}}
		server := newTestServer(service, &stubRepository{})
		defer server.Close()

		request, _ := http.NewRequest(http.MethodPatch, server.URL+"/api/projects/p-1", strings.NewReader(`{"language": "pt"}`))
		response, err := http.DefaultClient.Do(request)
		require.NoError(t, err)
		defer response.Body.Close()

		require.Equal(t, http.StatusOK, response.StatusCode)
		assert.Equal(t, "pt", service.correctLanguage)
		assert.Equal(t, "pt", decodeProject(t, response).DetectedLanguage)
	})

	t.Run("empty patch", func(t *testing.T) {
		server := newTestServer(&stubService{}, &stubRepository{})
		defer server.Close()

		request, _ := http.NewRequest(http.MethodPatch, server.URL+"/api/projects/p-1", strings.NewReader(`{}`))
		response, err := http.DefaultClient.Do(request)
		require.NoError(t, err)
		defer response.Body.Close()
		assert.Equal(t, http.StatusBadRequest, response.StatusCode)
	})

	t.Run("favorite on missing project", func(t *testing.T) {
		repo := &stubRepository{favoriteErr: project.ErrNotFound}
		server := newTestServer(&stubService{}, repo)
		defer server.Close()

		request, _ := http.NewRequest(http.MethodPatch, server.URL+"/api/projects/missing", strings.NewReader(`{"favorite": true}`))
		response, err := http.DefaultClient.Do(request)
		require.NoError(t, err)
		defer response.Body.Close()
		assert.Equal(t, http.StatusNotFound, response.StatusCode)
	})
}

func TestProjectHandler_Regenerate(t *testing.T) {
	tests := []struct {
		name       string
		service    *stubService
		wantStatus int
	}{
		{
			name:       "regenerates",
			service:    &stubService{regenerated: &project.Project{ID: "p-1", Status: project.StatusCompleted}},
			wantStatus: http.StatusOK,
		},
		{
			name:       "unknown project",
			service:    &stubService{regenerateErr: lesson.ErrNotFound},
			wantStatus: http.StatusNotFound,
		},
		{
			name:       "no transcript yet",
			service:    &stubService{regenerateErr: lesson.ErrNoScript},
			wantStatus: http.StatusConflict,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := newTestServer(tt.service, &stubRepository{})
			defer server.Close()

			response, err := http.Post(server.URL+"/api/projects/p-1/regenerate", "application/json", nil)
			require.NoError(t, err)
			defer response.Body.Close()
			assert.Equal(t, tt.wantStatus, response.StatusCode)
		})
	}
}

func TestProjectHandler_Delete(t *testing.T) {
	tests := []struct {
		name       string
		repo       *stubRepository
		wantStatus int
	}{
		{
			name:       "deletes",
			repo:       &stubRepository{},
			wantStatus: http.StatusNoContent,
		},
		{
			name:       "missing project",
			repo:       &stubRepository{deleteErr: project.ErrNotFound},
			wantStatus: http.StatusNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := newTestServer(&stubService{}, tt.repo)
			defer server.Close()

			request, _ := http.NewRequest(http.MethodDelete, server.URL+"/api/projects/p-1", nil)
			response, err := http.DefaultClient.Do(request)
			require.NoError(t, err)
			defer response.Body.Close()
			assert.Equal(t, tt.wantStatus, response.StatusCode)
		})
	}
}
