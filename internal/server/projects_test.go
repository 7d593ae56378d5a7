package server

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/MadScientist85/Ai-Web-App/internal/project"
)

func TestHandleListProjects(t *testing.T) {
	env := setupTest(t)
	env.projects.listFunc = func(ctx context.Context, userID string) ([]*project.Project, error) {
		if userID != "user-1" {
			t.Errorf("Expected user-1, got %s", userID)
		}
		return []*project.Project{{ID: "b", Name: "Newest"}, {ID: "a", Name: "Older"}}, nil
	}

	w := httptest.NewRecorder()
	env.handler.HandleListProjects(w, authed(httptest.NewRequest("GET", "/v1/projects", nil)))

	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}
	projects := decode(t, w)["projects"].([]any)
	if len(projects) != 2 || projects[0].(map[string]any)["name"] != "Newest" {
		t.Errorf("Unexpected projects %v", projects)
	}
}

func TestHandleListProjects_StoreError(t *testing.T) {
	env := setupTest(t)
	env.projects.listFunc = func(ctx context.Context, userID string) ([]*project.Project, error) {
		return nil, errors.New("db down")
	}

	w := httptest.NewRecorder()
	env.handler.HandleListProjects(w, authed(httptest.NewRequest("GET", "/v1/projects", nil)))

	if w.Code != http.StatusInternalServerError {
		t.Errorf("Expected 500, got %d", w.Code)
	}
	if decode(t, w)["error"] != "Failed to fetch projects" {
		t.Errorf("Unexpected error body %s", w.Body.String())
	}
}

func TestHandleCreateProject(t *testing.T) {
	env := setupTest(t)
	var created *project.Project
	env.projects.createFunc = func(ctx context.Context, p *project.Project) error {
		created = p
		p.ID = testProjectID
		return nil
	}

	body := `{"name":"Landing","description":"hero","files":[{"name":"index.html","content":"<p/>","type":"html"}],"chat_messages":[{"role":"user","content":"hi"}]}`
	w := httptest.NewRecorder()
	env.handler.HandleCreateProject(w, authed(httptest.NewRequest("POST", "/v1/projects", strings.NewReader(body))))

	if w.Code != http.StatusCreated {
		t.Fatalf("Expected 201, got %d: %s", w.Code, w.Body.String())
	}
	if created.UserID != "user-1" || len(created.Files) != 1 || len(created.ChatMessages) != 1 {
		t.Errorf("Unexpected project %+v", created)
	}
	if decode(t, w)["project"].(map[string]any)["id"] != testProjectID {
		t.Errorf("Expected id in response")
	}
}

func TestHandleCreateProject_MissingName(t *testing.T) {
	env := setupTest(t)
	w := httptest.NewRecorder()
	env.handler.HandleCreateProject(w, authed(httptest.NewRequest("POST", "/v1/projects", strings.NewReader(`{"files":[]}`))))

	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected 400, got %d", w.Code)
	}
}

func TestHandleGetProject_NotFound(t *testing.T) {
	env := setupTest(t)

	w := httptest.NewRecorder()
	req := withID(authed(httptest.NewRequest("GET", "/v1/projects/"+testProjectID, nil)), testProjectID)
	env.handler.HandleGetProject(w, req)

	if w.Code != http.StatusNotFound {
		t.Errorf("Expected 404, got %d", w.Code)
	}
	if decode(t, w)["error"] != "Project not found" {
		t.Errorf("Unexpected error body %s", w.Body.String())
	}
}

func TestHandleGetProject_MalformedID(t *testing.T) {
	env := setupTest(t)
	env.projects.getFunc = func(ctx context.Context, userID, id string) (*project.Project, error) {
		t.Errorf("Store should not be called for a malformed id")
		return nil, nil
	}

	w := httptest.NewRecorder()
	env.handler.HandleGetProject(w, withID(authed(httptest.NewRequest("GET", "/v1/projects/x", nil)), "not-a-uuid"))

	if w.Code != http.StatusNotFound {
		t.Errorf("Expected 404, got %d", w.Code)
	}
}

func TestHandleUpdateProject(t *testing.T) {
	env := setupTest(t)
	var got project.Update
	env.projects.updateFunc = func(ctx context.Context, userID, id string, u project.Update) (*project.Project, error) {
		got = u
		return &project.Project{ID: id, Name: *u.Name}, nil
	}

	w := httptest.NewRecorder()
	req := withID(authed(httptest.NewRequest("PUT", "/", strings.NewReader(`{"name":"Renamed"}`))), testProjectID)
	env.handler.HandleUpdateProject(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}
	if got.Name == nil || *got.Name != "Renamed" || got.Files != nil || got.Description != nil {
		t.Errorf("Expected only name in update, got %+v", got)
	}
}

func TestHandleUpdateProject_EmptyName(t *testing.T) {
	env := setupTest(t)
	w := httptest.NewRecorder()
	req := withID(authed(httptest.NewRequest("PUT", "/", strings.NewReader(`{"name":""}`))), testProjectID)
	env.handler.HandleUpdateProject(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected 400, got %d", w.Code)
	}
}

func TestHandleDeleteProject(t *testing.T) {
	env := setupTest(t)
	env.projects.deleteFunc = func(ctx context.Context, userID, id string) error { return nil }

	w := httptest.NewRecorder()
	env.handler.HandleDeleteProject(w, withID(authed(httptest.NewRequest("DELETE", "/", nil)), testProjectID))

	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}
	if decode(t, w)["success"] != true {
		t.Errorf("Expected success true")
	}
}

func TestHandleExportProject(t *testing.T) {
	env := setupTest(t)
	env.projects.getFunc = func(ctx context.Context, userID, id string) (*project.Project, error) {
		return &project.Project{
			ID:    id,
			Name:  "Dark Mode Todo",
			Files: []project.File{{Name: "index.html", Content: "<ul></ul>", Type: project.FileHTML}},
		}, nil
	}

	w := httptest.NewRecorder()
	env.handler.HandleExportProject(w, withID(authed(httptest.NewRequest("GET", "/", nil)), testProjectID))

	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}
	if cd := w.Header().Get("Content-Disposition"); cd != `attachment; filename="dark-mode-todo.json"` {
		t.Errorf("Unexpected Content-Disposition %q", cd)
	}
	resp := decode(t, w)
	if resp["name"] != "Dark Mode Todo" || resp["generated_at"] != "2026-01-02T03:04:05Z" {
		t.Errorf("Unexpected export %v", resp)
	}
	if _, ok := resp["id"]; ok {
		t.Errorf("Export should not carry the project id")
	}
}

func TestHandleImportProject(t *testing.T) {
	env := setupTest(t)
	var created *project.Project
	env.projects.createFunc = func(ctx context.Context, p *project.Project) error {
		created = p
		return nil
	}

	body := `{"name":"Imported","files":[{"name":"styles.css","content":"a{}"}],"generated_at":"2025-01-01T00:00:00Z"}`
	w := httptest.NewRecorder()
	env.handler.HandleImportProject(w, authed(httptest.NewRequest("POST", "/v1/projects/import", strings.NewReader(body))))

	if w.Code != http.StatusCreated {
		t.Fatalf("Expected 201, got %d: %s", w.Code, w.Body.String())
	}
	if created.UserID != "user-1" || created.Files[0].Type != project.FileCSS {
		t.Errorf("Unexpected imported project %+v", created)
	}
}

func TestHandleImportProject_Invalid(t *testing.T) {
	env := setupTest(t)
	w := httptest.NewRecorder()
	env.handler.HandleImportProject(w, authed(httptest.NewRequest("POST", "/v1/projects/import", strings.NewReader("PK\x03\x04"))))

	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected 400, got %d", w.Code)
	}
	if decode(t, w)["error"] != "invalid project file format" {
		t.Errorf("Unexpected error body %s", w.Body.String())
	}
}

func TestHandleProfile(t *testing.T) {
	env := setupTest(t)

	w := httptest.NewRecorder()
	env.handler.HandleGetProfile(w, authed(httptest.NewRequest("GET", "/v1/profile", nil)))
	if w.Code != http.StatusNotFound {
		t.Errorf("Expected 404 before the profile exists, got %d", w.Code)
	}

	w = httptest.NewRecorder()
	body := `{"display_name":"Ada","preferences":{"theme":"dark"}}`
	env.handler.HandleUpdateProfile(w, authed(httptest.NewRequest("PUT", "/v1/profile", strings.NewReader(body))))
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}

	w = httptest.NewRecorder()
	env.handler.HandleGetProfile(w, authed(httptest.NewRequest("GET", "/v1/profile", nil)))
	p := decode(t, w)["profile"].(map[string]any)
	if p["display_name"] != "Ada" || p["preferences"].(map[string]any)["theme"] != "dark" {
		t.Errorf("Unexpected profile %v", p)
	}
}
