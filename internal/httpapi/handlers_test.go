package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"lingoboard.org/internal/auth"
	"lingoboard.org/internal/feedback"
	"lingoboard.org/internal/notify"
	"lingoboard.org/internal/perm"
	"lingoboard.org/internal/translate"
)

type memoryUserStore struct {
	mu    sync.Mutex
	users map[string]*auth.User
}

func newMemoryUserStore() *memoryUserStore {
	return &memoryUserStore{users: map[string]*auth.User{}}
}

func (m *memoryUserStore) Create(ctx context.Context, u *auth.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.users {
		if existing.Email == u.Email {
			return auth.ErrAlreadyExists
		}
	}
	m.users[u.ID] = u
	return nil
}

func (m *memoryUserStore) FindByID(ctx context.Context, id string) (*auth.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.users[id], nil
}

func (m *memoryUserStore) FindByEmail(ctx context.Context, email string) (*auth.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, nil
}

type fakeOrgs struct{ org *feedback.Organization }

func (f fakeOrgs) Create(ctx context.Context, org *feedback.Organization) error { return nil }
func (f fakeOrgs) FindByID(ctx context.Context, id string) (*feedback.Organization, error) {
	if f.org != nil && f.org.ID == id {
		return f.org, nil
	}
	return nil, nil
}
func (f fakeOrgs) FindBySlug(ctx context.Context, slug string) (*feedback.Organization, error) {
	return nil, nil
}
func (f fakeOrgs) Update(ctx context.Context, org *feedback.Organization) error { return nil }
func (f fakeOrgs) Delete(ctx context.Context, id string) error                  { return nil }
func (f fakeOrgs) List(ctx context.Context) ([]*feedback.Organization, error)   { return nil, nil }

type fakeProjects struct{ project *feedback.Project }

func (f fakeProjects) Create(ctx context.Context, p *feedback.Project) error { return nil }
func (f fakeProjects) FindByID(ctx context.Context, id string) (*feedback.Project, error) {
	if f.project != nil && f.project.ID == id {
		return f.project, nil
	}
	return nil, nil
}
func (f fakeProjects) FindBySlug(ctx context.Context, slug string) (*feedback.Project, error) {
	return nil, nil
}
func (f fakeProjects) ListByOrg(ctx context.Context, organizationID string) ([]*feedback.Project, error) {
	return nil, nil
}
func (f fakeProjects) ListPublic(ctx context.Context) ([]*feedback.Project, error) {
	if f.project != nil && f.project.Public {
		return []*feedback.Project{f.project}, nil
	}
	return nil, nil
}
func (f fakeProjects) Update(ctx context.Context, id string, patch feedback.ProjectPatch) (*feedback.Project, error) {
	return f.project, nil
}
func (f fakeProjects) Delete(ctx context.Context, id string) error { return nil }

type fakeThreads struct{ thread *feedback.Thread }

func (f fakeThreads) Create(ctx context.Context, t *feedback.Thread) error { return nil }
func (f fakeThreads) FindByID(ctx context.Context, id string) (*feedback.Thread, error) {
	if f.thread != nil && f.thread.ID == id {
		return f.thread, nil
	}
	return nil, nil
}
func (f fakeThreads) ListByProject(ctx context.Context, projectID string, filters feedback.ThreadFilters) ([]*feedback.Thread, error) {
	if f.thread != nil && f.thread.ProjectID == projectID {
		return []*feedback.Thread{f.thread}, nil
	}
	return nil, nil
}
func (f fakeThreads) Update(ctx context.Context, id string, patch feedback.ThreadPatch) (*feedback.Thread, error) {
	return f.thread, nil
}
func (f fakeThreads) Delete(ctx context.Context, id string) error { return nil }

type fakeComments struct{}

func (fakeComments) Create(ctx context.Context, c *feedback.Comment) error { return nil }
func (fakeComments) FindByID(ctx context.Context, id string) (*feedback.Comment, error) {
	return nil, nil
}
func (fakeComments) ListByThread(ctx context.Context, threadID string) ([]*feedback.Comment, error) {
	return nil, nil
}
func (fakeComments) UpdateContent(ctx context.Context, id, content string) (*feedback.Comment, error) {
	return nil, nil
}
func (fakeComments) Delete(ctx context.Context, id string) error { return nil }

type fakeInvites struct{}

func (fakeInvites) Create(ctx context.Context, inv *feedback.Invitation) error { return nil }
func (fakeInvites) FindByCode(ctx context.Context, code string) (*feedback.Invitation, error) {
	return nil, nil
}
func (fakeInvites) MarkUsed(ctx context.Context, id string, at time.Time) error { return nil }

type fakeMembers struct{}

func (fakeMembers) OrgMembership(ctx context.Context, userID, organizationID string) (*perm.OrgMembership, error) {
	return nil, nil
}
func (fakeMembers) ProjectMembership(ctx context.Context, userID, projectID string) (*perm.ProjectMembership, error) {
	return nil, nil
}
func (fakeMembers) AddOrgMember(ctx context.Context, organizationID, userID string, role perm.OrgRole) error {
	return nil
}
func (fakeMembers) UpdateOrgMemberRole(ctx context.Context, organizationID, userID string, role perm.OrgRole) error {
	return nil
}
func (fakeMembers) RemoveOrgMember(ctx context.Context, organizationID, userID string) error {
	return nil
}
func (fakeMembers) ListOrgMembers(ctx context.Context, organizationID string) ([]*perm.OrgMembership, error) {
	return nil, nil
}
func (fakeMembers) AddProjectMember(ctx context.Context, projectID, userID string, role perm.ProjectRole) error {
	return nil
}
func (fakeMembers) RemoveProjectMember(ctx context.Context, projectID, userID string) error {
	return nil
}
func (fakeMembers) ListProjectMembers(ctx context.Context, projectID string) ([]*perm.ProjectMembership, error) {
	return nil, nil
}

type grantAll struct{ tokens []string }

func (g grantAll) UserPermissions(ctx context.Context, userID, organizationID, projectID string) (perm.Set, error) {
	return perm.NewSet(g.tokens...), nil
}

type echoProvider struct{}

func (echoProvider) LocalizeObject(ctx context.Context, fields map[string]string, sourceLocale, targetLocale string) (map[string]string, error) {
	out := make(map[string]string, len(fields))
	for k, v := range fields {
		out[k] = "[" + targetLocale + "] " + v
	}
	return out, nil
}

func (p echoProvider) LocalizeText(ctx context.Context, text, sourceLocale, targetLocale string) (string, error) {
	return "[" + targetLocale + "] " + text, nil
}

func newTestAPI(t *testing.T, tokens []string) (*API, *auth.Service) {
	t.Helper()

	authSvc, err := auth.NewService(newMemoryUserStore(), "test-secret-used-only-here")
	if err != nil {
		t.Fatalf("auth.NewService: %v", err)
	}

	org := &feedback.Organization{ID: "org-1", Name: "Acme", Slug: "acme"}
	project := &feedback.Project{ID: "proj-1", OrganizationID: "org-1", Name: "Widget", Slug: "widget", Public: true}
	thread := &feedback.Thread{
		ID: "th-1", ProjectID: "proj-1", AuthorID: "author",
		Title: "Bonjour", Content: "Le contenu", Status: feedback.StatusNew,
		OriginalLanguage: "fr",
	}

	svc, err := feedback.NewService(feedback.Config{
		Organizations: fakeOrgs{org},
		Projects:      fakeProjects{project},
		Threads:       fakeThreads{thread},
		Comments:      fakeComments{},
		Invitations:   fakeInvites{},
		Memberships:   fakeMembers{},
		Permissions:   grantAll{tokens},
		Events:        notify.New(),
	})
	if err != nil {
		t.Fatalf("feedback.NewService: %v", err)
	}

	registry, err := translate.NewRegistry(echoProvider{})
	if err != nil {
		t.Fatalf("translate.NewRegistry: %v", err)
	}

	return New(Config{
		Auth:     authSvc,
		Feedback: svc,
		Sessions: registry,
		Stream:   notify.New(),
		Version:  "test",
	}), authSvc
}

func signup(t *testing.T, handler http.Handler, email string) string {
	t.Helper()
	body := `{"email":"` + email + `","name":"Tester","password":"hunter2secret","preferred_language":"de"}`
	req := httptest.NewRequest(http.MethodPost, "/v1/auth/signup", strings.NewReader(body))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusCreated {
		t.Fatalf("signup status = %d body=%s", rec.Code, rec.Body.String())
	}
	var resp struct {
		Token string `json:"token"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode signup response: %v", err)
	}
	if resp.Token == "" {
		t.Fatal("signup returned empty token")
	}
	return resp.Token
}

func TestHealthz(t *testing.T) {
	api, _ := newTestAPI(t, nil)
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	api.Handler().ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body["service"] != "lingoboard-api" {
		t.Fatalf("unexpected service: %v", body["service"])
	}
}

func TestInvalidBearerTokenRejected(t *testing.T) {
	api, _ := newTestAPI(t, nil)
	req := httptest.NewRequest(http.MethodGet, "/v1/threads/th-1", nil)
	req.Header.Set("Authorization", "Bearer not-a-real-token")
	rec := httptest.NewRecorder()
	api.Handler().ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
}

func TestPublicThreadReadableAnonymously(t *testing.T) {
	api, _ := newTestAPI(t, nil)
	req := httptest.NewRequest(http.MethodGet, "/v1/threads/th-1", nil)
	rec := httptest.NewRecorder()
	api.Handler().ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d body=%s", rec.Code, rec.Body.String())
	}
	var thread feedback.Thread
	if err := json.Unmarshal(rec.Body.Bytes(), &thread); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if thread.ID != "th-1" || thread.OriginalLanguage != "fr" {
		t.Fatalf("unexpected thread: %+v", thread)
	}
}

func TestSignupThenMe(t *testing.T) {
	api, _ := newTestAPI(t, nil)
	handler := api.Handler()
	token := signup(t, handler, "me@example.com")

	req := httptest.NewRequest(http.MethodGet, "/v1/auth/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d body=%s", rec.Code, rec.Body.String())
	}
	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body["email"] != "me@example.com" {
		t.Fatalf("unexpected email: %v", body["email"])
	}
	if body["preferred_language"] != "de" {
		t.Fatalf("unexpected language: %v", body["preferred_language"])
	}
}

func TestUpdateThreadDeniedIsForbidden(t *testing.T) {
	api, _ := newTestAPI(t, nil) // no tokens granted
	handler := api.Handler()
	token := signup(t, handler, "stranger@example.com")

	req := httptest.NewRequest(http.MethodPatch, "/v1/threads/th-1",
		strings.NewReader(`{"title":"hijack"}`))
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want 403; body=%s", rec.Code, rec.Body.String())
	}
}

func TestUpdateThreadWithPermission(t *testing.T) {
	api, _ := newTestAPI(t, []string{perm.ThreadUpdateAny})
	handler := api.Handler()
	token := signup(t, handler, "mod@example.com")

	req := httptest.NewRequest(http.MethodPatch, "/v1/threads/th-1",
		strings.NewReader(`{"title":"moderated"}`))
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d body=%s", rec.Code, rec.Body.String())
	}
}

func TestTranslateThread(t *testing.T) {
	api, _ := newTestAPI(t, nil)
	handler := api.Handler()
	token := signup(t, handler, "reader@example.com")

	req := httptest.NewRequest(http.MethodPost, "/v1/threads/th-1/translate",
		strings.NewReader(`{"target_language":"en"}`))
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d body=%s", rec.Code, rec.Body.String())
	}
	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body["title"] != "[en] Bonjour" {
		t.Fatalf("unexpected title: %v", body["title"])
	}
}

func TestTranslateTextRequiresAuth(t *testing.T) {
	api, _ := newTestAPI(t, nil)
	req := httptest.NewRequest(http.MethodPost, "/v1/translate/text",
		strings.NewReader(`{"text":"hello","source_language":"en","target_language":"fr"}`))
	rec := httptest.NewRecorder()
	api.Handler().ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
}

func TestPublicProjectsListing(t *testing.T) {
	api, _ := newTestAPI(t, nil)
	req := httptest.NewRequest(http.MethodGet, "/v1/public/projects", nil)
	rec := httptest.NewRecorder()
	api.Handler().ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var body struct {
		Projects []feedback.Project `json:"projects"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(body.Projects) != 1 || body.Projects[0].Slug != "widget" {
		t.Fatalf("unexpected projects: %+v", body.Projects)
	}
}

func TestMethodNotAllowed(t *testing.T) {
	api, _ := newTestAPI(t, nil)
	req := httptest.NewRequest(http.MethodDelete, "/v1/auth/signup", nil)
	rec := httptest.NewRecorder()
	api.Handler().ServeHTTP(rec, req)
	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("status = %d", rec.Code)
	}
	if allow := rec.Header().Get("Allow"); !strings.Contains(allow, http.MethodPost) {
		t.Fatalf("Allow header = %q", allow)
	}
}
