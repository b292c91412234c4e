package server

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/jayvaidya30/FraudEx/constants"
	"github.com/jayvaidya30/FraudEx/internal/async"
	"github.com/jayvaidya30/FraudEx/internal/auth"
	"github.com/jayvaidya30/FraudEx/internal/common"
	"github.com/jayvaidya30/FraudEx/internal/entity"
	"github.com/jayvaidya30/FraudEx/internal/export"
	"github.com/jayvaidya30/FraudEx/internal/storage"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// fakeRepo is an in-memory CaseRepository for handler tests.
type fakeRepo struct {
	mu    sync.Mutex
	cases map[uuid.UUID]*entity.Case
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{cases: map[uuid.UUID]*entity.Case{}}
}

func (r *fakeRepo) Ping(context.Context) error         { return nil }
func (r *fakeRepo) EnsureSchema(context.Context) error { return nil }

func (r *fakeRepo) Create(_ context.Context, c *entity.Case) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *c
	r.cases[c.CaseID] = &cp
	return nil
}

func (r *fakeRepo) GetByID(_ context.Context, id uuid.UUID) (*entity.Case, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.cases[id]
	if !ok {
		return nil, common.ErrNotFound
	}
	cp := *c
	return &cp, nil
}

func (r *fakeRepo) ListByOwner(_ context.Context, ownerID string) ([]*entity.Case, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*entity.Case
	for _, c := range r.cases {
		if c.OwnerID == ownerID {
			cp := *c
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *fakeRepo) UpdateStatus(_ context.Context, id uuid.UUID, status constants.CaseStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.cases[id]
	if !ok {
		return common.ErrNotFound
	}
	c.Status = status
	return nil
}

func (r *fakeRepo) UpdateFailure(_ context.Context, id uuid.UUID, explanation string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.cases[id]
	if !ok {
		return common.ErrNotFound
	}
	c.Status = constants.CaseStatusFailed
	c.Explanation = explanation
	return nil
}

func (r *fakeRepo) UpdateAnalysis(_ context.Context, id uuid.UUID, score int, signals entity.SignalMap, explanation string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.cases[id]
	if !ok {
		return common.ErrNotFound
	}
	c.Status = constants.CaseStatusAnalyzed
	c.RiskScore = &score
	c.Signals = signals
	c.Explanation = explanation
	return nil
}

// fakeQueue records enqueued jobs.
type fakeQueue struct {
	mu   sync.Mutex
	jobs []async.Job
}

func (q *fakeQueue) Enqueue(_ context.Context, job async.Job) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.jobs = append(q.jobs, job)
	return nil
}

func (q *fakeQueue) Shutdown(context.Context) {}

type testEnv struct {
	repo   *fakeRepo
	queue  *fakeQueue
	router *gin.Engine
}

// newTestEnv wires the handlers behind a stub auth middleware that
// injects user; requests skip token verification entirely.
func newTestEnv(t *testing.T, user auth.CurrentUser) *testEnv {
	t.Helper()
	repo := newFakeRepo()
	queue := &fakeQueue{}
	files := storage.NewFileStore(t.TempDir(), nil)
	handler := NewCaseHandler(repo, files, queue, export.NewService(repo, nil), nil)
	authHandler := NewAuthHandler()

	router := gin.New()
	api := router.Group("/api/v1")
	api.Use(func(c *gin.Context) {
		c.Set(currentUserKey, user)
		c.Next()
	})
	api.GET("/auth/me", authHandler.Me)
	api.POST("/cases/upload", handler.Upload)
	api.GET("/cases", handler.List)
	api.GET("/cases/export", handler.Export)
	api.GET("/cases/:id", handler.Get)
	api.POST("/cases/:id/analyze", handler.Analyze)

	return &testEnv{repo: repo, queue: queue, router: router}
}

func multipartBody(t *testing.T, filename, content string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile("file", filename)
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	if _, err := part.Write([]byte(content)); err != nil {
		t.Fatalf("write part: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}
	return &buf, w.FormDataContentType()
}

func doRequest(env *testEnv, method, path string, body *bytes.Buffer, contentType string) *httptest.ResponseRecorder {
	if body == nil {
		body = &bytes.Buffer{}
	}
	req := httptest.NewRequest(method, path, body)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)
	return rec
}

func analyst() auth.CurrentUser {
	return auth.CurrentUser{ID: "user-1", Email: "a@example.com", Role: "analyst"}
}

func TestUpload_CreatesCase(t *testing.T) {
	env := newTestEnv(t, analyst())
	body, ct := multipartBody(t, "memo.txt", "urgent cash payment")

	rec := doRequest(env, http.MethodPost, "/api/v1/cases/upload", body, ct)
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body)
	}

	var resp struct {
		CaseID   string `json:"case_id"`
		Status   string `json:"status"`
		Filename string `json:"filename"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Status != "uploaded" || resp.Filename != "memo.txt" {
		t.Errorf("resp = %+v", resp)
	}

	id, err := uuid.Parse(resp.CaseID)
	if err != nil {
		t.Fatalf("case id %q not a uuid: %v", resp.CaseID, err)
	}
	stored, err := env.repo.GetByID(context.Background(), id)
	if err != nil {
		t.Fatalf("case not persisted: %v", err)
	}
	if stored.OwnerID != "user-1" || stored.OriginalFile == "" {
		t.Errorf("stored = %+v", stored)
	}
}

func TestUpload_RejectsUnsupportedExtension(t *testing.T) {
	env := newTestEnv(t, analyst())
	body, ct := multipartBody(t, "malware.exe", "MZ")

	rec := doRequest(env, http.MethodPost, "/api/v1/cases/upload", body, ct)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	if len(env.repo.cases) != 0 {
		t.Error("case created for rejected upload")
	}
}

func TestUpload_MissingFilePart(t *testing.T) {
	env := newTestEnv(t, analyst())
	rec := doRequest(env, http.MethodPost, "/api/v1/cases/upload", nil, "multipart/form-data")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestList_OnlyOwnCases(t *testing.T) {
	env := newTestEnv(t, analyst())
	seed := func(owner string) {
		_ = env.repo.Create(context.Background(), &entity.Case{
			CaseID: uuid.New(), OwnerID: owner, Status: constants.CaseStatusUploaded,
		})
	}
	seed("user-1")
	seed("user-1")
	seed("someone-else")

	rec := doRequest(env, http.MethodGet, "/api/v1/cases", nil, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var resp struct {
		Cases []json.RawMessage `json:"cases"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp.Cases) != 2 {
		t.Errorf("listed %d cases, want 2", len(resp.Cases))
	}
}

func TestGet_OwnCase(t *testing.T) {
	env := newTestEnv(t, analyst())
	id := uuid.New()
	_ = env.repo.Create(context.Background(), &entity.Case{
		CaseID: id, OwnerID: "user-1", Status: constants.CaseStatusAnalyzed,
	})

	rec := doRequest(env, http.MethodGet, "/api/v1/cases/"+id.String(), nil, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestGet_ForeignCaseForbidden(t *testing.T) {
	env := newTestEnv(t, analyst())
	id := uuid.New()
	_ = env.repo.Create(context.Background(), &entity.Case{
		CaseID: id, OwnerID: "someone-else", Status: constants.CaseStatusUploaded,
	})

	rec := doRequest(env, http.MethodGet, "/api/v1/cases/"+id.String(), nil, "")
	if rec.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want 403", rec.Code)
	}
}

func TestGet_AdminSeesForeignCase(t *testing.T) {
	env := newTestEnv(t, auth.CurrentUser{ID: "admin-1", Role: "admin"})
	id := uuid.New()
	_ = env.repo.Create(context.Background(), &entity.Case{
		CaseID: id, OwnerID: "someone-else", Status: constants.CaseStatusUploaded,
	})

	rec := doRequest(env, http.MethodGet, "/api/v1/cases/"+id.String(), nil, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 for admin", rec.Code)
	}
}

func TestGet_NotFound(t *testing.T) {
	env := newTestEnv(t, analyst())
	rec := doRequest(env, http.MethodGet, "/api/v1/cases/"+uuid.NewString(), nil, "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
}

func TestGet_InvalidID(t *testing.T) {
	env := newTestEnv(t, analyst())
	rec := doRequest(env, http.MethodGet, "/api/v1/cases/not-a-uuid", nil, "")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestAnalyze_QueuesCase(t *testing.T) {
	env := newTestEnv(t, analyst())
	id := uuid.New()
	_ = env.repo.Create(context.Background(), &entity.Case{
		CaseID: id, OwnerID: "user-1", Status: constants.CaseStatusUploaded,
	})

	rec := doRequest(env, http.MethodPost, "/api/v1/cases/"+id.String()+"/analyze", nil, "")
	if rec.Code != http.StatusAccepted {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body)
	}

	var resp struct {
		Status string `json:"status"`
	}
	_ = json.Unmarshal(rec.Body.Bytes(), &resp)
	if resp.Status != "queued" {
		t.Errorf("status field = %q, want queued", resp.Status)
	}

	stored, _ := env.repo.GetByID(context.Background(), id)
	if stored.Status != constants.CaseStatusQueued {
		t.Errorf("case status = %s, want queued before the response", stored.Status)
	}
	if len(env.queue.jobs) != 1 || env.queue.jobs[0].CaseID != id {
		t.Errorf("jobs = %+v", env.queue.jobs)
	}
}

func TestAnalyze_ForeignCaseForbidden(t *testing.T) {
	env := newTestEnv(t, analyst())
	id := uuid.New()
	_ = env.repo.Create(context.Background(), &entity.Case{
		CaseID: id, OwnerID: "someone-else", Status: constants.CaseStatusUploaded,
	})

	rec := doRequest(env, http.MethodPost, "/api/v1/cases/"+id.String()+"/analyze", nil, "")
	if rec.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want 403", rec.Code)
	}
	if len(env.queue.jobs) != 0 {
		t.Error("job queued for forbidden case")
	}
}

func TestExport_ReturnsWorkbook(t *testing.T) {
	env := newTestEnv(t, analyst())
	_ = env.repo.Create(context.Background(), &entity.Case{
		CaseID: uuid.New(), OwnerID: "user-1", Status: constants.CaseStatusAnalyzed,
		Signals: entity.SignalMap{constants.SignalKeywords: []string{"cash"}},
	})

	rec := doRequest(env, http.MethodGet, "/api/v1/cases/export", nil, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body)
	}
	wantCT := "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	if got := rec.Header().Get("Content-Type"); got != wantCT {
		t.Errorf("content type = %q", got)
	}
	if !strings.Contains(rec.Header().Get("Content-Disposition"), ".xlsx") {
		t.Errorf("content disposition = %q", rec.Header().Get("Content-Disposition"))
	}
	// XLSX containers start with the zip magic.
	if body := rec.Body.Bytes(); len(body) < 4 || body[0] != 'P' || body[1] != 'K' {
		t.Error("body is not a zip container")
	}
}

func TestAuthMe(t *testing.T) {
	env := newTestEnv(t, analyst())
	rec := doRequest(env, http.MethodGet, "/api/v1/auth/me", nil, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var resp struct {
		ID    string `json:"id"`
		Email string `json:"email"`
		Role  string `json:"role"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.ID != "user-1" || resp.Role != "analyst" {
		t.Errorf("resp = %+v", resp)
	}
}

func TestHealthCheck_NoAuth(t *testing.T) {
	router := NewRouter(RouterConfig{
		CaseHandler:    NewCaseHandler(newFakeRepo(), storage.NewFileStore(t.TempDir(), nil), &fakeQueue{}, export.NewService(newFakeRepo(), nil), nil),
		AuthHandler:    NewAuthHandler(),
		AuthMiddleware: NewAuthMiddleware(nil, nil),
	})

	req := httptest.NewRequest(http.MethodGet, "/healthcheck", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestProtectedRoutes_RejectMissingToken(t *testing.T) {
	router := NewRouter(RouterConfig{
		CaseHandler:    NewCaseHandler(newFakeRepo(), storage.NewFileStore(t.TempDir(), nil), &fakeQueue{}, export.NewService(newFakeRepo(), nil), nil),
		AuthHandler:    NewAuthHandler(),
		AuthMiddleware: NewAuthMiddleware(nil, nil),
	})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/cases", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
}
