package router

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"ats-backend/internal/core/auth"
	"ats-backend/internal/core/config"
	"ats-backend/internal/core/database"
	"ats-backend/internal/core/ratelimit"
	"ats-backend/internal/domain"
	"ats-backend/internal/repo"
	"ats-backend/internal/service"
	"ats-backend/internal/storage"
	"ats-backend/internal/testutil"
	"ats-backend/internal/transport/http/handler"
	"ats-backend/pkg/utils"
)

var testDB *gorm.DB

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	ctx := context.Background()
	db, teardown, err := testutil.OpenDB(ctx)
	if err != nil {
		fmt.Fprintln(os.Stderr, "postgres container unavailable, api tests skipped:", err)
	} else {
		testDB = db
	}
	code := m.Run()
	if teardown != nil {
		tctx, cancel := context.WithTimeout(ctx, 10*time.Second)
		_ = teardown(tctx)
		cancel()
	}
	os.Exit(code)
}

type app struct {
	engine *gin.Engine
	dir    string
}

func newApp(t *testing.T, maxPerWindow int) *app {
	t.Helper()
	if testDB == nil {
		t.Skip("no database")
	}
	require.NoError(t, testutil.Truncate(testDB, "applications", "jobs", "users"))

	cfg := &config.Config{}
	cfg.App.Env = "test"
	cfg.Limit = config.Limit{RPS: 1000, Burst: 1000, Concurrency: 100, Max: maxPerWindow, WindowMin: 15}
	cfg.Upload.MaxBytes = 1 << 20

	log := zap.NewNop()
	dir := filepath.Join(t.TempDir(), "uploads")
	files, err := storage.NewLocalStore(dir, log)
	require.NoError(t, err)

	users, jobs, apps := repo.NewUserRepo(testDB), repo.NewJobRepo(testDB), repo.NewApplicationRepo(testDB)
	jwter := &auth.JWTer{Secret: []byte("e2e"), Issuer: "ats", TTL: time.Hour}
	appSvc := service.NewApplicationService(apps, jobs, files, log)

	hash, err := utils.HashPassword("password123")
	require.NoError(t, err)
	u := &domain.User{ID: utils.NewID(), Username: "testuser", Email: "test@example.com", PasswordHash: hash}
	u.Touch(time.Now())
	require.NoError(t, users.Create(context.Background(), u))

	e := NewAPIEngine(Deps{
		Log:     log,
		Config:  cfg,
		Auth:    service.NewAuthService(users, testutil.NewSessions(), jwter, log, service.AuthOptions{StrictSessions: true}),
		Jobs:    service.NewJobService(jobs, appSvc, log),
		Apps:    appSvc,
		Files:   files,
		Limiter: &ratelimit.FixedWindow{Store: ratelimit.NewMemoryStore(), Limit: maxPerWindow, Window: 15 * time.Minute},
		Health: map[string]handler.Check{
			"db": func(ctx context.Context) map[string]string { return database.Health(ctx, testDB) },
		},
	})
	return &app{engine: e, dir: dir}
}

func (a *app) signIn(t *testing.T) string {
	t.Helper()
	rec, body := testutil.MakeJSONRequest(gin.H{"username": "testuser", "password": "password123"}, "", a.engine, "/api/auth/signin", http.MethodPost)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	tok, _ := body["token"].(string)
	require.NotEmpty(t, tok)
	return tok
}

func (a *app) get(path, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	a.engine.ServeHTTP(w, req)
	return w
}

func TestSignInAndProfile(t *testing.T) {
	a := newApp(t, 100)

	rec, body := testutil.MakeJSONRequest(gin.H{"username": "testuser", "password": "nope"}, "", a.engine, "/api/auth/signin", http.MethodPost)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Invalid credentials", body["error"])

	tok := a.signIn(t)
	rec, body = testutil.MakeJSONRequest(nil, tok, a.engine, "/api/user/profile", http.MethodGet)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "testuser", body["username"])
	assert.NotContains(t, rec.Body.String(), "password")

	rec, _ = testutil.MakeJSONRequest(nil, "", a.engine, "/api/user/profile", http.MethodGet)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec, _ = testutil.MakeJSONRequest(nil, tok, a.engine, "/api/auth/signout", http.MethodPost)
	assert.Equal(t, http.StatusOK, rec.Code)
	rec, _ = testutil.MakeJSONRequest(nil, tok, a.engine, "/api/user/profile", http.MethodGet)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestPasswordResetEndpoints(t *testing.T) {
	a := newApp(t, 100)

	rec, body := testutil.MakeJSONRequest(gin.H{"email": "ghost@example.com"}, "", a.engine, "/api/auth/reset-password-request", http.MethodPost)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "User not found", body["error"])

	rec, _ = testutil.MakeJSONRequest(gin.H{"email": "test@example.com"}, "", a.engine, "/api/auth/reset-password-request", http.MethodPost)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec, body = testutil.MakeJSONRequest(gin.H{"token": "bogus", "newPassword": "x"}, "", a.engine, "/api/auth/reset-password", http.MethodPost)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Invalid or expired token", body["error"])
}

func TestJobsAndApplicationsFlow(t *testing.T) {
	a := newApp(t, 1000)
	tok := a.signIn(t)

	// a closed job never shows up in the listing
	rec, _ := testutil.MakeJSONRequest(gin.H{"title": "Old Role", "department": "Ops", "location": "Paris", "isOpen": false}, tok, a.engine, "/api/jobs", http.MethodPost)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec, job := testutil.MakeJSONRequest(gin.H{"title": "Backend Developer", "department": "Engineering", "location": "Remote", "isOpen": true}, tok, a.engine, "/api/jobs", http.MethodPost)
	require.Equal(t, http.StatusCreated, rec.Code)
	jobID := job["_id"].(string)
	assert.Equal(t, "/job/"+jobID+"/applications", job["applicationManagementUrl"])

	rec, body := testutil.MakeJSONRequest(nil, tok, a.engine, "/api/jobs/"+jobID, http.MethodGet)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 0, body["applicationsCount"])

	rec, body = testutil.MakeJSONRequest(nil, tok, a.engine, "/api/jobs", http.MethodGet)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 1, body["currentPage"])
	assert.EqualValues(t, 1, body["totalPages"])
	jobs := body["jobs"].([]any)
	require.Len(t, jobs, 1)
	assert.Equal(t, jobID, jobs[0].(map[string]any)["_id"])

	rec, body = testutil.MakeJSONRequest(nil, tok, a.engine, "/api/jobs?search=C%2B%2B", http.MethodGet)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, body["jobs"])
	assert.EqualValues(t, 0, body["totalPages"])

	rec, _ = testutil.MakeJSONRequest(nil, tok, a.engine, "/api/jobs?page=0", http.MethodGet)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// application without a CV is rejected and nothing is stored
	appsURL := "/api/jobs/" + jobID + "/applications"
	fields := gin.H{"name": "Jane Doe", "email": "jane@example.com", "phone": "555-0100"}
	rec, body = testutil.MakeMultipartRequest(fields, nil, tok, a.engine, appsURL)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "CV file is required", body["error"])

	pdf := []byte("%PDF-1.4\n%test\n")
	rec, created := testutil.MakeMultipartRequest(fields, &testutil.MultipartFile{Field: "cv", Filename: "jane.pdf", Data: pdf}, tok, a.engine, appsURL)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	appID := created["_id"].(string)
	cvURL := created["cvUrl"].(string)
	assert.True(t, strings.HasPrefix(cvURL, "/uploads/cv-"))
	assert.Equal(t, "Applied", created["stage"])
	assert.Equal(t, jobID, created["job"])

	w := a.get(cvURL, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/pdf", w.Header().Get("Content-Type"))
	assert.Equal(t, "inline", w.Header().Get("Content-Disposition"))
	assert.Equal(t, pdf, w.Body.Bytes())

	// the PDF viewer fetches byte ranges
	req := httptest.NewRequest(http.MethodGet, cvURL, nil)
	req.Header.Set("Range", "bytes=0-7")
	w = httptest.NewRecorder()
	a.engine.ServeHTTP(w, req)
	require.Equal(t, http.StatusPartialContent, w.Code)
	assert.Equal(t, pdf[:8], w.Body.Bytes())
	assert.Equal(t, "application/pdf", w.Header().Get("Content-Type"))

	rec, body = testutil.MakeJSONRequest(nil, tok, a.engine, "/api/jobs/"+jobID, http.MethodGet)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 1, body["applicationsCount"])

	rec, body = testutil.MakeJSONRequest(gin.H{"stage": "Interview"}, tok, a.engine, appsURL+"/"+appID+"/stage", http.MethodPatch)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Interview", body["stage"])
	rec, _ = testutil.MakeJSONRequest(gin.H{"stage": "Hired"}, tok, a.engine, appsURL+"/"+appID+"/stage", http.MethodPatch)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	w = a.get(appsURL+"?stage=Interview&search=jane", tok)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), appID)
	w = a.get(appsURL+"?stage=Hired", tok)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	rec, _ = testutil.MakeJSONRequest(nil, tok, a.engine, "/api/jobs/"+jobID, http.MethodDelete)
	require.Equal(t, http.StatusOK, rec.Code)

	rec, body = testutil.MakeJSONRequest(nil, tok, a.engine, appsURL+"/"+appID, http.MethodGet)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Application not found", body["error"])
	assert.Equal(t, http.StatusNotFound, a.get(cvURL, "").Code)

	rec, _ = testutil.MakeJSONRequest(nil, tok, a.engine, "/api/jobs/"+jobID, http.MethodGet)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestUpdateJobAndDeleteApplication(t *testing.T) {
	a := newApp(t, 1000)
	tok := a.signIn(t)

	rec, body := testutil.MakeJSONRequest(gin.H{"title": "x", "department": "y", "location": "z"}, tok, a.engine, "/api/jobs/missing", http.MethodPut)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Job not found", body["error"])

	rec, job := testutil.MakeJSONRequest(gin.H{"title": "QA", "department": "Eng", "location": "Oslo"}, tok, a.engine, "/api/jobs", http.MethodPost)
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, true, job["isOpen"])
	jobID := job["_id"].(string)

	rec, _ = testutil.MakeJSONRequest(gin.H{"title": "", "department": "Eng", "location": "Oslo"}, tok, a.engine, "/api/jobs/"+jobID, http.MethodPut)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, body = testutil.MakeJSONRequest(gin.H{"title": "QA Lead", "department": "Eng", "location": "Oslo", "isOpen": false}, tok, a.engine, "/api/jobs/"+jobID, http.MethodPut)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "QA Lead", body["title"])
	assert.Equal(t, false, body["isOpen"])

	appsURL := "/api/jobs/" + jobID + "/applications"
	rec, created := testutil.MakeMultipartRequest(gin.H{"name": "Sam", "email": "s@x.io", "phone": "1", "stage": "Offer"},
		&testutil.MultipartFile{Field: "cv", Filename: "sam.docx", Data: []byte("PK\x03\x04")}, tok, a.engine, appsURL)
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "Offer", created["stage"])
	cvURL := created["cvUrl"].(string)

	// the stored file vanishing does not block the delete
	require.NoError(t, os.Remove(filepath.Join(a.dir, strings.TrimPrefix(cvURL, "/uploads/"))))
	rec, _ = testutil.MakeJSONRequest(nil, tok, a.engine, appsURL+"/"+created["_id"].(string), http.MethodDelete)
	assert.Equal(t, http.StatusOK, rec.Code)
	rec, _ = testutil.MakeJSONRequest(nil, tok, a.engine, appsURL+"/"+created["_id"].(string), http.MethodDelete)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAdmissionControl(t *testing.T) {
	a := newApp(t, 3)

	for i := 0; i < 3; i++ {
		w := a.get("/api/user/profile", "")
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	}
	w := a.get("/api/user/profile", "")
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "3", w.Header().Get("X-RateLimit-Limit"))

	// health and metrics sit outside the limited groups
	assert.Equal(t, http.StatusOK, a.get("/health", "").Code)
	w = a.get("/metrics", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "ats_http_requests_total")
}
