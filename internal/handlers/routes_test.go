package handlers_test

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"opsboard/internal/handlers"
	"opsboard/internal/middleware"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const routerSecret = "router-secret"

func newTestRouter(t *testing.T, identity middleware.IdentityConfig) (*gin.Engine, string) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	uploads := t.TempDir()
	users := &MockUserService{}
	h := handlers.Handlers{
		Boards:      handlers.NewBoardHandler(&MockBoardService{}),
		Columns:     handlers.NewColumnHandler(&MockColumnService{}),
		Tasks:       handlers.NewTaskHandler(&MockTaskService{}),
		Labels:      handlers.NewLabelHandler(&MockLabelService{}),
		Users:       handlers.NewUserHandler(users),
		Attachments: handlers.NewAttachmentHandler(&MockAttachmentService{}, 1024),
		Maintenance: handlers.NewMaintenanceHandler(&MockSweeper{}, nil),
	}
	if identity.Enabled {
		h.Auth = handlers.NewAuthHandler(users, identity.Secret, identity.Issuer, time.Hour)
	}

	router := handlers.NewRouter(h, handlers.RouterConfig{
		CORSOrigins: []string{"http://localhost:5173"},
		Identity:    identity,
		RateLimiter: middleware.NewRateLimiter(middleware.RateLimitConfig{RequestsPerMin: 600, BurstSize: 100}),
		UploadsRoot: uploads,
	})
	return router, uploads
}

func TestRouter_ServesAPI(t *testing.T) {
	router, _ := newTestRouter(t, middleware.IdentityConfig{})

	for _, path := range []string{"/api/boards", "/api/labels", "/api/users", "/api/boards/1", "/health/live"} {
		w := doJSON(router, "GET", path, nil)
		assert.Equal(t, http.StatusOK, w.Code, path)
	}
	assert.Equal(t, http.StatusOK, doJSON(router, "POST", "/api/columns/reorder", `{"columns":[]}`).Code)
	assert.Equal(t, http.StatusOK, doJSON(router, "DELETE", "/api/columns/4", nil).Code)
}

func TestRouter_UploadsAreDownloads(t *testing.T) {
	router, uploads := newTestRouter(t, middleware.IdentityConfig{})

	folder := filepath.Join(uploads, "1_Deploy")
	require.NoError(t, os.MkdirAll(folder, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(folder, "page.html"), []byte("<script>alert(1)</script>"), 0o644))

	w := doJSON(router, "GET", "/uploads/1_Deploy/page.html", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "attachment", w.Header().Get("Content-Disposition"))
	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))

	w = doJSON(router, "GET", "/uploads/1_Deploy/missing.txt", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRouter_CORSPreflight(t *testing.T) {
	router, _ := newTestRouter(t, middleware.IdentityConfig{})

	req, _ := http.NewRequest("OPTIONS", "/api/tasks/1/move", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", "PATCH")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "http://localhost:5173", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, w.Header().Get("Access-Control-Allow-Methods"), "PATCH")
}

func TestRouter_IdentityRequiredWhenEnabled(t *testing.T) {
	identity := middleware.IdentityConfig{Enabled: true, Secret: routerSecret, Issuer: "opsboard"}
	router, _ := newTestRouter(t, identity)

	w := doJSON(router, "GET", "/api/boards", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = doJSON(router, "POST", "/api/auth/token", map[string]interface{}{"user_id": 1})
	require.Equal(t, http.StatusOK, w.Code)
	token, _ := decodeBody(w)["access_token"].(string)
	require.NotEmpty(t, token)

	req, _ := http.NewRequest("GET", "/api/boards", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRouter_TokenEndpointHiddenWhenDisabled(t *testing.T) {
	router, _ := newTestRouter(t, middleware.IdentityConfig{})

	w := doJSON(router, "POST", "/api/auth/token", map[string]interface{}{"user_id": 1})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func failingBoardsRouter(expose bool) *gin.Engine {
	gin.SetMode(gin.TestMode)

	h := handlers.Handlers{
		Boards:      handlers.NewBoardHandler(&MockBoardService{err: errors.New("disk I/O error")}),
		Columns:     handlers.NewColumnHandler(&MockColumnService{}),
		Tasks:       handlers.NewTaskHandler(&MockTaskService{}),
		Labels:      handlers.NewLabelHandler(&MockLabelService{}),
		Users:       handlers.NewUserHandler(&MockUserService{}),
		Attachments: handlers.NewAttachmentHandler(&MockAttachmentService{}, 1024),
		Maintenance: handlers.NewMaintenanceHandler(&MockSweeper{}, nil),
	}
	return handlers.NewRouter(h, handlers.RouterConfig{ExposeInternalErrors: expose})
}

func TestRouter_InternalErrorDetailIsPerRouter(t *testing.T) {
	verbose := failingBoardsRouter(true)
	quiet := failingBoardsRouter(false)

	w := doJSON(verbose, "GET", "/api/boards", nil)
	require.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "disk I/O error", decodeBody(w)["message"])

	w = doJSON(quiet, "GET", "/api/boards", nil)
	require.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "internal error", decodeBody(w)["message"])

	w = doJSON(verbose, "GET", "/api/boards", nil)
	assert.Equal(t, "disk I/O error", decodeBody(w)["message"], "building a second router must not change the first")
}
