package api

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/opencallhq/opencall/internal/app"
	iauth "github.com/opencallhq/opencall/internal/auth"
	"github.com/opencallhq/opencall/internal/database/testutil"
	"github.com/opencallhq/opencall/internal/services"
)

func testDependencies(t *testing.T, db *gorm.DB) Dependencies {
	t.Helper()

	jwtSvc, err := iauth.NewJWTService(iauth.JWTConfig{
		Secret:         "test-secret",
		Issuer:         "test",
		AccessTokenTTL: 15 * time.Minute,
	})
	require.NoError(t, err)

	audit, err := services.NewAuditService(db)
	require.NoError(t, err)
	settings, err := services.NewSettingsService(db, audit)
	require.NoError(t, err)
	email, err := services.NewEmailService(db, settings, audit, nil)
	require.NoError(t, err)
	submissions, err := services.NewSubmissionService(db, audit, email)
	require.NoError(t, err)
	openCalls, err := services.NewOpenCallService(db, settings, audit)
	require.NoError(t, err)
	files, err := services.NewFileService(db, settings, audit, nil)
	require.NoError(t, err)

	cfg := &app.Config{}
	cfg.Monitoring.Health.Enabled = true
	cfg.Monitoring.Prometheus.Enabled = true
	cfg.Monitoring.Prometheus.Endpoint = "/metrics"

	return Dependencies{
		DB:          db,
		JWT:         jwtSvc,
		Config:      cfg,
		Settings:    settings,
		Email:       email,
		Submissions: submissions,
		OpenCalls:   openCalls,
		Files:       files,
	}
}

func TestRouterPublicAndProtectedRoutes(t *testing.T) {
	gin.SetMode(gin.TestMode)

	db := testutil.MustOpenTestDB(t)
	deps := testDependencies(t, db)

	router, err := NewRouter(deps)
	require.NoError(t, err)

	// Health is public
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	// Protected endpoints reject anonymous callers
	for _, path := range []string{"/api/audit", "/api/settings/general", "/api/files/status"} {
		w = httptest.NewRecorder()
		req = httptest.NewRequest(http.MethodGet, path, nil)
		router.ServeHTTP(w, req)
		require.Equal(t, http.StatusUnauthorized, w.Code, path)
	}

	// A valid token opens them up
	token, err := deps.JWT.GenerateAccessToken(iauth.AccessTokenInput{UserID: 1, Username: "admin"})
	require.NoError(t, err)

	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/api/settings/imap", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), `"port":993`)
}

func TestRouterMetricsEndpoint(t *testing.T) {
	gin.SetMode(gin.TestMode)

	db := testutil.MustOpenTestDB(t)
	router, err := NewRouter(testDependencies(t, db))
	require.NoError(t, err)

	// Trigger a request so latency metrics exist
	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, w.Code)
	require.True(t, strings.Contains(w.Body.String(), "opencall_"))
}

func TestRouterRequiresDependencies(t *testing.T) {
	_, err := NewRouter(Dependencies{})
	require.Error(t, err)
}
