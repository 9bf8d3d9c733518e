package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/opencallhq/opencall/internal/database/testutil"
	"github.com/opencallhq/opencall/internal/services"
	"github.com/opencallhq/opencall/pkg/response"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func testContext() context.Context {
	return context.Background()
}

// testStack bundles the service graph handler tests run against.
type testStack struct {
	db          *gorm.DB
	audit       *services.AuditService
	settings    *services.SettingsService
	email       *services.EmailService
	submissions *services.SubmissionService
	openCalls   *services.OpenCallService
	files       *services.FileService
}

func newTestStack(t *testing.T) *testStack {
	t.Helper()

	db := testutil.MustOpenTestDB(t)

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

	return &testStack{
		db:          db,
		audit:       audit,
		settings:    settings,
		email:       email,
		submissions: submissions,
		openCalls:   openCalls,
		files:       files,
	}
}

// newJSONContext builds a gin test context carrying a JSON request body.
func newJSONContext(t *testing.T, method string, body any) (*gin.Context, *httptest.ResponseRecorder) {
	t.Helper()

	recorder := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(recorder)

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, "/", &buf)
	req.Header.Set("Content-Type", "application/json")
	c.Request = req

	return c, recorder
}

func newQueryContext(t *testing.T, rawQuery string) (*gin.Context, *httptest.ResponseRecorder) {
	t.Helper()

	recorder := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(recorder)
	c.Request = httptest.NewRequest(http.MethodGet, "/?"+rawQuery, nil)

	return c, recorder
}

// decodeResponse unpacks the envelope and unmarshals the data payload into out.
func decodeResponse(t *testing.T, recorder *httptest.ResponseRecorder, out any) response.Response {
	t.Helper()

	var payload response.Response
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &payload))

	if out != nil {
		data, err := json.Marshal(payload.Data)
		require.NoError(t, err)
		require.NoError(t, json.Unmarshal(data, out))
	}
	return payload
}
