package handlers

import (
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/opencallhq/opencall/internal/services"
)

func TestSettingsHandlerGetIMAPDefaults(t *testing.T) {
	stack := newTestStack(t)
	handler, err := NewSettingsHandler(stack.settings)
	require.NoError(t, err)

	c, recorder := newQueryContext(t, "")
	handler.GetIMAP(c)

	require.Equal(t, http.StatusOK, recorder.Code)

	var cfg services.IMAPSettings
	decodeResponse(t, recorder, &cfg)
	require.Equal(t, 993, cfg.Port)
	require.Equal(t, "ssl", cfg.Encryption)
	require.True(t, cfg.DeleteProcessed)
}

func TestSettingsHandlerPutGeneralRoundtrip(t *testing.T) {
	stack := newTestStack(t)
	handler, err := NewSettingsHandler(stack.settings)
	require.NoError(t, err)

	c, recorder := newJSONContext(t, http.MethodPut, gin.H{
		"site_title": "Open Call Desk",
		"aws_region": "eu-west-1",
		"s3_bucket":  "opencall-media",
	})
	handler.PutGeneral(c)
	require.Equal(t, http.StatusOK, recorder.Code)

	c, recorder = newQueryContext(t, "")
	handler.GetGeneral(c)

	var cfg services.GeneralSettings
	decodeResponse(t, recorder, &cfg)
	require.Equal(t, "Open Call Desk", cfg.SiteTitle)
	require.Equal(t, "eu-west-1", cfg.AWSRegion)
	require.Equal(t, "opencall-media", cfg.S3Bucket)
	// Unset fields keep their defaults.
	require.Equal(t, 90, cfg.AuditRetentionDays)
}

func TestSettingsHandlerPutEmailRejectsInvalid(t *testing.T) {
	stack := newTestStack(t)
	handler, err := NewSettingsHandler(stack.settings)
	require.NoError(t, err)

	c, recorder := newJSONContext(t, http.MethodPut, gin.H{
		"from_email": "not-an-address",
	})
	handler.PutEmail(c)
	require.Equal(t, http.StatusBadRequest, recorder.Code)

	payload := decodeResponse(t, recorder, nil)
	require.False(t, payload.Success)
	require.NotNil(t, payload.Error)
}

func TestSettingsHandlerPutIMAPBadJSON(t *testing.T) {
	stack := newTestStack(t)
	handler, err := NewSettingsHandler(stack.settings)
	require.NoError(t, err)

	c, recorder := newQueryContext(t, "")
	handler.PutIMAP(c)
	require.Equal(t, http.StatusBadRequest, recorder.Code)
}

func TestSettingsHandlerTemplatesRoundtrip(t *testing.T) {
	stack := newTestStack(t)
	handler, err := NewSettingsHandler(stack.settings)
	require.NoError(t, err)

	c, recorder := newJSONContext(t, http.MethodPut, gin.H{
		"templates": gin.H{
			"submission_received": gin.H{
				"enabled": true,
				"subject": "Thanks, {artist_name}",
				"body":    "We received {submission_title}.",
			},
		},
		"daily_summary": gin.H{
			"enabled":   true,
			"recipient": "desk@example.org",
			"send_at":   "07:30",
		},
	})
	handler.PutTemplates(c)
	require.Equal(t, http.StatusOK, recorder.Code)

	c, recorder = newQueryContext(t, "")
	handler.GetTemplates(c)

	var cfg services.TemplateSettings
	decodeResponse(t, recorder, &cfg)
	received := cfg.Templates[services.TemplateSubmissionReceived]
	require.True(t, received.Enabled)
	require.Equal(t, "Thanks, {artist_name}", received.Subject)
	require.Equal(t, "07:30", cfg.DailySummary.SendAt)
}
