package handlers

import (
	"fmt"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/opencallhq/opencall/internal/models"
	"github.com/opencallhq/opencall/internal/services"
)

func seedAuditTrail(t *testing.T, stack *testStack, count int) {
	t.Helper()

	base := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	for i := 0; i < count; i++ {
		log := models.AuditLog{
			ActionType:  models.ActionEmailSent,
			ArtistName:  fmt.Sprintf("Artist %d", i),
			ArtistEmail: fmt.Sprintf("artist%d@example.org", i),
			CreatedAt:   base.Add(time.Duration(i) * time.Minute),
		}
		if i%2 == 0 {
			log.ActionType = models.ActionStatusChange
		}
		require.NoError(t, stack.db.Create(&log).Error)
	}
}

func TestAuditHandlerList(t *testing.T) {
	stack := newTestStack(t)
	seedAuditTrail(t, stack, 25)

	handler, err := NewAuditHandler(stack.db)
	require.NoError(t, err)

	c, recorder := newQueryContext(t, "page=1")
	handler.List(c)

	require.Equal(t, http.StatusOK, recorder.Code)

	var records []services.AuditDisplayRecord
	payload := decodeResponse(t, recorder, &records)
	require.True(t, payload.Success)
	require.Len(t, records, services.AuditPageSize)
	require.NotNil(t, payload.Meta)
	require.Equal(t, 25, payload.Meta.Total)
	require.Equal(t, 2, payload.Meta.TotalPages)

	// Newest first.
	require.Equal(t, "Artist 24", records[0].ArtistName)

	c, recorder = newQueryContext(t, "page=2")
	handler.List(c)
	records = nil
	decodeResponse(t, recorder, &records)
	require.Len(t, records, 5)
}

func TestAuditHandlerListFilters(t *testing.T) {
	stack := newTestStack(t)
	seedAuditTrail(t, stack, 10)

	handler, err := NewAuditHandler(stack.db)
	require.NoError(t, err)

	c, recorder := newQueryContext(t, "action_type=status_change")
	handler.List(c)

	var records []services.AuditDisplayRecord
	payload := decodeResponse(t, recorder, &records)
	require.Equal(t, 5, payload.Meta.Total)
	for _, r := range records {
		require.Equal(t, "Status Change", r.ActionLabel)
	}
}

func TestAuditHandlerExport(t *testing.T) {
	stack := newTestStack(t)
	seedAuditTrail(t, stack, 3)

	handler, err := NewAuditHandler(stack.db)
	require.NoError(t, err)

	c, recorder := newQueryContext(t, "")
	handler.Export(c)

	require.Equal(t, http.StatusOK, recorder.Code)
	require.Contains(t, recorder.Header().Get("Content-Type"), "text/csv")
	require.Contains(t, recorder.Header().Get("Content-Disposition"), "audit-log-")

	lines := strings.Split(strings.TrimSpace(recorder.Body.String()), "\n")
	require.Len(t, lines, 4)
	require.Equal(t, "id,date,action,submission,artist_name,artist_email,user,details", lines[0])
	require.Contains(t, lines[1], "Artist 2")
}

func TestAuditHandlerBackfill(t *testing.T) {
	stack := newTestStack(t)

	submission := models.Submission{
		Title:       "Harbor Lights",
		ArtistName:  "Mara Voss",
		ArtistEmail: "mara@example.org",
	}
	require.NoError(t, stack.db.Create(&submission).Error)
	require.NoError(t, stack.db.Create(&models.AuditLog{
		ActionType:   models.ActionFileUpload,
		SubmissionID: submission.ID,
	}).Error)

	handler, err := NewAuditHandler(stack.db)
	require.NoError(t, err)

	c, recorder := newQueryContext(t, "")
	handler.BackfillArtistInfo(c)

	require.Equal(t, http.StatusOK, recorder.Code)

	var result map[string]int64
	decodeResponse(t, recorder, &result)
	require.Equal(t, int64(1), result["updated"])
}
