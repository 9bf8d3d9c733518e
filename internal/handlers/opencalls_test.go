package handlers

import (
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/opencallhq/opencall/internal/models"
	"github.com/opencallhq/opencall/internal/services"
)

func TestOpenCallHandlerSaveAndList(t *testing.T) {
	stack := newTestStack(t)
	handler, err := NewOpenCallHandler(stack.openCalls)
	require.NoError(t, err)

	c, recorder := newJSONContext(t, http.MethodPut, gin.H{
		"calls": []gin.H{{
			"title":      "Emerging Voices 2026",
			"call_type":  "visual_arts",
			"status":     "active",
			"start_date": "2026-09-01",
			"end_date":   "2026-11-30",
		}},
	})
	handler.Save(c)
	require.Equal(t, http.StatusOK, recorder.Code)

	var saved map[string][]services.OpenCall
	decodeResponse(t, recorder, &saved)
	require.Len(t, saved["calls"], 1)
	require.NotZero(t, saved["calls"][0].TermID)

	var term models.Term
	require.NoError(t, stack.db.Where("slug = ?", "emerging-voices-2026").Take(&term).Error)

	c, recorder = newQueryContext(t, "")
	handler.List(c)
	require.Equal(t, http.StatusOK, recorder.Code)

	var listed map[string][]services.OpenCall
	decodeResponse(t, recorder, &listed)
	require.Len(t, listed["calls"], 1)
	require.Equal(t, "Emerging Voices 2026", listed["calls"][0].Title)
}

func TestOpenCallHandlerSaveRejectsInvalid(t *testing.T) {
	stack := newTestStack(t)
	handler, err := NewOpenCallHandler(stack.openCalls)
	require.NoError(t, err)

	c, recorder := newJSONContext(t, http.MethodPut, gin.H{
		"calls": []gin.H{{"title": "", "status": "active"}},
	})
	handler.Save(c)
	require.Equal(t, http.StatusBadRequest, recorder.Code)
}

func TestOpenCallHandlerRepairTerms(t *testing.T) {
	stack := newTestStack(t)
	handler, err := NewOpenCallHandler(stack.openCalls)
	require.NoError(t, err)

	// A bag written before term linking has calls with no term id.
	require.NoError(t, stack.db.Create(&models.Setting{
		Key:   "open_calls",
		Value: []byte(`{"calls":[{"title":"Harbor Residency"}]}`),
	}).Error)

	c, recorder := newQueryContext(t, "")
	handler.RepairTerms(c)
	require.Equal(t, http.StatusOK, recorder.Code)

	var result map[string]int
	decodeResponse(t, recorder, &result)
	require.Equal(t, 1, result["repaired"])

	var term models.Term
	require.NoError(t, stack.db.Where("slug = ?", "harbor-residency").Take(&term).Error)
}
