package handlers

import (
	"encoding/csv"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/opencallhq/opencall/internal/services"
	"github.com/opencallhq/opencall/pkg/errors"
	"github.com/opencallhq/opencall/pkg/response"
)

type AuditHandler struct {
	svc *services.AuditService
}

func NewAuditHandler(db *gorm.DB) (*AuditHandler, error) {
	svc, err := services.NewAuditService(db)
	if err != nil {
		return nil, err
	}
	return &AuditHandler{svc: svc}, nil
}

func auditFiltersFromQuery(c *gin.Context) services.AuditFilters {
	return services.AuditFilters{
		ActionType:   c.Query("action_type"),
		SubmissionID: parseUintQuery(c, "submission_id"),
		DateFrom:     c.Query("date_from"),
		DateTo:       c.Query("date_to"),
	}
}

// GET /api/audit
func (h *AuditHandler) List(c *gin.Context) {
	page := parseIntQuery(c, "page", 1)

	logs, total, err := h.svc.List(requestContext(c), services.AuditListOptions{
		Page:    page,
		Filters: auditFiltersFromQuery(c),
	})
	if err != nil {
		response.Error(c, errors.ErrInternalServer.WithInternal(err))
		return
	}

	records := make([]services.AuditDisplayRecord, 0, len(logs))
	for _, log := range logs {
		records = append(records, services.RenderAuditLog(log))
	}

	response.SuccessWithMeta(c, http.StatusOK, records,
		response.NewMeta(page, services.AuditPageSize, int(total)))
}

// GET /api/audit/export
func (h *AuditHandler) Export(c *gin.Context) {
	logs, err := h.svc.Export(requestContext(c), auditFiltersFromQuery(c))
	if err != nil {
		response.Error(c, errors.ErrInternalServer.WithInternal(err))
		return
	}

	filename := fmt.Sprintf("audit-log-%s.csv", time.Now().Format("2006-01-02"))
	c.Header("Content-Type", "text/csv; charset=utf-8")
	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.Status(http.StatusOK)

	w := csv.NewWriter(c.Writer)
	_ = w.Write([]string{"id", "date", "action", "submission", "artist_name", "artist_email", "user", "details"})
	for _, log := range logs {
		record := services.RenderAuditLog(log)
		details := record.RawDetails
		for _, d := range record.Details {
			if details != "" {
				details += "; "
			}
			details += d.Label + ": " + d.Value
		}
		_ = w.Write([]string{
			fmt.Sprintf("%d", record.ID),
			record.CreatedAt.Format(time.RFC3339),
			record.ActionLabel,
			record.SubmissionLabel,
			record.ArtistName,
			record.ArtistEmail,
			record.UserName,
			details,
		})
	}
	w.Flush()
}

// POST /api/audit/backfill-artist-info
func (h *AuditHandler) BackfillArtistInfo(c *gin.Context) {
	updated, err := h.svc.BackfillArtistInfo(requestContext(c))
	if err != nil {
		response.Error(c, errors.ErrInternalServer.WithInternal(err))
		return
	}
	response.Success(c, http.StatusOK, gin.H{"updated": updated})
}
