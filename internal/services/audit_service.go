package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/opencallhq/opencall/internal/auditctx"
	"github.com/opencallhq/opencall/internal/models"
	"github.com/opencallhq/opencall/pkg/metrics"
)

// AuditPageSize is the fixed page length for audit listings.
const AuditPageSize = 20

// AuditEntry captures a single audit event to persist.
type AuditEntry struct {
	ActionType   string
	SubmissionID uint
	UserID       *uint
	ArtistName   string
	ArtistEmail  string
	Data         map[string]any
}

// AuditFilters encapsulates optional filters when querying audit logs.
// Zero values impose no constraint. Dates are inclusive on both bounds and
// compare only the date portion of the stored timestamp.
type AuditFilters struct {
	ActionType   string
	SubmissionID uint
	DateFrom     string // YYYY-MM-DD
	DateTo       string // YYYY-MM-DD
}

// AuditListOptions controls pagination for audit queries. The page size is
// fixed; a page past the end of the result set returns an empty slice rather
// than being clamped.
type AuditListOptions struct {
	Page    int
	Filters AuditFilters
}

// AuditService persists and retrieves audit log entries.
type AuditService struct {
	db *gorm.DB
}

// NewAuditService constructs an AuditService using the provided database handle.
func NewAuditService(db *gorm.DB) (*AuditService, error) {
	if db == nil {
		return nil, errors.New("audit service: db is required")
	}
	return &AuditService{db: db}, nil
}

// Log stores an audit entry, marshalling the detail payload into JSON form.
// When the entry carries no explicit user, the actor from the context is used.
func (s *AuditService) Log(ctx context.Context, entry AuditEntry) error {
	ctx = ensureContext(ctx)

	if strings.TrimSpace(entry.ActionType) == "" {
		return errors.New("audit service: action type is required")
	}

	var payload []byte
	if entry.Data != nil {
		encoded, err := json.Marshal(entry.Data)
		if err != nil {
			return fmt.Errorf("audit service: marshal data: %w", err)
		}
		payload = encoded
	}

	log := models.AuditLog{
		ActionType:   strings.TrimSpace(entry.ActionType),
		SubmissionID: entry.SubmissionID,
		UserID:       entry.UserID,
		ArtistName:   strings.TrimSpace(entry.ArtistName),
		ArtistEmail:  strings.TrimSpace(entry.ArtistEmail),
		Data:         payload,
	}

	if log.UserID == nil {
		if actor, ok := auditctx.FromContext(ctx); ok && actor.UserID != 0 {
			id := actor.UserID
			log.UserID = &id
		}
	}

	if err := s.db.WithContext(ctx).Create(&log).Error; err != nil {
		return err
	}

	metrics.AuditEntriesWritten.WithLabelValues(log.ActionType).Inc()
	return nil
}

// List returns one fixed-size page of audit logs ordered by creation time
// descending. The count query and the page query share the same predicates so
// pagination metadata always matches the row universe.
func (s *AuditService) List(ctx context.Context, opts AuditListOptions) ([]models.AuditLog, int64, error) {
	ctx = ensureContext(ctx)

	page := opts.Page
	if page <= 0 {
		page = 1
	}

	var (
		results []models.AuditLog
		total   int64
	)

	query := s.db.WithContext(ctx).Model(&models.AuditLog{})
	query = applyAuditFilters(query, opts.Filters)

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("audit service: count logs: %w", err)
	}

	if err := query.
		Preload("Submission").
		Preload("User").
		Order("created_at DESC").
		Offset((page - 1) * AuditPageSize).
		Limit(AuditPageSize).
		Find(&results).Error; err != nil {
		return nil, 0, fmt.Errorf("audit service: list logs: %w", err)
	}

	return results, total, nil
}

// Export returns audit logs that match the provided filters without pagination.
func (s *AuditService) Export(ctx context.Context, filters AuditFilters) ([]models.AuditLog, error) {
	ctx = ensureContext(ctx)

	var logs []models.AuditLog
	query := s.db.WithContext(ctx).Model(&models.AuditLog{})
	query = applyAuditFilters(query, filters)

	if err := query.
		Preload("Submission").
		Preload("User").
		Order("created_at DESC").
		Find(&logs).Error; err != nil {
		return nil, fmt.Errorf("audit service: export logs: %w", err)
	}

	return logs, nil
}

// CleanupOlderThan removes audit logs older than the supplied retention window (in days).
func (s *AuditService) CleanupOlderThan(ctx context.Context, retentionDays int) (int64, error) {
	ctx = ensureContext(ctx)

	if retentionDays <= 0 {
		return 0, errors.New("audit service: retentionDays must be positive")
	}

	cutoff := time.Now().AddDate(0, 0, -retentionDays)

	result := s.db.WithContext(ctx).Where("created_at < ?", cutoff).Delete(&models.AuditLog{})
	if result.Error != nil {
		return 0, fmt.Errorf("audit service: cleanup logs: %w", result.Error)
	}

	return result.RowsAffected, nil
}

// BackfillArtistInfo copies artist name and email from the linked submission
// onto audit rows that were recorded without them. Rows whose submission no
// longer exists are left untouched. Returns the number of rows updated.
func (s *AuditService) BackfillArtistInfo(ctx context.Context) (int64, error) {
	ctx = ensureContext(ctx)

	var rows []models.AuditLog
	if err := s.db.WithContext(ctx).
		Where("submission_id > 0").
		Where("artist_name = ? OR artist_email = ?", "", "").
		Find(&rows).Error; err != nil {
		return 0, fmt.Errorf("audit service: find incomplete rows: %w", err)
	}

	var updated int64
	for _, row := range rows {
		var submission models.Submission
		err := s.db.WithContext(ctx).Take(&submission, "id = ?", row.SubmissionID).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			continue
		}
		if err != nil {
			return updated, fmt.Errorf("audit service: load submission %d: %w", row.SubmissionID, err)
		}

		changes := map[string]any{}
		if row.ArtistName == "" && submission.ArtistName != "" {
			changes["artist_name"] = submission.ArtistName
		}
		if row.ArtistEmail == "" && submission.ArtistEmail != "" {
			changes["artist_email"] = submission.ArtistEmail
		}
		if len(changes) == 0 {
			continue
		}

		if err := s.db.WithContext(ctx).Model(&models.AuditLog{}).
			Where("id = ?", row.ID).
			Updates(changes).Error; err != nil {
			return updated, fmt.Errorf("audit service: update row %d: %w", row.ID, err)
		}
		updated++
	}

	return updated, nil
}

func applyAuditFilters(query *gorm.DB, filters AuditFilters) *gorm.DB {
	if filters.ActionType != "" {
		query = query.Where("action_type = ?", filters.ActionType)
	}
	if filters.SubmissionID > 0 {
		query = query.Where("submission_id = ?", filters.SubmissionID)
	}
	if filters.DateFrom != "" {
		query = query.Where("DATE(created_at) >= ?", filters.DateFrom)
	}
	if filters.DateTo != "" {
		query = query.Where("DATE(created_at) <= ?", filters.DateTo)
	}
	return query
}
