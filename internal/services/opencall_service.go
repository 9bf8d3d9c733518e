package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/opencallhq/opencall/internal/models"
	"github.com/opencallhq/opencall/pkg/validator"
)

// Open call types and statuses.
const (
	CallTypeVisualArts = "visual_arts"
	CallTypeTextBased  = "text_based"

	CallStatusActive   = "active"
	CallStatusInactive = "inactive"
	CallStatusDraft    = "draft"
)

// OpenCall is one entry in the ordered open-calls list. List position is the
// only ordering signal; titles are not unique beyond best-effort term lookup.
type OpenCall struct {
	TermID       uint   `json:"term_id"`
	Title        string `json:"title" validate:"required"`
	DashboardTag string `json:"dashboard_tag"`
	CallType     string `json:"call_type" validate:"omitempty,oneof=visual_arts text_based"`
	FormID       string `json:"form_id"`
	Description  string `json:"description"`
	StartDate    string `json:"start_date" validate:"omitempty,datetime=2006-01-02"`
	EndDate      string `json:"end_date" validate:"omitempty,datetime=2006-01-02"`
	Status       string `json:"status" validate:"omitempty,oneof=active inactive draft"`
}

// OpenCallSettings is the open-calls bag payload.
type OpenCallSettings struct {
	Calls []OpenCall `json:"calls"`
}

// OpenCallService manages the open-calls bag and its taxonomy links.
// Term backfill happens only on the write path and the explicit repair
// operation, never as a side effect of reading.
type OpenCallService struct {
	db       *gorm.DB
	settings *SettingsService
	audit    *AuditService
}

// NewOpenCallService constructs an OpenCallService.
func NewOpenCallService(db *gorm.DB, settings *SettingsService, audit *AuditService) (*OpenCallService, error) {
	if db == nil {
		return nil, errors.New("open call service: db is required")
	}
	if settings == nil {
		return nil, errors.New("open call service: settings service is required")
	}
	return &OpenCallService{db: db, settings: settings, audit: audit}, nil
}

// List returns the stored open calls with enum fallbacks applied. The
// persisted bag is not modified.
func (s *OpenCallService) List(ctx context.Context) ([]OpenCall, error) {
	ctx = ensureContext(ctx)

	var bag OpenCallSettings
	if err := s.settings.loadBag(ctx, SettingsKeyOpenCalls, &bag); err != nil {
		return nil, err
	}

	calls := bag.Calls
	for i := range calls {
		calls[i] = normaliseCall(calls[i])
	}
	return calls, nil
}

// Save validates, backfills term links, and persists the full ordered list.
func (s *OpenCallService) Save(ctx context.Context, calls []OpenCall) ([]OpenCall, error) {
	ctx = ensureContext(ctx)

	for i := range calls {
		calls[i] = normaliseCall(calls[i])
		if err := validator.ValidateStruct(calls[i]); err != nil {
			return nil, fmt.Errorf("open call %d: %w", i+1, err)
		}
	}

	if _, err := s.backfillTerms(ctx, calls, true); err != nil {
		return nil, err
	}

	if err := s.settings.saveBag(ctx, SettingsKeyOpenCalls, OpenCallSettings{Calls: calls}); err != nil {
		return nil, err
	}

	return calls, nil
}

// RepairTerms assigns term ids to stored calls that are missing one, matching
// existing terms by title and creating terms for titles with no match. It
// returns the number of calls repaired.
func (s *OpenCallService) RepairTerms(ctx context.Context) (int, error) {
	ctx = ensureContext(ctx)

	var bag OpenCallSettings
	if err := s.settings.loadBag(ctx, SettingsKeyOpenCalls, &bag); err != nil {
		return 0, err
	}

	repaired, err := s.backfillTerms(ctx, bag.Calls, true)
	if err != nil {
		return 0, err
	}
	if repaired == 0 {
		return 0, nil
	}

	if err := s.settings.saveBag(ctx, SettingsKeyOpenCalls, bag); err != nil {
		return 0, err
	}
	return repaired, nil
}

// backfillTerms fills empty TermID fields in place. When createMissing is set,
// titles without a matching term get a new term row.
func (s *OpenCallService) backfillTerms(ctx context.Context, calls []OpenCall, createMissing bool) (int, error) {
	var repaired int
	for i := range calls {
		if calls[i].TermID != 0 || strings.TrimSpace(calls[i].Title) == "" {
			continue
		}

		var term models.Term
		err := s.db.WithContext(ctx).Take(&term, "name = ?", calls[i].Title).Error
		switch {
		case err == nil:
			calls[i].TermID = term.ID
			repaired++
		case errors.Is(err, gorm.ErrRecordNotFound):
			if !createMissing {
				continue
			}
			term = models.Term{Name: calls[i].Title, Slug: slugify(calls[i].Title)}
			if err := s.db.WithContext(ctx).Create(&term).Error; err != nil {
				return repaired, fmt.Errorf("open call service: create term %q: %w", calls[i].Title, err)
			}
			calls[i].TermID = term.ID
			repaired++
		default:
			return repaired, fmt.Errorf("open call service: lookup term %q: %w", calls[i].Title, err)
		}
	}
	return repaired, nil
}

func normaliseCall(call OpenCall) OpenCall {
	call.Title = strings.TrimSpace(call.Title)
	if call.CallType == "" {
		call.CallType = CallTypeVisualArts
	}
	if call.Status == "" {
		call.Status = CallStatusDraft
	}
	return call
}

func slugify(value string) string {
	var b strings.Builder
	lastDash := true
	for _, r := range strings.ToLower(strings.TrimSpace(value)) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastDash = false
		default:
			if !lastDash {
				b.WriteByte('-')
				lastDash = true
			}
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}
