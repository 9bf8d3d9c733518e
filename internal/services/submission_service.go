package services

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/opencallhq/opencall/internal/models"
	"github.com/opencallhq/opencall/pkg/crypto"
)

// replyTokenBytes sizes generated reply-correlation tokens.
const replyTokenBytes = 18

var validSubmissionStatuses = map[string]struct{}{
	models.SubmissionStatusNew:       {},
	models.SubmissionStatusReviewed:  {},
	models.SubmissionStatusShortlist: {},
	models.SubmissionStatusSelected:  {},
	models.SubmissionStatusRejected:  {},
}

// SubmissionService manages artist submissions and acts as the audit producer
// for status changes.
type SubmissionService struct {
	db    *gorm.DB
	audit *AuditService
	email *EmailService
}

// NewSubmissionService constructs a SubmissionService. The email service may
// be nil; status changes then skip notification delivery.
func NewSubmissionService(db *gorm.DB, audit *AuditService, email *EmailService) (*SubmissionService, error) {
	if db == nil {
		return nil, errors.New("submission service: db is required")
	}
	return &SubmissionService{db: db, audit: audit, email: email}, nil
}

// Get loads a single submission.
func (s *SubmissionService) Get(ctx context.Context, id uint) (*models.Submission, error) {
	ctx = ensureContext(ctx)

	var submission models.Submission
	if err := s.db.WithContext(ctx).Take(&submission, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &submission, nil
}

// UpdateStatus moves a submission through the review workflow, records a
// status_change audit entry, and notifies the artist when the template is
// enabled. Notification failures do not roll back the status change.
func (s *SubmissionService) UpdateStatus(ctx context.Context, id uint, status string) (*models.Submission, error) {
	ctx = ensureContext(ctx)

	if _, ok := validSubmissionStatuses[status]; !ok {
		return nil, fmt.Errorf("submission service: invalid status %q", status)
	}

	submission, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	previous := submission.Status
	if previous == status {
		return submission, nil
	}

	if err := s.db.WithContext(ctx).Model(submission).Update("status", status).Error; err != nil {
		return nil, fmt.Errorf("submission service: update status: %w", err)
	}
	submission.Status = status

	recordAudit(ctx, s.audit, AuditEntry{
		ActionType:   models.ActionStatusChange,
		SubmissionID: submission.ID,
		ArtistName:   submission.ArtistName,
		ArtistEmail:  submission.ArtistEmail,
		Data:         map[string]any{"from": previous, "to": status},
	})

	if s.email != nil && submission.ArtistEmail != "" {
		_ = s.email.SendTemplate(ctx, TemplateStatusChanged, submission.ArtistEmail, map[string]string{
			"artist_name":      submission.ArtistName,
			"submission_title": submission.Title,
			"status":           status,
		}, submission.ID)
	}

	return submission, nil
}

// MigrateReplyTokens generates reply-correlation tokens for submissions that
// predate plus addressing. Returns the number of rows updated.
func (s *SubmissionService) MigrateReplyTokens(ctx context.Context) (int64, error) {
	ctx = ensureContext(ctx)

	var missing []models.Submission
	if err := s.db.WithContext(ctx).
		Where("reply_token = ?", "").
		Find(&missing).Error; err != nil {
		return 0, fmt.Errorf("submission service: find tokenless rows: %w", err)
	}

	var updated int64
	for _, submission := range missing {
		token, err := crypto.GenerateToken(replyTokenBytes)
		if err != nil {
			return updated, fmt.Errorf("submission service: generate token: %w", err)
		}
		if err := s.db.WithContext(ctx).Model(&models.Submission{}).
			Where("id = ?", submission.ID).
			Update("reply_token", token).Error; err != nil {
			return updated, fmt.Errorf("submission service: store token: %w", err)
		}
		updated++
	}
	return updated, nil
}
