package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/opencallhq/opencall/internal/models"
)

// ConvertRequest is the payload handed to the converter function for one file.
type ConvertRequest struct {
	Bucket    string `json:"bucket"`
	SourceKey string `json:"source_key"`
	MimeType  string `json:"mime_type"`
}

// FunctionInvoker abstracts the serverless function client so the file
// pipeline can be exercised without AWS.
type FunctionInvoker interface {
	Invoke(ctx context.Context, functionName string, payload []byte) error
}

// ProcessResult summarises a bulk file-processing run.
type ProcessResult struct {
	Processed int `json:"processed"`
	Failed    int `json:"failed"`
}

// ConversionStatus reports attachment states and queue depth.
type ConversionStatus struct {
	Files map[string]int64 `json:"files"`
	Jobs  map[string]int64 `json:"jobs"`
}

// FileService manages submission attachments and their conversion queue.
type FileService struct {
	db       *gorm.DB
	settings *SettingsService
	audit    *AuditService
	invoker  FunctionInvoker
}

// NewFileService constructs a FileService. The invoker may be nil, in which
// case processing requests fail with a configuration error.
func NewFileService(db *gorm.DB, settings *SettingsService, audit *AuditService, invoker FunctionInvoker) (*FileService, error) {
	if db == nil {
		return nil, errors.New("file service: db is required")
	}
	if settings == nil {
		return nil, errors.New("file service: settings service is required")
	}
	return &FileService{db: db, settings: settings, audit: audit, invoker: invoker}, nil
}

// ProcessExisting queues conversion for every attachment that has no
// converted output yet and invokes the converter function for each. Files the
// invoker rejects are marked failed and counted separately.
func (s *FileService) ProcessExisting(ctx context.Context) (ProcessResult, error) {
	ctx = ensureContext(ctx)

	general, err := s.settings.General(ctx)
	if err != nil {
		return ProcessResult{}, err
	}
	if s.invoker == nil || general.ConverterLambda == "" {
		return ProcessResult{}, errors.New("file service: converter function is not configured")
	}

	var pending []models.Attachment
	if err := s.db.WithContext(ctx).
		Where("status IN ?", []string{models.FileStatusPending, models.FileStatusFailed}).
		Find(&pending).Error; err != nil {
		return ProcessResult{}, fmt.Errorf("file service: load pending attachments: %w", err)
	}

	var result ProcessResult
	for _, attachment := range pending {
		payload, err := json.Marshal(ConvertRequest{
			Bucket:    general.S3Bucket,
			SourceKey: attachment.S3Key,
			MimeType:  attachment.ContentType,
		})
		if err != nil {
			return result, fmt.Errorf("file service: encode request: %w", err)
		}

		job := models.ConversionJob{AttachmentID: attachment.ID}
		if invokeErr := s.invoker.Invoke(ctx, general.ConverterLambda, payload); invokeErr != nil {
			result.Failed++
			job.Status = models.JobStatusFailed
			job.LastError = invokeErr.Error()
			s.updateAttachment(ctx, attachment.ID, map[string]any{
				"status":     models.FileStatusFailed,
				"last_error": invokeErr.Error(),
			})
		} else {
			result.Processed++
			job.Status = models.JobStatusPending
			s.updateAttachment(ctx, attachment.ID, map[string]any{
				"status":     models.FileStatusProcessing,
				"last_error": "",
			})
		}

		if err := s.db.WithContext(ctx).Create(&job).Error; err != nil {
			return result, fmt.Errorf("file service: record job: %w", err)
		}
	}

	recordAudit(ctx, s.audit, AuditEntry{
		ActionType: models.ActionFileUpload,
		Data: map[string]any{
			"operation": "process_existing",
			"processed": result.Processed,
			"failed":    result.Failed,
		},
	})

	return result, nil
}

// Status reports per-state attachment counts and conversion queue depth.
func (s *FileService) Status(ctx context.Context) (ConversionStatus, error) {
	ctx = ensureContext(ctx)

	status := ConversionStatus{
		Files: map[string]int64{},
		Jobs:  map[string]int64{},
	}

	fileStates := []string{
		models.FileStatusPending,
		models.FileStatusProcessing,
		models.FileStatusConverted,
		models.FileStatusFailed,
	}
	for _, state := range fileStates {
		var count int64
		if err := s.db.WithContext(ctx).Model(&models.Attachment{}).
			Where("status = ?", state).Count(&count).Error; err != nil {
			return ConversionStatus{}, fmt.Errorf("file service: count %s files: %w", state, err)
		}
		status.Files[state] = count
	}

	jobStates := []string{models.JobStatusPending, models.JobStatusDone, models.JobStatusFailed}
	for _, state := range jobStates {
		var count int64
		if err := s.db.WithContext(ctx).Model(&models.ConversionJob{}).
			Where("status = ?", state).Count(&count).Error; err != nil {
			return ConversionStatus{}, fmt.Errorf("file service: count %s jobs: %w", state, err)
		}
		status.Jobs[state] = count
	}

	return status, nil
}

// ResetFailed returns failed attachments to the pending state so a later
// processing run picks them up again.
func (s *FileService) ResetFailed(ctx context.Context) (int64, error) {
	ctx = ensureContext(ctx)

	result := s.db.WithContext(ctx).Model(&models.Attachment{}).
		Where("status = ?", models.FileStatusFailed).
		Updates(map[string]any{
			"status":     models.FileStatusPending,
			"last_error": "",
		})
	if result.Error != nil {
		return 0, fmt.Errorf("file service: reset failed attachments: %w", result.Error)
	}

	recordAudit(ctx, s.audit, AuditEntry{
		ActionType: models.ActionFileUpload,
		Data: map[string]any{
			"operation":   "reset_file_status",
			"reset_count": result.RowsAffected,
		},
	})

	return result.RowsAffected, nil
}

// ClearPendingJobs removes queued conversion jobs without touching files.
func (s *FileService) ClearPendingJobs(ctx context.Context) (int64, error) {
	return s.clearJobs(ctx, models.JobStatusPending)
}

// ClearFailedJobs removes failed conversion jobs without touching files.
func (s *FileService) ClearFailedJobs(ctx context.Context) (int64, error) {
	return s.clearJobs(ctx, models.JobStatusFailed)
}

func (s *FileService) clearJobs(ctx context.Context, state string) (int64, error) {
	ctx = ensureContext(ctx)

	result := s.db.WithContext(ctx).
		Where("status = ?", state).
		Delete(&models.ConversionJob{})
	if result.Error != nil {
		return 0, fmt.Errorf("file service: clear %s jobs: %w", state, result.Error)
	}

	recordAudit(ctx, s.audit, AuditEntry{
		ActionType: models.ActionFileUpload,
		Data: map[string]any{
			"operation": "clear_" + state + "_jobs",
			"cleared":   result.RowsAffected,
		},
	})

	return result.RowsAffected, nil
}

func (s *FileService) updateAttachment(ctx context.Context, id uint, changes map[string]any) {
	_ = s.db.WithContext(ctx).Model(&models.Attachment{}).
		Where("id = ?", id).
		Updates(changes).Error
}
