package models

import "time"

// Conversion job states.
const (
	JobStatusPending = "pending"
	JobStatusDone    = "done"
	JobStatusFailed  = "failed"
)

// ConversionJob is one queued media-conversion request for an attachment.
// Administrators can clear pending or failed jobs wholesale; the attachment
// row keeps its own conversion status.
type ConversionJob struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	AttachmentID uint      `gorm:"index;not null" json:"attachment_id"`
	Status       string    `gorm:"default:pending;index" json:"status"`
	LastError    string    `json:"last_error"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}
