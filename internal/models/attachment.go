package models

import "time"

// Attachment conversion states.
const (
	FileStatusPending    = "pending"
	FileStatusProcessing = "processing"
	FileStatusConverted  = "converted"
	FileStatusFailed     = "failed"
)

// Attachment is an uploaded submission file stored in S3, plus the state of
// its media conversion job.
type Attachment struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	SubmissionID uint      `gorm:"index;not null" json:"submission_id"`
	Filename     string    `gorm:"not null" json:"filename"`
	S3Key        string    `gorm:"uniqueIndex;not null" json:"s3_key"`
	ContentType  string    `json:"content_type"`
	SizeBytes    int64     `json:"size_bytes"`
	Status       string    `gorm:"default:pending;index" json:"status"`
	ConvertedKey string    `json:"converted_key"`
	LastError    string    `json:"last_error"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}
