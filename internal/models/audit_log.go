package models

import (
	"time"

	"gorm.io/datatypes"
)

// Known audit action types. The set is closed for filtering purposes, but
// unrecognised values must still render with a humanised fallback label.
const (
	ActionEmailSent           = "email_sent"
	ActionStatusChange        = "status_change"
	ActionFormSubmission      = "form_submission"
	ActionFileUpload          = "file_upload"
	ActionCreated             = "action_created"
	ActionCompleted           = "action_completed"
	ActionConversationCleared = "conversation_cleared"
	ActionSettingChanged      = "setting_changed"
)

// AuditLog records one administrative or system event. Rows are append-only:
// they are never updated, and only removed by retention cleanup.
type AuditLog struct {
	ID           uint           `gorm:"primaryKey" json:"id"`
	ActionType   string         `gorm:"not null;index" json:"action_type"`
	SubmissionID uint           `gorm:"index" json:"submission_id"`
	Submission   *Submission    `gorm:"foreignKey:SubmissionID" json:"submission,omitempty"`
	UserID       *uint          `gorm:"index" json:"user_id"`
	User         *User          `gorm:"foreignKey:UserID" json:"user,omitempty"`
	ArtistName   string         `json:"artist_name"`
	ArtistEmail  string         `json:"artist_email"`
	Data         datatypes.JSON `json:"data"`
	CreatedAt    time.Time      `gorm:"index" json:"date_created"`
}
