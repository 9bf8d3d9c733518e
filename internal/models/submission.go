package models

import "time"

// Submission statuses move through a simple review workflow.
const (
	SubmissionStatusNew       = "new"
	SubmissionStatusReviewed  = "reviewed"
	SubmissionStatusShortlist = "shortlisted"
	SubmissionStatusSelected  = "selected"
	SubmissionStatusRejected  = "rejected"
)

// Submission is one artist entry to an open call. It is the join target for
// audit rows; audit rendering must tolerate the row being deleted later.
type Submission struct {
	ID          uint   `gorm:"primaryKey" json:"id"`
	Title       string `gorm:"not null" json:"title"`
	ArtistName  string `json:"artist_name"`
	ArtistEmail string `gorm:"index" json:"artist_email"`
	FormID      string `gorm:"index" json:"form_id"`
	CallTermID  uint   `gorm:"index" json:"call_term_id"`
	Status      string `gorm:"default:new" json:"status"`

	// ReplyToken correlates plus-addressed email replies back to this row.
	ReplyToken string `gorm:"index" json:"-"`

	CreatedAt time.Time `gorm:"index" json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
