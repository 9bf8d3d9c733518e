package services

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"
	"unicode"

	"github.com/opencallhq/opencall/internal/models"
)

// detailWordCap bounds how many words of a detail value are shown.
const detailWordCap = 10

// actionLabels maps the known action types to their display labels. Unknown
// tags fall back to a humanised form of the raw value so new producers render
// without a code change here.
var actionLabels = map[string]string{
	models.ActionEmailSent:           "Email Sent",
	models.ActionStatusChange:        "Status Change",
	models.ActionFormSubmission:      "Form Submission",
	models.ActionFileUpload:          "File Upload",
	models.ActionCreated:             "Action Created",
	models.ActionCompleted:           "Action Completed",
	models.ActionConversationCleared: "Conversation Cleared",
	models.ActionSettingChanged:      "Setting Changed",
}

// AuditDetail is one humanised key/value pair from a log entry's payload.
type AuditDetail struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

// AuditDisplayRecord is the presentation form of one audit log row.
type AuditDisplayRecord struct {
	ID              uint          `json:"id"`
	ActionType      string        `json:"action_type"`
	ActionLabel     string        `json:"action_label"`
	SubmissionID    uint          `json:"submission_id"`
	SubmissionLabel string        `json:"submission_label"`
	SubmissionLink  bool          `json:"submission_link"`
	ArtistName      string        `json:"artist_name"`
	ArtistEmail     string        `json:"artist_email"`
	UserName        string        `json:"user_name"`
	Details         []AuditDetail `json:"details,omitempty"`
	RawDetails      string        `json:"raw_details,omitempty"`
	CreatedAt       time.Time     `json:"date_created"`
}

// RenderAuditLog maps one log row to its display record. Every fallback path
// degrades instead of failing: unknown action types humanise, deleted
// submissions annotate, malformed payloads render as opaque text.
func RenderAuditLog(log models.AuditLog) AuditDisplayRecord {
	record := AuditDisplayRecord{
		ID:           log.ID,
		ActionType:   log.ActionType,
		ActionLabel:  ActionLabel(log.ActionType),
		SubmissionID: log.SubmissionID,
		CreatedAt:    log.CreatedAt,
	}

	switch {
	case log.SubmissionID == 0:
		record.SubmissionLabel = "System Action"
	case log.Submission != nil && log.Submission.Title != "":
		record.SubmissionLabel = log.Submission.Title
		record.SubmissionLink = true
	default:
		record.SubmissionLabel = fmt.Sprintf("#%d (Deleted)", log.SubmissionID)
	}

	record.ArtistName = log.ArtistName
	record.ArtistEmail = log.ArtistEmail
	if record.ArtistName == "" && log.Submission != nil {
		record.ArtistName = log.Submission.ArtistName
	}
	if record.ArtistEmail == "" && log.Submission != nil {
		record.ArtistEmail = log.Submission.ArtistEmail
	}

	if log.User != nil {
		record.UserName = log.User.DisplayName
		if record.UserName == "" {
			record.UserName = log.User.Username
		}
	}

	record.Details, record.RawDetails = renderDetails(log.Data)
	return record
}

// ActionLabel resolves the display label for an action type, humanising
// unrecognised tags.
func ActionLabel(actionType string) string {
	if label, ok := actionLabels[actionType]; ok {
		return label
	}
	return Humanize(actionType)
}

// Humanize converts a raw tag such as "custom_tag_x" into "Custom Tag X".
func Humanize(tag string) string {
	replaced := strings.Map(func(r rune) rune {
		switch r {
		case '_', '-', '.':
			return ' '
		default:
			return r
		}
	}, tag)

	words := strings.Fields(replaced)
	for i, word := range words {
		runes := []rune(word)
		runes[0] = unicode.ToUpper(runes[0])
		words[i] = string(runes)
	}
	return strings.Join(words, " ")
}

// renderDetails parses the stored payload. Objects become humanised key/value
// pairs for string and numeric values; anything else, including malformed
// JSON, is surfaced verbatim.
func renderDetails(raw []byte) ([]AuditDetail, string) {
	trimmed := strings.TrimSpace(string(raw))
	if trimmed == "" || trimmed == "null" {
		return nil, ""
	}

	var payload map[string]any
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, trimmed
	}

	keys := make([]string, 0, len(payload))
	for key := range payload {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	details := make([]AuditDetail, 0, len(payload))
	for _, key := range keys {
		value, ok := detailValue(payload[key])
		if !ok {
			continue
		}
		details = append(details, AuditDetail{
			Label: Humanize(key),
			Value: trimWords(value, detailWordCap),
		})
	}

	if len(details) == 0 {
		return nil, trimmed
	}
	return details, ""
}

func detailValue(value any) (string, bool) {
	switch v := value.(type) {
	case string:
		return v, true
	case json.Number:
		return v.String(), true
	case float64:
		encoded, err := json.Marshal(v)
		if err != nil {
			return "", false
		}
		return string(encoded), true
	default:
		return "", false
	}
}

func trimWords(value string, limit int) string {
	words := strings.Fields(value)
	if len(words) <= limit {
		return strings.Join(words, " ")
	}
	return strings.Join(words[:limit], " ") + "…"
}
