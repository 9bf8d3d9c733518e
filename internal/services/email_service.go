package services

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/opencallhq/opencall/internal/models"
	pkgmail "github.com/opencallhq/opencall/pkg/mail"
	"github.com/opencallhq/opencall/pkg/metrics"
)

// MailerFactory builds a mailer for the supplied SMTP settings. Tests inject
// a factory returning a recording fake.
type MailerFactory func(cfg pkgmail.SMTPSettings) (pkgmail.Mailer, error)

// EmailService renders templates and delivers outbound mail using the stored
// email settings bag.
type EmailService struct {
	db       *gorm.DB
	settings *SettingsService
	audit    *AuditService
	factory  MailerFactory
}

// NewEmailService constructs an EmailService. A nil factory falls back to the
// real SMTP mailer.
func NewEmailService(db *gorm.DB, settings *SettingsService, audit *AuditService, factory MailerFactory) (*EmailService, error) {
	if db == nil {
		return nil, errors.New("email service: db is required")
	}
	if settings == nil {
		return nil, errors.New("email service: settings service is required")
	}
	if factory == nil {
		factory = pkgmail.NewSMTPMailer
	}
	return &EmailService{db: db, settings: settings, audit: audit, factory: factory}, nil
}

// Validate checks the stored email settings for completeness, returning one
// message per problem. An empty slice means the configuration is usable.
func (s *EmailService) Validate(ctx context.Context) ([]string, error) {
	cfg, err := s.settings.Email(ctx)
	if err != nil {
		return nil, err
	}

	var problems []string
	if strings.TrimSpace(cfg.SMTPHost) == "" {
		problems = append(problems, "smtp_host is not set")
	}
	if cfg.SMTPPort <= 0 {
		problems = append(problems, "smtp_port must be positive")
	}
	if strings.TrimSpace(cfg.FromEmail) == "" {
		problems = append(problems, "from_email is not set")
	} else if _, err := mail.ParseAddress(cfg.FromEmail); err != nil {
		problems = append(problems, "from_email is not a valid address")
	}
	if cfg.SMTPUsername != "" && cfg.SMTPPassword == "" {
		problems = append(problems, "smtp_password is required when smtp_username is set")
	}
	return problems, nil
}

// SendTest delivers a short test message to the supplied recipient.
func (s *EmailService) SendTest(ctx context.Context, recipient string) error {
	ctx = ensureContext(ctx)

	mailer, from, err := s.mailer(ctx)
	if err != nil {
		return err
	}

	msg := pkgmail.Message{
		From:    from,
		To:      []string{recipient},
		Subject: "SMTP test",
		Body:    "This is a test message confirming the outbound email configuration works.\n",
	}
	if err := mailer.Send(ctx, msg); err != nil {
		return err
	}

	metrics.EmailsSent.WithLabelValues("smtp_test").Inc()
	recordAudit(ctx, s.audit, AuditEntry{
		ActionType: models.ActionEmailSent,
		Data:       map[string]any{"template": "smtp_test", "recipient": recipient},
	})
	return nil
}

// SendTemplate renders the named template with the supplied placeholder
// values and delivers it. Disabled templates are skipped silently.
func (s *EmailService) SendTemplate(ctx context.Context, trigger, recipient string, vars map[string]string, submissionID uint) error {
	ctx = ensureContext(ctx)

	bag, err := s.settings.Templates(ctx)
	if err != nil {
		return err
	}
	tpl, ok := bag.Templates[trigger]
	if !ok {
		return fmt.Errorf("email service: unknown template %q", trigger)
	}
	if !tpl.Enabled {
		return nil
	}

	mailer, from, err := s.mailer(ctx)
	if err != nil {
		return err
	}

	msg := pkgmail.Message{
		From:    from,
		To:      []string{recipient},
		ReplyTo: s.replyAddressFor(ctx, submissionID),
		Subject: RenderTemplate(tpl.Subject, vars),
		Body:    RenderTemplate(tpl.Body, vars),
	}
	if err := mailer.Send(ctx, msg); err != nil {
		return err
	}

	metrics.EmailsSent.WithLabelValues(trigger).Inc()
	recordAudit(ctx, s.audit, AuditEntry{
		ActionType:   models.ActionEmailSent,
		SubmissionID: submissionID,
		ArtistEmail:  recipient,
		Data:         map[string]any{"template": trigger, "recipient": recipient},
	})
	return nil
}

// SummaryStats aggregates the activity window reported by the daily digest.
type SummaryStats struct {
	Since          time.Time `json:"since"`
	NewSubmissions int64     `json:"new_submissions"`
	EmailsSent     int64     `json:"emails_sent"`
	FilesUploaded  int64     `json:"files_uploaded"`
	StatusChanges  int64     `json:"status_changes"`
}

// SendDailySummary delivers the activity digest for the last 24 hours. When
// force is false a disabled digest is a silent no-op; the test endpoint sets
// force to exercise delivery regardless.
func (s *EmailService) SendDailySummary(ctx context.Context, force bool) (*SummaryStats, error) {
	ctx = ensureContext(ctx)

	bag, err := s.settings.Templates(ctx)
	if err != nil {
		return nil, err
	}
	if !bag.DailySummary.Enabled && !force {
		return nil, nil
	}
	if strings.TrimSpace(bag.DailySummary.Recipient) == "" {
		return nil, errors.New("email service: daily summary recipient is not set")
	}

	stats, err := s.collectSummary(ctx)
	if err != nil {
		return nil, err
	}

	mailer, from, err := s.mailer(ctx)
	if err != nil {
		return nil, err
	}

	body := fmt.Sprintf(
		"Activity since %s\n\nNew submissions: %d\nStatus changes: %d\nEmails sent: %d\nFiles uploaded: %d\n",
		stats.Since.Format(time.RFC1123),
		stats.NewSubmissions, stats.StatusChanges, stats.EmailsSent, stats.FilesUploaded,
	)

	msg := pkgmail.Message{
		From:    from,
		To:      []string{bag.DailySummary.Recipient},
		Subject: "Daily submissions summary",
		Body:    body,
	}
	if err := mailer.Send(ctx, msg); err != nil {
		return nil, err
	}

	metrics.EmailsSent.WithLabelValues("daily_summary").Inc()
	recordAudit(ctx, s.audit, AuditEntry{
		ActionType: models.ActionEmailSent,
		Data:       map[string]any{"template": "daily_summary", "recipient": bag.DailySummary.Recipient},
	})
	return stats, nil
}

func (s *EmailService) collectSummary(ctx context.Context) (*SummaryStats, error) {
	since := time.Now().Add(-24 * time.Hour)
	stats := &SummaryStats{Since: since}

	counts := map[string]*int64{
		models.ActionFormSubmission: &stats.NewSubmissions,
		models.ActionEmailSent:      &stats.EmailsSent,
		models.ActionFileUpload:     &stats.FilesUploaded,
		models.ActionStatusChange:   &stats.StatusChanges,
	}
	for action, target := range counts {
		if err := s.db.WithContext(ctx).Model(&models.AuditLog{}).
			Where("action_type = ? AND created_at >= ?", action, since).
			Count(target).Error; err != nil {
			return nil, fmt.Errorf("email service: count %s: %w", action, err)
		}
	}
	return stats, nil
}

// mailer builds a mailer from the stored email bag and returns the effective
// From header.
func (s *EmailService) mailer(ctx context.Context) (pkgmail.Mailer, string, error) {
	cfg, err := s.settings.Email(ctx)
	if err != nil {
		return nil, "", err
	}
	if strings.TrimSpace(cfg.SMTPHost) == "" {
		return nil, "", errors.New("email service: smtp host is not configured")
	}

	from := cfg.FromEmail
	if cfg.FromName != "" {
		from = fmt.Sprintf("%s <%s>", cfg.FromName, cfg.FromEmail)
	}

	mailer, err := s.factory(pkgmail.SMTPSettings{
		Enabled:  true,
		Host:     cfg.SMTPHost,
		Port:     cfg.SMTPPort,
		Username: cfg.SMTPUsername,
		Password: cfg.SMTPPassword,
		From:     from,
		UseTLS:   cfg.SMTPEncryption == "ssl",
		Timeout:  10 * time.Second,
	})
	if err != nil {
		return nil, "", err
	}
	return mailer, from, nil
}

// replyAddressFor returns the plus-addressed reply address for a submission
// when plus addressing is enabled and the row carries a reply token. Any
// failure degrades to no Reply-To header rather than blocking the send.
func (s *EmailService) replyAddressFor(ctx context.Context, submissionID uint) string {
	if submissionID == 0 {
		return ""
	}

	cfg, err := s.settings.Email(ctx)
	if err != nil || !cfg.PlusAddressing || strings.TrimSpace(cfg.FromEmail) == "" {
		return ""
	}

	var submission models.Submission
	if err := s.db.WithContext(ctx).Select("reply_token").
		Take(&submission, "id = ?", submissionID).Error; err != nil {
		return ""
	}
	if submission.ReplyToken == "" {
		return ""
	}

	addr, err := ReplyAddress(cfg.FromEmail, submission.ReplyToken)
	if err != nil {
		return ""
	}
	return addr
}

// RenderTemplate substitutes {placeholder} tokens with their values.
func RenderTemplate(text string, vars map[string]string) string {
	if len(vars) == 0 {
		return text
	}
	pairs := make([]string, 0, len(vars)*2)
	for key, value := range vars {
		pairs = append(pairs, "{"+key+"}", value)
	}
	return strings.NewReplacer(pairs...).Replace(text)
}

// ReplyAddress derives the plus-addressed reply address used to correlate
// inbound mail with a submission, e.g. submissions+tok123@example.org.
func ReplyAddress(base, token string) (string, error) {
	addr, err := mail.ParseAddress(base)
	if err != nil {
		return "", fmt.Errorf("email service: parse base address: %w", err)
	}
	at := strings.LastIndex(addr.Address, "@")
	if at <= 0 {
		return "", fmt.Errorf("email service: malformed address %q", addr.Address)
	}
	return addr.Address[:at] + "+" + token + addr.Address[at:], nil
}
