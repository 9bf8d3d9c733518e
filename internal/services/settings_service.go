package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/opencallhq/opencall/internal/models"
	"github.com/opencallhq/opencall/pkg/crypto"
	"github.com/opencallhq/opencall/pkg/validator"
)

// Settings bag keys. Each bag is persisted as one JSON blob.
const (
	SettingsKeyGeneral   = "general"
	SettingsKeyEmail     = "email"
	SettingsKeyIMAP      = "imap"
	SettingsKeyTemplates = "templates"
	SettingsKeyOpenCalls = "open_calls"
)

// encPrefix marks values encrypted at rest.
const encPrefix = "enc:"

// settingsKDFSalt is the fixed application salt used when the configured
// encryption key is a passphrase rather than a raw 16/24/32-byte key.
var settingsKDFSalt = []byte("opencall.settings.kdf.v1")

// GeneralSettings bundles site-wide options including the AWS integration.
type GeneralSettings struct {
	SiteTitle          string `json:"site_title"`
	AWSAccessKey       string `json:"aws_access_key"`
	AWSSecretKey       string `json:"aws_secret_key"`
	AWSRegion          string `json:"aws_region"`
	S3Bucket           string `json:"s3_bucket"`
	S3Endpoint         string `json:"s3_endpoint"`
	ConverterLambda    string `json:"converter_lambda"`
	PDFLambda          string `json:"pdf_lambda"`
	MediaConvertRole   string `json:"mediaconvert_role"`
	EnableConversion   bool   `json:"enable_conversion"`
	AuditRetentionDays int    `json:"audit_retention_days" validate:"min=0,max=3650"`
}

// DefaultGeneralSettings returns the documented defaults for a fresh bag.
func DefaultGeneralSettings() GeneralSettings {
	return GeneralSettings{
		AWSRegion:          "us-east-1",
		EnableConversion:   true,
		AuditRetentionDays: 90,
	}
}

// EmailSettings configures outbound SMTP delivery.
type EmailSettings struct {
	FromName       string `json:"from_name"`
	FromEmail      string `json:"from_email" validate:"omitempty,email"`
	SMTPHost       string `json:"smtp_host"`
	SMTPPort       int    `json:"smtp_port" validate:"min=0,max=65535"`
	SMTPUsername   string `json:"smtp_username"`
	SMTPPassword   string `json:"smtp_password"`
	SMTPEncryption string `json:"smtp_encryption" validate:"omitempty,oneof=tls ssl none"`
	PlusAddressing bool   `json:"plus_addressing"`
}

// DefaultEmailSettings returns the documented defaults for a fresh bag.
func DefaultEmailSettings() EmailSettings {
	return EmailSettings{
		SMTPPort:       587,
		SMTPEncryption: "tls",
		PlusAddressing: true,
	}
}

// IMAPSettings configures the inbound reply mailbox.
type IMAPSettings struct {
	Server           string `json:"server"`
	Port             int    `json:"port" validate:"min=0,max=65535"`
	Username         string `json:"username"`
	Password         string `json:"password"`
	Encryption       string `json:"encryption" validate:"omitempty,oneof=ssl tls none"`
	DeleteProcessed  bool   `json:"delete_processed"`
	CheckIntervalMin int    `json:"check_interval_minutes" validate:"min=0"`
}

// DefaultIMAPSettings returns the documented defaults for a fresh bag:
// port 993, SSL encryption, processed-message deletion enabled.
func DefaultIMAPSettings() IMAPSettings {
	return IMAPSettings{
		Port:             993,
		Encryption:       "ssl",
		DeleteProcessed:  true,
		CheckIntervalMin: 60,
	}
}

// EmailTemplate is one configurable notification template. Bodies may carry
// {artist_name}, {submission_title}, {status} and {call_title} placeholders.
type EmailTemplate struct {
	Enabled bool   `json:"enabled"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

// DailySummarySettings controls the scheduled activity digest.
type DailySummarySettings struct {
	Enabled   bool   `json:"enabled"`
	Recipient string `json:"recipient" validate:"omitempty,email"`
	SendAt    string `json:"send_at" validate:"omitempty,hhmm"`
}

// TemplateSettings is the email templates bag.
type TemplateSettings struct {
	Templates    map[string]EmailTemplate `json:"templates"`
	DailySummary DailySummarySettings     `json:"daily_summary"`
}

// Template trigger names with built-in defaults.
const (
	TemplateSubmissionReceived = "submission_received"
	TemplateStatusChanged      = "status_changed"
	TemplateCustomNotice       = "custom_notice"
)

// DefaultTemplateSettings returns the built-in templates for a fresh bag.
func DefaultTemplateSettings() TemplateSettings {
	return TemplateSettings{
		Templates: map[string]EmailTemplate{
			TemplateSubmissionReceived: {
				Enabled: true,
				Subject: "We received your submission to {call_title}",
				Body:    "Dear {artist_name},\n\nThank you for submitting \"{submission_title}\". We will be in touch.\n",
			},
			TemplateStatusChanged: {
				Enabled: true,
				Subject: "Your submission status changed",
				Body:    "Dear {artist_name},\n\nthe status of \"{submission_title}\" is now {status}.\n",
			},
			TemplateCustomNotice: {
				Enabled: false,
				Subject: "",
				Body:    "",
			},
		},
		DailySummary: DailySummarySettings{
			Enabled: false,
			SendAt:  "08:00",
		},
	}
}

// SettingsService reads and writes option bags. Reads tolerate missing keys
// by unmarshalling over the documented defaults; writes replace the whole bag
// and record a setting_changed audit entry.
type SettingsService struct {
	db        *gorm.DB
	audit     *AuditService
	cipherKey []byte
}

// SettingsOption customises SettingsService behaviour.
type SettingsOption func(*SettingsService) error

// WithEncryptionKey enables at-rest encryption for secret fields (AWS secret
// key, SMTP and IMAP passwords). Keys of 16, 24 or 32 bytes are used as-is;
// anything else is treated as a passphrase and stretched with Argon2id.
func WithEncryptionKey(key string) SettingsOption {
	return func(svc *SettingsService) error {
		key = strings.TrimSpace(key)
		if key == "" {
			return nil
		}
		resolved, err := crypto.ResolveKey(key, settingsKDFSalt)
		if err != nil {
			return fmt.Errorf("settings service: derive key: %w", err)
		}
		svc.cipherKey = resolved
		return nil
	}
}

// NewSettingsService constructs a SettingsService.
func NewSettingsService(db *gorm.DB, audit *AuditService, opts ...SettingsOption) (*SettingsService, error) {
	if db == nil {
		return nil, errors.New("settings service: db is required")
	}
	svc := &SettingsService{db: db, audit: audit}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt(svc); err != nil {
			return nil, err
		}
	}
	return svc, nil
}

// General returns the general/AWS bag with defaults applied.
func (s *SettingsService) General(ctx context.Context) (GeneralSettings, error) {
	out := DefaultGeneralSettings()
	if err := s.loadBag(ctx, SettingsKeyGeneral, &out); err != nil {
		return GeneralSettings{}, err
	}
	var err error
	if out.AWSSecretKey, err = s.reveal(out.AWSSecretKey); err != nil {
		return GeneralSettings{}, err
	}
	return out, nil
}

// SaveGeneral validates and persists the general/AWS bag.
func (s *SettingsService) SaveGeneral(ctx context.Context, in GeneralSettings) error {
	if err := validator.ValidateStruct(in); err != nil {
		return err
	}
	stored := in
	var err error
	if stored.AWSSecretKey, err = s.conceal(stored.AWSSecretKey); err != nil {
		return err
	}
	return s.saveBag(ctx, SettingsKeyGeneral, stored)
}

// Email returns the outbound email bag with defaults applied.
func (s *SettingsService) Email(ctx context.Context) (EmailSettings, error) {
	out := DefaultEmailSettings()
	if err := s.loadBag(ctx, SettingsKeyEmail, &out); err != nil {
		return EmailSettings{}, err
	}
	if out.SMTPEncryption == "" {
		out.SMTPEncryption = "tls"
	}
	var err error
	if out.SMTPPassword, err = s.reveal(out.SMTPPassword); err != nil {
		return EmailSettings{}, err
	}
	return out, nil
}

// SaveEmail validates and persists the outbound email bag.
func (s *SettingsService) SaveEmail(ctx context.Context, in EmailSettings) error {
	if err := validator.ValidateStruct(in); err != nil {
		return err
	}
	stored := in
	var err error
	if stored.SMTPPassword, err = s.conceal(stored.SMTPPassword); err != nil {
		return err
	}
	return s.saveBag(ctx, SettingsKeyEmail, stored)
}

// IMAP returns the inbound mailbox bag with defaults applied.
func (s *SettingsService) IMAP(ctx context.Context) (IMAPSettings, error) {
	out := DefaultIMAPSettings()
	if err := s.loadBag(ctx, SettingsKeyIMAP, &out); err != nil {
		return IMAPSettings{}, err
	}
	if out.Port == 0 {
		out.Port = 993
	}
	if out.Encryption == "" {
		out.Encryption = "ssl"
	}
	var err error
	if out.Password, err = s.reveal(out.Password); err != nil {
		return IMAPSettings{}, err
	}
	return out, nil
}

// SaveIMAP validates and persists the inbound mailbox bag.
func (s *SettingsService) SaveIMAP(ctx context.Context, in IMAPSettings) error {
	if err := validator.ValidateStruct(in); err != nil {
		return err
	}
	stored := in
	var err error
	if stored.Password, err = s.conceal(stored.Password); err != nil {
		return err
	}
	return s.saveBag(ctx, SettingsKeyIMAP, stored)
}

// Templates returns the email templates bag with built-in defaults for any
// template the stored bag does not carry.
func (s *SettingsService) Templates(ctx context.Context) (TemplateSettings, error) {
	out := DefaultTemplateSettings()
	if err := s.loadBag(ctx, SettingsKeyTemplates, &out); err != nil {
		return TemplateSettings{}, err
	}
	defaults := DefaultTemplateSettings()
	if out.Templates == nil {
		out.Templates = defaults.Templates
	} else {
		for name, tpl := range defaults.Templates {
			if _, ok := out.Templates[name]; !ok {
				out.Templates[name] = tpl
			}
		}
	}
	if out.DailySummary.SendAt == "" {
		out.DailySummary.SendAt = defaults.DailySummary.SendAt
	}
	return out, nil
}

// SaveTemplates validates and persists the email templates bag.
func (s *SettingsService) SaveTemplates(ctx context.Context, in TemplateSettings) error {
	if err := validator.ValidateStruct(in.DailySummary); err != nil {
		return err
	}
	return s.saveBag(ctx, SettingsKeyTemplates, in)
}

// loadBag unmarshals the stored blob over the defaults-prefilled target. A
// missing row leaves the defaults untouched.
func (s *SettingsService) loadBag(ctx context.Context, key string, out any) error {
	ctx = ensureContext(ctx)

	var row models.Setting
	err := s.db.WithContext(ctx).Take(&row, "key = ?", key).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("settings service: load %q: %w", key, err)
	}

	if len(row.Value) == 0 {
		return nil
	}
	if err := json.Unmarshal(row.Value, out); err != nil {
		return fmt.Errorf("settings service: decode %q: %w", key, err)
	}
	return nil
}

// saveBag replaces the stored blob wholesale and records an audit entry.
func (s *SettingsService) saveBag(ctx context.Context, key string, in any) error {
	ctx = ensureContext(ctx)

	encoded, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("settings service: encode %q: %w", key, err)
	}

	row := models.Setting{Key: key, Value: encoded}
	if err := s.db.WithContext(ctx).
		Where("key = ?", key).
		Assign(map[string]any{"value": encoded}).
		FirstOrCreate(&row).Error; err != nil {
		return fmt.Errorf("settings service: save %q: %w", key, err)
	}

	recordAudit(ctx, s.audit, AuditEntry{
		ActionType: models.ActionSettingChanged,
		Data:       map[string]any{"option": key},
	})
	return nil
}

func (s *SettingsService) conceal(value string) (string, error) {
	if value == "" || s.cipherKey == nil || strings.HasPrefix(value, encPrefix) {
		return value, nil
	}
	encrypted, err := crypto.Encrypt([]byte(value), s.cipherKey)
	if err != nil {
		return "", fmt.Errorf("settings service: encrypt secret: %w", err)
	}
	return encPrefix + encrypted, nil
}

func (s *SettingsService) reveal(value string) (string, error) {
	if !strings.HasPrefix(value, encPrefix) {
		return value, nil
	}
	if s.cipherKey == nil {
		return "", errors.New("settings service: encrypted value but no encryption key configured")
	}
	decrypted, err := crypto.Decrypt(strings.TrimPrefix(value, encPrefix), s.cipherKey)
	if err != nil {
		return "", fmt.Errorf("settings service: decrypt secret: %w", err)
	}
	return string(decrypted), nil
}
