package handlers

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/opencallhq/opencall/internal/cloud"
	"github.com/opencallhq/opencall/internal/database"
	"github.com/opencallhq/opencall/internal/mailbox"
	"github.com/opencallhq/opencall/internal/models"
	"github.com/opencallhq/opencall/internal/services"
	"github.com/opencallhq/opencall/pkg/errors"
	"github.com/opencallhq/opencall/pkg/metrics"
	"github.com/opencallhq/opencall/pkg/response"
)

// Client slices used by the diagnostics endpoints. The real AWS and IMAP
// clients satisfy them; tests plug in fakes.
type storageClient interface {
	TestConnection(ctx context.Context) error
	ScanOrphans(ctx context.Context, known map[string]struct{}) (cloud.ScanResult, error)
	DeleteKeys(ctx context.Context, keys []string) (int, error)
}

type functionClient interface {
	TestFunction(ctx context.Context, functionName string) error
}

type transcodeClient interface {
	TestConnection(ctx context.Context) (string, error)
}

type mailboxClient interface {
	TestConnection(ctx context.Context, cfg services.IMAPSettings) (mailbox.Status, error)
	Cleanup(ctx context.Context, cfg services.IMAPSettings) (int, error)
}

// CronController restarts the background schedule after settings changes and
// reports the active entries.
type CronController interface {
	Reschedule(ctx context.Context) ([]string, error)
}

// DiagnosticsHandler serves the connectivity tests and one-shot maintenance
// operations behind the settings screens. Cloud clients are constructed per
// request from the stored general bag so saved credentials are exercised
// exactly as the background pipeline would use them.
type DiagnosticsHandler struct {
	db          *gorm.DB
	settings    *services.SettingsService
	email       *services.EmailService
	submissions *services.SubmissionService
	cron        CronController

	newStorage   func(ctx context.Context, cfg cloud.Config, bucket string) (storageClient, error)
	newFunctions func(ctx context.Context, cfg cloud.Config) (functionClient, error)
	newTranscode func(ctx context.Context, cfg cloud.Config) (transcodeClient, error)
	mailbox      mailboxClient
}

func NewDiagnosticsHandler(
	db *gorm.DB,
	settings *services.SettingsService,
	email *services.EmailService,
	submissions *services.SubmissionService,
	cron CronController,
) (*DiagnosticsHandler, error) {
	if db == nil {
		return nil, errors.New("handlers.diagnostics_nil", "database handle must be provided", http.StatusInternalServerError)
	}
	if settings == nil {
		return nil, errors.New("handlers.diagnostics_nil", "settings service must be provided", http.StatusInternalServerError)
	}

	return &DiagnosticsHandler{
		db:          db,
		settings:    settings,
		email:       email,
		submissions: submissions,
		cron:        cron,
		newStorage: func(ctx context.Context, cfg cloud.Config, bucket string) (storageClient, error) {
			return cloud.NewS3Client(ctx, cfg, bucket)
		},
		newFunctions: func(ctx context.Context, cfg cloud.Config) (functionClient, error) {
			return cloud.NewLambdaClient(ctx, cfg)
		},
		newTranscode: func(ctx context.Context, cfg cloud.Config) (transcodeClient, error) {
			return cloud.NewMediaConvertClient(ctx, cfg)
		},
		mailbox: mailbox.New(),
	}, nil
}

func recordDiagnostic(operation string, err error) {
	result := "success"
	if err != nil {
		result = "failure"
	}
	metrics.DiagnosticRuns.WithLabelValues(operation, result).Inc()
}

func (h *DiagnosticsHandler) cloudConfig(ctx context.Context) (cloud.Config, services.GeneralSettings, error) {
	general, err := h.settings.General(ctx)
	if err != nil {
		return cloud.Config{}, services.GeneralSettings{}, err
	}
	return cloud.Config{
		AccessKey: general.AWSAccessKey,
		SecretKey: general.AWSSecretKey,
		Region:    general.AWSRegion,
		Endpoint:  general.S3Endpoint,
	}, general, nil
}

func (h *DiagnosticsHandler) storage(ctx context.Context) (storageClient, services.GeneralSettings, error) {
	cfg, general, err := h.cloudConfig(ctx)
	if err != nil {
		return nil, general, err
	}
	if strings.TrimSpace(general.S3Bucket) == "" {
		return nil, general, errors.ErrStorageNotConfigured
	}
	client, err := h.newStorage(ctx, cfg, general.S3Bucket)
	return client, general, err
}

// POST /api/diagnostics/s3/test
func (h *DiagnosticsHandler) S3Test(c *gin.Context) {
	ctx := requestContext(c)

	client, general, err := h.storage(ctx)
	if err == nil {
		err = client.TestConnection(ctx)
	}
	recordDiagnostic("s3_test", err)
	if err != nil {
		response.Error(c, errors.FromError(err))
		return
	}

	response.Success(c, http.StatusOK, gin.H{
		"bucket": general.S3Bucket,
		"region": general.AWSRegion,
	})
}

// knownObjectKeys collects every S3 key the attachment table references.
func (h *DiagnosticsHandler) knownObjectKeys(ctx context.Context) (map[string]struct{}, error) {
	var attachments []models.Attachment
	if err := h.db.WithContext(ctx).
		Select("s3_key", "converted_key").
		Find(&attachments).Error; err != nil {
		return nil, err
	}

	known := make(map[string]struct{}, len(attachments)*2)
	for _, a := range attachments {
		if a.S3Key != "" {
			known[a.S3Key] = struct{}{}
		}
		if a.ConvertedKey != "" {
			known[a.ConvertedKey] = struct{}{}
		}
	}
	return known, nil
}

// POST /api/diagnostics/s3/scan
func (h *DiagnosticsHandler) S3Scan(c *gin.Context) {
	ctx := requestContext(c)

	client, _, err := h.storage(ctx)
	var result cloud.ScanResult
	if err == nil {
		var known map[string]struct{}
		if known, err = h.knownObjectKeys(ctx); err == nil {
			result, err = client.ScanOrphans(ctx, known)
		}
	}
	recordDiagnostic("s3_scan", err)
	if err != nil {
		response.Error(c, errors.FromError(err))
		return
	}
	response.Success(c, http.StatusOK, result)
}

// POST /api/diagnostics/s3/cleanup
func (h *DiagnosticsHandler) S3Cleanup(c *gin.Context) {
	ctx := requestContext(c)

	client, _, err := h.storage(ctx)
	var deleted int
	if err == nil {
		var known map[string]struct{}
		if known, err = h.knownObjectKeys(ctx); err == nil {
			var result cloud.ScanResult
			if result, err = client.ScanOrphans(ctx, known); err == nil {
				deleted, err = client.DeleteKeys(ctx, result.OrphanKeys)
			}
		}
	}
	recordDiagnostic("s3_cleanup", err)
	if err != nil {
		response.Error(c, errors.FromError(err))
		return
	}
	response.Success(c, http.StatusOK, gin.H{"deleted": deleted})
}

func (h *DiagnosticsHandler) testFunction(c *gin.Context, operation, functionName string) {
	ctx := requestContext(c)

	if strings.TrimSpace(functionName) == "" {
		recordDiagnostic(operation, errors.ErrStorageNotConfigured)
		response.Error(c, errors.ErrStorageNotConfigured.WithMessage("no function is configured"))
		return
	}

	cfg, _, err := h.cloudConfig(ctx)
	var client functionClient
	if err == nil {
		client, err = h.newFunctions(ctx, cfg)
	}
	if err == nil {
		err = client.TestFunction(ctx, functionName)
	}
	recordDiagnostic(operation, err)
	if err != nil {
		response.Error(c, errors.FromError(err))
		return
	}
	response.Success(c, http.StatusOK, gin.H{"function": functionName})
}

// POST /api/diagnostics/lambda/test
func (h *DiagnosticsHandler) LambdaTest(c *gin.Context) {
	general, err := h.settings.General(requestContext(c))
	if err != nil {
		response.Error(c, errors.ErrInternalServer.WithInternal(err))
		return
	}
	h.testFunction(c, "lambda_test", general.ConverterLambda)
}

// POST /api/diagnostics/lambda/test-pdf
func (h *DiagnosticsHandler) LambdaTestPDF(c *gin.Context) {
	general, err := h.settings.General(requestContext(c))
	if err != nil {
		response.Error(c, errors.ErrInternalServer.WithInternal(err))
		return
	}
	h.testFunction(c, "lambda_test_pdf", general.PDFLambda)
}

// POST /api/diagnostics/mediaconvert/test
func (h *DiagnosticsHandler) MediaConvertTest(c *gin.Context) {
	ctx := requestContext(c)

	cfg, general, err := h.cloudConfig(ctx)
	var endpoint string
	if err == nil {
		var client transcodeClient
		if client, err = h.newTranscode(ctx, cfg); err == nil {
			endpoint, err = client.TestConnection(ctx)
		}
	}
	recordDiagnostic("mediaconvert_test", err)
	if err != nil {
		response.Error(c, errors.FromError(err))
		return
	}

	payload := gin.H{"endpoint": endpoint}
	if strings.TrimSpace(general.MediaConvertRole) == "" {
		payload["warning"] = "no IAM role is configured for MediaConvert jobs"
	}
	response.Success(c, http.StatusOK, payload)
}

// POST /api/diagnostics/email/validate
func (h *DiagnosticsHandler) EmailValidate(c *gin.Context) {
	problems, err := h.email.Validate(requestContext(c))
	recordDiagnostic("email_validate", err)
	if err != nil {
		response.Error(c, errors.ErrInternalServer.WithInternal(err))
		return
	}
	response.Success(c, http.StatusOK, gin.H{
		"valid":    len(problems) == 0,
		"problems": problems,
	})
}

type emailTestRequest struct {
	Recipient string `json:"recipient" validate:"required,email"`
}

// POST /api/diagnostics/email/test
func (h *DiagnosticsHandler) EmailTest(c *gin.Context) {
	var req emailTestRequest
	if !bindAndValidate(c, &req) {
		return
	}

	err := h.email.SendTest(requestContext(c), req.Recipient)
	recordDiagnostic("email_test", err)
	if err != nil {
		response.Error(c, errors.ErrMailNotConfigured.WithInternal(err))
		return
	}
	response.Message(c, http.StatusOK, "test message sent")
}

type emailTemplateTestRequest struct {
	Template  string `json:"template" validate:"required"`
	Recipient string `json:"recipient" validate:"required,email"`
}

// POST /api/diagnostics/email/test-template
func (h *DiagnosticsHandler) EmailTestTemplate(c *gin.Context) {
	var req emailTemplateTestRequest
	if !bindAndValidate(c, &req) {
		return
	}

	vars := map[string]string{
		"artist_name":      "Sample Artist",
		"submission_title": "Sample Submission",
		"status":           "selected",
		"call_title":       "Sample Open Call",
	}
	err := h.email.SendTemplate(requestContext(c), req.Template, req.Recipient, vars, 0)
	recordDiagnostic("email_test_template", err)
	if err != nil {
		response.Error(c, errors.NewBadRequest(err.Error()))
		return
	}
	response.Message(c, http.StatusOK, "template message sent")
}

// POST /api/diagnostics/email/test-summary
func (h *DiagnosticsHandler) EmailTestSummary(c *gin.Context) {
	stats, err := h.email.SendDailySummary(requestContext(c), true)
	recordDiagnostic("email_test_summary", err)
	if err != nil {
		response.Error(c, errors.NewBadRequest(err.Error()))
		return
	}
	response.Success(c, http.StatusOK, stats)
}

func (h *DiagnosticsHandler) imapSettings(ctx context.Context) (services.IMAPSettings, error) {
	cfg, err := h.settings.IMAP(ctx)
	if err != nil {
		return services.IMAPSettings{}, err
	}
	if strings.TrimSpace(cfg.Server) == "" {
		return services.IMAPSettings{}, errors.ErrMailboxNotConfigured
	}
	return cfg, nil
}

// POST /api/diagnostics/imap/test
func (h *DiagnosticsHandler) IMAPTest(c *gin.Context) {
	ctx := requestContext(c)

	cfg, err := h.imapSettings(ctx)
	var status mailbox.Status
	if err == nil {
		status, err = h.mailbox.TestConnection(ctx, cfg)
	}
	recordDiagnostic("imap_test", err)
	if err != nil {
		response.Error(c, errors.FromError(err))
		return
	}
	response.Success(c, http.StatusOK, status)
}

// POST /api/diagnostics/imap/cleanup
func (h *DiagnosticsHandler) IMAPCleanup(c *gin.Context) {
	ctx := requestContext(c)

	cfg, err := h.imapSettings(ctx)
	var removed int
	if err == nil {
		removed, err = h.mailbox.Cleanup(ctx, cfg)
	}
	recordDiagnostic("imap_cleanup", err)
	if err != nil {
		response.Error(c, errors.FromError(err))
		return
	}
	response.Success(c, http.StatusOK, gin.H{"removed": removed})
}

// POST /api/diagnostics/schema/update
func (h *DiagnosticsHandler) SchemaUpdate(c *gin.Context) {
	err := database.AutoMigrate(h.db)
	recordDiagnostic("schema_update", err)
	if err != nil {
		response.Error(c, errors.ErrInternalServer.WithInternal(err))
		return
	}
	response.Success(c, http.StatusOK, gin.H{"tables": database.MigratedTables})
}

// POST /api/diagnostics/tokens/migrate
func (h *DiagnosticsHandler) TokensMigrate(c *gin.Context) {
	migrated, err := h.submissions.MigrateReplyTokens(requestContext(c))
	recordDiagnostic("tokens_migrate", err)
	if err != nil {
		response.Error(c, errors.ErrInternalServer.WithInternal(err))
		return
	}
	response.Success(c, http.StatusOK, gin.H{"migrated": migrated})
}

// POST /api/diagnostics/cron/setup
func (h *DiagnosticsHandler) CronSetup(c *gin.Context) {
	if h.cron == nil {
		response.Error(c, errors.NewBadRequest("background schedule is not running"))
		return
	}

	entries, err := h.cron.Reschedule(requestContext(c))
	recordDiagnostic("cron_setup", err)
	if err != nil {
		response.Error(c, errors.ErrInternalServer.WithInternal(err))
		return
	}
	response.Success(c, http.StatusOK, gin.H{"entries": entries})
}
