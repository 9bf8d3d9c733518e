package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/gin-gonic/gin"

	"github.com/opencallhq/opencall/internal/api"
	"github.com/opencallhq/opencall/internal/app"
	"github.com/opencallhq/opencall/internal/app/maintenance"
	iauth "github.com/opencallhq/opencall/internal/auth"
	"github.com/opencallhq/opencall/internal/cloud"
	"github.com/opencallhq/opencall/internal/database"
	"github.com/opencallhq/opencall/internal/services"
	"github.com/opencallhq/opencall/pkg/logger"
)

// runtimeStack bundles long-lived services used by the HTTP server.
type runtimeStack struct {
	DB          *gorm.DB
	SettingsSvc *services.SettingsService
	AuditSvc    *services.AuditService
	EmailSvc    *services.EmailService
	Cleaner     *maintenance.Cleaner
	Router      *gin.Engine
}

// bootstrapRuntime initialises the database, services, background jobs, and
// the HTTP router.
func bootstrapRuntime(ctx context.Context, cfg *app.Config, log *zap.Logger) (*runtimeStack, error) {
	stack := &runtimeStack{}
	var err error
	success := false

	defer func() {
		if !success {
			stack.Shutdown(context.Background(), log)
		}
	}()

	// enable gin debug mod
	if debug, _ := os.LookupEnv("GIN_DEBUG"); debug != "true" {
		gin.SetMode(gin.ReleaseMode)
	}

	stack.DB, err = initialiseDatabase(cfg)
	if err != nil {
		return nil, err
	}

	jwtSvc, err := iauth.NewJWTService(cfg.Auth.JWTServiceConfig())
	if err != nil {
		return nil, fmt.Errorf("initialise jwt service: %w", err)
	}

	stack.AuditSvc, err = services.NewAuditService(stack.DB)
	if err != nil {
		return nil, fmt.Errorf("initialise audit service: %w", err)
	}

	stack.SettingsSvc, err = services.NewSettingsService(stack.DB, stack.AuditSvc,
		services.WithEncryptionKey(cfg.Settings.EncryptionKey))
	if err != nil {
		return nil, fmt.Errorf("initialise settings service: %w", err)
	}

	stack.EmailSvc, err = services.NewEmailService(stack.DB, stack.SettingsSvc, stack.AuditSvc, nil)
	if err != nil {
		return nil, fmt.Errorf("initialise email service: %w", err)
	}

	submissionSvc, err := services.NewSubmissionService(stack.DB, stack.AuditSvc, stack.EmailSvc)
	if err != nil {
		return nil, fmt.Errorf("initialise submission service: %w", err)
	}

	openCallSvc, err := services.NewOpenCallService(stack.DB, stack.SettingsSvc, stack.AuditSvc)
	if err != nil {
		return nil, fmt.Errorf("initialise open call service: %w", err)
	}

	fileSvc, err := services.NewFileService(stack.DB, stack.SettingsSvc, stack.AuditSvc,
		newConverterInvoker(stack.SettingsSvc))
	if err != nil {
		return nil, fmt.Errorf("initialise file service: %w", err)
	}

	if cfg.Maintenance.Enabled {
		stack.Cleaner = maintenance.NewCleaner(stack.DB, stack.SettingsSvc, stack.AuditSvc, stack.EmailSvc,
			maintenance.WithAuditSchedule(cfg.Maintenance.AuditSchedule))
		if err := stack.Cleaner.Start(ctx); err != nil {
			return nil, fmt.Errorf("start maintenance jobs: %w", err)
		}
	}

	deps := api.Dependencies{
		DB:          stack.DB,
		JWT:         jwtSvc,
		Config:      cfg,
		Settings:    stack.SettingsSvc,
		Email:       stack.EmailSvc,
		Submissions: submissionSvc,
		OpenCalls:   openCallSvc,
		Files:       fileSvc,
	}
	if stack.Cleaner != nil {
		deps.Cron = stack.Cleaner
	}

	stack.Router, err = api.NewRouter(deps)
	if err != nil {
		return nil, fmt.Errorf("build api router: %w", err)
	}

	success = true
	return stack, nil
}

// Shutdown gracefully stops background jobs and releases resources.
func (s *runtimeStack) Shutdown(ctx context.Context, log *zap.Logger) {
	if s == nil {
		return
	}

	if s.Cleaner != nil {
		stopCtx := s.Cleaner.Stop()
		if stopCtx != nil {
			<-stopCtx.Done()
		}
	}

	if s.DB != nil {
		closeDatabase(s.DB, log)
	}
}

// converterInvoker builds a Lambda client from the stored AWS settings on
// every invocation so credential changes apply without a restart.
type converterInvoker struct {
	settings *services.SettingsService
}

func newConverterInvoker(settings *services.SettingsService) services.FunctionInvoker {
	return &converterInvoker{settings: settings}
}

func (i *converterInvoker) Invoke(ctx context.Context, functionName string, payload []byte) error {
	general, err := i.settings.General(ctx)
	if err != nil {
		return err
	}

	client, err := cloud.NewLambdaClient(ctx, cloud.Config{
		AccessKey: general.AWSAccessKey,
		SecretKey: general.AWSSecretKey,
		Region:    general.AWSRegion,
	})
	if err != nil {
		return err
	}
	return client.Invoke(ctx, functionName, payload)
}

func initialiseDatabase(cfg *app.Config) (*gorm.DB, error) {
	dbCfg := cfg.Database.DatabaseConfig()
	db, err := database.Open(dbCfg)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if err := database.AutoMigrateAndSeed(db, cfg.Auth.AdminSeed()); err != nil {
		return nil, fmt.Errorf("auto-migrate database: %w", err)
	}

	log := logger.WithModule("database")
	log.Info("database connected", zap.String("driver", strings.ToLower(strings.TrimSpace(dbCfg.Driver))))

	return db, nil
}

func closeDatabase(db *gorm.DB, log *zap.Logger) {
	if db == nil {
		return
	}

	sqlDB, err := db.DB()
	if err != nil {
		log.Warn("failed to obtain underlying sql DB for closing", zap.Error(err))
		return
	}

	if err := sqlDB.Close(); err != nil {
		log.Warn("failed to close database", zap.Error(err))
	}
}
