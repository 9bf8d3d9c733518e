package api

import (
	"github.com/gin-gonic/gin"

	"github.com/opencallhq/opencall/internal/handlers"
)

func registerDiagnosticsRoutes(api *gin.RouterGroup, deps Dependencies) error {
	diag, err := handlers.NewDiagnosticsHandler(deps.DB, deps.Settings, deps.Email, deps.Submissions, deps.Cron)
	if err != nil {
		return err
	}

	group := api.Group("/diagnostics")
	{
		group.POST("/s3/test", diag.S3Test)
		group.POST("/s3/scan", diag.S3Scan)
		group.POST("/s3/cleanup", diag.S3Cleanup)
		group.POST("/lambda/test", diag.LambdaTest)
		group.POST("/lambda/test-pdf", diag.LambdaTestPDF)
		group.POST("/mediaconvert/test", diag.MediaConvertTest)
		group.POST("/email/validate", diag.EmailValidate)
		group.POST("/email/test", diag.EmailTest)
		group.POST("/email/test-template", diag.EmailTestTemplate)
		group.POST("/email/test-summary", diag.EmailTestSummary)
		group.POST("/imap/test", diag.IMAPTest)
		group.POST("/imap/cleanup", diag.IMAPCleanup)
		group.POST("/schema/update", diag.SchemaUpdate)
		group.POST("/tokens/migrate", diag.TokensMigrate)
		group.POST("/cron/setup", diag.CronSetup)
	}

	return nil
}
