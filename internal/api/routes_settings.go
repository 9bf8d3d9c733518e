package api

import (
	"github.com/gin-gonic/gin"

	"github.com/opencallhq/opencall/internal/handlers"
)

func registerSettingsRoutes(api *gin.RouterGroup, deps Dependencies) error {
	settingsHandler, err := handlers.NewSettingsHandler(deps.Settings)
	if err != nil {
		return err
	}
	openCallHandler, err := handlers.NewOpenCallHandler(deps.OpenCalls)
	if err != nil {
		return err
	}

	settings := api.Group("/settings")
	{
		settings.GET("/general", settingsHandler.GetGeneral)
		settings.PUT("/general", settingsHandler.PutGeneral)
		settings.GET("/email", settingsHandler.GetEmail)
		settings.PUT("/email", settingsHandler.PutEmail)
		settings.GET("/imap", settingsHandler.GetIMAP)
		settings.PUT("/imap", settingsHandler.PutIMAP)
		settings.GET("/templates", settingsHandler.GetTemplates)
		settings.PUT("/templates", settingsHandler.PutTemplates)
		settings.GET("/open-calls", openCallHandler.List)
		settings.PUT("/open-calls", openCallHandler.Save)
	}

	api.POST("/open-calls/repair-terms", openCallHandler.RepairTerms)

	return nil
}
