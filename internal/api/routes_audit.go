package api

import (
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/opencallhq/opencall/internal/handlers"
)

func registerAuditRoutes(api *gin.RouterGroup, db *gorm.DB) error {
	auditHandler, err := handlers.NewAuditHandler(db)
	if err != nil {
		return err
	}

	audit := api.Group("/audit")
	{
		audit.GET("", auditHandler.List)
		audit.GET("/export", auditHandler.Export)
		audit.POST("/backfill-artist-info", auditHandler.BackfillArtistInfo)
	}

	return nil
}
