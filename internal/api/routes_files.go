package api

import (
	"github.com/gin-gonic/gin"

	"github.com/opencallhq/opencall/internal/handlers"
)

func registerFileRoutes(api *gin.RouterGroup, deps Dependencies) error {
	fileHandler, err := handlers.NewFileHandler(deps.Files)
	if err != nil {
		return err
	}

	files := api.Group("/files")
	{
		files.POST("/process", fileHandler.Process)
		files.POST("/reset", fileHandler.ResetFailed)
		files.GET("/status", fileHandler.Status)
	}

	jobs := api.Group("/jobs")
	{
		jobs.POST("/clear-pending", fileHandler.ClearPendingJobs)
		jobs.POST("/clear-failed", fileHandler.ClearFailedJobs)
	}

	return nil
}
