package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/opencallhq/opencall/internal/services"
	"github.com/opencallhq/opencall/pkg/errors"
	"github.com/opencallhq/opencall/pkg/response"
)

// FileHandler exposes the attachment conversion pipeline operations.
type FileHandler struct {
	svc *services.FileService
}

func NewFileHandler(svc *services.FileService) (*FileHandler, error) {
	if svc == nil {
		return nil, errors.New("handlers.files_nil", "file service must be provided", http.StatusInternalServerError)
	}
	return &FileHandler{svc: svc}, nil
}

// POST /api/files/process
func (h *FileHandler) Process(c *gin.Context) {
	result, err := h.svc.ProcessExisting(requestContext(c))
	if err != nil {
		response.Error(c, errors.NewBadRequest(err.Error()))
		return
	}
	response.Success(c, http.StatusOK, result)
}

// GET /api/files/status
func (h *FileHandler) Status(c *gin.Context) {
	status, err := h.svc.Status(requestContext(c))
	if err != nil {
		response.Error(c, errors.ErrInternalServer.WithInternal(err))
		return
	}
	response.Success(c, http.StatusOK, status)
}

// POST /api/files/reset
func (h *FileHandler) ResetFailed(c *gin.Context) {
	reset, err := h.svc.ResetFailed(requestContext(c))
	if err != nil {
		response.Error(c, errors.ErrInternalServer.WithInternal(err))
		return
	}
	response.Success(c, http.StatusOK, gin.H{"reset": reset})
}

// POST /api/jobs/clear-pending
func (h *FileHandler) ClearPendingJobs(c *gin.Context) {
	cleared, err := h.svc.ClearPendingJobs(requestContext(c))
	if err != nil {
		response.Error(c, errors.ErrInternalServer.WithInternal(err))
		return
	}
	response.Success(c, http.StatusOK, gin.H{"cleared": cleared})
}

// POST /api/jobs/clear-failed
func (h *FileHandler) ClearFailedJobs(c *gin.Context) {
	cleared, err := h.svc.ClearFailedJobs(requestContext(c))
	if err != nil {
		response.Error(c, errors.ErrInternalServer.WithInternal(err))
		return
	}
	response.Success(c, http.StatusOK, gin.H{"cleared": cleared})
}
