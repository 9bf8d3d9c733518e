package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/opencallhq/opencall/internal/services"
	"github.com/opencallhq/opencall/pkg/errors"
	"github.com/opencallhq/opencall/pkg/response"
)

type OpenCallHandler struct {
	svc *services.OpenCallService
}

func NewOpenCallHandler(svc *services.OpenCallService) (*OpenCallHandler, error) {
	if svc == nil {
		return nil, errors.New("handlers.opencalls_nil", "open call service must be provided", http.StatusInternalServerError)
	}
	return &OpenCallHandler{svc: svc}, nil
}

// GET /api/settings/open-calls
func (h *OpenCallHandler) List(c *gin.Context) {
	calls, err := h.svc.List(requestContext(c))
	if err != nil {
		response.Error(c, errors.ErrInternalServer.WithInternal(err))
		return
	}
	response.Success(c, http.StatusOK, gin.H{"calls": calls})
}

type saveOpenCallsRequest struct {
	Calls []services.OpenCall `json:"calls"`
}

// PUT /api/settings/open-calls
func (h *OpenCallHandler) Save(c *gin.Context) {
	var req saveOpenCallsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, errors.NewBadRequest("invalid JSON payload"))
		return
	}

	saved, err := h.svc.Save(requestContext(c), req.Calls)
	if err != nil {
		response.Error(c, errors.NewBadRequest(err.Error()))
		return
	}
	response.Success(c, http.StatusOK, gin.H{"calls": saved})
}

// POST /api/open-calls/repair-terms
func (h *OpenCallHandler) RepairTerms(c *gin.Context) {
	repaired, err := h.svc.RepairTerms(requestContext(c))
	if err != nil {
		response.Error(c, errors.ErrInternalServer.WithInternal(err))
		return
	}
	response.Success(c, http.StatusOK, gin.H{"repaired": repaired})
}
