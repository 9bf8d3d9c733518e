package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/opencallhq/opencall/internal/services"
	"github.com/opencallhq/opencall/pkg/errors"
	"github.com/opencallhq/opencall/pkg/response"
)

// SettingsHandler serves the option bags. Each bag has a GET returning the
// stored values over defaults and a PUT replacing the whole bag.
type SettingsHandler struct {
	svc *services.SettingsService
}

func NewSettingsHandler(svc *services.SettingsService) (*SettingsHandler, error) {
	if svc == nil {
		return nil, errors.New("handlers.settings_nil", "settings service must be provided", http.StatusInternalServerError)
	}
	return &SettingsHandler{svc: svc}, nil
}

// GET /api/settings/general
func (h *SettingsHandler) GetGeneral(c *gin.Context) {
	cfg, err := h.svc.General(requestContext(c))
	if err != nil {
		response.Error(c, errors.ErrInternalServer.WithInternal(err))
		return
	}
	response.Success(c, http.StatusOK, cfg)
}

// PUT /api/settings/general
func (h *SettingsHandler) PutGeneral(c *gin.Context) {
	var in services.GeneralSettings
	if err := c.ShouldBindJSON(&in); err != nil {
		response.Error(c, errors.NewBadRequest("invalid JSON payload"))
		return
	}
	if err := h.svc.SaveGeneral(requestContext(c), in); err != nil {
		response.Error(c, errors.NewBadRequest(err.Error()))
		return
	}
	response.Success(c, http.StatusOK, in)
}

// GET /api/settings/email
func (h *SettingsHandler) GetEmail(c *gin.Context) {
	cfg, err := h.svc.Email(requestContext(c))
	if err != nil {
		response.Error(c, errors.ErrInternalServer.WithInternal(err))
		return
	}
	response.Success(c, http.StatusOK, cfg)
}

// PUT /api/settings/email
func (h *SettingsHandler) PutEmail(c *gin.Context) {
	var in services.EmailSettings
	if err := c.ShouldBindJSON(&in); err != nil {
		response.Error(c, errors.NewBadRequest("invalid JSON payload"))
		return
	}
	if err := h.svc.SaveEmail(requestContext(c), in); err != nil {
		response.Error(c, errors.NewBadRequest(err.Error()))
		return
	}
	response.Success(c, http.StatusOK, in)
}

// GET /api/settings/imap
func (h *SettingsHandler) GetIMAP(c *gin.Context) {
	cfg, err := h.svc.IMAP(requestContext(c))
	if err != nil {
		response.Error(c, errors.ErrInternalServer.WithInternal(err))
		return
	}
	response.Success(c, http.StatusOK, cfg)
}

// PUT /api/settings/imap
func (h *SettingsHandler) PutIMAP(c *gin.Context) {
	var in services.IMAPSettings
	if err := c.ShouldBindJSON(&in); err != nil {
		response.Error(c, errors.NewBadRequest("invalid JSON payload"))
		return
	}
	if err := h.svc.SaveIMAP(requestContext(c), in); err != nil {
		response.Error(c, errors.NewBadRequest(err.Error()))
		return
	}
	response.Success(c, http.StatusOK, in)
}

// GET /api/settings/templates
func (h *SettingsHandler) GetTemplates(c *gin.Context) {
	cfg, err := h.svc.Templates(requestContext(c))
	if err != nil {
		response.Error(c, errors.ErrInternalServer.WithInternal(err))
		return
	}
	response.Success(c, http.StatusOK, cfg)
}

// PUT /api/settings/templates
func (h *SettingsHandler) PutTemplates(c *gin.Context) {
	var in services.TemplateSettings
	if err := c.ShouldBindJSON(&in); err != nil {
		response.Error(c, errors.NewBadRequest("invalid JSON payload"))
		return
	}
	if err := h.svc.SaveTemplates(requestContext(c), in); err != nil {
		response.Error(c, errors.NewBadRequest(err.Error()))
		return
	}
	response.Success(c, http.StatusOK, in)
}
