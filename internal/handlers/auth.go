package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	iauth "github.com/opencallhq/opencall/internal/auth"
	"github.com/opencallhq/opencall/internal/middleware"
	"github.com/opencallhq/opencall/internal/models"
	"github.com/opencallhq/opencall/pkg/crypto"
	"github.com/opencallhq/opencall/pkg/errors"
	"github.com/opencallhq/opencall/pkg/metrics"
	"github.com/opencallhq/opencall/pkg/response"
)

// AuthHandler manages the administrator login flow.
type AuthHandler struct {
	db  *gorm.DB
	jwt *iauth.JWTService
}

func NewAuthHandler(db *gorm.DB, jwt *iauth.JWTService) *AuthHandler {
	return &AuthHandler{db: db, jwt: jwt}
}

type loginRequest struct {
	Identifier string `json:"identifier" validate:"required"`
	Password   string `json:"password" validate:"required"`
}

type tokenResponse struct {
	AccessToken string       `json:"access_token"`
	ExpiresIn   int64        `json:"expires_in"`
	User        *models.User `json:"user"`
}

// POST /api/auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if !bindAndValidate(c, &req) {
		return
	}

	identifier := strings.TrimSpace(strings.ToLower(req.Identifier))

	var user models.User
	err := h.db.WithContext(requestContext(c)).
		Where("username = ? OR email = ?", identifier, identifier).
		Take(&user).Error
	if err != nil || !crypto.VerifyPassword(user.Password, req.Password) {
		// Same response for unknown user and wrong password.
		metrics.AuthAttempts.WithLabelValues("failure").Inc()
		response.Error(c, errors.ErrUnauthorized)
		return
	}

	token, err := h.jwt.GenerateAccessToken(iauth.AccessTokenInput{
		UserID:   user.ID,
		Username: user.Username,
	})
	if err != nil {
		metrics.AuthAttempts.WithLabelValues("failure").Inc()
		response.Error(c, errors.ErrInternalServer)
		return
	}

	metrics.AuthAttempts.WithLabelValues("success").Inc()
	response.Success(c, http.StatusOK, tokenResponse{
		AccessToken: token,
		ExpiresIn:   int64(h.jwt.TTL().Seconds()),
		User:        &user,
	})
}

// GET /api/auth/me
func (h *AuthHandler) Me(c *gin.Context) {
	userID := c.GetUint(middleware.CtxUserIDKey)
	if userID == 0 {
		response.Error(c, errors.ErrUnauthorized)
		return
	}

	var user models.User
	if err := h.db.WithContext(requestContext(c)).Take(&user, userID).Error; err != nil {
		response.Error(c, errors.ErrNotFound)
		return
	}
	response.Success(c, http.StatusOK, &user)
}
