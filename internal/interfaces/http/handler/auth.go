package handler

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	appidentity "github.com/vres/backend/internal/application/identity"
	"github.com/vres/backend/internal/interfaces/http/middleware"
)

// AuthHandler serves authentication endpoints
type AuthHandler struct {
	BaseHandler
	authService *appidentity.AuthService
}

// NewAuthHandler creates an auth handler
func NewAuthHandler(authService *appidentity.AuthService, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{
		BaseHandler: NewBaseHandler(logger),
		authService: authService,
	}
}

// RegisterRoutes registers auth routes on the given group
func (h *AuthHandler) RegisterRoutes(rg *gin.RouterGroup) {
	authGroup := rg.Group("/auth")
	{
		authGroup.POST("/login", h.Login)
	}
}

// Login authenticates a user and returns an access token
func (h *AuthHandler) Login(c *gin.Context) {
	var req appidentity.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	result, err := h.authService.Login(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, result)
}
