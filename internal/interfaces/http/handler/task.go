package handler

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	appvoucher "github.com/vres/backend/internal/application/voucher"
	"github.com/vres/backend/internal/domain/identity"
	"github.com/vres/backend/internal/interfaces/http/middleware"
)

// TaskHandler exposes maintenance jobs to an external scheduler
type TaskHandler struct {
	BaseHandler
	sweepService *appvoucher.SweepService
}

// NewTaskHandler creates a task handler
func NewTaskHandler(sweepService *appvoucher.SweepService, logger *zap.Logger) *TaskHandler {
	return &TaskHandler{
		BaseHandler:  NewBaseHandler(logger),
		sweepService: sweepService,
	}
}

// RegisterRoutes registers task routes on the given group
func (h *TaskHandler) RegisterRoutes(rg *gin.RouterGroup) {
	tasks := rg.Group("/tasks", middleware.RequireRole(identity.RoleOperator))
	{
		tasks.POST("/registration-sweep", h.RegistrationSweep)
	}
}

// RegistrationSweep advances projects whose registration window closed
// yesterday and notifies the operators
func (h *TaskHandler) RegistrationSweep(c *gin.Context) {
	result, err := h.sweepService.RegistrationSweep(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, result)
}
