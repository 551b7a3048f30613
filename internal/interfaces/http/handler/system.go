package handler

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// SystemHandler serves health and liveness endpoints
type SystemHandler struct {
	BaseHandler
	db        *gorm.DB
	startedAt time.Time
}

// NewSystemHandler creates a system handler
func NewSystemHandler(db *gorm.DB, logger *zap.Logger) *SystemHandler {
	return &SystemHandler{
		BaseHandler: NewBaseHandler(logger),
		db:          db,
		startedAt:   time.Now(),
	}
}

// RegisterRoutes registers system routes on the given group
func (h *SystemHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/health", h.Health)
	rg.GET("/ping", h.Ping)
}

// Health reports service and database health
func (h *SystemHandler) Health(c *gin.Context) {
	status := "healthy"
	dbStatus := "up"

	if h.db != nil {
		sqlDB, err := h.db.DB()
		if err != nil || sqlDB.PingContext(c.Request.Context()) != nil {
			status = "degraded"
			dbStatus = "down"
		}
	} else {
		dbStatus = "not configured"
	}

	h.Success(c, gin.H{
		"status":   status,
		"database": dbStatus,
		"uptime":   time.Since(h.startedAt).Round(time.Second).String(),
	})
}

// Ping is a trivial liveness probe
func (h *SystemHandler) Ping(c *gin.Context) {
	h.Success(c, gin.H{"message": "pong"})
}
