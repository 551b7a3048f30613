// Package handler contains the HTTP handlers for the voucher API.
package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/vres/backend/internal/domain/shared"
	"github.com/vres/backend/internal/interfaces/http/dto"
)

// BaseHandler provides response helpers shared by all handlers
type BaseHandler struct {
	logger *zap.Logger
}

// NewBaseHandler creates a base handler with the given logger
func NewBaseHandler(logger *zap.Logger) BaseHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return BaseHandler{logger: logger}
}

// Success sends a 200 response with the standard envelope
func (h *BaseHandler) Success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, dto.NewSuccessResponse(data))
}

// Created sends a 201 response with the standard envelope
func (h *BaseHandler) Created(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, dto.NewSuccessResponse(data))
}

// NoContent sends a 204 response
func (h *BaseHandler) NoContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}

// Error sends an error response with the given status and code
func (h *BaseHandler) Error(c *gin.Context, status int, code, message string) {
	c.JSON(status, dto.NewErrorResponseWithRequestID(code, message, c.GetString("request_id")))
}

// BadRequest sends a 400 response, typically for binding failures
func (h *BaseHandler) BadRequest(c *gin.Context, message string) {
	h.Error(c, http.StatusBadRequest, dto.ErrCodeBadRequest, message)
}

// NotFound sends a 404 response
func (h *BaseHandler) NotFound(c *gin.Context, message string) {
	h.Error(c, http.StatusNotFound, dto.ErrCodeNotFound, message)
}

// Unauthorized sends a 401 response
func (h *BaseHandler) Unauthorized(c *gin.Context, message string) {
	h.Error(c, http.StatusUnauthorized, dto.ErrCodeUnauthorized, message)
}

// InternalError sends a 500 response with a generic message
func (h *BaseHandler) InternalError(c *gin.Context) {
	h.Error(c, http.StatusInternalServerError, dto.ErrCodeInternal, "An unexpected error occurred")
}

// HandleError maps domain errors onto HTTP responses. Unknown errors are
// logged and reported as a generic 500.
func (h *BaseHandler) HandleError(c *gin.Context, err error) {
	var de *shared.DomainError
	if errors.As(err, &de) {
		h.Error(c, dto.GetHTTPStatus(de.Code), de.Code, de.Message)
		return
	}

	h.logger.Error("unhandled error",
		zap.String("path", c.Request.URL.Path),
		zap.String("request_id", c.GetString("request_id")),
		zap.Error(err))
	h.InternalError(c)
}
