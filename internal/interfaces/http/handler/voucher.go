package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	appvoucher "github.com/vres/backend/internal/application/voucher"
	"github.com/vres/backend/internal/domain/identity"
	"github.com/vres/backend/internal/interfaces/http/dto"
	"github.com/vres/backend/internal/interfaces/http/middleware"
)

// VoucherHandler serves voucher provisioning and issuance endpoints
type VoucherHandler struct {
	BaseHandler
	voucherService  *appvoucher.VoucherService
	issuanceService *appvoucher.IssuanceService
}

// NewVoucherHandler creates a voucher handler
func NewVoucherHandler(
	voucherService *appvoucher.VoucherService,
	issuanceService *appvoucher.IssuanceService,
	logger *zap.Logger,
) *VoucherHandler {
	return &VoucherHandler{
		BaseHandler:     NewBaseHandler(logger),
		voucherService:  voucherService,
		issuanceService: issuanceService,
	}
}

// RegisterRoutes registers voucher routes on the given group
func (h *VoucherHandler) RegisterRoutes(rg *gin.RouterGroup) {
	vouchers := rg.Group("/vouchers")
	{
		vouchers.GET("/:id/code", h.GetCode)
		vouchers.GET("/:id/qrcode", h.GetQRCode)
		vouchers.POST("/:id/issue-otp", h.IssueOTP)
	}

	projects := rg.Group("/projects", middleware.RequireRole(identity.RoleOperator))
	{
		projects.POST("/:id/vouchers", h.IssueVouchers)
		projects.GET("/:id/vouchers/status-counts", h.StatusCounts)
	}
}

// GetCode returns the voucher's unique code as plain text
func (h *VoucherHandler) GetCode(c *gin.Context) {
	id, ok := h.bindVoucherID(c)
	if !ok {
		return
	}

	code, err := h.voucherService.GetCode(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	c.String(http.StatusOK, code)
}

// GetQRCode returns the voucher's QR image as PNG bytes
func (h *VoucherHandler) GetQRCode(c *gin.Context) {
	id, ok := h.bindVoucherID(c)
	if !ok {
		return
	}

	image, err := h.voucherService.GetQRImage(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	c.Header("Content-Disposition", `inline; filename="qrcode.png"`)
	c.Data(http.StatusOK, "image/png", image)
}

// IssueOTP generates a redemption OTP for the voucher and returns it as
// plain text
func (h *VoucherHandler) IssueOTP(c *gin.Context) {
	id, ok := h.bindVoucherID(c)
	if !ok {
		return
	}

	otp, err := h.voucherService.IssueOTP(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	c.String(http.StatusOK, otp)
}

// IssueVouchers issues vouchers for a batch of beneficiaries of a project
func (h *VoucherHandler) IssueVouchers(c *gin.Context) {
	var uri dto.IDRequest
	if err := c.ShouldBindUri(&uri); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}
	projectID := uuid.MustParse(uri.ID)

	var req appvoucher.IssueVouchersRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	result, err := h.issuanceService.IssueVouchers(c.Request.Context(), projectID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, result)
}

// StatusCounts reports voucher counts per status for a project
func (h *VoucherHandler) StatusCounts(c *gin.Context) {
	var uri dto.IDRequest
	if err := c.ShouldBindUri(&uri); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	counts, err := h.voucherService.StatusCounts(c.Request.Context(), uuid.MustParse(uri.ID))
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, counts)
}

func (h *VoucherHandler) bindVoucherID(c *gin.Context) (uuid.UUID, bool) {
	var uri dto.IDRequest
	if err := c.ShouldBindUri(&uri); err != nil {
		middleware.HandleValidationError(c, err)
		return uuid.Nil, false
	}
	return uuid.MustParse(uri.ID), true
}
