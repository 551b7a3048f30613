package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	appvoucher "github.com/vres/backend/internal/application/voucher"
	"github.com/vres/backend/internal/domain/identity"
	"github.com/vres/backend/internal/interfaces/http/middleware"
)

// RedemptionHandler serves the two-step redemption flow
type RedemptionHandler struct {
	BaseHandler
	redemptionService *appvoucher.RedemptionService
	queryService      *appvoucher.RedemptionQueryService
}

// NewRedemptionHandler creates a redemption handler
func NewRedemptionHandler(
	redemptionService *appvoucher.RedemptionService,
	queryService *appvoucher.RedemptionQueryService,
	logger *zap.Logger,
) *RedemptionHandler {
	return &RedemptionHandler{
		BaseHandler:       NewBaseHandler(logger),
		redemptionService: redemptionService,
		queryService:      queryService,
	}
}

// RegisterRoutes registers redemption routes on the given group
func (h *RedemptionHandler) RegisterRoutes(rg *gin.RouterGroup) {
	redemption := rg.Group("/redemption", middleware.RequireRole(identity.RoleVendor))
	{
		redemption.POST("/initiate", h.Initiate)
		redemption.POST("/confirm", h.Confirm)
		redemption.GET("/history", h.History)
	}
}

// Initiate starts the OTP challenge for a voucher presented to a vendor
func (h *RedemptionHandler) Initiate(c *gin.Context) {
	var req appvoucher.InitiateRedemptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}
	if !h.vendorMatches(c, req.VendorID.String()) {
		return
	}

	if err := h.redemptionService.Initiate(c.Request.Context(), req); err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, gin.H{"message": "Redemption initiated"})
}

// Confirm completes the OTP challenge and redeems the voucher
func (h *RedemptionHandler) Confirm(c *gin.Context) {
	var req appvoucher.ConfirmRedemptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}
	if !h.vendorMatches(c, req.VendorID.String()) {
		return
	}

	if err := h.redemptionService.Confirm(c.Request.Context(), req); err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, gin.H{"message": "Voucher redeemed"})
}

// History lists the redemptions performed by the authenticated vendor,
// paginated with ?page= and ?page_size=
func (h *RedemptionHandler) History(c *gin.Context) {
	vendorID, ok := middleware.GetJWTUserID(c)
	if !ok {
		h.Unauthorized(c, "Authentication required")
		return
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))

	records, err := h.queryService.VendorHistory(c.Request.Context(), vendorID, page, pageSize)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, records)
}

// vendorMatches rejects requests where the body names a vendor other than
// the authenticated one
func (h *RedemptionHandler) vendorMatches(c *gin.Context, vendorID string) bool {
	claims, ok := middleware.GetJWTClaims(c)
	if !ok {
		h.Unauthorized(c, "Authentication required")
		return false
	}
	if claims.UserID != vendorID {
		h.Unauthorized(c, "Token does not belong to the requesting vendor")
		return false
	}
	return true
}
