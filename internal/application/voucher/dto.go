package voucher

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/vres/backend/internal/domain/voucher"
)

// ==================== Issuance DTOs ====================

// IssueVouchersRequest represents a batch issuance request for a project
type IssueVouchersRequest struct {
	BeneficiaryIDs []uuid.UUID     `json:"beneficiary_ids" binding:"required,min=1"`
	ValidFrom      *time.Time      `json:"valid_from" binding:"required"`
	ValidTill      *time.Time      `json:"valid_till" binding:"required"`
	Points         decimal.Decimal `json:"points"`
	VendorIDs      []uuid.UUID     `json:"vendor_ids"`
}

// IssuanceResult reports the per-beneficiary outcome of a batch issuance
type IssuanceResult struct {
	SuccessCount int         `json:"success_count"`
	FailureCount int         `json:"failure_count"`
	Failed       []uuid.UUID `json:"failed_beneficiary_ids,omitempty"`
}

// ==================== Redemption DTOs ====================

// InitiateRedemptionRequest starts the OTP challenge for a voucher
type InitiateRedemptionRequest struct {
	VoucherCode string    `json:"voucherCode" binding:"required"`
	VendorID    uuid.UUID `json:"vendorId" binding:"required"`
}

// ConfirmRedemptionRequest completes the OTP challenge and redeems the voucher
type ConfirmRedemptionRequest struct {
	VoucherCode       string    `json:"voucherCode" binding:"required"`
	OTP               string    `json:"otp" binding:"required"`
	VendorID          uuid.UUID `json:"vendorId" binding:"required"`
	GeoLat            *float64  `json:"geoLat"`
	GeoLon            *float64  `json:"geoLon"`
	DeviceFingerprint string    `json:"deviceFingerprint"`
}

// ==================== Query DTOs ====================

// VoucherResponse represents a voucher in API responses
type VoucherResponse struct {
	ID            uuid.UUID      `json:"id"`
	ProjectID     uuid.UUID      `json:"project_id"`
	BeneficiaryID uuid.UUID      `json:"beneficiary_id"`
	Status        voucher.Status `json:"status"`
	StringCode    string         `json:"string_code"`
	QRCodeLink    string         `json:"qr_code_link"`
	IssuedAt      time.Time      `json:"issued_at"`
}

// ToVoucherResponse converts a domain voucher to its response form
func ToVoucherResponse(v *voucher.Voucher) VoucherResponse {
	return VoucherResponse{
		ID:            v.ID,
		ProjectID:     v.ProjectID,
		BeneficiaryID: v.BeneficiaryID,
		Status:        v.Status,
		StringCode:    v.StringCode,
		QRCodeLink:    v.QRCodeLink,
		IssuedAt:      v.IssuedAt,
	}
}

// StatusCountsResponse reports voucher counts per status for a project
type StatusCountsResponse struct {
	Issued   int64 `json:"issued"`
	Redeemed int64 `json:"redeemed"`
	Total    int64 `json:"total"`
}
