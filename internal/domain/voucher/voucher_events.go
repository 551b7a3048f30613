package voucher

import (
	"github.com/google/uuid"
	"github.com/vres/backend/internal/domain/shared"
)

// Aggregate type constant
const AggregateTypeVoucher = "Voucher"

// Event type constants
const (
	EventTypeVoucherIssued       = "VoucherIssued"
	EventTypeRedemptionInitiated = "RedemptionInitiated"
	EventTypeVoucherRedeemed     = "VoucherRedeemed"
)

// VoucherIssuedEvent is raised when a voucher is created by the issuance pipeline
type VoucherIssuedEvent struct {
	shared.BaseDomainEvent
	VoucherID     uuid.UUID `json:"voucher_id"`
	ProjectID     uuid.UUID `json:"project_id"`
	BeneficiaryID uuid.UUID `json:"beneficiary_id"`
	StringCode    string    `json:"string_code"`
	QRCodeLink    string    `json:"qr_code_link"`
}

// NewVoucherIssuedEvent creates a new VoucherIssuedEvent
func NewVoucherIssuedEvent(v *Voucher) *VoucherIssuedEvent {
	return &VoucherIssuedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeVoucherIssued, AggregateTypeVoucher, v.ID),
		VoucherID:       v.ID,
		ProjectID:       v.ProjectID,
		BeneficiaryID:   v.BeneficiaryID,
		StringCode:      v.StringCode,
		QRCodeLink:      v.QRCodeLink,
	}
}

// EventType returns the event type name
func (e *VoucherIssuedEvent) EventType() string {
	return EventTypeVoucherIssued
}

// RedemptionInitiatedEvent is raised when an OTP is attached to a voucher.
// The notification dispatcher uses it to deliver the OTP to the beneficiary.
type RedemptionInitiatedEvent struct {
	shared.BaseDomainEvent
	VoucherID     uuid.UUID `json:"voucher_id"`
	ProjectID     uuid.UUID `json:"project_id"`
	BeneficiaryID uuid.UUID `json:"beneficiary_id"`
	StringCode    string    `json:"string_code"`
}

// NewRedemptionInitiatedEvent creates a new RedemptionInitiatedEvent
func NewRedemptionInitiatedEvent(v *Voucher) *RedemptionInitiatedEvent {
	return &RedemptionInitiatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeRedemptionInitiated, AggregateTypeVoucher, v.ID),
		VoucherID:       v.ID,
		ProjectID:       v.ProjectID,
		BeneficiaryID:   v.BeneficiaryID,
		StringCode:      v.StringCode,
	}
}

// EventType returns the event type name
func (e *RedemptionInitiatedEvent) EventType() string {
	return EventTypeRedemptionInitiated
}

// VoucherRedeemedEvent is raised when a voucher reaches its terminal REDEEMED state
type VoucherRedeemedEvent struct {
	shared.BaseDomainEvent
	VoucherID     uuid.UUID `json:"voucher_id"`
	ProjectID     uuid.UUID `json:"project_id"`
	BeneficiaryID uuid.UUID `json:"beneficiary_id"`
	StringCode    string    `json:"string_code"`
}

// NewVoucherRedeemedEvent creates a new VoucherRedeemedEvent
func NewVoucherRedeemedEvent(v *Voucher) *VoucherRedeemedEvent {
	return &VoucherRedeemedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeVoucherRedeemed, AggregateTypeVoucher, v.ID),
		VoucherID:       v.ID,
		ProjectID:       v.ProjectID,
		BeneficiaryID:   v.BeneficiaryID,
		StringCode:      v.StringCode,
	}
}

// EventType returns the event type name
func (e *VoucherRedeemedEvent) EventType() string {
	return EventTypeVoucherRedeemed
}
