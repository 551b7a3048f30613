package voucher

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/vres/backend/internal/domain/shared"
)

// Status represents the lifecycle status of a voucher
type Status string

const (
	StatusIssued   Status = "ISSUED"
	StatusRedeemed Status = "REDEEMED"
)

// IsValid checks if the status is a valid voucher Status
func (s Status) IsValid() bool {
	switch s {
	case StatusIssued, StatusRedeemed:
		return true
	}
	return false
}

// String returns the string representation of Status
func (s Status) String() string {
	return string(s)
}

// CanTransitionTo checks if the status can transition to the target status
func (s Status) CanTransitionTo(target Status) bool {
	switch s {
	case StatusIssued:
		return target == StatusRedeemed
	case StatusRedeemed:
		return false // Terminal state
	}
	return false
}

// Voucher is the aggregate root for a redeemable benefit voucher.
// It is created as ISSUED by the issuance pipeline and mutated only by
// the redemption state machine: the OTP pair is set and cleared together,
// and the ISSUED to REDEEMED transition is terminal.
type Voucher struct {
	shared.BaseAggregateRoot
	ProjectID             uuid.UUID `gorm:"type:uuid;not null;index"`
	BeneficiaryID         uuid.UUID `gorm:"type:uuid;not null;index"`
	Status                Status    `gorm:"not null"`
	StringCode            string    `gorm:"uniqueIndex;not null"`
	QRCodeLink            string    `gorm:"type:text"`
	RedemptionOTP         *string
	RedemptionOTPIssuedAt *time.Time
	IssuedAt              time.Time `gorm:"not null"`
}

// NewVoucher creates a new voucher in ISSUED status
func NewVoucher(projectID, beneficiaryID uuid.UUID, stringCode, qrCodeLink string) (*Voucher, error) {
	if projectID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_PROJECT", "Project ID cannot be empty")
	}
	if beneficiaryID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_BENEFICIARY", "Beneficiary ID cannot be empty")
	}
	if stringCode == "" {
		return nil, shared.NewDomainError("INVALID_CODE", "Voucher code cannot be empty")
	}

	v := &Voucher{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		ProjectID:         projectID,
		BeneficiaryID:     beneficiaryID,
		Status:            StatusIssued,
		StringCode:        stringCode,
		QRCodeLink:        qrCodeLink,
		IssuedAt:          time.Now(),
	}

	v.AddDomainEvent(NewVoucherIssuedEvent(v))

	return v, nil
}

// AttachOTP stores a freshly generated OTP with its issuance time.
// Only allowed while the voucher is ISSUED; the status itself does not change.
func (v *Voucher) AttachOTP(otp string, now time.Time) error {
	if v.Status != StatusIssued {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Voucher not available for redemption in %s status", v.Status))
	}
	if len(otp) != OTPLength {
		return shared.NewDomainError("INVALID_OTP", "OTP must be a 6-digit code")
	}

	v.RedemptionOTP = &otp
	v.RedemptionOTPIssuedAt = &now
	v.UpdatedAt = now

	v.AddDomainEvent(NewRedemptionInitiatedEvent(v))

	return nil
}

// HasPendingOTP reports whether a redemption attempt is in flight
func (v *Voucher) HasPendingOTP() bool {
	return v.RedemptionOTP != nil
}

// OTPMatches checks the supplied OTP against the stored one
func (v *Voucher) OTPMatches(otp string) bool {
	return v.RedemptionOTP != nil && *v.RedemptionOTP == otp
}

// OTPExpired reports whether the stored OTP has outlived the validity window.
// A voucher with no pending OTP is never considered expired.
func (v *Voucher) OTPExpired(now time.Time, validity time.Duration) bool {
	if v.RedemptionOTPIssuedAt == nil {
		return false
	}
	return now.After(v.RedemptionOTPIssuedAt.Add(validity))
}

// ClearOTP drops the pending OTP pair without redeeming.
// This is the only path besides Redeem that clears the pair; it re-opens
// the voucher for a fresh initiation after OTP expiry.
func (v *Voucher) ClearOTP() {
	v.RedemptionOTP = nil
	v.RedemptionOTPIssuedAt = nil
	v.UpdatedAt = time.Now()
}

// Redeem transitions the voucher to REDEEMED and clears the OTP pair.
// REDEEMED is terminal; a second call fails with INVALID_STATE.
func (v *Voucher) Redeem() error {
	if !v.Status.CanTransitionTo(StatusRedeemed) {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Voucher cannot be redeemed in %s status", v.Status))
	}

	now := time.Now()
	v.Status = StatusRedeemed
	v.RedemptionOTP = nil
	v.RedemptionOTPIssuedAt = nil
	v.UpdatedAt = now

	v.AddDomainEvent(NewVoucherRedeemedEvent(v))

	return nil
}

// IsIssued returns true if the voucher is still redeemable
func (v *Voucher) IsIssued() bool {
	return v.Status == StatusIssued
}

// IsRedeemed returns true if the voucher has been redeemed
func (v *Voucher) IsRedeemed() bool {
	return v.Status == StatusRedeemed
}
