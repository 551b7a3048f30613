package project

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/vres/backend/internal/domain/shared"
)

// Beneficiary is the person entitled to redeem a voucher. The roster is
// ingested by an external collaborator; the voucher engine reads contact
// details for OTP and issuance notifications.
type Beneficiary struct {
	shared.BaseEntity
	ProjectID uuid.UUID `gorm:"type:uuid;not null;index"`
	Name      string    `gorm:"not null"`
	Phone     string
	Email     string
	Approved  bool `gorm:"not null;default:false"`
}

// NewBeneficiary creates a beneficiary pending approval
func NewBeneficiary(projectID uuid.UUID, name, phone, email string) (*Beneficiary, error) {
	if projectID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_PROJECT", "Project ID cannot be empty")
	}
	if name == "" {
		return nil, shared.NewDomainError("INVALID_NAME", "Beneficiary name cannot be empty")
	}

	return &Beneficiary{
		BaseEntity: shared.NewBaseEntity(),
		ProjectID:  projectID,
		Name:       name,
		Phone:      phone,
		Email:      email,
	}, nil
}

// Approve marks the beneficiary as approved for voucher issuance
func (b *Beneficiary) Approve() {
	b.Approved = true
	b.UpdatedAt = time.Now()
}

// HasDeliverablePhone reports whether the phone number is in a shape the
// SMS gateway accepts (E.164, leading plus).
func (b *Beneficiary) HasDeliverablePhone() bool {
	return strings.HasPrefix(b.Phone, "+")
}
