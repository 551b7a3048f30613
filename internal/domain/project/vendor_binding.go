package project

import (
	"time"

	"github.com/google/uuid"
	"github.com/vres/backend/internal/domain/shared"
)

// VendorBinding links a vendor to a project. Assignment alone does not
// authorize redemption; the binding must also be activated when vouchers
// are issued for the project.
type VendorBinding struct {
	shared.BaseEntity
	ProjectID uuid.UUID `gorm:"type:uuid;not null;index:idx_vendor_bindings_project_vendor,unique"`
	VendorID  uuid.UUID `gorm:"type:uuid;not null;index:idx_vendor_bindings_project_vendor,unique"`
	Active    bool      `gorm:"not null;default:false"`
}

// NewVendorBinding assigns a vendor to a project in inactive state
func NewVendorBinding(projectID, vendorID uuid.UUID) (*VendorBinding, error) {
	if projectID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_PROJECT", "Project ID cannot be empty")
	}
	if vendorID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_VENDOR", "Vendor ID cannot be empty")
	}

	return &VendorBinding{
		BaseEntity: shared.NewBaseEntity(),
		ProjectID:  projectID,
		VendorID:   vendorID,
	}, nil
}

// Activate authorizes the vendor to redeem vouchers for the project
func (vb *VendorBinding) Activate() {
	vb.Active = true
	vb.UpdatedAt = time.Now()
}
