package project

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// ProjectRepository defines the interface for project persistence
type ProjectRepository interface {
	// FindByID finds a project by ID
	FindByID(ctx context.Context, id uuid.UUID) (*Project, error)

	// FindByRegistrationEndDate finds projects whose registration period
	// ended on the given date
	FindByRegistrationEndDate(ctx context.Context, date time.Time) ([]Project, error)

	// Save creates or updates a project
	Save(ctx context.Context, p *Project) error
}

// BeneficiaryRepository defines the interface for beneficiary persistence
type BeneficiaryRepository interface {
	// FindByID finds a beneficiary by ID
	FindByID(ctx context.Context, id uuid.UUID) (*Beneficiary, error)

	// FindByIDs resolves a set of beneficiary IDs; missing IDs are simply
	// absent from the result
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]Beneficiary, error)

	// Save creates or updates a beneficiary
	Save(ctx context.Context, b *Beneficiary) error
}

// VendorBindingRepository is the vendor authorization gate: a vendor may
// redeem for a project only while an active binding exists.
type VendorBindingRepository interface {
	// ExistsActive reports whether the vendor has an active binding to
	// the project
	ExistsActive(ctx context.Context, projectID, vendorID uuid.UUID) (bool, error)

	// FindByProjectAndVendors finds the bindings for the given vendors on
	// a project
	FindByProjectAndVendors(ctx context.Context, projectID uuid.UUID, vendorIDs []uuid.UUID) ([]VendorBinding, error)

	// SaveAll persists a set of bindings
	SaveAll(ctx context.Context, bindings []VendorBinding) error
}
