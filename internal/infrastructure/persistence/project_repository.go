package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/vres/backend/internal/domain/project"
	"github.com/vres/backend/internal/domain/shared"
	"gorm.io/gorm"
)

// GormProjectRepository implements project.ProjectRepository using GORM
type GormProjectRepository struct {
	db *gorm.DB
}

// NewGormProjectRepository creates a new GormProjectRepository
func NewGormProjectRepository(db *gorm.DB) *GormProjectRepository {
	return &GormProjectRepository{db: db}
}

// FindByID finds a project by its ID
func (r *GormProjectRepository) FindByID(ctx context.Context, id uuid.UUID) (*project.Project, error) {
	var p project.Project
	if err := r.db.WithContext(ctx).First(&p, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}

// FindByRegistrationEndDate finds projects whose registration ended on the
// given calendar day
func (r *GormProjectRepository) FindByRegistrationEndDate(ctx context.Context, date time.Time) ([]project.Project, error) {
	y, m, d := date.Date()
	dayStart := time.Date(y, m, d, 0, 0, 0, 0, date.Location())
	dayEnd := dayStart.AddDate(0, 0, 1)

	var projects []project.Project
	if err := r.db.WithContext(ctx).
		Where("registration_end_date >= ? AND registration_end_date < ?", dayStart, dayEnd).
		Find(&projects).Error; err != nil {
		return nil, err
	}
	return projects, nil
}

// Save creates or updates a project
func (r *GormProjectRepository) Save(ctx context.Context, p *project.Project) error {
	return r.db.WithContext(ctx).Save(p).Error
}

// GormBeneficiaryRepository implements project.BeneficiaryRepository using GORM
type GormBeneficiaryRepository struct {
	db *gorm.DB
}

// NewGormBeneficiaryRepository creates a new GormBeneficiaryRepository
func NewGormBeneficiaryRepository(db *gorm.DB) *GormBeneficiaryRepository {
	return &GormBeneficiaryRepository{db: db}
}

// FindByID finds a beneficiary by its ID
func (r *GormBeneficiaryRepository) FindByID(ctx context.Context, id uuid.UUID) (*project.Beneficiary, error) {
	var b project.Beneficiary
	if err := r.db.WithContext(ctx).First(&b, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &b, nil
}

// FindByIDs finds all beneficiaries matching the given IDs
func (r *GormBeneficiaryRepository) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]project.Beneficiary, error) {
	if len(ids) == 0 {
		return []project.Beneficiary{}, nil
	}
	var beneficiaries []project.Beneficiary
	if err := r.db.WithContext(ctx).
		Where("id IN ?", ids).
		Find(&beneficiaries).Error; err != nil {
		return nil, err
	}
	return beneficiaries, nil
}

// Save creates or updates a beneficiary
func (r *GormBeneficiaryRepository) Save(ctx context.Context, b *project.Beneficiary) error {
	return r.db.WithContext(ctx).Save(b).Error
}

// GormVendorBindingRepository implements project.VendorBindingRepository using GORM
type GormVendorBindingRepository struct {
	db *gorm.DB
}

// NewGormVendorBindingRepository creates a new GormVendorBindingRepository
func NewGormVendorBindingRepository(db *gorm.DB) *GormVendorBindingRepository {
	return &GormVendorBindingRepository{db: db}
}

// ExistsActive reports whether the vendor has an active binding to the
// project. This is the authorization gate for redemption.
func (r *GormVendorBindingRepository) ExistsActive(ctx context.Context, projectID, vendorID uuid.UUID) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&project.VendorBinding{}).
		Where("project_id = ? AND vendor_id = ? AND active", projectID, vendorID).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// FindByProjectAndVendors finds the bindings a project holds for the given vendors
func (r *GormVendorBindingRepository) FindByProjectAndVendors(ctx context.Context, projectID uuid.UUID, vendorIDs []uuid.UUID) ([]project.VendorBinding, error) {
	if len(vendorIDs) == 0 {
		return []project.VendorBinding{}, nil
	}
	var bindings []project.VendorBinding
	if err := r.db.WithContext(ctx).
		Where("project_id = ? AND vendor_id IN ?", projectID, vendorIDs).
		Find(&bindings).Error; err != nil {
		return nil, err
	}
	return bindings, nil
}

// SaveAll creates or updates the given bindings
func (r *GormVendorBindingRepository) SaveAll(ctx context.Context, bindings []project.VendorBinding) error {
	if len(bindings) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Save(&bindings).Error
}
