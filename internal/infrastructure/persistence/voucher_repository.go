package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/vres/backend/internal/domain/shared"
	"github.com/vres/backend/internal/domain/voucher"
	"gorm.io/gorm"
)

// GormVoucherRepository implements voucher.VoucherRepository using GORM
type GormVoucherRepository struct {
	db *gorm.DB
}

// NewGormVoucherRepository creates a new GormVoucherRepository
func NewGormVoucherRepository(db *gorm.DB) *GormVoucherRepository {
	return &GormVoucherRepository{db: db}
}

// FindByID finds a voucher by its ID
func (r *GormVoucherRepository) FindByID(ctx context.Context, id uuid.UUID) (*voucher.Voucher, error) {
	var v voucher.Voucher
	if err := r.db.WithContext(ctx).First(&v, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &v, nil
}

// FindByCode finds a voucher by its unique string code
func (r *GormVoucherRepository) FindByCode(ctx context.Context, code string) (*voucher.Voucher, error) {
	var v voucher.Voucher
	if err := r.db.WithContext(ctx).First(&v, "string_code = ?", code).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &v, nil
}

// ExistsByCode reports whether a voucher with the given code exists
func (r *GormVoucherRepository) ExistsByCode(ctx context.Context, code string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&voucher.Voucher{}).
		Where("string_code = ?", code).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// FindByProject finds all vouchers issued for a project
func (r *GormVoucherRepository) FindByProject(ctx context.Context, projectID uuid.UUID) ([]voucher.Voucher, error) {
	var vouchers []voucher.Voucher
	if err := r.db.WithContext(ctx).
		Where("project_id = ?", projectID).
		Order("issued_at").
		Find(&vouchers).Error; err != nil {
		return nil, err
	}
	return vouchers, nil
}

// Save creates or updates a voucher. A unique-constraint violation on the
// string code is reported as ALREADY_EXISTS so issuance can retry with a
// fresh candidate.
func (r *GormVoucherRepository) Save(ctx context.Context, v *voucher.Voucher) error {
	if err := r.db.WithContext(ctx).Save(v).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return shared.ErrAlreadyExists
		}
		return err
	}
	return nil
}

// SaveWithLock saves with optimistic locking (version check)
func (r *GormVoucherRepository) SaveWithLock(ctx context.Context, v *voucher.Voucher) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		currentVersion := v.Version
		v.Version++
		v.UpdatedAt = time.Now()

		result := tx.Model(&voucher.Voucher{}).
			Where("id = ? AND version = ?", v.ID, currentVersion).
			Updates(map[string]interface{}{
				"status":                    v.Status,
				"redemption_otp":            v.RedemptionOTP,
				"redemption_otp_issued_at":  v.RedemptionOTPIssuedAt,
				"version":                   v.Version,
				"updated_at":                v.UpdatedAt,
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			v.Version = currentVersion
			return shared.ErrConcurrencyConflict
		}
		return nil
	})
}

// RedeemWithRecord applies the REDEEMED transition and inserts the
// redemption record as one atomic unit. The conditional update re-checks
// status and version inside the transaction so two concurrent
// confirmations of the same voucher can never both succeed.
func (r *GormVoucherRepository) RedeemWithRecord(ctx context.Context, v *voucher.Voucher, rec *voucher.Redemption) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		currentVersion := v.Version
		v.Version++
		v.UpdatedAt = time.Now()

		result := tx.Model(&voucher.Voucher{}).
			Where("id = ? AND status = ? AND version = ?", v.ID, voucher.StatusIssued, currentVersion).
			Updates(map[string]interface{}{
				"status":                    voucher.StatusRedeemed,
				"redemption_otp":            nil,
				"redemption_otp_issued_at":  nil,
				"version":                   v.Version,
				"updated_at":                v.UpdatedAt,
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			v.Version = currentVersion
			// Distinguish a lost race from a stale aggregate
			var status voucher.Status
			if err := tx.Model(&voucher.Voucher{}).
				Where("id = ?", v.ID).
				Select("status").
				Scan(&status).Error; err != nil {
				return err
			}
			if status == voucher.StatusRedeemed {
				return shared.NewDomainError("INVALID_STATE", "Voucher has already been redeemed")
			}
			return shared.ErrConcurrencyConflict
		}

		if err := tx.Create(rec).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return shared.NewDomainError("INVALID_STATE", "Voucher has already been redeemed")
			}
			return err
		}
		return nil
	})
}

// CountByStatus counts vouchers per status for a project
func (r *GormVoucherRepository) CountByStatus(ctx context.Context, projectID uuid.UUID) (map[voucher.Status]int64, error) {
	type row struct {
		Status voucher.Status
		Count  int64
	}
	var rows []row
	if err := r.db.WithContext(ctx).Model(&voucher.Voucher{}).
		Select("status, count(*) as count").
		Where("project_id = ?", projectID).
		Group("status").
		Scan(&rows).Error; err != nil {
		return nil, err
	}

	counts := make(map[voucher.Status]int64, len(rows))
	for _, r := range rows {
		counts[r.Status] = r.Count
	}
	return counts, nil
}

// GormRedemptionRepository implements voucher.RedemptionRepository using GORM
type GormRedemptionRepository struct {
	db *gorm.DB
}

// NewGormRedemptionRepository creates a new GormRedemptionRepository
func NewGormRedemptionRepository(db *gorm.DB) *GormRedemptionRepository {
	return &GormRedemptionRepository{db: db}
}

// FindByVoucher finds the redemption record for a voucher, if any
func (r *GormRedemptionRepository) FindByVoucher(ctx context.Context, voucherID uuid.UUID) (*voucher.Redemption, error) {
	var rec voucher.Redemption
	if err := r.db.WithContext(ctx).First(&rec, "voucher_id = ?", voucherID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &rec, nil
}

// FindByVendor finds all redemptions performed by a vendor
func (r *GormRedemptionRepository) FindByVendor(ctx context.Context, vendorID uuid.UUID) ([]voucher.Redemption, error) {
	var recs []voucher.Redemption
	if err := r.db.WithContext(ctx).
		Where("vendor_id = ?", vendorID).
		Order("redeemed_at desc").
		Find(&recs).Error; err != nil {
		return nil, err
	}
	return recs, nil
}

// FindByVendorPaginated returns a page of a vendor's redemptions, newest
// first
func (r *GormRedemptionRepository) FindByVendorPaginated(ctx context.Context, vendorID uuid.UUID, filter shared.Filter) (shared.Paginated[voucher.Redemption], error) {
	var zero shared.Paginated[voucher.Redemption]

	var total int64
	if err := r.db.WithContext(ctx).Model(&voucher.Redemption{}).
		Where("vendor_id = ?", vendorID).
		Count(&total).Error; err != nil {
		return zero, err
	}

	var recs []voucher.Redemption
	offset := (filter.Page - 1) * filter.PageSize
	if err := r.db.WithContext(ctx).
		Where("vendor_id = ?", vendorID).
		Order("redeemed_at desc").
		Offset(offset).
		Limit(filter.PageSize).
		Find(&recs).Error; err != nil {
		return zero, err
	}

	return shared.NewPaginated(recs, total, filter.Page, filter.PageSize), nil
}

// CountByVoucher counts redemption rows for a voucher
func (r *GormRedemptionRepository) CountByVoucher(ctx context.Context, voucherID uuid.UUID) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&voucher.Redemption{}).
		Where("voucher_id = ?", voucherID).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}
