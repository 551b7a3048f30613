package voucher

import (
	"context"

	"github.com/google/uuid"
	"github.com/vres/backend/internal/domain/shared"
)

// VoucherRepository defines the interface for voucher persistence
type VoucherRepository interface {
	// FindByID finds a voucher by ID
	FindByID(ctx context.Context, id uuid.UUID) (*Voucher, error)

	// FindByCode finds a voucher by its unique string code
	FindByCode(ctx context.Context, code string) (*Voucher, error)

	// ExistsByCode reports whether a voucher with the given code exists
	ExistsByCode(ctx context.Context, code string) (bool, error)

	// FindByProject finds all vouchers issued for a project
	FindByProject(ctx context.Context, projectID uuid.UUID) ([]Voucher, error)

	// Save creates or updates a voucher
	Save(ctx context.Context, v *Voucher) error

	// SaveWithLock updates a voucher with an optimistic version check.
	// A stale version fails with CONCURRENCY_CONFLICT.
	SaveWithLock(ctx context.Context, v *Voucher) error

	// RedeemWithRecord applies the REDEEMED transition and inserts the
	// redemption record as one atomic unit. The status and version are
	// re-checked inside the transaction so two concurrent confirmations
	// of the same voucher can never both succeed.
	RedeemWithRecord(ctx context.Context, v *Voucher, r *Redemption) error

	// CountByStatus counts vouchers per status for a project
	CountByStatus(ctx context.Context, projectID uuid.UUID) (map[Status]int64, error)
}

// RedemptionRepository defines the interface for redemption record persistence
type RedemptionRepository interface {
	// FindByVoucher finds the redemption record for a voucher, if any
	FindByVoucher(ctx context.Context, voucherID uuid.UUID) (*Redemption, error)

	// FindByVendor finds all redemptions performed by a vendor
	FindByVendor(ctx context.Context, vendorID uuid.UUID) ([]Redemption, error)

	// FindByVendorPaginated returns a page of a vendor's redemptions,
	// newest first
	FindByVendorPaginated(ctx context.Context, vendorID uuid.UUID, filter shared.Filter) (shared.Paginated[Redemption], error)

	// CountByVoucher counts redemption rows for a voucher
	CountByVoucher(ctx context.Context, voucherID uuid.UUID) (int64, error)
}
