package voucher

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/vres/backend/internal/domain/shared"
	"github.com/vres/backend/internal/domain/voucher"
)

// RedemptionQueryService serves read-only views over redemption records
type RedemptionQueryService struct {
	redemptionRepo voucher.RedemptionRepository
	logger         *zap.Logger
}

// NewRedemptionQueryService creates a new RedemptionQueryService
func NewRedemptionQueryService(redemptionRepo voucher.RedemptionRepository, logger *zap.Logger) *RedemptionQueryService {
	return &RedemptionQueryService{
		redemptionRepo: redemptionRepo,
		logger:         logger,
	}
}

// RedemptionRecord is the API view of a redemption
type RedemptionRecord struct {
	VoucherID         uuid.UUID `json:"voucher_id"`
	VendorID          uuid.UUID `json:"vendor_id"`
	RedeemedAt        time.Time `json:"redeemed_at"`
	GeoLat            float64   `json:"geo_lat"`
	GeoLon            float64   `json:"geo_lon"`
	DeviceFingerprint string    `json:"device_fingerprint"`
}

func toRedemptionRecord(r *voucher.Redemption) RedemptionRecord {
	return RedemptionRecord{
		VoucherID:         r.VoucherID,
		VendorID:          r.VendorID,
		RedeemedAt:        r.RedeemedAt,
		GeoLat:            r.GeoLat,
		GeoLon:            r.GeoLon,
		DeviceFingerprint: r.DeviceFingerprint,
	}
}

// VendorHistory returns a page of the redemptions performed by a vendor,
// newest first. Out-of-range page values fall back to the defaults.
func (s *RedemptionQueryService) VendorHistory(ctx context.Context, vendorID uuid.UUID, page, pageSize int) (shared.Paginated[RedemptionRecord], error) {
	filter := shared.DefaultFilter()
	if page > 0 {
		filter.Page = page
	}
	if pageSize > 0 && pageSize <= 100 {
		filter.PageSize = pageSize
	}

	redemptions, err := s.redemptionRepo.FindByVendorPaginated(ctx, vendorID, filter)
	if err != nil {
		return shared.Paginated[RedemptionRecord]{}, err
	}

	records := make([]RedemptionRecord, 0, len(redemptions.Items))
	for i := range redemptions.Items {
		records = append(records, toRedemptionRecord(&redemptions.Items[i]))
	}
	return shared.NewPaginated(records, redemptions.Total, filter.Page, filter.PageSize), nil
}

// ByVoucher returns the redemption record of a voucher, if it has one
func (s *RedemptionQueryService) ByVoucher(ctx context.Context, voucherID uuid.UUID) (*RedemptionRecord, error) {
	r, err := s.redemptionRepo.FindByVoucher(ctx, voucherID)
	if err != nil {
		return nil, err
	}
	record := toRedemptionRecord(r)
	return &record, nil
}
