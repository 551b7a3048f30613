package voucher

import (
	"time"

	"github.com/google/uuid"
	"github.com/vres/backend/internal/domain/shared"
)

// DefaultDeviceFingerprint is recorded when the redeeming client does not
// supply a fingerprint of its own.
const DefaultDeviceFingerprint = "default-device-fingerprint"

// Redemption is the durable record of a completed voucher confirmation.
// Exactly one row exists per redeemed voucher; it is never mutated after
// creation.
type Redemption struct {
	shared.BaseEntity
	VoucherID         uuid.UUID `gorm:"type:uuid;not null;uniqueIndex"`
	VendorID          uuid.UUID `gorm:"type:uuid;not null;index"`
	RedeemedAt        time.Time `gorm:"not null"`
	GeoLat            float64   `gorm:"not null;default:0"`
	GeoLon            float64   `gorm:"not null;default:0"`
	DeviceFingerprint string    `gorm:"not null"`
}

// NewRedemption creates the redemption record for a confirmed voucher.
// Missing geo coordinates default to 0.0 and a missing fingerprint to the
// sentinel value, matching what point-of-service clients actually send.
func NewRedemption(voucherID, vendorID uuid.UUID, geoLat, geoLon *float64, deviceFingerprint string) (*Redemption, error) {
	if voucherID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_VOUCHER", "Voucher ID cannot be empty")
	}
	if vendorID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_VENDOR", "Vendor ID cannot be empty")
	}

	lat, lon := 0.0, 0.0
	if geoLat != nil {
		lat = *geoLat
	}
	if geoLon != nil {
		lon = *geoLon
	}
	if deviceFingerprint == "" {
		deviceFingerprint = DefaultDeviceFingerprint
	}

	return &Redemption{
		BaseEntity:        shared.NewBaseEntity(),
		VoucherID:         voucherID,
		VendorID:          vendorID,
		RedeemedAt:        time.Now(),
		GeoLat:            lat,
		GeoLon:            lon,
		DeviceFingerprint: deviceFingerprint,
	}, nil
}
