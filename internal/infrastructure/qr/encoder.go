// Package qr renders voucher codes as QR images.
package qr

import (
	"errors"
	"fmt"

	qrcode "github.com/skip2/go-qrcode"
	voucherapp "github.com/vres/backend/internal/application/voucher"
)

var _ voucherapp.QREncoder = (*Encoder)(nil)

// Encoder renders a voucher code into a PNG QR image.
// Medium error correction keeps the image scannable on worn receipts
// without inflating the payload.
type Encoder struct {
	level qrcode.RecoveryLevel
}

// NewEncoder creates an Encoder with medium error correction
func NewEncoder() *Encoder {
	return &Encoder{level: qrcode.Medium}
}

// Encode renders the code as a size x size PNG
func (e *Encoder) Encode(code string, size int) ([]byte, error) {
	if code == "" {
		return nil, errors.New("code is required")
	}
	if size <= 0 {
		return nil, fmt.Errorf("invalid QR size %d", size)
	}

	png, err := qrcode.Encode(code, e.level, size)
	if err != nil {
		return nil, fmt.Errorf("failed to encode QR image: %w", err)
	}
	return png, nil
}
