package voucher

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

// Voucher code and OTP dimensions
const (
	CodeAlphabet    = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	DefaultCodeLen  = 10
	OTPLength       = 6
	otpUpperBound   = 1000000
)

// CodeGenerator produces candidate voucher codes. Candidates are not
// guaranteed unique; callers collision-check against the voucher store
// and retry, with the store's unique constraint as the final backstop.
type CodeGenerator interface {
	Generate() (string, error)
}

// RandomCodeGenerator generates upper-alphanumeric codes from crypto/rand
type RandomCodeGenerator struct {
	length int
}

// NewRandomCodeGenerator creates a generator producing codes of the given
// length; non-positive lengths fall back to the default.
func NewRandomCodeGenerator(length int) *RandomCodeGenerator {
	if length <= 0 {
		length = DefaultCodeLen
	}
	return &RandomCodeGenerator{length: length}
}

// Generate returns a fresh candidate code
func (g *RandomCodeGenerator) Generate() (string, error) {
	buf := make([]byte, g.length)
	max := big.NewInt(int64(len(CodeAlphabet)))
	for i := range buf {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", fmt.Errorf("failed to generate voucher code: %w", err)
		}
		buf[i] = CodeAlphabet[n.Int64()]
	}
	return string(buf), nil
}

// OTPGenerator produces one-time passwords for redemption confirmation
type OTPGenerator interface {
	Generate() (string, error)
}

// NumericOTPGenerator generates 6-digit zero-padded numeric OTPs
type NumericOTPGenerator struct{}

// NewNumericOTPGenerator creates a NumericOTPGenerator
func NewNumericOTPGenerator() *NumericOTPGenerator {
	return &NumericOTPGenerator{}
}

// Generate returns a fresh OTP
func (g *NumericOTPGenerator) Generate() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(otpUpperBound))
	if err != nil {
		return "", fmt.Errorf("failed to generate OTP: %w", err)
	}
	return fmt.Sprintf("%0*d", OTPLength, n.Int64()), nil
}
