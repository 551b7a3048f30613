package voucher

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/vres/backend/internal/domain/project"
	"github.com/vres/backend/internal/domain/shared"
	"github.com/vres/backend/internal/domain/voucher"
	"go.uber.org/zap"
)

// Config carries the tunables of the voucher engine
type Config struct {
	OTPValidity     time.Duration // how long an issued OTP stays valid
	CodeLength      int           // length of generated voucher codes
	CodeMaxAttempts int           // candidates tried before giving up on a unique code
	QRSize          int           // QR image edge length in pixels
}

// DefaultConfig returns the default engine configuration
func DefaultConfig() Config {
	return Config{
		OTPValidity:     5 * time.Minute,
		CodeLength:      voucher.DefaultCodeLen,
		CodeMaxAttempts: 10,
		QRSize:          300,
	}
}

// VoucherService handles voucher query and maintenance operations
type VoucherService struct {
	voucherRepo voucher.VoucherRepository
	projectRepo project.ProjectRepository
	storage     ObjectStorage
	otpGen      voucher.OTPGenerator
	config      Config
	logger      *zap.Logger
}

// NewVoucherService creates a new VoucherService
func NewVoucherService(
	voucherRepo voucher.VoucherRepository,
	projectRepo project.ProjectRepository,
	storage ObjectStorage,
	otpGen voucher.OTPGenerator,
	config Config,
	logger *zap.Logger,
) *VoucherService {
	return &VoucherService{
		voucherRepo: voucherRepo,
		projectRepo: projectRepo,
		storage:     storage,
		otpGen:      otpGen,
		config:      config,
		logger:      logger,
	}
}

// GetCode returns the string code of a redeemable voucher.
// The voucher must be ISSUED and inside its project's validity window.
func (s *VoucherService) GetCode(ctx context.Context, id uuid.UUID) (string, error) {
	v, err := s.loadValidated(ctx, id)
	if err != nil {
		return "", err
	}
	return v.StringCode, nil
}

// GetQRImage returns the rendered QR image bytes of a redeemable voucher.
// Unlike notification side effects, the blob download IS the operation here,
// so a storage failure is surfaced to the caller.
func (s *VoucherService) GetQRImage(ctx context.Context, id uuid.UUID) ([]byte, error) {
	v, err := s.loadValidated(ctx, id)
	if err != nil {
		return nil, err
	}

	data, err := s.storage.Download(ctx, v.QRCodeLink)
	if err != nil {
		s.logger.Error("Failed to download QR image",
			zap.String("voucher_id", id.String()),
			zap.String("link", v.QRCodeLink),
			zap.Error(err))
		return nil, fmt.Errorf("failed to download QR image: %w", err)
	}
	return data, nil
}

// IssueOTP generates and persists a fresh OTP for a voucher and returns it.
// Maintenance path for support staff; the regular flow delivers the OTP by SMS.
func (s *VoucherService) IssueOTP(ctx context.Context, id uuid.UUID) (string, error) {
	v, err := s.loadValidated(ctx, id)
	if err != nil {
		return "", err
	}

	otp, err := s.otpGen.Generate()
	if err != nil {
		return "", err
	}
	if err := v.AttachOTP(otp, time.Now()); err != nil {
		return "", err
	}
	if err := s.voucherRepo.SaveWithLock(ctx, v); err != nil {
		return "", err
	}

	s.logger.Info("OTP issued via maintenance path", zap.String("voucher_id", id.String()))
	return otp, nil
}

// StatusCounts reports how many vouchers of a project sit in each status
func (s *VoucherService) StatusCounts(ctx context.Context, projectID uuid.UUID) (*StatusCountsResponse, error) {
	if _, err := s.projectRepo.FindByID(ctx, projectID); err != nil {
		return nil, err
	}

	counts, err := s.voucherRepo.CountByStatus(ctx, projectID)
	if err != nil {
		return nil, err
	}

	resp := &StatusCountsResponse{
		Issued:   counts[voucher.StatusIssued],
		Redeemed: counts[voucher.StatusRedeemed],
	}
	resp.Total = resp.Issued + resp.Redeemed
	return resp, nil
}

// loadValidated fetches a voucher and checks it is currently redeemable:
// status ISSUED and today inside the project's validity window.
func (s *VoucherService) loadValidated(ctx context.Context, id uuid.UUID) (*voucher.Voucher, error) {
	v, err := s.voucherRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !v.IsIssued() {
		return nil, shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Voucher is not redeemable in %s status", v.Status))
	}

	p, err := s.projectRepo.FindByID(ctx, v.ProjectID)
	if err != nil {
		return nil, err
	}
	if !p.WithinValidityWindow(time.Now()) {
		return nil, shared.NewDomainError("INVALID_STATE", "Voucher is outside its validity period")
	}

	return v, nil
}
