package voucher

import (
	"context"
	"fmt"
	"time"

	"github.com/vres/backend/internal/domain/identity"
	"github.com/vres/backend/internal/domain/project"
	"github.com/vres/backend/internal/domain/shared"
	"github.com/vres/backend/internal/domain/voucher"
	"go.uber.org/zap"
)

// RedemptionService orchestrates the two-step redemption of a voucher:
// Initiate issues an OTP to the beneficiary, Confirm validates it and
// applies the terminal REDEEMED transition.
type RedemptionService struct {
	voucherRepo voucher.VoucherRepository
	projectRepo project.ProjectRepository
	benefRepo   project.BeneficiaryRepository
	bindingRepo project.VendorBindingRepository
	userRepo    identity.UserRepository
	otpGen      voucher.OTPGenerator
	sms         NotificationSender
	dispatcher  Dispatcher
	limiter     AttemptLimiter
	config      Config
	logger      *zap.Logger
}

// NewRedemptionService creates a new RedemptionService
func NewRedemptionService(
	voucherRepo voucher.VoucherRepository,
	projectRepo project.ProjectRepository,
	benefRepo project.BeneficiaryRepository,
	bindingRepo project.VendorBindingRepository,
	userRepo identity.UserRepository,
	otpGen voucher.OTPGenerator,
	sms NotificationSender,
	dispatcher Dispatcher,
	limiter AttemptLimiter,
	config Config,
	logger *zap.Logger,
) *RedemptionService {
	return &RedemptionService{
		voucherRepo: voucherRepo,
		projectRepo: projectRepo,
		benefRepo:   benefRepo,
		bindingRepo: bindingRepo,
		userRepo:    userRepo,
		otpGen:      otpGen,
		sms:         sms,
		dispatcher:  dispatcher,
		limiter:     limiter,
		config:      config,
		logger:      logger,
	}
}

// Initiate starts a redemption attempt for a voucher code on behalf of a
// vendor. On success an OTP is stored on the voucher and delivered to the
// beneficiary's phone; the voucher status itself does not change.
func (s *RedemptionService) Initiate(ctx context.Context, req InitiateRedemptionRequest) error {
	if err := s.checkAttempts(ctx, "initiate", req.VoucherCode); err != nil {
		return err
	}

	v, err := s.voucherRepo.FindByCode(ctx, req.VoucherCode)
	if err != nil {
		return err
	}

	authorized, err := s.bindingRepo.ExistsActive(ctx, v.ProjectID, req.VendorID)
	if err != nil {
		return err
	}
	if !authorized {
		return shared.NewDomainError("UNAUTHORIZED", "Vendor is not authorized for this project")
	}

	if !v.IsIssued() {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Voucher cannot be redeemed in %s status", v.Status))
	}

	p, err := s.projectRepo.FindByID(ctx, v.ProjectID)
	if err != nil {
		return err
	}
	if !p.WithinValidityWindow(time.Now()) {
		return shared.NewDomainError("INVALID_STATE", "Voucher is outside its validity period")
	}

	otp, err := s.otpGen.Generate()
	if err != nil {
		return err
	}
	if err := v.AttachOTP(otp, time.Now()); err != nil {
		return err
	}
	if err := s.voucherRepo.SaveWithLock(ctx, v); err != nil {
		return err
	}

	s.logger.Info("Redemption initiated",
		zap.String("voucher_code", req.VoucherCode),
		zap.String("vendor_id", req.VendorID.String()))

	s.notifyOTP(ctx, v, otp)
	return nil
}

// Confirm validates the OTP for a voucher code and, if everything holds,
// redeems the voucher and records the redemption as one atomic unit.
// An expired OTP is cleared and reported as OTP_EXPIRED; the voucher is
// then open for a fresh Initiate.
func (s *RedemptionService) Confirm(ctx context.Context, req ConfirmRedemptionRequest) error {
	if err := s.checkAttempts(ctx, "confirm", req.VoucherCode); err != nil {
		return err
	}

	v, err := s.voucherRepo.FindByCode(ctx, req.VoucherCode)
	if err != nil {
		return err
	}

	// A redeemed voucher has its OTP cleared; without this guard a repeat
	// confirmation would read as a bad OTP instead of a terminal state.
	if v.IsRedeemed() {
		return shared.NewDomainError("INVALID_STATE", "Voucher has already been redeemed")
	}

	if !v.OTPMatches(req.OTP) {
		return shared.NewDomainError("INVALID_INPUT", "Invalid OTP")
	}

	if v.OTPExpired(time.Now(), s.config.OTPValidity) {
		v.ClearOTP()
		if err := s.voucherRepo.SaveWithLock(ctx, v); err != nil {
			return err
		}
		return shared.ErrOTPExpired
	}

	vendor, err := s.userRepo.FindByID(ctx, req.VendorID)
	if err != nil {
		return err
	}

	if !v.IsIssued() {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Voucher cannot be redeemed in %s status", v.Status))
	}

	r, err := voucher.NewRedemption(v.ID, vendor.ID, req.GeoLat, req.GeoLon, req.DeviceFingerprint)
	if err != nil {
		return err
	}
	if err := v.Redeem(); err != nil {
		return err
	}
	if err := s.voucherRepo.RedeemWithRecord(ctx, v, r); err != nil {
		return err
	}

	s.logger.Info("Voucher redeemed",
		zap.String("voucher_code", req.VoucherCode),
		zap.String("vendor_id", vendor.ID.String()))

	return nil
}

// checkAttempts guards the OTP challenge against brute forcing. A limiter
// failure is logged and treated as allowed; throttling is protection, not
// a dependency.
func (s *RedemptionService) checkAttempts(ctx context.Context, op, code string) error {
	allowed, err := s.limiter.Allow(ctx, fmt.Sprintf("redemption:%s:%s", op, code))
	if err != nil {
		s.logger.Warn("Attempt limiter unavailable", zap.String("op", op), zap.Error(err))
		return nil
	}
	if !allowed {
		return shared.NewDomainError("INVALID_INPUT", "Too many attempts, try again later")
	}
	return nil
}

// notifyOTP delivers the OTP to the beneficiary after it has been
// persisted. Fire-and-forget; a missing or malformed phone is skipped.
func (s *RedemptionService) notifyOTP(ctx context.Context, v *voucher.Voucher, otp string) {
	b, err := s.benefRepo.FindByID(ctx, v.BeneficiaryID)
	if err != nil {
		s.logger.Warn("Failed to load beneficiary for OTP delivery",
			zap.String("beneficiary_id", v.BeneficiaryID.String()),
			zap.Error(err))
		return
	}
	if !b.HasDeliverablePhone() {
		return
	}
	phone, code := b.Phone, v.StringCode
	validity := s.config.OTPValidity
	s.dispatcher.Dispatch("redemption-otp-sms", func(ctx context.Context) {
		msg := fmt.Sprintf("Your voucher redemption code is %s. It expires in %d minutes.", otp, int(validity.Minutes()))
		if err := s.sms.SendSMS(ctx, phone, msg); err != nil {
			s.logger.Warn("Failed to send OTP SMS",
				zap.String("voucher_code", code),
				zap.Error(err))
		}
	})
}
