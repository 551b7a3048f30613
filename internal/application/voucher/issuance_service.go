package voucher

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/vres/backend/internal/domain/project"
	"github.com/vres/backend/internal/domain/shared"
	"github.com/vres/backend/internal/domain/voucher"
	"go.uber.org/zap"
)

// IssuanceService runs the batch voucher issuance pipeline for a project
type IssuanceService struct {
	voucherRepo     voucher.VoucherRepository
	projectRepo     project.ProjectRepository
	beneficiaryRepo project.BeneficiaryRepository
	bindingRepo     project.VendorBindingRepository
	codeGen         voucher.CodeGenerator
	qrEncoder       QREncoder
	storage         ObjectStorage
	sms             NotificationSender
	dispatcher      Dispatcher
	config          Config
	logger          *zap.Logger
}

// NewIssuanceService creates a new IssuanceService
func NewIssuanceService(
	voucherRepo voucher.VoucherRepository,
	projectRepo project.ProjectRepository,
	beneficiaryRepo project.BeneficiaryRepository,
	bindingRepo project.VendorBindingRepository,
	codeGen voucher.CodeGenerator,
	qrEncoder QREncoder,
	storage ObjectStorage,
	sms NotificationSender,
	dispatcher Dispatcher,
	config Config,
	logger *zap.Logger,
) *IssuanceService {
	return &IssuanceService{
		voucherRepo:     voucherRepo,
		projectRepo:     projectRepo,
		beneficiaryRepo: beneficiaryRepo,
		bindingRepo:     bindingRepo,
		codeGen:         codeGen,
		qrEncoder:       qrEncoder,
		storage:         storage,
		sms:             sms,
		dispatcher:      dispatcher,
		config:          config,
		logger:          logger,
	}
}

// IssueVouchers issues one voucher per beneficiary of a project.
//
// Preconditions are checked before any mutation and fail the whole call:
// the registration period must have closed, the validity window must be
// well-formed, and every beneficiary ID must resolve. Once past them, the
// validity window and points are persisted, the supplied vendors are
// activated, and the per-beneficiary loop runs partial-failure tolerant:
// one beneficiary's code/QR/persist failure is counted and logged, never
// aborting the batch.
func (s *IssuanceService) IssueVouchers(ctx context.Context, projectID uuid.UUID, req IssueVouchersRequest) (*IssuanceResult, error) {
	p, err := s.projectRepo.FindByID(ctx, projectID)
	if err != nil {
		return nil, err
	}

	if !p.RegistrationClosed(time.Now()) {
		return nil, shared.NewDomainError("INVALID_STATE", "Vouchers cannot be issued before the registration period has closed")
	}
	if req.ValidFrom == nil || req.ValidTill == nil {
		return nil, shared.NewDomainError("INVALID_INPUT", "Voucher validity start and end dates cannot be empty")
	}

	beneficiaries, err := s.beneficiaryRepo.FindByIDs(ctx, req.BeneficiaryIDs)
	if err != nil {
		return nil, err
	}
	if len(beneficiaries) != len(req.BeneficiaryIDs) {
		return nil, shared.NewDomainError("NOT_FOUND", "One or more beneficiaries do not exist")
	}

	// Validity window and points are persisted once, before the loop
	if err := p.SetVoucherTerms(*req.ValidFrom, *req.ValidTill, req.Points); err != nil {
		return nil, err
	}
	if err := s.projectRepo.Save(ctx, p); err != nil {
		return nil, err
	}

	if err := s.activateVendors(ctx, projectID, req.VendorIDs); err != nil {
		return nil, err
	}

	result := &IssuanceResult{}
	for i := range beneficiaries {
		b := &beneficiaries[i]
		v, err := s.issueOne(ctx, p, b)
		if err != nil {
			result.FailureCount++
			result.Failed = append(result.Failed, b.ID)
			s.logger.Error("Failed to issue voucher",
				zap.String("project_id", projectID.String()),
				zap.String("beneficiary_id", b.ID.String()),
				zap.Error(err))
			continue
		}
		result.SuccessCount++
		s.notifyIssued(b, v, p)
	}

	s.logger.Info("Voucher issuance batch completed",
		zap.String("project_id", projectID.String()),
		zap.Int("success", result.SuccessCount),
		zap.Int("failure", result.FailureCount))

	return result, nil
}

// issueOne generates a unique code, renders and uploads the QR image, and
// persists the voucher for a single beneficiary.
func (s *IssuanceService) issueOne(ctx context.Context, p *project.Project, b *project.Beneficiary) (*voucher.Voucher, error) {
	for attempt := 0; attempt < s.config.CodeMaxAttempts; attempt++ {
		code, err := s.codeGen.Generate()
		if err != nil {
			return nil, err
		}
		exists, err := s.voucherRepo.ExistsByCode(ctx, code)
		if err != nil {
			return nil, err
		}
		if exists {
			continue
		}

		png, err := s.qrEncoder.Encode(code, s.config.QRSize)
		if err != nil {
			return nil, err
		}
		link, err := s.storage.Upload(ctx, fmt.Sprintf("qr/%s.png", code), "image/png", png)
		if err != nil {
			return nil, err
		}

		v, err := voucher.NewVoucher(p.ID, b.ID, code, link)
		if err != nil {
			return nil, err
		}
		if err := s.voucherRepo.Save(ctx, v); err != nil {
			// The unique constraint on string_code is the backstop for the
			// check-then-insert race; a collision gets a fresh candidate.
			if errors.Is(err, shared.ErrAlreadyExists) {
				continue
			}
			return nil, err
		}
		return v, nil
	}
	return nil, shared.ErrCodeSpaceExhausted
}

// activateVendors binds the supplied vendors to the project with the active
// flag set, creating missing bindings and re-activating existing ones.
func (s *IssuanceService) activateVendors(ctx context.Context, projectID uuid.UUID, vendorIDs []uuid.UUID) error {
	if len(vendorIDs) == 0 {
		return nil
	}

	existing, err := s.bindingRepo.FindByProjectAndVendors(ctx, projectID, vendorIDs)
	if err != nil {
		return err
	}
	bound := make(map[uuid.UUID]bool, len(existing))
	for i := range existing {
		existing[i].Activate()
		bound[existing[i].VendorID] = true
	}

	bindings := existing
	for _, vendorID := range vendorIDs {
		if bound[vendorID] {
			continue
		}
		vb, err := project.NewVendorBinding(projectID, vendorID)
		if err != nil {
			return err
		}
		vb.Activate()
		bindings = append(bindings, *vb)
	}

	return s.bindingRepo.SaveAll(ctx, bindings)
}

// notifyIssued dispatches the issuance SMS after the voucher has been
// persisted. Delivery is fire-and-forget; failures are logged only.
func (s *IssuanceService) notifyIssued(b *project.Beneficiary, v *voucher.Voucher, p *project.Project) {
	if !b.HasDeliverablePhone() {
		return
	}
	phone, code, points := b.Phone, v.StringCode, p.VoucherPoints.String()
	s.dispatcher.Dispatch("voucher-issued-sms", func(ctx context.Context) {
		msg := fmt.Sprintf("Your benefit voucher %s worth %s points has been issued. Present it at any participating vendor.", code, points)
		if err := s.sms.SendSMS(ctx, phone, msg); err != nil {
			s.logger.Warn("Failed to send issuance SMS",
				zap.String("voucher_code", code),
				zap.Error(err))
		}
	})
}
