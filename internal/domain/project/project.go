package project

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/vres/backend/internal/domain/shared"
)

// Project status values as used by the onboarding workflow.
// The voucher engine only reads these; onboarding owns the transitions.
const (
	StatusDraft           = "Draft"
	StatusInProgress      = "In Progress"
	StatusApprovalPending = "Approval Pending"
)

// Project carries the benefit program a voucher belongs to. The voucher
// engine consumes its validity window and reward points; roster and role
// management are owned by external collaborators.
type Project struct {
	shared.BaseAggregateRoot
	Title               string `gorm:"not null;uniqueIndex"`
	Description         string
	Status              string `gorm:"not null;default:'Draft'"`
	RegistrationEndDate *time.Time
	VoucherValidFrom    *time.Time
	VoucherValidTill    *time.Time
	VoucherPoints       decimal.Decimal `gorm:"type:numeric(12,2)"`
}

// NewProject creates a project in Draft status
func NewProject(title, description string) (*Project, error) {
	if title == "" {
		return nil, shared.NewDomainError("INVALID_TITLE", "Project title cannot be empty")
	}

	return &Project{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Title:             title,
		Description:       description,
		Status:            StatusDraft,
		VoucherPoints:     decimal.Zero,
	}, nil
}

// SetVoucherTerms records the validity window and reward value vouchers of
// this project carry. Both bounds must be set, with till on or after from.
func (p *Project) SetVoucherTerms(validFrom, validTill time.Time, points decimal.Decimal) error {
	if validFrom.IsZero() || validTill.IsZero() {
		return shared.NewDomainError("INVALID_INPUT", "Voucher validity start and end dates cannot be empty")
	}
	if validTill.Before(validFrom) {
		return shared.NewDomainError("INVALID_INPUT", "Voucher validity end date cannot be before the start date")
	}
	if points.IsNegative() {
		return shared.NewDomainError("INVALID_INPUT", "Voucher points cannot be negative")
	}

	from := truncateToDate(validFrom)
	till := truncateToDate(validTill)
	p.VoucherValidFrom = &from
	p.VoucherValidTill = &till
	p.VoucherPoints = points
	p.UpdatedAt = time.Now()

	return nil
}

// RegistrationClosed reports whether the beneficiary registration period
// has ended. Vouchers may only be issued after it has.
func (p *Project) RegistrationClosed(today time.Time) bool {
	if p.RegistrationEndDate == nil {
		return false
	}
	return !truncateToDate(today).Before(truncateToDate(*p.RegistrationEndDate))
}

// HasValidityWindow reports whether both validity bounds are set
func (p *Project) HasValidityWindow() bool {
	return p.VoucherValidFrom != nil && p.VoucherValidTill != nil
}

// WithinValidityWindow reports whether today falls inside the inclusive
// redemption window. Projects with unset bounds are never within window.
func (p *Project) WithinValidityWindow(today time.Time) bool {
	if !p.HasValidityWindow() {
		return false
	}
	d := truncateToDate(today)
	return !d.Before(truncateToDate(*p.VoucherValidFrom)) && !d.After(truncateToDate(*p.VoucherValidTill))
}

// MarkApprovalPending moves an in-progress project to Approval Pending
// once its registration period has ended.
func (p *Project) MarkApprovalPending() {
	if p.Status == StatusInProgress {
		p.Status = StatusApprovalPending
		p.UpdatedAt = time.Now()
	}
}

func truncateToDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
