package voucher

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/vres/backend/internal/domain/identity"
	"github.com/vres/backend/internal/domain/project"
	"github.com/vres/backend/internal/domain/voucher"
)

// MockVoucherRepository is a mock implementation of voucher.VoucherRepository
type MockVoucherRepository struct {
	mock.Mock
}

func (m *MockVoucherRepository) FindByID(ctx context.Context, id uuid.UUID) (*voucher.Voucher, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*voucher.Voucher), args.Error(1)
}

func (m *MockVoucherRepository) FindByCode(ctx context.Context, code string) (*voucher.Voucher, error) {
	args := m.Called(ctx, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*voucher.Voucher), args.Error(1)
}

func (m *MockVoucherRepository) ExistsByCode(ctx context.Context, code string) (bool, error) {
	args := m.Called(ctx, code)
	return args.Bool(0), args.Error(1)
}

func (m *MockVoucherRepository) FindByProject(ctx context.Context, projectID uuid.UUID) ([]voucher.Voucher, error) {
	args := m.Called(ctx, projectID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]voucher.Voucher), args.Error(1)
}

func (m *MockVoucherRepository) Save(ctx context.Context, v *voucher.Voucher) error {
	args := m.Called(ctx, v)
	return args.Error(0)
}

func (m *MockVoucherRepository) SaveWithLock(ctx context.Context, v *voucher.Voucher) error {
	args := m.Called(ctx, v)
	return args.Error(0)
}

func (m *MockVoucherRepository) RedeemWithRecord(ctx context.Context, v *voucher.Voucher, r *voucher.Redemption) error {
	args := m.Called(ctx, v, r)
	return args.Error(0)
}

func (m *MockVoucherRepository) CountByStatus(ctx context.Context, projectID uuid.UUID) (map[voucher.Status]int64, error) {
	args := m.Called(ctx, projectID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[voucher.Status]int64), args.Error(1)
}

// MockProjectRepository is a mock implementation of project.ProjectRepository
type MockProjectRepository struct {
	mock.Mock
}

func (m *MockProjectRepository) FindByID(ctx context.Context, id uuid.UUID) (*project.Project, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*project.Project), args.Error(1)
}

func (m *MockProjectRepository) FindByRegistrationEndDate(ctx context.Context, date time.Time) ([]project.Project, error) {
	args := m.Called(ctx, date)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]project.Project), args.Error(1)
}

func (m *MockProjectRepository) Save(ctx context.Context, p *project.Project) error {
	args := m.Called(ctx, p)
	return args.Error(0)
}

// MockBeneficiaryRepository is a mock implementation of project.BeneficiaryRepository
type MockBeneficiaryRepository struct {
	mock.Mock
}

func (m *MockBeneficiaryRepository) FindByID(ctx context.Context, id uuid.UUID) (*project.Beneficiary, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*project.Beneficiary), args.Error(1)
}

func (m *MockBeneficiaryRepository) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]project.Beneficiary, error) {
	args := m.Called(ctx, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]project.Beneficiary), args.Error(1)
}

func (m *MockBeneficiaryRepository) Save(ctx context.Context, b *project.Beneficiary) error {
	args := m.Called(ctx, b)
	return args.Error(0)
}

// MockVendorBindingRepository is a mock implementation of project.VendorBindingRepository
type MockVendorBindingRepository struct {
	mock.Mock
}

func (m *MockVendorBindingRepository) ExistsActive(ctx context.Context, projectID, vendorID uuid.UUID) (bool, error) {
	args := m.Called(ctx, projectID, vendorID)
	return args.Bool(0), args.Error(1)
}

func (m *MockVendorBindingRepository) FindByProjectAndVendors(ctx context.Context, projectID uuid.UUID, vendorIDs []uuid.UUID) ([]project.VendorBinding, error) {
	args := m.Called(ctx, projectID, vendorIDs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]project.VendorBinding), args.Error(1)
}

func (m *MockVendorBindingRepository) SaveAll(ctx context.Context, bindings []project.VendorBinding) error {
	args := m.Called(ctx, bindings)
	return args.Error(0)
}

// MockUserRepository is a mock implementation of identity.UserRepository
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) FindByID(ctx context.Context, id uuid.UUID) (*identity.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*identity.User), args.Error(1)
}

func (m *MockUserRepository) FindByEmail(ctx context.Context, email string) (*identity.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*identity.User), args.Error(1)
}

func (m *MockUserRepository) FindByRole(ctx context.Context, role identity.Role) ([]identity.User, error) {
	args := m.Called(ctx, role)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]identity.User), args.Error(1)
}

func (m *MockUserRepository) Save(ctx context.Context, u *identity.User) error {
	args := m.Called(ctx, u)
	return args.Error(0)
}

// MockObjectStorage is a mock implementation of ObjectStorage
type MockObjectStorage struct {
	mock.Mock
}

func (m *MockObjectStorage) Upload(ctx context.Context, key, contentType string, data []byte) (string, error) {
	args := m.Called(ctx, key, contentType, data)
	return args.String(0), args.Error(1)
}

func (m *MockObjectStorage) Download(ctx context.Context, link string) ([]byte, error) {
	args := m.Called(ctx, link)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

// MockQREncoder is a mock implementation of QREncoder
type MockQREncoder struct {
	mock.Mock
}

func (m *MockQREncoder) Encode(code string, size int) ([]byte, error) {
	args := m.Called(code, size)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

// MockNotificationSender is a mock implementation of NotificationSender
type MockNotificationSender struct {
	mock.Mock
}

func (m *MockNotificationSender) SendSMS(ctx context.Context, phone, message string) error {
	args := m.Called(ctx, phone, message)
	return args.Error(0)
}

// MockEmailSender is a mock implementation of EmailSender
type MockEmailSender struct {
	mock.Mock
}

func (m *MockEmailSender) SendEmail(ctx context.Context, to []string, subject, body string) error {
	args := m.Called(ctx, to, subject, body)
	return args.Error(0)
}

// syncDispatcher runs dispatched tasks inline so tests can assert on their
// side effects without sleeping.
type syncDispatcher struct{}

func (syncDispatcher) Dispatch(name string, task func(ctx context.Context)) {
	task(context.Background())
}

// allowAllLimiter never throttles
type allowAllLimiter struct{}

func (allowAllLimiter) Allow(ctx context.Context, key string) (bool, error) {
	return true, nil
}

// denyLimiter always throttles
type denyLimiter struct{}

func (denyLimiter) Allow(ctx context.Context, key string) (bool, error) {
	return false, nil
}
