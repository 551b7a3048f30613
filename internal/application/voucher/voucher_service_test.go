package voucher

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/vres/backend/internal/domain/project"
	"github.com/vres/backend/internal/domain/shared"
	"github.com/vres/backend/internal/domain/voucher"
	"go.uber.org/zap"
)

type voucherFixture struct {
	voucherRepo *MockVoucherRepository
	projectRepo *MockProjectRepository
	storage     *MockObjectStorage
	service     *VoucherService
}

func newVoucherFixture(t *testing.T) *voucherFixture {
	f := &voucherFixture{
		voucherRepo: new(MockVoucherRepository),
		projectRepo: new(MockProjectRepository),
		storage:     new(MockObjectStorage),
	}
	f.service = NewVoucherService(
		f.voucherRepo, f.projectRepo, f.storage,
		voucher.NewNumericOTPGenerator(),
		DefaultConfig(), zap.NewNop(),
	)
	return f
}

func TestVoucherService_GetCode(t *testing.T) {
	f := newVoucherFixture(t)
	p := activeProject(t)
	v := issuedVoucher(t, p)

	f.voucherRepo.On("FindByID", mock.Anything, v.ID).Return(v, nil)
	f.projectRepo.On("FindByID", mock.Anything, p.ID).Return(p, nil)

	code, err := f.service.GetCode(context.Background(), v.ID)

	require.NoError(t, err)
	assert.Equal(t, v.StringCode, code)
}

func TestVoucherService_GetCode_NotFound(t *testing.T) {
	f := newVoucherFixture(t)
	id := uuid.New()

	f.voucherRepo.On("FindByID", mock.Anything, id).Return(nil, shared.ErrNotFound)

	_, err := f.service.GetCode(context.Background(), id)

	assert.Equal(t, "NOT_FOUND", domainCode(t, err))
}

func TestVoucherService_GetCode_Redeemed(t *testing.T) {
	f := newVoucherFixture(t)
	p := activeProject(t)
	v := issuedVoucher(t, p)
	require.NoError(t, v.Redeem())

	f.voucherRepo.On("FindByID", mock.Anything, v.ID).Return(v, nil)

	_, err := f.service.GetCode(context.Background(), v.ID)

	assert.Equal(t, "INVALID_STATE", domainCode(t, err))
}

func TestVoucherService_GetCode_OutsideWindow(t *testing.T) {
	f := newVoucherFixture(t)
	p, err := project.NewProject("Expired Program", "")
	require.NoError(t, err)
	require.NoError(t, p.SetVoucherTerms(
		time.Now().AddDate(0, -2, 0),
		time.Now().AddDate(0, -1, 0),
		decimal.NewFromInt(100),
	))
	v := issuedVoucher(t, p)

	f.voucherRepo.On("FindByID", mock.Anything, v.ID).Return(v, nil)
	f.projectRepo.On("FindByID", mock.Anything, p.ID).Return(p, nil)

	_, err = f.service.GetCode(context.Background(), v.ID)

	assert.Equal(t, "INVALID_STATE", domainCode(t, err))
}

func TestVoucherService_GetQRImage(t *testing.T) {
	f := newVoucherFixture(t)
	p := activeProject(t)
	v := issuedVoucher(t, p)
	png := []byte{0x89, 0x50, 0x4E, 0x47}

	f.voucherRepo.On("FindByID", mock.Anything, v.ID).Return(v, nil)
	f.projectRepo.On("FindByID", mock.Anything, p.ID).Return(p, nil)
	f.storage.On("Download", mock.Anything, v.QRCodeLink).Return(png, nil)

	data, err := f.service.GetQRImage(context.Background(), v.ID)

	require.NoError(t, err)
	assert.Equal(t, png, data)
}

func TestVoucherService_GetQRImage_DownloadFails(t *testing.T) {
	f := newVoucherFixture(t)
	p := activeProject(t)
	v := issuedVoucher(t, p)

	f.voucherRepo.On("FindByID", mock.Anything, v.ID).Return(v, nil)
	f.projectRepo.On("FindByID", mock.Anything, p.ID).Return(p, nil)
	f.storage.On("Download", mock.Anything, v.QRCodeLink).Return(nil, errors.New("bucket unavailable"))

	_, err := f.service.GetQRImage(context.Background(), v.ID)

	assert.Error(t, err, "the blob download is the operation itself, failures surface")
}

func TestVoucherService_IssueOTP(t *testing.T) {
	f := newVoucherFixture(t)
	p := activeProject(t)
	v := issuedVoucher(t, p)

	f.voucherRepo.On("FindByID", mock.Anything, v.ID).Return(v, nil)
	f.projectRepo.On("FindByID", mock.Anything, p.ID).Return(p, nil)
	f.voucherRepo.On("SaveWithLock", mock.Anything, v).Return(nil)

	otp, err := f.service.IssueOTP(context.Background(), v.ID)

	require.NoError(t, err)
	assert.Len(t, otp, voucher.OTPLength)
	require.NotNil(t, v.RedemptionOTP)
	assert.Equal(t, otp, *v.RedemptionOTP)
}

func TestVoucherService_StatusCounts(t *testing.T) {
	f := newVoucherFixture(t)
	p := activeProject(t)

	f.projectRepo.On("FindByID", mock.Anything, p.ID).Return(p, nil)
	f.voucherRepo.On("CountByStatus", mock.Anything, p.ID).Return(map[voucher.Status]int64{
		voucher.StatusIssued:   7,
		voucher.StatusRedeemed: 3,
	}, nil)

	counts, err := f.service.StatusCounts(context.Background(), p.ID)

	require.NoError(t, err)
	assert.Equal(t, int64(7), counts.Issued)
	assert.Equal(t, int64(3), counts.Redeemed)
	assert.Equal(t, int64(10), counts.Total)
}
