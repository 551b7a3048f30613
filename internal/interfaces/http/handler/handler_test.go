package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	appidentity "github.com/vres/backend/internal/application/identity"
	appvoucher "github.com/vres/backend/internal/application/voucher"
	"github.com/vres/backend/internal/domain/identity"
	"github.com/vres/backend/internal/domain/project"
	"github.com/vres/backend/internal/domain/voucher"
	"github.com/vres/backend/internal/infrastructure/auth"
	"github.com/vres/backend/internal/infrastructure/cache"
	"github.com/vres/backend/internal/infrastructure/config"
	"github.com/vres/backend/internal/infrastructure/notification"
	"github.com/vres/backend/internal/infrastructure/persistence"
	"github.com/vres/backend/internal/infrastructure/qr"
	"github.com/vres/backend/internal/infrastructure/storage"
	"github.com/vres/backend/internal/interfaces/http/dto"
	"github.com/vres/backend/internal/interfaces/http/middleware"
	"github.com/vres/backend/internal/interfaces/http/router"
)

// testEnv wires the full stack onto an in-memory database so handlers are
// exercised end to end, auth middleware included.
type testEnv struct {
	engine     *gin.Engine
	db         *gorm.DB
	jwtService *auth.JWTService
	dispatcher *notification.AsyncDispatcher

	voucherRepo *persistence.GormVoucherRepository
	projectRepo *persistence.GormProjectRepository
	benefRepo   *persistence.GormBeneficiaryRepository
	bindingRepo *persistence.GormVendorBindingRepository
	userRepo    *persistence.GormUserRepository
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		TranslateError: true,
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&identity.User{},
		&project.Project{},
		&project.Beneficiary{},
		&project.VendorBinding{},
		&voucher.Voucher{},
		&voucher.Redemption{},
	))

	logger := zap.NewNop()
	env := &testEnv{
		db:          db,
		voucherRepo: persistence.NewGormVoucherRepository(db),
		projectRepo: persistence.NewGormProjectRepository(db),
		benefRepo:   persistence.NewGormBeneficiaryRepository(db),
		bindingRepo: persistence.NewGormVendorBindingRepository(db),
		userRepo:    persistence.NewGormUserRepository(db),
	}

	env.jwtService = auth.NewJWTService(config.JWTConfig{
		Secret:                "handler-test-secret",
		AccessTokenExpiration: time.Hour,
		Issuer:                "vres-test",
	})

	objectStore := storage.NewMemoryObjectStorage()
	encoder := qr.NewEncoder()
	sender := notification.NewLogSender(logger)
	env.dispatcher = notification.NewAsyncDispatcher(5*time.Second, logger)
	t.Cleanup(env.dispatcher.Wait)
	limiter := cache.NewInMemoryAttemptLimiter(100, time.Minute)
	cfg := appvoucher.DefaultConfig()

	voucherService := appvoucher.NewVoucherService(
		env.voucherRepo, env.projectRepo, objectStore,
		voucher.NewNumericOTPGenerator(), cfg, logger)
	issuanceService := appvoucher.NewIssuanceService(
		env.voucherRepo, env.projectRepo, env.benefRepo, env.bindingRepo,
		voucher.NewRandomCodeGenerator(cfg.CodeLength), encoder, objectStore,
		sender, env.dispatcher, cfg, logger)
	redemptionService := appvoucher.NewRedemptionService(
		env.voucherRepo, env.projectRepo, env.benefRepo, env.bindingRepo,
		env.userRepo, voucher.NewNumericOTPGenerator(), sender,
		env.dispatcher, limiter, cfg, logger)
	redemptionQueryService := appvoucher.NewRedemptionQueryService(
		persistence.NewGormRedemptionRepository(db), logger)
	sweepService := appvoucher.NewSweepService(env.projectRepo, env.userRepo, sender, logger)
	authService := appidentity.NewAuthService(env.userRepo, env.jwtService, logger)

	middleware.SetupValidator()
	env.engine = gin.New()
	env.engine.Use(middleware.RequestID())
	env.engine.Use(middleware.JWTAuth(middleware.JWTAuthConfig{
		Service:   env.jwtService,
		SkipPaths: []string{"/api/v1/health", "/api/v1/ping", "/api/v1/auth/login"},
	}))

	router.New().Register(
		NewSystemHandler(db, logger),
		NewAuthHandler(authService, logger),
		NewVoucherHandler(voucherService, issuanceService, logger),
		NewRedemptionHandler(redemptionService, redemptionQueryService, logger),
		NewTaskHandler(sweepService, logger),
	).Setup(env.engine)

	return env
}

func (e *testEnv) createUser(t *testing.T, name, email string, role identity.Role) *identity.User {
	t.Helper()
	u, err := identity.NewUser(name, email, "s3cret-pass", role)
	require.NoError(t, err)
	require.NoError(t, e.userRepo.Save(context.Background(), u))
	return u
}

func (e *testEnv) tokenFor(t *testing.T, u *identity.User) string {
	t.Helper()
	token, err := e.jwtService.GenerateAccessToken(auth.GenerateTokenInput{
		UserID: u.ID,
		Email:  u.Email,
		Role:   string(u.Role),
	})
	require.NoError(t, err)
	return token.Token
}

// createRedeemableSetup persists a project inside its validity window, a
// beneficiary, an authorized vendor and one issued voucher.
func (e *testEnv) createRedeemableSetup(t *testing.T) (*project.Project, *project.Beneficiary, *identity.User, *voucher.Voucher) {
	t.Helper()
	ctx := context.Background()

	p, err := project.NewProject(fmt.Sprintf("Food Program %s", uuid.NewString()[:8]), "staple goods")
	require.NoError(t, err)
	p.Status = project.StatusInProgress
	yesterday := time.Now().AddDate(0, 0, -1)
	p.RegistrationEndDate = &yesterday
	require.NoError(t, p.SetVoucherTerms(
		time.Now().AddDate(0, 0, -1), time.Now().AddDate(0, 0, 7), decimal.NewFromInt(50)))
	require.NoError(t, e.projectRepo.Save(ctx, p))

	b, err := project.NewBeneficiary(p.ID, "Amara Diallo", "+221700000001", "amara@example.com")
	require.NoError(t, err)
	require.NoError(t, e.benefRepo.Save(ctx, b))

	vendor := e.createUser(t, "Vendor One", fmt.Sprintf("vendor-%s@example.com", uuid.NewString()[:8]), identity.RoleVendor)
	binding, err := project.NewVendorBinding(p.ID, vendor.ID)
	require.NoError(t, err)
	binding.Activate()
	require.NoError(t, e.bindingRepo.SaveAll(ctx, []project.VendorBinding{*binding}))

	v, err := voucher.NewVoucher(p.ID, b.ID, fmt.Sprintf("CODE%s", uuid.NewString()[:8]), "qr/test.png")
	require.NoError(t, err)
	require.NoError(t, e.voucherRepo.Save(ctx, v))

	return p, b, vendor, v
}

func (e *testEnv) do(method, path, token string, body interface{}) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	if body != nil {
		data, _ := json.Marshal(body)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	e.engine.ServeHTTP(w, req)
	return w
}

func decodeResponse(t *testing.T, w *httptest.ResponseRecorder) dto.Response {
	t.Helper()
	var resp dto.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func TestHealthAndPing(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(http.MethodGet, "/api/v1/health", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	resp := decodeResponse(t, w)
	assert.True(t, resp.Success)

	w = env.do(http.MethodGet, "/api/v1/ping", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestAuthLogin(t *testing.T) {
	env := newTestEnv(t)
	env.createUser(t, "Dana Osei", "dana@example.com", identity.RoleOperator)

	t.Run("valid credentials", func(t *testing.T) {
		w := env.do(http.MethodPost, "/api/v1/auth/login", "", gin.H{
			"email":    "dana@example.com",
			"password": "s3cret-pass",
		})
		require.Equal(t, http.StatusOK, w.Code)

		resp := decodeResponse(t, w)
		require.True(t, resp.Success)
		data := resp.Data.(map[string]interface{})
		assert.NotEmpty(t, data["access_token"])
		assert.Equal(t, "Bearer", data["token_type"])
	})

	t.Run("wrong password", func(t *testing.T) {
		w := env.do(http.MethodPost, "/api/v1/auth/login", "", gin.H{
			"email":    "dana@example.com",
			"password": "wrong-password",
		})
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("missing fields", func(t *testing.T) {
		w := env.do(http.MethodPost, "/api/v1/auth/login", "", gin.H{"email": "dana@example.com"})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestVoucherCodeAndQR(t *testing.T) {
	env := newTestEnv(t)
	operator := env.createUser(t, "Op", "op@example.com", identity.RoleOperator)
	token := env.tokenFor(t, operator)
	_, _, _, v := env.createRedeemableSetup(t)

	t.Run("code as plain text", func(t *testing.T) {
		w := env.do(http.MethodGet, "/api/v1/vouchers/"+v.ID.String()+"/code", token, nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, v.StringCode, w.Body.String())
	})

	t.Run("unknown voucher", func(t *testing.T) {
		w := env.do(http.MethodGet, "/api/v1/vouchers/"+uuid.NewString()+"/code", token, nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("malformed id", func(t *testing.T) {
		w := env.do(http.MethodGet, "/api/v1/vouchers/not-a-uuid/code", token, nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("unauthenticated", func(t *testing.T) {
		w := env.do(http.MethodGet, "/api/v1/vouchers/"+v.ID.String()+"/code", "", nil)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}

func TestIssueOTPEndpoint(t *testing.T) {
	env := newTestEnv(t)
	operator := env.createUser(t, "Op", "op@example.com", identity.RoleOperator)
	token := env.tokenFor(t, operator)
	_, _, _, v := env.createRedeemableSetup(t)

	w := env.do(http.MethodPost, "/api/v1/vouchers/"+v.ID.String()+"/issue-otp", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, w.Body.String(), 6)
}

func TestRedemptionFlow(t *testing.T) {
	env := newTestEnv(t)
	_, _, vendor, v := env.createRedeemableSetup(t)
	vendorToken := env.tokenFor(t, vendor)
	ctx := context.Background()

	initiateBody := gin.H{"voucherCode": v.StringCode, "vendorId": vendor.ID.String()}

	w := env.do(http.MethodPost, "/api/v1/redemption/initiate", vendorToken, initiateBody)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	stored, err := env.voucherRepo.FindByID(ctx, v.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.RedemptionOTP)
	otp := *stored.RedemptionOTP

	t.Run("wrong otp rejected", func(t *testing.T) {
		w := env.do(http.MethodPost, "/api/v1/redemption/confirm", vendorToken, gin.H{
			"voucherCode": v.StringCode,
			"otp":         "000000",
			"vendorId":    vendor.ID.String(),
		})
		if otp == "000000" {
			t.Skip("generated OTP collided with the probe value")
		}
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("confirm redeems", func(t *testing.T) {
		w := env.do(http.MethodPost, "/api/v1/redemption/confirm", vendorToken, gin.H{
			"voucherCode":       v.StringCode,
			"otp":               otp,
			"vendorId":          vendor.ID.String(),
			"deviceFingerprint": "pos-terminal-7",
		})
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		redeemed, err := env.voucherRepo.FindByID(ctx, v.ID)
		require.NoError(t, err)
		assert.Equal(t, voucher.StatusRedeemed, redeemed.Status)
	})

	t.Run("history lists the redemption", func(t *testing.T) {
		w := env.do(http.MethodGet, "/api/v1/redemption/history", vendorToken, nil)
		require.Equal(t, http.StatusOK, w.Code)

		resp := decodeResponse(t, w)
		page := resp.Data.(map[string]interface{})
		assert.Equal(t, float64(1), page["total"])
		records := page["items"].([]interface{})
		require.Len(t, records, 1)
		record := records[0].(map[string]interface{})
		assert.Equal(t, v.ID.String(), record["voucher_id"])
		assert.Equal(t, "pos-terminal-7", record["device_fingerprint"])
	})

	t.Run("second confirm is rejected", func(t *testing.T) {
		w := env.do(http.MethodPost, "/api/v1/redemption/confirm", vendorToken, gin.H{
			"voucherCode": v.StringCode,
			"otp":         otp,
			"vendorId":    vendor.ID.String(),
		})
		assert.Equal(t, http.StatusBadRequest, w.Code)

		resp := decodeResponse(t, w)
		require.NotNil(t, resp.Error)
		assert.Equal(t, dto.ErrCodeInvalidState, resp.Error.Code)
	})
}

func TestRedemption_VendorIdentityChecks(t *testing.T) {
	env := newTestEnv(t)
	_, _, vendor, v := env.createRedeemableSetup(t)
	operator := env.createUser(t, "Op", "op@example.com", identity.RoleOperator)
	otherVendor := env.createUser(t, "Vendor Two", "vendor2@example.com", identity.RoleVendor)

	body := gin.H{"voucherCode": v.StringCode, "vendorId": vendor.ID.String()}

	t.Run("operator role forbidden", func(t *testing.T) {
		w := env.do(http.MethodPost, "/api/v1/redemption/initiate", env.tokenFor(t, operator), body)
		assert.Equal(t, http.StatusForbidden, w.Code)
	})

	t.Run("token must match body vendor", func(t *testing.T) {
		w := env.do(http.MethodPost, "/api/v1/redemption/initiate", env.tokenFor(t, otherVendor), body)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("unbound vendor rejected by gate", func(t *testing.T) {
		w := env.do(http.MethodPost, "/api/v1/redemption/initiate", env.tokenFor(t, otherVendor), gin.H{
			"voucherCode": v.StringCode,
			"vendorId":    otherVendor.ID.String(),
		})
		assert.Equal(t, http.StatusUnauthorized, w.Code)

		resp := decodeResponse(t, w)
		require.NotNil(t, resp.Error)
		assert.Equal(t, dto.ErrCodeUnauthorized, resp.Error.Code)
	})
}

func TestIssueVouchersEndpoint(t *testing.T) {
	env := newTestEnv(t)
	operator := env.createUser(t, "Op", "op@example.com", identity.RoleOperator)
	vendor := env.createUser(t, "Vendor", "vendor@example.com", identity.RoleVendor)
	token := env.tokenFor(t, operator)
	ctx := context.Background()

	p, err := project.NewProject("Winter Relief", "")
	require.NoError(t, err)
	p.Status = project.StatusInProgress
	yesterday := time.Now().AddDate(0, 0, -1)
	p.RegistrationEndDate = &yesterday
	require.NoError(t, env.projectRepo.Save(ctx, p))

	var beneficiaryIDs []string
	for i := 0; i < 3; i++ {
		b, err := project.NewBeneficiary(p.ID, fmt.Sprintf("Beneficiary %d", i), "", "")
		require.NoError(t, err)
		require.NoError(t, env.benefRepo.Save(ctx, b))
		beneficiaryIDs = append(beneficiaryIDs, b.ID.String())
	}

	body := gin.H{
		"beneficiary_ids": beneficiaryIDs,
		"valid_from":      time.Now().Format(time.RFC3339),
		"valid_till":      time.Now().AddDate(0, 0, 30).Format(time.RFC3339),
		"points":          "75",
		"vendor_ids":      []string{vendor.ID.String()},
	}

	w := env.do(http.MethodPost, "/api/v1/projects/"+p.ID.String()+"/vouchers", token, body)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	resp := decodeResponse(t, w)
	require.True(t, resp.Success)
	data := resp.Data.(map[string]interface{})
	assert.Equal(t, float64(3), data["success_count"])
	assert.Equal(t, float64(0), data["failure_count"])

	t.Run("vendor role cannot issue", func(t *testing.T) {
		w := env.do(http.MethodPost, "/api/v1/projects/"+p.ID.String()+"/vouchers", env.tokenFor(t, vendor), body)
		assert.Equal(t, http.StatusForbidden, w.Code)
	})

	t.Run("status counts reflect issuance", func(t *testing.T) {
		w := env.do(http.MethodGet, "/api/v1/projects/"+p.ID.String()+"/vouchers/status-counts", token, nil)
		require.Equal(t, http.StatusOK, w.Code)

		resp := decodeResponse(t, w)
		data := resp.Data.(map[string]interface{})
		assert.Equal(t, float64(3), data["issued"])
		assert.Equal(t, float64(0), data["redeemed"])
		assert.Equal(t, float64(3), data["total"])
	})
}

func TestRegistrationSweepEndpoint(t *testing.T) {
	env := newTestEnv(t)
	operator := env.createUser(t, "Op", "op@example.com", identity.RoleOperator)
	token := env.tokenFor(t, operator)
	ctx := context.Background()

	p, err := project.NewProject("Closing Program", "")
	require.NoError(t, err)
	p.Status = project.StatusInProgress
	yesterday := time.Now().AddDate(0, 0, -1)
	p.RegistrationEndDate = &yesterday
	require.NoError(t, env.projectRepo.Save(ctx, p))

	w := env.do(http.MethodPost, "/api/v1/tasks/registration-sweep", token, nil)
	require.Equal(t, http.StatusOK, w.Code)

	resp := decodeResponse(t, w)
	data := resp.Data.(map[string]interface{})
	assert.Equal(t, float64(1), data["projects_moved"])

	moved, err := env.projectRepo.FindByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, project.StatusApprovalPending, moved.Status)
}
