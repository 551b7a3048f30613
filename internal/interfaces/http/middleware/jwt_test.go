package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vres/backend/internal/domain/identity"
	"github.com/vres/backend/internal/infrastructure/auth"
	"github.com/vres/backend/internal/infrastructure/config"
	"github.com/vres/backend/internal/interfaces/http/dto"
)

func newTestJWTService() *auth.JWTService {
	return auth.NewJWTService(config.JWTConfig{
		Secret:                "test-secret-key-for-middleware",
		AccessTokenExpiration: time.Hour,
		Issuer:                "vres-test",
	})
}

func signToken(t *testing.T, svc *auth.JWTService, role string) string {
	t.Helper()
	token, err := svc.GenerateAccessToken(auth.GenerateTokenInput{
		UserID: uuid.New(),
		Email:  "dana@example.com",
		Role:   role,
	})
	require.NoError(t, err)
	return token.Token
}

func newAuthRouter(svc *auth.JWTService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(JWTAuth(JWTAuthConfig{
		Service:   svc,
		SkipPaths: []string{"/open"},
	}))
	r.GET("/open", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/protected", func(c *gin.Context) {
		id, _ := GetJWTUserID(c)
		role, _ := GetJWTRole(c)
		c.JSON(http.StatusOK, gin.H{"user_id": id.String(), "role": role})
	})
	r.GET("/vendor-only", RequireRole(identity.RoleVendor), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	return r
}

func TestJWTAuth_SkipPath(t *testing.T) {
	r := newAuthRouter(newTestJWTService())

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/open", nil)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestJWTAuth_MissingToken(t *testing.T) {
	r := newAuthRouter(newTestJWTService())

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)

	var resp dto.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.False(t, resp.Success)
	assert.Equal(t, dto.ErrCodeUnauthorized, resp.Error.Code)
}

func TestJWTAuth_MalformedHeader(t *testing.T) {
	r := newAuthRouter(newTestJWTService())

	for _, header := range []string{"Token abc", "Bearer", "Bearer "} {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/protected", nil)
		req.Header.Set("Authorization", header)
		r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code, "header %q", header)
	}
}

func TestJWTAuth_ValidToken(t *testing.T) {
	svc := newTestJWTService()
	r := newAuthRouter(svc)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+signToken(t, svc, string(identity.RoleVendor)))
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, string(identity.RoleVendor), body["role"])
	assert.NotEqual(t, uuid.Nil.String(), body["user_id"])
}

func TestJWTAuth_WrongSecret(t *testing.T) {
	other := auth.NewJWTService(config.JWTConfig{
		Secret:                "a-different-secret",
		AccessTokenExpiration: time.Hour,
		Issuer:                "vres-test",
	})
	r := newAuthRouter(newTestJWTService())

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+signToken(t, other, string(identity.RoleVendor)))
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRequireRole(t *testing.T) {
	svc := newTestJWTService()
	r := newAuthRouter(svc)

	t.Run("matching role passes", func(t *testing.T) {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/vendor-only", nil)
		req.Header.Set("Authorization", "Bearer "+signToken(t, svc, string(identity.RoleVendor)))
		r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("other role is forbidden", func(t *testing.T) {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/vendor-only", nil)
		req.Header.Set("Authorization", "Bearer "+signToken(t, svc, string(identity.RoleOperator)))
		r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusForbidden, w.Code)

		var resp dto.Response
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, dto.ErrCodeForbidden, resp.Error.Code)
	})
}
