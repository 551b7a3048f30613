package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/vres/backend/internal/domain/identity"
	"github.com/vres/backend/internal/infrastructure/auth"
	"github.com/vres/backend/internal/infrastructure/logger"
	"github.com/vres/backend/internal/interfaces/http/dto"
)

const (
	// ContextKeyJWTClaims is the gin context key for the validated claims
	ContextKeyJWTClaims = "jwt_claims"
	// ContextKeyJWTUserID is the gin context key for the authenticated user ID
	ContextKeyJWTUserID = "jwt_user_id"
	// ContextKeyJWTRole is the gin context key for the authenticated user's role
	ContextKeyJWTRole = "jwt_role"
)

// JWTAuthConfig configures the JWT authentication middleware
type JWTAuthConfig struct {
	Service   *auth.JWTService
	SkipPaths []string
}

// JWTAuth returns a middleware that requires a valid Bearer token on every
// request except the configured skip paths. Validated claims are stored on
// the gin context and the user ID is attached to the request-scoped logger.
func JWTAuth(cfg JWTAuthConfig) gin.HandlerFunc {
	skip := make(map[string]struct{}, len(cfg.SkipPaths))
	for _, p := range cfg.SkipPaths {
		skip[p] = struct{}{}
	}

	return func(c *gin.Context) {
		if _, ok := skip[c.Request.URL.Path]; ok {
			c.Next()
			return
		}

		token, ok := extractBearerToken(c)
		if !ok {
			abortUnauthorized(c, "Missing or malformed Authorization header")
			return
		}

		claims, err := cfg.Service.ValidateAccessToken(token)
		if err != nil {
			abortUnauthorized(c, "Invalid or expired token")
			return
		}

		c.Set(ContextKeyJWTClaims, claims)
		c.Set(ContextKeyJWTUserID, claims.UserID)
		c.Set(ContextKeyJWTRole, claims.Role)

		reqCtx := c.Request.Context()
		ctx, _ := logger.WithUserID(reqCtx, logger.FromContext(reqCtx), claims.UserID)
		c.Request = c.Request.WithContext(ctx)

		c.Next()
	}
}

// RequireRole gates a route group to users carrying the given role. It must
// run after JWTAuth.
func RequireRole(role identity.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		got, ok := c.Get(ContextKeyJWTRole)
		if !ok {
			abortUnauthorized(c, "Authentication required")
			return
		}
		if roleStr, _ := got.(string); roleStr != string(role) {
			requestID, _ := c.Get("request_id")
			rid, _ := requestID.(string)
			c.AbortWithStatusJSON(http.StatusForbidden, dto.NewErrorResponseWithRequestID(
				dto.ErrCodeForbidden, "Insufficient permissions for this operation", rid))
			return
		}
		c.Next()
	}
}

// GetJWTClaims returns the validated claims stored by JWTAuth
func GetJWTClaims(c *gin.Context) (*auth.Claims, bool) {
	v, ok := c.Get(ContextKeyJWTClaims)
	if !ok {
		return nil, false
	}
	claims, ok := v.(*auth.Claims)
	return claims, ok
}

// GetJWTUserID returns the authenticated user's UUID
func GetJWTUserID(c *gin.Context) (uuid.UUID, bool) {
	claims, ok := GetJWTClaims(c)
	if !ok {
		return uuid.Nil, false
	}
	id, err := claims.GetUserUUID()
	if err != nil {
		return uuid.Nil, false
	}
	return id, true
}

// GetJWTRole returns the authenticated user's role
func GetJWTRole(c *gin.Context) (string, bool) {
	v, ok := c.Get(ContextKeyJWTRole)
	if !ok {
		return "", false
	}
	role, ok := v.(string)
	return role, ok
}

func extractBearerToken(c *gin.Context) (string, bool) {
	header := c.GetHeader("Authorization")
	if header == "" {
		return "", false
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || parts[1] == "" {
		return "", false
	}
	return parts[1], true
}

func abortUnauthorized(c *gin.Context, message string) {
	requestID, _ := c.Get("request_id")
	rid, _ := requestID.(string)
	c.AbortWithStatusJSON(http.StatusUnauthorized, dto.NewErrorResponseWithRequestID(
		dto.ErrCodeUnauthorized, message, rid))
}
