package identity

import (
	"context"
	"time"

	"github.com/vres/backend/internal/domain/identity"
	"github.com/vres/backend/internal/domain/shared"
	"github.com/vres/backend/internal/infrastructure/auth"
	"go.uber.org/zap"
)

// AuthService handles authentication for operators and vendors
type AuthService struct {
	userRepo   identity.UserRepository
	jwtService *auth.JWTService
	logger     *zap.Logger
}

// NewAuthService creates a new authentication service
func NewAuthService(userRepo identity.UserRepository, jwtService *auth.JWTService, logger *zap.Logger) *AuthService {
	return &AuthService{
		userRepo:   userRepo,
		jwtService: jwtService,
		logger:     logger,
	}
}

// Login authenticates a user and returns an access token
func (s *AuthService) Login(ctx context.Context, req LoginRequest) (*LoginResult, error) {
	user, err := s.userRepo.FindByEmail(ctx, req.Email)
	if err != nil {
		s.logger.Warn("Login attempt for unknown email", zap.String("email", req.Email))
		return nil, shared.NewDomainError("UNAUTHORIZED", "Invalid email or password")
	}

	if !user.Active {
		s.logger.Warn("Login attempt for inactive account", zap.String("user_id", user.ID.String()))
		return nil, shared.NewDomainError("UNAUTHORIZED", "Account has been deactivated")
	}

	if !user.CheckPassword(req.Password) {
		s.logger.Warn("Invalid password attempt", zap.String("user_id", user.ID.String()))
		return nil, shared.NewDomainError("UNAUTHORIZED", "Invalid email or password")
	}

	token, err := s.jwtService.GenerateAccessToken(auth.GenerateTokenInput{
		UserID: user.ID,
		Email:  user.Email,
		Role:   string(user.Role),
	})
	if err != nil {
		s.logger.Error("Failed to generate access token", zap.Error(err))
		return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to generate authentication token")
	}

	user.RecordLogin(time.Now())
	if err := s.userRepo.Save(ctx, user); err != nil {
		// Don't fail the login, just log it
		s.logger.Error("Failed to record login time", zap.Error(err))
	}

	s.logger.Info("User logged in", zap.String("user_id", user.ID.String()), zap.String("role", string(user.Role)))

	return &LoginResult{
		AccessToken: token.Token,
		ExpiresAt:   token.ExpiresAt,
		TokenType:   token.TokenType,
		User: UserInfo{
			ID:    user.ID,
			Name:  user.Name,
			Email: user.Email,
			Role:  string(user.Role),
		},
	}, nil
}
