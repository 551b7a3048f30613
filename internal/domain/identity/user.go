package identity

import (
	"strings"
	"time"

	"github.com/vres/backend/internal/domain/shared"
	"golang.org/x/crypto/bcrypt"
)

// Role represents the function a user performs in the program
type Role string

const (
	RoleOperator Role = "OPERATOR" // Program staff: runs issuance and maintenance
	RoleVendor   Role = "VENDOR"   // Redeems vouchers at point of service
)

// IsValid checks if the role is a known Role
func (r Role) IsValid() bool {
	switch r {
	case RoleOperator, RoleVendor:
		return true
	}
	return false
}

// Password cost for bcrypt
const bcryptCost = 12

// User represents an operator or vendor account
type User struct {
	shared.BaseAggregateRoot
	Name         string `gorm:"not null"`
	Email        string `gorm:"uniqueIndex;not null"`
	Phone        string
	PasswordHash string `gorm:"not null"`
	Role         Role   `gorm:"not null"`
	Active       bool   `gorm:"not null;default:true"`
	LastLoginAt  *time.Time
}

// NewUser creates an active user with a hashed password
func NewUser(name, email, password string, role Role) (*User, error) {
	if name == "" {
		return nil, shared.NewDomainError("INVALID_NAME", "User name cannot be empty")
	}
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || !strings.Contains(email, "@") {
		return nil, shared.NewDomainError("INVALID_EMAIL", "A valid email address is required")
	}
	if len(password) < 8 {
		return nil, shared.NewDomainError("INVALID_PASSWORD", "Password must be at least 8 characters")
	}
	if !role.IsValid() {
		return nil, shared.NewDomainError("INVALID_ROLE", "Unknown user role")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return nil, shared.NewDomainError("PASSWORD_HASH_ERROR", "Failed to hash password")
	}

	return &User{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Name:              name,
		Email:             email,
		PasswordHash:      string(hash),
		Role:              role,
		Active:            true,
	}, nil
}

// CheckPassword verifies the supplied password against the stored hash
func (u *User) CheckPassword(password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) == nil
}

// RecordLogin stamps a successful authentication
func (u *User) RecordLogin(at time.Time) {
	u.LastLoginAt = &at
	u.UpdatedAt = at
}

// IsVendor reports whether the user redeems vouchers at point of service
func (u *User) IsVendor() bool {
	return u.Role == RoleVendor
}
