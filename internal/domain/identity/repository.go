package identity

import (
	"context"

	"github.com/google/uuid"
)

// UserRepository defines the interface for user persistence
type UserRepository interface {
	// FindByID finds a user by ID
	FindByID(ctx context.Context, id uuid.UUID) (*User, error)

	// FindByEmail finds a user by email
	FindByEmail(ctx context.Context, email string) (*User, error)

	// FindByRole finds all users with the given role
	FindByRole(ctx context.Context, role Role) ([]User, error)

	// Save creates or updates a user
	Save(ctx context.Context, u *User) error
}
