package persistence

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vres/backend/internal/domain/identity"
	"github.com/vres/backend/internal/domain/shared"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupUserTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{TranslateError: true})
	require.NoError(t, err)

	err = db.AutoMigrate(&identity.User{})
	require.NoError(t, err)

	return db
}

func TestGormUserRepository_SaveAndFind(t *testing.T) {
	db := setupUserTestDB(t)
	repo := NewGormUserRepository(db)
	ctx := context.Background()

	u, err := identity.NewUser("Nora Vendor", "nora@example.com", "s3cret-pass", identity.RoleVendor)
	require.NoError(t, err)
	require.NoError(t, repo.Save(ctx, u))

	byID, err := repo.FindByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "nora@example.com", byID.Email)
	assert.True(t, byID.IsVendor())

	byEmail, err := repo.FindByEmail(ctx, "nora@example.com")
	require.NoError(t, err)
	assert.Equal(t, u.ID, byEmail.ID)

	_, err = repo.FindByID(ctx, uuid.New())
	assert.ErrorIs(t, err, shared.ErrNotFound)

	_, err = repo.FindByEmail(ctx, "nobody@example.com")
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestGormUserRepository_Save_DuplicateEmail(t *testing.T) {
	db := setupUserTestDB(t)
	repo := NewGormUserRepository(db)
	ctx := context.Background()

	first, err := identity.NewUser("First", "shared@example.com", "s3cret-pass", identity.RoleOperator)
	require.NoError(t, err)
	require.NoError(t, repo.Save(ctx, first))

	second, err := identity.NewUser("Second", "shared@example.com", "s3cret-pass", identity.RoleVendor)
	require.NoError(t, err)
	err = repo.Save(ctx, second)
	assert.ErrorIs(t, err, shared.ErrAlreadyExists)
}

func TestGormUserRepository_FindByRole(t *testing.T) {
	db := setupUserTestDB(t)
	repo := NewGormUserRepository(db)
	ctx := context.Background()

	for _, spec := range []struct {
		name  string
		email string
		role  identity.Role
	}{
		{"Op One", "op1@example.com", identity.RoleOperator},
		{"Op Two", "op2@example.com", identity.RoleOperator},
		{"Vendor", "vendor@example.com", identity.RoleVendor},
	} {
		u, err := identity.NewUser(spec.name, spec.email, "s3cret-pass", spec.role)
		require.NoError(t, err)
		require.NoError(t, repo.Save(ctx, u))
	}

	operators, err := repo.FindByRole(ctx, identity.RoleOperator)
	require.NoError(t, err)
	assert.Len(t, operators, 2)
	for _, op := range operators {
		assert.Equal(t, identity.RoleOperator, op.Role)
	}
}
