package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/maintenance-service/internal/auth"
	"github.com/spec-kit/maintenance-service/internal/domain"
	apperrors "github.com/spec-kit/maintenance-service/pkg/util"
)

func newAuthService() (*AuthService, *fakeUserRepo) {
	users := newFakeUserRepo()
	tokens := auth.NewTokenManager("test-secret", 15)
	return NewAuthService(users, tokens, 4, nil), users
}

func TestRegisterAndLogin(t *testing.T) {
	service, _ := newAuthService()
	ctx := context.Background()

	result, err := service.Register(ctx, RegisterInput{
		Name:     "Alice",
		Email:    "Alice@Example.com",
		Password: "s3cret-pass",
		Role:     domain.RoleUser,
	})
	require.NoError(t, err)
	assert.NotEmpty(t, result.Token)
	assert.Equal(t, "alice@example.com", result.User.Email)
	assert.NotEqual(t, "s3cret-pass", result.User.PasswordHash)

	login, err := service.Login(ctx, "alice@example.com", "s3cret-pass")
	require.NoError(t, err)
	assert.Equal(t, result.User.ID, login.User.ID)

	_, err = service.Login(ctx, "alice@example.com", "wrong-pass")
	assert.True(t, apperrors.HasCode(err, "UNAUTHORIZED"))

	_, err = service.Login(ctx, "nobody@example.com", "whatever")
	assert.True(t, apperrors.HasCode(err, "UNAUTHORIZED"))
}

func TestRegisterValidation(t *testing.T) {
	service, _ := newAuthService()
	ctx := context.Background()

	_, err := service.Register(ctx, RegisterInput{
		Name:     "Bob",
		Email:    "bob@example.com",
		Password: "short",
		Role:     domain.RoleUser,
	})
	assert.True(t, apperrors.HasCode(err, "VALIDATION_FAILED"))

	_, err = service.Register(ctx, RegisterInput{
		Name:     "Bob",
		Email:    "bob@example.com",
		Password: "long-enough",
		Role:     domain.Role("admin"),
	})
	assert.True(t, apperrors.HasCode(err, "VALIDATION_FAILED"))
}

func TestRegisterDuplicateEmail(t *testing.T) {
	service, _ := newAuthService()
	ctx := context.Background()

	input := RegisterInput{
		Name:     "Bob",
		Email:    "bob@example.com",
		Password: "long-enough",
		Role:     domain.RoleTechnician,
	}
	_, err := service.Register(ctx, input)
	require.NoError(t, err)

	_, err = service.Register(ctx, input)
	assert.True(t, apperrors.HasCode(err, "CONFLICT"))
}

func TestRegisterSingleManager(t *testing.T) {
	service, _ := newAuthService()
	ctx := context.Background()

	_, err := service.Register(ctx, RegisterInput{
		Name:     "Mary",
		Email:    "mary@example.com",
		Password: "long-enough",
		Role:     domain.RoleManager,
	})
	require.NoError(t, err)

	_, err = service.Register(ctx, RegisterInput{
		Name:     "Mike",
		Email:    "mike@example.com",
		Password: "long-enough",
		Role:     domain.RoleManager,
	})
	assert.True(t, apperrors.HasCode(err, "CONFLICT"))

	// non-manager roles remain unrestricted
	_, err = service.Register(ctx, RegisterInput{
		Name:     "Tess",
		Email:    "tess@example.com",
		Password: "long-enough",
		Role:     domain.RoleTechnician,
	})
	assert.NoError(t, err)
}

func TestTokenRoundTrip(t *testing.T) {
	tokens := auth.NewTokenManager("test-secret", 15)
	signed, _, err := tokens.GenerateToken("user-1", domain.RoleTechnician)
	require.NoError(t, err)

	claims, err := tokens.ParseToken(signed)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID)
	assert.Equal(t, domain.RoleTechnician, claims.Role)

	other := auth.NewTokenManager("other-secret", 15)
	_, err = other.ParseToken(signed)
	assert.Error(t, err)
}
