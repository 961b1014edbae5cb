package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mouhsinou/course-enrollment-platform/internal/config"
	"github.com/mouhsinou/course-enrollment-platform/internal/domain"
	"github.com/mouhsinou/course-enrollment-platform/internal/events"
	apperrors "github.com/mouhsinou/course-enrollment-platform/pkg/util/errorutil"
)

func TestAuthService_Register(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	user, err := f.auth.Register(ctx, RegisterInput{Name: "  Ada  ", Email: " X@Y.com ", Password: "secret1"})
	require.NoError(t, err)
	assert.Equal(t, "Ada", user.Name)
	assert.Equal(t, "x@y.com", user.Email)
	assert.Equal(t, domain.RoleStudent, user.Role)
	assert.True(t, user.IsActive)
	assert.NotEqual(t, "secret1", user.PasswordHash)

	_, err = f.auth.Register(ctx, RegisterInput{Name: "Ada", Email: "x@y.com", Password: "secret1"})
	require.Error(t, err)
	de := apperrors.ToDomainError(err)
	assert.Equal(t, apperrors.CodeEmailTaken, de.Code)
	assert.Equal(t, 400, de.HTTPStatus)
	assert.Contains(t, de.Message, "already registered")
}

func TestAuthService_RegisterPasswordOverBcryptLimit(t *testing.T) {
	f := newFixture(t)

	_, err := f.auth.Register(context.Background(), RegisterInput{
		Name: "Ada", Email: "ada@test.com", Password: strings.Repeat("p", 80),
	})
	require.Error(t, err)
	de := apperrors.ToDomainError(err)
	assert.Equal(t, apperrors.CodeValidationFailed, de.Code)
	assert.Equal(t, 422, de.HTTPStatus)
	assert.Contains(t, de.Details, "password")

	_, err = f.store.Repositories().Users.GetByEmail(context.Background(), "ada@test.com")
	assert.Error(t, err)
}

func TestAuthService_RegisterAdminSignupDisabled(t *testing.T) {
	f := newFixture(t)
	svc := NewAuthService(config.AuthConfig{JWTSecret: "s", BcryptCost: 4}, AuthDependencies{Store: f.store})

	_, err := svc.Register(context.Background(), RegisterInput{Name: "Root", Email: "root@test.com", Password: "secret1", Role: domain.RoleAdmin})
	assert.True(t, apperrors.HasCode(err, apperrors.CodeForbidden))

	_, err = svc.Register(context.Background(), RegisterInput{Name: "Root", Email: "root@test.com", Password: "secret1", Role: "owner"})
	assert.Equal(t, 422, apperrors.StatusOf(err))
}

func TestAuthService_Login(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	_, err := f.auth.Register(ctx, RegisterInput{Name: "Ada", Email: "ada@test.com", Password: "secret1"})
	require.NoError(t, err)

	tests := []struct {
		name     string
		email    string
		password string
		message  string
	}{
		{name: "unknown email", email: "nobody@test.com", password: "secret1", message: "incorrect email or password"},
		{name: "wrong password", email: "ada@test.com", password: "nope", message: "incorrect email or password"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.auth.Login(ctx, tt.email, tt.password)
			require.Error(t, err)
			de := apperrors.ToDomainError(err)
			assert.Equal(t, 401, de.HTTPStatus)
			assert.Equal(t, tt.message, de.Message)
		})
	}

	t.Run("success with mixed-case email", func(t *testing.T) {
		result, err := f.auth.Login(ctx, "ADA@test.com", "secret1")
		require.NoError(t, err)
		assert.NotEmpty(t, result.AccessToken)
		assert.True(t, result.ExpiresAt.After(time.Now()))

		claims, err := f.auth.TokenManager().ParseToken(result.AccessToken)
		require.NoError(t, err)
		assert.Equal(t, "ada@test.com", claims.Subject)
	})
}

func TestAuthService_SetUserActive(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	user, err := f.auth.Register(ctx, RegisterInput{Name: "Ada", Email: "ada@test.com", Password: "secret1"})
	require.NoError(t, err)

	updated, err := f.auth.SetUserActive(ctx, f.admin, user.ID, false)
	require.NoError(t, err)
	assert.False(t, updated.IsActive)
	assert.Contains(t, f.dispatcher.types(), events.EventUserStatusChanged)

	_, err = f.auth.Login(ctx, "ada@test.com", "secret1")
	require.Error(t, err)
	assert.Equal(t, "inactive user account", apperrors.ToDomainError(err).Message)

	_, err = f.auth.SetUserActive(ctx, f.admin, f.admin.ID, false)
	assert.Equal(t, 400, apperrors.StatusOf(err))

	_, err = f.auth.SetUserActive(ctx, f.admin, 9999, true)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeNotFound))

	_, err = f.auth.SetUserActive(ctx, user, user.ID, true)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeForbidden))
}
