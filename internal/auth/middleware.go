package auth

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/mouhsinou/course-enrollment-platform/internal/domain"
	"github.com/mouhsinou/course-enrollment-platform/internal/repository"
	apperrors "github.com/mouhsinou/course-enrollment-platform/pkg/util/errorutil"
)

const userKey = "auth_user"

// AuthMiddleware validates bearer tokens and loads the calling user.
type AuthMiddleware struct {
	tokens *TokenManager
	users  repository.UserRepository
}

// NewAuthMiddleware constructs middleware.
func NewAuthMiddleware(tokens *TokenManager, users repository.UserRepository) *AuthMiddleware {
	return &AuthMiddleware{tokens: tokens, users: users}
}

// Authenticate resolves the request's bearer token to a stored user.
func (m *AuthMiddleware) Authenticate(c *fiber.Ctx) (*domain.User, error) {
	authHeader := c.Get(fiber.HeaderAuthorization)
	if authHeader == "" {
		return nil, apperrors.NewUnauthorized("not authenticated")
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || strings.TrimSpace(parts[1]) == "" {
		return nil, apperrors.NewUnauthorized("invalid authorization header")
	}

	claims, err := m.tokens.ParseToken(strings.TrimSpace(parts[1]))
	if err != nil {
		return nil, apperrors.NewUnauthorized("could not validate credentials")
	}

	user, err := m.users.GetByEmail(c.UserContext(), claims.Subject)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NewUnauthorized("user not found")
		}
		return nil, apperrors.NewInternalError(err)
	}
	return user, nil
}

// Require authenticates the caller, runs guards in order, and stores the user for handlers.
func (m *AuthMiddleware) Require(guards ...Guard) fiber.Handler {
	return func(c *fiber.Ctx) error {
		user, err := m.Authenticate(c)
		if err != nil {
			return err
		}
		if err := RunGuards(user, guards...); err != nil {
			return err
		}
		c.Locals(userKey, user)
		return c.Next()
	}
}

// Active admits any active user.
func (m *AuthMiddleware) Active() fiber.Handler {
	return m.Require(ActiveUser())
}

// Role admits active users holding role.
func (m *AuthMiddleware) Role(role domain.Role) fiber.Handler {
	return m.Require(ActiveUser(), HasRole(role))
}

// UserFromContext retrieves the authenticated user.
func UserFromContext(c *fiber.Ctx) (*domain.User, bool) {
	val := c.Locals(userKey)
	if val == nil {
		return nil, false
	}
	user, ok := val.(*domain.User)
	return user, ok
}
