package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/mouhsinou/course-enrollment-platform/internal/auth"
	"github.com/mouhsinou/course-enrollment-platform/internal/config"
	"github.com/mouhsinou/course-enrollment-platform/internal/domain"
	"github.com/mouhsinou/course-enrollment-platform/internal/events"
	"github.com/mouhsinou/course-enrollment-platform/internal/repository"
	apperrors "github.com/mouhsinou/course-enrollment-platform/pkg/util/errorutil"
)

const msgBadCredentials = "incorrect email or password"

// RegisterInput carries a sign-up request after shape validation.
type RegisterInput struct {
	Name     string
	Email    string
	Password string
	Role     domain.Role
}

// LoginResult is the issued bearer token.
type LoginResult struct {
	AccessToken string
	ExpiresAt   time.Time
	User        *domain.User
}

// AuthService coordinates registration, login and account activation.
type AuthService struct {
	store            repository.Store
	dispatcher       events.Dispatcher
	tokenMgr         *auth.TokenManager
	bcryptCost       int
	allowAdminSignup bool
	logger           *zap.Logger
}

// AuthDependencies encapsulates collaborators for the auth service.
type AuthDependencies struct {
	Store      repository.Store
	Dispatcher events.Dispatcher
	Logger     *zap.Logger
}

// NewAuthService builds the service.
func NewAuthService(cfg config.AuthConfig, deps AuthDependencies) *AuthService {
	svc := &AuthService{
		store:            deps.Store,
		dispatcher:       deps.Dispatcher,
		tokenMgr:         auth.NewTokenManager(cfg.JWTSecret, cfg.AccessTokenTTLMinutes),
		bcryptCost:       cfg.BcryptCost,
		allowAdminSignup: cfg.AllowAdminSignup,
		logger:           deps.Logger,
	}
	if svc.dispatcher == nil {
		svc.dispatcher = events.NewInMemoryDispatcher(deps.Logger)
	}
	if svc.logger == nil {
		svc.logger = zap.NewNop()
	}
	return svc
}

// TokenManager exposes the token manager for the auth middleware.
func (s *AuthService) TokenManager() *auth.TokenManager {
	return s.tokenMgr
}

// NormalizeEmail trims and lowercases an address so lookups are case-insensitive.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Register creates an active account. The role defaults to student.
func (s *AuthService) Register(ctx context.Context, input RegisterInput) (*domain.User, error) {
	role := input.Role
	if role == "" {
		role = domain.RoleStudent
	}
	if !role.Valid() {
		return nil, apperrors.NewValidationError("invalid role", map[string]any{"role": "must be student or admin"})
	}
	if role == domain.RoleAdmin && !s.allowAdminSignup {
		return nil, apperrors.NewForbidden("admin self-registration is disabled")
	}

	email := NormalizeEmail(input.Email)
	name := strings.TrimSpace(input.Name)

	hash, err := auth.HashPassword(input.Password, s.bcryptCost)
	if errors.Is(err, auth.ErrPasswordTooLong) {
		return nil, apperrors.NewValidationError("invalid password", map[string]any{
			"password": fmt.Sprintf("must be at most %d bytes", auth.MaxPasswordBytes),
		})
	}
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}

	user := &domain.User{
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		Role:         role,
		IsActive:     true,
	}
	err = s.store.WithinTx(ctx, func(ctx context.Context, repos repository.Repositories) error {
		if _, err := repos.Users.GetByEmail(ctx, email); err == nil {
			return apperrors.NewConflict(apperrors.CodeEmailTaken, msgEmailTaken, nil)
		} else if !errors.Is(err, repository.ErrNotFound) {
			return err
		}
		return repos.Users.Create(ctx, user)
	})
	if err != nil {
		return nil, translateStoreError(err)
	}

	s.logger.Info("user registered", zap.Int64("user_id", user.ID), zap.String("role", string(user.Role)))
	return user, nil
}

// Login verifies credentials and issues a bearer token whose subject is the email.
func (s *AuthService) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	email = NormalizeEmail(email)

	user, err := s.store.Repositories().Users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			_ = auth.CompareDummy(password)
			return nil, apperrors.NewUnauthorized(msgBadCredentials)
		}
		return nil, translateStoreError(err)
	}
	if err := auth.ComparePassword(user.PasswordHash, password); err != nil {
		return nil, apperrors.NewUnauthorized(msgBadCredentials)
	}
	if !user.IsActive {
		return nil, apperrors.NewUnauthorized("inactive user account")
	}

	token, expiresAt, err := s.tokenMgr.GenerateToken(user.Email, user.Role)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	return &LoginResult{AccessToken: token, ExpiresAt: expiresAt, User: user}, nil
}

// SetUserActive activates or deactivates an account. Admins cannot deactivate themselves.
func (s *AuthService) SetUserActive(ctx context.Context, caller *domain.User, userID int64, active bool) (*domain.User, error) {
	if err := requireAdmin(caller); err != nil {
		return nil, err
	}
	if caller.ID == userID && !active {
		return nil, apperrors.NewInvalidInput("", "cannot deactivate your own account")
	}

	var user *domain.User
	err := s.store.WithinTx(ctx, func(ctx context.Context, repos repository.Repositories) error {
		if err := repos.Users.SetActive(ctx, userID, active); err != nil {
			return notFoundOr(err, "user")
		}
		updated, err := repos.Users.GetByID(ctx, userID)
		if err != nil {
			return notFoundOr(err, "user")
		}
		user = updated
		return nil
	})
	if err != nil {
		return nil, translateStoreError(err)
	}

	s.logger.Info("user activation changed",
		zap.Int64("user_id", userID),
		zap.Bool("is_active", active),
		zap.Int64("admin_id", caller.ID))
	_ = s.dispatcher.Publish(ctx, events.Event{
		Type:    events.EventUserStatusChanged,
		Actor:   actorOf(caller),
		Payload: events.UserStatusPayload{UserID: userID, IsActive: active},
	})
	return user, nil
}
