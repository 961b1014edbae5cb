package dto

import (
	"strings"
	"time"

	"github.com/mouhsinou/course-enrollment-platform/internal/domain"
	apperrors "github.com/mouhsinou/course-enrollment-platform/pkg/util/errorutil"
)

// UserRegisterRequest payload for new users.
type UserRegisterRequest struct {
	Name     string `json:"name" validate:"required,min=2,max=100"`
	Email    string `json:"email" validate:"required,email,max=255"`
	Password string `json:"password" validate:"required,min=6,max=100,maxbytes=72"`
	Role     string `json:"role" validate:"omitempty,oneof=student admin"`
}

// Normalize trims free-text fields before validation.
func (r *UserRegisterRequest) Normalize() {
	r.Name = strings.TrimSpace(r.Name)
	r.Email = strings.TrimSpace(r.Email)
	r.Role = strings.ToLower(strings.TrimSpace(r.Role))
}

// UserLoginRequest accepts JSON or the OAuth2 password form, where the email
// travels as "username".
type UserLoginRequest struct {
	Email    string `json:"email" form:"email"`
	Username string `json:"username" form:"username"`
	Password string `json:"password" form:"password"`
}

// Identifier returns whichever of email or username was supplied.
func (r UserLoginRequest) Identifier() string {
	if strings.TrimSpace(r.Email) != "" {
		return r.Email
	}
	return r.Username
}

// Check reports missing credentials as a 422.
func (r UserLoginRequest) Check() error {
	details := map[string]any{}
	if strings.TrimSpace(r.Identifier()) == "" {
		details["username"] = "field required"
	}
	if r.Password == "" {
		details["password"] = "field required"
	}
	if len(details) > 0 {
		return apperrors.NewValidationError("request validation failed", details)
	}
	return nil
}

// TokenResponse is the login result.
type TokenResponse struct {
	AccessToken string    `json:"access_token"`
	TokenType   string    `json:"token_type"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// UserResponse never carries the password hash.
type UserResponse struct {
	ID        int64       `json:"id"`
	Name      string      `json:"name"`
	Email     string      `json:"email"`
	Role      domain.Role `json:"role"`
	IsActive  bool        `json:"is_active"`
	CreatedAt time.Time   `json:"created_at"`
}

// ProfileResponse is the caller's own account with their enrollments.
type ProfileResponse struct {
	UserResponse
	Enrollments []EnrollmentResponse `json:"enrollments"`
}

// NewUserResponse maps a domain user.
func NewUserResponse(u *domain.User) UserResponse {
	return UserResponse{
		ID:        u.ID,
		Name:      u.Name,
		Email:     u.Email,
		Role:      u.Role,
		IsActive:  u.IsActive,
		CreatedAt: u.CreatedAt,
	}
}

// NewProfileResponse maps a user and their enrollments.
func NewProfileResponse(u *domain.User, enrollments []domain.Enrollment) ProfileResponse {
	return ProfileResponse{
		UserResponse: NewUserResponse(u),
		Enrollments:  NewEnrollmentResponses(enrollments),
	}
}
