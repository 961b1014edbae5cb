package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/mouhsinou/course-enrollment-platform/internal/api/dto"
	"github.com/mouhsinou/course-enrollment-platform/internal/domain"
	"github.com/mouhsinou/course-enrollment-platform/internal/service"
)

// UsersHandler exposes registration, login and account endpoints.
type UsersHandler struct {
	auth        *service.AuthService
	enrollments *service.EnrollmentService
}

// NewUsersHandler constructs handler.
func NewUsersHandler(authService *service.AuthService, enrollmentService *service.EnrollmentService) *UsersHandler {
	return &UsersHandler{auth: authService, enrollments: enrollmentService}
}

// Register handles POST /auth/register.
func (h *UsersHandler) Register(c *fiber.Ctx) error {
	var req dto.UserRegisterRequest
	if err := c.BodyParser(&req); err != nil {
		return dto.InvalidBody(err)
	}
	req.Normalize()
	if err := dto.Validate(&req); err != nil {
		return err
	}

	user, err := h.auth.Register(c.UserContext(), service.RegisterInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
		Role:     domain.Role(req.Role),
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(dto.NewUserResponse(user))
}

// Login handles POST /auth/login with a JSON body or the OAuth2 password form.
func (h *UsersHandler) Login(c *fiber.Ctx) error {
	var req dto.UserLoginRequest
	if err := c.BodyParser(&req); err != nil {
		return dto.InvalidBody(err)
	}
	if err := req.Check(); err != nil {
		return err
	}

	result, err := h.auth.Login(c.UserContext(), req.Identifier(), req.Password)
	if err != nil {
		return err
	}
	return c.JSON(dto.TokenResponse{
		AccessToken: result.AccessToken,
		TokenType:   "bearer",
		ExpiresAt:   result.ExpiresAt,
	})
}

// Me handles GET /users/me.
func (h *UsersHandler) Me(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	enrollments, err := h.enrollments.ListForUser(c.UserContext(), user)
	if err != nil {
		return err
	}
	return c.JSON(dto.NewProfileResponse(user, enrollments))
}

// SetActive handles PATCH /users/:id/activate?is_active=bool.
func (h *UsersHandler) SetActive(c *fiber.Ctx) error {
	caller, err := currentUser(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	active, err := queryBool(c, "is_active")
	if err != nil {
		return err
	}
	user, err := h.auth.SetUserActive(c.UserContext(), caller, id, active)
	if err != nil {
		return err
	}
	return c.JSON(dto.NewUserResponse(user))
}
