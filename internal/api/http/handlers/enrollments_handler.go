package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/mouhsinou/course-enrollment-platform/internal/api/dto"
	"github.com/mouhsinou/course-enrollment-platform/internal/service"
)

// EnrollmentsHandler exposes student and admin enrollment endpoints.
type EnrollmentsHandler struct {
	service *service.EnrollmentService
}

// NewEnrollmentsHandler constructs handler.
func NewEnrollmentsHandler(enrollmentService *service.EnrollmentService) *EnrollmentsHandler {
	return &EnrollmentsHandler{service: enrollmentService}
}

// Enroll POST /enrollments.
func (h *EnrollmentsHandler) Enroll(c *fiber.Ctx) error {
	caller, err := currentUser(c)
	if err != nil {
		return err
	}
	var req dto.EnrollmentCreateRequest
	if err := c.BodyParser(&req); err != nil {
		return dto.InvalidBody(err)
	}
	if err := dto.Validate(&req); err != nil {
		return err
	}

	enrollment, err := h.service.Enroll(c.UserContext(), caller, *req.CourseID)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(dto.NewEnrollmentResponse(enrollment))
}

// Deregister DELETE /enrollments/:course_id.
func (h *EnrollmentsHandler) Deregister(c *fiber.Ctx) error {
	caller, err := currentUser(c)
	if err != nil {
		return err
	}
	courseID, err := pathID(c, "course_id")
	if err != nil {
		return err
	}
	if err := h.service.Deregister(c.UserContext(), caller, courseID); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}

// ListAll GET /enrollments.
func (h *EnrollmentsHandler) ListAll(c *fiber.Ctx) error {
	caller, err := currentUser(c)
	if err != nil {
		return err
	}
	enrollments, err := h.service.ListAll(c.UserContext(), caller)
	if err != nil {
		return err
	}
	return c.JSON(dto.NewEnrollmentResponses(enrollments))
}

// ListByCourse GET /enrollments/course/:id.
func (h *EnrollmentsHandler) ListByCourse(c *fiber.Ctx) error {
	caller, err := currentUser(c)
	if err != nil {
		return err
	}
	courseID, err := pathID(c, "id")
	if err != nil {
		return err
	}
	enrollments, err := h.service.ListByCourse(c.UserContext(), caller, courseID)
	if err != nil {
		return err
	}
	return c.JSON(dto.NewEnrollmentResponses(enrollments))
}

// AdminRemove DELETE /enrollments/:enrollment_id/admin.
func (h *EnrollmentsHandler) AdminRemove(c *fiber.Ctx) error {
	caller, err := currentUser(c)
	if err != nil {
		return err
	}
	enrollmentID, err := pathID(c, "enrollment_id")
	if err != nil {
		return err
	}
	if err := h.service.AdminRemove(c.UserContext(), caller, enrollmentID); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}
