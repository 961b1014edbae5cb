package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/mouhsinou/course-enrollment-platform/internal/api/dto"
	"github.com/mouhsinou/course-enrollment-platform/internal/service"
)

// CoursesHandler manages the course catalogue.
type CoursesHandler struct {
	service *service.CourseService
}

// NewCoursesHandler constructs handler.
func NewCoursesHandler(courseService *service.CourseService) *CoursesHandler {
	return &CoursesHandler{service: courseService}
}

// List GET /courses.
func (h *CoursesHandler) List(c *fiber.Ctx) error {
	courses, err := h.service.ListActive(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(dto.NewCourseResponses(courses))
}

// Get GET /courses/:id.
func (h *CoursesHandler) Get(c *fiber.Ctx) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	course, err := h.service.Get(c.UserContext(), id)
	if err != nil {
		return err
	}
	return c.JSON(dto.NewCourseResponse(course))
}

// Create POST /courses.
func (h *CoursesHandler) Create(c *fiber.Ctx) error {
	caller, err := currentUser(c)
	if err != nil {
		return err
	}
	var req dto.CourseCreateRequest
	if err := c.BodyParser(&req); err != nil {
		return dto.InvalidBody(err)
	}
	if err := dto.Validate(&req); err != nil {
		return err
	}

	course, err := h.service.Create(c.UserContext(), caller, service.CourseCreateInput{
		Title:    *req.Title,
		Code:     *req.Code,
		Capacity: *req.Capacity,
		IsActive: req.IsActive,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(dto.NewCourseResponse(course))
}

// Update PUT /courses/:id.
func (h *CoursesHandler) Update(c *fiber.Ctx) error {
	caller, err := currentUser(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	var req dto.CourseUpdateRequest
	if err := c.BodyParser(&req); err != nil {
		return dto.InvalidBody(err)
	}

	course, err := h.service.Update(c.UserContext(), caller, id, service.CourseUpdateInput{
		Title:    req.Title,
		Code:     req.Code,
		Capacity: req.Capacity,
		IsActive: req.IsActive,
	})
	if err != nil {
		return err
	}
	return c.JSON(dto.NewCourseResponse(course))
}

// SetActive PATCH /courses/:id/activate?is_active=bool.
func (h *CoursesHandler) SetActive(c *fiber.Ctx) error {
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
	course, err := h.service.SetActive(c.UserContext(), caller, id, active)
	if err != nil {
		return err
	}
	return c.JSON(dto.NewCourseResponse(course))
}
