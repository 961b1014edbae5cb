package dto

import (
	"time"

	"github.com/mouhsinou/course-enrollment-platform/internal/domain"
)

// CourseCreateRequest payload. Length and capacity rules are enforced by the
// course service after the code uniqueness check.
type CourseCreateRequest struct {
	Title    *string `json:"title" validate:"required"`
	Code     *string `json:"code" validate:"required"`
	Capacity *int    `json:"capacity" validate:"required"`
	IsActive *bool   `json:"is_active"`
}

// CourseUpdateRequest payload; absent fields stay unchanged.
type CourseUpdateRequest struct {
	Title    *string `json:"title"`
	Code     *string `json:"code"`
	Capacity *int    `json:"capacity"`
	IsActive *bool   `json:"is_active"`
}

// CourseResponse includes the occupancy derived from live enrollments.
type CourseResponse struct {
	ID             int64     `json:"id"`
	Title          string    `json:"title"`
	Code           string    `json:"code"`
	Capacity       int       `json:"capacity"`
	IsActive       bool      `json:"is_active"`
	EnrolledCount  int       `json:"enrolled_count"`
	AvailableSlots int       `json:"available_slots"`
	IsFull         bool      `json:"is_full"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// NewCourseResponse maps a domain course.
func NewCourseResponse(c *domain.Course) CourseResponse {
	return CourseResponse{
		ID:             c.ID,
		Title:          c.Title,
		Code:           c.Code,
		Capacity:       c.Capacity,
		IsActive:       c.IsActive,
		EnrolledCount:  c.EnrolledCount,
		AvailableSlots: c.AvailableSlots(),
		IsFull:         c.IsFull(),
		CreatedAt:      c.CreatedAt,
		UpdatedAt:      c.UpdatedAt,
	}
}

// NewCourseResponses maps a list, never returning nil.
func NewCourseResponses(courses []domain.Course) []CourseResponse {
	out := make([]CourseResponse, 0, len(courses))
	for i := range courses {
		out = append(out, NewCourseResponse(&courses[i]))
	}
	return out
}
