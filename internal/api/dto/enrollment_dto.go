package dto

import (
	"time"

	"github.com/mouhsinou/course-enrollment-platform/internal/domain"
)

// EnrollmentCreateRequest payload.
type EnrollmentCreateRequest struct {
	CourseID *int64 `json:"course_id" validate:"required"`
}

// UserSummary is the user side of an enrollment row.
type UserSummary struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// CourseSummary is the course side of an enrollment row.
type CourseSummary struct {
	ID    int64  `json:"id"`
	Title string `json:"title"`
	Code  string `json:"code"`
}

// EnrollmentResponse payload.
type EnrollmentResponse struct {
	ID        int64          `json:"id"`
	UserID    int64          `json:"user_id"`
	CourseID  int64          `json:"course_id"`
	CreatedAt time.Time      `json:"created_at"`
	User      *UserSummary   `json:"user,omitempty"`
	Course    *CourseSummary `json:"course,omitempty"`
}

// NewEnrollmentResponse maps a domain enrollment.
func NewEnrollmentResponse(e *domain.Enrollment) EnrollmentResponse {
	resp := EnrollmentResponse{
		ID:        e.ID,
		UserID:    e.UserID,
		CourseID:  e.CourseID,
		CreatedAt: e.CreatedAt,
	}
	if e.User != nil {
		resp.User = &UserSummary{ID: e.User.ID, Name: e.User.Name, Email: e.User.Email}
	}
	if e.Course != nil {
		resp.Course = &CourseSummary{ID: e.Course.ID, Title: e.Course.Title, Code: e.Course.Code}
	}
	return resp
}

// NewEnrollmentResponses maps a list, never returning nil.
func NewEnrollmentResponses(enrollments []domain.Enrollment) []EnrollmentResponse {
	out := make([]EnrollmentResponse, 0, len(enrollments))
	for i := range enrollments {
		out = append(out, NewEnrollmentResponse(&enrollments[i]))
	}
	return out
}
