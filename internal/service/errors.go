package service

import (
	"errors"

	"github.com/mouhsinou/course-enrollment-platform/internal/repository"
	apperrors "github.com/mouhsinou/course-enrollment-platform/pkg/util/errorutil"
)

// Messages callers match on; keep them stable.
const (
	msgEmailTaken      = "email already registered"
	msgAlreadyEnrolled = "already enrolled in this course"
	msgCourseFull      = "course is full"
	msgCourseInactive  = "cannot enroll in inactive course"
)

// translateStoreError turns repository failures into the domain errors they
// represent. Unknown failures become opaque internal errors.
func translateStoreError(err error) error {
	if err == nil {
		return nil
	}
	var domainErr *apperrors.DomainError
	if errors.As(err, &domainErr) {
		return err
	}

	if errors.Is(err, repository.ErrValueOutOfRange) {
		return apperrors.NewValidationError("value out of range", nil)
	}

	var ce *repository.ConstraintError
	if errors.As(err, &ce) {
		switch ce.Constraint {
		case repository.ConstraintUserEmail:
			return apperrors.NewConflict(apperrors.CodeEmailTaken, msgEmailTaken, nil)
		case repository.ConstraintCourseCode:
			return apperrors.NewConflict(apperrors.CodeCodeTaken, "course code already exists", nil)
		case repository.ConstraintEnrollmentUnique:
			return apperrors.NewConflict(apperrors.CodeAlreadyEnrolled, msgAlreadyEnrolled, nil)
		case repository.ConstraintCourseCapacity:
			return apperrors.NewValidationError("capacity must be greater than 0", map[string]any{"capacity": "must be greater than 0"})
		case repository.ConstraintEnrollmentCourse:
			return apperrors.NewNotFound("course", nil)
		case repository.ConstraintEnrollmentUser:
			return apperrors.NewNotFound("user", nil)
		}
	}
	return apperrors.NewInternalError(err)
}

// notFoundOr maps ErrNotFound to a NotFound for resource and anything else
// through translateStoreError.
func notFoundOr(err error, resource string) error {
	if errors.Is(err, repository.ErrNotFound) {
		return apperrors.NewNotFound(resource, nil)
	}
	return translateStoreError(err)
}
