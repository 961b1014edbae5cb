package service

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/mouhsinou/course-enrollment-platform/internal/domain"
	"github.com/mouhsinou/course-enrollment-platform/internal/events"
	"github.com/mouhsinou/course-enrollment-platform/internal/observability"
	"github.com/mouhsinou/course-enrollment-platform/internal/repository"
	apperrors "github.com/mouhsinou/course-enrollment-platform/pkg/util/errorutil"
)

// EnrollmentService enforces who may take a seat in which course.
type EnrollmentService struct {
	store      repository.Store
	dispatcher events.Dispatcher
	metrics    *observability.Metrics
	logger     *zap.Logger
}

// EnrollmentDependencies bundles collaborators for the enrollment service.
type EnrollmentDependencies struct {
	Store      repository.Store
	Dispatcher events.Dispatcher
	Metrics    *observability.Metrics
	Logger     *zap.Logger
}

// NewEnrollmentService constructs the service.
func NewEnrollmentService(deps EnrollmentDependencies) *EnrollmentService {
	svc := &EnrollmentService{
		store:      deps.Store,
		dispatcher: deps.Dispatcher,
		metrics:    deps.Metrics,
		logger:     deps.Logger,
	}
	if svc.dispatcher == nil {
		svc.dispatcher = events.NewInMemoryDispatcher(deps.Logger)
	}
	if svc.logger == nil {
		svc.logger = zap.NewNop()
	}
	return svc
}

// Enroll takes a seat in courseID for a student. Checks run in a fixed order and
// the first failure is returned.
func (s *EnrollmentService) Enroll(ctx context.Context, caller *domain.User, courseID int64) (*domain.Enrollment, error) {
	if !caller.IsStudent() {
		return nil, s.reject(apperrors.NewForbidden("only students can enroll in courses"))
	}

	var (
		enrollment *domain.Enrollment
		available  int
	)
	err := s.store.WithinTx(ctx, func(ctx context.Context, repos repository.Repositories) error {
		// Row lock serializes concurrent enrollments for the same course.
		course, err := repos.Courses.GetByIDForUpdate(ctx, courseID)
		if err != nil {
			return notFoundOr(err, "course")
		}
		if !course.IsActive {
			return apperrors.NewInvalidInput(apperrors.CodeCourseInactive, msgCourseInactive)
		}

		_, err = repos.Enrollments.GetByUserAndCourse(ctx, caller.ID, course.ID)
		switch {
		case err == nil:
			return apperrors.NewConflict(apperrors.CodeAlreadyEnrolled, msgAlreadyEnrolled, nil)
		case !errors.Is(err, repository.ErrNotFound):
			return err
		}

		count, err := repos.Enrollments.CountByCourse(ctx, course.ID)
		if err != nil {
			return err
		}
		if count >= course.Capacity {
			return apperrors.NewInvalidInput(apperrors.CodeCourseFull, msgCourseFull)
		}

		created := &domain.Enrollment{UserID: caller.ID, CourseID: course.ID}
		if err := repos.Enrollments.Create(ctx, created); err != nil {
			return err
		}
		created.User = &domain.UserSummary{ID: caller.ID, Name: caller.Name, Email: caller.Email}
		created.Course = &domain.CourseSummary{ID: course.ID, Title: course.Title, Code: course.Code}
		enrollment = created
		available = course.Capacity - count - 1
		return nil
	})
	if err != nil {
		return nil, s.reject(translateStoreError(err))
	}

	s.metrics.RecordEnrollment(observability.OutcomeEnrolled, "")
	s.logger.Info("student enrolled",
		zap.Int64("enrollment_id", enrollment.ID),
		zap.Int64("user_id", caller.ID),
		zap.Int64("course_id", courseID))
	_ = s.dispatcher.Publish(ctx, events.Event{
		Type:     events.EventEnrollmentCreated,
		CourseID: courseID,
		Actor:    actorOf(caller),
		Payload: events.EnrollmentPayload{
			EnrollmentID:   enrollment.ID,
			UserID:         caller.ID,
			AvailableSlots: available,
		},
	})
	return enrollment, nil
}

// Deregister releases the caller's seat in courseID.
func (s *EnrollmentService) Deregister(ctx context.Context, caller *domain.User, courseID int64) error {
	if !caller.IsStudent() {
		return apperrors.NewForbidden("only students can deregister from courses")
	}

	var removed *domain.Enrollment
	err := s.store.WithinTx(ctx, func(ctx context.Context, repos repository.Repositories) error {
		existing, err := repos.Enrollments.GetByUserAndCourse(ctx, caller.ID, courseID)
		if err != nil {
			return notFoundOr(err, "enrollment")
		}
		if err := repos.Enrollments.Delete(ctx, existing.ID); err != nil {
			return notFoundOr(err, "enrollment")
		}
		removed = existing
		return nil
	})
	if err != nil {
		return translateStoreError(err)
	}

	s.metrics.RecordEnrollment(observability.OutcomeDeregistered, "")
	s.logger.Info("student deregistered",
		zap.Int64("enrollment_id", removed.ID),
		zap.Int64("user_id", caller.ID),
		zap.Int64("course_id", courseID))
	s.publishRemoved(ctx, caller, removed, "student")
	return nil
}

// AdminRemove deletes any enrollment by id.
func (s *EnrollmentService) AdminRemove(ctx context.Context, caller *domain.User, enrollmentID int64) error {
	if err := requireAdmin(caller); err != nil {
		return err
	}

	var removed *domain.Enrollment
	err := s.store.WithinTx(ctx, func(ctx context.Context, repos repository.Repositories) error {
		existing, err := repos.Enrollments.GetByID(ctx, enrollmentID)
		if err != nil {
			return notFoundOr(err, "enrollment")
		}
		if err := repos.Enrollments.Delete(ctx, existing.ID); err != nil {
			return notFoundOr(err, "enrollment")
		}
		removed = existing
		return nil
	})
	if err != nil {
		return translateStoreError(err)
	}

	s.metrics.RecordEnrollment(observability.OutcomeRemoved, "")
	s.logger.Info("enrollment removed by admin",
		zap.Int64("enrollment_id", removed.ID),
		zap.Int64("admin_id", caller.ID),
		zap.Int64("course_id", removed.CourseID))
	s.publishRemoved(ctx, caller, removed, "admin")
	return nil
}

// ListAll returns every enrollment with user and course summaries.
func (s *EnrollmentService) ListAll(ctx context.Context, caller *domain.User) ([]domain.Enrollment, error) {
	if err := requireAdmin(caller); err != nil {
		return nil, err
	}
	enrollments, err := s.store.Repositories().Enrollments.List(ctx, repository.EnrollmentFilter{})
	if err != nil {
		return nil, translateStoreError(err)
	}
	return enrollments, nil
}

// ListByCourse returns the enrollments of one existing course.
func (s *EnrollmentService) ListByCourse(ctx context.Context, caller *domain.User, courseID int64) ([]domain.Enrollment, error) {
	if err := requireAdmin(caller); err != nil {
		return nil, err
	}
	repos := s.store.Repositories()
	if _, err := repos.Courses.GetByID(ctx, courseID); err != nil {
		return nil, notFoundOr(err, "course")
	}
	enrollments, err := repos.Enrollments.List(ctx, repository.EnrollmentFilter{CourseID: &courseID})
	if err != nil {
		return nil, translateStoreError(err)
	}
	return enrollments, nil
}

// ListForUser returns the caller's own enrollments.
func (s *EnrollmentService) ListForUser(ctx context.Context, user *domain.User) ([]domain.Enrollment, error) {
	if user == nil {
		return nil, apperrors.NewUnauthorized("not authenticated")
	}
	enrollments, err := s.store.Repositories().Enrollments.List(ctx, repository.EnrollmentFilter{UserID: &user.ID})
	if err != nil {
		return nil, translateStoreError(err)
	}
	return enrollments, nil
}

func (s *EnrollmentService) reject(err error) error {
	s.metrics.RecordEnrollment(observability.OutcomeRejected, apperrors.ToDomainError(err).Code)
	return err
}

func (s *EnrollmentService) publishRemoved(ctx context.Context, caller *domain.User, removed *domain.Enrollment, by string) {
	_ = s.dispatcher.Publish(ctx, events.Event{
		Type:     events.EventEnrollmentRemoved,
		CourseID: removed.CourseID,
		Actor:    actorOf(caller),
		Payload: events.EnrollmentPayload{
			EnrollmentID: removed.ID,
			UserID:       removed.UserID,
			RemovedBy:    by,
		},
	})
}
