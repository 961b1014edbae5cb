package service

import (
	"context"
	"errors"
	"fmt"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/mouhsinou/course-enrollment-platform/internal/cache"
	"github.com/mouhsinou/course-enrollment-platform/internal/domain"
	"github.com/mouhsinou/course-enrollment-platform/internal/events"
	"github.com/mouhsinou/course-enrollment-platform/internal/repository"
	apperrors "github.com/mouhsinou/course-enrollment-platform/pkg/util/errorutil"
)

// CourseService owns course records and their capacity/activation state.
type CourseService struct {
	store      repository.Store
	cache      cache.CourseCache
	dispatcher events.Dispatcher
	logger     *zap.Logger
}

// CourseDependencies bundles collaborators for the course service.
type CourseDependencies struct {
	Store      repository.Store
	Cache      cache.CourseCache
	Dispatcher events.Dispatcher
	Logger     *zap.Logger
}

// CourseCreateInput describes a new course. A nil IsActive means active.
type CourseCreateInput struct {
	Title    string
	Code     string
	Capacity int
	IsActive *bool
}

// CourseUpdateInput carries the fields to change; nil fields stay untouched.
type CourseUpdateInput struct {
	Title    *string
	Code     *string
	Capacity *int
	IsActive *bool
}

// NewCourseService constructs the service.
func NewCourseService(deps CourseDependencies) *CourseService {
	svc := &CourseService{
		store:      deps.Store,
		cache:      deps.Cache,
		dispatcher: deps.Dispatcher,
		logger:     deps.Logger,
	}
	if svc.cache == nil {
		svc.cache = cache.NewCourseCache(nil, 0, nil)
	}
	if svc.dispatcher == nil {
		svc.dispatcher = events.NewInMemoryDispatcher(deps.Logger)
	}
	if svc.logger == nil {
		svc.logger = zap.NewNop()
	}
	return svc
}

// ListActive returns every active course with its live occupancy.
func (s *CourseService) ListActive(ctx context.Context) ([]domain.Course, error) {
	cached, generation, ok := s.cache.GetActive(ctx)
	if ok {
		return cached, nil
	}
	courses, err := s.store.Repositories().Courses.ListActive(ctx)
	if err != nil {
		return nil, translateStoreError(err)
	}
	s.cache.SetActive(ctx, generation, courses)
	return courses, nil
}

// Get returns a course regardless of its activation state.
func (s *CourseService) Get(ctx context.Context, id int64) (*domain.Course, error) {
	course, err := s.store.Repositories().Courses.GetByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "course")
	}
	return course, nil
}

// Create persists a new course. A taken code is reported before field errors.
func (s *CourseService) Create(ctx context.Context, actor *domain.User, input CourseCreateInput) (*domain.Course, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}

	code, codeErr := domain.NormalizeCode(input.Code)
	title, titleErr := domain.NormalizeTitle(input.Title)

	course := &domain.Course{
		Title:    title,
		Code:     code,
		Capacity: input.Capacity,
		IsActive: true,
	}
	if input.IsActive != nil {
		course.IsActive = *input.IsActive
	}

	err := s.store.WithinTx(ctx, func(ctx context.Context, repos repository.Repositories) error {
		if codeErr == nil {
			if err := ensureCodeFree(ctx, repos.Courses, code, 0); err != nil {
				return err
			}
		}
		if err := validateCourseFields(titleErr, codeErr, &title, &code, &input.Capacity); err != nil {
			return err
		}
		return repos.Courses.Create(ctx, course)
	})
	if err != nil {
		return nil, translateStoreError(err)
	}

	s.logger.Info("course created", zap.Int64("course_id", course.ID), zap.String("code", course.Code), zap.Int64("actor_id", actor.ID))
	s.publishCourseChanged(ctx, actor, course, true)
	return course, nil
}

// Update applies the supplied fields. Capacity may not drop below current enrollment.
func (s *CourseService) Update(ctx context.Context, actor *domain.User, id int64, input CourseUpdateInput) (*domain.Course, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}

	var (
		title, code       string
		titleErr, codeErr error
	)
	if input.Title != nil {
		title, titleErr = domain.NormalizeTitle(*input.Title)
	}
	if input.Code != nil {
		code, codeErr = domain.NormalizeCode(*input.Code)
	}

	var course *domain.Course
	err := s.store.WithinTx(ctx, func(ctx context.Context, repos repository.Repositories) error {
		current, err := repos.Courses.GetByIDForUpdate(ctx, id)
		if err != nil {
			return notFoundOr(err, "course")
		}

		if input.Code != nil && codeErr == nil && code != current.Code {
			if err := ensureCodeFree(ctx, repos.Courses, code, current.ID); err != nil {
				return err
			}
		}

		var titlePtr, codePtr *string
		if input.Title != nil {
			titlePtr = &title
		}
		if input.Code != nil {
			codePtr = &code
		}
		if err := validateCourseFields(titleErr, codeErr, titlePtr, codePtr, input.Capacity); err != nil {
			return err
		}

		if titlePtr != nil {
			current.Title = title
		}
		if codePtr != nil {
			current.Code = code
		}
		if input.Capacity != nil {
			if *input.Capacity < current.EnrolledCount {
				return apperrors.NewInvalidInput("", fmt.Sprintf(
					"capacity cannot be lower than current enrollment (%d)", current.EnrolledCount))
			}
			current.Capacity = *input.Capacity
		}
		if input.IsActive != nil {
			current.IsActive = *input.IsActive
		}

		if err := repos.Courses.Update(ctx, current); err != nil {
			return err
		}
		course = current
		return nil
	})
	if err != nil {
		return nil, translateStoreError(err)
	}

	s.logger.Info("course updated", zap.Int64("course_id", course.ID), zap.Int64("actor_id", actor.ID))
	s.publishCourseChanged(ctx, actor, course, false)
	return course, nil
}

// SetActive opens or closes a course for enrollment actions.
func (s *CourseService) SetActive(ctx context.Context, actor *domain.User, id int64, active bool) (*domain.Course, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}

	var course *domain.Course
	err := s.store.WithinTx(ctx, func(ctx context.Context, repos repository.Repositories) error {
		current, err := repos.Courses.GetByIDForUpdate(ctx, id)
		if err != nil {
			return notFoundOr(err, "course")
		}
		current.IsActive = active
		if err := repos.Courses.Update(ctx, current); err != nil {
			return err
		}
		course = current
		return nil
	})
	if err != nil {
		return nil, translateStoreError(err)
	}

	s.logger.Info("course activation changed", zap.Int64("course_id", course.ID), zap.Bool("is_active", active))
	s.publishCourseChanged(ctx, actor, course, false)
	return course, nil
}

func (s *CourseService) publishCourseChanged(ctx context.Context, actor *domain.User, course *domain.Course, created bool) {
	_ = s.dispatcher.Publish(ctx, events.Event{
		Type:     events.EventCourseChanged,
		CourseID: course.ID,
		Actor:    actorOf(actor),
		Payload: events.CourseChangedPayload{
			Code:     course.Code,
			Capacity: course.Capacity,
			IsActive: course.IsActive,
			Created:  created,
		},
	})
}

func ensureCodeFree(ctx context.Context, courses repository.CourseRepository, code string, selfID int64) error {
	existing, err := courses.GetByCode(ctx, code)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil
		}
		return err
	}
	if existing.ID == selfID {
		return nil
	}
	return apperrors.NewConflict(apperrors.CodeCodeTaken,
		fmt.Sprintf("course with code '%s' already exists", code), nil)
}

// validateCourseFields checks the supplied (non-nil) fields after normalization.
func validateCourseFields(titleErr, codeErr error, title, code *string, capacity *int) error {
	details := map[string]any{}
	if titleErr != nil {
		details["title"] = titleErr.Error()
	} else if title != nil {
		if n := utf8.RuneCountInString(*title); n < domain.CourseTitleMinLen || n > domain.CourseTitleMaxLen {
			details["title"] = fmt.Sprintf("must be %d-%d characters", domain.CourseTitleMinLen, domain.CourseTitleMaxLen)
		}
	}
	if codeErr != nil {
		details["code"] = codeErr.Error()
	} else if code != nil {
		if n := utf8.RuneCountInString(*code); n < domain.CourseCodeMinLen || n > domain.CourseCodeMaxLen {
			details["code"] = fmt.Sprintf("must be %d-%d characters", domain.CourseCodeMinLen, domain.CourseCodeMaxLen)
		}
	}
	if capacity != nil {
		switch {
		case *capacity <= 0:
			details["capacity"] = "must be greater than 0"
		case *capacity > domain.CourseCapacityMax:
			details["capacity"] = fmt.Sprintf("must be at most %d", domain.CourseCapacityMax)
		}
	}
	if len(details) > 0 {
		return apperrors.NewValidationError("invalid course fields", details)
	}
	return nil
}

func requireAdmin(actor *domain.User) error {
	if actor == nil {
		return apperrors.NewUnauthorized("not authenticated")
	}
	if !actor.IsAdmin() {
		return apperrors.NewForbidden(fmt.Sprintf("this endpoint requires %s role", domain.RoleAdmin))
	}
	return nil
}

func actorOf(user *domain.User) events.Actor {
	if user == nil {
		return events.Actor{}
	}
	return events.Actor{UserID: user.ID, Role: string(user.Role)}
}
