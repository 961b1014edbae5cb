package memory

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mouhsinou/course-enrollment-platform/internal/domain"
	"github.com/mouhsinou/course-enrollment-platform/internal/repository"
)

func seed(t *testing.T, s *Store) (*domain.User, *domain.Course) {
	t.Helper()
	ctx := context.Background()
	repos := s.Repositories()

	user := &domain.User{Name: "Ada", Email: "ada@example.com", Role: domain.RoleStudent, IsActive: true}
	require.NoError(t, repos.Users.Create(ctx, user))

	course := &domain.Course{Title: "Intro", Code: "CS101", Capacity: 2, IsActive: true}
	require.NoError(t, repos.Courses.Create(ctx, course))
	return user, course
}

func TestStore_Constraints(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	repos := s.Repositories()
	user, course := seed(t, s)

	err := repos.Users.Create(ctx, &domain.User{Email: user.Email})
	assert.True(t, repository.IsConstraint(err, repository.ConstraintUserEmail))

	err = repos.Courses.Create(ctx, &domain.Course{Title: "Other", Code: course.Code, Capacity: 1})
	assert.True(t, repository.IsConstraint(err, repository.ConstraintCourseCode))

	err = repos.Courses.Create(ctx, &domain.Course{Title: "Zero", Code: "Z0", Capacity: 0})
	assert.True(t, repository.IsConstraint(err, repository.ConstraintCourseCapacity))

	require.NoError(t, repos.Enrollments.Create(ctx, &domain.Enrollment{UserID: user.ID, CourseID: course.ID}))
	err = repos.Enrollments.Create(ctx, &domain.Enrollment{UserID: user.ID, CourseID: course.ID})
	assert.True(t, repository.IsConstraint(err, repository.ConstraintEnrollmentUnique))

	err = repos.Enrollments.Create(ctx, &domain.Enrollment{UserID: user.ID, CourseID: 999})
	assert.True(t, repository.IsConstraint(err, repository.ConstraintEnrollmentCourse))
}

func TestStore_DerivedCountAndListing(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	repos := s.Repositories()
	user, course := seed(t, s)

	inactive := &domain.Course{Title: "Hidden", Code: "CS999", Capacity: 5, IsActive: false}
	require.NoError(t, repos.Courses.Create(ctx, inactive))

	enrollment := &domain.Enrollment{UserID: user.ID, CourseID: course.ID}
	require.NoError(t, repos.Enrollments.Create(ctx, enrollment))
	assert.False(t, enrollment.CreatedAt.IsZero())

	got, err := repos.Courses.GetByID(ctx, course.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.EnrolledCount)

	active, err := repos.Courses.ListActive(ctx)
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, "CS101", active[0].Code)
	assert.Equal(t, 1, active[0].EnrolledCount)

	list, err := repos.Enrollments.List(ctx, repository.EnrollmentFilter{CourseID: &course.ID})
	require.NoError(t, err)
	require.Len(t, list, 1)
	require.NotNil(t, list[0].User)
	assert.Equal(t, "ada@example.com", list[0].User.Email)
	require.NotNil(t, list[0].Course)
	assert.Equal(t, "CS101", list[0].Course.Code)

	require.NoError(t, repos.Enrollments.Delete(ctx, enrollment.ID))
	assert.ErrorIs(t, repos.Enrollments.Delete(ctx, enrollment.ID), repository.ErrNotFound)

	count, err := repos.Enrollments.CountByCourse(ctx, course.ID)
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestStore_WithinTxRollsBackOnError(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	user, course := seed(t, s)
	boom := errors.New("boom")

	err := s.WithinTx(ctx, func(ctx context.Context, repos repository.Repositories) error {
		if err := repos.Enrollments.Create(ctx, &domain.Enrollment{UserID: user.ID, CourseID: course.ID}); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)

	count, err := s.Repositories().Enrollments.CountByCourse(ctx, course.ID)
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestStore_WithinTxRollsBackOnCancel(t *testing.T) {
	s := NewStore()
	user, course := seed(t, s)
	ctx, cancel := context.WithCancel(context.Background())

	err := s.WithinTx(ctx, func(txCtx context.Context, repos repository.Repositories) error {
		if err := repos.Enrollments.Create(txCtx, &domain.Enrollment{UserID: user.ID, CourseID: course.ID}); err != nil {
			return err
		}
		cancel()
		return nil
	})
	assert.ErrorIs(t, err, context.Canceled)

	count, err := s.Repositories().Enrollments.CountByCourse(context.Background(), course.ID)
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestStore_UpdateAndSetActive(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	repos := s.Repositories()
	user, course := seed(t, s)

	other := &domain.Course{Title: "Other", Code: "CS200", Capacity: 1, IsActive: true}
	require.NoError(t, repos.Courses.Create(ctx, other))

	other.Code = course.Code
	err := repos.Courses.Update(ctx, other)
	assert.True(t, repository.IsConstraint(err, repository.ConstraintCourseCode))

	course.Title = "Intro to Go"
	require.NoError(t, repos.Courses.Update(ctx, course))
	got, err := repos.Courses.GetByCode(ctx, "CS101")
	require.NoError(t, err)
	assert.Equal(t, "Intro to Go", got.Title)

	require.NoError(t, repos.Users.SetActive(ctx, user.ID, false))
	u, err := repos.Users.GetByEmail(ctx, user.Email)
	require.NoError(t, err)
	assert.False(t, u.IsActive)
	assert.ErrorIs(t, repos.Users.SetActive(ctx, 404, true), repository.ErrNotFound)
}
