package service

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mouhsinou/course-enrollment-platform/internal/domain"
	"github.com/mouhsinou/course-enrollment-platform/internal/events"
	"github.com/mouhsinou/course-enrollment-platform/internal/repository"
	apperrors "github.com/mouhsinou/course-enrollment-platform/pkg/util/errorutil"
)

var (
	pgCourseCols = []string{"id", "title", "code", "capacity", "is_active", "created_at", "updated_at", "enrolled_count"}
	pgNow        = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
)

// expectLockedCourse queues the transaction start, the course row lock and the
// occupancy read that open every enrollment.
func expectLockedCourse(mock pgxmock.PgxPoolIface, courseID int64, capacity, enrolled int, active bool) {
	mock.ExpectBeginTx(pgx.TxOptions{IsoLevel: pgx.ReadCommitted})
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id FROM courses WHERE id=$1 FOR UPDATE")).
		WithArgs(courseID).
		WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow(courseID))
	mock.ExpectQuery(regexp.QuoteMeta("FROM courses c WHERE c.id=$1")).
		WithArgs(courseID).
		WillReturnRows(pgxmock.NewRows(pgCourseCols).
			AddRow(courseID, "Intro", "CS101", capacity, active, pgNow, pgNow, enrolled))
}

func expectNotEnrolled(mock pgxmock.PgxPoolIface, userID, courseID int64) {
	mock.ExpectQuery(regexp.QuoteMeta("FROM enrollments WHERE user_id=$1 AND course_id=$2")).
		WithArgs(userID, courseID).
		WillReturnError(pgx.ErrNoRows)
}

func expectCount(mock pgxmock.PgxPoolIface, courseID int64, count int) {
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM enrollments WHERE course_id=$1")).
		WithArgs(courseID).
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(count))
}

func newPostgresEnrollmentService(t *testing.T) (*EnrollmentService, pgxmock.PgxPoolIface, *recordingDispatcher) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, mock.ExpectationsWereMet())
		mock.Close()
	})
	dispatcher := &recordingDispatcher{}
	svc := NewEnrollmentService(EnrollmentDependencies{
		Store:      repository.NewPostgresStore(mock),
		Dispatcher: dispatcher,
	})
	return svc, mock, dispatcher
}

func TestEnrollmentService_EnrollPostgres(t *testing.T) {
	ctx := context.Background()
	student := &domain.User{ID: 3, Name: "Alice", Email: "alice@test.com", Role: domain.RoleStudent, IsActive: true}

	t.Run("locks, checks, inserts, commits", func(t *testing.T) {
		svc, mock, dispatcher := newPostgresEnrollmentService(t)
		expectLockedCourse(mock, 7, 2, 1, true)
		expectNotEnrolled(mock, 3, 7)
		expectCount(mock, 7, 1)
		mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO enrollments (user_id, course_id)")).
			WithArgs(int64(3), int64(7)).
			WillReturnRows(pgxmock.NewRows([]string{"id", "created_at"}).AddRow(int64(11), pgNow))
		mock.ExpectCommit()

		enrollment, err := svc.Enroll(ctx, student, 7)
		require.NoError(t, err)
		assert.Equal(t, int64(11), enrollment.ID)
		assert.Equal(t, "CS101", enrollment.Course.Code)
		assert.Equal(t, []events.EventType{events.EventEnrollmentCreated}, dispatcher.types())
	})

	t.Run("full course rolls back without inserting", func(t *testing.T) {
		svc, mock, dispatcher := newPostgresEnrollmentService(t)
		expectLockedCourse(mock, 7, 2, 2, true)
		expectNotEnrolled(mock, 3, 7)
		expectCount(mock, 7, 2)
		mock.ExpectRollback()

		_, err := svc.Enroll(ctx, student, 7)
		assert.True(t, apperrors.HasCode(err, apperrors.CodeCourseFull))
		assert.Empty(t, dispatcher.types())
	})

	t.Run("inactive course is checked before occupancy", func(t *testing.T) {
		svc, mock, _ := newPostgresEnrollmentService(t)
		expectLockedCourse(mock, 7, 2, 2, false)
		mock.ExpectRollback()

		_, err := svc.Enroll(ctx, student, 7)
		assert.True(t, apperrors.HasCode(err, apperrors.CodeCourseInactive))
	})

	t.Run("unknown course", func(t *testing.T) {
		svc, mock, _ := newPostgresEnrollmentService(t)
		mock.ExpectBeginTx(pgx.TxOptions{IsoLevel: pgx.ReadCommitted})
		mock.ExpectQuery(regexp.QuoteMeta("FOR UPDATE")).
			WithArgs(int64(404)).
			WillReturnError(pgx.ErrNoRows)
		mock.ExpectRollback()

		_, err := svc.Enroll(ctx, student, 404)
		assert.Equal(t, 404, apperrors.StatusOf(err))
	})

	t.Run("unique violation on insert reads as already enrolled", func(t *testing.T) {
		svc, mock, _ := newPostgresEnrollmentService(t)
		expectLockedCourse(mock, 7, 5, 1, true)
		expectNotEnrolled(mock, 3, 7)
		expectCount(mock, 7, 1)
		mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO enrollments")).
			WithArgs(int64(3), int64(7)).
			WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: repository.ConstraintEnrollmentUnique})
		mock.ExpectRollback()

		_, err := svc.Enroll(ctx, student, 7)
		assert.True(t, apperrors.HasCode(err, apperrors.CodeAlreadyEnrolled))
	})
}
