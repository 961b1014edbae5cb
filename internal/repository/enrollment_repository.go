package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/mouhsinou/course-enrollment-platform/internal/domain"
)

// EnrollmentFilter narrows enrollment listings. Nil fields are ignored.
type EnrollmentFilter struct {
	UserID   *int64
	CourseID *int64
}

// EnrollmentRepository encapsulates enrollment persistence.
type EnrollmentRepository interface {
	Create(ctx context.Context, enrollment *domain.Enrollment) error
	GetByID(ctx context.Context, id int64) (*domain.Enrollment, error)
	GetByUserAndCourse(ctx context.Context, userID, courseID int64) (*domain.Enrollment, error)
	CountByCourse(ctx context.Context, courseID int64) (int, error)
	Delete(ctx context.Context, id int64) error
	// List returns matching enrollments with user and course summaries, oldest first.
	List(ctx context.Context, filter EnrollmentFilter) ([]domain.Enrollment, error)
}

type enrollmentRepository struct {
	db DBTX
}

// NewEnrollmentRepository instantiates repository.
func NewEnrollmentRepository(db DBTX) EnrollmentRepository {
	return &enrollmentRepository{db: db}
}

func (r *enrollmentRepository) Create(ctx context.Context, enrollment *domain.Enrollment) error {
	const query = `
        INSERT INTO enrollments (user_id, course_id)
        VALUES ($1, $2)
        RETURNING id, created_at`

	err := r.db.QueryRow(ctx, query, enrollment.UserID, enrollment.CourseID).
		Scan(&enrollment.ID, &enrollment.CreatedAt)
	return translateError(err)
}

func (r *enrollmentRepository) GetByID(ctx context.Context, id int64) (*domain.Enrollment, error) {
	const query = `SELECT id, user_id, course_id, created_at FROM enrollments WHERE id=$1`
	return r.fetchSingle(ctx, query, id)
}

func (r *enrollmentRepository) GetByUserAndCourse(ctx context.Context, userID, courseID int64) (*domain.Enrollment, error) {
	const query = `SELECT id, user_id, course_id, created_at FROM enrollments WHERE user_id=$1 AND course_id=$2`
	return r.fetchSingle(ctx, query, userID, courseID)
}

func (r *enrollmentRepository) CountByCourse(ctx context.Context, courseID int64) (int, error) {
	const query = `SELECT COUNT(*) FROM enrollments WHERE course_id=$1`

	var count int
	if err := r.db.QueryRow(ctx, query, courseID).Scan(&count); err != nil {
		return 0, translateError(err)
	}
	return count, nil
}

func (r *enrollmentRepository) Delete(ctx context.Context, id int64) error {
	const query = `DELETE FROM enrollments WHERE id=$1`

	cmd, err := r.db.Exec(ctx, query, id)
	if err != nil {
		return translateError(err)
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *enrollmentRepository) List(ctx context.Context, filter EnrollmentFilter) ([]domain.Enrollment, error) {
	base := `SELECT e.id, e.user_id, e.course_id, e.created_at,
                    u.name, u.email, c.title, c.code
             FROM enrollments e
             JOIN users u ON u.id = e.user_id
             JOIN courses c ON c.id = e.course_id`
	clauses := []string{"1=1"}
	args := []any{}

	if filter.UserID != nil {
		args = append(args, *filter.UserID)
		clauses = append(clauses, fmt.Sprintf("e.user_id=$%d", len(args)))
	}
	if filter.CourseID != nil {
		args = append(args, *filter.CourseID)
		clauses = append(clauses, fmt.Sprintf("e.course_id=$%d", len(args)))
	}

	query := fmt.Sprintf(`%s WHERE %s ORDER BY e.id`, base, strings.Join(clauses, " AND "))

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, translateError(err)
	}
	defer rows.Close()
	return scanEnrollmentsWithSummaries(rows)
}

func (r *enrollmentRepository) fetchSingle(ctx context.Context, query string, args ...any) (*domain.Enrollment, error) {
	var enrollment domain.Enrollment
	if err := r.db.QueryRow(ctx, query, args...).Scan(
		&enrollment.ID,
		&enrollment.UserID,
		&enrollment.CourseID,
		&enrollment.CreatedAt,
	); err != nil {
		return nil, translateError(err)
	}
	return &enrollment, nil
}

func scanEnrollmentsWithSummaries(rows pgx.Rows) ([]domain.Enrollment, error) {
	result := []domain.Enrollment{}
	for rows.Next() {
		var (
			enrollment domain.Enrollment
			user       domain.UserSummary
			course     domain.CourseSummary
		)
		if err := rows.Scan(
			&enrollment.ID,
			&enrollment.UserID,
			&enrollment.CourseID,
			&enrollment.CreatedAt,
			&user.Name,
			&user.Email,
			&course.Title,
			&course.Code,
		); err != nil {
			return nil, err
		}
		user.ID = enrollment.UserID
		course.ID = enrollment.CourseID
		enrollment.User = &user
		enrollment.Course = &course
		result = append(result, enrollment)
	}
	return result, rows.Err()
}
