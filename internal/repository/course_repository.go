package repository

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/mouhsinou/course-enrollment-platform/internal/domain"
)

// CourseRepository encapsulates course persistence. Every read fills
// EnrolledCount from the live enrollment set.
type CourseRepository interface {
	Create(ctx context.Context, course *domain.Course) error
	Update(ctx context.Context, course *domain.Course) error
	GetByID(ctx context.Context, id int64) (*domain.Course, error)
	// GetByIDForUpdate locks the course row until the enclosing transaction ends.
	GetByIDForUpdate(ctx context.Context, id int64) (*domain.Course, error)
	GetByCode(ctx context.Context, code string) (*domain.Course, error)
	ListActive(ctx context.Context) ([]domain.Course, error)
}

type courseRepository struct {
	db DBTX
}

// NewCourseRepository instantiates repository.
func NewCourseRepository(db DBTX) CourseRepository {
	return &courseRepository{db: db}
}

const courseColumns = `
        c.id, c.title, c.code, c.capacity, c.is_active, c.created_at, c.updated_at,
        (SELECT COUNT(*) FROM enrollments e WHERE e.course_id = c.id)`

func (r *courseRepository) Create(ctx context.Context, course *domain.Course) error {
	const query = `
        INSERT INTO courses (title, code, capacity, is_active)
        VALUES ($1, $2, $3, $4)
        RETURNING id, created_at, updated_at`

	err := r.db.QueryRow(ctx, query,
		course.Title,
		course.Code,
		course.Capacity,
		course.IsActive,
	).Scan(&course.ID, &course.CreatedAt, &course.UpdatedAt)
	if err != nil {
		return translateError(err)
	}
	course.EnrolledCount = 0
	return nil
}

func (r *courseRepository) Update(ctx context.Context, course *domain.Course) error {
	const query = `
        UPDATE courses SET title=$1, code=$2, capacity=$3, is_active=$4, updated_at=NOW()
        WHERE id=$5
        RETURNING updated_at`

	err := r.db.QueryRow(ctx, query,
		course.Title,
		course.Code,
		course.Capacity,
		course.IsActive,
		course.ID,
	).Scan(&course.UpdatedAt)
	return translateError(err)
}

func (r *courseRepository) GetByID(ctx context.Context, id int64) (*domain.Course, error) {
	query := `SELECT ` + courseColumns + ` FROM courses c WHERE c.id=$1`
	return r.fetchSingle(ctx, query, id)
}

func (r *courseRepository) GetByIDForUpdate(ctx context.Context, id int64) (*domain.Course, error) {
	const lockQuery = `SELECT id FROM courses WHERE id=$1 FOR UPDATE`

	var locked int64
	if err := r.db.QueryRow(ctx, lockQuery, id).Scan(&locked); err != nil {
		return nil, translateError(err)
	}
	// Read committed: this statement sees every enrollment committed before the lock was granted.
	return r.GetByID(ctx, id)
}

func (r *courseRepository) GetByCode(ctx context.Context, code string) (*domain.Course, error) {
	query := `SELECT ` + courseColumns + ` FROM courses c WHERE c.code=$1`
	return r.fetchSingle(ctx, query, code)
}

func (r *courseRepository) ListActive(ctx context.Context) ([]domain.Course, error) {
	query := `SELECT ` + courseColumns + ` FROM courses c WHERE c.is_active ORDER BY c.id`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, translateError(err)
	}
	defer rows.Close()
	return scanCourses(rows)
}

func (r *courseRepository) fetchSingle(ctx context.Context, query string, arg any) (*domain.Course, error) {
	var course domain.Course
	if err := scanCourse(r.db.QueryRow(ctx, query, arg), &course); err != nil {
		return nil, translateError(err)
	}
	return &course, nil
}

func scanCourse(row pgx.Row, course *domain.Course) error {
	return row.Scan(
		&course.ID,
		&course.Title,
		&course.Code,
		&course.Capacity,
		&course.IsActive,
		&course.CreatedAt,
		&course.UpdatedAt,
		&course.EnrolledCount,
	)
}

func scanCourses(rows pgx.Rows) ([]domain.Course, error) {
	result := []domain.Course{}
	for rows.Next() {
		var course domain.Course
		if err := scanCourse(rows, &course); err != nil {
			return nil, err
		}
		result = append(result, course)
	}
	return result, rows.Err()
}
