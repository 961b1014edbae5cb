package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Constraint names declared by the schema migrations.
const (
	ConstraintUserEmail        = "users_email_key"
	ConstraintCourseCode       = "courses_code_key"
	ConstraintCourseCapacity   = "courses_capacity_check"
	ConstraintEnrollmentUnique = "enrollments_user_course_key"
	ConstraintEnrollmentUser   = "enrollments_user_id_fkey"
	ConstraintEnrollmentCourse = "enrollments_course_id_fkey"
)

var (
	// ErrNotFound is returned when a lookup matches no row.
	ErrNotFound = errors.New("record not found")
	// ErrValueOutOfRange is returned when a value does not fit its column.
	ErrValueOutOfRange = errors.New("value out of range for column")
)

// ConstraintError reports a write rejected by a store constraint.
type ConstraintError struct {
	Constraint string
	Err        error
}

func (e *ConstraintError) Error() string {
	return fmt.Sprintf("constraint %s violated", e.Constraint)
}

func (e *ConstraintError) Unwrap() error {
	return e.Err
}

// IsConstraint reports whether err is a violation of the named constraint.
func IsConstraint(err error, name string) bool {
	var ce *ConstraintError
	return errors.As(err, &ce) && ce.Constraint == name
}

// DBTX is the query surface shared by *pgxpool.Pool and pgx.Tx.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Repositories groups the repositories bound to one connection or transaction.
type Repositories struct {
	Users       UserRepository
	Courses     CourseRepository
	Enrollments EnrollmentRepository
}

// Store hands out repositories and runs units of work atomically.
type Store interface {
	Repositories() Repositories
	// WithinTx runs fn in one transaction. A non-nil error from fn, a panic, or a
	// cancelled ctx rolls everything back.
	WithinTx(ctx context.Context, fn func(ctx context.Context, repos Repositories) error) error
}

// Pool is the connection pool surface PostgresStore needs. *pgxpool.Pool
// satisfies it.
type Pool interface {
	DBTX
	BeginTx(ctx context.Context, opts pgx.TxOptions) (pgx.Tx, error)
}

var _ Pool = (*pgxpool.Pool)(nil)

// PostgresStore implements Store on a pgx pool.
type PostgresStore struct {
	pool Pool
}

// NewPostgresStore returns a pgx-backed store.
func NewPostgresStore(pool Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// Repositories returns repositories running on the pool outside any transaction.
func (s *PostgresStore) Repositories() Repositories {
	return newRepositories(s.pool)
}

// WithinTx runs fn in a READ COMMITTED transaction. Callers that validate against
// shared state lock it explicitly (see CourseRepository.GetByIDForUpdate).
func (s *PostgresStore) WithinTx(ctx context.Context, fn func(ctx context.Context, repos Repositories) error) (err error) {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted})
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback(context.Background())
			panic(p)
		}
		if err != nil {
			_ = tx.Rollback(context.Background())
		}
	}()

	if err = fn(ctx, newRepositories(tx)); err != nil {
		return err
	}
	if err = tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", translateError(err))
	}
	return nil
}

func newRepositories(db DBTX) Repositories {
	return Repositories{
		Users:       NewUserRepository(db),
		Courses:     NewCourseRepository(db),
		Enrollments: NewEnrollmentRepository(db),
	}
}

func translateError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505", "23514", "23503":
			return &ConstraintError{Constraint: pgErr.ConstraintName, Err: err}
		case "22001", "22003":
			return fmt.Errorf("%w: %w", ErrValueOutOfRange, err)
		}
	}
	return err
}
