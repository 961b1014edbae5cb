package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/mouhsinou/course-enrollment-platform/internal/domain"
	"github.com/mouhsinou/course-enrollment-platform/internal/repository"
)

// Store is an in-process repository.Store. A transaction holds the store mutex for
// its whole duration, so units of work are serializable.
type Store struct {
	mu    sync.Mutex
	state *state
	now   func() time.Time
}

type state struct {
	users       map[int64]domain.User
	courses     map[int64]domain.Course
	enrollments map[int64]domain.Enrollment
	sequence    int64
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{
		state: &state{
			users:       make(map[int64]domain.User),
			courses:     make(map[int64]domain.Course),
			enrollments: make(map[int64]domain.Enrollment),
		},
		now: func() time.Time { return time.Now().UTC() },
	}
}

// Repositories returns repositories that take the store lock per call.
func (s *Store) Repositories() repository.Repositories {
	return s.repositories(false)
}

// WithinTx runs fn under the store lock and restores the previous state when fn
// fails or ctx is done.
func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context, repos repository.Repositories) error) (err error) {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := s.state.clone()
	defer func() {
		if p := recover(); p != nil {
			s.state = snapshot
			panic(p)
		}
		if err != nil {
			s.state = snapshot
		}
	}()

	if err = fn(ctx, s.repositories(true)); err != nil {
		return err
	}
	return ctx.Err()
}

func (s *Store) repositories(inTx bool) repository.Repositories {
	return repository.Repositories{
		Users:       &userRepository{store: s, inTx: inTx},
		Courses:     &courseRepository{store: s, inTx: inTx},
		Enrollments: &enrollmentRepository{store: s, inTx: inTx},
	}
}

// lock takes the store mutex unless the caller already runs inside WithinTx.
func (s *Store) lock(inTx bool) func() {
	if inTx {
		return func() {}
	}
	s.mu.Lock()
	return s.mu.Unlock
}

func (st *state) clone() *state {
	cp := &state{
		users:       make(map[int64]domain.User, len(st.users)),
		courses:     make(map[int64]domain.Course, len(st.courses)),
		enrollments: make(map[int64]domain.Enrollment, len(st.enrollments)),
		sequence:    st.sequence,
	}
	for k, v := range st.users {
		cp.users[k] = v
	}
	for k, v := range st.courses {
		cp.courses[k] = v
	}
	for k, v := range st.enrollments {
		cp.enrollments[k] = v
	}
	return cp
}

func (st *state) nextID() int64 {
	st.sequence++
	return st.sequence
}

func (st *state) enrolledCount(courseID int64) int {
	count := 0
	for _, e := range st.enrollments {
		if e.CourseID == courseID {
			count++
		}
	}
	return count
}

func (st *state) withCount(course domain.Course) *domain.Course {
	course.EnrolledCount = st.enrolledCount(course.ID)
	return &course
}

type userRepository struct {
	store *Store
	inTx  bool
}

func (r *userRepository) Create(_ context.Context, user *domain.User) error {
	defer r.store.lock(r.inTx)()
	st := r.store.state

	for _, existing := range st.users {
		if existing.Email == user.Email {
			return &repository.ConstraintError{Constraint: repository.ConstraintUserEmail}
		}
	}
	user.ID = st.nextID()
	user.CreatedAt = r.store.now()
	st.users[user.ID] = *user
	return nil
}

func (r *userRepository) GetByID(_ context.Context, id int64) (*domain.User, error) {
	defer r.store.lock(r.inTx)()

	user, ok := r.store.state.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &user, nil
}

func (r *userRepository) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	defer r.store.lock(r.inTx)()

	for _, user := range r.store.state.users {
		if user.Email == email {
			u := user
			return &u, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *userRepository) SetActive(_ context.Context, id int64, active bool) error {
	defer r.store.lock(r.inTx)()

	user, ok := r.store.state.users[id]
	if !ok {
		return repository.ErrNotFound
	}
	user.IsActive = active
	r.store.state.users[id] = user
	return nil
}

type courseRepository struct {
	store *Store
	inTx  bool
}

func (r *courseRepository) Create(_ context.Context, course *domain.Course) error {
	defer r.store.lock(r.inTx)()
	st := r.store.state

	if course.Capacity <= 0 {
		return &repository.ConstraintError{Constraint: repository.ConstraintCourseCapacity}
	}
	for _, existing := range st.courses {
		if existing.Code == course.Code {
			return &repository.ConstraintError{Constraint: repository.ConstraintCourseCode}
		}
	}
	now := r.store.now()
	course.ID = st.nextID()
	course.CreatedAt = now
	course.UpdatedAt = now
	course.EnrolledCount = 0
	st.courses[course.ID] = *course
	return nil
}

func (r *courseRepository) Update(_ context.Context, course *domain.Course) error {
	defer r.store.lock(r.inTx)()
	st := r.store.state

	current, ok := st.courses[course.ID]
	if !ok {
		return repository.ErrNotFound
	}
	if course.Capacity <= 0 {
		return &repository.ConstraintError{Constraint: repository.ConstraintCourseCapacity}
	}
	for id, existing := range st.courses {
		if id != course.ID && existing.Code == course.Code {
			return &repository.ConstraintError{Constraint: repository.ConstraintCourseCode}
		}
	}
	current.Title = course.Title
	current.Code = course.Code
	current.Capacity = course.Capacity
	current.IsActive = course.IsActive
	current.UpdatedAt = r.store.now()
	st.courses[course.ID] = current
	course.UpdatedAt = current.UpdatedAt
	return nil
}

func (r *courseRepository) GetByID(_ context.Context, id int64) (*domain.Course, error) {
	defer r.store.lock(r.inTx)()

	course, ok := r.store.state.courses[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return r.store.state.withCount(course), nil
}

// GetByIDForUpdate needs no row lock here: transactions already hold the store mutex.
func (r *courseRepository) GetByIDForUpdate(ctx context.Context, id int64) (*domain.Course, error) {
	return r.GetByID(ctx, id)
}

func (r *courseRepository) GetByCode(_ context.Context, code string) (*domain.Course, error) {
	defer r.store.lock(r.inTx)()

	for _, course := range r.store.state.courses {
		if course.Code == code {
			return r.store.state.withCount(course), nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *courseRepository) ListActive(_ context.Context) ([]domain.Course, error) {
	defer r.store.lock(r.inTx)()

	result := []domain.Course{}
	for _, course := range r.store.state.courses {
		if course.IsActive {
			result = append(result, *r.store.state.withCount(course))
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

type enrollmentRepository struct {
	store *Store
	inTx  bool
}

func (r *enrollmentRepository) Create(_ context.Context, enrollment *domain.Enrollment) error {
	defer r.store.lock(r.inTx)()
	st := r.store.state

	if _, ok := st.users[enrollment.UserID]; !ok {
		return &repository.ConstraintError{Constraint: repository.ConstraintEnrollmentUser}
	}
	if _, ok := st.courses[enrollment.CourseID]; !ok {
		return &repository.ConstraintError{Constraint: repository.ConstraintEnrollmentCourse}
	}
	for _, existing := range st.enrollments {
		if existing.UserID == enrollment.UserID && existing.CourseID == enrollment.CourseID {
			return &repository.ConstraintError{Constraint: repository.ConstraintEnrollmentUnique}
		}
	}
	enrollment.ID = st.nextID()
	enrollment.CreatedAt = r.store.now()
	stored := *enrollment
	stored.User, stored.Course = nil, nil
	st.enrollments[enrollment.ID] = stored
	return nil
}

func (r *enrollmentRepository) GetByID(_ context.Context, id int64) (*domain.Enrollment, error) {
	defer r.store.lock(r.inTx)()

	enrollment, ok := r.store.state.enrollments[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &enrollment, nil
}

func (r *enrollmentRepository) GetByUserAndCourse(_ context.Context, userID, courseID int64) (*domain.Enrollment, error) {
	defer r.store.lock(r.inTx)()

	for _, enrollment := range r.store.state.enrollments {
		if enrollment.UserID == userID && enrollment.CourseID == courseID {
			e := enrollment
			return &e, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *enrollmentRepository) CountByCourse(_ context.Context, courseID int64) (int, error) {
	defer r.store.lock(r.inTx)()
	return r.store.state.enrolledCount(courseID), nil
}

func (r *enrollmentRepository) Delete(_ context.Context, id int64) error {
	defer r.store.lock(r.inTx)()

	if _, ok := r.store.state.enrollments[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.store.state.enrollments, id)
	return nil
}

func (r *enrollmentRepository) List(_ context.Context, filter repository.EnrollmentFilter) ([]domain.Enrollment, error) {
	defer r.store.lock(r.inTx)()
	st := r.store.state

	result := []domain.Enrollment{}
	for _, enrollment := range st.enrollments {
		if filter.UserID != nil && enrollment.UserID != *filter.UserID {
			continue
		}
		if filter.CourseID != nil && enrollment.CourseID != *filter.CourseID {
			continue
		}
		e := enrollment
		if user, ok := st.users[e.UserID]; ok {
			e.User = &domain.UserSummary{ID: user.ID, Name: user.Name, Email: user.Email}
		}
		if course, ok := st.courses[e.CourseID]; ok {
			e.Course = &domain.CourseSummary{ID: course.ID, Title: course.Title, Code: course.Code}
		}
		result = append(result, e)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}
