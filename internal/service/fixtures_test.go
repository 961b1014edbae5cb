package service

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mouhsinou/course-enrollment-platform/internal/config"
	"github.com/mouhsinou/course-enrollment-platform/internal/domain"
	"github.com/mouhsinou/course-enrollment-platform/internal/events"
	"github.com/mouhsinou/course-enrollment-platform/internal/observability"
	"github.com/mouhsinou/course-enrollment-platform/internal/repository/memory"
)

// recordingDispatcher keeps every published event for assertions.
type recordingDispatcher struct {
	mu     sync.Mutex
	events []events.Event
}

func (d *recordingDispatcher) Publish(_ context.Context, event events.Event) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.events = append(d.events, event)
	return nil
}

func (d *recordingDispatcher) Subscribe(events.EventType, events.EventHandler) {}

func (d *recordingDispatcher) types() []events.EventType {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]events.EventType, 0, len(d.events))
	for _, e := range d.events {
		out = append(out, e.Type)
	}
	return out
}

type fixture struct {
	store       *memory.Store
	dispatcher  *recordingDispatcher
	metrics     *observability.Metrics
	courses     *CourseService
	enrollments *EnrollmentService
	auth        *AuthService
	admin       *domain.User
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := memory.NewStore()
	dispatcher := &recordingDispatcher{}
	metrics := observability.NewMetrics()

	authSvc := NewAuthService(config.AuthConfig{
		JWTSecret:             "test-secret",
		AccessTokenTTLMinutes: 5,
		BcryptCost:            4,
		AllowAdminSignup:      true,
	}, AuthDependencies{Store: store, Dispatcher: dispatcher})
	enrollmentSvc := NewEnrollmentService(EnrollmentDependencies{
		Store:      store,
		Dispatcher: dispatcher,
		Metrics:    metrics,
	})

	f := &fixture{
		store:       store,
		dispatcher:  dispatcher,
		metrics:     metrics,
		courses:     NewCourseService(CourseDependencies{Store: store, Dispatcher: dispatcher}),
		enrollments: enrollmentSvc,
		auth:        authSvc,
	}
	f.admin = f.user(t, "admin@test.com", domain.RoleAdmin)
	return f
}

func (f *fixture) user(t *testing.T, email string, role domain.Role) *domain.User {
	t.Helper()
	u := &domain.User{Name: "User " + email, Email: email, Role: role, IsActive: true}
	require.NoError(t, f.store.Repositories().Users.Create(context.Background(), u))
	return u
}

func (f *fixture) students(t *testing.T, n int) []*domain.User {
	t.Helper()
	out := make([]*domain.User, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, f.user(t, fmt.Sprintf("student%d@test.com", i), domain.RoleStudent))
	}
	return out
}

func (f *fixture) course(t *testing.T, code string, capacity int, active bool) *domain.Course {
	t.Helper()
	c, err := f.courses.Create(context.Background(), f.admin, CourseCreateInput{
		Title:    "Course " + code,
		Code:     code,
		Capacity: capacity,
		IsActive: &active,
	})
	require.NoError(t, err)
	return c
}

func ptr[T any](v T) *T {
	return &v
}
