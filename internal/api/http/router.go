package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/mouhsinou/course-enrollment-platform/internal/api/http/handlers"
	"github.com/mouhsinou/course-enrollment-platform/internal/auth"
	"github.com/mouhsinou/course-enrollment-platform/internal/domain"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health            *handlers.HealthHandler
	Users             *handlers.UsersHandler
	Courses           *handlers.CoursesHandler
	Enrollments       *handlers.EnrollmentsHandler
	AuthMiddleware    *auth.AuthMiddleware
	AuthRatePerMinute int
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	gate := cfg.AuthMiddleware
	admin := gate.Role(domain.RoleAdmin)
	student := gate.Role(domain.RoleStudent)

	app.Get("/", cfg.Health.Health)
	app.Get("/health", cfg.Health.Health)
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	app.Get("/health/metrics", cfg.Health.Metrics)

	authGroup := app.Group("/auth", authRateLimiter(cfg.AuthRatePerMinute))
	authGroup.Post("/register", cfg.Users.Register)
	authGroup.Post("/login", cfg.Users.Login)

	users := app.Group("/users")
	users.Get("/me", gate.Active(), cfg.Users.Me)
	users.Patch("/:id/activate", admin, cfg.Users.SetActive)

	courses := app.Group("/courses")
	courses.Get("/", cfg.Courses.List)
	courses.Get("/:id", cfg.Courses.Get)
	courses.Post("/", admin, cfg.Courses.Create)
	courses.Put("/:id", admin, cfg.Courses.Update)
	courses.Patch("/:id/activate", admin, cfg.Courses.SetActive)

	enrollments := app.Group("/enrollments")
	enrollments.Post("/", student, cfg.Enrollments.Enroll)
	enrollments.Get("/", admin, cfg.Enrollments.ListAll)
	enrollments.Get("/course/:id", admin, cfg.Enrollments.ListByCourse)
	enrollments.Delete("/:enrollment_id/admin", admin, cfg.Enrollments.AdminRemove)
	enrollments.Delete("/:course_id", student, cfg.Enrollments.Deregister)
}
