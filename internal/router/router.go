package router

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/noah-isme/maestro-api/internal/config"
	"github.com/noah-isme/maestro-api/internal/handler"
	"github.com/noah-isme/maestro-api/internal/middleware"
	"github.com/noah-isme/maestro-api/internal/observability"
)

// Dependencies groups router dependencies for registration.
type Dependencies struct {
	SemesterHandler        *handler.SemesterHandler
	SessionHandler         *handler.SessionHandler
	ScheduleFeedHandler    *handler.ScheduleFeedHandler
	StudentHandler         *handler.StudentHandler
	LeaveHandler           *handler.LeaveHandler
	TeacherRequestHandler  *handler.TeacherRequestHandler
	PaymentHandler         *handler.PaymentHandler
	ApplicantHandler       *handler.ApplicantHandler
	IncompatibilityHandler *handler.IncompatibilityHandler
	ActivityHandler        *handler.AdminActivityHandler
	JWTMiddleware          fiber.Handler
	HealthChecks           []handler.DependencyCheck
}

// Register wires the HTTP routes into the fiber application.
func Register(app *fiber.App, cfg config.Config, deps Dependencies) {
	api := app.Group("/api/v1", func(c *fiber.Ctx) error {
		c.Set("X-Application", cfg.AppName)
		return c.Next()
	})
	api.Get("/health", handler.HealthCheck(cfg, deps.HealthChecks...))
	app.Get("/metrics", observability.MetricsHandler())

	jwtMiddleware := deps.JWTMiddleware
	if jwtMiddleware == nil {
		jwtMiddleware = func(c *fiber.Ctx) error { return c.Next() }
	}

	admin := app.Group("/api/admin", jwtMiddleware, middleware.RequireRole("admin"))

	if deps.SemesterHandler != nil {
		semesters := admin.Group("/semesters")
		if deps.ScheduleFeedHandler != nil {
			deps.ScheduleFeedHandler.Register(semesters)
		}
		deps.SemesterHandler.Register(semesters)
	}
	if deps.SessionHandler != nil {
		deps.SessionHandler.Register(admin)
	}
	if deps.PaymentHandler != nil {
		deps.PaymentHandler.Register(admin)
	}
	if deps.StudentHandler != nil {
		deps.StudentHandler.Register(admin.Group("/students"))
	}
	if deps.LeaveHandler != nil {
		deps.LeaveHandler.Register(admin.Group("/leaves"))
	}
	if deps.TeacherRequestHandler != nil {
		deps.TeacherRequestHandler.Register(admin.Group("/requests"))
	}
	if deps.ApplicantHandler != nil {
		applicants := admin.Group("/applicants")
		applicants.Use("/import", middleware.RateLimit("applicant-import", 5, time.Minute))
		deps.ApplicantHandler.Register(applicants)
	}
	if deps.IncompatibilityHandler != nil {
		deps.IncompatibilityHandler.Register(admin.Group("/incompatibilities"))
	}
	if deps.ActivityHandler != nil {
		deps.ActivityHandler.Register(admin.Group("/activity"))
	}

	teacher := app.Group("/api/teacher", jwtMiddleware, middleware.RequireRole("teacher", "admin"), middleware.RateLimit("teacher", 30, time.Minute))
	if deps.TeacherRequestHandler != nil {
		deps.TeacherRequestHandler.RegisterTeacher(teacher.Group("/requests"))
	}
	if deps.LeaveHandler != nil {
		deps.LeaveHandler.RegisterTeacher(teacher.Group("/leaves"))
	}
}
