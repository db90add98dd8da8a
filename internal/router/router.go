package router

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/laras-id/laras-api/internal/config"
	"github.com/laras-id/laras-api/internal/handler"
	"github.com/laras-id/laras-api/internal/middleware"
	"github.com/laras-id/laras-api/internal/models"
	"github.com/laras-id/laras-api/internal/observability"
)

// Dependencies groups router dependencies for registration.
type Dependencies struct {
	ClassroomHandler    *handler.ClassroomHandler
	MembershipHandler   *handler.MembershipHandler
	MentorshipHandler   *handler.MentorshipHandler
	ScheduleHandler     *handler.ScheduleHandler
	CourseHandler       *handler.CourseHandler
	PromotionHandler    *handler.PromotionHandler
	NotificationHandler *handler.NotificationHandler
	DashboardHandler    *handler.DashboardHandler
	JWTMiddleware       fiber.Handler
}

// Register wires the HTTP routes into the fiber application.
func Register(app *fiber.App, cfg config.Config, deps Dependencies) {
	app.Get("/metrics", observability.MetricsHandler())

	api := app.Group("/api/v1", func(c *fiber.Ctx) error {
		c.Set("X-Application", cfg.AppName)
		return c.Next()
	})
	api.Get("/health", handler.HealthCheck(cfg))

	jwtMiddleware := deps.JWTMiddleware
	if jwtMiddleware == nil {
		jwtMiddleware = func(c *fiber.Ctx) error { return c.Next() }
	}

	if deps.ClassroomHandler != nil {
		classrooms := api.Group("/classrooms", jwtMiddleware)
		deps.ClassroomHandler.Register(classrooms)
	}

	if deps.MembershipHandler != nil {
		staffRequests := api.Group("/staff-requests", jwtMiddleware,
			middleware.RequireRole(models.RoleMentor, models.RoleAdmin))
		deps.MembershipHandler.RegisterStaffRequests(staffRequests)

		resignations := api.Group("/resignations", jwtMiddleware,
			middleware.RequireRole(models.RoleMentor, models.RoleAdmin))
		deps.MembershipHandler.RegisterResignations(resignations)

		memberships := api.Group("/memberships", jwtMiddleware,
			middleware.RequireRole(models.RoleMentor, models.RoleAdmin))
		deps.MembershipHandler.RegisterMemberships(memberships)
	}

	if deps.MentorshipHandler != nil {
		requests := api.Group("/mentorship-requests", jwtMiddleware,
			middleware.RateLimit("mentorship", 30, time.Minute))
		deps.MentorshipHandler.RegisterRequests(requests)

		sessions := api.Group("/mentorship-sessions", jwtMiddleware)
		deps.MentorshipHandler.RegisterSessions(sessions)
	}

	if deps.ScheduleHandler != nil {
		schedules := api.Group("/schedules", jwtMiddleware)
		deps.ScheduleHandler.Register(schedules)
	}

	if deps.CourseHandler != nil {
		courses := api.Group("/courses", jwtMiddleware,
			middleware.RequireRole(models.RoleMentor, models.RoleAdmin))
		deps.CourseHandler.Register(courses)
	}

	if deps.PromotionHandler != nil {
		masterRequests := api.Group("/master-role-requests", jwtMiddleware,
			middleware.RequireRole(models.RoleMentor, models.RoleAdmin))
		deps.PromotionHandler.RegisterMasterRoleRequests(masterRequests)

		applications := api.Group("/mentor-applications", jwtMiddleware)
		deps.PromotionHandler.RegisterMentorApplications(applications)
	}

	if deps.NotificationHandler != nil {
		notifications := api.Group("/notifications", jwtMiddleware)
		deps.NotificationHandler.Register(notifications)
	}

	if deps.DashboardHandler != nil {
		mentors := api.Group("/mentors", jwtMiddleware,
			middleware.RequireRole(models.RoleMentor))
		deps.DashboardHandler.Register(mentors)
	}
}
