package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"

	"github.com/spec-kit/emr-service/internal/api/http/handlers"
	"github.com/spec-kit/emr-service/internal/auth"
	"github.com/spec-kit/emr-service/internal/observability"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Auth           *handlers.AuthHandler
	Users          *handlers.UsersHandler
	Activity       *handlers.ActivityHandler
	AuthMiddleware *auth.AuthMiddleware
	Metrics        *observability.Metrics
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	if cfg.Metrics != nil {
		app.Get("/metrics", adaptor.HTTPHandler(cfg.Metrics.Handler()))
	}

	app.Post("/token", cfg.Auth.Token)

	users := app.Group("/users")
	users.Post("/", cfg.Users.Create)

	protectedUsers := users.Group("", cfg.AuthMiddleware.Handle)
	protectedUsers.Get("/me", cfg.Users.Me)
	protectedUsers.Get("/", cfg.Users.List)
	protectedUsers.Get("/:id", cfg.Users.Get)
	protectedUsers.Put("/:id/enabled", cfg.Users.SetEnabled)
	protectedUsers.Post("/:id/user_activity_logs", cfg.Activity.Create)

	activity := app.Group("/user_activity_logs", cfg.AuthMiddleware.Handle)
	activity.Get("/", cfg.Activity.List)
}
