package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/helpdesk-service/internal/api/http/handlers"
	"github.com/spec-kit/helpdesk-service/internal/auth"
	"github.com/spec-kit/helpdesk-service/internal/domain"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Auth           *handlers.AuthHandler
	Users          *handlers.UsersHandler
	Locations      *handlers.LocationsHandler
	Tickets        *handlers.TicketsHandler
	AuthMiddleware *auth.AuthMiddleware
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	authGroup := app.Group("/auth")
	authGroup.Post("/register", cfg.Auth.Register)
	authGroup.Post("/login", cfg.Auth.Login)
	authGroup.Post("/refresh", cfg.Auth.Refresh)
	authGroup.Post("/password/reset/request", cfg.Auth.RequestPasswordReset)
	authGroup.Post("/password/reset/confirm", cfg.Auth.ConfirmPasswordReset)
	authGroup.Post("/password/change", cfg.AuthMiddleware.Handle, auth.RequireRole(), cfg.Auth.ChangePassword)

	tickets := app.Group("/tickets", cfg.AuthMiddleware.Handle, auth.RequireRole())
	tickets.Post("", cfg.Tickets.Create)
	tickets.Get("", cfg.Tickets.List)
	tickets.Delete("/history", cfg.Tickets.SweepHistory)
	tickets.Post("/:id/accept", auth.RequireRole(domain.RoleTechnician), cfg.Tickets.Accept)
	tickets.Post("/:id/finalize", auth.RequireRole(domain.RoleTechnician), cfg.Tickets.Finalize)
	tickets.Post("/:id/cancel", cfg.Tickets.Cancel)
	tickets.Post("/:id/reject", auth.RequireRole(domain.RoleTechnician), cfg.Tickets.Reject)

	users := app.Group("/users", cfg.AuthMiddleware.Handle, auth.RequireRole(domain.RoleAdmin))
	users.Get("", cfg.Users.List)
	users.Post("", cfg.Users.Create)
	users.Put("/:id", cfg.Users.Update)
	users.Delete("/:id", cfg.Users.Delete)

	locations := app.Group("/locations", cfg.AuthMiddleware.Handle)
	locations.Get("", auth.RequireRole(), cfg.Locations.List)
	locations.Post("", auth.RequireRole(domain.RoleAdmin), cfg.Locations.Create)
	locations.Put("/:id", auth.RequireRole(domain.RoleAdmin), cfg.Locations.Update)
	locations.Delete("/:id", auth.RequireRole(domain.RoleAdmin), cfg.Locations.Delete)
}
