package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/maintenance-service/internal/api/http/handlers"
	"github.com/spec-kit/maintenance-service/internal/auth"
	"github.com/spec-kit/maintenance-service/internal/domain"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Users          *handlers.UsersHandler
	Requests       *handlers.RequestsHandler
	Teams          *handlers.TeamsHandler
	Equipment      *handlers.EquipmentHandler
	AuthMiddleware *auth.AuthMiddleware
}

// RegisterRoutes wires HTTP routes. Manager-only routes carry an explicit
// role gate; finer-grained rules live in the lifecycle predicates.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	app.Get("/health/metrics", cfg.Health.Metrics)

	authGroup := app.Group("/auth")
	authGroup.Post("/register", cfg.Users.Register)
	authGroup.Post("/login", cfg.Users.Login)
	authGroup.Get("/me", cfg.AuthMiddleware.Handle, cfg.Users.Me)

	managerOnly := auth.RequireRole(domain.RoleManager)

	requests := app.Group("/requests", cfg.AuthMiddleware.Handle)
	requests.Post("/", cfg.Requests.Create)
	requests.Get("/", cfg.Requests.List)
	requests.Get("/:id", cfg.Requests.Get)
	requests.Patch("/:id/approve", managerOnly, cfg.Requests.Approve)
	requests.Patch("/:id/accept", cfg.Requests.AcceptTask)
	requests.Patch("/:id/status", cfg.Requests.UpdateStatus)
	requests.Post("/:id/feedback", cfg.Requests.AddFeedback)
	requests.Patch("/:id/approve-edit", managerOnly, cfg.Requests.ResolveEdit)
	requests.Patch("/:id", cfg.Requests.ProposeEdit)
	requests.Delete("/:id", managerOnly, cfg.Requests.Delete)

	teams := app.Group("/teams", cfg.AuthMiddleware.Handle)
	teams.Get("/", cfg.Teams.List)
	teams.Get("/:id", cfg.Teams.Get)
	teams.Post("/", managerOnly, cfg.Teams.Create)
	teams.Patch("/:id", managerOnly, cfg.Teams.Update)
	teams.Post("/:id/members", managerOnly, cfg.Teams.AddMember)
	teams.Delete("/:id/members/:userId", managerOnly, cfg.Teams.RemoveMember)
	teams.Delete("/:id", managerOnly, cfg.Teams.Delete)

	equipment := app.Group("/equipment", cfg.AuthMiddleware.Handle)
	equipment.Get("/", cfg.Equipment.List)
	equipment.Get("/:id", cfg.Equipment.Get)
	equipment.Post("/", managerOnly, cfg.Equipment.Create)
	equipment.Patch("/:id", managerOnly, cfg.Equipment.Update)
	equipment.Delete("/:id", managerOnly, cfg.Equipment.Delete)

	users := app.Group("/users", cfg.AuthMiddleware.Handle)
	users.Get("/", cfg.Users.List)
	users.Get("/:id", cfg.Users.Get)
	users.Patch("/:id", cfg.Users.Update)
	users.Delete("/:id", managerOnly, cfg.Users.Delete)
}
