package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/ticket-bot/internal/api/http/handlers"
	"github.com/spec-kit/ticket-bot/internal/auth"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Auth           *handlers.AuthHandler
	Workspaces     *handlers.WorkspaceHandler
	Panel          *handlers.PanelHandler
	Transcripts    *handlers.TranscriptsHandler
	Stats          *handlers.StatsHandler
	AuthMiddleware *auth.Middleware
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	app.Post("/auth/login", cfg.Auth.Login)

	protected := app.Group("/v1", cfg.AuthMiddleware.Handle)
	protected.Get("/workspaces/:id/config", cfg.Workspaces.GetConfig)
	protected.Patch("/workspaces/:id/config", cfg.Workspaces.PatchConfig)
	protected.Get("/workspaces/:id/blacklist", cfg.Workspaces.ListBlacklist)
	protected.Post("/workspaces/:id/blacklist", cfg.Workspaces.AddBlacklist)
	protected.Delete("/workspaces/:id/blacklist/:member", cfg.Workspaces.RemoveBlacklist)
	protected.Post("/workspaces/:id/panel", cfg.Panel.Publish)
	protected.Get("/workspaces/:id/transcripts", cfg.Transcripts.List)
	protected.Get("/workspaces/:id/stats", cfg.Stats.Get)
	protected.Get("/transcripts/:id", cfg.Transcripts.Get)
}
