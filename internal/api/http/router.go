package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/vital-portal/vital/internal/api/http/handlers"
	"github.com/vital-portal/vital/internal/auth"
	"github.com/vital-portal/vital/internal/domain"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Auth           *handlers.AuthHandler
	Issues         *handlers.IssuesHandler
	Funds          *handlers.FundsHandler
	Workers        *handlers.WorkersHandler
	Reports        *handlers.ReportsHandler
	Admin          *handlers.AdminHandler
	Stream         *handlers.StreamHandler
	Uploads        *handlers.UploadsHandler
	AuthMiddleware *auth.AuthMiddleware
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	authGroup := app.Group("/auth")
	authGroup.Post("/villagers/register", cfg.Auth.RegisterVillager)
	authGroup.Post("/authorities/register", cfg.Auth.RegisterAuthority)
	authGroup.Post("/login", cfg.Auth.Login)
	authGroup.Post("/password/reset/request", cfg.Auth.RequestPasswordReset)
	authGroup.Post("/password/reset/confirm", cfg.Auth.ConfirmPasswordReset)

	session := authGroup.Group("", cfg.AuthMiddleware.Session)
	session.Get("/authority/status", cfg.Auth.AuthorityStatus)
	session.Post("/password/change", cfg.Auth.ChangePassword)

	resolved := cfg.AuthMiddleware.Handle

	villager := app.Group("/villager", resolved, auth.RequireRole(domain.RoleVillager))
	villager.Get("/dashboard", cfg.Issues.Dashboard)
	villager.Post("/issues", cfg.Issues.Create)
	villager.Get("/issues", cfg.Issues.List)
	villager.Get("/issues/:id", cfg.Issues.Get)
	villager.Patch("/issues/:id", cfg.Issues.UpdateDraft)
	villager.Get("/issues/:id/audit", cfg.Issues.AuditTrail)

	authority := app.Group("/authority/:role", resolved, auth.RequireRouteRole("role"))
	authority.Get("/dashboard", cfg.Issues.Dashboard)
	authority.Get("/issues", cfg.Issues.List)
	authority.Get("/issues/:id", cfg.Issues.Get)
	authority.Post("/issues/:id/transitions", cfg.Issues.Transition)
	authority.Get("/issues/:id/audit", cfg.Issues.AuditTrail)
	authority.Get("/escalations", auth.RequireRole(domain.RoleTDO, domain.RoleDDO), cfg.Issues.Escalations)

	pdoOnly := auth.RequireRole(domain.RolePDO)
	authority.Get("/workers", pdoOnly, cfg.Workers.List)
	authority.Post("/workers", pdoOnly, cfg.Workers.Create)
	authority.Patch("/workers/:id", pdoOnly, cfg.Workers.Update)

	requesters := auth.RequireRole(domain.RolePDO, domain.RoleVillageIncharge)
	fundReaders := auth.RequireRole(domain.RolePDO, domain.RoleVillageIncharge, domain.RoleTDO, domain.RoleDDO)
	authority.Post("/fund-requests", requesters, cfg.Funds.Create)
	authority.Get("/fund-requests", fundReaders, cfg.Funds.List)
	authority.Get("/fund-requests/:id", fundReaders, cfg.Funds.Get)
	authority.Get("/fund-requests/:id/audit", fundReaders, cfg.Funds.AuditTrail)
	authority.Post("/fund-requests/:id/decision", auth.RequireRole(domain.RoleTDO), cfg.Funds.Decide)

	admin := app.Group("/admin", resolved, auth.RequireRole(domain.RoleAdmin))
	admin.Get("/dashboard", cfg.Issues.Dashboard)
	admin.Get("/issues", cfg.Issues.List)
	admin.Get("/issues/:id", cfg.Issues.Get)
	admin.Post("/issues/close-resolved", cfg.Admin.CloseResolved)
	admin.Post("/issues/:id/transitions", cfg.Issues.Transition)
	admin.Get("/escalations", cfg.Issues.Escalations)
	admin.Get("/fund-requests", cfg.Funds.List)
	admin.Get("/authorities/pending", cfg.Admin.PendingAuthorities)
	admin.Post("/authorities/:uid/verification", cfg.Admin.VerifyAuthority)
	admin.Get("/metrics", cfg.Admin.Metrics)

	reports := app.Group("/reports", resolved)
	reports.Get("/", cfg.Reports.Kinds)
	reports.Get("/:kind", cfg.Reports.Export)

	app.Get("/issues/:id/stream", resolved, cfg.Stream.Stream)
	app.Post("/uploads", resolved, auth.RequireRole(domain.RoleVillager, domain.RoleVillageIncharge, domain.RolePDO), cfg.Uploads.Upload)
}
