package handler

import (
	"github.com/gofiber/fiber/v2"

	"github.com/smartfunds-ke/smartfunds-backend/internal/accounts/authz"
	"github.com/smartfunds-ke/smartfunds-backend/internal/accounts/service"
)

// RegisterRoutes mounts the full API surface. Allow-sets are consulted per
// request through the evaluator; the evaluator itself is populated before the
// server starts.
func RegisterRoutes(app *fiber.App, ev *authz.Evaluator, tokens service.TokenGenerator,
	authHandler *AuthHandler, userHandler *UserHandler, profileHandler *ProfileHandler) {
	api := app.Group("/api/v1")
	auth := RequireAuth(tokens)

	api.Post("/auth/register", authHandler.Register)
	api.Post("/auth/login", authHandler.Login)
	api.Post("/auth/refresh", authHandler.Refresh)
	api.Post("/auth/verify", auth, authHandler.Verify)

	users := api.Group("/users", auth)
	users.Get("/", RequirePermission(ev, authz.ActionUserList), userHandler.List)
	users.Post("/", RequirePermission(ev, authz.ActionUserCreate), userHandler.Create)
	users.Get("/me", userHandler.Me)
	users.Put("/me", userHandler.UpdateMe)
	users.Patch("/me", userHandler.UpdateMe)
	users.Get("/stats", RequirePermission(ev, authz.ActionUserStats), userHandler.Stats)
	users.Post("/bulk-action", RequirePermission(ev, authz.ActionUserBulk), userHandler.BulkAction)
	users.Get("/role/:role", RequirePermission(ev, authz.ActionRoleList), userHandler.ListByRole)

	// Owner-or-admin checks happen inside the handlers; :id must come after
	// the literal segments above.
	users.Get("/:id", userHandler.Get)
	users.Put("/:id", userHandler.Update)
	users.Patch("/:id", userHandler.Update)
	users.Delete("/:id", userHandler.Delete)

	api.Get("/profile", auth, profileHandler.Get)
	api.Put("/profile", auth, profileHandler.Update)
	api.Patch("/profile", auth, profileHandler.Update)

	api.Post("/password/change", auth, userHandler.ChangePassword)

	api.Get("/login-attempts", auth, RequirePermission(ev, authz.ActionAuditList), userHandler.ListLoginAttempts)
}
