package handler

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/smartfunds-ke/smartfunds-backend/internal/accounts/authz"
	"github.com/smartfunds-ke/smartfunds-backend/internal/accounts/domain"
	"github.com/smartfunds-ke/smartfunds-backend/internal/accounts/service"
)

const principalKey = "principal"

// RequireAuth verifies the bearer token and stashes the resulting principal
// in the request locals. Everything behind it can assume PrincipalFrom
// returns non-nil.
func RequireAuth(tokens service.TokenGenerator) fiber.Handler {
	return func(c *fiber.Ctx) error {
		header := c.Get(fiber.HeaderAuthorization)
		const prefix = "Bearer "
		if !strings.HasPrefix(header, prefix) {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "authentication required"})
		}

		claims, err := tokens.VerifyAccessToken(strings.TrimPrefix(header, prefix))
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "invalid or expired token"})
		}

		c.Locals(principalKey, &authz.Principal{
			ID:   claims.UserID,
			Role: domain.Role(claims.Role),
		})
		return c.Next()
	}
}

// PrincipalFrom returns the authenticated principal, or nil outside
// RequireAuth.
func PrincipalFrom(c *fiber.Ctx) *authz.Principal {
	p, _ := c.Locals(principalKey).(*authz.Principal)
	return p
}

// RequirePermission gates a route on the evaluator's allow-set for action.
func RequirePermission(ev *authz.Evaluator, action authz.Action) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if err := ev.Authorize(PrincipalFrom(c), action); err != nil {
			return writeError(c, err)
		}
		return c.Next()
	}
}
