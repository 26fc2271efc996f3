package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/smartfunds-ke/smartfunds-backend/internal/accounts/authz"
	apperror "github.com/smartfunds-ke/smartfunds-backend/internal/errors"
)

// writeError maps the service error taxonomy onto HTTP responses. Validation
// failures carry field-level messages; credential failures stay opaque.
func writeError(c *fiber.Ctx, err error) error {
	var vErr *apperror.ValidationError
	if errors.As(err, &vErr) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"errors": vErr.Fields})
	}

	var cErr *apperror.ConflictError
	if errors.As(err, &cErr) {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"errors": fiber.Map{cErr.Field: cErr.Error()},
		})
	}

	var aErr *apperror.AuthorizationError
	if errors.As(err, &aErr) {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": aErr.Error()})
	}

	switch {
	case errors.Is(err, authz.ErrUnauthenticated):
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "authentication required"})
	case errors.Is(err, apperror.ErrInvalidCredentials),
		errors.Is(err, apperror.ErrRefreshTokenNotFound),
		errors.Is(err, apperror.ErrRefreshTokenExpired),
		errors.Is(err, apperror.ErrRefreshTokenReused):
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "invalid credentials"})
	case errors.Is(err, apperror.ErrNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "not found"})
	case errors.Is(err, apperror.ErrStorageTimeout):
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"error": "temporarily unavailable, retry"})
	}

	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal error"})
}
