package handler

import (
	"github.com/gofiber/fiber/v2"

	"github.com/smartfunds-ke/smartfunds-backend/internal/accounts/dto"
	"github.com/smartfunds-ke/smartfunds-backend/internal/accounts/service"
)

type AuthHandler struct {
	authService *service.AuthService
	userService *service.UserService
}

func NewAuthHandler(authService *service.AuthService, userService *service.UserService) *AuthHandler {
	return &AuthHandler{authService: authService, userService: userService}
}

// Register handles self-service citizen signup.
func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var input dto.RegisterInput
	if err := c.BodyParser(&input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid input"})
	}

	user, err := h.userService.Register(c.Context(), input)
	if err != nil {
		return writeError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(dto.NewUserOutput(user))
}

func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var input dto.LoginInput
	if err := c.BodyParser(&input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid input"})
	}

	// Capture metadata for the audit trail
	input.IPAddress = c.IP()
	input.UserAgent = string(c.Request().Header.UserAgent())

	tokenPair, err := h.authService.Login(c.Context(), input)
	if err != nil {
		return writeError(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(tokenPair)
}

func (h *AuthHandler) Refresh(c *fiber.Ctx) error {
	var input dto.RefreshInput
	if err := c.BodyParser(&input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid input"})
	}

	input.IPAddress = c.IP()
	input.UserAgent = string(c.Request().Header.UserAgent())

	tokens, err := h.authService.Refresh(c.Context(), input)
	if err != nil {
		return writeError(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(tokens)
}

// Verify reports validity of the access token that authenticated the request.
func (h *AuthHandler) Verify(c *fiber.Ctx) error {
	p := PrincipalFrom(c)
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"valid":   true,
		"user_id": p.ID,
		"role":    p.Role.String(),
	})
}
