package handler

import (
	"github.com/gofiber/fiber/v2"

	"github.com/smartfunds-ke/smartfunds-backend/internal/accounts/dto"
	"github.com/smartfunds-ke/smartfunds-backend/internal/accounts/service"
)

type ProfileHandler struct {
	userService *service.UserService
}

func NewProfileHandler(userService *service.UserService) *ProfileHandler {
	return &ProfileHandler{userService: userService}
}

// Get returns the caller's profile, creating the default one on first access.
func (h *ProfileHandler) Get(c *fiber.Ctx) error {
	profile, err := h.userService.GetProfile(c.Context(), PrincipalFrom(c).ID)
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusOK).JSON(dto.NewProfileOutput(profile))
}

func (h *ProfileHandler) Update(c *fiber.Ctx) error {
	var input dto.UpdateProfileInput
	if err := c.BodyParser(&input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid input"})
	}

	profile, err := h.userService.UpdateProfile(c.Context(), PrincipalFrom(c).ID, input)
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusOK).JSON(dto.NewProfileOutput(profile))
}
