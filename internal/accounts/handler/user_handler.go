package handler

import (
	"github.com/gofiber/fiber/v2"

	"github.com/smartfunds-ke/smartfunds-backend/internal/accounts/authz"
	"github.com/smartfunds-ke/smartfunds-backend/internal/accounts/domain"
	"github.com/smartfunds-ke/smartfunds-backend/internal/accounts/dto"
	"github.com/smartfunds-ke/smartfunds-backend/internal/accounts/service"
)

type UserHandler struct {
	userService *service.UserService
	evaluator   *authz.Evaluator
}

func NewUserHandler(userService *service.UserService, evaluator *authz.Evaluator) *UserHandler {
	return &UserHandler{userService: userService, evaluator: evaluator}
}

// List supports role, active-state and free-text filters.
func (h *UserHandler) List(c *fiber.Ctx) error {
	var filter domain.UserFilter

	if raw := c.Query("role"); raw != "" {
		role, err := domain.ParseRole(raw)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid role"})
		}
		filter.Role = &role
	}
	if raw := c.Query("is_active"); raw != "" {
		active := raw == "true"
		filter.IsActive = &active
	}
	filter.Search = c.Query("search")

	users, err := h.userService.List(c.Context(), filter)
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusOK).JSON(dto.NewUserOutputs(users))
}

func (h *UserHandler) Create(c *fiber.Ctx) error {
	var input dto.AdminCreateInput
	if err := c.BodyParser(&input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid input"})
	}

	user, err := h.userService.CreateByAdmin(c.Context(), PrincipalFrom(c), input)
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.NewUserOutput(user))
}

// Get serves owner-or-admin reads of a single user.
func (h *UserHandler) Get(c *fiber.Ctx) error {
	id := c.Params("id")
	if err := h.evaluator.AuthorizeOwner(PrincipalFrom(c), id); err != nil {
		return writeError(c, err)
	}

	user, err := h.userService.Get(c.Context(), id)
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusOK).JSON(dto.NewUserOutput(user))
}

// Update routes admins through the role-capable path and owners through the
// restricted self-update path.
func (h *UserHandler) Update(c *fiber.Ctx) error {
	id := c.Params("id")
	p := PrincipalFrom(c)
	if err := h.evaluator.AuthorizeOwner(p, id); err != nil {
		return writeError(c, err)
	}

	if p.Role.IsAdmin() {
		var input dto.AdminUpdateUserInput
		if err := c.BodyParser(&input); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid input"})
		}
		user, err := h.userService.UpdateByAdmin(c.Context(), p, id, input)
		if err != nil {
			return writeError(c, err)
		}
		return c.Status(fiber.StatusOK).JSON(dto.NewUserOutput(user))
	}

	var input dto.UpdateUserInput
	if err := c.BodyParser(&input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid input"})
	}
	user, err := h.userService.UpdateSelf(c.Context(), id, input)
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusOK).JSON(dto.NewUserOutput(user))
}

func (h *UserHandler) Delete(c *fiber.Ctx) error {
	id := c.Params("id")
	if err := h.evaluator.AuthorizeOwner(PrincipalFrom(c), id); err != nil {
		return writeError(c, err)
	}

	if err := h.userService.Delete(c.Context(), id); err != nil {
		return writeError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (h *UserHandler) Me(c *fiber.Ctx) error {
	user, err := h.userService.Get(c.Context(), PrincipalFrom(c).ID)
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusOK).JSON(dto.NewUserOutput(user))
}

func (h *UserHandler) UpdateMe(c *fiber.Ctx) error {
	var input dto.UpdateUserInput
	if err := c.BodyParser(&input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid input"})
	}

	user, err := h.userService.UpdateSelf(c.Context(), PrincipalFrom(c).ID, input)
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusOK).JSON(dto.NewUserOutput(user))
}

func (h *UserHandler) Stats(c *fiber.Ctx) error {
	stats, err := h.userService.Stats(c.Context())
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusOK).JSON(stats)
}

func (h *UserHandler) BulkAction(c *fiber.Ctx) error {
	var input dto.BulkActionInput
	if err := c.BodyParser(&input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid input"})
	}

	result, err := h.userService.BulkAction(c.Context(), PrincipalFrom(c), input)
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusOK).JSON(result)
}

func (h *UserHandler) ListByRole(c *fiber.Ctx) error {
	users, err := h.userService.ListByRole(c.Context(), c.Params("role"))
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusOK).JSON(dto.NewUserOutputs(users))
}

func (h *UserHandler) ChangePassword(c *fiber.Ctx) error {
	var input dto.PasswordChangeInput
	if err := c.BodyParser(&input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid input"})
	}

	if err := h.userService.ChangePassword(c.Context(), PrincipalFrom(c).ID, input); err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusOK).JSON(fiber.Map{"message": "password changed successfully"})
}

func (h *UserHandler) ListLoginAttempts(c *fiber.Ctx) error {
	filter := domain.LoginAttemptFilter{
		UserID: c.Query("user_id"),
	}
	if raw := c.Query("successful"); raw != "" {
		successful := raw == "true"
		filter.Successful = &successful
	}
	if hours := c.QueryInt("hours"); hours > 0 {
		filter.Hours = hours
	}

	attempts, err := h.userService.ListLoginAttempts(c.Context(), filter)
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusOK).JSON(dto.NewLoginAttemptOutputs(attempts))
}
