package api

import (
	"github.com/gofiber/fiber/v2"
	"github.com/terraincognita07/parish/internal/services"
)

func (handler *Handler) ListUsers(c *fiber.Ctx) error {
	profiles, err := handler.userService.List(c.UserContext())
	if err != nil {
		return handler.respondError(c, err)
	}
	return c.JSON(profiles)
}

func (handler *Handler) GetUser(c *fiber.Ctx) error {
	userID, ok := parseUserID(c)
	if !ok {
		return apiError(c, fiber.StatusBadRequest, "invalid user id")
	}

	profile, err := handler.userService.Get(c.UserContext(), userID)
	if err != nil {
		return handler.respondError(c, err)
	}
	return c.JSON(profile)
}

// CreateUser invites a user on behalf of an admin.
func (handler *Handler) CreateUser(c *fiber.Ctx) error {
	input := services.InviteInput{}
	if err := parseBody(c, &input); err != nil {
		return handler.respondError(c, err)
	}
	return handler.invite(c, input)
}

func (handler *Handler) UpdateUser(c *fiber.Ctx) error {
	userID, ok := parseUserID(c)
	if !ok {
		return apiError(c, fiber.StatusBadRequest, "invalid user id")
	}

	input := services.UpdateUserInput{}
	if err := parseBody(c, &input); err != nil {
		return handler.respondError(c, err)
	}

	profile, err := handler.userService.Update(c.UserContext(), userID, input)
	if err != nil {
		return handler.respondError(c, err)
	}
	return c.JSON(profile)
}

func (handler *Handler) DeleteUser(c *fiber.Ctx) error {
	userID, ok := parseUserID(c)
	if !ok {
		return apiError(c, fiber.StatusBadRequest, "invalid user id")
	}

	if err := handler.userService.Delete(c.UserContext(), userID); err != nil {
		return handler.respondError(c, err)
	}
	return c.JSON(fiber.Map{"success": true})
}

func (handler *Handler) RequestInvitation(c *fiber.Ctx) error {
	payload := emailPayload{}
	if err := parseBody(c, &payload); err != nil {
		return handler.respondError(c, err)
	}

	if err := handler.authService.ResendInvitation(c.UserContext(), payload.Email); err != nil {
		return handler.respondError(c, err)
	}
	return c.JSON(fiber.Map{
		"success": true,
		"message": "invitation sent",
	})
}

func parseUserID(c *fiber.Ctx) (uint, bool) {
	value, err := c.ParamsInt("id")
	if err != nil || value <= 0 {
		return 0, false
	}
	return uint(value), true
}
