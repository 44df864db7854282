package api

import (
	"github.com/gofiber/fiber/v2"
	"github.com/terraincognita07/parish/internal/models"
	"github.com/terraincognita07/parish/internal/session"
)

const contextUserKey = "user"

func currentUser(c *fiber.Ctx) (*models.User, bool) {
	user, ok := c.Locals(contextUserKey).(*models.User)
	return user, ok
}

// AuthRequired accepts a bearer session credential and loads its user. Users
// that were deleted or never activated are rejected.
func (handler *Handler) AuthRequired(c *fiber.Ctx) error {
	outcome := handler.sessions.Authenticate(session.BearerToken(c.Get(fiber.HeaderAuthorization)), handler.now())
	if !outcome.OK() {
		return apiError(c, fiber.StatusUnauthorized, "unauthorized")
	}

	user, err := handler.repositories.Users.FindByID(c.UserContext(), outcome.Identity.UserID)
	if err != nil || !user.Activated() {
		return apiError(c, fiber.StatusUnauthorized, "unauthorized")
	}

	c.Locals(contextUserKey, &user)
	return c.Next()
}

func (handler *Handler) AdminOnly(c *fiber.Ctx) error {
	user, ok := currentUser(c)
	if !ok {
		return apiError(c, fiber.StatusUnauthorized, "unauthorized")
	}
	if user.Role != models.RoleAdmin {
		return apiError(c, fiber.StatusForbidden, "admin access required")
	}
	return c.Next()
}
