package api

import (
	"github.com/gofiber/fiber/v2"
)

func RegisterRoutes(app *fiber.App, handler *Handler) {
	app.Get("/healthz", handler.Health)

	auth := app.Group("/auth")
	auth.Post("/invite", handler.AuthRequired, handler.AdminOnly, handler.Invite)
	auth.Post("/set-password", handler.SetPassword)
	auth.Post("/forgot-password", handler.ForgotPassword)
	auth.Post("/reset-password", handler.ResetPassword)
	auth.Post("/register", handler.Register)
	auth.Post("/login", handler.Login)
	auth.Get("/profile", handler.AuthRequired, handler.Profile)

	users := app.Group("/users", handler.AuthRequired, handler.AdminOnly)
	users.Get("", handler.ListUsers)
	users.Post("", handler.CreateUser)
	users.Post("/request-invitation", handler.RequestInvitation)
	users.Get("/:id", handler.GetUser)
	users.Patch("/:id", handler.UpdateUser)
	users.Delete("/:id", handler.DeleteUser)
}

func (handler *Handler) Health(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "ok"})
}
