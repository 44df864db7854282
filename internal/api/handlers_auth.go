package api

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/terraincognita07/parish/internal/services"
)

type redeemPayload struct {
	Token    string `json:"token"`
	Password string `json:"password"`
}

type emailPayload struct {
	Email string `json:"email"`
}

type credentialsPayload struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (handler *Handler) Invite(c *fiber.Ctx) error {
	input := services.InviteInput{}
	if err := parseBody(c, &input); err != nil {
		return handler.respondError(c, err)
	}
	return handler.invite(c, input)
}

func (handler *Handler) invite(c *fiber.Ctx, input services.InviteInput) error {
	result, err := handler.authService.Invite(c.UserContext(), input)
	if err != nil {
		if errors.Is(err, services.ErrNotificationFailed) && result.UserID != 0 {
			return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
				"error":  services.ErrNotificationFailed.Error(),
				"userId": result.UserID,
			})
		}
		return handler.respondError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"message": "invitation sent",
		"userId":  result.UserID,
	})
}

func (handler *Handler) SetPassword(c *fiber.Ctx) error {
	payload, err := parseRedeemPayload(c)
	if err != nil {
		return handler.respondError(c, err)
	}

	summary, err := handler.authService.SetPassword(c.UserContext(), payload.Token, payload.Password)
	if err != nil {
		return handler.respondError(c, err)
	}

	return c.JSON(fiber.Map{
		"success": true,
		"message": "password set",
		"user": fiber.Map{
			"email":     summary.Email,
			"firstName": summary.FirstName,
			"lastName":  summary.LastName,
		},
	})
}

func (handler *Handler) ForgotPassword(c *fiber.Ctx) error {
	now := handler.now()
	limiterKey := requestLimiterKey(c)
	if handler.recoveryLimiter.tooManyRecent(limiterKey, now) {
		return apiError(c, fiber.StatusTooManyRequests, "too many attempts")
	}
	handler.recoveryLimiter.addAttempt(limiterKey, now)

	payload := emailPayload{}
	if err := parseBody(c, &payload); err != nil {
		return handler.respondError(c, err)
	}

	if err := handler.authService.ForgotPassword(c.UserContext(), payload.Email); err != nil {
		if errors.Is(err, services.ErrUserNotFound) {
			return apiError(c, fiber.StatusBadRequest, services.ErrUserNotFound.Error())
		}
		return handler.respondError(c, err)
	}

	return c.JSON(fiber.Map{
		"success": true,
		"message": "password reset email sent",
	})
}

func (handler *Handler) ResetPassword(c *fiber.Ctx) error {
	payload, err := parseRedeemPayload(c)
	if err != nil {
		return handler.respondError(c, err)
	}

	summary, err := handler.authService.ResetPassword(c.UserContext(), payload.Token, payload.Password)
	if err != nil {
		return handler.respondError(c, err)
	}

	return c.JSON(fiber.Map{
		"success": true,
		"message": "password reset",
		"user":    fiber.Map{"email": summary.Email},
	})
}

func (handler *Handler) Register(c *fiber.Ctx) error {
	input := services.RegisterInput{}
	if err := parseBody(c, &input); err != nil {
		return handler.respondError(c, err)
	}

	result, err := handler.authService.Register(c.UserContext(), input)
	if err != nil {
		return handler.respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(result)
}

func (handler *Handler) Login(c *fiber.Ctx) error {
	now := handler.now()
	limiterKey := requestLimiterKey(c)
	if handler.loginLimiter.tooManyRecent(limiterKey, now) {
		return apiError(c, fiber.StatusTooManyRequests, "too many attempts")
	}

	payload := credentialsPayload{}
	if err := parseBody(c, &payload); err != nil {
		return handler.respondError(c, err)
	}

	result, err := handler.authService.Login(c.UserContext(), payload.Email, payload.Password)
	if err != nil {
		if errors.Is(err, services.ErrInvalidCredentials) {
			handler.loginLimiter.addAttempt(limiterKey, now)
		}
		return handler.respondError(c, err)
	}

	handler.loginLimiter.reset(limiterKey)
	return c.JSON(result)
}

func (handler *Handler) Profile(c *fiber.Ctx) error {
	user, ok := currentUser(c)
	if !ok {
		return apiError(c, fiber.StatusUnauthorized, "unauthorized")
	}

	profile, err := handler.authService.Profile(c.UserContext(), user.ID)
	if err != nil {
		return handler.respondError(c, err)
	}
	return c.JSON(profile)
}

// parseRedeemPayload reads the token from the query string, falling back to
// the JSON body.
func parseRedeemPayload(c *fiber.Ctx) (redeemPayload, error) {
	payload := redeemPayload{}
	if err := parseBody(c, &payload); err != nil {
		return redeemPayload{}, err
	}
	if token := c.Query("token"); token != "" {
		payload.Token = token
	}
	return payload, nil
}
