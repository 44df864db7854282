package api

import (
	"errors"
	"log/slog"

	"github.com/gofiber/fiber/v2"
	"github.com/terraincognita07/parish/internal/services"
)

const internalErrorMessage = "internal error"

var tokenErrors = []error{
	services.ErrInvalidToken,
	services.ErrTokenExpired,
	services.ErrTokenAlreadyUsed,
	services.ErrAlreadyActivated,
}

func apiError(c *fiber.Ctx, status int, message string) error {
	return c.Status(status).JSON(fiber.Map{"error": message})
}

// respondError maps a workflow error onto a status code and a terse message.
// Unclassified errors are logged and reported as internal.
func (handler *Handler) respondError(c *fiber.Ctx, err error) error {
	var validationErr *services.ValidationError

	switch services.Kind(err) {
	case services.KindValidation:
		errors.As(err, &validationErr)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":  "invalid input",
			"fields": validationErr.Fields,
		})
	case services.KindConflict:
		if errors.Is(err, services.ErrEmailAlreadyRegistered) {
			return apiError(c, fiber.StatusBadRequest, services.ErrEmailAlreadyRegistered.Error())
		}
		return apiError(c, fiber.StatusConflict, services.ErrDuplicateEmail.Error())
	case services.KindNotFound:
		return apiError(c, fiber.StatusNotFound, services.ErrUserNotFound.Error())
	case services.KindToken:
		for _, sentinel := range tokenErrors {
			if errors.Is(err, sentinel) {
				return apiError(c, fiber.StatusBadRequest, sentinel.Error())
			}
		}
		return apiError(c, fiber.StatusBadRequest, services.ErrInvalidToken.Error())
	case services.KindAuthentication:
		return apiError(c, fiber.StatusForbidden, services.ErrInvalidCredentials.Error())
	case services.KindOperational:
		return apiError(c, fiber.StatusBadGateway, services.ErrNotificationFailed.Error())
	default:
		handler.logger.ErrorContext(c.UserContext(), "request failed",
			slog.String("path", c.Path()),
			slog.Any("error", err),
		)
		return apiError(c, fiber.StatusInternalServerError, internalErrorMessage)
	}
}

// parseBody decodes an optional JSON body. An empty body leaves payload as is.
func parseBody(c *fiber.Ctx, payload any) error {
	if len(c.Body()) == 0 {
		return nil
	}
	if err := c.BodyParser(payload); err != nil {
		return services.NewFieldError("body", "malformed request body")
	}
	return nil
}

// errorHandler renders errors that escape the handlers in the API's JSON
// shape.
func errorHandler(logger *slog.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		var fiberErr *fiber.Error
		if errors.As(err, &fiberErr) {
			return apiError(c, fiberErr.Code, fiberErr.Message)
		}
		logger.ErrorContext(c.UserContext(), "unhandled request error",
			slog.String("path", c.Path()),
			slog.Any("error", err),
		)
		return apiError(c, fiber.StatusInternalServerError, internalErrorMessage)
	}
}
