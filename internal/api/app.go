package api

import (
	"io"
	"log/slog"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/google/uuid"
)

type AppConfig struct {
	AllowOrigins string
	// AccessLog receives one line per request. Nil disables access logging.
	AccessLog io.Writer
	Logger    *slog.Logger
}

// NewApp builds the fiber application with the shared middleware stack and
// every route registered.
func NewApp(handler *Handler, cfg AppConfig) *fiber.App {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	app := fiber.New(fiber.Config{
		AppName:               "Parish",
		DisableStartupMessage: true,
		ErrorHandler:          errorHandler(cfg.Logger),
	})

	app.Use(recover.New())
	app.Use(requestid.New(requestid.Config{Generator: uuid.NewString}))
	if cfg.AccessLog != nil {
		app.Use(logger.New(logger.Config{
			Format: "${time} ${locals:requestid} ${status} - ${latency} ${method} ${path}\n",
			Output: cfg.AccessLog,
		}))
	}
	if cfg.AllowOrigins != "" {
		app.Use(cors.New(cors.Config{
			AllowOrigins: cfg.AllowOrigins,
			AllowMethods: "GET,POST,PATCH,DELETE,OPTIONS",
			AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		}))
	}

	RegisterRoutes(app, handler)
	return app
}
