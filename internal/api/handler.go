package api

import (
	"errors"
	"log/slog"
	"time"

	"github.com/terraincognita07/parish/internal/db"
	"github.com/terraincognita07/parish/internal/services"
	"github.com/terraincognita07/parish/internal/session"
	"gorm.io/gorm"
)

const (
	loginAttemptsLimit     = 10
	loginAttemptsWindow    = 15 * time.Minute
	recoveryAttemptsLimit  = 5
	recoveryAttemptsWindow = 15 * time.Minute
)

type Handler struct {
	db              *gorm.DB
	repositories    *db.Repositories
	authService     *services.AuthService
	userService     *services.UserService
	sessions        *session.Issuer
	loginLimiter    *attemptLimiter
	recoveryLimiter *attemptLimiter
	logger          *slog.Logger
	now             func() time.Time
}

type HandlerOptions struct {
	FrontendURL string
	TokenTTL    time.Duration
	Notifier    services.Notifier
	Recorder    services.Recorder
	Logger      *slog.Logger
	Now         func() time.Time
}

func NewHandler(database *gorm.DB, sessions *session.Issuer, options HandlerOptions) (*Handler, error) {
	if database == nil {
		return nil, errors.New("database is required")
	}
	if sessions == nil {
		return nil, errors.New("session issuer is required")
	}
	if options.Notifier == nil {
		return nil, errors.New("notifier is required")
	}
	if options.Logger == nil {
		options.Logger = slog.Default()
	}
	if options.Now == nil {
		options.Now = time.Now
	}

	handler := &Handler{
		db:              database,
		sessions:        sessions,
		loginLimiter:    newAttemptLimiter(loginAttemptsLimit, loginAttemptsWindow),
		recoveryLimiter: newAttemptLimiter(recoveryAttemptsLimit, recoveryAttemptsWindow),
		logger:          options.Logger,
		now:             options.Now,
	}
	return handler.withDependencies(options), nil
}

func (handler *Handler) withDependencies(options HandlerOptions) *Handler {
	handler.repositories = db.NewRepositories(handler.db)
	handler.authService = services.NewAuthService(
		handler.repositories.Users,
		handler.repositories.Tokens,
		options.Notifier,
		handler.sessions,
		services.AuthOptions{
			FrontendURL: options.FrontendURL,
			TokenTTL:    options.TokenTTL,
			Logger:      options.Logger,
			Recorder:    options.Recorder,
			Now:         options.Now,
		},
	)
	handler.userService = services.NewUserService(handler.repositories.Users, options.Logger)
	return handler
}
