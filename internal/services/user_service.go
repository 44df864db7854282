package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/terraincognita07/parish/internal/db"
	"github.com/terraincognita07/parish/internal/models"
)

type UserRepository interface {
	FindByID(ctx context.Context, userID uint) (models.User, error)
	List(ctx context.Context) ([]models.User, error)
	UpdateByID(ctx context.Context, userID uint, updates map[string]any) error
	DeleteWithTokens(ctx context.Context, userID uint) error
}

// UserService backs the admin user management endpoints.
type UserService struct {
	users  UserRepository
	logger *slog.Logger
}

func NewUserService(users UserRepository, logger *slog.Logger) *UserService {
	if logger == nil {
		logger = slog.Default()
	}
	return &UserService{users: users, logger: logger}
}

func (service *UserService) List(ctx context.Context) ([]Profile, error) {
	users, err := service.users.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}

	profiles := make([]Profile, 0, len(users))
	for _, user := range users {
		profiles = append(profiles, ProfileFromUser(user))
	}
	return profiles, nil
}

func (service *UserService) Get(ctx context.Context, userID uint) (Profile, error) {
	user, err := service.users.FindByID(ctx, userID)
	if err != nil {
		return Profile{}, mapUserLookupError(err)
	}
	return ProfileFromUser(user), nil
}

// Update applies the non-nil fields of input. Passwords are only written by
// redeeming a one-time token.
func (service *UserService) Update(ctx context.Context, userID uint, input UpdateUserInput) (Profile, error) {
	input.normalize()
	if err := validate(input); err != nil {
		return Profile{}, err
	}

	updates := make(map[string]any, 4)
	if input.Email != nil {
		updates["email"] = *input.Email
	}
	if input.FirstName != nil {
		updates["first_name"] = *input.FirstName
	}
	if input.LastName != nil {
		updates["last_name"] = *input.LastName
	}
	if input.Role != nil {
		updates["role"] = *input.Role
	}

	if len(updates) > 0 {
		if err := service.users.UpdateByID(ctx, userID, updates); err != nil {
			if errors.Is(err, db.ErrUniqueViolation) {
				return Profile{}, ErrDuplicateEmail
			}
			return Profile{}, mapUserLookupError(err)
		}
	}

	return service.Get(ctx, userID)
}

// Delete removes the user together with its one-time tokens.
func (service *UserService) Delete(ctx context.Context, userID uint) error {
	if err := service.users.DeleteWithTokens(ctx, userID); err != nil {
		return mapUserLookupError(err)
	}
	service.logger.InfoContext(ctx, "user deleted", slog.Uint64("user_id", uint64(userID)))
	return nil
}

func mapUserLookupError(err error) error {
	if errors.Is(err, db.ErrNotFound) {
		return ErrUserNotFound
	}
	return fmt.Errorf("user store: %w", err)
}
