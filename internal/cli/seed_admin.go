package cli

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/terraincognita07/parish/internal/db"
	"github.com/terraincognita07/parish/internal/models"
	"github.com/terraincognita07/parish/internal/security"
	"github.com/terraincognita07/parish/internal/services"
)

type SeedAdminOptions struct {
	Email     string
	FirstName string
	LastName  string
}

// RunSeedAdminCommand creates the first administrator. An existing user with
// the same email is left untouched.
func RunSeedAdminCommand(ctx context.Context, dbPath string, options SeedAdminOptions, prompt PasswordPrompt, out io.Writer) error {
	database, err := db.OpenSQLite(dbPath)
	if err != nil {
		return fmt.Errorf("database init failed: %w", err)
	}
	defer db.Close(database)

	_, err = seedAdmin(ctx, db.NewRepositories(database), options, prompt, out)
	return err
}

func seedAdmin(ctx context.Context, repos *db.Repositories, options SeedAdminOptions, prompt PasswordPrompt, out io.Writer) (bool, error) {
	email := services.NormalizeEmail(options.Email)
	if email == "" {
		return false, errors.New("email is required")
	}

	exists, err := repos.Users.ExistsByEmail(ctx, email)
	if err != nil {
		return false, fmt.Errorf("check admin email: %w", err)
	}
	if exists {
		fmt.Fprintf(out, "User %s already exists\n", email)
		return false, nil
	}

	password, generated, err := resolveAdminPassword(prompt)
	if err != nil {
		return false, err
	}

	input := services.RegisterInput{
		Email:     email,
		Password:  password,
		FirstName: defaultString(options.FirstName, "Admin"),
		LastName:  defaultString(options.LastName, "User"),
		Role:      models.RoleAdmin,
	}
	if err := input.Validate(); err != nil {
		return false, fmt.Errorf("invalid admin: %w", err)
	}

	digest, err := security.HashPassword(password)
	if err != nil {
		return false, fmt.Errorf("hash password: %w", err)
	}

	user := models.User{
		Email:        email,
		PasswordHash: &digest,
		Role:         models.RoleAdmin,
		FirstName:    input.FirstName,
		LastName:     input.LastName,
	}
	if err := repos.Users.Create(ctx, &user); err != nil {
		return false, fmt.Errorf("create admin: %w", err)
	}

	fmt.Fprintf(out, "Admin user created: %s\n", email)
	if generated {
		fmt.Fprintf(out, "Temporary password: %s\n", password)
	}
	return true, nil
}

// resolveAdminPassword asks for a password twice. Without a terminal a
// temporary password is generated instead.
func resolveAdminPassword(prompt PasswordPrompt) (string, bool, error) {
	if prompt == nil {
		return generatedPassword()
	}

	password, err := prompt("Admin password: ")
	if errors.Is(err, ErrNoTerminal) {
		return generatedPassword()
	}
	if err != nil {
		return "", false, err
	}

	confirmation, err := prompt("Repeat password: ")
	if err != nil {
		return "", false, err
	}
	if password != confirmation {
		return "", false, errors.New("passwords do not match")
	}
	return password, false, nil
}

func generatedPassword() (string, bool, error) {
	password, err := generateTemporaryPassword(16)
	if err != nil {
		return "", false, fmt.Errorf("generate temporary password: %w", err)
	}
	return password, true, nil
}

func generateTemporaryPassword(length int) (string, error) {
	if length < 8 {
		length = 8
	}

	const alphabet = "ABCDEFGHJKLMNPQRSTUVWXYZabcdefghijkmnopqrstuvwxyz23456789"
	return security.RandomString(length, alphabet)
}

func defaultString(value string, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}
