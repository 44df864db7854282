package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/terraincognita07/parish/internal/db"
	"github.com/terraincognita07/parish/internal/logging"
	"github.com/terraincognita07/parish/internal/services"
)

type ResetPasswordOptions struct {
	Email       string
	FrontendURL string
	TokenTTL    time.Duration
}

// RunResetPasswordCommand issues a password reset token for an existing user
// and prints the reset link instead of mailing it. The password itself is
// only changed when the link is redeemed.
func RunResetPasswordCommand(ctx context.Context, dbPath string, options ResetPasswordOptions, out io.Writer) error {
	database, err := db.OpenSQLite(dbPath)
	if err != nil {
		return fmt.Errorf("database init failed: %w", err)
	}
	defer db.Close(database)

	return resetPassword(ctx, db.NewRepositories(database), options, out)
}

func resetPassword(ctx context.Context, repos *db.Repositories, options ResetPasswordOptions, out io.Writer) error {
	if services.NormalizeEmail(options.Email) == "" {
		return errors.New("email is required")
	}

	printer := &linkPrinter{}
	auth := services.NewAuthService(repos.Users, repos.Tokens, printer, nil, services.AuthOptions{
		FrontendURL: options.FrontendURL,
		TokenTTL:    options.TokenTTL,
		Logger:      logging.Discard(),
	})

	if err := auth.ForgotPassword(ctx, options.Email); err != nil {
		if errors.Is(err, services.ErrUserNotFound) {
			return fmt.Errorf("user %s not found", services.NormalizeEmail(options.Email))
		}
		return fmt.Errorf("issue reset token: %w", err)
	}

	fmt.Fprintf(out, "Password reset link for %s:\n%s\n", printer.to, printer.link)
	return nil
}

// linkPrinter captures the link the workflow would have mailed.
type linkPrinter struct {
	to   string
	link string
}

func (printer *linkPrinter) SendInvitation(_ context.Context, to string, link string) error {
	printer.to, printer.link = to, link
	return nil
}

func (printer *linkPrinter) SendPasswordReset(_ context.Context, to string, link string) error {
	printer.to, printer.link = to, link
	return nil
}
