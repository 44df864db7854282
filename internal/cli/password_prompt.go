package cli

import (
	"errors"
	"fmt"
	"io"
	"os"

	"golang.org/x/term"
)

var ErrNoTerminal = errors.New("stdin is not a terminal")

// PasswordPrompt asks the operator for a secret.
type PasswordPrompt func(label string) (string, error)

// TerminalPasswordPrompt reads from stdin with echo disabled. It fails with
// ErrNoTerminal when stdin is redirected.
func TerminalPasswordPrompt(stdin *os.File, out io.Writer) PasswordPrompt {
	return func(label string) (string, error) {
		if stdin == nil || !term.IsTerminal(int(stdin.Fd())) {
			return "", ErrNoTerminal
		}

		fmt.Fprint(out, label)
		secret, err := term.ReadPassword(int(stdin.Fd()))
		fmt.Fprintln(out)
		if err != nil {
			return "", fmt.Errorf("read password: %w", err)
		}
		return string(secret), nil
	}
}
