package cli

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/terraincognita07/parish/internal/db"
	"github.com/terraincognita07/parish/internal/models"
	"github.com/terraincognita07/parish/internal/security"
)

func openTestRepositories(t *testing.T) *db.Repositories {
	t.Helper()

	database, err := db.OpenSQLite(filepath.Join(t.TempDir(), "parish-cli-test.db"))
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() {
		_ = db.Close(database)
	})
	return db.NewRepositories(database)
}

func scriptedPrompt(answers ...string) PasswordPrompt {
	return func(string) (string, error) {
		if len(answers) == 0 {
			return "", errors.New("no scripted answer left")
		}
		answer := answers[0]
		answers = answers[1:]
		return answer, nil
	}
}

func TestSeedAdminWithPromptedPassword(t *testing.T) {
	repos := openTestRepositories(t)
	var out bytes.Buffer

	created, err := seedAdmin(context.Background(), repos, SeedAdminOptions{Email: "admin@example.com"}, scriptedPrompt("admin123", "admin123"), &out)
	if err != nil {
		t.Fatalf("seedAdmin returned error: %v", err)
	}
	if !created {
		t.Fatal("expected admin to be created")
	}

	user, err := repos.Users.FindByEmail(context.Background(), "admin@example.com")
	if err != nil {
		t.Fatalf("load admin: %v", err)
	}
	if user.Role != models.RoleAdmin || user.FirstName != "Admin" || user.LastName != "User" {
		t.Fatalf("unexpected admin record: %+v", user)
	}
	if !security.VerifyPassword("admin123", *user.PasswordHash) {
		t.Fatal("expected prompted password to be stored")
	}
	if strings.Contains(out.String(), "admin123") {
		t.Fatal("prompted password must not be echoed")
	}
}

func TestSeedAdminGeneratesPasswordWithoutTerminal(t *testing.T) {
	repos := openTestRepositories(t)
	var out bytes.Buffer

	noTerminal := func(string) (string, error) { return "", ErrNoTerminal }
	if _, err := seedAdmin(context.Background(), repos, SeedAdminOptions{Email: "admin@example.com"}, noTerminal, &out); err != nil {
		t.Fatalf("seedAdmin returned error: %v", err)
	}

	_, printed, found := strings.Cut(out.String(), "Temporary password: ")
	if !found {
		t.Fatalf("expected temporary password in output %q", out.String())
	}
	password := strings.TrimSpace(printed)

	user, err := repos.Users.FindByEmail(context.Background(), "admin@example.com")
	if err != nil {
		t.Fatalf("load admin: %v", err)
	}
	if !security.VerifyPassword(password, *user.PasswordHash) {
		t.Fatal("expected printed temporary password to match stored digest")
	}
}

func TestSeedAdminKeepsExistingUser(t *testing.T) {
	repos := openTestRepositories(t)
	var out bytes.Buffer

	existing := models.User{Email: "admin@example.com", Role: models.RoleMember}
	if err := repos.Users.Create(context.Background(), &existing); err != nil {
		t.Fatalf("create user: %v", err)
	}

	created, err := seedAdmin(context.Background(), repos, SeedAdminOptions{Email: "admin@example.com"}, scriptedPrompt(), &out)
	if err != nil {
		t.Fatalf("seedAdmin returned error: %v", err)
	}
	if created {
		t.Fatal("expected existing user to be left alone")
	}

	user, err := repos.Users.FindByID(context.Background(), existing.ID)
	if err != nil {
		t.Fatalf("load user: %v", err)
	}
	if user.Role != models.RoleMember || user.Activated() {
		t.Fatalf("existing user was modified: %+v", user)
	}
}

func TestSeedAdminRejectsBadInput(t *testing.T) {
	repos := openTestRepositories(t)
	var out bytes.Buffer

	if _, err := seedAdmin(context.Background(), repos, SeedAdminOptions{}, scriptedPrompt(), &out); err == nil {
		t.Fatal("expected error for missing email")
	}
	if _, err := seedAdmin(context.Background(), repos, SeedAdminOptions{Email: "admin@example.com"}, scriptedPrompt("admin123", "admin124"), &out); err == nil {
		t.Fatal("expected error for mismatched confirmation")
	}
	if _, err := seedAdmin(context.Background(), repos, SeedAdminOptions{Email: "admin@example.com"}, scriptedPrompt("123", "123"), &out); err == nil {
		t.Fatal("expected error for short password")
	}
	if _, err := seedAdmin(context.Background(), repos, SeedAdminOptions{Email: "not-an-email"}, scriptedPrompt("admin123", "admin123"), &out); err == nil {
		t.Fatal("expected error for malformed email")
	}
}

func TestGenerateTemporaryPasswordMinimumLength(t *testing.T) {
	t.Parallel()

	password, err := generateTemporaryPassword(4)
	if err != nil {
		t.Fatalf("generateTemporaryPassword returned error: %v", err)
	}
	if len(password) != 8 {
		t.Fatalf("generateTemporaryPassword minimum len = %d, want 8", len(password))
	}
}

func TestGenerateTemporaryPasswordAlphabet(t *testing.T) {
	t.Parallel()

	const alphabet = "ABCDEFGHJKLMNPQRSTUVWXYZabcdefghijkmnopqrstuvwxyz23456789"
	password, err := generateTemporaryPassword(24)
	if err != nil {
		t.Fatalf("generateTemporaryPassword returned error: %v", err)
	}
	if len(password) != 24 {
		t.Fatalf("generateTemporaryPassword len = %d, want 24", len(password))
	}

	for _, char := range password {
		if !strings.ContainsRune(alphabet, char) {
			t.Fatalf("password %q contains char %q outside alphabet", password, char)
		}
	}
}
