package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

const validSecret = "0123456789abcdef0123456789abcdef"

func TestResolveSecretKey(t *testing.T) {
	t.Setenv("JWT_SECRET", "")
	if _, err := resolveSecretKey(); err == nil {
		t.Fatal("expected error when JWT_SECRET is empty")
	}

	t.Setenv("JWT_SECRET", "change_me_in_production")
	if _, err := resolveSecretKey(); err == nil {
		t.Fatal("expected error when JWT_SECRET uses insecure placeholder")
	}

	t.Setenv("JWT_SECRET", "too-short-secret")
	if _, err := resolveSecretKey(); err == nil {
		t.Fatal("expected error when JWT_SECRET is too short")
	}

	t.Setenv("JWT_SECRET", validSecret)
	secret, err := resolveSecretKey()
	if err != nil {
		t.Fatalf("expected valid secret, got error: %v", err)
	}
	if secret != validSecret {
		t.Fatalf("expected %q, got %q", validSecret, secret)
	}
}

func TestFromEnvDefaults(t *testing.T) {
	for _, key := range []string{"PORT", "DB_PATH", "SESSION_TTL", "INVITE_TOKEN_TTL", "FRONTEND_URL", "MAIL_HOST", "MAIL_PORT", "MAIL_FROM_EMAIL", "MAIL_FROM_NAME", "TZ"} {
		t.Setenv(key, "")
	}
	t.Setenv("JWT_SECRET", validSecret)

	cfg, err := FromEnv()
	if err != nil {
		t.Fatalf("FromEnv returned error: %v", err)
	}
	if cfg.Port != "8080" {
		t.Fatalf("Port = %q, want 8080", cfg.Port)
	}
	if cfg.SessionTTL != 24*time.Hour {
		t.Fatalf("SessionTTL = %s, want 24h", cfg.SessionTTL)
	}
	if cfg.InviteTokenTTL != 48*time.Hour {
		t.Fatalf("InviteTokenTTL = %s, want 48h", cfg.InviteTokenTTL)
	}
	if cfg.FrontendURL != "http://localhost:5173" {
		t.Fatalf("FrontendURL = %q", cfg.FrontendURL)
	}
	if cfg.Mail.Enabled() {
		t.Fatal("mail must be disabled without MAIL_HOST")
	}
	if cfg.Mail.Port != 587 {
		t.Fatalf("Mail.Port = %d, want 587", cfg.Mail.Port)
	}
	if cfg.Mail.FromName != "Iglesia Platform" {
		t.Fatalf("Mail.FromName = %q", cfg.Mail.FromName)
	}
	if cfg.Location != time.UTC {
		t.Fatalf("Location = %s, want UTC", cfg.Location)
	}
}

func TestFromEnvOverrides(t *testing.T) {
	t.Setenv("JWT_SECRET", validSecret)
	t.Setenv("FRONTEND_URL", "https://app.example.com/")
	t.Setenv("INVITE_TOKEN_TTL", "1h")
	t.Setenv("MAIL_HOST", "smtp.example.com")
	t.Setenv("MAIL_PORT", "2525")

	cfg, err := FromEnv()
	if err != nil {
		t.Fatalf("FromEnv returned error: %v", err)
	}
	if cfg.FrontendURL != "https://app.example.com" {
		t.Fatalf("FrontendURL = %q, want trailing slash trimmed", cfg.FrontendURL)
	}
	if cfg.InviteTokenTTL != time.Hour {
		t.Fatalf("InviteTokenTTL = %s, want 1h", cfg.InviteTokenTTL)
	}
	if !cfg.Mail.Enabled() || cfg.Mail.Port != 2525 {
		t.Fatalf("unexpected mail config: %+v", cfg.Mail)
	}
}

func TestFromEnvRejectsBadValues(t *testing.T) {
	t.Setenv("JWT_SECRET", validSecret)

	t.Setenv("SESSION_TTL", "forever")
	if _, err := FromEnv(); err == nil {
		t.Fatal("expected error for invalid SESSION_TTL")
	}
	t.Setenv("SESSION_TTL", "")

	t.Setenv("MAIL_PORT", "abc")
	if _, err := FromEnv(); err == nil {
		t.Fatal("expected error for invalid MAIL_PORT")
	}
}

func TestLoadOperatorReadsDotEnvWithoutSecret(t *testing.T) {
	for _, key := range []string{"JWT_SECRET", "DB_PATH", "FRONTEND_URL", "INVITE_TOKEN_TTL"} {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}

	dir := t.TempDir()
	dotEnv := "DB_PATH=custom/server.db\nFRONTEND_URL=https://app.example.com/\nINVITE_TOKEN_TTL=2h\n"
	if err := os.WriteFile(filepath.Join(dir, ".env"), []byte(dotEnv), 0o600); err != nil {
		t.Fatalf("write .env: %v", err)
	}
	t.Chdir(dir)

	operator, err := LoadOperator()
	if err != nil {
		t.Fatalf("LoadOperator returned error: %v", err)
	}
	if operator.DBPath != "custom/server.db" {
		t.Fatalf("DBPath = %q, want custom/server.db", operator.DBPath)
	}
	if operator.FrontendURL != "https://app.example.com" {
		t.Fatalf("FrontendURL = %q", operator.FrontendURL)
	}
	if operator.InviteTokenTTL != 2*time.Hour {
		t.Fatalf("InviteTokenTTL = %s, want 2h", operator.InviteTokenTTL)
	}
}
