package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const minSecretKeyLength = 32

var insecureSecretKeys = map[string]struct{}{
	"change_me_in_production": {},
	"changeme":                {},
	"secret":                  {},
	"your_jwt_secret":         {},
}

type Mail struct {
	Host      string
	Port      int
	Username  string
	Password  string
	FromEmail string
	FromName  string
}

// Enabled reports whether an SMTP relay is configured.
func (mail Mail) Enabled() bool {
	return mail.Host != ""
}

type Config struct {
	Port           string
	DBPath         string
	SecretKey      string
	SessionTTL     time.Duration
	InviteTokenTTL time.Duration
	FrontendURL    string
	Mail           Mail
	LogLevel       string
	LogFormat      string
	Location       *time.Location
}

// Operator is the subset of Config the maintenance commands need. It does
// not require JWT_SECRET.
type Operator struct {
	DBPath         string
	FrontendURL    string
	InviteTokenTTL time.Duration
}

// Load reads an optional .env file from the working directory and then the
// process environment. Variables already set in the environment win.
func Load() (Config, error) {
	if err := loadDotEnv(); err != nil {
		return Config{}, err
	}
	return FromEnv()
}

// LoadOperator reads the same .env file as Load so that maintenance commands
// open the database the server uses.
func LoadOperator() (Operator, error) {
	if err := loadDotEnv(); err != nil {
		return Operator{}, err
	}
	return OperatorFromEnv()
}

func OperatorFromEnv() (Operator, error) {
	inviteTTL, err := parseDuration("INVITE_TOKEN_TTL", 48*time.Hour)
	if err != nil {
		return Operator{}, err
	}
	return Operator{
		DBPath:         getEnv("DB_PATH", filepath.Join("data", "parish.db")),
		FrontendURL:    strings.TrimRight(getEnv("FRONTEND_URL", "http://localhost:5173"), "/"),
		InviteTokenTTL: inviteTTL,
	}, nil
}

func FromEnv() (Config, error) {
	secretKey, err := resolveSecretKey()
	if err != nil {
		return Config{}, err
	}

	sessionTTL, err := parseDuration("SESSION_TTL", 24*time.Hour)
	if err != nil {
		return Config{}, err
	}
	operator, err := OperatorFromEnv()
	if err != nil {
		return Config{}, err
	}

	mailPort, err := strconv.Atoi(getEnv("MAIL_PORT", "587"))
	if err != nil || mailPort <= 0 {
		return Config{}, fmt.Errorf("invalid MAIL_PORT %q", os.Getenv("MAIL_PORT"))
	}

	return Config{
		Port:           getEnv("PORT", "8080"),
		DBPath:         operator.DBPath,
		SecretKey:      secretKey,
		SessionTTL:     sessionTTL,
		InviteTokenTTL: operator.InviteTokenTTL,
		FrontendURL:    operator.FrontendURL,
		Mail: Mail{
			Host:      strings.TrimSpace(os.Getenv("MAIL_HOST")),
			Port:      mailPort,
			Username:  os.Getenv("MAIL_USER"),
			Password:  os.Getenv("MAIL_PASS"),
			FromEmail: getEnv("MAIL_FROM_EMAIL", "noreply@iglesiaplatform.com"),
			FromName:  getEnv("MAIL_FROM_NAME", "Iglesia Platform"),
		},
		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "json"),
		Location:  loadLocation(getEnv("TZ", "UTC")),
	}, nil
}

func loadDotEnv() error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("load .env: %w", err)
	}
	return nil
}

func resolveSecretKey() (string, error) {
	secretKey := strings.TrimSpace(os.Getenv("JWT_SECRET"))
	if secretKey == "" {
		return "", errors.New("JWT_SECRET is required")
	}
	if _, insecure := insecureSecretKeys[strings.ToLower(secretKey)]; insecure {
		return "", errors.New("JWT_SECRET uses an insecure placeholder value")
	}
	if len(secretKey) < minSecretKeyLength {
		return "", fmt.Errorf("JWT_SECRET must be at least %d characters", minSecretKeyLength)
	}
	return secretKey, nil
}

func parseDuration(key string, fallback time.Duration) (time.Duration, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback, nil
	}
	value, err := time.ParseDuration(raw)
	if err != nil || value <= 0 {
		return 0, fmt.Errorf("invalid %s %q", key, raw)
	}
	return value, nil
}

func loadLocation(name string) *time.Location {
	location, err := time.LoadLocation(name)
	if err != nil {
		return time.UTC
	}
	return location
}

func getEnv(key string, fallback string) string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	return value
}
