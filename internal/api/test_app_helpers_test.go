package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/terraincognita07/parish/internal/db"
	"github.com/terraincognita07/parish/internal/logging"
	"github.com/terraincognita07/parish/internal/models"
	"github.com/terraincognita07/parish/internal/security"
	"github.com/terraincognita07/parish/internal/services"
	"github.com/terraincognita07/parish/internal/session"
)

type recordedMail struct {
	Kind string
	To   string
	Link string
}

type stubNotifier struct {
	mu   sync.Mutex
	sent []recordedMail
	err  error
}

func (notifier *stubNotifier) SendInvitation(_ context.Context, to string, link string) error {
	return notifier.record("invitation", to, link)
}

func (notifier *stubNotifier) SendPasswordReset(_ context.Context, to string, link string) error {
	return notifier.record("reset", to, link)
}

func (notifier *stubNotifier) record(kind string, to string, link string) error {
	notifier.mu.Lock()
	defer notifier.mu.Unlock()
	notifier.sent = append(notifier.sent, recordedMail{Kind: kind, To: to, Link: link})
	return notifier.err
}

func (notifier *stubNotifier) lastLink(t *testing.T) string {
	t.Helper()
	notifier.mu.Lock()
	defer notifier.mu.Unlock()
	if len(notifier.sent) == 0 {
		t.Fatal("expected a notification to be sent")
	}
	return notifier.sent[len(notifier.sent)-1].Link
}

type testEnv struct {
	app      *fiber.App
	handler  *Handler
	repos    *db.Repositories
	sessions *session.Issuer
	notifier *stubNotifier
	now      time.Time
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	database, err := db.OpenSQLite(filepath.Join(t.TempDir(), "parish-api-test.db"))
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() {
		_ = db.Close(database)
	})

	sessions, err := session.NewIssuer([]byte("0123456789abcdef0123456789abcdef"), session.DefaultTTL)
	if err != nil {
		t.Fatalf("init session issuer: %v", err)
	}

	env := &testEnv{
		repos:    db.NewRepositories(database),
		sessions: sessions,
		notifier: &stubNotifier{},
		now:      time.Now().UTC(),
	}

	handler, err := NewHandler(database, sessions, HandlerOptions{
		FrontendURL: "http://localhost:5173",
		Notifier:    env.notifier,
		Logger:      logging.Discard(),
		Now:         func() time.Time { return env.now },
	})
	if err != nil {
		t.Fatalf("init handler: %v", err)
	}
	env.handler = handler
	env.app = NewApp(handler, AppConfig{AllowOrigins: "http://localhost:5173", Logger: logging.Discard()})
	return env
}

// createUser stores an activated user and returns it with a bearer token.
func (env *testEnv) createUser(t *testing.T, email string, role string, password string) (models.User, string) {
	t.Helper()

	digest, err := security.HashPassword(password)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	user := models.User{Email: email, Role: role, PasswordHash: &digest, FirstName: "Test", LastName: "User"}
	if err := env.repos.Users.Create(context.Background(), &user); err != nil {
		t.Fatalf("create user: %v", err)
	}

	token, err := env.sessions.Issue(user.ID, user.Email, env.now)
	if err != nil {
		t.Fatalf("issue session: %v", err)
	}
	return user, token
}

func (env *testEnv) do(t *testing.T, method string, path string, body any, bearer string) (*http.Response, map[string]any) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("encode body: %v", err)
		}
		reader = bytes.NewReader(encoded)
	}

	request := httptest.NewRequest(method, path, reader)
	if body != nil {
		request.Header.Set("Content-Type", "application/json")
	}
	if bearer != "" {
		request.Header.Set("Authorization", "Bearer "+bearer)
	}

	response, err := env.app.Test(request, -1)
	if err != nil {
		t.Fatalf("request %s %s failed: %v", method, path, err)
	}
	t.Cleanup(func() {
		_ = response.Body.Close()
	})

	raw, err := io.ReadAll(response.Body)
	if err != nil {
		t.Fatalf("read response body: %v", err)
	}
	payload := map[string]any{}
	if len(raw) > 0 && raw[0] == '{' {
		if err := json.Unmarshal(raw, &payload); err != nil {
			t.Fatalf("decode response body %q: %v", string(raw), err)
		}
	}
	return response, payload
}

func assertStatus(t *testing.T, response *http.Response, want int) {
	t.Helper()
	if response.StatusCode != want {
		t.Fatalf("expected status %d, got %d", want, response.StatusCode)
	}
}

func assertErrorMessage(t *testing.T, payload map[string]any, want string) {
	t.Helper()
	if got, _ := payload["error"].(string); got != want {
		t.Fatalf("expected error %q, got %q", want, got)
	}
}

func tokenFromLink(link string) string {
	return services.ExtractToken(link)
}
