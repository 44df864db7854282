package services

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/terraincognita07/parish/internal/db"
	"github.com/terraincognita07/parish/internal/logging"
	"github.com/terraincognita07/parish/internal/session"
)

const testFrontendURL = "http://localhost:5173"

type sentMail struct {
	Template string
	To       string
	Link     string
}

type fakeNotifier struct {
	mu   sync.Mutex
	sent []sentMail
	err  error
}

func (notifier *fakeNotifier) SendInvitation(_ context.Context, to string, link string) error {
	return notifier.record(templateInvitation, to, link)
}

func (notifier *fakeNotifier) SendPasswordReset(_ context.Context, to string, link string) error {
	return notifier.record(templateReset, to, link)
}

func (notifier *fakeNotifier) record(template string, to string, link string) error {
	notifier.mu.Lock()
	defer notifier.mu.Unlock()
	notifier.sent = append(notifier.sent, sentMail{Template: template, To: to, Link: link})
	return notifier.err
}

func (notifier *fakeNotifier) last(t *testing.T) sentMail {
	t.Helper()
	notifier.mu.Lock()
	defer notifier.mu.Unlock()
	require.NotEmpty(t, notifier.sent, "expected at least one notification")
	return notifier.sent[len(notifier.sent)-1]
}

type countingRecorder struct {
	mu            sync.Mutex
	operations    map[string]int
	notifications map[string]int
}

func newCountingRecorder() *countingRecorder {
	return &countingRecorder{operations: map[string]int{}, notifications: map[string]int{}}
}

func (recorder *countingRecorder) RecordOperation(operation string, outcome string) {
	recorder.mu.Lock()
	defer recorder.mu.Unlock()
	recorder.operations[operation+"/"+outcome]++
}

func (recorder *countingRecorder) RecordNotification(template string, delivered bool) {
	recorder.mu.Lock()
	defer recorder.mu.Unlock()
	key := template + "/failed"
	if delivered {
		key = template + "/delivered"
	}
	recorder.notifications[key]++
}

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (clock *testClock) Now() time.Time {
	clock.mu.Lock()
	defer clock.mu.Unlock()
	return clock.now
}

func (clock *testClock) Advance(step time.Duration) {
	clock.mu.Lock()
	defer clock.mu.Unlock()
	clock.now = clock.now.Add(step)
}

type authFixture struct {
	repos    *db.Repositories
	notifier *fakeNotifier
	recorder *countingRecorder
	clock    *testClock
	sessions *session.Issuer
	auth     *AuthService
	users    *UserService
}

func newAuthFixture(t *testing.T) *authFixture {
	t.Helper()

	database, err := db.OpenSQLite(filepath.Join(t.TempDir(), "services-test.db"))
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = db.Close(database)
	})

	sessions, err := session.NewIssuer([]byte("0123456789abcdef0123456789abcdef"), session.DefaultTTL)
	require.NoError(t, err)

	fixture := &authFixture{
		repos:    db.NewRepositories(database),
		notifier: &fakeNotifier{},
		recorder: newCountingRecorder(),
		clock:    &testClock{now: time.Date(2026, 2, 10, 9, 0, 0, 0, time.UTC)},
		sessions: sessions,
	}
	fixture.auth = NewAuthService(fixture.repos.Users, fixture.repos.Tokens, fixture.notifier, sessions, AuthOptions{
		FrontendURL: testFrontendURL,
		Logger:      logging.Discard(),
		Recorder:    fixture.recorder,
		Now:         fixture.clock.Now,
	})
	fixture.users = NewUserService(fixture.repos.Users, logging.Discard())
	return fixture
}

// inviteAndToken invites email and returns the token from the mailed link.
func (fixture *authFixture) inviteAndToken(t *testing.T, email string) (InviteResult, string) {
	t.Helper()
	result, err := fixture.auth.Invite(context.Background(), InviteInput{Email: email})
	require.NoError(t, err)
	return result, ExtractToken(fixture.notifier.last(t).Link)
}
