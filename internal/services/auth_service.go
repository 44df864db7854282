package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/terraincognita07/parish/internal/db"
	"github.com/terraincognita07/parish/internal/models"
	"github.com/terraincognita07/parish/internal/security"
)

const (
	DefaultTokenTTL = 48 * time.Hour

	setPasswordPath   = "/set-password"
	resetPasswordPath = "/reset-password"

	templateInvitation = "invitation"
	templateReset      = "password_reset"
)

type AuthUserRepository interface {
	FindByID(ctx context.Context, userID uint) (models.User, error)
	FindByEmail(ctx context.Context, email string) (models.User, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	Create(ctx context.Context, user *models.User) error
	CreateWithToken(ctx context.Context, user *models.User, token *models.OneTimeToken) error
}

type TokenRepository interface {
	Create(ctx context.Context, token *models.OneTimeToken) error
	FindByToken(ctx context.Context, value string) (models.OneTimeToken, error)
	Redeem(ctx context.Context, tokenID uint, userID uint, passwordHash string, requireInactive bool) error
}

type Notifier interface {
	SendInvitation(ctx context.Context, to string, link string) error
	SendPasswordReset(ctx context.Context, to string, link string) error
}

type SessionIssuer interface {
	Issue(userID uint, email string, now time.Time) (string, error)
}

type Recorder interface {
	RecordOperation(operation string, outcome string)
	RecordNotification(template string, delivered bool)
}

type noopRecorder struct{}

func (noopRecorder) RecordOperation(string, string)  {}
func (noopRecorder) RecordNotification(string, bool) {}

type AuthOptions struct {
	FrontendURL string
	TokenTTL    time.Duration
	Logger      *slog.Logger
	Recorder    Recorder
	Now         func() time.Time
}

type InviteResult struct {
	UserID uint
	Email  string
}

type UserSummary struct {
	Email     string `json:"email"`
	FirstName string `json:"firstName,omitempty"`
	LastName  string `json:"lastName,omitempty"`
}

type SessionResult struct {
	AccessToken string `json:"access_token"`
}

type Profile struct {
	ID        uint   `json:"id"`
	Email     string `json:"email"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Role      string `json:"role"`
}

// dummyPasswordDigest is compared against when a login names no usable
// account, so every failed login costs one bcrypt comparison.
var dummyPasswordDigest = sync.OnceValue(func() string {
	digest, err := security.HashPassword("parish-login-timing-placeholder")
	if err != nil {
		return ""
	}
	return digest
})

type AuthService struct {
	users       AuthUserRepository
	tokens      TokenRepository
	notifier    Notifier
	sessions    SessionIssuer
	frontendURL string
	tokenTTL    time.Duration
	logger      *slog.Logger
	recorder    Recorder
	now         func() time.Time
}

func NewAuthService(users AuthUserRepository, tokens TokenRepository, notifier Notifier, sessions SessionIssuer, options AuthOptions) *AuthService {
	service := &AuthService{
		users:       users,
		tokens:      tokens,
		notifier:    notifier,
		sessions:    sessions,
		frontendURL: strings.TrimRight(options.FrontendURL, "/"),
		tokenTTL:    options.TokenTTL,
		logger:      options.Logger,
		recorder:    options.Recorder,
		now:         options.Now,
	}
	if service.tokenTTL <= 0 {
		service.tokenTTL = DefaultTokenTTL
	}
	if service.logger == nil {
		service.logger = slog.Default()
	}
	if service.recorder == nil {
		service.recorder = noopRecorder{}
	}
	if service.now == nil {
		service.now = time.Now
	}
	return service
}

// Invite creates a password-less user with a fresh invitation token and
// mails the set-password link. When only the mail fails, the created user is
// still returned alongside an error wrapping ErrNotificationFailed.
func (service *AuthService) Invite(ctx context.Context, input InviteInput) (result InviteResult, err error) {
	defer func() { service.record("invite", err) }()

	input.normalize()
	if err := validate(input); err != nil {
		return InviteResult{}, err
	}

	exists, err := service.users.ExistsByEmail(ctx, input.Email)
	if err != nil {
		return InviteResult{}, fmt.Errorf("check invite email: %w", err)
	}
	if exists {
		return InviteResult{}, ErrEmailAlreadyRegistered
	}

	role := input.Role
	if role == "" {
		role = models.RoleMember
	}

	var (
		user  models.User
		token models.OneTimeToken
	)
	for attempt := 0; ; attempt++ {
		user = models.User{Email: input.Email, Role: role, FirstName: input.FirstName, LastName: input.LastName}
		token, err = service.newToken()
		if err != nil {
			return InviteResult{}, err
		}

		err = service.users.CreateWithToken(ctx, &user, &token)
		if err == nil {
			break
		}
		if !errors.Is(err, db.ErrUniqueViolation) {
			return InviteResult{}, fmt.Errorf("create invited user: %w", err)
		}

		exists, lookupErr := service.users.ExistsByEmail(ctx, input.Email)
		if lookupErr != nil {
			return InviteResult{}, fmt.Errorf("check invite email: %w", lookupErr)
		}
		if exists {
			return InviteResult{}, ErrEmailAlreadyRegistered
		}
		if attempt > 0 {
			return InviteResult{}, fmt.Errorf("create invited user: %w", err)
		}
	}

	result = InviteResult{UserID: user.ID, Email: user.Email}
	service.logger.InfoContext(ctx, "user invited", slog.Uint64("user_id", uint64(user.ID)), slog.String("role", role))

	if err := service.notify(ctx, templateInvitation, user, service.link(setPasswordPath, token.Token)); err != nil {
		return result, err
	}
	return result, nil
}

// SetPassword activates an invited user by redeeming its invitation token.
func (service *AuthService) SetPassword(ctx context.Context, rawToken string, password string) (summary UserSummary, err error) {
	defer func() { service.record("set_password", err) }()

	user, err := service.redeem(ctx, rawToken, password, true)
	if err != nil {
		return UserSummary{}, err
	}
	return UserSummary{Email: user.Email, FirstName: user.FirstName, LastName: user.LastName}, nil
}

// ForgotPassword issues a reset token for an existing user and mails the
// reset link. Earlier tokens of the user stay valid.
func (service *AuthService) ForgotPassword(ctx context.Context, email string) (err error) {
	defer func() { service.record("forgot_password", err) }()

	input := emailInput{Email: NormalizeEmail(email)}
	if err := validate(input); err != nil {
		return err
	}

	user, err := service.users.FindByEmail(ctx, input.Email)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return ErrUserNotFound
		}
		return fmt.Errorf("load user by email: %w", err)
	}

	token, err := service.issueToken(ctx, user.ID)
	if err != nil {
		return err
	}
	return service.notify(ctx, templateReset, user, service.link(resetPasswordPath, token.Token))
}

// ResetPassword overwrites the password of the token owner, whether or not
// the owner was activated before.
func (service *AuthService) ResetPassword(ctx context.Context, rawToken string, password string) (summary UserSummary, err error) {
	defer func() { service.record("reset_password", err) }()

	user, err := service.redeem(ctx, rawToken, password, false)
	if err != nil {
		return UserSummary{}, err
	}
	return UserSummary{Email: user.Email}, nil
}

// ResendInvitation mails a new set-password link to a user that has not
// activated yet.
func (service *AuthService) ResendInvitation(ctx context.Context, email string) (err error) {
	defer func() { service.record("resend_invitation", err) }()

	input := emailInput{Email: NormalizeEmail(email)}
	if err := validate(input); err != nil {
		return err
	}

	user, err := service.users.FindByEmail(ctx, input.Email)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return ErrUserNotFound
		}
		return fmt.Errorf("load user by email: %w", err)
	}
	if user.Activated() {
		return ErrAlreadyActivated
	}

	token, err := service.issueToken(ctx, user.ID)
	if err != nil {
		return err
	}
	return service.notify(ctx, templateInvitation, user, service.link(setPasswordPath, token.Token))
}

func (service *AuthService) Login(ctx context.Context, email string, password string) (result SessionResult, err error) {
	defer func() { service.record("login", err) }()

	input := credentialsInput{Email: NormalizeEmail(email), Password: password}
	if err := validate(input); err != nil {
		return SessionResult{}, err
	}

	user, err := service.users.FindByEmail(ctx, input.Email)
	if err != nil && !errors.Is(err, db.ErrNotFound) {
		return SessionResult{}, fmt.Errorf("load user by email: %w", err)
	}
	if err != nil || !user.Activated() {
		security.VerifyPassword(input.Password, dummyPasswordDigest())
		return SessionResult{}, ErrInvalidCredentials
	}
	if !security.VerifyPassword(input.Password, *user.PasswordHash) {
		return SessionResult{}, ErrInvalidCredentials
	}

	return service.issueSession(user)
}

// Register creates an already-activated user. Duplicate emails surface from
// the store's unique index as ErrDuplicateEmail.
func (service *AuthService) Register(ctx context.Context, input RegisterInput) (result SessionResult, err error) {
	defer func() { service.record("register", err) }()

	input.normalize()
	if err := validate(input); err != nil {
		return SessionResult{}, err
	}

	digest, err := security.HashPassword(input.Password)
	if err != nil {
		return SessionResult{}, fmt.Errorf("hash password: %w", err)
	}

	role := input.Role
	if role == "" {
		role = models.RoleMember
	}
	user := models.User{
		Email:        input.Email,
		PasswordHash: &digest,
		Role:         role,
		FirstName:    input.FirstName,
		LastName:     input.LastName,
	}
	if err := service.users.Create(ctx, &user); err != nil {
		if errors.Is(err, db.ErrUniqueViolation) {
			return SessionResult{}, ErrDuplicateEmail
		}
		return SessionResult{}, fmt.Errorf("create user: %w", err)
	}

	return service.issueSession(user)
}

func (service *AuthService) Profile(ctx context.Context, userID uint) (Profile, error) {
	user, err := service.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return Profile{}, ErrUserNotFound
		}
		return Profile{}, fmt.Errorf("load user: %w", err)
	}
	return ProfileFromUser(user), nil
}

func ProfileFromUser(user models.User) Profile {
	return Profile{
		ID:        user.ID,
		Email:     user.Email,
		FirstName: user.FirstName,
		LastName:  user.LastName,
		Role:      user.Role,
	}
}

func (service *AuthService) redeem(ctx context.Context, rawToken string, password string, requireInactive bool) (models.User, error) {
	input := redeemInput{Token: ExtractToken(rawToken), Password: password}
	if err := validate(input); err != nil {
		return models.User{}, err
	}

	token, err := service.tokens.FindByToken(ctx, input.Token)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return models.User{}, ErrInvalidToken
		}
		return models.User{}, fmt.Errorf("load token: %w", err)
	}

	switch {
	case token.Expired(service.now()):
		return models.User{}, ErrTokenExpired
	case token.Used:
		return models.User{}, ErrTokenAlreadyUsed
	case requireInactive && token.User.Activated():
		return models.User{}, ErrAlreadyActivated
	}

	digest, err := security.HashPassword(input.Password)
	if err != nil {
		return models.User{}, fmt.Errorf("hash password: %w", err)
	}

	if err := service.tokens.Redeem(ctx, token.ID, token.UserID, digest, requireInactive); err != nil {
		switch {
		case errors.Is(err, db.ErrTokenConsumed):
			return models.User{}, ErrTokenAlreadyUsed
		case errors.Is(err, db.ErrUserActivated):
			return models.User{}, ErrAlreadyActivated
		case errors.Is(err, db.ErrNotFound):
			return models.User{}, ErrInvalidToken
		default:
			return models.User{}, fmt.Errorf("redeem token: %w", err)
		}
	}

	service.logger.InfoContext(ctx, "one-time token redeemed", slog.Uint64("user_id", uint64(token.UserID)))
	return token.User, nil
}

// issueToken stores a new token for userID, retrying once on a value
// collision.
func (service *AuthService) issueToken(ctx context.Context, userID uint) (models.OneTimeToken, error) {
	for attempt := 0; ; attempt++ {
		token, err := service.newToken()
		if err != nil {
			return models.OneTimeToken{}, err
		}
		token.UserID = userID

		err = service.tokens.Create(ctx, &token)
		if err == nil {
			return token, nil
		}
		if !errors.Is(err, db.ErrUniqueViolation) || attempt > 0 {
			return models.OneTimeToken{}, fmt.Errorf("create token: %w", err)
		}
	}
}

func (service *AuthService) newToken() (models.OneTimeToken, error) {
	value, err := security.GenerateOneTimeToken()
	if err != nil {
		return models.OneTimeToken{}, fmt.Errorf("generate token: %w", err)
	}
	return models.OneTimeToken{Token: value, ExpiresAt: service.now().Add(service.tokenTTL)}, nil
}

func (service *AuthService) issueSession(user models.User) (SessionResult, error) {
	accessToken, err := service.sessions.Issue(user.ID, user.Email, service.now())
	if err != nil {
		return SessionResult{}, fmt.Errorf("issue session: %w", err)
	}
	return SessionResult{AccessToken: accessToken}, nil
}

func (service *AuthService) notify(ctx context.Context, template string, user models.User, link string) error {
	var err error
	switch template {
	case templateInvitation:
		err = service.notifier.SendInvitation(ctx, user.Email, link)
	default:
		err = service.notifier.SendPasswordReset(ctx, user.Email, link)
	}
	service.recorder.RecordNotification(template, err == nil)
	if err != nil {
		service.logger.ErrorContext(ctx, "notification delivery failed",
			slog.String("template", template),
			slog.Uint64("user_id", uint64(user.ID)),
			slog.Any("error", err),
		)
		return fmt.Errorf("%w: %w", ErrNotificationFailed, err)
	}
	return nil
}

func (service *AuthService) link(path string, token string) string {
	return service.frontendURL + path + "?token=" + url.QueryEscape(token)
}

func (service *AuthService) record(operation string, err error) {
	outcome := "ok"
	if err != nil {
		outcome = string(Kind(err))
	}
	service.recorder.RecordOperation(operation, outcome)
}
