package session

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const DefaultTTL = 24 * time.Hour

var ErrEmptySecret = errors.New("session secret must not be empty")

// FailureReason classifies why a presented credential did not authenticate.
type FailureReason int

const (
	FailureNone FailureReason = iota
	FailureMissing
	FailureMalformed
	FailureInvalid
	FailureExpired
)

func (reason FailureReason) String() string {
	switch reason {
	case FailureNone:
		return "none"
	case FailureMissing:
		return "missing"
	case FailureMalformed:
		return "malformed"
	case FailureInvalid:
		return "invalid"
	case FailureExpired:
		return "expired"
	default:
		return "unknown"
	}
}

// Identity is what a valid credential proves about its bearer.
type Identity struct {
	UserID uint
	Email  string
}

// Outcome is the result of Authenticate: either an Identity or a Failure.
type Outcome struct {
	Identity Identity
	Failure  FailureReason
}

func (outcome Outcome) OK() bool {
	return outcome.Failure == FailureNone
}

type claims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

type Issuer struct {
	secret []byte
	ttl    time.Duration
}

func NewIssuer(secret []byte, ttl time.Duration) (*Issuer, error) {
	if len(secret) == 0 {
		return nil, ErrEmptySecret
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Issuer{secret: secret, ttl: ttl}, nil
}

func (issuer *Issuer) TTL() time.Duration {
	return issuer.ttl
}

// Issue signs a credential for the user valid from now until now+TTL.
func (issuer *Issuer) Issue(userID uint, email string, now time.Time) (string, error) {
	if now.IsZero() {
		now = time.Now()
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{
		Email: email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatUint(uint64(userID), 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(issuer.ttl)),
		},
	})
	signed, err := token.SignedString(issuer.secret)
	if err != nil {
		return "", fmt.Errorf("sign session: %w", err)
	}
	return signed, nil
}

// Authenticate verifies raw against the issuer secret at the given instant.
// It performs no I/O.
func (issuer *Issuer) Authenticate(raw string, now time.Time) Outcome {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Outcome{Failure: FailureMissing}
	}
	if now.IsZero() {
		now = time.Now()
	}

	parsed := &claims{}
	_, err := jwt.ParseWithClaims(raw, parsed, func(token *jwt.Token) (any, error) {
		return issuer.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(func() time.Time { return now }),
	)
	switch {
	case err == nil:
	case errors.Is(err, jwt.ErrTokenMalformed):
		return Outcome{Failure: FailureMalformed}
	case errors.Is(err, jwt.ErrTokenExpired):
		return Outcome{Failure: FailureExpired}
	default:
		return Outcome{Failure: FailureInvalid}
	}

	userID, err := strconv.ParseUint(parsed.Subject, 10, 64)
	if err != nil || userID == 0 {
		return Outcome{Failure: FailureInvalid}
	}
	return Outcome{Identity: Identity{UserID: uint(userID), Email: parsed.Email}}
}

// BearerToken extracts the credential from an Authorization header value.
// The scheme is matched case-insensitively.
func BearerToken(header string) string {
	scheme, value, found := strings.Cut(strings.TrimSpace(header), " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(value)
}
