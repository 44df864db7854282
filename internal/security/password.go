package security

import (
	"errors"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// PasswordHashCost is the bcrypt work factor for stored password digests.
const PasswordHashCost = 10

var ErrPasswordTooLong = errors.New("password exceeds 72 bytes")

func HashPassword(plain string) (string, error) {
	digest, err := bcrypt.GenerateFromPassword([]byte(plain), PasswordHashCost)
	if err != nil {
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return "", ErrPasswordTooLong
		}
		return "", err
	}
	return string(digest), nil
}

// VerifyPassword reports whether plain matches digest. A blank or malformed
// digest never matches.
func VerifyPassword(plain string, digest string) bool {
	if strings.TrimSpace(digest) == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(digest), []byte(plain)) == nil
}
