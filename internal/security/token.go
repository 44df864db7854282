package security

import (
	"crypto/rand"
	"encoding/hex"
	"regexp"
)

// OneTimeTokenBytes is the amount of entropy behind every invitation and
// reset token. Encoded as hex it yields 64 characters.
const OneTimeTokenBytes = 32

var oneTimeTokenFormat = regexp.MustCompile(`^[0-9a-fA-F]{64}$`)

// GenerateOneTimeToken returns a fresh lowercase hex token.
func GenerateOneTimeToken() (string, error) {
	raw := make([]byte, OneTimeTokenBytes)
	if _, err := rand.Read(raw); err != nil {
		return "", err
	}
	return hex.EncodeToString(raw), nil
}

// LooksLikeOneTimeToken reports whether value has the shape of a generated
// token. Hex case is ignored.
func LooksLikeOneTimeToken(value string) bool {
	return oneTimeTokenFormat.MatchString(value)
}
