package auth

import (
	"crypto/rand"
	"encoding/base64"
)

// GenerateOneTimeToken returns a random Base64URL token (32 bytes), used for
// activation and password-reset links
func GenerateOneTimeToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
