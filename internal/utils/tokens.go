package utils

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
)

const sessionIDBytes = 18

// NewSessionID returns a URL-safe random id used as the JWT "jti" and the session key.
func NewSessionID() (string, error) {
	b := make([]byte, sessionIDBytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("session id: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
