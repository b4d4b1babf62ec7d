package utils

import (
	"crypto/rand"
	"encoding/hex"

	"github.com/google/uuid"
	gonanoid "github.com/matoous/go-nanoid/v2"
)

// ShortCodeAlphabet is the URL-safe alphabet short codes are drawn from.
const ShortCodeAlphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz_-"

// GenerateShortCode returns a random code of the given length using a
// cryptographically secure source.
func GenerateShortCode(length int) (string, error) {
	return gonanoid.Generate(ShortCodeAlphabet, length)
}

// GenerateToken returns n random bytes encoded as hex.
func GenerateToken(n int) (string, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

// GenerateRequestID generates a UUID string used to correlate log lines
func GenerateRequestID() string {
	return uuid.NewString()
}
