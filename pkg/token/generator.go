// Package token generates session tokens.
package token

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
)

// DefaultLength is the default token length in bytes.
const DefaultLength = 32

// MinLength is the smallest accepted length (128 bits).
const MinLength = 16

// ErrTooShort is returned when a caller asks for less than MinLength bytes.
var ErrTooShort = errors.New("token: length below 128 bits")

// Generate generates a cryptographically secure random token.
func Generate() (string, error) {
	return GenerateWithLength(DefaultLength)
}

// GenerateWithLength generates a token with the specified byte length.
func GenerateWithLength(length int) (string, error) {
	if length < MinLength {
		return "", ErrTooShort
	}
	b := make([]byte, length)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// EncodedLen returns the length of a token generated from length bytes.
func EncodedLen(length int) int {
	return base64.RawURLEncoding.EncodedLen(length)
}
