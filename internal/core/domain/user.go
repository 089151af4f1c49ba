package domain

import (
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"
)

// Credential constraints.
const (
	MinPasswordLength = 8
	MaxPasswordLength = 40

	// PasswordSpecialChars lists the characters that satisfy the
	// "special character" password rule.
	PasswordSpecialChars = `!@#$%^&*(),.?":{}|<>`
)

var (
	usernamePattern = regexp.MustCompile(`^[a-zA-Z0-9._-]{4,25}$`)
	emailPattern    = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,50}$`)
)

// UserID identifies a registered user. IDs are allocated from a persistent
// sequence and start at 1.
type UserID int64

// String returns the decimal form of the id.
func (id UserID) String() string {
	return strconv.FormatInt(int64(id), 10)
}

// ParseUserID parses a decimal user id. Zero and negative values are invalid.
func ParseUserID(s string) (UserID, error) {
	n, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil || n <= 0 {
		return 0, ErrInvalidInput.WithDetails("invalid user id")
	}
	return UserID(n), nil
}

// User is a registered account. The password hash never appears in JSON.
type User struct {
	ID           UserID `json:"id"`
	Username     string `json:"username"`
	Email        string `json:"email"`
	PasswordHash []byte `json:"-" yaml:"-"`
}

// ValidateUsername checks 4-25 characters of letters, digits, '.', '_' or '-'.
func ValidateUsername(username string) error {
	if !usernamePattern.MatchString(username) {
		return ErrInvalidInput.WithDetails("invalid username")
	}
	return nil
}

// ValidateEmail checks a basic local@domain.tld shape.
func ValidateEmail(email string) error {
	if !emailPattern.MatchString(email) {
		return ErrInvalidInput.WithDetails("invalid email")
	}
	return nil
}

// ValidatePassword checks length and character classes: at least one
// uppercase letter, one lowercase letter, one digit and one character from
// PasswordSpecialChars.
func ValidatePassword(password string) error {
	n := utf8.RuneCountInString(password)
	if n < MinPasswordLength || n > MaxPasswordLength {
		return ErrInvalidInput.WithDetails("invalid password length")
	}

	var upper, lower, digit, special bool
	for _, r := range password {
		switch {
		case r >= 'A' && r <= 'Z':
			upper = true
		case r >= 'a' && r <= 'z':
			lower = true
		case r >= '0' && r <= '9':
			digit = true
		case strings.ContainsRune(PasswordSpecialChars, r):
			special = true
		}
	}
	if !upper || !lower || !digit || !special {
		return ErrInvalidInput.WithDetails("password does not meet complexity requirements")
	}
	return nil
}
