package validator

import (
	"errors"
	"regexp"
	"strings"
)

var (
	// ErrEmptyEmail indicates the email address is empty
	ErrEmptyEmail = errors.New("email cannot be empty")

	// ErrInvalidEmail indicates the email address is malformed
	ErrInvalidEmail = errors.New("email address is not valid")

	// ErrPasswordTooShort indicates the password is below the minimum length
	ErrPasswordTooShort = errors.New("password must be at least 6 characters")
)

// MinPasswordLength is the minimum accepted password length
const MinPasswordLength = 6

// emailRegex is intentionally loose; the SMTP handshake is the real check
var emailRegex = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

// CredentialValidator validates signup/login credentials
type CredentialValidator struct{}

// NewCredentialValidator creates a new credential validator instance
func NewCredentialValidator() *CredentialValidator {
	return &CredentialValidator{}
}

// ValidateEmail validates and normalizes an email address.
// Returns the lowercased, trimmed address and an error if invalid.
func (v *CredentialValidator) ValidateEmail(email string) (string, error) {
	normalized := strings.ToLower(strings.TrimSpace(email))
	if normalized == "" {
		return "", ErrEmptyEmail
	}
	if !emailRegex.MatchString(normalized) {
		return "", ErrInvalidEmail
	}
	return normalized, nil
}

// ValidatePassword validates a password against the minimum policy
func (v *CredentialValidator) ValidatePassword(password string) error {
	if len(password) < MinPasswordLength {
		return ErrPasswordTooShort
	}
	return nil
}
