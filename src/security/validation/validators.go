package validation

import (
	"errors"
	"regexp"
	"strings"
)

const (
	minPasswordLength = 6
	maxPasswordLength = 72 // bcrypt input limit
)

var emailRegexp = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

// ValidateEmail checks the registration/login email for basic shape.
func ValidateEmail(email string) error {
	email = strings.TrimSpace(email)
	if email == "" {
		return errors.New("email is required")
	}
	if len(email) > 254 || !emailRegexp.MatchString(email) {
		return errors.New("invalid email address")
	}
	return nil
}

// ValidatePassword enforces the password length bounds.
func ValidatePassword(password string) error {
	if len(password) < minPasswordLength {
		return errors.New("password must be at least 6 characters long")
	}
	if len(password) > maxPasswordLength {
		return errors.New("password is too long")
	}
	return nil
}
