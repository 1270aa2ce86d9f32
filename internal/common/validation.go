package common

import (
	"regexp"
	"strings"
)

var usernameRegex = regexp.MustCompile(`^[\p{L}\p{N}_\s.\-]{2,30}$`)

// ValidateUsername enforces the account name rules: 2-30 letters, digits, spaces, dots or dashes.
func ValidateUsername(username string) error {
	username = strings.TrimSpace(username)
	if username == "" {
		return Invalid("missing_fields", "username and password are required")
	}
	if len([]rune(username)) < 2 {
		return Invalid("username_too_short", "username is too short")
	}
	if !usernameRegex.MatchString(username) {
		return Invalid("username_invalid", "username may only contain letters, numbers, spaces and dots")
	}
	return nil
}

func ValidatePassword(password string) error {
	if password == "" {
		return Invalid("missing_fields", "username and password are required")
	}
	if len(password) < 6 {
		return Invalid("password_too_short", "password must be at least 6 characters long")
	}
	if len(password) > 72 {
		return Invalid("password_too_long", "password is too long")
	}
	return nil
}
