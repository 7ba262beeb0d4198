// Package validation holds the rules for user-editable profile fields.
package validation

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"
)

const (
	MaxNameLength   = 100
	MaxBioLength    = 500
	MaxStatusLength = 100
)

var usernameRegex = regexp.MustCompile(`^[a-z0-9_]{3,30}$`)

// NormalizeUsername lowercases and trims a requested username.
func NormalizeUsername(username string) string {
	return strings.ToLower(strings.TrimSpace(username))
}

// ValidateUsername checks an already normalized username.
func ValidateUsername(username string) error {
	if !usernameRegex.MatchString(username) {
		return errors.New("username must be 3-30 lowercase letters, digits or underscores")
	}
	return nil
}

// ValidateName checks a trimmed display name.
func ValidateName(name string) error {
	if name == "" || utf8.RuneCountInString(name) > MaxNameLength {
		return fmt.Errorf("name must be between 1 and %d characters", MaxNameLength)
	}
	return nil
}

// ValidateBio allows an empty bio.
func ValidateBio(bio string) error {
	if utf8.RuneCountInString(bio) > MaxBioLength {
		return fmt.Errorf("bio too long (max %d characters)", MaxBioLength)
	}
	return nil
}

// ValidateStatus allows an empty status.
func ValidateStatus(status string) error {
	if utf8.RuneCountInString(status) > MaxStatusLength {
		return fmt.Errorf("status too long (max %d characters)", MaxStatusLength)
	}
	return nil
}

// ValidateDateOfBirth rejects dates after now.
func ValidateDateOfBirth(dob, now time.Time) error {
	if dob.After(now) {
		return errors.New("date of birth cannot be in the future")
	}
	return nil
}
