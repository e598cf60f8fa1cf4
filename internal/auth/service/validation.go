package service

import (
	"unicode"

	"github.com/bbp-platform/user-service/internal/common/constants"
)

// validateCredentials rejects a weak credential before it ever reaches the
// hasher. The upper bound matches what bcrypt will accept.
func validateCredentials(username, password string) error {
	if len(username) < constants.UsernameMinLength || len(username) > constants.UsernameMaxLength {
		return ErrUsernameLength
	}

	if len(password) < constants.PasswordMinLength {
		return ErrPasswordTooShort
	}
	if len(password) > constants.PasswordMaxLength {
		return ErrPasswordTooLong
	}

	hasUpper := false
	hasDigit := false
	for _, r := range password {
		if unicode.IsUpper(r) {
			hasUpper = true
		}
		if unicode.IsDigit(r) {
			hasDigit = true
		}
	}

	if !hasUpper {
		return ErrPasswordNoUppercase
	}
	if !hasDigit {
		return ErrPasswordNoDigit
	}

	return nil
}
