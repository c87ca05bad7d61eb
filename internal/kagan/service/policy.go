package service

import (
	"unicode/utf8"

	"github.com/aussiebroadwan/kagan/pkg/cryptox"
)

// DefaultMinPasswordLength matches the settings screen of the desktop client.
const DefaultMinPasswordLength = 6

// PasswordPolicy is enforced on every path that stores a new password.
type PasswordPolicy struct {
	MinLength int // in characters
	MaxBytes  int // bcrypt ignores anything past 72 bytes
}

func DefaultPasswordPolicy() PasswordPolicy {
	return PasswordPolicy{
		MinLength: DefaultMinPasswordLength,
		MaxBytes:  cryptox.MaxBcryptInput,
	}
}

// Check returns a validation *Error when password violates the policy.
func (p PasswordPolicy) Check(password string) error {
	if utf8.RuneCountInString(password) < max(p.MinLength, 1) {
		return ErrPasswordTooShort.withMessage(max(p.MinLength, 1))
	}
	if p.MaxBytes > 0 && len(password) > p.MaxBytes {
		return ErrPasswordTooLong.withMessage(p.MaxBytes)
	}
	return nil
}
