package auth

import (
	"unicode"
	"unicode/utf8"

	"golang.org/x/crypto/bcrypt"

	apperrors "bookstack/internal/errors"
)

const bcryptCost = 10

// HashPassword hashes a plaintext password with bcrypt. The per-call salt is
// embedded in the resulting digest.
func HashPassword(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

// CheckPassword reports whether the plaintext matches the stored digest.
func CheckPassword(password, digest string) bool {
	return bcrypt.CompareHashAndPassword([]byte(digest), []byte(password)) == nil
}

// ValidatePassword enforces the acceptance policy before any hashing:
// minimum length 8, at least one uppercase letter, at least one digit.
func ValidatePassword(password string) error {
	if utf8.RuneCountInString(password) < 8 {
		return apperrors.ErrWeakPassword
	}
	var hasUpper, hasDigit bool
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsDigit(r):
			hasDigit = true
		}
	}
	if !hasUpper || !hasDigit {
		return apperrors.ErrWeakPassword
	}
	return nil
}
