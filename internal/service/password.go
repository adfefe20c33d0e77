package service

import (
	"errors"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// bcrypt reads at most 72 bytes of input.
const maxPasswordBytes = 72

// ErrPasswordTooLong the password exceeds what bcrypt can hash. The limit is
// in bytes, so accented characters count double.
var ErrPasswordTooLong = errors.New("password longer than 72 bytes")

func validatePassword(plain string) error {
	if len(plain) > maxPasswordBytes {
		return ErrPasswordTooLong
	}
	return nil
}

func hashPassword(plain string) (string, error) {
	if err := validatePassword(plain); err != nil {
		return "", err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(plain), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

func checkPassword(hash, plain string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain)) == nil
}

// normalize trims and lowercases a roster field for comparison.
func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
