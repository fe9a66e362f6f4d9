package secrets

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	dErrors "orfin/pkg/domain-errors"
)

// Hash creates a bcrypt hash of the provided secret. Only the hash is ever
// stored; the cleartext never leaves the registration path.
func Hash(secret string) (string, error) {
	if secret == "" {
		return "", dErrors.NewField(dErrors.CodeValidation, "password", "password cannot be empty")
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(secret), bcrypt.DefaultCost)
	if err != nil {
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return "", dErrors.NewField(dErrors.CodeValidation, "password", "password is too long")
		}
		return "", fmt.Errorf("could not hash secret: %w", err)
	}
	return string(hashed), nil
}

// Verify checks if a plaintext secret matches a bcrypt hash.
func Verify(secret, hash string) error {
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(secret)); err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return dErrors.New(dErrors.CodeUnauthorized, "invalid credentials")
		}
		return fmt.Errorf("could not verify secret: %w", err)
	}
	return nil
}
