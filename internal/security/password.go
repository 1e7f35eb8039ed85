package security

import (
	"errors"

	"golang.org/x/crypto/bcrypt"
)

// bcryptCost is the work factor used for all password hashes.
const bcryptCost = 12

// ErrInvalidHashFormat is returned when a stored hash is not a
// recognized bcrypt encoding.
var ErrInvalidHashFormat = errors.New("invalid password hash format")

// HashPassword hashes a plain text password with bcrypt. The result is
// salted, so hashing the same password twice yields different strings.
func HashPassword(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

// VerifyPassword compares a plain text password against a stored bcrypt
// hash. A wrong password returns (false, nil); a malformed hash returns
// ErrInvalidHashFormat.
func VerifyPassword(password, hash string) (bool, error) {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	if err == nil {
		return true, nil
	}
	if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		return false, nil
	}
	return false, ErrInvalidHashFormat
}
