package utils

import (
	"errors"

	"golang.org/x/crypto/bcrypt"
)

// BcryptCost is the work factor for password and device key hashes. Tests lower it.
var BcryptCost = 12

// HashPassword hashes a secret with bcrypt
func HashPassword(password string) (string, error) {
	if len(password) > 72 {
		return "", errors.New("password is longer than 72 bytes")
	}
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), BcryptCost)
	return string(bytes), err
}

// ComparePassword reports whether password matches the bcrypt hash
func ComparePassword(hashedPassword, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hashedPassword), []byte(password)) == nil
}
