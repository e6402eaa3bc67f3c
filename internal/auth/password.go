package auth

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// passwordHashCost is the bcrypt work factor for stored credentials.
const passwordHashCost = 10

// HashPassword derives the bcrypt hash stored for a plaintext password.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), passwordHashCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

// ComparePassword checks a plaintext password against its stored hash.
func ComparePassword(hashedPassword, password string) error {
	return bcrypt.CompareHashAndPassword([]byte(hashedPassword), []byte(password))
}
