package utils

import "golang.org/x/crypto/bcrypt"

// HashPassword hashes an operator password at the default bcrypt cost.
// The stored hash carries its own salt and cost.
func HashPassword(plain string) ([]byte, error) {
	return bcrypt.GenerateFromPassword([]byte(plain), bcrypt.DefaultCost)
}

// ComparePassword returns nil when plain matches the stored hash.
func ComparePassword(hashed string, plain string) error {
	return bcrypt.CompareHashAndPassword([]byte(hashed), []byte(plain))
}
