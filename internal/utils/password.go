package utils

import "golang.org/x/crypto/bcrypt" // bcrypt password hashing

// HashPassword derives a bcrypt hash of plain at the given cost. The cost
// comes from configuration so production can run a high cost while the
// test suite uses bcrypt.MinCost.
func HashPassword(plain string, cost int) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(plain), cost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// VerifyPassword reports whether plain matches the stored hash. Any
// failure, malformed hash included, reads as a mismatch.
func VerifyPassword(hash, plain string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain)) == nil
}
