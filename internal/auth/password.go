package auth

import "golang.org/x/crypto/bcrypt"

// DefaultBcryptCost is the work factor for password hashing. Each call salts
// independently, so equal passwords never produce equal hashes.
const DefaultBcryptCost = 10

func HashPassword(plaintext string, cost int) (string, error) {
	if cost <= 0 {
		cost = DefaultBcryptCost
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(plaintext), cost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// CheckPassword reports whether plaintext matches hash. The comparison inside
// bcrypt does not leak where a mismatch occurs.
func CheckPassword(plaintext, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plaintext)) == nil
}
