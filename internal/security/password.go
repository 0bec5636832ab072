package security

import (
	"crypto/rand"
	"fmt"
	"math/big"

	"golang.org/x/crypto/bcrypt"
)

// HashPassword returns a bcrypt hash of the password.
func HashPassword(password string) (string, error) {
	hash, errHash := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if errHash != nil {
		return "", fmt.Errorf("security: hash password: %w", errHash)
	}
	return string(hash), nil
}

// CheckPassword reports whether password matches the stored bcrypt hash.
func CheckPassword(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// passwordAlphabet covers the characters used for generated passwords.
const passwordAlphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789!#$%&*+-=?@_"

// RandomPassword generates a random password of the given length. Used when
// an account is created without an explicit password.
func RandomPassword(length int) (string, error) {
	if length <= 0 {
		return "", fmt.Errorf("security: invalid password length: %d", length)
	}
	out := make([]byte, length)
	max := big.NewInt(int64(len(passwordAlphabet)))
	for i := range out {
		n, errRand := rand.Int(rand.Reader, max)
		if errRand != nil {
			return "", fmt.Errorf("security: random password: %w", errRand)
		}
		out[i] = passwordAlphabet[n.Int64()]
	}
	return string(out), nil
}
