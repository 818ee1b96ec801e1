package utils

import (
	"crypto/rand"
	"math/big"
)

const userCodeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"

// Lengths of generated user codes
const (
	SignupUserCodeLength = 12
	AdminUserCodeLength  = 13
)

// GenerateUserCode returns a random alphanumeric code of length n
func GenerateUserCode(n int) (string, error) {
	max := big.NewInt(int64(len(userCodeAlphabet)))
	code := make([]byte, n)
	for i := range code {
		idx, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		code[i] = userCodeAlphabet[idx.Int64()]
	}
	return string(code), nil
}
