package utils

import (
	"crypto/rand"
	"encoding/hex"
	"math/big"
)

const codeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

// GenerateCode returns a short human-friendly code (promo codes, invite
// codes). Ambiguous characters are excluded.
func GenerateCode(length int) string {
	code := make([]byte, length)
	for i := range code {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(len(codeAlphabet))))
		if err != nil {
			code[i] = codeAlphabet[0]
			continue
		}
		code[i] = codeAlphabet[n.Int64()]
	}
	return string(code)
}

// GenerateToken returns a hex token suitable for password reset links.
func GenerateToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
