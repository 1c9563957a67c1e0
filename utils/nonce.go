package utils

import (
	"crypto/rand"
	"encoding/base64"
	"errors"

	"golang.org/x/crypto/bcrypt"
)

// GenerateNonce sinh chuỗi ngẫu nhiên 32 byte, base64 URL-safe (43 ký tự, dưới giới hạn 72 byte của bcrypt).
func GenerateNonce() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

func HashNonce(nonce string) (string, error) {
	if nonce == "" {
		return "", errors.New("empty nonce")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(nonce), bcrypt.DefaultCost)
	return string(hash), err
}

func VerifyNonce(hashed, nonce string) bool {
	if hashed == "" || nonce == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(hashed), []byte(nonce)) == nil
}
