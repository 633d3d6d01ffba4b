// Package auth handles the admin bearer key. Only its bcrypt hash is ever
// configured or stored.
package auth

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"net/http"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// KeyPrefix marks generated admin keys so they are recognisable in logs and
// config files.
const KeyPrefix = "bp_"

var ErrEmptyKey = errors.New("admin key is empty")

// NewKey returns a random admin key.
func NewKey() (string, error) {
	b := make([]byte, 24)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return KeyPrefix + hex.EncodeToString(b), nil
}

// HashKey returns the value to put in ADMIN_KEY_HASH for key.
func HashKey(key string) (string, error) {
	if strings.TrimSpace(key) == "" {
		return "", ErrEmptyKey
	}
	h, err := bcrypt.GenerateFromPassword([]byte(key), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(h), nil
}

// CheckKey reports whether key matches hash.
func CheckKey(hash, key string) bool {
	if hash == "" || key == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(key)) == nil
}

// BearerKey extracts the key from an "Authorization: Bearer" header.
func BearerKey(r *http.Request) (string, bool) {
	h := r.Header.Get("Authorization")
	if !strings.HasPrefix(h, "Bearer ") {
		return "", false
	}
	key := strings.TrimSpace(strings.TrimPrefix(h, "Bearer "))
	return key, key != ""
}
