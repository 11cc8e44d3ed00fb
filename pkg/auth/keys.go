// Package auth issues and checks the API keys that guard the HTTP API.
package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/thesabbir/phpmanager/pkg/db"
)

// KeyPrefix starts every generated key
const KeyPrefix = "pm_"

// BcryptCost is the cost factor for bcrypt hashing. Tests lower it.
var BcryptCost = 12

var (
	// ErrInvalidKey is returned for unknown, revoked and mismatching keys
	ErrInvalidKey = errors.New("invalid API key")

	// ErrExpiredKey is returned for keys past their expiry
	ErrExpiredKey = errors.New("API key expired")
)

// HashKey hashes a key using bcrypt
func HashKey(key string) (string, error) {
	if len(key) == 0 {
		return "", fmt.Errorf("key cannot be empty")
	}
	if len(key) > 72 {
		return "", fmt.Errorf("key too long (max 72 characters)")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(key), BcryptCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash key: %w", err)
	}
	return string(hash), nil
}

// VerifyKey compares a key with its bcrypt hash
func VerifyKey(key, hash string) error {
	if len(key) == 0 || len(hash) == 0 {
		return ErrInvalidKey
	}

	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(key))
	if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		return ErrInvalidKey
	}
	if err != nil {
		return fmt.Errorf("failed to verify key: %w", err)
	}
	return nil
}

func lookupHash(key string) string {
	sum := sha256.Sum256([]byte(key))
	return hex.EncodeToString(sum[:])
}

func randomHex(n int) (string, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

// CreateOptions describes a new key
type CreateOptions struct {
	Name     string
	ReadOnly bool

	// TTL of zero never expires
	TTL time.Duration
}

// CreateKey stores a new key and returns it with its plaintext value. The
// value is not stored and cannot be shown again.
func CreateKey(opts CreateOptions) (*db.APIKey, string, error) {
	name := strings.TrimSpace(opts.Name)
	if name == "" || len(name) > 64 {
		return nil, "", fmt.Errorf("key name must be 1-64 characters")
	}

	secret, err := randomHex(32)
	if err != nil {
		return nil, "", fmt.Errorf("failed to generate API key: %w", err)
	}
	value := KeyPrefix + secret

	id, err := randomHex(8)
	if err != nil {
		return nil, "", fmt.Errorf("failed to generate key ID: %w", err)
	}

	hash, err := HashKey(value)
	if err != nil {
		return nil, "", err
	}

	key := &db.APIKey{
		KeyID:    "key_" + id,
		Name:     name,
		Key:      hash,
		KeyHash:  lookupHash(value),
		ReadOnly: opts.ReadOnly,
	}
	if opts.TTL > 0 {
		expires := time.Now().Add(opts.TTL)
		key.ExpiresAt = &expires
	}

	if err := db.CreateAPIKey(key); err != nil {
		return nil, "", fmt.Errorf("failed to store API key: %w", err)
	}
	return key, value, nil
}

// Authenticate returns the key matching value
func Authenticate(value string) (*db.APIKey, error) {
	if !strings.HasPrefix(value, KeyPrefix) {
		return nil, ErrInvalidKey
	}

	key, err := db.GetAPIKeyByKeyHash(lookupHash(value))
	if errors.Is(err, db.ErrAPIKeyNotFound) {
		return nil, ErrInvalidKey
	}
	if err != nil {
		return nil, err
	}

	// bcrypt guards against a leaked lookup hash
	if err := VerifyKey(value, key.Key); err != nil {
		return nil, err
	}
	if key.IsExpired() {
		return nil, ErrExpiredKey
	}
	return key, nil
}
