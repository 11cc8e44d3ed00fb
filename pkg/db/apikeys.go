package db

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
)

// ErrAPIKeyNotFound is returned for unknown and revoked keys
var ErrAPIKeyNotFound = errors.New("api key not found")

// CreateAPIKey stores a new key
func CreateAPIKey(key *APIKey) error {
	if DB == nil {
		return errNotInitialized
	}
	return DB.Create(key).Error
}

// GetAPIKeyByKeyID returns a key by its public identifier, revoked or not
func GetAPIKeyByKeyID(keyID string) (*APIKey, error) {
	if DB == nil {
		return nil, errNotInitialized
	}

	var key APIKey
	err := DB.Where("key_id = ?", keyID).First(&key).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrAPIKeyNotFound
	}
	if err != nil {
		return nil, err
	}
	return &key, nil
}

// GetAPIKeyByKeyHash returns the unrevoked key with the given SHA256 hash
func GetAPIKeyByKeyHash(keyHash string) (*APIKey, error) {
	if DB == nil {
		return nil, errNotInitialized
	}

	var key APIKey
	err := DB.Where("key_hash = ? AND revoked_at IS NULL", keyHash).First(&key).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrAPIKeyNotFound
	}
	if err != nil {
		return nil, err
	}
	return &key, nil
}

// ListAPIKeys returns keys oldest first. Revoked keys are only included
// when asked for.
func ListAPIKeys(includeRevoked bool) ([]APIKey, error) {
	if DB == nil {
		return nil, errNotInitialized
	}

	query := DB.Model(&APIKey{})
	if !includeRevoked {
		query = query.Where("revoked_at IS NULL")
	}

	var keys []APIKey
	if err := query.Order("id ASC").Find(&keys).Error; err != nil {
		return nil, err
	}
	return keys, nil
}

// RevokeAPIKey marks a key revoked. Revoking twice is an error.
func RevokeAPIKey(keyID string) (*APIKey, error) {
	if DB == nil {
		return nil, errNotInitialized
	}

	now := time.Now()
	res := DB.Model(&APIKey{}).
		Where("key_id = ? AND revoked_at IS NULL", keyID).
		Update("revoked_at", now)
	if res.Error != nil {
		return nil, fmt.Errorf("failed to revoke api key: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, ErrAPIKeyNotFound
	}
	return GetAPIKeyByKeyID(keyID)
}

// UpdateAPIKeyLastUsed records when a key last authenticated a request
func UpdateAPIKeyLastUsed(id uint) error {
	if DB == nil {
		return errNotInitialized
	}
	return DB.Model(&APIKey{}).Where("id = ?", id).Update("last_used_at", time.Now()).Error
}
