package credential

import (
	"context"
	"errors"
	"time"

	pkgerrors "github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/tenantgate/tenantgate/internal/apikey"
	"github.com/tenantgate/tenantgate/internal/db/models"
)

var (
	// ErrAPIKeyNotFound is returned when a key does not exist in the given organization.
	ErrAPIKeyNotFound = errors.New("api key not found")
	// ErrAPIKeyNameEmpty is returned when creating a key without a name.
	ErrAPIKeyNameEmpty = errors.New("api key name cannot be empty")
)

// ValidateAPIKey returns the usable key matching plaintext, or nil without error
// when no such key exists. A match updates the key's last_used_at.
func (s *Store) ValidateAPIKey(ctx context.Context, plaintext string) (*models.APIKey, error) {
	prefix, err := apikey.Prefix(plaintext)
	if err != nil {
		return nil, nil //nolint:nilnil // malformed keys are simply unknown
	}

	var candidates []models.APIKey

	db := s.db.WithContext(ctx)

	err = db.Where("key_prefix = ? AND is_active = ? AND archived_at IS NULL", prefix, true).
		Find(&candidates).Error
	if err != nil {
		return nil, pkgerrors.Wrap(err, "failed to load api key candidates")
	}

	now := s.now()

	for i := range candidates {
		key := &candidates[i]
		if !key.Usable(now) {
			continue
		}

		match, verr := apikey.Verify(plaintext, key.KeyHash)
		if verr != nil {
			log.Warn().Err(verr).Uint64("api_key_id", key.ID).Msg("stored api key hash is unreadable")
			continue
		}

		if !match {
			continue
		}

		if err = db.Model(key).UpdateColumn("last_used_at", now).Error; err != nil {
			return nil, pkgerrors.Wrap(err, "failed to touch api key")
		}

		key.LastUsedAt = &now

		return key, nil
	}

	return nil, nil //nolint:nilnil // no usable key
}

// CreateAPIKey stores a new key for the organization and returns it with its plaintext.
// A zero ttl creates a key without expiry.
func (s *Store) CreateAPIKey(
	ctx context.Context,
	orgID uint64,
	createdBy *uint64,
	name string,
	ttl time.Duration,
) (*models.APIKey, string, error) {
	if name == "" {
		return nil, "", ErrAPIKeyNameEmpty
	}

	key, err := apikey.Generate()
	if err != nil {
		return nil, "", err //nolint:wrapcheck
	}

	record := models.APIKey{
		OrganizationID: orgID,
		CreatedBy:      createdBy,
		Name:           name,
		KeyHash:        key.Hash,
		KeyPrefix:      key.Prefix,
		IsActive:       true,
	}

	if ttl > 0 {
		expires := s.now().Add(ttl)
		record.ExpiresAt = &expires
	}

	if err = s.db.WithContext(ctx).Create(&record).Error; err != nil {
		return nil, "", pkgerrors.Wrap(err, "failed to create api key")
	}

	return &record, key.Plaintext, nil
}

// ListAPIKeys returns the keys of the organization, newest first.
func (s *Store) ListAPIKeys(ctx context.Context, orgID uint64, includeArchived bool) ([]models.APIKey, error) {
	var keys []models.APIKey

	q := s.db.WithContext(ctx).Where("organization_id = ?", orgID)
	if !includeArchived {
		q = q.Where("archived_at IS NULL")
	}

	if err := q.Order("created_at DESC, id DESC").Find(&keys).Error; err != nil {
		return nil, pkgerrors.Wrap(err, "failed to list api keys")
	}

	return keys, nil
}

// ArchiveAPIKey deactivates the key. Archived keys no longer authenticate.
func (s *Store) ArchiveAPIKey(ctx context.Context, orgID, keyID uint64) (*models.APIKey, error) {
	now := s.now()

	return s.updateAPIKey(ctx, orgID, keyID, map[string]any{
		"is_active":   false,
		"archived_at": &now,
	})
}

// ReactivateAPIKey reverts ArchiveAPIKey.
func (s *Store) ReactivateAPIKey(ctx context.Context, orgID, keyID uint64) (*models.APIKey, error) {
	return s.updateAPIKey(ctx, orgID, keyID, map[string]any{
		"is_active":   true,
		"archived_at": nil,
	})
}

func (s *Store) updateAPIKey(ctx context.Context, orgID, keyID uint64, values map[string]any) (*models.APIKey, error) {
	var key models.APIKey

	db := s.db.WithContext(ctx)

	err := db.Where("id = ? AND organization_id = ?", keyID, orgID).First(&key).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAPIKeyNotFound
		}

		return nil, pkgerrors.Wrap(err, "failed to load api key")
	}

	if err = db.Model(&key).Updates(values).Error; err != nil {
		return nil, pkgerrors.Wrap(err, "failed to update api key")
	}

	if err = db.First(&key, key.ID).Error; err != nil {
		return nil, pkgerrors.Wrap(err, "failed to reload api key")
	}

	return &key, nil
}
