// Package cache wraps an identity.Provider with a fiber.Storage backed cache of
// accepted identities. Rejections are never cached, so a freshly issued token
// is usable immediately.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/tenantgate/tenantgate/internal/identity"
)

const keyPrefix = "identity:"

// Provider caches the results of the wrapped provider.
type Provider struct {
	next    identity.Provider
	storage fiber.Storage
	ttl     time.Duration
}

var _ identity.Provider = (*Provider)(nil)

// New wraps next. Entries expire after ttl.
func New(next identity.Provider, storage fiber.Storage, ttl time.Duration) *Provider {
	return &Provider{next: next, storage: storage, ttl: ttl}
}

// Key derives the storage key for a bearer; the token itself is never stored.
func Key(authorization string) string {
	sum := sha256.Sum256([]byte(identity.BearerToken(authorization)))

	return keyPrefix + hex.EncodeToString(sum[:])
}

// GetUser returns the cached identity or asks the wrapped provider.
// Storage failures fall through to the wrapped provider.
func (p *Provider) GetUser(ctx context.Context, authorization string) (*identity.Identity, error) {
	key := Key(authorization)

	if raw, err := p.storage.Get(key); err != nil {
		log.Warn().Err(err).Msg("identity cache read failed")
	} else if len(raw) > 0 {
		var cached identity.Identity
		if err = json.Unmarshal(raw, &cached); err == nil && cached.ID != "" {
			return &cached, nil
		}

		log.Warn().Err(err).Msg("dropping unreadable identity cache entry")
	}

	user, err := p.next.GetUser(ctx, authorization)
	if err != nil || user == nil {
		return user, err
	}

	raw, err := json.Marshal(user)
	if err != nil {
		return user, nil //nolint:nilerr // caching is best effort
	}

	if err = p.storage.Set(key, raw, p.ttl); err != nil {
		log.Warn().Err(err).Msg("identity cache write failed")
	}

	return user, nil
}
