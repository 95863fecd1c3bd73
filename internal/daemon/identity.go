package daemon

import (
	"context"
	"io"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"github.com/tenantgate/tenantgate/internal/config"
	"github.com/tenantgate/tenantgate/internal/identity"
	"github.com/tenantgate/tenantgate/internal/identity/cache"
	"github.com/tenantgate/tenantgate/internal/identity/oidc"
	"github.com/tenantgate/tenantgate/internal/identity/stackauth"
)

const (
	providerStackAuth = "stackauth"
	providerOIDC      = "oidc"
)

// ErrUnknownIdentityProvider is returned for an Identity.Provider without implementation.
var ErrUnknownIdentityProvider = errors.New("unknown identity provider")

// identityProvider builds the configured provider, wrapped in the identity cache
// when enabled. The returned closer releases the cache storage and may be nil.
// Without a configured provider nil is returned, which is fine in OSS mode.
func identityProvider(ctx context.Context, cfg *config.Config) (identity.Provider, io.Closer, error) {
	var (
		idp identity.Provider
		err error
	)

	switch cfg.Identity.Provider {
	case "":
		return nil, nil, nil
	case providerStackAuth:
		idp, err = stackauth.New(cfg.Identity.StackAuth)
	case providerOIDC:
		idp, err = oidc.New(ctx, cfg.Identity.OIDC)
	default:
		return nil, nil, errors.Wrap(ErrUnknownIdentityProvider, cfg.Identity.Provider)
	}

	if err != nil {
		return nil, nil, errors.Wrapf(err, "failed to set up %s identity provider", cfg.Identity.Provider)
	}

	if !cfg.Identity.Cache.Enabled {
		return idp, nil, nil
	}

	storage, err := cache.NewStorage(cfg.Identity.Cache)
	if err != nil {
		return nil, nil, errors.Wrap(err, "failed to set up identity cache")
	}

	log.Info().Str("driver", cfg.Identity.Cache.Driver).Dur("ttl", cfg.Identity.Cache.TTL).
		Msg("identity cache enabled")

	return cache.New(idp, storage, cfg.Identity.Cache.TTL), storage, nil
}
