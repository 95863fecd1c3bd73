// Package oidc validates bearer tokens issued by an OpenID Connect provider.
//
// The bearer is first verified as ID token. With UserInfoFallback enabled a
// bearer that does not verify is treated as access token and resolved through
// the provider's userinfo endpoint.
package oidc

import (
	"context"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"golang.org/x/oauth2"

	"github.com/tenantgate/tenantgate/internal/config"
	"github.com/tenantgate/tenantgate/internal/identity"
)

const (
	defaultTeamClaim       = "selected_team_id"
	defaultTeamObjectClaim = "selected_team"
)

// ErrProviderURLRequired is returned by New without a provider url.
var ErrProviderURLRequired = errors.New("oidc provider url is required")

// userInfoSource is the part of *oidc.Provider used for the userinfo fallback.
type userInfoSource interface {
	UserInfo(ctx context.Context, tokenSource oauth2.TokenSource) (*oidc.UserInfo, error)
}

// Provider implements identity.Provider.
type Provider struct {
	cfg      config.OIDC
	verifier *oidc.IDTokenVerifier
	userInfo userInfoSource
}

var _ identity.Provider = (*Provider)(nil)

// New discovers the provider configuration and creates the verifier.
func New(ctx context.Context, cfg config.OIDC) (*Provider, error) {
	if cfg.ProviderURL == "" {
		return nil, ErrProviderURLRequired
	}

	provider, err := oidc.NewProvider(ctx, cfg.ProviderURL)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create OIDC provider")
	}

	return NewWithVerifier(cfg, provider.Verifier(&oidc.Config{ClientID: cfg.ClientID}), provider), nil
}

// NewWithVerifier creates a Provider from an existing verifier. userInfo may be nil.
func NewWithVerifier(cfg config.OIDC, verifier *oidc.IDTokenVerifier, userInfo userInfoSource) *Provider {
	if cfg.TeamClaim == "" {
		cfg.TeamClaim = defaultTeamClaim
	}

	if cfg.TeamObjectClaim == "" {
		cfg.TeamObjectClaim = defaultTeamObjectClaim
	}

	return &Provider{cfg: cfg, verifier: verifier, userInfo: userInfo}
}

// GetUser verifies the bearer and maps its claims to an identity.
func (p *Provider) GetUser(ctx context.Context, authorization string) (*identity.Identity, error) {
	raw := identity.BearerToken(authorization)
	if raw == "" {
		return nil, nil //nolint:nilnil // no credential
	}

	claims := map[string]any{}

	idToken, err := p.verifier.Verify(ctx, raw)
	if err == nil {
		if err = idToken.Claims(&claims); err != nil {
			return nil, errors.Wrap(err, "failed to parse id token claims")
		}

		return p.identityFromClaims(claims), nil
	}

	if !p.cfg.UserInfoFallback || p.userInfo == nil {
		log.Debug().Err(err).Msg("bearer is not a valid id token")

		return nil, nil //nolint:nilnil // token not accepted
	}

	info, uerr := p.userInfo.UserInfo(ctx, oauth2.StaticTokenSource(&oauth2.Token{AccessToken: raw}))
	if uerr != nil {
		log.Debug().Err(uerr).Msg("userinfo rejected bearer")

		return nil, nil //nolint:nilnil // token not accepted
	}

	if err = info.Claims(&claims); err != nil {
		return nil, errors.Wrap(err, "failed to parse userinfo claims")
	}

	return p.identityFromClaims(claims), nil
}

func (p *Provider) identityFromClaims(claims map[string]any) *identity.Identity {
	sub, _ := claims["sub"].(string)
	if sub == "" {
		return nil
	}

	id := &identity.Identity{ID: sub}
	id.SelectedTeamID, _ = claims[p.cfg.TeamClaim].(string)

	if obj, ok := claims[p.cfg.TeamObjectClaim].(map[string]any); ok {
		if teamID, _ := obj["id"].(string); teamID != "" {
			id.SelectedTeam = &identity.Team{ID: teamID}
		}
	}

	return id
}
