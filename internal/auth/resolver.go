package auth

import (
	"context"
	"errors"

	"github.com/rs/zerolog/log"

	"github.com/tenantgate/tenantgate/internal/db/models"
	"github.com/tenantgate/tenantgate/internal/identity"
)

const (
	detailInvalidAPIKey      = "Invalid or expired API key"
	detailAPIKeyWithoutUser  = "API key has no associated user"
	detailAPIKeyOwnerMissing = "API key owner not found"
	detailHeaderRequired     = "Authorization header required"
	detailInvalidToken       = "Invalid authorization token"
	detailUnauthorized       = "Unauthorized"
	detailNoTeam             = "No team selected"
	detailNotSuperuser       = "Access denied. Superuser privileges required."

	prefixAPIKeyFailure  = "Error while validating API key"
	prefixOSSFailure     = "Error while handling OSS authentication"
	prefixUserFailure    = "Error while creating user from database"
	prefixBindingFailure = "Failed to map user to organization"

	ossOrgPrefix = "org_"
)

// Resolver turns Credentials into a user bound to an organization.
type Resolver struct {
	store  Store
	idp    identity.Provider
	binder *TenantBinder
	mode   DeploymentMode
}

// NewResolver creates a Resolver. idp is only used in hosted mode and may be nil otherwise.
func NewResolver(store Store, idp identity.Provider, binder *TenantBinder, mode DeploymentMode) *Resolver {
	return &Resolver{store: store, idp: idp, binder: binder, mode: mode}
}

// Mode returns the configured deployment mode.
func (r *Resolver) Mode() DeploymentMode {
	return r.mode
}

// Resolve authenticates creds. An API key wins over the Authorization value.
func (r *Resolver) Resolve(ctx context.Context, creds Credentials) (*models.User, error) {
	if creds.APIKey != "" {
		user, err := r.resolveAPIKey(ctx, creds.APIKey)
		observeResolution(pathAPIKey, err)

		return user, err
	}

	mode := creds.Mode
	if mode == "" {
		mode = r.mode
	}

	if mode == ModeOSS {
		user, err := r.resolveSelfIssued(ctx, creds.Authorization)
		observeResolution(pathOSS, err)

		return user, err
	}

	user, err := r.resolveProviderToken(ctx, creds.Authorization)
	observeResolution(pathProvider, err)

	return user, err
}

// resolveAPIKey returns the key's owner acting in the key's organization.
// Nothing but the key's last use is written.
func (r *Resolver) resolveAPIKey(ctx context.Context, key string) (*models.User, error) {
	apiKey, err := r.store.ValidateAPIKey(ctx, key)
	if err != nil {
		return nil, Internal(prefixAPIKeyFailure, err)
	}

	if apiKey == nil {
		return nil, Unauthenticated(detailInvalidAPIKey)
	}

	if apiKey.CreatedBy == nil {
		return nil, Unauthenticated(detailAPIKeyWithoutUser)
	}

	user, err := r.store.GetUserByID(ctx, *apiKey.CreatedBy)
	if err != nil {
		return nil, Internal(prefixAPIKeyFailure, err)
	}

	if user == nil {
		return nil, Unauthenticated(detailAPIKeyOwnerMissing)
	}

	user.SelectOrganization(apiKey.OrganizationID)

	log.Debug().Str("key_prefix", apiKey.KeyPrefix).Uint64("user_id", user.ID).
		Uint64("organization_id", apiKey.OrganizationID).Msg("authenticated via api key")

	return user, nil
}

// resolveSelfIssued uses the bearer token as the user's provider id and derives
// the organization from it.
func (r *Resolver) resolveSelfIssued(ctx context.Context, authorization string) (*models.User, error) {
	if authorization == "" {
		return nil, Unauthenticated(detailHeaderRequired)
	}

	token := identity.BearerToken(authorization)
	if token == "" {
		return nil, Unauthenticated(detailInvalidToken)
	}

	user, err := r.store.GetOrCreateUserByProviderID(ctx, token)
	if err != nil {
		return nil, Internal(prefixOSSFailure, err)
	}

	if err = r.binder.Bind(ctx, user, ossOrgPrefix+token, token); err != nil {
		return nil, Internal(prefixOSSFailure, err)
	}

	return user, nil
}

// resolveProviderToken validates the bearer with the identity provider and binds
// the user to the provider's selected team.
func (r *Resolver) resolveProviderToken(ctx context.Context, authorization string) (*models.User, error) {
	if r.idp == nil {
		log.Error().Msg("no identity provider configured for hosted mode")

		return nil, Unauthenticated(detailUnauthorized)
	}

	ident, err := r.idp.GetUser(ctx, authorization)
	if err != nil {
		if !errors.Is(err, context.Canceled) {
			log.Warn().Err(err).Msg("identity provider lookup failed")
		}

		ident = nil
	}

	if ident == nil {
		return nil, Unauthenticated(detailUnauthorized)
	}

	teamID := ident.TeamID()
	if teamID == "" {
		return nil, BadRequest(detailNoTeam)
	}

	user, err := r.store.GetOrCreateUserByProviderID(ctx, ident.ID)
	if err != nil {
		return nil, Internal(prefixUserFailure, err)
	}

	if err = r.binder.Bind(ctx, user, teamID, ident.ID); err != nil {
		return nil, Internal(prefixBindingFailure, err)
	}

	return user, nil
}

// ResolveSuperuser resolves creds and requires the superuser flag.
func (r *Resolver) ResolveSuperuser(ctx context.Context, creds Credentials) (*models.User, error) {
	user, err := r.Resolve(ctx, creds)
	if err != nil {
		return nil, err
	}

	if !user.IsSuperuser {
		return nil, Forbidden(detailNotSuperuser)
	}

	return user, nil
}

// ResolveOptional returns a nil user without error when creds do not authenticate.
// Every other failure is returned unchanged.
func (r *Resolver) ResolveOptional(ctx context.Context, creds Credentials) (*models.User, error) {
	user, err := r.Resolve(ctx, creds)
	if errors.Is(err, ErrUnauthenticated) {
		return nil, nil //nolint:nilnil // anonymous caller
	}

	return user, err
}
