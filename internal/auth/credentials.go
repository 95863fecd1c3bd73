package auth

import (
	"context"

	"github.com/tenantgate/tenantgate/internal/db/models"
	"github.com/tenantgate/tenantgate/internal/issuance"
)

// DeploymentMode selects how bearer tokens are treated.
type DeploymentMode string

const (
	// ModeOSS treats the bearer token as self-issued user identifier.
	ModeOSS DeploymentMode = "oss"
	// ModeHosted validates bearer tokens with the identity provider.
	ModeHosted DeploymentMode = "hosted"
)

// Credentials are the values a transport extracted from a request.
type Credentials struct {
	// Authorization is the raw Authorization header, "Bearer <token>" or a bare token.
	Authorization string
	// APIKey is the X-API-Key header value. It takes precedence over Authorization.
	APIKey string
	// Mode overrides the resolver's deployment mode when set.
	Mode DeploymentMode
}

// Store is the credential store the resolver works on. Implementations must make
// the get-or-create and membership operations atomic and idempotent.
type Store interface {
	GetOrCreateUserByProviderID(ctx context.Context, providerID string) (*models.User, error)
	// GetOrCreateOrganizationByProviderID reports wasCreated only to the caller that inserted the row.
	GetOrCreateOrganizationByProviderID(
		ctx context.Context, orgProviderID string, userID uint64,
	) (org *models.Organization, wasCreated bool, err error)
	AddUserToOrganization(ctx context.Context, userID, orgID uint64) error
	UpdateUserSelectedOrganization(ctx context.Context, userID, orgID uint64) error
	GetUserConfigurations(ctx context.Context, userID uint64) (models.ServiceConfiguration, error)
	UpdateUserConfiguration(ctx context.Context, userID uint64, cfg models.ServiceConfiguration) error
	// ValidateAPIKey returns nil without error for unknown, expired or archived keys.
	ValidateAPIKey(ctx context.Context, key string) (*models.APIKey, error)
	// GetUserByID returns nil without error for a missing user.
	GetUserByID(ctx context.Context, userID uint64) (*models.User, error)
}

// Issuer requests service keys from the issuance service.
type Issuer interface {
	CreateServiceKey(ctx context.Context, req issuance.Request, secretKey string) (*issuance.Response, error)
}
