package config

import (
	"time"

	"github.com/tenantgate/tenantgate/internal/logger"
)

const (
	// DeploymentModeOSS is the self-hosted mode: bearer tokens are self-issued.
	DeploymentModeOSS = "oss"
	// DeploymentModeHosted validates bearer tokens against an identity provider.
	DeploymentModeHosted = "hosted"
)

// Config overall data structure.
type Config struct {
	DevMode        bool   // enable dev mode for development
	Title          string `validate:"required"`
	DeploymentMode string `validate:"required,oneof=oss hosted"`
	DB             DB
	Log            logger.Log
	Webserver      Webserver
	Auth           Auth
	Identity       Identity
	Issuance       Issuance
}

// Webserver implement webserver settings.
type Webserver struct {
	CleanPath      bool   // use clean path middleware to allow multi slash requests
	DisableRecover bool   // disable recover middleware
	Port           int    // listening port for the webserver
	ShutDownTime   int    // wait time for shutdown
	URL            string // base url for the webserver
	CheckAliveURI  string // health endpoint, not access logged when Log.DisableCheckAlive is set
	MetricsURI     string // prometheus endpoint, empty disables it
}

// Auth holds settings of the request authentication layer.
type Auth struct {
	// Superusers lists provider ids that are created and flagged superuser at startup.
	Superusers []string
	// APIKeyTTL is the default validity of API keys created through the API, 0 means no expiry.
	APIKeyTTL time.Duration
}

// Identity configures the identity provider used in hosted mode.
type Identity struct {
	Provider  string `validate:"omitempty,oneof=stackauth oidc"`
	StackAuth StackAuth
	OIDC      OIDC
	Cache     IdentityCache
}

// StackAuth configures the Stack Auth REST identity provider.
type StackAuth struct {
	BaseURL              string `validate:"omitempty,url"`
	ProjectID            string
	PublishableClientKey string
	SecretServerKey      string
	Timeout              time.Duration
}

// OIDC configures an OpenID Connect identity provider.
type OIDC struct {
	ProviderURL string `validate:"omitempty,url"`
	ClientID    string
	// TeamClaim names the flat claim with the selected team id (default "selected_team_id").
	TeamClaim string
	// TeamObjectClaim names the object claim holding {"id": ...} (default "selected_team").
	TeamObjectClaim string
	// UserInfoFallback queries the userinfo endpoint when the bearer is not a verifiable ID token.
	UserInfoFallback bool
}

// IdentityCache configures caching of validated identities.
type IdentityCache struct {
	Enabled       bool
	Driver        string `validate:"omitempty,oneof=redis mysql postgres"`
	TTL           time.Duration
	ConnectionURI string // mysql and postgres
	Table         string // mysql and postgres
	Redis         Redis
}

// Redis connection settings.
type Redis struct {
	Addr     string
	Password string
	DB       int
}

// Issuance configures the downstream credential issuance service.
type Issuance struct {
	URL          string `validate:"omitempty,url"`
	SecretKey    string
	Timeout      time.Duration
	ProviderName string // provider identifier written into provisioned slots
	KeyName      string // name given to auto-provisioned service keys
}
