package auth

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/tenantgate/tenantgate/internal/db/models"
	"github.com/tenantgate/tenantgate/internal/issuance"
)

const (
	defaultModel = "default"
	defaultVoice = "default"

	ossExpiresInDays    = 7
	hostedExpiresInDays = 90

	ossDescription = "Auto-generated key for OSS user"
)

// ProvisionerConfig configures the Provisioner.
type ProvisionerConfig struct {
	Mode DeploymentMode
	// SecretKey authenticates hosted mode requests, required in hosted mode.
	SecretKey string
	// ProviderName is written into every provisioned slot.
	ProviderName string
	// KeyName is the name of auto-provisioned service keys.
	KeyName string
}

// Provisioned is the outcome of a provisioning attempt. OK is false when no
// configuration could be obtained; Config is empty then.
type Provisioned struct {
	Config models.ServiceConfiguration
	OK     bool
}

// Provisioner obtains default service configurations from the issuance service.
type Provisioner struct {
	cfg    ProvisionerConfig
	issuer Issuer
}

// NewProvisioner creates a Provisioner.
func NewProvisioner(issuer Issuer, cfg ProvisionerConfig) *Provisioner {
	if cfg.ProviderName == "" {
		cfg.ProviderName = "dograh"
	}

	if cfg.KeyName == "" {
		cfg.KeyName = "Default Model Service Key"
	}

	return &Provisioner{cfg: cfg, issuer: issuer}
}

// Provision requests a service key for the organization and builds a three slot
// configuration from it. Unsuccessful answers, transport errors and timeouts
// yield Provisioned{OK: false} without error. The only error is
// ErrMissingIssuanceSecret in hosted mode.
func (p *Provisioner) Provision(ctx context.Context, userID, orgID uint64, provisioningID string) (Provisioned, error) {
	req, secret, err := p.request(orgID, provisioningID, p.cfg.KeyName)
	if err != nil {
		log.Warn().Uint64("user_id", userID).Uint64("organization_id", orgID).Msg("issuance secret key not set in hosted mode")
		provisionings.WithLabelValues(provisionFailed).Inc()

		return Provisioned{}, err
	}

	resp, err := p.issuer.CreateServiceKey(ctx, req, secret)
	if err != nil {
		log.Warn().Err(err).Uint64("user_id", userID).Uint64("organization_id", orgID).
			Msg("failed to get service key")
		provisionings.WithLabelValues(provisionFailed).Inc()

		return Provisioned{}, nil
	}

	if !resp.OK() {
		log.Warn().Int("status", resp.StatusCode).Str("body", resp.Body).
			Uint64("user_id", userID).Uint64("organization_id", orgID).
			Msg("failed to get service key")
		provisionings.WithLabelValues(provisionFailed).Inc()

		return Provisioned{}, nil
	}

	provisionings.WithLabelValues(provisionOK).Inc()
	log.Info().Uint64("user_id", userID).Uint64("organization_id", orgID).Msg("provisioned default configuration")

	return Provisioned{Config: p.configuration(resp.ServiceKey), OK: true}, nil
}

// CreateServiceKey issues a key for the organization outside of provisioning,
// e.g. on explicit request of a member. Non-success answers are returned as error.
func (p *Provisioner) CreateServiceKey(ctx context.Context, orgID uint64, createdBy, name string) (string, error) {
	if name == "" {
		name = p.cfg.KeyName
	}

	req, secret, err := p.request(orgID, createdBy, name)
	if err != nil {
		return "", err
	}

	resp, err := p.issuer.CreateServiceKey(ctx, req, secret)
	if err != nil {
		return "", err //nolint:wrapcheck
	}

	if !resp.OK() {
		return "", fmt.Errorf("issuance service answered %d: %s", resp.StatusCode, resp.Body) //nolint:goerr113
	}

	return resp.ServiceKey, nil
}

func (p *Provisioner) request(orgID uint64, createdBy, name string) (issuance.Request, string, error) {
	if p.cfg.Mode != ModeHosted {
		return issuance.Request{
			Name:          name,
			Description:   ossDescription,
			ExpiresInDays: ossExpiresInDays,
			CreatedBy:     createdBy,
		}, "", nil
	}

	if p.cfg.SecretKey == "" {
		return issuance.Request{}, "", ErrMissingIssuanceSecret
	}

	id := orgID

	return issuance.Request{
		Name:           name,
		Description:    fmt.Sprintf("Auto-generated key for organization %d", orgID),
		ExpiresInDays:  hostedExpiresInDays,
		CreatedBy:      createdBy,
		OrganizationID: &id,
	}, p.cfg.SecretKey, nil
}

func (p *Provisioner) configuration(serviceKey string) models.ServiceConfiguration {
	slot := func(voice string) *models.ServiceSlot {
		return &models.ServiceSlot{
			Provider: p.cfg.ProviderName,
			APIKey:   serviceKey,
			Model:    defaultModel,
			Voice:    voice,
		}
	}

	return models.ServiceConfiguration{
		LLM: slot(""),
		TTS: slot(defaultVoice),
		STT: slot(""),
	}
}
