package auth

import (
	"context"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"github.com/tenantgate/tenantgate/internal/db/models"
)

// TenantBinder attaches a user to an organization.
type TenantBinder struct {
	store       Store
	provisioner *Provisioner
}

// NewTenantBinder creates a TenantBinder. provisioner may be nil to disable provisioning.
func NewTenantBinder(store Store, provisioner *Provisioner) *TenantBinder {
	return &TenantBinder{store: store, provisioner: provisioner}
}

// Bind gets or creates the organization with orgProviderID and makes it the
// user's selected organization, mirroring the change on user. If this call
// created the organization and the user has no configuration yet, a default
// configuration is provisioned using provisioningID as requester.
func (b *TenantBinder) Bind(ctx context.Context, user *models.User, orgProviderID, provisioningID string) error {
	org, wasCreated, err := b.store.GetOrCreateOrganizationByProviderID(ctx, orgProviderID, user.ID)
	if err != nil {
		return errors.Wrap(err, "get or create organization")
	}

	if wasCreated {
		organizationsCreated.Inc()
		log.Info().Uint64("organization_id", org.ID).Uint64("user_id", user.ID).Msg("organization created")
	}

	if user.HasSelectedOrganization(org.ID) {
		return nil
	}

	if err = b.store.AddUserToOrganization(ctx, user.ID, org.ID); err != nil {
		return errors.Wrap(err, "add user to organization")
	}

	if err = b.store.UpdateUserSelectedOrganization(ctx, user.ID, org.ID); err != nil {
		return errors.Wrap(err, "update selected organization")
	}

	user.SelectOrganization(org.ID)

	// only the creator of the organization provisions
	if !wasCreated || b.provisioner == nil {
		return nil
	}

	return b.provision(ctx, user.ID, org.ID, provisioningID)
}

func (b *TenantBinder) provision(ctx context.Context, userID, orgID uint64, provisioningID string) error {
	existing, err := b.store.GetUserConfigurations(ctx, userID)
	if err != nil {
		return errors.Wrap(err, "get user configurations")
	}

	if !existing.IsEmpty() {
		provisionings.WithLabelValues(provisionSkipped).Inc()
		log.Debug().Uint64("user_id", userID).Msg("user already configured, skipping provisioning")

		return nil
	}

	provisioned, err := b.provisioner.Provision(ctx, userID, orgID, provisioningID)
	if err != nil {
		return errors.Wrap(err, "provision configuration")
	}

	if !provisioned.OK {
		return nil
	}

	if err = b.store.UpdateUserConfiguration(ctx, userID, provisioned.Config); err != nil {
		return errors.Wrap(err, "update user configuration")
	}

	return nil
}
