package models

import (
	"time"
)

// User represents a local account resolved from an external identity.
// A user is created on the first successful authentication for a provider id
// and is never deleted by the authentication layer.
type User struct {
	// ID is the unique identifier for the user.
	ID uint64 `gorm:"primaryKey" json:"id"`
	// ProviderID is the stable identifier of the user at the identity provider.
	// In self-hosted mode this is the self-issued token itself.
	ProviderID string `gorm:"size:512;not null;uniqueIndex" json:"provider_id"`
	// SelectedOrganizationID is the organization currently active for the user.
	SelectedOrganizationID *uint64 `gorm:"index" json:"selected_organization_id"`
	// IsSuperuser grants access to superuser-only endpoints.
	IsSuperuser bool `gorm:"not null;default:false" json:"is_superuser"`
	// CreatedAt is the timestamp when the user was created (managed by GORM).
	CreatedAt time.Time `json:"created_at"`
	// UpdatedAt is the timestamp when the user was last updated (managed by GORM).
	UpdatedAt time.Time `json:"updated_at"`
}

// HasSelectedOrganization reports whether orgID is the user's selected organization.
func (u *User) HasSelectedOrganization(orgID uint64) bool {
	return u.SelectedOrganizationID != nil && *u.SelectedOrganizationID == orgID
}

// SelectOrganization sets the selected organization on the in-memory value only.
func (u *User) SelectOrganization(orgID uint64) {
	id := orgID
	u.SelectedOrganizationID = &id
}
