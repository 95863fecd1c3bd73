package models

import "time"

// Organization represents a tenant. Organizations are created on first touch
// for a provider id and are immutable afterwards.
type Organization struct {
	// ID is the unique identifier for the organization.
	ID uint64 `gorm:"primaryKey" json:"id"`
	// ProviderID is the external tenant identifier (team id, or "org_<token>" in self-hosted mode).
	ProviderID string `gorm:"size:512;not null;uniqueIndex" json:"provider_id"`
	// CreatedBy is the id of the user whose request created the organization.
	CreatedBy uint64 `gorm:"not null" json:"created_by"`
	// CreatedAt is the timestamp when the organization was created (managed by GORM).
	CreatedAt time.Time `json:"created_at"`
	// UpdatedAt is the timestamp when the organization was last updated (managed by GORM).
	UpdatedAt time.Time `json:"updated_at"`
}

// OrganizationUser is the many-to-many membership between users and organizations.
// The composite primary key makes a duplicate insert a conflict that the store ignores.
type OrganizationUser struct {
	// UserID is the ID of the member.
	UserID uint64 `gorm:"primaryKey;autoIncrement:false;column:user_id"`
	// OrganizationID is the ID of the organization.
	OrganizationID uint64 `gorm:"primaryKey;autoIncrement:false;column:organization_id"`
	// CreatedAt is the timestamp when the membership was created (managed by GORM).
	CreatedAt time.Time
}

// TableName specifies the database table name for the OrganizationUser model.
func (OrganizationUser) TableName() string {
	return "organization_users"
}
