package models

import "time"

// APIKey is an organization scoped credential. Only the argon2id hash of the
// plaintext key is stored; the visible prefix is kept for lookup and logging.
type APIKey struct {
	ID             uint64     `gorm:"primaryKey" json:"id"`
	OrganizationID uint64     `gorm:"not null;index" json:"organization_id"`
	CreatedBy      *uint64    `gorm:"index" json:"created_by"`
	Name           string     `gorm:"size:255;not null" json:"name"`
	KeyHash        string     `gorm:"size:255;not null" json:"-"`
	KeyPrefix      string     `gorm:"size:16;not null;index" json:"key_prefix"`
	IsActive       bool       `gorm:"not null;default:true" json:"is_active"`
	ExpiresAt      *time.Time `json:"expires_at"`
	LastUsedAt     *time.Time `json:"last_used_at"`
	ArchivedAt     *time.Time `json:"archived_at"`
	CreatedAt      time.Time  `json:"created_at"`
}

// TableName specifies the database table name for the APIKey model.
func (APIKey) TableName() string {
	return "api_keys"
}

// Usable reports whether the key is active, not archived and not expired at now.
func (k *APIKey) Usable(now time.Time) bool {
	if !k.IsActive || k.ArchivedAt != nil {
		return false
	}

	return k.ExpiresAt == nil || now.Before(*k.ExpiresAt)
}
