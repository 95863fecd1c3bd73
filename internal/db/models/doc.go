// Package models contains the GORM models of the credential store.
package models

// All returns every model for migrations.
func All() []any {
	return []any{
		&User{},
		&Organization{},
		&OrganizationUser{},
		&APIKey{},
		&UserConfiguration{},
	}
}
