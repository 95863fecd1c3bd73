// Package credential provides the persistence operations of the authentication layer:
// users, organizations, memberships, service configurations and API keys.
//
// Every get-or-create is a single INSERT ... ON CONFLICT DO NOTHING followed by a
// select on the unique column, so concurrent first requests for the same provider
// id converge on one row without locks held by the caller.
package credential

import (
	"context"
	"errors"
	"time"

	pkgerrors "github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/tenantgate/tenantgate/internal/db/models"
)

const (
	providerIDQueryPattern = "provider_id = ?"
	idQueryPattern         = "id = ?"
)

var (
	// ErrDBNil is returned when the database connection is nil.
	ErrDBNil = errors.New("database connection is nil")
	// ErrProviderIDEmpty is returned for an empty user or organization provider id.
	ErrProviderIDEmpty = errors.New("provider id cannot be empty")
	// ErrOrganizationNotFound is returned when an organization lookup has no result.
	ErrOrganizationNotFound = errors.New("organization not found")
)

// Store is the GORM backed credential store.
type Store struct {
	db  *gorm.DB
	now func() time.Time
}

// New creates a Store on top of db.
func New(db *gorm.DB) (*Store, error) {
	if db == nil {
		return nil, ErrDBNil
	}

	return &Store{db: db, now: time.Now}, nil
}

// Migrate creates or updates all tables of the store.
func Migrate(ctx context.Context, db *gorm.DB) error {
	if db == nil {
		return ErrDBNil
	}

	return pkgerrors.Wrap(db.WithContext(ctx).AutoMigrate(models.All()...), "failed to migrate database")
}

// GetOrCreateUserByProviderID returns the user with providerID, creating it if needed.
func (s *Store) GetOrCreateUserByProviderID(ctx context.Context, providerID string) (*models.User, error) {
	if providerID == "" {
		return nil, ErrProviderIDEmpty
	}

	db := s.db.WithContext(ctx)

	if err := db.Clauses(clause.OnConflict{DoNothing: true}).
		Create(&models.User{ProviderID: providerID}).Error; err != nil {
		return nil, pkgerrors.Wrap(err, "failed to insert user")
	}

	var user models.User
	if err := db.Where(providerIDQueryPattern, providerID).First(&user).Error; err != nil {
		return nil, pkgerrors.Wrap(err, "failed to load user")
	}

	return &user, nil
}

// GetOrCreateOrganizationByProviderID returns the organization with orgProviderID.
// wasCreated is true only for the call whose insert created the row.
func (s *Store) GetOrCreateOrganizationByProviderID(
	ctx context.Context,
	orgProviderID string,
	userID uint64,
) (*models.Organization, bool, error) {
	if orgProviderID == "" {
		return nil, false, ErrProviderIDEmpty
	}

	db := s.db.WithContext(ctx)

	result := db.Clauses(clause.OnConflict{DoNothing: true}).
		Create(&models.Organization{ProviderID: orgProviderID, CreatedBy: userID})
	if result.Error != nil {
		return nil, false, pkgerrors.Wrap(result.Error, "failed to insert organization")
	}

	var org models.Organization
	if err := db.Where(providerIDQueryPattern, orgProviderID).First(&org).Error; err != nil {
		return nil, false, pkgerrors.Wrap(err, "failed to load organization")
	}

	return &org, result.RowsAffected == 1, nil
}

// GetOrganizationByProviderID looks up an existing organization.
func (s *Store) GetOrganizationByProviderID(ctx context.Context, orgProviderID string) (*models.Organization, error) {
	var org models.Organization

	err := s.db.WithContext(ctx).Where(providerIDQueryPattern, orgProviderID).First(&org).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOrganizationNotFound
		}

		return nil, pkgerrors.Wrap(err, "failed to load organization")
	}

	return &org, nil
}

// AddUserToOrganization adds the membership, an existing one is left untouched.
func (s *Store) AddUserToOrganization(ctx context.Context, userID, orgID uint64) error {
	err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&models.OrganizationUser{UserID: userID, OrganizationID: orgID}).Error

	return pkgerrors.Wrap(err, "failed to add user to organization")
}

// IsMember reports whether the user belongs to the organization.
func (s *Store) IsMember(ctx context.Context, userID, orgID uint64) (bool, error) {
	var count int64

	err := s.db.WithContext(ctx).Model(&models.OrganizationUser{}).
		Where("user_id = ? AND organization_id = ?", userID, orgID).
		Count(&count).Error
	if err != nil {
		return false, pkgerrors.Wrap(err, "failed to check membership")
	}

	return count > 0, nil
}

// UpdateUserSelectedOrganization persists the selected organization of the user.
func (s *Store) UpdateUserSelectedOrganization(ctx context.Context, userID, orgID uint64) error {
	err := s.db.WithContext(ctx).Model(&models.User{}).
		Where(idQueryPattern, userID).
		Update("selected_organization_id", orgID).Error

	return pkgerrors.Wrap(err, "failed to update selected organization")
}

// GetUserByID returns the user, or nil without error if it does not exist.
func (s *Store) GetUserByID(ctx context.Context, userID uint64) (*models.User, error) {
	var user models.User

	err := s.db.WithContext(ctx).First(&user, userID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil //nolint:nilnil // absent user is not an error
		}

		return nil, pkgerrors.Wrap(err, "failed to load user")
	}

	return &user, nil
}

// MarkSuperuser creates the user if needed and sets the superuser flag.
func (s *Store) MarkSuperuser(ctx context.Context, providerID string) (*models.User, error) {
	user, err := s.GetOrCreateUserByProviderID(ctx, providerID)
	if err != nil {
		return nil, err
	}

	if user.IsSuperuser {
		return user, nil
	}

	if err = s.db.WithContext(ctx).Model(user).Update("is_superuser", true).Error; err != nil {
		return nil, pkgerrors.Wrap(err, "failed to flag superuser")
	}

	user.IsSuperuser = true

	return user, nil
}

// ListUsers returns one page of users ordered by id and the total count.
func (s *Store) ListUsers(ctx context.Context, offset, limit int) ([]models.User, int64, error) {
	var (
		users []models.User
		total int64
	)

	db := s.db.WithContext(ctx)

	if err := db.Model(&models.User{}).Count(&total).Error; err != nil {
		return nil, 0, pkgerrors.Wrap(err, "failed to count users")
	}

	if err := db.Order("id").Offset(offset).Limit(limit).Find(&users).Error; err != nil {
		return nil, 0, pkgerrors.Wrap(err, "failed to list users")
	}

	return users, total, nil
}

// GetUserConfigurations returns the stored configuration, an empty one if none exists.
func (s *Store) GetUserConfigurations(ctx context.Context, userID uint64) (models.ServiceConfiguration, error) {
	var uc models.UserConfiguration

	err := s.db.WithContext(ctx).Where("user_id = ?", userID).First(&uc).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.ServiceConfiguration{}, nil
		}

		return models.ServiceConfiguration{}, pkgerrors.Wrap(err, "failed to load user configuration")
	}

	return uc.Configuration, nil
}

// UpdateUserConfiguration stores cfg as the user's configuration.
func (s *Store) UpdateUserConfiguration(
	ctx context.Context,
	userID uint64,
	cfg models.ServiceConfiguration,
) error {
	uc := models.UserConfiguration{UserID: userID, Configuration: cfg}

	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"configuration", "updated_at"}),
	}).Create(&uc).Error
	if err != nil {
		return pkgerrors.Wrap(err, "failed to store user configuration")
	}

	log.Debug().Uint64("user_id", userID).Msg("user configuration stored")

	return nil
}
