package auth

import (
	"context"
	"path/filepath"
	"sync"
	"testing"

	"github.com/alexedwards/argon2id"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/tenantgate/tenantgate/internal/apikey"
	"github.com/tenantgate/tenantgate/internal/db/controller/credential"
	"github.com/tenantgate/tenantgate/internal/db/models"
)

func init() { //nolint:gochecknoinits
	apikey.HashParams = &argon2id.Params{Memory: 1024, Iterations: 1, Parallelism: 1, SaltLength: 16, KeyLength: 32}
}

func newSQLiteStore(t *testing.T) (*credential.Store, *gorm.DB) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "auth.db")), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, credential.Migrate(context.Background(), db))

	store, err := credential.New(db)
	require.NoError(t, err)

	return store, db
}

func TestConcurrentFirstUseProvisionsOnce(t *testing.T) {
	store, db := newSQLiteStore(t)
	issuer := okIssuer("svc-race")

	provisioner := NewProvisioner(issuer, ProvisionerConfig{Mode: ModeOSS})
	resolver := NewResolver(store, nil, NewTenantBinder(store, provisioner), ModeOSS)

	const requests = 12

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		userIDs = map[uint64]struct{}{}
		orgIDs  = map[uint64]struct{}{}
	)

	for range requests {
		wg.Add(1)

		go func() {
			defer wg.Done()

			user, err := resolver.Resolve(context.Background(), Credentials{Authorization: "Bearer brand-new"})
			if !assert.NoError(t, err) {
				return
			}

			mu.Lock()
			defer mu.Unlock()

			userIDs[user.ID] = struct{}{}
			orgIDs[*user.SelectedOrganizationID] = struct{}{}
		}()
	}

	wg.Wait()

	assert.Len(t, userIDs, 1)
	assert.Len(t, orgIDs, 1)

	var orgs, members int64
	require.NoError(t, db.Model(&models.Organization{}).Count(&orgs).Error)
	require.NoError(t, db.Model(&models.OrganizationUser{}).Count(&members).Error)
	assert.EqualValues(t, 1, orgs)
	assert.EqualValues(t, 1, members)
	assert.LessOrEqual(t, issuer.callCount(), 1)

	var userID uint64
	for id := range userIDs {
		userID = id
	}

	cfg, err := store.GetUserConfigurations(context.Background(), userID)
	require.NoError(t, err)
	require.NotNil(t, cfg.LLM)
	assert.Equal(t, "svc-race", cfg.LLM.APIKey)
}

func TestAPIKeyExampleAgainstStore(t *testing.T) {
	store, _ := newSQLiteStore(t)
	ctx := context.Background()

	owner, err := store.GetOrCreateUserByProviderID(ctx, "owner")
	require.NoError(t, err)

	home, _, err := store.GetOrCreateOrganizationByProviderID(ctx, "home", owner.ID)
	require.NoError(t, err)
	require.NoError(t, store.UpdateUserSelectedOrganization(ctx, owner.ID, home.ID))

	other, _, err := store.GetOrCreateOrganizationByProviderID(ctx, "other", owner.ID)
	require.NoError(t, err)

	_, plaintext, err := store.CreateAPIKey(ctx, other.ID, &owner.ID, "ci", 0)
	require.NoError(t, err)

	resolver := NewResolver(store, nil, NewTenantBinder(store, nil), ModeHosted)

	user, err := resolver.Resolve(ctx, Credentials{APIKey: plaintext})
	require.NoError(t, err)
	assert.Equal(t, owner.ID, user.ID)
	assert.True(t, user.HasSelectedOrganization(other.ID))

	stored, err := store.GetUserByID(ctx, owner.ID)
	require.NoError(t, err)
	assert.True(t, stored.HasSelectedOrganization(home.ID))
}
