package auth

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tenantgate/tenantgate/internal/db/models"
	"github.com/tenantgate/tenantgate/internal/identity"
)

func ptr[T any](v T) *T {
	return &v
}

func requireKind(t *testing.T, err error, kind Kind, detail string) {
	t.Helper()

	require.Error(t, err)

	var e *Error
	require.ErrorAs(t, err, &e)
	assert.Equal(t, kind, e.Kind)

	if detail != "" {
		assert.Equal(t, detail, e.Detail)
	}
}

func TestResolveAPIKey(t *testing.T) {
	f := newFixture(ModeHosted, "secret")
	f.store.addUser(models.User{ID: 7, ProviderID: "owner", SelectedOrganizationID: ptr[uint64](5)})
	f.store.addKey("sk_abc123xyz", models.APIKey{ID: 1, OrganizationID: 42, CreatedBy: ptr[uint64](7), KeyPrefix: "sk_abc1"})

	user, err := f.resolver.Resolve(context.Background(), Credentials{APIKey: "sk_abc123xyz"})
	require.NoError(t, err)
	assert.EqualValues(t, 7, user.ID)
	require.NotNil(t, user.SelectedOrganizationID)
	assert.EqualValues(t, 42, *user.SelectedOrganizationID)

	stored, err := f.store.GetUserByID(context.Background(), 7)
	require.NoError(t, err)
	assert.EqualValues(t, 5, *stored.SelectedOrganizationID, "stored default organization is untouched")
	assert.Zero(t, f.store.mutations.Load())
}

func TestResolveAPIKeyWinsOverAuthorization(t *testing.T) {
	f := newFixture(ModeOSS, "")
	f.store.addUser(models.User{ID: 7, ProviderID: "owner"})
	f.store.addKey("sk_abc123xyz", models.APIKey{OrganizationID: 42, CreatedBy: ptr[uint64](7)})

	user, err := f.resolver.Resolve(context.Background(), Credentials{
		APIKey:        "sk_abc123xyz",
		Authorization: "Bearer dev-token-1",
	})
	require.NoError(t, err)
	assert.EqualValues(t, 7, user.ID)
	assert.Equal(t, 1, f.store.userCount(), "self-issued path must not run")
}

func TestResolveAPIKeyFailures(t *testing.T) {
	tests := []struct {
		name   string
		key    string
		detail string
	}{
		{"unknown key", "sk_unknown", detailInvalidAPIKey},
		{"key without creator", "sk_orphan", detailAPIKeyWithoutUser},
		{"creator deleted", "sk_ghost", detailAPIKeyOwnerMissing},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(ModeOSS, "")
			f.store.addKey("sk_orphan", models.APIKey{OrganizationID: 1})
			f.store.addKey("sk_ghost", models.APIKey{OrganizationID: 1, CreatedBy: ptr[uint64](99)})

			user, err := f.resolver.Resolve(context.Background(), Credentials{APIKey: tt.key})
			assert.Nil(t, user)
			requireKind(t, err, KindUnauthenticated, tt.detail)
			assert.Zero(t, f.store.mutations.Load(), "no store mutation on rejected keys")
		})
	}
}

func TestResolveAPIKeyStoreFailure(t *testing.T) {
	f := newFixture(ModeOSS, "")
	f.store.errValidate = errors.New("connection reset") //nolint:goerr113

	_, err := f.resolver.Resolve(context.Background(), Credentials{APIKey: "sk_whatever"})
	requireKind(t, err, KindInternal, "Error while validating API key: connection reset")
}

func TestResolveSelfIssuedFirstUse(t *testing.T) {
	f := newFixture(ModeOSS, "")

	user, err := f.resolver.Resolve(context.Background(), Credentials{Authorization: "Bearer dev-token-1"})
	require.NoError(t, err)
	assert.Equal(t, "dev-token-1", user.ProviderID)

	org, ok := f.store.orgs["org_dev-token-1"]
	require.True(t, ok)
	assert.True(t, user.HasSelectedOrganization(org.ID))
	assert.Equal(t, user.ID, org.CreatedBy)
	assert.Contains(t, f.store.members, membership{user.ID, org.ID})

	require.Equal(t, 1, f.issuer.callCount())
	req := f.issuer.requests[0]
	assert.Equal(t, "dev-token-1", req.CreatedBy)
	assert.Equal(t, 7, req.ExpiresInDays)
	assert.Equal(t, "Auto-generated key for OSS user", req.Description)
	assert.Nil(t, req.OrganizationID)
	assert.Empty(t, f.issuer.secrets[0])

	cfg := f.store.configs[user.ID]
	for _, slot := range []*models.ServiceSlot{cfg.LLM, cfg.TTS, cfg.STT} {
		require.NotNil(t, slot)
		assert.Equal(t, "dograh", slot.Provider)
		assert.Equal(t, "svc-key", slot.APIKey)
		assert.Equal(t, "default", slot.Model)
	}

	assert.Equal(t, "default", cfg.TTS.Voice)
	assert.Empty(t, cfg.LLM.Voice)
}

func TestResolveSelfIssuedIsIdempotent(t *testing.T) {
	f := newFixture(ModeOSS, "")
	ctx := context.Background()

	first, err := f.resolver.Resolve(ctx, Credentials{Authorization: "Bearer dev-token-1"})
	require.NoError(t, err)

	for _, header := range []string{"Bearer dev-token-1", "dev-token-1"} {
		again, err := f.resolver.Resolve(ctx, Credentials{Authorization: header})
		require.NoError(t, err)
		assert.Equal(t, first.ID, again.ID)
		assert.Equal(t, *first.SelectedOrganizationID, *again.SelectedOrganizationID)
	}

	assert.Len(t, f.store.orgs, 1)
	assert.Equal(t, 1, f.issuer.callCount())
}

func TestResolveSelfIssuedFailures(t *testing.T) {
	tests := []struct {
		name   string
		header string
		detail string
	}{
		{"missing header", "", detailHeaderRequired},
		{"empty bearer", "Bearer ", detailInvalidToken},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(ModeOSS, "")

			_, err := f.resolver.Resolve(context.Background(), Credentials{Authorization: tt.header})
			requireKind(t, err, KindUnauthenticated, tt.detail)
			assert.Zero(t, f.store.calls.Load())
		})
	}
}

func TestResolveSelfIssuedStoreFailure(t *testing.T) {
	f := newFixture(ModeOSS, "")
	f.store.errMember = errors.New("deadlock") //nolint:goerr113

	_, err := f.resolver.Resolve(context.Background(), Credentials{Authorization: "Bearer tok"})
	requireKind(t, err, KindInternal, "")
	assert.Contains(t, err.Error(), "Error while handling OSS authentication: ")
	assert.Contains(t, err.Error(), "deadlock")
}

func TestResolveModeOverride(t *testing.T) {
	f := newFixture(ModeHosted, "secret")

	user, err := f.resolver.Resolve(context.Background(), Credentials{Authorization: "Bearer local", Mode: ModeOSS})
	require.NoError(t, err)
	assert.Equal(t, "local", user.ProviderID)
}

func TestResolveProviderToken(t *testing.T) {
	f := newFixture(ModeHosted, "secret")
	f.idp.users["good"] = &identity.Identity{ID: "stack-user", SelectedTeamID: "team-1"}

	user, err := f.resolver.Resolve(context.Background(), Credentials{Authorization: "Bearer good"})
	require.NoError(t, err)
	assert.Equal(t, "stack-user", user.ProviderID)

	org := f.store.orgs["team-1"]
	require.NotNil(t, org)
	assert.True(t, user.HasSelectedOrganization(org.ID))

	require.Equal(t, 1, f.issuer.callCount())
	req := f.issuer.requests[0]
	assert.Equal(t, "secret", f.issuer.secrets[0])
	assert.Equal(t, 90, req.ExpiresInDays)
	assert.Equal(t, "stack-user", req.CreatedBy)
	require.NotNil(t, req.OrganizationID)
	assert.Equal(t, org.ID, *req.OrganizationID)
}

func TestResolveProviderTokenTeamObject(t *testing.T) {
	f := newFixture(ModeHosted, "secret")
	f.idp.users["good"] = &identity.Identity{ID: "u", SelectedTeam: &identity.Team{ID: "team-obj"}}

	_, err := f.resolver.Resolve(context.Background(), Credentials{Authorization: "Bearer good"})
	require.NoError(t, err)
	assert.Contains(t, f.store.orgs, "team-obj")
}

func TestResolveProviderTokenFailures(t *testing.T) {
	tests := []struct {
		name   string
		setup  func(f *fixture)
		kind   Kind
		detail string
	}{
		{
			name:   "unknown token",
			setup:  func(_ *fixture) {},
			kind:   KindUnauthenticated,
			detail: detailUnauthorized,
		},
		{
			name: "provider unreachable",
			setup: func(f *fixture) {
				f.idp.err = errors.New("dial tcp: timeout") //nolint:goerr113
			},
			kind:   KindUnauthenticated,
			detail: detailUnauthorized,
		},
		{
			name: "no team",
			setup: func(f *fixture) {
				f.idp.users["tok"] = &identity.Identity{ID: "u"}
			},
			kind:   KindBadRequest,
			detail: detailNoTeam,
		},
		{
			name: "user creation fails",
			setup: func(f *fixture) {
				f.idp.users["tok"] = &identity.Identity{ID: "u", SelectedTeamID: "t"}
				f.store.errCreateUser = errors.New("disk full") //nolint:goerr113
			},
			kind:   KindInternal,
			detail: "Error while creating user from database: disk full",
		},
		{
			name: "organization mapping fails",
			setup: func(f *fixture) {
				f.idp.users["tok"] = &identity.Identity{ID: "u", SelectedTeamID: "t"}
				f.store.errCreateOrg = errors.New("disk full") //nolint:goerr113
			},
			kind:   KindInternal,
			detail: "Failed to map user to organization: get or create organization: disk full",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(ModeHosted, "secret")
			tt.setup(f)

			user, err := f.resolver.Resolve(context.Background(), Credentials{Authorization: "Bearer tok"})
			assert.Nil(t, user)
			requireKind(t, err, tt.kind, tt.detail)
		})
	}
}

func TestResolveProviderTokenWithoutProvider(t *testing.T) {
	store := newMemStore()
	r := NewResolver(store, nil, NewTenantBinder(store, nil), ModeHosted)

	_, err := r.Resolve(context.Background(), Credentials{Authorization: "Bearer tok"})
	requireKind(t, err, KindUnauthenticated, detailUnauthorized)
}

func TestResolveHostedMissingSecret(t *testing.T) {
	f := newFixture(ModeHosted, "")
	f.idp.users["tok"] = &identity.Identity{ID: "u", SelectedTeamID: "t"}

	_, err := f.resolver.Resolve(context.Background(), Credentials{Authorization: "Bearer tok"})
	requireKind(t, err, KindInternal, "")
	require.ErrorIs(t, err, ErrMissingIssuanceSecret)
	assert.Zero(t, f.issuer.callCount())
}

func TestResolveSkipsProvisioningForConfiguredUser(t *testing.T) {
	f := newFixture(ModeOSS, "")
	f.store.addUser(models.User{ID: 1, ProviderID: "tok"})
	f.store.configs[1] = models.ServiceConfiguration{STT: &models.ServiceSlot{Provider: "own", APIKey: "k"}}

	user, err := f.resolver.Resolve(context.Background(), Credentials{Authorization: "Bearer tok"})
	require.NoError(t, err)
	assert.NotNil(t, user.SelectedOrganizationID)
	assert.Zero(t, f.issuer.callCount(), "configured users are never provisioned")
	assert.Equal(t, "own", f.store.configs[1].STT.Provider)
}

func TestResolveExistingOrganizationDoesNotProvision(t *testing.T) {
	f := newFixture(ModeHosted, "secret")
	f.idp.users["a"] = &identity.Identity{ID: "alice", SelectedTeamID: "team"}
	f.idp.users["b"] = &identity.Identity{ID: "bob", SelectedTeamID: "team"}

	_, err := f.resolver.Resolve(context.Background(), Credentials{Authorization: "Bearer a"})
	require.NoError(t, err)

	bob, err := f.resolver.Resolve(context.Background(), Credentials{Authorization: "Bearer b"})
	require.NoError(t, err)

	org := f.store.orgs["team"]
	assert.True(t, bob.HasSelectedOrganization(org.ID))
	assert.Contains(t, f.store.members, membership{bob.ID, org.ID})
	assert.Equal(t, 1, f.issuer.callCount(), "only the organization creator provisions")
}

func TestResolveProvisioningFailureDegrades(t *testing.T) {
	f := newFixture(ModeOSS, "")
	f.issuer.resp.StatusCode = 503
	f.issuer.resp.ServiceKey = ""

	user, err := f.resolver.Resolve(context.Background(), Credentials{Authorization: "Bearer tok"})
	require.NoError(t, err)
	assert.NotNil(t, user.SelectedOrganizationID)
	assert.True(t, f.store.configs[user.ID].IsEmpty())
}

func TestResolveSuperuser(t *testing.T) {
	f := newFixture(ModeOSS, "")
	f.store.addUser(models.User{ID: 1, ProviderID: "root", IsSuperuser: true})

	admin, err := f.resolver.ResolveSuperuser(context.Background(), Credentials{Authorization: "Bearer root"})
	require.NoError(t, err)
	assert.True(t, admin.IsSuperuser)

	_, err = f.resolver.ResolveSuperuser(context.Background(), Credentials{Authorization: "Bearer plain"})
	requireKind(t, err, KindForbidden, detailNotSuperuser)

	_, err = f.resolver.ResolveSuperuser(context.Background(), Credentials{})
	requireKind(t, err, KindUnauthenticated, detailHeaderRequired)
}

func TestResolveOptional(t *testing.T) {
	f := newFixture(ModeHosted, "secret")
	f.idp.users["good"] = &identity.Identity{ID: "u", SelectedTeamID: "t"}
	f.idp.users["teamless"] = &identity.Identity{ID: "v"}

	user, err := f.resolver.ResolveOptional(context.Background(), Credentials{Authorization: "Bearer nope"})
	require.NoError(t, err)
	assert.Nil(t, user)

	user, err = f.resolver.ResolveOptional(context.Background(), Credentials{Authorization: "Bearer good"})
	require.NoError(t, err)
	assert.NotNil(t, user)

	_, err = f.resolver.ResolveOptional(context.Background(), Credentials{Authorization: "Bearer teamless"})
	requireKind(t, err, KindBadRequest, detailNoTeam)

	f.store.errCreateUser = errors.New("db down") //nolint:goerr113
	_, err = f.resolver.ResolveOptional(context.Background(), Credentials{Authorization: "Bearer good"})
	requireKind(t, err, KindInternal, "")
}
