package auth

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/tenantgate/tenantgate/internal/db/models"
	"github.com/tenantgate/tenantgate/internal/identity"
	"github.com/tenantgate/tenantgate/internal/issuance"
)

type membership struct {
	userID, orgID uint64
}

// memStore is an in-memory Store with failure injection.
type memStore struct {
	mu sync.Mutex

	nextID  uint64
	users   map[uint64]*models.User
	orgs    map[string]*models.Organization
	members map[membership]struct{}
	configs map[uint64]models.ServiceConfiguration
	keys    map[string]*models.APIKey

	calls     atomic.Int32
	mutations atomic.Int32

	errCreateUser error
	errCreateOrg  error
	errMember     error
	errValidate   error
}

func newMemStore() *memStore {
	return &memStore{
		users:   map[uint64]*models.User{},
		orgs:    map[string]*models.Organization{},
		members: map[membership]struct{}{},
		configs: map[uint64]models.ServiceConfiguration{},
		keys:    map[string]*models.APIKey{},
	}
}

func (s *memStore) id() uint64 {
	s.nextID++
	return s.nextID
}

// addUser stores a user with a fixed id.
func (s *memStore) addUser(u models.User) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.users[u.ID] = &u
	if u.ID > s.nextID {
		s.nextID = u.ID
	}
}

func (s *memStore) addKey(plaintext string, k models.APIKey) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.keys[plaintext] = &k
}

func (s *memStore) GetOrCreateUserByProviderID(_ context.Context, providerID string) (*models.User, error) {
	s.calls.Add(1)

	if s.errCreateUser != nil {
		return nil, s.errCreateUser
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, u := range s.users {
		if u.ProviderID == providerID {
			cp := *u
			return &cp, nil
		}
	}

	s.mutations.Add(1)

	u := &models.User{ID: s.id(), ProviderID: providerID}
	s.users[u.ID] = u
	cp := *u

	return &cp, nil
}

func (s *memStore) GetOrCreateOrganizationByProviderID(
	_ context.Context, orgProviderID string, userID uint64,
) (*models.Organization, bool, error) {
	s.calls.Add(1)

	if s.errCreateOrg != nil {
		return nil, false, s.errCreateOrg
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if org, ok := s.orgs[orgProviderID]; ok {
		cp := *org
		return &cp, false, nil
	}

	s.mutations.Add(1)

	org := &models.Organization{ID: s.id(), ProviderID: orgProviderID, CreatedBy: userID}
	s.orgs[orgProviderID] = org
	cp := *org

	return &cp, true, nil
}

func (s *memStore) AddUserToOrganization(_ context.Context, userID, orgID uint64) error {
	s.calls.Add(1)

	if s.errMember != nil {
		return s.errMember
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.mutations.Add(1)
	s.members[membership{userID, orgID}] = struct{}{}

	return nil
}

func (s *memStore) UpdateUserSelectedOrganization(_ context.Context, userID, orgID uint64) error {
	s.calls.Add(1)

	s.mu.Lock()
	defer s.mu.Unlock()

	s.mutations.Add(1)

	if u, ok := s.users[userID]; ok {
		u.SelectOrganization(orgID)
	}

	return nil
}

func (s *memStore) GetUserConfigurations(_ context.Context, userID uint64) (models.ServiceConfiguration, error) {
	s.calls.Add(1)

	s.mu.Lock()
	defer s.mu.Unlock()

	return s.configs[userID], nil
}

func (s *memStore) UpdateUserConfiguration(_ context.Context, userID uint64, cfg models.ServiceConfiguration) error {
	s.calls.Add(1)

	s.mu.Lock()
	defer s.mu.Unlock()

	s.mutations.Add(1)
	s.configs[userID] = cfg

	return nil
}

func (s *memStore) ValidateAPIKey(_ context.Context, key string) (*models.APIKey, error) {
	s.calls.Add(1)

	if s.errValidate != nil {
		return nil, s.errValidate
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	k, ok := s.keys[key]
	if !ok {
		return nil, nil
	}

	cp := *k

	return &cp, nil
}

func (s *memStore) GetUserByID(_ context.Context, userID uint64) (*models.User, error) {
	s.calls.Add(1)

	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[userID]
	if !ok {
		return nil, nil
	}

	cp := *u

	return &cp, nil
}

func (s *memStore) userCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.users)
}

// fakeIssuer records service key requests.
type fakeIssuer struct {
	mu       sync.Mutex
	requests []issuance.Request
	secrets  []string

	resp *issuance.Response
	err  error
}

func okIssuer(key string) *fakeIssuer {
	return &fakeIssuer{resp: &issuance.Response{StatusCode: 200, ServiceKey: key}}
}

func (f *fakeIssuer) CreateServiceKey(_ context.Context, req issuance.Request, secretKey string) (*issuance.Response, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.requests = append(f.requests, req)
	f.secrets = append(f.secrets, secretKey)

	return f.resp, f.err
}

func (f *fakeIssuer) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()

	return len(f.requests)
}

// fakeIDP maps bearer tokens to identities.
type fakeIDP struct {
	users map[string]*identity.Identity
	err   error
}

func (f *fakeIDP) GetUser(_ context.Context, authorization string) (*identity.Identity, error) {
	if f.err != nil {
		return nil, f.err
	}

	return f.users[identity.BearerToken(authorization)], nil
}

// fakeConn records websocket closes.
type fakeConn struct {
	closed bool
	code   int
	reason string
}

func (c *fakeConn) Close(code int, reason string) error {
	c.closed = true
	c.code = code
	c.reason = reason

	return nil
}

type fixture struct {
	store    *memStore
	issuer   *fakeIssuer
	idp      *fakeIDP
	resolver *Resolver
}

func newFixture(mode DeploymentMode, secret string) *fixture {
	f := &fixture{
		store:  newMemStore(),
		issuer: okIssuer("svc-key"),
		idp:    &fakeIDP{users: map[string]*identity.Identity{}},
	}

	provisioner := NewProvisioner(f.issuer, ProvisionerConfig{Mode: mode, SecretKey: secret})
	f.resolver = NewResolver(f.store, f.idp, NewTenantBinder(f.store, provisioner), mode)

	return f
}
