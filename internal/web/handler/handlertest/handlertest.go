// Package handlertest wires a file backed SQLite credential store, a resolver
// and a stub issuance service for handler and middleware tests.
package handlertest

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alexedwards/argon2id"
	"github.com/glebarez/sqlite"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/tenantgate/tenantgate/internal/apikey"
	"github.com/tenantgate/tenantgate/internal/auth"
	"github.com/tenantgate/tenantgate/internal/config"
	"github.com/tenantgate/tenantgate/internal/db/controller/credential"
	"github.com/tenantgate/tenantgate/internal/db/models"
	"github.com/tenantgate/tenantgate/internal/issuance"
	"github.com/tenantgate/tenantgate/internal/web/handler"
)

// ServiceKey is the key every request to the stub issuance service returns.
const ServiceKey = "svc-test-0123456789"

// Fixture bundles the services a handler test needs.
type Fixture struct {
	Deps   *handler.Deps
	Store  *credential.Store
	Config *config.Config
	// IssuanceCalls counts requests that reached the stub issuance service.
	IssuanceCalls *atomic.Int32
}

// New creates a fixture in OSS mode.
func New(t *testing.T) *Fixture {
	t.Helper()

	apikey.HashParams = &argon2id.Params{Memory: 1024, Iterations: 1, Parallelism: 1, SaltLength: 16, KeyLength: 32}

	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "web.db")), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err, "failed to create test database")

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, credential.Migrate(context.Background(), db))

	store, err := credential.New(db)
	require.NoError(t, err)

	calls := &atomic.Int32{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"service_key":"`+ServiceKey+`"}`)
	}))
	t.Cleanup(srv.Close)

	client, err := issuance.New(srv.URL, time.Second)
	require.NoError(t, err)

	provisioner := auth.NewProvisioner(client, auth.ProvisionerConfig{Mode: auth.ModeOSS})
	binder := auth.NewTenantBinder(store, provisioner)

	return &Fixture{
		Deps: &handler.Deps{
			Resolver:    auth.NewResolver(store, nil, binder, auth.ModeOSS),
			Store:       store,
			Provisioner: provisioner,
		},
		Store: store,
		Config: &config.Config{
			Title:          "tenantgate",
			DeploymentMode: config.DeploymentModeOSS,
		},
		IssuanceCalls: calls,
	}
}

// App returns a fiber app with the production error handler.
func App() *fiber.App {
	return fiber.New(fiber.Config{
		CaseSensitive:         true,
		Immutable:             true,
		DisableStartupMessage: true,
		ErrorHandler:          handler.ErrorHandler,
	})
}

// Login resolves token in OSS mode, creating the user and its organization.
func (f *Fixture) Login(t *testing.T, token string) *models.User {
	t.Helper()

	user, err := f.Deps.Resolver.Resolve(context.Background(), auth.Credentials{Authorization: "Bearer " + token})
	require.NoError(t, err)

	return user
}

// Response is a captured test response.
type Response struct {
	Status int
	Body   []byte
}

// Decode unmarshals the body into v.
func (r Response) Decode(t *testing.T, v any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(r.Body, v), string(r.Body))
}

// Do sends a request to app. A non-empty body is sent as JSON.
func Do(t *testing.T, app *fiber.App, method, target, body string, headers map[string]string) Response {
	t.Helper()

	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}

	req := httptest.NewRequest(method, target, reader)
	if body != "" {
		req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	}

	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := app.Test(req, -1)
	require.NoError(t, err)

	defer func() {
		_ = resp.Body.Close()
	}()

	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	return Response{Status: resp.StatusCode, Body: data}
}

// Bearer returns an Authorization header for token.
func Bearer(token string) map[string]string {
	return map[string]string{fiber.HeaderAuthorization: "Bearer " + token}
}
