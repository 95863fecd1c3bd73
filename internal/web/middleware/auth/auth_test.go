package auth_test

import (
	"context"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tenantgate/tenantgate/internal/web/handler"
	"github.com/tenantgate/tenantgate/internal/web/handler/handlertest"
	authmiddleware "github.com/tenantgate/tenantgate/internal/web/middleware/auth"
)

type whoami struct {
	UserID    uint64 `json:"user_id"`
	Anonymous bool   `json:"anonymous"`
}

func newApp(mw fiber.Handler) *fiber.App {
	app := handlertest.App()
	app.Get("/", mw, func(c *fiber.Ctx) error {
		user := authmiddleware.CurrentUser(c)
		if user == nil {
			return c.JSON(whoami{Anonymous: true})
		}

		return c.JSON(whoami{UserID: user.ID})
	})

	return app
}

func TestRequireUser(t *testing.T) {
	fx := handlertest.New(t)
	app := newApp(authmiddleware.RequireUser(fx.Deps.Resolver))

	t.Run("bearer token", func(t *testing.T) {
		resp := handlertest.Do(t, app, fiber.MethodGet, "/", "", handlertest.Bearer("alice"))
		require.Equal(t, fiber.StatusOK, resp.Status)

		var got whoami
		resp.Decode(t, &got)
		assert.NotZero(t, got.UserID)
	})

	t.Run("missing header", func(t *testing.T) {
		resp := handlertest.Do(t, app, fiber.MethodGet, "/", "", nil)
		require.Equal(t, fiber.StatusUnauthorized, resp.Status)

		var got handler.ErrorResponse
		resp.Decode(t, &got)
		assert.Equal(t, "Authorization header required", got.Detail)
	})

	t.Run("api key header", func(t *testing.T) {
		owner := fx.Login(t, "bob")
		_, plaintext, err := fx.Store.CreateAPIKey(context.Background(),
			*owner.SelectedOrganizationID, &owner.ID, "ci", 0)
		require.NoError(t, err)

		resp := handlertest.Do(t, app, fiber.MethodGet, "/", "",
			map[string]string{authmiddleware.HeaderAPIKey: plaintext})
		require.Equal(t, fiber.StatusOK, resp.Status)

		var got whoami
		resp.Decode(t, &got)
		assert.Equal(t, owner.ID, got.UserID)
	})

	t.Run("invalid api key", func(t *testing.T) {
		resp := handlertest.Do(t, app, fiber.MethodGet, "/", "",
			map[string]string{authmiddleware.HeaderAPIKey: "sk_nope"})
		require.Equal(t, fiber.StatusUnauthorized, resp.Status)

		var got handler.ErrorResponse
		resp.Decode(t, &got)
		assert.Equal(t, "Invalid or expired API key", got.Detail)
	})
}

func TestRequireSuperuser(t *testing.T) {
	fx := handlertest.New(t)
	app := newApp(authmiddleware.RequireSuperuser(fx.Deps.Resolver))

	resp := handlertest.Do(t, app, fiber.MethodGet, "/", "", handlertest.Bearer("carol"))
	require.Equal(t, fiber.StatusForbidden, resp.Status)

	var denied handler.ErrorResponse
	resp.Decode(t, &denied)
	assert.Equal(t, "Access denied. Superuser privileges required.", denied.Detail)

	_, err := fx.Store.MarkSuperuser(context.Background(), "carol")
	require.NoError(t, err)

	resp = handlertest.Do(t, app, fiber.MethodGet, "/", "", handlertest.Bearer("carol"))
	assert.Equal(t, fiber.StatusOK, resp.Status)

	resp = handlertest.Do(t, app, fiber.MethodGet, "/", "", nil)
	assert.Equal(t, fiber.StatusUnauthorized, resp.Status)
}

func TestOptionalUser(t *testing.T) {
	fx := handlertest.New(t)
	app := newApp(authmiddleware.OptionalUser(fx.Deps.Resolver))

	tests := []struct {
		name      string
		headers   map[string]string
		anonymous bool
	}{
		{name: "no credentials", anonymous: true},
		{name: "invalid api key", headers: map[string]string{authmiddleware.HeaderAPIKey: "sk_bad"}, anonymous: true},
		{name: "valid bearer", headers: handlertest.Bearer("dave")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := handlertest.Do(t, app, fiber.MethodGet, "/", "", tt.headers)
			require.Equal(t, fiber.StatusOK, resp.Status)

			var got whoami
			resp.Decode(t, &got)
			assert.Equal(t, tt.anonymous, got.Anonymous)
		})
	}
}
