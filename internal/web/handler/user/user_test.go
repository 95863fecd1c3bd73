package user

import (
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tenantgate/tenantgate/internal/db/models"
	"github.com/tenantgate/tenantgate/internal/web/handler/handlertest"
)

func setup(t *testing.T) (*handlertest.Fixture, *fiber.App) {
	t.Helper()

	fx := handlertest.New(t)
	app := handlertest.App()

	s := &Service{}
	s.Init(app, fx.Config, fx.Deps)

	return fx, app
}

func TestMe(t *testing.T) {
	_, app := setup(t)

	resp := handlertest.Do(t, app, fiber.MethodGet, Path+"/auth/user", "", handlertest.Bearer("alice"))
	require.Equal(t, fiber.StatusOK, resp.Status)

	var got models.User
	resp.Decode(t, &got)
	assert.Equal(t, "alice", got.ProviderID)
	assert.NotNil(t, got.SelectedOrganizationID)
	assert.False(t, got.IsSuperuser)
}

func TestMeUnauthenticated(t *testing.T) {
	_, app := setup(t)

	resp := handlertest.Do(t, app, fiber.MethodGet, Path+"/auth/user", "", nil)
	assert.Equal(t, fiber.StatusUnauthorized, resp.Status)
}

func TestConfigurationsAreMasked(t *testing.T) {
	fx, app := setup(t)

	resp := handlertest.Do(t, app, fiber.MethodGet, Path+"/configurations", "", handlertest.Bearer("alice"))
	require.Equal(t, fiber.StatusOK, resp.Status)
	assert.EqualValues(t, 1, fx.IssuanceCalls.Load())

	var got models.ServiceConfiguration
	resp.Decode(t, &got)
	require.NotNil(t, got.LLM)
	require.NotNil(t, got.TTS)
	require.NotNil(t, got.STT)

	assert.Equal(t, "dograh", got.LLM.Provider)
	assert.Equal(t, "default", got.TTS.Voice)
	assert.NotContains(t, string(resp.Body), handlertest.ServiceKey)
	assert.Equal(t, "****"+handlertest.ServiceKey[len(handlertest.ServiceKey)-4:], got.STT.APIKey)
}
