package servicekey

import (
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tenantgate/tenantgate/internal/auth"
	"github.com/tenantgate/tenantgate/internal/issuance"
	"github.com/tenantgate/tenantgate/internal/web/handler/handlertest"
)

func TestCreate(t *testing.T) {
	fx := handlertest.New(t)
	app := handlertest.App()

	s := &Service{}
	s.Init(app, fx.Config, fx.Deps)

	tests := []struct {
		name string
		body string
	}{
		{"named", `{"name":"batch jobs"}`},
		{"default name", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := handlertest.Do(t, app, fiber.MethodPost, Path, tt.body, handlertest.Bearer("alice"))
			require.Equal(t, fiber.StatusCreated, resp.Status, string(resp.Body))

			var got CreateResponse
			resp.Decode(t, &got)
			assert.Equal(t, handlertest.ServiceKey, got.ServiceKey)
		})
	}

	// one provisioning on first use plus one call per request
	assert.EqualValues(t, 3, fx.IssuanceCalls.Load())
}

func TestCreateNameTooLong(t *testing.T) {
	fx := handlertest.New(t)
	app := handlertest.App()

	s := &Service{}
	s.Init(app, fx.Config, fx.Deps)

	body := `{"name":"` + strings.Repeat("x", 256) + `"}`
	resp := handlertest.Do(t, app, fiber.MethodPost, Path, body, handlertest.Bearer("alice"))
	assert.Equal(t, fiber.StatusUnprocessableEntity, resp.Status)
}

func TestCreateIssuanceUnavailable(t *testing.T) {
	fx := handlertest.New(t)
	app := handlertest.App()

	// port 9 is discard, nothing answers there
	client, err := issuance.New("http://127.0.0.1:9", 0)
	require.NoError(t, err)

	deps := *fx.Deps
	deps.Provisioner = auth.NewProvisioner(client, auth.ProvisionerConfig{Mode: auth.ModeOSS})

	s := &Service{}
	s.Init(app, fx.Config, &deps)

	resp := handlertest.Do(t, app, fiber.MethodPost, Path, "", handlertest.Bearer("alice"))
	assert.Equal(t, fiber.StatusBadGateway, resp.Status)
}
