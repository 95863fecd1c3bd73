// Package user provides the endpoints describing the authenticated caller.
package user

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/tenantgate/tenantgate/internal/config"
	"github.com/tenantgate/tenantgate/internal/db/controller/credential"
	"github.com/tenantgate/tenantgate/internal/web/handler"
	authmiddleware "github.com/tenantgate/tenantgate/internal/web/middleware/auth"
)

const (
	// Path is the base path of the user endpoints.
	Path = handler.APIPath + "user"
)

// Service serves the current user and its service configuration.
type Service struct {
	handler.Service
	store *credential.Store
}

// Handler is the exported instance.
var Handler = Service{}

// Init registers routes.
func (s *Service) Init(app *fiber.App, cfg *config.Config, deps *handler.Deps) {
	if app == nil || cfg == nil || deps == nil {
		log.Fatal().Msg(handler.ErrNilACDFatalLogMsg)
		return
	}

	s.store = deps.Store

	requireUser := authmiddleware.RequireUser(deps.Resolver)

	app.Get(Path+"/auth/user", requireUser, s.Me)
	app.Get(Path+"/configurations", requireUser, s.Configurations)
}

// Me returns the resolved user with its selected organization.
func (s *Service) Me(c *fiber.Ctx) error {
	return c.JSON(authmiddleware.CurrentUser(c))
}

// Configurations returns the caller's service configuration with key material masked.
func (s *Service) Configurations(c *fiber.Ctx) error {
	user := authmiddleware.CurrentUser(c)

	cfg, err := s.store.GetUserConfigurations(c.UserContext(), user.ID)
	if err != nil {
		return err //nolint:wrapcheck
	}

	return c.JSON(cfg.Masked())
}
