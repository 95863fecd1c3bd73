// Package session provides the public session endpoint. Anonymous callers get
// a response too, only failures other than missing credentials are errors.
package session

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/tenantgate/tenantgate/internal/config"
	"github.com/tenantgate/tenantgate/internal/db/models"
	"github.com/tenantgate/tenantgate/internal/web/handler"
	authmiddleware "github.com/tenantgate/tenantgate/internal/web/middleware/auth"
)

// Path of the session endpoint.
const Path = handler.APIPath + "public/session"

// Response describes the caller.
type Response struct {
	Authenticated bool         `json:"authenticated"`
	User          *models.User `json:"user"`
}

// Service serves the session endpoint.
type Service struct {
	handler.Service
}

// Handler is the exported instance.
var Handler = Service{}

// Init registers routes.
func (s *Service) Init(app *fiber.App, cfg *config.Config, deps *handler.Deps) {
	if app == nil || cfg == nil || deps == nil {
		log.Fatal().Msg(handler.ErrNilACDFatalLogMsg)
		return
	}

	app.Get(Path, authmiddleware.OptionalUser(deps.Resolver), s.Get)
}

// Get reports whether the request authenticated and as whom.
func (s *Service) Get(c *fiber.Ctx) error {
	user := authmiddleware.CurrentUser(c)

	return c.JSON(Response{Authenticated: user != nil, User: user})
}
