// Package servicekey lets members request an additional service key for their organization.
package servicekey

import (
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/tenantgate/tenantgate/internal/auth"
	"github.com/tenantgate/tenantgate/internal/config"
	"github.com/tenantgate/tenantgate/internal/web/handler"
	authmiddleware "github.com/tenantgate/tenantgate/internal/web/middleware/auth"
)

const (
	// Path of the service key endpoint.
	Path = handler.APIPath + "user/service-keys"

	detailNoOrganization = "No organization selected"
	detailIssuanceFailed = "Failed to create service key"
)

// CreateRequest is the body of a create call. An empty name uses the configured key name.
type CreateRequest struct {
	Name string `json:"name" validate:"max=255"`
}

// CreateResponse carries the issued key.
type CreateResponse struct {
	ServiceKey string `json:"service_key"`
}

// Service issues service keys through the provisioner.
type Service struct {
	handler.Service
	provisioner *auth.Provisioner
	validator   *validator.Validate
}

// Handler is the exported instance.
var Handler = Service{}

// Init registers routes.
func (s *Service) Init(app *fiber.App, cfg *config.Config, deps *handler.Deps) {
	if app == nil || cfg == nil || deps == nil || deps.Provisioner == nil {
		log.Fatal().Msg(handler.ErrNilACDFatalLogMsg)
		return
	}

	s.provisioner = deps.Provisioner
	s.validator = validator.New()

	app.Post(Path, authmiddleware.RequireUser(deps.Resolver), s.Create)
}

// Create issues a key for the caller's selected organization.
func (s *Service) Create(c *fiber.Ctx) error {
	user := authmiddleware.CurrentUser(c)
	if user.SelectedOrganizationID == nil {
		return auth.BadRequest(detailNoOrganization)
	}

	var req CreateRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
		}
	}

	if err := s.validator.Struct(req); err != nil {
		return fiber.NewError(fiber.StatusUnprocessableEntity, err.Error())
	}

	orgID := *user.SelectedOrganizationID

	key, err := s.provisioner.CreateServiceKey(c.UserContext(), orgID, user.ProviderID, req.Name)
	if err != nil {
		log.Error().Err(err).Uint64("user_id", user.ID).Uint64("organization_id", orgID).
			Msg("service key request failed")

		return fiber.NewError(fiber.StatusBadGateway, detailIssuanceFailed)
	}

	log.Info().Uint64("user_id", user.ID).Uint64("organization_id", orgID).Msg("service key issued")

	return c.Status(fiber.StatusCreated).JSON(CreateResponse{ServiceKey: key})
}
