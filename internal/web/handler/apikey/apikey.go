// Package apikey provides management of the API keys of the caller's selected organization.
package apikey

import (
	"context"
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/tenantgate/tenantgate/internal/auth"
	"github.com/tenantgate/tenantgate/internal/config"
	"github.com/tenantgate/tenantgate/internal/db/controller/credential"
	"github.com/tenantgate/tenantgate/internal/db/models"
	"github.com/tenantgate/tenantgate/internal/web/handler"
	authmiddleware "github.com/tenantgate/tenantgate/internal/web/middleware/auth"
)

const (
	// Path is the base path for API key management.
	Path = handler.APIPath + "user/api-keys"

	detailNoOrganization = "No organization selected"
	detailKeyNotFound    = "API key not found"
	detailInvalidID      = "Invalid API key id"
)

// CreateRequest is the body of a create call.
type CreateRequest struct {
	Name string `json:"name" validate:"required,max=255"`
}

// CreateResponse carries the stored key and its plaintext, which is shown only once.
type CreateResponse struct {
	models.APIKey
	Plaintext string `json:"api_key"`
}

// Service provides API key CRUD.
type Service struct {
	handler.Service
	cfg       *config.Config
	store     *credential.Store
	validator *validator.Validate
}

// Handler is the exported instance.
var Handler = Service{}

// Init registers routes.
func (s *Service) Init(app *fiber.App, cfg *config.Config, deps *handler.Deps) {
	if app == nil || cfg == nil || deps == nil {
		log.Fatal().Msg(handler.ErrNilACDFatalLogMsg)
		return
	}

	s.cfg = cfg
	s.store = deps.Store
	s.validator = validator.New()

	requireUser := authmiddleware.RequireUser(deps.Resolver)

	app.Get(Path, requireUser, s.List)
	app.Post(Path, requireUser, s.Create)
	app.Delete(Path+"/:id", requireUser, s.Archive)
	app.Put(Path+"/:id/reactivate", requireUser, s.Reactivate)
}

// List returns the organization's keys, archived ones with ?include_archived=true.
func (s *Service) List(c *fiber.Ctx) error {
	user, orgID, err := scope(c)
	if err != nil {
		return err
	}

	keys, err := s.store.ListAPIKeys(c.UserContext(), orgID, c.QueryBool("include_archived", false))
	if err != nil {
		return err //nolint:wrapcheck
	}

	log.Debug().Uint64("user_id", user.ID).Uint64("organization_id", orgID).Int("count", len(keys)).
		Msg("listed api keys")

	return c.JSON(keys)
}

// Create stores a new key with the configured default TTL.
func (s *Service) Create(c *fiber.Ctx) error {
	user, orgID, err := scope(c)
	if err != nil {
		return err
	}

	var req CreateRequest
	if err = c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	if err = s.validator.Struct(req); err != nil {
		return fiber.NewError(fiber.StatusUnprocessableEntity, err.Error())
	}

	createdBy := user.ID

	key, plaintext, err := s.store.CreateAPIKey(c.UserContext(), orgID, &createdBy, req.Name, s.cfg.Auth.APIKeyTTL)
	if err != nil {
		return err //nolint:wrapcheck
	}

	log.Info().Uint64("user_id", user.ID).Uint64("organization_id", orgID).Str("key_prefix", key.KeyPrefix).
		Msg("api key created")

	return c.Status(fiber.StatusCreated).JSON(CreateResponse{APIKey: *key, Plaintext: plaintext})
}

// Archive deactivates a key.
func (s *Service) Archive(c *fiber.Ctx) error {
	return s.update(c, s.store.ArchiveAPIKey, "api key archived")
}

// Reactivate reverts Archive.
func (s *Service) Reactivate(c *fiber.Ctx) error {
	return s.update(c, s.store.ReactivateAPIKey, "api key reactivated")
}

type updateFunc func(ctx context.Context, orgID, keyID uint64) (*models.APIKey, error)

func (s *Service) update(c *fiber.Ctx, fn updateFunc, msg string) error {
	user, orgID, err := scope(c)
	if err != nil {
		return err
	}

	id, err := c.ParamsInt("id")
	if err != nil || id < 1 {
		return fiber.NewError(fiber.StatusBadRequest, detailInvalidID)
	}

	key, err := fn(c.UserContext(), orgID, uint64(id))
	if err != nil {
		if errors.Is(err, credential.ErrAPIKeyNotFound) {
			return fiber.NewError(fiber.StatusNotFound, detailKeyNotFound)
		}

		return err //nolint:wrapcheck
	}

	log.Info().Uint64("user_id", user.ID).Uint64("organization_id", orgID).Uint64("api_key_id", key.ID).Msg(msg)

	return c.JSON(key)
}

// scope returns the caller and the organization its keys belong to.
func scope(c *fiber.Ctx) (*models.User, uint64, error) {
	user := authmiddleware.CurrentUser(c)
	if user.SelectedOrganizationID == nil {
		return nil, 0, auth.BadRequest(detailNoOrganization)
	}

	return user, *user.SelectedOrganizationID, nil
}
