// Package superuser provides endpoints restricted to superusers.
package superuser

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/tenantgate/tenantgate/internal/config"
	"github.com/tenantgate/tenantgate/internal/db/controller/credential"
	"github.com/tenantgate/tenantgate/internal/db/models"
	"github.com/tenantgate/tenantgate/internal/web/handler"
	authmiddleware "github.com/tenantgate/tenantgate/internal/web/middleware/auth"
)

// Path is the base path of superuser endpoints.
const Path = handler.APIPath + "superuser"

// UserSummary is a listed user. The provider id is left out: in self-hosted
// mode it is the user's bearer token.
type UserSummary struct {
	ID                     uint64    `json:"id"`
	SelectedOrganizationID *uint64   `json:"selected_organization_id"`
	IsSuperuser            bool      `json:"is_superuser"`
	CreatedAt              time.Time `json:"created_at"`
	UpdatedAt              time.Time `json:"updated_at"`
}

func summarize(users []models.User) []UserSummary {
	out := make([]UserSummary, 0, len(users))

	for i := range users {
		u := &users[i]
		out = append(out, UserSummary{
			ID:                     u.ID,
			SelectedOrganizationID: u.SelectedOrganizationID,
			IsSuperuser:            u.IsSuperuser,
			CreatedAt:              u.CreatedAt,
			UpdatedAt:              u.UpdatedAt,
		})
	}

	return out
}

// UserPage is one page of the user list.
type UserPage struct {
	Users      []UserSummary `json:"users"`
	Page       int           `json:"page"`
	PageSize   int           `json:"page_size"`
	TotalCount int64         `json:"total_count"`
	TotalPages int64         `json:"total_pages"`
}

// Service serves superuser endpoints.
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

	app.Get(Path+"/users", authmiddleware.RequireSuperuser(deps.Resolver), s.ListUsers)
}

// ListUsers returns users ordered by id with simple pagination.
func (s *Service) ListUsers(c *fiber.Ctx) error {
	page, pageSize := handler.Pagination(c)

	users, total, err := s.store.ListUsers(c.UserContext(), (page-1)*pageSize, pageSize)
	if err != nil {
		return err //nolint:wrapcheck
	}

	totalPages := (total + int64(pageSize) - 1) / int64(pageSize)

	return c.JSON(UserPage{
		Users:      summarize(users),
		Page:       page,
		PageSize:   pageSize,
		TotalCount: total,
		TotalPages: totalPages,
	})
}
