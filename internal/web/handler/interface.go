package handler

import (
	"github.com/gofiber/fiber/v2"

	"github.com/tenantgate/tenantgate/internal/auth"
	"github.com/tenantgate/tenantgate/internal/config"
	"github.com/tenantgate/tenantgate/internal/db/controller/credential"
)

// Deps are the shared services handlers are built from.
type Deps struct {
	Resolver    *auth.Resolver
	Store       *credential.Store
	Provisioner *auth.Provisioner
}

// Service is the interface for a web handler service.
type Service interface {
	Init(app *fiber.App, cfg *config.Config, deps *Deps)
}
