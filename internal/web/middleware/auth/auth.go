package auth

import (
	"github.com/gofiber/fiber/v2"

	"github.com/tenantgate/tenantgate/internal/auth"
	"github.com/tenantgate/tenantgate/internal/db/models"
)

const (
	// HeaderAPIKey carries an organization API key.
	HeaderAPIKey = "X-API-Key"

	localsUser = "CurrentUser"
)

// Credentials extracts the request credentials from the headers.
func Credentials(c *fiber.Ctx) auth.Credentials {
	return auth.Credentials{
		Authorization: c.Get(fiber.HeaderAuthorization),
		APIKey:        c.Get(HeaderAPIKey),
	}
}

// RequireUser rejects requests that do not resolve to a user.
func RequireUser(resolver *auth.Resolver) fiber.Handler {
	return func(c *fiber.Ctx) error {
		user, err := resolver.Resolve(c.UserContext(), Credentials(c))
		if err != nil {
			return err
		}

		c.Locals(localsUser, user)

		return c.Next()
	}
}

// RequireSuperuser rejects requests that do not resolve to a superuser.
func RequireSuperuser(resolver *auth.Resolver) fiber.Handler {
	return func(c *fiber.Ctx) error {
		user, err := resolver.ResolveSuperuser(c.UserContext(), Credentials(c))
		if err != nil {
			return err
		}

		c.Locals(localsUser, user)

		return c.Next()
	}
}

// OptionalUser resolves the user if the request authenticates and continues
// anonymously otherwise. Failures other than missing or invalid credentials
// still abort the request.
func OptionalUser(resolver *auth.Resolver) fiber.Handler {
	return func(c *fiber.Ctx) error {
		user, err := resolver.ResolveOptional(c.UserContext(), Credentials(c))
		if err != nil {
			return err
		}

		if user != nil {
			c.Locals(localsUser, user)
		}

		return c.Next()
	}
}

// CurrentUser returns the user stored by the middleware, nil for anonymous requests.
func CurrentUser(c *fiber.Ctx) *models.User {
	user, _ := c.Locals(localsUser).(*models.User)

	return user
}
