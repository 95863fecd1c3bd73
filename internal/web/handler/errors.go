package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/tenantgate/tenantgate/internal/auth"
)

// ErrorResponse is the JSON body of every failed request.
type ErrorResponse struct {
	Detail string `json:"detail"`
}

// ErrorHandler renders errors returned by handlers and middleware as ErrorResponse.
// Classified authentication errors keep their status and detail.
func ErrorHandler(c *fiber.Ctx, err error) error {
	var (
		authErr  *auth.Error
		fiberErr *fiber.Error
	)

	switch {
	case errors.As(err, &authErr):
		if authErr.Kind == auth.KindInternal {
			log.Error().Err(err).Str("path", c.Path()).Msg("request failed")
		}

		return c.Status(authErr.Status()).JSON(ErrorResponse{Detail: authErr.Error()})
	case errors.As(err, &fiberErr):
		return c.Status(fiberErr.Code).JSON(ErrorResponse{Detail: fiberErr.Message})
	default:
		log.Error().Err(err).Str("path", c.Path()).Msg("request failed")

		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{Detail: "Internal server error"})
	}
}
