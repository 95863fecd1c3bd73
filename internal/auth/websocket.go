package auth

import (
	"context"
	"errors"

	"github.com/rs/zerolog/log"

	"github.com/tenantgate/tenantgate/internal/db/models"
)

const (
	// ClosePolicyViolation is the websocket close code sent on failed authentication.
	ClosePolicyViolation = 1008

	detailMissingToken = "Missing authentication token"
)

// Closer closes a websocket connection with a close frame.
type Closer interface {
	Close(code int, reason string) error
}

// ResolveWebSocket authenticates a websocket handshake from its query values.
// On failure conn is closed with ClosePolicyViolation and the failure detail
// before the error is returned.
func (r *Resolver) ResolveWebSocket(ctx context.Context, conn Closer, token, apiKey string) (*models.User, error) {
	if token == "" && apiKey == "" {
		closeConn(conn, detailMissingToken)

		return nil, Unauthenticated(detailMissingToken)
	}

	creds := Credentials{APIKey: apiKey}
	if apiKey == "" {
		creds.Authorization = "Bearer " + token
	}

	user, err := r.Resolve(ctx, creds)
	if err != nil {
		closeConn(conn, detailOf(err))

		return nil, err
	}

	return user, nil
}

func closeConn(conn Closer, reason string) {
	if err := conn.Close(ClosePolicyViolation, reason); err != nil {
		log.Debug().Err(err).Msg("failed to close websocket")
	}
}

func detailOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Error()
	}

	return err.Error()
}
