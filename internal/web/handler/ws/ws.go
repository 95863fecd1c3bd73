// Package ws provides the authenticated websocket session endpoint.
//
// Credentials are taken from the token and api_key query values because
// browsers can not set headers on websocket handshakes. The connection is
// accepted first and closed with policy violation (1008) if they do not
// resolve. An authenticated connection receives one session frame and then
// echoes text frames back.
package ws

import (
	"context"
	"time"
	"unicode/utf8"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/tenantgate/tenantgate/internal/auth"
	"github.com/tenantgate/tenantgate/internal/config"
	"github.com/tenantgate/tenantgate/internal/db/models"
	"github.com/tenantgate/tenantgate/internal/web/handler"
)

const (
	// Path of the websocket endpoint.
	Path = handler.RootPath + "ws/v1/session"

	// control frames carry at most 125 bytes, two of them are the close code
	maxCloseReason = 123

	writeWait      = 5 * time.Second
	resolveTimeout = 15 * time.Second
)

// Frame is the first message of an authenticated connection.
type Frame struct {
	Type string       `json:"type"`
	User *models.User `json:"user"`
}

// Service serves the websocket endpoint.
type Service struct {
	handler.Service
	resolver *auth.Resolver
}

// Handler is the exported instance.
var Handler = Service{}

// Init registers routes.
func (s *Service) Init(app *fiber.App, cfg *config.Config, deps *handler.Deps) {
	if app == nil || cfg == nil || deps == nil {
		log.Fatal().Msg(handler.ErrNilACDFatalLogMsg)
		return
	}

	s.resolver = deps.Resolver

	app.Use(Path, requireUpgrade)
	app.Get(Path, websocket.New(s.Session))
}

func requireUpgrade(c *fiber.Ctx) error {
	if !websocket.IsWebSocketUpgrade(c) {
		return fiber.ErrUpgradeRequired
	}

	return c.Next()
}

// Session authenticates the connection and runs the echo loop.
func (s *Service) Session(conn *websocket.Conn) {
	ctx, cancel := context.WithTimeout(context.Background(), resolveTimeout)
	user, err := s.resolver.ResolveWebSocket(ctx, closer{conn: conn}, conn.Query("token"), conn.Query("api_key"))
	cancel()

	if err != nil {
		log.Debug().Err(err).Msg("websocket authentication failed")
		return
	}

	logger := log.With().Uint64("user_id", user.ID).Logger()

	if err = conn.WriteJSON(Frame{Type: "session", User: user}); err != nil {
		logger.Debug().Err(err).Msg("failed to send session frame")
		return
	}

	for {
		mt, msg, rerr := conn.ReadMessage()
		if rerr != nil {
			if websocket.IsUnexpectedCloseError(rerr, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				logger.Debug().Err(rerr).Msg("websocket read failed")
			}

			return
		}

		if mt != websocket.TextMessage {
			continue
		}

		if err = conn.WriteMessage(mt, msg); err != nil {
			logger.Debug().Err(err).Msg("websocket write failed")
			return
		}
	}
}

// closer sends a close frame before the connection is dropped.
type closer struct {
	conn *websocket.Conn
}

func (w closer) Close(code int, reason string) error {
	err := w.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(code, truncateReason(reason)), time.Now().Add(writeWait))
	if err != nil {
		return err //nolint:wrapcheck
	}

	return w.conn.Close() //nolint:wrapcheck
}

// truncateReason cuts reason to maxCloseReason bytes on a rune boundary.
func truncateReason(reason string) string {
	if len(reason) <= maxCloseReason {
		return reason
	}

	cut := maxCloseReason
	for cut > 0 && !utf8.RuneStart(reason[cut]) {
		cut--
	}

	return reason[:cut]
}
