// Package web provides the HTTP and websocket transport of the service.
package web

import (
	"errors"
	"net/http"
	"os"
	"os/signal"
	"path"
	"strings"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/tenantgate/tenantgate/internal/config"
	accesslog "github.com/tenantgate/tenantgate/internal/logger/adapter/fiber"
	"github.com/tenantgate/tenantgate/internal/web/handler"
	"github.com/tenantgate/tenantgate/internal/web/handler/apikey"
	"github.com/tenantgate/tenantgate/internal/web/handler/servicekey"
	"github.com/tenantgate/tenantgate/internal/web/handler/session"
	"github.com/tenantgate/tenantgate/internal/web/handler/superuser"
	"github.com/tenantgate/tenantgate/internal/web/handler/user"
	"github.com/tenantgate/tenantgate/internal/web/handler/ws"
	authmiddleware "github.com/tenantgate/tenantgate/internal/web/middleware/auth"
)

// Service represents the web service.
type Service struct {
	App          *fiber.App
	cfg          *config.Config
	fastShutDown bool
	alive        atomic.Bool
}

// Start starts the web service on the given address.
func (s *Service) Start(addr string) error {
	var doneFiber = make(chan bool)

	go func() {
		if err := s.App.Listen(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Msgf("fiber listen error: %v", err)
		}

		doneFiber <- true
	}()

	<-doneFiber // wait for fiber to stop

	return nil
}

// WaitShutdown waits for SIGINT or SIGTERM and shuts the server down gracefully.
func (s *Service) WaitShutdown() {
	irqSig := make(chan os.Signal, 1)
	signal.Notify(irqSig, syscall.SIGINT, syscall.SIGTERM)

	sig := <-irqSig
	log.Info().Msgf("shutdown request (signal: %v)", sig)

	// Graceful shutdown for reverse proxies: set status to fail, so checkalive returns fail.
	if !s.fastShutDown {
		log.Info().Msgf(
			"graceful shutdown: return 503 while %d seconds to let LB to remove this pod from active targets",
			s.cfg.Webserver.ShutDownTime,
		)

		s.alive.Store(false)
		time.Sleep(time.Duration(s.cfg.Webserver.ShutDownTime) * time.Second)
	}

	// stop fiber http server
	serverShutdown := make(chan struct{})

	go func() {
		log.Info().Msg("stopping http server ...")

		err := s.App.Shutdown()
		if err != nil {
			log.Error().Err(err).Msg("")
		}

		serverShutdown <- struct{}{}
	}()

	<-serverShutdown
	log.Info().Msg("http server was stopped ... good bye...")
}

// New creates a new web service with the given configuration.
func New(cfg *config.Config, deps *handler.Deps) *Service {
	if cfg == nil {
		panic("config cannot be nil")
	}

	if deps == nil || deps.Resolver == nil || deps.Store == nil {
		panic("deps cannot be nil")
	}

	// create fiber app
	app := fiber.New(
		fiber.Config{
			ReadBufferSize:        8192,
			AppName:               cfg.Title,
			CaseSensitive:         true,
			Prefork:               false,
			Immutable:             true,
			DisableStartupMessage: !cfg.DevMode,
			ErrorHandler:          handler.ErrorHandler,
		},
	)

	service := &Service{
		cfg: cfg,
		App: app,
	}
	service.alive.Store(true)

	if !cfg.Webserver.DisableRecover {
		app.Use(recover.New(recover.Config{EnableStackTrace: cfg.DevMode}))
	}

	if cfg.Webserver.CleanPath {
		app.Use(cleanPath)
	}

	app.Use(accesslog.New(accesslog.Config{
		Log:           cfg.Log,
		CheckAliveURI: cfg.Webserver.CheckAliveURI,
		Fields:        accessLogFields,
	}))

	app.Get(cfg.Webserver.CheckAliveURI, service.checkAlive)

	if cfg.Webserver.MetricsURI != "" {
		app.Get(cfg.Webserver.MetricsURI, adaptor.HTTPHandler(promhttp.Handler()))
	}

	// init handlers (they register their own routes with auth checks)
	user.Handler.Init(app, cfg, deps)
	apikey.Handler.Init(app, cfg, deps)
	session.Handler.Init(app, cfg, deps)
	superuser.Handler.Init(app, cfg, deps)
	ws.Handler.Init(app, cfg, deps)

	if deps.Provisioner != nil {
		servicekey.Handler.Init(app, cfg, deps)
	}

	return service
}

func (s *Service) checkAlive(c *fiber.Ctx) error {
	if !s.alive.Load() {
		return c.Status(fiber.StatusServiceUnavailable).SendString("shutting down")
	}

	return c.SendString("OK")
}

// cleanPath collapses duplicate slashes before routing.
func cleanPath(c *fiber.Ctx) error {
	if p := c.Path(); strings.Contains(p, "//") {
		c.Path(path.Clean(p))
	}

	return c.Next()
}

// accessLogFields adds the resolved caller to the access log entry.
func accessLogFields(c *fiber.Ctx, e *zerolog.Event) {
	u := authmiddleware.CurrentUser(c)
	if u == nil {
		return
	}

	e.Uint64("user_id", u.ID)

	if u.SelectedOrganizationID != nil {
		e.Uint64("organization_id", *u.SelectedOrganizationID)
	}
}
