// Package daemon wires configuration, persistence, identity providers and the
// web transport into a runnable service.
package daemon

import (
	"context"
	"fmt"
	"io"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/tenantgate/tenantgate/internal/auth"
	"github.com/tenantgate/tenantgate/internal/config"
	"github.com/tenantgate/tenantgate/internal/db/controller/credential"
	"github.com/tenantgate/tenantgate/internal/db/dsn"
	"github.com/tenantgate/tenantgate/internal/issuance"
	"github.com/tenantgate/tenantgate/internal/web"
	"github.com/tenantgate/tenantgate/internal/web/handler"
)

// Daemon represents the main application daemon.
type Daemon struct {
	cfg        *config.Config
	db         *gorm.DB
	webService *web.Service
	closers    []io.Closer
}

// Start serves until SIGINT or SIGTERM and releases all resources afterwards.
func (d *Daemon) Start() error {
	go func() {
		_ = d.webService.Start(fmt.Sprintf(":%d", d.cfg.Webserver.Port))
	}()

	log.Info().Int("port", d.cfg.Webserver.Port).Str("mode", d.cfg.DeploymentMode).Msg("tenantgate started")

	d.webService.WaitShutdown()

	return d.Close()
}

// Close releases the identity cache and the database connection.
func (d *Daemon) Close() error {
	for _, c := range d.closers {
		if err := c.Close(); err != nil {
			log.Warn().Err(err).Msg("failed to close resource")
		}
	}

	sqlDB, err := d.db.DB()
	if err != nil {
		return errors.Wrap(err, "failed to get database handle")
	}

	return errors.Wrap(sqlDB.Close(), "failed to close database")
}

// OpenStore connects the configured database, migrates it and returns the credential store.
func OpenStore(ctx context.Context, cfg *config.Config) (*credential.Store, *gorm.DB, error) {
	db, err := dsn.Open(cfg)
	if err != nil {
		return nil, nil, err //nolint:wrapcheck
	}

	if err = credential.Migrate(ctx, db); err != nil {
		return nil, nil, err //nolint:wrapcheck
	}

	store, err := credential.New(db)
	if err != nil {
		return nil, nil, err //nolint:wrapcheck
	}

	return store, db, nil
}

// New creates a new Daemon instance with the provided configuration.
func New(ctx context.Context, cfg *config.Config) (_ *Daemon, err error) {
	if cfg == nil {
		return nil, errors.New("config is nil")
	}

	store, db, err := OpenStore(ctx, cfg)
	if err != nil {
		return nil, err
	}

	d := &Daemon{cfg: cfg, db: db}

	defer func() {
		if err != nil {
			_ = d.Close()
		}
	}()

	if err = seed(ctx, cfg, store); err != nil {
		return nil, err
	}

	idp, closer, err := identityProvider(ctx, cfg)
	if err != nil {
		return nil, err
	}

	if closer != nil {
		d.closers = append(d.closers, closer)
	}

	issuer, err := issuance.New(cfg.Issuance.URL, cfg.Issuance.Timeout)
	if err != nil {
		return nil, err //nolint:wrapcheck
	}

	mode := auth.DeploymentMode(cfg.DeploymentMode)

	provisioner := auth.NewProvisioner(issuer, auth.ProvisionerConfig{
		Mode:         mode,
		SecretKey:    cfg.Issuance.SecretKey,
		ProviderName: cfg.Issuance.ProviderName,
		KeyName:      cfg.Issuance.KeyName,
	})

	if mode == auth.ModeHosted && cfg.Issuance.SecretKey == "" {
		log.Warn().Msg("issuance secret key is not set, new organizations will fail to resolve")
	}

	d.webService = web.New(cfg, &handler.Deps{
		Resolver:    auth.NewResolver(store, idp, auth.NewTenantBinder(store, provisioner), mode),
		Store:       store,
		Provisioner: provisioner,
	})

	return d, nil
}

// seed creates the configured superusers.
func seed(ctx context.Context, cfg *config.Config, store *credential.Store) error {
	for _, providerID := range cfg.Auth.Superusers {
		user, err := store.MarkSuperuser(ctx, providerID)
		if err != nil {
			return errors.Wrap(err, "failed to seed superuser")
		}

		log.Info().Uint64("user_id", user.ID).Msg("superuser seeded")
	}

	return nil
}
