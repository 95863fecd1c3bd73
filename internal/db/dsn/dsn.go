// Package dsn provides Data Source Name construction utilities for database connections.
package dsn

import (
	"fmt"
	"net/url"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	gormmysql "gorm.io/driver/mysql"
	gormpostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/tenantgate/tenantgate/internal/config"
	"github.com/tenantgate/tenantgate/internal/logger/adapter/stdlogger"
)

// ErrUnknownEngine is returned for a GormEngine without a driver.
var ErrUnknownEngine = errors.New("unknown gorm engine")

// Create builds the Data Source Name from the configuration.
func Create(dbCfg *config.Config) string {
	switch dbCfg.DB.GormEngine {
	case config.EnginePostgres:
		return Postgres(&dbCfg.DB)
	case config.EngineSQLite:
		return dbCfg.DB.Path
	default:
		return MySQL(&dbCfg.DB)
	}
}

// MySQL builds a go-sql-driver style DSN.
func MySQL(db *config.DB) string {
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?%s",
		db.User,
		db.Password,
		db.Host,
		db.Port,
		db.Name,
		db.Extras,
	)
}

// Postgres builds a postgres connection URI. Extras is appended as query string.
func Postgres(db *config.DB) string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(db.User, db.Password),
		Host:     fmt.Sprintf("%s:%d", db.Host, db.Port),
		Path:     "/" + db.Name,
		RawQuery: db.Extras,
	}

	return u.String()
}

// Dialector returns the gorm dialector matching the configured engine.
func Dialector(cfg *config.Config) (gorm.Dialector, error) {
	switch cfg.DB.GormEngine {
	case config.EngineMySQL:
		return gormmysql.Open(MySQL(&cfg.DB)), nil
	case config.EnginePostgres:
		return gormpostgres.Open(Postgres(&cfg.DB)), nil
	case config.EngineSQLite:
		return sqlite.Open(cfg.DB.Path), nil
	default:
		return nil, errors.Wrap(ErrUnknownEngine, cfg.DB.GormEngine)
	}
}

// Open connects to the configured database. Statements are logged through zerolog
// at debug level when LogQueries is set, slow queries and errors are always warned about.
func Open(cfg *config.Config) (*gorm.DB, error) {
	dialector, err := Dialector(cfg)
	if err != nil {
		return nil, err
	}

	level := gormlogger.Warn
	if cfg.DB.LogQueries {
		level = gormlogger.Info
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: gormlogger.New(
			stdlogger.NewComponent("gorm", zerolog.DebugLevel),
			gormlogger.Config{
				SlowThreshold:             200 * time.Millisecond,
				LogLevel:                  level,
				IgnoreRecordNotFoundError: true,
			},
		),
	})
	if err != nil {
		return nil, errors.Wrapf(err, "failed to connect %s database", cfg.DB.GormEngine)
	}

	return db, nil
}
