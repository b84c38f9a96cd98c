// Package daemon wires the database, the session stores, the OAuth
// providers and the web service together.
package daemon

import (
	"context"
	"fmt"

	"github.com/glebarez/sqlite"
	sessionmemory "github.com/gofiber/storage/memory/v2"
	sessionmysql "github.com/gofiber/storage/mysql/v2"
	sessionpostgres "github.com/gofiber/storage/postgres/v3"
	"github.com/gofiber/storage"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	gormmysql "gorm.io/driver/mysql"
	gormpostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/LestDomzEDU/Project-3-Back-End/internal/auth"
	"github.com/LestDomzEDU/Project-3-Back-End/internal/config"
	"github.com/LestDomzEDU/Project-3-Back-End/internal/db/dsn"
	"github.com/LestDomzEDU/Project-3-Back-End/internal/db/models"
	"github.com/LestDomzEDU/Project-3-Back-End/internal/logger"
	"github.com/LestDomzEDU/Project-3-Back-End/internal/web"
	"github.com/LestDomzEDU/Project-3-Back-End/internal/web/session"
)

// Daemon represents the main application daemon.
type Daemon struct {
	cfg        *config.Config
	webService *web.Service
}

// Start starts the Daemon's web service and blocks until shutdown.
func (d *Daemon) Start() error {
	go d.webService.WaitShutdown()

	return d.webService.Start(fmt.Sprintf(":%d", d.cfg.Webserver.Port))
}

// New creates a new Daemon instance with the provided configuration.
func New(cfg *config.Config) (*Daemon, error) {
	if cfg == nil {
		return nil, errors.New("config is nil")
	}

	if err := logger.Init(cfg.Log); err != nil {
		return nil, errors.Wrap(err, "failed to init logger")
	}

	db, err := openDatabase(cfg)
	if err != nil {
		return nil, err
	}

	if err = db.AutoMigrate(&models.Account{}); err != nil {
		return nil, errors.Wrap(err, "failed to migrate database")
	}

	sessions, states := openStores(cfg)
	session.Init(sessions, states)

	registry := buildRegistry(cfg)
	if len(registry.Names()) == 0 {
		return nil, config.ErrNoProviderEnabled
	}

	log.Info().Strs("providers", registry.Names()).Msg("login providers ready")

	return &Daemon{
		cfg:        cfg,
		webService: web.New(cfg, db, registry),
	}, nil
}

// openDatabase opens gorm on the configured driver. TranslateError is
// on so unique violations surface as gorm.ErrDuplicatedKey on every
// driver.
func openDatabase(cfg *config.Config) (*gorm.DB, error) {
	var dialector gorm.Dialector

	switch cfg.DB.Driver {
	case "mysql":
		dialector = gormmysql.Open(dsn.Create(cfg))
	case "postgres":
		dialector = gormpostgres.Open(dsn.Create(cfg))
	default:
		dialector = sqlite.Open(dsn.Create(cfg))
	}

	db, err := gorm.Open(dialector, &gorm.Config{TranslateError: true})
	if err != nil {
		return nil, errors.Wrap(err, "failed to connect database")
	}

	return db, nil
}

// openStores picks the session and state storage backends to match the
// database driver; anything else falls back to in-process memory.
func openStores(cfg *config.Config) (sessions, states storage.Storage) {
	switch cfg.DB.Driver {
	case "mysql":
		return sessionmysql.New(sessionmysql.Config{
				ConnectionURI: dsn.Create(cfg),
				Table:         "sessions",
			}), sessionmysql.New(sessionmysql.Config{
				ConnectionURI: dsn.Create(cfg),
				Table:         "oauth_states",
			})
	case "postgres":
		return sessionpostgres.New(sessionpostgres.Config{
				ConnectionURI: dsn.Create(cfg),
				Table:         "sessions",
			}), sessionpostgres.New(sessionpostgres.Config{
				ConnectionURI: dsn.Create(cfg),
				Table:         "oauth_states",
			})
	default:
		return sessionmemory.New(), sessionmemory.New()
	}
}

// buildRegistry constructs one provider per enabled configuration
// entry. Google needs OIDC discovery at startup; when that fails the
// provider is skipped instead of blocking the whole service.
func buildRegistry(cfg *config.Config) *auth.Registry {
	var providers []*auth.Provider

	base := cfg.OAuth.RedirectBase

	if cfg.OAuth.GitHub.Enabled {
		providers = append(providers, auth.NewGitHub(cfg.OAuth.GitHub, base))
	}

	if cfg.OAuth.Discord.Enabled {
		providers = append(providers, auth.NewDiscord(cfg.OAuth.Discord, base))
	}

	if cfg.OAuth.Google.Enabled {
		google, err := auth.NewGoogle(context.Background(), cfg.OAuth.Google, base)
		if err != nil {
			log.Error().Err(err).Msg("google OIDC discovery failed, provider disabled")
		} else {
			providers = append(providers, google)
		}
	}

	return auth.NewRegistry(providers...)
}
