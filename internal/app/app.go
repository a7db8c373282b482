// Package app wires repositories, services and HTTP handlers for the table
// server.
package app

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"dyntable/internal/api"
	"dyntable/internal/config"
	internaldb "dyntable/internal/db"
	"dyntable/internal/db/repository"
	"dyntable/internal/middleware"
	"dyntable/internal/service/table"
)

// Deps holds the external dependencies that main() must provide: config,
// the catalog pools and the physical store.
type Deps struct {
	Cfg     *config.Config
	WriteDB *sql.DB // catalog write pool
	ReadDB  *sql.DB // catalog read pool
	Store   *internaldb.Store
	Logger  *slog.Logger
}

// App holds the fully-wired application.
type App struct {
	Tables        *table.Service
	Reconciler    *table.Reconciler
	Handler       *api.Handler
	RateLimiter   *middleware.RateLimiter
	Authenticator *middleware.Authenticator // nil when auth is disabled
	Scheduler     *table.Scheduler          // nil when no schedule is configured

	cfg    *config.Config
	logger *slog.Logger
}

// New wires the repositories, services and handler from deps. OIDC discovery
// runs here, so ctx bounds how long it may take.
func New(ctx context.Context, deps Deps) (*App, error) {
	cfg := deps.Cfg
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	catalog := repository.NewCatalogRepo(deps.WriteDB, deps.ReadDB)
	store := repository.NewStoreRepo(deps.Store.DB, deps.Store.Dialect)

	a := &App{
		Tables: table.NewService(table.ServiceDeps{
			Catalog: catalog,
			Store:   store,
			Logger:  logger,
		}),
		Reconciler: table.NewReconciler(catalog, store, logger),
		RateLimiter: middleware.NewRateLimiter(middleware.RateLimitConfig{
			RequestsPerSecond: cfg.RateLimitRPS,
			Burst:             cfg.RateLimitBurst,
		}),
		cfg:    cfg,
		logger: logger,
	}
	a.Handler = api.NewHandler(a.Tables, logger)

	validator, err := newValidator(ctx, cfg.Auth)
	if err != nil {
		return nil, err
	}
	if validator != nil {
		a.Authenticator = middleware.NewAuthenticator(validator, logger, publicPaths...)
	}

	if cfg.ReconcileSchedule != "" {
		a.Scheduler, err = table.NewScheduler(a.Reconciler, cfg.ReconcileSchedule, false, logger)
		if err != nil {
			return nil, err
		}
	}
	return a, nil
}

// newValidator picks the token validator for the configured auth mode.
// An identity provider wins over the shared secret.
func newValidator(ctx context.Context, auth config.AuthConfig) (middleware.JWTValidator, error) {
	switch {
	case auth.JWKSURL != "":
		return middleware.NewOIDCValidatorFromJWKS(ctx, auth.JWKSURL, auth.IssuerURL, auth.Audience, auth.AllowedIssuers)
	case auth.IssuerURL != "":
		v, err := middleware.NewOIDCValidator(ctx, auth.IssuerURL, auth.Audience, auth.AllowedIssuers)
		if err != nil {
			return nil, fmt.Errorf("configure OIDC auth: %w", err)
		}
		return v, nil
	case auth.JWTSecret != "":
		return middleware.NewHS256Validator(auth.JWTSecret)
	default:
		return nil, nil
	}
}
