// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (c) 2026 parley contributors
// https://github.com/parleyhq/parley

// Package app wires configuration, storage, services and the HTTP server
// into a runnable console application.
package app

import (
	"context"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/parleyhq/parley/internal/pkg/logger"
	"github.com/parleyhq/parley/internal/repository/postgres"
	redisrepo "github.com/parleyhq/parley/internal/repository/redis"
	authsvc "github.com/parleyhq/parley/internal/services/auth"
	"github.com/parleyhq/parley/internal/settings"
	"github.com/parleyhq/parley/internal/web"
)

// Application holds the wired dependencies for the running server.
type Application struct {
	cfg     *Config
	log     *logger.Logger
	db      *postgres.DB
	redis   *redisrepo.Client
	handler *web.Handler
	server  *http.Server
}

// Run loads configuration, wires the application and serves until a
// shutdown signal arrives.
func Run(cfgFile string) error {
	cfg, err := LoadConfig(cfgFile)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	log, err := logger.NewFromConfig(cfg.Logging.Level, cfg.Logging.Format, logger.OutputConfig{
		Output: cfg.Logging.Output,
		File: logger.FileConfig{
			Path:       cfg.Logging.File.Path,
			MaxSize:    parseSize(cfg.Logging.File.MaxSize, 100*1024*1024),
			MaxBackups: cfg.Logging.File.MaxBackups,
			MaxAge:     cfg.Logging.File.MaxAge,
		},
	})
	if err != nil {
		return fmt.Errorf("creating logger: %w", err)
	}
	defer log.Sync()

	log.Info("starting parley", "version", Version, "commit", Commit)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app, err := newApplication(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer app.close()

	if err := app.bootstrapAdminUser(ctx); err != nil {
		return fmt.Errorf("bootstrapping admin user: %w", err)
	}

	return app.serve(ctx)
}

// newApplication connects storage and builds the HTTP stack.
func newApplication(ctx context.Context, cfg *Config, log *logger.Logger) (*Application, error) {
	db, err := postgres.New(ctx, cfg.Database.URL, postgres.Options{
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
		ConnMaxIdleTime: cfg.Database.ConnMaxIdleTime,
	})
	if err != nil {
		return nil, fmt.Errorf("connecting to postgres: %w", err)
	}

	if err := db.Migrate(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	rdb, err := redisrepo.New(ctx, cfg.Redis.URL, redisrepo.Options{
		PoolSize:     cfg.Redis.PoolSize,
		MinIdleConns: cfg.Redis.MinIdleConns,
		DialTimeout:  cfg.Redis.DialTimeout,
		ReadTimeout:  cfg.Redis.ReadTimeout,
		WriteTimeout: cfg.Redis.WriteTimeout,
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("connecting to redis: %w", err)
	}

	users := postgres.NewUserRepository(db)
	prefs := postgres.NewPreferencesRepository(db)
	sessions := redisrepo.NewSessionStore(rdb, cfg.Security.SessionTTL)
	blacklist := redisrepo.NewJWTBlacklist(rdb)

	jwtCfg := authsvc.DefaultJWTConfig(cfg.Security.JWTSecret)
	if cfg.Security.AccessTokenTTL > 0 {
		jwtCfg.AccessTokenTTL = cfg.Security.AccessTokenTTL
	}
	if cfg.Security.RefreshTokenTTL > 0 {
		jwtCfg.RefreshTokenTTL = cfg.Security.RefreshTokenTTL
	}
	jwtSvc := authsvc.NewJWTService(jwtCfg)

	auth := authsvc.NewService(users, sessions, jwtSvc, authsvc.Config{
		MaxLoginAttempts:  cfg.Security.MaxFailedLogins,
		LockoutDuration:   cfg.Security.LockoutDuration,
		PasswordMinLength: cfg.Security.PasswordMinLength,
	}, log)
	auth.SetBlacklist(blacklist)

	webSessions := web.NewWebSessionStore(sessions, cfg.Security.SessionTTL, web.CookieConfig{
		Secure:   cfg.Security.CookieSecure,
		SameSite: cfg.Security.SameSiteMode(),
		Domain:   cfg.Security.CookieDomain,
	})

	handler := web.NewHandler(web.HandlerConfig{
		Auth:         auth,
		Sessions:     webSessions,
		Prefs:        prefs,
		Tree:         settings.DefaultTree(),
		DefaultTab:   cfg.Settings.DefaultTab,
		CleanupDelay: cfg.Settings.CleanupDelay,
		Health: map[string]web.HealthChecker{
			"postgres": db,
			"redis":    rdb,
		},
		Version: Version,
		Logger:  log,
	})

	mw := web.NewMiddleware(webSessions, web.MiddlewareConfig{
		SessionName: web.CookieSession,
		LoginPath:   "/login",
		Tokens:      auth,
		Logger:      log,
	})

	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      web.NewRouter(handler, mw),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	return &Application{
		cfg:     cfg,
		log:     log,
		db:      db,
		redis:   rdb,
		handler: handler,
		server:  srv,
	}, nil
}

// serve runs the HTTP server until ctx is canceled, then drains it.
func (a *Application) serve(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		a.log.Info("http server listening",
			"addr", a.server.Addr,
			"tls", a.cfg.Server.TLS.CertFile != "")
		var err error
		if a.cfg.Server.TLS.CertFile != "" {
			err = a.server.ListenAndServeTLS(a.cfg.Server.TLS.CertFile, a.cfg.Server.TLS.KeyFile)
		} else {
			err = a.server.ListenAndServe()
		}
		if err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	a.log.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := a.server.Shutdown(shutdownCtx); err != nil {
		a.log.Warn("http server shutdown", "error", err)
	}
	a.handler.Shutdown()

	a.log.Info("shutdown complete")
	return nil
}

// close releases storage connections. Safe after partial wiring.
func (a *Application) close() {
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			a.log.Warn("closing redis", "error", err)
		}
	}
	if a.db != nil {
		a.db.Close()
	}
}

// connectTimeout bounds the storage commands used by one-shot CLI actions.
const connectTimeout = 30 * time.Second
