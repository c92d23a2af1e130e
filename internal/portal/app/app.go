package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/aussiebroadwan/sdaportal/internal/credstore"
	"github.com/aussiebroadwan/sdaportal/internal/guard"
	httpapi "github.com/aussiebroadwan/sdaportal/internal/portal/http"
	"github.com/aussiebroadwan/sdaportal/pkg/authclient"
	"github.com/aussiebroadwan/sdaportal/pkg/slogx"
)

// BuildVersion is overridden at build time via ldflags.
var BuildVersion = "v0.1.0"

// Application is the portal gateway with all its dependencies.
type Application struct {
	cfg    Config
	logger *slog.Logger

	vault       *credstore.Vault
	housekeeper *credstore.Housekeeper
	auth        *authclient.Client
	guard       *guard.Guard
	registry    *prometheus.Registry

	server *http.Server
	router *httpapi.Router
}

func New(cfg Config) (*Application, error) {
	app := &Application{
		cfg: cfg,
		logger: slogx.New(slogx.Config{
			Service: "portal",
			Version: BuildVersion,
			Env:     cfg.Env,
			Level:   cfg.LogLevel,
			Format:  cfg.LogFormat,
		}),
	}

	if err := app.initVault(); err != nil {
		return nil, err
	}
	app.initServices()
	app.initHTTP()

	return app, nil
}

// Handler exposes the routed handler, mainly for tests.
func (app *Application) Handler() http.Handler { return app.router }

func (app *Application) Run() error {
	app.housekeeper.Start()

	app.logger.Info("portal starting",
		"port", app.cfg.Port,
		"version", BuildVersion,
		"auth_url", app.cfg.AuthURL,
		"persistent_driver", app.cfg.PersistentDriver,
	)

	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- app.server.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
	case sig := <-shutdown:
		app.logger.Info("shutdown signal received", "signal", sig)
		if err := app.Shutdown(); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
	}

	return nil
}

func (app *Application) Shutdown() error {
	app.logger.Info("shutting down portal...")

	ctx, cancel := context.WithTimeout(context.Background(), app.cfg.ShutdownGracePeriod)
	defer cancel()

	if err := app.server.Shutdown(ctx); err != nil {
		app.logger.Error("graceful server shutdown failed", "error", err)
		if err := app.server.Close(); err != nil {
			app.logger.Error("error closing server", "error", err)
		}
	}

	app.housekeeper.Stop()

	if err := app.vault.Close(); err != nil {
		app.logger.Error("error closing credential stores", "error", err)
		return err
	}

	app.logger.Info("portal stopped")
	return nil
}

func (app *Application) initVault() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	v, err := OpenVault(ctx, app.cfg, app.logger)
	if err != nil {
		return err
	}
	app.vault = v
	return nil
}

func (app *Application) initServices() {
	app.registry = prometheus.NewRegistry()
	app.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	app.auth = authclient.New(app.cfg.AuthURL)

	app.guard = guard.New(guard.Config{
		Refresher:      app.auth,
		LoginPath:      app.cfg.LoginPath,
		HomePath:       app.cfg.HomePath,
		RefreshTimeout: app.cfg.RefreshTimeout,
		Logger:         app.logger,
		Metrics:        guard.NewMetrics(app.registry),
	})

	app.housekeeper = credstore.NewHousekeeper(
		app.vault,
		app.logger,
		app.cfg.HousekeepingInterval,
		IdleTTLs(app.cfg),
	)
}

func (app *Application) initHTTP() {
	router := httpapi.NewRouter(BuildVersion, app.logger)
	router.Guard = app.guard
	router.Vault = app.vault
	router.Auth = app.auth
	router.Registry = app.registry
	router.Cookies = httpapi.CookieConfig{
		Name:             app.cfg.CookieName,
		Secure:           app.cfg.CookieSecure,
		PersistentMaxAge: app.cfg.PersistentTTL,
	}
	router.ApplyRoutes()
	app.router = router

	app.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", app.cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 3 * time.Second,
	}
}
