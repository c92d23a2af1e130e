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

	httpapi "github.com/aussiebroadwan/sdaportal/internal/devauth/http"
	"github.com/aussiebroadwan/sdaportal/internal/devauth/service"
	"github.com/aussiebroadwan/sdaportal/pkg/cryptox"
	"github.com/aussiebroadwan/sdaportal/pkg/jwtx"
	"github.com/aussiebroadwan/sdaportal/pkg/slogx"
)

// BuildVersion is overridden at build time via ldflags.
var BuildVersion = "v0.1.0"

// Application is the development auth backend.
type Application struct {
	cfg    Config
	logger *slog.Logger

	keys         *jwtx.KeySet
	users        *service.UserDirectory
	tokenService *service.TokenService

	server *http.Server
	router *httpapi.Router
}

func New(cfg Config) (*Application, error) {
	app := &Application{
		cfg: cfg,
		logger: slogx.New(slogx.Config{
			Service: "devauth",
			Version: BuildVersion,
			Env:     cfg.Env,
			Level:   cfg.LogLevel,
			Format:  cfg.LogFormat,
		}),
	}

	if err := app.initServices(); err != nil {
		return nil, err
	}
	app.initHTTP()

	return app, nil
}

// Handler exposes the routed handler, mainly for tests.
func (app *Application) Handler() http.Handler { return app.router }

func (app *Application) Run() error {
	app.logger.Info("devauth starting", "port", app.cfg.Port, "version", BuildVersion, "users", app.users.Len())

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
	app.logger.Info("shutting down devauth...")

	ctx, cancel := context.WithTimeout(context.Background(), app.cfg.ShutdownGracePeriod)
	defer cancel()

	if err := app.server.Shutdown(ctx); err != nil {
		app.logger.Error("graceful server shutdown failed", "error", err)
		if err := app.server.Close(); err != nil {
			app.logger.Error("error closing server", "error", err)
			return err
		}
	}

	app.logger.Info("devauth stopped")
	return nil
}

func (app *Application) initServices() error {
	specs, err := service.ParseUserSpecs(app.cfg.Users)
	if err != nil {
		return err
	}
	if len(specs) == 0 {
		return errors.New("DEVAUTH_USERS is empty")
	}

	pepper, err := cryptox.LoadOrCreatePepper(app.cfg.PepperFile)
	if err != nil {
		return err
	}
	hasher := cryptox.NewHasher(pepper)

	users, err := service.NewUserDirectory(hasher, specs)
	if err != nil {
		return err
	}
	app.users = users

	signer, keys, err := initKeys(app.cfg, app.logger)
	if err != nil {
		return err
	}
	app.keys = keys

	app.tokenService = &service.TokenService{
		Users:      users,
		Hasher:     hasher,
		Signer:     signer,
		Verifier:   jwtx.NewVerifierEdDSA(keys, app.cfg.Issuer),
		Issuer:     app.cfg.Issuer,
		AccessTTL:  app.cfg.AccessTTL,
		RefreshTTL: app.cfg.RefreshTTL,
	}
	return nil
}

func (app *Application) initHTTP() {
	router := httpapi.NewRouter(app.keys, app.tokenService.Verifier, BuildVersion, app.logger)
	router.TokenService = app.tokenService
	router.Users = app.users
	router.ApplyRoutes()
	app.router = router

	app.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", app.cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 3 * time.Second,
	}
}
