package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	httpapi "github.com/aussiebroadwan/devicelocator/internal/dashboard/http"
	"github.com/aussiebroadwan/devicelocator/internal/dashboard/service"
	"github.com/aussiebroadwan/devicelocator/internal/dashboard/store"
	"github.com/aussiebroadwan/devicelocator/internal/dashboard/store/drivers/memory"
	"github.com/aussiebroadwan/devicelocator/internal/dashboard/store/drivers/sqlite"
	"github.com/aussiebroadwan/devicelocator/pkg/jwtx"
	"github.com/aussiebroadwan/devicelocator/pkg/oauthx"
	"github.com/aussiebroadwan/devicelocator/pkg/slogx"
	"github.com/aussiebroadwan/devicelocator/pkg/voiceadmin"
	"github.com/jonboulle/clockwork"
)

const (
	// BuildVersion should be set at build time via ldflags. Later problem
	BuildVersion = "v0.1.0"

	cookieIssuer = "devicelocator"
)

// Application encapsulates the dashboard with all its dependencies
type Application struct {
	cfg       Config
	logger    *slog.Logger
	logCloser io.Closer
	clock     clockwork.Clock

	// Core dependencies
	db    store.Store
	keys  Keys
	auth  *oauthx.Client
	voice *voiceadmin.Client

	// Services
	sessionService      *service.SessionService
	directoryService    *service.DirectoryService
	housekeepingService *service.HousekeepingService

	// HTTP server
	server *http.Server
	router *httpapi.Router
}

// New creates a new Application instance with all dependencies initialized
func New(cfg Config) (*Application, error) {
	logger, logCloser, err := slogx.New(slogx.Config{
		Service:  "devicelocator",
		Version:  BuildVersion,
		Env:      cfg.Env,
		Level:    cfg.LogLevel,
		Format:   cfg.LogFormat,
		FilePath: cfg.LogFile,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	app := &Application{
		cfg:       cfg,
		logger:    logger,
		logCloser: logCloser,
		clock:     clockwork.NewRealClock(),
	}

	keys, err := InitKeys(cfg.SecretKey, logger)
	if err != nil {
		_ = logCloser.Close()
		return nil, err
	}
	app.keys = keys

	if err := app.initStore(); err != nil {
		_ = logCloser.Close()
		return nil, err
	}

	app.initClients()
	app.initServices()

	if err := app.initHTTP(); err != nil {
		_ = app.db.Close()
		_ = logCloser.Close()
		return nil, err
	}

	return app, nil
}

// Run starts the application and blocks until shutdown is requested
func (app *Application) Run() error {
	// Start housekeeping service
	app.housekeepingService.Start()

	app.logger.Info("dashboard starting",
		"port", app.cfg.Port,
		"version", BuildVersion,
		"session_store", app.cfg.SessionStore,
	)

	// Start server in a goroutine
	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- app.server.ListenAndServe()
	}()

	// Setup signal handling for graceful shutdown
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	// Block until we receive a shutdown signal or server error
	select {
	case err := <-serverErrors:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			app.housekeepingService.Stop()
			_ = app.db.Close()
			return fmt.Errorf("server failed: %w", err)
		}
	case sig := <-shutdown:
		app.logger.Info("shutdown signal received", "signal", sig)

		// Perform graceful shutdown
		if err := app.Shutdown(); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
	}

	return nil
}

// Shutdown gracefully shuts down the application
func (app *Application) Shutdown() error {
	app.logger.Info("shutting down dashboard...")

	// Give outstanding requests a deadline for completion
	ctx, cancel := context.WithTimeout(context.Background(), app.cfg.ShutdownGracePeriod)
	defer cancel()

	// Shutdown the HTTP server
	if err := app.server.Shutdown(ctx); err != nil {
		app.logger.Error("graceful server shutdown failed", "error", err)
		if err := app.server.Close(); err != nil {
			app.logger.Error("error closing server", "error", err)
		}
	}

	// Stop the housekeeping service
	app.housekeepingService.Stop()

	// Close session store
	if err := app.db.Close(); err != nil {
		app.logger.Error("error closing session store", "error", err)
		return err
	}

	app.logger.Info("dashboard stopped")
	return app.logCloser.Close()
}

// initStore opens the configured session store and applies migrations
func (app *Application) initStore() error {
	switch app.cfg.SessionStore {
	case SessionStoreSQLite:
		db, err := sqlite.NewStore(sqlite.DSN(app.cfg.SessionDatabaseFile), app.keys.Sealer)
		if err != nil {
			return fmt.Errorf("failed to initialize session database: %w", err)
		}
		app.db = db
	default:
		app.db = memory.NewStore()
	}

	if err := app.db.ApplyMigrations(); err != nil {
		_ = app.db.Close()
		return fmt.Errorf("failed to apply database migrations: %w", err)
	}

	app.logger.Info("session store ready", "driver", app.cfg.SessionStore)
	return nil
}

// initClients builds the GoTo OAuth and Voice Admin clients
func (app *Application) initClients() {
	app.auth = oauthx.NewClient(oauthx.Config{
		ClientID:     app.cfg.ClientID,
		ClientSecret: app.cfg.ClientSecret,
		RedirectURI:  app.cfg.RedirectURI,
		AuthURL:      app.cfg.AuthURL,
		TokenURL:     app.cfg.TokenURL,
		Scopes:       app.cfg.Scopes,
	})
	app.auth.HTTPClient = &http.Client{Timeout: app.cfg.HTTPClientTimeout}
	app.auth.Clock = app.clock

	app.voice = voiceadmin.NewClient(app.cfg.APIBase)
	app.voice.HTTPClient = &http.Client{Timeout: app.cfg.HTTPClientTimeout}
}

// initServices initializes all business logic services
func (app *Application) initServices() {
	app.sessionService = &service.SessionService{
		Store:       app.db,
		Auth:        app.auth,
		Clock:       app.clock,
		RefreshSkew: app.cfg.TokenRefreshSkew,
		SessionTTL:  app.cfg.SessionLifetime,
	}

	app.directoryService = &service.DirectoryService{API: app.voice}

	app.housekeepingService = service.NewHousekeepingService(
		app.db,
		app.logger,
		app.cfg.HousekeepingInterval,
		app.clock,
	)
}

// initHTTP initializes the HTTP router and server
func (app *Application) initHTTP() error {
	signer, err := jwtx.NewHS256(app.keys.CookieKey, cookieIssuer, app.clock)
	if err != nil {
		return fmt.Errorf("failed to initialize cookie signer: %w", err)
	}

	router := httpapi.NewRouter(signer, app.db, app.logger, httpapi.Options{
		AppTitle:          app.cfg.AppTitle,
		Version:           BuildVersion,
		Env:               app.cfg.Env,
		CookieSecure:      app.cfg.CookieSecure,
		SessionTTL:        app.cfg.SessionLifetime,
		RateLimits:        app.cfg.RateLimits,
		Clock:             app.clock,
		TrustProxyHeaders: app.cfg.TrustProxyHeaders,
	})

	// Wire services to router
	router.SessionService = app.sessionService
	router.DirectoryService = app.directoryService
	router.VoiceAdmin = app.voice
	router.ApplyRoutes()

	app.router = router

	// Initialize HTTP server
	app.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", app.cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 3 * time.Second,
	}
	return nil
}
