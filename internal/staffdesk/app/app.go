package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	httpapi "github.com/seobrand/staffdesk/internal/staffdesk/http"
	"github.com/seobrand/staffdesk/internal/staffdesk/identity"
	identityhttp "github.com/seobrand/staffdesk/internal/staffdesk/identity/drivers/httpapi"
	identitylocal "github.com/seobrand/staffdesk/internal/staffdesk/identity/drivers/local"
	"github.com/seobrand/staffdesk/internal/staffdesk/mail"
	"github.com/seobrand/staffdesk/internal/staffdesk/service"
	"github.com/seobrand/staffdesk/internal/staffdesk/store"
	"github.com/seobrand/staffdesk/internal/staffdesk/store/drivers/sqlite"
	"github.com/seobrand/staffdesk/pkg/jwtx"
	"github.com/seobrand/staffdesk/pkg/slogx"
)

// BuildVersion should be set at build time via ldflags.
const BuildVersion = "v0.1.0"

// Application wires the provisioning service together: store, identity
// backend, mailer, services and the HTTP server.
type Application struct {
	cfg    Config
	logger *slog.Logger

	db       store.Store
	identity identity.Client
	mailer   mail.Sender

	provisioner  *service.Provisioner
	invitations  *service.Invitations
	users        *service.Users
	audit        *service.AuditService
	housekeeping *service.Housekeeping

	server *http.Server
	router *httpapi.Router
}

func New(cfg Config) (*Application, error) {
	app := &Application{
		cfg: cfg,
		logger: slogx.New(slogx.Config{
			Service: "staffdesk",
			Version: BuildVersion,
			Env:     cfg.Env,
			Level:   cfg.LogLevel,
			Format:  cfg.LogFormat,
		}),
	}

	if err := app.initDatabase(); err != nil {
		return nil, err
	}

	app.initBackends()
	app.initServices()
	app.initHTTP()

	ctx := slogx.WithContext(context.Background(), app.logger)
	if err := app.provisioner.EnsureSeedAdmin(ctx, cfg.SeedAdminEmail, cfg.SeedAdminName, cfg.SeedAdminPassword); err != nil {
		_ = app.db.Close()
		return nil, err
	}

	return app, nil
}

// Run starts the application and blocks until shutdown is requested.
func (app *Application) Run() error {
	app.housekeeping.Start()

	app.logger.Info("staffdesk starting", "port", app.cfg.Port, "version", BuildVersion)

	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- app.server.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if err != nil && err != http.ErrServerClosed {
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

// Shutdown gracefully shuts down the application.
func (app *Application) Shutdown() error {
	app.logger.Info("shutting down staffdesk...")

	ctx, cancel := context.WithTimeout(context.Background(), app.cfg.ShutdownGracePeriod)
	defer cancel()

	if err := app.server.Shutdown(ctx); err != nil {
		app.logger.Error("graceful server shutdown failed", "error", err)
		if err := app.server.Close(); err != nil {
			app.logger.Error("error closing server", "error", err)
		}
	}

	app.housekeeping.Stop()

	if err := app.db.Close(); err != nil {
		app.logger.Error("error closing database", "error", err)
		return err
	}

	app.logger.Info("staffdesk stopped")
	return nil
}

func (app *Application) initDatabase() error {
	host := fmt.Sprintf("file:%s?_busy_timeout=5000&_journal_mode=WAL", app.cfg.DatabaseFile)
	db, err := sqlite.NewStore(host)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	app.db = db

	if err := db.ApplyMigrations(); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to apply database migrations: %w", err)
	}

	app.logger.Info("database migrations applied successfully")
	return nil
}

// initBackends selects the identity and mail drivers from config.
func (app *Application) initBackends() {
	switch app.cfg.IdentityDriver {
	case "local":
		app.identity = identitylocal.New()
		app.logger.Warn("using in-process identity backend; accounts are lost on restart")
	default:
		app.identity = identityhttp.New(
			app.cfg.IdentityAPIURL,
			app.cfg.IdentityServiceKey,
			app.cfg.OutboundCallTimeout,
		)
	}

	if app.cfg.EmailAPIKey == "" {
		app.mailer = mail.Disabled{}
		app.logger.Warn("email API key not configured; outgoing email is disabled")
		return
	}
	app.mailer = mail.NewClient(app.cfg.EmailAPIURL, app.cfg.EmailAPIKey, app.cfg.OutboundCallTimeout)
}

func (app *Application) initServices() {
	app.provisioner = &service.Provisioner{
		Store:       app.db,
		Identity:    app.identity,
		Mailer:      app.mailer,
		ProductName: app.cfg.ProductName,
		BaseURL:     app.cfg.BaseURL,
		EmailFrom:   app.cfg.EmailFrom,
		CallTimeout: app.cfg.OutboundCallTimeout,
	}
	app.invitations = &service.Invitations{
		Store:       app.db,
		Identity:    app.identity,
		Mailer:      app.mailer,
		ProductName: app.cfg.ProductName,
		BaseURL:     app.cfg.BaseURL,
		EmailFrom:   app.cfg.EmailFrom,
		InviteTTL:   app.cfg.InvitationTTL,
		CallTimeout: app.cfg.OutboundCallTimeout,
	}
	app.users = &service.Users{Store: app.db}
	app.audit = &service.AuditService{Store: app.db}
	app.housekeeping = service.NewHousekeeping(app.db, app.logger, app.cfg.HousekeepingInterval)
}

func (app *Application) initHTTP() {
	router := httpapi.NewRouter(
		jwtx.NewHS256Verifier([]byte(app.cfg.SessionSecret), app.cfg.SessionIssuer),
		BuildVersion,
		app.db,
		app.logger,
	)

	router.Provisioner = app.provisioner
	router.Invitations = app.invitations
	router.Users = app.users
	router.Audit = app.audit
	router.ApplyRoutes()

	app.router = router

	app.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", app.cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 3 * time.Second,
	}
}
