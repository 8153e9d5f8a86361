package app

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"

	"github.com/perseusdefend/perseus/internal/httpapi"
	"github.com/perseusdefend/perseus/internal/mail"
	"github.com/perseusdefend/perseus/internal/service"
	"github.com/perseusdefend/perseus/internal/store"
	"github.com/perseusdefend/perseus/internal/store/drivers/sqlite"
	"github.com/perseusdefend/perseus/pkg/cryptox"
	"github.com/perseusdefend/perseus/pkg/httpx"
	"github.com/perseusdefend/perseus/pkg/slogx"
	"github.com/perseusdefend/perseus/pkg/tokenx"
)

// BuildVersion should be set at build time via ldflags.
const BuildVersion = "v0.1.0"

// Application wires the whole service together.
type Application struct {
	cfg    Config
	logger *slog.Logger

	db       store.Store
	sessions *tokenx.SessionFactory

	authService         *service.AuthService
	accountService      *service.AccountService
	verificationService *service.VerificationService
	twoFactorService    *service.TwoFactorService
	productService      *service.ProductService
	contactService      *service.ContactService
	watchedInfoService  *service.WatchedInfoService
	demoRequestService  *service.DemoRequestService
	housekeepingService *service.HousekeepingService

	server *http.Server
	router *httpapi.Router
}

// New creates an Application with all dependencies initialized.
func New(cfg Config) (*Application, error) {
	app := &Application{
		cfg: cfg,
		logger: slogx.New(slogx.Config{
			Service: "perseus",
			Version: BuildVersion,
			Env:     cfg.Env,
			Level:   cfg.LogLevel,
			Format:  cfg.LogFormat,
		}),
	}

	cryptox.SetPepperPath(cfg.PepperFile)

	if err := app.initSentry(); err != nil {
		return nil, err
	}
	if err := app.initTokens(); err != nil {
		return nil, err
	}
	if err := app.initDatabase(); err != nil {
		return nil, err
	}

	app.initServices()
	app.initHTTP()

	return app, nil
}

// Run starts the application and blocks until shutdown is requested.
func (app *Application) Run() error {
	app.housekeepingService.Start()

	app.logger.Info("perseus starting", "port", app.cfg.Port, "version", BuildVersion)

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

// Shutdown drains in-flight requests and releases resources.
func (app *Application) Shutdown() error {
	app.logger.Info("shutting down perseus...")

	ctx, cancel := context.WithTimeout(context.Background(), app.cfg.ShutdownGracePeriod)
	defer cancel()

	if err := app.server.Shutdown(ctx); err != nil {
		app.logger.Error("graceful server shutdown failed", "error", err)
		if err := app.server.Close(); err != nil {
			app.logger.Error("error closing server", "error", err)
		}
	}

	app.housekeepingService.Stop()

	if app.cfg.SentryDSN != "" {
		sentry.Flush(2 * time.Second)
	}

	if err := app.db.Close(); err != nil {
		app.logger.Error("error closing database", "error", err)
		return err
	}

	app.logger.Info("perseus stopped")
	return nil
}

func (app *Application) initSentry() error {
	if app.cfg.SentryDSN == "" {
		app.logger.Info("sentry disabled, no DSN configured")
		return nil
	}

	err := sentry.Init(sentry.ClientOptions{
		Dsn:         app.cfg.SentryDSN,
		Environment: app.cfg.Env,
		Release:     BuildVersion,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize sentry: %w", err)
	}
	return nil
}

func (app *Application) initTokens() error {
	secret := []byte(app.cfg.TokenSecret)
	if len(secret) == 0 {
		// Sessions minted against an ephemeral secret die on restart.
		// Fine for dev, loud warning so prod never runs this way.
		buf := make([]byte, 32)
		if _, err := rand.Read(buf); err != nil {
			return fmt.Errorf("failed to generate ephemeral token secret: %w", err)
		}
		secret = []byte(hex.EncodeToString(buf))
		app.logger.Warn("AUTH_TOKEN_SECRET not set, using an ephemeral secret")
	}

	app.sessions = &tokenx.SessionFactory{
		Codec:         &tokenx.Codec{Secret: secret, Issuer: app.cfg.Issuer},
		AccessTTL:     app.cfg.AccessTTL,
		RefreshTTL:    app.cfg.RefreshTTL,
		RememberMeTTL: app.cfg.RememberMeTTL,
	}
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

func (app *Application) initServices() {
	mailer := mail.New(mail.Config{
		Host:         app.cfg.SMTPHost,
		Port:         app.cfg.SMTPPort,
		Username:     app.cfg.SMTPUsername,
		Password:     app.cfg.SMTPPassword,
		From:         app.cfg.MailFrom,
		SalesAddress: app.cfg.SalesAddress,
	})

	app.verificationService = &service.VerificationService{
		Store:  app.db,
		Mailer: mailer,
	}

	app.authService = &service.AuthService{
		Store:        app.db,
		Sessions:     app.sessions,
		Verification: app.verificationService,
		Lockout: store.LockoutPolicy{
			MaxAttempts:  app.cfg.LockoutMaxAttempts,
			LockDuration: app.cfg.LockoutDuration,
			ResetAfter:   app.cfg.LockoutResetAfter,
		},
	}

	app.accountService = &service.AccountService{
		Store:        app.db,
		Verification: app.verificationService,
	}
	app.twoFactorService = &service.TwoFactorService{
		Store:  app.db,
		Issuer: "Perseus Defend",
	}
	app.productService = &service.ProductService{Store: app.db}
	app.contactService = &service.ContactService{Store: app.db}
	app.watchedInfoService = &service.WatchedInfoService{Store: app.db}
	app.demoRequestService = &service.DemoRequestService{Store: app.db}

	app.housekeepingService = service.NewHousekeepingService(
		app.db,
		app.logger,
		app.cfg.HousekeepingInterval,
	)
}

func (app *Application) initHTTP() {
	router := httpapi.NewRouter(httpapi.Services{
		Auth:         app.authService,
		Accounts:     app.accountService,
		Verification: app.verificationService,
		TwoFactor:    app.twoFactorService,
		Products:     app.productService,
		Contacts:     app.contactService,
		WatchedInfo:  app.watchedInfoService,
		DemoRequests: app.demoRequestService,
		Store:        app.db,
	}, app.sessions)

	router.Use(httpx.Middleware(slogx.HTTPMiddleware(app.logger)))
	router.ApplyRoutes()

	app.router = router
	app.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", app.cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 3 * time.Second,
	}
}
