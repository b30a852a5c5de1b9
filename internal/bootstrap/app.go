package bootstrap

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/ZertGraf/cresp/internal/api"
	"github.com/ZertGraf/cresp/internal/api/handler"
	"github.com/ZertGraf/cresp/internal/pkg/config"
	"github.com/ZertGraf/cresp/internal/pkg/logger"
	"github.com/ZertGraf/cresp/internal/pkg/password"
	"github.com/ZertGraf/cresp/internal/pkg/postgres"
	"github.com/ZertGraf/cresp/internal/pkg/storage"
	"github.com/ZertGraf/cresp/internal/pkg/token"
	"github.com/ZertGraf/cresp/internal/repository"
	"github.com/ZertGraf/cresp/internal/scheduler"
	"github.com/ZertGraf/cresp/internal/service"
)

type Application struct {
	Config   *config.Config
	Logger   *logger.Logger
	Postgres *postgres.Connection
	Migrator *postgres.Migrator
	Storage  storage.Provider

	UserRepo       *repository.UserRepo
	RoleRepo       *repository.RoleRepo
	PostRepo       *repository.PostRepo
	MediaRepo      *repository.MediaRepo
	ModerationRepo *repository.ModerationRepo
	ReferralRepo   *repository.ReferralRepo
	FeedbackRepo   *repository.FeedbackRepo

	AuthService       *service.AuthService
	RoleService       *service.RoleService
	UserService       *service.UserService
	OnboardingService *service.OnboardingService
	PostService       *service.PostService
	FeedService       *service.FeedService
	ModerationService *service.ModerationService
	ReferralService   *service.ReferralService
	UploadService     *service.UploadService
	FeedbackService   *service.FeedbackService
	MediaJanitor      *service.MediaJanitor

	HTTPServer *api.HTTPServer
	Scheduler  *scheduler.Scheduler
}

func New() (*Application, error) {
	cfg, err := config.New()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	log, err := logger.New(&logger.Config{
		Level:     cfg.LogLevel,
		Format:    cfg.LogFormat,
		AddSource: cfg.LogAddSource,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}

	pg, err := postgres.New(log, &postgres.Config{
		Host:              cfg.DatabaseHost,
		Port:              cfg.DatabasePort,
		Username:          cfg.DatabaseUser,
		Password:          cfg.DatabasePassword,
		Database:          cfg.DatabaseName,
		Schema:            cfg.DatabaseSchema,
		SSLMode:           cfg.DatabaseSSLMode,
		ApplicationName:   cfg.ServiceName,
		MaxConns:          cfg.DatabaseMaxConns,
		MinConns:          cfg.DatabaseMinConns,
		MaxConnLifetime:   cfg.DatabaseMaxConnLifetime,
		MaxConnIdleTime:   cfg.DatabaseMaxConnIdleTime,
		HealthCheckPeriod: cfg.DatabaseHealthCheckPeriod,
		ConnectTimeout:    cfg.DatabaseConnectTimeout,
		AcquireTimeout:    cfg.DatabaseAcquireTimeout,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create postgres connection: %w", err)
	}

	return &Application{
		Config:   cfg,
		Logger:   log,
		Postgres: pg,
	}, nil
}

// Init connects, wires every component and starts serving.
func (app *Application) Init(ctx context.Context) error {
	app.Logger.Info("initializing application")

	if err := app.Connect(ctx); err != nil {
		return err
	}
	if err := app.Wire(ctx); err != nil {
		return err
	}

	if err := app.RoleService.Sync(ctx); err != nil {
		return fmt.Errorf("role catalog sync failed: %w", err)
	}

	if err := app.HTTPServer.Start(ctx); err != nil {
		return fmt.Errorf("failed to start http server: %w", err)
	}
	app.Scheduler.Start()

	app.Logger.Info("application initialized successfully")
	return nil
}

// Connect opens the pool and applies pending migrations.
func (app *Application) Connect(ctx context.Context) error {
	if err := app.Postgres.Connect(ctx); err != nil {
		return fmt.Errorf("postgres connection failed: %w", err)
	}

	app.Migrator = postgres.NewMigrator(app.Postgres.Pool(), &postgres.MigrationConfig{
		Timeout:   app.Config.DatabaseMigrationTimeout,
		TableName: app.Config.DatabaseMigrationTable,
		Enabled:   app.Config.DatabaseMigrationEnabled,
	}, app.Logger)

	if err := app.Migrator.Migrate(ctx); err != nil {
		return fmt.Errorf("database migrations failed: %w", err)
	}
	return nil
}

// Wire builds repositories, services and the HTTP server without starting
// anything.
func (app *Application) Wire(ctx context.Context) error {
	cfg := app.Config
	pool := app.Postgres.Pool()

	provider, err := storage.New(ctx, &storage.Config{
		Provider:      cfg.StorageProvider,
		LocalDir:      cfg.StorageLocalDir,
		PublicBaseURL: cfg.StoragePublicBaseURL,
		S3Bucket:      cfg.StorageS3Bucket,
		S3Region:      cfg.StorageS3Region,
		S3Endpoint:    cfg.StorageS3Endpoint,
		S3AccessKey:   cfg.StorageS3AccessKey,
		S3SecretKey:   cfg.StorageS3SecretKey,
		S3PathStyle:   cfg.StorageS3PathStyle,
	}, app.Logger)
	if err != nil {
		return fmt.Errorf("failed to create storage provider: %w", err)
	}
	app.Storage = provider

	tokens, err := token.NewIssuer(&token.Config{
		Secret: cfg.AuthSecret,
		Issuer: cfg.ServiceName,
		TTL:    cfg.AuthTokenTTL,
	})
	if err != nil {
		return fmt.Errorf("failed to create token issuer: %w", err)
	}

	app.UserRepo = repository.NewUserRepo(pool, app.Logger)
	app.RoleRepo = repository.NewRoleRepo(pool, app.Logger)
	app.MediaRepo = repository.NewMediaRepo(pool, app.Logger)
	app.PostRepo = repository.NewPostRepo(pool, app.MediaRepo, app.Logger)
	app.ModerationRepo = repository.NewModerationRepo(pool, app.Logger)
	app.ReferralRepo = repository.NewReferralRepo(pool, app.Logger)
	app.FeedbackRepo = repository.NewFeedbackRepo(pool, app.Logger)

	app.UploadService = service.NewUploadService(app.MediaRepo, provider, service.UploadConfig{
		MaxBytes:     cfg.UploadMaxBytes,
		AllowedTypes: cfg.UploadAllowedTypes,
	}, app.Logger)
	app.AuthService = service.NewAuthService(app.UserRepo, password.NewHasher(cfg.AuthBcryptCost), tokens, app.Logger)
	app.RoleService = service.NewRoleService(app.RoleRepo, cfg.CacheRolesTTL, app.Logger)
	app.UserService = service.NewUserService(app.UserRepo, app.UploadService, cfg.CacheProfileTTL, app.Logger)
	app.OnboardingService = service.NewOnboardingService(app.UserRepo, app.RoleService, app.UserService, app.Logger)
	app.PostService = service.NewPostService(app.PostRepo, app.Logger)
	app.FeedService = service.NewFeedService(app.PostRepo, app.UserRepo, app.Logger)
	app.ModerationService = service.NewModerationService(app.ModerationRepo, app.PostRepo, service.ModerationConfig{
		HideThreshold:    cfg.ModerationHideThreshold,
		NewAccountWindow: cfg.ModerationNewAccountWindow,
		NewAccountFactor: cfg.ModerationNewAccountFactor,
	}, app.Logger)
	app.ReferralService = service.NewReferralService(app.UserRepo, app.ReferralRepo, app.Logger)
	app.FeedbackService = service.NewFeedbackService(app.FeedbackRepo, app.Logger)
	app.MediaJanitor = service.NewMediaJanitor(app.MediaRepo, provider, service.JanitorConfig{
		OrphanTTL: cfg.JanitorOrphanTTL,
		BatchSize: cfg.JanitorBatchSize,
	}, app.Logger)

	handlers := &api.Handlers{
		Auth: handler.NewAuthHandler(app.AuthService, handler.CookieConfig{
			Name:   cfg.AuthCookieName,
			Domain: cfg.AuthCookieDomain,
			Secure: cfg.AuthCookieSecure,
		}, app.Logger),
		Onboarding: handler.NewOnboardingHandler(app.OnboardingService, app.RoleService, app.Logger),
		User:       handler.NewUserHandler(app.UserService, app.FeedService, cfg.UploadMaxBytes, app.Logger),
		Post:       handler.NewPostHandler(app.PostService, app.ModerationService, app.Logger),
		Feed:       handler.NewFeedHandler(app.FeedService, app.Logger),
		Upload:     handler.NewUploadHandler(app.UploadService, cfg.UploadMaxBytes, app.Logger),
		Referral:   handler.NewReferralHandler(app.ReferralService, app.Logger),
		Feedback:   handler.NewFeedbackHandler(app.FeedbackService, app.Logger),
		Admin:      handler.NewAdminHandler(app.ModerationService, app.FeedbackService, app.Logger),
	}
	if local, ok := provider.(*storage.Local); ok {
		handlers.Files = http.FileServer(http.Dir(local.Root()))
	}

	app.HTTPServer = api.NewHTTPServer(&api.ServerConfig{
		Host:           cfg.ServerHost,
		Port:           cfg.ServerPort,
		ReadTimeout:    cfg.ServerReadTimeout,
		WriteTimeout:   cfg.ServerWriteTimeout,
		IdleTimeout:    cfg.ServerIdleTimeout,
		RequestTimeout: cfg.ServerRequestTimeout,
		SessionCookie:  cfg.AuthCookieName,
	}, handlers, app.AuthService, app.checks(), app.Logger)

	app.Scheduler = scheduler.New(app.Logger)
	if cfg.JanitorEnabled {
		if err := app.Scheduler.Add("media-janitor", cfg.JanitorSchedule, cfg.JanitorTimeout, app.runJanitor); err != nil {
			return fmt.Errorf("failed to schedule media janitor: %w", err)
		}
	}

	return nil
}

func (app *Application) runJanitor(ctx context.Context) error {
	report, err := app.MediaJanitor.Run(ctx)
	if err != nil {
		return err
	}
	if report.Failed > 0 {
		return fmt.Errorf("%d of %d orphaned objects could not be deleted", report.Failed, report.Scanned)
	}
	return nil
}

func (app *Application) checks() map[string]api.CheckFunc {
	return map[string]api.CheckFunc{
		"database":   app.Postgres.Health,
		"migrations": app.Migrator.Health,
		"storage":    app.Storage.Health,
	}
}

func (app *Application) Shutdown(ctx context.Context) error {
	app.Logger.Info("shutting down application")

	if app.HTTPServer != nil {
		if err := app.HTTPServer.Stop(ctx); err != nil {
			app.Logger.Error("error stopping http server", "error", err)
		}
	}

	if app.Scheduler != nil {
		if err := app.Scheduler.Stop(ctx); err != nil {
			app.Logger.Error("error stopping scheduler", "error", err)
		}
	}

	app.Postgres.Close()

	app.Logger.Info("application shutdown completed")
	return nil
}

// Health checks every dependency once, with a short deadline.
func (app *Application) Health(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	for name, check := range app.checks() {
		if err := check(ctx); err != nil {
			return fmt.Errorf("%s health check failed: %w", name, err)
		}
	}
	return nil
}
