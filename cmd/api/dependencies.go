package api

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/gorilla/sessions"
	"github.com/markbates/goth"
	"github.com/markbates/goth/gothic"
	"github.com/markbates/goth/providers/google"

	"github.com/credwise/credwise-api/internal/domain/advisor"
	advisorhandler "github.com/credwise/credwise-api/internal/domain/advisor/handler"
	"github.com/credwise/credwise-api/internal/domain/analysis"
	analysishandler "github.com/credwise/credwise-api/internal/domain/analysis/handler"
	"github.com/credwise/credwise-api/internal/domain/auth/handler"
	"github.com/credwise/credwise-api/internal/domain/auth/repository"
	"github.com/credwise/credwise-api/internal/domain/auth/service"
	"github.com/credwise/credwise-api/internal/domain/bnpl"
	bnplhandler "github.com/credwise/credwise-api/internal/domain/bnpl/handler"
	"github.com/credwise/credwise-api/internal/domain/reminder"
	"github.com/credwise/credwise-api/internal/domain/user"
	userhandler "github.com/credwise/credwise-api/internal/domain/user/handler"

	"github.com/credwise/credwise-api/pkg/config"
	"github.com/credwise/credwise-api/pkg/cron"
	"github.com/credwise/credwise-api/pkg/db"
	"github.com/credwise/credwise-api/pkg/gmail"
)

// gmailReadonlyScope lets sync list and read mail without any write access.
const gmailReadonlyScope = "https://www.googleapis.com/auth/gmail.readonly"

// Dependencies holds all application dependencies
type Dependencies struct {
	Config *config.Config
	DB     *db.DB
	Logger *slog.Logger

	// Repositories
	AuthRepo     repository.AuthRepository
	UserRepo     *user.Repository
	BNPLRepo     bnpl.Repository
	ReminderRepo *reminder.Repository

	// Services
	TokenManager    service.TokenManager
	AuthService     *service.AuthService
	UserService     *user.Service
	GmailService    *gmail.Service
	BNPLService     *bnpl.Service
	AnalysisService *analysis.Service
	AdvisorService  *advisor.Service
	ReminderService *reminder.Service
	Scheduler       *cron.Scheduler

	advisorClient *advisor.GeminiClient

	// Handlers
	AuthHandler     *handler.Handler
	UserHandler     *userhandler.Handler
	BNPLHandler     *bnplhandler.Handler
	AnalysisHandler *analysishandler.Handler
	AdvisorHandler  *advisorhandler.Handler
}

// InitDependencies initializes all application dependencies
func InitDependencies(cfg *config.Config, logger *slog.Logger) (*Dependencies, error) {
	deps := &Dependencies{
		Config: cfg,
		Logger: logger,
	}

	if err := deps.initDatabase(); err != nil {
		return nil, fmt.Errorf("failed to init database: %w", err)
	}

	if err := deps.initRepositories(); err != nil {
		return nil, fmt.Errorf("failed to init repositories: %w", err)
	}

	if err := deps.initServices(); err != nil {
		return nil, fmt.Errorf("failed to init services: %w", err)
	}

	if err := deps.initHandlers(); err != nil {
		return nil, fmt.Errorf("failed to init handlers: %w", err)
	}

	logger.Info("all dependencies initialized successfully")

	return deps, nil
}

// initDatabase initializes the database connection and runs migrations
func (d *Dependencies) initDatabase() error {
	database, err := db.New(db.Config{
		DSN:             d.Config.Database.DSN(),
		MaxConns:        25,
		MinConns:        5,
		MaxConnLifetime: 5 * time.Minute,
		MaxConnIdleTime: 10 * time.Minute,
	}, d.Logger)
	if err != nil {
		return err
	}

	d.DB = database

	if err := d.DB.RunMigrations(); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	d.Logger.Info("database connected and migrations completed successfully")
	return nil
}

// initRepositories initializes all repository layer dependencies
func (d *Dependencies) initRepositories() error {
	d.AuthRepo = repository.NewPostgresAuthRepository(d.DB.Pool)
	d.UserRepo = user.NewRepository(d.DB.Pool)
	d.BNPLRepo = bnpl.NewPostgresRepository(d.DB.Pool)
	d.ReminderRepo = reminder.NewRepository(d.DB.Pool)

	d.Logger.Info("repositories initialized")
	return nil
}

// initServices initializes all service layer dependencies
func (d *Dependencies) initServices() error {
	jwtSecret := []byte(d.Config.Auth.JWTSecret)
	if len(jwtSecret) == 0 {
		return fmt.Errorf("jwt secret is required")
	}

	accessTokenTTL := 1 * time.Hour
	refreshTokenTTL := 30 * 24 * time.Hour

	d.TokenManager = service.NewJWTTokenManager(string(jwtSecret), "credwise-api", accessTokenTTL, refreshTokenTTL)
	d.AuthService = service.NewAuthService(
		d.AuthRepo,
		d.TokenManager,
		d.Logger,
		refreshTokenTTL,
	)

	d.setupOAuthProviders()

	d.UserService = user.NewService(d.UserRepo, d.Logger)

	d.GmailService = gmail.NewService(d.Config.Google.ClientID, d.Config.Google.ClientSecret, d.Logger)
	d.BNPLService = bnpl.NewService(d.BNPLRepo, d.GmailService, newGmailTokenAdapter(d.AuthService), d.Logger)

	d.AnalysisService = analysis.NewService(d.BNPLService, d.UserService, d.Logger)

	// Advisor chat is optional: without a Gemini key the routes stay unmounted.
	if d.Config.Gemini.APIKey != "" {
		client, err := advisor.NewGeminiClient(context.Background(), d.Config.Gemini.APIKey, d.Config.Gemini.Model)
		if err != nil {
			return fmt.Errorf("failed to init gemini client: %w", err)
		}
		d.advisorClient = client
		d.AdvisorService = advisor.NewService(client, d.AnalysisService, d.BNPLService, d.Logger)
	} else {
		d.Logger.Warn("GEMINI_API_KEY not set, advisor chat disabled")
	}

	d.ReminderService = reminder.NewService(
		d.ReminderRepo,
		d.Config.Mail.ResendAPIKey,
		d.Config.Mail.FromEmail,
		reminder.DefaultWindowDays,
		d.Logger,
	)
	d.Scheduler = cron.NewScheduler(d.ReminderService, d.Logger)

	d.Logger.Info("services initialized")
	return nil
}

// setupOAuthProviders registers the Google provider used for both sign-in
// and Gmail consent. Offline access plus forced consent is what makes Google
// hand out a refresh token, which mailbox sync depends on.
func (d *Dependencies) setupOAuthProviders() {
	gothic.Store = sessions.NewCookieStore([]byte(d.Config.Auth.SessionSecret))

	provider := google.New(
		d.Config.Google.ClientID,
		d.Config.Google.ClientSecret,
		d.Config.Google.CallbackURL,
		"email", "profile", gmailReadonlyScope,
	)
	provider.SetAccessType("offline")
	provider.SetPrompt("consent")
	goth.UseProviders(provider)
}

// initHandlers initializes all handler dependencies
func (d *Dependencies) initHandlers() error {
	d.AuthHandler = handler.New(d.AuthService, d.Config.Server.FrontendURL, d.Logger)
	d.UserHandler = userhandler.New(d.UserService, d.Logger)
	d.BNPLHandler = bnplhandler.New(d.BNPLService, d.Logger)
	d.AnalysisHandler = analysishandler.New(d.AnalysisService, d.Logger)
	if d.AdvisorService != nil {
		d.AdvisorHandler = advisorhandler.New(d.AdvisorService, d.Logger)
	}

	d.Logger.Info("handlers initialized")
	return nil
}

// Cleanup closes all resources
func (d *Dependencies) Cleanup() {
	if d.Scheduler != nil {
		<-d.Scheduler.Stop().Done()
	}
	if d.advisorClient != nil {
		if err := d.advisorClient.Close(); err != nil {
			d.Logger.Warn("failed to close gemini client", slog.Any("error", err))
		}
	}
	if d.DB != nil {
		d.DB.Close()
	}
	d.Logger.Info("cleanup completed")
}
