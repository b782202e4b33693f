package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	appControllers "github.com/yigit/studygraph/internal/app/controllers"
	appMigrations "github.com/yigit/studygraph/internal/app/migrations"
	appRepos "github.com/yigit/studygraph/internal/app/repositories"
	"github.com/yigit/studygraph/internal/app/repositories/memory"
	"github.com/yigit/studygraph/internal/app/repositories/mongostore"
	appRoutes "github.com/yigit/studygraph/internal/app/routes"
	appServices "github.com/yigit/studygraph/internal/app/services"
	"github.com/yigit/studygraph/internal/config"
	"github.com/yigit/studygraph/internal/db"
	appMiddleware "github.com/yigit/studygraph/internal/middleware"
	pkgAuth "github.com/yigit/studygraph/internal/pkg/auth"
	"github.com/yigit/studygraph/internal/pkg/filestorage"
	"github.com/yigit/studygraph/internal/pkg/genai"
	"github.com/yigit/studygraph/internal/pkg/helpers"
	"github.com/yigit/studygraph/internal/pkg/httpclient"
	"github.com/yigit/studygraph/internal/pkg/logger"
	"github.com/yigit/studygraph/internal/pkg/maps"
	"github.com/yigit/studygraph/internal/pkg/planner"
	"github.com/yigit/studygraph/internal/pkg/schedule"
	"github.com/yigit/studygraph/internal/pkg/validation"
	"github.com/yigit/studygraph/internal/pkg/websocket"
	"github.com/yigit/studygraph/internal/seed"
)

// DefaultConfigPath is where the YAML configuration is looked up
const DefaultConfigPath = "configs/config.yaml"

// UploadsRoute is the URL prefix stored schedule files are served under
const UploadsRoute = "/uploads"

// Dependencies holds all the application dependencies
type Dependencies struct {
	Config         *config.Config
	Logger         zerolog.Logger
	Repos          *appRepos.Repositories
	Services       *appServices.Services
	JWTService     *pkgAuth.JWTService
	FileStorage    *filestorage.LocalStorage
	Hub            *websocket.Hub
	MatchStream    *websocket.MessageHandler
	AuthMiddleware *appMiddleware.AuthMiddleware
	RateLimiter    *appMiddleware.IPRateLimiter
	Controllers    appRoutes.Controllers
}

// Storage is an opened storage backend and the repositories on top of it
type Storage struct {
	Repos    *appRepos.Repositories
	Postgres *db.PostgresDB
	Mongo    *db.MongoDB
}

// Close releases the backend connections
func (s *Storage) Close(ctx context.Context) error {
	if s.Postgres != nil {
		s.Postgres.Close()
	}
	if s.Mongo != nil {
		return s.Mongo.Close(ctx)
	}
	return nil
}

// LoadConfigAndSetupLogger loads configuration and initializes the logger.
func LoadConfigAndSetupLogger(configPath string) (*config.Config, zerolog.Logger, error) {
	if configPath == "" {
		configPath = DefaultConfigPath
	}
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to load configuration")
		return nil, zerolog.Logger{}, err
	}

	logger.Configure(logger.FromSettings(cfg.Logging.Level, cfg.Logging.Format))

	lgr := logger.Get()
	lgr.Info().
		Str("logLevel", cfg.Logging.Level).
		Str("logFormat", cfg.Logging.Format).
		Str("storage", cfg.Storage.Driver).
		Msg("Logger configured")
	return cfg, lgr, nil
}

// SetupStorage opens the configured storage backend. PostgreSQL is migrated
// and MongoDB gets its indexes before the repositories are returned.
func SetupStorage(ctx context.Context, cfg *config.Config, lgr zerolog.Logger) (*Storage, error) {
	switch cfg.Storage.Driver {
	case config.DriverPostgres:
		lgr.Info().Msg("Establishing database connection...")
		database, err := db.NewPostgresDB(cfg)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		lgr.Info().Msg("Database connection successfully established.")

		if err := RunMigrations(ctx, database, lgr); err != nil {
			database.Close()
			return nil, err
		}
		return &Storage{Repos: appRepos.NewRepositories(database), Postgres: database}, nil

	case config.DriverMongo:
		mongoDB, err := db.NewMongoDB(cfg)
		if err != nil {
			return nil, err
		}
		users := mongostore.NewUserRepository(mongoDB.Database)
		if err := users.EnsureIndexes(ctx); err != nil {
			_ = mongoDB.Close(ctx)
			return nil, fmt.Errorf("failed to create mongo indexes: %w", err)
		}
		repos := &appRepos.Repositories{
			UserRepository:       users,
			FriendshipRepository: mongostore.NewFriendshipRepository(mongoDB.Database),
		}
		return &Storage{Repos: repos, Mongo: mongoDB}, nil

	case config.DriverMemory:
		lgr.Warn().Msg("Using in-memory storage; data is lost on restart")
		return &Storage{Repos: memory.NewRepositories()}, nil
	}
	return nil, fmt.Errorf("unknown storage driver %q", cfg.Storage.Driver)
}

// RunMigrations applies the embedded SQL migrations
func RunMigrations(ctx context.Context, database *db.PostgresDB, lgr zerolog.Logger) error {
	lgr.Info().Msg("Running database migrations...")
	migrator := appMigrations.NewMigrator(database.Pool, lgr)
	if err := migrator.Migrate(ctx, appMigrations.Files()); err != nil {
		lgr.Error().Err(err).Msg("Database migration error")
		return fmt.Errorf("database migrations failed: %w", err)
	}
	lgr.Info().Msg("Database migrations successfully applied.")
	return nil
}

// SeedDemoData loads the demo profiles. Failures are logged and returned
// but existing data is never touched.
func SeedDemoData(ctx context.Context, repos *appRepos.Repositories, lgr zerolog.Logger) error {
	if err := seed.CreateDefaultData(ctx, repos, lgr); err != nil {
		lgr.Error().Err(err).Msg("Failed to create default data")
		return err
	}
	return nil
}

func uploadsBaseURL(cfg *config.Config) string {
	if cfg.Uploads.BaseURL != "" {
		return strings.TrimRight(cfg.Uploads.BaseURL, "/")
	}
	return "http://localhost:" + cfg.Server.Port + UploadsRoute
}

func outboundClient(cfg *config.Config, timeout string, lgr zerolog.Logger) *http.Client {
	return httpclient.New(httpclient.Options{
		Timeout:           helpers.ParseDuration(timeout, 30*time.Second),
		RetryMax:          cfg.Outbound.RetryMax,
		RetryWaitMin:      helpers.ParseDuration(cfg.Outbound.RetryWaitMin, 250*time.Millisecond),
		RetryWaitMax:      helpers.ParseDuration(cfg.Outbound.RetryWaitMax, 2*time.Second),
		RequestsPerSecond: cfg.Outbound.RequestsPerSecond,
		Burst:             cfg.Outbound.Burst,
	}, lgr)
}

// BuildDependencies initializes services, the match stream and controllers.
func BuildDependencies(cfg *config.Config, repos *appRepos.Repositories, lgr zerolog.Logger) (*Dependencies, error) {
	deps := &Dependencies{Config: cfg, Logger: lgr, Repos: repos}

	var err error
	deps.FileStorage, err = filestorage.NewLocalStorage(cfg.Uploads.Dir, uploadsBaseURL(cfg), logger.Component(lgr, "storage"))
	if err != nil {
		lgr.Error().Err(err).Msg("Failed to initialize file storage")
		return nil, fmt.Errorf("failed to initialize file storage: %w", err)
	}

	if err := validation.RegisterWithGin(); err != nil {
		return nil, fmt.Errorf("failed to register validators: %w", err)
	}

	deps.JWTService = pkgAuth.NewJWTService(pkgAuth.JWTConfig{
		SecretKey:      cfg.JWT.Secret,
		AccessTokenExp: helpers.ParseDuration(cfg.JWT.AccessTokenExpiration, 24*time.Hour),
		TokenIssuer:    cfg.JWT.Issuer,
	})

	aiClient := genai.NewClient(genai.Config{
		Endpoint: cfg.GenAI.Endpoint,
		APIKey:   cfg.GenAI.APIKey,
		Model:    cfg.GenAI.Model,
	}, outboundClient(cfg, cfg.GenAI.Timeout, logger.Component(lgr, "genai")))
	mapsClient := maps.NewClient(maps.Config{
		Endpoint: cfg.Maps.Endpoint,
		APIKey:   cfg.Maps.APIKey,
	}, outboundClient(cfg, cfg.Maps.Timeout, logger.Component(lgr, "maps")))
	if !aiClient.Configured() {
		lgr.Warn().Msg("GenAI API key not set; study spaces come from the built-in catalog")
	}
	if !mapsClient.Configured() {
		lgr.Warn().Msg("Maps API key not set; walking distances are mocked")
	}

	studyPlanner := planner.New(aiClient, mapsClient, planner.Options{
		Parallelism: cfg.Planner.Parallelism,
		Seed:        cfg.Planner.MockSeed,
	}, logger.Component(lgr, "planner"))

	feed := appServices.NewProfileFeed(repos.UserRepository, logger.Component(lgr, "feed"))
	matches := appServices.NewMatchService(feed, logger.Component(lgr, "matches"))
	deps.Services = &appServices.Services{
		Feed:    feed,
		Auth:    appServices.NewAuthService(repos.UserRepository, deps.JWTService, feed, logger.Component(lgr, "auth")),
		Courses: appServices.NewCourseService(repos.UserRepository, deps.FileStorage, schedule.NewParser(), feed, cfg.Uploads.MaxSizeBytes, logger.Component(lgr, "courses")),
		Matches: matches,
		Friends: appServices.NewFriendshipService(repos.UserRepository, repos.FriendshipRepository, logger.Component(lgr, "friends")),
		Suggestions: appServices.NewSuggestionService(
			studyPlanner, matches, cfg.Planner.DefaultOrigin, logger.Component(lgr, "suggestions"),
		),
	}

	deps.Hub = websocket.NewHub(logger.Component(lgr, "hub"))
	deps.MatchStream = websocket.NewMessageHandler(
		deps.Hub, feed, matches, deps.Services.Suggestions, logger.Component(lgr, "match_stream"),
	)

	deps.AuthMiddleware = appMiddleware.NewAuthMiddleware(deps.JWTService, repos.UserRepository)
	if cfg.RateLimit.Enabled {
		deps.RateLimiter = appMiddleware.NewIPRateLimiter(cfg.RateLimit.RequestsPerSecond, cfg.RateLimit.Burst)
	}

	deps.Controllers = appRoutes.Controllers{
		Auth:        appControllers.NewAuthController(deps.Services.Auth, lgr),
		Profile:     appControllers.NewProfileController(deps.Services.Auth, feed, lgr),
		Course:      appControllers.NewCourseController(deps.Services.Courses, lgr),
		Match:       appControllers.NewMatchController(matches, lgr),
		Friend:      appControllers.NewFriendController(deps.Services.Friends, deps.Services.Suggestions, lgr),
		Suggestion:  appControllers.NewSuggestionController(deps.Services.Suggestions, lgr),
		MatchStream: websocket.NewHandler(deps.Hub, cfg.Server.AllowedOrigins, logger.Component(lgr, "ws")),
	}

	return deps, nil
}

// Start launches the hub loop and the match stream. Both stop when ctx ends.
// The first profile snapshot is loaded eagerly so that connecting clients
// receive matches right away.
func (d *Dependencies) Start(ctx context.Context) error {
	go d.Hub.Run(ctx)
	d.MatchStream.Start(ctx)
	if _, err := d.Services.Feed.Refresh(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// Close releases background resources held by the services
func (d *Dependencies) Close() {
	if d.Services != nil {
		d.Services.Close()
	}
}

// SetupRouter configures the Gin engine with middleware and routes.
func SetupRouter(cfg *config.Config, deps *Dependencies, lgr zerolog.Logger) *gin.Engine {
	if strings.ToLower(cfg.Server.Mode) == "production" {
		gin.SetMode(gin.ReleaseMode)
		lgr.Info().Msg("Setting Gin mode to release")
	} else if gin.Mode() != gin.TestMode {
		gin.SetMode(gin.DebugMode)
		lgr.Info().Msg("Setting Gin mode to debug")
	}

	router := gin.New()
	router.MaxMultipartMemory = cfg.Uploads.MaxSizeBytes
	router.Use(
		appMiddleware.RequestID(),
		appMiddleware.RequestLogger(logger.Component(lgr, "http")),
		appMiddleware.Recovery(lgr),
		appMiddleware.CORS(cfg.Server.AllowedOrigins),
	)
	if deps.RateLimiter != nil {
		router.Use(appMiddleware.RateLimit(deps.RateLimiter))
	}

	appRoutes.SetupRouter(router, deps.Controllers, deps.AuthMiddleware)

	router.Static(UploadsRoute, cfg.Uploads.Dir)
	lgr.Info().Str("path", cfg.Uploads.Dir).Msg("Static file serving configured for uploads directory")

	return router
}
