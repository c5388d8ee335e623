package container

import (
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"

	"github.com/emberapp/ember-backend/internal/config"
	"github.com/emberapp/ember-backend/internal/delivery/http"
	"github.com/emberapp/ember-backend/internal/delivery/http/handler"
	"github.com/emberapp/ember-backend/internal/delivery/http/middleware"
	"github.com/emberapp/ember-backend/internal/engine"
	"github.com/emberapp/ember-backend/internal/events"
	"github.com/emberapp/ember-backend/internal/infrastructure/cache"
	"github.com/emberapp/ember-backend/internal/infrastructure/database"
	infraevents "github.com/emberapp/ember-backend/internal/infrastructure/events"
	"github.com/emberapp/ember-backend/internal/infrastructure/gemini"
	"github.com/emberapp/ember-backend/internal/infrastructure/server"
	"github.com/emberapp/ember-backend/internal/repository/postgres"
	"github.com/emberapp/ember-backend/internal/usecase/auth"
	"github.com/emberapp/ember-backend/internal/usecase/catalog"
	"github.com/emberapp/ember-backend/internal/usecase/connection"
	"github.com/emberapp/ember-backend/internal/usecase/profile"
	"github.com/emberapp/ember-backend/internal/usecase/response"
	"github.com/emberapp/ember-backend/internal/usecase/voting"
)

// Container holds all application dependencies
type Container struct {
	Config       *config.Config
	DB           *sqlx.DB
	Redis        *redis.Client
	Server       *server.Server
	Gemini       *gemini.GeminiClient
	ExpiryWorker *voting.ExpiryWorker
}

// NewContainer creates a new dependency injection container
func NewContainer(cfg *config.Config) (*Container, error) {
	// Initialize database
	db, err := database.NewPostgresDB(&cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	// Initialize Redis; events and the shared-interest cache degrade to no-ops
	// without it
	var redisClient *redis.Client
	var publisher events.Publisher = events.NopPublisher{}
	if cfg.Redis.Host != "" {
		redisClient, err = database.NewRedisClient(&cfg.Redis)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize redis: %w", err)
		}
		publisher = infraevents.NewRedisPublisher(redisClient)
	}
	cacheSvc := cache.NewService(redisClient)

	// Initialize Gemini Client
	geminiClient, err := gemini.NewGeminiClient(cfg.GeminiAPIKey)
	if err != nil {
		fmt.Printf("Warning: Failed to initialize Gemini client: %v\n", err)
		// Don't fail, just continue without AI features
	}

	// Initialize repositories
	userRepo := postgres.NewUserRepository(db)
	profileRepo := postgres.NewProfileRepository(db)
	sessionRepo := postgres.NewSessionRepository(db)
	connectionRepo := postgres.NewConnectionRepository(db)
	missionRepo := postgres.NewMissionRepository(db)
	votingRepo := postgres.NewVotingRepository(db)
	responseRepo := postgres.NewResponseRepository(db)

	locks := engine.NewConnectionLocks()

	// Initialize use cases
	authUseCase := auth.NewAuthUseCase(
		userRepo,
		profileRepo,
		sessionRepo,
		cfg.JWT,
	)

	profileUseCase := profile.NewProfileUseCase(
		profileRepo,
		userRepo,
	)

	catalogUseCase := catalog.NewCatalogUseCase(missionRepo)

	connectionUseCase := connection.NewConnectionUseCase(
		connectionRepo,
		profileRepo,
		missionRepo,
		votingRepo,
		publisher,
		locks,
		geminiClient,
	)

	votingUseCase := voting.NewVotingUseCase(
		votingRepo,
		connectionRepo,
		profileRepo,
		responseRepo,
		catalogUseCase,
		cacheSvc,
		publisher,
		locks,
		cfg.Engine,
	)

	responseUseCase := response.NewResponseUseCase(
		responseRepo,
		connectionRepo,
		missionRepo,
		connectionUseCase,
		votingUseCase,
		publisher,
		locks,
	)

	expiryWorker := voting.NewExpiryWorker(votingUseCase, cfg.Engine.ExpiryPollInterval)

	// Initialize handlers
	authHandler := handler.NewAuthHandler(authUseCase)
	profileHandler := handler.NewProfileHandler(profileUseCase)
	missionHandler := handler.NewMissionHandler(catalogUseCase)
	connectionHandler := handler.NewConnectionHandler(connectionUseCase, votingUseCase)
	votingHandler := handler.NewVotingHandler(votingUseCase)
	missionResponseHandler := handler.NewMissionResponseHandler(responseUseCase, connectionUseCase)

	// Initialize middleware
	authMiddleware := middleware.NewAuthMiddleware(authUseCase)

	// Initialize router
	router := http.NewRouter(
		authHandler,
		profileHandler,
		missionHandler,
		connectionHandler,
		votingHandler,
		missionResponseHandler,
		authMiddleware,
	)

	// Setup routes
	ginRouter := router.Setup()

	// Initialize server
	srv := server.NewServer(&cfg.Server, ginRouter)

	return &Container{
		Config:       cfg,
		DB:           db,
		Redis:        redisClient,
		Server:       srv,
		Gemini:       geminiClient,
		ExpiryWorker: expiryWorker,
	}, nil
}

// Close closes all connections
func (c *Container) Close() error {
	// Close Redis
	if c.Redis != nil {
		if err := c.Redis.Close(); err != nil {
			fmt.Printf("Error closing Redis: %v\n", err)
		}
	}

	// Close database
	if c.DB != nil {
		if err := c.DB.Close(); err != nil {
			return fmt.Errorf("failed to close database: %w", err)
		}
	}

	return nil
}
