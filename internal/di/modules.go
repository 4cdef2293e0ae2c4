package di

import (
	"botstudio/config"
	"botstudio/internal/apis/handlers"
	"botstudio/internal/cache"
	"botstudio/internal/constants"
	"botstudio/internal/events"
	"botstudio/internal/models"
	"botstudio/internal/repositories"
	"botstudio/internal/services"
	"botstudio/internal/utils"
	"botstudio/pkg/llm"
	"botstudio/pkg/mongodb"
	"botstudio/pkg/nlu"
	"botstudio/pkg/postgres"
	"botstudio/pkg/redis"
	"context"
	"log"
	"time"

	"go.uber.org/dig"
)

var DiContainer *dig.Container

func Initialize() {
	DiContainer = dig.New()

	// Initialize MongoDB
	dbConfig := mongodb.MongoDbConfigModel{
		ConnectionUrl: config.Env.MongoURI,
		DatabaseName:  config.Env.MongoDatabaseName,
	}
	mongodbClient := mongodb.InitializeDatabaseConnection(dbConfig)

	// Initialize Redis
	redisClient, err := redis.RedisClient(config.Env.RedisHost, config.Env.RedisPort, config.Env.RedisUsername, config.Env.RedisPassword)
	if err != nil {
		log.Fatalf("Failed to initialize Redis client: %v", err)
	}

	// Initialize Postgres for the audit history store
	gormDB := postgres.InitializeDatabaseConnection(config.Env.PostgresDSN, &models.HistoryRecord{})

	redisRepo := redis.NewRedisRepositories(redisClient)
	jwtService := utils.NewJWTService(
		config.Env.JWTSecret,
		time.Millisecond*time.Duration(config.Env.JWTExpirationMilliseconds),
		time.Millisecond*time.Duration(config.Env.JWTRefreshExpirationMilliseconds),
	)

	// Provide infrastructure
	if err := DiContainer.Provide(func() *mongodb.MongoDBClient { return mongodbClient }); err != nil {
		log.Fatalf("Failed to provide MongoDB client: %v", err)
	}
	if err := DiContainer.Provide(func() redis.IRedisRepositories { return redisRepo }); err != nil {
		log.Fatalf("Failed to provide Redis repositories: %v", err)
	}
	if err := DiContainer.Provide(func() utils.JWTService { return jwtService }); err != nil {
		log.Fatalf("Failed to provide JWT service: %v", err)
	}

	// Provide repositories
	if err := DiContainer.Provide(func(db *mongodb.MongoDBClient) repositories.InteractionRepository {
		return repositories.NewInteractionRepository(db)
	}); err != nil {
		log.Fatalf("Failed to provide interaction repository: %v", err)
	}
	if err := DiContainer.Provide(func(db *mongodb.MongoDBClient) repositories.IntentCatalogRepository {
		return repositories.NewIntentCatalogRepository(db)
	}); err != nil {
		log.Fatalf("Failed to provide intent catalog repository: %v", err)
	}
	if err := DiContainer.Provide(func(db *mongodb.MongoDBClient) repositories.WorkspaceRepository {
		return repositories.NewWorkspaceRepository(db)
	}); err != nil {
		log.Fatalf("Failed to provide workspace repository: %v", err)
	}
	if err := DiContainer.Provide(func(db *mongodb.MongoDBClient) repositories.PublicationRepository {
		return repositories.NewPublicationRepository(db)
	}); err != nil {
		log.Fatalf("Failed to provide publication repository: %v", err)
	}
	if err := DiContainer.Provide(func(db *mongodb.MongoDBClient) repositories.EntityRepository {
		return repositories.NewEntityRepository(db)
	}); err != nil {
		log.Fatalf("Failed to provide entity repository: %v", err)
	}
	if err := DiContainer.Provide(func(db *mongodb.MongoDBClient) repositories.UserRepository {
		return repositories.NewUserRepository(db)
	}); err != nil {
		log.Fatalf("Failed to provide user repository: %v", err)
	}
	if err := DiContainer.Provide(func() repositories.HistoryRepository {
		return repositories.NewHistoryRepository(gormDB)
	}); err != nil {
		log.Fatalf("Failed to provide history repository: %v", err)
	}
	if err := DiContainer.Provide(func(redisRepo redis.IRedisRepositories) repositories.TokenRepository {
		return repositories.NewTokenRepository(redisRepo)
	}); err != nil {
		log.Fatalf("Failed to provide token repository: %v", err)
	}

	// Provide cache and events
	if err := DiContainer.Provide(func(redisRepo redis.IRedisRepositories) cache.InteractionCache {
		return cache.NewRedisInteractionCache(redisRepo)
	}); err != nil {
		log.Fatalf("Failed to provide interaction cache: %v", err)
	}
	if err := DiContainer.Provide(func(redisRepo redis.IRedisRepositories) events.Publisher {
		return events.NewRedisPublisher(redisRepo)
	}); err != nil {
		log.Fatalf("Failed to provide event publisher: %v", err)
	}

	// Add LLM Manager for the suggestion endpoint
	if err := DiContainer.Provide(func() *llm.Manager {
		manager := llm.NewManager()

		switch config.Env.DefaultSuggestionClient {
		case constants.OpenAI:
			err := manager.RegisterClient(constants.OpenAI, llm.Config{
				Provider: constants.OpenAI,
				Model:    config.Env.OpenAIModel,
				APIKey:   config.Env.OpenAIAPIKey,
			})
			if err != nil {
				log.Printf("Warning: Failed to register OpenAI client: %v", err)
			}
		case constants.Gemini:
			err := manager.RegisterClient(constants.Gemini, llm.Config{
				Provider: constants.Gemini,
				Model:    config.Env.GeminiModel,
				APIKey:   config.Env.GeminiAPIKey,
			})
			if err != nil {
				log.Printf("Warning: Failed to register Gemini client: %v", err)
			}
		}
		return manager
	}); err != nil {
		log.Fatalf("Failed to provide LLM manager: %v", err)
	}

	// Provide services
	if err := DiContainer.Provide(func(interactionRepo repositories.InteractionRepository) services.PathResolver {
		return services.NewPathResolver(interactionRepo, config.Env.MaxTraversalDepth)
	}); err != nil {
		log.Fatalf("Failed to provide path resolver: %v", err)
	}
	if err := DiContainer.Provide(func(intentCatalog repositories.IntentCatalogRepository, interactionRepo repositories.InteractionRepository) services.IntentValidator {
		return services.NewIntentValidator(intentCatalog, interactionRepo, config.Env.MaxTraversalDepth)
	}); err != nil {
		log.Fatalf("Failed to provide intent validator: %v", err)
	}
	if err := DiContainer.Provide(func(historyRepo repositories.HistoryRepository, publicationRepo repositories.PublicationRepository) services.HistoryService {
		return services.NewHistoryService(historyRepo, publicationRepo)
	}); err != nil {
		log.Fatalf("Failed to provide history service: %v", err)
	}
	if err := DiContainer.Provide(func(
		interactionRepo repositories.InteractionRepository,
		entityRepo repositories.EntityRepository,
		workspaceRepo repositories.WorkspaceRepository,
	) services.NLUSyncService {
		providerFactory := func(ctx context.Context, cfg nlu.Config) (nlu.Provider, error) {
			provider, err := nlu.NewDialogflowProvider(ctx, cfg)
			if err != nil {
				return nil, err
			}
			return provider, nil
		}
		return services.NewNLUSyncService(
			interactionRepo,
			entityRepo,
			workspaceRepo,
			providerFactory,
			time.Millisecond*time.Duration(config.Env.NLUSyncCallDelayMs),
		)
	}); err != nil {
		log.Fatalf("Failed to provide NLU sync service: %v", err)
	}
	if err := DiContainer.Provide(func(
		interactionRepo repositories.InteractionRepository,
		pathResolver services.PathResolver,
		intentValidator services.IntentValidator,
		historyService services.HistoryService,
		nluSync services.NLUSyncService,
		interactionCache cache.InteractionCache,
	) services.InteractionService {
		return services.NewInteractionService(interactionRepo, pathResolver, intentValidator, historyService, nluSync, interactionCache)
	}); err != nil {
		log.Fatalf("Failed to provide interaction service: %v", err)
	}
	if err := DiContainer.Provide(func(
		interactionRepo repositories.InteractionRepository,
		publicationRepo repositories.PublicationRepository,
		intentValidator services.IntentValidator,
		historyService services.HistoryService,
		eventPublisher events.Publisher,
		interactionCache cache.InteractionCache,
	) services.PublicationService {
		return services.NewPublicationService(interactionRepo, publicationRepo, intentValidator, historyService, eventPublisher, interactionCache)
	}); err != nil {
		log.Fatalf("Failed to provide publication service: %v", err)
	}
	if err := DiContainer.Provide(func(interactionRepo repositories.InteractionRepository, llmManager *llm.Manager) services.SuggestionService {
		return services.NewSuggestionService(interactionRepo, llmManager)
	}); err != nil {
		log.Fatalf("Failed to provide suggestion service: %v", err)
	}
	if err := DiContainer.Provide(func(interactionRepo repositories.InteractionRepository, interactionCache cache.InteractionCache) services.RuntimeService {
		return services.NewRuntimeService(interactionRepo, interactionCache)
	}); err != nil {
		log.Fatalf("Failed to provide runtime service: %v", err)
	}
	if err := DiContainer.Provide(func(userRepo repositories.UserRepository, tokenRepo repositories.TokenRepository, jwt utils.JWTService) services.AuthService {
		return services.NewAuthService(userRepo, jwt, tokenRepo)
	}); err != nil {
		log.Fatalf("Failed to provide auth service: %v", err)
	}

	// Provide handlers
	if err := DiContainer.Provide(func(authService services.AuthService) *handlers.AuthHandler {
		return handlers.NewAuthHandler(authService)
	}); err != nil {
		log.Fatalf("Failed to provide auth handler: %v", err)
	}
	if err := DiContainer.Provide(func(interactionService services.InteractionService, suggestionService services.SuggestionService) *handlers.InteractionHandler {
		return handlers.NewInteractionHandler(interactionService, suggestionService)
	}); err != nil {
		log.Fatalf("Failed to provide interaction handler: %v", err)
	}
	if err := DiContainer.Provide(func(publicationService services.PublicationService, nluSyncService services.NLUSyncService) *handlers.PublicationHandler {
		return handlers.NewPublicationHandler(publicationService, nluSyncService)
	}); err != nil {
		log.Fatalf("Failed to provide publication handler: %v", err)
	}
	if err := DiContainer.Provide(func(runtimeService services.RuntimeService) *handlers.RuntimeHandler {
		return handlers.NewRuntimeHandler(runtimeService)
	}); err != nil {
		log.Fatalf("Failed to provide runtime handler: %v", err)
	}
}

// GetAuthHandler retrieves the AuthHandler from the DI container
func GetAuthHandler() (*handlers.AuthHandler, error) {
	var handler *handlers.AuthHandler
	err := DiContainer.Invoke(func(h *handlers.AuthHandler) {
		handler = h
	})
	if err != nil {
		return nil, err
	}
	return handler, nil
}

// GetInteractionHandler retrieves the InteractionHandler from the DI container
func GetInteractionHandler() (*handlers.InteractionHandler, error) {
	var handler *handlers.InteractionHandler
	err := DiContainer.Invoke(func(h *handlers.InteractionHandler) {
		handler = h
	})
	if err != nil {
		return nil, err
	}
	return handler, nil
}

// GetPublicationHandler retrieves the PublicationHandler from the DI container
func GetPublicationHandler() (*handlers.PublicationHandler, error) {
	var handler *handlers.PublicationHandler
	err := DiContainer.Invoke(func(h *handlers.PublicationHandler) {
		handler = h
	})
	if err != nil {
		return nil, err
	}
	return handler, nil
}

// GetRuntimeHandler retrieves the RuntimeHandler from the DI container
func GetRuntimeHandler() (*handlers.RuntimeHandler, error) {
	var handler *handlers.RuntimeHandler
	err := DiContainer.Invoke(func(h *handlers.RuntimeHandler) {
		handler = h
	})
	if err != nil {
		return nil, err
	}
	return handler, nil
}
