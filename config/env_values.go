package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Environment struct {
	// Server configs
	IsDocker          bool
	Port              string
	Environment       string
	CorsAllowedOrigin string

	// Auth configs
	JWTSecret                        string
	JWTExpirationMilliseconds        int
	JWTRefreshExpirationMilliseconds int

	// Document store configs
	MongoURI          string
	MongoDatabaseName string

	// Audit store configs
	PostgresDSN string

	// Redis configs
	RedisHost     string
	RedisPort     string
	RedisUsername string
	RedisPassword string

	// Tree traversal guard shared by path resolution and context validation.
	// Heuristic safety valve, kept configurable on purpose.
	MaxTraversalDepth int

	// NLU provider configs
	NLUProjectID       string
	NLUCredentialsJSON string
	NLUSyncCallDelayMs int

	// Suggestion LLM configs
	DefaultSuggestionClient string
	OpenAIAPIKey            string
	OpenAIModel             string
	GeminiAPIKey            string
	GeminiModel             string
}

var Env Environment

// LoadEnv loads environment variables from .env file if present
// and validates required variables
func LoadEnv() error {
	// Check if running in Docker
	Env.IsDocker = os.Getenv("IS_DOCKER") == "true"

	// Load .env file only if not running in Docker
	if !Env.IsDocker {
		if err := godotenv.Load(); err != nil {
			fmt.Printf("Warning: .env file not found: %v\n", err)
		}
	}

	// Server configs
	Env.Port = getEnvWithDefault("PORT", "3000")
	Env.Environment = getEnvWithDefault("ENVIRONMENT", "DEVELOPMENT")
	Env.CorsAllowedOrigin = getEnvWithDefault("CORS_ALLOWED_ORIGIN", "http://localhost:5173")

	// Auth configs
	Env.JWTSecret = getRequiredEnv("JWT_SECRET", "botstudio_jwt_secret")
	Env.JWTExpirationMilliseconds = getIntEnvWithDefault("JWT_EXPIRATION_MILLISECONDS", 1000*60*60*24*10)                // 10 days default
	Env.JWTRefreshExpirationMilliseconds = getIntEnvWithDefault("JWT_REFRESH_EXPIRATION_MILLISECONDS", 1000*60*60*24*30) // 30 days default

	// Database configs
	Env.MongoURI = getRequiredEnv("BOTSTUDIO_MONGODB_URI", "mongodb://localhost:27017/botstudio")
	Env.MongoDatabaseName = getRequiredEnv("BOTSTUDIO_MONGODB_NAME", "botstudio")
	Env.PostgresDSN = getRequiredEnv("BOTSTUDIO_POSTGRES_DSN", "host=localhost user=botstudio password=botstudio dbname=botstudio_audit port=5432 sslmode=disable")
	Env.RedisHost = getRequiredEnv("BOTSTUDIO_REDIS_HOST", "localhost")
	Env.RedisPort = getRequiredEnv("BOTSTUDIO_REDIS_PORT", "6379")
	Env.RedisUsername = getRequiredEnv("BOTSTUDIO_REDIS_USERNAME", "botstudio")
	Env.RedisPassword = getRequiredEnv("BOTSTUDIO_REDIS_PASSWORD", "botstudio")

	// Traversal guard
	Env.MaxTraversalDepth = getIntEnvWithDefault("MAX_TRAVERSAL_DEPTH", 1000)

	// NLU provider configs
	Env.NLUProjectID = getEnvWithDefault("NLU_PROJECT_ID", "")
	Env.NLUCredentialsJSON = getEnvWithDefault("NLU_CREDENTIALS_JSON", "")
	Env.NLUSyncCallDelayMs = getIntEnvWithDefault("NLU_SYNC_CALL_DELAY_MS", 1000)

	// Suggestion LLM configs
	Env.DefaultSuggestionClient = getEnvWithDefault("DEFAULT_SUGGESTION_CLIENT", "openai")
	Env.OpenAIAPIKey = getEnvWithDefault("OPENAI_API_KEY", "")
	Env.OpenAIModel = getEnvWithDefault("OPENAI_MODEL", "gpt-4o-mini")
	Env.GeminiAPIKey = getEnvWithDefault("GEMINI_API_KEY", "")
	Env.GeminiModel = getEnvWithDefault("GEMINI_MODEL", "gemini-2.0-flash")

	return validateConfig()
}

// Helper functions to get environment variables with defaults and validation
func getEnvWithDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getRequiredEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnvWithDefault(key string, defaultValue int) int {
	strValue := os.Getenv(key)
	if strValue == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(strValue)
	if err != nil {
		fmt.Printf("Warning: Invalid value for %s, using default: %d\n", key, defaultValue)
		return defaultValue
	}
	return value
}

func validateConfig() error {
	// Validate MongoDB URI format
	if !isValidURI(Env.MongoURI) {
		return fmt.Errorf("invalid MONGODB_URI format: %s", Env.MongoURI)
	}

	// Validate JWT expiration
	if Env.JWTExpirationMilliseconds <= 0 {
		return fmt.Errorf("JWT_EXPIRATION_MILLISECONDS must be positive, got: %d", Env.JWTExpirationMilliseconds)
	}

	if Env.MaxTraversalDepth <= 0 {
		return fmt.Errorf("MAX_TRAVERSAL_DEPTH must be positive, got: %d", Env.MaxTraversalDepth)
	}

	if Env.NLUSyncCallDelayMs < 0 {
		return fmt.Errorf("NLU_SYNC_CALL_DELAY_MS must not be negative, got: %d", Env.NLUSyncCallDelayMs)
	}

	return nil
}

func isValidURI(uri string) bool {
	return len(uri) > 0 && (len(uri) > 10)
}
