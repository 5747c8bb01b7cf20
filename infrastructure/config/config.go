package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	domainconfig "aura-backend/domain/config"
)

// Storage backends
const (
	BackendMemory   = "memory"
	BackendSQLite   = "sqlite"
	BackendDynamoDB = "dynamodb"
)

// Config holds all application configuration
type Config struct {
	// Server configuration
	ServerAddress string
	Environment   string

	// Storage
	StorageBackend string
	SQLitePath     string
	StorageTimeout time.Duration

	// AWS configuration
	AWSRegion        string
	DynamoDBEndpoint string
	CirclesTable     string
	MessagesTable    string
	StatusTable      string
	StatusIndexName  string // GSI1 - active circles by creation time
	EventBusName     string

	// Lambda configuration
	IsLambda           bool
	LambdaFunctionName string

	// Business rules
	JoinMaxAttempts         int
	RequireCircleMembership bool

	// Logging
	LogLevel string

	// Feature flags
	EnableMetrics      bool
	EnableTracing      bool
	EnableEvents       bool
	EnableCORS         bool
	CORSAllowedOrigins []string

	// Per-client request budget on /api, 0 disables it
	RateLimitPerMinute int
}

// LoadDotEnv loads variables from .env files into the process environment
// without overriding ones already set. Missing files are ignored.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, path := range paths {
		if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("load %s: %w", path, err)
		}
	}
	return nil
}

// LoadConfig loads configuration from environment variables
func LoadConfig() (*Config, error) {
	cfg := &Config{
		ServerAddress: getEnv("SERVER_ADDRESS", ":8080"),
		Environment:   getEnv("ENVIRONMENT", "development"),

		StorageBackend: strings.ToLower(getEnv("STORAGE_BACKEND", BackendMemory)),
		SQLitePath:     getEnv("SQLITE_PATH", "aura.db"),
		StorageTimeout: getEnvDuration("STORAGE_TIMEOUT", 3*time.Second),

		AWSRegion:        getEnv("AWS_REGION", "us-west-2"),
		DynamoDBEndpoint: getEnv("DYNAMODB_ENDPOINT", ""),
		CirclesTable:     getEnv("CIRCLES_TABLE", "aura-circles"),
		MessagesTable:    getEnv("MESSAGES_TABLE", "aura-messages"),
		StatusTable:      getEnv("STATUS_TABLE", "aura-status-checks"),
		StatusIndexName:  getEnv("STATUS_INDEX_NAME", "GSI1"),
		EventBusName:     getEnv("EVENT_BUS_NAME", "aura-events"),

		IsLambda:           getEnvBool("IS_LAMBDA", false),
		LambdaFunctionName: getEnv("AWS_LAMBDA_FUNCTION_NAME", ""),

		JoinMaxAttempts:         getEnvInt("JOIN_MAX_ATTEMPTS", 0),
		RequireCircleMembership: getEnvBool("REQUIRE_CIRCLE_MEMBERSHIP", false),

		LogLevel:           getEnv("LOG_LEVEL", "info"),
		EnableMetrics:      getEnvBool("ENABLE_METRICS", true),
		EnableTracing:      getEnvBool("ENABLE_TRACING", false),
		EnableEvents:       getEnvBool("ENABLE_EVENTS", false),
		EnableCORS:         getEnvBool("ENABLE_CORS", true),
		CORSAllowedOrigins: getEnvList("CORS_ALLOWED_ORIGINS", []string{"*"}),
		RateLimitPerMinute: getEnvInt("RATE_LIMIT_PER_MINUTE", 0),
	}
	// The Lambda runtime always sets the function name
	if cfg.LambdaFunctionName != "" {
		cfg.IsLambda = true
	}

	// Validate required configuration
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Load is an alias for LoadConfig
func Load() (*Config, error) {
	return LoadConfig()
}

// Validate checks if all required configuration is present
func (c *Config) Validate() error {
	switch c.StorageBackend {
	case BackendMemory:
	case BackendSQLite:
		if c.SQLitePath == "" {
			return fmt.Errorf("SQLITE_PATH is required for the sqlite backend")
		}
	case BackendDynamoDB:
		if c.CirclesTable == "" || c.MessagesTable == "" || c.StatusTable == "" {
			return fmt.Errorf("CIRCLES_TABLE, MESSAGES_TABLE and STATUS_TABLE are required for the dynamodb backend")
		}
		if c.StatusIndexName == "" {
			return fmt.Errorf("STATUS_INDEX_NAME is required for the dynamodb backend")
		}
	default:
		return fmt.Errorf("unknown STORAGE_BACKEND %q", c.StorageBackend)
	}

	if c.StorageTimeout <= 0 {
		return fmt.Errorf("STORAGE_TIMEOUT must be positive, got %s", c.StorageTimeout)
	}
	if c.JoinMaxAttempts < 0 {
		return fmt.Errorf("JOIN_MAX_ATTEMPTS must be positive, got %d", c.JoinMaxAttempts)
	}
	if c.RateLimitPerMinute < 0 {
		return fmt.Errorf("RATE_LIMIT_PER_MINUTE cannot be negative, got %d", c.RateLimitPerMinute)
	}
	if c.EnableEvents && c.EventBusName == "" {
		return fmt.Errorf("EVENT_BUS_NAME is required when events are enabled")
	}
	if c.IsProduction() && c.StorageBackend == BackendMemory {
		return fmt.Errorf("the memory backend cannot be used in production")
	}

	return nil
}

// DomainConfig derives business rules for the configured environment
func (c *Config) DomainConfig() *domainconfig.DomainConfig {
	dc := domainconfig.LoadDomainConfig(c.Environment)
	if c.JoinMaxAttempts > 0 {
		dc.JoinMaxAttempts = c.JoinMaxAttempts
	}
	dc.RequireMembership = c.RequireCircleMembership
	return dc
}

// IsDevelopment checks if running in development mode
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// IsProduction checks if running in production mode
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// getEnv gets an environment variable with a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvBool gets a boolean environment variable with a default value
func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value == "true" || value == "1" || value == "yes"
}

// getEnvInt gets an integer environment variable with a default value
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

// getEnvDuration accepts Go durations ("3s") or plain milliseconds
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	if d, err := time.ParseDuration(value); err == nil {
		return d
	}
	if ms, err := strconv.Atoi(value); err == nil {
		return time.Duration(ms) * time.Millisecond
	}
	return defaultValue
}

// getEnvList splits a comma-separated variable
func getEnvList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var items []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	if len(items) == 0 {
		return defaultValue
	}
	return items
}
