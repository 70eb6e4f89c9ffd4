package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/shelfhub/shelfhub/pkg/observability"
)

// Config holds all application configuration
type Config struct {
	// Server configuration
	Server ServerConfig

	// Database configuration
	Database DatabaseConfig

	// Redis configuration (optional; caching degrades gracefully when unset)
	Redis RedisConfig

	// Auth configuration
	Auth AuthConfig

	// Seed configuration
	Seed SeedConfig

	// Observability configuration
	Observability ObservabilityConfig
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host            string
	Port            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration

	// Health/metrics server (separate port for k8s probes)
	HealthPort string
}

// DatabaseConfig holds PostgreSQL connection settings
type DatabaseConfig struct {
	URL             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnectTimeout  time.Duration
}

// RedisConfig holds Redis cache settings
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	CacheTTL time.Duration
}

// Enabled reports whether a cache address has been configured
func (c RedisConfig) Enabled() bool {
	return c.Addr != ""
}

// AuthConfig holds token signing and bootstrap admin settings
type AuthConfig struct {
	JWTSecret string
	TokenTTL  time.Duration

	// Bootstrap admin account created by the seeder when absent
	AdminEmail    string
	AdminUsername string
	AdminPassword string
}

// SeedConfig holds seed data settings
type SeedConfig struct {
	// FixturePath points at a YAML fixture of authors, books and libraries.
	// Empty means the built-in fixture is used.
	FixturePath string
}

// ObservabilityConfig holds observability settings
type ObservabilityConfig struct {
	LogLevel       observability.LogLevel
	MetricsEnabled bool
}

// LoadConfig loads configuration from environment variables
func LoadConfig() (*Config, error) {
	cfg := &Config{
		Server:        loadServerConfig(),
		Database:      loadDatabaseConfig(),
		Redis:         loadRedisConfig(),
		Auth:          loadAuthConfig(),
		Seed:          loadSeedConfig(),
		Observability: loadObservabilityConfig(),
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// loadServerConfig loads server configuration from environment
func loadServerConfig() ServerConfig {
	return ServerConfig{
		Host:            getEnv("SHELFHUB_HOST", "0.0.0.0"),
		Port:            getEnv("SHELFHUB_PORT", "8080"),
		ReadTimeout:     getEnvDuration("SHELFHUB_READ_TIMEOUT", 15*time.Second),
		WriteTimeout:    getEnvDuration("SHELFHUB_WRITE_TIMEOUT", 15*time.Second),
		IdleTimeout:     getEnvDuration("SHELFHUB_IDLE_TIMEOUT", 60*time.Second),
		ShutdownTimeout: getEnvDuration("SHELFHUB_SHUTDOWN_TIMEOUT", 30*time.Second),
		HealthPort:      getEnv("SHELFHUB_HEALTH_PORT", "9090"),
	}
}

// loadDatabaseConfig loads database configuration from environment
func loadDatabaseConfig() DatabaseConfig {
	return DatabaseConfig{
		URL:             getEnv("SHELFHUB_POSTGRES_URL", "postgres://localhost:5432/shelfhub?sslmode=disable"),
		MaxOpenConns:    getEnvInt("SHELFHUB_POSTGRES_MAX_CONNS", 20),
		MaxIdleConns:    getEnvInt("SHELFHUB_POSTGRES_IDLE_CONNS", 5),
		ConnMaxLifetime: getEnvDuration("SHELFHUB_POSTGRES_CONN_LIFETIME", 30*time.Minute),
		ConnectTimeout:  getEnvDuration("SHELFHUB_POSTGRES_TIMEOUT", 10*time.Second),
	}
}

// loadRedisConfig loads redis configuration from environment
func loadRedisConfig() RedisConfig {
	return RedisConfig{
		Addr:     getEnv("SHELFHUB_REDIS_ADDR", ""),
		Password: getEnv("SHELFHUB_REDIS_PASSWORD", ""),
		DB:       getEnvInt("SHELFHUB_REDIS_DB", 0),
		CacheTTL: getEnvDuration("SHELFHUB_CACHE_TTL", 5*time.Minute),
	}
}

// loadAuthConfig loads auth configuration from environment
func loadAuthConfig() AuthConfig {
	return AuthConfig{
		JWTSecret:     getEnv("SHELFHUB_JWT_SECRET", ""),
		TokenTTL:      getEnvDuration("SHELFHUB_TOKEN_TTL", 24*time.Hour),
		AdminEmail:    getEnv("SHELFHUB_ADMIN_EMAIL", "admin@shelfhub.local"),
		AdminUsername: getEnv("SHELFHUB_ADMIN_USERNAME", "admin"),
		AdminPassword: getEnv("SHELFHUB_ADMIN_PASSWORD", ""),
	}
}

// loadSeedConfig loads seed configuration from environment
func loadSeedConfig() SeedConfig {
	return SeedConfig{
		FixturePath: getEnv("SHELFHUB_SEED_FIXTURE", ""),
	}
}

// loadObservabilityConfig loads observability configuration from environment
func loadObservabilityConfig() ObservabilityConfig {
	return ObservabilityConfig{
		LogLevel:       parseLogLevel(getEnv("SHELFHUB_LOG_LEVEL", "info")),
		MetricsEnabled: getEnvBool("SHELFHUB_METRICS_ENABLED", true),
	}
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf("server port is required")
	}
	if c.Server.HealthPort == "" {
		return fmt.Errorf("health port is required")
	}
	if c.Server.Port == c.Server.HealthPort {
		return fmt.Errorf("server port and health port must be different")
	}

	if c.Database.URL == "" {
		return fmt.Errorf("postgres URL is required")
	}
	if c.Database.MaxOpenConns < c.Database.MaxIdleConns {
		return fmt.Errorf("max open connections must be >= max idle connections")
	}

	if c.Auth.JWTSecret == "" {
		return fmt.Errorf("JWT secret is required")
	}
	if c.Auth.TokenTTL <= 0 {
		return fmt.Errorf("token TTL must be positive")
	}

	return nil
}

// parseLogLevel parses a log level string
func parseLogLevel(level string) observability.LogLevel {
	switch strings.ToLower(level) {
	case "debug":
		return observability.DebugLevel
	case "info":
		return observability.InfoLevel
	case "warn", "warning":
		return observability.WarnLevel
	case "error":
		return observability.ErrorLevel
	default:
		return observability.InfoLevel
	}
}

// getEnv returns an environment variable value or a default
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvBool returns a boolean environment variable or a default
func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		return strings.ToLower(value) == "true" || value == "1"
	}
	return defaultValue
}

// getEnvInt returns an integer environment variable or a default
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

// getEnvDuration returns a duration environment variable or a default
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
