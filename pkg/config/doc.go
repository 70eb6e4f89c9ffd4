// Package config provides application configuration management from environment variables.
//
// # Overview
//
// This package loads and validates configuration from environment variables with
// sensible defaults for all settings except secrets.
//
// # Configuration Structure
//
// Server settings:
//
//	SHELFHUB_HOST="0.0.0.0"
//	SHELFHUB_PORT="8080"
//	SHELFHUB_HEALTH_PORT="9090"
//	SHELFHUB_READ_TIMEOUT="15s"
//	SHELFHUB_WRITE_TIMEOUT="15s"
//
// Database settings:
//
//	SHELFHUB_POSTGRES_URL="postgres://localhost:5432/shelfhub?sslmode=disable"
//	SHELFHUB_POSTGRES_MAX_CONNS="20"
//	SHELFHUB_POSTGRES_IDLE_CONNS="5"
//
// Cache settings (leave SHELFHUB_REDIS_ADDR unset to disable caching):
//
//	SHELFHUB_REDIS_ADDR="localhost:6379"
//	SHELFHUB_REDIS_DB="0"
//	SHELFHUB_CACHE_TTL="5m"
//
// Auth settings:
//
//	SHELFHUB_JWT_SECRET="..."       # required
//	SHELFHUB_TOKEN_TTL="24h"
//	SHELFHUB_ADMIN_EMAIL="admin@shelfhub.local"
//	SHELFHUB_ADMIN_PASSWORD="..."   # bootstrap admin created at startup when set
//
// Observability settings:
//
//	SHELFHUB_LOG_LEVEL="info"  # debug, info, warn, error
//	SHELFHUB_METRICS_ENABLED="true"
//
// # Usage Example
//
// Load configuration:
//
//	cfg, err := config.LoadConfig()
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	fmt.Printf("Server: %s:%s\n", cfg.Server.Host, cfg.Server.Port)
//	fmt.Printf("Log level: %s\n", cfg.Observability.LogLevel)
//
// # Related Packages
//
//   - pkg/storage: Uses database configuration
//   - pkg/observability: Uses observability configuration
package config
