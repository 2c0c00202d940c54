package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
type Config struct {
	// Server configuration
	Server ServerConfig

	// Database configuration
	Database DatabaseConfig

	// Lead lifecycle configuration
	Lifecycle LifecycleConfig

	// KPI configuration
	KPI KPIConfig

	// Lifecycle event publishing
	Events EventsConfig

	// Scheduled jobs
	Cron CronConfig

	// CORS configuration
	CORS CORSConfig
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	Port             string
	Environment      string // development, staging, production
	LogLevel         string // debug, info, warn, error
	EnableRequestLog bool
	MaxIngestRows    int // rows accepted by POST /ingest; 0 disables the limit
}

// DatabaseConfig holds database-related configuration
type DatabaseConfig struct {
	Driver             string // memory or postgres
	URL                string
	MaxConnections     int
	MaxIdleConnections int
	ConnMaxLifetime    time.Duration
	AutoMigrate        bool   // create tables on startup (postgres)
	SnapshotPath       string // CBOR file loaded and saved by the memory driver
}

// LifecycleConfig holds lead state machine configuration
type LifecycleConfig struct {
	Mode string // minimal or extended
}

// KPIConfig holds aggregation configuration
type KPIConfig struct {
	RateMetric string // creation or activity
}

// EventsConfig holds RabbitMQ publishing configuration; an empty URL logs events instead
type EventsConfig struct {
	AMQPURL  string
	Exchange string
}

// CronConfig holds scheduled job configuration
type CronConfig struct {
	Enabled            bool
	RevenueRefreshSpec string
	ExpirySpec         string
	SnapshotSpec       string
}

// CORSConfig holds CORS-related configuration
type CORSConfig struct {
	AllowedOrigins []string
	AllowedMethods []string
	AllowedHeaders []string
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists (for local development)
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	config := &Config{
		Server: ServerConfig{
			Port:             getEnv("PORT", "8080"),
			Environment:      getEnv("ENVIRONMENT", "development"),
			LogLevel:         getEnv("LOG_LEVEL", "info"),
			EnableRequestLog: getEnvAsBool("ENABLE_REQUEST_LOGGING", true),
			MaxIngestRows:    getEnvAsInt("INGEST_MAX_ROWS", 10000),
		},
		Database: DatabaseConfig{
			Driver:             strings.ToLower(getEnv("DATABASE_DRIVER", "memory")),
			URL:                getEnv("DATABASE_URL", ""),
			MaxConnections:     getEnvAsInt("DATABASE_MAX_CONNECTIONS", 10),
			MaxIdleConnections: getEnvAsInt("DATABASE_MAX_IDLE_CONNECTIONS", 5),
			ConnMaxLifetime:    time.Duration(getEnvAsInt("DATABASE_CONN_MAX_LIFETIME", 300)) * time.Second,
			AutoMigrate:        getEnvAsBool("DATABASE_AUTO_MIGRATE", true),
			SnapshotPath:       getEnv("SNAPSHOT_PATH", ""),
		},
		Lifecycle: LifecycleConfig{
			Mode: strings.ToLower(getEnv("LIFECYCLE_MODE", "minimal")),
		},
		KPI: KPIConfig{
			RateMetric: strings.ToLower(getEnv("KPI_RATE_METRIC", "creation")),
		},
		Events: EventsConfig{
			AMQPURL:  getEnv("AMQP_URL", ""),
			Exchange: getEnv("AMQP_EXCHANGE", "leads.events"),
		},
		Cron: CronConfig{
			Enabled:            getEnvAsBool("CRON_ENABLED", true),
			RevenueRefreshSpec: getEnv("CRON_REVENUE_REFRESH", "0 * * * *"),
			ExpirySpec:         getEnv("CRON_SUBSCRIPTION_EXPIRY", "5 0 * * *"),
			SnapshotSpec:       getEnv("CRON_SNAPSHOT", "*/15 * * * *"),
		},
		CORS: CORSConfig{
			AllowedOrigins: getEnvAsSlice("CORS_ALLOWED_ORIGINS", []string{"*"}),
			AllowedMethods: getEnvAsSlice("CORS_ALLOWED_METHODS", []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}),
			AllowedHeaders: getEnvAsSlice("CORS_ALLOWED_HEADERS", []string{"Content-Type", "Authorization"}),
		},
	}

	// Validate required configuration
	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	switch c.Database.Driver {
	case "memory":
	case "postgres":
		if c.Database.URL == "" {
			return fmt.Errorf("DATABASE_URL is required when DATABASE_DRIVER is postgres")
		}
	default:
		return fmt.Errorf("invalid DATABASE_DRIVER: %s (must be 'memory' or 'postgres')", c.Database.Driver)
	}

	if c.Lifecycle.Mode != "minimal" && c.Lifecycle.Mode != "extended" {
		return fmt.Errorf("invalid LIFECYCLE_MODE: %s (must be 'minimal' or 'extended')", c.Lifecycle.Mode)
	}

	if c.KPI.RateMetric != "creation" && c.KPI.RateMetric != "activity" {
		return fmt.Errorf("invalid KPI_RATE_METRIC: %s (must be 'creation' or 'activity')", c.KPI.RateMetric)
	}

	return nil
}

// Helper functions to get environment variables

func getEnv(key string, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		log.Printf("Invalid integer value for %s, using default: %d", key, defaultValue)
		return defaultValue
	}
	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		log.Printf("Invalid boolean value for %s, using default: %t", key, defaultValue)
		return defaultValue
	}
	return value
}

func getEnvAsSlice(key string, defaultValue []string) []string {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	var result []string
	for _, v := range strings.Split(valueStr, ",") {
		if trimmed := strings.TrimSpace(v); trimmed != "" {
			result = append(result, trimmed)
		}
	}
	if len(result) == 0 {
		return defaultValue
	}
	return result
}
