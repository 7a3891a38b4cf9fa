package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
type Config struct {
	DB struct {
		Host     string
		Port     string
		User     string
		Password string
		Name     string
		SSLMode  string
	}

	Server struct {
		Port    string
		GinMode string
	}

	Site struct {
		// BaseURL is the public prefix used to build nominee live URLs.
		BaseURL string
	}

	HubSpot struct {
		Enabled bool
		BaseURL string
		APIKey  string
	}

	Loops struct {
		Enabled bool
		BaseURL string
		APIKey  string
	}

	Outbox struct {
		// Secret guards the processor trigger endpoint.
		Secret      string
		BatchSize   int
		MaxAttempts int
	}

	Sync struct {
		Timeout time.Duration
	}

	CORS struct {
		AllowOrigins string
		AllowMethods string
		AllowHeaders string
	}
}

// Load loads configuration from environment variables
func Load() *Config {
	_ = godotenv.Load()

	config := &Config{}

	config.DB.Host = getEnv("DB_HOST", "localhost")
	config.DB.Port = getEnv("DB_PORT", "5432")
	config.DB.User = getEnv("DB_USER", "nominations")
	config.DB.Password = getEnv("DB_PASSWORD", "nominations_password")
	config.DB.Name = getEnv("DB_NAME", "nominations_db")
	config.DB.SSLMode = getEnv("DB_SSLMODE", "disable")

	config.Server.Port = getEnv("PORT", "8080")
	config.Server.GinMode = getEnv("GIN_MODE", "debug")

	config.Site.BaseURL = getEnv("SITE_BASE_URL", "https://awards.example.com/nominees")

	config.HubSpot.Enabled = getEnvAsBool("HUBSPOT_ENABLED", false)
	config.HubSpot.BaseURL = getEnv("HUBSPOT_BASE_URL", "https://api.hubapi.com")
	config.HubSpot.APIKey = getEnv("HUBSPOT_API_KEY", "")

	config.Loops.Enabled = getEnvAsBool("LOOPS_ENABLED", false)
	config.Loops.BaseURL = getEnv("LOOPS_BASE_URL", "https://app.loops.so/api")
	config.Loops.APIKey = getEnv("LOOPS_API_KEY", "")

	config.Outbox.Secret = getEnv("OUTBOX_SECRET", "")
	config.Outbox.BatchSize = getEnvAsInt("OUTBOX_BATCH_SIZE", 25)
	config.Outbox.MaxAttempts = getEnvAsInt("OUTBOX_MAX_ATTEMPTS", 3)

	config.Sync.Timeout = getEnvAsDuration("SYNC_TIMEOUT", 10*time.Second)

	config.CORS.AllowOrigins = getEnv("CORS_ALLOW_ORIGINS", "*")
	config.CORS.AllowMethods = getEnv("CORS_ALLOW_METHODS", "GET,POST,PUT,PATCH,DELETE,HEAD,OPTIONS")
	config.CORS.AllowHeaders = getEnv("CORS_ALLOW_HEADERS", "Origin,Content-Length,Content-Type,Authorization,X-Outbox-Secret")

	return config
}

// GetDatabaseURL returns the database connection URL
func (c *Config) GetDatabaseURL() string {
	return "postgres://" + c.DB.User + ":" + c.DB.Password + "@" + c.DB.Host + ":" + c.DB.Port + "/" + c.DB.Name + "?sslmode=" + c.DB.SSLMode
}

// getEnv gets an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt gets an environment variable as int or returns a default value
func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getEnvAsBool gets an environment variable as bool or returns a default value
func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

// getEnvAsDuration gets an environment variable as duration or returns a default value
func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
