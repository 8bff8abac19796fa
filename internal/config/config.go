package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/joho/godotenv"
)

// Config represents the full application configuration surface.
type Config struct {
	Server    ServerConfig
	MongoDB   MongoDBConfig
	Auth      AuthConfig
	Sheets    SheetsConfig
	Reporting ReportingConfig
}

// ServerConfig holds HTTP server related options.
type ServerConfig struct {
	Port string
}

// MongoDBConfig holds settings for MongoDB.
type MongoDBConfig struct {
	URI    string
	DBName string
}

// AuthConfig selects and configures the bearer-token verifier.
//
// When ProviderURL is set, tokens are introspected against the remote identity
// provider; otherwise they are verified locally as HMAC-signed JWTs using JWTSecret.
type AuthConfig struct {
	JWTSecret   string
	ProviderURL string
}

// SheetsConfig contains configuration for the optional Google Sheets report mirror.
type SheetsConfig struct {
	Enabled         bool
	CredentialsPath string
	SpreadsheetID   string
}

// ReportingConfig holds scheduler-related settings.
type ReportingConfig struct {
	DailyCronSchedule    string
	LowStockCronSchedule string
	Timezone             string
}

// Load reads environment variables (optionally from the provided file) and
// materializes a Config instance.
func Load(envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			if !errors.Is(err, os.ErrNotExist) {
				return nil, fmt.Errorf("failed loading env file %s: %w", envFile, err)
			}
		}
	} else {
		// Ignore the returned error here; missing .env files are acceptable when
		// configuration comes from the environment directly.
		_ = godotenv.Load()
	}

	cfg := &Config{
		Server: ServerConfig{
			Port: getenvWithDefault("APP_PORT", "8080"),
		},
		MongoDB: MongoDBConfig{
			URI:    getenvWithDefault("MONGODB_URI", "mongodb://localhost:27017"),
			DBName: getenvWithDefault("MONGODB_DB_NAME", "pharmacy"),
		},
		Auth: AuthConfig{
			JWTSecret:   os.Getenv("AUTH_JWT_SECRET"),
			ProviderURL: os.Getenv("AUTH_PROVIDER_URL"),
		},
		Sheets: SheetsConfig{
			Enabled:         getenvWithDefault("SHEETS_MIRROR_ENABLED", "false") == "true",
			CredentialsPath: os.Getenv("GOOGLE_SHEETS_CREDENTIALS_PATH"),
			SpreadsheetID:   os.Getenv("GOOGLE_SHEET_REPORT_ID"),
		},
		Reporting: ReportingConfig{
			DailyCronSchedule:    getenvWithDefault("REPORT_CRON_SCHEDULE", "0 0 * * *"),
			LowStockCronSchedule: getenvWithDefault("LOW_STOCK_CRON_SCHEDULE", "0 * * * *"),
			Timezone:             getenvWithDefault("TIMEZONE", "Asia/Dhaka"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate ensures that required configuration fields are populated.
func (c *Config) Validate() error {
	if c == nil {
		return errors.New("config is nil")
	}

	if c.Server.Port == "" {
		return errors.New("APP_PORT must be provided")
	}

	if c.MongoDB.URI == "" {
		return errors.New("MONGODB_URI must be provided")
	}
	if c.MongoDB.DBName == "" {
		return errors.New("MONGODB_DB_NAME must be provided")
	}

	if c.Auth.JWTSecret == "" && c.Auth.ProviderURL == "" {
		return errors.New("either AUTH_JWT_SECRET or AUTH_PROVIDER_URL must be provided")
	}

	if c.Sheets.Enabled {
		if c.Sheets.CredentialsPath == "" {
			return errors.New("GOOGLE_SHEETS_CREDENTIALS_PATH must be provided when the sheets mirror is enabled")
		}
		if c.Sheets.SpreadsheetID == "" {
			return errors.New("GOOGLE_SHEET_REPORT_ID must be provided when the sheets mirror is enabled")
		}
	}

	if c.Reporting.DailyCronSchedule == "" {
		return errors.New("REPORT_CRON_SCHEDULE must be provided")
	}
	if c.Reporting.Timezone == "" {
		return errors.New("TIMEZONE must be provided")
	}

	return nil
}

func getenvWithDefault(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
