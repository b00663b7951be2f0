// Package config reads all runtime configuration. Every environment variable
// the process consumes is read here and nowhere else.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application.
type Config struct {
	Env string // development, staging, production

	Database DatabaseConfig
	Sources  SourcesConfig
	Ingest   IngestConfig
	Report   ReportConfig

	// Pipeline
	Workers int // independent workers, each owning a disjoint asset shard

	// Status API
	APIPort string

	// Logging
	LogLevel  string
	LogFormat string
}

// DatabaseConfig holds PostgreSQL connection settings.
type DatabaseConfig struct {
	URL string

	MaxConns        int
	MinConns        int
	MaxConnLifetime time.Duration
	MaxConnIdleTime time.Duration
}

// SourcesConfig holds the external data-source settings.
type SourcesConfig struct {
	PriceBaseURL       string
	FundamentalBaseURL string
	FundamentalAPIKey  string
	// QuoteBaseURL is the HTML quote-page host used as a price fallback for
	// symbols the JSON API does not carry. Empty disables the fallback.
	QuoteBaseURL string
	// FieldsPerRequest is the provider-imposed field limit per fundamentals
	// request; larger field lists are chunked.
	FieldsPerRequest int
	// PaceEvery is the minimum delay between calls to one provider.
	PaceEvery time.Duration
}

// IngestConfig holds raw workbook ingestion settings.
type IngestConfig struct {
	WorkbookPath string
}

// ReportConfig holds report sink settings.
type ReportConfig struct {
	OutputPath string
	TabName    string
}

// Load reads configuration from the environment, consulting a .env file when
// one is present.
func Load() (*Config, error) {
	loadEnvFile()

	cfg := &Config{
		Env: getEnv("ENV", "development"),

		Database: DatabaseConfig{
			URL:             getEnv("DATABASE_URL", ""),
			MaxConns:        getEnvAsInt("DB_MAX_CONNS", 25),
			MinConns:        getEnvAsInt("DB_MIN_CONNS", 5),
			MaxConnLifetime: getEnvAsDuration("DB_MAX_CONN_LIFETIME", "1h"),
			MaxConnIdleTime: getEnvAsDuration("DB_MAX_CONN_IDLE_TIME", "30m"),
		},

		Sources: SourcesConfig{
			PriceBaseURL:       getEnv("PRICE_BASE_URL", "https://query1.finance.yahoo.com"),
			FundamentalBaseURL: getEnv("FUNDAMENTAL_BASE_URL", ""),
			FundamentalAPIKey:  getEnv("FUNDAMENTAL_API_KEY", ""),
			QuoteBaseURL:       getEnv("QUOTE_BASE_URL", ""),
			FieldsPerRequest:   getEnvAsInt("FUNDAMENTAL_FIELDS_PER_REQUEST", 25),
			PaceEvery:          getEnvAsDuration("SOURCE_PACE_EVERY", "10s"),
		},

		Ingest: IngestConfig{
			WorkbookPath: getEnv("INGEST_WORKBOOK_PATH", ""),
		},

		Report: ReportConfig{
			OutputPath: getEnv("REPORT_OUTPUT_PATH", "believability.xlsx"),
			TabName:    getEnv("REPORT_TAB_NAME", "Believability"),
		},

		Workers: getEnvAsInt("PIPELINE_WORKERS", 4),

		APIPort: getEnv("API_PORT", "8087"),

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "json"),
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.Database.URL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	if c.Env != "development" && c.Env != "staging" && c.Env != "production" {
		return fmt.Errorf("ENV must be one of: development, staging, production")
	}
	if c.Workers < 1 {
		return fmt.Errorf("PIPELINE_WORKERS must be at least 1")
	}
	if c.Sources.FieldsPerRequest < 1 {
		return fmt.Errorf("FUNDAMENTAL_FIELDS_PER_REQUEST must be at least 1")
	}
	return nil
}

// loadEnvFile tries to load .env from a few likely locations.
func loadEnvFile() {
	paths := []string{".env"}
	if exe, err := os.Executable(); err == nil {
		exeDir := filepath.Dir(exe)
		paths = append(paths,
			filepath.Join(exeDir, ".env"),
			filepath.Join(exeDir, "..", ".env"),
		)
	}
	for _, path := range paths {
		if _, err := os.Stat(path); err == nil {
			_ = godotenv.Load(path)
			return
		}
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsDuration(key string, defaultValue string) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		valueStr = defaultValue
	}
	duration, err := time.ParseDuration(valueStr)
	if err != nil {
		duration, _ = time.ParseDuration(defaultValue)
	}
	return duration
}
