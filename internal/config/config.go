package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
type Config struct {
	Port           string
	AllowedOrigins []string
	LogLevel       string

	// Warehouse extraction
	WarehouseProjectID   string
	WarehouseDataset     string
	WarehouseTable       string
	WarehouseLocation    string
	WarehouseCredentials string
	QueryTimeout         time.Duration
	MaxConcurrentQueries int

	// Retry bounds for extraction and the connected-time upsert
	MaxRetries      int
	RetryBackoff    time.Duration
	RetryBackoffCap time.Duration

	// Generated workbook output
	OutputDir string
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Try to load .env file (ignore error if it doesn't exist)
	_ = godotenv.Load()

	config := &Config{
		Port:                 getEnv("PORT", "8080"),
		AllowedOrigins:       strings.Split(getEnv("ALLOWED_ORIGINS", "http://localhost:5173"), ","),
		LogLevel:             getEnv("LOG_LEVEL", "info"),
		WarehouseProjectID:   getEnv("WAREHOUSE_PROJECT_ID", ""),
		WarehouseDataset:     getEnv("WAREHOUSE_DATASET", "analytics"),
		WarehouseTable:       getEnv("WAREHOUSE_TABLE", "gestiones"),
		WarehouseLocation:    getEnv("WAREHOUSE_LOCATION", "US"),
		WarehouseCredentials: getEnv("WAREHOUSE_CREDENTIALS_FILE", ""),
		OutputDir:            getEnv("OUTPUT_DIR", "generated_files"),
	}

	queryTimeout, err := strconv.Atoi(getEnv("QUERY_TIMEOUT_SECONDS", "120"))
	if err != nil {
		return nil, fmt.Errorf("invalid QUERY_TIMEOUT_SECONDS: %w", err)
	}
	config.QueryTimeout = time.Duration(queryTimeout) * time.Second

	maxConcurrent, err := strconv.Atoi(getEnv("MAX_CONCURRENT_QUERIES", "4"))
	if err != nil {
		return nil, fmt.Errorf("invalid MAX_CONCURRENT_QUERIES: %w", err)
	}
	if maxConcurrent < 1 {
		return nil, fmt.Errorf("MAX_CONCURRENT_QUERIES must be at least 1, got %d", maxConcurrent)
	}
	config.MaxConcurrentQueries = maxConcurrent

	maxRetries, err := strconv.Atoi(getEnv("MAX_RETRIES", "3"))
	if err != nil {
		return nil, fmt.Errorf("invalid MAX_RETRIES: %w", err)
	}
	if maxRetries < 1 {
		return nil, fmt.Errorf("MAX_RETRIES must be at least 1, got %d", maxRetries)
	}
	config.MaxRetries = maxRetries

	backoffMs, err := strconv.Atoi(getEnv("RETRY_BACKOFF_MS", "500"))
	if err != nil {
		return nil, fmt.Errorf("invalid RETRY_BACKOFF_MS: %w", err)
	}
	config.RetryBackoff = time.Duration(backoffMs) * time.Millisecond

	backoffCapMs, err := strconv.Atoi(getEnv("RETRY_BACKOFF_CAP_MS", "10000"))
	if err != nil {
		return nil, fmt.Errorf("invalid RETRY_BACKOFF_CAP_MS: %w", err)
	}
	config.RetryBackoffCap = time.Duration(backoffCapMs) * time.Millisecond

	// Trim spaces from allowed origins
	for i, origin := range config.AllowedOrigins {
		config.AllowedOrigins[i] = strings.TrimSpace(origin)
	}

	return config, nil
}

// getEnv gets an environment variable with a fallback default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
