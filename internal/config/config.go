// Package config loads the server configuration from the environment.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// Config holds application configuration
type Config struct {
	DBDriver    string // postgres or sqlite
	DBConnStr   string // Postgres connection string, or SQLite path
	GRPCAddr    string
	HTTPAddr    string
	APIToken    string
	LogLevel    string
	LogPretty   bool
	CORSOrigins []string
	SeedFile    string // Optional portfolio snapshot applied at startup
}

// Load reads configuration from environment variables.
// A .env file in the working directory is loaded first if it exists.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		DBDriver:    getEnv("DB_DRIVER", DriverSQLite),
		GRPCAddr:    getEnv("GRPC_ADDR", ":8080"),
		HTTPAddr:    getEnv("HTTP_ADDR", ":8081"),
		APIToken:    getEnv("API_TOKEN", "dev-token"),
		LogLevel:    getEnv("LOG_LEVEL", "info"),
		LogPretty:   getEnvAsBool("LOG_PRETTY", false),
		CORSOrigins: getEnvAsList("CORS_ORIGINS", []string{"*"}),
		SeedFile:    os.Getenv("SEED_FILE"),
	}

	switch cfg.DBDriver {
	case DriverPostgres:
		cfg.DBConnStr = postgresConnStr()
	case DriverSQLite:
		cfg.DBConnStr = getEnv("SQLITE_PATH", "data/wealthflow.db")
	default:
		return nil, fmt.Errorf("invalid DB_DRIVER %q: must be %s or %s", cfg.DBDriver, DriverPostgres, DriverSQLite)
	}

	return cfg, nil
}

// postgresConnStr returns DB_CONN_STR, or builds it from individual vars (Docker friendly)
func postgresConnStr() string {
	if connStr := os.Getenv("DB_CONN_STR"); connStr != "" {
		return connStr
	}

	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		getEnv("DB_HOST", "localhost"),
		getEnv("DB_PORT", "5432"),
		getEnv("DB_USER", "postgres"),
		getEnv("DB_PASSWORD", "postgres"),
		getEnv("DB_NAME", "wealthflow"),
	)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	value, err := strconv.ParseBool(os.Getenv(key))
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsList(key string, defaultValue []string) []string {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue
	}

	var values []string
	for _, v := range strings.Split(raw, ",") {
		if v = strings.TrimSpace(v); v != "" {
			values = append(values, v)
		}
	}
	return values
}
