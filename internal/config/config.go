package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all process configuration. Values come from the environment,
// optionally preloaded from a .env file.
type Config struct {
	DataDir       string
	DBDriver      string // "sqlite3" or "postgres"
	DatabaseURL   string // DSN for postgres; ignored for sqlite
	GeminiAPIKey  string
	GeminiModel   string
	GeminiTimeout time.Duration
}

// Load reads configuration from the environment. A missing .env file is not
// an error; plain environment variables are used as-is.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	return &Config{
		DataDir:       getEnv("DATA_DIR", "data"),
		DBDriver:      getEnv("DB_DRIVER", "sqlite3"),
		DatabaseURL:   getEnv("DATABASE_URL", ""),
		GeminiAPIKey:  getEnv("GEMINI_API_KEY", ""),
		GeminiModel:   getEnv("GEMINI_MODEL", "gemini-pro"),
		GeminiTimeout: time.Duration(getEnvInt("GEMINI_TIMEOUT_SECONDS", 15)) * time.Second,
	}, nil
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value, exists := os.LookupEnv(key); exists {
		if n, err := strconv.Atoi(value); err == nil && n > 0 {
			return n
		}
	}
	return defaultValue
}
