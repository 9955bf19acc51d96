package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration loaded from environment variables.
type Config struct {
	DBDriver   string
	SQLitePath string

	PostgresHost     string
	PostgresPort     string
	PostgresUser     string
	PostgresPassword string
	PostgresDB       string
	PostgresSSLMode  string

	MaxConcurrency int
	MaxRetries     int
	CorpusCacheTTL time.Duration

	InputPath         string
	PropertiesCSVPath string
	DealsJSONPath     string
	HTTPAddr          string
	LogLevel          string

	ScoringConfigPath string
	Scoring           Scoring
}

// Load reads the .env file, the optional scoring YAML and the environment,
// in that order of increasing precedence.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("[config] No .env file found, falling back to system env vars")
	}

	cfg := &Config{
		DBDriver:   getEnv("DB_DRIVER", "sqlite"),
		SQLitePath: getEnv("SQLITE_PATH", "./data/auctions.db"),

		PostgresHost:     getEnv("POSTGRES_HOST", "localhost"),
		PostgresPort:     getEnv("POSTGRES_PORT", "5432"),
		PostgresUser:     getEnv("POSTGRES_USER", "bargains"),
		PostgresPassword: getEnv("POSTGRES_PASSWORD", "bargains"),
		PostgresDB:       getEnv("POSTGRES_DB", "auctions"),
		PostgresSSLMode:  getEnv("POSTGRES_SSLMODE", "disable"),

		MaxConcurrency: getEnvInt("MAX_CONCURRENCY", 8),
		MaxRetries:     getEnvInt("MAX_RETRIES", 5),
		CorpusCacheTTL: getEnvDuration("CORPUS_CACHE_TTL", 10*time.Minute),

		InputPath:         getEnv("INPUT_PATH", "./data/raw_records.jsonl"),
		PropertiesCSVPath: getEnv("PROPERTIES_CSV_PATH", "./output/properties.csv"),
		DealsJSONPath:     getEnv("DEALS_JSON_PATH", "./output/deals.json"),
		HTTPAddr:          getEnv("HTTP_ADDR", ":3001"),
		LogLevel:          getEnv("LOG_LEVEL", "info"),

		ScoringConfigPath: getEnv("SCORING_CONFIG", ""),
		Scoring:           DefaultScoring(),
	}

	if cfg.ScoringConfigPath != "" {
		if err := cfg.Scoring.LoadFile(cfg.ScoringConfigPath); err != nil {
			return nil, err
		}
	}
	cfg.Scoring.applyEnv()

	if err := cfg.Scoring.Validate(); err != nil {
		return nil, err
	}
	if cfg.MaxConcurrency < 1 {
		return nil, fmt.Errorf("config: MAX_CONCURRENCY must be >= 1, got %d", cfg.MaxConcurrency)
	}
	return cfg, nil
}

// DSN returns the connection string for the configured driver.
func (c *Config) DSN() string {
	if c.DBDriver == "sqlite" {
		return c.SQLitePath
	}
	return "host=" + c.PostgresHost +
		" port=" + c.PostgresPort +
		" user=" + c.PostgresUser +
		" password=" + c.PostgresPassword +
		" dbname=" + c.PostgresDB +
		" sslmode=" + c.PostgresSSLMode
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		n, err := strconv.Atoi(val)
		if err == nil {
			return n
		}
		log.Printf("[config] Invalid %s=%q, using default %d", key, val, fallback)
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if val := os.Getenv(key); val != "" {
		f, err := strconv.ParseFloat(val, 64)
		if err == nil {
			return f
		}
		log.Printf("[config] Invalid %s=%q, using default %v", key, val, fallback)
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		d, err := time.ParseDuration(val)
		if err == nil {
			return d
		}
		log.Printf("[config] Invalid %s=%q, using default %v", key, val, fallback)
	}
	return fallback
}
