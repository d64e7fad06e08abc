package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cast"
)

// Config holds all application configuration loaded from environment variables.
type Config struct {
	TrackingBaseURL string
	TrackingAPIKey  string
	TrackingProject string
	TrackingTimeout time.Duration

	StagingDir string

	PostgresMirror   bool
	PostgresHost     string
	PostgresPort     string
	PostgresUser     string
	PostgresPassword string
	PostgresDB       string
	PostgresSSLMode  string
}

// Load reads the .env file and returns a populated Config struct.
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("[config] No .env file found, falling back to system env vars")
	}

	return &Config{
		TrackingBaseURL: getEnv("TRACKING_BASE_URL", "http://localhost:8080"),
		TrackingAPIKey:  getEnv("TRACKING_API_KEY", ""),
		TrackingProject: getEnv("TRACKING_PROJECT", "nyc_airbnb"),
		TrackingTimeout: time.Duration(getEnvInt("TRACKING_TIMEOUT_SECONDS", 60)) * time.Second,

		StagingDir: getEnv("STAGING_DIR", "./staging"),

		PostgresMirror:   getEnvBool("POSTGRES_MIRROR", false),
		PostgresHost:     getEnv("POSTGRES_HOST", "localhost"),
		PostgresPort:     getEnv("POSTGRES_PORT", "5432"),
		PostgresUser:     getEnv("POSTGRES_USER", "cleaner"),
		PostgresPassword: getEnv("POSTGRES_PASSWORD", "cleaner123"),
		PostgresDB:       getEnv("POSTGRES_DB", "rental_db"),
		PostgresSSLMode:  getEnv("POSTGRES_SSLMODE", "disable"),
	}
}

// DSN returns the PostgreSQL connection string.
func (c *Config) DSN() string {
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
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if val := os.Getenv(key); val != "" {
		b, err := cast.ToBoolE(val)
		if err == nil {
			return b
		}
	}
	return fallback
}
