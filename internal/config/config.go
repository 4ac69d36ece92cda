package config

import (
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

const (
	EnvLocal = "local"
	EnvDev   = "dev"
	EnvProd  = "prod"
)

type Config struct {
	Env  string
	Port string

	// Remote system of record (n8n webhook) and the image host it serves uploads from.
	WebhookURL     string
	ImageURL       string
	WebhookTimeout time.Duration

	DBDriver   string // sqlite or postgres
	DBPath     string
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string

	ImportBatch       bool
	DetailConcurrency int
}

func LoadConfig() *Config {
	err := godotenv.Load()
	if err != nil {
		slog.Warn("no .env file loaded, using process environment")
	}

	return &Config{
		Env:               getEnv("ENV", EnvLocal),
		Port:              getEnv("PORT", "8080"),
		WebhookURL:        getEnv("N8N_WEBHOOK_URL", ""),
		ImageURL:          getEnv("N8N_IMAGE_URL", ""),
		WebhookTimeout:    getDuration("WEBHOOK_TIMEOUT", 15*time.Second),
		DBDriver:          getEnv("DB_DRIVER", "sqlite"),
		DBPath:            getEnv("DB_PATH", "./memberhub.db"),
		DBHost:            getEnv("DB_HOST", "localhost"),
		DBPort:            getEnv("DB_PORT", "5432"),
		DBUser:            getEnv("DB_USER", "postgres"),
		DBPassword:        getEnv("DB_PASSWORD", ""),
		DBName:            getEnv("DB_NAME", "memberhub"),
		DBSSLMode:         getEnv("DB_SSLMODE", "disable"),
		ImportBatch:       getBool("IMPORT_BATCH", false),
		DetailConcurrency: getInt("DETAIL_CONCURRENCY", 4),
	}
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) time.Duration {
	value, exists := os.LookupEnv(key)
	if !exists {
		return fallback
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		slog.Warn("invalid duration, using default", slog.String("key", key), slog.String("value", value))
		return fallback
	}
	return d
}

func getBool(key string, fallback bool) bool {
	value, exists := os.LookupEnv(key)
	if !exists {
		return fallback
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		return fallback
	}
	return b
}

func getInt(key string, fallback int) int {
	value, exists := os.LookupEnv(key)
	if !exists {
		return fallback
	}
	n, err := strconv.Atoi(value)
	if err != nil || n <= 0 {
		return fallback
	}
	return n
}
