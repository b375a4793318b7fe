// Package config resolves converter settings from the environment,
// optionally seeded from .env files in the working directory.
package config

import (
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	DefaultInputPath       = "n8n-workflow-original.json"
	DefaultOutputPath      = "n8n-workflow-webhook-ready.json"
	DefaultSimulateTimeout = 5 * time.Second
)

// Config captures everything the converter reads from its environment.
type Config struct {
	InputPath       string
	OutputPath      string
	NATSURL         string
	WebhookURL      string
	LogLevel        string
	LogFormat       string
	SimulateTimeout time.Duration
}

// Load reads .env files (when present) and then the process environment.
// Variables already set in the environment are never overridden by a file.
func Load() *Config {
	loadEnvFiles()

	return &Config{
		InputPath:       getEnv("CONVERTER_INPUT", DefaultInputPath),
		OutputPath:      getEnv("CONVERTER_OUTPUT", DefaultOutputPath),
		NATSURL:         getEnv("NATS_URL", ""),
		WebhookURL:      getEnv("N8N_WEBHOOK_URL", ""),
		LogLevel:        getEnv("LOG_LEVEL", "info"),
		LogFormat:       getEnv("LOG_FORMAT", "text"),
		SimulateTimeout: getDuration("SIMULATE_TIMEOUT", DefaultSimulateTimeout),
	}
}

func getEnv(key, fallback string) string {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	return value
}

func getDuration(key string, fallback time.Duration) time.Duration {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		slog.Warn("config: ignoring invalid duration", "key", key, "value", raw)
		return fallback
	}
	return d
}

func loadEnvFiles() {
	files := []string{".env", ".env.local"}
	if extra := os.Getenv("CONVERTER_ENV_FILES"); extra != "" {
		files = append(files, strings.Split(extra, ",")...)
	}

	for _, file := range files {
		file = strings.TrimSpace(file)
		if file == "" {
			continue
		}
		if _, err := os.Stat(file); err != nil {
			continue
		}
		if err := godotenv.Load(file); err != nil {
			slog.Warn("config: failed to load env file", "file", file, "error", err)
		}
	}
}
