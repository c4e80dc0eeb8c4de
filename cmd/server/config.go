package main

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"

	"github.com/gasolina/backend/internal/artifact"
)

type Config struct {
	DatabaseURL   string
	ModelPath     string
	EncoderPath   string
	DatasetPath   string
	DatasetColumn string
	Port          string
	Env           string
	LogLevel      string
}

func loadConfig() *Config {
	return &Config{
		DatabaseURL:   getEnv("DATABASE_URL", ""),
		ModelPath:     getEnv("MODEL_PATH", "artifacts/modelo_gasolina.yaml"),
		EncoderPath:   getEnv("ENCODER_PATH", "artifacts/encoder_gasolina.yaml"),
		DatasetPath:   getEnv("DATASET_PATH", ""),
		DatasetColumn: getEnv("DATASET_COLUMN", artifact.DefaultStateColumn),
		Port:          getEnv("PORT", "8080"),
		Env:           getEnv("GO_ENV", "development"),
		LogLevel:      getEnv("LOG_LEVEL", "info"),
	}
}

func (c *Config) artifactPaths() artifact.Paths {
	return artifact.Paths{
		ModelPath:     c.ModelPath,
		EncoderPath:   c.EncoderPath,
		DatasetPath:   c.DatasetPath,
		DatasetColumn: c.DatasetColumn,
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// newLogger writes human-readable output in development and JSON elsewhere
func newLogger(cfg *Config) zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}

	var out io.Writer = os.Stdout
	if cfg.Env == "development" {
		out = zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}
	}

	return zerolog.New(out).Level(level).With().Timestamp().Logger()
}
