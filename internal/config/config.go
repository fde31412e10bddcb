// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package config handles application configuration loading from environment
// variables. It provides a centralized Config struct that is built once at
// process start and passed by pointer to every component that needs it.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration values loaded from the environment.
type Config struct {
	// Server settings
	Host     string
	Port     string
	Env      string // "development", "production", "testing"
	LogLevel string

	// PostgreSQL connection
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string

	// Valkey (Redis-compatible cache, sessions, wizard queue)
	ValkeyHost     string
	ValkeyPort     string
	ValkeyPassword string

	// AI provider settings. OpenRouter fronts every text and image model
	// the pipeline uses; Claude is an optional direct text provider.
	AIProvider        string // "openrouter", "openai" or "claude"
	OpenRouterKey     string
	OpenRouterBaseURL string
	AIModel           string // default text model override
	AIImageModel      string
	AppURL            string // sent as HTTP-Referer to OpenRouter
	AppName           string // sent as X-Title to OpenRouter
	ClaudeKey         string
	ClaudeModel       string
	ClaudeBaseURL     string
	OpenAIKey         string // moderation endpoint and the optional "openai" text provider

	// WorkerMetricsAddr is where cmd/worker serves /metrics; empty disables it.
	WorkerMetricsAddr string

	// Pipeline tuning
	AIRateLimit       int // AI requests per client IP per minute
	ImageConcurrency  int // slide images rendered in parallel by the worker
	AIRetryBase       time.Duration
	AIImageTimeout    time.Duration
	ScreenshotTimeout time.Duration

	// Screenshot rendering service for HTML-template slides
	ScreenshotURL       string
	ScreenshotAccessKey string

	// S3-compatible object storage for generated images
	S3Endpoint  string
	S3Region    string
	S3AccessKey string
	S3SecretKey string
	S3Bucket    string
	S3PublicURL string
}

// Load reads configuration from environment variables, applying defaults
// for development where appropriate. A .env file in the working directory
// is loaded first when present; real environment variables win over it.
// Returns an error if critical values are missing in production mode.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		slog.Warn("could not read .env file", "error", err)
	}

	cfg := &Config{
		Host:     envOrDefault("APP_HOST", "0.0.0.0"),
		Port:     envOrDefault("APP_PORT", "8080"),
		Env:      envOrDefault("APP_ENV", "development"),
		LogLevel: envOrDefault("LOG_LEVEL", "debug"),

		DBHost:     envOrDefault("POSTGRES_HOST", "localhost"),
		DBPort:     envOrDefault("POSTGRES_PORT", "5432"),
		DBUser:     envOrDefault("POSTGRES_USER", "postforge"),
		DBPassword: envOrDefault("POSTGRES_PASSWORD", "changeme"),
		DBName:     envOrDefault("POSTGRES_DB", "postforge"),

		ValkeyHost:     envOrDefault("VALKEY_HOST", "localhost"),
		ValkeyPort:     envOrDefault("VALKEY_PORT", "6379"),
		ValkeyPassword: os.Getenv("VALKEY_PASSWORD"),

		AIProvider:        envOrDefault("AI_PROVIDER", "openrouter"),
		OpenRouterKey:     os.Getenv("OPENROUTER_API_KEY"),
		OpenRouterBaseURL: envOrDefault("OPENROUTER_BASE_URL", "https://openrouter.ai/api/v1"),
		AIModel:           envOrDefault("AI_MODEL", "google/gemini-2.5-flash"),
		AIImageModel:      envOrDefault("AI_IMAGE_MODEL", "google/gemini-2.5-flash-image-preview"),
		AppURL:            envOrDefault("APP_URL", "http://localhost:8080"),
		AppName:           envOrDefault("APP_NAME", "Postforge"),
		ClaudeKey:         os.Getenv("ANTHROPIC_API_KEY"),
		ClaudeModel:       envOrDefault("ANTHROPIC_MODEL", "claude-sonnet-4-5"),
		ClaudeBaseURL:     os.Getenv("ANTHROPIC_BASE_URL"),
		OpenAIKey:         os.Getenv("OPENAI_API_KEY"),

		WorkerMetricsAddr: os.Getenv("WORKER_METRICS_ADDR"),

		ScreenshotURL:       envOrDefault("SCREENSHOT_URL", "https://api.screenshotone.com/take"),
		ScreenshotAccessKey: os.Getenv("SCREENSHOT_ACCESS_KEY"),

		S3Endpoint:  os.Getenv("S3_ENDPOINT"),
		S3Region:    envOrDefault("S3_REGION", "fsn1"),
		S3AccessKey: os.Getenv("S3_ACCESS_KEY"),
		S3SecretKey: os.Getenv("S3_SECRET_KEY"),
		S3Bucket:    envOrDefault("S3_BUCKET", "postforge-media"),
		S3PublicURL: os.Getenv("S3_PUBLIC_URL"),
	}

	var err error
	if cfg.AIRateLimit, err = intOrDefault("AI_RATE_LIMIT", 20); err != nil {
		return nil, err
	}
	if cfg.ImageConcurrency, err = intOrDefault("IMAGE_CONCURRENCY", 1); err != nil {
		return nil, err
	}
	if cfg.AIRetryBase, err = durationOrDefault("AI_RETRY_BASE", time.Second); err != nil {
		return nil, err
	}
	if cfg.AIImageTimeout, err = durationOrDefault("AI_IMAGE_TIMEOUT", 120*time.Second); err != nil {
		return nil, err
	}
	if cfg.ScreenshotTimeout, err = durationOrDefault("SCREENSHOT_TIMEOUT", 60*time.Second); err != nil {
		return nil, err
	}

	if cfg.Env == "production" {
		if cfg.DBPassword == "changeme" {
			return nil, fmt.Errorf("POSTGRES_PASSWORD must be set in production")
		}
		if cfg.OpenRouterKey == "" && cfg.ClaudeKey == "" && cfg.OpenAIKey == "" {
			return nil, fmt.Errorf("OPENROUTER_API_KEY, OPENAI_API_KEY or ANTHROPIC_API_KEY must be set in production")
		}
	}

	return cfg, nil
}

// DSN returns the PostgreSQL connection string.
func (c *Config) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=disable",
		c.DBUser, c.DBPassword, c.DBHost, c.DBPort, c.DBName,
	)
}

// Addr returns the server listen address (host:port).
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%s", c.Host, c.Port)
}

// IsDev returns true if the application is running in development mode.
func (c *Config) IsDev() bool {
	return c.Env == "development"
}

// SlogLevel maps LogLevel onto a slog.Level, defaulting to Info.
func (c *Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// envOrDefault reads an environment variable, returning a fallback if unset or empty.
func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// intOrDefault reads a positive integer from the environment.
func intOrDefault(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("%s: invalid positive integer %q", key, v)
	}
	return n, nil
}

// durationOrDefault parses a Go duration ("1s", "250ms") or a bare number
// of seconds from the environment.
func durationOrDefault(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	if secs, err := strconv.Atoi(v); err == nil {
		return time.Duration(secs) * time.Second, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s: invalid duration %q: %w", key, v, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("%s: duration must be positive", key)
	}
	return d, nil
}
