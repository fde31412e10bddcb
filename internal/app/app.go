// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package app assembles the services shared by the API server and the
// background worker: database, Valkey, stores, the AI registry and the
// generation pipeline.
package app

import (
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"postforge/internal/ai"
	"postforge/internal/cache"
	"postforge/internal/config"
	"postforge/internal/database"
	"postforge/internal/metrics"
	"postforge/internal/pipeline"
	"postforge/internal/screenshot"
	"postforge/internal/storage"
	"postforge/internal/store"
	"postforge/internal/webextract"
	"postforge/internal/wizard"
)

// Stack holds the long-lived services of one process.
type Stack struct {
	DB     *sql.DB
	Valkey *redis.Client

	Users      *store.UserStore
	Wizards    *store.WizardStore
	Library    *store.LibraryStore
	Categories *store.CategoryStore
	Tags       *store.TagStore
	Schedule   *store.ScheduleStore

	Variables *cache.VariablesCache
	Queue     *cache.Queue

	Registry *ai.Registry
	Pipeline *pipeline.Pipeline
	Web      *webextract.Extractor
	Steps    *wizard.Service
}

// Open connects to PostgreSQL and Valkey, runs migrations and builds
// every service. m may be nil. Call Close when done.
func Open(cfg *config.Config, m *metrics.Metrics) (*Stack, error) {
	db, err := database.Connect(cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}
	if err := database.Migrate(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate database: %w", err)
	}

	valkey, err := cache.ConnectValkey(cfg.ValkeyHost, cfg.ValkeyPort, cfg.ValkeyPassword)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("connect valkey: %w", err)
	}

	media, err := NewMedia(cfg)
	if err != nil {
		db.Close()
		valkey.Close()
		return nil, err
	}

	s := &Stack{
		DB:         db,
		Valkey:     valkey,
		Users:      store.NewUserStore(db),
		Wizards:    store.NewWizardStore(db),
		Library:    store.NewLibraryStore(db),
		Categories: store.NewCategoryStore(db),
		Tags:       store.NewTagStore(db),
		Schedule:   store.NewScheduleStore(db),
		Queue:      cache.NewQueue(valkey),
		Registry:   NewRegistry(cfg),
		Web:        webextract.New(0, 0),
	}
	s.Variables = cache.NewVariablesCache(valkey, store.NewVariablesStore(db), cache.DefaultVariablesTTL)
	s.Pipeline = NewPipeline(cfg, s.Registry, s.Variables, media, m)
	s.Steps = wizard.NewService(s.Pipeline, s.Wizards, s.Library, s.Web)

	slog.Info("ai providers initialized",
		"active", s.Registry.ActiveName(),
		"available", s.Registry.Available(),
		"image_generation", s.Registry.SupportsImageGeneration(),
	)
	return s, nil
}

// Close releases the database and Valkey connections.
func (s *Stack) Close() {
	if err := s.Valkey.Close(); err != nil {
		slog.Warn("close valkey", "error", err)
	}
	if err := s.DB.Close(); err != nil {
		slog.Warn("close database", "error", err)
	}
}

// NewRegistry configures every AI provider that has a key.
func NewRegistry(cfg *config.Config) *ai.Registry {
	attribution := map[string]string{
		"HTTP-Referer": cfg.AppURL,
		"X-Title":      cfg.AppName,
	}
	return ai.NewRegistry(cfg.AIProvider, map[string]ai.ProviderConfig{
		"openrouter": {
			APIKey:       cfg.OpenRouterKey,
			Model:        cfg.AIModel,
			BaseURL:      cfg.OpenRouterBaseURL,
			ImageModel:   cfg.AIImageModel,
			Headers:      attribution,
			ImageTimeout: cfg.AIImageTimeout,
		},
		"openai": {APIKey: cfg.OpenAIKey},
		"claude": {APIKey: cfg.ClaudeKey, Model: cfg.ClaudeModel, BaseURL: cfg.ClaudeBaseURL},
	})
}

// NewMedia returns the S3 image sink, or nil when storage is not
// configured and images stay inline.
func NewMedia(cfg *config.Config) (pipeline.MediaSink, error) {
	client, err := storage.New(cfg.S3Endpoint, cfg.S3Region, cfg.S3AccessKey, cfg.S3SecretKey, cfg.S3Bucket, cfg.S3PublicURL)
	if err != nil {
		return nil, fmt.Errorf("init s3 storage: %w", err)
	}
	if client == nil {
		slog.Warn("s3 storage not configured, generated images stay inline")
		return nil, nil
	}
	slog.Info("s3 storage connected", "endpoint", cfg.S3Endpoint, "bucket", cfg.S3Bucket)
	return client, nil
}

// NewPipeline wires the pipeline to its collaborators. media and m may
// be nil.
func NewPipeline(cfg *config.Config, reg *ai.Registry, vars pipeline.VariablesSource, media pipeline.MediaSink, m *metrics.Metrics) *pipeline.Pipeline {
	observers := pipeline.MultiObserver{pipeline.LogObserver{}}
	if m != nil {
		observers = append(observers, m)
	}

	deps := pipeline.Deps{
		Text:        reg,
		Moderator:   reg,
		Variables:   vars,
		Screenshots: screenshot.New(cfg.ScreenshotURL, cfg.ScreenshotAccessKey, cfg.ScreenshotTimeout),
		Media:       media,
		Observer:    observers,
	}
	if reg.SupportsImageGeneration() {
		deps.Images = reg
	}

	return pipeline.New(deps, pipeline.Config{
		RetryBase:   cfg.AIRetryBase,
		ImageModel:  cfg.AIImageModel,
		Concurrency: cfg.ImageConcurrency,
	})
}
