// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package pipeline implements the AI content generation flow: narrative
// options, then content for the chosen narrative, then slide images.
// Each stage is a blocking, stateless call that returns a Result; the
// caller passes one stage's output into the next.
package pipeline

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"postforge/internal/ai"
	"postforge/internal/models"
)

// TextGenerator produces a completion for a system and user prompt.
type TextGenerator interface {
	Generate(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// ImageGenerator calls an image-capable model and returns the raw
// response body, whose shape varies by model.
type ImageGenerator interface {
	GenerateImage(ctx context.Context, model, prompt string) ([]byte, error)
}

// PromptChecker screens user prompts before generation.
type PromptChecker interface {
	CheckPrompt(ctx context.Context, prompt string) (*ai.ModerationResult, error)
}

// VariablesSource provides the user's writing preferences.
type VariablesSource interface {
	Variables(ctx context.Context, userID uuid.UUID) (*models.UserVariables, error)
}

// Screenshotter rasterizes an HTML document.
type Screenshotter interface {
	Capture(ctx context.Context, html string, width, height int) ([]byte, error)
}

// MediaSink persists image bytes and returns public URLs.
type MediaSink interface {
	PutImage(ctx context.Context, key string, data []byte, contentType string) (url, thumbURL string, err error)
}

// Deps are the collaborators a Pipeline calls. Only Text is required;
// stages whose collaborator is missing fail with ErrMissingAPIKey.
type Deps struct {
	Text        TextGenerator
	Images      ImageGenerator
	Moderator   PromptChecker
	Variables   VariablesSource
	Screenshots Screenshotter
	Media       MediaSink
	Observer    Observer
}

// Config tunes the pipeline. Zero values select the defaults.
type Config struct {
	RetryBase   time.Duration
	MaxRetries  uint64
	ImageModel  string
	Concurrency int // slide images generated in parallel; 1 = sequential
}

// Pipeline runs generation stages. It holds no per-request state and is
// safe for concurrent use.
type Pipeline struct {
	text        TextGenerator
	images      ImageGenerator
	moderator   PromptChecker
	vars        VariablesSource
	screenshots Screenshotter
	media       MediaSink
	observer    Observer

	retryBase   time.Duration
	maxRetries  uint64
	imageModel  string
	concurrency int

	now   func() time.Time
	newID func() string
}

// New creates a pipeline.
func New(deps Deps, cfg Config) *Pipeline {
	p := &Pipeline{
		text:        deps.Text,
		images:      deps.Images,
		moderator:   deps.Moderator,
		vars:        deps.Variables,
		screenshots: deps.Screenshots,
		media:       deps.Media,
		observer:    deps.Observer,
		retryBase:   cfg.RetryBase,
		maxRetries:  cfg.MaxRetries,
		imageModel:  cfg.ImageModel,
		concurrency: cfg.Concurrency,
		now:         time.Now,
		newID:       func() string { return uuid.NewString() },
	}
	if p.retryBase <= 0 {
		p.retryBase = DefaultRetryBase
	}
	if p.maxRetries == 0 {
		p.maxRetries = DefaultMaxRetries
	}
	if p.concurrency <= 0 {
		p.concurrency = 1
	}
	if p.observer == nil {
		p.observer = LogObserver{}
	}
	return p
}

func (p *Pipeline) observe(ctx context.Context, e Event) {
	p.observer.Observe(ctx, e)
}

// run wraps a stage body with timing and the closing EventDone.
func (p *Pipeline) run(ctx context.Context, stage string, body func() error) error {
	start := time.Now()
	err := body()
	p.observe(ctx, Event{Kind: EventDone, Stage: stage, Duration: time.Since(start), Err: err})
	return err
}

// generateText calls the text model with retries.
func (p *Pipeline) generateText(ctx context.Context, stage, system, user string) (string, error) {
	if p.text == nil {
		return "", ErrMissingAPIKey
	}
	var reply string
	err := p.withRetry(ctx, stage, func(ctx context.Context) error {
		out, err := p.text.Generate(ctx, system, user)
		if err != nil {
			return err
		}
		reply = out
		return nil
	})
	return reply, err
}

// variables loads the user's preferences. They only enrich the prompt,
// so a lookup failure is logged and generation continues without them.
func (p *Pipeline) variables(ctx context.Context, userID uuid.UUID) *models.UserVariables {
	if p.vars == nil || userID == uuid.Nil {
		return nil
	}
	v, err := p.vars.Variables(ctx, userID)
	if err != nil {
		slog.WarnContext(ctx, "user variables unavailable", "user_id", userID, "error", err)
		return nil
	}
	return v
}

// moderate rejects flagged prompts. A moderation outage is logged and
// does not block generation.
func (p *Pipeline) moderate(ctx context.Context, prompt string) error {
	if p.moderator == nil || prompt == "" {
		return nil
	}
	start := time.Now()
	res, err := p.moderator.CheckPrompt(ctx, prompt)
	p.observe(ctx, Event{Kind: EventAttempt, Stage: StageModeration, Attempt: 1, Duration: time.Since(start), Err: err})
	if err != nil {
		slog.WarnContext(ctx, "moderation check failed, continuing", "error", err)
		return nil
	}
	if res != nil && !res.Safe {
		return &FlaggedError{Categories: res.Categories}
	}
	return nil
}
