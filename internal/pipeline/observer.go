// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package pipeline

import (
	"context"
	"log/slog"
	"time"
)

// Stage names reported to observers.
const (
	StageNarratives  = "narratives"
	StageContent     = "content"
	StageImagePrompt = "image_prompt"
	StageImage       = "image"
	StageScreenshot  = "screenshot"
	StageModeration  = "moderation"
	StageUpload      = "upload"
)

// EventKind distinguishes the points in a stage's life an Event reports.
type EventKind int

const (
	// EventAttempt follows every call to the provider.
	EventAttempt EventKind = iota
	// EventRetry precedes the wait before the next attempt.
	EventRetry
	// EventDone closes a stage, successful or not.
	EventDone
)

func (k EventKind) String() string {
	switch k {
	case EventAttempt:
		return "attempt"
	case EventRetry:
		return "retry"
	case EventDone:
		return "done"
	}
	return "unknown"
}

// Event is a structured trace point emitted by the pipeline.
type Event struct {
	Kind     EventKind
	Stage    string
	Attempt  int           // 1-based; set on EventAttempt and EventRetry
	Duration time.Duration // call time for EventAttempt, stage time for EventDone
	Delay    time.Duration // EventRetry only
	Err      error
}

// Observer receives pipeline events. Implementations must be safe for
// concurrent use; slide images may be generated in parallel.
type Observer interface {
	Observe(ctx context.Context, e Event)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(ctx context.Context, e Event)

func (f ObserverFunc) Observe(ctx context.Context, e Event) { f(ctx, e) }

// MultiObserver fans events out to several observers in order.
type MultiObserver []Observer

func (m MultiObserver) Observe(ctx context.Context, e Event) {
	for _, o := range m {
		if o != nil {
			o.Observe(ctx, e)
		}
	}
}

// LogObserver writes events to a slog.Logger. Attempts log at debug,
// retries at warn and failed stages at error.
type LogObserver struct {
	Logger *slog.Logger
}

func (o LogObserver) Observe(ctx context.Context, e Event) {
	logger := o.Logger
	if logger == nil {
		logger = slog.Default()
	}

	switch e.Kind {
	case EventAttempt:
		attrs := []any{"stage", e.Stage, "attempt", e.Attempt, "duration", e.Duration}
		if e.Err != nil {
			attrs = append(attrs, "error", e.Err)
		}
		logger.DebugContext(ctx, "pipeline attempt", attrs...)
	case EventRetry:
		logger.WarnContext(ctx, "pipeline retry scheduled",
			"stage", e.Stage, "attempt", e.Attempt, "delay", e.Delay, "error", e.Err)
	case EventDone:
		if e.Err != nil {
			logger.ErrorContext(ctx, "pipeline stage failed",
				"stage", e.Stage, "duration", e.Duration, "error", e.Err)
			return
		}
		logger.InfoContext(ctx, "pipeline stage completed", "stage", e.Stage, "duration", e.Duration)
	}
}
