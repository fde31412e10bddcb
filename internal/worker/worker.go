// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package worker processes wizards enqueued for background generation.
package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"postforge/internal/cache"
	"postforge/internal/metrics"
	"postforge/internal/models"
	"postforge/internal/pipeline"
	"postforge/internal/wizard"
)

const (
	// MaxAttempts caps how often one wizard is tried before it is
	// dead-lettered.
	MaxAttempts = 3

	// DefaultPollTimeout is how long one dequeue blocks.
	DefaultPollTimeout = 5 * time.Second
)

// Queue is the job source.
type Queue interface {
	Enqueue(ctx context.Context, wizardID uuid.UUID) error
	Dequeue(ctx context.Context, timeout time.Duration) (uuid.UUID, bool, error)
	DeadLetter(ctx context.Context, entry cache.DeadLetter) error
}

// Wizards loads and tracks wizard rows.
type Wizards interface {
	Get(id uuid.UUID) (*models.ContentWizard, error)
	IncrementAttempts(id uuid.UUID) (int, error)
	SetStatus(id uuid.UUID, status models.WizardStatus, errMsg string) error
}

// Stepper advances a wizard by one background step.
type Stepper interface {
	Advance(ctx context.Context, w *models.ContentWizard) error
}

// Runner pops wizard IDs and advances each one.
type Runner struct {
	queue       Queue
	wizards     Wizards
	steps       Stepper
	metrics     *metrics.Metrics
	pollTimeout time.Duration
}

// New returns a Runner. m may be nil.
func New(queue Queue, wizards Wizards, steps Stepper, m *metrics.Metrics) *Runner {
	return &Runner{
		queue:       queue,
		wizards:     wizards,
		steps:       steps,
		metrics:     m,
		pollTimeout: DefaultPollTimeout,
	}
}

// Run processes jobs until ctx is canceled. Queue errors are logged and
// retried after a pause.
func (r *Runner) Run(ctx context.Context) error {
	slog.Info("worker started", "poll_timeout", r.pollTimeout)
	for {
		if ctx.Err() != nil {
			slog.Info("worker stopped")
			return nil
		}

		id, ok, err := r.queue.Dequeue(ctx, r.pollTimeout)
		if err != nil {
			if ctx.Err() != nil {
				continue
			}
			slog.Error("dequeue failed", "error", err)
			select {
			case <-ctx.Done():
			case <-time.After(time.Second):
			}
			continue
		}
		if !ok {
			continue
		}

		r.Process(ctx, id)
	}
}

// Process runs one job. Failures are retried by re-enqueueing the wizard
// until MaxAttempts is reached; after that the wizard is marked failed
// and dead-lettered.
func (r *Runner) Process(ctx context.Context, id uuid.UUID) {
	finish := func(string) {}
	if r.metrics != nil {
		finish = r.metrics.JobStarted()
	}

	attempts, err := r.wizards.IncrementAttempts(id)
	if err != nil {
		slog.Error("wizard attempt not recorded", "wizard_id", id, "error", err)
		finish(metrics.JobDeadLettered)
		return
	}

	log := slog.With("wizard_id", id, "attempt", attempts)
	err = r.step(ctx, id)
	if err == nil {
		log.Info("wizard step completed")
		finish(metrics.JobCompleted)
		return
	}

	if attempts < MaxAttempts && !permanent(err) {
		log.Warn("wizard step failed, requeueing", "error", err)
		qerr := r.queue.Enqueue(ctx, id)
		if qerr == nil {
			finish(metrics.JobRetried)
			return
		}
		log.Error("requeue failed", "error", qerr)
	}

	log.Error("wizard failed", "error", err)
	if serr := r.wizards.SetStatus(id, models.WizardFailed, err.Error()); serr != nil {
		log.Error("mark wizard failed", "error", serr)
	}
	if derr := r.queue.DeadLetter(ctx, cache.DeadLetter{
		WizardID: id,
		Error:    err.Error(),
		Attempts: attempts,
	}); derr != nil {
		log.Error("dead letter push failed", "error", derr)
	}
	finish(metrics.JobDeadLettered)
}

func (r *Runner) step(ctx context.Context, id uuid.UUID) error {
	w, err := r.wizards.Get(id)
	if err != nil {
		return err
	}
	if w == nil {
		return fmt.Errorf("wizard %s: %w", id, errGone)
	}
	return r.steps.Advance(ctx, w)
}

var errGone = errors.New("wizard no longer exists")

// permanent reports errors a retry cannot fix. Pipeline failures keep
// their cause, so a validation or configuration error is final here too.
func permanent(err error) bool {
	return errors.Is(err, errGone) ||
		errors.Is(err, wizard.ErrNoNarrative) ||
		errors.Is(err, wizard.ErrNoContent) ||
		errors.Is(err, wizard.ErrAlreadySaved) ||
		pipeline.Permanent(err)
}
