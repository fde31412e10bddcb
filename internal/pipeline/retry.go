// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package pipeline

import (
	"context"
	"time"

	"github.com/sethvargo/go-retry"
)

// Retry defaults: two extra attempts, waiting base then 2×base.
const (
	DefaultRetryBase  = time.Second
	DefaultMaxRetries = 2
)

// withRetry runs call until it succeeds, fails permanently or the retry
// budget is spent. Waiting honors ctx. Every attempt and every scheduled
// retry is reported to the observer.
func (p *Pipeline) withRetry(ctx context.Context, stage string, call func(ctx context.Context) error) error {
	attempt := 0
	var lastErr error

	schedule := retry.WithMaxRetries(p.maxRetries, retry.NewExponential(p.retryBase))
	backoff := retry.BackoffFunc(func() (time.Duration, bool) {
		delay, stop := schedule.Next()
		if !stop {
			p.observe(ctx, Event{Kind: EventRetry, Stage: stage, Attempt: attempt, Delay: delay, Err: lastErr})
		}
		return delay, stop
	})

	return retry.Do(ctx, backoff, func(ctx context.Context) error {
		attempt++
		start := time.Now()
		err := call(ctx)
		p.observe(ctx, Event{Kind: EventAttempt, Stage: stage, Attempt: attempt, Duration: time.Since(start), Err: err})
		if err != nil && retryable(err) {
			lastErr = err
			return retry.RetryableError(err)
		}
		return err
	})
}
