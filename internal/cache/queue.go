// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	// WizardQueueKey is the list the API pushes wizard IDs onto.
	WizardQueueKey = "wizard:queue"

	// WizardDeadLetterKey collects wizards that exhausted their attempts.
	WizardDeadLetterKey = "wizard:queue:failed"
)

// DeadLetter is one entry of the dead-letter list.
type DeadLetter struct {
	WizardID uuid.UUID `json:"wizard_id"`
	Error    string    `json:"error"`
	Attempts int       `json:"attempts"`
	FailedAt time.Time `json:"failed_at"`
}

// Queue is a FIFO job queue on a Valkey list: producers LPUSH, the worker
// BRPOPs from the other end.
type Queue struct {
	client  *redis.Client
	key     string
	deadKey string
}

// NewQueue returns the wizard queue.
func NewQueue(client *redis.Client) *Queue {
	return &Queue{client: client, key: WizardQueueKey, deadKey: WizardDeadLetterKey}
}

// Enqueue pushes a wizard ID for background processing.
func (q *Queue) Enqueue(ctx context.Context, wizardID uuid.UUID) error {
	if err := q.client.LPush(ctx, q.key, wizardID.String()).Err(); err != nil {
		return fmt.Errorf("queue push: %w", err)
	}
	return nil
}

// Dequeue blocks up to timeout for the next wizard ID. ok is false when
// the timeout elapsed with an empty queue.
func (q *Queue) Dequeue(ctx context.Context, timeout time.Duration) (id uuid.UUID, ok bool, err error) {
	res, err := q.client.BRPop(ctx, timeout, q.key).Result()
	if errors.Is(err, redis.Nil) {
		return uuid.Nil, false, nil
	}
	if err != nil {
		return uuid.Nil, false, fmt.Errorf("queue pop: %w", err)
	}

	// BRPOP replies with [key, value].
	id, err = uuid.Parse(res[1])
	if err != nil {
		return uuid.Nil, false, fmt.Errorf("queue pop: bad wizard id %q: %w", res[1], err)
	}
	return id, true, nil
}

// Len returns the number of waiting jobs.
func (q *Queue) Len(ctx context.Context) (int64, error) {
	n, err := q.client.LLen(ctx, q.key).Result()
	if err != nil {
		return 0, fmt.Errorf("queue len: %w", err)
	}
	return n, nil
}

// DeadLetter records a wizard that will not be retried.
func (q *Queue) DeadLetter(ctx context.Context, entry DeadLetter) error {
	if entry.FailedAt.IsZero() {
		entry.FailedAt = time.Now().UTC()
	}
	payload, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("dead letter marshal: %w", err)
	}
	if err := q.client.LPush(ctx, q.deadKey, payload).Err(); err != nil {
		return fmt.Errorf("dead letter push: %w", err)
	}
	return nil
}

// DeadLetters returns up to limit dead-letter entries, newest first.
func (q *Queue) DeadLetters(ctx context.Context, limit int64) ([]DeadLetter, error) {
	raw, err := q.client.LRange(ctx, q.deadKey, 0, limit-1).Result()
	if err != nil {
		return nil, fmt.Errorf("dead letter list: %w", err)
	}
	entries := make([]DeadLetter, 0, len(raw))
	for _, r := range raw {
		var e DeadLetter
		if err := json.Unmarshal([]byte(r), &e); err != nil {
			return nil, fmt.Errorf("dead letter decode: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, nil
}
