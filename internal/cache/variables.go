// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"postforge/internal/models"
)

const (
	// variablesKeyPrefix is the Valkey key prefix for cached user variables.
	variablesKeyPrefix = "uservars:"

	// DefaultVariablesTTL is how long a user's variables stay cached.
	DefaultVariablesTTL = 10 * time.Minute
)

// VariablesBackend is the persistent source of user variables.
type VariablesBackend interface {
	Get(userID uuid.UUID) (*models.UserVariables, error)
	Upsert(v *models.UserVariables) error
}

// VariablesCache is a read-through Valkey cache in front of the variables
// table. Every generation call reads the variables, so they are cached;
// writes go to the database and drop the cached copy.
type VariablesCache struct {
	client  *redis.Client
	backend VariablesBackend
	ttl     time.Duration
}

// NewVariablesCache creates a cache backed by the given Valkey client.
func NewVariablesCache(client *redis.Client, backend VariablesBackend, ttl time.Duration) *VariablesCache {
	if ttl == 0 {
		ttl = DefaultVariablesTTL
	}
	return &VariablesCache{client: client, backend: backend, ttl: ttl}
}

// Variables returns the user's variables, loading them from the backend on
// a cache miss. Valkey errors degrade to a backend read.
func (vc *VariablesCache) Variables(ctx context.Context, userID uuid.UUID) (*models.UserVariables, error) {
	key := variablesKeyPrefix + userID.String()

	payload, err := vc.client.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var v models.UserVariables
		if jerr := json.Unmarshal(payload, &v); jerr == nil {
			slog.Debug("variables cache hit", "user_id", userID)
			return &v, nil
		}
		slog.Warn("variables cache corrupt entry", "user_id", userID)
	case !errors.Is(err, redis.Nil):
		slog.Warn("variables cache get error", "user_id", userID, "error", err)
	}

	v, err := vc.backend.Get(userID)
	if err != nil {
		return nil, fmt.Errorf("load user variables: %w", err)
	}
	if v == nil {
		return nil, nil
	}

	if payload, err := json.Marshal(v); err == nil {
		if err := vc.client.Set(ctx, key, payload, vc.ttl).Err(); err != nil {
			slog.Warn("variables cache set error", "user_id", userID, "error", err)
		}
	}
	return v, nil
}

// Save writes the variables to the backend and invalidates the cached copy.
func (vc *VariablesCache) Save(ctx context.Context, v *models.UserVariables) error {
	if err := vc.backend.Upsert(v); err != nil {
		return err
	}
	vc.Invalidate(ctx, v.UserID)
	return nil
}

// Invalidate removes a user's cached variables.
func (vc *VariablesCache) Invalidate(ctx context.Context, userID uuid.UUID) {
	if err := vc.client.Del(ctx, variablesKeyPrefix+userID.String()).Err(); err != nil {
		slog.Warn("variables cache invalidate error", "user_id", userID, "error", err)
	}
}
