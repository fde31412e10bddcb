// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"postforge/internal/models"
)

// newTestClient starts an in-process miniredis and returns a client for it.
func newTestClient(t *testing.T) (*redis.Client, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return client, mr
}

func TestConnectValkey(t *testing.T) {
	_, mr := newTestClient(t)

	client, err := ConnectValkey(mr.Host(), mr.Port(), "")
	require.NoError(t, err)
	defer client.Close()
}

func TestConnectValkeyUnreachable(t *testing.T) {
	_, err := ConnectValkey("127.0.0.1", "1", "")
	assert.Error(t, err)
}

type fakeBackend struct {
	vars  map[uuid.UUID]*models.UserVariables
	gets  int
	err   error
	saved *models.UserVariables
}

func (f *fakeBackend) Get(userID uuid.UUID) (*models.UserVariables, error) {
	f.gets++
	if f.err != nil {
		return nil, f.err
	}
	if v, ok := f.vars[userID]; ok {
		return v, nil
	}
	return &models.UserVariables{UserID: userID}, nil
}

func (f *fakeBackend) Upsert(v *models.UserVariables) error {
	f.saved = v
	f.vars[v.UserID] = v
	return nil
}

func TestVariablesCacheReadThrough(t *testing.T) {
	client, mr := newTestClient(t)
	userID := uuid.New()
	backend := &fakeBackend{vars: map[uuid.UUID]*models.UserVariables{
		userID: {UserID: userID, Tone: "direto", ForbiddenTerms: []string{"barato"}},
	}}
	vc := NewVariablesCache(client, backend, 0)
	ctx := context.Background()

	v, err := vc.Variables(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, "direto", v.Tone)
	assert.Equal(t, 1, backend.gets)

	// Second read is served from Valkey.
	v, err = vc.Variables(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, []string{"barato"}, v.ForbiddenTerms)
	assert.Equal(t, 1, backend.gets)

	assert.True(t, mr.Exists("uservars:"+userID.String()))
	assert.Equal(t, DefaultVariablesTTL, mr.TTL("uservars:"+userID.String()))
}

func TestVariablesCacheExpires(t *testing.T) {
	client, mr := newTestClient(t)
	userID := uuid.New()
	backend := &fakeBackend{vars: map[uuid.UUID]*models.UserVariables{}}
	vc := NewVariablesCache(client, backend, time.Minute)
	ctx := context.Background()

	_, err := vc.Variables(ctx, userID)
	require.NoError(t, err)
	mr.FastForward(2 * time.Minute)

	_, err = vc.Variables(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, 2, backend.gets)
}

func TestVariablesCacheSaveInvalidates(t *testing.T) {
	client, mr := newTestClient(t)
	userID := uuid.New()
	backend := &fakeBackend{vars: map[uuid.UUID]*models.UserVariables{}}
	vc := NewVariablesCache(client, backend, 0)
	ctx := context.Background()

	_, err := vc.Variables(ctx, userID)
	require.NoError(t, err)
	require.True(t, mr.Exists("uservars:"+userID.String()))

	require.NoError(t, vc.Save(ctx, &models.UserVariables{UserID: userID, Tone: "leve"}))
	assert.False(t, mr.Exists("uservars:"+userID.String()))

	v, err := vc.Variables(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, "leve", v.Tone)
}

func TestVariablesCacheBackendError(t *testing.T) {
	client, _ := newTestClient(t)
	backend := &fakeBackend{err: errors.New("db down")}
	vc := NewVariablesCache(client, backend, 0)

	_, err := vc.Variables(context.Background(), uuid.New())
	assert.ErrorContains(t, err, "db down")
}

func TestVariablesCacheValkeyDownFallsBack(t *testing.T) {
	client, mr := newTestClient(t)
	userID := uuid.New()
	backend := &fakeBackend{vars: map[uuid.UUID]*models.UserVariables{
		userID: {UserID: userID, Niche: "saas"},
	}}
	vc := NewVariablesCache(client, backend, 0)
	mr.Close()

	v, err := vc.Variables(context.Background(), userID)
	require.NoError(t, err)
	assert.Equal(t, "saas", v.Niche)
}

func TestQueueFIFO(t *testing.T) {
	client, _ := newTestClient(t)
	q := NewQueue(client)
	ctx := context.Background()

	first, second := uuid.New(), uuid.New()
	require.NoError(t, q.Enqueue(ctx, first))
	require.NoError(t, q.Enqueue(ctx, second))

	n, err := q.Len(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	id, ok, err := q.Dequeue(ctx, time.Second)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, first, id)

	id, ok, err = q.Dequeue(ctx, time.Second)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, second, id)
}

func TestQueueDequeueTimeout(t *testing.T) {
	client, _ := newTestClient(t)
	q := NewQueue(client)

	_, ok, err := q.Dequeue(context.Background(), 50*time.Millisecond)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestQueueDequeueBadPayload(t *testing.T) {
	client, mr := newTestClient(t)
	q := NewQueue(client)
	_, err := mr.Lpush(WizardQueueKey, "not-a-uuid")
	require.NoError(t, err)

	_, ok, err := q.Dequeue(context.Background(), time.Second)
	assert.False(t, ok)
	assert.ErrorContains(t, err, "bad wizard id")
}

func TestQueueDeadLetters(t *testing.T) {
	client, _ := newTestClient(t)
	q := NewQueue(client)
	ctx := context.Background()

	id := uuid.New()
	require.NoError(t, q.DeadLetter(ctx, DeadLetter{WizardID: id, Error: "boom", Attempts: 3}))

	entries, err := q.DeadLetters(ctx, 10)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, id, entries[0].WizardID)
	assert.Equal(t, 3, entries[0].Attempts)
	assert.False(t, entries[0].FailedAt.IsZero())
}
