// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package session keeps login sessions in Valkey. The browser holds an
// opaque random ID in a cookie; the identity lives server side as JSON
// with a sliding TTL. Every user has an index of live session IDs so all
// of their sessions can be revoked at once.
package session

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	// CookieName is the session cookie.
	CookieName = "pf_session"

	// DefaultTTL is the idle lifetime of a session. Each request that
	// loads the session extends it.
	DefaultTTL = 24 * time.Hour

	keyPrefix     = "session:"
	userKeyPrefix = "session:user:"

	// idLength is the random ID size in bytes (hex-encoded in the cookie).
	idLength = 32
)

// Data is the identity stored for a session.
type Data struct {
	UserID      uuid.UUID `json:"user_id"`
	Email       string    `json:"email"`
	DisplayName string    `json:"display_name"`
	Role        string    `json:"role"`
	CreatedAt   time.Time `json:"created_at"`
}

// Store creates, loads and revokes sessions.
type Store struct {
	client *redis.Client
	ttl    time.Duration
	secure bool
}

// NewStore creates a session store. secure marks the cookie Secure and
// should be true behind TLS.
func NewStore(client *redis.Client, secure bool) *Store {
	return &Store{client: client, ttl: DefaultTTL, secure: secure}
}

func userKey(id uuid.UUID) string { return userKeyPrefix + id.String() }

// Create stores data under a new session ID, indexes it for the user and
// sets the cookie. It returns the session ID.
func (s *Store) Create(ctx context.Context, w http.ResponseWriter, data *Data) (string, error) {
	id, err := generateID()
	if err != nil {
		return "", fmt.Errorf("session create: %w", err)
	}
	data.CreatedAt = time.Now().UTC()

	payload, err := json.Marshal(data)
	if err != nil {
		return "", fmt.Errorf("session marshal: %w", err)
	}

	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, keyPrefix+id, payload, s.ttl)
		pipe.SAdd(ctx, userKey(data.UserID), id)
		pipe.Expire(ctx, userKey(data.UserID), s.ttl)
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("session store: %w", err)
	}

	http.SetCookie(w, s.cookie(id, int(s.ttl.Seconds())))
	return id, nil
}

// Get loads the session named by the request cookie and extends its TTL.
// A missing, malformed or expired session is (nil, nil).
func (s *Store) Get(ctx context.Context, r *http.Request) (*Data, error) {
	id, ok := cookieID(r)
	if !ok {
		return nil, nil
	}

	payload, err := s.client.GetEx(ctx, keyPrefix+id, s.ttl).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("session get: %w", err)
	}

	var data Data
	if err := json.Unmarshal(payload, &data); err != nil {
		return nil, fmt.Errorf("session unmarshal: %w", err)
	}

	if err := s.client.Expire(ctx, userKey(data.UserID), s.ttl).Err(); err != nil {
		slog.Warn("session index ttl not extended", "user_id", data.UserID, "error", err)
	}
	return &data, nil
}

// Destroy ends the request's session and expires the cookie.
func (s *Store) Destroy(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	id, ok := cookieID(r)
	if !ok {
		return nil
	}
	http.SetCookie(w, s.cookie("", -1))

	payload, err := s.client.GetDel(ctx, keyPrefix+id).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("session destroy: %w", err)
	}

	var data Data
	if err := json.Unmarshal(payload, &data); err != nil {
		return nil
	}
	if err := s.client.SRem(ctx, userKey(data.UserID), id).Err(); err != nil {
		return fmt.Errorf("session unindex: %w", err)
	}
	return nil
}

// RevokeUser ends every session of userID and returns how many were
// live.
func (s *Store) RevokeUser(ctx context.Context, userID uuid.UUID) (int, error) {
	ids, err := s.client.SMembers(ctx, userKey(userID)).Result()
	if err != nil {
		return 0, fmt.Errorf("session list: %w", err)
	}

	var n int64
	if len(ids) > 0 {
		keys := make([]string, len(ids))
		for i, id := range ids {
			keys[i] = keyPrefix + id
		}
		if n, err = s.client.Del(ctx, keys...).Result(); err != nil {
			return 0, fmt.Errorf("session revoke: %w", err)
		}
	}
	if err := s.client.Del(ctx, userKey(userID)).Err(); err != nil {
		return 0, fmt.Errorf("session unindex: %w", err)
	}
	return int(n), nil
}

func (s *Store) cookie(value string, maxAge int) *http.Cookie {
	return &http.Cookie{
		Name:     CookieName,
		Value:    value,
		Path:     "/",
		HttpOnly: true,
		Secure:   s.secure,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   maxAge,
	}
}

// cookieID returns the session ID of r when it is well formed.
func cookieID(r *http.Request) (string, bool) {
	c, err := r.Cookie(CookieName)
	if err != nil || len(c.Value) != idLength*2 {
		return "", false
	}
	if _, err := hex.DecodeString(c.Value); err != nil {
		return "", false
	}
	return c.Value, true
}

func generateID() (string, error) {
	b := make([]byte, idLength)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
