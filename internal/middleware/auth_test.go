// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"postforge/internal/session"
)

func newTestSession(role string) *session.Data {
	return &session.Data{
		UserID:      uuid.New(),
		Email:       "test@postforge.local",
		DisplayName: "Test User",
		Role:        role,
	}
}

func ctxWithSession(ctx context.Context, data *session.Data) context.Context {
	return context.WithValue(ctx, SessionKey, data)
}

// okHandler records whether it was invoked and which session it saw.
func okHandler() (http.Handler, *bool, **session.Data) {
	var called bool
	var seen *session.Data
	h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		seen = SessionFromCtx(r.Context())
		w.WriteHeader(http.StatusOK)
	})
	return h, &called, &seen
}

func TestSessionFromCtx(t *testing.T) {
	sess := newTestSession("admin")
	if got := SessionFromCtx(ctxWithSession(context.Background(), sess)); got != sess {
		t.Errorf("got %+v, want %+v", got, sess)
	}
	if got := SessionFromCtx(context.Background()); got != nil {
		t.Errorf("expected nil session, got %+v", got)
	}
	ctx := context.WithValue(context.Background(), SessionKey, "not-a-session")
	if got := SessionFromCtx(ctx); got != nil {
		t.Errorf("expected nil for wrong type, got %+v", got)
	}
}

func TestLoadSession(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	store := session.NewStore(client, false)

	t.Run("valid cookie loads the session", func(t *testing.T) {
		sess := newTestSession("member")
		rec := httptest.NewRecorder()
		if _, err := store.Create(context.Background(), rec, sess); err != nil {
			t.Fatalf("Create: %v", err)
		}

		req := httptest.NewRequest(http.MethodGet, "/api/library", nil)
		for _, c := range rec.Result().Cookies() {
			req.AddCookie(c)
		}

		inner, called, seen := okHandler()
		LoadSession(store)(inner).ServeHTTP(httptest.NewRecorder(), req)

		if !*called {
			t.Fatal("next handler should have been called")
		}
		if *seen == nil || (*seen).UserID != sess.UserID {
			t.Errorf("session not loaded: %+v", *seen)
		}
	})

	t.Run("no cookie proceeds anonymously", func(t *testing.T) {
		inner, called, seen := okHandler()
		LoadSession(store)(inner).ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

		if !*called || *seen != nil {
			t.Errorf("called=%v session=%+v", *called, *seen)
		}
	})
}

type failingSessions struct{}

func (failingSessions) Get(context.Context, *http.Request) (*session.Data, error) {
	return nil, errors.New("valkey down")
}

func TestLoadSessionStoreError(t *testing.T) {
	inner, called, seen := okHandler()
	LoadSession(failingSessions{})(inner).ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	if !*called {
		t.Error("a store error must not block the request")
	}
	if *seen != nil {
		t.Error("no session expected after a store error")
	}
}

func TestRequireAuth(t *testing.T) {
	t.Run("rejects anonymous requests with 401 JSON", func(t *testing.T) {
		inner, called, _ := okHandler()
		rr := httptest.NewRecorder()
		RequireAuth(inner).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/wizards", nil))

		if *called {
			t.Error("next handler must not run")
		}
		if rr.Code != http.StatusUnauthorized {
			t.Errorf("status: got %d, want 401", rr.Code)
		}
		if want := "{\"error\":\"authentication required\"}\n"; rr.Body.String() != want {
			t.Errorf("body: got %q, want %q", rr.Body.String(), want)
		}
	})

	t.Run("passes authenticated requests", func(t *testing.T) {
		inner, called, _ := okHandler()
		req := httptest.NewRequest(http.MethodGet, "/api/wizards", nil)
		req = req.WithContext(ctxWithSession(req.Context(), newTestSession("member")))
		rr := httptest.NewRecorder()
		RequireAuth(inner).ServeHTTP(rr, req)

		if !*called || rr.Code != http.StatusOK {
			t.Errorf("called=%v status=%d", *called, rr.Code)
		}
	})
}

func TestRequireAdmin(t *testing.T) {
	tests := []struct {
		name string
		sess *session.Data
		want int
	}{
		{"admin", newTestSession("admin"), http.StatusOK},
		{"member", newTestSession("member"), http.StatusForbidden},
		{"anonymous", nil, http.StatusForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			inner, _, _ := okHandler()
			req := httptest.NewRequest(http.MethodPut, "/api/settings/ai/active", nil)
			if tt.sess != nil {
				req = req.WithContext(ctxWithSession(req.Context(), tt.sess))
			}
			rr := httptest.NewRecorder()
			RequireAdmin(inner).ServeHTTP(rr, req)
			if rr.Code != tt.want {
				t.Errorf("status: got %d, want %d", rr.Code, tt.want)
			}
		})
	}
}
