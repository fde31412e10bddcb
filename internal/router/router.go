// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package router sets up all HTTP routes and middleware chains for the
// postforge API. Public routes (health, metrics, login) sit next to the
// authenticated /api group.
package router

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"postforge/internal/handlers"
	"postforge/internal/metrics"
	"postforge/internal/middleware"
)

// Handlers bundles the handler groups mounted by New.
type Handlers struct {
	Auth     *handlers.Auth
	Wizards  *handlers.Wizards
	AI       *handlers.AI
	Library  *handlers.Library
	Settings *handlers.Settings
}

// Options carries the cross-cutting dependencies of the router.
type Options struct {
	Sessions middleware.SessionGetter

	// AILimiter throttles the generation endpoints. Nil disables it.
	AILimiter *middleware.RateLimiter

	// Metrics records HTTP instruments; Gatherer backs /metrics. Either
	// may be nil.
	Metrics  *metrics.Metrics
	Gatherer prometheus.Gatherer
}

// New creates the chi router with all middleware and route groups wired up.
func New(h Handlers, opts Options) chi.Router {
	r := chi.NewRouter()

	var obs middleware.HTTPObserver
	if opts.Metrics != nil {
		obs = opts.Metrics
	}

	r.Use(middleware.Recoverer)
	r.Use(middleware.Logger(obs))
	r.Use(middleware.SecureHeaders)
	r.Use(middleware.LoadSession(opts.Sessions))

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeJSONError(w, http.StatusNotFound, "not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeJSONError(w, http.StatusMethodNotAllowed, "method not allowed")
	})

	r.Get("/health", healthHandler)
	if opts.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(opts.Gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/api", func(r chi.Router) {
		r.Post("/auth/login", h.Auth.Login)
		r.Post("/auth/logout", h.Auth.Logout)

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAuth)

			r.Get("/auth/me", h.Auth.Me)
			r.Post("/auth/logout-all", h.Auth.LogoutAll)

			r.Route("/wizards", func(r chi.Router) {
				r.Post("/", h.Wizards.Create)
				r.Get("/{id}", h.Wizards.Get)
				r.Put("/{id}", h.Wizards.Update)
				r.Post("/{id}/enqueue", h.Wizards.Enqueue)
				r.Post("/{id}/save", h.Wizards.Save)

				r.Group(func(r chi.Router) {
					useLimiter(r, opts.AILimiter)
					r.Post("/{id}/narratives", h.Wizards.Narratives)
					r.Post("/{id}/content", h.Wizards.Content)
					r.Post("/{id}/images", h.Wizards.Images)
				})
			})

			r.Route("/ai", func(r chi.Router) {
				useLimiter(r, opts.AILimiter)
				r.Post("/narratives", h.AI.Narratives)
				r.Post("/content", h.AI.Content)
				r.Post("/image-prompt", h.AI.ImagePrompt)
				r.Post("/image", h.AI.Image)
			})

			r.Route("/library", func(r chi.Router) {
				r.Get("/", h.Library.List)
				r.Post("/", h.Library.Create)
				r.Get("/{id}", h.Library.Get)
				r.Put("/{id}", h.Library.Update)
				r.Delete("/{id}", h.Library.Delete)
				r.Put("/{id}/tags", h.Library.SetTags)
			})

			r.Route("/categories", func(r chi.Router) {
				r.Get("/", h.Library.Categories)
				r.Post("/", h.Library.CreateCategory)
				r.Put("/{id}", h.Library.UpdateCategory)
				r.Delete("/{id}", h.Library.DeleteCategory)
			})

			r.Route("/tags", func(r chi.Router) {
				r.Get("/", h.Library.Tags)
				r.Post("/", h.Library.CreateTag)
				r.Delete("/{id}", h.Library.DeleteTag)
			})

			r.Route("/schedule", func(r chi.Router) {
				r.Get("/", h.Library.Upcoming)
				r.Post("/", h.Library.Schedule)
				r.Delete("/{id}", h.Library.CancelSchedule)
			})

			r.Route("/settings", func(r chi.Router) {
				r.Get("/variables", h.Settings.Variables)
				r.Put("/variables", h.Settings.SaveVariables)
				r.Get("/ai", h.AI.Settings)
				r.With(middleware.RequireAdmin).Put("/ai/active", h.AI.SetActive)
			})
		})
	})

	return r
}

func useLimiter(r chi.Router, rl *middleware.RateLimiter) {
	if rl != nil {
		r.Use(rl.Middleware)
	}
}

func writeJSONError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

// healthHandler returns a simple JSON health check response.
func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ok"}`))
}
