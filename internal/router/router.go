// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package router sets up all HTTP routes and middleware chains for the
// Inkwell API. Routes are grouped into public, authenticated and admin
// sections under /api/v1, plus the operational endpoints.
package router

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"inkwell/internal/handlers"
	"inkwell/internal/metrics"
	"inkwell/internal/middleware"
)

// Pinger reports whether a dependency is reachable. *sql.DB satisfies it.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// Config carries everything the router wires together.
type Config struct {
	Auth       *handlers.Auth
	Posts      *handlers.Posts
	Categories *handlers.Categories
	Users      *handlers.Users
	Admin      *handlers.Admin

	Authenticator *middleware.Authenticator
	// LoginLimiter throttles login and registration per client IP.
	LoginLimiter *middleware.RateLimiter
	// DB is pinged by /health; nil skips the check.
	DB Pinger

	SecureCookies bool
	// TrustProxy takes the client address from forwarding headers.
	TrustProxy bool
}

// New creates and returns the configured Chi router with all middleware
// and route groups wired up.
func New(cfg Config) chi.Router {
	r := chi.NewRouter()

	// Global middleware, applied to every request.
	r.Use(middleware.Recoverer)
	if cfg.TrustProxy {
		r.Use(chimw.RealIP)
	}
	r.Use(middleware.Logger)
	r.Use(middleware.SecureHeaders)

	// Ops endpoints: no auth, no CSRF.
	r.Get("/health", healthHandler(cfg.DB))
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(cfg.Authenticator.Middleware)
		r.Use(middleware.NewCSRF(cfg.SecureCookies))

		r.Route("/auth", func(r chi.Router) {
			r.Group(func(r chi.Router) {
				if cfg.LoginLimiter != nil {
					r.Use(cfg.LoginLimiter.Middleware)
				}
				r.Post("/register", cfg.Auth.Register)
				r.Post("/login", cfg.Auth.Login)
			})
			r.Post("/logout", cfg.Auth.Logout)

			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireAuth)
				r.Get("/me", cfg.Auth.Me)
				r.Put("/profile", cfg.Auth.UpdateProfile)
				r.Post("/password", cfg.Auth.ChangePassword)
				r.Post("/2fa/setup", cfg.Auth.Setup2FA)
				r.Post("/2fa/enable", cfg.Auth.Enable2FA)
			})
		})

		r.Route("/posts", func(r chi.Router) {
			r.Get("/", cfg.Posts.List)
			r.Get("/featured", cfg.Posts.Featured)
			r.Get("/slug/{slug}", cfg.Posts.GetBySlug)
			r.Get("/{id}", cfg.Posts.Get)

			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireAuth)
				r.Post("/", cfg.Posts.Create)
				r.Put("/{id}", cfg.Posts.Update)
				r.Delete("/{id}", cfg.Posts.Delete)
				r.Post("/{id}/toggle-published", cfg.Posts.TogglePublished)
				r.Post("/{id}/toggle-featured", cfg.Posts.ToggleFeatured)
				r.Post("/{id}/image", cfg.Posts.UploadImage)
			})
		})

		r.Get("/search", cfg.Posts.Search)

		r.Route("/categories", func(r chi.Router) {
			r.Get("/", cfg.Categories.List)
			r.Get("/{id}", cfg.Categories.Get)
			r.Get("/slug/{slug}/posts", cfg.Categories.PostsBySlug)
		})

		r.Route("/users", func(r chi.Router) {
			r.Get("/", cfg.Users.List)
			r.Get("/{id}", cfg.Users.Get)
			r.With(middleware.RequireAdmin).Post("/", cfg.Users.Create)
		})

		r.Get("/authors/{username}/posts", cfg.Users.AuthorPosts)

		// Admin panel: admin only.
		r.Route("/admin", func(r chi.Router) {
			r.Use(middleware.RequireAdmin)

			r.Get("/dashboard", cfg.Admin.Dashboard)

			r.Route("/users", func(r chi.Router) {
				r.Get("/", cfg.Admin.UsersList)
				r.Post("/{id}/toggle-active", cfg.Admin.UserToggleActive)
				r.Post("/{id}/toggle-admin", cfg.Admin.UserToggleAdmin)
				r.Post("/{id}/reset-2fa", cfg.Admin.UserResetTwoFA)
			})

			r.Get("/posts", cfg.Admin.PostsList)

			r.Route("/categories", func(r chi.Router) {
				r.Get("/", cfg.Admin.CategoriesList)
				r.Post("/", cfg.Admin.CategoryCreate)
				r.Put("/{id}", cfg.Admin.CategoryUpdate)
				r.Delete("/{id}", cfg.Admin.CategoryDelete)
			})
		})
	})

	return r
}

// LoginRejected is the RateLimiter.OnReject hook for the login limiter.
func LoginRejected(*http.Request) {
	metrics.LoginsTotal.WithLabelValues("rate_limited").Inc()
}

// healthHandler returns a JSON health check response. When db is set it
// must answer a ping within two seconds.
func healthHandler(db Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		status, code := "ok", http.StatusOK
		if db != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()
			if err := db.PingContext(ctx); err != nil {
				status, code = "unavailable", http.StatusServiceUnavailable
			}
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(code)
		json.NewEncoder(w).Encode(map[string]string{"status": status})
	}
}
