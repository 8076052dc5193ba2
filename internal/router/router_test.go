// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package router tests verify the HTTP routing configuration, middleware
// chains, and the health endpoint.
package router

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"golang.org/x/crypto/bcrypt"

	"inkwell/internal/auth"
	"inkwell/internal/blog"
	"inkwell/internal/blog/blogtest"
	"inkwell/internal/handlers"
	"inkwell/internal/metrics"
	"inkwell/internal/middleware"
)

type pingFunc func(ctx context.Context) error

func (f pingFunc) PingContext(ctx context.Context) error { return f(ctx) }

func TestHealthHandler(t *testing.T) {
	tests := []struct {
		name   string
		db     Pinger
		code   int
		status string
	}{
		{"no database", nil, http.StatusOK, "ok"},
		{"database up", pingFunc(func(context.Context) error { return nil }), http.StatusOK, "ok"},
		{"database down", pingFunc(func(context.Context) error { return errors.New("refused") }),
			http.StatusServiceUnavailable, "unavailable"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			healthHandler(tt.db)(w, httptest.NewRequest("GET", "/health", nil))

			if w.Code != tt.code {
				t.Errorf("status: got %d, want %d", w.Code, tt.code)
			}
			if ct := w.Header().Get("Content-Type"); ct != "application/json" {
				t.Errorf("content-type: got %q, want %q", ct, "application/json")
			}
			var body map[string]string
			if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
				t.Fatalf("decode body: %v", err)
			}
			if body["status"] != tt.status {
				t.Errorf("status field: got %q, want %q", body["status"], tt.status)
			}
		})
	}
}

func testRouter(t *testing.T, limiter *middleware.RateLimiter) (http.Handler, *auth.TokenIssuer, *blog.Service) {
	t.Helper()
	svc := blog.New(blogtest.New(), blog.WithBcryptCost(bcrypt.MinCost))
	tokens := auth.NewTokenIssuer("router-secret", "Inkwell", time.Hour)
	present := handlers.NewPresenter(nil)
	return New(Config{
		Auth:          handlers.NewAuth(svc, nil, tokens, present),
		Posts:         handlers.NewPosts(svc, nil, 0, present),
		Categories:    handlers.NewCategories(svc, present),
		Users:         handlers.NewUsers(svc, present),
		Admin:         handlers.NewAdmin(svc, present),
		Authenticator: middleware.NewAuthenticator(nil, tokens, svc),
		LoginLimiter:  limiter,
	}), tokens, svc
}

func TestRouteGuards(t *testing.T) {
	h, tokens, svc := testRouter(t, nil)
	u, err := svc.Register(context.Background(), blog.RegisterInput{
		Username: "reader", Email: "reader@example.com", Password: "correct horse",
	})
	if err != nil {
		t.Fatal(err)
	}
	token, _, err := tokens.Issue(u.ID)
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		method, path string
		bearer       bool
		want         int
	}{
		{"GET", "/api/v1/posts", false, http.StatusOK},
		{"GET", "/api/v1/categories", false, http.StatusOK},
		{"GET", "/api/v1/users", false, http.StatusOK},
		{"GET", "/api/v1/auth/me", false, http.StatusUnauthorized},
		{"GET", "/api/v1/auth/me", true, http.StatusOK},
		{"POST", "/api/v1/posts", false, http.StatusUnauthorized},
		{"POST", "/api/v1/users", true, http.StatusForbidden},
		{"GET", "/api/v1/admin/dashboard", false, http.StatusUnauthorized},
		{"GET", "/api/v1/admin/dashboard", true, http.StatusForbidden},
		{"GET", "/api/v1/admin/posts", true, http.StatusForbidden},
		{"GET", "/api/v1/nowhere", false, http.StatusNotFound},
	}
	for _, tt := range tests {
		name := tt.method + " " + tt.path
		if tt.bearer {
			name += " as user"
		}
		t.Run(name, func(t *testing.T) {
			r := httptest.NewRequest(tt.method, tt.path, nil)
			if tt.bearer {
				r.Header.Set("Authorization", "Bearer "+token)
			}
			w := httptest.NewRecorder()
			h.ServeHTTP(w, r)
			if w.Code != tt.want {
				t.Errorf("got %d, want %d; body: %s", w.Code, tt.want, w.Body.String())
			}
		})
	}
}

func TestRouterSecurityHeaders(t *testing.T) {
	h, _, _ := testRouter(t, nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest("GET", "/api/v1/posts", nil))

	if got := w.Header().Get("X-Content-Type-Options"); got != "nosniff" {
		t.Errorf("X-Content-Type-Options: got %q", got)
	}
	var csrf bool
	for _, c := range w.Result().Cookies() {
		if c.Name == middleware.CSRFCookieName && c.Value != "" {
			csrf = true
		}
	}
	if !csrf {
		t.Error("API response did not set a CSRF cookie")
	}
}

func TestLoginRateLimit(t *testing.T) {
	limiter := middleware.NewRateLimiter(2, time.Minute)
	defer limiter.Stop()
	limiter.OnReject = LoginRejected
	h, _, _ := testRouter(t, limiter)

	before := testutil.ToFloat64(metrics.LoginsTotal.WithLabelValues("rate_limited"))
	var last int
	for range 3 {
		r := httptest.NewRequest("POST", "/api/v1/auth/login",
			strings.NewReader(`{"username":"nobody","password":"nothing"}`))
		r.RemoteAddr = "192.0.2.7:4000"
		w := httptest.NewRecorder()
		h.ServeHTTP(w, r)
		last = w.Code
	}
	if last != http.StatusTooManyRequests {
		t.Errorf("third login: got %d, want 429", last)
	}
	if got := testutil.ToFloat64(metrics.LoginsTotal.WithLabelValues("rate_limited")) - before; got != 1 {
		t.Errorf("rate_limited logins: got %v, want 1", got)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	h, _, _ := testRouter(t, nil)
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/api/v1/posts", nil))

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest("GET", "/metrics", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("status: got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "inkwell_http_requests_total") {
		t.Error("metrics output lacks inkwell_http_requests_total")
	}
}
