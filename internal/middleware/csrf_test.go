// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"

	"inkwell/internal/models"
)

func okCSRF(secure bool) http.Handler {
	return NewCSRF(secure)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
}

// as marks req as authenticated by method m.
func as(req *http.Request, m Method) *http.Request {
	u := &models.User{ID: uuid.New(), Username: "alice", IsActive: true}
	return req.WithContext(withIdentity(req.Context(), u, m))
}

// csrfCookie performs a GET and returns the issued token cookie.
func csrfCookie(t *testing.T, handler http.Handler) *http.Cookie {
	t.Helper()
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/v1/auth/me", nil))
	for _, c := range rr.Result().Cookies() {
		if c.Name == CSRFCookieName {
			return c
		}
	}
	t.Fatal("CSRF cookie not set")
	return nil
}

func TestNewCSRFSecureFlag(t *testing.T) {
	tests := []struct {
		name   string
		secure bool
	}{
		{"secure true", true},
		{"secure false", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := csrfCookie(t, okCSRF(tt.secure))
			if c.Secure != tt.secure {
				t.Errorf("cookie Secure: got %v, want %v", c.Secure, tt.secure)
			}
			if c.SameSite != http.SameSiteStrictMode {
				t.Errorf("cookie SameSite: got %v, want StrictMode", c.SameSite)
			}
			if c.HttpOnly {
				t.Error("cookie must be readable by clients")
			}
			if c.Value == "" {
				t.Error("cookie Value should not be empty")
			}
		})
	}
}

func TestCSRFSessionRequestNeedsToken(t *testing.T) {
	handler := okCSRF(false)
	cookie := csrfCookie(t, handler)

	for _, method := range []string{http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete} {
		t.Run(method, func(t *testing.T) {
			req := as(httptest.NewRequest(method, "/api/v1/posts", nil), Session)
			req.AddCookie(cookie)
			rr := httptest.NewRecorder()
			handler.ServeHTTP(rr, req)

			if rr.Code != http.StatusForbidden {
				t.Errorf("%s without token: got %d, want 403", method, rr.Code)
			}
		})
	}
}

func TestCSRFSessionRequestWithToken(t *testing.T) {
	handler := okCSRF(false)
	cookie := csrfCookie(t, handler)

	t.Run("header", func(t *testing.T) {
		req := as(httptest.NewRequest(http.MethodPost, "/api/v1/posts", nil), Session)
		req.AddCookie(cookie)
		req.Header.Set(CSRFHeaderName, cookie.Value)
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)

		if rr.Code != http.StatusOK {
			t.Errorf("POST with header token: got %d, want 200", rr.Code)
		}
	})

	t.Run("form field", func(t *testing.T) {
		req := as(httptest.NewRequest(http.MethodPost, "/api/v1/posts?"+CSRFFormField+"="+cookie.Value, nil), Session)
		req.AddCookie(cookie)
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)

		if rr.Code != http.StatusOK {
			t.Errorf("POST with form token: got %d, want 200", rr.Code)
		}
	})

	t.Run("wrong token", func(t *testing.T) {
		req := as(httptest.NewRequest(http.MethodPost, "/api/v1/posts", nil), Session)
		req.AddCookie(cookie)
		req.Header.Set(CSRFHeaderName, "forged")
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)

		if rr.Code != http.StatusForbidden {
			t.Errorf("POST with wrong token: got %d, want 403", rr.Code)
		}
	})
}

func TestCSRFSkipsBearerAndAnonymous(t *testing.T) {
	handler := okCSRF(false)

	tests := []struct {
		name string
		req  *http.Request
	}{
		{"bearer", as(httptest.NewRequest(http.MethodPost, "/api/v1/posts", nil), Bearer)},
		{"anonymous", httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", nil)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := httptest.NewRecorder()
			handler.ServeHTTP(rr, tt.req)
			if rr.Code != http.StatusOK {
				t.Errorf("got %d, want 200", rr.Code)
			}
		})
	}
}

func TestCSRFSafeMethodsPassThrough(t *testing.T) {
	handler := okCSRF(false)

	for _, method := range []string{http.MethodGet, http.MethodHead, http.MethodOptions} {
		t.Run(method, func(t *testing.T) {
			req := as(httptest.NewRequest(method, "/api/v1/auth/me", nil), Session)
			rr := httptest.NewRecorder()
			handler.ServeHTTP(rr, req)

			if rr.Code != http.StatusOK {
				t.Errorf("status: got %d, want 200", rr.Code)
			}
		})
	}
}

func TestCSRFTokenFromCtx(t *testing.T) {
	t.Run("matches issued cookie", func(t *testing.T) {
		var ctxToken string
		handler := NewCSRF(false)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctxToken = CSRFTokenFromCtx(r.Context())
		}))

		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))

		var cookieToken string
		for _, c := range rr.Result().Cookies() {
			if c.Name == CSRFCookieName {
				cookieToken = c.Value
			}
		}
		if ctxToken == "" || ctxToken != cookieToken {
			t.Errorf("context token %q != cookie token %q", ctxToken, cookieToken)
		}
	})

	t.Run("reuses existing cookie", func(t *testing.T) {
		var ctxToken string
		handler := NewCSRF(false)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctxToken = CSRFTokenFromCtx(r.Context())
		}))

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.AddCookie(&http.Cookie{Name: CSRFCookieName, Value: "existing"})
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)

		if ctxToken != "existing" {
			t.Errorf("context token: got %q, want %q", ctxToken, "existing")
		}
		if len(rr.Result().Cookies()) != 0 {
			t.Error("expected no new cookie when one is already present")
		}
	})

	t.Run("empty outside middleware", func(t *testing.T) {
		if token := CSRFTokenFromCtx(httptest.NewRequest(http.MethodGet, "/", nil).Context()); token != "" {
			t.Errorf("expected empty string, got %q", token)
		}
	})
}
