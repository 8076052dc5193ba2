// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"inkwell/internal/blog"
	"inkwell/internal/models"
	"inkwell/internal/session"
)

// contextKey is an unexported type for context keys to prevent collisions.
type contextKey string

const (
	// identityKey is the context key for the resolved caller.
	identityKey contextKey = "identity"
)

// Method says how a request was authenticated.
type Method int

const (
	Anonymous Method = iota
	Bearer
	Session
)

// Identity is the authenticated user attached to a request.
type Identity struct {
	User   *models.User
	Method Method
}

// SessionLoader reads the session attached to a request.
type SessionLoader interface {
	Get(ctx context.Context, r *http.Request) (*session.Data, error)
}

// TokenParser verifies a bearer token and returns the user it names.
type TokenParser interface {
	Parse(token string) (uuid.UUID, error)
}

// UserResolver reloads an active user by ID.
type UserResolver interface {
	Authenticate(ctx context.Context, userID uuid.UUID) (*models.User, error)
}

// Authenticator resolves the caller from a bearer token or the session
// cookie. The user is reloaded on every request, so deactivation and
// admin changes apply immediately. It does NOT enforce authentication;
// see RequireAuth.
type Authenticator struct {
	sessions SessionLoader
	tokens   TokenParser
	users    UserResolver
}

// NewAuthenticator builds an Authenticator. sessions may be nil when the
// server runs without Valkey; only bearer tokens are accepted then.
func NewAuthenticator(sessions SessionLoader, tokens TokenParser, users UserResolver) *Authenticator {
	return &Authenticator{sessions: sessions, tokens: tokens, users: users}
}

// Middleware attaches the Identity to the request context. A request
// that presents a bearer token must present a valid one; a stale session
// cookie is ignored.
func (a *Authenticator) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		if header := r.Header.Get("Authorization"); header != "" {
			scheme, token, ok := strings.Cut(header, " ")
			if !ok || !strings.EqualFold(scheme, "bearer") || token == "" {
				writeError(w, http.StatusUnauthorized, "invalid authorization header")
				return
			}
			userID, err := a.tokens.Parse(strings.TrimSpace(token))
			if err != nil {
				writeError(w, http.StatusUnauthorized, "invalid or expired token")
				return
			}
			user, err := a.users.Authenticate(ctx, userID)
			if err != nil {
				a.fail(w, r, err)
				return
			}
			next.ServeHTTP(w, r.WithContext(withIdentity(ctx, user, Bearer)))
			return
		}

		if a.sessions != nil {
			data, err := a.sessions.Get(ctx, r)
			if err != nil {
				slog.Warn("session load failed", "error", err)
			}
			if data != nil {
				user, err := a.users.Authenticate(ctx, data.UserID)
				switch {
				case err == nil:
					r = r.WithContext(withIdentity(ctx, user, Session))
				case !errors.Is(err, blog.ErrUnauthenticated):
					a.fail(w, r, err)
					return
				}
			}
		}

		next.ServeHTTP(w, r)
	})
}

func (a *Authenticator) fail(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, blog.ErrUnauthenticated) {
		writeError(w, http.StatusUnauthorized, "authentication required")
		return
	}
	slog.Error("resolve caller", "error", err, "path", r.URL.Path)
	writeError(w, http.StatusInternalServerError, "An unexpected error occurred.")
}

func withIdentity(ctx context.Context, u *models.User, m Method) context.Context {
	return context.WithValue(ctx, identityKey, &Identity{User: u, Method: m})
}

// IdentityFromCtx returns the request's Identity, or nil for anonymous
// requests.
func IdentityFromCtx(ctx context.Context) *Identity {
	id, _ := ctx.Value(identityKey).(*Identity)
	return id
}

// UserFromCtx returns the authenticated user, or nil.
func UserFromCtx(ctx context.Context) *models.User {
	if id := IdentityFromCtx(ctx); id != nil {
		return id.User
	}
	return nil
}

// CallerFromCtx returns the blog.Caller for the request. Anonymous
// requests get the zero Caller.
func CallerFromCtx(ctx context.Context) blog.Caller {
	if u := UserFromCtx(ctx); u != nil {
		return blog.CallerFor(u)
	}
	return blog.Caller{}
}

// RequireAuth rejects anonymous requests with 401.
// Must be applied after Authenticator.Middleware.
func RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if UserFromCtx(r.Context()) == nil {
			writeError(w, http.StatusUnauthorized, "authentication required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireAdmin rejects anonymous requests with 401 and non-admins with 403.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		u := UserFromCtx(r.Context())
		if u == nil {
			writeError(w, http.StatusUnauthorized, "authentication required")
			return
		}
		if !u.IsAdmin {
			writeError(w, http.StatusForbidden, "admin privileges required")
			return
		}
		next.ServeHTTP(w, r)
	})
}
