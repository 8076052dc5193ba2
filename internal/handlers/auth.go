// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"

	"inkwell/internal/auth"
	"inkwell/internal/blog"
	"inkwell/internal/metrics"
	"inkwell/internal/middleware"
	"inkwell/internal/session"
)

// SessionManager creates and destroys cookie sessions. *session.Store
// satisfies it.
type SessionManager interface {
	Create(ctx context.Context, w http.ResponseWriter, data *session.Data) (string, error)
	Destroy(ctx context.Context, w http.ResponseWriter, r *http.Request) error
}

// TokenIssuer signs bearer tokens. *auth.TokenIssuer satisfies it.
type TokenIssuer interface {
	Issue(userID uuid.UUID) (string, time.Time, error)
}

// Auth groups the account and sign-in handlers.
type Auth struct {
	svc      *blog.Service
	sessions SessionManager
	tokens   TokenIssuer
	present  *Presenter
}

// NewAuth creates a new Auth handler group.
func NewAuth(svc *blog.Service, sessions SessionManager, tokens TokenIssuer, present *Presenter) *Auth {
	return &Auth{svc: svc, sessions: sessions, tokens: tokens, present: present}
}

// Register creates an account for a visitor.
func (a *Auth) Register(w http.ResponseWriter, r *http.Request) {
	var in blog.RegisterInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	u, err := a.svc.Register(r.Context(), in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	created(w, "Registration successful.", a.present.user(u, blog.CallerFor(u)))
}

type loginResponse struct {
	Token     string   `json:"token"`
	TokenType string   `json:"token_type"`
	ExpiresAt string   `json:"expires_at"`
	User      userView `json:"user"`
}

// Login verifies credentials, starts a cookie session and returns a
// bearer token for API clients.
func (a *Auth) Login(w http.ResponseWriter, r *http.Request) {
	var in blog.LoginInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, r, err)
		return
	}

	ctx := r.Context()
	u, err := a.svc.Login(ctx, in)
	if err != nil {
		metrics.LoginsTotal.WithLabelValues("failure").Inc()
		writeError(w, r, err)
		return
	}

	token, exp, err := a.tokens.Issue(u.ID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if a.sessions != nil {
		if _, err := a.sessions.Create(ctx, w, &session.Data{UserID: u.ID, Username: u.Username}); err != nil {
			writeError(w, r, err)
			return
		}
	}

	metrics.LoginsTotal.WithLabelValues("success").Inc()
	ok(w, "Login successful.", loginResponse{
		Token:     token,
		TokenType: "Bearer",
		ExpiresAt: timestamp(exp),
		User:      a.present.user(u, blog.CallerFor(u)),
	})
}

// Logout ends the cookie session. Bearer tokens stay valid until they
// expire.
func (a *Auth) Logout(w http.ResponseWriter, r *http.Request) {
	if a.sessions != nil {
		if err := a.sessions.Destroy(r.Context(), w, r); err != nil {
			writeError(w, r, err)
			return
		}
	}
	ok(w, "Logged out.", nil)
}

// Me returns the authenticated user.
func (a *Auth) Me(w http.ResponseWriter, r *http.Request) {
	u := middleware.UserFromCtx(r.Context())
	if u == nil {
		writeError(w, r, blog.ErrUnauthenticated)
		return
	}
	ok(w, "User retrieved.", a.present.user(u, blog.CallerFor(u)))
}

// UpdateProfile replaces the caller's profile fields.
func (a *Auth) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	var in blog.UpdateProfileInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	caller := middleware.CallerFromCtx(r.Context())
	u, err := a.svc.UpdateProfile(r.Context(), caller, in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	ok(w, "Profile updated.", a.present.user(u, caller))
}

// ChangePassword sets a new password after checking the current one.
func (a *Auth) ChangePassword(w http.ResponseWriter, r *http.Request) {
	var in blog.ChangePasswordInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	if err := a.svc.ChangePassword(r.Context(), middleware.CallerFromCtx(r.Context()), in); err != nil {
		writeError(w, r, err)
		return
	}
	ok(w, "Password changed.", nil)
}

type twoFASetupResponse struct {
	Secret     string `json:"secret"`
	OTPAuthURL string `json:"otpauth_url"`
	QRCode     string `json:"qr_code"`
}

// Setup2FA issues a new TOTP secret and its enrolment QR code.
func (a *Auth) Setup2FA(w http.ResponseWriter, r *http.Request) {
	key, err := a.svc.Setup2FA(r.Context(), middleware.CallerFromCtx(r.Context()))
	if err != nil {
		writeError(w, r, err)
		return
	}
	png, err := auth.QRCodePNG(key)
	if err != nil {
		writeError(w, r, err)
		return
	}
	ok(w, "Scan the QR code with your authenticator app, then confirm a code.", twoFASetupResponse{
		Secret:     key.Secret(),
		OTPAuthURL: key.URL(),
		QRCode:     "data:image/png;base64," + png,
	})
}

type codeRequest struct {
	Code string `json:"code"`
}

// Enable2FA confirms the pending TOTP secret with a current code.
func (a *Auth) Enable2FA(w http.ResponseWriter, r *http.Request) {
	var in codeRequest
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	if err := a.svc.Enable2FA(r.Context(), middleware.CallerFromCtx(r.Context()), in.Code); err != nil {
		writeError(w, r, err)
		return
	}
	ok(w, "Two-factor authentication enabled.", nil)
}
