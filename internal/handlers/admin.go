// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"inkwell/internal/blog"
	"inkwell/internal/middleware"
	"inkwell/internal/models"
)

// Admin groups the admin panel handlers. Routes are mounted behind
// RequireAdmin and the service checks the caller again.
type Admin struct {
	svc     *blog.Service
	present *Presenter
}

// NewAdmin creates a new Admin handler group.
func NewAdmin(svc *blog.Service, present *Presenter) *Admin {
	return &Admin{svc: svc, present: present}
}

type dashboardView struct {
	Users          int        `json:"users"`
	Posts          int        `json:"posts"`
	PublishedPosts int        `json:"published_posts"`
	DraftPosts     int        `json:"draft_posts"`
	Categories     int        `json:"categories"`
	RecentPosts    []postView `json:"recent_posts"`
	RecentUsers    []userView `json:"recent_users"`
}

// Dashboard returns site counts and recent activity.
func (a *Admin) Dashboard(w http.ResponseWriter, r *http.Request) {
	caller := middleware.CallerFromCtx(r.Context())
	d, err := a.svc.Dashboard(r.Context(), caller)
	if err != nil {
		writeError(w, r, err)
		return
	}
	ok(w, "Dashboard retrieved.", dashboardView{
		Users:          d.Users,
		Posts:          d.Posts,
		PublishedPosts: d.PublishedPosts,
		DraftPosts:     d.DraftPosts,
		Categories:     d.Categories,
		RecentPosts:    a.present.posts(d.RecentPosts, caller),
		RecentUsers:    a.present.users(d.RecentUsers, caller),
	})
}

// UsersList returns every user with admin-only fields.
func (a *Admin) UsersList(w http.ResponseWriter, r *http.Request) {
	caller := middleware.CallerFromCtx(r.Context())
	p, err := a.svc.AdminListUsers(r.Context(), caller, pageRequest(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	ok(w, "Users retrieved.", usersPage{Users: a.present.users(p.Items, caller), Pagination: pagination(p)})
}

// UserToggleActive activates or deactivates an account.
func (a *Admin) UserToggleActive(w http.ResponseWriter, r *http.Request) {
	a.toggleUser(w, r, a.svc.ToggleActive, func(u *models.User) string {
		if u.IsActive {
			return "User activated."
		}
		return "User deactivated."
	})
}

// UserToggleAdmin grants or revokes admin rights.
func (a *Admin) UserToggleAdmin(w http.ResponseWriter, r *http.Request) {
	a.toggleUser(w, r, a.svc.ToggleAdmin, func(u *models.User) string {
		if u.IsAdmin {
			return "Admin rights granted."
		}
		return "Admin rights revoked."
	})
}

type userToggle func(ctx context.Context, caller blog.Caller, id uuid.UUID) (*models.User, error)

func (a *Admin) toggleUser(w http.ResponseWriter, r *http.Request, flip userToggle, message func(*models.User) string) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	caller := middleware.CallerFromCtx(r.Context())
	u, err := flip(r.Context(), caller, id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	ok(w, message(u), a.present.user(u, caller))
}

// UserResetTwoFA clears a user's two-factor setup.
func (a *Admin) UserResetTwoFA(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := a.svc.ResetTwoFactor(r.Context(), middleware.CallerFromCtx(r.Context()), id); err != nil {
		writeError(w, r, err)
		return
	}
	ok(w, "Two-factor authentication reset.", nil)
}

// PostsList returns every post, drafts included.
func (a *Admin) PostsList(w http.ResponseWriter, r *http.Request) {
	caller := middleware.CallerFromCtx(r.Context())
	p, err := a.svc.ListAllPosts(r.Context(), caller, pageRequest(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	ok(w, "Posts retrieved.", postsPage{Posts: a.present.posts(p.Items, caller), Pagination: pagination(p)})
}

// CategoriesList returns every category, inactive ones included.
func (a *Admin) CategoriesList(w http.ResponseWriter, r *http.Request) {
	cs, err := a.svc.AdminListCategories(r.Context(), middleware.CallerFromCtx(r.Context()))
	if err != nil {
		writeError(w, r, err)
		return
	}
	ok(w, "Categories retrieved.", map[string]any{"categories": a.present.categories(cs)})
}

// CategoryCreate adds a category.
func (a *Admin) CategoryCreate(w http.ResponseWriter, r *http.Request) {
	var in blog.CategoryInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	c, err := a.svc.CreateCategory(r.Context(), middleware.CallerFromCtx(r.Context()), in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	created(w, "Category created.", a.present.category(c))
}

// CategoryUpdate replaces a category's fields.
func (a *Admin) CategoryUpdate(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	var in blog.CategoryInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	c, err := a.svc.UpdateCategory(r.Context(), middleware.CallerFromCtx(r.Context()), id, in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	ok(w, "Category updated.", a.present.category(c))
}

// CategoryDelete removes a category that owns no posts.
func (a *Admin) CategoryDelete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := a.svc.DeleteCategory(r.Context(), middleware.CallerFromCtx(r.Context()), id); err != nil {
		writeError(w, r, err)
		return
	}
	ok(w, "Category deleted.", nil)
}
