package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"inkwell/internal/blog"
	"inkwell/internal/middleware"
)

// Users groups the user directory handlers.
type Users struct {
	svc     *blog.Service
	present *Presenter
}

// NewUsers creates a new Users handler group.
func NewUsers(svc *blog.Service, present *Presenter) *Users {
	return &Users{svc: svc, present: present}
}

type usersPage struct {
	Users      []userView     `json:"users"`
	Pagination paginationView `json:"pagination"`
}

// List returns the user directory, newest first.
func (h *Users) List(w http.ResponseWriter, r *http.Request) {
	p, err := h.svc.ListUsers(r.Context(), pageRequest(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	viewer := middleware.CallerFromCtx(r.Context())
	ok(w, "Users retrieved.", usersPage{Users: h.present.users(p.Items, viewer), Pagination: pagination(p)})
}

// Get returns one user.
func (h *Users) Get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	u, err := h.svc.GetUser(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	ok(w, "User retrieved.", h.present.user(u, middleware.CallerFromCtx(r.Context())))
}

// Create adds an account on behalf of an admin.
func (h *Users) Create(w http.ResponseWriter, r *http.Request) {
	var in blog.CreateUserInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	caller := middleware.CallerFromCtx(r.Context())
	u, err := h.svc.CreateUser(r.Context(), caller, in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	created(w, "User created.", h.present.user(u, caller))
}

type authorPosts struct {
	Author     userView       `json:"author"`
	Posts      []postView     `json:"posts"`
	Pagination paginationView `json:"pagination"`
}

// AuthorPosts returns a user's published posts.
func (h *Users) AuthorPosts(w http.ResponseWriter, r *http.Request) {
	u, p, err := h.svc.ListByAuthor(r.Context(), chi.URLParam(r, "username"), pageRequest(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	viewer := middleware.CallerFromCtx(r.Context())
	ok(w, "Author posts retrieved.", authorPosts{
		Author:     h.present.user(u, viewer),
		Posts:      h.present.posts(p.Items, viewer),
		Pagination: pagination(p),
	})
}
