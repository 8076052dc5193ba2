package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"inkwell/internal/blog"
	"inkwell/internal/middleware"
	"inkwell/internal/models"
)

// Categories groups the public category handlers.
type Categories struct {
	svc     *blog.Service
	present *Presenter
}

// NewCategories creates a new Categories handler group.
func NewCategories(svc *blog.Service, present *Presenter) *Categories {
	return &Categories{svc: svc, present: present}
}

// List returns the active categories by name.
func (h *Categories) List(w http.ResponseWriter, r *http.Request) {
	cs, err := h.svc.ListCategories(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	ok(w, "Categories retrieved.", map[string]any{"categories": h.present.categories(cs)})
}

type categoryPosts struct {
	Category   categoryView   `json:"category"`
	Posts      []postView     `json:"posts"`
	Pagination paginationView `json:"pagination"`
}

// Get returns an active category with a page of its published posts.
func (h *Categories) Get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	c, p, err := h.svc.ListByCategory(r.Context(), id, pageRequest(r))
	h.posts(w, r, c, p, err)
}

// PostsBySlug is Get keyed by the category slug.
func (h *Categories) PostsBySlug(w http.ResponseWriter, r *http.Request) {
	c, p, err := h.svc.ListByCategorySlug(r.Context(), chi.URLParam(r, "slug"), pageRequest(r))
	h.posts(w, r, c, p, err)
}

func (h *Categories) posts(w http.ResponseWriter, r *http.Request, c *models.Category, p blog.Page[models.Post], err error) {
	if err != nil {
		writeError(w, r, err)
		return
	}
	ok(w, "Category posts retrieved.", categoryPosts{
		Category:   h.present.category(c),
		Posts:      h.present.posts(p.Items, middleware.CallerFromCtx(r.Context())),
		Pagination: pagination(p),
	})
}
