// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"inkwell/internal/blog"
	"inkwell/internal/metrics"
	"inkwell/internal/middleware"
	"inkwell/internal/models"
)

// defaultMaxUpload caps image uploads when no limit is configured.
const defaultMaxUpload = 5 << 20

// Posts groups the post handlers, public and authenticated.
type Posts struct {
	svc       *blog.Service
	images    ImageStore
	maxUpload int64
	present   *Presenter
}

// NewPosts creates a new Posts handler group. images may be nil when
// object storage is not configured; uploads then fail with 503.
func NewPosts(svc *blog.Service, images ImageStore, maxUpload int64, present *Presenter) *Posts {
	if maxUpload <= 0 {
		maxUpload = defaultMaxUpload
	}
	return &Posts{svc: svc, images: images, maxUpload: maxUpload, present: present}
}

type postsPage struct {
	Posts      []postView     `json:"posts"`
	Pagination paginationView `json:"pagination"`
}

func (h *Posts) page(p blog.Page[models.Post], viewer blog.Caller) postsPage {
	return postsPage{Posts: h.present.posts(p.Items, viewer), Pagination: pagination(p)}
}

// List returns posts filtered by category_id and author_id. Passing
// drafts=true includes drafts for admins and for authors listing
// their own posts.
func (h *Posts) List(w http.ResponseWriter, r *http.Request) {
	categoryID, err := queryID(r, "category_id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	authorID, err := queryID(r, "author_id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	drafts, _ := strconv.ParseBool(r.URL.Query().Get("drafts"))

	caller := middleware.CallerFromCtx(r.Context())
	p, err := h.svc.ListPosts(r.Context(), caller, blog.PostFilter{
		CategoryID:    categoryID,
		AuthorID:      authorID,
		PublishedOnly: !drafts,
	}, pageRequest(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	ok(w, "Posts retrieved.", h.page(p, caller))
}

// Featured returns the newest featured posts, up to ?limit.
func (h *Posts) Featured(w http.ResponseWriter, r *http.Request) {
	posts, err := h.svc.ListFeaturedPosts(r.Context(), queryInt(r, "limit"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	ok(w, "Featured posts retrieved.", map[string]any{
		"posts": h.present.posts(posts, middleware.CallerFromCtx(r.Context())),
	})
}

// Search matches ?q against published titles and bodies.
func (h *Posts) Search(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	p, err := h.svc.SearchPosts(r.Context(), q, pageRequest(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	ok(w, "Search completed.", map[string]any{
		"query":      q,
		"posts":      h.present.posts(p.Items, middleware.CallerFromCtx(r.Context())),
		"pagination": pagination(p),
	})
}

// Get returns one post by ID and counts a view.
func (h *Posts) Get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	post, err := h.svc.GetPost(r.Context(), middleware.CallerFromCtx(r.Context()), id)
	h.detail(w, r, post, err)
}

// GetBySlug returns one post by slug and counts a view.
func (h *Posts) GetBySlug(w http.ResponseWriter, r *http.Request) {
	post, err := h.svc.GetPostBySlug(r.Context(), middleware.CallerFromCtx(r.Context()), chi.URLParam(r, "slug"))
	h.detail(w, r, post, err)
}

func (h *Posts) detail(w http.ResponseWriter, r *http.Request, post *models.Post, err error) {
	if err != nil {
		writeError(w, r, err)
		return
	}
	if post.IsVisible() {
		metrics.PostViewsTotal.Inc()
	}

	related, err := h.svc.RelatedPosts(r.Context(), post, blog.RelatedLimit)
	if err != nil {
		writeError(w, r, err)
		return
	}

	viewer := middleware.CallerFromCtx(r.Context())
	v := h.present.postDetail(r.Context(), post, viewer)
	v.Related = h.present.posts(related, viewer)
	ok(w, "Post retrieved.", v)
}

// Create adds a post authored by the caller.
func (h *Posts) Create(w http.ResponseWriter, r *http.Request) {
	var in blog.CreatePostInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	caller := middleware.CallerFromCtx(r.Context())
	post, err := h.svc.CreatePost(r.Context(), caller, in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	metrics.PostsCreatedTotal.WithLabelValues(strconv.FormatBool(post.IsPublished)).Inc()
	created(w, "Post created.", h.present.postDetail(r.Context(), post, caller))
}

// Update replaces a post's editable fields.
func (h *Posts) Update(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	var in blog.UpdatePostInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	caller := middleware.CallerFromCtx(r.Context())
	post, err := h.svc.UpdatePost(r.Context(), caller, id, in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	ok(w, "Post updated.", h.present.postDetail(r.Context(), post, caller))
}

// Delete removes a post and its stored featured image.
func (h *Posts) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	post, err := h.svc.DeletePost(r.Context(), middleware.CallerFromCtx(r.Context()), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	h.removeImage(r.Context(), post.FeaturedImage)
	ok(w, "Post deleted.", nil)
}

// TogglePublished flips the post between draft and published.
func (h *Posts) TogglePublished(w http.ResponseWriter, r *http.Request) {
	h.toggle(w, r, h.svc.TogglePublished, func(p *models.Post) string {
		if p.IsPublished {
			return "Post published."
		}
		return "Post unpublished."
	})
}

// ToggleFeatured flips the post's featured flag.
func (h *Posts) ToggleFeatured(w http.ResponseWriter, r *http.Request) {
	h.toggle(w, r, h.svc.ToggleFeatured, func(p *models.Post) string {
		if p.IsFeatured {
			return "Post featured."
		}
		return "Post unfeatured."
	})
}

type postToggle func(ctx context.Context, caller blog.Caller, id uuid.UUID) (*models.Post, error)

func (h *Posts) toggle(w http.ResponseWriter, r *http.Request, flip postToggle, message func(*models.Post) string) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	caller := middleware.CallerFromCtx(r.Context())
	post, err := flip(r.Context(), caller, id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	ok(w, message(post), h.present.post(post, caller))
}
