package handlers

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"inkwell/internal/blog"
	"inkwell/internal/cache"
	"inkwell/internal/markdown"
	"inkwell/internal/models"
)

// HTMLCache stores rendered post bodies. *cache.HTMLCache satisfies it.
type HTMLCache interface {
	Get(ctx context.Context, key string) (string, bool)
	Set(ctx context.Context, key, html string)
}

// Presenter turns models into API views.
type Presenter struct {
	html HTMLCache
}

// NewPresenter returns a Presenter. html may be nil, in which case every
// post body is rendered on demand.
func NewPresenter(html HTMLCache) *Presenter {
	return &Presenter{html: html}
}

type paginationView struct {
	Page    int  `json:"page"`
	Pages   int  `json:"pages"`
	PerPage int  `json:"per_page"`
	Total   int  `json:"total"`
	HasNext bool `json:"has_next"`
	HasPrev bool `json:"has_prev"`
}

func pagination[T any](p blog.Page[T]) paginationView {
	return paginationView{
		Page:    p.Page,
		Pages:   p.Pages(),
		PerPage: p.PerPage,
		Total:   p.Total,
		HasNext: p.HasNext(),
		HasPrev: p.HasPrev(),
	}
}

type userView struct {
	ID          uuid.UUID `json:"id"`
	Username    string    `json:"username"`
	Email       string    `json:"email,omitempty"`
	FirstName   string    `json:"first_name"`
	LastName    string    `json:"last_name"`
	FullName    string    `json:"full_name"`
	Bio         *string   `json:"bio"`
	IsActive    bool      `json:"is_active"`
	IsAdmin     bool      `json:"is_admin"`
	TOTPEnabled *bool     `json:"totp_enabled,omitempty"`
	CreatedAt   string    `json:"created_at"`
	LastLogin   *string   `json:"last_login"`
}

// user presents u to viewer. Email and 2FA state are private to the
// account owner and admins.
func (p *Presenter) user(u *models.User, viewer blog.Caller) userView {
	v := userView{
		ID:        u.ID,
		Username:  u.Username,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		FullName:  u.FullName(),
		Bio:       u.Bio,
		IsActive:  u.IsActive,
		IsAdmin:   u.IsAdmin,
		CreatedAt: timestamp(u.CreatedAt),
		LastLogin: optionalTimestamp(u.LastLogin),
	}
	if viewer.IsAdmin || viewer.UserID == u.ID {
		v.Email = u.Email
		v.TOTPEnabled = &u.TOTPEnabled
	}
	return v
}

func (p *Presenter) users(us []models.User, viewer blog.Caller) []userView {
	out := make([]userView, len(us))
	for i := range us {
		out[i] = p.user(&us[i], viewer)
	}
	return out
}

type categoryView struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Slug        string    `json:"slug"`
	Description *string   `json:"description"`
	Color       *string   `json:"color"`
	IsActive    bool      `json:"is_active"`
	PostCount   int       `json:"post_count"`
	CreatedAt   string    `json:"created_at"`
	UpdatedAt   string    `json:"updated_at"`
}

func (p *Presenter) category(c *models.Category) categoryView {
	return categoryView{
		ID:          c.ID,
		Name:        c.Name,
		Slug:        c.Slug,
		Description: c.Description,
		Color:       c.Color,
		IsActive:    c.IsActive,
		PostCount:   c.PostCount,
		CreatedAt:   timestamp(c.CreatedAt),
		UpdatedAt:   timestamp(c.UpdatedAt),
	}
}

func (p *Presenter) categories(cs []models.Category) []categoryView {
	out := make([]categoryView, len(cs))
	for i := range cs {
		out[i] = p.category(&cs[i])
	}
	return out
}

type postView struct {
	ID            uuid.UUID     `json:"id"`
	Title         string        `json:"title"`
	Slug          string        `json:"slug"`
	Content       string        `json:"content"`
	ContentHTML   string        `json:"content_html,omitempty"`
	Excerpt       *string       `json:"excerpt"`
	FeaturedImage *string       `json:"featured_image"`
	IsPublished   bool          `json:"is_published"`
	IsFeatured    bool          `json:"is_featured"`
	ViewCount     int           `json:"view_count"`
	WordCount     int           `json:"word_count"`
	ReadingTime   int           `json:"reading_time"`
	Author        *userView     `json:"author"`
	Category      *categoryView `json:"category"`
	CreatedAt     string        `json:"created_at"`
	UpdatedAt     string        `json:"updated_at"`
	PublishedAt   *string       `json:"published_at"`
	Related       []postView    `json:"related,omitempty"`
}

// post presents a post with its author and category expanded. The
// author goes through user, so its private fields follow viewer.
func (p *Presenter) post(post *models.Post, viewer blog.Caller) postView {
	v := postView{
		ID:            post.ID,
		Title:         post.Title,
		Slug:          post.Slug,
		Content:       post.Content,
		Excerpt:       post.Excerpt,
		FeaturedImage: post.FeaturedImage,
		IsPublished:   post.IsPublished,
		IsFeatured:    post.IsFeatured,
		ViewCount:     post.ViewCount,
		WordCount:     markdown.WordCount(post.Content),
		ReadingTime:   markdown.ReadingTime(post.Content),
		CreatedAt:     timestamp(post.CreatedAt),
		UpdatedAt:     timestamp(post.UpdatedAt),
		PublishedAt:   optionalTimestamp(post.PublishedAt),
	}
	if a := post.Author; a != nil {
		author := p.user(a, viewer)
		v.Author = &author
	}
	if c := post.Category; c != nil {
		category := p.category(c)
		v.Category = &category
	}
	return v
}

// postDetail is post plus the rendered body.
func (p *Presenter) postDetail(ctx context.Context, post *models.Post, viewer blog.Caller) postView {
	v := p.post(post, viewer)
	v.ContentHTML = p.render(ctx, post)
	return v
}

func (p *Presenter) posts(ps []models.Post, viewer blog.Caller) []postView {
	out := make([]postView, len(ps))
	for i := range ps {
		out[i] = p.post(&ps[i], viewer)
	}
	return out
}

// render converts the post body to HTML, going through the cache when
// one is configured. Rendering failures are logged and yield "".
func (p *Presenter) render(ctx context.Context, post *models.Post) string {
	key := cache.PostKey(post.ID, post.UpdatedAt)
	if p.html != nil {
		if html, ok := p.html.Get(ctx, key); ok {
			return html
		}
	}

	html, err := markdown.ToHTML(post.Content)
	if err != nil {
		slog.Warn("render markdown", "post_id", post.ID, "error", err)
		return ""
	}
	if p.html != nil {
		p.html.Set(ctx, key, html)
	}
	return html
}

func timestamp(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

func optionalTimestamp(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := timestamp(*t)
	return &s
}
