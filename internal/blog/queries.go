package blog

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"inkwell/internal/models"
)

// RelatedLimit is the default number of related posts.
const RelatedLimit = 3

// PostFilter narrows ListPosts.
type PostFilter struct {
	CategoryID *uuid.UUID
	AuthorID   *uuid.UUID
	// PublishedOnly set to false also returns drafts, but only to admins
	// and to authors listing their own posts. Other callers still get
	// published posts only.
	PublishedOnly bool
}

func (s *Service) listPosts(ctx context.Context, q PostQuery, req PageRequest) (Page[models.Post], error) {
	q.Offset = req.Offset()
	q.Limit = req.PerPage
	items, total, err := s.store.Posts().List(ctx, q)
	if err != nil {
		return Page[models.Post]{}, err
	}
	return newPage(items, req, total), nil
}

// ListPublishedPosts returns published posts, newest first.
func (s *Service) ListPublishedPosts(ctx context.Context, req PageRequest) (Page[models.Post], error) {
	return s.listPosts(ctx, PostQuery{PublishedOnly: true}, req.normalize(DefaultPerPage))
}

// ListFeaturedPosts returns up to limit published and featured posts,
// newest first. A non-positive limit uses DefaultFeaturedLimit.
func (s *Service) ListFeaturedPosts(ctx context.Context, limit int) ([]models.Post, error) {
	if limit < 1 {
		limit = DefaultFeaturedLimit
	}
	if limit > MaxFeaturedLimit {
		limit = MaxFeaturedLimit
	}
	items, _, err := s.store.Posts().List(ctx, PostQuery{
		PublishedOnly: true,
		FeaturedOnly:  true,
		Limit:         limit,
	})
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []models.Post{}
	}
	return items, nil
}

// SearchPosts matches term against the title or content of published
// posts, ignoring case. A blank term is rejected.
func (s *Service) SearchPosts(ctx context.Context, term string, req PageRequest) (Page[models.Post], error) {
	term = strings.TrimSpace(term)
	if term == "" {
		return Page[models.Post]{}, Invalid("q", "search term is required")
	}
	return s.listPosts(ctx, PostQuery{PublishedOnly: true, Search: term}, req.normalize(DefaultPerPage))
}

// ListByCategory returns the published posts of an active category.
func (s *Service) ListByCategory(ctx context.Context, categoryID uuid.UUID, req PageRequest) (*models.Category, Page[models.Post], error) {
	c, err := s.GetCategory(ctx, categoryID)
	if err != nil {
		return nil, Page[models.Post]{}, err
	}
	page, err := s.categoryPosts(ctx, c, req)
	return c, page, err
}

// ListByCategorySlug is ListByCategory keyed by the category slug.
func (s *Service) ListByCategorySlug(ctx context.Context, sl string, req PageRequest) (*models.Category, Page[models.Post], error) {
	c, err := s.GetCategoryBySlug(ctx, sl)
	if err != nil {
		return nil, Page[models.Post]{}, err
	}
	page, err := s.categoryPosts(ctx, c, req)
	return c, page, err
}

func (s *Service) categoryPosts(ctx context.Context, c *models.Category, req PageRequest) (Page[models.Post], error) {
	return s.listPosts(ctx, PostQuery{PublishedOnly: true, CategoryID: &c.ID}, req.normalize(DefaultPerPage))
}

// ListByAuthor returns the published posts of the named user.
func (s *Service) ListByAuthor(ctx context.Context, username string, req PageRequest) (*models.User, Page[models.Post], error) {
	u, err := s.store.Users().FindByUsername(ctx, username)
	if err != nil {
		return nil, Page[models.Post]{}, err
	}
	if u == nil {
		return nil, Page[models.Post]{}, NotFoundf("user not found")
	}
	page, err := s.listPosts(ctx, PostQuery{PublishedOnly: true, AuthorID: &u.ID}, req.normalize(DefaultPerPage))
	return u, page, err
}

// ListPosts is the general filtered listing used by the API.
func (s *Service) ListPosts(ctx context.Context, caller Caller, f PostFilter, req PageRequest) (Page[models.Post], error) {
	q := PostQuery{
		PublishedOnly: f.PublishedOnly || !caller.mayListDrafts(f.AuthorID),
		CategoryID:    f.CategoryID,
		AuthorID:      f.AuthorID,
	}
	return s.listPosts(ctx, q, req.normalize(DefaultPerPage))
}

// mayListDrafts reports whether the caller may see drafts in a listing
// filtered by authorID.
func (c Caller) mayListDrafts(authorID *uuid.UUID) bool {
	if c.IsAdmin && c.Authenticated() {
		return true
	}
	return authorID != nil && c.Authenticated() && *authorID == c.UserID
}

// RelatedPosts returns published posts from the same category as p,
// excluding p. Posts without a category have no related posts.
func (s *Service) RelatedPosts(ctx context.Context, p *models.Post, limit int) ([]models.Post, error) {
	if p.CategoryID == nil {
		return []models.Post{}, nil
	}
	if limit < 1 {
		limit = RelatedLimit
	}
	items, _, err := s.store.Posts().List(ctx, PostQuery{
		PublishedOnly: true,
		CategoryID:    p.CategoryID,
		ExcludeID:     &p.ID,
		Limit:         limit,
	})
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []models.Post{}
	}
	return items, nil
}

// ListAllPosts returns every post, drafts included, for the admin panel.
func (s *Service) ListAllPosts(ctx context.Context, caller Caller, req PageRequest) (Page[models.Post], error) {
	if err := caller.requireAdmin(); err != nil {
		return Page[models.Post]{}, err
	}
	return s.listPosts(ctx, PostQuery{}, req.normalize(AdminPerPage))
}
