package blog

import (
	"context"

	"github.com/google/uuid"

	"inkwell/internal/models"
	"inkwell/internal/slug"
)

func titleSlug(title string) (string, error) {
	sl := slug.Generate(title)
	if sl == "" {
		return "", Invalid("title", "title must contain at least one letter or digit")
	}
	return sl, nil
}

// CreatePost stores a new post written by the caller.
func (s *Service) CreatePost(ctx context.Context, caller Caller, in CreatePostInput) (*models.Post, error) {
	if err := caller.requireAuth(); err != nil {
		return nil, err
	}
	in.normalize()
	if err := check(&in); err != nil {
		return nil, err
	}
	sl, err := titleSlug(in.Title)
	if err != nil {
		return nil, err
	}

	var created *models.Post
	err = s.store.InTx(ctx, func(r Repositories) error {
		author, err := r.Users().FindByID(ctx, caller.UserID)
		if err != nil {
			return err
		}
		if author == nil {
			return NotFoundf("author not found")
		}
		if err := checkCategory(ctx, r.Categories(), in.CategoryID); err != nil {
			return err
		}
		if err := ensureUniquePostSlug(ctx, r.Posts(), sl, uuid.Nil); err != nil {
			return err
		}

		p := &models.Post{
			Title:       in.Title,
			Slug:        sl,
			Content:     in.Content,
			Excerpt:     in.Excerpt,
			IsPublished: in.IsPublished,
			IsFeatured:  in.IsFeatured,
			AuthorID:    author.ID,
			CategoryID:  in.CategoryID,
		}
		if p.IsPublished {
			now := s.now().UTC()
			p.PublishedAt = &now
		}
		p, err = r.Posts().Create(ctx, p)
		if err != nil {
			return err
		}
		created, err = r.Posts().FindByID(ctx, p.ID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// UpdatePost replaces a post's title, content, excerpt and category. The
// slug follows the title. Publication flags only change through the
// toggles.
func (s *Service) UpdatePost(ctx context.Context, caller Caller, id uuid.UUID, in UpdatePostInput) (*models.Post, error) {
	if err := caller.requireAuth(); err != nil {
		return nil, err
	}
	in.normalize()
	if err := check(&in); err != nil {
		return nil, err
	}
	sl, err := titleSlug(in.Title)
	if err != nil {
		return nil, err
	}

	var updated *models.Post
	err = s.store.InTx(ctx, func(r Repositories) error {
		p, err := ownedPost(ctx, r.Posts(), caller, id, "edit")
		if err != nil {
			return err
		}
		if !sameID(in.CategoryID, p.CategoryID) {
			if err := checkCategory(ctx, r.Categories(), in.CategoryID); err != nil {
				return err
			}
		}
		if sl != p.Slug {
			if err := ensureUniquePostSlug(ctx, r.Posts(), sl, p.ID); err != nil {
				return err
			}
		}

		p.Title = in.Title
		p.Slug = sl
		p.Content = in.Content
		p.Excerpt = in.Excerpt
		p.CategoryID = in.CategoryID
		if err := r.Posts().Update(ctx, p); err != nil {
			return err
		}
		updated, err = r.Posts().FindByID(ctx, p.ID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// DeletePost removes a post owned by the caller, or any post for admins.
// It returns the deleted row so the caller can release its resources.
func (s *Service) DeletePost(ctx context.Context, caller Caller, id uuid.UUID) (*models.Post, error) {
	if err := caller.requireAuth(); err != nil {
		return nil, err
	}
	var deleted *models.Post
	err := s.store.InTx(ctx, func(r Repositories) error {
		p, err := ownedPost(ctx, r.Posts(), caller, id, "delete")
		if err != nil {
			return err
		}
		deleted = p
		return r.Posts().Delete(ctx, id)
	})
	if err != nil {
		return nil, err
	}
	return deleted, nil
}

// SetFeaturedImage replaces the post's featured image URL. A nil url
// clears it. The previous URL is returned so its object can be removed.
func (s *Service) SetFeaturedImage(ctx context.Context, caller Caller, id uuid.UUID, url *string) (*models.Post, *string, error) {
	if err := caller.requireAuth(); err != nil {
		return nil, nil, err
	}

	var (
		updated  *models.Post
		previous *string
	)
	err := s.store.InTx(ctx, func(r Repositories) error {
		p, err := ownedPost(ctx, r.Posts(), caller, id, "edit")
		if err != nil {
			return err
		}
		previous = p.FeaturedImage
		if err := r.Posts().SetFeaturedImage(ctx, id, url); err != nil {
			return err
		}
		updated, err = r.Posts().FindByID(ctx, id)
		return err
	})
	if err != nil {
		return nil, nil, err
	}
	return updated, previous, nil
}

// CanModifyPost reports whether the caller may change the post's owner
// resources, such as uploads.
func (s *Service) CanModifyPost(ctx context.Context, caller Caller, id uuid.UUID) error {
	if err := caller.requireAuth(); err != nil {
		return err
	}
	_, err := ownedPost(ctx, s.store.Posts(), caller, id, "edit")
	return err
}

// GetPost returns a post for reading. Drafts are visible only to their
// author and to admins; anyone else gets NotFound. Reading a published
// post counts a view.
func (s *Service) GetPost(ctx context.Context, caller Caller, id uuid.UUID) (*models.Post, error) {
	p, err := s.store.Posts().FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.readPost(ctx, caller, p)
}

// GetPostBySlug is GetPost keyed by slug.
func (s *Service) GetPostBySlug(ctx context.Context, caller Caller, sl string) (*models.Post, error) {
	p, err := s.store.Posts().FindBySlug(ctx, sl)
	if err != nil {
		return nil, err
	}
	return s.readPost(ctx, caller, p)
}

func (s *Service) readPost(ctx context.Context, caller Caller, p *models.Post) (*models.Post, error) {
	if p == nil || (!p.IsVisible() && !caller.canModify(p.AuthorID)) {
		return nil, NotFoundf("post not found")
	}
	if p.IsVisible() {
		n, err := s.store.Posts().IncrementViews(ctx, p.ID)
		if err != nil {
			return nil, err
		}
		if n > 0 {
			p.ViewCount = n
		}
	}
	return p, nil
}

// ownedPost loads a post and checks the caller may act on it.
func ownedPost(ctx context.Context, posts PostRepository, caller Caller, id uuid.UUID, action string) (*models.Post, error) {
	p, err := posts.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, NotFoundf("post not found")
	}
	if !caller.canModify(p.AuthorID) {
		return nil, Forbiddenf("you can only %s your own posts", action)
	}
	return p, nil
}

func checkCategory(ctx context.Context, cats CategoryRepository, id *uuid.UUID) error {
	if id == nil {
		return nil
	}
	c, err := cats.FindByID(ctx, *id)
	if err != nil {
		return err
	}
	if c == nil || !c.IsActive {
		return Invalid("category_id", "category does not exist")
	}
	return nil
}

func ensureUniquePostSlug(ctx context.Context, posts PostRepository, sl string, self uuid.UUID) error {
	existing, err := posts.FindBySlug(ctx, sl)
	if err != nil {
		return err
	}
	if existing != nil && existing.ID != self {
		return Conflictf("a post with slug %q already exists", sl)
	}
	return nil
}

func sameID(a, b *uuid.UUID) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
