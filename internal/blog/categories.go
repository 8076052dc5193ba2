package blog

import (
	"context"

	"github.com/google/uuid"

	"inkwell/internal/models"
	"inkwell/internal/slug"
)

// CreateCategory adds an active category. Its slug is derived from the name.
func (s *Service) CreateCategory(ctx context.Context, caller Caller, in CategoryInput) (*models.Category, error) {
	if err := caller.requireAdmin(); err != nil {
		return nil, err
	}
	in.normalize()
	if err := check(&in); err != nil {
		return nil, err
	}
	sl := slug.Generate(in.Name)
	if sl == "" {
		return nil, Invalid("name", "name must contain at least one letter or digit")
	}

	var created *models.Category
	err := s.store.InTx(ctx, func(r Repositories) error {
		if err := ensureUniqueCategory(ctx, r.Categories(), in.Name, sl, uuid.Nil); err != nil {
			return err
		}
		c, err := r.Categories().Create(ctx, &models.Category{
			Name:        in.Name,
			Slug:        sl,
			Description: in.Description,
			Color:       in.Color,
			IsActive:    true,
		})
		created = c
		return err
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// UpdateCategory replaces a category's fields and regenerates its slug.
func (s *Service) UpdateCategory(ctx context.Context, caller Caller, id uuid.UUID, in CategoryInput) (*models.Category, error) {
	if err := caller.requireAdmin(); err != nil {
		return nil, err
	}
	in.normalize()
	if err := check(&in); err != nil {
		return nil, err
	}
	sl := slug.Generate(in.Name)
	if sl == "" {
		return nil, Invalid("name", "name must contain at least one letter or digit")
	}

	var updated *models.Category
	err := s.store.InTx(ctx, func(r Repositories) error {
		c, err := r.Categories().FindByID(ctx, id)
		if err != nil {
			return err
		}
		if c == nil {
			return NotFoundf("category not found")
		}
		if err := ensureUniqueCategory(ctx, r.Categories(), in.Name, sl, c.ID); err != nil {
			return err
		}

		c.Name = in.Name
		c.Slug = sl
		c.Description = in.Description
		c.Color = in.Color
		if in.IsActive != nil {
			c.IsActive = *in.IsActive
		}
		if err := r.Categories().Update(ctx, c); err != nil {
			return err
		}
		updated = c
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func ensureUniqueCategory(ctx context.Context, cats CategoryRepository, name, sl string, self uuid.UUID) error {
	existing, err := cats.FindByName(ctx, name)
	if err != nil {
		return err
	}
	if existing != nil && existing.ID != self {
		return Conflictf("category %q already exists", name)
	}
	existing, err = cats.FindBySlug(ctx, sl)
	if err != nil {
		return err
	}
	if existing != nil && existing.ID != self {
		return Conflictf("category slug %q is already used by %q", sl, existing.Name)
	}
	return nil
}

// DeleteCategory removes a category that has no posts.
func (s *Service) DeleteCategory(ctx context.Context, caller Caller, id uuid.UUID) error {
	if err := caller.requireAdmin(); err != nil {
		return err
	}
	return s.store.InTx(ctx, func(r Repositories) error {
		c, err := r.Categories().FindByID(ctx, id)
		if err != nil {
			return err
		}
		if c == nil {
			return NotFoundf("category not found")
		}
		n, err := r.Categories().CountPosts(ctx, id)
		if err != nil {
			return err
		}
		if n > 0 {
			return PreconditionFailedf("category %q still has %d post(s)", c.Name, n)
		}
		return r.Categories().Delete(ctx, id)
	})
}

// ListCategories returns the active categories ordered by name.
func (s *Service) ListCategories(ctx context.Context) ([]models.Category, error) {
	return s.store.Categories().List(ctx, true)
}

// AdminListCategories returns every category, including inactive ones.
func (s *Service) AdminListCategories(ctx context.Context, caller Caller) ([]models.Category, error) {
	if err := caller.requireAdmin(); err != nil {
		return nil, err
	}
	return s.store.Categories().List(ctx, false)
}

// GetCategory returns an active category by ID.
func (s *Service) GetCategory(ctx context.Context, id uuid.UUID) (*models.Category, error) {
	c, err := s.store.Categories().FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if c == nil || !c.IsActive {
		return nil, NotFoundf("category not found")
	}
	return c, nil
}

// GetCategoryBySlug returns an active category by slug.
func (s *Service) GetCategoryBySlug(ctx context.Context, sl string) (*models.Category, error) {
	c, err := s.store.Categories().FindBySlug(ctx, sl)
	if err != nil {
		return nil, err
	}
	if c == nil || !c.IsActive {
		return nil, NotFoundf("category not found")
	}
	return c, nil
}
