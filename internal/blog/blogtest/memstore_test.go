package blogtest

import (
	"context"
	"errors"
	"testing"

	"inkwell/internal/blog"
	"inkwell/internal/models"
)

func TestInTxRollsBackOnError(t *testing.T) {
	s := New()
	ctx := context.Background()
	boom := errors.New("boom")

	err := s.InTx(ctx, func(r blog.Repositories) error {
		if _, err := r.Users().Create(ctx, &models.User{Username: "ghost", Email: "g@example.com"}); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("InTx = %v, want boom", err)
	}
	if u, _ := s.Users().FindByUsername(ctx, "ghost"); u != nil {
		t.Error("user survived a rolled back transaction")
	}
}

func TestUniqueAndForeignKeys(t *testing.T) {
	s := New()
	ctx := context.Background()

	u, err := s.Users().Create(ctx, &models.User{Username: "a", Email: "a@example.com"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := s.Users().Create(ctx, &models.User{Username: "a", Email: "other@example.com"}); !errors.Is(err, blog.ErrConflict) {
		t.Errorf("duplicate username: %v, want conflict", err)
	}

	c, _ := s.Categories().Create(ctx, &models.Category{Name: "C", Slug: "c"})
	p, err := s.Posts().Create(ctx, &models.Post{Title: "T", Slug: "t", AuthorID: u.ID, CategoryID: &c.ID})
	if err != nil {
		t.Fatalf("Create post: %v", err)
	}
	if p.Category == nil || p.Category.PostCount != 1 {
		t.Errorf("joined category = %+v, want post_count 1", p.Category)
	}
	if _, err := s.Posts().Create(ctx, &models.Post{Title: "T2", Slug: "t", AuthorID: u.ID}); !errors.Is(err, blog.ErrConflict) {
		t.Errorf("duplicate slug: %v, want conflict", err)
	}
	if err := s.Categories().Delete(ctx, c.ID); !errors.Is(err, blog.ErrPreconditionFailed) {
		t.Errorf("Delete referenced category: %v, want precondition failed", err)
	}
}

func TestIncrementViewsOnlyPublished(t *testing.T) {
	s := New()
	ctx := context.Background()
	u, _ := s.Users().Create(ctx, &models.User{Username: "a", Email: "a@example.com"})
	p, _ := s.Posts().Create(ctx, &models.Post{Title: "T", Slug: "t", AuthorID: u.ID})

	if n, _ := s.Posts().IncrementViews(ctx, p.ID); n != 0 {
		t.Errorf("draft view count = %d, want 0", n)
	}
	s.Posts().TogglePublished(ctx, p.ID)
	if n, _ := s.Posts().IncrementViews(ctx, p.ID); n != 1 {
		t.Errorf("published view count = %d, want 1", n)
	}
}
