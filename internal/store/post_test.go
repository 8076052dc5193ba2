// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package store

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"

	"inkwell/internal/blog"
	"inkwell/internal/models"
)

func TestPostStoreSlugConflict(t *testing.T) {
	db := testDB(t)
	s := NewPostStore(db)
	u := testUser(t, db)
	p := testPost(t, db, u, "First", true)

	_, err := s.Create(context.Background(), &models.Post{
		Title: "Second", Slug: p.Slug, Content: "x", AuthorID: u.ID,
	})
	if !errors.Is(err, blog.ErrConflict) {
		t.Errorf("duplicate slug: got %v, want conflict", err)
	}
}

func TestPostStoreMissingCategoryIsNotFound(t *testing.T) {
	db := testDB(t)
	u := testUser(t, db)
	missing := uuid.New()

	_, err := NewPostStore(db).Create(context.Background(), &models.Post{
		Title: "Orphan", Slug: "orphan-" + uniq(), Content: "x", AuthorID: u.ID, CategoryID: &missing,
	})
	if !errors.Is(err, blog.ErrNotFound) {
		t.Errorf("missing category: got %v, want not found", err)
	}
}

func TestPostStoreFindJoinsAuthorAndCategory(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	u := testUser(t, db)
	c := testCategory(t, db)

	created, err := NewPostStore(db).Create(ctx, &models.Post{
		Title: "Joined", Slug: "joined-" + uniq(), Content: "x", AuthorID: u.ID, CategoryID: &c.ID,
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	p, err := NewPostStore(db).FindBySlug(ctx, created.Slug)
	if err != nil || p == nil {
		t.Fatalf("FindBySlug = %v, %v", p, err)
	}
	if p.Author == nil || p.Author.ID != u.ID {
		t.Errorf("Author = %+v", p.Author)
	}
	if p.Category == nil || p.Category.ID != c.ID || p.Category.PostCount != 1 {
		t.Errorf("Category = %+v", p.Category)
	}
}

func TestPostStoreListFilters(t *testing.T) {
	db := testDB(t)
	s := NewPostStore(db)
	ctx := context.Background()
	u := testUser(t, db)

	testPost(t, db, u, "Alpha 100% pure", true)
	testPost(t, db, u, "Beta under_score", true)
	testPost(t, db, u, "Gamma draft", false)
	newest := testPost(t, db, u, "Delta", true)

	posts, total, err := s.List(ctx, blog.PostQuery{PublishedOnly: true, AuthorID: &u.ID, Limit: 2})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if total != 3 || len(posts) != 2 || posts[0].ID != newest.ID {
		t.Errorf("total=%d len=%d first=%q, want 3/2/Delta", total, len(posts), posts[0].Title)
	}

	tests := []struct {
		term string
		want int
	}{
		{"ALPHA", 1},
		{"100%", 1},
		{"%", 1},
		{"_", 1},
		{"draft", 0},
		{"content of", 3},
	}
	for _, tt := range tests {
		_, n, err := s.List(ctx, blog.PostQuery{PublishedOnly: true, AuthorID: &u.ID, Search: tt.term})
		if err != nil {
			t.Fatalf("List(%q): %v", tt.term, err)
		}
		if n != tt.want {
			t.Errorf("search %q matched %d, want %d", tt.term, n, tt.want)
		}
	}

	page, total, err := s.List(ctx, blog.PostQuery{AuthorID: &u.ID, Offset: 100, Limit: 10})
	if err != nil {
		t.Fatalf("List past end: %v", err)
	}
	if len(page) != 0 || total != 4 {
		t.Errorf("past end: len=%d total=%d, want 0/4", len(page), total)
	}
}

func TestPostStoreTogglesAndViews(t *testing.T) {
	db := testDB(t)
	s := NewPostStore(db)
	ctx := context.Background()
	u := testUser(t, db)
	p := testPost(t, db, u, "Toggle", false)

	if n, err := s.IncrementViews(ctx, p.ID); err != nil || n != 0 {
		t.Errorf("draft IncrementViews = %d, %v; want 0", n, err)
	}

	on, err := s.TogglePublished(ctx, p.ID)
	if err != nil {
		t.Fatalf("TogglePublished: %v", err)
	}
	if !on.IsPublished || on.PublishedAt == nil {
		t.Fatalf("after publish: %+v", on)
	}
	first := *on.PublishedAt

	off, _ := s.TogglePublished(ctx, p.ID)
	again, _ := s.TogglePublished(ctx, p.ID)
	if off.IsPublished || !again.IsPublished || !again.PublishedAt.Equal(first) {
		t.Errorf("published_at moved: first=%v again=%v", first, again.PublishedAt)
	}

	feat, err := s.ToggleFeatured(ctx, p.ID)
	if err != nil || !feat.IsFeatured {
		t.Errorf("ToggleFeatured = %v, %v", feat, err)
	}

	for want := 1; want <= 2; want++ {
		n, err := s.IncrementViews(ctx, p.ID)
		if err != nil || n != want {
			t.Errorf("IncrementViews = %d, %v; want %d", n, err, want)
		}
	}
}

func TestInTxRollsBack(t *testing.T) {
	db := testDB(t)
	u := testUser(t, db)
	st := New(db)
	sl := "tx-" + uniq()
	boom := errors.New("boom")

	err := st.InTx(context.Background(), func(r blog.Repositories) error {
		if _, err := r.Posts().Create(context.Background(), &models.Post{
			Title: "Tx", Slug: sl, Content: "x", AuthorID: u.ID,
		}); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("InTx = %v, want boom", err)
	}
	if p, _ := st.Posts().FindBySlug(context.Background(), sl); p != nil {
		t.Error("post survived rollback")
	}
}
