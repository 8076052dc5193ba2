// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"inkwell/internal/blog"
	"inkwell/internal/models"
)

// CategoryStore manages categories in the database.
type CategoryStore struct {
	q querier
}

// NewCategoryStore returns a new CategoryStore.
func NewCategoryStore(db *sql.DB) *CategoryStore {
	return &CategoryStore{q: db}
}

// categorySelect reads categories with their post counts.
const categorySelect = `
	SELECT c.id, c.name, c.slug, c.description, c.color, c.is_active,
	       c.created_at, c.updated_at,
	       (SELECT COUNT(*) FROM posts p WHERE p.category_id = c.id) AS post_count
	FROM categories c`

const categoryColumns = `id, name, slug, description, color, is_active, created_at, updated_at`

// scanCategory scans a row from categorySelect into a Category struct.
func scanCategory(row scanner) (*models.Category, error) {
	var c models.Category
	err := row.Scan(
		&c.ID, &c.Name, &c.Slug, &c.Description, &c.Color, &c.IsActive,
		&c.CreatedAt, &c.UpdatedAt, &c.PostCount,
	)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (s *CategoryStore) findOne(ctx context.Context, op, where string, arg any) (*models.Category, error) {
	c, err := scanCategory(s.q.QueryRowContext(ctx, categorySelect+` WHERE `+where, arg))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return c, nil
}

// FindByID retrieves a category by ID. Returns nil if not found.
func (s *CategoryStore) FindByID(ctx context.Context, id uuid.UUID) (*models.Category, error) {
	return s.findOne(ctx, "find category by id", "c.id = $1", id)
}

// FindBySlug retrieves a category by slug. Returns nil if not found.
func (s *CategoryStore) FindBySlug(ctx context.Context, slug string) (*models.Category, error) {
	return s.findOne(ctx, "find category by slug", "c.slug = $1", slug)
}

// FindByName retrieves a category by exact name. Returns nil if not found.
func (s *CategoryStore) FindByName(ctx context.Context, name string) (*models.Category, error) {
	return s.findOne(ctx, "find category by name", "c.name = $1", name)
}

// List returns categories ordered by name, with post counts.
func (s *CategoryStore) List(ctx context.Context, activeOnly bool) ([]models.Category, error) {
	rows, err := s.q.QueryContext(ctx, categorySelect+`
		WHERE c.is_active OR NOT $1
		ORDER BY c.name
	`, activeOnly)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	items := []models.Category{}
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		items = append(items, *c)
	}
	return items, rows.Err()
}

// Count returns the number of categories.
func (s *CategoryStore) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.q.QueryRowContext(ctx, `SELECT COUNT(*) FROM categories`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count categories: %w", err)
	}
	return n, nil
}

// CountPosts locks the category row, then counts its posts. Inserting a
// post takes a key-share lock on the category, so inside a transaction
// no post can be attached until the caller commits.
func (s *CategoryStore) CountPosts(ctx context.Context, id uuid.UUID) (int, error) {
	var locked uuid.UUID
	err := s.q.QueryRowContext(ctx, `SELECT id FROM categories WHERE id = $1 FOR UPDATE`, id).Scan(&locked)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("lock category: %w", err)
	}

	var n int
	if err := s.q.QueryRowContext(ctx, `SELECT COUNT(*) FROM posts WHERE category_id = $1`, id).Scan(&n); err != nil {
		return 0, fmt.Errorf("count category posts: %w", err)
	}
	return n, nil
}

// Create inserts a new category and returns it.
func (s *CategoryStore) Create(ctx context.Context, c *models.Category) (*models.Category, error) {
	var out models.Category
	err := s.q.QueryRowContext(ctx, `
		INSERT INTO categories (name, slug, description, color, is_active)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING `+categoryColumns,
		c.Name, c.Slug, c.Description, c.Color, c.IsActive,
	).Scan(
		&out.ID, &out.Name, &out.Slug, &out.Description, &out.Color, &out.IsActive,
		&out.CreatedAt, &out.UpdatedAt,
	)
	if err != nil {
		return nil, mapError("create category", err)
	}
	return &out, nil
}

// Update modifies an existing category.
func (s *CategoryStore) Update(ctx context.Context, c *models.Category) error {
	err := s.q.QueryRowContext(ctx, `
		UPDATE categories SET
			name = $1, slug = $2, description = $3, color = $4,
			is_active = $5, updated_at = NOW()
		WHERE id = $6
		RETURNING updated_at
	`, c.Name, c.Slug, c.Description, c.Color, c.IsActive, c.ID).Scan(&c.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil
	}
	if err != nil {
		return mapError("update category", err)
	}
	return nil
}

// Delete removes a category by ID. posts.category_id is ON DELETE
// RESTRICT, so a category that still has posts is refused.
func (s *CategoryStore) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := s.q.ExecContext(ctx, `DELETE FROM categories WHERE id = $1`, id)
	if isForeignKeyViolation(err) {
		return blog.PreconditionFailedf("category still has posts")
	}
	if err != nil {
		return fmt.Errorf("delete category: %w", err)
	}
	return nil
}
