// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"inkwell/internal/blog"
	"inkwell/internal/models"
)

// PostStore handles post queries. Reads join the author and category so
// callers get fully expanded posts.
type PostStore struct {
	q querier
}

// NewPostStore creates a new PostStore.
func NewPostStore(db *sql.DB) *PostStore {
	return &PostStore{q: db}
}

const postSelect = `
	SELECT p.id, p.title, p.slug, p.content, p.excerpt, p.featured_image,
	       p.is_published, p.is_featured, p.view_count, p.author_id, p.category_id,
	       p.created_at, p.updated_at, p.published_at,
	       u.id, u.username, u.email, u.password_hash, u.first_name, u.last_name, u.bio,
	       u.is_active, u.is_admin, u.totp_secret, u.totp_enabled, u.created_at, u.updated_at, u.last_login,
	       c.id, c.name, c.slug, c.description, c.color, c.is_active, c.created_at, c.updated_at,
	       (SELECT COUNT(*) FROM posts cp WHERE cp.category_id = c.id)
	FROM posts p
	JOIN users u ON u.id = p.author_id
	LEFT JOIN categories c ON c.id = p.category_id`

// scanPost scans a row from postSelect.
func scanPost(row scanner) (*models.Post, error) {
	var (
		p models.Post
		u models.User

		catID        uuid.NullUUID
		catName      sql.NullString
		catSlug      sql.NullString
		catDesc      *string
		catColor     *string
		catActive    sql.NullBool
		catCreated   sql.NullTime
		catUpdated   sql.NullTime
		catPostCount int
	)
	err := row.Scan(
		&p.ID, &p.Title, &p.Slug, &p.Content, &p.Excerpt, &p.FeaturedImage,
		&p.IsPublished, &p.IsFeatured, &p.ViewCount, &p.AuthorID, &p.CategoryID,
		&p.CreatedAt, &p.UpdatedAt, &p.PublishedAt,
		&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.FirstName, &u.LastName, &u.Bio,
		&u.IsActive, &u.IsAdmin, &u.TOTPSecret, &u.TOTPEnabled, &u.CreatedAt, &u.UpdatedAt, &u.LastLogin,
		&catID, &catName, &catSlug, &catDesc, &catColor, &catActive, &catCreated, &catUpdated,
		&catPostCount,
	)
	if err != nil {
		return nil, err
	}

	p.Author = &u
	if catID.Valid {
		p.Category = &models.Category{
			ID:          catID.UUID,
			Name:        catName.String,
			Slug:        catSlug.String,
			Description: catDesc,
			Color:       catColor,
			IsActive:    catActive.Bool,
			CreatedAt:   catCreated.Time,
			UpdatedAt:   catUpdated.Time,
			PostCount:   catPostCount,
		}
	}
	return &p, nil
}

func (s *PostStore) findOne(ctx context.Context, op, where string, arg any) (*models.Post, error) {
	p, err := scanPost(s.q.QueryRowContext(ctx, postSelect+` WHERE `+where, arg))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return p, nil
}

// FindByID retrieves a post by ID. Returns nil if not found.
func (s *PostStore) FindByID(ctx context.Context, id uuid.UUID) (*models.Post, error) {
	return s.findOne(ctx, "find post by id", "p.id = $1", id)
}

// FindBySlug retrieves a post by slug. Returns nil if not found.
func (s *PostStore) FindBySlug(ctx context.Context, slug string) (*models.Post, error) {
	return s.findOne(ctx, "find post by slug", "p.slug = $1", slug)
}

// postFilter turns a PostQuery into a WHERE clause and its arguments.
func postFilter(q blog.PostQuery) (string, []any) {
	var (
		conds []string
		args  []any
	)
	add := func(cond string, arg any) {
		args = append(args, arg)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}

	if q.PublishedOnly {
		conds = append(conds, "p.is_published")
	}
	if q.FeaturedOnly {
		conds = append(conds, "p.is_featured")
	}
	if q.CategoryID != nil {
		add("p.category_id = $%d", *q.CategoryID)
	}
	if q.AuthorID != nil {
		add("p.author_id = $%d", *q.AuthorID)
	}
	if q.ExcludeID != nil {
		add("p.id <> $%d", *q.ExcludeID)
	}
	if q.Search != "" {
		add(`(p.title ILIKE $%[1]d ESCAPE '\' OR p.content ILIKE $%[1]d ESCAPE '\')`,
			"%"+escapeLike(q.Search)+"%")
	}

	if len(conds) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

// List returns one window of matching posts, newest first, plus the
// number of matches.
func (s *PostStore) List(ctx context.Context, q blog.PostQuery) ([]models.Post, int, error) {
	where, args := postFilter(q)

	var total int
	if err := s.q.QueryRowContext(ctx, `SELECT COUNT(*) FROM posts p`+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count posts: %w", err)
	}

	query := postSelect + where + ` ORDER BY p.created_at DESC, p.id DESC`
	if q.Limit > 0 {
		args = append(args, q.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}
	if q.Offset > 0 {
		args = append(args, q.Offset)
		query += fmt.Sprintf(" OFFSET $%d", len(args))
	}

	rows, err := s.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list posts: %w", err)
	}
	defer rows.Close()

	posts := []models.Post{}
	for rows.Next() {
		p, err := scanPost(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan post: %w", err)
		}
		posts = append(posts, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("list posts: %w", err)
	}
	return posts, total, nil
}

// Count returns the number of posts, optionally only published ones.
func (s *PostStore) Count(ctx context.Context, publishedOnly bool) (int, error) {
	var n int
	err := s.q.QueryRowContext(ctx, `SELECT COUNT(*) FROM posts WHERE is_published OR NOT $1`, publishedOnly).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count posts: %w", err)
	}
	return n, nil
}

// Create inserts a new post and returns it without joins.
func (s *PostStore) Create(ctx context.Context, p *models.Post) (*models.Post, error) {
	out := *p
	err := s.q.QueryRowContext(ctx, `
		INSERT INTO posts (title, slug, content, excerpt, featured_image, is_published,
		                   is_featured, author_id, category_id, published_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id, view_count, created_at, updated_at
	`, p.Title, p.Slug, p.Content, p.Excerpt, p.FeaturedImage, p.IsPublished,
		p.IsFeatured, p.AuthorID, p.CategoryID, p.PublishedAt,
	).Scan(&out.ID, &out.ViewCount, &out.CreatedAt, &out.UpdatedAt)
	if err != nil {
		return nil, mapError("create post", err)
	}
	out.Author, out.Category = nil, nil
	return &out, nil
}

// Update saves the editable fields of a post. The publication flags and
// the view count are left alone.
func (s *PostStore) Update(ctx context.Context, p *models.Post) error {
	err := s.q.QueryRowContext(ctx, `
		UPDATE posts SET
			title = $1, slug = $2, content = $3, excerpt = $4,
			category_id = $5, updated_at = NOW()
		WHERE id = $6
		RETURNING updated_at
	`, p.Title, p.Slug, p.Content, p.Excerpt, p.CategoryID, p.ID).Scan(&p.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil
	}
	if err != nil {
		return mapError("update post", err)
	}
	return nil
}

// Delete removes a post by ID.
func (s *PostStore) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := s.q.ExecContext(ctx, `DELETE FROM posts WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete post: %w", err)
	}
	return nil
}

// flip runs an UPDATE ... RETURNING id and reloads the post.
func (s *PostStore) flip(ctx context.Context, op, query string, id uuid.UUID) (*models.Post, error) {
	var got uuid.UUID
	err := s.q.QueryRowContext(ctx, query, id).Scan(&got)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return s.FindByID(ctx, got)
}

// TogglePublished flips is_published. SET expressions see the old row,
// so published_at is stamped only when a never-published post goes live.
func (s *PostStore) TogglePublished(ctx context.Context, id uuid.UUID) (*models.Post, error) {
	return s.flip(ctx, "toggle post published", `
		UPDATE posts SET
			is_published = NOT is_published,
			published_at = CASE
				WHEN NOT is_published AND published_at IS NULL THEN NOW()
				ELSE published_at
			END,
			updated_at = NOW()
		WHERE id = $1
		RETURNING id
	`, id)
}

// ToggleFeatured flips is_featured.
func (s *PostStore) ToggleFeatured(ctx context.Context, id uuid.UUID) (*models.Post, error) {
	return s.flip(ctx, "toggle post featured", `
		UPDATE posts SET is_featured = NOT is_featured, updated_at = NOW()
		WHERE id = $1
		RETURNING id
	`, id)
}

// IncrementViews counts one view of a published post in a single
// statement and returns the new count.
func (s *PostStore) IncrementViews(ctx context.Context, id uuid.UUID) (int, error) {
	var n int
	err := s.q.QueryRowContext(ctx, `
		UPDATE posts SET view_count = view_count + 1
		WHERE id = $1 AND is_published
		RETURNING view_count
	`, id).Scan(&n)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("increment post views: %w", err)
	}
	return n, nil
}

// SetFeaturedImage stores the URL of the post's featured image.
func (s *PostStore) SetFeaturedImage(ctx context.Context, id uuid.UUID, url *string) error {
	_, err := s.q.ExecContext(ctx, `
		UPDATE posts SET featured_image = $1, updated_at = NOW() WHERE id = $2
	`, url, id)
	if err != nil {
		return fmt.Errorf("set featured image: %w", err)
	}
	return nil
}
