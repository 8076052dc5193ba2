// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package models

import (
	"time"

	"github.com/google/uuid"
)

// Post is a blog entry. IsPublished and IsFeatured are independent flags:
// a featured draft is allowed but stays invisible until published.
type Post struct {
	ID            uuid.UUID  `json:"id"`
	Title         string     `json:"title"`
	Slug          string     `json:"slug"`
	Content       string     `json:"content"`
	Excerpt       *string    `json:"excerpt"`
	FeaturedImage *string    `json:"featured_image"`
	IsPublished   bool       `json:"is_published"`
	IsFeatured    bool       `json:"is_featured"`
	ViewCount     int        `json:"view_count"`
	AuthorID      uuid.UUID  `json:"author_id"`
	CategoryID    *uuid.UUID `json:"category_id"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
	PublishedAt   *time.Time `json:"published_at"`

	// Joined rows populated by store read methods.
	Author   *User     `json:"author,omitempty"`
	Category *Category `json:"category,omitempty"`
}

// IsVisible reports whether the post can be shown to the public.
func (p *Post) IsVisible() bool {
	return p.IsPublished
}

// OwnedBy reports whether userID authored the post.
func (p *Post) OwnedBy(userID uuid.UUID) bool {
	return p.AuthorID == userID
}
