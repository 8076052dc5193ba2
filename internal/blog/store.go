package blog

import (
	"context"
	"time"

	"github.com/google/uuid"

	"inkwell/internal/models"
)

// Store is the persistence backend. Reads may go through it directly;
// every mutation runs inside InTx so that all of its writes commit or
// roll back together.
//
// Finder methods return (nil, nil) when nothing matches. Writes that hit
// a unique constraint return an error matching ErrConflict; writes that
// hit a foreign key return ErrPreconditionFailed (delete) or
// ErrNotFound (insert/update referencing a missing row).
type Store interface {
	Repositories
	InTx(ctx context.Context, fn func(Repositories) error) error
}

// Repositories groups the per-entity repositories of one unit of work.
type Repositories interface {
	Users() UserRepository
	Categories() CategoryRepository
	Posts() PostRepository
}

// UserRepository persists users.
type UserRepository interface {
	Create(ctx context.Context, u *models.User) (*models.User, error)
	Update(ctx context.Context, u *models.User) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	FindByUsername(ctx context.Context, username string) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	List(ctx context.Context, offset, limit int) ([]models.User, int, error)
	Recent(ctx context.Context, limit int) ([]models.User, error)
	Count(ctx context.Context) (int, error)
	// ToggleActive and ToggleAdmin flip the flag in place and return the
	// updated row, or (nil, nil) when the user does not exist.
	ToggleActive(ctx context.Context, id uuid.UUID) (*models.User, error)
	ToggleAdmin(ctx context.Context, id uuid.UUID) (*models.User, error)
	SetLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error
	SetTOTPSecret(ctx context.Context, id uuid.UUID, secret string) error
	EnableTOTP(ctx context.Context, id uuid.UUID) error
	ResetTOTP(ctx context.Context, id uuid.UUID) error
}

// CategoryRepository persists categories. Read methods fill PostCount.
type CategoryRepository interface {
	Create(ctx context.Context, c *models.Category) (*models.Category, error)
	Update(ctx context.Context, c *models.Category) error
	Delete(ctx context.Context, id uuid.UUID) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Category, error)
	FindBySlug(ctx context.Context, slug string) (*models.Category, error)
	FindByName(ctx context.Context, name string) (*models.Category, error)
	List(ctx context.Context, activeOnly bool) ([]models.Category, error)
	Count(ctx context.Context) (int, error)
	// CountPosts counts the posts assigned to the category. Inside a
	// transaction it also locks the category row so that no post can be
	// attached between the count and a following delete.
	CountPosts(ctx context.Context, id uuid.UUID) (int, error)
}

// PostQuery filters and orders a post listing. Results are always
// ordered newest first (created_at DESC, id DESC).
type PostQuery struct {
	PublishedOnly bool
	FeaturedOnly  bool
	CategoryID    *uuid.UUID
	AuthorID      *uuid.UUID
	// Search matches title or content, case-insensitively, as a
	// substring. Empty means no search filter.
	Search    string
	ExcludeID *uuid.UUID
	Offset    int
	Limit     int
}

// PostRepository persists posts. Read methods fill Author and Category.
type PostRepository interface {
	Create(ctx context.Context, p *models.Post) (*models.Post, error)
	Update(ctx context.Context, p *models.Post) error
	Delete(ctx context.Context, id uuid.UUID) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Post, error)
	FindBySlug(ctx context.Context, slug string) (*models.Post, error)
	// List returns one window of matching posts plus the total number of
	// matches ignoring Offset and Limit.
	List(ctx context.Context, q PostQuery) ([]models.Post, int, error)
	Count(ctx context.Context, publishedOnly bool) (int, error)
	// TogglePublished flips is_published in place, stamping published_at
	// on the first publication, and returns the updated row.
	TogglePublished(ctx context.Context, id uuid.UUID) (*models.Post, error)
	ToggleFeatured(ctx context.Context, id uuid.UUID) (*models.Post, error)
	// IncrementViews adds one to view_count of a published post and
	// returns the new count. It returns (0, nil) if the post is missing
	// or unpublished.
	IncrementViews(ctx context.Context, id uuid.UUID) (int, error)
	SetFeaturedImage(ctx context.Context, id uuid.UUID, url *string) error
}
