// Package blogtest provides an in-memory blog.Store for tests. It
// enforces the same unique and foreign-key rules as the PostgreSQL
// schema and rolls back failed transactions.
package blogtest

import (
	"cmp"
	"context"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"inkwell/internal/blog"
	"inkwell/internal/models"
)

// Store is an in-memory blog.Store. Transactions are serialized and
// restored from a snapshot when the callback fails.
type Store struct {
	txMu sync.Mutex
	mu   sync.Mutex
	d    data
}

type data struct {
	users      map[uuid.UUID]models.User
	categories map[uuid.UUID]models.Category
	posts      map[uuid.UUID]models.Post
	tick       int
}

var epoch = time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

// New returns an empty Store.
func New() *Store {
	return &Store{d: data{
		users:      map[uuid.UUID]models.User{},
		categories: map[uuid.UUID]models.Category{},
		posts:      map[uuid.UUID]models.Post{},
	}}
}

var _ blog.Store = (*Store)(nil)

func (s *Store) Users() blog.UserRepository         { return userRepo{s} }
func (s *Store) Categories() blog.CategoryRepository { return categoryRepo{s} }
func (s *Store) Posts() blog.PostRepository          { return postRepo{s} }

// InTx runs fn and discards every change it made if it returns an error.
func (s *Store) InTx(ctx context.Context, fn func(blog.Repositories) error) error {
	s.txMu.Lock()
	defer s.txMu.Unlock()

	s.mu.Lock()
	snap := s.d.clone()
	s.mu.Unlock()

	if err := fn(s); err != nil {
		s.mu.Lock()
		s.d = snap
		s.mu.Unlock()
		return err
	}
	return nil
}

func (d data) clone() data {
	c := d
	c.users = make(map[uuid.UUID]models.User, len(d.users))
	for k, v := range d.users {
		c.users[k] = v
	}
	c.categories = make(map[uuid.UUID]models.Category, len(d.categories))
	for k, v := range d.categories {
		c.categories[k] = v
	}
	c.posts = make(map[uuid.UUID]models.Post, len(d.posts))
	for k, v := range d.posts {
		c.posts[k] = v
	}
	return c
}

// now returns a strictly increasing timestamp so that creation order is
// also time order.
func (s *Store) now() time.Time {
	s.d.tick++
	return epoch.Add(time.Duration(s.d.tick) * time.Second)
}

func newestFirst(aAt, bAt time.Time, aID, bID uuid.UUID) int {
	if c := bAt.Compare(aAt); c != 0 {
		return c
	}
	return strings.Compare(bID.String(), aID.String())
}

// --- users ---

type userRepo struct{ s *Store }

func (r userRepo) uniqueLocked(u *models.User) error {
	for _, other := range r.s.d.users {
		if other.ID == u.ID {
			continue
		}
		if other.Username == u.Username {
			return blog.Conflictf("username %q is already taken", u.Username)
		}
		if other.Email == u.Email {
			return blog.Conflictf("email %q is already registered", u.Email)
		}
	}
	return nil
}

func (r userRepo) Create(_ context.Context, u *models.User) (*models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c := *u
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	if err := r.uniqueLocked(&c); err != nil {
		return nil, err
	}
	c.CreatedAt = r.s.now()
	c.UpdatedAt = c.CreatedAt
	r.s.d.users[c.ID] = c
	return &c, nil
}

func (r userRepo) Update(_ context.Context, u *models.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	old, ok := r.s.d.users[u.ID]
	if !ok {
		return blog.NotFoundf("user not found")
	}
	if err := r.uniqueLocked(u); err != nil {
		return err
	}
	old.Username = u.Username
	old.Email = u.Email
	old.PasswordHash = u.PasswordHash
	old.FirstName = u.FirstName
	old.LastName = u.LastName
	old.Bio = u.Bio
	old.UpdatedAt = r.s.now()
	r.s.d.users[old.ID] = old
	u.UpdatedAt = old.UpdatedAt
	return nil
}

func (r userRepo) find(match func(models.User) bool) *models.User {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, u := range r.s.d.users {
		if match(u) {
			return &u
		}
	}
	return nil
}

func (r userRepo) FindByID(_ context.Context, id uuid.UUID) (*models.User, error) {
	return r.find(func(u models.User) bool { return u.ID == id }), nil
}

func (r userRepo) FindByUsername(_ context.Context, username string) (*models.User, error) {
	return r.find(func(u models.User) bool { return u.Username == username }), nil
}

func (r userRepo) FindByEmail(_ context.Context, email string) (*models.User, error) {
	return r.find(func(u models.User) bool { return strings.EqualFold(u.Email, email) }), nil
}

func (r userRepo) sorted() []models.User {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	all := make([]models.User, 0, len(r.s.d.users))
	for _, u := range r.s.d.users {
		all = append(all, u)
	}
	slices.SortFunc(all, func(a, b models.User) int {
		return newestFirst(a.CreatedAt, b.CreatedAt, a.ID, b.ID)
	})
	return all
}

func (r userRepo) List(_ context.Context, offset, limit int) ([]models.User, int, error) {
	all := r.sorted()
	return window(all, offset, limit), len(all), nil
}

func (r userRepo) Recent(_ context.Context, limit int) ([]models.User, error) {
	return window(r.sorted(), 0, limit), nil
}

func (r userRepo) Count(_ context.Context) (int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return len(r.s.d.users), nil
}

func (r userRepo) modify(id uuid.UUID, fn func(*models.User)) *models.User {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u, ok := r.s.d.users[id]
	if !ok {
		return nil
	}
	fn(&u)
	u.UpdatedAt = r.s.now()
	r.s.d.users[id] = u
	return &u
}

func (r userRepo) ToggleActive(_ context.Context, id uuid.UUID) (*models.User, error) {
	return r.modify(id, func(u *models.User) { u.IsActive = !u.IsActive }), nil
}

func (r userRepo) ToggleAdmin(_ context.Context, id uuid.UUID) (*models.User, error) {
	return r.modify(id, func(u *models.User) { u.IsAdmin = !u.IsAdmin }), nil
}

func (r userRepo) SetLastLogin(_ context.Context, id uuid.UUID, at time.Time) error {
	r.modify(id, func(u *models.User) { u.LastLogin = &at })
	return nil
}

func (r userRepo) SetTOTPSecret(_ context.Context, id uuid.UUID, secret string) error {
	r.modify(id, func(u *models.User) { u.TOTPSecret = &secret })
	return nil
}

func (r userRepo) EnableTOTP(_ context.Context, id uuid.UUID) error {
	r.modify(id, func(u *models.User) { u.TOTPEnabled = true })
	return nil
}

func (r userRepo) ResetTOTP(_ context.Context, id uuid.UUID) error {
	r.modify(id, func(u *models.User) {
		u.TOTPSecret = nil
		u.TOTPEnabled = false
	})
	return nil
}

// --- categories ---

type categoryRepo struct{ s *Store }

func (r categoryRepo) uniqueLocked(c *models.Category) error {
	for _, other := range r.s.d.categories {
		if other.ID == c.ID {
			continue
		}
		if other.Name == c.Name {
			return blog.Conflictf("category %q already exists", c.Name)
		}
		if other.Slug == c.Slug {
			return blog.Conflictf("category slug %q is already used", c.Slug)
		}
	}
	return nil
}

func (r categoryRepo) countLocked(id uuid.UUID) int {
	n := 0
	for _, p := range r.s.d.posts {
		if p.CategoryID != nil && *p.CategoryID == id {
			n++
		}
	}
	return n
}

func (r categoryRepo) Create(_ context.Context, c *models.Category) (*models.Category, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	n := *c
	if n.ID == uuid.Nil {
		n.ID = uuid.New()
	}
	if err := r.uniqueLocked(&n); err != nil {
		return nil, err
	}
	n.CreatedAt = r.s.now()
	n.UpdatedAt = n.CreatedAt
	n.PostCount = 0
	r.s.d.categories[n.ID] = n
	return &n, nil
}

func (r categoryRepo) Update(_ context.Context, c *models.Category) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	old, ok := r.s.d.categories[c.ID]
	if !ok {
		return blog.NotFoundf("category not found")
	}
	if err := r.uniqueLocked(c); err != nil {
		return err
	}
	n := *c
	n.CreatedAt = old.CreatedAt
	n.UpdatedAt = r.s.now()
	r.s.d.categories[n.ID] = n
	c.UpdatedAt = n.UpdatedAt
	return nil
}

func (r categoryRepo) Delete(_ context.Context, id uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.countLocked(id) > 0 {
		return blog.PreconditionFailedf("category still has posts")
	}
	delete(r.s.d.categories, id)
	return nil
}

func (r categoryRepo) find(match func(models.Category) bool) *models.Category {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, c := range r.s.d.categories {
		if match(c) {
			c.PostCount = r.countLocked(c.ID)
			return &c
		}
	}
	return nil
}

func (r categoryRepo) FindByID(_ context.Context, id uuid.UUID) (*models.Category, error) {
	return r.find(func(c models.Category) bool { return c.ID == id }), nil
}

func (r categoryRepo) FindBySlug(_ context.Context, sl string) (*models.Category, error) {
	return r.find(func(c models.Category) bool { return c.Slug == sl }), nil
}

func (r categoryRepo) FindByName(_ context.Context, name string) (*models.Category, error) {
	return r.find(func(c models.Category) bool { return c.Name == name }), nil
}

func (r categoryRepo) List(_ context.Context, activeOnly bool) ([]models.Category, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := []models.Category{}
	for _, c := range r.s.d.categories {
		if activeOnly && !c.IsActive {
			continue
		}
		c.PostCount = r.countLocked(c.ID)
		out = append(out, c)
	}
	slices.SortFunc(out, func(a, b models.Category) int { return cmp.Compare(a.Name, b.Name) })
	return out, nil
}

func (r categoryRepo) Count(_ context.Context) (int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return len(r.s.d.categories), nil
}

func (r categoryRepo) CountPosts(_ context.Context, id uuid.UUID) (int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return r.countLocked(id), nil
}

// --- posts ---

type postRepo struct{ s *Store }

func (r postRepo) checkLocked(p *models.Post) error {
	for _, other := range r.s.d.posts {
		if other.ID != p.ID && other.Slug == p.Slug {
			return blog.Conflictf("a post with slug %q already exists", p.Slug)
		}
	}
	if _, ok := r.s.d.users[p.AuthorID]; !ok {
		return blog.NotFoundf("author not found")
	}
	if p.CategoryID != nil {
		if _, ok := r.s.d.categories[*p.CategoryID]; !ok {
			return blog.NotFoundf("category not found")
		}
	}
	return nil
}

// joinLocked fills the author and category of p.
func (r postRepo) joinLocked(p models.Post) models.Post {
	if u, ok := r.s.d.users[p.AuthorID]; ok {
		p.Author = &u
	}
	p.Category = nil
	if p.CategoryID != nil {
		if c, ok := r.s.d.categories[*p.CategoryID]; ok {
			c.PostCount = categoryRepo(r).countLocked(c.ID)
			p.Category = &c
		}
	}
	return p
}

func (r postRepo) Create(_ context.Context, p *models.Post) (*models.Post, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	n := *p
	if n.ID == uuid.Nil {
		n.ID = uuid.New()
	}
	if err := r.checkLocked(&n); err != nil {
		return nil, err
	}
	n.CreatedAt = r.s.now()
	n.UpdatedAt = n.CreatedAt
	n.Author, n.Category = nil, nil
	r.s.d.posts[n.ID] = n
	n = r.joinLocked(n)
	return &n, nil
}

func (r postRepo) Update(_ context.Context, p *models.Post) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	old, ok := r.s.d.posts[p.ID]
	if !ok {
		return blog.NotFoundf("post not found")
	}
	if err := r.checkLocked(p); err != nil {
		return err
	}
	old.Title = p.Title
	old.Slug = p.Slug
	old.Content = p.Content
	old.Excerpt = p.Excerpt
	old.CategoryID = p.CategoryID
	old.UpdatedAt = r.s.now()
	r.s.d.posts[old.ID] = old
	p.UpdatedAt = old.UpdatedAt
	return nil
}

func (r postRepo) Delete(_ context.Context, id uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	delete(r.s.d.posts, id)
	return nil
}

func (r postRepo) find(match func(models.Post) bool) *models.Post {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, p := range r.s.d.posts {
		if match(p) {
			p = r.joinLocked(p)
			return &p
		}
	}
	return nil
}

func (r postRepo) FindByID(_ context.Context, id uuid.UUID) (*models.Post, error) {
	return r.find(func(p models.Post) bool { return p.ID == id }), nil
}

func (r postRepo) FindBySlug(_ context.Context, sl string) (*models.Post, error) {
	return r.find(func(p models.Post) bool { return p.Slug == sl }), nil
}

func matches(p models.Post, q blog.PostQuery) bool {
	switch {
	case q.PublishedOnly && !p.IsPublished:
		return false
	case q.FeaturedOnly && !p.IsFeatured:
		return false
	case q.CategoryID != nil && (p.CategoryID == nil || *p.CategoryID != *q.CategoryID):
		return false
	case q.AuthorID != nil && p.AuthorID != *q.AuthorID:
		return false
	case q.ExcludeID != nil && p.ID == *q.ExcludeID:
		return false
	}
	if q.Search != "" {
		term := strings.ToLower(q.Search)
		return strings.Contains(strings.ToLower(p.Title), term) ||
			strings.Contains(strings.ToLower(p.Content), term)
	}
	return true
}

func (r postRepo) List(_ context.Context, q blog.PostQuery) ([]models.Post, int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var all []models.Post
	for _, p := range r.s.d.posts {
		if matches(p, q) {
			all = append(all, r.joinLocked(p))
		}
	}
	slices.SortFunc(all, func(a, b models.Post) int {
		return newestFirst(a.CreatedAt, b.CreatedAt, a.ID, b.ID)
	})
	return window(all, q.Offset, q.Limit), len(all), nil
}

func (r postRepo) Count(_ context.Context, publishedOnly bool) (int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	n := 0
	for _, p := range r.s.d.posts {
		if !publishedOnly || p.IsPublished {
			n++
		}
	}
	return n, nil
}

func (r postRepo) modify(id uuid.UUID, fn func(*models.Post)) *models.Post {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p, ok := r.s.d.posts[id]
	if !ok {
		return nil
	}
	fn(&p)
	r.s.d.posts[id] = p
	p = r.joinLocked(p)
	return &p
}

func (r postRepo) TogglePublished(_ context.Context, id uuid.UUID) (*models.Post, error) {
	return r.modify(id, func(p *models.Post) {
		p.IsPublished = !p.IsPublished
		if p.IsPublished && p.PublishedAt == nil {
			at := r.s.now()
			p.PublishedAt = &at
		}
		p.UpdatedAt = r.s.now()
	}), nil
}

func (r postRepo) ToggleFeatured(_ context.Context, id uuid.UUID) (*models.Post, error) {
	return r.modify(id, func(p *models.Post) {
		p.IsFeatured = !p.IsFeatured
		p.UpdatedAt = r.s.now()
	}), nil
}

func (r postRepo) IncrementViews(_ context.Context, id uuid.UUID) (int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p, ok := r.s.d.posts[id]
	if !ok || !p.IsPublished {
		return 0, nil
	}
	p.ViewCount++
	r.s.d.posts[id] = p
	return p.ViewCount, nil
}

func (r postRepo) SetFeaturedImage(_ context.Context, id uuid.UUID, url *string) error {
	r.modify(id, func(p *models.Post) {
		p.FeaturedImage = url
		p.UpdatedAt = r.s.now()
	})
	return nil
}

func window[T any](all []T, offset, limit int) []T {
	if offset < 0 || offset >= len(all) {
		return []T{}
	}
	end := len(all)
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}
	return slices.Clone(all[offset:end])
}
