// store_test.go provides a shared test database helper for all store
// integration tests. Tests are skipped if PostgreSQL is not available.
package store

import (
	"context"
	"database/sql"
	"os"
	"strings"
	"testing"

	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"

	"inkwell/internal/database"
	"inkwell/internal/models"
)

// testDSN returns the PostgreSQL connection string for testing.
// Uses environment variables with defaults matching docker-compose.yml.
func testDSN() string {
	host := envOr("POSTGRES_HOST", "localhost")
	port := envOr("POSTGRES_PORT", "5432")
	user := envOr("POSTGRES_USER", "inkwell")
	pass := envOr("POSTGRES_PASSWORD", "changeme")
	name := envOr("POSTGRES_DB", "inkwell")
	return "postgres://" + user + ":" + pass + "@" + host + ":" + port + "/" + name + "?sslmode=disable"
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// testDB opens a connection to the test database and runs migrations.
// If the database is unavailable, the test is skipped. A cleanup
// function is registered to close the connection when the test finishes.
func testDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := sql.Open("pgx", testDSN())
	if err != nil {
		t.Skipf("skipping integration test: cannot open DB: %v", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		t.Skipf("skipping integration test: DB not reachable: %v", err)
	}

	if err := database.Migrate(db); err != nil {
		db.Close()
		t.Fatalf("failed to run migrations: %v", err)
	}

	t.Cleanup(func() { db.Close() })
	return db
}

// uniq returns a short random suffix so parallel runs do not collide.
func uniq() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:10]
}

// testUser inserts a user and removes it, with its posts, after the test.
func testUser(t *testing.T, db *sql.DB) *models.User {
	t.Helper()
	name := "u_" + uniq()
	u, err := NewUserStore(db).Create(context.Background(), &models.User{
		Username:     name,
		Email:        name + "@store-test.local",
		PasswordHash: "$2a$04$invalidinvalidinvalidinvalidinvalidinvalidinvalidinv",
		IsActive:     true,
	})
	if err != nil {
		t.Fatalf("create test user: %v", err)
	}
	t.Cleanup(func() {
		db.Exec("DELETE FROM posts WHERE author_id = $1", u.ID)
		db.Exec("DELETE FROM users WHERE id = $1", u.ID)
	})
	return u
}

// testCategory inserts a category and removes it after the test. Register
// it after testUser so that posts are gone before it is deleted.
func testCategory(t *testing.T, db *sql.DB) *models.Category {
	t.Helper()
	name := "Cat " + uniq()
	c, err := NewCategoryStore(db).Create(context.Background(), &models.Category{
		Name:     name,
		Slug:     "cat-" + strings.ToLower(name[4:]),
		IsActive: true,
	})
	if err != nil {
		t.Fatalf("create test category: %v", err)
	}
	t.Cleanup(func() {
		db.Exec("DELETE FROM posts WHERE category_id = $1", c.ID)
		db.Exec("DELETE FROM categories WHERE id = $1", c.ID)
	})
	return c
}

// testPost inserts a post by author.
func testPost(t *testing.T, db *sql.DB, author *models.User, title string, published bool) *models.Post {
	t.Helper()
	p, err := NewPostStore(db).Create(context.Background(), &models.Post{
		Title:       title,
		Slug:        "post-" + uniq(),
		Content:     "Content of " + title,
		IsPublished: published,
		AuthorID:    author.ID,
	})
	if err != nil {
		t.Fatalf("create test post: %v", err)
	}
	return p
}
