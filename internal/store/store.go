// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package store implements blog.Store on PostgreSQL. Each store struct
// wraps a querier, which is either the connection pool or an open
// transaction, and exposes typed query methods.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"

	"inkwell/internal/blog"
)

// querier is the subset of *sql.DB and *sql.Tx the stores use.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// scanner is satisfied by *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

// DB is the PostgreSQL implementation of blog.Store.
type DB struct {
	db *sql.DB
}

var _ blog.Store = (*DB)(nil)

// New wraps an open connection pool.
func New(db *sql.DB) *DB {
	return &DB{db: db}
}

func (d *DB) Users() blog.UserRepository         { return &UserStore{q: d.db} }
func (d *DB) Categories() blog.CategoryRepository { return &CategoryStore{q: d.db} }
func (d *DB) Posts() blog.PostRepository          { return &PostStore{q: d.db} }

// InTx runs fn inside a transaction. The transaction commits when fn
// returns nil and rolls back otherwise.
func (d *DB) InTx(ctx context.Context, fn func(blog.Repositories) error) error {
	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	if err := fn(txRepos{q: tx}); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return mapError("commit tx", err)
	}
	return nil
}

type txRepos struct {
	q querier
}

func (r txRepos) Users() blog.UserRepository         { return &UserStore{q: r.q} }
func (r txRepos) Categories() blog.CategoryRepository { return &CategoryStore{q: r.q} }
func (r txRepos) Posts() blog.PostRepository          { return &PostStore{q: r.q} }

// PostgreSQL error codes the stores translate.
const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
)

// constraintMessages names the unique and foreign keys from the
// migrations in user-facing terms.
var constraintMessages = map[string]string{
	"users_username_key":     "username is already taken",
	"users_email_key":        "email is already registered",
	"categories_name_key":    "category name already exists",
	"categories_slug_key":    "category slug is already used",
	"posts_slug_key":         "a post with this slug already exists",
	"posts_author_id_fkey":   "author not found",
	"posts_category_id_fkey": "category not found",
}

// mapError converts constraint violations into blog errors and wraps
// everything else with op.
func mapError(op string, err error) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return fmt.Errorf("%s: %w", op, err)
	}

	msg, known := constraintMessages[pgErr.ConstraintName]
	switch pgErr.Code {
	case pgUniqueViolation:
		if !known {
			msg = "duplicate value violates " + pgErr.ConstraintName
		}
		return blog.Conflictf("%s", msg)
	case pgForeignKeyViolation:
		if !known {
			msg = "referenced row not found"
		}
		return blog.NotFoundf("%s", msg)
	}
	return fmt.Errorf("%s: %w", op, err)
}

// isForeignKeyViolation reports whether err is a foreign key violation.
// On delete it means the row still has children.
func isForeignKeyViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgForeignKeyViolation
}

// escapeLike escapes the LIKE wildcards in s so it matches literally
// with ESCAPE '\'.
func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}
