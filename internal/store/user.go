package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"inkwell/internal/models"
)

// UserStore handles all user-related database operations.
type UserStore struct {
	q querier
}

// NewUserStore creates a UserStore on the given pool or transaction.
func NewUserStore(db *sql.DB) *UserStore {
	return &UserStore{q: db}
}

const userColumns = `id, username, email, password_hash, first_name, last_name, bio,
	is_active, is_admin, totp_secret, totp_enabled, created_at, updated_at, last_login`

func scanUser(row scanner) (*models.User, error) {
	var u models.User
	err := row.Scan(
		&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.FirstName, &u.LastName, &u.Bio,
		&u.IsActive, &u.IsAdmin, &u.TOTPSecret, &u.TOTPEnabled, &u.CreatedAt, &u.UpdatedAt, &u.LastLogin,
	)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (s *UserStore) findOne(ctx context.Context, op, where string, arg any) (*models.User, error) {
	row := s.q.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE `+where, arg)
	u, err := scanUser(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return u, nil
}

// FindByID retrieves a user by UUID. Returns nil if not found.
func (s *UserStore) FindByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	return s.findOne(ctx, "find user by id", "id = $1", id)
}

// FindByUsername matches the username exactly, case included.
func (s *UserStore) FindByUsername(ctx context.Context, username string) (*models.User, error) {
	return s.findOne(ctx, "find user by username", "username = $1", username)
}

// FindByEmail retrieves a user by email address. Returns nil if not found.
func (s *UserStore) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.findOne(ctx, "find user by email", "email = $1", email)
}

func (s *UserStore) query(ctx context.Context, op, query string, args ...any) ([]models.User, error) {
	rows, err := s.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	users := []models.User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, *u)
	}
	return users, rows.Err()
}

// List returns one page of users, newest first, and the total count.
func (s *UserStore) List(ctx context.Context, offset, limit int) ([]models.User, int, error) {
	total, err := s.Count(ctx)
	if err != nil {
		return nil, 0, err
	}
	users, err := s.query(ctx, "list users", `
		SELECT `+userColumns+` FROM users
		ORDER BY created_at DESC, id DESC
		LIMIT $1 OFFSET $2
	`, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	return users, total, nil
}

// Recent returns the most recently registered users.
func (s *UserStore) Recent(ctx context.Context, limit int) ([]models.User, error) {
	return s.query(ctx, "recent users", `
		SELECT `+userColumns+` FROM users
		ORDER BY created_at DESC, id DESC
		LIMIT $1
	`, limit)
}

// Count returns the number of users.
func (s *UserStore) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.q.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count users: %w", err)
	}
	return n, nil
}

// Create inserts a user. PasswordHash must already be a bcrypt hash.
func (s *UserStore) Create(ctx context.Context, u *models.User) (*models.User, error) {
	row := s.q.QueryRowContext(ctx, `
		INSERT INTO users (username, email, password_hash, first_name, last_name, bio, is_active, is_admin)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING `+userColumns,
		u.Username, u.Email, u.PasswordHash, u.FirstName, u.LastName, u.Bio, u.IsActive, u.IsAdmin,
	)
	created, err := scanUser(row)
	if err != nil {
		return nil, mapError("create user", err)
	}
	return created, nil
}

// Update saves the editable profile fields. Flags change only through
// the dedicated toggles.
func (s *UserStore) Update(ctx context.Context, u *models.User) error {
	err := s.q.QueryRowContext(ctx, `
		UPDATE users SET
			username = $1, email = $2, password_hash = $3, first_name = $4,
			last_name = $5, bio = $6, updated_at = NOW()
		WHERE id = $7
		RETURNING updated_at
	`, u.Username, u.Email, u.PasswordHash, u.FirstName, u.LastName, u.Bio, u.ID).Scan(&u.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil
	}
	if err != nil {
		return mapError("update user", err)
	}
	return nil
}

func (s *UserStore) toggle(ctx context.Context, op, column string, id uuid.UUID) (*models.User, error) {
	row := s.q.QueryRowContext(ctx, `
		UPDATE users SET `+column+` = NOT `+column+`, updated_at = NOW()
		WHERE id = $1
		RETURNING `+userColumns, id)
	u, err := scanUser(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return u, nil
}

// ToggleActive flips is_active in a single statement.
func (s *UserStore) ToggleActive(ctx context.Context, id uuid.UUID) (*models.User, error) {
	return s.toggle(ctx, "toggle user active", "is_active", id)
}

// ToggleAdmin flips is_admin in a single statement.
func (s *UserStore) ToggleAdmin(ctx context.Context, id uuid.UUID) (*models.User, error) {
	return s.toggle(ctx, "toggle user admin", "is_admin", id)
}

func (s *UserStore) exec(ctx context.Context, op, query string, args ...any) error {
	if _, err := s.q.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// SetLastLogin records a successful sign-in.
func (s *UserStore) SetLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error {
	return s.exec(ctx, "set last login", `UPDATE users SET last_login = $1 WHERE id = $2`, at, id)
}

// SetTOTPSecret saves the TOTP secret for a user (during 2FA setup).
func (s *UserStore) SetTOTPSecret(ctx context.Context, id uuid.UUID, secret string) error {
	return s.exec(ctx, "set totp secret", `
		UPDATE users SET totp_secret = $1, updated_at = NOW() WHERE id = $2
	`, secret, id)
}

// EnableTOTP marks 2FA as active for a user (after successful code verification).
func (s *UserStore) EnableTOTP(ctx context.Context, id uuid.UUID) error {
	return s.exec(ctx, "enable totp", `
		UPDATE users SET totp_enabled = TRUE, updated_at = NOW() WHERE id = $1
	`, id)
}

// ResetTOTP clears the TOTP secret and disables 2FA for a user.
func (s *UserStore) ResetTOTP(ctx context.Context, id uuid.UUID) error {
	return s.exec(ctx, "reset totp", `
		UPDATE users SET totp_secret = NULL, totp_enabled = FALSE, updated_at = NOW() WHERE id = $1
	`, id)
}
