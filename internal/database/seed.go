package database

import (
	"database/sql"
	"fmt"
	"log/slog"

	"golang.org/x/crypto/bcrypt"
)

// SeedAdmin describes the account created on an empty database.
type SeedAdmin struct {
	Username string
	Email    string
	Password string
}

// Seed populates an empty database with an admin account so the admin
// API is reachable on first start. It does nothing once any user exists.
func Seed(db *sql.DB, admin SeedAdmin) error {
	var count int
	if err := db.QueryRow("SELECT COUNT(*) FROM users").Scan(&count); err != nil {
		return fmt.Errorf("seed check users: %w", err)
	}

	if count > 0 {
		slog.Info("database already seeded, skipping")
		return nil
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(admin.Password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("seed bcrypt: %w", err)
	}

	_, err = db.Exec(`
		INSERT INTO users (username, email, password_hash, first_name, is_admin)
		VALUES ($1, $2, $3, $4, TRUE)
	`, admin.Username, admin.Email, string(hash), "Admin")
	if err != nil {
		return fmt.Errorf("seed insert admin: %w", err)
	}

	slog.Info("database seeded with default admin user",
		"username", admin.Username,
		"email", admin.Email,
	)
	return nil
}
