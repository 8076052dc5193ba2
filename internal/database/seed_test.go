package database

import (
	"testing"
)

var testAdmin = SeedAdmin{Username: "admin", Email: "admin@inkwell.local", Password: "changeme-admin"}

func TestSeedIdempotent(t *testing.T) {
	db, err := Connect(testDSN())
	if err != nil {
		t.Skipf("skipping: DB not available: %v", err)
	}
	defer db.Close()

	if err := Migrate(db); err != nil {
		t.Fatalf("Migrate: %v", err)
	}

	// Seed only writes to an empty users table. Other packages may share
	// this database, so it is not cleared first.
	if err := Seed(db, testAdmin); err != nil {
		t.Fatalf("first Seed: %v", err)
	}
	if err := Seed(db, testAdmin); err != nil {
		t.Fatalf("second Seed: %v", err)
	}

	var admins int
	if err := db.QueryRow("SELECT COUNT(*) FROM users WHERE is_admin").Scan(&admins); err != nil {
		t.Fatalf("count admin users: %v", err)
	}
	if admins < 1 {
		t.Errorf("expected at least 1 admin user, got %d", admins)
	}

	var seeded int
	if err := db.QueryRow("SELECT COUNT(*) FROM users WHERE username = $1", testAdmin.Username).Scan(&seeded); err != nil {
		t.Fatalf("count seeded admin: %v", err)
	}
	if seeded > 1 {
		t.Errorf("seed created %d admin rows, want at most 1", seeded)
	}
}
