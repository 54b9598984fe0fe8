package main

import (
	"database/sql"
	"fmt"
	"log"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"

	"storefront-accounts/config"
	"storefront-accounts/pkg/helpers"
)

// Seeds the initial admin account. Registration is admin-gated, so a fresh
// deployment needs one bootstrapped administrator.
func main() {
	_ = godotenv.Load()
	cfg := config.Load()

	db, err := sql.Open("pgx", cfg.PostgresDSN())
	if err != nil {
		log.Fatalf("failed to open db: %v", err)
	}
	defer func() { _ = db.Close() }()

	email := "admin@storefront.local"
	password := "change-me-now"
	hash, err := helpers.HashPassword(password)
	if err != nil {
		log.Fatalf("failed to hash password: %v", err)
	}

	var id string
	err = db.QueryRow(`
		INSERT INTO accounts (email, first_name, last_name, role, password_hash, is_active)
		VALUES (lower($1), 'Store', 'Admin', 'admin', $2, true)
		ON CONFLICT (email) DO UPDATE SET role = 'admin', is_active = true
		RETURNING id
	`, email, hash).Scan(&id)
	if err != nil {
		log.Fatalf("failed to seed admin account: %v", err)
	}
	fmt.Printf("seeded admin account: id=%s email=%s password=%s\n", id, email, password)
}
