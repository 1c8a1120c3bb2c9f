package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/uni-dcs/records-api/pkg/config"
	"github.com/uni-dcs/records-api/pkg/database"
)

// Seeds the first admin account and, optionally, the current academic
// session so a fresh deployment is usable without manual SQL.
func main() {
	var (
		email    string
		password string
		fullName string
		session  string
		timeout  time.Duration
	)

	flag.StringVar(&email, "email", "admin@records.local", "Admin email")
	flag.StringVar(&password, "password", "", "Admin password (required)")
	flag.StringVar(&fullName, "name", "System Administrator", "Admin full name")
	flag.StringVar(&session, "session", "", "Academic session token to create as current, e.g. 2025/2026")
	flag.DurationVar(&timeout, "timeout", 10*time.Second, "Database operation timeout")
	flag.Parse()

	if password == "" {
		log.Fatal("password is required")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		log.Fatalf("failed to hash password: %v", err)
	}

	now := time.Now().UTC()
	res, err := db.ExecContext(ctx, `
		INSERT INTO users (id, email, password_hash, full_name, role, active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, 'ADMIN', true, $5, $5)
		ON CONFLICT (email) DO NOTHING`,
		uuid.NewString(), email, string(hash), fullName, now)
	if err != nil {
		log.Fatalf("failed to seed admin: %v", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		fmt.Printf("admin %s already exists, skipped\n", email)
	} else {
		fmt.Printf("admin %s created\n", email)
	}

	if session != "" {
		start := time.Date(now.Year(), time.September, 1, 0, 0, 0, 0, time.UTC)
		end := start.AddDate(1, 0, 0)
		res, err := db.ExecContext(ctx, `
			INSERT INTO academic_sessions (id, token, start_date, end_date, is_active, is_current, created_at, updated_at)
			VALUES ($1, $2, $3, $4, true, true, $5, $5)
			ON CONFLICT (token) DO NOTHING`,
			uuid.NewString(), session, start, end, now)
		if err != nil {
			log.Fatalf("failed to seed session: %v", err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			fmt.Printf("session %s already exists, skipped\n", session)
		} else {
			fmt.Printf("session %s created as current\n", session)
		}
	}
}
