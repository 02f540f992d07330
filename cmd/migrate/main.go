// Command migrate creates the experiment engine's database schema.
package main

import (
	"log"
	"os"

	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
)

var schema = []string{
	`CREATE TABLE IF NOT EXISTS experiments (
		id                 TEXT PRIMARY KEY,
		name               TEXT NOT NULL,
		description        TEXT NOT NULL DEFAULT '',
		status             TEXT NOT NULL,
		variants           JSONB NOT NULL DEFAULT '[]',
		targeting          JSONB,
		allocation         INTEGER NOT NULL DEFAULT 100,
		metrics            JSONB NOT NULL DEFAULT '[]',
		start_at           TIMESTAMPTZ,
		end_at             TIMESTAMPTZ,
		winner_variant_id  TEXT,
		created_at         TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at         TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS experiment_events (
		id             TEXT PRIMARY KEY,
		experiment_id  TEXT NOT NULL,
		variant_id     TEXT NOT NULL,
		name           TEXT NOT NULL,
		value          DOUBLE PRECISION NOT NULL DEFAULT 0,
		user_id        TEXT NOT NULL DEFAULT '',
		session_id     TEXT NOT NULL,
		metadata       JSONB,
		timestamp      TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_events_experiment_name
		ON experiment_events (experiment_id, name)`,
	`CREATE INDEX IF NOT EXISTS idx_experiments_status
		ON experiments (status)`,
}

func main() {
	_ = godotenv.Load()

	databaseURL := os.Getenv("DATABASE_URL")
	if len(os.Args) > 1 {
		databaseURL = os.Args[1]
	}
	if databaseURL == "" {
		log.Fatal("Usage: migrate <database_url> (or set DATABASE_URL)")
	}

	db, err := sqlx.Connect("postgres", databaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	for _, stmt := range schema {
		if _, err := db.Exec(stmt); err != nil {
			log.Fatalf("Migration failed: %v", err)
		}
	}
	log.Println("Schema is up to date")
}
