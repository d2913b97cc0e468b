package main

import (
	"log"
	"os"

	"github.com/launchdeck-platform/database"
)

// Standalone schema migration, for environments where the API server
// does not run migrations itself.
func main() {
	log.Println("Starting database migration...")

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		log.Fatal("DATABASE_URL must be set")
	}

	conn, err := database.NewDBConnection("primary", dbURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	if err := conn.Migrate(); err != nil {
		log.Fatalf("Schema migration failed: %v", err)
	}

	log.Println("Database migration completed successfully!")
}
