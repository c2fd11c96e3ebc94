package main

import (
	"fmt"
	"log"
	"os"

	"github.com/joho/godotenv"

	"hamkae-backend/internal/database"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		log.Fatal("DATABASE_URL environment variable not set")
	}

	db, err := database.Connect(dbURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	if err := database.Migrate(db); err != nil {
		log.Fatalf("Migration failed: %v", err)
	}

	// Query and display summary
	var result struct {
		Users   int `db:"users"`
		Markers int `db:"markers"`
		Photos  int `db:"photos"`
		Tasks   int `db:"tasks"`
	}

	query := `
		SELECT
			(SELECT COUNT(*) FROM users) AS users,
			(SELECT COUNT(*) FROM markers) AS markers,
			(SELECT COUNT(*) FROM photos) AS photos,
			(SELECT COUNT(*) FROM verification_tasks WHERE status = 'pending') AS tasks
	`

	if err := db.Get(&result, query); err != nil {
		log.Fatalf("Failed to query summary: %v", err)
	}

	fmt.Println("\n============================================================")
	fmt.Println("MIGRATION SUMMARY")
	fmt.Println("============================================================")
	fmt.Printf("Users:                   %d\n", result.Users)
	fmt.Printf("Markers:                 %d\n", result.Markers)
	fmt.Printf("Photos:                  %d\n", result.Photos)
	fmt.Printf("Pending verifications:   %d\n", result.Tasks)
	fmt.Println("============================================================")
}
