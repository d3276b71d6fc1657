package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"property-backend/internal/auth"
	"property-backend/internal/config"
	"property-backend/internal/db"
	"property-backend/internal/models"
	"property-backend/internal/repositories"
)

// Child tables first so TRUNCATE never trips a foreign key
var tables = []string{
	"payments",
	"maintenance_requests",
	"leases",
	"tenants",
	"properties",
	"landlords",
}

func main() {
	email := flag.String("email", "owner@example.com", "Email of the landlord to create")
	password := flag.String("password", "", "Password of the landlord to create (required)")
	name := flag.String("name", "Default Landlord", "Name of the landlord to create")
	yes := flag.Bool("yes", false, "Skip the confirmation prompt")
	flag.Parse()

	if *password == "" {
		log.Fatal("-password is required")
	}

	fmt.Println("========================================")
	fmt.Println("   Reset Database for Testing")
	fmt.Println("========================================")
	fmt.Println()
	fmt.Println("WARNING: This will DELETE ALL landlords, properties, tenants, leases and payments!")
	fmt.Println()

	if !*yes {
		fmt.Print("Type 'yes' to confirm: ")
		confirm, _ := bufio.NewReader(os.Stdin).ReadString('\n')
		if strings.TrimSpace(confirm) != "yes" {
			fmt.Println("Reset cancelled.")
			return
		}
	}

	cfg := config.Load()
	pool := db.Connect(cfg)
	defer pool.Close()

	ctx := context.Background()

	tx, err := pool.Begin(ctx)
	if err != nil {
		log.Fatalf("Failed to begin transaction: %v", err)
	}
	defer tx.Rollback(ctx)

	for _, table := range tables {
		if _, err := tx.Exec(ctx, fmt.Sprintf("TRUNCATE TABLE %s RESTART IDENTITY CASCADE", table)); err != nil {
			log.Fatalf("Failed to truncate %s: %v", table, err)
		}
		fmt.Printf("  - Cleared %s\n", table)
	}

	if err := tx.Commit(ctx); err != nil {
		log.Fatalf("Failed to commit transaction: %v", err)
	}

	hash, err := auth.HashPassword(*password)
	if err != nil {
		log.Fatalf("Failed to hash password: %v", err)
	}
	landlord := &models.Landlord{Name: *name, Email: *email, PasswordHash: hash}
	if err := repositories.NewLandlordRepository(pool).Create(ctx, landlord); err != nil {
		log.Fatalf("Failed to create landlord: %v", err)
	}

	fmt.Println()
	fmt.Println("Database reset successful!")
	fmt.Printf("Landlord #%d can log in as %s\n", landlord.ID, landlord.Email)
}
